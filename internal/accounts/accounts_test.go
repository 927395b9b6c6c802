package accounts

import (
	"context"
	"testing"

	"risk-calculator-go/internal/config"
	"risk-calculator-go/internal/database"
	"risk-calculator-go/internal/models"
	"risk-calculator-go/internal/risk"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db, &config.Subscription{TrialDays: 30}))
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	db := setupTestDB(t)
	return NewService(db, config.Risk{DefaultCapital: 2000000, DefaultRiskPercent: 1}, zap.NewNop()), db
}

func TestCreateAccount(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()

	user, err := s.CreateAccount(ctx, " alice ", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	var settings models.UserSettings
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&settings).Error)
	assert.True(t, settings.Capital.Equal(decimal.NewFromInt(2000000)))
	assert.True(t, settings.RiskPercent.Equal(decimal.NewFromInt(1)))

	var subCount int64
	require.NoError(t, db.Model(&models.UserSubscription{}).Where("user_id = ?", user.ID).Count(&subCount).Error)
	assert.Equal(t, int64(1), subCount)

	t.Run("DuplicateUsername", func(t *testing.T) {
		_, err := s.CreateAccount(ctx, "alice", "", "other")
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("EmptyUsername", func(t *testing.T) {
		_, err := s.CreateAccount(ctx, "  ", "", "pw")
		assert.True(t, risk.IsValidation(err))
	})
}

func TestCreateAccount_RollsBackOnFailure(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()

	// Drop the settings table so the second insert of the transaction fails.
	require.NoError(t, db.Migrator().DropTable(&models.UserSettings{}))

	_, err := s.CreateAccount(ctx, "bob", "", "pw")
	require.Error(t, err)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users, "user row must not survive a failed account creation")
}

func TestAuthenticate(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.CreateAccount(ctx, "carol", "", "correct horse")
	require.NoError(t, err)
	_, err = s.CreateAccount(ctx, "device-123", "", "")
	require.NoError(t, err)

	user, err := s.Authenticate(ctx, "carol", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = s.Authenticate(ctx, "carol", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Authenticate(ctx, "nobody", "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Authenticate(ctx, "device-123", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "password-less accounts cannot sign in")
}

func TestGetUser(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.CreateAccount(ctx, "dave", "d@example.com", "pw")
	require.NoError(t, err)

	user, err := s.GetUser(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, user.Settings)
	require.NotNil(t, user.Subscription)
	assert.False(t, user.Subscription.IsPaid)

	_, err = s.GetUser(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSettings(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()

	user, err := s.CreateAccount(ctx, "erin", "", "pw")
	require.NoError(t, err)

	t.Run("Update", func(t *testing.T) {
		updated, err := s.UpdateSettings(ctx, user.ID, decimal.NewFromInt(200000), decimal.RequireFromString("1.5"))
		require.NoError(t, err)
		assert.Equal(t, "200000.00", updated.Capital.StringFixed(2))

		got, err := s.GetOrCreateSettings(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, got.Capital.Equal(decimal.NewFromInt(200000)))
		assert.True(t, got.RiskPercent.Equal(decimal.RequireFromString("1.5")))
	})

	t.Run("Validation", func(t *testing.T) {
		_, err := s.UpdateSettings(ctx, user.ID, decimal.NewFromInt(-1), decimal.NewFromInt(1))
		assert.EqualError(t, err, "Capital cannot be negative")

		_, err = s.UpdateSettings(ctx, user.ID, decimal.NewFromInt(1000), decimal.NewFromInt(101))
		assert.EqualError(t, err, "Risk percent must be between 0 and 100")

		got, err := s.GetOrCreateSettings(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, got.Capital.Equal(decimal.NewFromInt(200000)), "rejected update must not be stored")
	})

	t.Run("LazyDefaults", func(t *testing.T) {
		orphan := models.User{Username: "legacy"}
		require.NoError(t, db.Create(&orphan).Error)

		got, err := s.GetOrCreateSettings(ctx, orphan.ID)
		require.NoError(t, err)
		assert.NotZero(t, got.ID)
		assert.True(t, got.Capital.Equal(decimal.NewFromInt(2000000)))

		sub, err := s.GetOrCreateSubscription(ctx, orphan.ID)
		require.NoError(t, err)
		assert.Equal(t, orphan.ID, sub.UserID)
	})
}

func TestMarkSubscriptionPaid(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.CreateAccount(ctx, "frank", "", "pw")
	require.NoError(t, err)

	user, err := s.GetUserByUsername(ctx, "frank")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	sub, err := s.MarkSubscriptionPaid(ctx, user.ID, decimal.RequireFromString("499.00"), "UPI-123")
	require.NoError(t, err)
	assert.True(t, sub.IsPaid)
	require.NotNil(t, sub.PaymentDate)

	loaded, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Subscription.IsPaid)
	assert.Equal(t, "UPI-123", loaded.Subscription.PaymentReference)
	assert.True(t, loaded.Subscription.Amount.Equal(decimal.NewFromInt(499)))

	_, err = s.MarkSubscriptionPaid(ctx, user.ID, decimal.NewFromInt(-5), "")
	assert.True(t, risk.IsValidation(err))

	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
