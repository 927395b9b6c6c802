package history

import (
	"context"
	"testing"
	"time"

	"risk-calculator-go/internal/config"
	"risk-calculator-go/internal/database"
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

// newTestService returns a service whose clock advances one second per saved row.
func newTestService(t *testing.T) *Service {
	s := NewService(setupTestDB(t), config.History{DefaultLimit: 50, MaxLimit: 100}, zap.NewNop())
	clock := time.Date(2025, 3, 1, 9, 15, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func longEntry(symbol string) Entry {
	return Entry{
		Symbol:     symbol,
		EntryPrice: decimal.NewFromInt(100),
		StopLoss:   decimal.NewFromInt(95),
		Quantity:   400,
		Direction:  risk.Long,
	}
}

func TestSave(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	row, err := s.Save(ctx, 1, longEntry("reliance"))
	require.NoError(t, err)
	assert.Equal(t, "RELIANCE", row.Symbol)
	assert.Equal(t, "5.00", row.RiskPerQuantity.StringFixed(2))
	assert.Equal(t, "2000.00", row.RiskAmount.StringFixed(2))

	rows, err := s.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].RiskAmount.Equal(decimal.NewFromInt(2000)), "risk amount is read back unchanged")
	assert.Equal(t, "long", rows[0].Direction)

	t.Run("Short", func(t *testing.T) {
		row, err := s.Save(ctx, 1, Entry{
			EntryPrice: decimal.RequireFromString("50.5"),
			StopLoss:   decimal.RequireFromString("52.25"),
			Quantity:   10,
			Direction:  risk.Short,
		})
		require.NoError(t, err)
		assert.Equal(t, "N/A", row.Symbol)
		assert.Equal(t, "17.50", row.RiskAmount.StringFixed(2))
	})

	t.Run("WrongSideRejected", func(t *testing.T) {
		e := longEntry("TCS")
		e.Direction = risk.Short
		_, err := s.Save(ctx, 1, e)
		assert.EqualError(t, err, "For Short trades, entry price must be lower than stop loss.")
	})

	t.Run("ZeroQuantityRejected", func(t *testing.T) {
		e := longEntry("TCS")
		e.Quantity = 0
		_, err := s.Save(ctx, 1, e)
		assert.True(t, risk.IsValidation(err))
	})
}

func TestSave_RoundsPricesBeforeDerivingRisk(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	row, err := s.Save(ctx, 1, Entry{
		Symbol:     "TCS",
		EntryPrice: decimal.RequireFromString("100.005"),
		StopLoss:   decimal.NewFromInt(95),
		Quantity:   1000,
		Direction:  risk.Long,
	})
	require.NoError(t, err)
	assert.Equal(t, "100.01", row.EntryPrice.StringFixed(2))
	assert.Equal(t, "5.01", row.RiskPerQuantity.StringFixed(2))
	assert.Equal(t, "5010.00", row.RiskAmount.StringFixed(2))

	stored := row.EntryPrice.Sub(row.StopLoss).Abs().Mul(decimal.NewFromInt(row.Quantity))
	assert.True(t, row.RiskAmount.Equal(stored), "risk amount matches the stored prices")
}

func TestSave_RejectsPricesEqualAfterRounding(t *testing.T) {
	s := newTestService(t)

	_, err := s.Save(context.Background(), 1, Entry{
		EntryPrice: decimal.RequireFromString("100.004"),
		StopLoss:   decimal.RequireFromString("100.001"),
		Quantity:   10,
		Direction:  risk.Long,
	})
	require.Error(t, err)
	assert.True(t, risk.IsValidation(err))

	rows, err := s.List(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestList_NewestFirstAndCapped(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 105; i++ {
		_, err := s.Save(ctx, 7, longEntry("ITC"))
		require.NoError(t, err)
	}
	last, err := s.Save(ctx, 7, longEntry("SBIN"))
	require.NoError(t, err)

	rows, err := s.List(ctx, 7, 500)
	require.NoError(t, err)
	assert.Len(t, rows, 100)
	assert.Equal(t, last.ID, rows[0].ID)
	for i := 1; i < len(rows); i++ {
		assert.False(t, rows[i].Timestamp.After(rows[i-1].Timestamp))
	}

	rows, err = s.List(ctx, 7, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 50)

	rows, err = s.List(ctx, 7, 3)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestClear_IsUserScoped(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Save(ctx, 1, longEntry("A"))
		require.NoError(t, err)
	}
	_, err := s.Save(ctx, 2, longEntry("B"))
	require.NoError(t, err)

	deleted, err := s.Clear(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	rows, err := s.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = s.List(ctx, 2, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestLimit(t *testing.T) {
	s := NewService(nil, config.History{}, zap.NewNop())
	assert.Equal(t, 50, s.Limit(-1))
	assert.Equal(t, 50, s.Limit(0))
	assert.Equal(t, 20, s.Limit(20))
	assert.Equal(t, 100, s.Limit(101))
}
