// Package accounts manages users, their calculator settings and their app-level subscription row.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"risk-calculator-go/internal/config"
	"risk-calculator-go/internal/models"
	"risk-calculator-go/internal/risk"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
)

// Service owns the user, settings and app subscription tables.
type Service struct {
	db       *gorm.DB
	defaults config.Risk
	logger   *zap.Logger
}

// NewService creates an account service. defaults seed the settings of new users.
func NewService(db *gorm.DB, defaults config.Risk, logger *zap.Logger) *Service {
	return &Service{db: db, defaults: defaults, logger: logger.Named("accounts")}
}

// DefaultSettings returns the settings a new account starts with.
func (s *Service) DefaultSettings(userID uint) models.UserSettings {
	return models.UserSettings{
		UserID:      userID,
		Capital:     decimal.NewFromFloat(s.defaults.DefaultCapital).Round(2),
		RiskPercent: decimal.NewFromFloat(s.defaults.DefaultRiskPercent).Round(2),
	}
}

// CreateAccount creates a user with its default settings and subscription row in one transaction.
// An empty password creates an account that cannot sign in with a password.
func (s *Service) CreateAccount(ctx context.Context, username, email, password string) (*models.User, error) {
	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = s.CreateAccountTx(tx, username, email, password)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account created", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// CreateAccountTx is CreateAccount inside a transaction owned by the caller.
func (s *Service) CreateAccountTx(tx *gorm.DB, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &risk.ValidationError{Field: "username", Message: "Username is required"}
	}

	var count int64
	if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	user := &models.User{Username: username, Email: strings.TrimSpace(email)}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := tx.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	settings := s.DefaultSettings(user.ID)
	if err := tx.Create(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to create settings: %w", err)
	}

	sub := models.UserSubscription{UserID: user.ID}
	if err := tx.Create(&sub).Error; err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	user.Settings = &settings
	user.Subscription = &sub
	return user, nil
}

// Authenticate checks a username and password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// GetUser loads a user with its settings and subscription.
func (s *Service) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Settings").Preload("Subscription").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return &user, nil
}

// GetOrCreateSettings returns the settings of a user, creating the default row if it is missing.
func (s *Service) GetOrCreateSettings(ctx context.Context, userID uint) (*models.UserSettings, error) {
	settings := s.DefaultSettings(userID)
	err := s.db.WithContext(ctx).
		Where(models.UserSettings{UserID: userID}).
		Attrs(models.UserSettings{Capital: settings.Capital, RiskPercent: settings.RiskPercent}).
		FirstOrCreate(&settings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load settings for user %d: %w", userID, err)
	}
	return &settings, nil
}

// UpdateSettings validates and stores new capital and risk percent values.
func (s *Service) UpdateSettings(ctx context.Context, userID uint, capital, riskPercent decimal.Decimal) (*models.UserSettings, error) {
	if err := risk.ValidateSettings(capital, riskPercent); err != nil {
		return nil, err
	}

	settings, err := s.GetOrCreateSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	settings.Capital = capital.Round(2)
	settings.RiskPercent = riskPercent.Round(2)
	err = s.db.WithContext(ctx).Model(settings).Updates(map[string]any{
		"capital":      settings.Capital,
		"risk_percent": settings.RiskPercent,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update settings for user %d: %w", userID, err)
	}

	s.logger.Debug("Settings updated",
		zap.Uint("user_id", userID),
		zap.String("capital", settings.Capital.StringFixed(2)),
		zap.String("risk_percent", settings.RiskPercent.StringFixed(2)))
	return settings, nil
}

// GetOrCreateSubscription returns the app-level subscription row of a user.
func (s *Service) GetOrCreateSubscription(ctx context.Context, userID uint) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := s.db.WithContext(ctx).Where(models.UserSubscription{UserID: userID}).FirstOrCreate(&sub).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription for user %d: %w", userID, err)
	}
	return &sub, nil
}

// GetUserByUsername loads a user by name.
func (s *Service) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", username, err)
	}
	return &user, nil
}

// MarkSubscriptionPaid records a payment on the app-level subscription of a user.
func (s *Service) MarkSubscriptionPaid(ctx context.Context, userID uint, amount decimal.Decimal, reference string) (*models.UserSubscription, error) {
	if amount.IsNegative() {
		return nil, &risk.ValidationError{Field: "amount", Message: "Amount cannot be negative"}
	}

	sub, err := s.GetOrCreateSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	paidAt := time.Now()
	sub.IsPaid = true
	sub.PaymentDate = &paidAt
	sub.Amount = amount.Round(2)
	sub.PaymentReference = reference
	if err := s.db.WithContext(ctx).Save(sub).Error; err != nil {
		return nil, fmt.Errorf("failed to mark subscription paid for user %d: %w", userID, err)
	}

	s.logger.Info("Subscription marked paid",
		zap.Uint("user_id", userID),
		zap.String("amount", sub.Amount.StringFixed(2)),
		zap.String("reference", reference))
	return sub, nil
}
