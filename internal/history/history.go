// Package history stores the saved calculations of each user.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"risk-calculator-go/internal/config"
	"risk-calculator-go/internal/metrics"
	"risk-calculator-go/internal/models"
	"risk-calculator-go/internal/risk"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Entry is a calculation to be saved.
type Entry struct {
	Symbol     string
	EntryPrice decimal.Decimal
	StopLoss   decimal.Decimal
	Quantity   int64
	Direction  risk.Direction
	Targets    string
}

// Service appends, lists and clears calculation history rows.
type Service struct {
	db     *gorm.DB
	limits config.History
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a history service. Zero limits fall back to 50 and 100.
func NewService(db *gorm.DB, limits config.History, logger *zap.Logger) *Service {
	if limits.DefaultLimit <= 0 {
		limits.DefaultLimit = 50
	}
	if limits.MaxLimit <= 0 {
		limits.MaxLimit = 100
	}
	return &Service{db: db, limits: limits, logger: logger.Named("history"), now: time.Now}
}

// Save validates the entry, fixes its risk amount and appends it to the user's history.
// Prices are stored at two decimals, so they are rounded first and everything else is derived
// from the stored values.
func (s *Service) Save(ctx context.Context, userID uint, e Entry) (*models.CalculationHistory, error) {
	entry, stop := e.EntryPrice.Round(2), e.StopLoss.Round(2)
	if err := risk.ValidatePrices(entry, stop, e.Direction); err != nil {
		return nil, err
	}
	if e.Quantity <= 0 {
		return nil, &risk.ValidationError{Field: "quantity", Message: "Quantity must be greater than zero"}
	}

	symbol := strings.ToUpper(strings.TrimSpace(e.Symbol))
	if symbol == "" {
		symbol = "N/A"
	}

	row := &models.CalculationHistory{
		UserID:          userID,
		Symbol:          symbol,
		EntryPrice:      entry,
		StopLoss:        stop,
		Quantity:        e.Quantity,
		Direction:       string(e.Direction),
		RiskPerQuantity: risk.RiskPerUnit(entry, stop),
		RiskAmount:      risk.TradeRisk(entry, stop, e.Quantity),
		Targets:         e.Targets,
		Timestamp:       s.now(),
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to save calculation: %w", err)
	}

	metrics.RecordCalculationSaved(row.Direction)
	s.logger.Debug("Calculation saved",
		zap.Uint("user_id", userID),
		zap.String("symbol", row.Symbol),
		zap.String("risk_amount", row.RiskAmount.StringFixed(2)))
	return row, nil
}

// Limit clamps a requested page size to (0, MaxLimit]; non-positive values get the default.
func (s *Service) Limit(requested int) int {
	if requested <= 0 {
		return s.limits.DefaultLimit
	}
	if requested > s.limits.MaxLimit {
		return s.limits.MaxLimit
	}
	return requested
}

// List returns the newest calculations of a user first.
func (s *Service) List(ctx context.Context, userID uint, limit int) ([]models.CalculationHistory, error) {
	var rows []models.CalculationHistory
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp desc, id desc").
		Limit(s.Limit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list history for user %d: %w", userID, err)
	}
	return rows, nil
}

// Clear deletes every calculation owned by the user and returns how many were removed.
func (s *Service) Clear(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Unscoped().Where("user_id = ?", userID).Delete(&models.CalculationHistory{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear history for user %d: %w", userID, res.Error)
	}
	s.logger.Info("History cleared", zap.Uint("user_id", userID), zap.Int64("deleted", res.RowsAffected))
	return res.RowsAffected, nil
}
