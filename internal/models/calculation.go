package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CalculationHistory is a saved position-size calculation.
// RiskAmount is fixed at save time and never recomputed.
type CalculationHistory struct {
	gorm.Model
	UserID          uint            `gorm:"index:idx_calc_user_time,priority:1;not null" json:"user_id"`
	Symbol          string          `gorm:"size:50;not null" json:"symbol"`
	EntryPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"entry_price"`
	StopLoss        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"stop_loss"`
	Quantity        int64           `gorm:"not null" json:"quantity"`
	Direction       string          `gorm:"size:20;not null" json:"direction"` // "long" or "short"
	RiskPerQuantity decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"risk_per_quantity"`
	RiskAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"risk_amount"`
	Targets         string          `gorm:"type:text" json:"targets"`
	Timestamp       time.Time       `gorm:"index:idx_calc_user_time,priority:2;not null" json:"timestamp"`
}
