package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserSettings stores the capital and the per-trade risk of a user.
// There is exactly one row per user.
type UserSettings struct {
	gorm.Model
	UserID      uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	Capital     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"capital"`
	RiskPercent decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"risk_percent"`
}
