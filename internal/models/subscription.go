package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserSubscription is the app-level billing flag of an account.
// It is independent of the device trial tracked by DeviceSubscription.
type UserSubscription struct {
	gorm.Model
	UserID           uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	IsPaid           bool            `gorm:"default:false" json:"is_paid"`
	PaymentDate      *time.Time      `json:"payment_date,omitempty"`
	Amount           decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount"`
	PaymentReference string          `gorm:"size:100" json:"payment_reference,omitempty"`
}
