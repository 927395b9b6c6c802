package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockData is the locally stored snapshot of a quote, refreshed periodically.
type StockData struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Symbol      string          `gorm:"uniqueIndex;size:20;not null" json:"symbol"`
	CompanyName string          `gorm:"size:200" json:"company_name"`
	LastPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"last_price"`
	Change      decimal.Decimal `gorm:"type:decimal(12,2)" json:"change"`
	PChange     decimal.Decimal `gorm:"column:pchange;type:decimal(8,2)" json:"pchange"`
	Volume      int64           `gorm:"default:0" json:"volume"`
	MarketCap   int64           `json:"market_cap"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
