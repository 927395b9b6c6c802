package quotes

import (
	"context"
	"errors"
	"fmt"

	"risk-calculator-go/internal/models"

	"gorm.io/gorm"
)

// StoreProvider answers from the locally refreshed stock table.
type StoreProvider struct {
	db *gorm.DB
}

var _ Provider = (*StoreProvider)(nil)

// NewStoreProvider reads quotes from the stock table.
func NewStoreProvider(db *gorm.DB) *StoreProvider {
	return &StoreProvider{db: db}
}

func (p *StoreProvider) Name() string {
	return SourceStore
}

func (p *StoreProvider) Quote(ctx context.Context, symbol string) (*Quote, error) {
	sym := NormalizeSymbol(symbol)
	if sym == "" {
		return nil, ErrNotFound
	}

	var row models.StockData
	err := p.db.WithContext(ctx).Where("symbol = ? AND is_active = ?", sym, true).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sym)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stock %s: %w", sym, err)
	}

	return FromStockData(&row), nil
}

// FromStockData converts a stored row to a Quote.
func FromStockData(row *models.StockData) *Quote {
	return &Quote{
		Symbol:      row.Symbol,
		CompanyName: row.CompanyName,
		LastPrice:   row.LastPrice.InexactFloat64(),
		Change:      row.Change.InexactFloat64(),
		PChange:     row.PChange.InexactFloat64(),
		Volume:      row.Volume,
		MarketCap:   row.MarketCap,
		Source:      SourceStore,
		FetchedAt:   row.UpdatedAt,
	}
}
