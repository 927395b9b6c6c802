// Package stocks maintains the local stock table used for search and as a quote source.
package stocks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"risk-calculator-go/internal/config"
	"risk-calculator-go/internal/metrics"
	"risk-calculator-go/internal/models"
	"risk-calculator-go/internal/quotes"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options selects what a refresh touches.
type Options struct {
	// Symbols limits the refresh to these tickers. Empty means the configured universe.
	Symbols []string
	// MaxStocks caps the number of symbols fetched. Zero uses the configured maximum.
	MaxStocks int
	// UpdatePricesOnly refreshes prices of rows already in the table and creates nothing.
	UpdatePricesOnly bool
	// Force refetches rows updated less than one refresh interval ago.
	Force bool
}

// Result counts the outcome of a refresh.
type Result struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Service refreshes and searches the stock table.
type Service struct {
	db       *gorm.DB
	provider quotes.Provider
	static   *quotes.StaticProvider
	cfg      config.Stocks
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a stock service. static answers searches when the table is empty.
func NewService(db *gorm.DB, provider quotes.Provider, static *quotes.StaticProvider, cfg config.Stocks, logger *zap.Logger) *Service {
	return &Service{
		db:       db,
		provider: provider,
		static:   static,
		cfg:      cfg,
		logger:   logger.Named("stocks"),
		now:      time.Now,
	}
}

// Run refreshes the table once and then every RefreshInterval until ctx is cancelled.
// A zero interval disables it.
func (s *Service) Run(ctx context.Context) {
	interval := s.cfg.RefreshInterval
	if interval <= 0 {
		s.logger.Info("Stock refresher disabled")
		return
	}

	s.logger.Info("Starting stock refresher", zap.Duration("interval", interval), zap.String("source", s.provider.Name()))
	s.refreshAndLog(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping stock refresher...")
			return
		case <-ticker.C:
			s.refreshAndLog(ctx)
		}
	}
}

func (s *Service) refreshAndLog(ctx context.Context) {
	res, err := s.Refresh(ctx, Options{})
	if err != nil {
		s.logger.Error("Stock refresh failed", zap.Error(err))
		return
	}
	s.logger.Info("Stock refresh finished",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed))
}

// Refresh fetches quotes from the provider and writes them to the table. A failure for one
// symbol is counted and logged; the remaining symbols are still processed.
func (s *Service) Refresh(ctx context.Context, opts Options) (Result, error) {
	var res Result

	symbols, err := s.symbols(ctx, opts)
	if err != nil {
		return res, err
	}

	existing, err := s.lastUpdated(ctx)
	if err != nil {
		return res, err
	}

	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		updatedAt, exists := existing[sym]
		if opts.UpdatePricesOnly && !exists {
			res.Skipped++
			continue
		}
		if exists && !opts.Force && s.fresh(updatedAt) {
			res.Skipped++
			continue
		}

		q, err := s.provider.Quote(ctx, sym)
		if err != nil {
			s.logger.Warn("Failed to fetch stock", zap.String("symbol", sym), zap.Error(err))
			res.Failed++
			continue
		}

		if opts.UpdatePricesOnly {
			err = s.updatePrices(ctx, sym, q)
		} else {
			err = s.upsert(ctx, sym, q)
		}
		if err != nil {
			s.logger.Error("Failed to save stock", zap.String("symbol", sym), zap.Error(err))
			res.Failed++
			continue
		}

		if exists {
			res.Updated++
		} else {
			res.Created++
		}
		s.logger.Debug("Stock refreshed", zap.String("symbol", sym), zap.Float64("last_price", q.LastPrice))
	}

	metrics.RecordStockRefresh(res.Created+res.Updated, res.Failed)
	return res, nil
}

// fresh reports whether a row was updated within the last refresh interval.
func (s *Service) fresh(updatedAt time.Time) bool {
	if s.cfg.RefreshInterval <= 0 {
		return false
	}
	return s.now().Sub(updatedAt) < s.cfg.RefreshInterval
}

func (s *Service) symbols(ctx context.Context, opts Options) ([]string, error) {
	var symbols []string
	switch {
	case len(opts.Symbols) > 0:
		symbols = opts.Symbols
	case opts.UpdatePricesOnly:
		if err := s.db.WithContext(ctx).Model(&models.StockData{}).Order("symbol").Pluck("symbol", &symbols).Error; err != nil {
			return nil, fmt.Errorf("failed to list stored symbols: %w", err)
		}
	case len(s.cfg.Universe) > 0:
		symbols = s.cfg.Universe
	default:
		symbols = s.static.Symbols()
	}

	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		sym = quotes.NormalizeSymbol(sym)
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}

	limit := opts.MaxStocks
	if limit <= 0 {
		limit = s.cfg.MaxStocks
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Service) lastUpdated(ctx context.Context) (map[string]time.Time, error) {
	var rows []models.StockData
	if err := s.db.WithContext(ctx).Select("symbol", "updated_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load stock table: %w", err)
	}
	out := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		out[r.Symbol] = r.UpdatedAt
	}
	return out, nil
}

func (s *Service) upsert(ctx context.Context, sym string, q *quotes.Quote) error {
	row := models.StockData{
		Symbol:      sym,
		CompanyName: q.CompanyName,
		LastPrice:   decimal.NewFromFloat(q.LastPrice).Round(2),
		Change:      decimal.NewFromFloat(q.Change).Round(2),
		PChange:     decimal.NewFromFloat(q.PChange).Round(2),
		Volume:      q.Volume,
		MarketCap:   q.MarketCap,
		IsActive:    true,
		UpdatedAt:   s.now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"company_name", "last_price", "change", "pchange", "volume", "market_cap", "is_active", "updated_at"}),
	}).Create(&row).Error
}

func (s *Service) updatePrices(ctx context.Context, sym string, q *quotes.Quote) error {
	return s.db.WithContext(ctx).Model(&models.StockData{}).Where("symbol = ?", sym).Updates(map[string]any{
		"last_price": decimal.NewFromFloat(q.LastPrice).Round(2),
		"change":     decimal.NewFromFloat(q.Change).Round(2),
		"pchange":    decimal.NewFromFloat(q.PChange).Round(2),
		"volume":     q.Volume,
		"updated_at": s.now(),
	}).Error
}

// Search returns active stored stocks whose symbol starts with q or whose company name contains
// it. When the table has no match the static table is searched instead.
func (s *Service) Search(ctx context.Context, q string, limit int) ([]quotes.Quote, error) {
	needle := strings.ToUpper(strings.TrimSpace(q))
	if needle == "" {
		return []quotes.Quote{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var rows []models.StockData
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("UPPER(symbol) LIKE ? OR UPPER(company_name) LIKE ?", needle+"%", "%"+needle+"%").
		Order("symbol").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search stocks: %w", err)
	}

	if len(rows) == 0 {
		return s.static.Search(needle, limit), nil
	}

	out := make([]quotes.Quote, 0, len(rows))
	for i := range rows {
		out = append(out, *quotes.FromStockData(&rows[i]))
	}
	return out, nil
}
