// Package quotes looks up stock quotes. Every source implements Provider; live sources are
// wrapped with a static fallback and a read-through cache so that callers always get a price.
package quotes

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Provider names, also used as rate limiter keys and metric labels.
const (
	SourceStatic  = "static"
	SourceDefault = "default"
	SourceYahoo   = "yahoo"
	SourcePolygon = "polygon"
	SourceStore   = "store"
)

var (
	ErrNotFound = errors.New("symbol not found")
	ErrNoPrice  = errors.New("quote has no price")
)

// Quote is a price snapshot for one symbol.
type Quote struct {
	Symbol      string    `json:"symbol"`
	CompanyName string    `json:"company_name"`
	LastPrice   float64   `json:"last_price"`
	Change      float64   `json:"change"`
	PChange     float64   `json:"pchange"`
	Volume      int64     `json:"volume"`
	MarketCap   int64     `json:"market_cap"`
	Source      string    `json:"source"`
	Estimate    bool      `json:"estimate"`
	Cached      bool      `json:"cached"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Provider returns a quote for a symbol.
type Provider interface {
	// Name identifies the data source.
	Name() string

	// Quote returns the latest known quote. Symbols are normalized by the provider.
	Quote(ctx context.Context, symbol string) (*Quote, error)
}

// NormalizeSymbol strips exchange suffixes and upper-cases the ticker.
// "reliance.ns" -> "RELIANCE"
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, suffix := range []string{".NS", ".BO"} {
		s = strings.TrimSuffix(s, suffix)
	}
	return s
}
