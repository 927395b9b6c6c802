package quotes

import (
	"context"
	"sort"
	"strings"
	"time"
)

// staticQuotes is a snapshot of approximate prices used when no live source answers.
var staticQuotes = map[string]Quote{
	"RELIANCE":   {CompanyName: "Reliance Industries Ltd", LastPrice: 2450.50, Change: 25.30, PChange: 1.04, Volume: 1500000, MarketCap: 1658000000000},
	"TCS":        {CompanyName: "Tata Consultancy Services Ltd", LastPrice: 3850.75, Change: -15.25, PChange: -0.39, Volume: 800000, MarketCap: 1400000000000},
	"HDFCBANK":   {CompanyName: "HDFC Bank Ltd", LastPrice: 1678.90, Change: 12.45, PChange: 0.75, Volume: 2000000, MarketCap: 950000000000},
	"INFY":       {CompanyName: "Infosys Ltd", LastPrice: 1567.25, Change: 8.75, PChange: 0.56, Volume: 1200000, MarketCap: 650000000000},
	"ICICIBANK":  {CompanyName: "ICICI Bank Ltd", LastPrice: 945.60, Change: -5.40, PChange: -0.57, Volume: 1800000, MarketCap: 660000000000},
	"HINDUNILVR": {CompanyName: "Hindustan Unilever Ltd", LastPrice: 2655.40},
	"BHARTIARTL": {CompanyName: "Bharti Airtel Ltd", LastPrice: 1234.80, Change: 18.90, PChange: 1.55, Volume: 900000, MarketCap: 680000000000},
	"ITC":        {CompanyName: "ITC Ltd", LastPrice: 456.25, Change: -2.15, PChange: -0.47, Volume: 2500000, MarketCap: 570000000000},
	"KOTAKBANK":  {CompanyName: "Kotak Mahindra Bank Ltd", LastPrice: 1789.40, Change: 23.60, PChange: 1.34, Volume: 700000, MarketCap: 355000000000},
	"LT":         {CompanyName: "Larsen & Toubro Ltd", LastPrice: 3456.70, Change: 45.80, PChange: 1.34, Volume: 400000, MarketCap: 485000000000},
	"SBIN":       {CompanyName: "State Bank of India", LastPrice: 678.95, Change: -8.25, PChange: -1.20, Volume: 3000000, MarketCap: 605000000000},
	"WIPRO":      {CompanyName: "Wipro Ltd", LastPrice: 567.80, Change: 12.30, PChange: 2.22, Volume: 1100000, MarketCap: 310000000000},
	"HCLTECH":    {CompanyName: "HCL Technologies Ltd", LastPrice: 1456.25, Change: 19.50, PChange: 1.36, Volume: 650000, MarketCap: 395000000000},
	"MARUTI":     {CompanyName: "Maruti Suzuki India Ltd", LastPrice: 11234.50, Change: 125.75, PChange: 1.13, Volume: 200000, MarketCap: 340000000000},
	"ASIANPAINT": {CompanyName: "Asian Paints Ltd", LastPrice: 3245.60, Change: -18.40, PChange: -0.56, Volume: 300000, MarketCap: 311000000000},
	"BAJFINANCE": {CompanyName: "Bajaj Finance Ltd", LastPrice: 6789.30, Change: 89.70, PChange: 1.34, Volume: 180000, MarketCap: 419000000000},
}

// StaticProvider answers from the built-in table and falls back to a fixed default price.
// It never fails for a non-empty symbol.
type StaticProvider struct {
	defaultPrice float64
	now          func() time.Time
}

var _ Provider = (*StaticProvider)(nil)

// NewStaticProvider creates a StaticProvider. defaultPrice is returned for unknown symbols.
func NewStaticProvider(defaultPrice float64) *StaticProvider {
	return &StaticProvider{defaultPrice: defaultPrice, now: time.Now}
}

func (p *StaticProvider) Name() string {
	return SourceStatic
}

func (p *StaticProvider) Quote(_ context.Context, symbol string) (*Quote, error) {
	sym := NormalizeSymbol(symbol)
	if sym == "" {
		return nil, ErrNotFound
	}

	if q, ok := staticQuotes[sym]; ok {
		q.Symbol = sym
		q.Source = SourceStatic
		q.Estimate = true
		q.FetchedAt = p.now()
		return &q, nil
	}

	return &Quote{
		Symbol:      sym,
		CompanyName: sym + " Limited",
		LastPrice:   p.defaultPrice,
		Source:      SourceDefault,
		Estimate:    true,
		FetchedAt:   p.now(),
	}, nil
}

// Search returns up to limit table entries whose symbol starts with q or whose company name
// contains it, ordered by symbol.
func (p *StaticProvider) Search(q string, limit int) []Quote {
	needle := strings.ToUpper(strings.TrimSpace(q))
	if needle == "" {
		return nil
	}

	var out []Quote
	for sym, quote := range staticQuotes {
		if strings.HasPrefix(sym, needle) || strings.Contains(strings.ToUpper(quote.CompanyName), needle) {
			quote.Symbol = sym
			quote.Source = SourceStatic
			quote.Estimate = true
			out = append(out, quote)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Symbols lists the symbols of the built-in table in order.
func (p *StaticProvider) Symbols() []string {
	out := make([]string, 0, len(staticQuotes))
	for sym := range staticQuotes {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
