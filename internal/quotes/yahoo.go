package quotes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"risk-calculator-go/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	yahooChartPath = "/v8/finance/chart/{symbol}"
	browserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// YahooProvider reads quotes from the Yahoo Finance chart API.
type YahooProvider struct {
	client   *resty.Client
	suffix   string
	limiters *Limiters
	logger   *zap.Logger
	now      func() time.Time
}

var _ Provider = (*YahooProvider)(nil)

// NewYahooProvider creates a Yahoo Finance chart client.
func NewYahooProvider(cfg *config.Quotes, limiters *Limiters, logger *zap.Logger) *YahooProvider {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", browserAgent).
		SetHeader("Accept", "application/json")

	return &YahooProvider{
		client:   client,
		suffix:   cfg.ExchangeSuffix,
		limiters: limiters,
		logger:   logger.Named("yahoo"),
		now:      time.Now,
	}
}

func (p *YahooProvider) Name() string {
	return SourceYahoo
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta chartMeta `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartMeta struct {
	Symbol             string  `json:"symbol"`
	LongName           string  `json:"longName"`
	ShortName          string  `json:"shortName"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	PreviousClose      float64 `json:"previousClose"`
	ChartPreviousClose float64 `json:"chartPreviousClose"`
	RegularMarketVol   int64   `json:"regularMarketVolume"`
}

// Quote fetches the current market price for symbol on the configured exchange.
func (p *YahooProvider) Quote(ctx context.Context, symbol string) (*Quote, error) {
	sym := NormalizeSymbol(symbol)
	if sym == "" {
		return nil, ErrNotFound
	}

	var result chartResponse
	req := p.client.R().
		SetContext(ctx).
		SetPathParam("symbol", sym+p.suffix).
		SetQueryParams(map[string]string{"interval": "1d", "range": "1d"}).
		SetResult(&result)

	if _, err := p.doRequest(ctx, http.MethodGet, yahooChartPath, req); err != nil {
		return nil, fmt.Errorf("failed to get quote for %s: %w", sym, err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrNotFound, sym, result.Chart.Error.Description)
	}
	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sym)
	}

	meta := result.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPrice, sym)
	}

	prevClose := meta.PreviousClose
	if prevClose <= 0 {
		prevClose = meta.ChartPreviousClose
	}
	if prevClose <= 0 {
		prevClose = meta.RegularMarketPrice
	}
	change := meta.RegularMarketPrice - prevClose
	pchange := 0.0
	if prevClose > 0 {
		pchange = change / prevClose * 100
	}

	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	if name == "" {
		name = sym
	}

	return &Quote{
		Symbol:      sym,
		CompanyName: name,
		LastPrice:   meta.RegularMarketPrice,
		Change:      change,
		PChange:     pchange,
		Volume:      meta.RegularMarketVol,
		Source:      SourceYahoo,
		FetchedAt:   p.now(),
	}, nil
}

// doRequest waits for the source's rate limiter and executes the request once.
// Failures are not retried; the caller falls back instead.
func (p *YahooProvider) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	if err := p.limiters.Wait(ctx, p.Name()); err != nil {
		return nil, err
	}

	p.logger.Debug("Executing request", zap.String("method", method), zap.String("url", p.client.BaseURL+url))
	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusNotFound:
		return nil, ErrNotFound
	case code == http.StatusTooManyRequests:
		p.logger.Warn("Quote source is rate limiting us", zap.String("retry_after", resp.Header().Get("Retry-After")))
		return nil, fmt.Errorf("request failed with status %s", resp.Status())
	case resp.IsError():
		return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
	}

	return resp, nil
}
