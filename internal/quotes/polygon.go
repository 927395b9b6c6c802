package quotes

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"go.uber.org/zap"
)

// previousCloseClient is the part of the polygon REST client used here.
type previousCloseClient interface {
	GetPreviousCloseAgg(ctx context.Context, params *models.GetPreviousCloseAggParams, opts ...models.RequestOption) (*models.GetPreviousCloseAggResponse, error)
}

// PolygonProvider reads the previous session's aggregate bar from polygon.io.
type PolygonProvider struct {
	client   previousCloseClient
	limiters *Limiters
	logger   *zap.Logger
	now      func() time.Time
}

var _ Provider = (*PolygonProvider)(nil)

// NewPolygonProvider creates a polygon.io backed provider.
func NewPolygonProvider(apiKey string, limiters *Limiters, logger *zap.Logger) *PolygonProvider {
	return &PolygonProvider{
		client:   polygon.New(apiKey),
		limiters: limiters,
		logger:   logger.Named("polygon"),
		now:      time.Now,
	}
}

func (p *PolygonProvider) Name() string {
	return SourcePolygon
}

func (p *PolygonProvider) Quote(ctx context.Context, symbol string) (*Quote, error) {
	sym := NormalizeSymbol(symbol)
	if sym == "" {
		return nil, ErrNotFound
	}

	if err := p.limiters.Wait(ctx, p.Name()); err != nil {
		return nil, err
	}

	p.logger.Debug("Fetching previous close", zap.String("symbol", sym))
	resp, err := p.client.GetPreviousCloseAgg(ctx, &models.GetPreviousCloseAggParams{Ticker: sym})
	if err != nil {
		return nil, fmt.Errorf("failed to get previous close for %s: %w", sym, err)
	}
	if resp == nil || len(resp.Results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sym)
	}

	bar := resp.Results[0]
	if bar.Close <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPrice, sym)
	}

	change := bar.Close - bar.Open
	pchange := 0.0
	if bar.Open > 0 {
		pchange = change / bar.Open * 100
	}

	return &Quote{
		Symbol:      sym,
		CompanyName: sym,
		LastPrice:   bar.Close,
		Change:      change,
		PChange:     pchange,
		Volume:      int64(bar.Volume),
		Source:      SourcePolygon,
		FetchedAt:   p.now(),
	}, nil
}
