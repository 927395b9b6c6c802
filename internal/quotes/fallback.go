package quotes

import (
	"context"

	"risk-calculator-go/internal/metrics"

	"go.uber.org/zap"
)

// FallbackProvider asks the primary source first and degrades to the static table when it
// fails or returns no price. It only fails when the symbol is empty.
type FallbackProvider struct {
	primary  Provider
	fallback *StaticProvider
	logger   *zap.Logger
}

var _ Provider = (*FallbackProvider)(nil)

// NewFallbackProvider answers from fallback whenever primary fails.
func NewFallbackProvider(primary Provider, fallback *StaticProvider, logger *zap.Logger) *FallbackProvider {
	return &FallbackProvider{primary: primary, fallback: fallback, logger: logger}
}

func (p *FallbackProvider) Name() string {
	return p.primary.Name()
}

func (p *FallbackProvider) Quote(ctx context.Context, symbol string) (*Quote, error) {
	q, err := p.primary.Quote(ctx, symbol)
	if err == nil && q != nil && q.LastPrice > 0 {
		metrics.RecordQuote(p.primary.Name(), metrics.OutcomeLive)
		return q, nil
	}

	if err != nil {
		p.logger.Warn("Quote source failed, using static estimate",
			zap.String("source", p.primary.Name()),
			zap.String("symbol", symbol),
			zap.Error(err))
	}
	metrics.RecordQuote(p.primary.Name(), metrics.OutcomeFallback)
	return p.fallback.Quote(ctx, symbol)
}
