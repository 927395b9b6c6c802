package quotes

import (
	"context"
	"encoding/json"
	"time"

	"risk-calculator-go/internal/metrics"

	"go.uber.org/zap"
)

// CachedProvider is a read-through cache in front of another provider.
// Only live results are stored; estimates are recomputed on every call.
type CachedProvider struct {
	next   Provider
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

var _ Provider = (*CachedProvider)(nil)

// NewCachedProvider wraps next with a read-through cache holding live quotes for ttl.
func NewCachedProvider(next Provider, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedProvider {
	return &CachedProvider{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (p *CachedProvider) Name() string {
	return p.next.Name()
}

func (p *CachedProvider) Quote(ctx context.Context, symbol string) (*Quote, error) {
	key := NormalizeSymbol(symbol)
	if key == "" {
		return nil, ErrNotFound
	}

	if q := p.lookup(ctx, key); q != nil {
		metrics.RecordQuote(p.next.Name(), metrics.OutcomeHit)
		return q, nil
	}

	q, err := p.next.Quote(ctx, key)
	if err != nil {
		metrics.RecordQuote(p.next.Name(), metrics.OutcomeError)
		return nil, err
	}
	if q.Estimate {
		return q, nil
	}

	b, err := json.Marshal(q)
	if err != nil {
		p.logger.Warn("Failed to encode quote for cache", zap.String("symbol", key), zap.Error(err))
		return q, nil
	}
	if err := p.cache.Set(ctx, key, b, p.ttl); err != nil {
		p.logger.Warn("Failed to write quote cache", zap.String("symbol", key), zap.Error(err))
	}
	return q, nil
}

func (p *CachedProvider) lookup(ctx context.Context, key string) *Quote {
	b, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("Failed to read quote cache", zap.String("symbol", key), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var q Quote
	if err := json.Unmarshal(b, &q); err != nil {
		p.logger.Warn("Discarding unreadable cached quote", zap.String("symbol", key), zap.Error(err))
		return nil
	}
	q.Cached = true
	return &q
}
