package quotes

import (
	"fmt"

	"risk-calculator-go/internal/config"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewProvider builds the provider chain selected by cfg.Quotes.Source.
//
//	static              -> StaticProvider
//	yahoo|polygon|store -> Cached(Fallback(source, StaticProvider))
func NewProvider(cfg *config.Config, db *gorm.DB, cache Cache, limiters *Limiters, logger *zap.Logger) (Provider, error) {
	static := NewStaticProvider(cfg.Quotes.DefaultPrice)
	logger = logger.Named("quotes")

	var primary Provider
	switch cfg.Quotes.Source {
	case "", SourceStatic:
		return static, nil
	case SourceStore:
		primary = NewStoreProvider(db)
	default:
		var err error
		if primary, err = NewSourceProvider(cfg, limiters, logger); err != nil {
			return nil, err
		}
	}

	logger.Info("Quote provider configured",
		zap.String("source", primary.Name()),
		zap.Duration("cache_ttl", cfg.Quotes.CacheTTL))

	return NewCachedProvider(NewFallbackProvider(primary, static, logger), cache, cfg.Quotes.CacheTTL, logger), nil
}

// NewSourceProvider returns the bare external source without cache or fallback, as used by the
// stock table refresher. The store source has nothing to refresh from and maps to the static table.
func NewSourceProvider(cfg *config.Config, limiters *Limiters, logger *zap.Logger) (Provider, error) {
	switch cfg.Quotes.Source {
	case "", SourceStatic, SourceStore:
		return NewStaticProvider(cfg.Quotes.DefaultPrice), nil
	case SourceYahoo:
		return NewYahooProvider(&cfg.Quotes, limiters, logger), nil
	case SourcePolygon:
		if cfg.Quotes.PolygonAPIKey == "" {
			return nil, fmt.Errorf("quotes.polygon_api_key is required for the polygon source")
		}
		return NewPolygonProvider(cfg.Quotes.PolygonAPIKey, limiters, logger), nil
	default:
		return nil, fmt.Errorf("unknown quote source: %s", cfg.Quotes.Source)
	}
}
