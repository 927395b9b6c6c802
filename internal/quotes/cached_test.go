package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCachedProvider_ReadThrough(t *testing.T) {
	ctx := context.Background()
	next := new(MockProvider)
	next.On("Name").Return(SourceYahoo)
	next.On("Quote", mock.Anything, "TCS").
		Return(&Quote{Symbol: "TCS", LastPrice: 3900, Source: SourceYahoo}, nil).Once()

	p := NewCachedProvider(next, NewMemoryCache(), time.Minute, zap.NewNop())

	first, err := p.Quote(ctx, "tcs.ns")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 3900.0, first.LastPrice)

	second, err := p.Quote(ctx, "TCS")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 3900.0, second.LastPrice)

	next.AssertExpectations(t)
	next.AssertNumberOfCalls(t, "Quote", 1)
}

func TestCachedProvider_DoesNotCacheEstimates(t *testing.T) {
	ctx := context.Background()
	next := new(MockProvider)
	next.On("Name").Return(SourceYahoo)
	next.On("Quote", mock.Anything, "ITC").
		Return(&Quote{Symbol: "ITC", LastPrice: 456.25, Source: SourceStatic, Estimate: true}, nil)

	p := NewCachedProvider(next, NewMemoryCache(), time.Minute, zap.NewNop())

	for i := 0; i < 2; i++ {
		q, err := p.Quote(ctx, "ITC")
		require.NoError(t, err)
		assert.False(t, q.Cached)
	}
	next.AssertNumberOfCalls(t, "Quote", 2)
}

func TestCachedProvider_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	cache := NewMemoryCache()
	cache.now = func() time.Time { return now }

	next := new(MockProvider)
	next.On("Name").Return(SourceYahoo)
	next.On("Quote", mock.Anything, "SBIN").Return(&Quote{Symbol: "SBIN", LastPrice: 680}, nil)

	p := NewCachedProvider(next, cache, 5*time.Minute, zap.NewNop())

	_, err := p.Quote(ctx, "SBIN")
	require.NoError(t, err)
	now = now.Add(6 * time.Minute)
	_, err = p.Quote(ctx, "SBIN")
	require.NoError(t, err)

	next.AssertNumberOfCalls(t, "Quote", 2)
}

func TestCachedProvider_Errors(t *testing.T) {
	ctx := context.Background()
	next := new(MockProvider)
	next.On("Name").Return(SourceYahoo)
	next.On("Quote", mock.Anything, "BAD").Return(nil, errors.New("boom"))

	p := NewCachedProvider(next, NewMemoryCache(), time.Minute, zap.NewNop())

	_, err := p.Quote(ctx, "bad")
	assert.EqualError(t, err, "boom")

	_, err = p.Quote(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFallbackProvider(t *testing.T) {
	ctx := context.Background()
	static := NewStaticProvider(150)

	t.Run("LiveResultPassesThrough", func(t *testing.T) {
		primary := new(MockProvider)
		primary.On("Name").Return(SourceYahoo)
		primary.On("Quote", mock.Anything, "TCS").Return(&Quote{Symbol: "TCS", LastPrice: 4000, Source: SourceYahoo}, nil)

		q, err := NewFallbackProvider(primary, static, zap.NewNop()).Quote(ctx, "TCS")
		require.NoError(t, err)
		assert.Equal(t, 4000.0, q.LastPrice)
		assert.False(t, q.Estimate)
	})

	t.Run("ErrorUsesStaticTable", func(t *testing.T) {
		primary := new(MockProvider)
		primary.On("Name").Return(SourceYahoo)
		primary.On("Quote", mock.Anything, "TCS").Return(nil, errors.New("timeout"))

		q, err := NewFallbackProvider(primary, static, zap.NewNop()).Quote(ctx, "TCS")
		require.NoError(t, err)
		assert.Equal(t, 3850.75, q.LastPrice)
		assert.True(t, q.Estimate)
		assert.Equal(t, SourceStatic, q.Source)
	})

	t.Run("ZeroPriceUsesDefault", func(t *testing.T) {
		primary := new(MockProvider)
		primary.On("Name").Return(SourceYahoo)
		primary.On("Quote", mock.Anything, "NEWCO").Return(&Quote{Symbol: "NEWCO"}, nil)

		q, err := NewFallbackProvider(primary, static, zap.NewNop()).Quote(ctx, "NEWCO")
		require.NoError(t, err)
		assert.Equal(t, 150.0, q.LastPrice)
		assert.Equal(t, SourceDefault, q.Source)
	})

	t.Run("NameIsPrimary", func(t *testing.T) {
		primary := new(MockProvider)
		primary.On("Name").Return(SourcePolygon)
		assert.Equal(t, SourcePolygon, NewFallbackProvider(primary, static, zap.NewNop()).Name())
	})
}
