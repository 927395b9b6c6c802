package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePreviousClose struct {
	resp   *models.GetPreviousCloseAggResponse
	err    error
	ticker string
}

func (f *fakePreviousClose) GetPreviousCloseAgg(_ context.Context, params *models.GetPreviousCloseAggParams, _ ...models.RequestOption) (*models.GetPreviousCloseAggResponse, error) {
	f.ticker = params.Ticker
	return f.resp, f.err
}

func newTestPolygon(client previousCloseClient) *PolygonProvider {
	return &PolygonProvider{
		client:   client,
		limiters: NewLimiters(0, 1),
		logger:   zap.NewNop(),
		now:      func() time.Time { return time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC) },
	}
}

func TestPolygonProvider_Quote(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		fake := &fakePreviousClose{resp: &models.GetPreviousCloseAggResponse{
			Results: []models.Agg{{Open: 100, Close: 110, Volume: 5000}},
		}}

		q, err := newTestPolygon(fake).Quote(context.Background(), "aapl")

		require.NoError(t, err)
		assert.Equal(t, "AAPL", fake.ticker)
		assert.Equal(t, 110.0, q.LastPrice)
		assert.Equal(t, 10.0, q.Change)
		assert.InDelta(t, 10.0, q.PChange, 1e-9)
		assert.Equal(t, int64(5000), q.Volume)
		assert.Equal(t, SourcePolygon, q.Source)
	})

	t.Run("NoResults", func(t *testing.T) {
		fake := &fakePreviousClose{resp: &models.GetPreviousCloseAggResponse{}}
		_, err := newTestPolygon(fake).Quote(context.Background(), "NONE")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ZeroClose", func(t *testing.T) {
		fake := &fakePreviousClose{resp: &models.GetPreviousCloseAggResponse{
			Results: []models.Agg{{Open: 1}},
		}}
		_, err := newTestPolygon(fake).Quote(context.Background(), "ZERO")
		assert.ErrorIs(t, err, ErrNoPrice)
	})

	t.Run("ClientError", func(t *testing.T) {
		fake := &fakePreviousClose{err: errors.New("unauthorized")}
		_, err := newTestPolygon(fake).Quote(context.Background(), "MSFT")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "MSFT")
	})
}
