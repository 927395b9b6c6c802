package stocks

import (
	"context"
	"errors"
	"testing"
	"time"

	"risk-calculator-go/internal/config"
	"risk-calculator-go/internal/database"
	"risk-calculator-go/internal/models"
	"risk-calculator-go/internal/quotes"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MockProvider is a mock implementation of quotes.Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) Quote(ctx context.Context, symbol string) (*quotes.Quote, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quotes.Quote), args.Error(1)
}

func setupTest(t *testing.T, cfg config.Stocks) (*Service, *MockProvider, *gorm.DB, *time.Time) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db, &config.Subscription{TrialDays: 30}))

	provider := new(MockProvider)
	s := NewService(db, provider, quotes.NewStaticProvider(150), cfg, zap.NewNop())
	now := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, provider, db, &now
}

func quote(sym string, price float64) *quotes.Quote {
	return &quotes.Quote{Symbol: sym, CompanyName: sym + " Ltd", LastPrice: price, Change: 1.5, PChange: 0.5, Volume: 100}
}

func TestRefresh_CreatesAndUpdates(t *testing.T) {
	s, provider, db, _ := setupTest(t, config.Stocks{Universe: []string{"tcs.ns", "INFY", "TCS"}})
	ctx := context.Background()

	provider.On("Quote", mock.Anything, "TCS").Return(quote("TCS", 3850.755), nil).Once()
	provider.On("Quote", mock.Anything, "INFY").Return(quote("INFY", 1567.25), nil).Once()

	res, err := s.Refresh(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 2}, res)

	var row models.StockData
	require.NoError(t, db.Where("symbol = ?", "TCS").First(&row).Error)
	assert.Equal(t, "3850.76", row.LastPrice.StringFixed(2))
	assert.True(t, row.IsActive)

	provider.On("Quote", mock.Anything, "TCS").Return(quote("TCS", 3900), nil).Once()
	provider.On("Quote", mock.Anything, "INFY").Return(quote("INFY", 1600), nil).Once()

	res, err = s.Refresh(ctx, Options{Force: true})
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 2}, res)

	var count int64
	require.NoError(t, db.Model(&models.StockData{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
	require.NoError(t, db.Where("symbol = ?", "TCS").First(&row).Error)
	assert.True(t, row.LastPrice.Equal(decimal.NewFromInt(3900)))

	provider.AssertExpectations(t)
}

func TestRefresh_SkipsFreshRowsUnlessForced(t *testing.T) {
	s, provider, _, now := setupTest(t, config.Stocks{RefreshInterval: time.Hour, Universe: []string{"ITC"}})
	ctx := context.Background()

	provider.On("Quote", mock.Anything, "ITC").Return(quote("ITC", 456), nil)

	_, err := s.Refresh(ctx, Options{})
	require.NoError(t, err)

	*now = now.Add(10 * time.Minute)
	res, err := s.Refresh(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 1}, res)

	res, err = s.Refresh(ctx, Options{Force: true})
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 1}, res)

	*now = now.Add(2 * time.Hour)
	res, err = s.Refresh(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 1}, res)
}

func TestRefresh_FailuresAreCounted(t *testing.T) {
	s, provider, _, _ := setupTest(t, config.Stocks{})
	ctx := context.Background()

	provider.On("Quote", mock.Anything, "GOOD").Return(quote("GOOD", 10), nil)
	provider.On("Quote", mock.Anything, "BAD").Return(nil, errors.New("upstream down"))

	res, err := s.Refresh(ctx, Options{Symbols: []string{"good", "bad"}})
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 1, Failed: 1}, res)
}

func TestRefresh_UpdatePricesOnly(t *testing.T) {
	s, provider, db, _ := setupTest(t, config.Stocks{})
	ctx := context.Background()

	require.NoError(t, db.Create(&models.StockData{
		Symbol: "SBIN", CompanyName: "State Bank of India", LastPrice: decimal.NewFromInt(600), IsActive: true,
	}).Error)

	provider.On("Quote", mock.Anything, "SBIN").Return(&quotes.Quote{Symbol: "SBIN", CompanyName: "renamed", LastPrice: 680.5}, nil)

	res, err := s.Refresh(ctx, Options{UpdatePricesOnly: true, Force: true})
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 1}, res)

	var row models.StockData
	require.NoError(t, db.Where("symbol = ?", "SBIN").First(&row).Error)
	assert.Equal(t, "680.50", row.LastPrice.StringFixed(2))
	assert.Equal(t, "State Bank of India", row.CompanyName, "prices-only refresh keeps the name")

	res, err = s.Refresh(ctx, Options{UpdatePricesOnly: true, Force: true, Symbols: []string{"NEWCO"}})
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 1}, res, "prices-only refresh creates nothing")
	provider.AssertNotCalled(t, "Quote", mock.Anything, "NEWCO")
}

func TestRefresh_MaxStocksAndDefaultUniverse(t *testing.T) {
	s, provider, _, _ := setupTest(t, config.Stocks{MaxStocks: 200})
	ctx := context.Background()

	provider.On("Quote", mock.Anything, mock.AnythingOfType("string")).Return(quote("X", 1), nil)

	res, err := s.Refresh(ctx, Options{MaxStocks: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)

	// The static table lists its symbols in order.
	provider.AssertCalled(t, "Quote", mock.Anything, "ASIANPAINT")
	provider.AssertCalled(t, "Quote", mock.Anything, "BAJFINANCE")
	provider.AssertCalled(t, "Quote", mock.Anything, "BHARTIARTL")
}

func TestRefresh_StopsOnCancel(t *testing.T) {
	s, provider, _, _ := setupTest(t, config.Stocks{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Refresh(ctx, Options{Symbols: []string{"TCS"}})
	assert.ErrorIs(t, err, context.Canceled)
	provider.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything)
}

func TestRun_DisabledReturnsImmediately(t *testing.T) {
	s, _, _, _ := setupTest(t, config.Stocks{})

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return when the interval is zero")
	}
}

func TestSearch(t *testing.T) {
	s, _, db, _ := setupTest(t, config.Stocks{})
	ctx := context.Background()

	for _, row := range []models.StockData{
		{Symbol: "TATAMOTORS", CompanyName: "Tata Motors Ltd", LastPrice: decimal.NewFromInt(900), IsActive: true},
		{Symbol: "TCS", CompanyName: "Tata Consultancy Services Ltd", LastPrice: decimal.NewFromInt(3850), IsActive: true},
		{Symbol: "TITAN", CompanyName: "Titan Company Ltd", LastPrice: decimal.NewFromInt(3200), IsActive: true},
	} {
		require.NoError(t, db.Create(&row).Error)
	}

	got, err := s.Search(ctx, "tata", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "TATAMOTORS", got[0].Symbol)
	assert.Equal(t, "TCS", got[1].Symbol)
	assert.Equal(t, quotes.SourceStore, got[0].Source)

	got, err = s.Search(ctx, "t", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// No stored match falls back to the static table.
	got, err = s.Search(ctx, "bank", 10)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, quotes.SourceStatic, got[0].Source)

	got, err = s.Search(ctx, " ", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
