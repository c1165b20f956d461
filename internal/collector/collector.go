package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"PriceSentinel/internal/metrics"
	"PriceSentinel/internal/model"
)

// MockFetcher returns a controllable price for development and testing.
type MockFetcher struct {
	Price decimal.Decimal
	Err   error
	Calls int

	mu sync.Mutex
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchPrice(_ context.Context, _ string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return decimal.Decimal{}, m.Err
	}
	return m.Price, nil
}

// Collector turns fetched prices into timestamped observations.
type Collector struct {
	Fetcher Fetcher
	Symbol  string
	Now     func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol string) *Collector {
	return &Collector{Fetcher: fetcher, Symbol: symbol, Now: time.Now}
}

// Sample fetches the current price and stamps it in UTC at second resolution.
func (c *Collector) Sample(ctx context.Context) (model.Observation, error) {
	price, err := c.Fetcher.FetchPrice(ctx, c.Symbol)
	if err != nil {
		metrics.FetchTotal.WithLabelValues(c.Fetcher.Name(), "error").Inc()
		return model.Observation{}, fmt.Errorf("%w: %s: %w", ErrFetch, c.Fetcher.Name(), err)
	}
	if !price.IsPositive() {
		metrics.FetchTotal.WithLabelValues(c.Fetcher.Name(), "invalid").Inc()
		return model.Observation{}, fmt.Errorf("%w: %s: non-positive price %s", ErrFetch, c.Fetcher.Name(), price)
	}
	metrics.FetchTotal.WithLabelValues(c.Fetcher.Name(), "ok").Inc()
	metrics.LastPrice.Set(price.InexactFloat64())

	return model.Observation{
		Timestamp: c.Now().UTC().Truncate(time.Second),
		Price:     price,
	}, nil
}
