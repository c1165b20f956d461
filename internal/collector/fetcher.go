package collector

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrFetch marks a failed price fetch. A failed cycle produces no observation.
var ErrFetch = errors.New("price fetch failed")

// Fetcher supplies the current price of a symbol.
type Fetcher interface {
	FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	Name() string
}
