package collector

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"PriceSentinel/internal/model"
)

const defaultBlockworksURL = "https://blockworks.co/price"

// pricePattern captures the text of the headline price element.
var pricePattern = regexp.MustCompile(`<p class="w-64 text-4xl text-left text-dark">([^<]*)<`)

// BlockworksFetcher scrapes the public price page for a symbol.
type BlockworksFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewBlockworksFetcher creates a scraper; an empty baseURL uses the public site.
func NewBlockworksFetcher(baseURL, proxyURL string) *BlockworksFetcher {
	if baseURL == "" {
		baseURL = defaultBlockworksURL
	}
	return &BlockworksFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *BlockworksFetcher) Name() string { return "blockworks" }

func (f *BlockworksFetcher) FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/%s", f.BaseURL, strings.ToLower(symbol))
	body, err := get(ctx, f.Client, endpoint, http.Header{"User-Agent": {"Mozilla/5.0"}})
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("blockworks fetch: %w", err)
	}
	m := pricePattern.FindSubmatch(body)
	if m == nil {
		return decimal.Decimal{}, fmt.Errorf("blockworks: price element not found")
	}
	price, err := model.ParsePrice(string(m[1]))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("blockworks: parse %q: %w", m[1], err)
	}
	return price, nil
}
