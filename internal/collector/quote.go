package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

// QuoteFetcher reads prices from a JSON quote endpoint returning
// {"price": "<decimal>"} (string or number).
type QuoteFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewQuoteFetcher creates a JSON quote fetcher with optional proxy support.
func NewQuoteFetcher(baseURL, apiKey, proxyURL string) *QuoteFetcher {
	return &QuoteFetcher{BaseURL: baseURL, APIKey: apiKey, Client: newHTTPClient(proxyURL)}
}

func (f *QuoteFetcher) Name() string { return "quote" }

func (f *QuoteFetcher) FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s?symbol=%s", f.BaseURL, url.QueryEscape(symbol))
	header := http.Header{"Accept": {"application/json"}}
	if f.APIKey != "" {
		header.Set("Authorization", "Bearer "+f.APIKey)
	}
	body, err := get(ctx, f.Client, endpoint, header)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("fetch quote: %w", err)
	}
	var result struct {
		Price decimal.Decimal `json:"price"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode quote: %w", err)
	}
	return result.Price, nil
}
