// Package priceoracle is the HTTP client for the spot price feed. It
// implements the rates.PriceOracle port.
package priceoracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"custos/pkg/platform/sentinel"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

type spotResponse struct {
	Rate string `json:"rate"`
}

// SpotRate fetches the current base/quote rate. Unknown pairs map to
// sentinel.ErrPairUnavailable so the converter can fall through to the cross
// rate.
func (c *Client) SpotRate(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/v1/spot?base=%s&quote=%s",
		c.baseURL, url.QueryEscape(base), url.QueryEscape(quote))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build spot request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch spot rate %s/%s: %w", base, quote, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return decimal.Zero, sentinel.ErrPairUnavailable
	default:
		io.Copy(io.Discard, resp.Body)
		return decimal.Zero, fmt.Errorf("fetch spot rate %s/%s: status %d", base, quote, resp.StatusCode)
	}

	var spot spotResponse
	if err := json.NewDecoder(resp.Body).Decode(&spot); err != nil {
		return decimal.Zero, fmt.Errorf("decode spot rate: %w", err)
	}
	rate, err := decimal.NewFromString(spot.Rate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse spot rate %q: %w", spot.Rate, err)
	}
	return rate, nil
}
