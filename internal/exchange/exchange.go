// Package exchange fetches the USD to INR conversion rate from a free
// public API. Failures never surface to callers; the client falls back
// to a fixed rate so the dashboard keeps rendering offline.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ccdash/internal/currency"
)

const defaultRateURL = "https://api.exchangerate-api.com/v4/latest/USD"

type ratesResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Client looks up the current USD to INR rate.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient returns a client against the public exchangerate-api endpoint.
func NewClient() *Client {
	return &Client{
		url:        defaultRateURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithURL overrides the endpoint, used in tests.
func NewClientWithURL(url string) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchINR returns the live USD to INR rate. The second return value is
// true when the lookup failed and the fixed fallback rate was used.
func (c *Client) FetchINR(ctx context.Context) (float64, bool) {
	rate, err := c.fetch(ctx)
	if err != nil {
		return currency.DefaultRate, true
	}
	return rate, false
}

func (c *Client) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate API returned %d", resp.StatusCode)
	}

	var parsed ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, err
	}

	rate, ok := parsed.Rates["INR"]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("rate API response missing INR rate")
	}
	return rate, nil
}
