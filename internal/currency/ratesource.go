// Package currency resolves exchange rates and normalizes expense amounts
// into the user's base currency. Rate lookup is best-effort: every failure
// mode resolves to "no rate available" rather than an error, and the only
// guaranteed rate is the identity rate for same-currency conversions.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultAPIBaseURL is the exchangerate-api.com v6 endpoint.
const DefaultAPIBaseURL = "https://v6.exchangerate-api.com/v6"

// RateSource supplies the current rate table anchored at a source currency.
// Keys are uppercase 3-letter codes; values are decimal rates meaning
// "1 unit of the anchor = rate units of the key currency".
type RateSource interface {
	FetchRates(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

// APIClient is a RateSource backed by exchangerate-api.com. One lookup call
// fetches the full table for the anchor currency.
type APIClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewAPIClient(apiKey, baseURL string, httpClient *http.Client) *APIClient {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &APIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// rateTableResponse is the v6 envelope. Rates arrive as JSON numbers and are
// re-parsed from their textual form to avoid a float64 detour.
type rateTableResponse struct {
	Result          string                 `json:"result"`
	ErrorType       string                 `json:"error-type"`
	ConversionRates map[string]json.Number `json:"conversion_rates"`
}

func (c *APIClient) FetchRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s/latest/%s", c.baseURL, c.apiKey, base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build rate request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rate table: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate api returned status %d", resp.StatusCode)
	}

	var table rateTableResponse
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return nil, fmt.Errorf("decode rate table: %w", err)
	}
	if table.Result != "success" {
		return nil, fmt.Errorf("rate api error: %s", table.ErrorType)
	}

	rates := make(map[string]decimal.Decimal, len(table.ConversionRates))
	for code, raw := range table.ConversionRates {
		rate, err := decimal.NewFromString(raw.String())
		if err != nil {
			// A single malformed entry should not poison the table.
			continue
		}
		rates[code] = rate
	}
	return rates, nil
}
