package taxrate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Quote is what the tax-rate API returns for one postal code.
type Quote struct {
	TotalRate decimal.Decimal
	Details   json.RawMessage
}

type ClientConfig struct {
	BaseURL    string
	AccountID  string
	LicenseKey string
	Country    string
	Timeout    time.Duration
}

// Client calls an AvaTax-style "tax rates by postal code" endpoint.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: timeout}}
}

type ratesResponse struct {
	TotalRate *decimal.Decimal `json:"totalRate"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) Fetch(ctx context.Context, postalCode string) (Quote, error) {
	q := url.Values{}
	q.Set("country", c.cfg.Country)
	q.Set("postalCode", postalCode)
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/taxrates/bypostalcode?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("taxrate: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.AccountID != "" {
		req.SetBasicAuth(c.cfg.AccountID, c.cfg.LicenseKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("taxrate: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Quote{}, fmt.Errorf("taxrate: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("taxrate: unexpected status %d", resp.StatusCode)
	}

	var rr ratesResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return Quote{}, fmt.Errorf("taxrate: unmarshal response: %w", err)
	}
	if rr.Error != nil {
		return Quote{}, fmt.Errorf("taxrate: api error: %s", rr.Error.Message)
	}
	if rr.TotalRate == nil {
		return Quote{}, fmt.Errorf("taxrate: response has no totalRate")
	}
	if rr.TotalRate.IsNegative() || rr.TotalRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return Quote{}, fmt.Errorf("taxrate: implausible totalRate %s", rr.TotalRate)
	}
	return Quote{TotalRate: *rr.TotalRate, Details: json.RawMessage(body)}, nil
}
