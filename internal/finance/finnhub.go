// Package finance holds the market-data clients, the portfolio store,
// and the mail digest used by the stockctl commands.
package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/certops/dcvkit/internal/errors"
)

const (
	finnhubBaseURL = "https://finnhub.io/api/v1"
	requestTimeout = 15 * time.Second
)

// Quote is a real-time price snapshot.
type Quote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
}

// NewsItem is one company news headline.
type NewsItem struct {
	Headline string `json:"headline"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Summary  string `json:"summary"`
	Datetime int64  `json:"datetime"`
}

// Metrics holds the valuation ratios the ratios command tracks.
type Metrics struct {
	PETTM float64
	PSTTM float64
}

// FinnhubClient calls the Finnhub market data API.
type FinnhubClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewFinnhubClient creates a Finnhub client with the given API key.
func NewFinnhubClient(apiKey string) *FinnhubClient {
	return &FinnhubClient{
		baseURL: finnhubBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// SetBaseURL overrides the API endpoint. Used in tests.
func (c *FinnhubClient) SetBaseURL(u string) {
	c.baseURL = u
}

// Quote returns the current quote for a symbol. A quote of all zeros
// means Finnhub does not know the symbol.
func (c *FinnhubClient) Quote(ctx context.Context, symbol string) (*Quote, error) {
	u := fmt.Sprintf("%s/quote?symbol=%s&token=%s", c.baseURL, url.QueryEscape(symbol), c.apiKey)

	var q Quote
	if err := c.get(ctx, u, &q); err != nil {
		return nil, err
	}
	if q.Current == 0 && q.PrevClose == 0 {
		return nil, errors.WrapDomain(errors.ErrCodeNotFound, symbol,
			fmt.Errorf("unknown symbol"))
	}
	return &q, nil
}

// CompanyNews returns headlines for a symbol between two dates.
func (c *FinnhubClient) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]NewsItem, error) {
	u := fmt.Sprintf("%s/company-news?symbol=%s&from=%s&to=%s&token=%s",
		c.baseURL, url.QueryEscape(symbol),
		from.Format("2006-01-02"), to.Format("2006-01-02"), c.apiKey)

	var items []NewsItem
	if err := c.get(ctx, u, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Metrics returns the valuation ratios for a symbol.
func (c *FinnhubClient) Metrics(ctx context.Context, symbol string) (*Metrics, error) {
	u := fmt.Sprintf("%s/stock/metric?symbol=%s&metric=all&token=%s",
		c.baseURL, url.QueryEscape(symbol), c.apiKey)

	var resp struct {
		Metric struct {
			PETTM float64 `json:"peTTM"`
			PSTTM float64 `json:"psTTM"`
		} `json:"metric"`
	}
	if err := c.get(ctx, u, &resp); err != nil {
		return nil, err
	}
	return &Metrics{PETTM: resp.Metric.PETTM, PSTTM: resp.Metric.PSTTM}, nil
}

func (c *FinnhubClient) get(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return errors.Vendor("finnhub", resp.StatusCode, "rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Vendor("finnhub", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
