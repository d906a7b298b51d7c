package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/certops/dcvkit/internal/errors"
)

const twelveDataBaseURL = "https://api.twelvedata.com"

// FuturesQuote is a Twelve Data quote for an index future.
type FuturesQuote struct {
	Symbol        string
	Name          string
	Price         float64
	Change        float64
	ChangePercent float64
}

// TwelveDataClient calls the Twelve Data API, used for the index
// futures Finnhub's free tier does not cover.
type TwelveDataClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewTwelveDataClient creates a Twelve Data client with the given key.
func NewTwelveDataClient(apiKey string) *TwelveDataClient {
	return &TwelveDataClient{
		baseURL: twelveDataBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// SetBaseURL overrides the API endpoint. Used in tests.
func (c *TwelveDataClient) SetBaseURL(u string) {
	c.baseURL = u
}

// twelveQuote mirrors the wire shape; numbers arrive as strings.
type twelveQuote struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Close         string `json:"close"`
	Change        string `json:"change"`
	PercentChange string `json:"percent_change"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

// Quotes returns quotes for several symbols in one call.
func (c *TwelveDataClient) Quotes(ctx context.Context, symbols []string) ([]FuturesQuote, error) {
	u := fmt.Sprintf("%s/quote?symbol=%s&apikey=%s",
		c.baseURL, url.QueryEscape(strings.Join(symbols, ",")), c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Vendor("twelvedata", resp.StatusCode, string(body))
	}

	// A single symbol returns one object; multiple symbols return a
	// map keyed by symbol.
	if len(symbols) == 1 {
		var q twelveQuote
		if err := json.Unmarshal(body, &q); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		fq, err := q.toFuturesQuote()
		if err != nil {
			return nil, err
		}
		return []FuturesQuote{fq}, nil
	}

	var raw map[string]twelveQuote
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	quotes := make([]FuturesQuote, 0, len(symbols))
	for _, symbol := range symbols {
		q, ok := raw[symbol]
		if !ok {
			continue
		}
		fq, err := q.toFuturesQuote()
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, fq)
	}
	return quotes, nil
}

func (q twelveQuote) toFuturesQuote() (FuturesQuote, error) {
	if q.Status == "error" {
		return FuturesQuote{}, errors.Vendor("twelvedata", 0, q.Message)
	}
	price, err := strconv.ParseFloat(q.Close, 64)
	if err != nil {
		return FuturesQuote{}, fmt.Errorf("bad close price %q for %s: %w", q.Close, q.Symbol, err)
	}
	change, _ := strconv.ParseFloat(q.Change, 64)
	pct, _ := strconv.ParseFloat(q.PercentChange, 64)
	return FuturesQuote{
		Symbol:        q.Symbol,
		Name:          q.Name,
		Price:         price,
		Change:        change,
		ChangePercent: pct,
	}, nil
}
