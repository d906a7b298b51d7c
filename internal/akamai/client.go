// Package akamai is a client for the Akamai Edge DNS v2 API, covering
// the zone and record-set operations DNS-based DCV needs. Requests are
// signed with the EdgeGrid scheme using credentials from ~/.edgerc.
package akamai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/runlog"
)

const (
	requestTimeout = 30 * time.Second
	recordPageSize = 500
)

// RecordSet is an Edge DNS record set.
type RecordSet struct {
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	TTL   int      `json:"ttl"`
	Rdata []string `json:"rdata"`
}

// Client calls the Edge DNS API for one EdgeGrid credential set.
type Client struct {
	baseURL string
	signer  *signer
	client  *http.Client
	log     *runlog.Logger
}

// NewClient creates an Edge DNS client for the given credentials.
func NewClient(creds *Credentials) *Client {
	return &Client{
		baseURL: "https://" + creds.Host,
		signer:  newSigner(creds),
		client:  &http.Client{Timeout: requestTimeout},
		log:     runlog.Discard(),
	}
}

// SetBaseURL overrides the API endpoint. Used in tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// SetLogger routes API call records to the run log.
func (c *Client) SetLogger(l *runlog.Logger) {
	c.log = l
}

// ListZones returns all zone names on the contract.
func (c *Client) ListZones(ctx context.Context) ([]string, error) {
	u := c.baseURL + "/config-dns/v2/zones?showAll=true"

	var resp struct {
		Zones []struct {
			Zone string `json:"zone"`
			Type string `json:"type"`
		} `json:"zones"`
	}
	if err := c.do(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return nil, err
	}

	zones := make([]string, 0, len(resp.Zones))
	for _, z := range resp.Zones {
		zones = append(zones, strings.ToLower(z.Zone))
	}
	return zones, nil
}

// FindZone returns the zone that contains name, asking the zone GET
// endpoint label by label from the left. The first match wins, so
// subzones win over their parents; a 404 moves up to the parent.
func (c *Client) FindZone(ctx context.Context, name string) (string, error) {
	candidate := strings.ToLower(strings.TrimSuffix(name, "."))
	for candidate != "" {
		u := c.baseURL + "/config-dns/v2/zones/" + url.PathEscape(candidate)

		var zone struct {
			Zone string `json:"zone"`
		}
		err := c.do(ctx, http.MethodGet, u, nil, &zone)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, errors.ErrRecordNotFound) {
			return "", err
		}

		idx := strings.Index(candidate, ".")
		if idx < 0 {
			break
		}
		candidate = candidate[idx+1:]
	}
	return "", errors.WrapDomain(errors.ErrCodeNotFound, name, errors.ErrZoneNotFound)
}

// GetRecordSet fetches one record set, or ErrRecordNotFound.
func (c *Client) GetRecordSet(ctx context.Context, zone, name, typ string) (*RecordSet, error) {
	u := c.recordURL(zone, name, typ)

	var rs RecordSet
	if err := c.do(ctx, http.MethodGet, u, nil, &rs); err != nil {
		return nil, err
	}
	return &rs, nil
}

// CreateRecordSet creates a new record set.
func (c *Client) CreateRecordSet(ctx context.Context, zone string, rs RecordSet) error {
	return c.do(ctx, http.MethodPost, c.recordURL(zone, rs.Name, rs.Type), rs, nil)
}

// UpdateRecordSet replaces an existing record set.
func (c *Client) UpdateRecordSet(ctx context.Context, zone string, rs RecordSet) error {
	return c.do(ctx, http.MethodPut, c.recordURL(zone, rs.Name, rs.Type), rs, nil)
}

// DeleteRecordSet removes a record set. Absence is reported as
// ErrRecordNotFound so callers can treat repeat deletes as done.
func (c *Client) DeleteRecordSet(ctx context.Context, zone, name, typ string) error {
	return c.do(ctx, http.MethodDelete, c.recordURL(zone, name, typ), nil, nil)
}

// EnsureRecordSet makes the record set match the desired state with a
// GET-before-write: create when absent, update when different, and do
// nothing when the published data already matches. Returns true when a
// write happened.
func (c *Client) EnsureRecordSet(ctx context.Context, zone string, rs RecordSet) (bool, error) {
	existing, err := c.GetRecordSet(ctx, zone, rs.Name, rs.Type)
	if err != nil && !errors.Is(err, errors.ErrRecordNotFound) {
		return false, err
	}

	if existing == nil {
		if err := c.CreateRecordSet(ctx, zone, rs); err != nil {
			return false, err
		}
		return true, nil
	}

	if existing.TTL == rs.TTL && equalRdata(existing.Rdata, rs.Rdata) {
		return false, nil
	}
	if err := c.UpdateRecordSet(ctx, zone, rs); err != nil {
		return false, err
	}
	return true, nil
}

// ListRecordSets returns every record set in a zone, walking page-based
// pagination until the reported last page.
func (c *Client) ListRecordSets(ctx context.Context, zone string) ([]RecordSet, error) {
	var all []RecordSet
	page := 1
	for {
		u := fmt.Sprintf("%s/config-dns/v2/zones/%s/recordsets?page=%d&pageSize=%d",
			c.baseURL, url.PathEscape(zone), page, recordPageSize)

		var resp struct {
			Metadata struct {
				Page     int `json:"page"`
				LastPage int `json:"lastPage"`
			} `json:"metadata"`
			RecordSets []RecordSet `json:"recordsets"`
		}
		if err := c.do(ctx, http.MethodGet, u, nil, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.RecordSets...)

		if page >= resp.Metadata.LastPage || len(resp.RecordSets) == 0 {
			break
		}
		page++
	}
	return all, nil
}

func (c *Client) recordURL(zone, name, typ string) string {
	return fmt.Sprintf("%s/config-dns/v2/zones/%s/names/%s/types/%s",
		c.baseURL, url.PathEscape(zone), url.PathEscape(strings.TrimSuffix(name, ".")), typ)
}

func (c *Client) do(ctx context.Context, method, u string, payload, out interface{}) error {
	var data []byte
	var err error
	if payload != nil {
		data, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.signer.Sign(req, data)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	c.log.APICall("akamai", method, u, resp.StatusCode, time.Since(start))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.ErrRecordNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Wrap(errors.ErrCodeAuth, "akamai rejected credentials",
			errors.Vendor("akamai", resp.StatusCode, string(respBody)))
	case resp.StatusCode >= 400:
		return errors.Vendor("akamai", resp.StatusCode, string(respBody))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func equalRdata(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
