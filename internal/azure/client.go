// Package azure is a client for the Azure DNS management API, covering
// the zone and record-set operations DNS-based DCV needs. Authentication
// uses a service principal via the OAuth2 client credentials grant.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/certops/dcvkit/internal/dnsutil"
	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/runlog"
)

const (
	defaultBaseURL = "https://management.azure.com"
	apiVersion     = "2018-05-01"
	requestTimeout = 30 * time.Second
)

// Zone is an Azure DNS zone with the resource group it lives in.
type Zone struct {
	Name          string
	ResourceGroup string
}

// RecordSet is a simplified Azure DNS record set. Values holds TXT
// strings for TXT sets and a single target for CNAME sets.
type RecordSet struct {
	Name   string
	Type   string // "TXT" or "CNAME"
	TTL    int
	Values []string
}

// Client calls the Azure DNS management API for one subscription.
type Client struct {
	baseURL      string
	subscription string
	tokens       *TokenSource
	client       *http.Client
	log          *runlog.Logger

	zones []Zone // cached zone list, longest name first
}

// NewClient creates an Azure DNS client for the given subscription.
func NewClient(subscription string, tokens *TokenSource) *Client {
	return &Client{
		baseURL:      defaultBaseURL,
		subscription: subscription,
		tokens:       tokens,
		client:       &http.Client{Timeout: requestTimeout},
		log:          runlog.Discard(),
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

// ListZones returns every DNS zone in the subscription, following
// nextLink pagination.
func (c *Client) ListZones(ctx context.Context) ([]Zone, error) {
	u := fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.Network/dnsZones?api-version=%s",
		c.baseURL, c.subscription, apiVersion)

	var zones []Zone
	for u != "" {
		var resp struct {
			Value []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"value"`
			NextLink string `json:"nextLink"`
		}
		if err := c.do(ctx, http.MethodGet, u, nil, &resp); err != nil {
			return nil, err
		}
		for _, z := range resp.Value {
			zones = append(zones, Zone{
				Name:          strings.ToLower(z.Name),
				ResourceGroup: resourceGroupFromID(z.ID),
			})
		}
		u = resp.NextLink
	}
	return zones, nil
}

// FindZone returns the zone containing name, walking labels from the
// left. The zone list is cached for the client's lifetime.
func (c *Client) FindZone(ctx context.Context, name string) (*Zone, error) {
	if c.zones == nil {
		zones, err := c.ListZones(ctx)
		if err != nil {
			return nil, err
		}
		sort.Slice(zones, func(i, j int) bool { return len(zones[i].Name) > len(zones[j].Name) })
		c.zones = zones
	}

	candidate := strings.ToLower(strings.TrimSuffix(name, "."))
	for candidate != "" {
		for i := range c.zones {
			if candidate == c.zones[i].Name {
				return &c.zones[i], nil
			}
		}
		idx := strings.Index(candidate, ".")
		if idx < 0 {
			break
		}
		candidate = candidate[idx+1:]
	}
	return nil, errors.WrapDomain(errors.ErrCodeNotFound, name, errors.ErrZoneNotFound)
}

// GetRecordSet fetches one record set, or ErrRecordNotFound.
func (c *Client) GetRecordSet(ctx context.Context, zone Zone, name, typ string) (*RecordSet, error) {
	var resp recordSetResource
	if err := c.do(ctx, http.MethodGet, c.recordURL(zone, name, typ), nil, &resp); err != nil {
		return nil, err
	}
	rs := resp.toRecordSet(typ)
	rs.Name = name
	return &rs, nil
}

// UpsertRecordSet creates or replaces a record set. Azure's PUT is
// already an upsert, so no prior GET is needed for writes.
func (c *Client) UpsertRecordSet(ctx context.Context, zone Zone, rs RecordSet) error {
	payload := recordSetResource{}
	payload.Properties.TTL = rs.TTL
	switch rs.Type {
	case "TXT":
		for _, v := range rs.Values {
			payload.Properties.TXTRecords = append(payload.Properties.TXTRecords,
				txtRecord{Value: []string{v}})
		}
	case "CNAME":
		if len(rs.Values) != 1 {
			return errors.Validation("CNAME record set needs exactly one target")
		}
		payload.Properties.CNAMERecord = &cnameRecord{CNAME: rs.Values[0]}
	default:
		return errors.Validation(fmt.Sprintf("unsupported record type %q", rs.Type))
	}

	return c.do(ctx, http.MethodPut, c.recordURL(zone, rs.Name, rs.Type), payload, nil)
}

// EnsureRecordSet makes the record set match the desired state, with a
// GET first so an already-correct record is left untouched. Returns
// true when a write happened.
func (c *Client) EnsureRecordSet(ctx context.Context, zone Zone, rs RecordSet) (bool, error) {
	existing, err := c.GetRecordSet(ctx, zone, rs.Name, rs.Type)
	if err != nil && !errors.Is(err, errors.ErrRecordNotFound) {
		return false, err
	}

	if existing != nil && existing.TTL == rs.TTL && equalValues(existing.Values, rs.Values) {
		return false, nil
	}
	if err := c.UpsertRecordSet(ctx, zone, rs); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteRecordSet removes a record set. Azure returns 200 or 204
// whether or not it existed.
func (c *Client) DeleteRecordSet(ctx context.Context, zone Zone, name, typ string) error {
	return c.do(ctx, http.MethodDelete, c.recordURL(zone, name, typ), nil, nil)
}

// ListRecordSets returns every record set in a zone.
func (c *Client) ListRecordSets(ctx context.Context, zone Zone) ([]RecordSet, error) {
	u := fmt.Sprintf("%s/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Network/dnsZones/%s/recordsets?api-version=%s",
		c.baseURL, c.subscription, zone.ResourceGroup, zone.Name, apiVersion)

	var all []RecordSet
	for u != "" {
		var resp struct {
			Value []struct {
				Name       string              `json:"name"`
				Type       string              `json:"type"`
				Properties recordSetProperties `json:"properties"`
			} `json:"value"`
			NextLink string `json:"nextLink"`
		}
		if err := c.do(ctx, http.MethodGet, u, nil, &resp); err != nil {
			return nil, err
		}
		for _, v := range resp.Value {
			typ := shortRecordType(v.Type)
			rs := recordSetResource{Properties: v.Properties}.toRecordSet(typ)
			rs.Name = v.Name
			all = append(all, rs)
		}
		u = resp.NextLink
	}
	return all, nil
}

// recordSetResource mirrors the Azure wire shape for a record set.
type recordSetResource struct {
	Properties recordSetProperties `json:"properties"`
}

type recordSetProperties struct {
	TTL         int          `json:"TTL"`
	TXTRecords  []txtRecord  `json:"TXTRecords,omitempty"`
	CNAMERecord *cnameRecord `json:"CNAMERecord,omitempty"`
}

type txtRecord struct {
	Value []string `json:"value"`
}

type cnameRecord struct {
	CNAME string `json:"cname"`
}

func (r recordSetResource) toRecordSet(typ string) RecordSet {
	rs := RecordSet{Type: typ, TTL: r.Properties.TTL}
	switch typ {
	case "TXT":
		for _, txt := range r.Properties.TXTRecords {
			rs.Values = append(rs.Values, strings.Join(txt.Value, ""))
		}
	case "CNAME":
		if r.Properties.CNAMERecord != nil {
			rs.Values = []string{r.Properties.CNAMERecord.CNAME}
		}
	}
	return rs
}

func (c *Client) recordURL(zone Zone, name, typ string) string {
	// The record name is relative to the zone; "@" addresses the apex.
	relative := dnsutil.RelativeName(name, zone.Name)
	return fmt.Sprintf("%s/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Network/dnsZones/%s/%s/%s?api-version=%s",
		c.baseURL, c.subscription, zone.ResourceGroup, zone.Name, typ, relative, apiVersion)
}

func resourceGroupFromID(id string) string {
	parts := strings.Split(id, "/")
	for i := 0; i < len(parts)-1; i++ {
		if strings.EqualFold(parts[i], "resourceGroups") {
			return parts[i+1]
		}
	}
	return ""
}

func shortRecordType(full string) string {
	// "Microsoft.Network/dnsZones/TXT" -> "TXT"
	idx := strings.LastIndex(full, "/")
	if idx < 0 {
		return full
	}
	return full[idx+1:]
}

func equalValues(a, b []string) bool {
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

func (c *Client) do(ctx context.Context, method, u string, payload, out interface{}) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	c.log.APICall("azure", method, u, resp.StatusCode, time.Since(start))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.ErrRecordNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Wrap(errors.ErrCodeAuth, "azure rejected credentials",
			errors.Vendor("azure", resp.StatusCode, string(respBody)))
	case resp.StatusCode >= 400:
		return errors.Vendor("azure", resp.StatusCode, string(respBody))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
