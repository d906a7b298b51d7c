// Package digicert is a client for the DigiCert CertCentral domain and
// DCV endpoints. Only the slice of the services/v2 API this tool needs
// is covered.
package digicert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/runlog"
)

const (
	defaultBaseURL = "https://www.digicert.com/services/v2"
	requestTimeout = 30 * time.Second
	pageLimit      = 1000
)

// DCV method values CertCentral understands.
const (
	MethodDNSCNAME = "dns-cname-token"
	MethodDNSTXT   = "dns-txt-token"
	MethodEmail    = "email"
)

// Client calls the CertCentral REST API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *runlog.Logger
}

// NewClient creates a CertCentral client authenticated with an API key.
func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
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

// Domain is a CertCentral domain entry. DCVExpiry holds the earliest
// validated_until date across the domain's validations as a YYYY-MM-DD
// string, or "" when none is reported.
type Domain struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsActive  bool   `json:"is_active"`
	DCVMethod string `json:"dcv_method"`
	DCVExpiry string `json:"-"`
}

// domainResponse mirrors the wire shape of GET /domain.
type domainResponse struct {
	Domains []struct {
		ID          int    `json:"id"`
		Name        string `json:"name"`
		IsActive    bool   `json:"is_active"`
		DCVMethod   string `json:"dcv_method"`
		Validations []struct {
			Type           string `json:"type"`
			DCVStatus      string `json:"dcv_status"`
			ValidatedUntil string `json:"validated_until"`
		} `json:"validations"`
	} `json:"domains"`
	Page struct {
		Total  int `json:"total"`
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	} `json:"page"`
}

// DCVToken is the validation token CertCentral issues for DNS-based DCV.
type DCVToken struct {
	Token             string `json:"token"`
	Status            string `json:"status"`
	VerificationValue string `json:"verification_value"`
	Expiration        string `json:"expiration_date"`
}

// ListDomains returns every domain in the account, walking offset
// pagination until the reported total is reached.
func (c *Client) ListDomains(ctx context.Context) ([]Domain, error) {
	var all []Domain
	offset := 0
	for {
		url := fmt.Sprintf("%s/domain?include_validation=true&limit=%d&offset=%d",
			c.baseURL, pageLimit, offset)

		var page domainResponse
		if err := c.do(ctx, http.MethodGet, url, nil, &page); err != nil {
			return nil, err
		}

		for _, d := range page.Domains {
			dom := Domain{
				ID:        d.ID,
				Name:      d.Name,
				IsActive:  d.IsActive,
				DCVMethod: d.DCVMethod,
			}
			for _, v := range d.Validations {
				if v.ValidatedUntil == "" {
					continue
				}
				// Keep the date part; ISO dates order lexicographically.
				date := v.ValidatedUntil
				if len(date) > 10 {
					date = date[:10]
				}
				if dom.DCVExpiry == "" || date < dom.DCVExpiry {
					dom.DCVExpiry = date
				}
			}
			all = append(all, dom)
		}

		offset += pageLimit
		if offset >= page.Page.Total || len(page.Domains) == 0 {
			break
		}
	}
	return all, nil
}

// GetDomain fetches a single domain with its validation state.
func (c *Client) GetDomain(ctx context.Context, id int) (*Domain, error) {
	url := fmt.Sprintf("%s/domain/%d?include_dcv=true&include_validation=true", c.baseURL, id)

	var d struct {
		ID        int    `json:"id"`
		Name      string `json:"name"`
		IsActive  bool   `json:"is_active"`
		DCVMethod string `json:"dcv_method"`
	}
	if err := c.do(ctx, http.MethodGet, url, nil, &d); err != nil {
		return nil, err
	}
	return &Domain{ID: d.ID, Name: d.Name, IsActive: d.IsActive, DCVMethod: d.DCVMethod}, nil
}

// AddDomain submits a new domain under the given organization and
// returns its assigned id.
func (c *Client) AddDomain(ctx context.Context, name string, orgID int, dcvMethod string) (int, error) {
	payload := map[string]interface{}{
		"name":         name,
		"organization": map[string]int{"id": orgID},
		"validations":  []map[string]string{{"type": "ov"}, {"type": "ev"}},
		"dcv_method":   dcvMethod,
	}

	var resp struct {
		ID int `json:"id"`
	}
	url := c.baseURL + "/domain"
	if err := c.do(ctx, http.MethodPost, url, payload, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// DeleteDomain removes a domain from the account.
func (c *Client) DeleteDomain(ctx context.Context, id int) error {
	url := fmt.Sprintf("%s/domain/%d", c.baseURL, id)
	return c.do(ctx, http.MethodDelete, url, nil, nil)
}

// SetDCVMethod changes the validation method for a domain.
func (c *Client) SetDCVMethod(ctx context.Context, id int, method string) error {
	url := fmt.Sprintf("%s/domain/%d/dcv/method", c.baseURL, id)
	payload := map[string]string{"dcv_method": method}
	return c.do(ctx, http.MethodPut, url, payload, nil)
}

// RequestToken asks CertCentral for a fresh DNS validation token.
func (c *Client) RequestToken(ctx context.Context, id int, method string) (*DCVToken, error) {
	url := fmt.Sprintf("%s/domain/%d/dcv/token", c.baseURL, id)
	payload := map[string]string{"dcv_method": method}

	var token DCVToken
	if err := c.do(ctx, http.MethodPost, url, payload, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// CheckDCV tells CertCentral to verify the published record now.
func (c *Client) CheckDCV(ctx context.Context, id int) (string, error) {
	url := fmt.Sprintf("%s/domain/%d/validation", c.baseURL, id)

	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPut, url, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// Organizations returns account organizations, needed when adding domains.
func (c *Client) Organizations(ctx context.Context) (map[string]int, error) {
	url := c.baseURL + "/organization"

	var resp struct {
		Organizations []struct {
			ID          int    `json:"id"`
			Name        string `json:"name"`
			DisplayName string `json:"display_name"`
		} `json:"organizations"`
	}
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}

	orgs := make(map[string]int, len(resp.Organizations))
	for _, o := range resp.Organizations {
		orgs[o.Name] = o.ID
	}
	return orgs, nil
}

func (c *Client) do(ctx context.Context, method, url string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-DC-DEVKEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	c.log.APICall("digicert", method, url, resp.StatusCode, time.Since(start))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.ErrDomainNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Wrap(errors.ErrCodeAuth, "digicert rejected credentials",
			errors.Vendor("digicert", resp.StatusCode, string(respBody)))
	case resp.StatusCode >= 400:
		return errors.Vendor("digicert", resp.StatusCode, string(respBody))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// MethodLabel maps a CertCentral dcv_method to the record type shown in
// reports: CNAME, TXT, EMAIL, or OTHER.
func MethodLabel(method string) string {
	switch method {
	case MethodDNSCNAME:
		return "CNAME"
	case MethodDNSTXT:
		return "TXT"
	case MethodEmail:
		return "EMAIL"
	default:
		return "OTHER"
	}
}
