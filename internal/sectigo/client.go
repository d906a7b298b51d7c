// Package sectigo is a client for the Sectigo Certificate Manager
// domain and DCV REST endpoints.
package sectigo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/runlog"
)

const (
	defaultBaseURL = "https://cert-manager.com/api"
	requestTimeout = 30 * time.Second
	// Sectigo caps page size at 200.
	pageSize = 200
)

// DCV method values cert-manager reports.
const (
	MethodCNAME = "CNAME_CSR_HASH"
	MethodTXT   = "DNSTXT_RANDOM_VALUE"
	MethodEmail = "EMAIL"
)

// Client calls the Sectigo cert-manager REST API.
type Client struct {
	baseURL     string
	login       string
	password    string
	customerURI string
	client      *http.Client
	log         *runlog.Logger
}

// NewClient creates a cert-manager client. customerURI is the account
// slug Sectigo assigns, sent on every request.
func NewClient(login, password, customerURI string) *Client {
	return &Client{
		baseURL:     defaultBaseURL,
		login:       login,
		password:    password,
		customerURI: customerURI,
		client:      &http.Client{Timeout: requestTimeout},
		log:         runlog.Discard(),
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

// Domain is a cert-manager delegated domain.
type Domain struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// Active reports whether the domain is usable for issuance.
func (d Domain) Active() bool {
	return d.State == "ACTIVE"
}

// ValidationStatus is the DCV state cert-manager tracks per domain.
type ValidationStatus struct {
	Status         string `json:"status"`
	OrderStatus    string `json:"orderStatus"`
	Method         string `json:"dcvMethod"`
	ExpirationDate string `json:"expirationDate"`
}

// CNAMEChallenge is the record pair returned by validation/start.
type CNAMEChallenge struct {
	Host  string `json:"host"`
	Point string `json:"point"`
}

// TXTChallenge is the record returned by validation/start for TXT DCV.
type TXTChallenge struct {
	Host  string `json:"host"`
	Value string `json:"value"`
}

// ListDomains returns every delegated domain, walking position-based
// pagination until a short page ends the listing.
func (c *Client) ListDomains(ctx context.Context) ([]Domain, error) {
	var all []Domain
	position := 0
	for {
		url := fmt.Sprintf("%s/domain/v1?size=%d&position=%d", c.baseURL, pageSize, position)

		var page []Domain
		if err := c.do(ctx, http.MethodGet, url, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page...)

		if len(page) < pageSize {
			break
		}
		position += pageSize
	}
	return all, nil
}

// GetDomain fetches one delegated domain by id.
func (c *Client) GetDomain(ctx context.Context, id int) (*Domain, error) {
	url := fmt.Sprintf("%s/domain/v1/%d", c.baseURL, id)

	var d Domain
	if err := c.do(ctx, http.MethodGet, url, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetValidationStatus returns the DCV state for a domain name.
func (c *Client) GetValidationStatus(ctx context.Context, domain string) (*ValidationStatus, error) {
	url := c.baseURL + "/dcv/v2/validation/status"
	payload := map[string]string{"domain": domain}

	var status ValidationStatus
	if err := c.do(ctx, http.MethodPost, url, payload, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// StartCNAME begins CNAME-based DCV and returns the record to publish.
func (c *Client) StartCNAME(ctx context.Context, domain string) (*CNAMEChallenge, error) {
	url := c.baseURL + "/dcv/v1/validation/start/domain/cname"
	payload := map[string]string{"domain": domain}

	var ch CNAMEChallenge
	if err := c.do(ctx, http.MethodPost, url, payload, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// SubmitCNAME asks Sectigo to check the published CNAME now.
func (c *Client) SubmitCNAME(ctx context.Context, domain string) (string, error) {
	url := c.baseURL + "/dcv/v1/validation/submit/domain/cname"
	payload := map[string]string{"domain": domain}

	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, url, payload, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// StartTXT begins TXT-based DCV and returns the record to publish.
func (c *Client) StartTXT(ctx context.Context, domain string) (*TXTChallenge, error) {
	url := c.baseURL + "/dcv/v1/validation/start/domain/txt"
	payload := map[string]string{"domain": domain}

	var ch TXTChallenge
	if err := c.do(ctx, http.MethodPost, url, payload, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// SubmitTXT asks Sectigo to check the published TXT record now.
func (c *Client) SubmitTXT(ctx context.Context, domain string) (string, error) {
	url := c.baseURL + "/dcv/v1/validation/submit/domain/txt"
	payload := map[string]string{"domain": domain}

	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, url, payload, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// AddDomain delegates a new domain to the organization and returns the
// id cert-manager assigned, parsed from the Location header.
func (c *Client) AddDomain(ctx context.Context, name string, orgID int) (int, error) {
	url := c.baseURL + "/domain/v1"
	payload := map[string]interface{}{
		"name":              name,
		"description":       "Added by dcvkit",
		"active":            true,
		"enabled":           true,
		"includeSubdomains": true,
		"delegations": []map[string]interface{}{
			{
				"orgId":                              orgID,
				"certTypes":                          []string{"SSL"},
				"domainCertificateRequestPrivileges": []string{"SUBDOMAIN", "DOMAIN"},
			},
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	c.log.APICall("sectigo", http.MethodPost, url, resp.StatusCode, time.Since(start))

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusConflict {
		return 0, errors.AlreadyExists(name)
	}
	if resp.StatusCode != http.StatusCreated {
		return 0, errors.Vendor("sectigo", resp.StatusCode, string(body))
	}

	// Location: /api/domain/v1/12345
	id, err := strconv.Atoi(path.Base(resp.Header.Get("Location")))
	if err != nil {
		return 0, fmt.Errorf("failed to parse domain id from Location %q: %w",
			resp.Header.Get("Location"), err)
	}
	return id, nil
}

// DeleteDomain removes a delegated domain.
func (c *Client) DeleteDomain(ctx context.Context, id int) error {
	url := fmt.Sprintf("%s/domain/v1/%d", c.baseURL, id)
	return c.do(ctx, http.MethodDelete, url, nil, nil)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("login", c.login)
	req.Header.Set("password", c.password)
	req.Header.Set("customerUri", c.customerURI)
	req.Header.Set("Content-Type", "application/json;charset=utf-8")
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
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	c.log.APICall("sectigo", method, url, resp.StatusCode, time.Since(start))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.ErrDomainNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Wrap(errors.ErrCodeAuth, "sectigo rejected credentials",
			errors.Vendor("sectigo", resp.StatusCode, string(respBody)))
	case resp.StatusCode >= 400:
		return errors.Vendor("sectigo", resp.StatusCode, string(respBody))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// MethodLabel maps a cert-manager dcvMethod to the record type shown in
// reports. Unknown methods pass through unchanged.
func MethodLabel(method string) string {
	switch method {
	case MethodCNAME:
		return "CNAME"
	case MethodTXT:
		return "TXT"
	case MethodEmail:
		return "EMAIL"
	default:
		return method
	}
}
