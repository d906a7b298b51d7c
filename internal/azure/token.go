package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/certops/dcvkit/internal/errors"
)

const (
	defaultLoginURL = "https://login.microsoftonline.com"
	managementScope = "https://management.azure.com/.default"
	// Refresh this long before the token actually expires.
	expirySkew = 2 * time.Minute
)

// TokenSource obtains and caches OAuth2 access tokens via the client
// credentials grant for a service principal.
type TokenSource struct {
	loginURL     string
	tenantID     string
	clientID     string
	clientSecret string
	client       *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewTokenSource creates a token source for the given service principal.
func NewTokenSource(tenantID, clientID, clientSecret string) *TokenSource {
	return &TokenSource{
		loginURL:     defaultLoginURL,
		tenantID:     tenantID,
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       &http.Client{Timeout: requestTimeout},
	}
}

// SetLoginURL overrides the identity endpoint. Used in tests.
func (ts *TokenSource) SetLoginURL(u string) {
	ts.loginURL = u
}

// Token returns a valid access token, reusing the cached one until it
// nears expiry.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Now().Before(ts.expires.Add(-expirySkew)) {
		return ts.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {ts.clientID},
		"client_secret": {ts.clientSecret},
		"scope":         {managementScope},
	}

	u := fmt.Sprintf("%s/%s/oauth2/v2.0/token", ts.loginURL, ts.tenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrap(errors.ErrCodeAuth, "azure token request failed",
			errors.Vendor("azure", resp.StatusCode, string(body)))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.Wrap(errors.ErrCodeAuth, "azure returned an empty token", nil)
	}

	ts.token = tok.AccessToken
	ts.expires = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return ts.token, nil
}
