// Package vault loads API credentials from the ~/.ApiVault JSON file,
// falling back to the OS keychain for secrets that are not stored on disk.
package vault

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/certops/dcvkit/internal/errors"
)

// keyringService is the service name used for OS keychain entries.
const keyringService = "dcvkit"

// Vault holds credentials for all external services, keyed by service
// name and then by credential key.
type Vault struct {
	services map[string]map[string]string
	path     string
}

// AzureSPN is the service principal used for Azure DNS management calls.
type AzureSPN struct {
	TenantID       string
	ClientID       string
	ClientSecret   string
	SubscriptionID string
}

// SectigoAuth is the header triple Sectigo's cert-manager API expects.
type SectigoAuth struct {
	Login       string
	Password    string
	CustomerURI string
}

// SMTPConfig holds mail relay settings for report delivery.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	To       string
}

// Load reads the vault file at path. A missing file yields
// errors.ErrVaultNotFound so callers can fall back to the keychain.
func Load(path string) (*Vault, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("vault file %s: %w", path, errors.ErrVaultNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read vault: %w", err)
	}

	services := make(map[string]map[string]string)
	if err := json.Unmarshal(data, &services); err != nil {
		return nil, fmt.Errorf("failed to parse vault: %w", err)
	}

	return &Vault{services: services, path: path}, nil
}

// New returns an empty in-memory vault. Used in tests and by vault set
// when no file exists yet.
func New(path string) *Vault {
	return &Vault{services: make(map[string]map[string]string), path: path}
}

// Get returns a credential value. Service lookup tolerates case
// differences (the vault file historically mixed "Sectigo" and
// "sectigo"). When the vault has no entry, the OS keychain is consulted
// under "<service>/<key>".
func (v *Vault) Get(service, key string) (string, error) {
	if svc := v.lookupService(service); svc != nil {
		if val, ok := svc[key]; ok && val != "" {
			return val, nil
		}
	}

	val, err := keyring.Get(keyringService, service+"/"+key)
	if err == nil && val != "" {
		return val, nil
	}

	return "", errors.Wrap(errors.ErrCodeAuth,
		fmt.Sprintf("no credential %s/%s in vault or keychain", service, key),
		errors.ErrCredentialsMissing)
}

// Set stores a credential in memory. Call Save to persist.
func (v *Vault) Set(service, key, value string) {
	svc := v.lookupService(service)
	if svc == nil {
		svc = make(map[string]string)
		v.services[service] = svc
	}
	svc[key] = value
}

// SetKeychain stores a credential in the OS keychain instead of the file.
func (v *Vault) SetKeychain(service, key, value string) error {
	if err := keyring.Set(keyringService, service+"/"+key, value); err != nil {
		return fmt.Errorf("failed to store in keychain: %w", err)
	}
	return nil
}

// Save writes the vault back to its file with owner-only permissions.
func (v *Vault) Save() error {
	data, err := json.MarshalIndent(v.services, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal vault: %w", err)
	}
	if err := os.WriteFile(v.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write vault: %w", err)
	}
	return nil
}

// Services returns the sorted service names present in the vault file.
func (v *Vault) Services() []string {
	names := make([]string, 0, len(v.services))
	for name := range v.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Keys returns the sorted credential keys stored for a service.
func (v *Vault) Keys(service string) []string {
	svc := v.lookupService(service)
	if svc == nil {
		return nil
	}
	keys := make([]string, 0, len(svc))
	for k := range svc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks that a service has all required keys, in the vault or
// the keychain.
func (v *Vault) Validate(service string, requiredKeys ...string) error {
	var missing []string
	for _, key := range requiredKeys {
		if _, err := v.Get(service, key); err != nil {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return errors.Wrap(errors.ErrCodeAuth,
			fmt.Sprintf("service %s is missing keys: %s", service, strings.Join(missing, ", ")),
			errors.ErrCredentialsMissing)
	}
	return nil
}

func (v *Vault) lookupService(service string) map[string]string {
	if svc, ok := v.services[service]; ok {
		return svc
	}
	for name, svc := range v.services {
		if strings.EqualFold(name, service) {
			return svc
		}
	}
	return nil
}

// DigiCertKey returns the CertCentral API key.
func (v *Vault) DigiCertKey() (string, error) {
	return v.Get("digicert", "api_key")
}

// Sectigo returns the cert-manager auth headers.
func (v *Vault) Sectigo() (SectigoAuth, error) {
	login, err := v.Get("Sectigo", "login")
	if err != nil {
		return SectigoAuth{}, err
	}
	password, err := v.Get("Sectigo", "password")
	if err != nil {
		return SectigoAuth{}, err
	}
	customerURI, err := v.Get("Sectigo", "customerUri")
	if err != nil {
		return SectigoAuth{}, err
	}
	return SectigoAuth{Login: login, Password: password, CustomerURI: customerURI}, nil
}

// SectigoOrgID returns the cert-manager organization id used when
// delegating new domains.
func (v *Vault) SectigoOrgID() (int, error) {
	raw, err := v.Get("Sectigo", "orgID")
	if err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeConfig, fmt.Sprintf("sectigo orgID %q is not a number", raw), err)
	}
	return id, nil
}

// Azure returns the service principal for Azure DNS calls.
func (v *Vault) Azure() (AzureSPN, error) {
	tenant, err := v.Get("AzureSPN", "tenant_id")
	if err != nil {
		return AzureSPN{}, err
	}
	client, err := v.Get("AzureSPN", "client_id")
	if err != nil {
		return AzureSPN{}, err
	}
	secret, err := v.Get("AzureSPN", "client_secret")
	if err != nil {
		return AzureSPN{}, err
	}
	sub, err := v.Get("AzureSPN", "subscription_id")
	if err != nil {
		return AzureSPN{}, err
	}
	return AzureSPN{
		TenantID:       tenant,
		ClientID:       client,
		ClientSecret:   secret,
		SubscriptionID: sub,
	}, nil
}

// FinnhubKey returns the Finnhub market data API key.
func (v *Vault) FinnhubKey() (string, error) {
	return v.Get("finnhub", "api_key")
}

// TwelveDataKey returns the Twelve Data API key.
func (v *Vault) TwelveDataKey() (string, error) {
	return v.Get("twelvedata", "api_key")
}

// SMTP returns mail relay settings for the digest mailer.
func (v *Vault) SMTP() (SMTPConfig, error) {
	host, err := v.Get("email", "host")
	if err != nil {
		return SMTPConfig{}, err
	}
	port, err := v.Get("email", "port")
	if err != nil {
		return SMTPConfig{}, err
	}
	user, err := v.Get("email", "username")
	if err != nil {
		return SMTPConfig{}, err
	}
	pass, err := v.Get("email", "password")
	if err != nil {
		return SMTPConfig{}, err
	}
	from, err := v.Get("email", "from")
	if err != nil {
		return SMTPConfig{}, err
	}
	to, err := v.Get("email", "to")
	if err != nil {
		return SMTPConfig{}, err
	}
	return SMTPConfig{Host: host, Port: port, Username: user, Password: pass, From: from, To: to}, nil
}

// Resolver returns the DNS resolver address stored in the vault, if any.
// Returns empty string when unset so callers can fall back to config.
func (v *Vault) Resolver() string {
	ip, err := v.Get("DNSResolver", "ip")
	if err != nil {
		return ""
	}
	return ip
}

// Mask obscures a secret for display, keeping the first and last two
// characters of values long enough to stay unrecognizable.
func Mask(secret string) string {
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}
