package cli

import (
	"context"

	"github.com/certops/dcvkit/internal/akamai"
	"github.com/certops/dcvkit/internal/azure"
	"github.com/certops/dcvkit/internal/config"
	"github.com/certops/dcvkit/internal/digicert"
	"github.com/certops/dcvkit/internal/dnsutil"
	"github.com/certops/dcvkit/internal/input"
	"github.com/certops/dcvkit/internal/runlog"
	"github.com/certops/dcvkit/internal/sectigo"
	"github.com/certops/dcvkit/internal/store"
	"github.com/certops/dcvkit/internal/vault"
)

// Dependencies aggregates all CLI external dependencies for testability
type Dependencies struct {
	ConfigLoader ConfigLoader
	VaultOpener  VaultOpener
	Clients      ClientFactory
	ResolverFunc func(addr string) DNSResolver
	StoreFunc    func(dir string) (*store.Store, error)
	RunLogFunc   func(cmd string, opts runlog.Options) (*runlog.Logger, error)
	Input        input.Reader
}

// ConfigLoader handles configuration loading and saving
type ConfigLoader interface {
	Load() (*config.Config, error)
	Save(cfg *config.Config) error
}

// VaultOpener opens the credential vault
type VaultOpener interface {
	Open(path string) (*vault.Vault, error)
}

// DigiCertClient is the CertCentral surface the commands use
type DigiCertClient interface {
	ListDomains(ctx context.Context) ([]digicert.Domain, error)
	GetDomain(ctx context.Context, id int) (*digicert.Domain, error)
	AddDomain(ctx context.Context, name string, orgID int, dcvMethod string) (int, error)
	DeleteDomain(ctx context.Context, id int) error
	SetDCVMethod(ctx context.Context, id int, method string) error
	RequestToken(ctx context.Context, id int, method string) (*digicert.DCVToken, error)
	CheckDCV(ctx context.Context, id int) (string, error)
	Organizations(ctx context.Context) (map[string]int, error)
}

// SectigoClient is the cert-manager surface the commands use
type SectigoClient interface {
	ListDomains(ctx context.Context) ([]sectigo.Domain, error)
	GetDomain(ctx context.Context, id int) (*sectigo.Domain, error)
	GetValidationStatus(ctx context.Context, domain string) (*sectigo.ValidationStatus, error)
	StartCNAME(ctx context.Context, domain string) (*sectigo.CNAMEChallenge, error)
	SubmitCNAME(ctx context.Context, domain string) (string, error)
	StartTXT(ctx context.Context, domain string) (*sectigo.TXTChallenge, error)
	SubmitTXT(ctx context.Context, domain string) (string, error)
	AddDomain(ctx context.Context, name string, orgID int) (int, error)
	DeleteDomain(ctx context.Context, id int) error
}

// AkamaiClient is the Edge DNS surface the commands use
type AkamaiClient interface {
	ListZones(ctx context.Context) ([]string, error)
	FindZone(ctx context.Context, name string) (string, error)
	GetRecordSet(ctx context.Context, zone, name, typ string) (*akamai.RecordSet, error)
	EnsureRecordSet(ctx context.Context, zone string, rs akamai.RecordSet) (bool, error)
	DeleteRecordSet(ctx context.Context, zone, name, typ string) error
	ListRecordSets(ctx context.Context, zone string) ([]akamai.RecordSet, error)
}

// AzureClient is the Azure DNS surface the commands use
type AzureClient interface {
	ListZones(ctx context.Context) ([]azure.Zone, error)
	FindZone(ctx context.Context, name string) (*azure.Zone, error)
	GetRecordSet(ctx context.Context, zone azure.Zone, name, typ string) (*azure.RecordSet, error)
	EnsureRecordSet(ctx context.Context, zone azure.Zone, rs azure.RecordSet) (bool, error)
	DeleteRecordSet(ctx context.Context, zone azure.Zone, name, typ string) error
	ListRecordSets(ctx context.Context, zone azure.Zone) ([]azure.RecordSet, error)
}

// DNSResolver is the resolver surface the commands use
type DNSResolver interface {
	Nameservers(ctx context.Context, domain string) ([]string, error)
	NSProvider(ctx context.Context, domain string) (string, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
	VerifyTXT(ctx context.Context, name, expected string) (bool, error)
	VerifyCNAME(ctx context.Context, name, expected string) (bool, error)
}

// ClientFactory builds authenticated vendor clients
type ClientFactory interface {
	DigiCert(apiKey string) DigiCertClient
	Sectigo(auth vault.SectigoAuth) SectigoClient
	Akamai(creds *akamai.Credentials) AkamaiClient
	Azure(spn vault.AzureSPN) AzureClient
}

// Package-level dependencies (can be overridden for testing)
var deps = &Dependencies{
	ConfigLoader: &realConfigLoader{},
	VaultOpener:  &realVaultOpener{},
	Clients:      &realClientFactory{},
	ResolverFunc: func(addr string) DNSResolver { return dnsutil.NewResolver(addr) },
	StoreFunc:    store.New,
	RunLogFunc:   runlog.New,
	Input:        input.NewStdinReader(),
}

// SetDeps replaces the package dependencies (for testing)
func SetDeps(d *Dependencies) {
	deps = d
}

// GetDeps returns the current dependencies (for testing)
func GetDeps() *Dependencies {
	return deps
}

// Real implementations that delegate to the concrete packages

type realConfigLoader struct{}

func (r *realConfigLoader) Load() (*config.Config, error) {
	return config.Load()
}

func (r *realConfigLoader) Save(cfg *config.Config) error {
	return cfg.Save()
}

type realVaultOpener struct{}

func (r *realVaultOpener) Open(path string) (*vault.Vault, error) {
	return vault.Load(path)
}

type realClientFactory struct{}

func (r *realClientFactory) DigiCert(apiKey string) DigiCertClient {
	c := digicert.NewClient(apiKey)
	c.SetLogger(activityLog)
	return c
}

func (r *realClientFactory) Sectigo(auth vault.SectigoAuth) SectigoClient {
	c := sectigo.NewClient(auth.Login, auth.Password, auth.CustomerURI)
	c.SetLogger(activityLog)
	return c
}

func (r *realClientFactory) Akamai(creds *akamai.Credentials) AkamaiClient {
	c := akamai.NewClient(creds)
	c.SetLogger(activityLog)
	return c
}

func (r *realClientFactory) Azure(spn vault.AzureSPN) AzureClient {
	c := azure.NewClient(spn.SubscriptionID,
		azure.NewTokenSource(spn.TenantID, spn.ClientID, spn.ClientSecret))
	c.SetLogger(activityLog)
	return c
}
