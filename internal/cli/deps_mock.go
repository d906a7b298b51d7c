package cli

import (
	"context"

	"github.com/certops/dcvkit/internal/akamai"
	"github.com/certops/dcvkit/internal/azure"
	"github.com/certops/dcvkit/internal/config"
	"github.com/certops/dcvkit/internal/digicert"
	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/input"
	"github.com/certops/dcvkit/internal/runlog"
	"github.com/certops/dcvkit/internal/sectigo"
	"github.com/certops/dcvkit/internal/store"
	"github.com/certops/dcvkit/internal/vault"
)

// MockConfigLoader is a mock implementation of ConfigLoader
type MockConfigLoader struct {
	Cfg       *config.Config
	LoadErr   error
	SaveErr   error
	SaveCalls []*config.Config
}

func (m *MockConfigLoader) Load() (*config.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Cfg, nil
}

func (m *MockConfigLoader) Save(cfg *config.Config) error {
	m.SaveCalls = append(m.SaveCalls, cfg)
	return m.SaveErr
}

// MockVaultOpener is a mock implementation of VaultOpener
type MockVaultOpener struct {
	Vault *vault.Vault
	Err   error
}

func (m *MockVaultOpener) Open(path string) (*vault.Vault, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vault, nil
}

// MockClientFactory returns preconfigured client doubles
type MockClientFactory struct {
	DC   *MockDigiCert
	Sect *MockSectigo
	Ak   *MockAkamai
	Az   *MockAzure
}

func (m *MockClientFactory) DigiCert(apiKey string) DigiCertClient        { return m.DC }
func (m *MockClientFactory) Sectigo(auth vault.SectigoAuth) SectigoClient { return m.Sect }
func (m *MockClientFactory) Akamai(creds *akamai.Credentials) AkamaiClient {
	return m.Ak
}
func (m *MockClientFactory) Azure(spn vault.AzureSPN) AzureClient { return m.Az }

// MockDigiCert is a mock implementation of DigiCertClient
type MockDigiCert struct {
	Domains  []digicert.Domain
	Orgs     map[string]int
	Token    *digicert.DCVToken
	DCVState string

	ListErr  error
	GetErr   error
	AddErr   error
	TokenErr error
	CheckErr error

	AddedDomains   []string
	DeletedIDs     []int
	MethodsSet     map[int]string
	TokenRequested []int
	Checked        []int
}

func (m *MockDigiCert) ListDomains(ctx context.Context) ([]digicert.Domain, error) {
	return m.Domains, m.ListErr
}

func (m *MockDigiCert) GetDomain(ctx context.Context, id int) (*digicert.Domain, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	for i := range m.Domains {
		if m.Domains[i].ID == id {
			return &m.Domains[i], nil
		}
	}
	return nil, errors.ErrDomainNotFound
}

func (m *MockDigiCert) AddDomain(ctx context.Context, name string, orgID int, dcvMethod string) (int, error) {
	if m.AddErr != nil {
		return 0, m.AddErr
	}
	m.AddedDomains = append(m.AddedDomains, name)
	id := 1000 + len(m.AddedDomains)
	m.Domains = append(m.Domains, digicert.Domain{ID: id, Name: name, IsActive: true, DCVMethod: dcvMethod})
	return id, nil
}

func (m *MockDigiCert) DeleteDomain(ctx context.Context, id int) error {
	m.DeletedIDs = append(m.DeletedIDs, id)
	return nil
}

func (m *MockDigiCert) SetDCVMethod(ctx context.Context, id int, method string) error {
	if m.MethodsSet == nil {
		m.MethodsSet = map[int]string{}
	}
	m.MethodsSet[id] = method
	return nil
}

func (m *MockDigiCert) RequestToken(ctx context.Context, id int, method string) (*digicert.DCVToken, error) {
	if m.TokenErr != nil {
		return nil, m.TokenErr
	}
	m.TokenRequested = append(m.TokenRequested, id)
	return m.Token, nil
}

func (m *MockDigiCert) CheckDCV(ctx context.Context, id int) (string, error) {
	if m.CheckErr != nil {
		return "", m.CheckErr
	}
	m.Checked = append(m.Checked, id)
	if m.DCVState == "" {
		return "pending", nil
	}
	return m.DCVState, nil
}

func (m *MockDigiCert) Organizations(ctx context.Context) (map[string]int, error) {
	if m.Orgs == nil {
		return map[string]int{"Example Org": 1}, nil
	}
	return m.Orgs, nil
}

// MockSectigo is a mock implementation of SectigoClient
type MockSectigo struct {
	Domains    []sectigo.Domain
	Validation *sectigo.ValidationStatus
	CNAME      *sectigo.CNAMEChallenge
	TXT        *sectigo.TXTChallenge

	ListErr   error
	StatusErr error
	StartErr  error
	SubmitErr error
	AddErr    error

	AddedDomains     []string
	AddedOrgIDs      []int
	DeletedIDs       []int
	CNAMEStarted     []string
	CNAMESubmitted   []string
	TXTSubmitted     []string
	StatusesRequsted []string
}

func (m *MockSectigo) ListDomains(ctx context.Context) ([]sectigo.Domain, error) {
	return m.Domains, m.ListErr
}

func (m *MockSectigo) GetDomain(ctx context.Context, id int) (*sectigo.Domain, error) {
	for i := range m.Domains {
		if m.Domains[i].ID == id {
			return &m.Domains[i], nil
		}
	}
	return nil, errors.ErrDomainNotFound
}

func (m *MockSectigo) GetValidationStatus(ctx context.Context, domain string) (*sectigo.ValidationStatus, error) {
	if m.StatusErr != nil {
		return nil, m.StatusErr
	}
	m.StatusesRequsted = append(m.StatusesRequsted, domain)
	if m.Validation == nil {
		return &sectigo.ValidationStatus{}, nil
	}
	return m.Validation, nil
}

func (m *MockSectigo) StartCNAME(ctx context.Context, domain string) (*sectigo.CNAMEChallenge, error) {
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	m.CNAMEStarted = append(m.CNAMEStarted, domain)
	return m.CNAME, nil
}

func (m *MockSectigo) SubmitCNAME(ctx context.Context, domain string) (string, error) {
	if m.SubmitErr != nil {
		return "", m.SubmitErr
	}
	m.CNAMESubmitted = append(m.CNAMESubmitted, domain)
	return "SUBMITTED", nil
}

func (m *MockSectigo) StartTXT(ctx context.Context, domain string) (*sectigo.TXTChallenge, error) {
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	return m.TXT, nil
}

func (m *MockSectigo) SubmitTXT(ctx context.Context, domain string) (string, error) {
	if m.SubmitErr != nil {
		return "", m.SubmitErr
	}
	m.TXTSubmitted = append(m.TXTSubmitted, domain)
	return "SUBMITTED", nil
}

func (m *MockSectigo) AddDomain(ctx context.Context, name string, orgID int) (int, error) {
	if m.AddErr != nil {
		return 0, m.AddErr
	}
	m.AddedDomains = append(m.AddedDomains, name)
	m.AddedOrgIDs = append(m.AddedOrgIDs, orgID)
	id := 2000 + len(m.AddedDomains)
	m.Domains = append(m.Domains, sectigo.Domain{ID: id, Name: name, State: "ACTIVE"})
	return id, nil
}

func (m *MockSectigo) DeleteDomain(ctx context.Context, id int) error {
	m.DeletedIDs = append(m.DeletedIDs, id)
	return nil
}

// MockAkamai is a mock implementation of AkamaiClient
type MockAkamai struct {
	Zones   []string
	Records map[string][]akamai.RecordSet

	ZonesErr  error
	EnsureErr error

	Ensured []akamai.RecordSet
	Deleted []string
}

func (m *MockAkamai) ListZones(ctx context.Context) ([]string, error) {
	return m.Zones, m.ZonesErr
}

func (m *MockAkamai) FindZone(ctx context.Context, name string) (string, error) {
	for _, z := range m.Zones {
		if name == z || len(name) > len(z) && name[len(name)-len(z)-1] == '.' && name[len(name)-len(z):] == z {
			return z, nil
		}
	}
	return "", errors.WrapDomain(errors.ErrCodeNotFound, name, errors.ErrZoneNotFound)
}

func (m *MockAkamai) GetRecordSet(ctx context.Context, zone, name, typ string) (*akamai.RecordSet, error) {
	for _, rs := range m.Records[zone] {
		if rs.Name == name && rs.Type == typ {
			return &rs, nil
		}
	}
	return nil, errors.ErrRecordNotFound
}

func (m *MockAkamai) EnsureRecordSet(ctx context.Context, zone string, rs akamai.RecordSet) (bool, error) {
	if m.EnsureErr != nil {
		return false, m.EnsureErr
	}
	m.Ensured = append(m.Ensured, rs)
	return true, nil
}

func (m *MockAkamai) DeleteRecordSet(ctx context.Context, zone, name, typ string) error {
	m.Deleted = append(m.Deleted, name)
	return nil
}

func (m *MockAkamai) ListRecordSets(ctx context.Context, zone string) ([]akamai.RecordSet, error) {
	return m.Records[zone], nil
}

// MockAzure is a mock implementation of AzureClient
type MockAzure struct {
	Zones   []azure.Zone
	Records map[string][]azure.RecordSet

	ZonesErr  error
	EnsureErr error

	Ensured []azure.RecordSet
	Deleted []string
}

func (m *MockAzure) ListZones(ctx context.Context) ([]azure.Zone, error) {
	return m.Zones, m.ZonesErr
}

func (m *MockAzure) FindZone(ctx context.Context, name string) (*azure.Zone, error) {
	for i := range m.Zones {
		z := m.Zones[i].Name
		if name == z || len(name) > len(z) && name[len(name)-len(z)-1] == '.' && name[len(name)-len(z):] == z {
			return &m.Zones[i], nil
		}
	}
	return nil, errors.WrapDomain(errors.ErrCodeNotFound, name, errors.ErrZoneNotFound)
}

func (m *MockAzure) GetRecordSet(ctx context.Context, zone azure.Zone, name, typ string) (*azure.RecordSet, error) {
	for _, rs := range m.Records[zone.Name] {
		if rs.Name == name && rs.Type == typ {
			return &rs, nil
		}
	}
	return nil, errors.ErrRecordNotFound
}

func (m *MockAzure) EnsureRecordSet(ctx context.Context, zone azure.Zone, rs azure.RecordSet) (bool, error) {
	if m.EnsureErr != nil {
		return false, m.EnsureErr
	}
	m.Ensured = append(m.Ensured, rs)
	return true, nil
}

func (m *MockAzure) DeleteRecordSet(ctx context.Context, zone azure.Zone, name, typ string) error {
	m.Deleted = append(m.Deleted, name)
	return nil
}

func (m *MockAzure) ListRecordSets(ctx context.Context, zone azure.Zone) ([]azure.RecordSet, error) {
	return m.Records[zone.Name], nil
}

// MockDependenciesBuilder assembles Dependencies for tests.
type MockDependenciesBuilder struct {
	deps *Dependencies
}

// NewMockDeps creates a builder with working defaults: a valid config,
// a vault holding every credential, empty client doubles, a discarding
// run log and a stdin that answers yes.
func NewMockDeps() *MockDependenciesBuilder {
	v := vault.New("/dev/null")
	v.Set("digicert", "api_key", "dc-key")
	v.Set("sectigo", "login", "login")
	v.Set("sectigo", "password", "password")
	v.Set("sectigo", "customerUri", "customer")
	v.Set("sectigo", "orgID", "7700")
	v.Set("AzureSPN", "tenant_id", "tenant")
	v.Set("AzureSPN", "client_id", "client")
	v.Set("AzureSPN", "client_secret", "secret")
	v.Set("AzureSPN", "subscription_id", "sub")

	return &MockDependenciesBuilder{
		deps: &Dependencies{
			ConfigLoader: &MockConfigLoader{Cfg: config.New()},
			VaultOpener:  &MockVaultOpener{Vault: v},
			Clients: &MockClientFactory{
				DC:   &MockDigiCert{},
				Sect: &MockSectigo{},
				Ak:   &MockAkamai{},
				Az:   &MockAzure{},
			},
			ResolverFunc: func(addr string) DNSResolver { return &MockResolver{} },
			StoreFunc:    store.New,
			RunLogFunc: func(cmd string, opts runlog.Options) (*runlog.Logger, error) {
				return runlog.Discard(), nil
			},
			Input: input.NewStringReader("y"),
		},
	}
}

// WithConfig sets the config for the mock
func (b *MockDependenciesBuilder) WithConfig(cfg *config.Config) *MockDependenciesBuilder {
	b.deps.ConfigLoader = &MockConfigLoader{Cfg: cfg}
	return b
}

// WithVault sets the vault for the mock
func (b *MockDependenciesBuilder) WithVault(v *vault.Vault) *MockDependenciesBuilder {
	b.deps.VaultOpener = &MockVaultOpener{Vault: v}
	return b
}

// WithVaultErr makes the vault fail to open
func (b *MockDependenciesBuilder) WithVaultErr(err error) *MockDependenciesBuilder {
	b.deps.VaultOpener = &MockVaultOpener{Err: err}
	return b
}

// WithClients sets the client doubles
func (b *MockDependenciesBuilder) WithClients(f *MockClientFactory) *MockDependenciesBuilder {
	b.deps.Clients = f
	return b
}

// WithResolver sets the DNS resolver double
func (b *MockDependenciesBuilder) WithResolver(r DNSResolver) *MockDependenciesBuilder {
	b.deps.ResolverFunc = func(addr string) DNSResolver { return r }
	return b
}

// WithInput sets scripted stdin lines
func (b *MockDependenciesBuilder) WithInput(lines ...string) *MockDependenciesBuilder {
	b.deps.Input = input.NewStringReader(lines...)
	return b
}

// Build returns the assembled dependencies
func (b *MockDependenciesBuilder) Build() *Dependencies {
	return b.deps
}

// MockResolver is a mock implementation of DNSResolver
type MockResolver struct {
	NS        map[string][]string
	Providers map[string]string
	TXT       map[string]string
	CNAME     map[string]string
	Err       error
}

func (m *MockResolver) Nameservers(ctx context.Context, domain string) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.NS[domain], nil
}

func (m *MockResolver) NSProvider(ctx context.Context, domain string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	p, ok := m.Providers[domain]
	if !ok {
		return "", errors.WrapDomain(errors.ErrCodeDNS, domain, errors.ErrRecordNotFound)
	}
	return p, nil
}

func (m *MockResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	v, ok := m.TXT[name]
	if !ok {
		return nil, errors.ErrRecordNotFound
	}
	return []string{v}, nil
}

func (m *MockResolver) VerifyTXT(ctx context.Context, name, expected string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	return m.TXT[name] == expected, nil
}

func (m *MockResolver) VerifyCNAME(ctx context.Context, name, expected string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	return m.CNAME[name] == expected, nil
}
