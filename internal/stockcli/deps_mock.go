package stockcli

import (
	"context"
	"time"

	"github.com/certops/dcvkit/internal/config"
	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/finance"
	"github.com/certops/dcvkit/internal/vault"
)

// MockConfigLoader is a mock implementation of ConfigLoader
type MockConfigLoader struct {
	Cfg     *config.Config
	LoadErr error
}

func (m *MockConfigLoader) Load() (*config.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Cfg, nil
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

// MockFinnhub is a mock implementation of FinnhubAPI
type MockFinnhub struct {
	Quotes    map[string]*finance.Quote
	News      map[string][]finance.NewsItem
	Ratios    map[string]*finance.Metrics
	QuoteErr  error
	NewsErr   error
	RatiosErr error

	QuoteCalls   []string
	MetricsCalls []string
}

func (m *MockFinnhub) Quote(ctx context.Context, symbol string) (*finance.Quote, error) {
	m.QuoteCalls = append(m.QuoteCalls, symbol)
	if m.QuoteErr != nil {
		return nil, m.QuoteErr
	}
	q, ok := m.Quotes[symbol]
	if !ok {
		return nil, errors.NotFound(symbol)
	}
	return q, nil
}

func (m *MockFinnhub) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]finance.NewsItem, error) {
	if m.NewsErr != nil {
		return nil, m.NewsErr
	}
	return m.News[symbol], nil
}

func (m *MockFinnhub) Metrics(ctx context.Context, symbol string) (*finance.Metrics, error) {
	m.MetricsCalls = append(m.MetricsCalls, symbol)
	if m.RatiosErr != nil {
		return nil, m.RatiosErr
	}
	r, ok := m.Ratios[symbol]
	if !ok {
		return nil, errors.NotFound(symbol)
	}
	return r, nil
}

// MockTwelveData is a mock implementation of TwelveDataAPI
type MockTwelveData struct {
	Result []finance.FuturesQuote
	Err    error
	Calls  [][]string
}

func (m *MockTwelveData) Quotes(ctx context.Context, symbols []string) ([]finance.FuturesQuote, error) {
	m.Calls = append(m.Calls, symbols)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// MockMailer is a mock implementation of MailSender
type MockMailer struct {
	Err         error
	Subjects    []string
	Bodies      []string
	Attachments [][]string
}

func (m *MockMailer) Send(subject, htmlBody string, attachments ...string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Subjects = append(m.Subjects, subject)
	m.Bodies = append(m.Bodies, htmlBody)
	m.Attachments = append(m.Attachments, attachments)
	return nil
}

// MockDependenciesBuilder assembles Dependencies for tests.
type MockDependenciesBuilder struct {
	deps *Dependencies
}

// NewMockDeps creates a builder with working defaults: a vault holding
// the API and SMTP credentials, empty market-data doubles, the real
// portfolio store and a counting sleep.
func NewMockDeps() *MockDependenciesBuilder {
	v := vault.New("/dev/null")
	v.Set("finnhub", "api_key", "fh-key")
	v.Set("twelvedata", "api_key", "td-key")
	v.Set("email", "host", "smtp.example.com")
	v.Set("email", "port", "587")
	v.Set("email", "username", "user")
	v.Set("email", "password", "pass")
	v.Set("email", "from", "from@example.com")
	v.Set("email", "to", "to@example.com")

	fh := &MockFinnhub{}
	td := &MockTwelveData{}
	mailer := &MockMailer{}

	return &MockDependenciesBuilder{
		deps: &Dependencies{
			ConfigLoader:  &MockConfigLoader{Cfg: config.New()},
			VaultOpener:   &MockVaultOpener{Vault: v},
			Finnhub:       func(apiKey string) FinnhubAPI { return fh },
			TwelveData:    func(apiKey string) TwelveDataAPI { return td },
			NewMailer:     func(cfg vault.SMTPConfig) MailSender { return mailer },
			OpenPortfolio: finance.OpenPortfolio,
			Sleep:         func(d time.Duration) {},
			Now:           time.Now,
		},
	}
}

// WithConfig sets the config for the mock
func (b *MockDependenciesBuilder) WithConfig(cfg *config.Config) *MockDependenciesBuilder {
	b.deps.ConfigLoader = &MockConfigLoader{Cfg: cfg}
	return b
}

// WithFinnhub sets the Finnhub double
func (b *MockDependenciesBuilder) WithFinnhub(fh *MockFinnhub) *MockDependenciesBuilder {
	b.deps.Finnhub = func(apiKey string) FinnhubAPI { return fh }
	return b
}

// WithTwelveData sets the Twelve Data double
func (b *MockDependenciesBuilder) WithTwelveData(td *MockTwelveData) *MockDependenciesBuilder {
	b.deps.TwelveData = func(apiKey string) TwelveDataAPI { return td }
	return b
}

// WithMailer sets the mail double
func (b *MockDependenciesBuilder) WithMailer(m *MockMailer) *MockDependenciesBuilder {
	b.deps.NewMailer = func(cfg vault.SMTPConfig) MailSender { return m }
	return b
}

// WithSleep sets the sleep function
func (b *MockDependenciesBuilder) WithSleep(fn func(time.Duration)) *MockDependenciesBuilder {
	b.deps.Sleep = fn
	return b
}

// WithNow pins the clock
func (b *MockDependenciesBuilder) WithNow(t time.Time) *MockDependenciesBuilder {
	b.deps.Now = func() time.Time { return t }
	return b
}

// Build returns the assembled dependencies
func (b *MockDependenciesBuilder) Build() *Dependencies {
	return b.deps
}
