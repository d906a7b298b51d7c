// Package stockcli implements the stockctl command tree: a portfolio
// tracker with market-data reports and email digests.
package stockcli

import (
	"context"
	"time"

	"github.com/certops/dcvkit/internal/config"
	"github.com/certops/dcvkit/internal/finance"
	"github.com/certops/dcvkit/internal/vault"
)

// Dependencies aggregates all CLI external dependencies for testability
type Dependencies struct {
	ConfigLoader  ConfigLoader
	VaultOpener   VaultOpener
	Finnhub       func(apiKey string) FinnhubAPI
	TwelveData    func(apiKey string) TwelveDataAPI
	NewMailer     func(cfg vault.SMTPConfig) MailSender
	OpenPortfolio func(path string) (*finance.Portfolio, error)
	Sleep         func(d time.Duration)
	Now           func() time.Time
}

// ConfigLoader handles configuration loading
type ConfigLoader interface {
	Load() (*config.Config, error)
}

// VaultOpener opens the credential vault
type VaultOpener interface {
	Open(path string) (*vault.Vault, error)
}

// FinnhubAPI is the market data surface the commands use
type FinnhubAPI interface {
	Quote(ctx context.Context, symbol string) (*finance.Quote, error)
	CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]finance.NewsItem, error)
	Metrics(ctx context.Context, symbol string) (*finance.Metrics, error)
}

// TwelveDataAPI serves the index futures quotes
type TwelveDataAPI interface {
	Quotes(ctx context.Context, symbols []string) ([]finance.FuturesQuote, error)
}

// MailSender delivers the report emails
type MailSender interface {
	Send(subject, htmlBody string, attachments ...string) error
}

// Package-level dependencies (can be overridden for testing)
var deps = &Dependencies{
	ConfigLoader: &realConfigLoader{},
	VaultOpener:  &realVaultOpener{},
	Finnhub: func(apiKey string) FinnhubAPI {
		return finance.NewFinnhubClient(apiKey)
	},
	TwelveData: func(apiKey string) TwelveDataAPI {
		return finance.NewTwelveDataClient(apiKey)
	},
	NewMailer: func(cfg vault.SMTPConfig) MailSender {
		return finance.NewMailer(cfg)
	},
	OpenPortfolio: finance.OpenPortfolio,
	Sleep:         time.Sleep,
	Now:           time.Now,
}

// SetDeps replaces the package dependencies (for testing)
func SetDeps(d *Dependencies) {
	deps = d
}

// GetDeps returns the current dependencies (for testing)
func GetDeps() *Dependencies {
	return deps
}

type realConfigLoader struct{}

func (r *realConfigLoader) Load() (*config.Config, error) {
	return config.Load()
}

type realVaultOpener struct{}

func (r *realVaultOpener) Open(path string) (*vault.Vault, error) {
	return vault.Load(path)
}
