package cli

import (
	"fmt"
	"strings"

	"github.com/certops/dcvkit/internal/akamai"
	"github.com/certops/dcvkit/internal/config"
	"github.com/certops/dcvkit/internal/dcv"
	"github.com/certops/dcvkit/internal/dnsutil"
	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/runlog"
	"github.com/certops/dcvkit/internal/store"
	"github.com/certops/dcvkit/internal/vault"
)

// loadConfig loads the configuration and validates it.
func loadConfig() (*config.Config, error) {
	cfg, err := deps.ConfigLoader.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, "invalid config", err)
	}
	return cfg, nil
}

// openVault opens the credential vault at the configured path.
func openVault(cfg *config.Config) (*vault.Vault, error) {
	return deps.VaultOpener.Open(cfg.VaultPath)
}

// openStore opens the CSV data directory.
func openStore(cfg *config.Config) (*store.Store, error) {
	return deps.StoreFunc(cfg.DataDir)
}

// newResolver builds the DNS resolver, preferring the vault override
// over the configured address.
func newResolver(cfg *config.Config, v *vault.Vault) DNSResolver {
	addr := cfg.Resolver
	if v != nil {
		if override := v.Resolver(); override != "" {
			addr = override
		}
	}
	return deps.ResolverFunc(addr)
}

// startRun opens the activity log for a mutating command. The returned
// func restores the discarding logger and must be deferred.
func startRun(cmd string, cfg *config.Config) (func(), error) {
	l, err := deps.RunLogFunc(cmd, runlog.Options{Dir: cfg.LogDir})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "open run log", err)
	}
	activityLog = l
	return func() {
		l.Close()
		activityLog = runlog.Discard()
	}, nil
}

// digicertClient builds a CertCentral client from vault credentials.
func digicertClient(v *vault.Vault) (DigiCertClient, error) {
	key, err := v.DigiCertKey()
	if err != nil {
		return nil, err
	}
	return deps.Clients.DigiCert(key), nil
}

// sectigoClient builds a cert-manager client from vault credentials.
func sectigoClient(v *vault.Vault) (SectigoClient, error) {
	auth, err := v.Sectigo()
	if err != nil {
		return nil, err
	}
	return deps.Clients.Sectigo(auth), nil
}

// akamaiClient builds an Edge DNS client from the edgerc file.
func akamaiClient(cfg *config.Config) (AkamaiClient, error) {
	creds, err := akamai.LoadEdgerc(cfg.EdgercPath, cfg.EdgercSection)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAuth, "load edgerc", err)
	}
	return deps.Clients.Akamai(creds), nil
}

// azureClient builds an Azure DNS client from vault credentials.
func azureClient(v *vault.Vault) (AzureClient, error) {
	spn, err := v.Azure()
	if err != nil {
		return nil, err
	}
	return deps.Clients.Azure(spn), nil
}

// buildRegistry wires every DNS provider whose credentials are present.
// A provider with missing credentials is skipped so workflows touching
// only the other provider still run.
func buildRegistry(cfg *config.Config, v *vault.Vault) (dcv.Registry, error) {
	reg := dcv.Registry{}

	if ak, err := akamaiClient(cfg); err == nil {
		reg[dnsutil.ProviderAkamai] = &dcv.AkamaiProvider{Client: ak}
	}
	if az, err := azureClient(v); err == nil {
		reg[dnsutil.ProviderAzure] = &dcv.AzureProvider{Client: az}
	}

	if len(reg) == 0 {
		return nil, errors.Wrap(errors.ErrCodeAuth, "no DNS provider credentials",
			errors.ErrCredentialsMissing)
	}
	return reg, nil
}

// buildWorkflow assembles the DCV workflow from config and vault.
func buildWorkflow(cfg *config.Config, v *vault.Vault) (*dcv.Workflow, error) {
	dc, err := digicertClient(v)
	if err != nil {
		return nil, err
	}
	sect, err := sectigoClient(v)
	if err != nil {
		return nil, err
	}
	reg, err := buildRegistry(cfg, v)
	if err != nil {
		return nil, err
	}

	resolver := newResolver(cfg, v)
	w := dcv.NewWorkflow(dc, sect, reg, resolver, activityLog)
	w.Checker = resolver
	w.PropagationWait = cfg.PropagationWait
	w.TXTRecordTTL = cfg.TXTRecordTTL
	w.CNAMERecordTTL = cfg.CNAMERecordTTL
	return w, nil
}

// parseCA normalizes and validates a certificate authority argument.
func parseCA(arg string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case dcv.CADigiCert:
		return dcv.CADigiCert, nil
	case dcv.CASectigo:
		return dcv.CASectigo, nil
	default:
		return "", errors.Validation(fmt.Sprintf("unknown CA %q, want digicert or sectigo", arg))
	}
}

// yesNo renders a bool for table output.
func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
