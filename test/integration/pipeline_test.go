//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/certops/dcvkit/internal/dnsutil"
	"github.com/certops/dcvkit/internal/store"
	"github.com/certops/dcvkit/internal/vault"
)

func TestMain(m *testing.M) {
	keyring.MockInit()
	os.Exit(m.Run())
}

// TestArtifactPipeline drives the CSV artifacts the way the commands do:
// per-CA exports feed the lookup table, the lookup resolves ids for both
// CAs, and the combined report round-trips with nameserver data attached.
func TestArtifactPipeline(t *testing.T) {
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	t.Run("Write per-CA exports", func(t *testing.T) {
		dc := []store.Record{
			{ID: 101, Name: "example.com", Active: true, Method: "CNAME", Expiration: "2027-01-15"},
			{ID: 102, Name: "example.org", Active: true, Method: "TXT", Expiration: "2026-11-02"},
		}
		stg := []store.Record{
			{ID: 9001, Name: "example.com", Active: true, Method: "CNAME", Expiration: "2026-12-31"},
		}
		if err := st.WriteDomains("digicert", dc); err != nil {
			t.Fatalf("Failed to write digicert export: %v", err)
		}
		if err := st.WriteDomains("sectigo", stg); err != nil {
			t.Fatalf("Failed to write sectigo export: %v", err)
		}
	})

	t.Run("Build lookup from exports", func(t *testing.T) {
		var rows []store.LookupRow
		for _, ca := range []string{"digicert", "sectigo"} {
			records, err := st.ReadDomains(ca)
			if err != nil {
				t.Fatalf("Failed to read %s export: %v", ca, err)
			}
			for _, r := range records {
				rows = append(rows, store.LookupRow{ID: r.ID, Domain: r.Name, CA: ca})
			}
		}
		if err := st.WriteLookup(rows); err != nil {
			t.Fatalf("Failed to write lookup: %v", err)
		}
	})

	t.Run("Resolve a dual-CA domain", func(t *testing.T) {
		matches, err := st.FindDomain("example.com")
		if err != nil {
			t.Fatalf("Failed to find domain: %v", err)
		}
		if len(matches) != 2 {
			t.Fatalf("Expected ids at both CAs, got %d matches", len(matches))
		}
	})

	t.Run("Combined report round trip", func(t *testing.T) {
		combined := []store.CombinedRecord{
			{CA: "digicert", Record: store.Record{ID: 101, Name: "example.com", Active: true, Method: "CNAME"}, NSProvider: dnsutil.ProviderAkamai},
			{CA: "sectigo", Record: store.Record{ID: 9001, Name: "example.com", Active: true, Method: "CNAME"}, NSProvider: dnsutil.ProviderAkamai},
		}
		if err := st.WriteCombined(combined); err != nil {
			t.Fatalf("Failed to write combined report: %v", err)
		}
		got, err := st.ReadCombined()
		if err != nil {
			t.Fatalf("Failed to read combined report: %v", err)
		}
		if len(got) != 2 || got[0].NSProvider != dnsutil.ProviderAkamai {
			t.Errorf("Combined round trip mismatch: %+v", got)
		}
	})

	t.Run("Remove artifacts", func(t *testing.T) {
		if err := st.RemoveArtifacts("digicert", "sectigo"); err != nil {
			t.Fatalf("Failed to remove artifacts: %v", err)
		}
		if _, err := os.Stat(filepath.Join(st.Dir(), store.CombinedFile)); !os.IsNotExist(err) {
			t.Error("Combined report should have been removed")
		}
	})
}

// TestVaultLifecycle exercises the file-and-keychain credential store end
// to end: set, persist, reload, keychain fallback, validation.
func TestVaultLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".ApiVault")

	v := vault.New(path)
	v.Set("digicert", "api_key", "dc-key-123")
	if err := v.Save(); err != nil {
		t.Fatalf("Failed to save vault: %v", err)
	}

	t.Run("Reload from disk", func(t *testing.T) {
		loaded, err := vault.Load(path)
		if err != nil {
			t.Fatalf("Failed to load vault: %v", err)
		}
		key, err := loaded.Get("digicert", "api_key")
		if err != nil || key != "dc-key-123" {
			t.Errorf("Get after reload = %q, %v", key, err)
		}
	})

	t.Run("Keychain fallback", func(t *testing.T) {
		loaded, err := vault.Load(path)
		if err != nil {
			t.Fatalf("Failed to load vault: %v", err)
		}
		if err := loaded.SetKeychain("finnhub", "api_key", "fh-key"); err != nil {
			t.Fatalf("Failed to store in keychain: %v", err)
		}
		key, err := loaded.Get("finnhub", "api_key")
		if err != nil || key != "fh-key" {
			t.Errorf("Keychain fallback = %q, %v", key, err)
		}
	})

	t.Run("Validate missing key", func(t *testing.T) {
		loaded, err := vault.Load(path)
		if err != nil {
			t.Fatalf("Failed to load vault: %v", err)
		}
		if err := loaded.Validate("sectigo", "login", "password"); err == nil {
			t.Error("Expected validation failure for missing sectigo credentials")
		}
	})
}

// TestLiveResolver runs real DNS queries against a public resolver. Skips
// when the network is unreachable.
func TestLiveResolver(t *testing.T) {
	r := dnsutil.NewResolver("8.8.8.8")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	servers, err := r.Nameservers(ctx, "azure.com")
	if err != nil {
		t.Skipf("Network unavailable: %v", err)
	}
	if len(servers) == 0 {
		t.Fatal("Expected nameservers for azure.com")
	}

	provider, err := r.NSProvider(ctx, "www.azure.com")
	if err != nil {
		t.Fatalf("Failed to classify provider: %v", err)
	}
	if provider != dnsutil.ProviderAzure {
		t.Errorf("Provider = %q, want %q", provider, dnsutil.ProviderAzure)
	}
}
