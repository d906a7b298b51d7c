package cli

import (
	"testing"

	"github.com/certops/dcvkit/internal/digicert"
	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/sectigo"
	"github.com/certops/dcvkit/internal/store"
	"github.com/spf13/cobra"
)

func TestRunFetchDigiCert(t *testing.T) {
	cfg := testConfig(t)
	dc := &MockDigiCert{Domains: []digicert.Domain{
		{ID: 10, Name: "example.com", IsActive: true, DCVMethod: "dns-txt-token", DCVExpiry: "2026-10-01"},
		{ID: 11, Name: "example.org", IsActive: false, DCVMethod: "email"},
	}}
	swapDeps(t, NewMockDeps().
		WithConfig(cfg).
		WithClients(&MockClientFactory{DC: dc, Sect: &MockSectigo{}, Ak: &MockAkamai{}, Az: &MockAzure{}}).
		Build())

	fetchCA = "digicert"
	if err := runFetch(&cobra.Command{}, nil); err != nil {
		t.Fatalf("runFetch: %v", err)
	}

	st, err := store.New(cfg.DataDir)
	if err != nil {
		t.Fatal(err)
	}
	records, err := st.ReadDomains("digicert")
	if err != nil {
		t.Fatalf("ReadDomains: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Method != "TXT" {
		t.Errorf("method = %q, want TXT", records[0].Method)
	}
	if records[1].Method != "EMAIL" {
		t.Errorf("method = %q, want EMAIL", records[1].Method)
	}
	if records[0].Expiration != "2026-10-01" {
		t.Errorf("expiration = %q", records[0].Expiration)
	}
}

func TestRunFetchSectigoStatusFailureContinues(t *testing.T) {
	cfg := testConfig(t)
	sect := &MockSectigo{
		Domains: []sectigo.Domain{
			{ID: 20, Name: "good.com", State: "ACTIVE"},
		},
		StatusErr: errors.Vendor("sectigo", 500, "boom"),
	}
	swapDeps(t, NewMockDeps().
		WithConfig(cfg).
		WithClients(&MockClientFactory{DC: &MockDigiCert{}, Sect: sect, Ak: &MockAkamai{}, Az: &MockAzure{}}).
		Build())

	fetchCA = "sectigo"
	if err := runFetch(&cobra.Command{}, nil); err != nil {
		t.Fatalf("runFetch: %v", err)
	}

	st, _ := store.New(cfg.DataDir)
	records, err := st.ReadDomains("sectigo")
	if err != nil {
		t.Fatalf("ReadDomains: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Method != "" {
		t.Errorf("method should be blank when the status call fails, got %q", records[0].Method)
	}
	if !records[0].Active {
		t.Error("ACTIVE state should map to active=true")
	}
}

func TestRunFetchBadCA(t *testing.T) {
	swapDeps(t, NewMockDeps().WithConfig(testConfig(t)).Build())

	fetchCA = "globalsign"
	if err := runFetch(&cobra.Command{}, nil); err == nil {
		t.Fatal("expected an error for an unknown CA")
	}
}
