package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/certops/dcvkit/internal/digicert"
	"github.com/certops/dcvkit/internal/store"
	"github.com/spf13/cobra"
)

func resetDomainFlags() {
	domainAddCA = ""
	domainAddFile = ""
	domainAddResults = ""
	domainAddMethod = ""
	domainAddOrg = ""
	domainRemoveYes = false
}

func TestRunDomainAddBothCAs(t *testing.T) {
	resetDomainFlags()
	cfg := testConfig(t)
	dc := &MockDigiCert{Orgs: map[string]int{"Example Org": 7}}
	sect := &MockSectigo{}
	swapDeps(t, NewMockDeps().
		WithConfig(cfg).
		WithClients(&MockClientFactory{DC: dc, Sect: sect, Ak: &MockAkamai{}, Az: &MockAzure{}}).
		Build())

	if err := runDomainAdd(&cobra.Command{}, []string{"new.example.com"}); err != nil {
		t.Fatalf("runDomainAdd: %v", err)
	}

	if len(dc.AddedDomains) != 1 || dc.AddedDomains[0] != "new.example.com" {
		t.Errorf("digicert added = %v", dc.AddedDomains)
	}
	if len(sect.AddedDomains) != 1 || sect.AddedDomains[0] != "new.example.com" {
		t.Errorf("sectigo added = %v", sect.AddedDomains)
	}
	// The Sectigo delegation carries the org id from the vault, and a
	// single add defaults to CNAME delegation at DigiCert.
	if len(sect.AddedOrgIDs) != 1 || sect.AddedOrgIDs[0] != 7700 {
		t.Errorf("sectigo org ids = %v, want [7700]", sect.AddedOrgIDs)
	}
	if dc.Domains[0].DCVMethod != digicert.MethodDNSCNAME {
		t.Errorf("dcv method = %q, want %s", dc.Domains[0].DCVMethod, digicert.MethodDNSCNAME)
	}
}

func TestAddMethodDefaults(t *testing.T) {
	resetDomainFlags()
	if got := addMethod(false); got != digicert.MethodDNSCNAME {
		t.Errorf("single add method = %q, want %s", got, digicert.MethodDNSCNAME)
	}
	if got := addMethod(true); got != digicert.MethodDNSTXT {
		t.Errorf("bulk add method = %q, want %s", got, digicert.MethodDNSTXT)
	}
	domainAddMethod = digicert.MethodEmail
	if got := addMethod(true); got != digicert.MethodEmail {
		t.Errorf("explicit method = %q, want %s", got, digicert.MethodEmail)
	}
	domainAddMethod = ""
}

func TestRunDomainAddInvalidName(t *testing.T) {
	resetDomainFlags()
	swapDeps(t, NewMockDeps().WithConfig(testConfig(t)).Build())

	if err := runDomainAdd(&cobra.Command{}, []string{"not a domain"}); err == nil {
		t.Fatal("expected a validation error")
	}
}

func TestRunDomainBulkAddWritesResults(t *testing.T) {
	resetDomainFlags()
	cfg := testConfig(t)

	listPath := filepath.Join(cfg.DataDir, "domains.txt")
	if err := os.WriteFile(listPath, []byte("one.example.com\n# comment\ntwo.example.com\n"), 0644); err != nil {
		t.Fatal(err)
	}

	sect := &MockSectigo{}
	swapDeps(t, NewMockDeps().
		WithConfig(cfg).
		WithClients(&MockClientFactory{DC: &MockDigiCert{}, Sect: sect, Ak: &MockAkamai{}, Az: &MockAzure{}}).
		Build())

	domainAddCA = "sectigo"
	domainAddFile = listPath
	domainAddResults = filepath.Join(cfg.DataDir, "results.json")

	if err := runDomainAdd(&cobra.Command{}, nil); err != nil {
		t.Fatalf("runDomainAdd: %v", err)
	}

	if len(sect.AddedDomains) != 2 {
		t.Fatalf("added = %v, want 2 domains", sect.AddedDomains)
	}
	for _, orgID := range sect.AddedOrgIDs {
		if orgID != 7700 {
			t.Errorf("sectigo org id = %d, want 7700", orgID)
		}
	}

	data, err := os.ReadFile(domainAddResults)
	if err != nil {
		t.Fatalf("results file: %v", err)
	}
	var results []addResult
	if err := json.Unmarshal(data, &results); err != nil {
		t.Fatalf("results json: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Error != "" {
			t.Errorf("%s: unexpected error %q", r.Domain, r.Error)
		}
		if r.ID == 0 {
			t.Errorf("%s: missing id", r.Domain)
		}
	}
}

func TestRunDomainRemove(t *testing.T) {
	resetDomainFlags()
	cfg := testConfig(t)

	st, _ := store.New(cfg.DataDir)
	if err := st.WriteLookup([]store.LookupRow{
		{ID: 50, Domain: "old.example.com", CA: "digicert"},
		{ID: 60, Domain: "old.example.com", CA: "sectigo"},
	}); err != nil {
		t.Fatal(err)
	}

	dc := &MockDigiCert{}
	sect := &MockSectigo{}
	swapDeps(t, NewMockDeps().
		WithConfig(cfg).
		WithClients(&MockClientFactory{DC: dc, Sect: sect, Ak: &MockAkamai{}, Az: &MockAzure{}}).
		WithInput("y").
		Build())

	if err := runDomainRemove(&cobra.Command{}, []string{"old.example.com"}); err != nil {
		t.Fatalf("runDomainRemove: %v", err)
	}

	if len(dc.DeletedIDs) != 1 || dc.DeletedIDs[0] != 50 {
		t.Errorf("digicert deleted = %v", dc.DeletedIDs)
	}
	if len(sect.DeletedIDs) != 1 || sect.DeletedIDs[0] != 60 {
		t.Errorf("sectigo deleted = %v", sect.DeletedIDs)
	}
}

func TestRunDomainRemoveDeclined(t *testing.T) {
	resetDomainFlags()
	cfg := testConfig(t)

	st, _ := store.New(cfg.DataDir)
	if err := st.WriteLookup([]store.LookupRow{
		{ID: 50, Domain: "old.example.com", CA: "digicert"},
	}); err != nil {
		t.Fatal(err)
	}

	dc := &MockDigiCert{}
	swapDeps(t, NewMockDeps().
		WithConfig(cfg).
		WithClients(&MockClientFactory{DC: dc, Sect: &MockSectigo{}, Ak: &MockAkamai{}, Az: &MockAzure{}}).
		WithInput("n").
		Build())

	if err := runDomainRemove(&cobra.Command{}, []string{"old.example.com"}); err != nil {
		t.Fatalf("runDomainRemove: %v", err)
	}
	if len(dc.DeletedIDs) != 0 {
		t.Errorf("nothing should be deleted after declining, got %v", dc.DeletedIDs)
	}
}

func TestRunDomainRemoveUnknownDomain(t *testing.T) {
	resetDomainFlags()
	cfg := testConfig(t)

	st, _ := store.New(cfg.DataDir)
	if err := st.WriteLookup(nil); err != nil {
		t.Fatal(err)
	}

	swapDeps(t, NewMockDeps().WithConfig(cfg).Build())

	if err := runDomainRemove(&cobra.Command{}, []string{"missing.example.com"}); err == nil {
		t.Fatal("expected not-found error")
	}
}
