package cli

import (
	"testing"

	"github.com/certops/dcvkit/internal/store"
	"github.com/spf13/cobra"
)

func TestCompareInventories(t *testing.T) {
	dc := []store.Record{
		{ID: 1, Name: "both.example.com"},
		{ID: 2, Name: "dc-only.example.com"},
	}
	sect := []store.Record{
		{ID: 3, Name: "Both.Example.COM"},
		{ID: 4, Name: "stg-only.example.com"},
	}

	report := compareInventories(dc, sect)

	if len(report.MissingFromDigiCert) != 1 || report.MissingFromDigiCert[0] != "stg-only.example.com" {
		t.Errorf("missing from digicert = %v", report.MissingFromDigiCert)
	}
	if len(report.MissingFromSectigo) != 1 || report.MissingFromSectigo[0] != "dc-only.example.com" {
		t.Errorf("missing from sectigo = %v", report.MissingFromSectigo)
	}
}

func TestRunGaps(t *testing.T) {
	cfg := testConfig(t)
	st, _ := store.New(cfg.DataDir)
	if err := st.WriteDomains("digicert", []store.Record{{ID: 1, Name: "a.example.com"}}); err != nil {
		t.Fatal(err)
	}
	if err := st.WriteDomains("sectigo", []store.Record{{ID: 2, Name: "a.example.com"}}); err != nil {
		t.Fatal(err)
	}

	swapDeps(t, NewMockDeps().WithConfig(cfg).Build())

	if err := runGaps(&cobra.Command{}, nil); err != nil {
		t.Fatalf("runGaps: %v", err)
	}
}

func TestRunGapsMissingExport(t *testing.T) {
	cfg := testConfig(t)
	swapDeps(t, NewMockDeps().WithConfig(cfg).Build())

	if err := runGaps(&cobra.Command{}, nil); err == nil {
		t.Fatal("expected an error when the exports are missing")
	}
}
