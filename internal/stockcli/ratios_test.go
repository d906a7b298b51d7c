package stockcli

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/certops/dcvkit/internal/finance"
	"github.com/spf13/cobra"
)

func TestRunRatios(t *testing.T) {
	cfg := testConfig(t)

	fh := &MockFinnhub{Ratios: map[string]*finance.Metrics{
		"AAPL": {PETTM: 28.5, PSTTM: 7.1},
		"MSFT": {PETTM: 32.0, PSTTM: 11.2},
	}}
	sleeps := 0
	swapDeps(t, NewMockDeps().
		WithConfig(cfg).
		WithFinnhub(fh).
		WithSleep(func(time.Duration) { sleeps++ }).
		WithNow(time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)).
		Build())

	ratiosSymbols = "AAPL,MSFT"
	if err := runRatios(&cobra.Command{}, nil); err != nil {
		t.Fatalf("runRatios: %v", err)
	}

	// Requests are spaced: one sleep between two symbols.
	if sleeps != 1 {
		t.Errorf("sleeps = %d, want 1", sleeps)
	}

	path := filepath.Join(cfg.DataDir, "ratios_2026-08-30.csv")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("dated csv: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[1][0] != "AAPL" || rows[1][1] != "28.50" {
		t.Errorf("row = %v", rows[1])
	}
}

func TestRunRatiosAllFail(t *testing.T) {
	cfg := testConfig(t)

	fh := &MockFinnhub{} // no ratios configured, every call fails
	swapDeps(t, NewMockDeps().WithConfig(cfg).WithFinnhub(fh).Build())

	ratiosSymbols = "AAPL"
	if err := runRatios(&cobra.Command{}, nil); err == nil {
		t.Fatal("expected an error when every metrics request fails")
	}
}
