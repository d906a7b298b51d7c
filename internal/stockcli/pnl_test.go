package stockcli

import (
	"context"
	"testing"

	"github.com/certops/dcvkit/internal/finance"
	"github.com/spf13/cobra"
)

func seedPortfolio(t *testing.T, path string, purchases ...finance.Purchase) {
	t.Helper()
	p, err := finance.OpenPortfolio(path)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	for _, pu := range purchases {
		if err := p.Add(context.Background(), pu); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRunPNL(t *testing.T) {
	cfg := testConfig(t)
	seedPortfolio(t, portfolioPath(cfg),
		finance.Purchase{Symbol: "AAPL", Shares: 10, Price: 100, Date: "2026-01-02"},
		finance.Purchase{Symbol: "MSFT", Shares: 5, Price: 200, Date: "2026-01-03"},
	)

	fh := &MockFinnhub{Quotes: map[string]*finance.Quote{
		"AAPL": {Current: 150},
		// no MSFT quote: the position is skipped with a warning
	}}
	swapDeps(t, NewMockDeps().WithConfig(cfg).WithFinnhub(fh).Build())

	if err := runPNL(&cobra.Command{}, nil); err != nil {
		t.Fatalf("runPNL: %v", err)
	}
	if len(fh.QuoteCalls) != 2 {
		t.Errorf("quote calls = %v, want one per position", fh.QuoteCalls)
	}
}

func TestRunPNLEmptyPortfolio(t *testing.T) {
	cfg := testConfig(t)
	swapDeps(t, NewMockDeps().WithConfig(cfg).Build())

	if err := runPNL(&cobra.Command{}, nil); err != nil {
		t.Fatalf("an empty portfolio is not an error, got %v", err)
	}
}
