package stockcli

import (
	"strings"
	"testing"
	"time"

	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/finance"
	"github.com/spf13/cobra"
)

func TestRunFutures(t *testing.T) {
	cfg := testConfig(t)

	td := &MockTwelveData{Result: []finance.FuturesQuote{
		{Symbol: "ES=F", Name: "S&P 500 Futures", Price: 5000, Change: 12.5, ChangePercent: 0.25},
		{Symbol: "NQ=F", Name: "Nasdaq Futures", Price: 18000, Change: -30, ChangePercent: -0.17},
	}}
	mailer := &MockMailer{}
	swapDeps(t, NewMockDeps().
		WithConfig(cfg).
		WithTwelveData(td).
		WithMailer(mailer).
		WithNow(time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)).
		Build())

	futuresSymbols = "ES=F, NQ=F"
	futuresNoEmail = false
	if err := runFutures(&cobra.Command{}, nil); err != nil {
		t.Fatalf("runFutures: %v", err)
	}

	if len(td.Calls) != 1 || len(td.Calls[0]) != 2 {
		t.Errorf("twelve data calls = %v", td.Calls)
	}
	if len(mailer.Subjects) != 1 || !strings.Contains(mailer.Subjects[0], "2026-08-30") {
		t.Errorf("subjects = %v", mailer.Subjects)
	}
	if !strings.Contains(mailer.Bodies[0], "S&amp;P 500 Futures") && !strings.Contains(mailer.Bodies[0], "S&P 500 Futures") {
		t.Error("futures body is missing the index name")
	}
}

func TestRunFuturesVendorError(t *testing.T) {
	cfg := testConfig(t)

	td := &MockTwelveData{Err: errors.Vendor("twelvedata", 429, "limit")}
	swapDeps(t, NewMockDeps().WithConfig(cfg).WithTwelveData(td).Build())

	futuresSymbols = "ES=F"
	futuresNoEmail = false
	if err := runFutures(&cobra.Command{}, nil); err == nil {
		t.Fatal("expected the vendor error to surface")
	}
}
