package stockcli

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/certops/dcvkit/internal/finance"
	"github.com/spf13/cobra"
)

func TestRunDigestSendsEmail(t *testing.T) {
	cfg := testConfig(t)

	fh := &MockFinnhub{
		Quotes: map[string]*finance.Quote{
			"AAPL": {Current: 150, ChangePercent: 1.5},
		},
		News: map[string][]finance.NewsItem{
			"AAPL": {{Headline: "Apple ships things", Source: "wire", URL: "https://example.com/a"}},
		},
	}
	mailer := &MockMailer{}
	swapDeps(t, NewMockDeps().
		WithConfig(cfg).
		WithFinnhub(fh).
		WithMailer(mailer).
		WithNow(time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)).
		Build())

	digestSymbols = "aapl"
	digestNoEmail = false
	if err := runDigest(&cobra.Command{}, nil); err != nil {
		t.Fatalf("runDigest: %v", err)
	}

	if len(mailer.Subjects) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mailer.Subjects))
	}
	if !strings.Contains(mailer.Subjects[0], "2026-08-30") {
		t.Errorf("subject = %q", mailer.Subjects[0])
	}
	if !strings.Contains(mailer.Bodies[0], "Apple ships things") {
		t.Error("digest body is missing the headline")
	}

	if len(mailer.Attachments[0]) != 1 {
		t.Fatalf("attachments = %v", mailer.Attachments)
	}
	if _, err := os.Stat(mailer.Attachments[0][0]); err != nil {
		t.Errorf("attachment workbook missing: %v", err)
	}
}

func TestRunDigestNoEmailFlag(t *testing.T) {
	cfg := testConfig(t)

	fh := &MockFinnhub{Quotes: map[string]*finance.Quote{"AAPL": {Current: 150}}}
	mailer := &MockMailer{}
	swapDeps(t, NewMockDeps().WithConfig(cfg).WithFinnhub(fh).WithMailer(mailer).Build())

	digestSymbols = "AAPL"
	digestNoEmail = true
	if err := runDigest(&cobra.Command{}, nil); err != nil {
		t.Fatalf("runDigest: %v", err)
	}
	if len(mailer.Subjects) != 0 {
		t.Error("--no-email must not send mail")
	}
}

func TestRunDigestAllQuotesFail(t *testing.T) {
	cfg := testConfig(t)

	fh := &MockFinnhub{} // every Quote call returns not-found
	swapDeps(t, NewMockDeps().WithConfig(cfg).WithFinnhub(fh).Build())

	digestSymbols = "AAPL,MSFT"
	digestNoEmail = false
	if err := runDigest(&cobra.Command{}, nil); err == nil {
		t.Fatal("expected an error when no quotes could be fetched")
	}
}
