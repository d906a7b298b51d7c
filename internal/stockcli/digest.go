package stockcli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/certops/dcvkit/internal/config"
	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/finance"
	"github.com/certops/dcvkit/internal/output"
	"github.com/certops/dcvkit/internal/report"
	"github.com/spf13/cobra"
)

var (
	digestSymbols string
	digestNoEmail bool
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Email a premarket digest of quotes and headlines",
	Long: `Fetch premarket quotes and the last day of company news for the
portfolio symbols (or --symbols), write them to an XLSX workbook, and
email the digest with the workbook attached.`,
	RunE: runDigest,
}

func init() {
	digestCmd.Flags().StringVar(&digestSymbols, "symbols", "", "comma-separated symbols (defaults to the portfolio)")
	digestCmd.Flags().BoolVar(&digestNoEmail, "no-email", false, "print the digest instead of emailing it")
	rootCmd.AddCommand(digestCmd)
}

func runDigest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	v, err := openVault(cfg)
	if err != nil {
		return err
	}
	key, err := v.FinnhubKey()
	if err != nil {
		return err
	}

	symbols, err := digestSymbolList(cmd, cfg)
	if err != nil {
		return err
	}

	client := deps.Finnhub(key)
	now := deps.Now()
	from := now.Add(-24 * time.Hour)

	var items []finance.DigestItem
	for _, symbol := range symbols {
		q, err := client.Quote(cmd.Context(), symbol)
		if err != nil {
			output.Warn("%s: %v", symbol, err)
			continue
		}
		news, err := client.CompanyNews(cmd.Context(), symbol, from, now)
		if err != nil {
			output.Warn("%s news: %v", symbol, err)
		}
		items = append(items, finance.DigestItem{Symbol: symbol, Quote: q, News: news})
	}
	if len(items) == 0 {
		return errors.Validation("no quotes fetched, nothing to send")
	}

	html, err := finance.BuildDigestHTML(now, items)
	if err != nil {
		return err
	}

	attachment := filepath.Join(cfg.DataDir, fmt.Sprintf("digest_%s.xlsx", now.Format("2006-01-02")))
	if err := writeDigestWorkbook(attachment, items); err != nil {
		return err
	}

	if digestNoEmail {
		output.Print("%s", html)
		output.Info("workbook written to %s", attachment)
		return nil
	}

	smtp, err := v.SMTP()
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Market digest %s", now.Format("2006-01-02"))
	if err := deps.NewMailer(smtp).Send(subject, html, attachment); err != nil {
		return err
	}
	output.Success("digest sent for %d symbols", len(items))
	return nil
}

// digestSymbolList resolves --symbols or falls back to the portfolio.
func digestSymbolList(cmd *cobra.Command, cfg *config.Config) ([]string, error) {
	if digestSymbols != "" {
		var symbols []string
		for _, s := range strings.Split(digestSymbols, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				symbols = append(symbols, s)
			}
		}
		if len(symbols) == 0 {
			return nil, errors.Validation("--symbols is empty")
		}
		return symbols, nil
	}

	p, err := deps.OpenPortfolio(portfolioPath(cfg))
	if err != nil {
		return nil, err
	}
	defer p.Close()

	positions, err := p.Positions(cmd.Context())
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, errors.Validation("no portfolio symbols, pass --symbols")
	}
	symbols := make([]string, 0, len(positions))
	for _, pos := range positions {
		symbols = append(symbols, pos.Symbol)
	}
	return symbols, nil
}

func writeDigestWorkbook(path string, items []finance.DigestItem) error {
	headers := []string{"Symbol", "Price", "Change %", "Headline", "Source"}
	var rows [][]string
	for _, item := range items {
		price := fmt.Sprintf("%.2f", item.Quote.Current)
		change := strconv.FormatFloat(item.Quote.ChangePercent, 'f', 2, 64)
		if len(item.News) == 0 {
			rows = append(rows, []string{item.Symbol, price, change, "", ""})
			continue
		}
		for _, n := range item.News {
			rows = append(rows, []string{item.Symbol, price, change, n.Headline, n.Source})
		}
	}
	return report.WriteTable(path, "Digest", headers, rows)
}
