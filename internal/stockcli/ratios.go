package stockcli

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/output"
	"github.com/spf13/cobra"
)

var (
	ratiosSymbols string
	ratiosSleep   time.Duration
)

var ratiosCmd = &cobra.Command{
	Use:   "ratios",
	Short: "Snapshot P/E and P/S ratios to a dated CSV",
	Long: `Fetch trailing P/E and P/S ratios from Finnhub for the portfolio
symbols (or --symbols) and append-date them into ratios_YYYY-MM-DD.csv
under the data directory. Requests are spaced by a fixed sleep to stay
inside the free-tier rate limit.`,
	RunE: runRatios,
}

func init() {
	ratiosCmd.Flags().StringVar(&ratiosSymbols, "symbols", "", "comma-separated symbols (defaults to the portfolio)")
	ratiosCmd.Flags().DurationVar(&ratiosSleep, "sleep", time.Second, "pause between API requests")
	rootCmd.AddCommand(ratiosCmd)
}

func runRatios(cmd *cobra.Command, args []string) error {
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

	var symbols []string
	if ratiosSymbols != "" {
		for _, s := range strings.Split(ratiosSymbols, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				symbols = append(symbols, s)
			}
		}
	} else {
		p, err := deps.OpenPortfolio(portfolioPath(cfg))
		if err != nil {
			return err
		}
		positions, err := p.Positions(cmd.Context())
		p.Close()
		if err != nil {
			return err
		}
		for _, pos := range positions {
			symbols = append(symbols, pos.Symbol)
		}
	}
	if len(symbols) == 0 {
		return errors.Validation("no symbols, record purchases or pass --symbols")
	}

	client := deps.Finnhub(key)
	rows := [][]string{{"symbol", "pe_ttm", "ps_ttm"}}
	failed := 0
	for i, symbol := range symbols {
		if i > 0 {
			deps.Sleep(ratiosSleep)
		}
		m, err := client.Metrics(cmd.Context(), symbol)
		if err != nil {
			output.Warn("%s: %v", symbol, err)
			failed++
			continue
		}
		rows = append(rows, []string{
			symbol,
			strconv.FormatFloat(m.PETTM, 'f', 2, 64),
			strconv.FormatFloat(m.PSTTM, 'f', 2, 64),
		})
	}
	if len(rows) == 1 {
		return errors.Validation("every metrics request failed")
	}

	path := filepath.Join(cfg.DataDir, fmt.Sprintf("ratios_%s.csv", deps.Now().Format("2006-01-02")))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := csv.NewWriter(f).WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	output.Success("wrote %d symbols to %s (%d failed)", len(rows)-1, path, failed)
	return nil
}
