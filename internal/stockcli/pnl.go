package stockcli

import (
	"fmt"

	"github.com/certops/dcvkit/internal/finance"
	"github.com/certops/dcvkit/internal/output"
	"github.com/spf13/cobra"
)

var pnlCmd = &cobra.Command{
	Use:   "pnl",
	Short: "Report profit and loss at current prices",
	Long: `Aggregate the recorded purchases into positions, fetch current quotes
from Finnhub, and print per-position and total profit/loss.`,
	RunE: runPNL,
}

func init() {
	rootCmd.AddCommand(pnlCmd)
}

func runPNL(cmd *cobra.Command, args []string) error {
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

	p, err := deps.OpenPortfolio(portfolioPath(cfg))
	if err != nil {
		return err
	}
	defer p.Close()

	positions, err := p.Positions(cmd.Context())
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		output.Info("no purchases recorded")
		return nil
	}

	client := deps.Finnhub(key)
	quotes := map[string]*finance.Quote{}
	var missing []string
	for _, pos := range positions {
		q, err := client.Quote(cmd.Context(), pos.Symbol)
		if err != nil {
			missing = append(missing, pos.Symbol)
			continue
		}
		quotes[pos.Symbol] = q
	}

	rows, total := finance.ComputePNL(positions, quotes)

	if jsonOutput {
		return output.JSON(map[string]interface{}{
			"positions": rows,
			"total":     total,
			"no_quote":  missing,
		})
	}

	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{
			r.Symbol,
			fmt.Sprintf("%.4g", r.Shares),
			fmt.Sprintf("%.2f", r.Cost),
			fmt.Sprintf("%.2f", r.Price),
			fmt.Sprintf("%.2f", r.Value),
			fmt.Sprintf("%+.2f (%+.2f%%)", r.Gain, r.GainPercent),
		})
	}
	output.Table([]string{"SYMBOL", "SHARES", "COST", "PRICE", "VALUE", "GAIN"}, table)
	output.Print("total: %.2f -> %.2f, %+.2f (%+.2f%%)",
		total.Cost, total.Value, total.Gain, total.GainPercent)

	for _, s := range missing {
		output.Warn("no quote for %s, position skipped", s)
	}
	return nil
}
