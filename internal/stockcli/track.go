package stockcli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/finance"
	"github.com/certops/dcvkit/internal/output"
	"github.com/spf13/cobra"
)

var trackImportFile string

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Record and list stock purchases",
}

var trackAddCmd = &cobra.Command{
	Use:   "add <symbol> <shares> <price> [date]",
	Short: "Record a purchase",
	Args:  cobra.RangeArgs(3, 4),
	RunE:  runTrackAdd,
}

var trackImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import purchases from a CSV file",
	Long:  `Import purchases from a CSV with a symbol,shares,price,date header.`,
	RunE:  runTrackImport,
}

var trackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded purchases",
	RunE:  runTrackList,
}

func init() {
	trackImportCmd.Flags().StringVar(&trackImportFile, "file", "", "CSV file to import")
	trackImportCmd.MarkFlagRequired("file")

	trackCmd.AddCommand(trackAddCmd)
	trackCmd.AddCommand(trackImportCmd)
	trackCmd.AddCommand(trackListCmd)
	rootCmd.AddCommand(trackCmd)
}

func runTrackAdd(cmd *cobra.Command, args []string) error {
	shares, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return errors.Validation(fmt.Sprintf("bad share count %q", args[1]))
	}
	price, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return errors.Validation(fmt.Sprintf("bad price %q", args[2]))
	}

	date := deps.Now().Format("2006-01-02")
	if len(args) == 4 {
		if _, err := time.Parse("2006-01-02", args[3]); err != nil {
			return errors.Validation(fmt.Sprintf("bad date %q, want YYYY-MM-DD", args[3]))
		}
		date = args[3]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := deps.OpenPortfolio(portfolioPath(cfg))
	if err != nil {
		return err
	}
	defer p.Close()

	purchase := finance.Purchase{
		Symbol: strings.ToUpper(args[0]),
		Shares: shares,
		Price:  price,
		Date:   date,
	}
	if err := p.Add(cmd.Context(), purchase); err != nil {
		return err
	}

	output.Success("recorded %s x%.4g @ %.2f on %s", purchase.Symbol, shares, price, date)
	return nil
}

func runTrackImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := deps.OpenPortfolio(portfolioPath(cfg))
	if err != nil {
		return err
	}
	defer p.Close()

	n, err := p.ImportCSV(cmd.Context(), trackImportFile)
	if err != nil {
		return err
	}
	output.Success("imported %d purchases", n)
	return nil
}

func runTrackList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := deps.OpenPortfolio(portfolioPath(cfg))
	if err != nil {
		return err
	}
	defer p.Close()

	purchases, err := p.List(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOutput {
		return output.JSON(purchases)
	}
	rows := make([][]string, 0, len(purchases))
	for _, pu := range purchases {
		rows = append(rows, []string{
			strconv.FormatInt(pu.ID, 10), pu.Symbol,
			strconv.FormatFloat(pu.Shares, 'f', -1, 64),
			fmt.Sprintf("%.2f", pu.Price), pu.Date,
		})
	}
	output.Table([]string{"ID", "SYMBOL", "SHARES", "PRICE", "DATE"}, rows)
	return nil
}
