package stockcli

import (
	"fmt"
	"strings"

	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/finance"
	"github.com/certops/dcvkit/internal/output"
	"github.com/spf13/cobra"
)

var (
	futuresSymbols string
	futuresNoEmail bool
)

var futuresCmd = &cobra.Command{
	Use:   "futures",
	Short: "Email premarket index futures quotes",
	Long: `Fetch index futures quotes from Twelve Data and email them as a short
premarket note.`,
	RunE: runFutures,
}

func init() {
	futuresCmd.Flags().StringVar(&futuresSymbols, "symbols", "ES=F,NQ=F,YM=F", "comma-separated futures symbols")
	futuresCmd.Flags().BoolVar(&futuresNoEmail, "no-email", false, "print the note instead of emailing it")
	rootCmd.AddCommand(futuresCmd)
}

func runFutures(cmd *cobra.Command, args []string) error {
	var symbols []string
	for _, s := range strings.Split(futuresSymbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		return errors.Validation("--symbols is empty")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	v, err := openVault(cfg)
	if err != nil {
		return err
	}
	key, err := v.TwelveDataKey()
	if err != nil {
		return err
	}

	quotes, err := deps.TwelveData(key).Quotes(cmd.Context(), symbols)
	if err != nil {
		return err
	}
	if len(quotes) == 0 {
		return errors.Validation("no quotes returned")
	}

	now := deps.Now()
	html, err := finance.BuildFuturesHTML(now, quotes)
	if err != nil {
		return err
	}

	if futuresNoEmail {
		output.Print("%s", html)
		return nil
	}

	smtp, err := v.SMTP()
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Premarket futures %s", now.Format("2006-01-02"))
	if err := deps.NewMailer(smtp).Send(subject, html); err != nil {
		return err
	}
	output.Success("futures note sent for %d symbols", len(quotes))
	return nil
}
