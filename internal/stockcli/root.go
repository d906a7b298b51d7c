package stockcli

import (
	"path/filepath"

	"github.com/certops/dcvkit/internal/config"
	"github.com/certops/dcvkit/internal/logger"
	"github.com/certops/dcvkit/internal/vault"
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "stockctl",
	Short: "Track stock purchases and market data",
	Long: `stockctl keeps a small portfolio database, reports profit and loss at
current prices, and emails premarket digests built from Finnhub and
Twelve Data.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	cobra.OnInitialize(func() {
		logger.Init(verbose)
	})
	return rootCmd.Execute()
}

// SetVersion sets the version string for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func loadConfig() (*config.Config, error) {
	return deps.ConfigLoader.Load()
}

func openVault(cfg *config.Config) (*vault.Vault, error) {
	return deps.VaultOpener.Open(cfg.VaultPath)
}

// portfolioPath is the sqlite database under the data directory.
func portfolioPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "portfolio.db")
}
