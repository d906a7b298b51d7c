package cli

import (
	"github.com/certops/dcvkit/internal/logger"
	"github.com/certops/dcvkit/internal/runlog"
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	verbose    bool

	// activityLog is the structured run log shared by the commands of a
	// single invocation. Read-only commands leave it discarding.
	activityLog = runlog.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "dcvctl",
	Short: "Manage TLS certificate domain control validation",
	Long: `dcvctl keeps DigiCert and Sectigo domain inventories in sync, publishes
DNS validation records on Akamai Edge DNS or Azure DNS, and drives the
domain control validation workflow end to end.`,
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
