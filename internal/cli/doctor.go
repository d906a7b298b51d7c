package cli

import (
	"fmt"
	"os"

	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/output"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the local setup",
	Long: `Verify the configuration, the credential vault, the edgerc file, the
data directory and the DNS resolver are all usable.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck is one diagnostic result.
type doctorCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var checks []doctorCheck
	add := func(name string, err error, okDetail string) {
		c := doctorCheck{Name: name, OK: err == nil, Detail: okDetail}
		if err != nil {
			c.Detail = err.Error()
		}
		checks = append(checks, c)
	}

	cfg, err := loadConfig()
	add("config", err, "")
	if err != nil {
		return printDoctor(checks)
	}

	v, err := openVault(cfg)
	add("vault", err, cfg.VaultPath)

	if v != nil {
		add("digicert credentials", v.Validate("digicert", "api_key"), "")
		add("sectigo credentials", v.Validate("sectigo", "login", "password", "customerUri"), "")
		add("azure credentials", v.Validate("AzureSPN", "tenant_id", "client_id", "client_secret", "subscription_id"), "")
	}

	if _, err := os.Stat(cfg.EdgercPath); err != nil {
		add("edgerc", fmt.Errorf("%s: %w", cfg.EdgercPath, err), "")
	} else {
		add("edgerc", nil, cfg.EdgercPath)
	}

	_, err = openStore(cfg)
	add("data directory", err, cfg.DataDir)

	resolver := newResolver(cfg, v)
	_, err = resolver.Nameservers(cmd.Context(), "example.com")
	add("resolver", err, cfg.Resolver)

	return printDoctor(checks)
}

func printDoctor(checks []doctorCheck) error {
	failed := 0
	for _, c := range checks {
		if !c.OK {
			failed++
		}
	}

	if jsonOutput {
		if err := output.JSON(checks); err != nil {
			return err
		}
	} else {
		for _, c := range checks {
			if c.OK {
				output.Success("%s ok %s", c.Name, c.Detail)
			} else {
				output.Error("%s: %s", c.Name, c.Detail)
			}
		}
	}

	if failed > 0 {
		return errors.Validation("setup problems found")
	}
	return nil
}
