package cli

import (
	"context"
	"path/filepath"

	"github.com/certops/dcvkit/internal/config"
	"github.com/certops/dcvkit/internal/dcv"
	"github.com/certops/dcvkit/internal/output"
	"github.com/certops/dcvkit/internal/report"
	"github.com/certops/dcvkit/internal/store"
	"github.com/certops/dcvkit/internal/vault"
	"github.com/spf13/cobra"
)

var mergeXLSX bool

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Combine the per-CA exports into one report",
	Long: `Join the DigiCert and Sectigo exports into combined_domains.csv, adding
an ns_provider column classified from each domain's live nameservers.
With --xlsx, also write the report as combined_domains.xlsx for sharing.`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().BoolVar(&mergeXLSX, "xlsx", false, "also write combined_domains.xlsx")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	v, err := openVault(cfg)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	dcRecords, err := st.ReadDomains(dcv.CADigiCert)
	if err != nil {
		return err
	}
	sectRecords, err := st.ReadDomains(dcv.CASectigo)
	if err != nil {
		return err
	}

	done, err := startRun("merge", cfg)
	if err != nil {
		return err
	}
	defer done()

	combined, err := mergeExports(cmd.Context(), cfg, v, dcRecords, sectRecords)
	if err != nil {
		return err
	}
	if err := st.WriteCombined(combined); err != nil {
		return err
	}
	if mergeXLSX {
		xlsxPath := filepath.Join(st.Dir(), "combined_domains.xlsx")
		if err := report.WriteCombined(xlsxPath, combined); err != nil {
			return err
		}
	}

	activityLog.Event("merge", "", map[string]interface{}{"rows": len(combined)})

	if jsonOutput {
		return output.JSON(map[string]interface{}{"rows": len(combined)})
	}
	output.Success("wrote %d combined rows", len(combined))
	return nil
}

// mergeExports joins both CA exports and classifies each domain's
// nameserver provider. Classification failures leave the column blank
// and the loop continues.
func mergeExports(ctx context.Context, cfg *config.Config, v *vault.Vault, dcRecords, sectRecords []store.Record) ([]store.CombinedRecord, error) {
	resolver := newResolver(cfg, v)

	// One classification per domain, even when it appears at both CAs.
	providers := map[string]string{}
	classify := func(domain string) string {
		if p, ok := providers[domain]; ok {
			return p
		}
		p, err := resolver.NSProvider(ctx, domain)
		if err != nil {
			activityLog.Error("classify nameservers", err)
			p = ""
		}
		providers[domain] = p
		return p
	}

	var combined []store.CombinedRecord
	for _, r := range dcRecords {
		combined = append(combined, store.CombinedRecord{
			CA: dcv.CADigiCert, Record: r, NSProvider: classify(r.Name),
		})
	}
	for _, r := range sectRecords {
		combined = append(combined, store.CombinedRecord{
			CA: dcv.CASectigo, Record: r, NSProvider: classify(r.Name),
		})
	}
	return combined, nil
}
