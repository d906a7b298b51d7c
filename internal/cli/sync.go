package cli

import (
	"github.com/certops/dcvkit/internal/dcv"
	"github.com/certops/dcvkit/internal/output"
	"github.com/certops/dcvkit/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var syncSkipMerge bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh both CA exports and the combined report",
	Long: `Delete the existing CSV artifacts, fetch both CA inventories in
parallel, rebuild the lookup table, and merge the exports into the
combined report. The merge only runs when both fetches succeed.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncSkipMerge, "skip-merge", false, "stop after the per-CA exports")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
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

	done, err := startRun("sync", cfg)
	if err != nil {
		return err
	}
	defer done()

	if err := st.RemoveArtifacts(dcv.CADigiCert, dcv.CASectigo); err != nil {
		return err
	}

	// The two CA fetches are independent; run them concurrently and only
	// merge when both landed.
	var byCA [2][]store.Record
	cas := []string{dcv.CADigiCert, dcv.CASectigo}

	g, ctx := errgroup.WithContext(cmd.Context())
	for i, ca := range cas {
		i, ca := i, ca
		g.Go(func() error {
			records, err := fetchDomains(ctx, ca, v)
			if err != nil {
				return err
			}
			byCA[i] = records
			return st.WriteDomains(ca, records)
		})
	}
	if err := g.Wait(); err != nil {
		activityLog.Error("sync", err)
		return err
	}

	var lookup []store.LookupRow
	for i, ca := range cas {
		for _, r := range byCA[i] {
			lookup = append(lookup, store.LookupRow{ID: r.ID, Domain: r.Name, CA: ca})
		}
	}
	if err := st.WriteLookup(lookup); err != nil {
		return err
	}

	merged := 0
	if !syncSkipMerge {
		combined, err := mergeExports(cmd.Context(), cfg, v, byCA[0], byCA[1])
		if err != nil {
			return err
		}
		if err := st.WriteCombined(combined); err != nil {
			return err
		}
		merged = len(combined)
	}

	activityLog.Event("sync", "", map[string]interface{}{
		"digicert": len(byCA[0]), "sectigo": len(byCA[1]), "combined": merged,
	})

	if jsonOutput {
		return output.JSON(map[string]interface{}{
			"digicert": len(byCA[0]), "sectigo": len(byCA[1]), "combined": merged,
		})
	}
	output.Success("synced %d digicert and %d sectigo domains", len(byCA[0]), len(byCA[1]))
	if merged > 0 {
		output.Info("combined report has %d rows", merged)
	}
	return nil
}
