package cli

import (
	"strconv"

	"github.com/certops/dcvkit/internal/config"
	"github.com/certops/dcvkit/internal/dcv"
	"github.com/certops/dcvkit/internal/output"
	"github.com/certops/dcvkit/internal/store"
	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [domain]",
	Short: "Build or query the domain-to-id lookup table",
	Long: `Without arguments, fetch both CA inventories and rebuild
domain_id_lookup.csv. With a domain argument, print the ids the domain
has at each CA.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		return lookupDomain(st, args[0])
	}
	return rebuildLookup(cmd, cfg, st)
}

func lookupDomain(st *store.Store, domain string) error {
	rows, err := st.FindDomain(domain)
	if err != nil {
		return err
	}

	if jsonOutput {
		return output.JSON(rows)
	}
	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{strconv.Itoa(r.ID), r.Domain, r.CA})
	}
	output.Table([]string{"ID", "DOMAIN", "CA"}, table)
	return nil
}

func rebuildLookup(cmd *cobra.Command, cfg *config.Config, st *store.Store) error {
	v, err := openVault(cfg)
	if err != nil {
		return err
	}

	done, err := startRun("lookup", cfg)
	if err != nil {
		return err
	}
	defer done()

	dc, err := digicertClient(v)
	if err != nil {
		return err
	}
	sect, err := sectigoClient(v)
	if err != nil {
		return err
	}

	var rows []store.LookupRow
	dcDomains, err := dc.ListDomains(cmd.Context())
	if err != nil {
		return err
	}
	for _, d := range dcDomains {
		rows = append(rows, store.LookupRow{ID: d.ID, Domain: d.Name, CA: dcv.CADigiCert})
	}

	sectDomains, err := sect.ListDomains(cmd.Context())
	if err != nil {
		return err
	}
	for _, d := range sectDomains {
		rows = append(rows, store.LookupRow{ID: d.ID, Domain: d.Name, CA: dcv.CASectigo})
	}

	if err := st.WriteLookup(rows); err != nil {
		return err
	}
	activityLog.Event("lookup", "", map[string]interface{}{"rows": len(rows)})

	if jsonOutput {
		return output.JSON(map[string]interface{}{"rows": len(rows)})
	}
	output.Success("wrote %d lookup rows", len(rows))
	return nil
}
