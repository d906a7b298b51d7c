package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/certops/dcvkit/internal/output"
	"github.com/certops/dcvkit/internal/store"
	"github.com/spf13/cobra"
)

var (
	akamaiRecordType string
	akamaiZonesFile  string
	akamaiOutput     string
)

var akamaiCmd = &cobra.Command{
	Use:   "akamai",
	Short: "Akamai Edge DNS utilities",
}

var akamaiRecordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Dump zone record sets to a consolidated CSV",
	Long: `List every record set in the given zones (or all zones the credentials
can see) and write them to one CSV. --type restricts the dump to a
single record type.`,
	RunE: runAkamaiRecords,
}

func init() {
	akamaiRecordsCmd.Flags().StringVar(&akamaiRecordType, "type", "", "only dump this record type (e.g. TXT)")
	akamaiRecordsCmd.Flags().StringVar(&akamaiZonesFile, "input", "", "zone list file (defaults to every zone)")
	akamaiRecordsCmd.Flags().StringVar(&akamaiOutput, "output", "", "output CSV path (defaults to akamai_records.csv in the data dir)")

	akamaiCmd.AddCommand(akamaiRecordsCmd)
	rootCmd.AddCommand(akamaiCmd)
}

func runAkamaiRecords(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ak, err := akamaiClient(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var zones []string
	if akamaiZonesFile != "" {
		zones, err = store.ReadDomainList(akamaiZonesFile)
	} else {
		zones, err = ak.ListZones(ctx)
	}
	if err != nil {
		return err
	}

	typ := strings.ToUpper(akamaiRecordType)
	rows := [][]string{{"zone", "name", "type", "ttl", "rdata"}}
	failed := 0
	for _, zone := range zones {
		sets, err := ak.ListRecordSets(ctx, zone)
		if err != nil {
			output.Warn("%s: %v", zone, err)
			failed++
			continue
		}
		for _, rs := range sets {
			if typ != "" && rs.Type != typ {
				continue
			}
			rows = append(rows, []string{
				zone, rs.Name, rs.Type, strconv.Itoa(rs.TTL), strings.Join(rs.Rdata, " "),
			})
		}
	}

	path := akamaiOutput
	if path == "" {
		path = filepath.Join(cfg.DataDir, "akamai_records.csv")
	}
	if err := writeRawCSV(path, rows); err != nil {
		return err
	}

	if jsonOutput {
		return output.JSON(map[string]interface{}{
			"zones": len(zones), "records": len(rows) - 1, "failed_zones": failed, "file": path,
		})
	}
	output.Success("wrote %d records from %d zones to %s", len(rows)-1, len(zones), path)
	if failed > 0 {
		output.Warn("%d zones failed", failed)
	}
	return nil
}

func writeRawCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
