package cli

import (
	"sort"
	"strings"

	"github.com/certops/dcvkit/internal/dcv"
	"github.com/certops/dcvkit/internal/output"
	"github.com/certops/dcvkit/internal/store"
	"github.com/spf13/cobra"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Report domains registered at only one CA",
	Long: `Compare the DigiCert and Sectigo exports and list the domains present
in one inventory but missing from the other.`,
	RunE: runGaps,
}

func init() {
	rootCmd.AddCommand(gapsCmd)
}

// gapReport lists each CA's domains missing from the other.
type gapReport struct {
	MissingFromDigiCert []string `json:"missing_from_digicert"`
	MissingFromSectigo  []string `json:"missing_from_sectigo"`
}

func runGaps(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
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

	report := compareInventories(dcRecords, sectRecords)

	if jsonOutput {
		return output.JSON(report)
	}

	rows := [][]string{}
	for _, d := range report.MissingFromDigiCert {
		rows = append(rows, []string{d, dcv.CASectigo, dcv.CADigiCert})
	}
	for _, d := range report.MissingFromSectigo {
		rows = append(rows, []string{d, dcv.CADigiCert, dcv.CASectigo})
	}
	if len(rows) == 0 {
		output.Success("both inventories cover the same domains")
		return nil
	}
	output.Table([]string{"DOMAIN", "PRESENT AT", "MISSING FROM"}, rows)
	return nil
}

func compareInventories(dcRecords, sectRecords []store.Record) gapReport {
	names := func(records []store.Record) map[string]bool {
		set := make(map[string]bool, len(records))
		for _, r := range records {
			set[strings.ToLower(r.Name)] = true
		}
		return set
	}
	dc, sect := names(dcRecords), names(sectRecords)

	var report gapReport
	for d := range sect {
		if !dc[d] {
			report.MissingFromDigiCert = append(report.MissingFromDigiCert, d)
		}
	}
	for d := range dc {
		if !sect[d] {
			report.MissingFromSectigo = append(report.MissingFromSectigo, d)
		}
	}
	sort.Strings(report.MissingFromDigiCert)
	sort.Strings(report.MissingFromSectigo)
	return report
}
