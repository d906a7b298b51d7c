package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/certops/dcvkit/internal/dcv"
	"github.com/certops/dcvkit/internal/dnsutil"
	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/output"
	"github.com/certops/dcvkit/internal/report"
	"github.com/certops/dcvkit/internal/store"
	"github.com/spf13/cobra"
)

var (
	checkDomain string
	checkFile   string
	checkOutput string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate domains: format, DNS records, DigiCert status",
	Long: `For each domain, check the name is well-formed, classify its
nameservers, look for a published _pki-validation TXT record, and fetch
its DigiCert DCV status when the lookup table knows its id. Results go
to the terminal, or to a CSV/XLSX file with --output.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkDomain, "domain", "", "single domain to check")
	checkCmd.Flags().StringVar(&checkFile, "file", "", "domain list file")
	checkCmd.Flags().StringVar(&checkOutput, "output", "", "write the report to this .csv or .xlsx file")
	rootCmd.AddCommand(checkCmd)
}

// checkRow is one domain's validation report.
type checkRow struct {
	Domain      string `json:"domain"`
	ValidFormat bool   `json:"valid_format"`
	NSProvider  string `json:"ns_provider,omitempty"`
	TXTPresent  bool   `json:"txt_present"`
	DCVStatus   string `json:"dcv_status,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	var domains []string
	if checkDomain != "" {
		domains = append(domains, checkDomain)
	}
	if checkFile != "" {
		fromFile, err := store.ReadDomainList(checkFile)
		if err != nil {
			return err
		}
		domains = append(domains, fromFile...)
	}
	if len(domains) == 0 {
		return errors.Validation("need --domain or --file")
	}

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

	resolver := newResolver(cfg, v)

	// DigiCert status is optional: without credentials or a lookup table
	// the report just leaves the column blank.
	var dc DigiCertClient
	if client, err := digicertClient(v); err == nil {
		dc = client
	}

	ctx := cmd.Context()
	rows := make([]checkRow, 0, len(domains))
	for _, domain := range domains {
		rows = append(rows, checkOne(ctx, domain, resolver, st, dc))
	}

	if checkOutput != "" {
		if err := writeCheckReport(checkOutput, rows); err != nil {
			return err
		}
		output.Success("wrote %d rows to %s", len(rows), checkOutput)
		return nil
	}

	if jsonOutput {
		return output.JSON(rows)
	}
	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{
			r.Domain, yesNo(r.ValidFormat), r.NSProvider, yesNo(r.TXTPresent), output.Status(r.DCVStatus),
		})
	}
	output.Table([]string{"DOMAIN", "VALID", "NS PROVIDER", "TXT", "DIGICERT STATUS"}, table)
	return nil
}

func checkOne(ctx context.Context, domain string, resolver DNSResolver, st *store.Store, dc DigiCertClient) checkRow {
	row := checkRow{Domain: domain, ValidFormat: dnsutil.IsValidDomain(domain)}
	if !row.ValidFormat {
		return row
	}

	if p, err := resolver.NSProvider(ctx, domain); err == nil {
		row.NSProvider = p
	}

	// Any TXT content at the validation name counts as present.
	if _, err := resolver.LookupTXT(ctx, dnsutil.ValidationName(domain)); err == nil {
		row.TXTPresent = true
	}

	if dc != nil {
		if lookupRows, err := st.FindDomain(domain); err == nil {
			for _, lr := range lookupRows {
				if lr.CA != dcv.CADigiCert {
					continue
				}
				if status, err := dc.CheckDCV(ctx, lr.ID); err == nil {
					row.DCVStatus = status
				}
				break
			}
		}
	}
	return row
}

func writeCheckReport(path string, rows []checkRow) error {
	headers := []string{"domain", "valid_format", "ns_provider", "txt_present", "dcv_status"}
	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{
			r.Domain, strconv.FormatBool(r.ValidFormat), r.NSProvider,
			strconv.FormatBool(r.TXTPresent), r.DCVStatus,
		})
	}

	switch filepath.Ext(path) {
	case ".xlsx":
		return report.WriteTable(path, "Validation", headers, table)
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		w := csv.NewWriter(f)
		if err := w.Write(headers); err != nil {
			return err
		}
		if err := w.WriteAll(table); err != nil {
			return err
		}
		return nil
	default:
		return errors.Validation(fmt.Sprintf("unsupported report format %q, want .csv or .xlsx", filepath.Ext(path)))
	}
}
