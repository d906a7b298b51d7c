package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/certops/dcvkit/internal/dcv"
	"github.com/certops/dcvkit/internal/dnsutil"
	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/output"
	"github.com/spf13/cobra"
)

var (
	reconcileFile   string
	reconcileDelete bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Publish validation TXT records on Akamai from a CSV",
	Long: `Read domain,value pairs from a CSV and make sure each domain's
_pki-validation TXT record on Akamai Edge DNS carries that value.
Existing matching records are skipped. With --delete the records are
removed instead.`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileFile, "file", "", "CSV of domain,value pairs")
	reconcileCmd.Flags().BoolVar(&reconcileDelete, "delete", false, "delete the records instead of publishing")
	reconcileCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	pairs, err := readValuePairs(reconcileFile)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ak, err := akamaiClient(cfg)
	if err != nil {
		return err
	}

	done, err := startRun("reconcile", cfg)
	if err != nil {
		return err
	}
	defer done()

	provider := &dcv.AkamaiProvider{Client: ak}
	ctx := cmd.Context()

	rows := make([][]string, 0, len(pairs))
	failed := 0
	for _, p := range pairs {
		name := dnsutil.ValidationName(p.domain)
		var outcome string

		if reconcileDelete {
			err = provider.DeleteRecord(ctx, name, "TXT")
			outcome = "deleted"
		} else {
			var changed bool
			changed, err = provider.EnsureRecord(ctx, dcv.Record{
				Name:  name,
				Type:  "TXT",
				Value: p.value,
				TTL:   cfg.TXTRecordTTL,
			})
			outcome = "skipped"
			if changed {
				outcome = "published"
			}
		}

		if err != nil {
			activityLog.Error("reconcile", err)
			rows = append(rows, []string{p.domain, name, err.Error()})
			failed++
			continue
		}
		activityLog.Event("reconcile", p.domain, map[string]interface{}{"record": name, "outcome": outcome})
		rows = append(rows, []string{p.domain, name, outcome})
	}

	if jsonOutput {
		type jsonRow struct {
			Domain  string `json:"domain"`
			Record  string `json:"record"`
			Outcome string `json:"outcome"`
		}
		out := make([]jsonRow, 0, len(rows))
		for _, r := range rows {
			out = append(out, jsonRow{Domain: r[0], Record: r[1], Outcome: r[2]})
		}
		return output.JSON(out)
	}

	output.Table([]string{"DOMAIN", "RECORD", "OUTCOME"}, rows)
	if failed > 0 {
		return errors.Validation(fmt.Sprintf("%d of %d records failed", failed, len(pairs)))
	}
	return nil
}

type valuePair struct {
	domain string
	value  string
}

// readValuePairs reads a two-column domain,value CSV. A header row is
// skipped; rows without a value are ignored.
func readValuePairs(path string) ([]valuePair, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeStore, path, errors.ErrInputMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, fmt.Sprintf("failed to parse %s", path), err)
	}

	var pairs []valuePair
	for i, row := range records {
		if len(row) < 2 {
			continue
		}
		domain := strings.ToLower(strings.TrimSpace(row[0]))
		value := strings.TrimSpace(row[1])
		if i == 0 && strings.EqualFold(domain, "domain") {
			continue
		}
		if domain == "" || value == "" {
			continue
		}
		pairs = append(pairs, valuePair{domain: domain, value: value})
	}
	if len(pairs) == 0 {
		return nil, errors.Validation(fmt.Sprintf("%s has no domain,value rows", path))
	}
	return pairs, nil
}
