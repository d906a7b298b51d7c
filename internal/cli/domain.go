package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/certops/dcvkit/internal/dcv"
	"github.com/certops/dcvkit/internal/digicert"
	"github.com/certops/dcvkit/internal/dnsutil"
	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/output"
	"github.com/certops/dcvkit/internal/store"
	"github.com/spf13/cobra"
)

var (
	domainAddCA      string
	domainAddFile    string
	domainAddResults string
	domainAddMethod  string
	domainAddOrg     string
	domainRemoveYes  bool
)

var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Add or remove domains at the CAs",
}

var domainAddCmd = &cobra.Command{
	Use:   "add [domain]",
	Short: "Register a domain at both CAs, or bulk-add from a file",
	Long: `With a domain argument, register it at DigiCert and Sectigo and verify
the registration by fetching the new domain back. With --ca and --file,
bulk-add every domain in the file at one CA and write per-domain results
to a JSON file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDomainAdd,
}

var domainRemoveCmd = &cobra.Command{
	Use:   "remove <domain>",
	Short: "Delete a domain from every CA that has it",
	Long: `Resolve the domain's ids from the lookup table, confirm, delete it at
each CA, and verify it is gone by fetching it back.`,
	Args: cobra.ExactArgs(1),
	RunE: runDomainRemove,
}

func init() {
	domainAddCmd.Flags().StringVar(&domainAddCA, "ca", "", "bulk-add at this CA only (digicert or sectigo)")
	domainAddCmd.Flags().StringVar(&domainAddFile, "file", "", "domain list file for bulk add")
	domainAddCmd.Flags().StringVar(&domainAddResults, "results", "", "write bulk results to this JSON file")
	domainAddCmd.Flags().StringVar(&domainAddMethod, "dcv-method", "", "DigiCert DCV method for new domains (default dns-cname-token, dns-txt-token for bulk)")
	domainAddCmd.Flags().StringVar(&domainAddOrg, "org", "", "DigiCert organization name (defaults to the only one)")
	domainRemoveCmd.Flags().BoolVarP(&domainRemoveYes, "yes", "y", false, "skip the confirmation prompt")

	domainCmd.AddCommand(domainAddCmd)
	domainCmd.AddCommand(domainRemoveCmd)
	rootCmd.AddCommand(domainCmd)
}

// addMethod resolves the DigiCert DCV method for new domains. Single
// additions default to CNAME delegation; bulk loads default to TXT so a
// later token run can switch methods per domain.
func addMethod(bulk bool) string {
	if domainAddMethod != "" {
		return domainAddMethod
	}
	if bulk {
		return digicert.MethodDNSTXT
	}
	return digicert.MethodDNSCNAME
}

// addResult records one domain's outcome during a bulk add.
type addResult struct {
	Domain string `json:"domain"`
	CA     string `json:"ca"`
	ID     int    `json:"id,omitempty"`
	Error  string `json:"error,omitempty"`
}

func runDomainAdd(cmd *cobra.Command, args []string) error {
	if domainAddFile != "" {
		return runDomainBulkAdd(cmd)
	}
	if len(args) != 1 {
		return errors.Validation("need a domain argument or --file")
	}
	domain := args[0]
	if !dnsutil.IsValidDomain(domain) {
		return errors.WrapDomain(errors.ErrCodeValidation, domain, errors.ErrInvalidDomain)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	v, err := openVault(cfg)
	if err != nil {
		return err
	}
	dc, err := digicertClient(v)
	if err != nil {
		return err
	}
	sect, err := sectigoClient(v)
	if err != nil {
		return err
	}

	done, err := startRun("domain add", cfg)
	if err != nil {
		return err
	}
	defer done()

	ctx := cmd.Context()
	orgID, err := digicertOrgID(ctx, dc)
	if err != nil {
		return err
	}
	sectOrgID, err := v.SectigoOrgID()
	if err != nil {
		return err
	}

	results := []addResult{
		addOne(ctx, dcv.CADigiCert, domain, func() (int, error) {
			return dc.AddDomain(ctx, domain, orgID, addMethod(false))
		}, func(id int) error {
			_, err := dc.GetDomain(ctx, id)
			return err
		}),
		addOne(ctx, dcv.CASectigo, domain, func() (int, error) {
			return sect.AddDomain(ctx, domain, sectOrgID)
		}, func(id int) error {
			_, err := sect.GetDomain(ctx, id)
			return err
		}),
	}

	return printAddResults(results)
}

// addOne registers a domain at one CA and verifies it landed. An
// already-registered domain is reported, not fatal.
func addOne(ctx context.Context, ca, domain string, add func() (int, error), verify func(int) error) addResult {
	res := addResult{Domain: domain, CA: ca}

	id, err := add()
	if err != nil {
		res.Error = err.Error()
		activityLog.Error("domain add", err)
		return res
	}
	res.ID = id

	if err := verify(id); err != nil {
		res.Error = fmt.Sprintf("added as %d but verification failed: %v", id, err)
		activityLog.Error("domain verify", err)
		return res
	}

	activityLog.Event("domain added", domain, map[string]interface{}{"ca": ca, "id": id})
	return res
}

func runDomainBulkAdd(cmd *cobra.Command) error {
	ca, err := parseCA(domainAddCA)
	if err != nil {
		return err
	}
	domains, err := store.ReadDomainList(domainAddFile)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	v, err := openVault(cfg)
	if err != nil {
		return err
	}

	done, err := startRun("domain add", cfg)
	if err != nil {
		return err
	}
	defer done()

	ctx := cmd.Context()
	var results []addResult

	switch ca {
	case dcv.CADigiCert:
		dc, err := digicertClient(v)
		if err != nil {
			return err
		}
		orgID, err := digicertOrgID(ctx, dc)
		if err != nil {
			return err
		}
		for _, domain := range domains {
			results = append(results, addOne(ctx, ca, domain, func() (int, error) {
				return dc.AddDomain(ctx, domain, orgID, addMethod(true))
			}, func(id int) error {
				_, err := dc.GetDomain(ctx, id)
				return err
			}))
		}
	default:
		sect, err := sectigoClient(v)
		if err != nil {
			return err
		}
		sectOrgID, err := v.SectigoOrgID()
		if err != nil {
			return err
		}
		for _, domain := range domains {
			results = append(results, addOne(ctx, ca, domain, func() (int, error) {
				return sect.AddDomain(ctx, domain, sectOrgID)
			}, func(id int) error {
				_, err := sect.GetDomain(ctx, id)
				return err
			}))
		}
	}

	if domainAddResults != "" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(domainAddResults, data, 0644); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
	}

	return printAddResults(results)
}

func runDomainRemove(cmd *cobra.Command, args []string) error {
	domain := args[0]

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

	rows, err := st.FindDomain(domain)
	if err != nil {
		return err
	}

	if !domainRemoveYes {
		var cas []string
		for _, r := range rows {
			cas = append(cas, fmt.Sprintf("%s (id %d)", r.CA, r.ID))
		}
		sort.Strings(cas)
		ok, err := deps.Input.Confirm(fmt.Sprintf("Delete %s from %v?", domain, cas))
		if err != nil {
			return err
		}
		if !ok {
			output.Info("aborted")
			return nil
		}
	}

	dc, err := digicertClient(v)
	if err != nil {
		return err
	}
	sect, err := sectigoClient(v)
	if err != nil {
		return err
	}

	done, err := startRun("domain remove", cfg)
	if err != nil {
		return err
	}
	defer done()

	ctx := cmd.Context()
	failed := 0
	for _, r := range rows {
		if err := removeOne(ctx, dc, sect, r); err != nil {
			output.Error("%s: %v", r.CA, err)
			failed++
			continue
		}
		activityLog.Event("domain removed", domain, map[string]interface{}{"ca": r.CA, "id": r.ID})
		output.Success("removed %s from %s (id %d)", domain, r.CA, r.ID)
	}
	if failed > 0 {
		return errors.Validation(fmt.Sprintf("%d of %d deletions failed", failed, len(rows)))
	}
	return nil
}

// removeOne deletes one lookup row's domain and verifies the CA no
// longer returns it.
func removeOne(ctx context.Context, dc DigiCertClient, sect SectigoClient, row store.LookupRow) error {
	switch row.CA {
	case dcv.CADigiCert:
		if err := dc.DeleteDomain(ctx, row.ID); err != nil {
			return err
		}
		if _, err := dc.GetDomain(ctx, row.ID); err == nil {
			return fmt.Errorf("domain %d still present after delete", row.ID)
		}
	case dcv.CASectigo:
		if err := sect.DeleteDomain(ctx, row.ID); err != nil {
			return err
		}
		if _, err := sect.GetDomain(ctx, row.ID); err == nil {
			return fmt.Errorf("domain %d still present after delete", row.ID)
		}
	default:
		return errors.Validation(fmt.Sprintf("unknown CA %q in lookup table", row.CA))
	}
	return nil
}

// digicertOrgID resolves the organization for new DigiCert domains. With
// no --org flag there must be exactly one organization on the account.
func digicertOrgID(ctx context.Context, dc DigiCertClient) (int, error) {
	orgs, err := dc.Organizations(ctx)
	if err != nil {
		return 0, err
	}
	if domainAddOrg != "" {
		id, ok := orgs[domainAddOrg]
		if !ok {
			return 0, errors.Validation(fmt.Sprintf("unknown organization %q", domainAddOrg))
		}
		return id, nil
	}
	if len(orgs) != 1 {
		return 0, errors.Validation("account has multiple organizations, pass --org")
	}
	for _, id := range orgs {
		return id, nil
	}
	return 0, errors.Validation("account has no organizations")
}

func printAddResults(results []addResult) error {
	if jsonOutput {
		return output.JSON(results)
	}

	rows := make([][]string, 0, len(results))
	failed := 0
	for _, r := range results {
		status := "added"
		if r.Error != "" {
			status = r.Error
			failed++
		}
		rows = append(rows, []string{r.Domain, r.CA, fmt.Sprintf("%d", r.ID), status})
	}
	output.Table([]string{"DOMAIN", "CA", "ID", "RESULT"}, rows)
	if failed > 0 {
		return errors.Validation(fmt.Sprintf("%d of %d additions failed", failed, len(results)))
	}
	return nil
}
