package cli

import (
	"fmt"
	"strings"

	"github.com/certops/dcvkit/internal/dcv"
	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/output"
	"github.com/certops/dcvkit/internal/store"
	"github.com/spf13/cobra"
)

var (
	workflowFile     string
	workflowMethod   string
	workflowSkipWait bool
	workflowCleanup  bool
)

var workflowCmd = &cobra.Command{
	Use:   "workflow [domain...]",
	Short: "Run end-to-end DCV for one or more domains",
	Long: `For each domain: obtain the validation challenge from its CA, publish
the record at the domain's DNS provider, wait for propagation, and ask
the CA to verify. Domains are resolved to their CA and id through the
lookup table, so run sync or lookup first.`,
	RunE: runWorkflow,
}

func init() {
	workflowCmd.Flags().StringVar(&workflowFile, "file", "", "domain list file")
	workflowCmd.Flags().StringVar(&workflowMethod, "method", "CNAME", "validation method (TXT or CNAME)")
	workflowCmd.Flags().BoolVar(&workflowSkipWait, "skip-wait", false, "skip the propagation wait")
	workflowCmd.Flags().BoolVar(&workflowCleanup, "cleanup", false, "delete the validation records afterwards")
	rootCmd.AddCommand(workflowCmd)
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	domains := args
	if workflowFile != "" {
		fromFile, err := store.ReadDomainList(workflowFile)
		if err != nil {
			return err
		}
		domains = append(domains, fromFile...)
	}
	if len(domains) == 0 {
		return errors.Validation("need at least one domain or --file")
	}

	method := strings.ToUpper(workflowMethod)
	if method != "TXT" && method != "CNAME" {
		return errors.Validation(fmt.Sprintf("unknown method %q, want TXT or CNAME", workflowMethod))
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

	targets, err := resolveTargets(st, domains, method)
	if err != nil {
		return err
	}

	done, err := startRun("workflow", cfg)
	if err != nil {
		return err
	}
	defer done()

	w, err := buildWorkflow(cfg, v)
	if err != nil {
		return err
	}
	if workflowSkipWait {
		w.PropagationWait = 0
	}

	results, err := w.Run(cmd.Context(), targets)
	if err != nil {
		return err
	}

	if workflowCleanup {
		if err := w.Cleanup(cmd.Context(), results); err != nil {
			output.Warn("cleanup: %v", err)
		}
	}

	return printWorkflowResults(results)
}

// resolveTargets maps domain names to CA targets through the lookup
// table. A domain registered at both CAs yields a target per CA.
func resolveTargets(st *store.Store, domains []string, method string) ([]dcv.Target, error) {
	var targets []dcv.Target
	for _, domain := range domains {
		rows, err := st.FindDomain(domain)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			targets = append(targets, dcv.Target{
				Domain: r.Domain,
				CA:     r.CA,
				ID:     r.ID,
				Method: method,
			})
		}
	}
	return targets, nil
}

func printWorkflowResults(results []dcv.Result) error {
	if jsonOutput {
		type jsonResult struct {
			Domain    string `json:"domain"`
			CA        string `json:"ca"`
			Record    string `json:"record,omitempty"`
			Type      string `json:"type,omitempty"`
			Published bool   `json:"published"`
			Verified  bool   `json:"verified"`
			Status    string `json:"status,omitempty"`
			Error     string `json:"error,omitempty"`
		}
		out := make([]jsonResult, 0, len(results))
		for _, r := range results {
			jr := jsonResult{
				Domain: r.Domain, CA: r.CA, Record: r.RecordName,
				Type: r.RecordType, Published: r.Published,
				Verified: r.Verified, Status: r.Status,
			}
			if r.Err != nil {
				jr.Error = r.Err.Error()
			}
			out = append(out, jr)
		}
		return output.JSON(out)
	}

	rows := make([][]string, 0, len(results))
	failed := 0
	for _, r := range results {
		status := output.Status(r.Status)
		if r.Err != nil {
			status = r.Err.Error()
			failed++
		}
		rows = append(rows, []string{r.Domain, r.CA, r.RecordType, yesNo(r.Published), yesNo(r.Verified), status})
	}
	output.Table([]string{"DOMAIN", "CA", "TYPE", "PUBLISHED", "VERIFIED", "STATUS"}, rows)

	if failed > 0 {
		return errors.Validation(fmt.Sprintf("%d of %d domains failed", failed, len(results)))
	}
	return nil
}
