package cli

import (
	"context"

	"github.com/certops/dcvkit/internal/dcv"
	"github.com/certops/dcvkit/internal/digicert"
	"github.com/certops/dcvkit/internal/output"
	"github.com/certops/dcvkit/internal/store"
	"github.com/spf13/cobra"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Mint DCV challenges for every row of the combined report",
	Long: `For every row of the combined report, fetch a CNAME validation
challenge from its CA and write it back into the report: the Value
column gets the verification value (DigiCert) or challenge host
(Sectigo), the token column gets what the record must point at.
DigiCert domains not yet on CNAME validation are switched first.`,
	RunE: runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}

func runTokens(cmd *cobra.Command, args []string) error {
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
	dc, err := digicertClient(v)
	if err != nil {
		return err
	}
	sect, err := sectigoClient(v)
	if err != nil {
		return err
	}

	combined, err := st.ReadCombined()
	if err != nil {
		return err
	}

	done, err := startRun("tokens", cfg)
	if err != nil {
		return err
	}
	defer done()

	ctx := cmd.Context()
	minted, failed := 0, 0
	for i := range combined {
		row := &combined[i]

		var err error
		switch row.CA {
		case dcv.CADigiCert:
			err = mintDigiCert(ctx, dc, row)
		case dcv.CASectigo:
			err = mintSectigo(ctx, sect, row)
		default:
			continue
		}
		if err != nil {
			activityLog.Error("mint challenge", err)
			failed++
			continue
		}
		minted++
		activityLog.Event("challenge minted", row.Name, map[string]interface{}{"ca": row.CA, "id": row.ID})
	}

	if err := st.WriteCombined(combined); err != nil {
		return err
	}

	if jsonOutput {
		return output.JSON(map[string]int{"minted": minted, "failed": failed})
	}
	output.Success("minted %d challenges (%d failures)", minted, failed)
	return nil
}

// mintDigiCert switches the domain to CNAME validation if needed and
// requests a token.
func mintDigiCert(ctx context.Context, dc DigiCertClient, row *store.CombinedRecord) error {
	if row.Method != "CNAME" {
		if err := dc.SetDCVMethod(ctx, row.ID, digicert.MethodDNSCNAME); err != nil {
			return err
		}
	}
	token, err := dc.RequestToken(ctx, row.ID, digicert.MethodDNSCNAME)
	if err != nil {
		return err
	}
	row.Method = "CNAME"
	row.Value = token.VerificationValue
	row.Token = token.Token
	return nil
}

// mintSectigo starts a CNAME validation and records the host/point pair.
func mintSectigo(ctx context.Context, sect SectigoClient, row *store.CombinedRecord) error {
	ch, err := sect.StartCNAME(ctx, row.Name)
	if err != nil {
		return err
	}
	row.Method = "CNAME"
	row.Value = ch.Host
	row.Token = ch.Point
	return nil
}
