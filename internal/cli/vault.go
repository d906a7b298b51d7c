package cli

import (
	"strings"

	"github.com/certops/dcvkit/internal/errors"
	"github.com/certops/dcvkit/internal/output"
	"github.com/certops/dcvkit/internal/vault"
	"github.com/spf13/cobra"
)

var (
	vaultShowSecret  bool
	vaultUseKeychain bool
)

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage API credentials",
	Long:  `View and edit the credential vault used by the CA and DNS clients.`,
}

var vaultListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vault services and their key names",
	RunE:  runVaultList,
}

var vaultGetCmd = &cobra.Command{
	Use:   "get <service> <key>",
	Short: "Print a credential (masked unless --show)",
	Args:  cobra.ExactArgs(2),
	RunE:  runVaultGet,
}

var vaultSetCmd = &cobra.Command{
	Use:   "set <service> <key> [value]",
	Short: "Store a credential in the vault",
	Long: `Store a credential. When the value is omitted it is read from stdin so
secrets stay out of shell history. With --keychain the value goes to the
OS keychain instead of the vault file.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runVaultSet,
}

var vaultValidateCmd = &cobra.Command{
	Use:   "validate <service> [key...]",
	Short: "Check that a service has all required keys",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runVaultValidate,
}

func init() {
	vaultGetCmd.Flags().BoolVar(&vaultShowSecret, "show", false, "print the secret unmasked")
	vaultSetCmd.Flags().BoolVar(&vaultUseKeychain, "keychain", false, "store in the OS keychain")

	vaultCmd.AddCommand(vaultListCmd)
	vaultCmd.AddCommand(vaultGetCmd)
	vaultCmd.AddCommand(vaultSetCmd)
	vaultCmd.AddCommand(vaultValidateCmd)
	rootCmd.AddCommand(vaultCmd)
}

func runVaultList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	v, err := openVault(cfg)
	if err != nil {
		return err
	}

	if jsonOutput {
		services := map[string][]string{}
		for _, svc := range v.Services() {
			services[svc] = v.Keys(svc)
		}
		return output.JSON(services)
	}

	rows := [][]string{}
	for _, svc := range v.Services() {
		rows = append(rows, []string{svc, strings.Join(v.Keys(svc), ", ")})
	}
	output.Table([]string{"SERVICE", "KEYS"}, rows)
	return nil
}

func runVaultGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	v, err := openVault(cfg)
	if err != nil {
		return err
	}

	value, err := v.Get(args[0], args[1])
	if err != nil {
		return err
	}
	if !vaultShowSecret {
		value = vault.Mask(value)
	}

	if jsonOutput {
		return output.JSON(map[string]string{
			"service": args[0],
			"key":     args[1],
			"value":   value,
		})
	}
	output.Print("%s", value)
	return nil
}

func runVaultSet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	v, err := openVault(cfg)
	if errors.Is(err, errors.ErrVaultNotFound) {
		v = vault.New(cfg.VaultPath)
		err = nil
	}
	if err != nil {
		return err
	}

	value := ""
	if len(args) == 3 {
		value = args[2]
	} else {
		output.Print("Value for %s/%s:", args[0], args[1])
		value, err = deps.Input.ReadLine()
		if err != nil {
			return errors.Wrap(errors.ErrCodeValidation, "read secret", err)
		}
	}
	if strings.TrimSpace(value) == "" {
		return errors.Validation("empty value")
	}

	if vaultUseKeychain {
		if err := v.SetKeychain(args[0], args[1], value); err != nil {
			return err
		}
		output.Success("stored %s/%s in the OS keychain", args[0], args[1])
		return nil
	}

	v.Set(args[0], args[1], value)
	if err := v.Save(); err != nil {
		return err
	}
	output.Success("stored %s/%s", args[0], args[1])
	return nil
}

func runVaultValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	v, err := openVault(cfg)
	if err != nil {
		return err
	}

	if err := v.Validate(args[0], args[1:]...); err != nil {
		return err
	}
	output.Success("%s credentials present", args[0])
	return nil
}
