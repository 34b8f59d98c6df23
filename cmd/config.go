package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/contentapp/e2e/pkg/config"
	"github.com/spf13/cobra"
)

var configCmdGroup = &cobra.Command{
	Use:   "config [command]",
	Short: "Show the configuration",
	Long: `
e2e config allows to print the configuration, as read from the config file, the
E2E_* env variables and the flags.
`,
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Display the configuration",
	Long: `Read the environment variables, the config file and
the given parameters to display the configuration. The secrets are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := json.MarshalIndent(config.GetConfig().Masked(), "", "  ")
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(cfg))
		return nil
	},
}

func init() {
	configCmdGroup.AddCommand(configPrintCmd)
	RootCmd.AddCommand(configCmdGroup)
}
