package cmd

import (
	"fmt"
	"runtime"

	"github.com/contentapp/e2e/pkg/config"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version of e2e and the Go toolchain it was built with",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "e2e %s, built %s with %s\n", config.Version, config.BuildTime, runtime.Version())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
