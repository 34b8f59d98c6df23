package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var docCmdGroup = &cobra.Command{
	Use:   "doc <format> <directory>",
	Short: "Generate the reference of the e2e commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var manDocCmd = &cobra.Command{
	Use:     "man <directory>",
	Short:   "Write a manual page per command in the directory",
	Example: `$ e2e doc man /usr/local/share/man/man1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return cmd.Usage()
		}
		return doc.GenManTree(RootCmd, &doc.GenManHeader{Title: "E2E", Section: "1"}, args[0])
	},
}

var markdownDocCmd = &cobra.Command{
	Use:     "markdown <directory>",
	Short:   "Write a markdown page per command in the directory",
	Example: `$ e2e doc markdown docs/cli`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return cmd.Usage()
		}
		return doc.GenMarkdownTree(RootCmd, args[0])
	},
}

func init() {
	docCmdGroup.AddCommand(manDocCmd, markdownDocCmd)
	RootCmd.AddCommand(docCmdGroup)
}
