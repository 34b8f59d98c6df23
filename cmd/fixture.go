package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/contentapp/e2e/fixture"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var flagPlan string
var flagState string
var flagKeepOnError bool
var flagContinueOnError bool
var flagView string
var flagExpect int
var flagAs string

// appFs is the filesystem of the state files.
var appFs = afero.NewOsFs()

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the data of a plan in the repository",
	Long: `
e2e provision creates the users, sites, files and folders of a plan, shares
them, marks them as favorites, and waits for the repository to index them. The
plan can be a YAML file or the name of a builtin plan.

The identifiers of what has been created are written to the state file, to be
removed later by e2e teardown. On error, what has been created so far is
removed, unless --keep-on-error is given.
`,
	Example: `$ e2e provision --plan shared-files --state shared-files.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagPlan == "" {
			return cmd.Usage()
		}
		plan, err := fixture.OpenPlan(flagPlan)
		if err != nil {
			return err
		}
		factory, err := newFactory()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		fc, err := fixture.NewProvisioner(factory, waitOptions()).Provision(ctx, plan)
		if err != nil {
			if fc != nil && !flagKeepOnError {
				if terr := fc.Teardown(context.Background(), fixture.TeardownOptions{ContinueOnError: true}); terr != nil {
					errPrintfln("Teardown after failure: %s", terr)
				}
			} else if fc != nil {
				if serr := saveState(fc, flagState); serr != nil {
					errPrintfln("Cannot save the state: %s", serr)
				}
			}
			return err
		}
		if err = saveState(fc, flagState); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Fixture %s provisioned, state written to %s\n", flagPlan, flagState)
		return nil
	},
}

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Remove the data created by e2e provision",
	Long: `
e2e teardown removes what e2e provision has created, as recorded in the state
file: the files and folders, the sites, the trashcan of the users who deleted
files, and the users.

It stops on the first error, unless --continue-on-error is given. The state
file is removed on success.
`,
	Example: `$ e2e teardown --state shared-files.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := afero.ReadFile(appFs, flagState)
		if err != nil {
			return err
		}
		fc, err := loadState(flagState)
		if err != nil {
			return err
		}
		err = fc.Teardown(cmd.Context(), fixture.TeardownOptions{ContinueOnError: flagContinueOnError})
		if err != nil {
			return err
		}
		if err = appFs.Remove(flagState); err != nil {
			return err
		}
		sum := fixture.StateSummary(data)
		fmt.Fprintf(cmd.OutOrStdout(), "Fixture of %s removed: %d users, %d sites, %d nodes\n",
			flagState, sum["users"], sum["sites"], sum["nodes"])
		return nil
	},
}

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for a list of the repository to report a number of items",
	Long: `
e2e wait polls a list of the repository (shared, favorites, trash or sites)
until it reports the expected number of items, or until the timeout. The list
is seen by the admin, or by a user of the state file with --as.
`,
	Example: `$ e2e wait --view shared --expect 3 --as user --state shared-files.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := fixture.ParseView(flagView)
		if err != nil {
			return err
		}
		if err = waitForView(cmd.Context(), view); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d items\n", view, flagExpect)
		return nil
	},
}

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List the builtin plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(fixture.BuiltinPlans(), "\n"))
		return nil
	},
}

func waitForView(ctx context.Context, view fixture.View) error {
	if flagAs != "" {
		fc, err := loadState(flagState)
		if err != nil {
			return err
		}
		return fc.WaitFor(ctx, view, flagAs, flagExpect)
	}
	factory, err := newFactory()
	if err != nil {
		return err
	}
	return fixture.WaitForCount(ctx, waitOptions(), factory.Admin(), view, flagExpect)
}

func saveState(fc *fixture.Context, filename string) error {
	f, err := appFs.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err = fc.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func loadState(filename string) (*fixture.Context, error) {
	f, err := appFs.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	factory, err := newFactory()
	if err != nil {
		return nil, err
	}
	return fixture.LoadState(f, fixture.NewProvisioner(factory, waitOptions()))
}

func init() {
	provisionCmd.Flags().StringVar(&flagPlan, "plan", "", "plan file or builtin plan name")
	provisionCmd.Flags().BoolVar(&flagKeepOnError, "keep-on-error", false, "keep what has been created when the provisioning fails")
	teardownCmd.Flags().BoolVar(&flagContinueOnError, "continue-on-error", false, "run every step and report all the errors")
	waitCmd.Flags().StringVar(&flagView, "view", "", fmt.Sprintf("list to poll, one of %v", fixture.Views))
	waitCmd.Flags().IntVar(&flagExpect, "expect", 0, "expected number of items")
	waitCmd.Flags().StringVar(&flagAs, "as", "", "key of the user of the state file, the admin by default")

	for _, cmd := range []*cobra.Command{provisionCmd, teardownCmd, waitCmd} {
		cmd.Flags().StringVar(&flagState, "state", "e2e-state.json", "state file of the fixture")
	}

	RootCmd.AddCommand(provisionCmd)
	RootCmd.AddCommand(teardownCmd)
	RootCmd.AddCommand(waitCmd)
	RootCmd.AddCommand(plansCmd)
}
