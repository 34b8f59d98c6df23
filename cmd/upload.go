package cmd

import (
	"fmt"
	"os"

	"github.com/contentapp/e2e/client"
	"github.com/contentapp/e2e/collector"
	"github.com/contentapp/e2e/pkg/config"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var flagRetry int
var flagSuffix string
var flagOutputDir string
var flagBuild string

var uploadOutputCmd = &cobra.Command{
	Use:   "upload-output",
	Short: "Archive and upload the output of a test run",
	Long: `
e2e upload-output moves the output directory of a run (screenshots and
reports) to <dir>-<retry>, archives it as e2e-result-<suffix>-<retry>.tar next
to it, and uploads the archive in Builds/<app>/<build>/retry-<retry>.

The store is the repository (upload.url, as upload.username), an S3 bucket or
a Swift container, see upload.store. The password of the repository user is
asked when it is not in the configuration.
`,
	Example: `$ e2e upload-output --retry 1 --suffix shared-files --build $BUILD_NUMBER`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GetConfig()
		var repo *client.Client
		if cfg.Upload.Store == config.StoreRepository {
			var err error
			if repo, err = uploadClient(cfg); err != nil {
				return err
			}
		}
		store, err := collector.NewStore(cfg.Upload, repo)
		if err != nil {
			return err
		}
		dir := flagOutputDir
		if dir == "" {
			dir = cfg.Output.Dir
		}
		build := flagBuild
		if build == "" {
			build = cfg.Upload.BuildNumber
		}
		c := &collector.Collector{Fs: appFs, Store: store}
		report, err := c.Run(cmd.Context(), collector.Options{
			App:       cfg.Upload.App,
			Build:     build,
			Retry:     flagRetry,
			Suffix:    flagSuffix,
			OutputDir: dir,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%s) to %s\n",
			report.Archive, humanize.Bytes(uint64(report.Size)), report.Location)
		return nil
	},
}

// uploadClient returns a client for the upload user, on the upload URL or
// else on the repository of the fixtures.
func uploadClient(cfg *config.Config) (*client.Client, error) {
	repoCfg := cfg.Repository
	if cfg.Upload.URL != "" {
		repoCfg.URL = cfg.Upload.URL
	}
	factory, err := client.NewFactory(repoCfg, nil)
	if err != nil {
		return nil, err
	}
	username, password := cfg.Upload.Username, cfg.Upload.Password
	if username == "" {
		username, password = repoCfg.AdminUser, repoCfg.AdminPassword
	}
	if password == "" {
		if password, err = askPassword(username); err != nil {
			return nil, err
		}
	}
	return factory.For(username, password), nil
}

func askPassword(username string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no password for %s and stdin is not a terminal", username)
	}
	fmt.Fprintf(os.Stderr, "Password of %s: ", username)
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pass), nil
}

func init() {
	flags := uploadOutputCmd.Flags()
	flags.IntVar(&flagRetry, "retry", 1, "attempt number of the run")
	flags.StringVar(&flagSuffix, "suffix", "", "suffix of the archive name, like the name of the suite")
	flags.StringVar(&flagOutputDir, "dir", "", "output directory, output.dir by default")
	flags.StringVar(&flagBuild, "build", "", "CI build number, upload.build_number by default")
	RootCmd.AddCommand(uploadOutputCmd)
}
