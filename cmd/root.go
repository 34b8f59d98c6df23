package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/contentapp/e2e/client"
	"github.com/contentapp/e2e/client/auth"
	"github.com/contentapp/e2e/pkg/config"
	"github.com/contentapp/e2e/pkg/logger"
	"github.com/contentapp/e2e/pkg/metrics"
	"github.com/contentapp/e2e/pkg/wait"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var flagKeepTickets bool

// ErrUsage is returned by the cmd.Usage() method
var ErrUsage = errors.New("Bad usage of command")

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "e2e",
	Short: "e2e drives the end-to-end tests of the content app",
	Long: `e2e provisions the data the end-to-end suites of the content app run
against, waits for the repository to index it, tears it down afterwards, and
uploads the screenshots and reports of a run.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Setup(cfgFile); err != nil {
			return err
		}
		cfg := config.GetConfig()
		return logger.Init(logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return pushMetrics(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Display the usage/help by default
		return cmd.Usage()
	},
	// Do not display usage on error
	SilenceUsage: true,
	// We have our own way to display error messages
	SilenceErrors: true,
}

// newFactory returns the factory of the repository clients. The tickets are
// kept in the home directory to be reused by the next commands.
func newFactory() (*client.Factory, error) {
	var storage auth.Storage
	if flagKeepTickets {
		storage = auth.NewFileStorage()
	}
	return client.NewFactory(config.GetConfig().Repository, storage)
}

// pushMetrics sends the metrics of the command to the Pushgateway, when one
// is configured. A failure is only logged.
func pushMetrics(cmd *cobra.Command) error {
	cfg := config.GetConfig()
	if cfg == nil || cfg.Metrics.PushGateway == "" {
		return nil
	}
	if err := metrics.Push(cmd.Context(), cfg.Metrics.PushGateway, cfg.Metrics.Job); err != nil {
		logger.WithNamespace("metrics").Warnf("Cannot push the metrics: %s", err)
	}
	return nil
}

func waitOptions() wait.Options {
	cfg := config.GetConfig()
	return wait.Options{Timeout: cfg.Wait.Timeout, Interval: cfg.Wait.Interval}
}

func init() {
	usageFunc := RootCmd.UsageFunc()

	RootCmd.SetUsageFunc(func(cmd *cobra.Command) error {
		_ = usageFunc(cmd)
		return ErrUsage
	})

	flags := RootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "configuration file (default \"$HOME/.e2e/e2e.yaml\")")

	flags.String("log-level", "info", "define the log level")
	checkNoErr(viper.BindPFlag("log.level", flags.Lookup("log-level")))

	flags.String("repository", "http://localhost:8080", "URL of the content repository")
	checkNoErr(viper.BindPFlag("repository.url", flags.Lookup("repository")))

	flags.BoolVar(&flagKeepTickets, "keep-tickets", true, "keep the authentication tickets in the home directory for the next commands")
}

func checkNoErr(err error) {
	if err != nil {
		panic(err)
	}
}

func errPrintfln(format string, vals ...interface{}) {
	_, err := fmt.Fprintf(os.Stderr, format+"\n", vals...)
	if err != nil {
		panic(err)
	}
}
