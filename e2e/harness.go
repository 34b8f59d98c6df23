// Package e2e is the base of the end-to-end suites: it loads the
// configuration, provisions the fixture of the suite, drives the browser
// signed in as a fixture user, and tears everything down at the end.
package e2e

import (
	"context"
	"os"
	"path/filepath"
	"regexp"

	"github.com/contentapp/e2e/client"
	"github.com/contentapp/e2e/fixture"
	"github.com/contentapp/e2e/pages"
	"github.com/contentapp/e2e/pkg/config"
	"github.com/contentapp/e2e/pkg/logger"
	"github.com/contentapp/e2e/pkg/logger/hooks"
	"github.com/contentapp/e2e/pkg/metrics"
	"github.com/contentapp/e2e/pkg/wait"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"
)

// ConfigEnv is the env variable with the path of the configuration file.
const ConfigEnv = "E2E_CONFIG"

var log = logger.WithNamespace("e2e")

// Harness is embedded by the suites. The suite sets PlanName (a builtin plan
// or a file) and LoginAs (a user key of the plan) before running.
type Harness struct {
	suite.Suite

	PlanName string
	LoginAs  string

	Config  *config.Config
	Fs      afero.Fs
	Browser *pages.Browser
	Login   *pages.LoginPage
	Page    *pages.BrowsingPage
	Fixture *fixture.Context

	ctx     context.Context
	cancel  context.CancelFunc
	logFile *hooks.FileHook
}

// Ctx returns the context of the suite, canceled at its end.
func (h *Harness) Ctx() context.Context {
	if h.ctx == nil {
		return context.Background()
	}
	return h.ctx
}

// SetupSuite provisions the fixture, launches the browser and signs in.
func (h *Harness) SetupSuite() {
	h.ctx, h.cancel = context.WithCancel(context.Background())
	// TearDownSuite is not called by the suite runner when SetupSuite fails.
	ready := false
	defer func() {
		if !ready {
			h.TearDownSuite()
		}
	}()
	if h.Fs == nil {
		h.Fs = afero.NewOsFs()
	}
	if h.Config == nil {
		h.Require().NoError(config.Setup(os.Getenv(ConfigEnv)))
		h.Config = config.GetConfig()
	}
	cfg := h.Config
	opts := logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON}
	if cfg.Output.Dir != "" {
		logFile, err := hooks.NewFileHook(h.Fs, h.logFilename())
		h.Require().NoError(err)
		h.logFile = logFile
		opts.Hooks = append(opts.Hooks, logFile)
	}
	h.Require().NoError(logger.Init(opts))

	plan, err := fixture.OpenPlan(h.PlanName)
	h.Require().NoError(err)
	factory, err := client.NewFactory(cfg.Repository, nil)
	h.Require().NoError(err)
	provisioner := fixture.NewProvisioner(factory, wait.Options{
		Timeout:  cfg.Wait.Timeout,
		Interval: cfg.Wait.Interval,
	})
	h.Fixture, err = provisioner.Provision(h.ctx, plan)
	h.Require().NoError(err)

	h.Browser, err = pages.Launch(h.ctx, pages.OptionsFromConfig(cfg.Browser))
	h.Require().NoError(err)
	h.Login = pages.NewLoginPage(h.Browser)
	h.Page = pages.NewBrowsingPage(h.Browser)

	if h.LoginAs != "" {
		user := h.Fixture.User(h.LoginAs)
		h.Require().NotNil(user, "unknown user %q", h.LoginAs)
		h.Require().NoError(h.Login.LoginWith(h.ctx, user.ID, user.Password))
	}
	ready = true
}

// TearDownSuite closes the browser and removes the fixture.
func (h *Harness) TearDownSuite() {
	if h.Browser != nil {
		if err := h.Browser.Close(); err != nil {
			log.Warnf("Cannot close the browser: %s", err)
		}
	}
	h.teardownFixture()
	if h.Config != nil && h.Config.Metrics.PushGateway != "" {
		job := h.Config.Metrics.Job + "_" + unsafeChars.ReplaceAllString(h.PlanName, "_")
		if err := metrics.Push(h.Ctx(), h.Config.Metrics.PushGateway, job); err != nil {
			log.Warnf("Cannot push the metrics: %s", err)
		}
	}
	if h.cancel != nil {
		h.cancel()
	}
	if h.logFile != nil {
		_ = logger.Init(logger.Options{Level: h.Config.Log.Level, JSON: h.Config.Log.JSON})
		if err := h.logFile.Close(); err != nil {
			h.T().Errorf("log file: %s", err)
		}
		h.logFile = nil
	}
}

// logFilename is the file of the logs of the suite, in the output directory.
func (h *Harness) logFilename() string {
	name := h.PlanName
	if name == "" {
		name = "suite"
	}
	name = unsafeChars.ReplaceAllString(filepath.Base(name), "_")
	return filepath.Join(h.Config.Output.Dir, "logs", name+".log")
}

func (h *Harness) teardownFixture() {
	if h.Fixture == nil {
		return
	}
	if err := h.Fixture.Teardown(context.Background(), fixture.TeardownOptions{}); err != nil {
		h.T().Errorf("teardown: %s", err)
	}
}

// AfterTest takes a screenshot of the browser when the test has failed.
func (h *Harness) AfterTest(suiteName, testName string) {
	if !h.T().Failed() || h.Browser == nil || !h.Config.Output.Screenshots {
		return
	}
	filename, err := h.SaveScreenshot(suiteName + "-" + testName)
	if err != nil {
		log.Warnf("Cannot save the screenshot of %s: %s", testName, err)
		return
	}
	h.T().Logf("screenshot saved to %s", filename)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SaveScreenshot writes a screenshot of the browser in the screenshots
// directory of the output.
func (h *Harness) SaveScreenshot(name string) (string, error) {
	png, err := h.Browser.Screenshot(h.Ctx())
	if err != nil {
		return "", err
	}
	dir := filepath.Join(h.Config.Output.Dir, "screenshots")
	if err = h.Fs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	filename := filepath.Join(dir, unsafeChars.ReplaceAllString(name, "_")+".png")
	if err = afero.WriteFile(h.Fs, filename, png, 0o644); err != nil {
		return "", err
	}
	return filename, nil
}

// Name returns the remote name of a node of the fixture.
func (h *Harness) Name(key string) string {
	n := h.Fixture.Node(key)
	h.Require().NotNil(n, "unknown node %q", key)
	return n.Name
}

// SiteTitle returns the title of a site of the fixture.
func (h *Harness) SiteTitle(key string) string {
	s := h.Fixture.Site(key)
	h.Require().NotNil(s, "unknown site %q", key)
	return s.Title
}

// Do fails the test on error.
func (h *Harness) Do(err error, msgAndArgs ...interface{}) {
	h.Require().NoError(err, msgAndArgs...)
}

// String fails the test on error, and returns the value.
func (h *Harness) String(s string, err error) string {
	h.Require().NoError(err)
	return s
}

// Bool fails the test on error, and returns the value.
func (h *Harness) Bool(b bool, err error) bool {
	h.Require().NoError(err)
	return b
}

// Strings fails the test on error, and returns the values.
func (h *Harness) Strings(s []string, err error) []string {
	h.Require().NoError(err)
	return s
}

// EscapeViewer closes the viewer opened by a test.
func (h *Harness) EscapeViewer() {
	h.Do(pages.PressEscape(h.Ctx(), h.Browser))
}
