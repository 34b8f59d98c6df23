// Package config reads the configuration of the harness from a config file,
// the environment and the command line flags, with viper.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"text/template"
	"time"

	"github.com/adrg/xdg"
	"github.com/contentapp/e2e/pkg/logger"
	"github.com/contentapp/e2e/pkg/utils"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Filename is the default configuration filename that the harness search
// for.
const Filename = "e2e"

// EnvPrefix is the prefix of the environment variables.
const EnvPrefix = "e2e"

// Artifact stores of the collector.
const (
	StoreRepository = "repository"
	StoreS3         = "s3"
	StoreSwift      = "swift"
)

// Paths is the list of directories used to search for a configuration file.
var Paths = []string{
	".",
	".e2e",
	"$HOME/.e2e",
	filepath.Join(xdg.ConfigHome, "e2e"),
	"/etc/e2e",
}

// legacyEnv are the variables read by the CI scripts before this tool, they
// are still honored after the E2E_ ones.
var legacyEnv = map[string][]string{
	"upload.build_number": {"TRAVIS_BUILD_NUMBER"},
	"upload.url":          {"SCREENSHOT_URL"},
	"upload.username":     {"SCREENSHOT_USERNAME"},
	"upload.password":     {"SCREENSHOT_PASSWORD"},
}

var config *Config

var log = logger.WithNamespace("config")

// Config contains the configuration values of the harness.
type Config struct {
	Repository Repository `mapstructure:"repository"`
	Browser    Browser    `mapstructure:"browser"`
	Wait       Wait       `mapstructure:"wait"`
	Output     Output     `mapstructure:"output"`
	Upload     Upload     `mapstructure:"upload"`
	Log        Log        `mapstructure:"log"`
	Metrics    Metrics    `mapstructure:"metrics"`
}

// Repository is the content repository used by the fixtures.
type Repository struct {
	URL                    string        `mapstructure:"url"`
	AdminUser              string        `mapstructure:"admin_user"`
	AdminPassword          string        `mapstructure:"admin_password"`
	Timeout                time.Duration `mapstructure:"timeout"`
	RootCA                 string        `mapstructure:"root_ca"`
	InsecureSkipValidation bool          `mapstructure:"insecure_skip_validation"`
}

// Browser configures the browser driving the web client.
type Browser struct {
	AppURL         string        `mapstructure:"app_url"`
	Headless       bool          `mapstructure:"headless"`
	Bin            string        `mapstructure:"bin"`
	ControlURL     string        `mapstructure:"control_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ViewportWidth  int           `mapstructure:"viewport_width"`
	ViewportHeight int           `mapstructure:"viewport_height"`
	SlowMotion     time.Duration `mapstructure:"slow_motion"`
	Flags          []string      `mapstructure:"flags"`
}

// Wait is the polling used to wait for the repository indexes.
type Wait struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	Interval time.Duration `mapstructure:"interval"`
}

// Output is where the screenshots and reports are written.
type Output struct {
	Dir         string `mapstructure:"dir"`
	Screenshots bool   `mapstructure:"screenshots"`
}

// Upload configures the collector of the test reports.
type Upload struct {
	URL         string `mapstructure:"url"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	App         string `mapstructure:"app"`
	BuildNumber string `mapstructure:"build_number"`
	Store       string `mapstructure:"store"`
	S3          S3     `mapstructure:"s3"`
	Swift       Swift  `mapstructure:"swift"`
}

// S3 is an S3 compatible artifact store.
type S3 struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Prefix    string `mapstructure:"prefix"`
}

// Swift is an OpenStack Swift artifact store.
type Swift struct {
	AuthURL   string `mapstructure:"auth_url"`
	UserName  string `mapstructure:"username"`
	APIKey    string `mapstructure:"api_key"`
	Tenant    string `mapstructure:"tenant"`
	Domain    string `mapstructure:"domain"`
	Container string `mapstructure:"container"`
	Prefix    string `mapstructure:"prefix"`
}

// Log configures the logger.
type Log struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Metrics configures the push of the prometheus metrics of a run.
type Metrics struct {
	PushGateway string `mapstructure:"push_gateway"`
	Job         string `mapstructure:"job"`
}

// GetConfig returns the configured instance of Config.
func GetConfig() *Config {
	return config
}

// Setup Viper to read the environment and the optional config file
func Setup(cfgFile string) (err error) {
	v := viper.GetViper()
	setupEnv(v)
	applyDefaults(v)

	if cfgFile == "" {
		cfgFile, err = findConfigFile(Filename)
		if err != nil {
			return err
		}
	}
	if cfgFile == "" {
		return UseViper(v)
	}

	log.Debugf("Using config file: %s", cfgFile)
	tmplName := filepath.Base(cfgFile)
	tmpl, err := template.New(tmplName).Option("missingkey=zero").ParseFiles(cfgFile)
	if err != nil {
		return fmt.Errorf("Unable to open and parse configuration file "+
			"template %s: %w", cfgFile, err)
	}
	dest := new(bytes.Buffer)
	ctxt := &struct{ Env map[string]string }{Env: envMap()}
	if err = tmpl.ExecuteTemplate(dest, tmplName, ctxt); err != nil {
		return fmt.Errorf("Template error for config file %s: %w", cfgFile, err)
	}
	if ext := filepath.Ext(cfgFile); len(ext) > 0 {
		v.SetConfigType(ext[1:])
	}
	if err = v.MergeConfig(dest); err != nil {
		return fmt.Errorf("Failed to read the configuration from %s: %w", cfgFile, err)
	}
	return UseViper(v)
}

func setupEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		envName := strings.ToUpper(EnvPrefix + "_" + strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(append([]string{key, envName}, names...)...)
	}
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("repository.url", "http://localhost:8080")
	v.SetDefault("repository.admin_user", "admin")
	v.SetDefault("repository.admin_password", "admin")
	v.SetDefault("repository.timeout", 30*time.Second)
	v.SetDefault("repository.root_ca", "")
	v.SetDefault("repository.insecure_skip_validation", false)
	v.SetDefault("browser.app_url", "http://localhost:4200")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.control_url", "")
	v.SetDefault("browser.timeout", 20*time.Second)
	v.SetDefault("browser.viewport_width", 1366)
	v.SetDefault("browser.viewport_height", 768)
	v.SetDefault("browser.slow_motion", time.Duration(0))
	v.SetDefault("browser.flags", []string{})
	v.SetDefault("wait.timeout", 60*time.Second)
	v.SetDefault("wait.interval", time.Second)
	v.SetDefault("output.dir", "e2e-output")
	v.SetDefault("output.screenshots", true)
	v.SetDefault("upload.url", "")
	v.SetDefault("upload.username", "")
	v.SetDefault("upload.password", "")
	v.SetDefault("upload.app", "ACA")
	v.SetDefault("upload.build_number", "")
	v.SetDefault("upload.store", StoreRepository)
	v.SetDefault("upload.s3.endpoint", "")
	v.SetDefault("upload.s3.bucket", "")
	v.SetDefault("upload.s3.region", "")
	v.SetDefault("upload.s3.access_key", "")
	v.SetDefault("upload.s3.secret_key", "")
	v.SetDefault("upload.s3.use_ssl", true)
	v.SetDefault("upload.s3.prefix", "")
	v.SetDefault("upload.swift.auth_url", "")
	v.SetDefault("upload.swift.username", "")
	v.SetDefault("upload.swift.api_key", "")
	v.SetDefault("upload.swift.tenant", "")
	v.SetDefault("upload.swift.domain", "")
	v.SetDefault("upload.swift.container", "e2e-results")
	v.SetDefault("upload.swift.prefix", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("metrics.push_gateway", "")
	v.SetDefault("metrics.job", "e2e")
}

func envMap() map[string]string {
	env := make(map[string]string)
	for _, i := range os.Environ() {
		k, v, _ := strings.Cut(i, "=")
		env[k] = v
	}
	return env
}

// UseViper sets the configured instance of Config
func UseViper(v *viper.Viper) error {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return err
	}
	if err = decoder.Decode(v.AllSettings()); err != nil {
		return fmt.Errorf("Invalid configuration: %w", err)
	}
	if err = cfg.validate(); err != nil {
		return err
	}
	config = &cfg
	return nil
}

func (c *Config) validate() error {
	switch c.Upload.Store {
	case StoreRepository, StoreS3, StoreSwift:
	default:
		return fmt.Errorf("upload.store should be one of %q, %q or %q, was: %q",
			StoreRepository, StoreS3, StoreSwift, c.Upload.Store)
	}
	if c.Wait.Interval <= 0 || c.Wait.Timeout < c.Wait.Interval {
		return fmt.Errorf("wait.timeout (%s) should be greater than wait.interval (%s)",
			c.Wait.Timeout, c.Wait.Interval)
	}
	return nil
}

// Masked returns a copy of the configuration with the secrets masked, to be
// printed.
func (c *Config) Masked() Config {
	m := *c
	m.Repository.AdminPassword = utils.Mask(m.Repository.AdminPassword)
	m.Upload.Password = utils.Mask(m.Upload.Password)
	m.Upload.S3.SecretKey = utils.Mask(m.Upload.S3.SecretKey)
	m.Upload.Swift.APIKey = utils.Mask(m.Upload.Swift.APIKey)
	return m
}

func createTestViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("e2e.test")
	v.AddConfigPath("$HOME/.e2e")
	setupEnv(v)
	applyDefaults(v)
	v.SetDefault("wait.timeout", 5*time.Second)
	v.SetDefault("wait.interval", 50*time.Millisecond)
	return v
}

// UseTestViper can be used in a test to get a configuration with the
// defaults, or the values of a $HOME/.e2e/e2e.test.* file if it exists.
func UseTestViper(t testing.TB) *viper.Viper {
	t.Helper()

	v := createTestViper()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			t.Fatalf("fatal error test config file: %s", err)
		}
	}
	if err := UseViper(v); err != nil {
		t.Fatalf("fatal error test config file: %s", err)
	}
	return v
}

// FindConfigFile search in the Paths directories for the file with the given
// name. It returns an error if it cannot find it or if an error occurs while
// searching.
func FindConfigFile(name string) (string, error) {
	for _, cp := range Paths {
		filename := filepath.Join(utils.AbsPath(cp), name)
		ok, err := utils.FileExists(filename)
		if err != nil {
			return "", err
		}
		if ok {
			return filename, nil
		}
	}
	return "", fmt.Errorf("Could not find config file %q", name)
}

// findConfigFile returns the first file with a supported extension, or an
// empty string.
func findConfigFile(name string) (string, error) {
	for _, ext := range viper.SupportedExts {
		if configFile, _ := FindConfigFile(name + "." + ext); configFile != "" {
			return configFile, nil
		}
	}
	return "", nil
}
