package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseViper(t *testing.T) {
	v := viper.New()
	applyDefaults(v)
	v.Set("repository.url", "https://repo.example.org")
	v.Set("wait.timeout", "90s")
	v.Set("browser.flags", "no-sandbox,disable-gpu")
	require.NoError(t, UseViper(v))

	cfg := GetConfig()
	assert.Equal(t, "https://repo.example.org", cfg.Repository.URL)
	assert.Equal(t, "admin", cfg.Repository.AdminUser)
	assert.Equal(t, 90*time.Second, cfg.Wait.Timeout)
	assert.Equal(t, time.Second, cfg.Wait.Interval)
	assert.Equal(t, []string{"no-sandbox", "disable-gpu"}, cfg.Browser.Flags)
	assert.Equal(t, 1366, cfg.Browser.ViewportWidth)
	assert.Equal(t, StoreRepository, cfg.Upload.Store)
	assert.Equal(t, "e2e", cfg.Metrics.Job)
	assert.Empty(t, cfg.Metrics.PushGateway)
}

func TestValidate(t *testing.T) {
	v := viper.New()
	applyDefaults(v)
	v.Set("upload.store", "ftp")
	assert.Error(t, UseViper(v))

	v = viper.New()
	applyDefaults(v)
	v.Set("wait.interval", "2m")
	assert.Error(t, UseViper(v))
}

func TestEnv(t *testing.T) {
	t.Setenv("E2E_REPOSITORY_ADMIN_PASSWORD", "s3cret")
	t.Setenv("TRAVIS_BUILD_NUMBER", "1234")
	t.Setenv("SCREENSHOT_URL", "https://screenshots.example.org")
	t.Setenv("E2E_UPLOAD_URL", "https://uploads.example.org")

	v := UseTestViper(t)
	cfg := GetConfig()
	assert.Equal(t, "s3cret", cfg.Repository.AdminPassword)
	assert.Equal(t, "1234", cfg.Upload.BuildNumber)
	assert.Equal(t, "1234", v.GetString("upload.build_number"))
	// The E2E_ variable wins over the legacy one.
	assert.Equal(t, "https://uploads.example.org", cfg.Upload.URL)
	assert.Equal(t, 50*time.Millisecond, cfg.Wait.Interval)
}

func TestSetupWithFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("E2E_TEST_APP", "ADW")

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "e2e.yaml")
	content := `
repository:
  url: http://repo:8080
browser:
  headless: false
upload:
  app: {{.Env.E2E_TEST_APP}}
  store: swift
`
	require.NoError(t, os.WriteFile(cfgFile, []byte(content), 0o600))
	require.NoError(t, Setup(cfgFile))

	cfg := GetConfig()
	assert.Equal(t, "http://repo:8080", cfg.Repository.URL)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "ADW", cfg.Upload.App)
	assert.Equal(t, StoreSwift, cfg.Upload.Store)
	assert.Equal(t, "e2e-results", cfg.Upload.Swift.Container)
}

func TestMasked(t *testing.T) {
	cfg := &Config{}
	cfg.Repository.AdminPassword = "admin-password"
	cfg.Upload.Password = "upload"
	masked := cfg.Masked()
	assert.NotEqual(t, "admin-password", masked.Repository.AdminPassword)
	assert.NotEqual(t, "upload", masked.Upload.Password)
	assert.Equal(t, "admin-password", cfg.Repository.AdminPassword)
}
