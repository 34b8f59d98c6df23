package tlsclient

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCAFile(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	t.Run("UnknownAuthority", func(t *testing.T) {
		client, err := NewHTTPClient(Options{})
		require.NoError(t, err)
		_, err = client.Get(ts.URL)
		assert.Error(t, err)
	})

	t.Run("WithCA", func(t *testing.T) {
		caFile := filepath.Join(t.TempDir(), "ca.pem")
		block := &pem.Block{Type: "CERTIFICATE", Bytes: ts.Certificate().Raw}
		require.NoError(t, os.WriteFile(caFile, pem.EncodeToMemory(block), 0o600))

		client, err := NewHTTPClient(Options{RootCAFile: caFile})
		require.NoError(t, err)
		res, err := client.Get(ts.URL)
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusNoContent, res.StatusCode)
	})

	t.Run("PinnedKey", func(t *testing.T) {
		fp := sha256.Sum256(ts.Certificate().RawSubjectPublicKeyInfo)
		client, err := NewHTTPClient(Options{
			PinnedKey:              hex.EncodeToString(fp[:]),
			InsecureSkipValidation: true,
		})
		require.NoError(t, err)
		res, err := client.Get(ts.URL)
		require.NoError(t, err)
		res.Body.Close()

		other := sha256.Sum256([]byte("other"))
		client, err = NewHTTPClient(Options{
			PinnedKey:              hex.EncodeToString(other[:]),
			InsecureSkipValidation: true,
		})
		require.NoError(t, err)
		_, err = client.Get(ts.URL)
		assert.Error(t, err)
	})
}

func TestInvalidOptions(t *testing.T) {
	_, err := NewHTTPClient(Options{PinnedKey: "zz"})
	assert.Error(t, err)
	_, err = NewHTTPClient(Options{PinnedKey: "abcd"})
	assert.Error(t, err)
	_, err = NewHTTPClient(Options{RootCAFile: filepath.Join(t.TempDir(), "missing.pem")})
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("REPO_VALIDATE", "false")
	t.Setenv("REPO_CA", "/tmp/ca.pem")
	opt := fromEnv(Options{}, "REPO")
	assert.True(t, opt.InsecureSkipValidation)
	assert.Equal(t, "/tmp/ca.pem", opt.RootCAFile)

	opt = fromEnv(Options{RootCAFile: "/etc/ca.pem"}, "REPO")
	assert.Equal(t, "/etc/ca.pem", opt.RootCAFile)
}
