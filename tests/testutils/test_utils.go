package testutils

import (
	"flag"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/contentapp/e2e/tests/fakerepo"
	"github.com/gavv/httpexpect/v2"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/ncw/swift/v2/swifttest"
	"github.com/stretchr/testify/require"
)

var useDebug bool

func init() {
	flag.BoolVar(&useDebug, "debug", false, "display the requests content")
}

// CreateTestClient setup an httpexpect.Expect client used to make http tests.
//
// This init take allow to use the `--debug` flag in your tests in order to
// print the requests/responses content.
//
// example: `go test ./tests/fakerepo --debug`.
func CreateTestClient(t testing.TB, url string) *httpexpect.Expect {
	var printer httpexpect.Printer

	t.Helper()

	flag.Parse()

	if useDebug {
		printer = httpexpect.NewDebugPrinter(t, true)
	} else {
		printer = httpexpect.NewCompactPrinter(t)
	}

	return httpexpect.WithConfig(httpexpect.Config{
		TestName: t.Name(),
		BaseURL:  url,
		Reporter: httpexpect.NewAssertReporter(t),
		Printers: []httpexpect.Printer{printer},
	})
}

// TODO can be used as a reminder to do something in the future. The test that
// calls TODO will fail after the limit date, which is an efficient way to not
// forget about it.
func TODO(t *testing.T, date string, args ...interface{}) {
	now := time.Now()
	limit, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Errorf("Invalid date for TODO: %s", err)
	} else if now.After(limit) {
		t.Error(args...)
	}
}

// Repository is a fake content repository served for the duration of a test.
type Repository struct {
	*fakerepo.Server
	URL *url.URL
	TS  *httptest.Server
}

// StartRepository starts an in-memory repository with the admin/admin
// account. It is stopped by the test cleanup.
func StartRepository(t testing.TB, opts ...fakerepo.Options) *Repository {
	t.Helper()
	var o fakerepo.Options
	if len(opts) > 0 {
		o = opts[0]
	}
	srv, ts := fakerepo.Start(t, o)
	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	return &Repository{Server: srv, URL: u, TS: ts}
}

// SwiftServer is an in-memory Swift server.
type SwiftServer struct {
	AuthURL  string
	UserName string
	APIKey   string
}

// StartSwift can be used to start an in-memory Swift server for tests.
func StartSwift(t testing.TB) *SwiftServer {
	t.Helper()
	srv, err := swifttest.NewSwiftServer("localhost")
	require.NoError(t, err, "Could not start the swift server.")
	t.Cleanup(srv.Close)
	return &SwiftServer{
		AuthURL:  srv.AuthURL,
		UserName: "swifttest",
		APIKey:   "swifttest",
	}
}

// NeedBrowser skips the test when no Chromium can be found, neither in the
// E2E_BROWSER_BIN env variable nor in the usual places.
func NeedBrowser(t testing.TB) string {
	t.Helper()
	if bin := os.Getenv("E2E_BROWSER_BIN"); bin != "" {
		return bin
	}
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("This test needs a Chromium browser to run.")
	}
	return bin
}
