// This script starts an in-memory content repository and a Swift-like server,
// to try the e2e commands without a real repository. It can be started with
// `go run ./tests/devserver`. The admin account is admin/admin, and the Swift
// username and API key are both 'swifttest'.

package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/contentapp/e2e/tests/fakerepo"
	"github.com/ncw/swift/v2/swifttest"
)

var addr string
var indexDelay time.Duration

func main() {
	flag.StringVar(&addr, "addr", "localhost:8080", "address of the repository")
	flag.DurationVar(&indexDelay, "index-delay", 2*time.Second, "time for the shared links and favorites to be listed")
	flag.Parse()

	srv, err := swifttest.NewSwiftServer("localhost")
	if err != nil {
		panic(err)
	}
	defer srv.Close()

	repo := fakerepo.New(fakerepo.Options{IndexDelay: indexDelay})
	go func() {
		if err := http.ListenAndServe(addr, repo); err != nil { // #nosec
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
	}()

	fmt.Printf("export E2E_REPOSITORY_URL=http://%s\n", addr)
	fmt.Printf("export E2E_UPLOAD_STORE=swift E2E_UPLOAD_SWIFT_AUTH_URL=%s "+
		"E2E_UPLOAD_SWIFT_USERNAME=swifttest E2E_UPLOAD_SWIFT_API_KEY=swifttest\n", srv.AuthURL)

	// Wait for CTRL-C
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
}
