// e2e is the command line of the end-to-end test harness of the content app.
// It provisions the fixtures of the suites in the content repository, waits
// for them to be indexed, tears them down, and uploads the output of a run.
//
// The suites themselves are Go tests, under e2e/suites, run with:
//
//	go test -tags e2e ./e2e/suites/...
package main

import (
	"fmt"
	"os"

	"github.com/contentapp/e2e/cmd"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		if err != cmd.ErrUsage {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error()) // #nosec
			os.Exit(1)
		}
	}
}
