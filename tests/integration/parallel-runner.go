// This script runs the e2e suites in parallel, each in its own go test
// process, and retries the failed ones. The output of each attempt can be
// uploaded with `e2e upload-output`. It can be started with
// `go run ./tests/integration -n 2 -retries 1`.

package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

var shuffle bool
var failFast bool
var upload bool
var nb int
var retries int

func main() {
	flag.BoolVar(&shuffle, "shuffle", false, "Randomize the order of the suites")
	flag.BoolVar(&failFast, "fail-fast", false, "Stop on the first suite that fails")
	flag.BoolVar(&upload, "upload", false, "Upload the output of each attempt")
	flag.IntVar(&nb, "n", 4, "Number of suites to run in parallel")
	flag.IntVar(&retries, "retries", 0, "Number of times a failed suite is run again")
	flag.Parse()

	suites, err := listSuites()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	for retry := 1; len(suites) > 0; retry++ {
		suites, err = runSuites(suites, retry)
		if err == nil || retry > retries || failFast {
			break
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func listSuites() ([]string, error) {
	suites, err := filepath.Glob("e2e/suites/*")
	if err != nil {
		return nil, err
	}
	if shuffle {
		rand.Shuffle(len(suites), func(i, j int) {
			suites[i], suites[j] = suites[j], suites[i]
		})
	}
	return suites, nil
}

type result struct {
	Suite string
	Err   error
	Out   []byte
}

// runSuites runs the suites and returns the ones that have failed.
func runSuites(suites []string, retry int) ([]string, error) {
	results := make(chan result, len(suites))
	var g errgroup.Group
	g.SetLimit(nb)

	go func() {
		for _, suite := range suites {
			g.Go(func() error {
				out, err := runSuite(suite, retry)
				results <- result{suite, err, out}
				return nil
			})

			// The repository indexes the shared links and favorites of all
			// the suites, starting them at the same time makes the waits
			// longer.
			time.Sleep(time.Second)
		}
		_ = g.Wait()
	}()

	var err error
	var failed []string
	for range suites {
		res := <-results
		fmt.Printf("\n==== Run %s (retry %d) ====\n%s\n", res.Suite, retry, res.Out)
		if res.Err != nil {
			err = res.Err
			failed = append(failed, res.Suite)
			if failFast {
				return failed, err
			}
		}
	}

	return failed, err
}

func runSuite(suite string, retry int) ([]byte, error) {
	name := filepath.Base(suite)
	outputDir := filepath.Join("e2e-output", name)
	cmd := exec.Command("go", "test", "-tags", "e2e", "-count=1", "./"+suite)
	cmd.Env = append(os.Environ(), "E2E_OUTPUT_DIR="+outputDir, "CI=true")
	out, err := cmd.CombinedOutput()
	if !upload {
		return out, err
	}
	if _, statErr := os.Stat(outputDir); statErr != nil {
		return out, err
	}
	up := exec.Command("go", "run", ".", "upload-output",
		"--dir", outputDir, "--retry", strconv.Itoa(retry), "--suffix", name)
	upOut, upErr := up.CombinedOutput()
	out = append(out, upOut...)
	if err == nil {
		err = upErr
	}
	return out, err
}
