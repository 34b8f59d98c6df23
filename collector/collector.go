// Package collector archives the output directory of a test run (the
// screenshots and reports) and uploads it, so that the results of a CI build
// can be looked at after the fact.
//
// The archive is named after the suffix and the retry count of the run, and
// is stored under Builds/<app>/<build>/retry-<n>.
package collector

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/contentapp/e2e/pkg/logger"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

// DefaultApp is the application name used in the remote folder.
const DefaultApp = "ACA"

var log = logger.WithNamespace("collector")

// Options identifies the test run whose output is collected.
type Options struct {
	// App is the name of the application under test.
	App string
	// Build is the CI build number. When empty, a timestamp is used.
	Build string
	// Retry is the attempt number of the run.
	Retry int
	// Suffix distinguishes the archives of the runs of a same build, like
	// the name of the suite.
	Suffix string
	// OutputDir is the directory to archive.
	OutputDir string
	Now       func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// BuildNumber returns the build number, or the current time in milliseconds
// when it is unset.
func (o Options) BuildNumber() string {
	if o.Build != "" {
		return o.Build
	}
	return strconv.FormatInt(o.now().UnixMilli(), 10)
}

func (o Options) app() string {
	if o.App == "" {
		return DefaultApp
	}
	return o.App
}

// RemoteFolder returns the folder of the archive in the store.
func (o Options) RemoteFolder(build string) string {
	return path.Join("Builds", o.app(), build, "retry-"+strconv.Itoa(o.Retry))
}

// RetryDir returns the directory the output is moved to before archiving.
func (o Options) RetryDir() string {
	return filepath.Clean(o.OutputDir) + "-" + strconv.Itoa(o.Retry)
}

// ArchiveName returns the name of the archive.
func (o Options) ArchiveName() string {
	return fmt.Sprintf("e2e-result-%s-%d.tar", o.Suffix, o.Retry)
}

// ArchivePath returns the path of the archive, next to the retry directory.
func (o Options) ArchivePath() string {
	return filepath.Join(filepath.Dir(o.RetryDir()), o.ArchiveName())
}

// Collector runs the collection steps.
type Collector struct {
	Fs       afero.Fs
	Archiver Archiver
	Store    Store
}

// Report describes the uploaded archive.
type Report struct {
	Folder   string
	Archive  string
	Location string
	Size     int64
}

// Run prepares the remote folder, moves and archives the output directory,
// and uploads the archive. The first failing step aborts the run.
func (c *Collector) Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.OutputDir == "" {
		return nil, errors.New("collector: no output directory")
	}
	if c.Store == nil {
		return nil, errors.New("collector: no store")
	}
	fs := c.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	archiver := c.Archiver
	if archiver == nil {
		archiver = &TarArchiver{}
	}

	build := opts.BuildNumber()
	report := &Report{Folder: opts.RemoteFolder(build), Archive: opts.ArchivePath()}
	log.Infof("Collecting %s for build %s, retry %d", opts.OutputDir, build, opts.Retry)

	if err := c.Store.Prepare(ctx, report.Folder); err != nil {
		return nil, fmt.Errorf("collector: prepare %s: %w", report.Folder, err)
	}

	retryDir := opts.RetryDir()
	if err := fs.Rename(opts.OutputDir, retryDir); err != nil {
		return nil, fmt.Errorf("collector: move output: %w", err)
	}

	if err := archiver.Archive(ctx, retryDir, report.Archive); err != nil {
		return nil, fmt.Errorf("collector: archive: %w", err)
	}

	f, err := fs.Open(report.Archive)
	if err != nil {
		return nil, fmt.Errorf("collector: open archive: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("collector: stat archive: %w", err)
	}
	report.Size = info.Size()

	location, err := c.Store.Put(ctx, opts.ArchiveName(), f, report.Size)
	if err != nil {
		return nil, fmt.Errorf("collector: upload: %w", err)
	}
	report.Location = location
	log.Infof("Uploaded %s (%s) to %s", opts.ArchiveName(), humanize.Bytes(uint64(report.Size)), location)
	return report, nil
}
