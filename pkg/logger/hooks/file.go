// Package hooks has the logrus hooks of the harness.
package hooks

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
	"github.com/spf13/afero"
)

// FileHook copies the log entries to a file of the output directory, so that
// they are archived with the screenshots of the run.
type FileHook struct {
	writer.Hook
	f afero.File
}

// NewFileHook opens filename in append mode, creating its directory.
func NewFileHook(fs afero.Fs, filename string) (*FileHook, error) {
	if err := fs.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, err
	}
	f, err := fs.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileHook{
		Hook: writer.Hook{Writer: f, LogLevels: logrus.AllLevels},
		f:    f,
	}, nil
}

// Close closes the file. The hook must not fire after that.
func (h *FileHook) Close() error {
	return h.f.Close()
}
