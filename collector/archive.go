package collector

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Archiver packs a directory into an archive file.
type Archiver interface {
	Archive(ctx context.Context, dir, archive string) error
}

// TarArchiver runs the tar command in the directory, like
// `tar -czvf ../e2e-result-<suffix>-<n>.tar .`.
type TarArchiver struct {
	// Bin is the tar command, "tar" by default.
	Bin string
}

// Archive implements the Archiver interface.
func (t *TarArchiver) Archive(ctx context.Context, dir, archive string) error {
	bin := t.Bin
	if bin == "" {
		bin = "tar"
	}
	target, err := filepath.Rel(dir, archive)
	if err != nil {
		target = archive
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-czvf", target, ".")
	cmd.Dir = dir
	cmd.Stderr = &stderr
	log.Debugf("Running %s -czvf %s . in %s", bin, target, dir)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", bin, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
