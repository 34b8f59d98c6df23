package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gofrs/uuid/v5"
)

// Random returns a short random token, used as a suffix to make the names of
// the remote resources unique for a test group (user-<random>,
// folder-<random>, etc.).
func Random() string {
	id := uuid.Must(uuid.NewV4())
	return strings.ReplaceAll(id.String(), "-", "")[:10]
}

// RandomName returns prefix-<random>. When the prefix has an extension, the
// random token is inserted before it: RandomName("file1.txt") gives
// file1-<random>.txt.
func RandomName(prefix string) string {
	ext := filepath.Ext(prefix)
	base := strings.TrimSuffix(prefix, ext)
	return base + "-" + Random() + ext
}

// FileExists returns whether or not the file exists on the current file
// system.
func FileExists(name string) (bool, error) {
	infos, err := os.Stat(name)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if infos.IsDir() {
		return false, fmt.Errorf("Path %s is a directory", name)
	}
	return true, nil
}

// UserHomeDir returns the user's home directory
func UserHomeDir() string {
	if runtime.GOOS == "windows" {
		home := os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
		if home == "" {
			home = os.Getenv("USERPROFILE")
		}
		return home
	}
	return os.Getenv("HOME")
}

// AbsPath returns an absolute path relative.
func AbsPath(inPath string) string {
	if strings.HasPrefix(inPath, "~") {
		inPath = UserHomeDir() + inPath[len("~"):]
	} else if strings.HasPrefix(inPath, "$HOME") {
		inPath = UserHomeDir() + inPath[len("$HOME"):]
	}

	if strings.HasPrefix(inPath, "$") {
		end := strings.Index(inPath, string(os.PathSeparator))
		if end < 0 {
			end = len(inPath)
		}
		inPath = os.Getenv(inPath[1:end]) + inPath[end:]
	}

	p, err := filepath.Abs(inPath)
	if err == nil {
		return filepath.Clean(p)
	}

	return ""
}

// Mask hides a secret for display, keeping only its length visible.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	return strings.Repeat("*", len(secret))
}
