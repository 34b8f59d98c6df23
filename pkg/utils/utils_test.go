package utils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandom(t *testing.T) {
	s1 := Random()
	s2 := Random()
	assert.Len(t, s1, 10)
	assert.NotEqual(t, s1, s2)
}

func TestRandomConcurrentAccess(t *testing.T) {
	n := 10000
	var wg sync.WaitGroup
	wg.Add(n)

	ms := make(map[string]struct{})
	var mu sync.Mutex

	var gotDup = false

	for i := 0; i < n; i++ {
		go func() {
			s := Random()
			defer wg.Done()
			mu.Lock()
			defer mu.Unlock()
			if _, ok := ms[s]; ok {
				gotDup = true
			}
			ms[s] = struct{}{}
		}()
	}
	wg.Wait()

	if gotDup {
		t.Fatal("should be unique strings")
	}
}

func TestRandomName(t *testing.T) {
	name := RandomName("file1.txt")
	assert.True(t, strings.HasPrefix(name, "file1-"), name)
	assert.True(t, strings.HasSuffix(name, ".txt"), name)

	name = RandomName("folder")
	assert.True(t, strings.HasPrefix(name, "folder-"), name)
	assert.Len(t, name, len("folder-")+10)
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "foo.txt")
	require.NoError(t, os.WriteFile(file, []byte("foo"), 0600))

	exists, err := FileExists(file)
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = FileExists(filepath.Join(dir, "bar.txt"))
	assert.NoError(t, err)
	assert.False(t, exists)

	_, err = FileExists(dir)
	assert.Error(t, err)
}

func TestAbsPath(t *testing.T) {
	t.Setenv("HOME", "/home/e2e")
	assert.Equal(t, "/home/e2e/.e2e", AbsPath("~/.e2e"))
	assert.Equal(t, "/home/e2e/.e2e", AbsPath("$HOME/.e2e"))
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask(""))
	assert.Equal(t, "******", Mask("secret"))
}
