package quality

import (
	"bytes"
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipDirs are never walked: reference material, VCS metadata and vendored code.
var skipDirs = map[string]bool{
	"_examples":    true,
	"vendor":       true,
	".git":         true,
	"node_modules": true,
}

// TestGoFilesAreGofmtClean fails for every source file whose bytes differ
// from gofmt's output.
func TestGoFilesAreGofmtClean(t *testing.T) {
	root, err := moduleRoot()
	require.NoError(t, err)

	var files []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".go") {
			files = append(files, path)
		}
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, files, "no Go files under %s", root)

	for _, file := range files {
		src, err := os.ReadFile(file)
		require.NoError(t, err)
		formatted, err := format.Source(src)
		if !assert.NoError(t, err, "gofmt cannot parse %s", file) {
			continue
		}
		rel, _ := filepath.Rel(root, file)
		assert.True(t, bytes.Equal(src, formatted), "%s is not gofmt-clean; run gofmt -w %s", rel, rel)
	}
	t.Logf("checked %d Go files", len(files))
}

// moduleRoot walks up from the working directory to the nearest go.mod.
func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
