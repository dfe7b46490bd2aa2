package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/coregx/coregex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	tempDir := t.TempDir()
	for path, content := range files {
		fullPath := filepath.Join(tempDir, path)
		err := os.MkdirAll(filepath.Dir(fullPath), 0o755)
		require.NoError(t, err)
		err = os.WriteFile(fullPath, []byte(content), 0o644)
		require.NoError(t, err)
	}
	return tempDir
}

func paths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestProjectScanner(t *testing.T) {
	t.Parallel()
	tempDir := writeTree(t, map[string]string{
		"b.ts":             "const b = 1;",
		"a.js":             "const a = 1;",
		"notes.txt":        "This is a text file",
		"subdir/c.tsx":     "const c = <div />;",
		"subdir/d.mjs":     "export default 1;",
		"subdir/style.css": "body {}",
	})

	scannedFiles, err := New(tempDir, Extensions...).Scan()
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(tempDir, "a.js"),
		filepath.Join(tempDir, "b.ts"),
		filepath.Join(tempDir, "subdir", "c.tsx"),
		filepath.Join(tempDir, "subdir", "d.mjs"),
	}, paths(scannedFiles))
}

func TestScannerExclude(t *testing.T) {
	t.Parallel()
	tempDir := writeTree(t, map[string]string{
		"src/app.ts":                  "app();",
		"src/app.test.ts":             "test();",
		"node_modules/lib/index.js":   "lib();",
		"node_modules/lib/extra.d.ts": "declare const x: number;",
	})

	s := New(tempDir, Extensions...).Exclude(coregex.MustCompile(`node_modules|\.test\.ts$`))
	scannedFiles, err := s.Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(tempDir, "src", "app.ts")}, paths(scannedFiles))
}

func TestScannerSingleFile(t *testing.T) {
	t.Parallel()
	tempDir := writeTree(t, map[string]string{"script": "#!/usr/bin/env node\nrun();"})
	path := filepath.Join(tempDir, "script")

	scannedFiles, err := New(path, Extensions...).Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{path}, paths(scannedFiles))
}

func TestScannerMissingRoot(t *testing.T) {
	t.Parallel()
	_, err := New(filepath.Join(t.TempDir(), "missing")).Scan()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScannerAccepts(t *testing.T) {
	t.Parallel()
	s := New(".", ".ts", ".js").Exclude(coregex.MustCompile(`^vendor/`))
	assert.True(t, s.Accepts("src/a.ts"))
	assert.True(t, s.Accepts("b.js"))
	assert.False(t, s.Accepts("src/a.go"))
	assert.False(t, s.Accepts("vendor/lib.ts"))
}
