package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/coregx/coregex"
)

// Extensions are the file extensions searched by default.
var Extensions = []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".mts", ".cts"}

// FileInfo describes a file found by Scan.
type FileInfo struct {
	Path string
}

type Scanner struct {
	rootDir    string
	extensions []string
	exclude    *coregex.Regex
}

func New(rootDir string, extensions ...string) *Scanner {
	return &Scanner{
		rootDir:    rootDir,
		extensions: extensions,
	}
}

// Exclude skips every file and directory whose path matches re.
func (s *Scanner) Exclude(re *coregex.Regex) *Scanner {
	s.exclude = re
	return s
}

// Scan returns the target files under the root, sorted by path. A root that
// is a file is returned as is, whatever its extension.
func (s *Scanner) Scan() ([]FileInfo, error) {
	info, err := os.Stat(s.rootDir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []FileInfo{{Path: s.rootDir}}, nil
	}

	var files []FileInfo
	err = filepath.WalkDir(s.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path != s.rootDir && s.excluded(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !s.isTargetFile(path) {
			return nil
		}

		files = append(files, FileInfo{Path: path})
		return nil
	})

	slices.SortFunc(files, func(a, b FileInfo) int {
		return strings.Compare(a.Path, b.Path)
	})
	return files, err
}

// Accepts reports whether path would be returned by a scan of its directory.
func (s *Scanner) Accepts(path string) bool {
	return !s.excluded(path) && s.isTargetFile(path)
}

func (s *Scanner) excluded(path string) bool {
	return s.exclude != nil && s.exclude.MatchString(filepath.ToSlash(path))
}

func (s *Scanner) isTargetFile(path string) bool {
	if len(s.extensions) == 0 {
		return true
	}

	ext := filepath.Ext(path)
	for _, targetExt := range s.extensions {
		if ext == targetExt {
			return true
		}
	}
	return false
}
