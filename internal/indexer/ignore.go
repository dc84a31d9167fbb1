package indexer

import (
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultTempPatterns match editor swap and temporary files.
var DefaultTempPatterns = []string{"~*", "*.tmp"}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// IgnoreMatcher decides whether a path is a temporary file that must never
// be indexed. Patterns are matched case-insensitively against the base name.
type IgnoreMatcher struct {
	patterns []compiledPattern
	exact    map[string]bool
	// inDir holds base-name patterns that apply only inside one directory.
	inDir map[string][]compiledPattern
}

// NewIgnoreMatcher compiles the given base-name patterns.
func NewIgnoreMatcher(patterns []string) (*IgnoreMatcher, error) {
	m := &IgnoreMatcher{exact: make(map[string]bool), inDir: make(map[string][]compiledPattern)}
	for _, pattern := range patterns {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return nil, err
		}
		m.patterns = append(m.patterns, compiledPattern{pattern: pattern, glob: g})
	}
	return m, nil
}

// IgnorePath excludes one exact absolute path, e.g. the state file itself.
func (m *IgnoreMatcher) IgnorePath(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	m.exact[filepath.Clean(path)] = true
}

// IgnoreInDir excludes files directly inside dir whose base name matches
// pattern, e.g. rotated backups next to a log file.
func (m *IgnoreMatcher) IgnoreInDir(dir, pattern string) error {
	g, err := glob.Compile(pattern)
	if err != nil {
		return err
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	dir = filepath.Clean(dir)
	m.inDir[dir] = append(m.inDir[dir], compiledPattern{pattern: pattern, glob: g})
	return nil
}

// Match reports whether path should be ignored.
func (m *IgnoreMatcher) Match(path string) bool {
	if m == nil {
		return false
	}
	path = filepath.Clean(path)
	if m.exact[path] {
		return true
	}
	for _, cp := range m.inDir[filepath.Dir(path)] {
		if cp.glob.Match(filepath.Base(path)) {
			return true
		}
	}
	name := strings.ToLower(filepath.Base(path))
	for _, cp := range m.patterns {
		if cp.glob.Match(name) {
			return true
		}
	}
	return false
}
