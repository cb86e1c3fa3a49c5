package filter

import (
	"log/slog"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// DefaultIgnorePatterns is the built-in ignore set applied unless the caller
// disables it with the `no_default_ignore` option (spec section 4.1). It
// covers common VCS directories, build artifacts, and dependency caches
// across ecosystems -- grounded on the teacher's discovery.DefaultIgnorePatterns,
// trimmed to the file-tree-shaped subset this spec calls out by name
// (node_modules, .git, target, dist, build caches).
var DefaultIgnorePatterns = []string{
	".git/",
	"node_modules/",
	"dist/",
	"build/",
	"target/",
	"vendor/",
	"__pycache__/",
	".next/",
	"coverage/",
	".cache/",
	"*.pyc",
	"*.class",
	"*.o",
	"*.so",
	"*.dylib",
	".DS_Store",
	"Thumbs.db",
}

// DefaultIgnoreMatcher compiles DefaultIgnorePatterns into an Ignorer using
// the same gitignore-pattern engine as GitignoreMatcher, so the two compose
// identically inside a CompositeIgnorer.
type DefaultIgnoreMatcher struct {
	matcher *gitignore.GitIgnore
	logger  *slog.Logger
}

// NewDefaultIgnoreMatcher compiles the built-in pattern set. It never
// errors: DefaultIgnorePatterns is a compile-time constant known to be
// valid gitignore syntax.
func NewDefaultIgnoreMatcher() *DefaultIgnoreMatcher {
	return &DefaultIgnoreMatcher{
		matcher: gitignore.CompileIgnoreLines(DefaultIgnorePatterns...),
		logger:  slog.Default().With("component", "filter.defaults"),
	}
}

// IsIgnored reports whether path matches a built-in default pattern.
func (d *DefaultIgnoreMatcher) IsIgnored(path string, isDir bool) bool {
	normalized := strings.TrimPrefix(filepath.ToSlash(path), "./")
	if normalized == "" || normalized == "." {
		return false
	}
	matchPath := normalized
	if isDir && !strings.HasSuffix(matchPath, "/") {
		matchPath += "/"
	}
	return d.matcher.MatchesPath(matchPath)
}

// PatternCount returns the number of built-in default patterns.
func (d *DefaultIgnoreMatcher) PatternCount() int {
	return len(DefaultIgnorePatterns)
}

var _ Ignorer = (*DefaultIgnoreMatcher)(nil)

// PatternIgnorer compiles a caller-supplied list of gitignore-syntax
// patterns (a profile's `ignore` list) into an Ignorer, using the same
// engine as DefaultIgnoreMatcher so the two compose identically inside a
// CompositeIgnorer.
type PatternIgnorer struct {
	matcher *gitignore.GitIgnore
}

// NewPatternIgnorer compiles patterns into a PatternIgnorer. An empty or
// nil slice yields an Ignorer whose IsIgnored always returns false.
func NewPatternIgnorer(patterns []string) *PatternIgnorer {
	return &PatternIgnorer{matcher: gitignore.CompileIgnoreLines(patterns...)}
}

// IsIgnored reports whether path matches one of the configured patterns.
func (p *PatternIgnorer) IsIgnored(path string, isDir bool) bool {
	normalized := strings.TrimPrefix(filepath.ToSlash(path), "./")
	if normalized == "" || normalized == "." {
		return false
	}
	matchPath := normalized
	if isDir && !strings.HasSuffix(matchPath, "/") {
		matchPath += "/"
	}
	return p.matcher.MatchesPath(matchPath)
}

var _ Ignorer = (*PatternIgnorer)(nil)
