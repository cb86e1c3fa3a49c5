package filter

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GlobFilter applies doublestar include/exclude glob patterns on top of the
// core Predicate. It is an additive CLI-level convenience (not named in
// spec section 4.1's predicate list, which only requires name regex and
// extension set) offered because the reference CLI collaborators in this
// corpus universally expose --include/--exclude glob flags alongside a
// simpler extension shorthand.
//
// Exclude always wins over include, matching the teacher's PatternFilter.
type GlobFilter struct {
	includes []string
	excludes []string
}

// NewGlobFilter builds a GlobFilter from include/exclude glob pattern
// lists. Copies are made so the caller's slices can be mutated afterward.
func NewGlobFilter(includes, excludes []string) *GlobFilter {
	inc := make([]string, len(includes))
	copy(inc, includes)
	exc := make([]string, len(excludes))
	copy(exc, excludes)
	return &GlobFilter{includes: inc, excludes: exc}
}

// HasPatterns reports whether any include or exclude pattern is configured.
func (g *GlobFilter) HasPatterns() bool {
	return len(g.includes) > 0 || len(g.excludes) > 0
}

// Matches reports whether relPath passes the configured globs. With no
// patterns configured, every path passes.
func (g *GlobFilter) Matches(relPath string) bool {
	normalized := strings.TrimPrefix(filepath.ToSlash(relPath), "./")
	if normalized == "" {
		return false
	}

	for _, pattern := range g.excludes {
		if matched, _ := doublestar.Match(pattern, normalized); matched {
			return false
		}
	}

	if len(g.includes) == 0 {
		return true
	}

	for _, pattern := range g.includes {
		if matched, _ := doublestar.Match(pattern, normalized); matched {
			return true
		}
	}
	return false
}
