// Package filter implements the Filter Engine (spec section 4.1): the
// gitignore-compatible ignore matcher, the built-in default ignore set, and
// the combined node predicate compiled from the CLI's filter options (name
// regex, extension set, size range, mtime range, entry kind, hidden policy,
// ignored policy), plus the content-search matcher used by the scanner.
package filter

import "log/slog"

// Ignorer decides whether a candidate path should be excluded from the
// scan. Path is relative to the scan root, '/'-separated. isDir indicates
// whether the path is a directory, since some patterns are directory-only
// (a trailing "/" in gitignore syntax).
type Ignorer interface {
	IsIgnored(path string, isDir bool) bool
}

// CompositeIgnorer chains any number of Ignorer sources and reports a path
// as ignored if ANY source matches it -- the "ignored iff any active ignore
// source matches" rule from spec section 4.1.
type CompositeIgnorer struct {
	sources []Ignorer
	logger  *slog.Logger
}

// NewCompositeIgnorer builds a CompositeIgnorer from the given sources. Nil
// sources are skipped, so callers can pass a possibly-nil gitignore or
// smarttree.toml-style local ignore matcher unconditionally.
func NewCompositeIgnorer(sources ...Ignorer) *CompositeIgnorer {
	active := make([]Ignorer, 0, len(sources))
	for _, s := range sources {
		if s != nil {
			active = append(active, s)
		}
	}
	return &CompositeIgnorer{
		sources: active,
		logger:  slog.Default().With("component", "filter.ignore"),
	}
}

// IsIgnored reports whether any chained source matches path.
func (c *CompositeIgnorer) IsIgnored(path string, isDir bool) bool {
	for _, s := range c.sources {
		if s.IsIgnored(path, isDir) {
			return true
		}
	}
	return false
}

// SourceCount returns the number of active ignore sources, for diagnostics.
func (c *CompositeIgnorer) SourceCount() int {
	return len(c.sources)
}

var _ Ignorer = (*CompositeIgnorer)(nil)
