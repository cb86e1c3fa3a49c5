package scanner

import (
	"github.com/8b-is/smart-tree/internal/filter"
	"github.com/8b-is/smart-tree/internal/relevance"
	"github.com/8b-is/smart-tree/internal/safety"
	"github.com/8b-is/smart-tree/internal/token"
)

// Options configures one Scan call. Root is the only required field; every
// other matcher is optional and its zero value (nil) means "no filtering of
// that kind."
type Options struct {
	Root string

	Ignorer    filter.Ignorer
	Predicate  *filter.Predicate
	GlobFilter *filter.GlobFilter

	// IgnoredPolicy controls how entries matched by Ignorer are represented
	// in the output (spec section 4.1's IgnoredPolicy). nil defaults to
	// filter.IgnoredExclude.
	IgnoredPolicy *filter.IgnoredPolicy

	Searcher          *filter.Searcher
	SearchOnlyMatches bool

	FollowSymlinks bool

	// Tracker enforces the safety limits for this scan (spec section 4.2).
	// A nil Tracker disables safety enforcement entirely.
	Tracker *safety.Tracker

	// Registry feeds every observed name into the token registry's adaptive
	// promotion counter (spec section 4.4); nil disables this.
	Registry *token.Registry

	// Concurrency bounds the parallel content-search worker pool. <= 0 uses
	// runtime.NumCPU().
	Concurrency int

	// Scorer populates node.Node.ImportanceScore on file nodes from a tier
	// classification (spec section 4.5, Quantum-Semantic's per-node
	// importance byte). nil leaves ImportanceScore unset on every node.
	Scorer *relevance.TierMatcher

	// SearchRatePerSecond caps how many content-search file reads the
	// worker pool may start per second, generalizing the reorder buffer's
	// backpressure (spec section 5) into an explicit token-bucket so a slow
	// output sink or a spinning disk doesn't get hit with every worker's
	// first read at once. <= 0 disables rate limiting (the pool is bounded
	// by Concurrency alone).
	SearchRatePerSecond float64
}
