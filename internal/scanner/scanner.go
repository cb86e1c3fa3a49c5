// Package scanner implements the parallel filesystem scanner (spec section
// 3/4): it walks a root directory and produces the canonical depth-first
// pre-order node.Node stream that every other stage (filter, token, stats,
// format) consumes.
//
// The walk itself runs as a single sequential pass -- sequential because
// pre-order DFS numbering, parent-relative deltas, and the safety tracker's
// running counters all need entries to arrive in a fixed, previously-decided
// order. Concurrency is instead spent the way the teacher's own walker
// spends it: on the expensive per-file work (content search) via a bounded
// errgroup worker pool that runs once the ordered entry list is known, not
// on the directory traversal itself.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/8b-is/smart-tree/internal/filter"
	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/safety"
)

// baseNodeOverhead approximates the fixed in-memory footprint of a Node
// value (its scalar fields plus slice/string headers), for the safety
// tracker's estimated-memory bound (spec section 4.2). It is deliberately a
// rough constant rather than unsafe.Sizeof-derived precision: the bound
// exists to catch runaway scans, not to account bytes exactly.
const baseNodeOverhead = 128

// entry is a node under construction: its Node value plus the absolute
// filesystem path needed for the content-search phase, which runs after the
// pre-order walk has already decided the final node sequence.
type entry struct {
	n           node.Node
	absPath     string
	needsSearch bool
}

// Scanner walks a directory tree and emits node.Node values through a
// channel in canonical pre-order.
type Scanner struct {
	logger *slog.Logger
}

// New constructs a Scanner.
func New() *Scanner {
	return &Scanner{logger: slog.Default().With("component", "scanner")}
}

// Scan walks opts.Root and returns a channel of nodes in canonical pre-order
// DFS plus a channel that carries at most one error. The node channel is
// always closed when the scan ends, whether it ended normally, via a safety
// abort (represented as a synthetic node, not an error), or via ctx
// cancellation (represented as an error).
func (s *Scanner) Scan(ctx context.Context, opts Options) (<-chan node.Node, <-chan error) {
	nodes := make(chan node.Node, 64)
	errc := make(chan error, 1)

	go func() {
		defer close(nodes)
		defer close(errc)

		entries, err := s.walkAll(ctx, opts)
		if err != nil {
			errc <- err
			return
		}

		if err := s.runSearches(ctx, opts, entries); err != nil {
			errc <- err
			return
		}

		for _, e := range entries {
			if opts.SearchOnlyMatches && opts.Searcher != nil && e.needsSearch && len(e.n.SearchHits) == 0 && !e.n.Flags.Aborted {
				continue
			}
			select {
			case nodes <- e.n:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()

	return nodes, errc
}

// walkAll performs the sequential pre-order walk, returning the full
// ordered entry list (search hits not yet populated).
func (s *Scanner) walkAll(ctx context.Context, opts Options) ([]*entry, error) {
	absRoot, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("scanner: resolving root %s: %w", opts.Root, err)
	}

	rootInfo, err := os.Lstat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("scanner: stat root %s: %w", absRoot, err)
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf("scanner: root %s is not a directory", absRoot)
	}

	uid, gid := ownerOf(rootInfo)
	rootEntry := &entry{
		n: node.Node{
			Depth:            0,
			Kind:             node.Directory,
			Name:             path.Base(absRoot),
			RelativePath:     "",
			Permissions:      uint16(rootInfo.Mode().Perm()),
			UID:              uid,
			GID:              gid,
			MTime:            rootInfo.ModTime().Unix(),
			ChildrenExpected: true,
		},
		absPath: absRoot,
	}

	entries := []*entry{rootEntry}
	if opts.Tracker != nil {
		opts.Tracker.AddFile(baseNodeOverhead + uint64(len(rootEntry.n.Name)))
	}

	ld := newLoopDetector()
	rootChildCount, aborted, err := s.walkDir(ctx, opts, ld, absRoot, "", 1, &entries)
	if err != nil {
		return nil, err
	}
	rootEntry.n.ChildCount = rootChildCount
	_ = aborted // abort is represented in-band as the trailing synthetic node.

	return entries, nil
}

// walkDir reads one directory's children in sorted order and recurses. It
// returns the number of entries this directory emitted into the stream
// (spec section 4.5's Classic "(N entries)" summary) and whether the safety
// tracker aborted the scan partway through.
func (s *Scanner) walkDir(ctx context.Context, opts Options, ld *loopDetector, absDir, relDir string, depth uint32, entries *[]*entry) (int, bool, error) {
	select {
	case <-ctx.Done():
		return 0, false, ctx.Err()
	default:
	}

	if opts.Tracker != nil {
		if reason := opts.Tracker.Check(); reason != safety.ReasonNone {
			*entries = append(*entries, &entry{n: node.Node{
				Flags:       node.Flags{Aborted: true},
				AbortReason: reason.Message(),
			}})
			return 0, true, nil
		}
	}

	dirEntries, err := os.ReadDir(absDir)
	if err != nil {
		// The directory node itself was already appended by the caller
		// (root) or by this function's own previous iteration; mark it
		// inaccessible on the most recently appended matching entry.
		markInaccessible(*entries, relDir)
		return 0, false, nil
	}

	sort.Slice(dirEntries, func(i, j int) bool { return dirEntries[i].Name() < dirEntries[j].Name() })

	// Build every child candidate up front (one directory's worth of state,
	// never the whole tree) so the last-emitted index is known before any
	// of them is appended or descended into; this is what lets the Classic
	// formatter pick "└──" vs "├──" without its own lookahead buffer.
	//
	// The tracker is checked here, before each entry is enumerated (spec
	// section 4.2), not just once per directory: a single wide directory
	// must still be bounded mid-enumeration (invariant 7), not only between
	// directories.
	children := make([]childCandidate, 0, len(dirEntries))
	lastEmitted := -1
	for _, de := range dirEntries {
		if opts.Tracker != nil {
			if reason := opts.Tracker.Check(); reason != safety.ReasonNone {
				*entries = append(*entries, &entry{n: node.Node{
					Flags:       node.Flags{Aborted: true},
					AbortReason: reason.Message(),
				}})
				return 0, true, nil
			}
		}
		c := s.buildCandidate(opts, ld, absDir, relDir, depth, de)
		children = append(children, c)
		if c.valid && c.emit {
			lastEmitted = len(children) - 1
		}
	}

	emitted := 0
	for i, c := range children {
		if !c.valid {
			*entries = append(*entries, &entry{n: c.inaccessible})
			emitted++
			continue
		}

		candidate := c.node
		if i == lastEmitted {
			candidate.LastSibling = true
		}

		var appended *entry
		if c.emit {
			appended = &entry{n: candidate, absPath: c.absPath}
			if candidate.Kind == node.File && opts.Searcher != nil {
				appended.needsSearch = true
			}
			*entries = append(*entries, appended)
			emitted++
		}

		if c.descendDir {
			childCount, childAborted, err := s.walkDir(ctx, opts, ld, c.absPath, c.relPath, depth+1, entries)
			if err != nil {
				return emitted, false, err
			}
			if appended != nil {
				appended.n.ChildCount = childCount
			}
			if childAborted {
				return emitted, true, nil
			}
		} else if c.followedSymlinkDir {
			childCount, childAborted, err := s.walkDir(ctx, opts, ld, c.realPath, c.relPath, depth+1, entries)
			if err != nil {
				return emitted, false, err
			}
			if appended != nil {
				appended.n.ChildCount = childCount
			}
			if childAborted {
				return emitted, true, nil
			}
		}
	}

	return emitted, false, nil
}

// childCandidate is the fully-decided fate of one directory entry: whether
// it is emitted, descended into, or both. valid is false for an entry whose
// Info() call failed, which is recorded as an inaccessible node instead.
type childCandidate struct {
	valid              bool
	inaccessible       node.Node
	node               node.Node
	absPath            string
	relPath            string
	realPath           string
	emit               bool
	descendDir         bool
	followedSymlinkDir bool
}

func (s *Scanner) buildCandidate(opts Options, ld *loopDetector, absDir, relDir string, depth uint32, de fs.DirEntry) childCandidate {
	name := de.Name()
	relPath := name
	if relDir != "" {
		relPath = relDir + "/" + name
	}
	absPath := absDir + string(os.PathSeparator) + name

	info, err := de.Info()
	if err != nil {
		return childCandidate{inaccessible: node.Node{
			Depth:        depth,
			Name:         name,
			RelativePath: relPath,
			Flags:        node.Flags{Inaccessible: true},
		}}
	}

	kind := classify(info)
	uid, gid := ownerOf(info)

	candidate := node.Node{
		Depth:        depth,
		Kind:         kind,
		Name:         name,
		RelativePath: relPath,
		SizeBytes:    uint64(info.Size()),
		Permissions:  uint16(info.Mode().Perm()),
		UID:          uid,
		GID:          gid,
		MTime:        info.ModTime().Unix(),
	}

	if opts.Tracker != nil {
		opts.Tracker.AddFile(baseNodeOverhead + uint64(len(name)) + uint64(len(relPath)))
	}
	if opts.Registry != nil {
		opts.Registry.Observe([]byte(name))
	}
	if opts.Scorer != nil && kind == node.File {
		candidate.ImportanceScore = opts.Scorer.MatchScore(relPath)
		candidate.HasImportance = true
	}

	ignored := opts.Ignorer != nil && opts.Ignorer.IsIgnored(relPath, kind == node.Directory)
	policy := filter.IgnoredExclude
	if opts.IgnoredPolicy != nil {
		policy = *opts.IgnoredPolicy
	}

	if ignored && policy == filter.IgnoredExclude {
		return childCandidate{valid: true, node: candidate, absPath: absPath, relPath: relPath}
	}
	if ignored {
		candidate.Flags.Ignored = true
	}

	emit := true
	if kind != node.Directory && opts.Predicate != nil {
		emit = opts.Predicate.Matches(candidate)
	}
	if emit && kind != node.Directory && opts.GlobFilter != nil && opts.GlobFilter.HasPatterns() {
		emit = opts.GlobFilter.Matches(relPath)
	}

	followedSymlinkDir := false
	var realPath string
	if kind == node.Symlink && opts.FollowSymlinks {
		rp, isLoop, resolveErr := ld.resolve(absPath)
		if resolveErr == nil && !isLoop {
			if targetInfo, statErr := os.Stat(absPath); statErr == nil && targetInfo.IsDir() {
				ld.markVisited(rp)
				followedSymlinkDir = true
				realPath = rp
			}
		} else if resolveErr != nil {
			candidate.Flags.SymlinkBroken = true
		}
	}

	descendDir := kind == node.Directory && !(ignored && policy == filter.IgnoredShowBracketed)
	if kind == node.Directory {
		candidate.ChildrenExpected = descendDir
	} else if followedSymlinkDir {
		candidate.ChildrenExpected = true
	}

	return childCandidate{
		valid:              true,
		node:               candidate,
		absPath:            absPath,
		relPath:            relPath,
		realPath:           realPath,
		emit:               emit,
		descendDir:         descendDir,
		followedSymlinkDir: followedSymlinkDir,
	}
}

func markInaccessible(entries []*entry, relPath string) {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].n.RelativePath == relPath {
			entries[i].n.Flags.Inaccessible = true
			return
		}
	}
}

func classify(info fs.FileInfo) node.Kind {
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return node.Symlink
	case info.IsDir():
		return node.Directory
	default:
		return node.File
	}
}

// runSearches fills in SearchHits for every entry flagged needsSearch, using
// a bounded errgroup worker pool (spec section 4.1's content-search
// concurrency, mirrored from the teacher's parallel file-content phase).
func (s *Scanner) runSearches(ctx context.Context, opts Options, entries []*entry) error {
	if opts.Searcher == nil {
		return nil
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var limiter *rate.Limiter
	if opts.SearchRatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.SearchRatePerSecond), concurrency)
	}

	for _, e := range entries {
		if !e.needsSearch {
			continue
		}
		e := e
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return nil
				}
			}

			if int64(e.n.SizeBytes) > opts.Searcher.SizeCap() {
				return nil
			}
			isBin, err := filter.IsBinary(e.absPath)
			if err != nil || isBin {
				return nil
			}
			hits, err := opts.Searcher.Search(e.absPath)
			if err != nil {
				e.n.Flags.SearchFailed = true
				return nil
			}
			if len(hits) > 0 {
				e.n.Flags.SearchMatch = true
			}
			e.n.SearchHits = hits
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scanner: content search: %w", err)
	}
	return nil
}
