// Package stats implements the Statistics Aggregator (spec section 3/9):
// running tallies of file/dir/symlink counts, total size, per-extension
// counts, a bounded largest-N list, mtime range, and the order-sensitive
// structural digest used for change detection.
package stats

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/8b-is/smart-tree/internal/node"
)

// LargestEntry is one entry in the bounded largest-files list.
type LargestEntry struct {
	Path string
	Size uint64
}

// Statistics is the accumulated, finalized tally for one scan. See spec
// section 3 for field semantics. DirCount excludes the root directory node
// (SPEC_FULL section 6's resolution of the spec's open question); RootIncluded
// records whether a root node was in fact emitted, so
// FileCount + DirCount + SymlinkCount + (1 if RootIncluded else 0) is always
// the total node count across every formatter.
type Statistics struct {
	FileCount    uint64
	DirCount     uint64
	SymlinkCount uint64
	RootIncluded bool
	TotalBytes   uint64
	ExtCounts    map[string]uint64
	Largest      []LargestEntry
	MTimeMin     int64
	MTimeMax     int64
	mtimeSeen    bool

	// EstimatedLLMTokens is populated only by the AI/Claude formatters via
	// the tiktoken wiring described in SPEC_FULL section 3; zero otherwise.
	EstimatedLLMTokens int

	StructuralDigest uint64
}

// Aggregator accumulates Statistics from a node stream. It is owned
// exclusively by the orchestrator goroutine (spec section 5's
// shared-resource policy: "workers do not touch it"). Observe, Finalize and
// SetEstimatedLLMTokens each take mu, so a call from another goroutine is
// also safe.
type Aggregator struct {
	mu         sync.Mutex
	stats      Statistics
	largestCap int
	digest     *xxh3.Hasher
	scratch    []byte
}

// DefaultLargestCap is the default bound on the largest-files list.
const DefaultLargestCap = 10

// NewAggregator constructs an empty Aggregator. largestCap <= 0 uses
// DefaultLargestCap.
func NewAggregator(largestCap int) *Aggregator {
	if largestCap <= 0 {
		largestCap = DefaultLargestCap
	}
	return &Aggregator{
		stats:      Statistics{ExtCounts: make(map[string]uint64)},
		largestCap: largestCap,
		digest:     xxh3.New(),
		scratch:    make([]byte, 0, 64),
	}
}

// Observe folds one emitted node into the running tallies. It must be
// called in the exact order nodes are emitted to the formatter, since the
// structural digest is order-sensitive (spec section 3).
func (a *Aggregator) Observe(n node.Node) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n.Flags.Aborted {
		return // the synthetic abort node does not participate in tallies.
	}

	switch n.Kind {
	case node.File:
		a.stats.FileCount++
		a.stats.TotalBytes += n.SizeBytes
		a.stats.ExtCounts[n.Extension()]++
		a.observeLargest(n)
	case node.Directory:
		if n.IsRoot() {
			a.stats.RootIncluded = true
		} else {
			a.stats.DirCount++
		}
	case node.Symlink:
		a.stats.SymlinkCount++
	}

	if !a.stats.mtimeSeen {
		a.stats.MTimeMin, a.stats.MTimeMax = n.MTime, n.MTime
		a.stats.mtimeSeen = true
	} else {
		if n.MTime < a.stats.MTimeMin {
			a.stats.MTimeMin = n.MTime
		}
		if n.MTime > a.stats.MTimeMax {
			a.stats.MTimeMax = n.MTime
		}
	}

	a.mixDigest(n)
}

func (a *Aggregator) observeLargest(n node.Node) {
	entry := LargestEntry{Path: n.RelativePath, Size: n.SizeBytes}
	a.stats.Largest = append(a.stats.Largest, entry)
	sort.Slice(a.stats.Largest, func(i, j int) bool {
		return a.stats.Largest[i].Size > a.stats.Largest[j].Size
	})
	if len(a.stats.Largest) > a.largestCap {
		a.stats.Largest = a.stats.Largest[:a.largestCap]
	}
}

// mixDigest folds (depth, kind, name, size, mtime) into the running xxh3
// hash, in a fixed binary layout so the digest is deterministic across
// runs and platforms (spec section 3's "must be order-sensitive and stable
// across runs on unchanged inputs").
func (a *Aggregator) mixDigest(n node.Node) {
	buf := a.scratch[:0]
	var tmp [8]byte

	binary.LittleEndian.PutUint32(tmp[:4], n.Depth)
	buf = append(buf, tmp[:4]...)

	buf = append(buf, byte(n.Kind))

	binary.LittleEndian.PutUint64(tmp[:], n.SizeBytes)
	buf = append(buf, tmp[:]...)

	binary.LittleEndian.PutUint64(tmp[:], uint64(n.MTime))
	buf = append(buf, tmp[:]...)

	buf = append(buf, n.Name...)
	buf = append(buf, 0) // name terminator, so "ab"+"" and "a"+"b" never collide.

	a.digest.Write(buf)
	a.scratch = buf[:0]
}

// Finalize returns the accumulated Statistics including the final
// structural digest. Safe to call once the node stream has ended; calling
// it mid-stream returns a valid but incomplete snapshot.
// Finalize returns the accumulated Statistics. digestSeed, when non-zero, is
// mixed into the structural digest after every observed node (per
// token.Registry.StructuralHashSeed, read once the scan's token registry has
// seen every promotion it is going to see) so the digest also reflects which
// adaptive token dictionary produced it; zero for a purely-static registry,
// which keeps the digest stable for static-only scans (spec section 8
// property 5).
func (a *Aggregator) Finalize(digestSeed uint64) Statistics {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := a.stats
	out.ExtCounts = make(map[string]uint64, len(a.stats.ExtCounts))
	for k, v := range a.stats.ExtCounts {
		out.ExtCounts[k] = v
	}
	out.Largest = append([]LargestEntry(nil), a.stats.Largest...)
	if digestSeed != 0 {
		var seedBuf [8]byte
		binary.LittleEndian.PutUint64(seedBuf[:], digestSeed)
		a.digest.Write(seedBuf[:])
	}
	out.StructuralDigest = a.digest.Sum64()
	return out
}

// SetEstimatedLLMTokens records the supplemental tiktoken-derived estimate
// for the rendered document (SPEC_FULL section 3); called by the AI/Claude
// formatters after rendering completes.
func (a *Aggregator) SetEstimatedLLMTokens(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.EstimatedLLMTokens = n
}
