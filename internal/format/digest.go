package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/stats"
)

// digestFormatter emits the single-line digest contract (spec section 6.3):
// `HASH:<16hex> F:<dec> D:<dec> S:<hex> TYPES: <ext>:<dec>( <ext>:<dec>)*`.
// This is a stable contract: changing its shape requires a version bump, so
// nothing here should be "improved" without updating that line in lockstep.
type digestFormatter struct {
	opts Options
}

func newDigestFormatter(opts Options) *digestFormatter {
	return &digestFormatter{opts: opts}
}

func (f *digestFormatter) Kind() Kind { return KindDigest }

func (f *digestFormatter) WriteHeader(w io.Writer) error { return nil }

func (f *digestFormatter) WriteNode(w io.Writer, n node.Node) error { return nil }

func (f *digestFormatter) WriteFooter(w io.Writer, s stats.Statistics) error {
	types := make([]string, 0, len(s.ExtCounts))
	for _, ext := range sortedExtensions(s.ExtCounts) {
		types = append(types, fmt.Sprintf("%s:%d", ext, s.ExtCounts[ext]))
	}
	_, err := fmt.Fprintf(w, "HASH:%016x F:%d D:%d S:%x TYPES: %s\n",
		s.StructuralDigest, s.FileCount, s.DirCount, s.TotalBytes, strings.Join(types, " "))
	return err
}
