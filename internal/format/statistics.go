package format

import (
	"fmt"
	"io"

	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/sizeutil"
	"github.com/8b-is/smart-tree/internal/stats"
)

// statisticsFormatter emits only the aggregate stats block (spec section
// 4.5): it ignores every node and renders its entire output from the
// footer's Statistics value.
type statisticsFormatter struct {
	opts Options
}

func newStatisticsFormatter(opts Options) *statisticsFormatter {
	return &statisticsFormatter{opts: opts}
}

func (f *statisticsFormatter) Kind() Kind { return KindStatistics }

func (f *statisticsFormatter) WriteHeader(w io.Writer) error { return nil }

func (f *statisticsFormatter) WriteNode(w io.Writer, n node.Node) error { return nil }

func (f *statisticsFormatter) WriteFooter(w io.Writer, s stats.Statistics) error {
	fmt.Fprintf(w, "files: %d\n", s.FileCount)
	fmt.Fprintf(w, "directories: %d\n", s.DirCount)
	fmt.Fprintf(w, "symlinks: %d\n", s.SymlinkCount)
	fmt.Fprintf(w, "total size: %s\n", sizeutil.FormatBytes(int64(s.TotalBytes)))
	if s.MTimeMin != 0 || s.MTimeMax != 0 {
		fmt.Fprintf(w, "mtime range: %d - %d\n", s.MTimeMin, s.MTimeMax)
	}
	fmt.Fprintln(w, "extensions:")
	for _, ext := range sortedExtensions(s.ExtCounts) {
		label := ext
		if label == "" {
			label = "(none)"
		}
		fmt.Fprintf(w, "  %s: %d\n", label, s.ExtCounts[ext])
	}
	if len(s.Largest) > 0 {
		fmt.Fprintln(w, "largest files:")
		for _, l := range s.Largest {
			fmt.Fprintf(w, "  %s (%s)\n", l.Path, sizeutil.FormatBytes(int64(l.Size)))
		}
	}
	return nil
}
