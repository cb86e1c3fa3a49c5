package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/sizeutil"
	"github.com/8b-is/smart-tree/internal/stats"
)

// markdownFormatter renders the tree as a Markdown nested list, one node
// per line indented two spaces per depth level (spec section 4.5's
// "rendered from the same stream").
type markdownFormatter struct {
	opts Options
}

func newMarkdownFormatter(opts Options) *markdownFormatter {
	return &markdownFormatter{opts: opts}
}

func (f *markdownFormatter) Kind() Kind { return KindMarkdown }

func (f *markdownFormatter) WriteHeader(w io.Writer) error {
	label := f.opts.Root
	if label == "" {
		label = "."
	}
	_, err := fmt.Fprintf(w, "# %s\n\n", label)
	return err
}

func (f *markdownFormatter) WriteNode(w io.Writer, n node.Node) error {
	if n.Flags.Aborted {
		_, err := fmt.Fprintf(w, "> scan aborted: %s\n", n.AbortReason)
		return err
	}
	if n.IsRoot() {
		return nil
	}
	indent := strings.Repeat("  ", int(n.Depth)-1)
	label := n.Name
	if n.Kind == node.Directory {
		label += "/"
	} else {
		label = fmt.Sprintf("%s (%s)", label, sizeutil.FormatBytes(int64(n.SizeBytes)))
	}
	_, err := fmt.Fprintf(w, "%s- %s\n", indent, label)
	return err
}

func (f *markdownFormatter) WriteFooter(w io.Writer, s stats.Statistics) error {
	_, err := fmt.Fprintf(w, "\n%d directories, %d files, %s total\n",
		s.DirCount, s.FileCount, sizeutil.FormatBytes(int64(s.TotalBytes)))
	return err
}
