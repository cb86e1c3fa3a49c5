package format

import (
	"fmt"
	"io"

	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/stats"
)

// mermaidFormatter renders a Mermaid "graph TD" flowchart of the tree.
// Like Classic, it needs to connect each node to its parent without
// buffering the tree: parentAtDepth holds one node ID per depth level
// currently on the active path, exactly mirroring classicFormatter's
// ancestorLast stack.
type mermaidFormatter struct {
	opts          Options
	counter       int
	parentAtDepth []string
}

func newMermaidFormatter(opts Options) *mermaidFormatter {
	return &mermaidFormatter{opts: opts}
}

func (f *mermaidFormatter) Kind() Kind { return KindMermaid }

func (f *mermaidFormatter) WriteHeader(w io.Writer) error {
	_, err := fmt.Fprintln(w, "graph TD")
	return err
}

func (f *mermaidFormatter) WriteNode(w io.Writer, n node.Node) error {
	if n.Flags.Aborted {
		return nil
	}

	id := fmt.Sprintf("n%d", f.counter)
	f.counter++

	label := n.Name
	if label == "" {
		label = "."
	}
	if _, err := fmt.Fprintf(w, "  %s[%q]\n", id, label); err != nil {
		return err
	}

	depth := int(n.Depth)
	if depth > 0 && depth-1 < len(f.parentAtDepth) {
		if _, err := fmt.Fprintf(w, "  %s --> %s\n", f.parentAtDepth[depth-1], id); err != nil {
			return err
		}
	}

	if depth < len(f.parentAtDepth) {
		f.parentAtDepth = f.parentAtDepth[:depth]
	}
	f.parentAtDepth = append(f.parentAtDepth, id)
	return nil
}

func (f *mermaidFormatter) WriteFooter(w io.Writer, s stats.Statistics) error {
	return nil
}
