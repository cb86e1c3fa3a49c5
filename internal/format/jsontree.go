package format

import (
	"io"

	"github.com/segmentio/encoding/json"

	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/stats"
)

// jsonNode is the wire shape of one tree node (spec section 4.5): child
// arrays are insertion-ordered, which the stream's pre-order guarantee
// gives for free.
type jsonNode struct {
	Name        string      `json:"name"`
	Kind        string      `json:"kind"`
	Size        uint64      `json:"size"`
	Permissions uint16      `json:"permissions"`
	MTime       int64       `json:"mtime"`
	Children    []*jsonNode `json:"children,omitempty"`
}

// jsonFormatter is one of the deliberate exceptions to "no formatter buffers
// the whole tree" (spec section 4.5): a nested JSON object requires
// knowing every descendant before its parent's array can close, so
// WriteNode accumulates jsonNode records -- small, fixed-size metadata
// structs, never file content -- and WriteFooter renders the single
// top-level object.
type jsonFormatter struct {
	opts    Options
	compact bool
	root    *jsonNode
	stack   []*jsonNode // path from root to the current insertion point
}

func newJSONFormatter(opts Options) *jsonFormatter {
	return &jsonFormatter{opts: opts}
}

// newJSONCompactFormatter builds the JSON-compact variant (spec section
// 4.5): the identical tree schema, single-line and with no field
// indentation, for piping large trees where JSON's pretty-printed form
// wastes bytes.
func newJSONCompactFormatter(opts Options) *jsonFormatter {
	return &jsonFormatter{opts: opts, compact: true}
}

func (f *jsonFormatter) Kind() Kind {
	if f.compact {
		return KindJSONCompact
	}
	return KindJSON
}

func (f *jsonFormatter) WriteHeader(w io.Writer) error { return nil }

func (f *jsonFormatter) WriteNode(w io.Writer, n node.Node) error {
	if n.Flags.Aborted {
		return nil
	}

	jn := &jsonNode{
		Name:        n.Name,
		Kind:        n.Kind.String(),
		Size:        n.SizeBytes,
		Permissions: n.Permissions,
		MTime:       n.MTime,
	}

	if n.IsRoot() {
		f.root = jn
		f.stack = []*jsonNode{jn}
		return nil
	}

	depth := int(n.Depth)
	if depth <= len(f.stack) {
		f.stack = f.stack[:depth]
	}
	parent := f.stack[len(f.stack)-1]
	parent.Children = append(parent.Children, jn)

	if n.ChildrenExpected {
		f.stack = append(f.stack, jn)
	}
	return nil
}

func (f *jsonFormatter) WriteFooter(w io.Writer, s stats.Statistics) error {
	if f.root == nil {
		f.root = &jsonNode{Kind: "d"}
	}
	enc := json.NewEncoder(w)
	if !f.compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(f.root)
}
