package format

import (
	"io"

	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/stats"
)

// TextFormatter renders a line-oriented document from a node stream (spec
// section 4.5): WriteHeader once before the first node, WriteNode once per
// emitted node in stream order, WriteFooter once the stream -- and the
// Statistics it produced -- are final.
//
// Line-oriented formatters (Classic, Hex, CSV/TSV, Statistics, Digest)
// write each line the moment WriteNode is called and hold nothing but
// running counters between calls. JSON, AI-JSON and Relations are the
// deliberate exceptions described in their own files: they must assemble a
// nested or grouped structure, so their WriteNode accumulates lightweight per-node records
// (never file content) and the document is rendered in WriteFooter.
type TextFormatter interface {
	Kind() Kind
	WriteHeader(w io.Writer) error
	WriteNode(w io.Writer, n node.Node) error
	WriteFooter(w io.Writer, s stats.Statistics) error
}

// BinaryFormatter renders the binary formatter family (spec section 4.5):
// Quantum, Quantum-Semantic, and Claude. Nodes are accumulated into an
// internal encoder and the complete byte stream is produced once, by
// Finish, since the wire format's header/footer framing is not
// line-addressable the way the textual formats are.
type BinaryFormatter interface {
	Kind() Kind
	WriteNode(n node.Node)
	Finish(s stats.Statistics) ([]byte, error)
}

// NewText constructs the TextFormatter for a textual Kind. Calling it with
// a binary Kind is a programmer error (the caller is expected to branch on
// Kind.IsBinary first) and returns an error rather than panicking.
func NewText(k Kind, opts Options) (TextFormatter, error) {
	switch k {
	case KindClassic:
		return newClassicFormatter(opts), nil
	case KindHex:
		return newHexFormatter(opts), nil
	case KindAI:
		return newAIFormatter(opts), nil
	case KindAIJSON:
		return newAIJSONFormatter(opts), nil
	case KindJSON:
		return newJSONFormatter(opts), nil
	case KindJSONCompact:
		return newJSONCompactFormatter(opts), nil
	case KindCSV:
		return newDelimitedFormatter(opts, ','), nil
	case KindTSV:
		return newDelimitedFormatter(opts, '\t'), nil
	case KindStatistics:
		return newStatisticsFormatter(opts), nil
	case KindDigest:
		return newDigestFormatter(opts), nil
	case KindMarkdown:
		return newMarkdownFormatter(opts), nil
	case KindMermaid:
		return newMermaidFormatter(opts), nil
	case KindRelations:
		return newRelationsFormatter(opts), nil
	default:
		return nil, errUnsupportedText(k)
	}
}

// NewBinary constructs the BinaryFormatter for a binary Kind.
func NewBinary(k Kind, opts Options) (BinaryFormatter, error) {
	switch k {
	case KindQuantum:
		return newQuantumFormatter(opts, false), nil
	case KindQuantumSemantic:
		return newQuantumFormatter(opts, true), nil
	case KindClaude:
		return newClaudeFormatter(opts), nil
	default:
		return nil, errUnsupportedBinary(k)
	}
}
