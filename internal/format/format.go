// Package format implements the formatter family (spec section 4.5): the
// textual and binary renderers that turn a node.Node stream into the
// documents the CLI and the MCP surface hand back to callers. Kind is a
// closed tagged union over every supported mode; TextFormatter and
// BinaryFormatter are the two shapes a mode can take.
package format

import "fmt"

// Kind identifies one output mode. The set is closed: every mode the spec
// names has a constant here and ParseKind rejects anything else as a
// configuration error (spec section 7).
type Kind string

const (
	KindClassic         Kind = "classic"
	KindHex             Kind = "hex"
	KindAI              Kind = "ai"
	KindAIJSON          Kind = "ai-json"
	KindJSON            Kind = "json"
	KindJSONCompact     Kind = "json-compact"
	KindCSV             Kind = "csv"
	KindTSV             Kind = "tsv"
	KindStatistics      Kind = "statistics"
	KindDigest          Kind = "digest"
	KindMarkdown        Kind = "markdown"
	KindMermaid         Kind = "mermaid"
	KindRelations       Kind = "relations"
	KindQuantum         Kind = "quantum"
	KindQuantumSemantic Kind = "quantum-semantic"
	KindClaude          Kind = "claude"
)

var allKinds = []Kind{
	KindClassic, KindHex, KindAI, KindAIJSON, KindJSON, KindJSONCompact, KindCSV, KindTSV,
	KindStatistics, KindDigest, KindMarkdown, KindMermaid, KindRelations,
	KindQuantum, KindQuantumSemantic, KindClaude,
}

// IsBinary reports whether k belongs to the binary formatter family (spec
// section 4.5): Quantum, Quantum-Semantic, and Claude.
func (k Kind) IsBinary() bool {
	switch k {
	case KindQuantum, KindQuantumSemantic, KindClaude:
		return true
	default:
		return false
	}
}

// ParseKind resolves a mode name to its Kind, or reports a configuration
// error for an unrecognised one (spec section 6.1's "unsupported mode").
func ParseKind(s string) (Kind, error) {
	for _, k := range allKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("format: unsupported mode %q", s)
}
