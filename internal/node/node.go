// Package node defines Node, the single data-transfer object that flows
// through every stage of the scan + emit pipeline: the scanner produces it,
// the filter engine decides whether it survives, and the formatters consume
// it. It has zero dependencies on any other internal package so that
// scanner, filter, token, stats, and format can all import it without
// creating a cycle.
package node

// Kind identifies the filesystem entry type of a Node.
type Kind uint8

const (
	File Kind = iota
	Directory
	Symlink
)

// String returns the single-character kind code used by the Hex, JSON and
// CSV/TSV formatters ("f", "d", "s").
func (k Kind) String() string {
	switch k {
	case File:
		return "f"
	case Directory:
		return "d"
	case Symlink:
		return "s"
	default:
		return "?"
	}
}

// SearchHit records a single content-search match within a file.
type SearchHit struct {
	Line       int // 1-based line number
	Column     int // 1-based column (byte offset within the line, +1)
	ByteOffset int // 0-based byte offset from the start of the file
}

// Flags holds the boolean annotations a node can carry, as enumerated in
// spec section 3.
type Flags struct {
	Inaccessible  bool
	Ignored       bool
	SearchMatch   bool
	SymlinkBroken bool
	SearchFailed  bool
	Aborted       bool
}

// Node is one filesystem entry encountered during traversal. See spec
// section 3 for the full invariant list; the most important are:
//
//   - Nodes are emitted in depth-first pre-order.
//   - Exactly one node has Depth 0 (the scan root).
//   - RelativePath of a non-root node equals
//     parent.RelativePath + "/" + Name, or just Name for a child of the
//     root (root's RelativePath is "").
//   - Inaccessible == true implies no child nodes follow in the stream.
type Node struct {
	Depth            uint32
	Kind             Kind
	Name             string
	RelativePath     string
	SizeBytes        uint64
	Permissions      uint16
	UID              uint32
	GID              uint32
	MTime            int64
	Flags            Flags
	SearchHits       []SearchHit
	ChildrenExpected bool

	// LastSibling reports whether this node is the last entry emitted from
	// its parent directory, computed by the scanner from the directory's
	// full (already-sorted) child list at listing time. The Classic
	// formatter uses it to choose a "└──" vs "├──" connector without ever
	// buffering more than one directory level of lookahead.
	LastSibling bool

	// ChildCount is the number of entries this directory emits into the
	// stream (set only on Directory nodes whose children are enumerated),
	// computed by the scanner once the directory's listing is known so the
	// Classic formatter can render the "(N entries)" summary (spec section
	// 4.5) for a directory's own line without buffering its subtree.
	ChildCount int

	// ImportanceScore is populated only by the Quantum-Semantic pipeline
	// (spec section 4.5); it is a 0-255 heuristic score, transported as an
	// optional 1-byte token extension on file nodes. Zero means "not
	// computed" as well as "lowest importance" -- formatters that use it
	// treat an unset score identically to a computed zero score.
	ImportanceScore uint8
	HasImportance   bool

	// AbortReason is set only on the single synthetic terminal node emitted
	// when the safety tracker trips (spec section 4.2). All other fields on
	// an abort node are zero-valued except Flags.Aborted.
	AbortReason string

	// TokenCost is an optional, supplemental field populated by AI/Claude
	// formatters from the LLM token estimator (SPEC_FULL section 3). Zero
	// when not computed.
	TokenCost int
}

// IsRoot reports whether this node is the single depth-0 scan root.
func (n Node) IsRoot() bool {
	return n.Depth == 0
}

// Extension returns the lowercased file extension without a leading dot, or
// "" if the name has none. Directories and symlinks still compute an
// extension from their Name for token-registry purposes, matching the
// scanner's uniform treatment of all entry names.
func (n Node) Extension() string {
	return extensionOf(n.Name)
}

func extensionOf(name string) string {
	// Walk backwards from the end looking for the last '.' that is not the
	// first character (so ".gitignore" has no extension, matching common
	// dotfile conventions).
	for i := len(name) - 1; i > 0; i-- {
		if name[i] == '.' {
			return toLower(name[i+1:])
		}
		if name[i] == '/' {
			break
		}
	}
	return ""
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// IsHidden reports whether the basename starts with '.', the hidden-file
// convention used by the filter engine's hidden policy (spec section 4.1).
func (n Node) IsHidden() bool {
	return len(n.Name) > 0 && n.Name[0] == '.'
}
