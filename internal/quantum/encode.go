package quantum

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/stats"
	"github.com/8b-is/smart-tree/internal/token"
)

// parentContext is the delta baseline for the directory currently open on
// the traversal stack.
type parentContext struct {
	perms uint16
	mtime int64
	uid   uint32
	gid   uint32
}

// Encoder serializes a pre-order node.Node stream into the Quantum binary
// format (spec section 6.4). Semantic variant ("Quantum" vs
// "Quantum-Semantic") is controlled by WriteImportance.
type Encoder struct {
	registry        *token.Registry
	body            []byte
	stack           []parentContext
	prevDepth       int32
	started         bool
	writeImportance bool
	keyHex          string
}

// SetKey records a capability-flags value to surface as the document's
// optional "KEY:<hex>" header line (spec section 6.4). Callers typically
// pass a hex-encoded ScanSession id (SPEC_FULL section 4) so a decoder or
// log aggregator can correlate this document with the scan's diagnostic
// side-channel events; the value is opaque to the encoder itself.
func (e *Encoder) SetKey(hex string) {
	e.keyHex = hex
}

// NewEncoder constructs an Encoder. registry may be nil to disable token
// substitution (every name is then written as a literal). Set
// writeImportance for the Quantum-Semantic variant, which appends each
// file's ImportanceScore as a trailing byte.
func NewEncoder(registry *token.Registry, writeImportance bool) *Encoder {
	return &Encoder{
		registry:        registry,
		prevDepth:       -1,
		writeImportance: writeImportance,
	}
}

// Write folds one node into the body. Nodes must arrive in the canonical
// pre-order DFS order the scanner guarantees (spec section 3); Write does
// not validate this itself.
func (e *Encoder) Write(n node.Node) {
	if n.Flags.Aborted {
		e.writeAbortNode(n)
		return
	}

	depth := int32(n.Depth)
	if e.started {
		e.emitTraversal(depth)
	}
	e.started = true
	e.prevDepth = depth

	parent := parentContext{}
	if len(e.stack) > 0 {
		parent = e.stack[len(e.stack)-1]
	}

	e.body = e.encodeRecord(n, parent)

	if n.Kind == node.Directory {
		e.stack = append(e.stack, parentContext{
			perms: n.Permissions,
			mtime: n.MTime,
			uid:   n.UID,
			gid:   n.GID,
		})
	}
}

// emitTraversal appends the control byte(s) needed to move the implicit
// cursor from prevDepth to depth, per the traversal model resolved in
// SPEC_FULL section 6: a single TRAVERSE_DEEPER or SAME_LEVEL for a one-step
// move, or one TRAVERSE_BACK per level popped for a move to a shallower
// depth (the new node is then a sibling at its own depth, so no further
// control byte follows the pops).
func (e *Encoder) emitTraversal(depth int32) {
	delta := depth - e.prevDepth
	switch {
	case delta == 1:
		e.body = append(e.body, CtrlTraverseDeeper)
	case delta == 0:
		e.body = append(e.body, CtrlSameLevel)
	case delta < 0:
		for i := int32(0); i < -delta; i++ {
			e.body = append(e.body, CtrlTraverseBack)
			if len(e.stack) > 0 {
				e.stack = e.stack[:len(e.stack)-1]
			}
		}
	default:
		// A jump of more than one level deeper cannot happen from a
		// pre-order DFS stream; guard against a malformed caller by treating
		// it as a single descent rather than corrupting the stream.
		e.body = append(e.body, CtrlTraverseDeeper)
	}
}

func (e *Encoder) encodeRecord(n node.Node, parent parentContext) []byte {
	buf := e.body
	flagsPos := len(buf)
	buf = append(buf, 0) // placeholder, patched below
	flags := flagRecordMarker

	switch n.Kind {
	case node.Directory:
		flags |= kindDirectory
	case node.Symlink:
		flags |= kindSymlink
	default:
		flags |= kindFile
	}

	if n.SizeBytes != 0 {
		flags |= flagSizePresent
		buf = writeSize(buf, n.SizeBytes)
	}

	if n.Permissions != parent.perms {
		flags |= flagPermsDelta
		delta := n.Permissions ^ parent.perms
		buf = append(buf, byte(delta), byte(delta>>8))
	}

	if n.MTime != parent.mtime {
		flags |= flagMTimeDelta
		buf = writeVarint(buf, zigzagEncode(n.MTime-parent.mtime))
	}

	if n.UID != parent.uid || n.GID != parent.gid {
		flags |= flagUIDGIDPresent
		buf = appendU32(buf, n.UID)
		buf = appendU32(buf, n.GID)
	}

	buf = writeName(buf, n.Name, e.registry)

	if e.writeImportance && n.Kind == node.File {
		buf = append(buf, n.ImportanceScore)
	}

	buf[flagsPos] = flags
	return buf
}

func appendU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// writeAbortNode appends the single synthetic terminal record emitted when
// the safety tracker trips (spec section 4.2): a summary-flagged record
// whose name field carries the abort reason string verbatim.
func (e *Encoder) writeAbortNode(n node.Node) {
	buf := e.body
	buf = append(buf, flagRecordMarker|kindSummary)
	buf = writeName(buf, n.AbortReason, nil)
	e.body = buf
}

// WriteSummary appends a SUMMARY_FOLLOWS control byte and the finalized
// Statistics blob (spec section 6.4); call once, after the last node.Write.
func (e *Encoder) WriteSummary(s stats.Statistics) {
	buf := e.body
	buf = append(buf, CtrlSummaryFollows)
	buf = encodeStatistics(buf, s)
	e.body = buf
}

// Finish renders the complete Quantum document: magic header, optional
// TOKENS export header (only the dynamic tokens actually used), the binary
// body framed by BEGIN_DATA/END_DATA.
func (e *Encoder) Finish() []byte {
	var out strings.Builder
	out.WriteString(MagicHeader)

	if e.keyHex != "" {
		out.WriteString("KEY:")
		out.WriteString(e.keyHex)
		out.WriteByte('\n')
	}

	if e.registry != nil {
		if dyn := e.registry.DynamicTokens(); len(dyn) > 0 {
			out.WriteString("TOKENS:")
			sort.Slice(dyn, func(i, j int) bool { return dyn[i].ID < dyn[j].ID })
			for i, t := range dyn {
				if i > 0 {
					out.WriteByte(',')
				}
				fmt.Fprintf(&out, "%d=%s", t.ID, base64.RawStdEncoding.EncodeToString(t.Payload))
			}
			out.WriteByte('\n')
		}
	}

	out.WriteString(BeginData)
	body := out.String()
	result := make([]byte, 0, len(body)+len(e.body)+len(EndData))
	result = append(result, body...)
	result = append(result, e.body...)
	result = append(result, EndData...)
	return result
}
