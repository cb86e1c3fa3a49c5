// Package quantum implements the Quantum binary codec (spec section 6.4)
// and its decoder (spec section 4.7): a compact binary tree serialization
// with bitfield-flagged node records, parent-relative deltas, a 16-bit
// token dictionary, and traversal control bytes that let a flat pre-order
// node stream stand in for an implicit directory tree.
package quantum

// Traversal control bytes (spec section 6.4).
const (
	CtrlSameLevel      byte = 0x0B // VT
	CtrlTraverseDeeper byte = 0x0E // SO
	CtrlTraverseBack   byte = 0x0F // SI
	CtrlSummaryFollows byte = 0x0C // FF
	ctrlEscape         byte = 0x1B
)

// Per-node record flag bits.
//
// flagRecordMarker is forced on in every record's flags byte. The four
// traversal control bytes (0x0B, 0x0C, 0x0E, 0x0F) are all below 0x10, so
// forcing bit 7 guarantees a flags byte is always >= 0x80 and can never be
// mistaken for a control byte by the body scanner in decodeBody -- without
// it, an ordinary combination of the other flag bits could legitimately
// equal e.g. 0x0C (a file record with size + perms-delta, nothing else) and corrupt
// the traversal cursor.
//
// Node kind occupies two bits rather than one-bit-per-kind, since
// file/directory/symlink/summary are mutually exclusive states; this also
// keeps the eight bits exactly full once the marker bit is accounted for.
const (
	kindFile      byte = 0
	kindDirectory byte = 1
	kindSymlink   byte = 2
	kindSummary   byte = 3

	kindMask byte = 0x03

	flagSizePresent   byte = 1 << 2
	flagPermsDelta    byte = 1 << 3
	flagMTimeDelta    byte = 1 << 4
	flagUIDGIDPresent byte = 1 << 5
	flagHasXattr      byte = 1 << 6
	flagRecordMarker  byte = 1 << 7
)

// Magic header/footer lines (spec section 6.4).
const (
	MagicHeader  = "MEM8_QUANTUM_V1:\n"
	BeginData    = "---BEGIN_DATA---\n"
	EndData      = "---END_DATA---\n"
)

// escapedBytes is the set of body bytes that must be escaped wherever they
// appear inside a name literal or xattr block, so they are never confused
// with a traversal control byte while scanning the body.
var escapedBytes = map[byte]bool{
	CtrlSameLevel:      true,
	CtrlSummaryFollows: true,
	CtrlTraverseDeeper: true,
	CtrlTraverseBack:   true,
	ctrlEscape:         true,
}

func needsEscape(b byte) bool {
	return escapedBytes[b]
}
