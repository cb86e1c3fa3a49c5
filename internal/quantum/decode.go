package quantum

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/stats"
	"github.com/8b-is/smart-tree/internal/token"
)

// Decoded holds everything recovered from one Quantum document.
type Decoded struct {
	Nodes      []node.Node
	Statistics *stats.Statistics // nil if the stream carried no SUMMARY_FOLLOWS block
	KeyHex     string            // the document's optional KEY: capability-flags value, "" if absent
}

// Decode parses a complete Quantum document. registry supplies resolution
// for static token ids and is mutated (via ImportDynamicTokens) with any
// TOKENS: header the document carries; pass the same registry instance the
// encoder used when decoding in-process, or a fresh registry seeded
// identically when decoding a document received from elsewhere. semantic
// must match the WriteImportance setting the Encoder was constructed with,
// since the trailing importance-score byte on file records has no in-band
// marker of its own (spec section 4.5 treats Quantum vs Quantum-Semantic as
// a stream-level mode, not a per-record one).
func Decode(data []byte, registry *token.Registry, semantic bool) (Decoded, error) {
	text := string(data)

	rest, ok := cutPrefix(text, MagicHeader)
	if !ok {
		return Decoded{}, &DecodeError{Kind: MalformedHeader, Detail: "missing MEM8_QUANTUM_V1 magic header"}
	}

	var keyHex string
	if keyLine, after, found := strings.Cut(rest, "\n"); found && strings.HasPrefix(keyLine, "KEY:") {
		keyHex = strings.TrimPrefix(keyLine, "KEY:")
		rest = after
	}

	if tokLine, after, found := strings.Cut(rest, "\n"); found && strings.HasPrefix(tokLine, "TOKENS:") {
		toks, err := parseTokensLine(tokLine)
		if err != nil {
			return Decoded{}, err
		}
		if registry != nil {
			if err := registry.ImportDynamicTokens(toks); err != nil {
				return Decoded{}, &DecodeError{Kind: MalformedHeader, Detail: err.Error()}
			}
		}
		rest = after
	}

	rest, ok = cutPrefix(rest, BeginData)
	if !ok {
		return Decoded{}, &DecodeError{Kind: MalformedHeader, Detail: "missing ---BEGIN_DATA--- marker"}
	}

	bodyStr, ok := strings.CutSuffix(rest, EndData)
	if !ok {
		return Decoded{}, &DecodeError{Kind: MalformedHeader, Detail: "missing ---END_DATA--- marker"}
	}

	decoded, err := decodeBody([]byte(bodyStr), registry, semantic)
	if err != nil {
		return decoded, err
	}
	decoded.KeyHex = keyHex
	return decoded, nil
}

func cutPrefix(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

func parseTokensLine(line string) ([]token.DynamicToken, error) {
	line = strings.TrimPrefix(line, "TOKENS:")
	if line == "" {
		return nil, nil
	}
	parts := strings.Split(line, ",")
	out := make([]token.DynamicToken, 0, len(parts))
	for _, p := range parts {
		idStr, payloadB64, found := strings.Cut(p, "=")
		if !found {
			return nil, &DecodeError{Kind: MalformedHeader, Detail: "malformed TOKENS entry: " + p}
		}
		id, err := strconv.ParseUint(idStr, 10, 16)
		if err != nil {
			return nil, &DecodeError{Kind: MalformedHeader, Detail: "malformed TOKENS id: " + idStr}
		}
		payload, err := base64.RawStdEncoding.DecodeString(payloadB64)
		if err != nil {
			return nil, &DecodeError{Kind: MalformedHeader, Detail: "malformed TOKENS payload for id " + idStr}
		}
		out = append(out, token.DynamicToken{ID: uint16(id), Payload: payload})
	}
	return out, nil
}

// decodeBody walks the binary record stream, reconstructing the pre-order
// node.Node sequence by tracking an implicit depth cursor and a stack of
// parent delta baselines, mirroring Encoder's emitTraversal/encodeRecord.
func decodeBody(body []byte, registry *token.Registry, semantic bool) (Decoded, error) {
	r := newByteReader(body)
	var out Decoded

	type ctx struct {
		perms uint16
		mtime int64
		uid   uint32
		gid   uint32
	}
	var stack []ctx
	depth := int32(-1)
	started := false

	for !r.atEnd() {
		b, peeked := r.peekByte()
		if !peeked {
			break
		}

		switch b {
		case CtrlTraverseDeeper:
			r.pos++
			depth++
			continue
		case CtrlSameLevel:
			r.pos++
			continue
		case CtrlTraverseBack:
			r.pos++
			depth--
			if len(stack) == 0 {
				return out, &DecodeError{Kind: TraversalUnbalanced, Detail: "TRAVERSE_BACK with no open directory"}
			}
			stack = stack[:len(stack)-1]
			continue
		case CtrlSummaryFollows:
			r.pos++
			s, err := decodeStatistics(r)
			if err != nil {
				return out, err
			}
			out.Statistics = &s
			continue
		}

		if !started {
			depth = 0
			started = true
		}

		parent := ctx{}
		if len(stack) > 0 {
			parent = stack[len(stack)-1]
		}

		n, isDir, err := decodeRecord(r, parent.perms, parent.mtime, parent.uid, parent.gid, uint32(depth), registry, semantic)
		if err != nil {
			return out, err
		}
		out.Nodes = append(out.Nodes, n)

		if isDir {
			stack = append(stack, ctx{perms: n.Permissions, mtime: n.MTime, uid: n.UID, gid: n.GID})
		}
	}

	return out, nil
}

func decodeRecord(r *byteReader, parentPerms uint16, parentMTime int64, parentUID, parentGID uint32, depth uint32, registry *token.Registry, semantic bool) (node.Node, bool, error) {
	flags, err := r.readByte()
	if err != nil {
		return node.Node{}, false, err
	}

	kind := flags & kindMask
	if kind == kindSummary {
		reason, err := readName(r, nil)
		if err != nil {
			return node.Node{}, false, err
		}
		return node.Node{Flags: node.Flags{Aborted: true}, AbortReason: reason}, false, nil
	}

	var n node.Node
	n.Depth = depth
	n.Permissions = parentPerms
	n.MTime = parentMTime
	n.UID = parentUID
	n.GID = parentGID

	switch kind {
	case kindDirectory:
		n.Kind = node.Directory
	case kindSymlink:
		n.Kind = node.Symlink
	default:
		n.Kind = node.File
	}

	if flags&flagSizePresent != 0 {
		size, err := readSize(r)
		if err != nil {
			return node.Node{}, false, err
		}
		n.SizeBytes = size
	}

	if flags&flagPermsDelta != 0 {
		raw, err := r.readN(2)
		if err != nil {
			return node.Node{}, false, err
		}
		delta := uint16(raw[0]) | uint16(raw[1])<<8
		n.Permissions = parentPerms ^ delta
	}

	if flags&flagMTimeDelta != 0 {
		v, err := readVarint(r)
		if err != nil {
			return node.Node{}, false, err
		}
		n.MTime = parentMTime + zigzagDecode(v)
	}

	if flags&flagUIDGIDPresent != 0 {
		raw, err := r.readN(8)
		if err != nil {
			return node.Node{}, false, err
		}
		n.UID = uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24
		n.GID = uint32(raw[4]) | uint32(raw[5])<<8 | uint32(raw[6])<<16 | uint32(raw[7])<<24
	}

	if flags&flagHasXattr != 0 {
		// No current node.Node field carries extended attributes; the
		// encoder never sets this bit. Still skip the block correctly on
		// decode so a document produced by some future xattr-aware encoder
		// does not desynchronize the rest of the stream.
		xlen, err := r.readByte()
		if err != nil {
			return node.Node{}, false, err
		}
		if _, err := r.readN(int(xlen)); err != nil {
			return node.Node{}, false, err
		}
	}

	name, err := readName(r, registry)
	if err != nil {
		return node.Node{}, false, err
	}
	n.Name = name

	if semantic && n.Kind == node.File {
		score, err := r.readByte()
		if err != nil {
			return node.Node{}, false, err
		}
		n.ImportanceScore = score
		n.HasImportance = true
	}

	return n, n.Kind == node.Directory, nil
}
