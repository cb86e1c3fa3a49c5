package quantum

import "encoding/binary"

// writeSize appends the variable-width size encoding (spec section 6.4):
//
//	0x00-0xFD           literal value 0-253
//	0xFE + 2 bytes LE   value 254-65535
//	0xFF 0x00 + 4 bytes LE
//	0xFF 0x01 + 8 bytes LE
func writeSize(buf []byte, v uint64) []byte {
	switch {
	case v <= 0xFD:
		return append(buf, byte(v))
	case v <= 0xFFFF:
		buf = append(buf, 0xFE)
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], uint16(v))
		return append(buf, tmp[:]...)
	case v <= 0xFFFFFFFF:
		buf = append(buf, 0xFF, 0x00)
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(v))
		return append(buf, tmp[:]...)
	default:
		buf = append(buf, 0xFF, 0x01)
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], v)
		return append(buf, tmp[:]...)
	}
}

// readSize is the inverse of writeSize.
func readSize(r *byteReader) (uint64, error) {
	b, err := r.readByte()
	if err != nil {
		return 0, err
	}
	switch {
	case b <= 0xFD:
		return uint64(b), nil
	case b == 0xFE:
		raw, err := r.readN(2)
		if err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(raw)), nil
	default: // 0xFF
		width, err := r.readByte()
		if err != nil {
			return 0, err
		}
		switch width {
		case 0x00:
			raw, err := r.readN(4)
			if err != nil {
				return 0, err
			}
			return uint64(binary.LittleEndian.Uint32(raw)), nil
		case 0x01:
			raw, err := r.readN(8)
			if err != nil {
				return 0, err
			}
			return binary.LittleEndian.Uint64(raw), nil
		default:
			return 0, &DecodeError{Kind: MalformedHeader, Detail: "unrecognized size-width byte"}
		}
	}
}

// zigzag maps a signed int64 onto an unsigned value so small magnitudes
// (positive or negative) both encode short, for mtime deltas.
func zigzagEncode(n int64) uint64 {
	return uint64((n << 1) ^ (n >> 63))
}

func zigzagDecode(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// writeVarint appends a ULEB128-encoded value.
func writeVarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

func readVarint(r *byteReader) (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift > 63 {
			return 0, &DecodeError{Kind: MalformedHeader, Detail: "varint too long"}
		}
	}
}
