package quantum

import "github.com/8b-is/smart-tree/internal/stats"

// encodeStatistics appends a fixed binary layout of the finalized
// Statistics, written after a SUMMARY_FOLLOWS control byte:
//
//	file_count, dir_count, symlink_count   varint each
//	root_included                         1 byte (0/1)
//	total_bytes                           varint
//	mtime_min, mtime_max                   zigzag varint each
//	structural_digest                     8 bytes LE
//	ext_count (N)                         varint
//	  N * (name_len varint, name bytes, count varint)
//	largest_count (M)                     varint
//	  M * (path_len varint, path bytes, size varint)
func encodeStatistics(buf []byte, s stats.Statistics) []byte {
	buf = writeVarint(buf, s.FileCount)
	buf = writeVarint(buf, s.DirCount)
	buf = writeVarint(buf, s.SymlinkCount)
	if s.RootIncluded {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = writeVarint(buf, s.TotalBytes)
	buf = writeVarint(buf, zigzagEncode(s.MTimeMin))
	buf = writeVarint(buf, zigzagEncode(s.MTimeMax))
	buf = appendU64(buf, s.StructuralDigest)

	buf = writeVarint(buf, uint64(len(s.ExtCounts)))
	for _, ext := range sortedExtKeys(s.ExtCounts) {
		buf = writeVarint(buf, uint64(len(ext)))
		buf = append(buf, ext...)
		buf = writeVarint(buf, s.ExtCounts[ext])
	}

	buf = writeVarint(buf, uint64(len(s.Largest)))
	for _, entry := range s.Largest {
		buf = writeVarint(buf, uint64(len(entry.Path)))
		buf = append(buf, entry.Path...)
		buf = writeVarint(buf, entry.Size)
	}
	return buf
}

func sortedExtKeys(m map[string]uint64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	// Insertion sort is fine: extension counts rarely exceed a few dozen
	// distinct values per scan.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func appendU64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	for i := 0; i < 8; i++ {
		tmp[i] = byte(v >> (8 * i))
	}
	return append(buf, tmp[:]...)
}

func readU64(r *byteReader) (uint64, error) {
	raw, err := r.readN(8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(raw[i]) << (8 * i)
	}
	return v, nil
}

func decodeStatistics(r *byteReader) (stats.Statistics, error) {
	var s stats.Statistics
	var err error

	if s.FileCount, err = readVarint(r); err != nil {
		return s, err
	}
	if s.DirCount, err = readVarint(r); err != nil {
		return s, err
	}
	if s.SymlinkCount, err = readVarint(r); err != nil {
		return s, err
	}
	rootFlag, err := r.readByte()
	if err != nil {
		return s, err
	}
	s.RootIncluded = rootFlag != 0

	if s.TotalBytes, err = readVarint(r); err != nil {
		return s, err
	}
	minRaw, err := readVarint(r)
	if err != nil {
		return s, err
	}
	s.MTimeMin = zigzagDecode(minRaw)
	maxRaw, err := readVarint(r)
	if err != nil {
		return s, err
	}
	s.MTimeMax = zigzagDecode(maxRaw)
	if s.StructuralDigest, err = readU64(r); err != nil {
		return s, err
	}

	extCount, err := readVarint(r)
	if err != nil {
		return s, err
	}
	s.ExtCounts = make(map[string]uint64, extCount)
	for i := uint64(0); i < extCount; i++ {
		nameLen, err := readVarint(r)
		if err != nil {
			return s, err
		}
		nameRaw, err := r.readN(int(nameLen))
		if err != nil {
			return s, err
		}
		count, err := readVarint(r)
		if err != nil {
			return s, err
		}
		s.ExtCounts[string(nameRaw)] = count
	}

	largestCount, err := readVarint(r)
	if err != nil {
		return s, err
	}
	s.Largest = make([]stats.LargestEntry, 0, largestCount)
	for i := uint64(0); i < largestCount; i++ {
		pathLen, err := readVarint(r)
		if err != nil {
			return s, err
		}
		pathRaw, err := r.readN(int(pathLen))
		if err != nil {
			return s, err
		}
		size, err := readVarint(r)
		if err != nil {
			return s, err
		}
		s.Largest = append(s.Largest, stats.LargestEntry{Path: string(pathRaw), Size: size})
	}

	return s, nil
}
