package format

import (
	"fmt"
	"sort"
)

// sortedExtensions returns the keys of an extension-count map in stable
// (lexical) order, so every formatter that walks it produces deterministic
// output for identical inputs (spec section 4.5's "Common rules").
func sortedExtensions(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// hexUint64 renders v as lowercase hex with no "0x" prefix (spec section
// 4.5's "Common rules").
func hexUint64(v uint64) string {
	return fmt.Sprintf("%x", v)
}
