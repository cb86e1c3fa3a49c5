package filter

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/8b-is/smart-tree/internal/node"
)

// BinaryDetectionBytes is the number of leading bytes inspected for a NUL
// byte when classifying a file as binary, matching git's own heuristic.
const BinaryDetectionBytes = 8192

// DefaultSearchSizeCap is the maximum file size, in bytes, that the content
// searcher will read. Larger files are skipped per spec section 4.1.
const DefaultSearchSizeCap int64 = 10 * 1024 * 1024

// Searcher scans file contents for a substring or regular expression match
// and records SearchHits. A Searcher is immutable after construction and
// safe for concurrent use by multiple scanner workers.
type Searcher struct {
	pattern  string
	re       *regexp2.Regexp
	literal  bool
	sizeCap  int64
	only     bool
}

// SearcherOptions configures a Searcher.
type SearcherOptions struct {
	// Pattern is either a plain substring (Literal == true) or a regular
	// expression compiled with regexp2, which supports backreferences and
	// lookaround beyond what Go's stdlib RE2 engine allows -- useful for
	// content-search patterns more expressive than filename matching needs.
	Pattern string
	Literal bool
	// SizeCap overrides DefaultSearchSizeCap when non-zero.
	SizeCap int64
	// Only, when true, means non-matching files are elided from the
	// formatter's stream (spec section 4.1's search_only flag). Scaffolding
	// directories are still emitted regardless of this flag; Only is
	// informational here and enforced by the scanner.
	Only bool
}

// NewSearcher compiles opts into a Searcher. A malformed regex pattern is a
// Configuration error.
func NewSearcher(opts SearcherOptions) (*Searcher, error) {
	s := &Searcher{
		pattern: opts.Pattern,
		literal: opts.Literal,
		sizeCap: opts.SizeCap,
		only:    opts.Only,
	}
	if s.sizeCap <= 0 {
		s.sizeCap = DefaultSearchSizeCap
	}
	if !opts.Literal {
		re, err := regexp2.Compile(opts.Pattern, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("filter: invalid search pattern %q: %w", opts.Pattern, err)
		}
		s.re = re
	}
	return s, nil
}

// OnlyMatches reports whether non-matching files should be elided from the stream.
func (s *Searcher) OnlyMatches() bool {
	return s.only
}

// SizeCap returns the configured maximum searchable file size in bytes.
func (s *Searcher) SizeCap() int64 {
	return s.sizeCap
}

// IsBinary reports whether the file at path looks binary, using a NUL-byte
// heuristic over the first BinaryDetectionBytes of the file.
func IsBinary(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("filter: opening %s for binary detection: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, BinaryDetectionBytes)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		// EOF on an empty file is not an error condition here.
		return false, nil
	}
	return bytes.IndexByte(buf[:n], 0) != -1, nil
}

// Search reads the file at absPath and records every match as a
// node.SearchHit. Search does not check the size cap or binary content
// itself: callers check SizeCap and IsBinary first, as the scanner does, so
// that "not searched" stays distinct from "searched, zero hits".
func (s *Searcher) Search(absPath string) ([]node.SearchHit, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("filter: opening %s for search: %w", absPath, err)
	}
	defer f.Close()

	var hits []node.SearchHit
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	byteOffset := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if s.literal {
			idx := 0
			for {
				pos := strings.Index(line[idx:], s.pattern)
				if pos < 0 {
					break
				}
				col := idx + pos + 1
				hits = append(hits, node.SearchHit{
					Line:       lineNo,
					Column:     col,
					ByteOffset: byteOffset + idx + pos,
				})
				idx += pos + len(s.pattern)
				if s.pattern == "" {
					break
				}
			}
		} else {
			m, merr := s.re.FindStringMatch(line)
			for m != nil && merr == nil {
				hits = append(hits, node.SearchHit{
					Line:       lineNo,
					Column:     m.Index + 1,
					ByteOffset: byteOffset + m.Index,
				})
				m, merr = s.re.FindNextMatch(m)
			}
		}

		byteOffset += len(line) + 1 // +1 for the newline consumed by Scan.
	}
	if err := scanner.Err(); err != nil {
		return hits, fmt.Errorf("filter: reading %s for search: %w", absPath, err)
	}

	return hits, nil
}
