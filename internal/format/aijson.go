package format

import (
	"io"

	"github.com/segmentio/encoding/json"

	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/sizeutil"
	"github.com/8b-is/smart-tree/internal/stats"
	"github.com/8b-is/smart-tree/internal/tokenizer"
)

// aiJSONDocument is the wire shape of the AI-JSON formatter (spec section
// 4.5): the AI payload wrapped as a single JSON object.
type aiJSONDocument struct {
	Version    string           `json:"version"`
	Context    string           `json:"context"`
	Hash       string           `json:"hash"`
	HexTree    []string         `json:"hex_tree"`
	Statistics aiJSONStatistics `json:"statistics"`
	TokenCost  int              `json:"token_cost,omitempty"`
}

type aiJSONStatistics struct {
	Files      uint64            `json:"files"`
	Dirs       uint64            `json:"dirs"`
	Symlinks   uint64            `json:"symlinks"`
	TotalBytes uint64            `json:"total_bytes"`
	MTimeMin   int64             `json:"mtime_min"`
	MTimeMax   int64             `json:"mtime_max"`
	ExtCounts  map[string]uint64 `json:"ext_counts"`
}

const aiJSONVersion = "1"

// aiJSONFormatter accumulates hex lines and a single top-level JSON object
// is written in WriteFooter -- the same deliberate "assemble once emission
// is complete" exception documented on the JSON formatter, since the whole
// point of this mode is one parseable document, not a streamed line log.
type aiJSONFormatter struct {
	opts    Options
	context string
	lines   []string
}

func newAIJSONFormatter(opts Options) *aiJSONFormatter {
	return &aiJSONFormatter{opts: opts}
}

func (f *aiJSONFormatter) Kind() Kind { return KindAIJSON }

func (f *aiJSONFormatter) WriteHeader(w io.Writer) error {
	f.context = string(sizeutil.DetectProjectType(f.opts.Root))
	return nil
}

func (f *aiJSONFormatter) WriteNode(w io.Writer, n node.Node) error {
	f.lines = append(f.lines, hexLine(n))
	return nil
}

func (f *aiJSONFormatter) WriteFooter(w io.Writer, s stats.Statistics) error {
	doc := aiJSONDocument{
		Version: aiJSONVersion,
		Context: f.context,
		Hash:    hexUint64(s.StructuralDigest),
		HexTree: f.lines,
		Statistics: aiJSONStatistics{
			Files:      s.FileCount,
			Dirs:       s.DirCount,
			Symlinks:   s.SymlinkCount,
			TotalBytes: s.TotalBytes,
			MTimeMin:   s.MTimeMin,
			MTimeMax:   s.MTimeMax,
			ExtCounts:  s.ExtCounts,
		},
	}
	if cost, ok := f.estimateTokens(); ok {
		doc.TokenCost = cost
	}

	enc := json.NewEncoder(w)
	return enc.Encode(doc)
}

func (f *aiJSONFormatter) estimateTokens() (int, bool) {
	if f.opts.TokenizerName == "" {
		return 0, false
	}
	tok, err := tokenizer.NewTokenizer(f.opts.TokenizerName)
	if err != nil {
		return 0, false
	}
	total := 0
	for _, l := range f.lines {
		total += tok.Count(l)
	}
	return total, true
}
