package format

import (
	"fmt"
	"io"

	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/sizeutil"
	"github.com/8b-is/smart-tree/internal/stats"
	"github.com/8b-is/smart-tree/internal/tokenizer"
)

// aiFormatter wraps the hex line format with a CONTEXT preamble (detected
// project type) and a HASH line (structural digest), per spec section 4.5.
// It additionally estimates the LLM token cost of its own rendered output
// (SPEC_FULL section 3's tiktoken wiring), which is not part of spec.md's
// literal scope but is the natural supplemental feature for an
// "AI-oriented" formatter.
type aiFormatter struct {
	opts  Options
	lines []string // accumulated so the token estimate can run over the whole document
}

func newAIFormatter(opts Options) *aiFormatter {
	return &aiFormatter{opts: opts}
}

func (f *aiFormatter) Kind() Kind { return KindAI }

func (f *aiFormatter) WriteHeader(w io.Writer) error {
	projType := sizeutil.DetectProjectType(f.opts.Root)
	line := fmt.Sprintf("CONTEXT:%s", projType)
	f.lines = append(f.lines, line)
	_, err := fmt.Fprintln(w, line)
	return err
}

func (f *aiFormatter) WriteNode(w io.Writer, n node.Node) error {
	line := hexLine(n)
	f.lines = append(f.lines, line)
	_, err := fmt.Fprintln(w, line)
	return err
}

func (f *aiFormatter) WriteFooter(w io.Writer, s stats.Statistics) error {
	hashLine := fmt.Sprintf("HASH:%x", s.StructuralDigest)
	f.lines = append(f.lines, hashLine)
	if _, err := fmt.Fprintln(w, hashLine); err != nil {
		return err
	}

	if cost, ok := f.estimateTokens(); ok {
		if _, err := fmt.Fprintf(w, "TOKEN_COST:%d\n", cost); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(w, renderStatsBlock(s)); err != nil {
		return err
	}
	_, err := io.WriteString(w, "END_AI\n")
	return err
}

// estimateTokens runs the configured tokenizer over the accumulated
// document text. ok is false when no tokenizer was configured.
func (f *aiFormatter) estimateTokens() (int, bool) {
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
