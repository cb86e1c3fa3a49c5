package format

import (
	"fmt"
	"io"

	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/stats"
)

// hexFormatter renders the fixed-width hex columns (spec section 4.5):
// depth perms uid gid size_hex mtime_hex kind name, one node per line, no
// indentation. It is the base the AI and AI-JSON formatters build on.
type hexFormatter struct {
	opts Options
}

func newHexFormatter(opts Options) *hexFormatter {
	return &hexFormatter{opts: opts}
}

func (f *hexFormatter) Kind() Kind { return KindHex }

func (f *hexFormatter) WriteHeader(w io.Writer) error { return nil }

// hexLine renders one node to the fixed-column hex line shared by Hex, AI,
// and AI-JSON. Hex is lowercase with no "0x" prefix and no leading zeros
// (spec section 4.5's "Common rules").
func hexLine(n node.Node) string {
	if n.Flags.Aborted {
		return fmt.Sprintf("ABORT %s", n.AbortReason)
	}
	return fmt.Sprintf("%x %x %x %x %x %x %s %s",
		n.Depth, n.Permissions, n.UID, n.GID, n.SizeBytes, n.MTime, n.Kind.String(), n.Name)
}

func (f *hexFormatter) WriteNode(w io.Writer, n node.Node) error {
	_, err := fmt.Fprintln(w, hexLine(n))
	return err
}

func (f *hexFormatter) WriteFooter(w io.Writer, s stats.Statistics) error {
	if _, err := io.WriteString(w, renderStatsBlock(s)); err != nil {
		return err
	}
	_, err := io.WriteString(w, "END_AI\n")
	return err
}

// renderStatsBlock renders the shared STATS block appended by Hex and AI.
func renderStatsBlock(s stats.Statistics) string {
	out := "STATS\n"
	out += fmt.Sprintf("files:%x dirs:%x symlinks:%x bytes:%x\n", s.FileCount, s.DirCount, s.SymlinkCount, s.TotalBytes)
	out += fmt.Sprintf("mtime_min:%x mtime_max:%x digest:%x\n", s.MTimeMin, s.MTimeMax, s.StructuralDigest)
	for _, ext := range sortedExtensions(s.ExtCounts) {
		out += fmt.Sprintf("ext:%s:%x\n", ext, s.ExtCounts[ext])
	}
	for _, l := range s.Largest {
		out += fmt.Sprintf("largest:%s:%x\n", l.Path, l.Size)
	}
	return out
}
