package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/sizeutil"
	"github.com/8b-is/smart-tree/internal/stats"
)

var (
	classicDirStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	classicLinkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Italic(true)
	classicSizeStyle = lipgloss.NewStyle().Faint(true)
	classicRootStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// classicFormatter renders the Unicode box-drawing tree (spec section
// 4.5). It keeps only a per-depth stack of "was this ancestor the last
// sibling" booleans -- bounded by the tree's depth, not its size -- which
// the scanner's node.Node.LastSibling field makes possible without any
// formatter-side lookahead.
type classicFormatter struct {
	opts         Options
	ancestorLast []bool
	fileCount    int
	dirCount     int
}

func newClassicFormatter(opts Options) *classicFormatter {
	return &classicFormatter{opts: opts}
}

func (f *classicFormatter) Kind() Kind { return KindClassic }

func (f *classicFormatter) WriteHeader(w io.Writer) error { return nil }

func (f *classicFormatter) WriteNode(w io.Writer, n node.Node) error {
	if n.Flags.Aborted {
		_, err := fmt.Fprintf(w, "!!! scan aborted: %s\n", n.AbortReason)
		return err
	}

	if n.IsRoot() {
		f.ancestorLast = f.ancestorLast[:0]
		label := n.Name
		if label == "" {
			label = "."
		}
		emoji := nodeEmoji(n, f.opts.NoEmoji)
		if emoji != "" {
			label = emoji + " " + label
		}
		line := f.decorate(label+"/", classicRootStyle) + fmt.Sprintf(" (%d entries)", n.ChildCount)
		_, err := fmt.Fprintln(w, line)
		// The virtual root never draws its own prefix segment: its
		// children start at an empty ancestor stack.
		return err
	}

	depth := int(n.Depth)
	if depth >= 1 && depth-1 < len(f.ancestorLast) {
		f.ancestorLast = f.ancestorLast[:depth-1]
	}

	var prefix strings.Builder
	for _, last := range f.ancestorLast {
		if last {
			prefix.WriteString("    ")
		} else {
			prefix.WriteString("│   ")
		}
	}
	connector := "├── "
	if n.LastSibling {
		connector = "└── "
	}

	line := prefix.String() + connector + f.renderLabel(n)
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}

	switch n.Kind {
	case node.File:
		f.fileCount++
	case node.Directory:
		f.dirCount++
	}

	if n.ChildrenExpected {
		f.ancestorLast = append(f.ancestorLast, n.LastSibling)
	}
	return nil
}

func (f *classicFormatter) renderLabel(n node.Node) string {
	emoji := nodeEmoji(n, f.opts.NoEmoji)
	name := n.Name
	if emoji != "" {
		name = emoji + " " + name
	}

	switch n.Kind {
	case node.Directory:
		name = f.decorate(name+"/", classicDirStyle)
		if n.Flags.Ignored {
			name = "[" + name + "]"
		}
		name += fmt.Sprintf(" (%d entries)", n.ChildCount)
		return name
	case node.Symlink:
		suffix := " -> (broken)"
		if !n.Flags.SymlinkBroken {
			suffix = ""
		}
		return f.decorate(name, classicLinkStyle) + suffix
	default:
		size := f.decorate("("+sizeutil.FormatBytes(int64(n.SizeBytes))+")", classicSizeStyle)
		label := name + " " + size
		if n.Flags.SearchMatch {
			label += " *"
		}
		if n.Flags.Inaccessible {
			label += " [inaccessible]"
		}
		return label
	}
}

func (f *classicFormatter) decorate(s string, style lipgloss.Style) string {
	if f.opts.NoColor {
		return s
	}
	return style.Render(s)
}

func (f *classicFormatter) WriteFooter(w io.Writer, s stats.Statistics) error {
	_, err := fmt.Fprintf(w, "\n%d directories, %d files, %s total\n",
		s.DirCount, s.FileCount, sizeutil.FormatBytes(int64(s.TotalBytes)))
	return err
}
