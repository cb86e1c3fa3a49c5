package format

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/stats"
)

// relationsFormatter groups files by extension family and cross-references
// common naming patterns (spec section 4.5): "main.go" and "main_test.go"
// share a stem and are reported as related. Like JSON, this needs the full
// set of file paths before it can group them, so WriteNode accumulates
// lightweight (extension, name, path) records and the grouped report is
// rendered once in WriteFooter.
type relationsFormatter struct {
	opts     Options
	byExt    map[string][]string
	extOrder []string
	files    []relFile
}

type relFile struct {
	stem string
	name string
	path string
}

func newRelationsFormatter(opts Options) *relationsFormatter {
	return &relationsFormatter{byExt: make(map[string][]string)}
}

func (f *relationsFormatter) Kind() Kind { return KindRelations }

func (f *relationsFormatter) WriteHeader(w io.Writer) error { return nil }

func (f *relationsFormatter) WriteNode(w io.Writer, n node.Node) error {
	if n.Flags.Aborted || n.Kind != node.File {
		return nil
	}
	ext := n.Extension()
	if _, seen := f.byExt[ext]; !seen {
		f.extOrder = append(f.extOrder, ext)
	}
	f.byExt[ext] = append(f.byExt[ext], n.RelativePath)
	f.files = append(f.files, relFile{stem: stemOf(n.Name), name: n.Name, path: n.RelativePath})
	return nil
}

// stemOf strips a recognised extension and a trailing test-file marker, so
// "handler.go" and "handler_test.go" resolve to the same stem "handler".
func stemOf(name string) string {
	base := name
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	for _, suffix := range []string{"_test", ".test", "-test", "_spec", ".spec"} {
		if strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix)
		}
	}
	return base
}

func (f *relationsFormatter) WriteFooter(w io.Writer, s stats.Statistics) error {
	fmt.Fprintln(w, "## By extension")
	sort.Strings(f.extOrder)
	for _, ext := range f.extOrder {
		label := ext
		if label == "" {
			label = "(none)"
		}
		fmt.Fprintf(w, "- %s (%d):\n", label, len(f.byExt[ext]))
		paths := append([]string(nil), f.byExt[ext]...)
		sort.Strings(paths)
		for _, p := range paths {
			fmt.Fprintf(w, "    %s\n", p)
		}
	}

	groups := make(map[string][]string)
	var stemOrder []string
	for _, rf := range f.files {
		if _, seen := groups[rf.stem]; !seen {
			stemOrder = append(stemOrder, rf.stem)
		}
		groups[rf.stem] = append(groups[rf.stem], rf.path)
	}
	sort.Strings(stemOrder)

	fmt.Fprintln(w, "\n## Related by name")
	foundAny := false
	for _, stem := range stemOrder {
		paths := groups[stem]
		if len(paths) < 2 {
			continue
		}
		foundAny = true
		sort.Strings(paths)
		fmt.Fprintf(w, "- %s: %s\n", stem, strings.Join(paths, ", "))
	}
	if !foundAny {
		fmt.Fprintln(w, "(none)")
	}
	return nil
}
