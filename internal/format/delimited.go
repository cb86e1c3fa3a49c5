package format

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/stats"
)

// delimitedColumns are the CSV/TSV columns (spec section 4.5):
// path,name,kind,size,permissions,mtime,uid,gid.
var delimitedColumns = []string{"path", "name", "kind", "size", "permissions", "mtime", "uid", "gid"}

// delimitedFormatter renders CSV or TSV depending on the comma rune passed
// to newDelimitedFormatter, reusing encoding/csv for both since csv.Writer
// already generalises over the field separator.
type delimitedFormatter struct {
	opts Options
	kind Kind
	w    *csv.Writer
	buf  io.Writer
}

func newDelimitedFormatter(opts Options, comma rune) *delimitedFormatter {
	k := KindCSV
	if comma == '\t' {
		k = KindTSV
	}
	return &delimitedFormatter{opts: opts, kind: k}
}

func (f *delimitedFormatter) Kind() Kind { return f.kind }

func (f *delimitedFormatter) comma() rune {
	if f.kind == KindTSV {
		return '\t'
	}
	return ','
}

func (f *delimitedFormatter) writer(w io.Writer) *csv.Writer {
	if f.w == nil || f.buf != w {
		f.w = csv.NewWriter(w)
		f.w.Comma = f.comma()
		f.buf = w
	}
	return f.w
}

func (f *delimitedFormatter) WriteHeader(w io.Writer) error {
	cw := f.writer(w)
	if err := cw.Write(delimitedColumns); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func (f *delimitedFormatter) WriteNode(w io.Writer, n node.Node) error {
	if n.Flags.Aborted {
		return nil
	}
	cw := f.writer(w)
	record := []string{
		n.RelativePath,
		n.Name,
		n.Kind.String(),
		strconv.FormatUint(n.SizeBytes, 10),
		strconv.FormatUint(uint64(n.Permissions), 8),
		strconv.FormatInt(n.MTime, 10),
		strconv.FormatUint(uint64(n.UID), 10),
		strconv.FormatUint(uint64(n.GID), 10),
	}
	if err := cw.Write(record); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func (f *delimitedFormatter) WriteFooter(w io.Writer, s stats.Statistics) error {
	return nil
}
