package format

import (
	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/quantum"
	"github.com/8b-is/smart-tree/internal/stats"
)

// quantumFormatter adapts internal/quantum's Encoder to the BinaryFormatter
// interface. semantic selects the Quantum-Semantic variant, which asks the
// encoder to also write each file's importance-score extension byte (spec
// section 4.5).
type quantumFormatter struct {
	kind Kind
	enc  *quantum.Encoder
}

func newQuantumFormatter(opts Options, semantic bool) *quantumFormatter {
	k := KindQuantum
	if semantic {
		k = KindQuantumSemantic
	}
	enc := quantum.NewEncoder(opts.Registry, semantic)
	if opts.SessionIDHex != "" {
		enc.SetKey(opts.SessionIDHex)
	}
	return &quantumFormatter{
		kind: k,
		enc:  enc,
	}
}

func (f *quantumFormatter) Kind() Kind { return f.kind }

func (f *quantumFormatter) WriteNode(n node.Node) {
	f.enc.Write(n)
}

func (f *quantumFormatter) Finish(s stats.Statistics) ([]byte, error) {
	f.enc.WriteSummary(s)
	return f.enc.Finish(), nil
}
