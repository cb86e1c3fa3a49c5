package format

import (
	"github.com/segmentio/encoding/json"

	"github.com/8b-is/smart-tree/internal/compress"
	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/quantum"
	"github.com/8b-is/smart-tree/internal/stats"
)

const claudeEnvelopeFormat = "quantum-base64"

// claudeFormatter pipes the Quantum byte stream through the shared
// compression envelope (spec section 4.5): zlib, base64, and a small JSON
// wrapper carrying the original/compressed sizes.
type claudeFormatter struct {
	enc *quantum.Encoder
}

func newClaudeFormatter(opts Options) *claudeFormatter {
	return &claudeFormatter{enc: quantum.NewEncoder(opts.Registry, false)}
}

func (f *claudeFormatter) Kind() Kind { return KindClaude }

func (f *claudeFormatter) WriteNode(n node.Node) {
	f.enc.Write(n)
}

func (f *claudeFormatter) Finish(s stats.Statistics) ([]byte, error) {
	f.enc.WriteSummary(s)
	raw := f.enc.Finish()

	env, err := compress.NewEnvelope(claudeEnvelopeFormat, raw)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}
