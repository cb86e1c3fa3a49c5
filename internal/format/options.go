package format

import "github.com/8b-is/smart-tree/internal/token"

// Options configures a single formatter instance. Root is used only for
// display (e.g. the AI formatter's CONTEXT preamble); filtering has already
// happened upstream by the time a node reaches a formatter.
type Options struct {
	Root string

	// NoColor and NoEmoji mirror the NO_COLOR / NO_EMOJI environment
	// variables (spec section 6.2); the formatter package itself never
	// reads the environment, so the caller (internal/core) decides these.
	NoColor bool
	NoEmoji bool

	// TokenizerName selects the LLM tokenizer used by the AI and Claude
	// formatters' supplemental token-cost estimate (SPEC_FULL section 3).
	// Empty disables the estimate.
	TokenizerName string

	// Registry backs the Quantum / Quantum-Semantic formatters' name
	// tokenization (spec section 4.7). nil means every name is encoded as
	// a literal.
	Registry *token.Registry

	// SessionIDHex is the hex-encoded ScanSession id (SPEC_FULL section 4)
	// the Quantum / Quantum-Semantic formatters surface as the document's
	// optional KEY: capability line (spec section 6.4), letting a decoder or
	// log aggregator correlate a scan's diagnostics with its output. Empty
	// omits the line entirely.
	SessionIDHex string
}
