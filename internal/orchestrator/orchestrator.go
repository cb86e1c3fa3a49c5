// Package orchestrator implements the Streaming Orchestrator (spec section
// 4.6): it drives scan -> format, owns the Statistics Aggregator
// exclusively, and emits a complete, closable document for every formatter
// even when the scan itself was cut short by the safety tracker or by
// cancellation.
//
// Filtering (ignore rules, the name/size/date predicate, the glob filter)
// already happens inside internal/scanner rather than as its own pipeline
// stage here: the scanner's per-directory decision already needs the same
// ignore/predicate state a separate filter stage would have to be handed a
// second time, and splitting it out would mean re-walking or re-buffering
// the same node to apply a second filter pass. What the orchestrator owns
// is exactly what spec section 5's shared-resource policy assigns to "the
// orchestrator thread": the statistics aggregator and the single-writer
// output sink. This merge is recorded as a deliberate simplification.
package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/segmentio/encoding/json"

	"github.com/8b-is/smart-tree/internal/compress"
	"github.com/8b-is/smart-tree/internal/format"
	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/scanner"
	"github.com/8b-is/smart-tree/internal/stats"
	"github.com/8b-is/smart-tree/internal/token"
)

// compressedEnvelopeFormat names the generic --compress wrapper's format
// field (spec section 6.1), distinct from the Claude formatter's own
// "quantum-base64" envelope.
const compressedEnvelopeFormat = "zlib-base64"

// Orchestrator drives one scan-to-output run.
type Orchestrator struct {
	scanner *scanner.Scanner
}

// New constructs an Orchestrator.
func New() *Orchestrator {
	return &Orchestrator{scanner: scanner.New()}
}

// Options configures one Run: the formatter to use, how the statistics
// aggregator is sized, and whether the textual output should be wrapped in
// the generic compression envelope.
type Options struct {
	FormatKind     format.Kind
	FormatOptions  format.Options
	LargestCap     int
	CompressOutput bool
}

// Run performs one scan, drives the chosen formatter over its node stream,
// and writes the rendered document to w. CompressOutput has no effect on
// the binary formatter family (Quantum, Quantum-Semantic carry no envelope
// by design; Claude carries its own quantum-base64 envelope already).
func (o *Orchestrator) Run(ctx context.Context, w io.Writer, scanOpts scanner.Options, opts Options) error {
	nodes, errc := o.scanner.Scan(ctx, scanOpts)

	agg := stats.NewAggregator(opts.LargestCap)

	if opts.FormatKind.IsBinary() {
		bf, err := format.NewBinary(opts.FormatKind, opts.FormatOptions)
		if err != nil {
			return err
		}
		return o.runBinary(ctx, nodes, errc, bf, agg, scanOpts.Registry, w)
	}

	tf, err := format.NewText(opts.FormatKind, opts.FormatOptions)
	if err != nil {
		return err
	}
	return o.runText(ctx, nodes, errc, tf, agg, scanOpts.Registry, w, opts.CompressOutput)
}

// digestSeed reads the registry-derived structural-digest seed once the scan
// is done and every adaptive promotion it is going to make has happened; r
// is nil for scans run without a token registry.
func digestSeed(r *token.Registry) uint64 {
	if r == nil {
		return 0
	}
	return r.StructuralHashSeed()
}

// AbortError reports that the safety tracker cut a scan short. It is
// returned only after the formatter has already produced a complete,
// closable document for whatever the scan did manage to walk; Reason is one
// of the safety package's BreachReason messages.
type AbortError struct {
	Reason string
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("orchestrator: scan aborted: %s", e.Reason)
}

// runBinary drains the node stream into the binary encoder and the
// aggregator in lockstep, then writes the single Finish() byte stream.
func (o *Orchestrator) runBinary(ctx context.Context, nodes <-chan node.Node, errc <-chan error, bf format.BinaryFormatter, agg *stats.Aggregator, registry *token.Registry, w io.Writer) error {
	var abortReason string
	for n := range nodes {
		if n.Flags.Aborted {
			abortReason = n.AbortReason
		}
		agg.Observe(n)
		bf.WriteNode(n)
	}
	if err := drainErr(errc); err != nil {
		return err
	}

	out, err := bf.Finish(agg.Finalize(digestSeed(registry)))
	if err != nil {
		return fmt.Errorf("orchestrator: finishing %s output: %w", bf.Kind(), err)
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("orchestrator: writing %s output: %w", bf.Kind(), err)
	}
	if abortReason != "" {
		return &AbortError{Reason: abortReason}
	}
	return nil
}

// runText drains the node stream through WriteHeader/WriteNode/WriteFooter.
// When compressOutput is set the whole document is rendered into an
// internal buffer first, since the envelope needs the final byte count
// before it can be written; otherwise every line goes straight to w as it
// is produced, matching spec section 4.5's "none buffers the whole tree"
// rule for every formatter that does not need to (see each formatter's own
// file for the three documented exceptions).
func (o *Orchestrator) runText(ctx context.Context, nodes <-chan node.Node, errc <-chan error, tf format.TextFormatter, agg *stats.Aggregator, registry *token.Registry, w io.Writer, compressOutput bool) error {
	dest := w
	var buf bytes.Buffer
	if compressOutput {
		dest = &buf
	}

	if err := tf.WriteHeader(dest); err != nil {
		return fmt.Errorf("orchestrator: writing %s header: %w", tf.Kind(), err)
	}

	var abortReason string
	for n := range nodes {
		if n.Flags.Aborted {
			abortReason = n.AbortReason
		}
		agg.Observe(n)
		if err := tf.WriteNode(dest, n); err != nil {
			return fmt.Errorf("orchestrator: writing %s node: %w", tf.Kind(), err)
		}
	}
	if err := drainErr(errc); err != nil {
		return err
	}

	if err := tf.WriteFooter(dest, agg.Finalize(digestSeed(registry))); err != nil {
		return fmt.Errorf("orchestrator: writing %s footer: %w", tf.Kind(), err)
	}

	if !compressOutput {
		if abortReason != "" {
			return &AbortError{Reason: abortReason}
		}
		return nil
	}

	env, err := compress.NewEnvelope(compressedEnvelopeFormat, buf.Bytes())
	if err != nil {
		return fmt.Errorf("orchestrator: compressing %s output: %w", tf.Kind(), err)
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("orchestrator: encoding compressed envelope: %w", err)
	}
	if abortReason != "" {
		return &AbortError{Reason: abortReason}
	}
	return nil
}

// drainErr returns the scan's terminal error, if any, without blocking when
// the scan ended cleanly (errc is always closed by Scanner.Scan).
func drainErr(errc <-chan error) error {
	for err := range errc {
		if err != nil {
			return fmt.Errorf("orchestrator: scan: %w", err)
		}
	}
	return nil
}
