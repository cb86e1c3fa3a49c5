// Package core glues every pipeline package together behind the three
// entry points spec section 6.5 promises to the MCP server and daemon
// collaborators: a synchronous ScanAndFormat, a streaming ScanStream, and a
// VerifyPermissions helper. cmd/st and internal/cli are themselves thin
// callers of this package -- per SPEC_FULL.md section 2, the CLI owns no
// scanning or formatting logic of its own.
package core

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/8b-is/smart-tree/internal/config"
	"github.com/8b-is/smart-tree/internal/filter"
	"github.com/8b-is/smart-tree/internal/format"
	"github.com/8b-is/smart-tree/internal/orchestrator"
	"github.com/8b-is/smart-tree/internal/relevance"
	"github.com/8b-is/smart-tree/internal/safety"
	"github.com/8b-is/smart-tree/internal/scanner"
	"github.com/8b-is/smart-tree/internal/sizeutil"
	"github.com/8b-is/smart-tree/internal/token"
)

// Config is everything one scan_and_format / scan_stream invocation needs:
// the resolved root path and the fully-merged Profile (spec section 6.1/
// 6.2's option table, already layered by internal/config). WarnFunc, when
// set, receives the safety tracker's non-fatal diagnostic side-channel
// events (spec section 4.2); callers that don't care may leave it nil.
type Config struct {
	Root     string
	Profile  *config.Profile
	WarnFunc func(reason string, ratio float64)

	// Session, if set, is surfaced as the Quantum/Quantum-Semantic document's
	// KEY: capability line (spec section 6.4) so a decoder or log aggregator
	// can correlate this scan's output with its diagnostic side-channel
	// events. A zero Session (the default) omits the line.
	Session Session
}

// Session is the SPEC_FULL.md section 4 ScanSession: an opaque identifier
// correlating one scan's diagnostics and Quantum KEY: capability line. It
// carries no bearing on node-stream invariants.
type Session struct {
	ID uuid.UUID
}

// NewSession mints a new scan session id.
func NewSession() Session {
	return Session{ID: uuid.New()}
}

// ConfigError wraps a failure that happened while compiling cfg.Profile
// into run options -- before any scanning started -- so callers can
// distinguish it from a RootIO/EntryIO failure during the scan itself
// (spec section 7's Configuration error kind maps to exit code 2, never 3).
type ConfigError struct {
	err error
}

func (e *ConfigError) Error() string { return e.err.Error() }
func (e *ConfigError) Unwrap() error { return e.err }

func configErr(err error) error {
	if err == nil {
		return nil
	}
	return &ConfigError{err: err}
}

func (c Config) warn(reason string, ratio float64) {
	if c.WarnFunc != nil {
		c.WarnFunc(reason, ratio)
		return
	}
	slog.Warn("safety threshold crossed", "reason", reason, "ratio", ratio, "session", c.Session.ID)
}

// buildRunOptions compiles cfg's Profile into a scanner.Options and
// orchestrator.Options pair, mirroring the wiring internal/cli/root.go used
// to do inline before both the CLI and the MCP/daemon collaborators needed
// the same thing.
func buildRunOptions(cfg Config) (scanner.Options, orchestrator.Options, error) {
	p := cfg.Profile
	if p == nil {
		p = config.DefaultProfile()
	}

	kind, err := format.ParseKind(defaultString(p.Mode, "classic"))
	if err != nil {
		return scanner.Options{}, orchestrator.Options{}, configErr(err)
	}

	predicate, err := buildPredicate(p)
	if err != nil {
		return scanner.Options{}, orchestrator.Options{}, configErr(err)
	}

	ignorer := buildIgnorer(p, cfg.Root)

	var searcher *filter.Searcher
	if p.Search != "" {
		searcher, err = filter.NewSearcher(filter.SearcherOptions{Pattern: p.Search, Only: false})
		if err != nil {
			return scanner.Options{}, orchestrator.Options{}, configErr(err)
		}
	}

	var ignoredPolicy *filter.IgnoredPolicy
	switch {
	case p.ShowIgnored:
		v := filter.IgnoredShowBracketed
		ignoredPolicy = &v
	case p.NoIgnore:
		v := filter.IgnoredInclude
		ignoredPolicy = &v
	}

	safetyProfile := safety.Profile(p.SafetyProfile)
	if safetyProfile == "" {
		safetyProfile = safety.SelectProfile(cfg.Root)
	}
	limits := safety.DefaultLimits(safetyProfile)
	tracker := safety.NewTracker(limits, cfg.warn)

	registry := token.NewRegistry(token.DefaultPromotionThreshold)
	tierMatcher := relevance.NewTierMatcher(relevance.DefaultTierDefinitions())

	scanOpts := scanner.Options{
		Root:              cfg.Root,
		Ignorer:           ignorer,
		Predicate:         predicate,
		IgnoredPolicy:     ignoredPolicy,
		Searcher:          searcher,
		SearchOnlyMatches: searcher != nil && p.SearchOnly,
		Tracker:             tracker,
		Registry:            registry,
		Scorer:              tierMatcher,
		SearchRatePerSecond: limits.SearchRatePerSecond,
	}

	var sessionHex string
	if cfg.Session.ID != uuid.Nil {
		sessionHex = hex.EncodeToString(cfg.Session.ID[:])
	}

	orchOpts := orchestrator.Options{
		FormatKind: kind,
		FormatOptions: format.Options{
			Root:          cfg.Root,
			NoColor:       p.NoColor,
			NoEmoji:       p.NoEmoji,
			TokenizerName: p.Tokenizer,
			Registry:      registry,
			SessionIDHex:  sessionHex,
		},
		LargestCap:     0,
		CompressOutput: p.Compress,
	}

	return scanOpts, orchOpts, nil
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func buildPredicate(p *config.Profile) (*filter.Predicate, error) {
	opts := filter.PredicateOptions{NameRegex: p.Find}

	if p.All {
		opts.Hidden = filter.HiddenInclude
	}

	switch p.EntryType {
	case "f":
		opts.Kind = filter.KindFile
	case "d":
		opts.Kind = filter.KindDir
	case "l":
		opts.Kind = filter.KindSymlink
	default:
		opts.Kind = filter.KindAny
	}

	if p.Type != "" {
		opts.Extensions = strings.Split(p.Type, ",")
	}

	if p.MinSize != "" {
		v, err := sizeutil.ParseSize(p.MinSize)
		if err != nil {
			return nil, fmt.Errorf("min_size: %w", err)
		}
		opts.MinSize = &v
	}
	if p.MaxSize != "" {
		v, err := sizeutil.ParseSize(p.MaxSize)
		if err != nil {
			return nil, fmt.Errorf("max_size: %w", err)
		}
		opts.MaxSize = &v
	}
	if p.NewerThan != "" {
		t, err := config.ParseDateBound(p.NewerThan)
		if err != nil {
			return nil, fmt.Errorf("newer_than: %w", err)
		}
		opts.NewerThan = &t
	}
	if p.OlderThan != "" {
		t, err := config.ParseDateBound(p.OlderThan)
		if err != nil {
			return nil, fmt.Errorf("older_than: %w", err)
		}
		opts.OlderThan = &t
	}

	return filter.Compile(opts)
}

func buildIgnorer(p *config.Profile, root string) filter.Ignorer {
	if p.NoIgnore {
		return nil
	}

	var sources []filter.Ignorer
	if !p.NoDefaultIgnore {
		sources = append(sources, filter.NewDefaultIgnoreMatcher())
	}
	if len(p.Ignore) > 0 {
		sources = append(sources, filter.NewPatternIgnorer(p.Ignore))
	}
	if gm, err := filter.NewGitignoreMatcher(root); err == nil {
		sources = append(sources, gm)
	} else {
		slog.Debug("gitignore discovery skipped", "error", err)
	}

	return filter.NewCompositeIgnorer(sources...)
}

// Run performs one scan_and_format-equivalent, building the scanner and
// orchestrator options from cfg and driving the whole scan straight into w.
// It is the building block both ScanAndFormat and ScanStream are expressed
// in terms of, and the same one internal/cli's runScan calls into.
func Run(ctx context.Context, w io.Writer, cfg Config) error {
	scanOpts, orchOpts, err := buildRunOptions(cfg)
	if err != nil {
		return err
	}
	if scanOpts.Tracker != nil {
		var cancel context.CancelFunc
		ctx, cancel = scanOpts.Tracker.WithDeadline(ctx)
		defer cancel()
	}
	return orchestrator.New().Run(ctx, w, scanOpts, orchOpts)
}

// ScanAndFormat is the synchronous entry point of spec section 6.5: it runs
// one scan to completion and returns the fully rendered document. An
// *orchestrator.AbortError is returned alongside a complete, valid document
// already written into the result -- the safety tracker's abort is
// surfaced in-band as a trailing node, not as a failure to produce output
// (spec section 4.2), so callers that only care about exit-code-equivalent
// signaling should check errors.As for it rather than discarding the bytes.
func ScanAndFormat(ctx context.Context, cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	err := Run(ctx, &buf, cfg)
	return buf.Bytes(), err
}

// ScanStream is the streaming entry point of spec section 6.5: an
// "async iterator of bytes" expressed as a Go channel of chunks. The
// returned error channel carries at most one terminal error and is always
// closed once the bytes channel is closed, matching scanner.Scan's own
// channel-closing contract. Reading to completion without checking the
// error channel is safe -- a short read is indistinguishable from a clean
// end of stream until the caller drains it.
func ScanStream(ctx context.Context, cfg Config) (<-chan []byte, <-chan error) {
	chunks := make(chan []byte, 16)
	errc := make(chan error, 1)

	pr, pw := io.Pipe()

	go func() {
		err := Run(ctx, pw, cfg)
		pw.CloseWithError(err)
	}()

	go func() {
		defer close(chunks)
		defer close(errc)

		buf := make([]byte, 32*1024)
		for {
			n, err := pr.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case chunks <- chunk:
				case <-ctx.Done():
					errc <- ctx.Err()
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					errc <- err
				}
				return
			}
		}
	}()

	return chunks, errc
}

// Permissions is the result of VerifyPermissions: a non-destructive snapshot
// of whether path exists and what the current process can do with it, per
// spec section 6.5's verify_permissions helper for the MCP/daemon
// collaborators deciding whether a scan root is usable before launching one.
type Permissions struct {
	Exists   bool
	IsDir    bool
	Readable bool
	Writable bool
}

// VerifyPermissions stats path and probes read/write access without
// mutating the filesystem (beyond a throwaway temp file on Windows
// directories, where no read-only access check exists short of opening a
// handle). A non-existent path reports Exists=false with every other field
// false; callers should not treat that as an error.
func VerifyPermissions(path string) (Permissions, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Permissions{}, nil
		}
		return Permissions{}, fmt.Errorf("verify permissions: %w", err)
	}

	return Permissions{
		Exists:   true,
		IsDir:    info.IsDir(),
		Readable: scanner.AccessReadable(path),
		Writable: scanner.AccessWritable(path),
	}, nil
}
