// Package safety implements the Safety Tracker (spec section 4.2): per-scan
// upper bounds on file count, elapsed time, and estimated memory, selected
// by a limits profile keyed off the root path's heuristic classification
// (regular / home / server).
package safety

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
)

// Profile names the selected limits profile.
type Profile string

const (
	ProfileRegular Profile = "regular"
	ProfileHome    Profile = "home"
	ProfileServer  Profile = "server"
)

// Limits bounds a single scan. A zero value for any field disables that
// particular bound.
type Limits struct {
	MaxFiles           uint64
	MaxDuration        time.Duration
	MaxEstimatedBytes  uint64
	// WarnThreshold is the fraction (0-1) of a limit at which a non-fatal
	// diagnostic side-channel event fires once. Defaults to 0.10 (10%).
	WarnThreshold float64
	// SearchRatePerSecond bounds how many content-search reads the scanner's
	// worker pool may start per second under this profile (spec section 5's
	// backpressure policy, made explicit as a token-bucket). 0 disables the
	// limiter.
	SearchRatePerSecond float64
}

// profileDefaults holds the built-in limits per profile. "Home" scans are
// more generously bounded since repositories living directly under a user's
// home directory tend to contain large unrelated trees (media libraries,
// caches); "server" scans are tightly bounded against runaway system trees
// such as /, /proc, or /var.
var profileDefaults = map[Profile]Limits{
	ProfileRegular: {MaxFiles: 1_000_000, MaxDuration: 5 * time.Minute, MaxEstimatedBytes: 512 * 1024 * 1024, WarnThreshold: 0.10, SearchRatePerSecond: 500},
	ProfileHome:    {MaxFiles: 2_000_000, MaxDuration: 10 * time.Minute, MaxEstimatedBytes: 1024 * 1024 * 1024, WarnThreshold: 0.10, SearchRatePerSecond: 500},
	ProfileServer:  {MaxFiles: 250_000, MaxDuration: 90 * time.Second, MaxEstimatedBytes: 128 * 1024 * 1024, WarnThreshold: 0.10, SearchRatePerSecond: 100},
}

// SelectProfile classifies root using a simple path heuristic: paths under
// the current user's home directory get ProfileHome, paths at or near the
// filesystem root get ProfileServer, everything else gets ProfileRegular.
func SelectProfile(root string) Profile {
	abs, err := filepath.Abs(root)
	if err != nil {
		return ProfileRegular
	}
	abs = filepath.Clean(abs)

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		home = filepath.Clean(home)
		if abs == home || strings.HasPrefix(abs, home+string(filepath.Separator)) {
			return ProfileHome
		}
	}

	serverRoots := []string{"/", "/etc", "/var", "/usr", "/proc", "/sys", "/opt"}
	for _, sr := range serverRoots {
		if abs == sr {
			return ProfileServer
		}
	}

	return ProfileRegular
}

// DefaultLimits returns the built-in Limits for a profile.
func DefaultLimits(p Profile) Limits {
	if l, ok := profileDefaults[p]; ok {
		return l
	}
	return profileDefaults[ProfileRegular]
}

// BreachReason identifies which bound tripped.
type BreachReason string

const (
	ReasonNone        BreachReason = ""
	ReasonMaxFiles    BreachReason = "max_files_reached"
	ReasonMaxDuration BreachReason = "max_duration_reached"
	ReasonMaxMemory   BreachReason = "max_estimated_bytes_reached"
)

// Message renders the stable, human-readable abort text for reason, per
// SPEC_FULL section 6's open-question resolution.
func (r BreachReason) Message() string {
	switch r {
	case ReasonMaxFiles:
		return "safety limit reached: max_files"
	case ReasonMaxDuration:
		return "safety limit reached: max_duration"
	case ReasonMaxMemory:
		return "safety limit reached: max_estimated_bytes"
	default:
		return ""
	}
}

// Tracker enforces Limits across the lifetime of one scan. It is safe for
// concurrent use by multiple scanner workers: counters are atomic, and the
// breach decision is additionally guarded by a gobreaker.CircuitBreaker so
// that once a limit trips, further Check calls fail fast (circuit "open")
// instead of re-evaluating the same breached counters on every one of
// potentially millions of subsequent entries.
type Tracker struct {
	limits    Limits
	start     time.Time
	files     atomic.Uint64
	estBytes  atomic.Uint64
	breaker   *gobreaker.CircuitBreaker
	warnOnce  sync.Once
	warnFn    func(reason string, ratio float64)
	breachMu  sync.Mutex
	breachRes BreachReason
}

// NewTracker constructs a Tracker for the given limits. warnFn, if non-nil,
// is invoked exactly once when any counter first crosses limits.WarnThreshold
// of its bound; it is the non-fatal diagnostic side channel described in
// spec section 4.2.
func NewTracker(limits Limits, warnFn func(reason string, ratio float64)) *Tracker {
	if limits.WarnThreshold <= 0 {
		limits.WarnThreshold = 0.10
	}

	settings := gobreaker.Settings{
		Name:        "safety-tracker",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     time.Hour, // once open, stays open for the life of the scan
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
	}

	return &Tracker{
		limits:  limits,
		start:   time.Now(),
		breaker: gobreaker.NewCircuitBreaker(settings),
		warnFn:  warnFn,
	}
}

// AddFile records one file-equivalent entry and its estimated in-memory
// Node footprint (sizeof(Node) plus string lengths, per spec section 4.2).
// Call before enumerating the next entry.
func (t *Tracker) AddFile(estimatedBytes uint64) {
	n := t.files.Add(1)
	eb := t.estBytes.Add(estimatedBytes)

	if t.limits.MaxFiles > 0 {
		t.maybeWarn("max_files", float64(n)/float64(t.limits.MaxFiles))
	}
	if t.limits.MaxEstimatedBytes > 0 {
		t.maybeWarn("max_estimated_bytes", float64(eb)/float64(t.limits.MaxEstimatedBytes))
	}
}

func (t *Tracker) maybeWarn(reason string, ratio float64) {
	if ratio < t.limits.WarnThreshold || t.warnFn == nil {
		return
	}
	t.warnOnce.Do(func() {
		t.warnFn(reason, ratio)
	})
}

// Check evaluates current counters against limits, via the circuit breaker
// so a prior breach short-circuits every subsequent call. Returns
// ReasonNone while within bounds, or the first reason that tripped.
func (t *Tracker) Check() BreachReason {
	t.breachMu.Lock()
	if t.breachRes != ReasonNone {
		defer t.breachMu.Unlock()
		return t.breachRes
	}
	t.breachMu.Unlock()

	_, err := t.breaker.Execute(func() (interface{}, error) {
		if reason := t.evaluate(); reason != ReasonNone {
			return nil, fmt.Errorf("%s", reason)
		}
		return nil, nil
	})

	if err != nil {
		t.breachMu.Lock()
		if t.breachRes == ReasonNone {
			t.breachRes = t.evaluate()
			slog.Default().With("component", "safety").Warn("scan aborted",
				"reason", t.breachRes,
			)
		}
		reason := t.breachRes
		t.breachMu.Unlock()
		return reason
	}
	return ReasonNone
}

func (t *Tracker) evaluate() BreachReason {
	if t.limits.MaxFiles > 0 && t.files.Load() > t.limits.MaxFiles {
		return ReasonMaxFiles
	}
	if t.limits.MaxDuration > 0 && time.Since(t.start) > t.limits.MaxDuration {
		return ReasonMaxDuration
	}
	if t.limits.MaxEstimatedBytes > 0 && t.estBytes.Load() > t.limits.MaxEstimatedBytes {
		return ReasonMaxMemory
	}
	return ReasonNone
}

// Limits returns the bounds this tracker was constructed with.
func (t *Tracker) Limits() Limits {
	return t.limits
}

// Elapsed returns the time since the tracker was constructed.
func (t *Tracker) Elapsed() time.Duration {
	return time.Since(t.start)
}

// FilesSeen returns the current file counter value.
func (t *Tracker) FilesSeen() uint64 {
	return t.files.Load()
}

// WithDeadline returns a context deadline matching MaxDuration, or ctx
// unmodified (with a no-op cancel) when MaxDuration is zero.
func (t *Tracker) WithDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.limits.MaxDuration <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithDeadline(ctx, t.start.Add(t.limits.MaxDuration))
}
