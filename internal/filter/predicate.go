package filter

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/8b-is/smart-tree/internal/node"
)

// HiddenPolicy controls whether dotfiles participate in the scan.
type HiddenPolicy int

const (
	HiddenExclude HiddenPolicy = iota
	HiddenInclude
)

// IgnoredPolicy controls how entries matched by an ignore source are
// represented in the output stream.
type IgnoredPolicy int

const (
	// IgnoredExclude drops ignored entries from the stream entirely
	// (the default).
	IgnoredExclude IgnoredPolicy = iota
	// IgnoredInclude disables ignore-based filtering altogether; entries
	// still participate as if no ignore source matched.
	IgnoredInclude
	// IgnoredShowBracketed emits a matched directory as a single leaf node
	// flagged Ignored, with no children enumerated.
	IgnoredShowBracketed
)

// EntryKind restricts which node kinds pass the predicate.
type EntryKind int

const (
	KindAny EntryKind = iota
	KindFile
	KindDir
	KindSymlink
)

// PredicateOptions configures a compiled Predicate. All fields are optional;
// a zero-value PredicateOptions yields a predicate that matches everything
// except hidden entries (HiddenExclude is the implicit default applied by
// Compile when Hidden is left at its zero value... note: callers must set
// Hidden to HiddenInclude explicitly if they want hidden entries, since the
// zero value of HiddenPolicy is HiddenExclude by design).
type PredicateOptions struct {
	NameRegex  string // Go-flavoured regex; "(?i)" prefix enables case-insensitivity.
	Extensions []string
	MinSize    *int64
	MaxSize    *int64
	NewerThan  *time.Time
	OlderThan  *time.Time
	Kind       EntryKind
	Hidden     HiddenPolicy
}

// Predicate is the compiled, single callable produced from PredicateOptions:
// "compiles user predicates ... into a single node predicate" (spec 4.1).
type Predicate struct {
	nameRe     *regexp2.Regexp
	extensions map[string]bool
	minSize    *int64
	maxSize    *int64
	newerThan  *time.Time
	olderThan  *time.Time
	kind       EntryKind
	hidden     HiddenPolicy
}

// Compile builds a Predicate from opts. A malformed NameRegex is a
// Configuration error per spec section 4.1 / section 7 and is returned
// directly rather than silently ignored.
func Compile(opts PredicateOptions) (*Predicate, error) {
	p := &Predicate{
		minSize: opts.MinSize,
		maxSize: opts.MaxSize,
		newerThan: opts.NewerThan,
		olderThan: opts.OlderThan,
		kind:      opts.Kind,
		hidden:    opts.Hidden,
	}

	if opts.NameRegex != "" {
		re, err := regexp2.Compile(opts.NameRegex, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("filter: invalid name regex %q: %w", opts.NameRegex, err)
		}
		p.nameRe = re
	}

	if len(opts.Extensions) > 0 {
		p.extensions = make(map[string]bool, len(opts.Extensions))
		for _, ext := range opts.Extensions {
			p.extensions[normalizeExt(ext)] = true
		}
	}

	return p, nil
}

func normalizeExt(ext string) string {
	out := ext
	for len(out) > 0 && out[0] == '.' {
		out = out[1:]
	}
	return toLowerASCII(out)
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Matches reports whether n satisfies every configured predicate (AND
// combination, per spec section 4.1). Directories are never excluded by the
// extension filter -- an extension predicate only prunes file leaves -- so
// that scaffolding directories on the path to a matching file still appear.
func (p *Predicate) Matches(n node.Node) bool {
	if p == nil {
		return true
	}

	if p.hidden == HiddenExclude && n.IsHidden() && !n.IsRoot() {
		return false
	}

	if p.kind != KindAny && !kindMatches(p.kind, n.Kind) {
		return false
	}

	if p.nameRe != nil {
		ok, err := p.nameRe.MatchString(n.Name)
		if err != nil || !ok {
			return false
		}
	}

	if p.extensions != nil && n.Kind == node.File {
		if !p.extensions[n.Extension()] {
			return false
		}
	}

	if n.Kind == node.File {
		if p.minSize != nil && int64(n.SizeBytes) < *p.minSize {
			return false
		}
		if p.maxSize != nil && int64(n.SizeBytes) > *p.maxSize {
			return false
		}
	}

	if p.newerThan != nil && n.MTime < p.newerThan.Unix() {
		return false
	}
	if p.olderThan != nil && n.MTime > p.olderThan.Unix() {
		return false
	}

	return true
}

func kindMatches(want EntryKind, got node.Kind) bool {
	switch want {
	case KindFile:
		return got == node.File
	case KindDir:
		return got == node.Directory
	case KindSymlink:
		return got == node.Symlink
	default:
		return true
	}
}
