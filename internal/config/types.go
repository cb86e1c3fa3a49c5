package config

// Config is the top-level configuration type parsed from a smarttree.toml
// file. It holds a map of named profiles keyed by profile name. Profile
// names are case-sensitive. The special name "default" is the built-in
// fallback profile.
type Config struct {
	// Profile maps profile names to their configuration. Access via
	// cfg.Profile["default"] or cfg.Profile["ci"].
	Profile map[string]*Profile `toml:"profile"`
}

// Profile defines all scan settings for a single named profile (spec
// section 6.1/6.2). Fields with zero values are considered unset and are
// filled in by the merge/inheritance pipeline. The Extends field enables
// profile inheritance.
type Profile struct {
	// Extends is the name of a parent profile to inherit from. When set,
	// all unset fields in this profile are filled from the named parent.
	Extends *string `toml:"extends"`

	// Mode selects the output formatter (spec section 4.5): classic, hex,
	// ai, ai-json, json, json-compact, csv, tsv, statistics, digest, markdown, mermaid,
	// relations, quantum, quantum-semantic, or claude.
	Mode string `toml:"mode" validate:"omitempty,oneof=classic hex ai ai-json json json-compact csv tsv statistics digest markdown mermaid relations quantum quantum-semantic claude"`

	// MaxDepth bounds the walk depth; 0 means unlimited.
	MaxDepth int `toml:"max_depth" validate:"gte=0"`

	// Find is a regular expression applied to file names (spec section 6.1).
	Find string `toml:"find"`

	// Type is a comma-separated extension filter (spec section 6.1's "type"
	// option), e.g. "go,rs,md". Extensions are matched lowercased with any
	// leading dot stripped; empty means no extension restriction.
	Type string `toml:"type"`

	// EntryType restricts emitted nodes to one kind: "f" (file), "d"
	// (directory), "l" (symlink), or "" (all kinds). This is spec section
	// 6.1's distinct "entry-type" option, not to be confused with Type's
	// extension filter.
	EntryType string `toml:"entry_type" validate:"omitempty,oneof=f d l"`

	// MinSize/MaxSize are human-readable size bounds, e.g. "10KB", "5MB".
	MinSize string `toml:"min_size"`
	MaxSize string `toml:"max_size"`

	// NewerThan/OlderThan are RFC3339 or relative date bounds (spec section 6.1).
	NewerThan string `toml:"newer_than"`
	OlderThan string `toml:"older_than"`

	// All includes hidden entries that would otherwise be dropped by the
	// hidden-file policy.
	All bool `toml:"all"`

	// NoIgnore disables every ignore source (.gitignore files, the profile's
	// ignore list, built-ins).
	NoIgnore bool `toml:"no_ignore"`

	// NoDefaultIgnore disables only the built-in default ignore list,
	// leaving .gitignore files and the profile's ignore list in effect.
	NoDefaultIgnore bool `toml:"no_default_ignore"`

	// ShowIgnored renders ignored entries bracketed instead of omitting them.
	ShowIgnored bool `toml:"show_ignored"`

	// Search is a content search pattern; non-empty enables the content
	// search phase (spec section 4.1).
	Search string `toml:"search"`

	// SearchOnly elides non-matching files from the stream when Search is
	// set (spec section 4.1's search_only flag, spec section 8 scenario F).
	// Scaffolding directories are still emitted regardless of this flag.
	SearchOnly bool `toml:"search_only"`

	// Ignore is the list of glob patterns for files and directories to
	// skip during the walk, merged with the built-in default ignore list.
	Ignore []string `toml:"ignore"`

	// SafetyProfile selects the resource-limit preset (spec section 4.2):
	// "regular", "home", or "server".
	SafetyProfile string `toml:"safety_profile" validate:"omitempty,oneof=regular home server"`

	// Tokenizer selects the token counting model used by the AI/Claude
	// formatters' supplemental token-cost estimate.
	Tokenizer string `toml:"tokenizer" validate:"omitempty,oneof=cl100k_base o200k_base none"`

	// Compress wraps textual output in the generic compression envelope
	// (spec section 6.1's --compress flag).
	Compress bool `toml:"compress"`

	// NoColor/NoEmoji strip ANSI styling and emoji decoration from the
	// Classic formatter's output.
	NoColor bool `toml:"no_color"`
	NoEmoji bool `toml:"no_emoji"`
}
