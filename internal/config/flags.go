package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/8b-is/smart-tree/internal/sizeutil"
)

// FlagValues collects the parsed global flag values from the CLI. BindFlags
// populates this struct's string/int/bool fields directly via pflag; after
// Cobra parses the command line, ToCLIMap converts only the flags the user
// actually set into the flat map Resolve expects as its highest-precedence
// layer.
type FlagValues struct {
	Dir         string
	Profile     string
	ProfileFile string

	Mode            string
	MaxDepth        int
	Find            string
	Type            string
	EntryType       string
	MinSize         string
	MaxSize         string
	NewerThan       string
	OlderThan       string
	All             bool
	NoIgnore        bool
	NoDefaultIgnore bool
	ShowIgnored     bool
	Search          string
	SearchOnly      bool
	SafetyProfile   string
	Tokenizer       string
	Compress        bool
	NoColor         bool
	NoEmoji         bool
	Stream          bool
}

// BindFlags registers every global persistent flag on cmd and returns a
// FlagValues pointer populated once Cobra parses the command line.
func BindFlags(cmd *cobra.Command) *FlagValues {
	fv := &FlagValues{}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&fv.Dir, "dir", "d", ".", "root directory to scan")
	pf.StringVar(&fv.Profile, "profile", "", "named profile to resolve (default: $ST_PROFILE or \"default\")")
	pf.StringVar(&fv.ProfileFile, "profile-file", "", "standalone profile TOML file (bypasses repo smarttree.toml)")

	pf.StringVar(&fv.Mode, "mode", "", "output formatter: classic, hex, ai, ai-json, json, json-compact, csv, tsv, statistics, digest, markdown, mermaid, relations, quantum, quantum-semantic, claude")
	pf.IntVar(&fv.MaxDepth, "depth", 0, "maximum traversal depth (0 = unlimited)")
	pf.StringVar(&fv.Find, "find", "", "name regex filter")
	pf.StringVar(&fv.Type, "type", "", "extension filter, comma-separated, e.g. \"go,rs,md\"")
	pf.StringVar(&fv.EntryType, "entry-type", "", "entry type filter: f, d, l")
	pf.StringVar(&fv.MinSize, "min-size", "", "minimum file size, e.g. \"10KB\"")
	pf.StringVar(&fv.MaxSize, "max-size", "", "maximum file size, e.g. \"5MB\"")
	pf.StringVar(&fv.NewerThan, "newer-than", "", "only entries modified after this date")
	pf.StringVar(&fv.OlderThan, "older-than", "", "only entries modified before this date")
	pf.BoolVar(&fv.All, "all", false, "include hidden entries")
	pf.BoolVar(&fv.NoIgnore, "no-ignore", false, "disable all ignore sources, including .gitignore")
	pf.BoolVar(&fv.NoDefaultIgnore, "no-default-ignore", false, "disable built-in default ignore patterns only")
	pf.BoolVar(&fv.ShowIgnored, "show-ignored", false, "emit ignored directories as bracketed leaves instead of omitting them")
	pf.StringVar(&fv.Search, "search", "", "content substring or regex to search within files")
	pf.BoolVar(&fv.SearchOnly, "search-only", false, "elide non-matching files from the stream when --search is set")
	pf.StringVar(&fv.SafetyProfile, "safety-profile", "", "safety limits profile: regular, home, server")
	pf.StringVar(&fv.Tokenizer, "tokenizer", "", "tokenizer for AI formatters: cl100k_base, o200k_base, none")
	pf.BoolVar(&fv.Compress, "compress", false, "wrap textual output with zlib+base64")
	pf.BoolVar(&fv.NoColor, "no-color", false, "disable ANSI color decoration")
	pf.BoolVar(&fv.NoEmoji, "no-emoji", false, "disable emoji decoration")
	pf.BoolVar(&fv.Stream, "stream", false, "force streaming output regardless of input size")

	return fv
}

// ToCLIMap converts the flags explicitly set on cmd into a flat map keyed by
// the same field names used throughout internal/config (mode, max_depth,
// find, ...), suitable for ResolveOptions.CLIFlags. Flags left at their zero
// value and never passed on the command line are omitted, so the resolver's
// lower-precedence layers (env, file, defaults) are not clobbered.
func (fv *FlagValues) ToCLIMap(cmd *cobra.Command) map[string]any {
	flags := cmd.Flags()
	out := make(map[string]any)

	set := func(name, key string, value any) {
		if flags.Changed(name) {
			out[key] = value
		}
	}

	set("mode", "mode", fv.Mode)
	set("depth", "max_depth", fv.MaxDepth)
	set("find", "find", fv.Find)
	set("type", "type", fv.Type)
	set("entry-type", "entry_type", fv.EntryType)
	set("min-size", "min_size", fv.MinSize)
	set("max-size", "max_size", fv.MaxSize)
	set("newer-than", "newer_than", fv.NewerThan)
	set("older-than", "older_than", fv.OlderThan)
	set("all", "all", fv.All)
	set("no-ignore", "no_ignore", fv.NoIgnore)
	set("no-default-ignore", "no_default_ignore", fv.NoDefaultIgnore)
	set("show-ignored", "show_ignored", fv.ShowIgnored)
	set("search", "search", fv.Search)
	set("search-only", "search_only", fv.SearchOnly)
	set("safety-profile", "safety_profile", fv.SafetyProfile)
	set("tokenizer", "tokenizer", fv.Tokenizer)
	set("compress", "compress", fv.Compress)
	set("no-color", "no_color", fv.NoColor)
	set("no-emoji", "no_emoji", fv.NoEmoji)

	return out
}

// ValidateFlags checks flag values that cobra's own type system cannot
// enforce (mutual exclusion, enum membership) before they reach Resolve.
// Errors here should map to the configuration-error exit code.
func ValidateFlags(fv *FlagValues) error {
	if fv.EntryType != "" && !validEntryTypes[fv.EntryType] {
		return fmt.Errorf("--entry-type: invalid value %q (allowed: f, d, l)", fv.EntryType)
	}
	if fv.SafetyProfile != "" && !validSafetyProfiles[fv.SafetyProfile] {
		return fmt.Errorf("--safety-profile: invalid value %q (allowed: regular, home, server)", fv.SafetyProfile)
	}
	if fv.Tokenizer != "" && !validTokenizers[fv.Tokenizer] {
		return fmt.Errorf("--tokenizer: invalid value %q (allowed: cl100k_base, o200k_base, none)", fv.Tokenizer)
	}
	if fv.Mode != "" && !validModes[fv.Mode] {
		return fmt.Errorf("--mode: invalid value %q", fv.Mode)
	}
	if fv.MaxDepth < 0 {
		return fmt.Errorf("--depth: must be 0 or positive, got %d", fv.MaxDepth)
	}
	if fv.MinSize != "" {
		if err := validateSizeFlag("--min-size", fv.MinSize); err != nil {
			return err
		}
	}
	if fv.MaxSize != "" {
		if err := validateSizeFlag("--max-size", fv.MaxSize); err != nil {
			return err
		}
	}
	if fv.NewerThan != "" {
		if err := validateDateBound(fv.NewerThan); err != nil {
			return fmt.Errorf("--newer-than: %w", err)
		}
	}
	if fv.OlderThan != "" {
		if err := validateDateBound(fv.OlderThan); err != nil {
			return fmt.Errorf("--older-than: %w", err)
		}
	}
	if fv.Profile != "" && fv.ProfileFile != "" {
		return fmt.Errorf("--profile and --profile-file are mutually exclusive")
	}
	return nil
}

// validateSizeFlag wraps sizeutil.ParseSize with a flag-specific error prefix.
func validateSizeFlag(flag, value string) error {
	if _, err := sizeutil.ParseSize(value); err != nil {
		return fmt.Errorf("%s: %w", flag, err)
	}
	return nil
}
