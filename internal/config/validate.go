package config

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dlclark/regexp2"
	"github.com/go-playground/validator/v10"

	"github.com/8b-is/smart-tree/internal/sizeutil"
)

// structValidator enforces the `validate:"..."` tags on Profile (oneof enum
// fields, gte=0 bounds): the part of validateProfile that is a pure
// per-field shape check rather than cross-field or filesystem-backed logic.
// A single instance is safe for concurrent use and is reused across calls.
var structValidator = validator.New(validator.WithRequiredStructEnabled())

// LintResult extends ValidationError with an optional machine-readable
// lint code, used by deeper static-analysis checks that Validate does not
// perform.
type LintResult struct {
	ValidationError
	// Code identifies the specific lint rule that produced this result, e.g.
	// "broad-ignore" or "complexity". Empty for results promoted directly
	// from Validate.
	Code string
}

// validModes lists the only accepted values for Profile.Mode, mirroring the
// formatter kinds. An empty string is valid for profiles that inherit the
// value from a parent.
var validModes = map[string]bool{
	"classic": true, "hex": true, "ai": true, "ai-json": true, "json": true,
	"json-compact": true, "csv": true, "tsv": true, "statistics": true, "digest": true,
	"markdown": true, "mermaid": true, "relations": true, "quantum": true,
	"quantum-semantic": true, "claude": true, "": true,
}

// validEntryTypes lists the only accepted values for Profile.EntryType.
var validEntryTypes = map[string]bool{"f": true, "d": true, "l": true, "": true}

// validSafetyProfiles lists the only accepted values for Profile.SafetyProfile.
var validSafetyProfiles = map[string]bool{"regular": true, "home": true, "server": true, "": true}

// validTokenizers lists the only accepted values for Profile.Tokenizer.
var validTokenizers = map[string]bool{"cl100k_base": true, "o200k_base": true, "none": true, "": true}

// maxInheritanceWarningDepth is the chain length above which validation emits
// a warning about deep inheritance (mirrors the resolver constant).
const maxInheritanceWarningDepth = 3

// relativeDatePattern matches a simple relative-date bound like "7d", "2h",
// or "30m" (days/hours/minutes). Anything else must parse as RFC3339 or a
// bare "2006-01-02" date.
var relativeDatePattern = regexp.MustCompile(`^\d+[dhm]$`)

// Validate inspects every profile in cfg and returns a slice of
// ValidationErrors describing hard errors and warnings found in the
// configuration. It does not stop at the first error; all profiles are
// checked and all findings are accumulated before returning.
//
// The returned slice is nil when no issues are found. Each element carries
// a Severity field of either "error" or "warning".
//
// Validate does not modify cfg.
func Validate(cfg *Config) []ValidationError {
	if cfg == nil {
		return nil
	}

	var results []ValidationError

	for name, profile := range cfg.Profile {
		if profile == nil {
			continue
		}
		errs := validateProfile(name, profile, cfg.Profile)
		results = append(results, errs...)
	}

	if len(results) > 0 {
		slog.Debug("config validation complete",
			"total_issues", len(results),
		)
	}

	return results
}

// validateProfile checks a single named profile and returns all validation
// errors and warnings for that profile.
func validateProfile(name string, p *Profile, allProfiles map[string]*Profile) []ValidationError {
	var results []ValidationError

	field := func(f string) string {
		return fmt.Sprintf("profile.%s.%s", name, f)
	}

	// ── Hard errors ────────────────────────────────────────────────────────

	// Shape checks (enum membership, numeric bounds) come from the
	// `validate:"..."` tags on Profile itself, so the set of legal values
	// lives in one place instead of being duplicated into map literals here.
	results = append(results, validateStructTags(name, p)...)

	if p.Find != "" {
		if _, err := regexp2.Compile(p.Find, regexp2.None); err != nil {
			results = append(results, ValidationError{
				Severity: "error",
				Field:    field("find"),
				Message:  fmt.Sprintf("find pattern %q is invalid: %s", p.Find, err.Error()),
				Suggest:  "Use a valid Go-flavoured regular expression",
			})
		}
	}

	if p.MinSize != "" {
		if _, err := sizeutil.ParseSize(p.MinSize); err != nil {
			results = append(results, ValidationError{
				Severity: "error",
				Field:    field("min_size"),
				Message:  fmt.Sprintf("min_size %q is invalid: %s", p.MinSize, err.Error()),
				Suggest:  "Use a human-readable size like \"10KB\" or \"5MB\"",
			})
		}
	}
	if p.MaxSize != "" {
		if _, err := sizeutil.ParseSize(p.MaxSize); err != nil {
			results = append(results, ValidationError{
				Severity: "error",
				Field:    field("max_size"),
				Message:  fmt.Sprintf("max_size %q is invalid: %s", p.MaxSize, err.Error()),
				Suggest:  "Use a human-readable size like \"10KB\" or \"5MB\"",
			})
		}
	}

	if p.NewerThan != "" {
		if err := validateDateBound(p.NewerThan); err != nil {
			results = append(results, ValidationError{
				Severity: "error",
				Field:    field("newer_than"),
				Message:  fmt.Sprintf("newer_than %q is invalid: %s", p.NewerThan, err.Error()),
				Suggest:  "Use RFC3339, \"2006-01-02\", or a relative bound like \"7d\"",
			})
		}
	}
	if p.OlderThan != "" {
		if err := validateDateBound(p.OlderThan); err != nil {
			results = append(results, ValidationError{
				Severity: "error",
				Field:    field("older_than"),
				Message:  fmt.Sprintf("older_than %q is invalid: %s", p.OlderThan, err.Error()),
				Suggest:  "Use RFC3339, \"2006-01-02\", or a relative bound like \"7d\"",
			})
		}
	}

	// glob pattern validity
	results = append(results, validateGlobPatterns(name, p)...)

	// circular inheritance
	if p.Extends != nil && *p.Extends != "" {
		if _, err := ResolveProfile(name, allProfiles); err != nil {
			if strings.Contains(err.Error(), "circular") {
				results = append(results, ValidationError{
					Severity: "error",
					Field:    field("extends"),
					Message:  err.Error(),
					Suggest:  "Remove or restructure the extends chain to eliminate the cycle",
				})
			} else {
				results = append(results, ValidationError{
					Severity: "error",
					Field:    field("extends"),
					Message:  fmt.Sprintf("extends %q: %s", *p.Extends, err.Error()),
					Suggest:  fmt.Sprintf("Define a profile named %q or update the extends value", *p.Extends),
				})
			}
		}
	}

	// ── Warnings ───────────────────────────────────────────────────────────

	results = append(results, warnDeepInheritance(name, p, allProfiles)...)

	if p.MinSize != "" && p.MaxSize != "" {
		minB, errMin := sizeutil.ParseSize(p.MinSize)
		maxB, errMax := sizeutil.ParseSize(p.MaxSize)
		if errMin == nil && errMax == nil && minB > maxB {
			results = append(results, ValidationError{
				Severity: "warning",
				Field:    field("min_size"),
				Message:  fmt.Sprintf("min_size %q exceeds max_size %q; no file can match", p.MinSize, p.MaxSize),
				Suggest:  "Swap min_size and max_size or widen the range",
			})
		}
	}

	return results
}

// structTagSuggestions gives a human-readable fix suggestion for each
// Profile field carrying a `validate:"..."` tag, keyed by the struct field
// name validator.FieldError reports (not the toml tag).
var structTagSuggestions = map[string]string{
	"Mode":          "Valid modes: classic, hex, ai, ai-json, json, json-compact, csv, tsv, statistics, digest, markdown, mermaid, relations, quantum, quantum-semantic, claude",
	"MaxDepth":      "Set max_depth to 0 (unlimited) or a positive integer",
	"EntryType":     "Valid entry types: f (file), d (directory), l (symlink), or leave empty for all kinds",
	"SafetyProfile": "Valid safety profiles: regular, home, server",
	"Tokenizer":     "Valid tokenizers: cl100k_base, o200k_base, none",
}

// structTagFieldNames maps validator.FieldError's struct field name back to
// the toml key used elsewhere in this package's Field paths, keeping
// validateStructTags' output indistinguishable from the hand-written checks
// it replaced.
var structTagFieldNames = map[string]string{
	"Mode":          "mode",
	"MaxDepth":      "max_depth",
	"EntryType":     "entry_type",
	"SafetyProfile": "safety_profile",
	"Tokenizer":     "tokenizer",
}

// validateStructTags runs structValidator over p's `validate:"..."` tags
// (enum membership via oneof, non-negative bounds via gte) and reports each
// violation as a ValidationError using this package's profile.<name>.<field>
// path convention.
func validateStructTags(profileName string, p *Profile) []ValidationError {
	err := structValidator.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Not a per-field validation failure (e.g. a malformed tag); surface
		// it as a single error rather than silently dropping it.
		return []ValidationError{{
			Severity: "error",
			Field:    fmt.Sprintf("profile.%s", profileName),
			Message:  err.Error(),
		}}
	}

	var results []ValidationError
	for _, fe := range fieldErrs {
		tomlName := structTagFieldNames[fe.Field()]
		if tomlName == "" {
			tomlName = fe.Field()
		}
		results = append(results, ValidationError{
			Severity: "error",
			Field:    fmt.Sprintf("profile.%s.%s", profileName, tomlName),
			Message:  fmt.Sprintf("%s %v is invalid (%s)", tomlName, fe.Value(), fe.Tag()),
			Suggest:  structTagSuggestions[fe.Field()],
		})
	}
	return results
}

// validateGlobPatterns validates the ignore pattern list and returns errors
// for any invalid patterns.
func validateGlobPatterns(profileName string, p *Profile) []ValidationError {
	var results []ValidationError

	field := fmt.Sprintf("profile.%s.ignore", profileName)

	for i, pattern := range p.Ignore {
		if err := validateGlobPattern(pattern); err != nil {
			results = append(results, ValidationError{
				Severity: "error",
				Field:    fmt.Sprintf("%s[%d]", field, i),
				Message:  fmt.Sprintf("invalid glob pattern %q: %s", pattern, err.Error()),
				Suggest:  "Use doublestar glob syntax, e.g. \"**/*.go\" or \"src/**\"",
			})
		}
	}

	return results
}

// validateGlobPattern checks whether pattern is syntactically valid according
// to the doublestar library. It uses doublestar.ValidatePattern which returns
// false for malformed patterns (e.g. unclosed character classes or alternations).
func validateGlobPattern(pattern string) error {
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("syntax error in pattern %q", pattern)
	}
	return nil
}

// validateDateBound reports whether s parses as RFC3339, a bare
// "2006-01-02" date, or a relative bound like "7d"/"2h"/"30m".
func validateDateBound(s string) error {
	if relativeDatePattern.MatchString(s) {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return nil
	}
	return fmt.Errorf("not RFC3339, \"2006-01-02\", or a relative bound (e.g. \"7d\")")
}

// ParseDateBound parses a newer_than/older_than value into an absolute
// time.Time, accepting the same three forms validateDateBound checks:
// RFC3339, a bare "2006-01-02" date, or a relative bound such as "7d", "2h",
// or "30m" measured back from time.Now(). Callers should validate with
// validateDateBound (or ValidateFlags/Validate) first; ParseDateBound
// returns an error for any value those would already have rejected.
func ParseDateBound(s string) (time.Time, error) {
	if relativeDatePattern.MatchString(s) {
		unit := s[len(s)-1:]
		n, err := strconv.Atoi(s[:len(s)-1])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid relative date bound %q: %w", s, err)
		}
		var d time.Duration
		switch unit {
		case "d":
			d = time.Duration(n) * 24 * time.Hour
		case "h":
			d = time.Duration(n) * time.Hour
		case "m":
			d = time.Duration(n) * time.Minute
		}
		return time.Now().Add(-d), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("date bound %q is not RFC3339, \"2006-01-02\", or a relative bound (e.g. \"7d\")", s)
}

// warnDeepInheritance returns a warning when the inheritance chain for the
// profile exceeds maxInheritanceWarningDepth levels.
func warnDeepInheritance(profileName string, p *Profile, allProfiles map[string]*Profile) []ValidationError {
	if p.Extends == nil || *p.Extends == "" {
		return nil
	}

	resolution, err := ResolveProfile(profileName, allProfiles)
	if err != nil {
		// Errors are already reported elsewhere (e.g. circular inheritance).
		return nil
	}

	depth := len(resolution.Chain)
	if depth <= maxInheritanceWarningDepth {
		return nil
	}

	return []ValidationError{
		{
			Severity: "warning",
			Field:    fmt.Sprintf("profile.%s.extends", profileName),
			Message: fmt.Sprintf(
				"inheritance chain is %d levels deep (%s)",
				depth,
				strings.Join(resolution.Chain, " -> "),
			),
			Suggest: "Flatten the inheritance chain to 3 levels or fewer for maintainability",
		},
	}
}

// Lint runs all Validate checks and additionally performs deeper static
// analysis of the configuration. It returns a slice of LintResult values that
// embed ValidationError for unified severity/field/message access.
//
// Lint-only checks are:
//   - Broad ignore patterns: an ignore entry with no path separator (a
//     trailing "/" does not count) and no extension, which matches that name
//     anywhere in the tree.
//   - Complexity score: profiles with many non-default fields set are flagged
//     to encourage splitting into focused sub-profiles.
//
// Find patterns get no lint check beyond Validate's regex compile check.
//
// The returned slice is nil when no issues are found.
func Lint(cfg *Config) []LintResult {
	if cfg == nil {
		return nil
	}

	var results []LintResult

	// Include all Validate results as LintResults (Code left empty for these).
	for _, ve := range Validate(cfg) {
		results = append(results, LintResult{ValidationError: ve})
	}

	for name, profile := range cfg.Profile {
		if profile == nil {
			continue
		}
		results = append(results, lintProfile(name, profile)...)
	}

	return results
}

// lintProfile performs the deeper lint-only analysis for a single profile.
func lintProfile(profileName string, p *Profile) []LintResult {
	var results []LintResult

	results = append(results, lintComplexity(profileName, p)...)
	results = append(results, lintBroadIgnore(profileName, p)...)

	return results
}

// lintBroadIgnore flags ignore patterns that have no path separator and no
// file extension, which tend to over-match (e.g. "test" silently excluding
// every directory and file named "test" anywhere in the tree).
func lintBroadIgnore(profileName string, p *Profile) []LintResult {
	var results []LintResult
	for i, pattern := range p.Ignore {
		trimmed := strings.TrimSuffix(pattern, "/")
		if strings.ContainsAny(trimmed, "/*?[{") {
			continue
		}
		if strings.Contains(trimmed, ".") {
			continue
		}
		results = append(results, LintResult{
			ValidationError: ValidationError{
				Severity: "warning",
				Field:    fmt.Sprintf("profile.%s.ignore[%d]", profileName, i),
				Message:  fmt.Sprintf("ignore pattern %q has no path separator or extension; it matches this name anywhere in the tree", pattern),
				Suggest:  "Anchor the pattern (e.g. \"/build\") if only the project root should be affected",
			},
			Code: "broad-ignore",
		})
	}
	return results
}

// complexityThreshold is the number of non-default fields above which a
// profile is considered overly complex.
const complexityThreshold = 8

// lintComplexity computes the number of non-zero/non-empty fields in a profile
// and emits a warning when the count exceeds complexityThreshold.
func lintComplexity(profileName string, p *Profile) []LintResult {
	score := profileComplexityScore(p)
	if score <= complexityThreshold {
		return nil
	}

	return []LintResult{
		{
			ValidationError: ValidationError{
				Severity: "warning",
				Field:    fmt.Sprintf("profile.%s", profileName),
				Message:  fmt.Sprintf("profile has a complexity score of %d (threshold: %d)", score, complexityThreshold),
				Suggest:  "Consider splitting into multiple profiles connected via extends to improve maintainability",
			},
			Code: "complexity",
		},
	}
}

// profileComplexityScore counts the number of non-empty / non-zero fields in
// the profile. Scalar fields each count as 1; a non-empty slice counts as 1.
func profileComplexityScore(p *Profile) int {
	score := 0

	if p.Mode != "" {
		score++
	}
	if p.MaxDepth != 0 {
		score++
	}
	if p.Find != "" {
		score++
	}
	if p.Type != "" {
		score++
	}
	if p.EntryType != "" {
		score++
	}
	if p.MinSize != "" {
		score++
	}
	if p.MaxSize != "" {
		score++
	}
	if p.NewerThan != "" {
		score++
	}
	if p.OlderThan != "" {
		score++
	}
	if p.All {
		score++
	}
	if p.NoIgnore {
		score++
	}
	if p.NoDefaultIgnore {
		score++
	}
	if p.ShowIgnored {
		score++
	}
	if p.Search != "" {
		score++
	}
	if len(p.Ignore) > 0 {
		score++
	}
	if p.SafetyProfile != "" {
		score++
	}
	if p.Tokenizer != "" {
		score++
	}
	if p.Compress {
		score++
	}
	if p.NoColor {
		score++
	}
	if p.NoEmoji {
		score++
	}

	return score
}
