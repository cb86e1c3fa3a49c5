package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dlclark/regexp2"

	"github.com/8b-is/smart-tree/internal/filter"
)

// TraceStep records one evaluation step during file rule tracing.
type TraceStep struct {
	// StepNum is the 1-based step number in the evaluation sequence.
	StepNum int

	// Rule describes the rule being evaluated, e.g. "Default ignore patterns".
	Rule string

	// Matched indicates whether the rule matched the file path.
	Matched bool

	// Outcome describes the result of this step, e.g. "continue", "EXCLUDED".
	Outcome string
}

// ExplainResult holds the full explanation for a single file path showing
// how a profile would process the file during a scan.
type ExplainResult struct {
	// FilePath is the file path being explained.
	FilePath string

	// ProfileName is the name of the profile being used for display.
	ProfileName string

	// Extends is the parent profile name, or empty if there is no parent.
	Extends string

	// Included indicates whether the file is included (true) or excluded (false).
	Included bool

	// ExcludedBy names the rule that caused exclusion when Included is false.
	ExcludedBy string

	// Trace is the ordered list of evaluation steps.
	Trace []TraceStep
}

// ExplainFile evaluates how profile p would process filePath and returns a
// full ExplainResult describing the evaluation. profileName is used for
// display only; it does not affect the evaluation logic.
//
// The function simulates the filter engine's static rules in order:
//  1. Hidden-entry policy
//  2. Default ignore patterns
//  3. Profile ignore patterns
//  4. .gitignore rules (not simulated -- requires disk access)
//  5. find regex
//
//  6. type extension filter
//
// Rules that require file metadata unavailable from a bare path (min_size,
// max_size, newer_than, older_than, entry_type) are reported as "not
// evaluated" steps rather than simulated, since ExplainFile has no handle
// to the actual file.
func ExplainFile(filePath, profileName string, p *Profile) ExplainResult {
	result := ExplainResult{
		FilePath:    filePath,
		ProfileName: profileName,
	}

	if p.Extends != nil && *p.Extends != "" {
		result.Extends = *p.Extends
	}

	stepNum := 0
	nextStep := func() int {
		stepNum++
		return stepNum
	}

	base := filepath.Base(filePath)

	// ── Step 1: Hidden-entry policy ─────────────────────────────────────────
	{
		step := TraceStep{StepNum: nextStep(), Rule: "Hidden-entry policy"}
		if !p.All && strings.HasPrefix(base, ".") {
			step.Matched = true
			step.Outcome = "EXCLUDED"
			result.Trace = append(result.Trace, step)
			result.Included = false
			result.ExcludedBy = "hidden entry without --all"
			return result
		}
		step.Outcome = "no match -> continue"
		result.Trace = append(result.Trace, step)
	}

	// ── Step 2: Default ignore patterns ─────────────────────────────────────
	{
		step := TraceStep{StepNum: nextStep(), Rule: "Default ignore patterns"}
		if p.NoDefaultIgnore || p.NoIgnore {
			step.Outcome = "disabled -> continue"
			result.Trace = append(result.Trace, step)
		} else if matched := firstIgnoreMatch(filter.DefaultIgnorePatterns, filePath); matched != "" {
			step.Matched = true
			step.Outcome = "EXCLUDED"
			result.Trace = append(result.Trace, step)
			result.Included = false
			result.ExcludedBy = fmt.Sprintf("default ignore pattern %q", matched)
			return result
		} else {
			step.Outcome = "no match -> continue"
			result.Trace = append(result.Trace, step)
		}
	}

	// ── Step 3: Profile ignore patterns ──────────────────────────────────────
	{
		step := TraceStep{StepNum: nextStep(), Rule: "Profile ignore patterns"}
		if p.NoIgnore {
			step.Outcome = "disabled -> continue"
			result.Trace = append(result.Trace, step)
		} else if matched := firstIgnoreMatch(p.Ignore, filePath); matched != "" {
			step.Matched = true
			step.Outcome = "EXCLUDED"
			result.Trace = append(result.Trace, step)
			result.Included = false
			result.ExcludedBy = fmt.Sprintf("profile ignore pattern %q", matched)
			return result
		} else {
			step.Outcome = "no match -> continue"
			result.Trace = append(result.Trace, step)
		}
	}

	// ── Step 4: .gitignore rules ─────────────────────────────────────────────
	result.Trace = append(result.Trace, TraceStep{
		StepNum: nextStep(),
		Rule:    ".gitignore rules",
		Outcome: "not simulated -> continue",
	})

	// ── Step 5: find regex ───────────────────────────────────────────────────
	{
		step := TraceStep{StepNum: nextStep(), Rule: "find regex"}
		if p.Find == "" {
			step.Outcome = "not active -> continue"
		} else if ok := matchesFindRegex(p.Find, base); !ok {
			step.Matched = true
			step.Outcome = "EXCLUDED"
			result.Trace = append(result.Trace, step)
			result.Included = false
			result.ExcludedBy = fmt.Sprintf("find regex %q did not match", p.Find)
			return result
		} else {
			step.Outcome = "match -> continue"
		}
		result.Trace = append(result.Trace, step)
	}

	// ── Step 6: type extension filter ────────────────────────────────────────
	{
		step := TraceStep{StepNum: nextStep(), Rule: "type extension filter"}
		if p.Type == "" {
			step.Outcome = "not active -> continue"
		} else if ok := matchesExtensionFilter(p.Type, base); !ok {
			step.Matched = true
			step.Outcome = "EXCLUDED"
			result.Trace = append(result.Trace, step)
			result.Included = false
			result.ExcludedBy = fmt.Sprintf("type filter %q did not match", p.Type)
			return result
		} else {
			step.Outcome = "match -> continue"
		}
		result.Trace = append(result.Trace, step)
	}

	// ── Steps not evaluated: size and date bounds need a live stat ──────────
	for _, rule := range []string{"min_size/max_size bounds", "newer_than/older_than bounds", "entry_type filter"} {
		result.Trace = append(result.Trace, TraceStep{
			StepNum: nextStep(),
			Rule:    rule,
			Outcome: "not evaluated (requires a live file stat)",
		})
	}

	result.Included = true
	return result
}

// firstIgnoreMatch returns the first pattern in patterns that matches path
// as a doublestar glob, or "" if none match.
func firstIgnoreMatch(patterns []string, path string) string {
	slashed := filepath.ToSlash(path)
	for _, pattern := range patterns {
		trimmed := strings.TrimSuffix(pattern, "/")
		if matched, err := doublestar.Match(trimmed, slashed); err == nil && matched {
			return pattern
		}
		if matched, err := doublestar.Match("**/"+trimmed, slashed); err == nil && matched {
			return pattern
		}
	}
	return ""
}

// matchesFindRegex reports whether name matches the given regex, using the
// same regexp2 engine as the filter predicate so "(?i)"-prefixed patterns
// behave identically during explain as during an actual scan.
func matchesFindRegex(pattern, name string) bool {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return false
	}
	ok, err := re.MatchString(name)
	return err == nil && ok
}

// matchesExtensionFilter reports whether name's extension is one of typeCSV's
// comma-separated, lowercased, dot-stripped entries -- the same normalization
// the filter predicate's extension set applies during an actual scan.
func matchesExtensionFilter(typeCSV, name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	for _, want := range strings.Split(typeCSV, ",") {
		want = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(want, ".")))
		if want != "" && want == ext {
			return true
		}
	}
	return false
}
