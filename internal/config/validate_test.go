package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func errorFields(results []ValidationError) []string {
	var fields []string
	for _, r := range results {
		if r.Severity == "error" {
			fields = append(fields, r.Field)
		}
	}
	return fields
}

func TestValidate_Nil(t *testing.T) {
	assert.Nil(t, Validate(nil))
}

func TestValidate_CleanProfile(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{
		"default": {
			Mode:          "markdown",
			MaxDepth:      10,
			EntryType:     "f",
			SafetyProfile: "regular",
			Tokenizer:     "cl100k_base",
			Ignore:        []string{"**/*.log"},
		},
	}}
	assert.Empty(t, Validate(cfg))
}

func TestValidate_InvalidMode(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{"p": {Mode: "yaml"}}}
	results := Validate(cfg)
	assert.Contains(t, errorFields(results), "profile.p.mode")
}

func TestValidate_InvalidEntryType(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{"p": {EntryType: "x"}}}
	results := Validate(cfg)
	assert.Contains(t, errorFields(results), "profile.p.entry_type")
}

func TestValidate_InvalidSafetyProfile(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{"p": {SafetyProfile: "extreme"}}}
	results := Validate(cfg)
	assert.Contains(t, errorFields(results), "profile.p.safety_profile")
}

func TestValidate_InvalidTokenizer(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{"p": {Tokenizer: "gpt4-tokenizer"}}}
	results := Validate(cfg)
	assert.Contains(t, errorFields(results), "profile.p.tokenizer")
}

func TestValidate_NegativeMaxDepth(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{"p": {MaxDepth: -1}}}
	results := Validate(cfg)
	assert.Contains(t, errorFields(results), "profile.p.max_depth")
}

func TestValidate_StructTagSuggestion(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{"p": {Mode: "yaml"}}}
	results := Validate(cfg)
	var found bool
	for _, r := range results {
		if r.Field == "profile.p.mode" && r.Suggest != "" {
			found = true
		}
	}
	assert.True(t, found, "expected a suggestion on the struct-tag-driven mode error")
}

func TestValidate_InvalidFindRegex(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{"p": {Find: "(unclosed"}}}
	results := Validate(cfg)
	assert.Contains(t, errorFields(results), "profile.p.find")
}

func TestValidate_InvalidMinMaxSize(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{"p": {MinSize: "notasize"}}}
	results := Validate(cfg)
	assert.Contains(t, errorFields(results), "profile.p.min_size")
}

func TestValidate_MinSizeExceedsMaxSize_Warning(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{"p": {MinSize: "10MB", MaxSize: "1MB"}}}
	results := Validate(cfg)
	var found bool
	for _, r := range results {
		if r.Field == "profile.p.min_size" && r.Severity == "warning" {
			found = true
		}
	}
	assert.True(t, found, "expected a min_size > max_size warning")
}

func TestValidate_InvalidDateBounds(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{"p": {NewerThan: "not-a-date"}}}
	results := Validate(cfg)
	assert.Contains(t, errorFields(results), "profile.p.newer_than")
}

func TestValidate_RelativeDateBoundsAccepted(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{"p": {NewerThan: "7d", OlderThan: "2h"}}}
	assert.Empty(t, Validate(cfg))
}

func TestValidate_InvalidGlobPattern(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{"p": {Ignore: []string{"[unterminated"}}}}
	results := Validate(cfg)
	found := false
	for _, f := range errorFields(results) {
		if f == "profile.p.ignore[0]" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_CircularExtends(t *testing.T) {
	a := "b"
	b := "a"
	cfg := &Config{Profile: map[string]*Profile{
		"a": {Extends: &a},
		"b": {Extends: &b},
	}}
	results := Validate(cfg)
	assert.NotEmpty(t, errorFields(results))
}

func TestValidate_ExtendsUnknownProfile(t *testing.T) {
	missing := "ghost"
	cfg := &Config{Profile: map[string]*Profile{"p": {Extends: &missing}}}
	results := Validate(cfg)
	assert.Contains(t, errorFields(results), "profile.p.extends")
}

func TestValidate_DeepInheritanceWarning(t *testing.T) {
	p0, p1, p2, p3 := "p0", "p1", "p2", "p3"
	cfg := &Config{Profile: map[string]*Profile{
		"p0": {},
		"p1": {Extends: &p0},
		"p2": {Extends: &p1},
		"p3": {Extends: &p2},
		"p4": {Extends: &p3},
	}}
	results := Validate(cfg)
	var found bool
	for _, r := range results {
		if r.Field == "profile.p4.extends" && r.Severity == "warning" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_NilProfileSkipped(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{"p": nil}}
	assert.Empty(t, Validate(cfg))
}

func TestValidationError_ErrorString(t *testing.T) {
	ve := ValidationError{Severity: "error", Field: "profile.p.mode", Message: "bad", Suggest: "fix it"}
	assert.Contains(t, ve.Error(), "profile.p.mode")
	assert.Contains(t, ve.Error(), "fix it")

	ve2 := ValidationError{Severity: "warning", Field: "profile.p.ignore", Message: "broad"}
	assert.NotContains(t, ve2.Error(), "suggestion")
}

func TestParseDateBound_RFC3339(t *testing.T) {
	_, err := ParseDateBound("2024-01-15T00:00:00Z")
	assert.NoError(t, err)
}

func TestParseDateBound_BareDate(t *testing.T) {
	_, err := ParseDateBound("2024-01-15")
	assert.NoError(t, err)
}

func TestParseDateBound_Relative(t *testing.T) {
	got, err := ParseDateBound("1d")
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), got, 5*time.Second)
}

func TestParseDateBound_Invalid(t *testing.T) {
	_, err := ParseDateBound("not-a-date")
	assert.Error(t, err)
}

func TestLint_IncludesValidateResults(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{"p": {Mode: "not-a-mode"}}}
	results := Lint(cfg)
	assert.NotEmpty(t, results)
	assert.Equal(t, "", results[0].Code)
}

func TestLint_BroadIgnorePattern(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{"p": {Ignore: []string{"test"}}}}
	results := Lint(cfg)
	var found bool
	for _, r := range results {
		if r.Code == "broad-ignore" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLint_BroadIgnoreSkipsAnchoredOrExtensionPatterns(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{"p": {Ignore: []string{"/build", "*.log", "/node_modules/"}}}}
	results := Lint(cfg)
	for _, r := range results {
		assert.NotEqual(t, "broad-ignore", r.Code)
	}
}

func TestLint_ComplexityWarning(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{"p": {
		Mode: "json", MaxDepth: 5, Find: ".go$", EntryType: "f",
		MinSize: "1KB", MaxSize: "1MB", NewerThan: "7d", OlderThan: "30d",
		All: true, NoIgnore: false, ShowIgnored: true,
	}}}
	results := Lint(cfg)
	var found bool
	for _, r := range results {
		if r.Code == "complexity" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLint_Nil(t *testing.T) {
	assert.Nil(t, Lint(nil))
}
