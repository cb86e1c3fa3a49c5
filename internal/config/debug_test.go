package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearSmartTreeEnv unsets every env var BuildDebugOutput/Resolve might read,
// restoring the original values after the test completes.
func clearSmartTreeEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		EnvProfile, EnvMode, EnvMaxDepth, EnvSafetyProfile, EnvTokenizer,
		EnvCompress, EnvLogFormat, EnvNoColor, EnvNoEmoji, EnvAITools,
	}
	for _, v := range vars {
		old, had := os.LookupEnv(v)
		os.Unsetenv(v)
		t.Cleanup(func() {
			if had {
				os.Setenv(v, old)
			}
		})
	}
}

// ── AbbreviateSlice ──────────────────────────────────────────────────────────

func TestAbbreviateSlice_Empty(t *testing.T) {
	assert.Equal(t, "", abbreviateSlice(nil))
	assert.Equal(t, "", abbreviateSlice([]string{}))
}

func TestAbbreviateSlice_OneToThreeItems(t *testing.T) {
	assert.Equal(t, "[a]", abbreviateSlice([]string{"a"}))
	assert.Equal(t, "[a, b]", abbreviateSlice([]string{"a", "b"}))
	assert.Equal(t, "[a, b, c]", abbreviateSlice([]string{"a", "b", "c"}))
}

func TestAbbreviateSlice_FourOrMoreItems(t *testing.T) {
	got := abbreviateSlice([]string{"a", "b", "c", "d"})
	assert.Equal(t, "[a, b, c ...1 more]", got)

	got = abbreviateSlice([]string{"a", "b", "c", "d", "e", "f"})
	assert.Equal(t, "[a, b, c ...3 more]", got)
}

// ── BuildDebugOutput ─────────────────────────────────────────────────────────

func TestBuildDebugOutput_DefaultOnly(t *testing.T) {
	clearSmartTreeEnv(t)
	dir := t.TempDir()

	out, err := BuildDebugOutput(DebugOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "does-not-exist.toml"),
	})
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, "default", out.ActiveProfile)
	modeEntry := findConfigEntry(t, out, "mode")
	assert.Equal(t, "default", modeEntry.Source)
}

func TestBuildDebugOutput_GlobalFound(t *testing.T) {
	clearSmartTreeEnv(t)
	dir := t.TempDir()
	globalPath := writeTomlFile(t, dir, "global.toml", "[profile.default]\nmode = \"json\"\n")

	out, err := BuildDebugOutput(DebugOptions{
		TargetDir:        dir,
		GlobalConfigPath: globalPath,
	})
	require.NoError(t, err)

	cf := out.ConfigFiles[0]
	assert.Equal(t, "Global", cf.Label)
	assert.True(t, cf.Found)

	modeEntry := findConfigEntry(t, out, "mode")
	assert.Equal(t, "json", modeEntry.Value)
	assert.Equal(t, "global", modeEntry.Source)
}

func TestBuildDebugOutput_RepoOverride(t *testing.T) {
	clearSmartTreeEnv(t)
	dir := t.TempDir()
	globalPath := writeTomlFile(t, dir, "global.toml", "[profile.default]\nmode = \"json\"\n")
	writeTomlFile(t, dir, "smarttree.toml", "[profile.default]\nmode = \"classic\"\n")

	out, err := BuildDebugOutput(DebugOptions{
		TargetDir:        dir,
		GlobalConfigPath: globalPath,
	})
	require.NoError(t, err)

	modeEntry := findConfigEntry(t, out, "mode")
	assert.Equal(t, "classic", modeEntry.Value)
	assert.Equal(t, "repo", modeEntry.Source)

	cf := out.ConfigFiles[1]
	assert.Equal(t, "Repo", cf.Label)
	assert.True(t, cf.Found)
}

func TestBuildDebugOutput_EnvVarOverride(t *testing.T) {
	clearSmartTreeEnv(t)
	dir := t.TempDir()
	t.Setenv(EnvMaxDepth, "7")

	out, err := BuildDebugOutput(DebugOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nope.toml"),
	})
	require.NoError(t, err)

	entry := findConfigEntry(t, out, "max_depth")
	assert.Equal(t, "7", entry.Value)
	assert.Equal(t, "env (ST_MAX_DEPTH)", entry.Source)

	ev := findEnvVarStatus(t, out, EnvMaxDepth)
	assert.True(t, ev.Applied)
	assert.Equal(t, "7", ev.Value)
}

func TestBuildDebugOutput_EnvVarTokenizer(t *testing.T) {
	clearSmartTreeEnv(t)
	dir := t.TempDir()
	t.Setenv(EnvTokenizer, "o200k_base")

	out, err := BuildDebugOutput(DebugOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nope.toml"),
	})
	require.NoError(t, err)

	entry := findConfigEntry(t, out, "tokenizer")
	assert.Equal(t, "o200k_base", entry.Value)
	assert.Equal(t, "env (ST_TOKENIZER)", entry.Source)
}

func TestBuildDebugOutput_CLIFlagOverride(t *testing.T) {
	clearSmartTreeEnv(t)
	dir := t.TempDir()

	out, err := BuildDebugOutput(DebugOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nope.toml"),
		CLIFlags:         map[string]any{"mode": "quantum"},
	})
	require.NoError(t, err)

	entry := findConfigEntry(t, out, "mode")
	assert.Equal(t, "quantum", entry.Value)
	assert.Equal(t, "flag (--mode)", entry.Source)
}

func TestBuildDebugOutput_CLIFlagPrecedenceOverEnv(t *testing.T) {
	clearSmartTreeEnv(t)
	dir := t.TempDir()
	t.Setenv(EnvMode, "ai")

	out, err := BuildDebugOutput(DebugOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nope.toml"),
		CLIFlags:         map[string]any{"mode": "quantum"},
	})
	require.NoError(t, err)

	entry := findConfigEntry(t, out, "mode")
	assert.Equal(t, "quantum", entry.Value)
	assert.Equal(t, "flag (--mode)", entry.Source)
}

func TestBuildDebugOutput_RepoConfigNotFound(t *testing.T) {
	clearSmartTreeEnv(t)
	dir := t.TempDir()

	out, err := BuildDebugOutput(DebugOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nope.toml"),
	})
	require.NoError(t, err)

	cf := out.ConfigFiles[1]
	assert.Equal(t, "Repo", cf.Label)
	assert.False(t, cf.Found)
}

func TestBuildDebugOutput_RepoConfigFound(t *testing.T) {
	clearSmartTreeEnv(t)
	dir := t.TempDir()
	writeTomlFile(t, dir, "smarttree.toml", "[profile.default]\nmode = \"csv\"\n")

	out, err := BuildDebugOutput(DebugOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nope.toml"),
	})
	require.NoError(t, err)

	cf := out.ConfigFiles[1]
	assert.True(t, cf.Found)
}

func TestBuildDebugOutput_InheritanceChain(t *testing.T) {
	clearSmartTreeEnv(t)
	dir := t.TempDir()
	writeTomlFile(t, dir, "smarttree.toml", ""+
		"[profile.default]\nmode = \"classic\"\n\n"+
		"[profile.base]\nextends = \"default\"\nmode = \"json\"\n\n"+
		"[profile.ci]\nextends = \"base\"\ncompress = true\n",
	)

	out, err := BuildDebugOutput(DebugOptions{
		ProfileName:      "ci",
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nope.toml"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"ci", "base", "default"}, out.InheritChain)
	assert.Equal(t, "ci (extends: base -> default)", out.ActiveProfile)
}

func TestBuildDebugOutput_SingleProfileNoExtends(t *testing.T) {
	clearSmartTreeEnv(t)
	dir := t.TempDir()

	out, err := BuildDebugOutput(DebugOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nope.toml"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"default"}, out.InheritChain)
	assert.Equal(t, "default", out.ActiveProfile)
}

func TestBuildDebugOutput_AllEnvVarsReported(t *testing.T) {
	clearSmartTreeEnv(t)
	dir := t.TempDir()

	out, err := BuildDebugOutput(DebugOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nope.toml"),
	})
	require.NoError(t, err)

	expected := []string{
		EnvProfile, EnvMode, EnvMaxDepth, EnvSafetyProfile, EnvTokenizer,
		EnvCompress, EnvLogFormat, EnvNoColor, EnvNoEmoji, EnvAITools,
	}
	require.Len(t, out.EnvVars, len(expected))
	for i, name := range expected {
		assert.Equal(t, name, out.EnvVars[i].Name)
		assert.False(t, out.EnvVars[i].Applied)
	}
}

func TestBuildDebugOutput_SetEnvVarApplied(t *testing.T) {
	clearSmartTreeEnv(t)
	dir := t.TempDir()
	t.Setenv(EnvSafetyProfile, "server")
	t.Setenv(EnvLogFormat, "json")

	out, err := BuildDebugOutput(DebugOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nope.toml"),
	})
	require.NoError(t, err)

	safetyEV := findEnvVarStatus(t, out, EnvSafetyProfile)
	assert.True(t, safetyEV.Applied)
	assert.Equal(t, "server", safetyEV.Value)

	logEV := findEnvVarStatus(t, out, EnvLogFormat)
	assert.True(t, logEV.Applied)
	assert.Equal(t, "json", logEV.Value)
}

func TestBuildDebugOutput_SliceAbbreviation(t *testing.T) {
	clearSmartTreeEnv(t)
	dir := t.TempDir()
	writeTomlFile(t, dir, "smarttree.toml",
		"[profile.default]\nignore = [\"a\", \"b\", \"c\", \"d\", \"e\"]\n")

	out, err := BuildDebugOutput(DebugOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nope.toml"),
	})
	require.NoError(t, err)

	entry := findConfigEntry(t, out, "ignore")
	assert.Equal(t, "[a, b, c ...2 more]", entry.Value)
	assert.Equal(t, "repo", entry.Source)
}

func TestBuildDebugOutput_SliceUpToThreeNotAbbreviated(t *testing.T) {
	clearSmartTreeEnv(t)
	dir := t.TempDir()
	writeTomlFile(t, dir, "smarttree.toml",
		"[profile.default]\nignore = [\"a\", \"b\"]\n")

	out, err := BuildDebugOutput(DebugOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nope.toml"),
	})
	require.NoError(t, err)

	entry := findConfigEntry(t, out, "ignore")
	assert.Equal(t, "[a, b]", entry.Value)
}

func TestBuildDebugOutput_EmptySliceNotSet(t *testing.T) {
	clearSmartTreeEnv(t)
	dir := t.TempDir()

	out, err := BuildDebugOutput(DebugOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nope.toml"),
	})
	require.NoError(t, err)

	entry := findConfigEntry(t, out, "ignore")
	assert.Equal(t, "(not set)", entry.Value)
	assert.Equal(t, "-", entry.Source)
}

// ── FormatDebugOutput ────────────────────────────────────────────────────────

func TestFormatDebugOutput_Header(t *testing.T) {
	out := sampleDebugOutput()

	var buf bytes.Buffer
	require.NoError(t, FormatDebugOutput(out, &buf))

	text := buf.String()
	assert.Contains(t, text, "Smart Tree Configuration Debug")
	assert.Contains(t, text, "===============================")
}

func TestFormatDebugOutput_ConfigFileStatus(t *testing.T) {
	out := sampleDebugOutput()

	var buf bytes.Buffer
	require.NoError(t, FormatDebugOutput(out, &buf))

	text := buf.String()
	assert.Contains(t, text, "Config Files:")
	assert.Contains(t, text, "~/.config/smarttree/config.toml (not found)")
	assert.Contains(t, text, "./smarttree.toml (loaded)")
}

func TestFormatDebugOutput_EnvVarApplied(t *testing.T) {
	out := sampleDebugOutput()

	var buf bytes.Buffer
	require.NoError(t, FormatDebugOutput(out, &buf))

	text := buf.String()
	assert.Contains(t, text, "Environment Variables:")
	assert.Contains(t, text, "ST_COMPRESS")
	assert.Contains(t, text, "(not set)")
	assert.Contains(t, text, "ST_SAFETY_PROFILE")
	assert.Contains(t, text, "home (applied)")
}

func TestFormatDebugOutput_ConfigTableHeaders(t *testing.T) {
	out := sampleDebugOutput()

	var buf bytes.Buffer
	require.NoError(t, FormatDebugOutput(out, &buf))

	text := buf.String()
	assert.Contains(t, text, "Resolved Configuration:")
	assert.Contains(t, text, "KEY")
	assert.Contains(t, text, "VALUE")
	assert.Contains(t, text, "SOURCE")
}

func TestFormatDebugOutput_ConfigEntries(t *testing.T) {
	out := sampleDebugOutput()

	var buf bytes.Buffer
	require.NoError(t, FormatDebugOutput(out, &buf))

	text := buf.String()
	assert.Contains(t, text, "mode")
	assert.Contains(t, text, "classic")
	assert.Contains(t, text, "repo")
}

// ── FormatDebugOutputJSON ────────────────────────────────────────────────────

func TestFormatDebugOutputJSON_ValidJSON(t *testing.T) {
	out := sampleDebugOutput()

	var buf bytes.Buffer
	require.NoError(t, FormatDebugOutputJSON(out, &buf))

	var decoded DebugOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, out.ActiveProfile, decoded.ActiveProfile)
}

func TestFormatDebugOutputJSON_ExpectedTopLevelFields(t *testing.T) {
	out := sampleDebugOutput()

	var buf bytes.Buffer
	require.NoError(t, FormatDebugOutputJSON(out, &buf))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))

	for _, key := range []string{"config_files", "active_profile", "env_vars", "config"} {
		assert.Contains(t, raw, key)
	}
}

func TestFormatDebugOutputJSON_ConfigFilesStructure(t *testing.T) {
	out := sampleDebugOutput()

	var buf bytes.Buffer
	require.NoError(t, FormatDebugOutputJSON(out, &buf))

	var decoded DebugOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.ConfigFiles, 2)
	assert.Equal(t, "Global", decoded.ConfigFiles[0].Label)
	assert.Equal(t, "Repo", decoded.ConfigFiles[1].Label)
}

func TestFormatDebugOutputJSON_ActiveProfileField(t *testing.T) {
	out := sampleDebugOutput()

	var buf bytes.Buffer
	require.NoError(t, FormatDebugOutputJSON(out, &buf))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Equal(t, out.ActiveProfile, raw["active_profile"])
}

func TestFormatDebugOutputJSON_InheritChainOmittedWhenEmpty(t *testing.T) {
	out := sampleDebugOutput()
	out.InheritChain = nil

	var buf bytes.Buffer
	require.NoError(t, FormatDebugOutputJSON(out, &buf))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.NotContains(t, raw, "inherit_chain")
}

func TestFormatDebugOutputJSON_InheritChainPresentWhenSet(t *testing.T) {
	out := sampleDebugOutput()
	out.InheritChain = []string{"ci", "base", "default"}

	var buf bytes.Buffer
	require.NoError(t, FormatDebugOutputJSON(out, &buf))

	var decoded DebugOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []string{"ci", "base", "default"}, decoded.InheritChain)
}

// ── sourceDetailLabel / buildActiveProfileLabel ─────────────────────────────

func TestSourceDetailLabel_AllSources(t *testing.T) {
	assert.Equal(t, "default", sourceDetailLabel("mode", SourceDefault))
	assert.Equal(t, "global", sourceDetailLabel("mode", SourceGlobal))
	assert.Equal(t, "repo", sourceDetailLabel("mode", SourceRepo))
	assert.Equal(t, "env (ST_DEFAULT_MODE)", sourceDetailLabel("mode", SourceEnv))
	assert.Equal(t, "flag (--mode)", sourceDetailLabel("mode", SourceFlag))
}

func TestSourceDetailLabel_EnvWithoutMapping(t *testing.T) {
	assert.Equal(t, "env", sourceDetailLabel("find", SourceEnv))
}

func TestSourceDetailLabel_FlagWithoutMapping(t *testing.T) {
	assert.Equal(t, "flag", sourceDetailLabel("nonexistent", SourceFlag))
}

func TestBuildActiveProfileLabel(t *testing.T) {
	assert.Equal(t, "default", buildActiveProfileLabel(nil))
	assert.Equal(t, "default", buildActiveProfileLabel([]string{"default"}))
	assert.Equal(t, "ci (extends: base -> default)",
		buildActiveProfileLabel([]string{"ci", "base", "default"}))
}

// ── Integration ──────────────────────────────────────────────────────────────

func TestBuildAndFormat_Integration(t *testing.T) {
	clearSmartTreeEnv(t)
	dir := t.TempDir()
	writeTomlFile(t, dir, "smarttree.toml", "[profile.default]\nmode = \"quantum\"\n")

	out, err := BuildDebugOutput(DebugOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nope.toml"),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, FormatDebugOutput(out, &buf))
	assert.Contains(t, buf.String(), "quantum")
}

func TestBuildAndFormatJSON_Integration(t *testing.T) {
	clearSmartTreeEnv(t)
	dir := t.TempDir()
	writeTomlFile(t, dir, "smarttree.toml", "[profile.default]\nmode = \"quantum-semantic\"\n")

	out, err := BuildDebugOutput(DebugOptions{
		TargetDir:        dir,
		GlobalConfigPath: filepath.Join(dir, "nope.toml"),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, FormatDebugOutputJSON(out, &buf))
	assert.Contains(t, buf.String(), "quantum-semantic")
}

// ── fixtures ─────────────────────────────────────────────────────────────────

// sampleDebugOutput returns a minimal DebugOutput suitable for format tests.
func sampleDebugOutput() *DebugOutput {
	return &DebugOutput{
		ConfigFiles: []ConfigFileStatus{
			{Label: "Global", Path: "~/.config/smarttree/config.toml", Found: false},
			{Label: "Repo", Path: "./smarttree.toml", Found: true},
		},
		ActiveProfile: "default",
		EnvVars: []EnvVarStatus{
			{Name: "ST_PROFILE", Applied: false},
			{Name: "ST_COMPRESS", Applied: false},
			{Name: "ST_SAFETY_PROFILE", Value: "home", Applied: true},
		},
		Config: []ConfigEntry{
			{Key: "mode", Value: "classic", Source: "repo"},
			{Key: "max_depth", Value: "0", Source: "default"},
		},
	}
}

// findConfigEntry returns the ConfigEntry with the given key. It fails the
// test if no matching entry is found.
func findConfigEntry(t *testing.T, out *DebugOutput, key string) ConfigEntry {
	t.Helper()
	for _, e := range out.Config {
		if e.Key == key {
			return e
		}
	}
	t.Fatalf("config entry %q not found in %+v", key, out.Config)
	return ConfigEntry{}
}

// findEnvVarStatus returns the EnvVarStatus for the given env var name. It
// fails the test if no matching status is found.
func findEnvVarStatus(t *testing.T, out *DebugOutput, name string) EnvVarStatus {
	t.Helper()
	for _, ev := range out.EnvVars {
		if ev.Name == name {
			return ev
		}
	}
	t.Fatalf("env var status %q not found in %+v", name, out.EnvVars)
	return EnvVarStatus{}
}
