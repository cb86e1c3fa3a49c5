package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable name constants for ST_ prefixed overrides (spec
// section 6.2).
const (
	// EnvProfile selects the named profile to activate.
	EnvProfile = "ST_PROFILE"
	// EnvMode overrides the default output mode; a command-line mode
	// argument always takes precedence over it (spec section 6.2 /
	// testable property 8).
	EnvMode = "ST_DEFAULT_MODE"
	// EnvMaxDepth overrides the maximum walk depth.
	EnvMaxDepth = "ST_MAX_DEPTH"
	// EnvSafetyProfile overrides the safety resource-limit preset.
	EnvSafetyProfile = "ST_SAFETY_PROFILE"
	// EnvTokenizer overrides the token counting model.
	EnvTokenizer = "ST_TOKENIZER"
	// EnvCompress overrides the compression flag.
	EnvCompress = "ST_COMPRESS"
	// EnvLogFormat overrides the log output format (not a profile field).
	EnvLogFormat = "ST_LOG_FORMAT"
	// EnvNoColor disables ANSI color, following the NO_COLOR convention
	// (spec section 6.2) rather than an ST_ prefix.
	EnvNoColor = "NO_COLOR"
	// EnvNoEmoji disables emoji decoration (spec section 6.2).
	EnvNoEmoji = "NO_EMOJI"
	// EnvAITools signals an AI-tool caller, defaulting Mode to "ai" when
	// no other mode is specified (spec section 6.2).
	EnvAITools = "AI_TOOLS"
)

// buildEnvMap reads ST_*-prefixed (plus NO_COLOR/NO_EMOJI/AI_TOOLS)
// environment variables and returns a flat map suitable for use with a
// koanf confmap provider. Only non-empty env vars that parse successfully
// are included; invalid numeric/boolean values are silently skipped so a
// bad env var does not block the entire resolution pipeline.
func buildEnvMap() map[string]any {
	m := make(map[string]any)

	if v := os.Getenv(EnvMode); v != "" {
		m["mode"] = v
	} else if v := os.Getenv(EnvAITools); v != "" {
		m["mode"] = "ai"
	}
	if v := os.Getenv(EnvMaxDepth); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			m["max_depth"] = n
		}
	}
	if v := os.Getenv(EnvSafetyProfile); v != "" {
		m["safety_profile"] = v
	}
	if v := os.Getenv(EnvTokenizer); v != "" {
		m["tokenizer"] = v
	}
	if v := os.Getenv(EnvCompress); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			m["compress"] = b
		}
	}
	if v := os.Getenv(EnvNoColor); v != "" {
		m["no_color"] = true
	}
	if v := strings.ToLower(os.Getenv(EnvNoEmoji)); v != "" && v != "0" && v != "false" {
		m["no_emoji"] = true
	}

	return m
}
