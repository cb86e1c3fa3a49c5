package config

// DefaultProfile returns a new Profile populated with the built-in scan
// defaults. This profile is used as the base when no smarttree.toml is
// present or when a named profile omits fields.
//
// Callers receive a fresh copy each time; mutating the returned value does
// not affect subsequent calls.
func DefaultProfile() *Profile {
	return &Profile{
		Mode:          "classic",
		MaxDepth:      0,
		EntryType:     "",
		SafetyProfile: "regular",
		Tokenizer:     "cl100k_base",
		Compress:      false,
		Ignore: []string{
			"node_modules",
			".git",
			"dist",
			"target",
			"vendor",
			"__pycache__",
			".next",
		},
	}
}
