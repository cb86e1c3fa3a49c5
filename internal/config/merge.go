package config

// mergeProfile creates a new Profile by applying override on top of base.
// The merge rules are:
//   - String scalars: use override if non-empty; otherwise keep base.
//   - Int scalars: use override if non-zero; otherwise keep base.
//   - Bool scalars: always use override (false is a valid override value).
//   - Slice fields (Ignore): use override slice if it is non-nil and
//     non-empty; otherwise keep base slice.
//
// Neither base nor override is mutated. A fresh Profile is always returned.
// The Extends field is always cleared on the returned profile.
func mergeProfile(base, override *Profile) *Profile {
	result := &Profile{
		// Scalar: string
		Mode:          mergeString(base.Mode, override.Mode),
		Find:          mergeString(base.Find, override.Find),
		Type:          mergeString(base.Type, override.Type),
		EntryType:     mergeString(base.EntryType, override.EntryType),
		MinSize:       mergeString(base.MinSize, override.MinSize),
		MaxSize:       mergeString(base.MaxSize, override.MaxSize),
		NewerThan:     mergeString(base.NewerThan, override.NewerThan),
		OlderThan:     mergeString(base.OlderThan, override.OlderThan),
		Search:        mergeString(base.Search, override.Search),
		SafetyProfile: mergeString(base.SafetyProfile, override.SafetyProfile),
		Tokenizer:     mergeString(base.Tokenizer, override.Tokenizer),

		// Scalar: int
		MaxDepth: mergeInt(base.MaxDepth, override.MaxDepth),

		// Scalar: bool -- override always wins (false is meaningful)
		All:             override.All,
		NoIgnore:        override.NoIgnore,
		NoDefaultIgnore: override.NoDefaultIgnore,
		ShowIgnored:     override.ShowIgnored,
		SearchOnly:      override.SearchOnly,
		Compress:        override.Compress,
		NoColor:         override.NoColor,
		NoEmoji:         override.NoEmoji,

		// Slices: child replaces parent entirely when non-nil and non-empty
		Ignore: mergeSlice(base.Ignore, override.Ignore),

		// Extends is always cleared after merge (profile is fully resolved)
		Extends: nil,
	}
	return result
}

// mergeString returns override if non-empty, otherwise base.
func mergeString(base, override string) string {
	if override != "" {
		return override
	}
	return base
}

// mergeInt returns override if non-zero, otherwise base.
func mergeInt(base, override int) int {
	if override != 0 {
		return override
	}
	return base
}

// mergeSlice returns a copy of override if it is non-nil and non-empty,
// otherwise returns a copy of base. Copies are made at the boundary so
// callers never share slice backing arrays.
func mergeSlice(base, override []string) []string {
	if len(override) > 0 {
		result := make([]string, len(override))
		copy(result, override)
		return result
	}
	if len(base) > 0 {
		result := make([]string, len(base))
		copy(result, base)
		return result
	}
	return nil
}
