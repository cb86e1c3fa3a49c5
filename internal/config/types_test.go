package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfile_ZeroValue(t *testing.T) {
	var p Profile
	assert.Equal(t, "", p.Mode)
	assert.Equal(t, 0, p.MaxDepth)
	assert.Nil(t, p.Extends)
	assert.False(t, p.Compress)
	assert.Nil(t, p.Ignore)
}

func TestConfig_ProfileLookup(t *testing.T) {
	cfg := &Config{Profile: map[string]*Profile{
		"default": {Mode: "classic"},
		"ci":      {Mode: "json"},
	}}

	assert.Equal(t, "classic", cfg.Profile["default"].Mode)
	assert.Equal(t, "json", cfg.Profile["ci"].Mode)
	assert.Nil(t, cfg.Profile["missing"])
}

func TestProfile_ExtendsIsOptionalPointer(t *testing.T) {
	name := "default"
	p := Profile{Extends: &name}
	assert.Equal(t, "default", *p.Extends)

	var unset Profile
	assert.Nil(t, unset.Extends)
}
