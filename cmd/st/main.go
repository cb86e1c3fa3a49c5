// Package main is the entry point for the st CLI tool, the thin cobra
// collaborator described in SPEC_FULL.md section 1: it owns no scanning or
// formatting logic itself, only flag parsing and process exit codes (spec
// section 6.1), delegating everything else to internal/cli.
package main

import (
	"os"

	"github.com/8b-is/smart-tree/internal/cli"
)

// version, commit, date, and goVersion are injected via ldflags at build
// time, e.g.:
//
//	go build -ldflags "-X github.com/8b-is/smart-tree/internal/buildinfo.Version=..."
//
// directly into internal/buildinfo's exported vars, so main has nothing
// left to forward; see internal/cli/version.go.
func main() {
	os.Exit(cli.Execute())
}
