// Package cli implements the Cobra command hierarchy for the st CLI tool.
// The root command defined here is the entry point for all subcommands and
// handles cross-cutting concerns like logging initialization, configuration
// resolution, and the scan-to-output run itself.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/8b-is/smart-tree/internal/config"
	"github.com/8b-is/smart-tree/internal/core"
	"github.com/8b-is/smart-tree/internal/orchestrator"
)

// Exit codes (spec section 6.1).
const (
	ExitSuccess       = 0
	ExitError         = 1
	ExitConfig        = 2
	ExitIO            = 3
	ExitSafetyAborted = 4
	ExitCancelled     = 130
)

// cliError pairs an error with the exit code it should produce, letting
// Execute map failures from anywhere in the run (flag validation, config
// resolution, the scan itself) back to the spec's exit-code contract
// without every internal package having to know about process exit codes.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

func configError(err error) error { return &cliError{code: ExitConfig, err: err} }
func ioError(err error) error     { return &cliError{code: ExitIO, err: err} }

// flagValues holds the parsed global flag values, populated by config.BindFlags
// during command initialization and validated in PersistentPreRunE.
var flagValues *config.FlagValues

var rootCmd = &cobra.Command{
	Use:   "st",
	Short: "Visualize and analyze directory trees for humans and LLMs.",
	Long: `st walks a directory tree and renders it in one of several formats,
from the familiar indented Classic view to compact binary encodings built
for feeding an LLM context window (Quantum, Quantum-Semantic) or a
structured JSON/CSV export for tooling.

Filtering, ignore rules, content search, and safety limits are all
configurable per invocation or via a named profile in smarttree.toml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ValidateFlags(flagValues); err != nil {
			return configError(err)
		}

		level := config.ResolveLogLevel(false, false)
		format := config.ResolveLogFormat()
		config.SetupLogging(level, format)

		slog.Debug("logging initialized", "level", level, "format", format)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, args)
	},
}

func init() {
	flagValues = config.BindFlags(rootCmd)

	rootCmd.RegisterFlagCompletionFunc("mode", completeMode)
	rootCmd.RegisterFlagCompletionFunc("entry-type", completeEntryType)
	rootCmd.RegisterFlagCompletionFunc("safety-profile", completeSafetyProfile)
	rootCmd.RegisterFlagCompletionFunc("tokenizer", completeTokenizer)
}

func completeMode(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"classic", "hex", "ai", "ai-json", "json", "json-compact", "csv", "tsv", "statistics",
		"digest", "markdown", "mermaid", "relations", "quantum", "quantum-semantic", "claude",
	}, cobra.ShellCompDirectiveNoFileComp
}

func completeEntryType(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"f", "d", "l"}, cobra.ShellCompDirectiveNoFileComp
}

func completeSafetyProfile(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"regular", "home", "server"}, cobra.ShellCompDirectiveNoFileComp
}

func completeTokenizer(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"cl100k_base", "o200k_base", "none"}, cobra.ShellCompDirectiveNoFileComp
}

// runScan resolves configuration for the current invocation and delegates
// the scan-to-output run to internal/core.Run -- this command owns flag
// parsing and exit-code mapping only, per SPEC_FULL.md section 2's "thin
// adapter over core.ScanAndFormat / core.ScanStream" contract.
func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolved, err := config.Resolve(config.ResolveOptions{
		ProfileName: flagValues.Profile,
		ProfileFile: flagValues.ProfileFile,
		TargetDir:   flagValues.Dir,
		CLIFlags:    flagValues.ToCLIMap(cmd),
	})
	if err != nil {
		return configError(fmt.Errorf("resolving configuration: %w", err))
	}

	session := core.NewSession()
	runErr := core.Run(ctx, cmd.OutOrStdout(), core.Config{
		Root:    flagValues.Dir,
		Profile: resolved.Profile,
		Session: session,
		WarnFunc: func(reason string, ratio float64) {
			slog.Warn("safety threshold crossed", "reason", reason, "ratio", ratio, "session", session.ID)
		},
	})
	return mapRunError(runErr)
}

// mapRunError translates an orchestrator.Run error into a cliError carrying
// the spec section 6.1 exit code, or returns it unwrapped when it is
// already a configError/ioError from earlier in the run.
func mapRunError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return &cliError{code: ExitCancelled, err: err}
	}
	var abortErr *orchestrator.AbortError
	if errors.As(err, &abortErr) {
		return &cliError{code: ExitSafetyAborted, err: err}
	}
	var cfgErr *core.ConfigError
	if errors.As(err, &cfgErr) {
		return configError(err)
	}
	var existing *cliError
	if errors.As(err, &existing) {
		return existing
	}
	return ioError(err)
}

// Execute runs the root command and returns an appropriate process exit
// code per spec section 6.1: 0 success, 2 configuration error, 3 I/O error
// on the scan root, 4 aborted by the safety tracker, 130 cancelled.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		return extractExitCode(err)
	}
	return ExitSuccess
}

// extractExitCode determines the process exit code from an error returned
// by rootCmd.Execute(). A *cliError carries its own code; any other
// non-nil error falls back to the generic ExitError.
func extractExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return ExitError
}

// RootCmd returns the root cobra.Command for use in testing and subcommand registration.
func RootCmd() *cobra.Command {
	return rootCmd
}

// GlobalFlags returns the parsed global flag values. This is available after
// PersistentPreRunE has run. Subcommands use this to access shared configuration.
func GlobalFlags() *config.FlagValues {
	return flagValues
}
