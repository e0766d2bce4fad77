package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alonsovb/sermonkit/internal/apierr"
	"github.com/alonsovb/sermonkit/internal/audio"
	"github.com/alonsovb/sermonkit/internal/cli"
	"github.com/alonsovb/sermonkit/internal/ffmpeg"
	"github.com/alonsovb/sermonkit/internal/ideas"
	"github.com/alonsovb/sermonkit/internal/interrupt"
	"github.com/alonsovb/sermonkit/internal/subtitle"
	"github.com/alonsovb/sermonkit/internal/transcribe"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitAPI        = 5
	ExitAudio      = 6
	ExitInterrupt  = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// First Ctrl+C cancels the context so commands can clean up scratch
	// files; a second Ctrl+C within the window aborts immediately.
	handler, ctx := interrupt.NewHandler(context.Background())
	defer handler.Stop()

	// Create the CLI environment with production defaults.
	env := cli.DefaultEnv()

	// Root command.
	rootCmd := &cobra.Command{
		Use:     "sermonkit",
		Short:   "Transcribe, correct, and align sermon recordings",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Subcommands.
	rootCmd.AddCommand(cli.TranscribeCmd(env))
	rootCmd.AddCommand(cli.CorrectCmd(env))
	rootCmd.AddCommand(cli.ExtractCmd(env))
	rootCmd.AddCommand(cli.EditCmd(env))
	rootCmd.AddCommand(cli.AlignCmd(env))
	rootCmd.AddCommand(cli.SubtitleCmd(env))
	rootCmd.AddCommand(cli.ClipsCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if handler.WasInterrupted() {
			os.Exit(ExitInterrupt)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Context cancellation from an interrupt.
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Usage errors (ExitUsage = 2): Cobra flag/arg parsing errors.
	// Cobra doesn't expose typed errors, so we check for known error message patterns.
	// These patterns are stable across Cobra versions (tested with v1.8+).
	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors (ExitSetup = 3).
	if errors.Is(err, ffmpeg.ErrNotFound) || errors.Is(err, cli.ErrAPIKeyMissing) ||
		errors.Is(err, cli.ErrDeepSeekKeyMissing) || errors.Is(err, cli.ErrInvalidProvider) ||
		errors.Is(err, transcribe.ErrAPIKeyMissing) {
		return ExitSetup
	}

	// Validation errors (ExitValidation = 4).
	if errors.Is(err, cli.ErrUnsupportedFormat) || errors.Is(err, cli.ErrFileNotFound) ||
		errors.Is(err, cli.ErrOutputExists) || errors.Is(err, ideas.ErrNoIdeas) ||
		errors.Is(err, subtitle.ErrUnknownStyle) || errors.Is(err, subtitle.ErrNoIdeas) ||
		errors.Is(err, subtitle.ErrMissingTimestamps) || errors.Is(err, audio.ErrMissingTimestamps) ||
		errors.Is(err, audio.ErrFileNotFound) || errors.Is(err, transcribe.ErrNoSegments) {
		return ExitValidation
	}

	// API errors (ExitAPI = 5).
	if errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrQuotaExceeded) ||
		errors.Is(err, apierr.ErrTimeout) || errors.Is(err, apierr.ErrAuthFailed) {
		return ExitAPI
	}

	// Audio processing errors (ExitAudio = 6).
	if errors.Is(err, audio.ErrExtractFailed) || errors.Is(err, audio.ErrSplitFailed) ||
		errors.Is(err, audio.ErrProbeFailed) || errors.Is(err, audio.ErrNoClips) ||
		errors.Is(err, ffmpeg.ErrTimeout) {
		return ExitAudio
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// These patterns are stable across Cobra versions (tested with v1.8+).
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
	"flag needs an argument",    // Flag provided without value
	"invalid argument",          // Invalid flag value type
	"if any flags in the group", // Mutually exclusive flag violation
	"accepts ",                  // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",         // Too few arguments
	"requires at most",          // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
