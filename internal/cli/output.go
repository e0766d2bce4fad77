package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alonsovb/sermonkit/internal/config"
)

// replaceExt swaps inputPath's extension for ext (which must include
// the leading dot).
func replaceExt(inputPath, ext string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ext
}

// suffixPath inserts suffix before inputPath's extension.
// Example: ("sermon.txt", "_corrected") -> "sermon_corrected.txt"
func suffixPath(inputPath, suffix string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + suffix + ext
}

// loadConfig loads user configuration. Load failures degrade to a
// warning and an empty config; the command still runs.
func loadConfig(env *Env) config.Config {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}
	return cfg
}

// resolveOutput applies the configured output directory to an output
// path, deriving the default name from the input when unset.
func resolveOutput(cfg config.Config, output, defaultName string) string {
	return config.ResolveOutputPath(output, cfg.OutputDir, defaultName)
}

// printWarnings writes each warning to w with a common prefix.
func printWarnings(w io.Writer, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
}

// progressLine returns a progress callback that writes a counter line
// to w after each completed item.
func progressLine(w io.Writer, verb string) func(current, total int) {
	return func(current, total int) {
		fmt.Fprintf(w, "  %s %d/%d\n", verb, current, total)
	}
}

// statFile verifies path exists and is a regular input file.
func statFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}
	return nil
}

// writeFileAtomic writes content to path atomically.
// It fails if the file already exists (O_EXCL), preventing accidental
// overwrites. On write failure, the partial file is removed.
func writeFileAtomic(path, content string) error {
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("output file already exists: %s: %w", path, ErrOutputExists)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.WriteString(content); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}

	return nil
}
