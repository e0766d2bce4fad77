package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alonsovb/sermonkit/internal/ideas"
	"github.com/alonsovb/sermonkit/internal/promptcache"
)

// defaultCacheName is the prompt cache file written next to the
// extracted ideas.
const defaultCacheName = ".sermonkit-cache.json"

// ExtractCmd creates the extract command.
// The env parameter provides injectable dependencies for testing.
func ExtractCmd(env *Env) *cobra.Command {
	var (
		output   string
		cache    string
		noCache  bool
		provider string
		model    string
	)

	cmd := &cobra.Command{
		Use:   "extract <transcript-file>",
		Short: "Extract the key ideas of a sermon",
		Long: `Extract the seven key ideas of a corrected sermon transcript.

Ideas follow a three-act narrative shape (2 + 2 + 3) with the literal
quote, biblical reference, and context for each. Shape violations are
reported as warnings, not errors.

Extractions are cached by transcript content: re-running on an
unchanged transcript reuses the previous output instead of calling
the API again.`,
		Example: `  sermonkit extract sermon_corrected.txt
  sermonkit extract sermon_corrected.txt -o ideas.json
  sermonkit extract sermon_corrected.txt --no-cache
  sermonkit extract sermon_corrected.txt --provider deepseek`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, env, args[0], extractOptions{
				output:   output,
				cache:    cache,
				noCache:  noCache,
				provider: provider,
				model:    model,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output JSON path (default: <input>_ideas.json)")
	cmd.Flags().StringVar(&cache, "cache", "", "Prompt cache path (default: next to output)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Ignore the prompt cache")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider: openai, deepseek (default: config, then openai)")
	cmd.Flags().StringVar(&model, "model", "", "Completion model (default: provider's default)")

	return cmd
}

// extractOptions carries the extract command's flag values.
type extractOptions struct {
	output   string
	cache    string
	noCache  bool
	provider string
	model    string
}

// runExtract executes the idea extraction pipeline.
func runExtract(cmd *cobra.Command, env *Env, inputPath string, opts extractOptions) error {
	ctx := cmd.Context()

	if err := statFile(inputPath); err != nil {
		return err
	}

	cfg := loadConfig(env)
	base := replaceExt(filepath.Base(inputPath), "")
	output := resolveOutput(cfg, opts.output, base+"_ideas.json")

	// #nosec G304 -- user-specified input file
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("cannot read transcript: %w", err)
	}
	text := string(data)

	// === CACHE LOOKUP ===

	cachePath := opts.cache
	if cachePath == "" {
		cachePath = filepath.Join(filepath.Dir(output), defaultCacheName)
	}

	var cache *promptcache.Cache
	if opts.noCache {
		cache = promptcache.New()
	} else {
		cache, err = promptcache.Load(cachePath)
		if err != nil {
			fmt.Fprintf(env.Stderr, "Warning: %v (starting cold)\n", err)
			cache = promptcache.New()
		}
		if cached, ok := cache.Get(text); ok {
			fmt.Fprintf(env.Stderr, "Transcript unchanged, reusing %s\n", cached)
			if cached != output {
				list, err := ideas.Load(cached)
				if err != nil {
					return err
				}
				if err := ideas.Save(list, output); err != nil {
					return err
				}
			}
			fmt.Fprintf(env.Stderr, "Done: %s\n", output)
			return nil
		}
	}

	// === EXTRACTION ===

	completer, provider, err := buildCompleter(env, cfg, opts.provider, opts.model)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Extracting key ideas (provider: %s)...\n", provider)

	extractor := ideas.NewExtractor(completer)
	list, warnings, err := extractor.Extract(ctx, text)
	if err != nil {
		return err
	}
	printWarnings(env.Stderr, warnings)

	if err := ideas.Save(list, output); err != nil {
		return err
	}

	if !opts.noCache {
		cache.Put(text, output)
		if err := cache.Save(cachePath); err != nil {
			fmt.Fprintf(env.Stderr, "Warning: %v\n", err)
		}
	}

	fmt.Fprintf(env.Stderr, "Extracted %d ideas\n", len(list))
	fmt.Fprintf(env.Stderr, "Done: %s\n", output)
	return nil
}
