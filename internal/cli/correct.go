package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alonsovb/sermonkit/internal/correct"
	"github.com/alonsovb/sermonkit/internal/transcript"
)

// Correction strategy names.
const (
	StrategyChunk = "chunk"
	StrategyUnit  = "unit"
)

// CorrectCmd creates the correct command.
// The env parameter provides injectable dependencies for testing.
func CorrectCmd(env *Env) *cobra.Command {
	var (
		output   string
		strategy string
		parallel int
		provider string
		model    string
	)

	cmd := &cobra.Command{
		Use:   "correct <transcript-file>",
		Short: "Correct transcription errors in a transcript",
		Long: `Correct transcription errors in a plain text transcript.

The chunk strategy corrects paragraph-sized chunks in parallel and
verifies each correction against the original before accepting it.
The unit strategy corrects one sentence at a time with a stricter
prompt; it is slower but never rewrites prose.

Chunks or units whose correction fails verification keep their
original text, so the output is never worse than the input.`,
		Example: `  sermonkit correct sermon.txt
  sermonkit correct sermon.txt --strategy unit
  sermonkit correct sermon.txt -o corrected.txt -p 4
  sermonkit correct sermon.txt --provider deepseek`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorrect(cmd, env, args[0], correctOptions{
				output:   output,
				strategy: strategy,
				parallel: parallel,
				provider: provider,
				model:    model,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: <input>_corrected.txt)")
	cmd.Flags().StringVarP(&strategy, "strategy", "s", StrategyChunk, "Correction strategy: chunk, unit")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "Max concurrent API requests (chunk strategy only)")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider: openai, deepseek (default: config, then openai)")
	cmd.Flags().StringVar(&model, "model", "", "Completion model (default: provider's default)")

	return cmd
}

// correctOptions carries the correct command's flag values.
type correctOptions struct {
	output   string
	strategy string
	parallel int
	provider string
	model    string
}

// runCorrect executes the correction pipeline.
func runCorrect(cmd *cobra.Command, env *Env, inputPath string, opts correctOptions) error {
	ctx := cmd.Context()

	if err := statFile(inputPath); err != nil {
		return err
	}

	if opts.strategy != StrategyChunk && opts.strategy != StrategyUnit {
		return fmt.Errorf("unknown strategy %q (use 'chunk' or 'unit')", opts.strategy)
	}

	cfg := loadConfig(env)
	output := resolveOutput(cfg, opts.output,
		suffixPath(filepath.Base(inputPath), "_corrected"))

	completer, provider, err := buildCompleter(env, cfg, opts.provider, opts.model)
	if err != nil {
		return err
	}

	// #nosec G304 -- user-specified input file
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("cannot read transcript: %w", err)
	}
	doc := transcript.Parse(string(data))

	fmt.Fprintf(env.Stderr, "Correcting with %s strategy (provider: %s)...\n",
		opts.strategy, provider)

	var corrected string
	switch opts.strategy {
	case StrategyUnit:
		corrector := correct.NewUnitCorrector(completer,
			correct.WithUnitProgress(progressLine(env.Stderr, "Corrected unit")))
		result, err := corrector.CorrectDocument(ctx, doc)
		if err != nil {
			return err
		}
		corrected = result.Text
		fmt.Fprintf(env.Stderr, "Units: %d processed, %d changed\n",
			result.Units, result.ChangedUnits)
		if len(result.FailedUnits) > 0 {
			fmt.Fprintf(env.Stderr, "Warning: units kept original text: %s\n",
				correct.FormatFailed(result.FailedUnits))
		}
		fmt.Fprintln(env.Stderr, result.Stats)

	default:
		corrector := correct.NewChunkCorrector(completer,
			correct.WithParallel(opts.parallel),
			correct.WithProgress(progressLine(env.Stderr, "Corrected chunk")))
		result, err := corrector.CorrectDocument(ctx, doc)
		if err != nil {
			return err
		}
		corrected = result.Text
		if len(result.Failed) > 0 {
			fmt.Fprintf(env.Stderr, "Warning: chunks kept original text: %s\n",
				correct.FormatFailed(result.Failed))
		}
		fmt.Fprintln(env.Stderr, result.Stats)
	}

	if err := writeFileAtomic(output, corrected); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Done: %s\n", output)
	return nil
}
