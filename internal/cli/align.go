package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alonsovb/sermonkit/internal/align"
	"github.com/alonsovb/sermonkit/internal/ideas"
	"github.com/alonsovb/sermonkit/internal/transcript"
)

// AlignCmd creates the align command.
// The env parameter provides injectable dependencies for testing.
func AlignCmd(env *Env) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "align <ideas-json> <transcription-json>",
		Short: "Align key ideas with transcription timestamps",
		Long: `Align key ideas with the timed segments of a transcription.

Each idea is matched against the segments: a segment containing the
quote verbatim wins outright, otherwise the best word-overlap segment
is used when the overlap is strong enough. Ideas that match nothing
get a timestamp estimated from their position in the sermon, with
zero confidence. Every low-confidence placement is reported.`,
		Example: `  sermonkit align ideas.json transcription.json
  sermonkit align ideas.json transcription.json -o ideas_aligned.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlign(env, args[0], args[1], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output JSON path (default: <ideas>_aligned.json)")

	return cmd
}

// runAlign executes the alignment pipeline.
func runAlign(env *Env, ideasPath, transcriptionPath, output string) error {
	if err := statFile(ideasPath); err != nil {
		return err
	}
	if err := statFile(transcriptionPath); err != nil {
		return err
	}

	cfg := loadConfig(env)
	output = resolveOutput(cfg, output,
		suffixPath(filepath.Base(ideasPath), "_aligned"))

	list, err := ideas.Load(ideasPath)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return ideas.ErrNoIdeas
	}

	result, err := transcript.LoadResult(transcriptionPath)
	if err != nil {
		return err
	}

	aligned, warnings := align.Align(list, result.Segments, result.Duration)
	printWarnings(env.Stderr, warnings)

	if err := ideas.Save(aligned, output); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Aligned %d ideas (%d warnings)\n", len(aligned), len(warnings))
	fmt.Fprintf(env.Stderr, "Done: %s\n", output)
	return nil
}
