package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alonsovb/sermonkit/internal/ideas"
	"github.com/alonsovb/sermonkit/internal/subtitle"
)

// SubtitleCmd creates the subtitle command.
// The env parameter provides injectable dependencies for testing.
func SubtitleCmd(env *Env) *cobra.Command {
	var (
		output string
		style  string
	)

	cmd := &cobra.Command{
		Use:   "subtitle <ideas-json>",
		Short: "Render aligned ideas as subtitles",
		Long: `Render aligned key ideas as a subtitle file.

Ideas must already carry timestamps (run 'sermonkit align' first).
Cues are emitted in timestamp order.

Styles: srt, vtt, plain`,
		Example: `  sermonkit subtitle ideas_aligned.json
  sermonkit subtitle ideas_aligned.json --style vtt
  sermonkit subtitle ideas_aligned.json --style plain -o ideas.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubtitle(env, args[0], output, style)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: <input>.<style>)")
	cmd.Flags().StringVarP(&style, "style", "s", subtitle.SRT, "Subtitle style: srt, vtt, plain")

	return cmd
}

// runSubtitle executes the subtitle rendering pipeline.
func runSubtitle(env *Env, inputPath, output, styleName string) error {
	if err := statFile(inputPath); err != nil {
		return err
	}

	style, err := subtitle.ParseStyle(styleName)
	if err != nil {
		return err
	}

	cfg := loadConfig(env)
	output = resolveOutput(cfg, output,
		replaceExt(filepath.Base(inputPath), "."+style.Ext()))

	list, err := ideas.Load(inputPath)
	if err != nil {
		return err
	}

	content, err := subtitle.Format(list, style)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(output, content); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Done: %s\n", output)
	return nil
}
