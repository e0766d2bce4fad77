package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alonsovb/sermonkit/internal/audio"
	"github.com/alonsovb/sermonkit/internal/ideas"
)

// ClipsCmd creates the clips command.
// The env parameter provides injectable dependencies for testing.
func ClipsCmd(env *Env) *cobra.Command {
	var (
		output  string
		padding float64
	)

	cmd := &cobra.Command{
		Use:   "clips <ideas-json> <audio-file>",
		Short: "Cut key idea audio clips",
		Long: `Cut the key idea moments out of the sermon audio into one file.

Each aligned idea yields a clip around its timestamps, padded on both
sides; the clips are concatenated in idea order. A clip that fails to
cut is skipped with a warning, so one bad timestamp never loses the
rest.

Ideas must already carry timestamps (run 'sermonkit align' first).`,
		Example: `  sermonkit clips ideas_aligned.json sermon.wav
  sermonkit clips ideas_aligned.json sermon.wav -o highlights.wav --padding 2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClips(cmd, env, args[0], args[1], output, padding)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output audio path (default: <audio>_clips.wav)")
	cmd.Flags().Float64Var(&padding, "padding", audio.DefaultClipPadding, "Seconds of padding around each clip")

	return cmd
}

// runClips executes the clip extraction pipeline.
func runClips(cmd *cobra.Command, env *Env, ideasPath, audioPath, output string, padding float64) error {
	ctx := cmd.Context()

	if err := statFile(ideasPath); err != nil {
		return err
	}
	if err := statFile(audioPath); err != nil {
		return err
	}

	cfg := loadConfig(env)
	base := replaceExt(filepath.Base(audioPath), "")
	output = resolveOutput(cfg, output, base+"_clips.wav")

	list, err := ideas.Load(ideasPath)
	if err != nil {
		return err
	}

	ffmpegPath, err := env.FFmpegResolver.Resolve()
	if err != nil {
		return err
	}
	ffprobePath, err := env.FFmpegResolver.ResolveProbe()
	if err != nil {
		return err
	}
	processor, err := env.ProcessorFactory.NewProcessor(ffmpegPath, ffprobePath)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Cutting %d clips...\n", len(list))

	warnings, err := processor.ExtractClips(ctx, list, audioPath, output, padding)
	printWarnings(env.Stderr, warnings)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Done: %s\n", output)
	return nil
}
