package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alonsovb/sermonkit/internal/audio"
	"github.com/alonsovb/sermonkit/internal/format"
	"github.com/alonsovb/sermonkit/internal/transcribe"
	"github.com/alonsovb/sermonkit/internal/transcript"
)

// videoFormats lists video containers the pipeline extracts audio from
// before transcription.
var videoFormats = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".webm": true,
}

// audioFormats lists audio formats passed straight to splitting.
var audioFormats = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
}

// supportedFormatsList returns a sorted, comma-separated list for error
// messages. The list is sorted for deterministic output in tests and
// user-facing messages.
func supportedFormatsList() string {
	formats := make([]string, 0, len(videoFormats)+len(audioFormats))
	for ext := range videoFormats {
		formats = append(formats, strings.TrimPrefix(ext, "."))
	}
	for ext := range audioFormats {
		formats = append(formats, strings.TrimPrefix(ext, "."))
	}
	slices.Sort(formats)
	return strings.Join(formats, ", ")
}

// clampParallel constrains parallel request count to valid range
// [1, MaxRecommendedParallel].
func clampParallel(n int) int {
	if n < 1 {
		return 1
	}
	if n > transcribe.MaxRecommendedParallel {
		return transcribe.MaxRecommendedParallel
	}
	return n
}

// TranscribeCmd creates the transcribe command.
// The env parameter provides injectable dependencies for testing.
func TranscribeCmd(env *Env) *cobra.Command {
	var (
		output     string
		textOutput string
		parallel   int
		language   string
		segmentDur time.Duration
		keepAudio  bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe <media-file>",
		Short: "Transcribe a sermon recording",
		Long: `Transcribe a sermon recording using OpenAI's Whisper API.

Video files have their audio track extracted first. The audio is split
into fixed-duration segments, transcribed in parallel, and merged back
into a single transcription with absolute timestamps.

Output is a JSON transcription (text plus timed segments) and a plain
text transcript next to it.

Supported formats: avi, flac, m4a, mkv, mov, mp3, mp4, ogg, wav, webm`,
		Example: `  sermonkit transcribe sermon.mp4
  sermonkit transcribe sermon.mp3 -o transcription.json
  sermonkit transcribe sermon.mp4 -p 4 --segment-duration 10m
  sermonkit transcribe sermon.mp4 --keep-audio  # keep extracted wav and segments`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd, env, args[0], transcribeOptions{
				output:     output,
				textOutput: textOutput,
				parallel:   parallel,
				language:   language,
				segmentDur: segmentDur,
				keepAudio:  keepAudio,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output JSON path (default: <input>.json)")
	cmd.Flags().StringVar(&textOutput, "text", "", "Plain text output path (default: <output>.txt)")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", transcribe.MaxRecommendedParallel, "Max concurrent API requests (1-10)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Audio language (ISO 639-1 code, default: es)")
	cmd.Flags().DurationVar(&segmentDur, "segment-duration", audio.DefaultSegmentDuration, "Audio segment length")
	cmd.Flags().BoolVar(&keepAudio, "keep-audio", false, "Keep extracted audio and segment files")

	return cmd
}

// transcribeOptions carries the transcribe command's flag values.
type transcribeOptions struct {
	output     string
	textOutput string
	parallel   int
	language   string
	segmentDur time.Duration
	keepAudio  bool
}

// runTranscribe executes the transcription pipeline.
// Validation order: file exists -> format -> output -> API key -> binaries.
func runTranscribe(cmd *cobra.Command, env *Env, inputPath string, opts transcribeOptions) error {
	ctx := cmd.Context()

	if err := statFile(inputPath); err != nil {
		return err
	}
	if info, err := os.Stat(inputPath); err == nil {
		fmt.Fprintf(env.Stderr, "Input: %s (%s)\n", filepath.Base(inputPath), format.Size(info.Size()))
	}

	ext := strings.ToLower(filepath.Ext(inputPath))
	isVideo := videoFormats[ext]
	if !isVideo && !audioFormats[ext] {
		return fmt.Errorf("unsupported format %q (supported: %s): %w",
			ext, supportedFormatsList(), ErrUnsupportedFormat)
	}

	cfg := loadConfig(env)
	output := resolveOutput(cfg, opts.output, replaceExt(filepath.Base(inputPath), ".json"))
	textOutput := opts.textOutput
	if textOutput == "" {
		textOutput = replaceExt(output, ".txt")
	}

	// Fail before any ffmpeg work if the outputs are already there.
	for _, path := range []string{output, textOutput} {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("output file already exists: %s: %w", path, ErrOutputExists)
		}
	}

	parallel := clampParallel(opts.parallel)

	apiKey := env.Getenv(EnvOpenAIAPIKey)
	if apiKey == "" {
		return fmt.Errorf("%w (set it with: export %s=sk-...)", ErrAPIKeyMissing, EnvOpenAIAPIKey)
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

	// === AUDIO PREPARATION ===

	audioPath := inputPath
	var scratch []string
	if isVideo {
		fmt.Fprintln(env.Stderr, "Extracting audio track...")
		audioPath = replaceExt(inputPath, ".wav")
		if err := processor.ExtractAudio(ctx, inputPath, audioPath); err != nil {
			return err
		}
		scratch = append(scratch, audioPath)
	}

	segments, err := processor.Split(ctx, audioPath, "", opts.segmentDur)
	if err != nil {
		return err
	}
	for _, seg := range segments {
		scratch = append(scratch, seg.Path)
	}

	// Ensure cleanup even on error or interrupt.
	if !opts.keepAudio {
		defer func() {
			for _, path := range scratch {
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					fmt.Fprintf(env.Stderr, "Warning: failed to remove %s: %v\n", path, err)
				}
			}
		}()
	}

	segDur := opts.segmentDur
	if segDur <= 0 {
		segDur = audio.DefaultSegmentDuration
	}
	fmt.Fprintf(env.Stderr, "Splitting audio... %d segments of %s\n",
		len(segments), format.DurationHuman(segDur))

	// === TRANSCRIPTION ===

	transcriber := env.TranscriberFactory.NewTranscriber(apiKey, opts.language)

	fmt.Fprintln(env.Stderr, "Transcribing...")
	result, err := transcribe.TranscribeSegments(ctx, segments, transcriber, parallel,
		progressLine(env.Stderr, "Transcribed segment"))
	if err != nil {
		return err
	}

	result.AudioFile = audioPath
	if isVideo {
		result.VideoFilename = filepath.Base(inputPath)
	}

	// === WRITE OUTPUT ===

	if err := transcript.SaveResult(output, result); err != nil {
		return err
	}
	if err := writeFileAtomic(textOutput, result.PlainText()); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Transcription complete (%s of audio)\n", format.Seconds(result.Duration))
	fmt.Fprintf(env.Stderr, "Done: %s, %s\n", output, textOutput)
	return nil
}
