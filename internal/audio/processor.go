// Package audio prepares sermon media for the pipeline: extracting the
// spoken track from video, splitting long recordings into
// transcribable segments, and cutting key-idea clips out of the full
// audio.
package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alonsovb/sermonkit/internal/ffmpeg"
	"github.com/alonsovb/sermonkit/internal/ideas"
)

// Compile-time interface implementation checks.
var (
	_ commandRunner = osCommandRunner{}
	_ fileWriter    = osFileWriter{}
)

// Processing parameters.
const (
	// DefaultSegmentDuration is the split length for transcription.
	// 5 minutes at 32kbps mono mp3 stays well under the 25MB API limit.
	DefaultSegmentDuration = 5 * time.Minute

	// DefaultClipPadding is the extra audio kept before and after each
	// key-idea clip, in seconds.
	DefaultClipPadding = 1.0

	// sampleRate is the output sample rate for all encodes. 16kHz mono
	// is what the speech API expects for voice.
	sampleRate = "16000"

	// mp3Bitrate keeps transcription segments small without hurting
	// speech recognition quality.
	mp3Bitrate = "32k"
)

// Segment is one fixed-duration slice of a longer audio file.
type Segment struct {
	Path   string        // Absolute path to the segment file.
	Index  int           // Zero-based index for ordering.
	Offset time.Duration // Start position in the source audio.
}

// String returns a human-readable representation for logging.
func (s Segment) String() string {
	return fmt.Sprintf("segment %d at %s", s.Index+1, s.Offset)
}

// Processor runs FFmpeg and ffprobe to prepare audio for the pipeline.
type Processor struct {
	ffmpegPath  string
	ffprobePath string

	// Injectable dependencies (defaults to OS implementations).
	cmd     commandRunner
	probe   *ffmpeg.Executor
	tempDir tempDirCreator
	files   fileRemover
	statter fileStatter
	writer  fileWriter
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithCommandRunner sets the command runner for FFmpeg invocations.
func WithCommandRunner(r commandRunner) ProcessorOption {
	return func(p *Processor) { p.cmd = r }
}

// WithExecutor sets the executor used for ffprobe invocations.
func WithExecutor(e *ffmpeg.Executor) ProcessorOption {
	return func(p *Processor) { p.probe = e }
}

// WithTempDirCreator sets the temp directory creator.
func WithTempDirCreator(t tempDirCreator) ProcessorOption {
	return func(p *Processor) { p.tempDir = t }
}

// WithFileRemover sets the file remover.
func WithFileRemover(f fileRemover) ProcessorOption {
	return func(p *Processor) { p.files = f }
}

// WithFileStatter sets the file statter.
func WithFileStatter(s fileStatter) ProcessorOption {
	return func(p *Processor) { p.statter = s }
}

// WithFileWriter sets the file writer.
func WithFileWriter(w fileWriter) ProcessorOption {
	return func(p *Processor) { p.writer = w }
}

// NewProcessor creates a Processor bound to the given binaries.
func NewProcessor(ffmpegPath, ffprobePath string, opts ...ProcessorOption) (*Processor, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	if ffprobePath == "" {
		return nil, fmt.Errorf("ffprobePath cannot be empty: %w", ffmpeg.ErrNotFound)
	}

	p := &Processor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		cmd:         osCommandRunner{},
		probe:       ffmpeg.NewExecutor(),
		tempDir:     osTempDirCreator{},
		files:       osFileRemover{},
		statter:     osFileStatter{},
		writer:      osFileWriter{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ExtractAudio extracts the audio track from a video file as 16kHz
// mono PCM, the format the transcription pipeline expects.
func (p *Processor) ExtractAudio(ctx context.Context, videoPath, outputPath string) error {
	if _, err := p.statter.Stat(videoPath); err != nil {
		return fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}

	args := []string{
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", sampleRate,
		outputPath,
	}
	if output, err := p.cmd.CombinedOutput(ctx, p.ffmpegPath, args); err != nil {
		return fmt.Errorf("%w: %v\nOutput: %s", ErrExtractFailed, err, output)
	}
	return nil
}

// Duration returns the duration of an audio file in seconds, probed
// via ffprobe's JSON format report.
func (p *Processor) Duration(ctx context.Context, audioPath string) (float64, error) {
	if _, err := p.statter.Stat(audioPath); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		audioPath,
	}
	out, err := p.probe.RunStdout(ctx, p.ffprobePath, args)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}

	var report struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		return 0, fmt.Errorf("%w: cannot parse ffprobe report: %v", ErrProbeFailed, err)
	}
	seconds, err := strconv.ParseFloat(report.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: ffprobe reported no duration", ErrProbeFailed)
	}
	return seconds, nil
}

// Split divides an audio file into fixed-duration mp3 segments for
// transcription. The last segment runs to the end of the file. Segment
// files land in outDir (the source directory when empty) and are named
// <base>_segment_<n>.mp3 with 1-based n.
func (p *Processor) Split(ctx context.Context, audioPath, outDir string, segmentDuration time.Duration) ([]Segment, error) {
	if segmentDuration <= 0 {
		segmentDuration = DefaultSegmentDuration
	}

	total, err := p.Duration(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	if outDir == "" {
		outDir = filepath.Dir(audioPath)
	}
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))

	segSeconds := segmentDuration.Seconds()
	numSegments := int(total/segSeconds) + 1

	segments := make([]Segment, 0, numSegments)
	for i := 0; i < numSegments; i++ {
		start := float64(i) * segSeconds
		outPath := filepath.Join(outDir, fmt.Sprintf("%s_segment_%d.mp3", base, i+1))

		args := []string{"-y", "-ss", formatSeconds(start), "-i", audioPath}
		if i < numSegments-1 {
			args = append(args, "-t", formatSeconds(segSeconds))
		}
		args = append(args,
			"-acodec", "libmp3lame",
			"-ac", "1",
			"-ar", sampleRate,
			"-b:a", mp3Bitrate,
			outPath,
		)

		if output, err := p.cmd.CombinedOutput(ctx, p.ffmpegPath, args); err != nil {
			return nil, fmt.Errorf("%w: segment %d: %v\nOutput: %s", ErrSplitFailed, i+1, err, output)
		}

		segments = append(segments, Segment{
			Path:   outPath,
			Index:  i,
			Offset: time.Duration(start * float64(time.Second)),
		})
	}

	return segments, nil
}

// ExtractClips cuts each aligned idea's span out of the full recording,
// padded by padding seconds on both sides, and stitches the clips into
// one lossless file at outputPath. Clips that fail to extract are
// skipped and reported as warnings; extraction only fails when no clip
// survives.
func (p *Processor) ExtractClips(ctx context.Context, list []ideas.KeyIdea, audioPath, outputPath string, padding float64) ([]string, error) {
	if len(list) == 0 {
		return nil, ideas.ErrNoIdeas
	}
	if _, err := p.statter.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}
	for _, idea := range list {
		if !idea.HasTimestamps() {
			return nil, fmt.Errorf("%w: idea %d.%d", ErrMissingTimestamps, idea.Act, idea.Order)
		}
	}
	if padding < 0 {
		padding = 0
	}

	tempDir, err := p.tempDir.MkdirTemp("", "sermonkit-clips-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp directory: %w", err)
	}
	defer func() { _ = p.files.RemoveAll(tempDir) }()

	var warnings []string
	var clipPaths []string
	for i, idea := range list {
		start := idea.Start() - padding
		if start < 0 {
			start = 0
		}
		length := (idea.End() - idea.Start()) + padding*2

		clipPath := filepath.Join(tempDir, fmt.Sprintf("segment_%d.wav", i+1))
		args := []string{
			"-y",
			"-i", audioPath,
			"-ss", formatSeconds(start),
			"-t", formatSeconds(length),
			"-c:a", "pcm_s16le",
			clipPath,
		}
		if output, err := p.cmd.CombinedOutput(ctx, p.ffmpegPath, args); err != nil {
			warnings = append(warnings,
				fmt.Sprintf("clip %d (idea %d.%d) failed: %v\nOutput: %s", i+1, idea.Act, idea.Order, err, output))
			continue
		}
		clipPaths = append(clipPaths, clipPath)
	}
	if len(clipPaths) == 0 {
		return warnings, ErrNoClips
	}

	var concat strings.Builder
	for _, clip := range clipPaths {
		fmt.Fprintf(&concat, "file '%s'\n", clip)
	}
	concatPath := filepath.Join(tempDir, "concat_list.txt")
	if err := p.writer.WriteFile(concatPath, []byte(concat.String()), 0o644); err != nil {
		return warnings, fmt.Errorf("cannot write concat list: %w", err)
	}

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", concatPath,
		"-c:a", "pcm_s16le",
		outputPath,
	}
	if output, err := p.cmd.CombinedOutput(ctx, p.ffmpegPath, args); err != nil {
		return warnings, fmt.Errorf("%w: cannot combine clips: %v\nOutput: %s", ErrExtractFailed, err, output)
	}

	return warnings, nil
}

// formatSeconds renders a time offset for FFmpeg arguments.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
