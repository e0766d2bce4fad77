package audio_test

// Notes:
// - All FFmpeg/ffprobe invocations go through fakes; no real binaries run
// - Clip stitching is verified through the recorded concat list content
// - Default segment naming/encoding flags are pinned since downstream
//   tooling globs for *_segment_N.mp3 files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alonsovb/sermonkit/internal/audio"
	"github.com/alonsovb/sermonkit/internal/ffmpeg"
	"github.com/alonsovb/sermonkit/internal/ideas"
)

// ---------------------------------------------------------------------------
// Test doubles
// ---------------------------------------------------------------------------

// recordingRunner captures FFmpeg invocations and optionally fails some.
type recordingRunner struct {
	mu    sync.Mutex
	calls [][]string
	fail  func(call int, args []string) error
}

func (r *recordingRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	r.mu.Lock()
	call := len(r.calls)
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()

	if r.fail != nil {
		if err := r.fail(call, args); err != nil {
			return []byte("ffmpeg error detail"), err
		}
	}
	return nil, nil
}

func (r *recordingRunner) callArgs(i int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[i]
}

func (r *recordingRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type fakeStatter struct {
	missing map[string]bool
}

func (s fakeStatter) Stat(name string) (os.FileInfo, error) {
	if s.missing[name] {
		return nil, fs.ErrNotExist
	}
	return fakeFileInfo{name: name}, nil
}

type fakeFileInfo struct{ name string }

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return 1024 }
func (f fakeFileInfo) Mode() fs.FileMode  { return 0o644 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return false }
func (f fakeFileInfo) Sys() any           { return nil }

type fakeTempDir struct{ dir string }

func (f fakeTempDir) MkdirTemp(dir, pattern string) (string, error) {
	return f.dir, nil
}

type fakeRemover struct{ removed []string }

func (f *fakeRemover) RemoveAll(path string) error {
	f.removed = append(f.removed, path)
	return nil
}

type fakeWriter struct {
	mu      sync.Mutex
	written map[string]string
}

func (f *fakeWriter) WriteFile(name string, data []byte, perm os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.written == nil {
		f.written = map[string]string{}
	}
	f.written[name] = string(data)
	return nil
}

// probeExecutor builds an Executor whose ffprobe calls return the
// given stdout payload.
func probeExecutor(stdout string, err error) *ffmpeg.Executor {
	return ffmpeg.NewExecutor(
		ffmpeg.WithRunStdout(func(ctx context.Context, path string, args []string) (string, error) {
			return stdout, err
		}),
	)
}

func durationJSON(seconds float64) string {
	return fmt.Sprintf(`{"format":{"duration":"%.3f"}}`, seconds)
}

func newProcessor(t *testing.T, opts ...audio.ProcessorOption) *audio.Processor {
	t.Helper()
	p, err := audio.NewProcessor("/usr/bin/ffmpeg", "/usr/bin/ffprobe", opts...)
	if err != nil {
		t.Fatalf("NewProcessor() unexpected error: %v", err)
	}
	return p
}

func hasArgPair(args []string, flag, value string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

// alignedIdea builds an idea with timestamps set.
func alignedIdea(act, order int, text string, start, end float64) ideas.KeyIdea {
	conf := 1.0
	return ideas.KeyIdea{
		Act:             act,
		Order:           order,
		Text:            text,
		TimestampStart:  &start,
		TimestampEnd:    &end,
		MatchConfidence: &conf,
	}
}

// ---------------------------------------------------------------------------
// TestNewProcessor - constructor validation
// ---------------------------------------------------------------------------

func TestNewProcessor(t *testing.T) {
	t.Parallel()

	t.Run("empty ffmpeg path", func(t *testing.T) {
		t.Parallel()

		_, err := audio.NewProcessor("", "/usr/bin/ffprobe")
		if !errors.Is(err, ffmpeg.ErrNotFound) {
			t.Errorf("NewProcessor() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("empty ffprobe path", func(t *testing.T) {
		t.Parallel()

		_, err := audio.NewProcessor("/usr/bin/ffmpeg", "")
		if !errors.Is(err, ffmpeg.ErrNotFound) {
			t.Errorf("NewProcessor() error = %v, want ErrNotFound", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestExtractAudio - video to 16kHz mono PCM
// ---------------------------------------------------------------------------

func TestExtractAudio(t *testing.T) {
	t.Parallel()

	t.Run("builds voice encoding command", func(t *testing.T) {
		t.Parallel()

		runner := &recordingRunner{}
		p := newProcessor(t,
			audio.WithCommandRunner(runner),
			audio.WithFileStatter(fakeStatter{}),
		)

		if err := p.ExtractAudio(context.Background(), "/in/sermon.mp4", "/out/sermon_audio.wav"); err != nil {
			t.Fatalf("ExtractAudio() unexpected error: %v", err)
		}

		if runner.callCount() != 1 {
			t.Fatalf("ExtractAudio() ran %d commands, want 1", runner.callCount())
		}
		args := runner.callArgs(0)
		if args[0] != "/usr/bin/ffmpeg" {
			t.Errorf("ExtractAudio() invoked %q, want ffmpeg path", args[0])
		}
		for _, want := range [][2]string{
			{"-i", "/in/sermon.mp4"},
			{"-acodec", "pcm_s16le"},
			{"-ac", "1"},
			{"-ar", "16000"},
		} {
			if !hasArgPair(args, want[0], want[1]) {
				t.Errorf("ExtractAudio() args missing %q %q: %v", want[0], want[1], args)
			}
		}
		if args[len(args)-1] != "/out/sermon_audio.wav" {
			t.Errorf("ExtractAudio() output = %q, want /out/sermon_audio.wav", args[len(args)-1])
		}
	})

	t.Run("missing video", func(t *testing.T) {
		t.Parallel()

		p := newProcessor(t,
			audio.WithCommandRunner(&recordingRunner{}),
			audio.WithFileStatter(fakeStatter{missing: map[string]bool{"/in/gone.mp4": true}}),
		)

		err := p.ExtractAudio(context.Background(), "/in/gone.mp4", "/out/a.wav")
		if !errors.Is(err, audio.ErrFileNotFound) {
			t.Errorf("ExtractAudio() error = %v, want ErrFileNotFound", err)
		}
	})

	t.Run("ffmpeg failure", func(t *testing.T) {
		t.Parallel()

		runner := &recordingRunner{fail: func(int, []string) error { return errors.New("boom") }}
		p := newProcessor(t,
			audio.WithCommandRunner(runner),
			audio.WithFileStatter(fakeStatter{}),
		)

		err := p.ExtractAudio(context.Background(), "/in/sermon.mp4", "/out/a.wav")
		if !errors.Is(err, audio.ErrExtractFailed) {
			t.Errorf("ExtractAudio() error = %v, want ErrExtractFailed", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestDuration - ffprobe JSON parsing
// ---------------------------------------------------------------------------

func TestDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		stdout   string
		probeErr error
		want     float64
		wantErr  error
	}{
		{
			name:   "parses format duration",
			stdout: `{"format":{"duration":"1834.560000"}}`,
			want:   1834.56,
		},
		{
			name:     "probe failure",
			probeErr: errors.New("exit status 1"),
			wantErr:  audio.ErrProbeFailed,
		},
		{
			name:    "malformed report",
			stdout:  "not json",
			wantErr: audio.ErrProbeFailed,
		},
		{
			name:    "report without duration",
			stdout:  `{"format":{}}`,
			wantErr: audio.ErrProbeFailed,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := newProcessor(t,
				audio.WithExecutor(probeExecutor(tt.stdout, tt.probeErr)),
				audio.WithFileStatter(fakeStatter{}),
			)

			got, err := p.Duration(context.Background(), "/in/sermon.wav")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Duration() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Duration() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		p := newProcessor(t,
			audio.WithExecutor(probeExecutor(durationJSON(10), nil)),
			audio.WithFileStatter(fakeStatter{missing: map[string]bool{"/in/gone.wav": true}}),
		)

		_, err := p.Duration(context.Background(), "/in/gone.wav")
		if !errors.Is(err, audio.ErrFileNotFound) {
			t.Errorf("Duration() error = %v, want ErrFileNotFound", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestSplit - fixed-duration segmentation
// ---------------------------------------------------------------------------

func TestSplit(t *testing.T) {
	t.Parallel()

	t.Run("splits into fixed segments with open-ended tail", func(t *testing.T) {
		t.Parallel()

		runner := &recordingRunner{}
		p := newProcessor(t,
			audio.WithCommandRunner(runner),
			audio.WithExecutor(probeExecutor(durationJSON(700), nil)),
			audio.WithFileStatter(fakeStatter{}),
		)

		segments, err := p.Split(context.Background(), "/in/sermon.wav", "/out", 5*time.Minute)
		if err != nil {
			t.Fatalf("Split() unexpected error: %v", err)
		}

		if len(segments) != 3 {
			t.Fatalf("Split() produced %d segments, want 3", len(segments))
		}
		wantOffsets := []time.Duration{0, 300 * time.Second, 600 * time.Second}
		for i, seg := range segments {
			if seg.Index != i {
				t.Errorf("segment %d has Index %d", i, seg.Index)
			}
			if seg.Offset != wantOffsets[i] {
				t.Errorf("segment %d Offset = %v, want %v", i, seg.Offset, wantOffsets[i])
			}
			wantPath := fmt.Sprintf("/out/sermon_segment_%d.mp3", i+1)
			if seg.Path != wantPath {
				t.Errorf("segment %d Path = %q, want %q", i, seg.Path, wantPath)
			}
		}

		// Every segment but the last is duration-limited.
		for i := 0; i < 2; i++ {
			if !hasArgPair(runner.callArgs(i), "-t", "300.000") {
				t.Errorf("segment %d args missing -t 300.000: %v", i, runner.callArgs(i))
			}
		}
		last := runner.callArgs(2)
		for _, a := range last {
			if a == "-t" {
				t.Errorf("last segment should run to end of file, got args %v", last)
			}
		}
		if !hasArgPair(last, "-ss", "600.000") {
			t.Errorf("last segment args missing -ss 600.000: %v", last)
		}
		if !hasArgPair(last, "-acodec", "libmp3lame") || !hasArgPair(last, "-b:a", "32k") {
			t.Errorf("segment encode flags missing from args %v", last)
		}
	})

	t.Run("short file yields single segment", func(t *testing.T) {
		t.Parallel()

		runner := &recordingRunner{}
		p := newProcessor(t,
			audio.WithCommandRunner(runner),
			audio.WithExecutor(probeExecutor(durationJSON(90), nil)),
			audio.WithFileStatter(fakeStatter{}),
		)

		segments, err := p.Split(context.Background(), "/in/short.wav", "", 0)
		if err != nil {
			t.Fatalf("Split() unexpected error: %v", err)
		}
		if len(segments) != 1 {
			t.Fatalf("Split() produced %d segments, want 1", len(segments))
		}
		// Default output dir is the source directory.
		if segments[0].Path != "/in/short_segment_1.mp3" {
			t.Errorf("segment Path = %q, want /in/short_segment_1.mp3", segments[0].Path)
		}
	})

	t.Run("ffmpeg failure", func(t *testing.T) {
		t.Parallel()

		runner := &recordingRunner{
			fail: func(call int, args []string) error {
				if call == 1 {
					return errors.New("encode failed")
				}
				return nil
			},
		}
		p := newProcessor(t,
			audio.WithCommandRunner(runner),
			audio.WithExecutor(probeExecutor(durationJSON(700), nil)),
			audio.WithFileStatter(fakeStatter{}),
		)

		_, err := p.Split(context.Background(), "/in/sermon.wav", "/out", 5*time.Minute)
		if !errors.Is(err, audio.ErrSplitFailed) {
			t.Errorf("Split() error = %v, want ErrSplitFailed", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestExtractClips - key-idea clip extraction and stitching
// ---------------------------------------------------------------------------

func TestExtractClips(t *testing.T) {
	t.Parallel()

	clipIdeas := func() []ideas.KeyIdea {
		return []ideas.KeyIdea{
			alignedIdea(1, 1, "La venida del Señor está cerca", 120.5, 126.0),
			alignedIdea(1, 2, "Velad y orad en todo tiempo", 0.5, 4.0),
			alignedIdea(2, 1, "Estad firmes en la fe", 800.0, 807.5),
		}
	}

	t.Run("extracts padded clips and stitches them", func(t *testing.T) {
		t.Parallel()

		runner := &recordingRunner{}
		writer := &fakeWriter{}
		remover := &fakeRemover{}
		p := newProcessor(t,
			audio.WithCommandRunner(runner),
			audio.WithFileStatter(fakeStatter{}),
			audio.WithTempDirCreator(fakeTempDir{dir: "/tmp/clips"}),
			audio.WithFileRemover(remover),
			audio.WithFileWriter(writer),
		)

		warnings, err := p.ExtractClips(context.Background(), clipIdeas(), "/in/sermon.wav", "/out/ideas.wav", 1.0)
		if err != nil {
			t.Fatalf("ExtractClips() unexpected error: %v", err)
		}
		if len(warnings) != 0 {
			t.Errorf("ExtractClips() warnings = %v, want none", warnings)
		}

		// 3 clip extractions plus the final concat.
		if runner.callCount() != 4 {
			t.Fatalf("ExtractClips() ran %d commands, want 4", runner.callCount())
		}

		first := runner.callArgs(0)
		if !hasArgPair(first, "-ss", "119.500") || !hasArgPair(first, "-t", "7.500") {
			t.Errorf("clip 1 padding wrong, args %v", first)
		}
		// Second idea starts near zero; padding clamps to the file start.
		second := runner.callArgs(1)
		if !hasArgPair(second, "-ss", "0.000") {
			t.Errorf("clip 2 start not clamped to 0, args %v", second)
		}
		if !hasArgPair(second, "-t", "5.500") {
			t.Errorf("clip 2 length wrong, args %v", second)
		}

		concat := runner.callArgs(3)
		if !hasArgPair(concat, "-f", "concat") || !hasArgPair(concat, "-safe", "0") {
			t.Errorf("concat command malformed: %v", concat)
		}
		if concat[len(concat)-1] != "/out/ideas.wav" {
			t.Errorf("concat output = %q, want /out/ideas.wav", concat[len(concat)-1])
		}

		list := writer.written["/tmp/clips/concat_list.txt"]
		for i := 1; i <= 3; i++ {
			want := fmt.Sprintf("file '/tmp/clips/segment_%d.wav'\n", i)
			if !strings.Contains(list, want) {
				t.Errorf("concat list missing %q:\n%s", want, list)
			}
		}

		if len(remover.removed) != 1 || remover.removed[0] != "/tmp/clips" {
			t.Errorf("temp dir not cleaned up, removed = %v", remover.removed)
		}
	})

	t.Run("failed clip is skipped with warning", func(t *testing.T) {
		t.Parallel()

		runner := &recordingRunner{
			fail: func(call int, args []string) error {
				if call == 1 {
					return errors.New("decode error")
				}
				return nil
			},
		}
		writer := &fakeWriter{}
		p := newProcessor(t,
			audio.WithCommandRunner(runner),
			audio.WithFileStatter(fakeStatter{}),
			audio.WithTempDirCreator(fakeTempDir{dir: "/tmp/clips"}),
			audio.WithFileRemover(&fakeRemover{}),
			audio.WithFileWriter(writer),
		)

		warnings, err := p.ExtractClips(context.Background(), clipIdeas(), "/in/sermon.wav", "/out/ideas.wav", 1.0)
		if err != nil {
			t.Fatalf("ExtractClips() unexpected error: %v", err)
		}
		if len(warnings) != 1 {
			t.Fatalf("ExtractClips() warnings = %v, want 1 entry", warnings)
		}
		if !strings.Contains(warnings[0], "idea 1.2") {
			t.Errorf("warning does not name the failed idea: %q", warnings[0])
		}

		list := writer.written["/tmp/clips/concat_list.txt"]
		if strings.Contains(list, "segment_2.wav") {
			t.Errorf("failed clip should not be stitched:\n%s", list)
		}
	})

	t.Run("no surviving clips", func(t *testing.T) {
		t.Parallel()

		runner := &recordingRunner{
			fail: func(call int, args []string) error { return errors.New("decode error") },
		}
		p := newProcessor(t,
			audio.WithCommandRunner(runner),
			audio.WithFileStatter(fakeStatter{}),
			audio.WithTempDirCreator(fakeTempDir{dir: "/tmp/clips"}),
			audio.WithFileRemover(&fakeRemover{}),
			audio.WithFileWriter(&fakeWriter{}),
		)

		_, err := p.ExtractClips(context.Background(), clipIdeas(), "/in/sermon.wav", "/out/ideas.wav", 1.0)
		if !errors.Is(err, audio.ErrNoClips) {
			t.Errorf("ExtractClips() error = %v, want ErrNoClips", err)
		}
	})

	t.Run("unaligned idea", func(t *testing.T) {
		t.Parallel()

		p := newProcessor(t,
			audio.WithCommandRunner(&recordingRunner{}),
			audio.WithFileStatter(fakeStatter{}),
		)

		list := clipIdeas()
		list[2].TimestampStart = nil
		list[2].TimestampEnd = nil

		_, err := p.ExtractClips(context.Background(), list, "/in/sermon.wav", "/out/ideas.wav", 1.0)
		if !errors.Is(err, audio.ErrMissingTimestamps) {
			t.Errorf("ExtractClips() error = %v, want ErrMissingTimestamps", err)
		}
	})

	t.Run("empty idea list", func(t *testing.T) {
		t.Parallel()

		p := newProcessor(t,
			audio.WithCommandRunner(&recordingRunner{}),
			audio.WithFileStatter(fakeStatter{}),
		)

		_, err := p.ExtractClips(context.Background(), nil, "/in/sermon.wav", "/out/ideas.wav", 1.0)
		if !errors.Is(err, ideas.ErrNoIdeas) {
			t.Errorf("ExtractClips() error = %v, want ErrNoIdeas", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestFormatSeconds - FFmpeg time argument rendering
// ---------------------------------------------------------------------------

func TestFormatSeconds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.000"},
		{120.5, "120.500"},
		{0.25, "0.250"},
		{3725.25, "3725.250"},
	}

	for _, tt := range tests {
		if got := audio.FormatSeconds(tt.in); got != tt.want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
