package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/alonsovb/sermonkit/internal/audio"
	"github.com/alonsovb/sermonkit/internal/config"
	"github.com/alonsovb/sermonkit/internal/ffmpeg"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	ffmpegResolver *mockFFmpegResolver
	configLoader   *mockConfigLoader
	processor      *mockProcessorFactory
	transcriber    *mockTranscriberFactory
	completer      *mockCompleterFactory
}

func newTestMocks() *testMocks {
	return &testMocks{
		ffmpegResolver: &mockFFmpegResolver{},
		configLoader:   &mockConfigLoader{},
		processor:      &mockProcessorFactory{},
		transcriber:    &mockTranscriberFactory{},
		completer:      &mockCompleterFactory{},
	}
}

// ---------------------------------------------------------------------------
// testEnv - creates a fully mocked Env for testing
// ---------------------------------------------------------------------------

// testEnv creates a test Env with all dependencies mocked and both API
// keys present. Returns the Env, the mocks for assertions, and the
// stderr buffer.
func testEnv() (*Env, *testMocks, *syncBuffer) {
	mocks := newTestMocks()
	stderr := &syncBuffer{}
	env := &Env{
		Stdout:             &syncBuffer{},
		Stderr:             stderr,
		Getenv:             defaultTestEnv,
		Now:                fixedTime(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)),
		FFmpegResolver:     mocks.ffmpegResolver,
		ConfigLoader:       mocks.configLoader,
		ProcessorFactory:   mocks.processor,
		TranscriberFactory: mocks.transcriber,
		CompleterFactory:   mocks.completer,
	}
	return env, mocks, stderr
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// fixedTime returns a function that always returns the given time.
func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// defaultTestEnv returns API keys for both OpenAI and DeepSeek.
func defaultTestEnv(key string) string {
	switch key {
	case EnvOpenAIAPIKey:
		return "test-openai-key"
	case EnvDeepSeekAPIKey:
		return "test-deepseek-key"
	default:
		return ""
	}
}

// createTestFile creates a temporary file with content for testing.
// Returns the file path.
func createTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

// newTestCmd creates a throwaway cobra command carrying ctx, for run
// functions that read cmd.Context().
func newTestCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.SetContext(ctx)
	return cmd
}

// configWithOutputDir returns a ConfigLoader that returns a config with
// the given output directory.
func configWithOutputDir(outputDir string) *mockConfigLoader {
	return &mockConfigLoader{
		LoadFunc: func() (config.Config, error) {
			return config.Config{OutputDir: outputDir}, nil
		},
	}
}

// ---------------------------------------------------------------------------
// Fake audio processors - real Processor with scripted ffmpeg calls
// ---------------------------------------------------------------------------

// okRunner answers every ffmpeg invocation with success and records
// the argument lists.
type okRunner struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *okRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{}, args...))
	r.mu.Unlock()
	return nil, nil
}

func (r *okRunner) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

// passStatter reports every path as an existing regular file.
type passStatter struct {
	info os.FileInfo
}

func (s passStatter) Stat(name string) (os.FileInfo, error) {
	return s.info, nil
}

// fakeProcessorFactory builds real Processors whose ffmpeg commands hit
// the given runner, whose ffprobe reports the given duration, and whose
// file checks always pass.
func fakeProcessorFactory(t *testing.T, runner *okRunner, duration float64) *mockProcessorFactory {
	t.Helper()
	probeJSON := `{"format":{"duration":"` + strconv.FormatFloat(duration, 'f', 2, 64) + `"}}`

	anyFile := createTestFile(t, "present", "x")
	info, err := os.Stat(anyFile)
	if err != nil {
		t.Fatalf("os.Stat() unexpected error: %v", err)
	}

	return &mockProcessorFactory{
		NewProcessorFunc: func(ffmpegPath, ffprobePath string) (*audio.Processor, error) {
			exec := ffmpeg.NewExecutor(ffmpeg.WithRunStdout(
				func(ctx context.Context, path string, args []string) (string, error) {
					return probeJSON, nil
				}))
			return audio.NewProcessor(ffmpegPath, ffprobePath,
				audio.WithCommandRunner(runner),
				audio.WithExecutor(exec),
				audio.WithFileStatter(passStatter{info: info}))
		},
	}
}
