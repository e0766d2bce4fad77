package cli

import (
	"io"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alonsovb/sermonkit/internal/audio"
	"github.com/alonsovb/sermonkit/internal/complete"
	"github.com/alonsovb/sermonkit/internal/config"
	"github.com/alonsovb/sermonkit/internal/ffmpeg"
	"github.com/alonsovb/sermonkit/internal/transcribe"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	// Factories for domain objects
	FFmpegResolver     FFmpegResolver
	ConfigLoader       ConfigLoader
	ProcessorFactory   ProcessorFactory
	TranscriberFactory TranscriberFactory
	CompleterFactory   CompleterFactory
}

// FFmpegResolver resolves the paths to the ffmpeg and ffprobe binaries.
type FFmpegResolver interface {
	Resolve() (string, error)
	ResolveProbe() (string, error)
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// ProcessorFactory creates audio processors bound to resolved binaries.
type ProcessorFactory interface {
	NewProcessor(ffmpegPath, ffprobePath string) (*audio.Processor, error)
}

// TranscriberFactory creates transcribers for audio-to-text conversion.
type TranscriberFactory interface {
	NewTranscriber(apiKey, language string) transcribe.Transcriber
}

// CompleterFactory creates chat completers for correction and idea
// extraction. The provider must be validated before calling.
type CompleterFactory interface {
	NewCompleter(provider Provider, apiKey, model string) (complete.Completer, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) {
		e.FFmpegResolver = r
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithProcessorFactory sets the audio processor factory.
func WithProcessorFactory(f ProcessorFactory) EnvOption {
	return func(e *Env) {
		e.ProcessorFactory = f
	}
}

// WithTranscriberFactory sets the transcriber factory.
func WithTranscriberFactory(f TranscriberFactory) EnvOption {
	return func(e *Env) {
		e.TranscriberFactory = f
	}
}

// WithCompleterFactory sets the completer factory.
func WithCompleterFactory(f CompleterFactory) EnvOption {
	return func(e *Env) {
		e.CompleterFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
		Getenv:             os.Getenv,
		Now:                time.Now,
		FFmpegResolver:     &defaultFFmpegResolver{},
		ConfigLoader:       &defaultConfigLoader{},
		ProcessorFactory:   &defaultProcessorFactory{},
		TranscriberFactory: &defaultTranscriberFactory{},
		CompleterFactory:   &defaultCompleterFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultFFmpegResolver implements FFmpegResolver using the ffmpeg package.
type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve() (string, error) {
	return ffmpeg.Resolve()
}

func (defaultFFmpegResolver) ResolveProbe() (string, error) {
	return ffmpeg.ResolveProbe()
}

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultProcessorFactory implements ProcessorFactory using the audio package.
type defaultProcessorFactory struct{}

func (defaultProcessorFactory) NewProcessor(ffmpegPath, ffprobePath string) (*audio.Processor, error) {
	return audio.NewProcessor(ffmpegPath, ffprobePath)
}

// defaultTranscriberFactory implements TranscriberFactory using Whisper.
type defaultTranscriberFactory struct{}

func (defaultTranscriberFactory) NewTranscriber(apiKey, language string) transcribe.Transcriber {
	client := openai.NewClient(apiKey)
	var opts []transcribe.TranscriberOption
	if language != "" {
		opts = append(opts, transcribe.WithLanguage(language))
	}
	return transcribe.NewWhisperTranscriber(client, opts...)
}

// defaultCompleterFactory implements CompleterFactory for both providers.
type defaultCompleterFactory struct{}

func (defaultCompleterFactory) NewCompleter(provider Provider, apiKey, model string) (complete.Completer, error) {
	if provider.IsDeepSeek() {
		var opts []complete.DeepSeekOption
		if model != "" {
			opts = append(opts, complete.WithDeepSeekModel(model))
		}
		return complete.NewDeepSeekCompleter(apiKey, opts...)
	}
	client := openai.NewClient(apiKey)
	var opts []complete.OpenAIOption
	if model != "" {
		opts = append(opts, complete.WithModel(model))
	}
	return complete.NewOpenAICompleter(client, opts...), nil
}

// Compile-time interface verification.
var (
	_ FFmpegResolver     = (*defaultFFmpegResolver)(nil)
	_ ConfigLoader       = (*defaultConfigLoader)(nil)
	_ ProcessorFactory   = (*defaultProcessorFactory)(nil)
	_ TranscriberFactory = (*defaultTranscriberFactory)(nil)
	_ CompleterFactory   = (*defaultCompleterFactory)(nil)
)
