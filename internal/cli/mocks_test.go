package cli

import (
	"context"
	"sync"

	"github.com/alonsovb/sermonkit/internal/audio"
	"github.com/alonsovb/sermonkit/internal/complete"
	"github.com/alonsovb/sermonkit/internal/config"
	"github.com/alonsovb/sermonkit/internal/transcribe"
	"github.com/alonsovb/sermonkit/internal/transcript"
)

// ---------------------------------------------------------------------------
// Mock FFmpegResolver
// ---------------------------------------------------------------------------

type mockFFmpegResolver struct {
	ResolveFunc      func() (string, error)
	ResolveProbeFunc func() (string, error)

	mu           sync.Mutex
	resolveCalls int
}

func (m *mockFFmpegResolver) Resolve() (string, error) {
	m.mu.Lock()
	m.resolveCalls++
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc()
	}
	return "/usr/bin/ffmpeg", nil
}

func (m *mockFFmpegResolver) ResolveProbe() (string, error) {
	if m.ResolveProbeFunc != nil {
		return m.ResolveProbeFunc()
	}
	return "/usr/bin/ffprobe", nil
}

func (m *mockFFmpegResolver) ResolveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalls
}

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

func (m *mockConfigLoader) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// ---------------------------------------------------------------------------
// Mock ProcessorFactory
// ---------------------------------------------------------------------------

type mockProcessorFactory struct {
	NewProcessorFunc func(ffmpegPath, ffprobePath string) (*audio.Processor, error)

	mu    sync.Mutex
	calls []string // ffmpeg paths passed
}

func (m *mockProcessorFactory) NewProcessor(ffmpegPath, ffprobePath string) (*audio.Processor, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ffmpegPath)
	m.mu.Unlock()

	if m.NewProcessorFunc != nil {
		return m.NewProcessorFunc(ffmpegPath, ffprobePath)
	}
	return audio.NewProcessor(ffmpegPath, ffprobePath)
}

// ---------------------------------------------------------------------------
// Mock TranscriberFactory + Transcriber
// ---------------------------------------------------------------------------

type mockTranscriberFactory struct {
	NewTranscriberFunc func(apiKey, language string) transcribe.Transcriber

	mu    sync.Mutex
	calls []transcriberFactoryCall
}

type transcriberFactoryCall struct {
	APIKey   string
	Language string
}

func (m *mockTranscriberFactory) NewTranscriber(apiKey, language string) transcribe.Transcriber {
	m.mu.Lock()
	m.calls = append(m.calls, transcriberFactoryCall{APIKey: apiKey, Language: language})
	m.mu.Unlock()

	if m.NewTranscriberFunc != nil {
		return m.NewTranscriberFunc(apiKey, language)
	}
	return &mockTranscriber{}
}

func (m *mockTranscriberFactory) Calls() []transcriberFactoryCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]transcriberFactoryCall(nil), m.calls...)
}

type mockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audioPath string) (transcript.Result, error)

	mu    sync.Mutex
	paths []string
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audioPath string) (transcript.Result, error) {
	m.mu.Lock()
	m.paths = append(m.paths, audioPath)
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audioPath)
	}
	return transcript.Result{Text: "transcribed text"}, nil
}

func (m *mockTranscriber) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}

// ---------------------------------------------------------------------------
// Mock CompleterFactory + Completer
// ---------------------------------------------------------------------------

type mockCompleterFactory struct {
	NewCompleterFunc func(provider Provider, apiKey, model string) (complete.Completer, error)

	mu    sync.Mutex
	calls []completerFactoryCall
}

type completerFactoryCall struct {
	Provider Provider
	APIKey   string
	Model    string
}

func (m *mockCompleterFactory) NewCompleter(provider Provider, apiKey, model string) (complete.Completer, error) {
	m.mu.Lock()
	m.calls = append(m.calls, completerFactoryCall{Provider: provider, APIKey: apiKey, Model: model})
	m.mu.Unlock()

	if m.NewCompleterFunc != nil {
		return m.NewCompleterFunc(provider, apiKey, model)
	}
	return &mockCompleter{}, nil
}

func (m *mockCompleterFactory) Calls() []completerFactoryCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]completerFactoryCall(nil), m.calls...)
}

type mockCompleter struct {
	CompleteFunc func(ctx context.Context, system, user string) (string, error)

	mu    sync.Mutex
	calls int
}

func (m *mockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, system, user)
	}
	return user, nil
}

func (m *mockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Compile-time interface verification.
var (
	_ FFmpegResolver         = (*mockFFmpegResolver)(nil)
	_ ConfigLoader           = (*mockConfigLoader)(nil)
	_ ProcessorFactory       = (*mockProcessorFactory)(nil)
	_ TranscriberFactory     = (*mockTranscriberFactory)(nil)
	_ CompleterFactory       = (*mockCompleterFactory)(nil)
	_ transcribe.Transcriber = (*mockTranscriber)(nil)
	_ complete.Completer     = (*mockCompleter)(nil)
)
