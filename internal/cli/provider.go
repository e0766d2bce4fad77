package cli

import (
	"errors"
	"fmt"
)

// Provider name constants.
const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
)

// Provider represents a validated LLM provider for text completion.
// Zero value is invalid and must not be used.
// Use ParseProvider to create from user input, or the pre-parsed constants.
type Provider struct {
	name string
}

// Compile-time interface compliance check.
var _ fmt.Stringer = Provider{}

// ErrInvalidProvider indicates an invalid provider name was specified.
var ErrInvalidProvider = errors.New("invalid provider")

// Pre-parsed provider constants for use in code.
var (
	OpenAIProvider   = Provider{name: ProviderOpenAI}
	DeepSeekProvider = Provider{name: ProviderDeepSeek}
)

// validProviders contains the set of valid provider names.
var validProviders = map[string]bool{
	ProviderOpenAI:   true,
	ProviderDeepSeek: true,
}

// ParseProvider validates and parses a provider name string.
// Returns ErrInvalidProvider if the name is not recognized.
// Empty string returns an error; callers default before parsing.
func ParseProvider(s string) (Provider, error) {
	if s == "" {
		return Provider{}, fmt.Errorf("provider cannot be empty: %w", ErrInvalidProvider)
	}
	if !validProviders[s] {
		return Provider{}, fmt.Errorf("unknown provider %q (use 'openai' or 'deepseek'): %w", s, ErrInvalidProvider)
	}
	return Provider{name: s}, nil
}

// MustParseProvider parses a provider name, panicking if invalid.
// Use only for compile-time constants and tests.
func MustParseProvider(s string) Provider {
	p, err := ParseProvider(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the provider name string.
// Returns empty string for zero value.
func (p Provider) String() string {
	return p.name
}

// IsZero returns true if this is the zero value (no provider set).
func (p Provider) IsZero() bool {
	return p.name == ""
}

// IsOpenAI returns true if this provider is OpenAI.
func (p Provider) IsOpenAI() bool {
	return p.name == ProviderOpenAI
}

// IsDeepSeek returns true if this provider is DeepSeek.
func (p Provider) IsDeepSeek() bool {
	return p.name == ProviderDeepSeek
}

// OrDefault returns the provider, or OpenAIProvider if zero.
// Use this to apply the default provider consistently.
func (p Provider) OrDefault() Provider {
	if p.IsZero() {
		return OpenAIProvider
	}
	return p
}

// apiKeyEnvVar returns the environment variable that holds this
// provider's credential.
func (p Provider) apiKeyEnvVar() string {
	if p.IsDeepSeek() {
		return EnvDeepSeekAPIKey
	}
	return EnvOpenAIAPIKey
}

// resolveAPIKey reads the provider's API key from the environment.
// A missing key is a setup error naming the variable to export.
func resolveAPIKey(env *Env, p Provider) (string, error) {
	key := env.Getenv(p.apiKeyEnvVar())
	if key == "" {
		sentinel := ErrAPIKeyMissing
		if p.IsDeepSeek() {
			sentinel = ErrDeepSeekKeyMissing
		}
		return "", fmt.Errorf("%w (set it with: export %s=sk-...)", sentinel, p.apiKeyEnvVar())
	}
	return key, nil
}
