package cli

import (
	"github.com/alonsovb/sermonkit/internal/complete"
	"github.com/alonsovb/sermonkit/internal/config"
)

// buildCompleter resolves the provider and model for a completion
// command and creates the completer. Flag values win over config
// values; the provider defaults to OpenAI when neither is set.
func buildCompleter(env *Env, cfg config.Config, providerFlag, modelFlag string) (complete.Completer, Provider, error) {
	name := providerFlag
	if name == "" {
		name = cfg.Provider
	}

	var provider Provider
	if name == "" {
		provider = OpenAIProvider
	} else {
		parsed, err := ParseProvider(name)
		if err != nil {
			return nil, Provider{}, err
		}
		provider = parsed
	}

	apiKey, err := resolveAPIKey(env, provider)
	if err != nil {
		return nil, Provider{}, err
	}

	model := modelFlag
	if model == "" {
		model = cfg.Model
	}

	completer, err := env.CompleterFactory.NewCompleter(provider, apiKey, model)
	if err != nil {
		return nil, Provider{}, err
	}
	return completer, provider, nil
}
