// Package providerfactory constructs provider adapters from settings and
// manages a named set of them with periodic health sweeps.
package providerfactory

import (
	"github.com/omer-faruq/assistant-core/pkg/providers"
	"github.com/omer-faruq/assistant-core/pkg/providers/anthropic"
	"github.com/omer-faruq/assistant-core/pkg/providers/gemini"
	"github.com/omer-faruq/assistant-core/pkg/providers/openai"
	"github.com/omer-faruq/assistant-core/pkg/providers/qianfan"
)

// New builds the adapter variant named by settings.Type. The "generic" type
// covers any OpenAI-compatible endpoint and shares the openai adapter.
func New(settings providers.Settings, deps providers.Deps) (providers.Adapter, error) {
	switch settings.Type {
	case "openai", "generic":
		return openai.New(settings, deps)
	case "anthropic":
		return anthropic.New(settings, deps)
	case "gemini":
		return gemini.New(settings, deps)
	case "qianfan":
		return qianfan.New(settings, deps)
	default:
		return nil, &providers.ConfigError{
			Provider: settings.Name,
			Field:    "type",
			Message:  "unsupported provider type " + settings.Type,
		}
	}
}
