package llm

import (
	"time"

	"github.com/velvetcove/amora/internal/core"
)

type OpenRouter struct {
	*OpenAICompatible
}

func NewOpenRouter(apiKey string, timeout time.Duration) *OpenRouter {
	return &OpenRouter{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			Name:       ProviderOpenRouter,
			BaseURL:    "https://openrouter.ai/api",
			APIKey:     apiKey,
			Timeout:    timeout,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
			ExtraHeaders: map[string]string{
				"HTTP-Referer": core.AmoraRepositoryURL,
				"X-Title":      core.AmoraName,
			},
		}),
	}
}
