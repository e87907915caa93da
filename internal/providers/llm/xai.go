package llm

import "time"

// XAI serves the grok model family through the same OpenAI-compatible API.
type XAI struct {
	*OpenAICompatible
}

func NewXAI(apiKey string, timeout time.Duration) *XAI {
	return &XAI{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			Name:       ProviderXAI,
			BaseURL:    "https://api.x.ai",
			APIKey:     apiKey,
			Timeout:    timeout,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}),
	}
}
