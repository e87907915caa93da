package llm

import "time"

// OpenAI provider is implemented using OpenAICompatible.
type OpenAI struct {
	*OpenAICompatible
}

func NewOpenAI(apiKey string, timeout time.Duration) *OpenAI {
	return &OpenAI{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			Name:       ProviderOpenAI,
			BaseURL:    "https://api.openai.com",
			APIKey:     apiKey,
			Timeout:    timeout,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}),
	}
}
