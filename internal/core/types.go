package core

const (
	AmoraName          = "Amora"
	AmoraUserAgent     = "Amora-Bot/0.1"
	AmoraRepositoryURL = "https://github.com/velvetcove/amora"
	AmoraVersion       = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is the unit of exchange with a chat-completion provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SamplingParams are the generation knobs sent with every request.
type SamplingParams struct {
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

// DefaultSampling is used by the roleplay pipeline for all dispatches.
func DefaultSampling() SamplingParams {
	return SamplingParams{
		MaxTokens:   700,
		Temperature: 0.9,
		TopP:        0.95,
	}
}

func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
