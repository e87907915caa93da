package installer

// InstallState accumulates the answers; tagged fields end up in the runtime
// .env, untagged ones are wizard-internal.
type InstallState struct {
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenRouterKey string `env:"OPENROUTER_API_KEY"`
	XAIKey        string `env:"XAI_API_KEY"`

	Model            string `env:"AMORA_MODEL"`
	DefaultCharacter string `env:"AMORA_DEFAULT_CHARACTER"`

	EnableTelegram  bool   `env:"AMORA_ENABLE_TELEGRAM"`
	EnableCLI       bool   `env:"AMORA_ENABLE_CLI"`
	TelegramToken   string `env:"AMORA_TELEGRAM_TOKEN"`
	TelegramOwnerID int64  `env:"AMORA_TELEGRAM_OWNER_ID"`

	Debug string `env:"AMORA_DEBUG"`

	Provider string
	Channel  string
}

func NewInstallState() *InstallState {
	return &InstallState{}
}
