package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/velvetcove/amora/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"AMORA_RUNTIME_PATH" envDefault:".amora"`

	// Default model when the transport does not request one explicitly.
	Model string `env:"AMORA_MODEL" envDefault:"openrouter/mistralai/mistral-nemo"`

	// DefaultCharacter is the persona used when none was chosen yet.
	DefaultCharacter string `env:"AMORA_DEFAULT_CHARACTER" envDefault:"luna"`

	// Transport Flags
	EnableTelegram bool `env:"AMORA_ENABLE_TELEGRAM" envDefault:"false"`
	EnableCLI      bool `env:"AMORA_ENABLE_CLI" envDefault:"true"`

	// Context Management
	HistoryTokenBudget int `env:"AMORA_HISTORY_TOKEN_BUDGET" envDefault:"1800"`

	// Outbound HTTP timeout in seconds for provider calls.
	RequestTimeoutSec int `env:"AMORA_REQUEST_TIMEOUT" envDefault:"60"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "amora.db")
}

func (c AppConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

func (c AppConfig) IsTelegramSelected() bool {
	return c.EnableTelegram
}
