package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/velvetcove/amora/pkg/log"
)

type TelegramConfig struct {
	Token   string `env:"AMORA_TELEGRAM_TOKEN,required,notEmpty"`
	OwnerID int64  `env:"AMORA_TELEGRAM_OWNER_ID,required"`
}

func NewTelegramConfig(ctx context.Context) *TelegramConfig {
	c := &TelegramConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Telegram config")
	}
	return c
}
