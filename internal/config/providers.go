package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/velvetcove/amora/pkg/log"
)

// Provider keys are all optional: a missing key removes that provider from
// the routable set, it never fails startup.

type ProvidersConfig struct {
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY"`
	XAIAPIKey        string `env:"XAI_API_KEY"`
}

func NewProvidersConfig(ctx context.Context) *ProvidersConfig {
	c := &ProvidersConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Providers config")
	}
	return c
}
