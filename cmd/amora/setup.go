package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/velvetcove/amora/internal/character"
	"github.com/velvetcove/amora/internal/config"
	"github.com/velvetcove/amora/internal/providers/llm"
	"github.com/velvetcove/amora/internal/service/roleplay"
	"github.com/velvetcove/amora/internal/storage/sqlite"
	"github.com/velvetcove/amora/internal/transport/cli"
	"github.com/velvetcove/amora/internal/transport/telegram"
	"github.com/velvetcove/amora/pkg/log"
	"github.com/velvetcove/amora/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	err := initEnv(ctx, config.GetRuntimePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	providersCfg := config.NewProvidersConfig(ctx)

	// 2. Storage
	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	factsRepo := sqlite.NewFactsRepo(db)
	historyRepo := sqlite.NewHistoryRepo(db)
	eventsRepo := sqlite.NewEventsRepo(db)
	maintenance := sqlite.NewMaintenance(db)

	// 3. Provider routing
	router := llm.NewRouter(ctx, providersCfg, appCfg.RequestTimeout())

	// 4. Characters
	registry := character.NewRegistry(eventsRepo)

	// 5. Generation pipeline
	pipeline := roleplay.NewPipeline(appCfg, factsRepo, historyRepo, router)

	// 6. Transports
	if appCfg.IsTelegramSelected() {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, appCfg, pipeline, registry, factsRepo, maintenance)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize telegram bot")
		}
		services = append(services, bot)
	}

	if appCfg.EnableCLI {
		chat, err := cli.NewChat(appCfg, pipeline, registry)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize cli chat")
		}
		services = append(services, chat)
	}

	return services
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
