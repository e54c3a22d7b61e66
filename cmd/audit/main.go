package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/audit"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/redis"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/setup"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	logger := log.Logger

	// Load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := setup.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.RedisAddr == "" {
		log.Fatal().Msg("REDIS_ADDR is required")
	}

	client, err := redis.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, 5, &logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer client.Close()

	name, _ := os.Hostname()
	if name == "" {
		name = "audit-consumer"
	}

	consumer := audit.NewConsumer(client, cfg.AuditStream, "audit-group", name, audit.LogHandler(&logger), &logger)
	if err := consumer.Setup(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create consumer group")
	}

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("Audit consumer stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("Audit consumer stopped")
}
