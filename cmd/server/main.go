// Package main provides the Rolltable session server: room management over
// HTTP and the chat/dice session protocol over websockets.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rolltable/internal/config"
	"github.com/cory-johannsen/rolltable/internal/game/dice"
	"github.com/cory-johannsen/rolltable/internal/game/room"
	"github.com/cory-johannsen/rolltable/internal/game/session"
	"github.com/cory-johannsen/rolltable/internal/observability"
	"github.com/cory-johannsen/rolltable/internal/server"
)

func main() {
	start := time.Now()

	// Optional .env for local development; ignored when absent.
	_ = godotenv.Load()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting rolltable server",
		zap.String("http_addr", cfg.HTTP.Addr()),
	)

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	registry := room.NewRegistry(logger, metrics)

	if cfg.Rooms.SeedFile != "" {
		seeds, err := room.LoadSeedFile(cfg.Rooms.SeedFile)
		if err != nil {
			logger.Fatal("loading seed rooms", zap.Error(err))
		}
		if err := registry.Seed(seeds); err != nil {
			logger.Fatal("seeding rooms", zap.Error(err))
		}
		logger.Info("rooms seeded", zap.Int("count", len(seeds)))
	}

	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	sessions := session.NewHandler(registry, roller, cfg.Rooms.OutboxBuffer, logger)
	httpServer := server.New(cfg.HTTP, registry, sessions, logger)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("http", &server.FuncService{
		StartFn: httpServer.ListenAndServe,
		StopFn:  httpServer.Stop,
	})

	logger.Info("server initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
