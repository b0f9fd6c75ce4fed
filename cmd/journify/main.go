package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"journify/core/internal/config"
	"journify/core/internal/datastore"
	"journify/core/internal/events"
	"journify/core/internal/log"
	"journify/core/internal/session"
	"journify/core/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.App.Environment)
	clock := clockwork.NewRealClock()
	bus := events.NewBus()

	store, err := storage.New(cfg.Storage, cfg.App.Version, bus, clock, log.Component(logger, "storage"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}
	if store.Degraded() {
		logger.Warn().Msg("running on in-memory storage, data will not persist")
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	store.Watch(watchCtx, cfg.Storage.WatchInterval)

	registry := session.NewRegistry()
	if err := registry.Seed(session.DemoUsers()); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed demo users")
	}

	sessions := session.NewManager(cfg.Security, registry, store, bus, clock, log.Component(logger, "session"))
	data := datastore.New(store, bus, sessions, cfg.Cache, clock, log.Component(logger, "datastore"))

	bus.StorageErrors.Subscribe(func(ev events.StorageError) {
		logger.Warn().Err(ev.Err).Str("op", ev.Op).Str("key", ev.Key).Msg("storage error observed")
	})

	logger.Info().
		Str("version", cfg.App.Version).
		Str("storage", cfg.Storage.Path).
		Int("accounts", registry.Len()).
		Msg("journify core started")

	waitForShutdown(logger, stopWatch, sessions, data)
}

func waitForShutdown(logger zerolog.Logger, stopWatch context.CancelFunc, sessions *session.Manager, data *datastore.Service) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	stopWatch()
	data.Close()
	sessions.Close()

	logger.Info().Msg("journify core exited cleanly")
}
