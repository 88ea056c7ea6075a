package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cinelog/cinelog/internal/api"
	"github.com/cinelog/cinelog/internal/config"
	"github.com/cinelog/cinelog/internal/events"
	"github.com/cinelog/cinelog/internal/logger"
	"github.com/cinelog/cinelog/internal/scheduler"
	"github.com/cinelog/cinelog/internal/scheduler/tasks"
	"github.com/cinelog/cinelog/internal/storage"
	"github.com/cinelog/cinelog/internal/websocket"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("storage", cfg.Storage.Driver).
		Msg("starting CineLog")

	store, err := openStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()

	bus := events.NewBus()

	hub := websocket.NewHub()
	hub.AttachBus(bus)
	go hub.Run()

	server := api.NewServer(store, bus, hub, cfg, log.Logger)

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}

	posterTask := tasks.NewPosterRefreshTask(store, server.WatchlistService(), log.Logger)
	if err := sched.RegisterTask(scheduler.TaskConfig{
		ID:          "poster-refresh",
		Name:        "Poster Refresh",
		Description: "Re-fetch missing watchlist artwork",
		Cron:        "0 4 * * *",
		Func:        posterTask.Run,
	}); err != nil {
		log.Error().Err(err).Msg("failed to register poster refresh task")
	}
	if err := sched.Start(); err != nil {
		log.Error().Err(err).Msg("failed to start scheduler")
	}

	go func() {
		if err := server.Start(cfg.Server.Address()); err != nil {
			log.Info().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop scheduler")
	}
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to shut down server")
	}
}

// openStore picks the key-value driver from configuration.
func openStore(cfg *config.Config, log *logger.Logger) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		return storage.NewSQLiteStore(cfg.Storage.Path, log.Logger)
	case "badger", "":
		return storage.NewBadgerStore(cfg.Storage.Path, log.Logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
