package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"arena-server/internal/config"
	"arena-server/internal/game"
	"arena-server/internal/logging"
	"arena-server/internal/metrics"
	"arena-server/internal/server"
	"arena-server/internal/snapshot"
	"arena-server/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to a .yaml or .toml config file")
	envFile := flag.String("env", ".env", "Path to an optional .env file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", *envFile, err)
	}

	if *configPath == "" {
		*configPath = os.Getenv("ARENA_CONFIG")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer log.Sync()

	m := metrics.New()
	opts := []game.Option{game.WithObserver(m)}
	var srvOpts []server.Option

	if cfg.Store.Path != "" {
		db, err := store.OpenDB(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		rec, err := store.NewRecorder(db, cfg.Game.Mode, cfg.Store.BatchSize, cfg.Store.FlushInterval, log.Named("store"))
		if err != nil {
			return err
		}
		defer rec.Stop()
		opts = append(opts, game.WithObserver(rec))
		srvOpts = append(srvOpts, server.WithStore(db, rec.MatchID()))
	}

	if cfg.Journal.Dir != "" {
		j, err := snapshot.OpenJournal(cfg.Journal.Dir, cfg.Journal.RotateFrames, cfg.Journal.Level, log.Named("journal"))
		if err != nil {
			return err
		}
		defer func() {
			if err := j.Close(); err != nil {
				log.Error("close journal", zap.Error(err))
			}
		}()
		opts = append(opts, game.WithObserver(server.NewJournalObserver(j)))
	}

	g, err := game.New(cfg.Game, log.Named("game"), opts...)
	if err != nil {
		return err
	}
	go g.Run()
	defer g.Stop()

	srv, err := server.New(cfg, g, m, log, srvOpts...)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go srv.Run(ctx)

	httpServer := &http.Server{Addr: cfg.Server.Addr, Handler: srv.Handler()}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", cfg.Server.Addr),
			zap.String("mode", cfg.Game.Mode),
			zap.Int("tick_rate", cfg.Game.TickRate),
			zap.Int("max_players", cfg.Game.MaxPlayers))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	return nil
}
