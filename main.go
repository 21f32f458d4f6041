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
	"time"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := LoadConfig(os.Args[1:], os.Getenv)
	if err != nil {
		return err
	}

	log, err := NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	db, err := OpenDB(cfg.DBPath, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	analytics := NewAnalytics(db, log)
	defer analytics.Stop()

	auth, err := NewAuth(db, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	game := NewGame(cfg.SimConfig(), cfg.TickRate, log.Named("game"), analytics, auth)
	go game.Run(ctx)

	hub := NewHub(game, auth, analytics, log.Named("hub"))
	go hub.Run(ctx)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: SetupRoutes(ctx, hub, game, cfg, log.Named("http")),
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", cfg.Addr),
			zap.String("client_dir", cfg.ClientDir))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
