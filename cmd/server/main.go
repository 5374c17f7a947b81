// Package main is the entry point for the poke-finder HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/poke-finder/internal/app"
	"github.com/fleveque/poke-finder/internal/config"
	"github.com/fleveque/poke-finder/internal/controller"
	"github.com/fleveque/poke-finder/internal/server"
	"github.com/fleveque/poke-finder/internal/session"
)

func main() {
	// run() is separate so deferred cleanup executes before os.Exit.
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv(config.EnvConfigPath))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := app.NewLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	// Sync commonly fails on stdout/stderr; nothing to do about it.
	defer func() { _ = logger.Sync() }()

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sessions := session.NewMemoryStore[*controller.Controller](
		session.WithTTL(cfg.Sessions.TTL),
		session.WithMaxSessions(cfg.Sessions.Max),
	)

	srv := server.New(cfg, server.Deps{
		Pokedex:     a.Pokedex,
		Sprites:     a.Sprites,
		Entries:     a.Entries,
		EntryRepo:   a.EntryRepo,
		LLMCallRepo: a.LLMCallRepo,
		Sessions:    sessions,
		SpriteBase:  cfg.Sprites.BaseURL,
	}, logger)

	// Graceful shutdown on SIGINT (Ctrl+C) or SIGTERM (docker stop).
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	// Give in-flight requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}
