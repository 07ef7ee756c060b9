package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/flowpilot/app"
	"github.com/dmitrymomot/flowpilot/core/config"
	"github.com/dmitrymomot/flowpilot/core/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg app.Config
	config.MustLoad(&cfg)

	log := logger.New(cfg.Logger)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", logger.Error(err))
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Error("server failed", logger.Error(err))
		os.Exit(1)
	}
}
