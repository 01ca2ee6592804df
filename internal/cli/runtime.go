package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Skshirin/factify/internal/app"
	"github.com/Skshirin/factify/internal/config"
	"github.com/Skshirin/factify/internal/logger"
)

// withAnalyzer loads config, starts logging and builds the runtime for the duration of fn.
func withAnalyzer(parent context.Context, configure func(*config.Config), fn func(ctx context.Context, a *app.Analyzer) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if configure != nil {
		configure(cfg)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	analyzer, err := app.NewAnalyzer(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize analyzer", "error", err.Error())
		return err
	}
	defer func() {
		if err := analyzer.Close(); err != nil {
			log.ErrorObj("analyzer close failed", "error", err.Error())
		}
	}()

	return fn(ctx, analyzer)
}
