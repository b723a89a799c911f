package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	exchange "github.com/corverroos/predex"
	"github.com/corverroos/predex/config"
	"github.com/corverroos/predex/logger"
	"github.com/gin-gonic/gin"
	"github.com/luno/jettison/errors"
	"go.uber.org/zap"
)

var configName = flag.String("config", "predex", "config file name without extension, looked up in ./config and .")

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "predex: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configName)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Name, cfg.Log.Level, cfg.Log.File); err != nil {
		return err
	}
	defer logger.Sync()

	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "starting", zap.String("addr", cfg.HTTP.Addr),
		zap.Int("seed_count", cfg.Seed.Count))

	err = exchange.Run(ctx, cfg)
	if errors.Is(err, context.Canceled) {
		logger.Info(ctx, "stopped")
		return nil
	}
	return err
}
