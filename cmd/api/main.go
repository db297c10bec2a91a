package main

import (
	"fmt"
	"os"

	"github.com/xavierca1/quote-payments/internal/app"
	"github.com/xavierca1/quote-payments/internal/config"
	"github.com/xavierca1/quote-payments/internal/logger"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Server.LogLevel); err != nil {
		panic(fmt.Sprintf("can't initialize logger: %s", err.Error()))
	}
	defer logger.Sync()

	if err := app.Run(cfg); err != nil {
		logger.Errorw("service stopped with error", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}
