package main

import (
	"context"
	"os"

	"budgetbuddy/internal/cli"
	"budgetbuddy/internal/log"
)

func main() {
	// Load .env file for local development
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	logger.Debug("Starting budgetbuddy",
		log.FieldBackend, cfg.DataBackend,
		log.FieldPath, cfg.DataDir)

	ctx := log.NewContext(context.Background(), logger)
	result := cli.InitBackend(ctx, logger, cfg)

	app := cli.NewApp(result.Service, os.Stdin, os.Stdout, logger)
	runErr := app.Run(ctx)
	if runErr != nil {
		logger.Error("Menu stopped", log.FieldError, runErr)
	}

	cli.CloseBackend(logger, result)
	if runErr != nil {
		os.Exit(1)
	}
}
