package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/cli"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/worker"
)

const statsInterval = time.Minute

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentAMQP)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to consume ledger events",
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	logger.Info("Starting ledger-events",
		"exchange", cfg.AMQPExchange,
		"routing_key", cfg.AMQPRoutingKey)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
	if err != nil {
		logger.Error("Failed to initialize AMQP client",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeNetwork)
		os.Exit(1)
	}

	eventWorker := worker.NewEventWorker(logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, eventWorker.LogStats)
	g, gctx := errgroup.WithContext(log.NewContext(ctx, logger))

	// Consume until shutdown or a broker failure
	g.Go(func() error {
		return amqpClient.ConsumeLedgerEvents(gctx, eventWorker.HandleLedgerEvent)
	})

	// Periodic stats report
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				eventWorker.LogStats()
			}
		}
	})

	err = g.Wait()
	if closeErr := amqpClient.Close(); closeErr != nil {
		logger.Warn("Failed to close AMQP client", log.FieldError, closeErr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
