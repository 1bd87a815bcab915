package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"costmanager/internal/amqp"
	"costmanager/internal/cache"
	"costmanager/internal/cli"
	applog "costmanager/internal/log"
	"costmanager/internal/sheets/google"
	"costmanager/internal/worker"
)

const (
	dedupeSize = 10000
	dedupeTTL  = time.Hour
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "cost-worker:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := cli.LoadEnvFile(); err != nil {
		return err
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required by the worker")
	}
	logger := cli.SetupLogger(cfg, applog.ComponentWorker, os.Stdout)
	logger.Info("Starting cost-worker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer client.Close()

	audit := worker.NewAuditWorker(logger, dedupeSize, dedupeTTL)
	if cfg.GoogleSpreadsheetID != "" {
		sheet, err := google.NewFromEnv(context.Background())
		if err != nil {
			return fmt.Errorf("initialize Google Sheets export: %w", err)
		}
		audit.WithExport(sheet)
		logger.Info("Exporting cost events to Google Sheets")
	}

	caches := cache.NewManager()
	caches.Register(audit.Cache())
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		err := client.ConsumeCostAdded(ctx, audit.HandleCostAdded)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		return cli.WaitForSignal(ctx, logger)
	})

	err = g.Wait()
	processed, duplicates := audit.Stats()
	logger.Info("Worker stopped", "processed", processed, "duplicates", duplicates)

	if err != nil && !errors.Is(err, cli.ErrShutdownSignal) {
		return err
	}
	return nil
}
