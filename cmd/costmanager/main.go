package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"costmanager/internal/backend"
	"costmanager/internal/cli"
	apphttp "costmanager/internal/http"
	"costmanager/internal/ledger"
	applog "costmanager/internal/log"
	"costmanager/internal/report"
	"costmanager/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "costmanager:", err)
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
	logger := cli.SetupLogger(cfg, applog.ComponentApp, os.Stdout)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	defer func() {
		if result.Cleanup == nil {
			return
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	l := ledger.New(result.Store)
	svc := services.NewCostService(l, result.Registry, report.NewBuilder(l, cfg.Categories), result.Publisher)

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:             logger,
		Team:               cfg.TeamMembers,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		UserCache:          result.UserCache,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting costmanager server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"categories", len(cfg.Categories),
			"events_enabled", result.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return cli.WaitForSignal(gctx, logger)
	})

	g.Go(func() error {
		<-gctx.Done()
		return cli.ShutdownWithTimeout(cfg.ShutdownTimeout, srv.Shutdown)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, cli.ErrShutdownSignal) {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
