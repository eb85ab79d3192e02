package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"salesdash/internal/amqp"
	"salesdash/internal/cache"
	"salesdash/internal/cli"
	"salesdash/internal/dataset"
	apphttp "salesdash/internal/http"
	applog "salesdash/internal/log"
	"salesdash/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stdout)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	loader, err := cli.NewLoader(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize data source", applog.FieldError, err.Error(), "type", cfg.DataSource)
		os.Exit(cli.ExitFailure)
	}

	lru := cache.NewLRU[*dataset.Dataset](cfg.CacheSize, cfg.CacheTTL)
	store := dataset.New(lru, cfg.PipelineOptions(), logger)

	var (
		notifier services.Notifier
		bus      *amqp.Client
	)
	if cfg.BusEnabled() {
		bus, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
			os.Exit(cli.ExitFailure)
		}
		defer bus.Close()
		notifier = bus
	}

	svc := services.NewReportService(store, loader, notifier, logger)

	// Warm the cache; a missing source is reported but does not stop the server.
	if err := svc.Ready(ctx); err != nil {
		logger.Warn("Initial dataset load failed", applog.FieldSource, loader.Identity(), applog.FieldError, err.Error())
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:          logger,
		ReloadPerMinute: cfg.ReloadPerMinute,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting salesdash server",
			"port", cfg.Port,
			applog.FieldSource, loader.Identity(),
			applog.FieldInstance, svc.InstanceID(),
			"reload_bus", cfg.BusEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server", applog.FieldOperation, applog.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	if bus != nil {
		g.Go(func() error {
			err := bus.ConsumeReloads(gctx, svc.HandleReloadMessage)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if cfg.CacheTTL > 0 {
		janitor := cache.NewJanitor(max(cfg.CacheTTL/2, time.Second), lru)
		g.Go(func() error {
			err := janitor.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", applog.FieldError, err.Error())
		os.Exit(cli.ExitFailure)
	}
	logger.Info("Server stopped gracefully")
}
