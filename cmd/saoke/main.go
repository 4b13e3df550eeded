package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"saoke/internal/backend"
	"saoke/internal/cli"
	"saoke/internal/fetch"
	apphttp "saoke/internal/http"
	"saoke/internal/log"
	"saoke/internal/services"
	"saoke/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	bootstrap := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stdout)
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ranges, err := cli.LoadRanges(cfg.RangesFile, logger)
	if err != nil {
		logger.Error("Failed to load histogram ranges", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := cli.GracefulShutdown(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err, log.FieldBackend, cfg.TableBackend)
		os.Exit(1)
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	hub := apphttp.NewProgressHub(logger)
	opts := []services.Option{
		services.WithIndex(be.Backend.Index),
		services.WithObserver(hub),
		services.WithLogger(logger),
	}
	if be.Backend.Publisher != nil {
		opts = append(opts, services.WithPublisher(be.Backend.Publisher))
	}
	fetcher := fetch.New(be.Backend.Transport, fetch.WithChunkSize(cfg.ChunkSize))
	ingestor := services.NewIngestor(cfg.SourceURL, fetcher, ranges, opts...)

	srv := apphttp.NewServer(":"+cfg.Port, ingestor, be.Backend.Index, apphttp.Options{
		PageSize:       cfg.PageSize,
		QueryCacheSize: cfg.QueryCacheSize,
		QueryCacheTTL:  cfg.QueryCacheTTL,
		Logger:         logger,
		Hub:            hub,
	})
	srv.ReadTimeout = 10 * time.Second
	// reloads answer after a full transfer
	srv.WriteTimeout = 5 * time.Minute
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting saoke server",
			"port", cfg.Port,
			log.FieldSource, cfg.SourceURL,
			log.FieldBackend, cfg.TableBackend,
			"amqp_enabled", be.Backend.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.ReloadOnStart {
		g.Go(func() error {
			// a failed first load leaves the server up and not ready
			if _, _, err := srv.Reload(gctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Initial load failed", log.FieldError, err, log.FieldSource, cfg.SourceURL)
			}
			return nil
		})
	}

	if cfg.RefreshInterval > 0 {
		refresher := worker.NewRefreshWorker(srv, cfg.RefreshInterval, logger)
		g.Go(func() error { return refresher.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
