package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aescanero/autogent/internal/application/orchestrator"
	"github.com/aescanero/autogent/internal/application/workers"
	"github.com/aescanero/autogent/internal/config"
	promadapter "github.com/aescanero/autogent/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/autogent/pkg/api/grpc"
	"github.com/aescanero/autogent/pkg/api/http"
	"github.com/aescanero/autogent/pkg/api/websocket"
	"github.com/aescanero/autogent/pkg/engine"
)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, WebSocket and gRPC servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting autogent orchestrator",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsCollector := promadapter.NewCollector(registry)

	b, err := buildBackends(ctx, cfg, metricsCollector, logger)
	if err != nil {
		return err
	}

	eng := engine.New(b.bundle,
		engine.WithLogger(logger),
		engine.WithMetrics(metricsCollector),
		engine.WithEventBus(b.eventBus))
	logger.Info("engine ready", zap.Strings("kinds", eng.Kinds()))

	workerPool := workers.NewPool(
		cfg.Workers.PoolSize,
		cfg.Workers.QueueSize,
		metricsCollector,
		logger,
		cfg.Workers.HealthCheckInterval,
	)
	if err := workerPool.Start(); err != nil {
		b.close(context.Background(), logger)
		return err
	}

	orchestratorMgr := orchestrator.NewManager(
		eng,
		b.store,
		workerPool,
		metricsCollector,
		orchestrator.NewValidator(cfg.Engine.MaxNodes, cfg.Engine.MaxEdges),
		logger,
		cfg.Timeouts.RunTimeout,
		cfg.RunDefaults(),
	)

	httpServer := http.NewServer(&http.Config{
		Port:         cfg.HTTPPort,
		Orchestrator: orchestratorMgr,
		Health:       workerPool.Health(),
		Gatherer:     registry,
		APIKey:       cfg.APIKey,
		Logger:       logger,
	})
	httpServer.SetupWebSocket(websocket.NewHandler(b.eventBus, logger))

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Port:    cfg.GRPCPort,
		Workers: workerPool.Health(),
		Logger:  logger,
	})
	if err != nil {
		_ = workerPool.Shutdown(context.Background())
		b.close(context.Background(), logger)
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()
	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- err
		}
	}()

	logger.Info("autogent orchestrator started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Int("worker_pool_size", cfg.Workers.PoolSize))

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case serveErr = <-errCh:
		logger.Error("server failed", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}
	if err := orchestratorMgr.Shutdown(shutdownCtx); err != nil {
		logger.Error("orchestrator shutdown error", zap.Error(err))
	}
	if err := workerPool.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker pool shutdown error", zap.Error(err))
	}
	b.close(shutdownCtx, logger)

	logger.Info("autogent orchestrator shut down complete")
	return serveErr
}
