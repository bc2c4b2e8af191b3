package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/legal-analyzer/internal/async"
	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/ingest"
	"github.com/joseph-ayodele/legal-analyzer/internal/pipeline"
	svc "github.com/joseph-ayodele/legal-analyzer/internal/server"
)

func main() {
	// Text output without time/level keeps container logs short
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	logger.Info("config loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := svc.ConnectStore(ctx, cfg, logger)
	if err != nil {
		os.Exit(1)
	}
	defer store.Close(logger)

	if err := store.Ping(ctx, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	processor, closer, err := pipeline.New(ctx, cfg, store.Documents, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer closer.Close()

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.JobTimeout),
	)
	ingestor := ingest.NewFSIngestor(store.Documents, queue, logger)

	if dir := cfg.Ingest.WatchDir; dir != "" {
		go func() {
			err := ingest.Watch(ctx, ingestor, ingest.WatchConfig{
				Roots:       []string{dir},
				InitialScan: true,
				Debounce:    cfg.Ingest.Debounce,
				Logger:      logger,
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("watch folder stopped", "dir", dir, "error", err)
			}
		}()
		logger.Info("watching folder", "dir", dir)
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer, healthServer := svc.NewGRPCServer(svc.NewAnalysisService(store.Documents, ingestor, queue, logger), logger)

	logger.Info("legal-analyzer listening", "addr", cfg.Server.GRPCAddr)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(svc.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}
