package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/legal-analyzer/internal/common"
)

const requestIDHeader = "x-request-id"

// NewGRPCServer registers svc and the standard health service on a new server.
// The health status starts at SERVING; flip it with the returned health.Server.
func NewGRPCServer(svc AnalysisServer, logger *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(UnaryLogging(logger)))
	s := grpc.NewServer(opts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	if err := RegisterDescriptor(); err != nil {
		logger.Warn("grpc.reflection.descriptor_failed", "error", err)
	}
	reflection.Register(s)

	RegisterAnalysisServer(s, svc)
	return s, hs
}

// UnaryLogging tags each call with a request id (from x-request-id metadata
// or fresh) and logs its outcome.
func UnaryLogging(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		reqID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(requestIDHeader); len(v) > 0 {
				reqID = v[0]
			}
		}
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx = common.WithRequestID(ctx, reqID)

		resp, err := handler(ctx, req)
		code := status.Code(err)
		l := common.LoggerFrom(ctx, logger).With(
			"method", info.FullMethod,
			"code", code.String(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		if err != nil {
			l.Warn("grpc.request.failed", "error", err)
		} else {
			l.Info("grpc.request")
		}
		return resp, err
	}
}
