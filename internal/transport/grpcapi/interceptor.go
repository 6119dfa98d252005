package grpcapi

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/booking-calendar/internal/logging"
)

// LoggingInterceptor кладёт в контекст логгер запроса и пишет итог вызова.
func LoggingInterceptor(base *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		logger := base.With("method", info.FullMethod)
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(UserIDHeader); len(vals) > 0 {
				logger = logger.With("user_id", vals[0])
			}
		}
		ctx = logging.ContextWithLogger(ctx, logger)

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		attrs := []any{"code", code.String(), "duration", time.Since(start)}
		if err != nil {
			logger.Warn("grpc call failed", append(attrs, "error", err)...)
		} else {
			logger.Info("grpc call", attrs...)
		}
		return resp, err
	}
}
