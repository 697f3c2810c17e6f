package middleware

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Logging logs every unary call with its status code and duration.
func Logging(logger *log.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		code := status.Code(err)
		kv := []any{"method", info.FullMethod, "code", code.String(), "took", time.Since(start)}
		if err != nil {
			logger.Warn("rpc failed", append(kv, "err", status.Convert(err).Message())...)
		} else {
			logger.Debug("rpc", kv...)
		}
		return resp, err
	}
}
