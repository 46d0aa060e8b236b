package interceptors

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/jcmexdev/order-management/internal/pkg/interceptors/constants"
)

// TraceServerInterceptor lifts the request id and idempotency key out of the
// incoming metadata and logs every call.
func TraceServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(constants.HeaderXRequestId); len(ids) > 0 {
				ctx = WithRequestID(ctx, ids[0])
			}
			if keys := md.Get(constants.HeaderXIdempotencyKey); len(keys) > 0 {
				ctx = WithIdempotencyKey(ctx, keys[0])
			}
		}

		start := time.Now()
		resp, err := handler(ctx, req)
		slog.InfoContext(ctx, "grpc call",
			"method", info.FullMethod,
			"request_id", RequestID(ctx),
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}
