package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/order-management/internal/pkg/interceptors/constants"
)

// WithRequestID stores the request id on ctx. HTTP middleware and the gRPC
// server interceptor both go through here.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, constants.ContextKeyRequestID, id)
}

func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, constants.ContextKeyIdempotencyKey, key)
}

func RequestID(ctx context.Context) string {
	return value(ctx, constants.ContextKeyRequestID, constants.HeaderXRequestId)
}

func IdempotencyKey(ctx context.Context) string {
	return value(ctx, constants.ContextKeyIdempotencyKey, constants.HeaderXIdempotencyKey)
}

func value(ctx context.Context, key any, header string) string {
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(header); len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

// ContextWithPropagatedID copies the request id and idempotency key into
// outgoing gRPC metadata.
func ContextWithPropagatedID(ctx context.Context) context.Context {
	var kv []string
	if id := RequestID(ctx); id != "" {
		kv = append(kv, constants.HeaderXRequestId, id)
	}
	if key := IdempotencyKey(ctx); key != "" {
		kv = append(kv, constants.HeaderXIdempotencyKey, key)
	}
	if len(kv) == 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}

// PropagateClientInterceptor applies ContextWithPropagatedID to every call.
func PropagateClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		return invoker(ContextWithPropagatedID(ctx), method, req, reply, cc, opts...)
	}
}
