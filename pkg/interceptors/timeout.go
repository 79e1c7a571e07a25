// interceptors — серверные unary-интерсепторы gRPC-листенера discussions-service
// (health/reflection): дедлайн, логирование с request-scoped логгером, перехват паник.
package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

// WithTimeout навешивает дедлайн d (timeouts.service) на контекст вызова,
// если клиент не прислал свой. При d <= 0 интерсептор прозрачен.
func WithTimeout(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok || d <= 0 {
			return handler(ctx, req)
		}

		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		return handler(ctx, req)
	}
}
