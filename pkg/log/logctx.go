// log переносит request-scoped *slog.Logger через context.Context.
//
// Логгер кладут транспортные мидлвары (HTTP Logging, gRPC UnaryLoggingInterceptor),
// а достают сервисный слой и фоновые задачи fan-out.
package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into кладёт логгер в контекст.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From достаёт логгер из контекста (или возвращает slog.Default()).
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}

// Detach возвращает контекст, который сохраняет логгер ctx (и прочие значения),
// но не наследует его отмену и дедлайн.
//
// Используется при передаче работы в фон: отмена HTTP-запроса клиентом
// не должна отзывать уже поставленные уведомления.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
