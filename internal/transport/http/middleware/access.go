package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pribylovaa/go-discussions/internal/service"
	"github.com/pribylovaa/go-discussions/internal/transport/http/apierrors"
	logctx "github.com/pribylovaa/go-discussions/pkg/log"
)

// Logging привязывает к запросу логгер с request_id и по завершении пишет
// запись "http_request". Уровень зависит от статуса: 5xx — Error, 4xx — Warn.
// Ставится после RequestID.
func Logging(base *slog.Logger) Middleware {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()

			lg := base
			if rid := RequestIDFrom(r.Context()); rid != "" {
				lg = lg.With(slog.String("request_id", rid))
			}
			r = r.WithContext(logctx.Into(r.Context(), lg))

			rec := &recorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.status()
			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			lg.LogAttrs(r.Context(), level, "http_request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", routePattern(r)),
				slog.Int("status", status),
				slog.Int("bytes", rec.written),
				slog.Duration("took", time.Since(started)),
			)
		})
	}
}

// routePattern — шаблон маршрута chi ("/entities/{entity_id}/comments"),
// по нему удобно группировать записи. Вне роутера пусто.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}

// Recover превращает панику обработчика в 500 с кодом internal.
// Стек уходит только в лог.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelError, "http_panic_recovered",
					slog.Any("panic", v),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)
				apierrors.WriteError(w, r, service.ErrInternal)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
