// middleware — цепочка net/http обработчиков перед роутером discussions API:
// request id, access-лог, перехват паник, дедлайн и аутентификация.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Middleware — обёртка над http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain оборачивает h так, что mws[0] оказывается внешним слоем.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := range mws {
		h = mws[len(mws)-1-i](h)
	}
	return h
}

// ErrRequestDeadline — причина отмены контекста по истечении Deadline.
var ErrRequestDeadline = errors.New("request deadline exceeded")

// Deadline ограничивает время обработки запроса. Уже выставленный дедлайн
// (например, от клиента через прокси) не сдвигается; d <= 0 отключает ограничение.
func Deadline(d time.Duration) Middleware {
	if d <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if _, has := ctx.Deadline(); !has {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeoutCause(ctx, d, ErrRequestDeadline)
				defer cancel()
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// recorder запоминает статус и объём тела ответа для access-лога.
type recorder struct {
	http.ResponseWriter
	code    int
	written int
}

func (rec *recorder) WriteHeader(code int) {
	if rec.code == 0 {
		rec.code = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(p []byte) (int, error) {
	if rec.code == 0 {
		rec.code = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(p)
	rec.written += n
	return n, err
}

// Unwrap открывает исходный writer для http.ResponseController.
func (rec *recorder) Unwrap() http.ResponseWriter { return rec.ResponseWriter }

// status — итоговый код; обработчик, не записавший ничего, отдал 200.
func (rec *recorder) status() int {
	if rec.code == 0 {
		return http.StatusOK
	}
	return rec.code
}
