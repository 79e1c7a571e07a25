package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-discussions/internal/auth"
	"github.com/pribylovaa/go-discussions/internal/models"
	"github.com/pribylovaa/go-discussions/internal/service"
	"github.com/pribylovaa/go-discussions/internal/transport/http/apierrors"
	logctx "github.com/pribylovaa/go-discussions/pkg/log"
)

// TokenVerifier проверяет access-токен.
type TokenVerifier interface {
	Verify(token string) (auth.Principal, error)
}

// UserLookup находит пользователя по id из токена.
type UserLookup interface {
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type userKey struct{}

// WithUser кладёт действующего пользователя в контекст.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom достаёт действующего пользователя; nil — анонимный запрос.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey{}).(*models.User)
	return u
}

// bearer извлекает токен из Authorization: Bearer <token>.
func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) || len(h) <= len(prefix) {
		return "", false
	}

	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}

// AuthBearer определяет действующего пользователя по Bearer-токену.
// Без заголовка запрос проходит анонимно; невалидный токен или неизвестный
// пользователь — 401.
func AuthBearer(v TokenVerifier, users UserLookup) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			lg := logctx.From(r.Context())

			p, err := v.Verify(token)
			if err != nil {
				lg.Warn("auth_token_rejected", slog.String("err", err.Error()))
				apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
				return
			}

			u, err := users.UserByID(r.Context(), p.UserID)
			if err != nil {
				if errors.Is(err, service.ErrNotFound) {
					lg.Warn("auth_user_unknown", slog.String("user_id", p.UserID.String()))
					apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
					return
				}
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := logctx.Into(r.Context(), lg.With(slog.String("user_id", u.ID.String())))
			next.ServeHTTP(w, r.WithContext(WithUser(ctx, u)))
		})
	}
}

// RequireUser отвечает 401, если AuthBearer не определил пользователя.
func RequireUser() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFrom(r.Context()) == nil {
				apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
