// http собирает публичный REST API discussions-service.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-discussions/internal/transport/http/handlers"
	"github.com/pribylovaa/go-discussions/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
	Verifier middleware.TokenVerifier
	Users    middleware.UserLookup
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc handlers.CommentService, opts Options) http.Handler {
	root := chi.NewRouter()

	// RequestID снаружи, чтобы id попал и в лог, и в ответ с 500 после паники.
	// Recover внутри Logging: запрос с паникой логируется со статусом 500.
	root.Use(
		middleware.RequestID(),
		middleware.Logging(opts.Logger),
		middleware.Recover(),
		middleware.Deadline(opts.Timeout),
	)
	root.Use(middleware.AuthBearer(opts.Verifier, opts.Users))

	h := handlers.New(svc)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// чтение: пользователь опционален (нужен для пометки голосов).
	r.Get("/entities/{entity_id}/comments", h.ListComments)
	r.Get("/comments/{id}", h.GetComment)

	// запись: только с валидным токеном.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser())

		r.Post("/entities/{entity_id}/comments", h.CreateComment)
		r.Put("/comments/{id}", h.UpdateComment)
		r.Delete("/comments/{id}", h.RemoveComment)
		r.Post("/comments/{id}/vote", h.Vote)
	})
}
