// handlers — REST-обработчики комментариев.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pribylovaa/go-discussions/internal/models"
	"github.com/pribylovaa/go-discussions/internal/service"
)

// CommentService — операции сервисного слоя, нужные обработчикам.
type CommentService interface {
	CreateComment(ctx context.Context, in service.CreateCommentInput) (*models.Comment, error)
	UpdateComment(ctx context.Context, in service.UpdateCommentInput) (*models.Comment, error)
	RemoveComment(ctx context.Context, id string, actor models.User) error
	CommentByID(ctx context.Context, id string) (*models.Comment, error)
	ListComments(ctx context.Context, entityID string, requester *models.User) ([]*models.Comment, error)
	Vote(ctx context.Context, commentID string, user models.User, value models.VoteValue) error
}

// Handlers агрегирует зависимости обработчиков.
type Handlers struct {
	svc CommentService
}

func New(svc CommentService) *Handlers {
	return &Handlers{svc: svc}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
