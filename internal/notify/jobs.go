package notify

import (
	"context"

	"github.com/pribylovaa/go-discussions/internal/models"
)

// Job — фоновая задача рассылки. Реализации: CommentCreated, CommentUpdated, CommentRemoved.
type Job interface {
	// Kind — короткое имя задачи для логов и метрик.
	Kind() string
}

// CommentCreated — комментарий создан: подписать автора, оповестить подписчиков
// и упомянутых, увеличить счётчик сущности, уведомить почтой.
type CommentCreated struct {
	EventID   string
	Comment   *models.Comment
	Actor     models.User
	Mentioned []models.User
}

// CommentUpdated — комментарий отредактирован: оповестить только новых упомянутых.
type CommentUpdated struct {
	EventID     string
	Comment     *models.Comment
	Actor       models.User
	NewMentions []models.User
}

// CommentRemoved — комментарий удалён: уменьшить счётчик сущности.
type CommentRemoved struct {
	EventID string
	Comment *models.Comment
	Actor   models.User
}

func (CommentCreated) Kind() string { return "comment_created" }
func (CommentUpdated) Kind() string { return "comment_updated" }
func (CommentRemoved) Kind() string { return "comment_removed" }

// Dispatcher принимает задачи к фоновому исполнению, не блокируя вызывающего.
// false — задача не принята (очередь переполнена или закрыта).
type Dispatcher interface {
	Enqueue(ctx context.Context, job Job) bool
}
