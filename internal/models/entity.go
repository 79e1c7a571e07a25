package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityType — вид сущности, к которой привязана ветка комментариев.
type EntityType string

const (
	EntityForumThread EntityType = "forumthread"
	EntityTopic       EntityType = "topic"
)

// ParseEntityType нормализует строковое представление вида сущности.
// Неизвестные значения допустимы: для них рассылка уведомлений не выполняется.
func ParseEntityType(s string) EntityType {
	return EntityType(strings.ToLower(strings.TrimSpace(s)))
}

// EntityDescriptor — минимум полей сущности, нужный для сборки уведомления.
// ThreadID заполнен только у сущностей, вложенных в форумную ветку.
type EntityDescriptor struct {
	ID       string
	Type     EntityType
	Title    string
	Slug     string
	ThreadID string
}

// Subscription — подписка пользователя на сущность.
// На пару (пользователь, сущность) существует не более одной записи.
type Subscription struct {
	EntityType EntityType
	EntityID   string
	UserID     uuid.UUID
	CreatedAt  time.Time
}
