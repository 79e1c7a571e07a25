// Package models содержит доменные сущности discussions-сервиса.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// VoteValue — голос пользователя за комментарий: -1, 0 (снят) или +1.
type VoteValue int8

const (
	VoteDown VoteValue = -1
	VoteNone VoteValue = 0
	VoteUp   VoteValue = 1
)

// Valid сообщает, что значение голоса допустимо.
func (v VoteValue) Valid() bool {
	return v >= VoteDown && v <= VoteUp
}

// Highlight — цитата из текста сущности, к которой привязан комментарий.
type Highlight struct {
	Text  string
	Start int
	End   int
}

// Comment — внутренняя доменная модель комментария (MongoDB).
// Важно:
//   - ID — ObjectID MongoDB. Наружу/вовнутрь конвертируется в string.
//   - AuthorID — UUID пользователя из users-service; неизменяем после создания.
//   - EntityID/EntityType — сущность, к которой относится ветка; неизменяемы.
//   - ParentID — ID родителя; пустая строка — корневой комментарий.
//   - Mentions — упомянутые пользователи текущей редакции текста.
//   - Deleted — мягкое удаление; при отдаче наружу content маскируется.
//   - Replies и UserVote — проекции чтения, в хранилище не пишутся.
type Comment struct {
	ID             string
	Content        string
	Highlight      *Highlight
	AuthorID       uuid.UUID
	EntityID       string
	EntityType     EntityType
	ParentID       string
	Mentions       []User
	Deleted        bool
	DateDeleted    *time.Time
	DateLastEdited *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Replies  []*Comment
	UserVote *VoteValue
}

// IsTopLevel сообщает, что комментарий корневой.
func (c *Comment) IsTopLevel() bool {
	return strings.TrimSpace(c.ParentID) == ""
}

// HasBody сообщает, что у комментария есть текст или цитата.
func (c *Comment) HasBody() bool {
	return strings.TrimSpace(c.Content) != "" || c.Highlight != nil
}

// MentionIDs возвращает идентификаторы упомянутых пользователей в исходном порядке.
func (c *Comment) MentionIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(c.Mentions))
	for _, u := range c.Mentions {
		out = append(out, u.ID)
	}

	return out
}
