// service содержит бизнес-логику дерева комментариев.
package service

import (
	"errors"
	"time"

	"github.com/pribylovaa/go-discussions/internal/config"
	"github.com/pribylovaa/go-discussions/internal/mentions"
	"github.com/pribylovaa/go-discussions/internal/notify"
	"github.com/pribylovaa/go-discussions/internal/storage"
)

var (
	// ErrValidation — нет обязательных полей или операция недопустима в текущем состоянии.
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized — действующий пользователь не автор комментария.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound — комментарий, родитель или пользователь отсутствуют.
	ErrNotFound = errors.New("not found")
	// ErrInternal — внутренняя ошибка (хранилище/контекст/и т.д.).
	ErrInternal = errors.New("internal")
)

// Deps — зависимости Service.
type Deps struct {
	Comments storage.CommentStore
	Users    storage.UserDirectory
	Votes    storage.VoteStore
	Mentions *mentions.Resolver
	Fanout   notify.Dispatcher
}

// Service — создание, редактирование, удаление и выдача комментариев.
type Service struct {
	comments storage.CommentStore
	users    storage.UserDirectory
	votes    storage.VoteStore
	mentions *mentions.Resolver
	fanout   notify.Dispatcher
	cfg      config.TreeConfig
	now      func() time.Time
}

// New создает новый экземпляр Service.
func New(cfg config.TreeConfig, d Deps) *Service {
	res := d.Mentions
	if res == nil {
		res = mentions.New(d.Users, 0)
	}

	return &Service{
		comments: d.Comments,
		users:    d.Users,
		votes:    d.Votes,
		mentions: res,
		fanout:   d.Fanout,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}
