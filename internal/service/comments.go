package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-discussions/internal/mentions"
	"github.com/pribylovaa/go-discussions/internal/models"
	"github.com/pribylovaa/go-discussions/internal/notify"
	"github.com/pribylovaa/go-discussions/internal/storage"
	"github.com/pribylovaa/go-discussions/pkg/log"
)

// CreateCommentInput — создание корневого комментария или ответа.
// Правила:
//   - обязательны EntityID, EntityType и Author.ID;
//   - нужен Content или Highlight (хотя бы одно);
//   - ParentID, если задан, должен ссылаться на комментарий той же сущности.
type CreateCommentInput struct {
	EntityID   string
	EntityType models.EntityType
	Author     models.User
	Content    string
	Highlight  *models.Highlight
	ParentID   string
	MentionIDs []string
}

// UpdateCommentInput — редактирование комментария автором.
//   - Content == nil — текст не меняется;
//   - Highlight == nil — цитата не меняется;
//   - MentionIDs == nil — упоминания очищаются (как явная отправка пустого списка).
type UpdateCommentInput struct {
	CommentID  string
	Actor      models.User
	Content    *string
	Highlight  *models.Highlight
	MentionIDs []string
}

// CreateComment — бизнес-операция создания комментария.
//
// Поведение/ошибки:
//   - ErrValidation — нет текста и цитаты, пустые EntityID/EntityType/автор,
//     родитель из другой сущности;
//   - ErrNotFound — указан ParentID, но родителя нет;
//   - ErrInternal — прочие ошибки стораджа.
//
// Рассылка (подписка автора, подписчики, упомянутые, счётчик, почта) ставится
// в очередь и не задерживает ответ.
func (s *Service) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	const op = "service/comments/CreateComment"

	in.EntityID = strings.TrimSpace(in.EntityID)
	in.ParentID = strings.TrimSpace(in.ParentID)
	in.EntityType = models.ParseEntityType(string(in.EntityType))

	lg := log.From(ctx).With(
		"op", op,
		"entity_id", in.EntityID,
		"entity_type", string(in.EntityType),
		"parent_id", in.ParentID,
		"author_id", in.Author.ID.String(),
	)

	if in.EntityID == "" || in.EntityType == "" || in.Author.ID == uuid.Nil {
		lg.Warn("invalid argument: empty entity or author")
		return nil, fmt.Errorf("%s: %w", op, ErrValidation)
	}

	comment := &models.Comment{
		Content:    strings.TrimSpace(in.Content),
		Highlight:  in.Highlight,
		AuthorID:   in.Author.ID,
		EntityID:   in.EntityID,
		EntityType: in.EntityType,
		ParentID:   in.ParentID,
	}
	if !comment.HasBody() {
		lg.Warn("invalid argument: content is required when not a highlight")
		return nil, fmt.Errorf("%s: %w", op, ErrValidation)
	}

	if in.ParentID != "" {
		parent, err := s.comments.Get(ctx, in.ParentID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				lg.Warn("parent not found")
				return nil, fmt.Errorf("%s: parent: %w", op, ErrNotFound)
			}
			lg.Error("storage error on parent lookup", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}

		if parent.EntityID != in.EntityID || parent.EntityType != in.EntityType {
			lg.Warn("parent belongs to another entity", "parent_entity_id", parent.EntityID)
			return nil, fmt.Errorf("%s: %w", op, ErrValidation)
		}
	}

	res := s.mentions.Resolve(ctx, in.MentionIDs)
	comment.Mentions = res.Resolved

	now := s.now()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	saved, err := s.comments.Save(ctx, comment)
	if err != nil {
		return nil, s.mapSaveErr(lg, op, err)
	}

	s.dispatch(ctx, notify.CommentCreated{
		EventID:   uuid.NewString(),
		Comment:   saved,
		Actor:     in.Author,
		Mentioned: res.Resolved,
	})

	return saved, nil
}

// UpdateComment — редактирование комментария автором.
//
// Новые упомянутые (которых не было в прошлой редакции) получают уведомление;
// уже упомянутые повторно не уведомляются.
//
// Поведение/ошибки:
//   - ErrNotFound — комментария нет;
//   - ErrUnauthorized — действующий пользователь не автор;
//   - ErrValidation — комментарий удалён или после правки нет ни текста, ни цитаты;
//   - ErrInternal — прочие ошибки стораджа.
func (s *Service) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	const op = "service/comments/UpdateComment"

	lg := log.From(ctx).With("op", op, "id", strings.TrimSpace(in.CommentID), "actor_id", in.Actor.ID.String())

	comment, err := s.ownComment(ctx, op, lg, in.CommentID, in.Actor)
	if err != nil {
		return nil, err
	}

	if comment.Deleted {
		lg.Warn("comment is deleted")
		return nil, fmt.Errorf("%s: %w", op, ErrValidation)
	}

	if in.Content != nil {
		comment.Content = strings.TrimSpace(*in.Content)
	}
	if in.Highlight != nil {
		comment.Highlight = in.Highlight
	}
	if !comment.HasBody() {
		lg.Warn("invalid argument: content is required when not a highlight")
		return nil, fmt.Errorf("%s: %w", op, ErrValidation)
	}

	var newMentions []models.User
	if in.MentionIDs != nil {
		// Дельта считается только после полного разрешения нового набора.
		res := s.mentions.Resolve(ctx, in.MentionIDs)
		newMentions = mentions.DiffNew(comment.Mentions, res.Resolved)
		comment.Mentions = res.Resolved
	} else {
		comment.Mentions = nil
	}

	now := s.now()
	comment.DateLastEdited = &now
	comment.UpdatedAt = now

	// Edit пишет только редактируемые поля и не применяется к удалённому:
	// удаление, успевшее между чтением и записью, остаётся в силе.
	saved, err := s.comments.Edit(ctx, comment)
	if err != nil {
		return nil, s.mapSaveErr(lg, op, err)
	}

	s.dispatch(ctx, notify.CommentUpdated{
		EventID:     uuid.NewString(),
		Comment:     saved,
		Actor:       in.Actor,
		NewMentions: newMentions,
	})

	return saved, nil
}

// RemoveComment — мягкое удаление комментария автором.
// Повторное удаление уже удалённого комментария — успех без побочных эффектов.
//
// Поведение/ошибки:
//   - ErrNotFound — комментария нет;
//   - ErrUnauthorized — действующий пользователь не автор;
//   - ErrInternal — прочие ошибки стораджа.
func (s *Service) RemoveComment(ctx context.Context, id string, actor models.User) error {
	const op = "service/comments/RemoveComment"

	lg := log.From(ctx).With("op", op, "id", strings.TrimSpace(id), "actor_id", actor.ID.String())

	comment, err := s.ownComment(ctx, op, lg, id, actor)
	if err != nil {
		return err
	}

	if comment.Deleted {
		lg.Debug("comment already deleted")
		return nil
	}

	saved, err := s.comments.MarkDeleted(ctx, comment.ID, s.now())
	if err != nil {
		if errors.Is(err, storage.ErrCommentDeleted) {
			// Конкурентное удаление успело раньше; счётчик уже уменьшен им.
			lg.Debug("comment already deleted")
			return nil
		}
		return s.mapSaveErr(lg, op, err)
	}

	s.dispatch(ctx, notify.CommentRemoved{
		EventID: uuid.NewString(),
		Comment: saved,
		Actor:   actor,
	})

	return nil
}

// CommentByID — получить комментарий по ID (без дерева ответов).
// Текст удалённого комментария маскируется так же, как в ListComments.
func (s *Service) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	const op = "service/comments/CommentByID"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id)

	c, err := s.load(ctx, op, lg, id)
	if err != nil {
		return nil, err
	}

	s.redact(c)
	return c, nil
}

// ListComments — дерево комментариев сущности.
//
// Корни выдаются в порядке tree.order, ответы — от старых к новым на любой глубине.
// Текст удалённых комментариев заменяется заглушкой, структура дерева сохраняется.
// Если requester задан, каждый комментарий помечается его голосом (одним запросом
// к хранилищу голосов); сбой этого запроса логируется, дерево отдаётся без пометок.
func (s *Service) ListComments(ctx context.Context, entityID string, requester *models.User) ([]*models.Comment, error) {
	const op = "service/comments/ListComments"

	entityID = strings.TrimSpace(entityID)
	lg := log.From(ctx).With("op", op, "entity_id", entityID)

	if entityID == "" {
		lg.Warn("invalid argument: empty entity_id")
		return nil, fmt.Errorf("%s: %w", op, ErrValidation)
	}

	roots, err := s.comments.TopLevelForEntity(ctx, entityID)
	if err != nil {
		lg.Error("storage error on TopLevelForEntity", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if err := s.comments.FillNested(ctx, roots...); err != nil {
		lg.Error("storage error on FillNested", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	var all []*models.Comment
	storage.Walk(roots, func(c *models.Comment) {
		s.redact(c)
		all = append(all, c)
	})

	if requester != nil && requester.ID != uuid.Nil && len(all) > 0 {
		s.annotateVotes(ctx, lg, requester.ID, all)
	}

	return roots, nil
}

// Vote выставляет голос пользователя за комментарий; VoteNone снимает его.
//
// Поведение/ошибки:
//   - ErrValidation — недопустимое значение или комментарий удалён;
//   - ErrNotFound — комментария нет;
//   - ErrInternal — прочие ошибки стораджа.
func (s *Service) Vote(ctx context.Context, commentID string, user models.User, value models.VoteValue) error {
	const op = "service/comments/Vote"

	commentID = strings.TrimSpace(commentID)
	lg := log.From(ctx).With("op", op, "id", commentID, "user_id", user.ID.String())

	if user.ID == uuid.Nil || !value.Valid() {
		lg.Warn("invalid argument: vote", "value", int(value))
		return fmt.Errorf("%s: %w", op, ErrValidation)
	}

	c, err := s.load(ctx, op, lg, commentID)
	if err != nil {
		return err
	}

	if c.Deleted {
		lg.Warn("vote on deleted comment")
		return fmt.Errorf("%s: %w", op, ErrValidation)
	}

	if err := s.votes.SetVote(ctx, c.ID, user.ID, value); err != nil {
		lg.Error("storage error on SetVote", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return nil
}

// UserByID — пользователь из справочника (для определения действующего пользователя).
func (s *Service) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "service/comments/UserByID"

	lg := log.From(ctx).With("op", op, "user_id", id.String())

	u, err := s.users.User(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("user not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		lg.Error("user directory error", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return u, nil
}

// load достаёт комментарий и маппит ошибки стораджа.
func (s *Service) load(ctx context.Context, op string, lg *slog.Logger, id string) (*models.Comment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrValidation)
	}

	c, err := s.comments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("comment not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		lg.Error("storage error on Get", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return c, nil
}

// ownComment достаёт комментарий и проверяет, что actor — его автор.
func (s *Service) ownComment(ctx context.Context, op string, lg *slog.Logger, id string, actor models.User) (*models.Comment, error) {
	c, err := s.load(ctx, op, lg, id)
	if err != nil {
		return nil, err
	}

	if actor.ID == uuid.Nil || c.AuthorID != actor.ID {
		lg.Warn("actor is not the author", "author_id", c.AuthorID.String())
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	return c, nil
}

func (s *Service) mapSaveErr(lg *slog.Logger, op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrInvalidComment):
		lg.Warn("invalid comment")
		return fmt.Errorf("%s: %w", op, ErrValidation)
	case errors.Is(err, storage.ErrCommentDeleted):
		lg.Warn("comment is deleted")
		return fmt.Errorf("%s: %w", op, ErrValidation)
	case errors.Is(err, storage.ErrNotFound):
		lg.Warn("comment not found on save")
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	default:
		lg.Error("storage error on write", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}
}

// redact маскирует текст удалённого комментария.
func (s *Service) redact(c *models.Comment) {
	if c.Deleted {
		c.Content = s.cfg.DeletedPlaceholder
	}
}

func (s *Service) annotateVotes(ctx context.Context, lg *slog.Logger, userID uuid.UUID, all []*models.Comment) {
	ids := make([]string, 0, len(all))
	for _, c := range all {
		ids = append(ids, c.ID)
	}

	votes, err := s.votes.VotesByUser(ctx, userID, ids)
	if err != nil {
		lg.Warn("votes lookup failed", "err", err)
		return
	}

	for _, c := range all {
		v := votes[c.ID]
		c.UserVote = &v
	}
}

// dispatch ставит задачу рассылки в очередь; отказ очереди не влияет на результат операции.
func (s *Service) dispatch(ctx context.Context, job notify.Job) {
	if s.fanout == nil {
		return
	}

	if !s.fanout.Enqueue(ctx, job) {
		log.From(ctx).Warn("fanout_enqueue_rejected", "kind", job.Kind())
	}
}
