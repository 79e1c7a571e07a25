package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-discussions/internal/models"
)

var (
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrInvalidComment — у комментария не заполнены обязательные поля.
	ErrInvalidComment = errors.New("invalid comment")
	// ErrCommentDeleted — комментарий уже помечен удалённым; правка и повторное удаление не применяются.
	ErrCommentDeleted = errors.New("comment deleted")
)

// CommentStore описывает операции над комментариями.
type CommentStore interface {
	// Get возвращает комментарий по его строковому идентификатору.
	// Если запись не найдена (или id некорректен) — ErrNotFound.
	Get(ctx context.Context, id string) (*models.Comment, error)

	// TopLevelForEntity возвращает корневые комментарии сущности (ParentID == "").
	// Сортировка по created_at согласно настройке tree.order (по умолчанию — сначала старые).
	TopLevelForEntity(ctx context.Context, entityID string) ([]*models.Comment, error)

	// FillNested заполняет Replies у каждого из roots на всю глубину.
	// Обход итеративный: глубина ветки не ограничена стеком вызовов.
	FillNested(ctx context.Context, roots ...*models.Comment) error

	// Save вставляет новый комментарий (пустой ID); для существующего работает как Edit.
	// Replies и UserVote не сохраняются.
	// Возможные ошибки: ErrInvalidComment, ErrNotFound, ErrCommentDeleted.
	Save(ctx context.Context, c *models.Comment) (*models.Comment, error)

	// Edit записывает только редактируемые поля (content, highlight, mentions,
	// date_last_edited) и только если комментарий не удалён. Флаги удаления,
	// автор и привязка к дереву не перезаписываются.
	// Возвращает состояние после записи.
	// Ошибки: ErrInvalidComment, ErrNotFound, ErrCommentDeleted.
	Edit(ctx context.Context, c *models.Comment) (*models.Comment, error)

	// MarkDeleted атомарно переводит комментарий в удалённые (deleted, date_deleted).
	// Уже удалённый — ErrCommentDeleted, поэтому из двух конкурентных удалений
	// успешно ровно одно.
	MarkDeleted(ctx context.Context, id string, at time.Time) (*models.Comment, error)

	// IncreaseCommentCount изменяет счётчик комментариев форумной ветки на delta.
	// Счётчик best-effort: потерянные обновления при гонках допустимы.
	IncreaseCommentCount(ctx context.Context, entityID string, delta int) error
}

// UserDirectory — справочник пользователей (только чтение).
type UserDirectory interface {
	// User возвращает пользователя по идентификатору. Если нет — ErrNotFound.
	User(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// EntityDirectory — справочник сущностей (форумные ветки, страницы тем).
type EntityDirectory interface {
	// Entity возвращает дескриптор сущности. Неизвестный вид или отсутствие записи — ErrNotFound.
	Entity(ctx context.Context, id string, typ models.EntityType) (*models.EntityDescriptor, error)
}

// SubscriptionStore хранит подписки пользователей на сущности.
type SubscriptionStore interface {
	// Subscribe идемпотентно создаёт подписку: повторный вызов не создаёт вторую запись.
	Subscribe(ctx context.Context, sub models.Subscription) error

	// Subscribers возвращает идентификаторы всех подписчиков сущности.
	Subscribers(ctx context.Context, typ models.EntityType, entityID string) ([]uuid.UUID, error)
}

// VoteStore хранит голоса пользователей за комментарии (один голос на пару).
type VoteStore interface {
	// SetVote выставляет голос; VoteNone снимает его.
	SetVote(ctx context.Context, commentID string, userID uuid.UUID, v models.VoteValue) error

	// VotesByUser возвращает голоса пользователя по набору комментариев одним запросом.
	// Комментарии без голоса в результат не попадают.
	VotesByUser(ctx context.Context, userID uuid.UUID, commentIDs []string) (map[string]models.VoteValue, error)
}

// Walk обходит деревья roots в прямом порядке без рекурсии и вызывает fn для каждого узла.
// Каждый узел посещается ровно один раз, даже если он по ошибке встречается в нескольких ветках.
func Walk(roots []*models.Comment, fn func(c *models.Comment)) {
	seen := make(map[*models.Comment]struct{})
	stack := make([]*models.Comment, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if c == nil {
			continue
		}

		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}

		fn(c)

		for i := len(c.Replies) - 1; i >= 0; i-- {
			stack = append(stack, c.Replies[i])
		}
	}
}
