// memory — потокобезопасная реализация контрактов storage в памяти процесса.
// Повторяет семантику MongoDB-хранилища; используется в тестах сервиса и рассылки.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-discussions/internal/config"
	"github.com/pribylovaa/go-discussions/internal/models"
	"github.com/pribylovaa/go-discussions/internal/storage"
)

type subKey struct {
	typ    models.EntityType
	entity string
	user   uuid.UUID
}

type voteKey struct {
	comment string
	user    uuid.UUID
}

// Store — хранилище в памяти.
type Store struct {
	mu sync.RWMutex

	order    string
	seq      int
	comments map[string]*models.Comment
	ids      []string // порядок вставки

	entities map[models.EntityType]map[string]models.EntityDescriptor
	counters map[string]int
	users    map[uuid.UUID]models.User
	subs     []models.Subscription
	subSet   map[subKey]struct{}
	votes    map[voteKey]models.VoteValue
}

// New создаёт пустое хранилище. order — config.OrderAsc или config.OrderDesc.
func New(order string) *Store {
	return &Store{
		order:    order,
		comments: make(map[string]*models.Comment),
		entities: make(map[models.EntityType]map[string]models.EntityDescriptor),
		counters: make(map[string]int),
		users:    make(map[uuid.UUID]models.User),
		subSet:   make(map[subKey]struct{}),
		votes:    make(map[voteKey]models.VoteValue),
	}
}

// AddEntity регистрирует сущность; у форумных веток заводится счётчик комментариев.
func (s *Store) AddEntity(e models.EntityDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entities[e.Type] == nil {
		s.entities[e.Type] = make(map[string]models.EntityDescriptor)
	}
	s.entities[e.Type][e.ID] = e

	if _, ok := s.counters[e.ID]; !ok && e.Type == models.EntityForumThread {
		s.counters[e.ID] = 0
	}
}

// AddUser регистрирует пользователя в справочнике.
func (s *Store) AddUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// CommentCount возвращает счётчик комментариев форумной ветки.
func (s *Store) CommentCount(entityID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[entityID]
}

// Subscriptions возвращает копию всех подписок.
func (s *Store) Subscriptions() []models.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Subscription(nil), s.subs...)
}

// Len — число сохранённых комментариев.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.comments)
}

func clone(c *models.Comment) *models.Comment {
	out := *c
	out.Replies = nil
	out.UserVote = nil
	out.Mentions = append([]models.User(nil), c.Mentions...)
	if c.Highlight != nil {
		h := *c.Highlight
		out.Highlight = &h
	}
	return &out
}

func (s *Store) Get(_ context.Context, id string) (*models.Comment, error) {
	const op = "storage/memory/Get"

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return clone(c), nil
}

func (s *Store) TopLevelForEntity(_ context.Context, entityID string) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Comment
	for _, id := range s.ids {
		c := s.comments[id]
		if c.EntityID == entityID && c.IsTopLevel() {
			out = append(out, clone(c))
		}
	}

	if s.order == config.OrderDesc {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}

	return out, nil
}

func (s *Store) FillNested(_ context.Context, roots ...*models.Comment) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	children := make(map[string][]string)
	for _, id := range s.ids {
		c := s.comments[id]
		if !c.IsTopLevel() {
			children[c.ParentID] = append(children[c.ParentID], id)
		}
	}

	seen := make(map[string]struct{})
	queue := make([]*models.Comment, 0, len(roots))
	for _, r := range roots {
		if r == nil {
			continue
		}
		r.Replies = nil
		seen[r.ID] = struct{}{}
		queue = append(queue, r)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, id := range children[cur.ID] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}

			ch := clone(s.comments[id])
			cur.Replies = append(cur.Replies, ch)
			queue = append(queue, ch)
		}
	}

	return nil
}

func (s *Store) Save(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	const op = "storage/memory/Save"

	if c == nil || strings.TrimSpace(c.EntityID) == "" || c.AuthorID == uuid.Nil || !c.HasBody() {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidComment)
	}

	if strings.TrimSpace(c.ID) != "" {
		return s.Edit(ctx, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := clone(c)
	now := time.Now().UTC()
	s.seq++
	out.ID = fmt.Sprintf("%024x", s.seq)
	out.CreatedAt = now
	out.UpdatedAt = now
	s.ids = append(s.ids, out.ID)

	s.comments[out.ID] = out
	return clone(out), nil
}

// Edit переносит в хранимую запись только редактируемые поля.
func (s *Store) Edit(_ context.Context, c *models.Comment) (*models.Comment, error) {
	const op = "storage/memory/Edit"

	if c == nil || !c.HasBody() {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidComment)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.live(strings.TrimSpace(c.ID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	src := clone(c)
	cur.Content = src.Content
	cur.Highlight = src.Highlight
	cur.Mentions = src.Mentions
	if src.DateLastEdited != nil {
		cur.DateLastEdited = src.DateLastEdited
	}
	cur.UpdatedAt = time.Now().UTC()

	return clone(cur), nil
}

func (s *Store) MarkDeleted(_ context.Context, id string, at time.Time) (*models.Comment, error) {
	const op = "storage/memory/MarkDeleted"

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.live(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	at = at.UTC()
	cur.Deleted = true
	cur.DateDeleted = &at
	cur.UpdatedAt = time.Now().UTC()

	return clone(cur), nil
}

// live возвращает хранимую запись, если она есть и не удалена. Вызывается под s.mu.
func (s *Store) live(id string) (*models.Comment, error) {
	cur, ok := s.comments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if cur.Deleted {
		return nil, storage.ErrCommentDeleted
	}
	return cur, nil
}

func (s *Store) IncreaseCommentCount(_ context.Context, entityID string, delta int) error {
	const op = "storage/memory/IncreaseCommentCount"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.counters[entityID]; !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	s.counters[entityID] += delta

	return nil
}

func (s *Store) User(_ context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage/memory/User"

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return &u, nil
}

func (s *Store) Entity(_ context.Context, id string, typ models.EntityType) (*models.EntityDescriptor, error) {
	const op = "storage/memory/Entity"

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[typ][id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return &e, nil
}

func (s *Store) Subscribe(_ context.Context, sub models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := subKey{typ: sub.EntityType, entity: sub.EntityID, user: sub.UserID}
	if _, ok := s.subSet[k]; ok {
		return nil
	}

	s.subSet[k] = struct{}{}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *Store) Subscribers(_ context.Context, typ models.EntityType, entityID string) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []uuid.UUID
	for _, sub := range s.subs {
		if sub.EntityType == typ && sub.EntityID == entityID {
			out = append(out, sub.UserID)
		}
	}

	return out, nil
}

func (s *Store) SetVote(_ context.Context, commentID string, userID uuid.UUID, v models.VoteValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := voteKey{comment: commentID, user: userID}
	if v == models.VoteNone {
		delete(s.votes, k)
		return nil
	}

	s.votes[k] = v
	return nil
}

func (s *Store) VotesByUser(_ context.Context, userID uuid.UUID, commentIDs []string) (map[string]models.VoteValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.VoteValue)
	for _, id := range commentIDs {
		if v, ok := s.votes[voteKey{comment: id, user: userID}]; ok {
			out[id] = v
		}
	}

	return out, nil
}

// Проверка выполнения контрактов.
var (
	_ storage.CommentStore      = (*Store)(nil)
	_ storage.UserDirectory     = (*Store)(nil)
	_ storage.EntityDirectory   = (*Store)(nil)
	_ storage.SubscriptionStore = (*Store)(nil)
	_ storage.VoteStore         = (*Store)(nil)
)
