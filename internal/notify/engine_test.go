package notify

// Тесты Engine:
//  - Subscribe: неизвестный вид, отсутствующая сущность, идемпотентность;
//  - NotifySubscribers: исключение автора и упомянутых, изоляция сбоев доставки;
//  - NotifyMentioned: подписка как побочный эффект, форма payload по видам сущностей;
//  - Handle: полный сценарий CommentCreated/Updated/Removed и no-op для неизвестного вида;
//  - дедупликация повторной обработки одной задачи (miniredis).

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/pribylovaa/go-discussions/internal/cache"
	"github.com/pribylovaa/go-discussions/internal/config"
	"github.com/pribylovaa/go-discussions/internal/models"
	"github.com/pribylovaa/go-discussions/internal/storage"
	"github.com/pribylovaa/go-discussions/internal/storage/memory"
	"github.com/pribylovaa/go-discussions/mocks"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// delivery — одна зафиксированная доставка.
type delivery struct {
	payload   models.Payload
	recipient uuid.UUID
}

// recDeliverer запоминает доставки и умеет «ронять» отдельных получателей.
type recDeliverer struct {
	mu   sync.Mutex
	got  []delivery
	fail map[uuid.UUID]bool
}

func (d *recDeliverer) Deliver(_ context.Context, p models.Payload, to uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail[to] {
		return errors.New("push gateway unavailable")
	}
	d.got = append(d.got, delivery{payload: p, recipient: to})
	return nil
}

func (d *recDeliverer) to(id uuid.UUID) []models.Payload {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.Payload
	for _, g := range d.got {
		if g.recipient == id {
			out = append(out, g.payload)
		}
	}
	return out
}

func (d *recDeliverer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.got)
}

var (
	thread = models.EntityDescriptor{ID: "post-1", Type: models.EntityForumThread, Title: "Go generics", Slug: "go-generics", ThreadID: "thread-9"}
	topic  = models.EntityDescriptor{ID: "topic-1", Type: models.EntityTopic, Title: "Databases", Slug: "databases"}
)

type fixture struct {
	store   *memory.Store
	deliver *recDeliverer
	metrics *Metrics
	engine  *Engine
}

func newFixture(t *testing.T, mail MailNotifier, guard cache.DeliveryGuard) *fixture {
	t.Helper()

	st := memory.New(config.OrderAsc)
	st.AddEntity(thread)
	st.AddEntity(topic)

	d := &recDeliverer{fail: map[uuid.UUID]bool{}}
	m := NewMetrics(nil)

	e := NewEngine(config.FanoutConfig{Parallel: 4}, Deps{
		Entities:      st,
		Subscriptions: st,
		Comments:      st,
		Deliverer:     d,
		Mail:          mail,
		Guard:         guard,
		Metrics:       m,
	})

	return &fixture{store: st, deliver: d, metrics: m, engine: e}
}

func newUser(name string) models.User {
	return models.User{ID: uuid.New(), Username: name, Name: name}
}

func TestSubscribe(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	u := uuid.New()

	ent, err := f.engine.Subscribe(ctx, models.EntityForumThread, thread.ID, u)
	require.NoError(t, err)
	require.Equal(t, thread, *ent)

	_, err = f.engine.Subscribe(ctx, models.EntityForumThread, thread.ID, u)
	require.NoError(t, err)
	require.Len(t, f.store.Subscriptions(), 1)

	_, err = f.engine.Subscribe(ctx, models.EntityForumThread, "missing", u)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = f.engine.Subscribe(ctx, models.EntityType("poll"), "p1", u)
	require.ErrorIs(t, err, ErrUnknownEntityType)
	require.Len(t, f.store.Subscriptions(), 1)
}

func TestNotifySubscribers_ExcludesAndIsolates(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	actor, s1, s2, broken, mentioned := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()
	for _, id := range []uuid.UUID{actor, s1, broken, s2, mentioned} {
		_, err := f.engine.Subscribe(ctx, models.EntityTopic, topic.ID, id)
		require.NoError(t, err)
	}
	f.deliver.fail[broken] = true

	p := models.Payload{EventID: "evt", Type: models.PayloadComment}
	n, err := f.engine.NotifySubscribers(ctx, models.EntityTopic, topic.ID, actor, p, true, mentioned)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.Len(t, f.deliver.to(s1), 1)
	require.Len(t, f.deliver.to(s2), 1)
	require.Empty(t, f.deliver.to(actor))
	require.Empty(t, f.deliver.to(mentioned))

	require.Equal(t, 2.0, testutil.ToFloat64(f.metrics.delivered.WithLabelValues("comment")))
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.failed.WithLabelValues("comment")))
}

func TestNotifySubscribers_IncludeActor(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	actor := uuid.New()
	_, err := f.engine.Subscribe(ctx, models.EntityTopic, topic.ID, actor)
	require.NoError(t, err)

	n, err := f.engine.NotifySubscribers(ctx, models.EntityTopic, topic.ID, actor, models.Payload{EventID: "e"}, false)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestNotifySubscribers_EnumerationError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	subs := mocks.NewMockSubscriptionStore(ctrl)
	d := mocks.NewMockDeliverer(ctrl)

	e := NewEngine(config.FanoutConfig{Parallel: 1}, Deps{Subscriptions: subs, Deliverer: d})

	subs.EXPECT().Subscribers(gomock.Any(), models.EntityTopic, "t").Return(nil, errors.New("mongo down"))

	_, err := e.NotifySubscribers(context.Background(), models.EntityTopic, "t", uuid.New(), models.Payload{}, true)
	require.Error(t, err)
}

func TestNotifyMentioned_PayloadPerKind(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	actor, bob := newUser("alice"), newUser("bob")

	require.NoError(t, f.engine.NotifyMentioned(ctx, models.EntityForumThread, thread.ID, "evt-1", bob, actor))
	require.NoError(t, f.engine.NotifyMentioned(ctx, models.EntityTopic, topic.ID, "evt-2", bob, actor))

	got := f.deliver.to(bob.ID)
	require.Len(t, got, 2)

	require.Equal(t, models.PayloadMention, got[0].Type)
	require.Equal(t, "You were mentioned by @alice", got[0].Notification.Title)
	require.Equal(t, "Go generics", got[0].Notification.Body)
	require.Equal(t, "/post/post-1/go-generics", got[0].Notification.Data["url"])
	require.Equal(t, "thread-9", got[0].Notification.Data["thread"])
	require.Equal(t, bob.ID.String(), got[0].Notification.Data["mentioned"])
	require.Equal(t, "alice", got[0].Notification.Data["user"])

	require.Equal(t, "/topic/databases", got[1].Notification.Data["url"])
	require.NotContains(t, got[1].Notification.Data, "thread")

	// Упомянутый подписан на обе сущности.
	ids, err := f.store.Subscribers(ctx, models.EntityForumThread, thread.ID)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{bob.ID}, ids)
	ids, err = f.store.Subscribers(ctx, models.EntityTopic, topic.ID)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{bob.ID}, ids)
}

func TestNotifyMentioned_UnknownKindIsNoop(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, nil)

	require.NoError(t, f.engine.NotifyMentioned(context.Background(), models.EntityType("poll"), "p", "evt", newUser("b"), newUser("a")))
	require.Zero(t, f.deliver.count())
	require.Empty(t, f.store.Subscriptions())
}

func TestHandle_CommentCreated(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mail := mocks.NewMockMailNotifier(ctrl)
	f := newFixture(t, mail, nil)
	ctx := context.Background()

	actor, old, bob := newUser("alice"), newUser("old"), newUser("bob")
	_, err := f.engine.Subscribe(ctx, models.EntityForumThread, thread.ID, old.ID)
	require.NoError(t, err)
	_, err = f.engine.Subscribe(ctx, models.EntityForumThread, thread.ID, bob.ID)
	require.NoError(t, err)

	c := &models.Comment{ID: "c1", Content: "hi @bob", AuthorID: actor.ID, EntityID: thread.ID, EntityType: models.EntityForumThread, Mentions: []models.User{bob}}
	mail.EXPECT().OnCommentCreated(gomock.Any(), thread.ID, models.EntityForumThread, actor, c).Return(nil)

	f.engine.Handle(ctx, CommentCreated{EventID: "e1", Comment: c, Actor: actor, Mentioned: []models.User{bob}})

	// Старый подписчик — уведомление о комментарии.
	oldGot := f.deliver.to(old.ID)
	require.Len(t, oldGot, 1)
	require.Equal(t, models.PayloadComment, oldGot[0].Type)
	require.Equal(t, "New comment from @alice", oldGot[0].Notification.Title)

	// Упомянутый — ровно одно уведомление, и это упоминание.
	bobGot := f.deliver.to(bob.ID)
	require.Len(t, bobGot, 1)
	require.Equal(t, models.PayloadMention, bobGot[0].Type)

	require.Empty(t, f.deliver.to(actor.ID))
	require.Equal(t, 1, f.store.CommentCount(thread.ID))

	subs, err := f.store.Subscribers(ctx, models.EntityForumThread, thread.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{old.ID, bob.ID, actor.ID}, subs)

	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.processed.WithLabelValues("comment_created")))
}

// Для страниц тем счётчик не ведётся; сбой почты не мешает остальному.
func TestHandle_CommentCreated_TopicAndMailFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mail := mocks.NewMockMailNotifier(ctrl)
	f := newFixture(t, mail, nil)

	actor, sub := newUser("alice"), newUser("sub")
	_, err := f.engine.Subscribe(context.Background(), models.EntityTopic, topic.ID, sub.ID)
	require.NoError(t, err)

	c := &models.Comment{ID: "c1", Content: "x", AuthorID: actor.ID, EntityID: topic.ID, EntityType: models.EntityTopic}
	mail.EXPECT().OnCommentCreated(gomock.Any(), topic.ID, models.EntityTopic, actor, c).Return(errors.New("smtp down"))

	f.engine.Handle(context.Background(), &CommentCreated{EventID: "e", Comment: c, Actor: actor})

	require.Len(t, f.deliver.to(sub.ID), 1)
	require.Zero(t, f.store.CommentCount(topic.ID))
}

// Самоупоминание не порождает уведомления автору.
func TestHandle_CommentCreated_SelfMention(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, nil)

	actor := newUser("alice")
	c := &models.Comment{ID: "c1", Content: "me", AuthorID: actor.ID, EntityID: topic.ID, EntityType: models.EntityTopic}
	f.engine.Handle(context.Background(), CommentCreated{EventID: "e", Comment: c, Actor: actor, Mentioned: []models.User{actor}})

	require.Zero(t, f.deliver.count())
}

// Повтор одного пользователя в списке упомянутых даёт одно уведомление.
func TestHandle_CommentCreated_RepeatedMention(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil, nil)

	actor, bob := newUser("alice"), newUser("bob")
	c := &models.Comment{ID: "c1", Content: "@bob @bob", AuthorID: actor.ID, EntityID: topic.ID, EntityType: models.EntityTopic, Mentions: []models.User{bob, bob}}
	f.engine.Handle(context.Background(), CommentCreated{EventID: "e", Comment: c, Actor: actor, Mentioned: []models.User{bob, bob, {}}})

	bobGot := f.deliver.to(bob.ID)
	require.Len(t, bobGot, 1)
	require.Equal(t, models.PayloadMention, bobGot[0].Type)
	require.Equal(t, 1, f.deliver.count())
}

func TestHandle_UnknownEntityTypeIsNoop(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	// Моки без ожиданий: любой вызов провалит тест.
	e := NewEngine(config.FanoutConfig{Parallel: 2}, Deps{
		Entities:      mocks.NewMockEntityDirectory(ctrl),
		Subscriptions: mocks.NewMockSubscriptionStore(ctrl),
		Comments:      mocks.NewMockCommentStore(ctrl),
		Deliverer:     mocks.NewMockDeliverer(ctrl),
		Mail:          mocks.NewMockMailNotifier(ctrl),
	})

	c := &models.Comment{ID: "c", EntityID: "p", EntityType: models.EntityType("poll")}
	bob := newUser("bob")

	e.Handle(context.Background(), CommentCreated{EventID: "e", Comment: c, Actor: newUser("a"), Mentioned: []models.User{bob}})
	e.Handle(context.Background(), CommentUpdated{EventID: "e", Comment: c, Actor: newUser("a"), NewMentions: []models.User{bob}})
	e.Handle(context.Background(), CommentRemoved{EventID: "e", Comment: c, Actor: newUser("a")})
	e.Handle(context.Background(), nil)
}

func TestHandle_CommentUpdated_OnlyDelta(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mail := mocks.NewMockMailNotifier(ctrl)
	f := newFixture(t, mail, nil)

	actor, carol := newUser("alice"), newUser("carol")
	c := &models.Comment{ID: "c1", Content: "x", AuthorID: actor.ID, EntityID: thread.ID, EntityType: models.EntityForumThread}
	mail.EXPECT().OnCommentUpdated(gomock.Any(), thread.ID, models.EntityForumThread, actor, c, []models.User{carol}).Return(nil)

	f.engine.Handle(context.Background(), CommentUpdated{EventID: "u1", Comment: c, Actor: actor, NewMentions: []models.User{carol}})

	require.Equal(t, 1, f.deliver.count())
	require.Len(t, f.deliver.to(carol.ID), 1)
	require.Zero(t, f.store.CommentCount(thread.ID), "редактирование не трогает счётчик")
}

func TestHandle_CommentRemoved(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	comments := mocks.NewMockCommentStore(ctrl)
	e := NewEngine(config.FanoutConfig{}, Deps{Comments: comments})

	comments.EXPECT().IncreaseCommentCount(gomock.Any(), "post-1", -1).Return(errors.New("lost"))

	e.Handle(context.Background(), CommentRemoved{EventID: "r", Comment: &models.Comment{ID: "c", EntityID: "post-1", EntityType: models.EntityForumThread}})
	e.Handle(context.Background(), CommentRemoved{EventID: "r", Comment: &models.Comment{ID: "c", EntityID: "topic-1", EntityType: models.EntityTopic}})
}

// Повторная обработка той же задачи не дублирует доставки.
func TestHandle_DedupeAcrossRetries(t *testing.T) {
	t.Parallel()

	s := miniredis.RunT(t)
	guard, err := cache.NewRedisGuard("redis://"+s.Addr(), "t:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = guard.Close() })

	f := newFixture(t, nil, guard)
	ctx := context.Background()

	actor, sub, bob := newUser("alice"), newUser("sub"), newUser("bob")
	_, err = f.engine.Subscribe(ctx, models.EntityTopic, topic.ID, sub.ID)
	require.NoError(t, err)

	flaky := newUser("flaky")
	_, err = f.engine.Subscribe(ctx, models.EntityTopic, topic.ID, flaky.ID)
	require.NoError(t, err)
	f.deliver.fail[flaky.ID] = true

	job := CommentCreated{
		EventID:   "evt-42",
		Comment:   &models.Comment{ID: "c", Content: "x", AuthorID: actor.ID, EntityID: topic.ID, EntityType: models.EntityTopic},
		Actor:     actor,
		Mentioned: []models.User{bob},
	}

	f.engine.Handle(ctx, job)
	require.Len(t, f.deliver.to(sub.ID), 1)
	require.Len(t, f.deliver.to(bob.ID), 1)
	require.Empty(t, f.deliver.to(flaky.ID))

	// Повтор: доставленные не дублируются, неудачная доставка выполняется заново.
	f.deliver.fail[flaky.ID] = false
	f.engine.Handle(ctx, job)

	require.Len(t, f.deliver.to(sub.ID), 1)
	require.Len(t, f.deliver.to(bob.ID), 1)
	require.Len(t, f.deliver.to(flaky.ID), 1)
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.skipped.WithLabelValues("comment")))
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.skipped.WithLabelValues("mention")))
}
