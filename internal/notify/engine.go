// notify — подписки на сущности и рассылка уведомлений подписчикам и упомянутым пользователям.
//
// Сервис комментариев не вызывает Engine напрямую: он ставит Job в Queue,
// а воркеры очереди вызывают Engine.Handle в фоне.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-discussions/internal/cache"
	"github.com/pribylovaa/go-discussions/internal/config"
	"github.com/pribylovaa/go-discussions/internal/models"
	"github.com/pribylovaa/go-discussions/internal/storage"
	"github.com/pribylovaa/go-discussions/pkg/log"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownEntityType — вид сущности не поддерживает подписки.
var ErrUnknownEntityType = errors.New("unknown entity type")

// Deliverer доставляет уведомление одному получателю.
// Ретраи и backoff — забота слоя доставки.
type Deliverer interface {
	Deliver(ctx context.Context, payload models.Payload, recipient uuid.UUID) error
}

// MailNotifier — почтовые уведомления о комментариях.
type MailNotifier interface {
	OnCommentCreated(ctx context.Context, entityID string, entityType models.EntityType, actor models.User, comment *models.Comment) error
	OnCommentUpdated(ctx context.Context, entityID string, entityType models.EntityType, actor models.User, comment *models.Comment, newMentions []models.User) error
}

// Deps — зависимости Engine. Mail, Guard и Metrics опциональны.
type Deps struct {
	Entities      storage.EntityDirectory
	Subscriptions storage.SubscriptionStore
	Comments      storage.CommentStore
	Deliverer     Deliverer
	Mail          MailNotifier
	Guard         cache.DeliveryGuard
	Metrics       *Metrics
}

// Engine — подписки и рассылка.
type Engine struct {
	entities storage.EntityDirectory
	subs     storage.SubscriptionStore
	comments storage.CommentStore
	deliver  Deliverer
	mail     MailNotifier
	guard    cache.DeliveryGuard
	metrics  *Metrics
	parallel int
}

// NewEngine создаёт Engine.
func NewEngine(cfg config.FanoutConfig, d Deps) *Engine {
	parallel := cfg.Parallel
	if parallel <= 0 {
		parallel = 1
	}

	guard := d.Guard
	if guard == nil {
		guard = cache.NopGuard{}
	}

	return &Engine{
		entities: d.Entities,
		subs:     d.Subscriptions,
		comments: d.Comments,
		deliver:  d.Deliverer,
		mail:     d.Mail,
		guard:    guard,
		metrics:  d.Metrics,
		parallel: parallel,
	}
}

// Subscribe идемпотентно подписывает пользователя на сущность и возвращает её дескриптор.
// Ошибки: storage.ErrNotFound, если сущности нет; ErrUnknownEntityType для неизвестного вида.
func (e *Engine) Subscribe(ctx context.Context, typ models.EntityType, entityID string, userID uuid.UUID) (*models.EntityDescriptor, error) {
	const op = "notify/Subscribe"

	if _, ok := kindOf(typ); !ok {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownEntityType, typ)
	}

	ent, err := e.entities.Entity(ctx, entityID, typ)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := e.subs.Subscribe(ctx, models.Subscription{
		EntityType: typ,
		EntityID:   entityID,
		UserID:     userID,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ent, nil
}

// NotifySubscribers доставляет payload каждому подписчику сущности ровно один раз.
// excludeActor исключает самого автора события, skip — дополнительные исключения.
// Сбой доставки одному получателю не мешает остальным; ошибка возвращается только
// если не удалось получить список подписчиков. Возвращает число успешных доставок.
func (e *Engine) NotifySubscribers(ctx context.Context, typ models.EntityType, entityID string, actor uuid.UUID, payload models.Payload, excludeActor bool, skip ...uuid.UUID) (int, error) {
	const op = "notify/NotifySubscribers"

	subs, err := e.subs.Subscribers(ctx, typ, entityID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	excluded := make(map[uuid.UUID]struct{}, len(skip)+1)
	if excludeActor {
		excluded[actor] = struct{}{}
	}
	for _, id := range skip {
		excluded[id] = struct{}{}
	}

	recipients := make([]uuid.UUID, 0, len(subs))
	for _, id := range subs {
		if _, ok := excluded[id]; ok {
			continue
		}
		excluded[id] = struct{}{}
		recipients = append(recipients, id)
	}

	delivered := make([]bool, len(recipients))

	var g errgroup.Group
	g.SetLimit(e.parallel)
	for i, id := range recipients {
		g.Go(func() error {
			delivered[i] = e.deliverOnce(ctx, payload, id)
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, ok := range delivered {
		if ok {
			n++
		}
	}

	log.From(ctx).Debug("subscribers_notified",
		slog.String("op", op),
		slog.String("entity_id", entityID),
		slog.String("entity_type", string(typ)),
		slog.Int("recipients", len(recipients)),
		slog.Int("delivered", n),
	)

	return n, nil
}

// NotifyMentioned подписывает упомянутого пользователя на сущность и доставляет
// ему уведомление напрямую, независимо от прежней подписки.
// Неизвестный вид сущности — no-op.
func (e *Engine) NotifyMentioned(ctx context.Context, typ models.EntityType, entityID, eventID string, mentioned, actor models.User) error {
	const op = "notify/NotifyMentioned"

	k, ok := kindOf(typ)
	if !ok {
		log.From(ctx).Debug("mention_unknown_entity_type",
			slog.String("op", op),
			slog.String("entity_type", string(typ)),
		)
		return nil
	}

	ent, err := e.Subscribe(ctx, typ, entityID, mentioned.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	payload := buildPayload(k, *ent, models.PayloadMention, eventID, actor, &mentioned)
	if !e.deliverOnce(ctx, payload, mentioned.ID) {
		return fmt.Errorf("%s: delivery to %s failed or skipped", op, mentioned.ID)
	}

	return nil
}

// deliverOnce доставляет payload получателю, если (событие, получатель) ещё не обслуживались.
// Неудачная доставка освобождает ключ дедупликации.
func (e *Engine) deliverOnce(ctx context.Context, payload models.Payload, recipient uuid.UUID) bool {
	const op = "notify/deliverOnce"

	lg := log.From(ctx).With(
		slog.String("op", op),
		slog.String("event_id", payload.EventID),
		slog.String("recipient", recipient.String()),
		slog.String("type", string(payload.Type)),
	)
	typ := string(payload.Type)

	claimed, err := e.guard.Claim(ctx, payload.EventID, recipient)
	if err != nil {
		// Redis недоступен — лучше доставить, чем потерять уведомление.
		lg.Warn("dedupe_claim_failed", slog.String("err", err.Error()))
		claimed = true
	}

	if !claimed {
		e.metrics.incDuplicate(typ)
		lg.Debug("delivery_duplicate")
		return false
	}

	if err := e.deliver.Deliver(ctx, payload, recipient); err != nil {
		e.metrics.incFailed(typ)
		lg.Warn("delivery_failed", slog.String("err", err.Error()))

		if relErr := e.guard.Release(ctx, payload.EventID, recipient); relErr != nil {
			lg.Warn("dedupe_release_failed", slog.String("err", relErr.Error()))
		}
		return false
	}

	e.metrics.incDelivered(typ)
	return true
}

// Handle выполняет задачу рассылки. Все сбои внутри задачи изолированы и логируются.
func (e *Engine) Handle(ctx context.Context, job Job) {
	switch j := job.(type) {
	case CommentCreated:
		e.handleCreated(ctx, j)
	case *CommentCreated:
		e.handleCreated(ctx, *j)
	case CommentUpdated:
		e.handleUpdated(ctx, j)
	case *CommentUpdated:
		e.handleUpdated(ctx, *j)
	case CommentRemoved:
		e.handleRemoved(ctx, j)
	case *CommentRemoved:
		e.handleRemoved(ctx, *j)
	default:
		log.From(ctx).Warn("fanout_unknown_job", slog.String("kind", fmt.Sprintf("%T", job)))
		return
	}

	e.metrics.incProcessed(job.Kind())
}

func (e *Engine) handleCreated(ctx context.Context, j CommentCreated) {
	const op = "notify/handleCreated"

	c := j.Comment
	lg := log.From(ctx).With(
		slog.String("op", op),
		slog.String("comment_id", c.ID),
		slog.String("entity_id", c.EntityID),
		slog.String("entity_type", string(c.EntityType)),
	)

	k, ok := kindOf(c.EntityType)
	if !ok {
		lg.Debug("fanout_unknown_entity_type")
		return
	}

	// (a) подписать автора и оповестить подписчиков (кроме автора и упомянутых).
	ent, err := e.Subscribe(ctx, c.EntityType, c.EntityID, j.Actor.ID)
	if err != nil {
		lg.Warn("subscribe_actor_failed", slog.String("err", err.Error()))
	} else {
		skip := make([]uuid.UUID, 0, len(j.Mentioned))
		for _, u := range j.Mentioned {
			skip = append(skip, u.ID)
		}

		payload := buildPayload(k, *ent, models.PayloadComment, j.EventID+":comment", j.Actor, nil)
		if _, err := e.NotifySubscribers(ctx, c.EntityType, c.EntityID, j.Actor.ID, payload, true, skip...); err != nil {
			lg.Warn("notify_subscribers_failed", slog.String("err", err.Error()))
		}
	}

	// (b) упомянутые.
	e.notifyMentions(ctx, c, j.EventID, j.Mentioned, j.Actor)

	// (c) счётчик сущности.
	if k.countsComments() {
		if err := e.comments.IncreaseCommentCount(ctx, c.EntityID, 1); err != nil {
			lg.Warn("comment_count_increase_failed", slog.String("err", err.Error()))
		}
	}

	if e.mail != nil {
		if err := e.mail.OnCommentCreated(ctx, c.EntityID, c.EntityType, j.Actor, c); err != nil {
			lg.Warn("mail_on_created_failed", slog.String("err", err.Error()))
		}
	}
}

func (e *Engine) handleUpdated(ctx context.Context, j CommentUpdated) {
	const op = "notify/handleUpdated"

	c := j.Comment
	lg := log.From(ctx).With(
		slog.String("op", op),
		slog.String("comment_id", c.ID),
		slog.String("entity_type", string(c.EntityType)),
	)

	if _, ok := kindOf(c.EntityType); !ok {
		lg.Debug("fanout_unknown_entity_type")
		return
	}

	e.notifyMentions(ctx, c, j.EventID, j.NewMentions, j.Actor)

	if e.mail != nil {
		if err := e.mail.OnCommentUpdated(ctx, c.EntityID, c.EntityType, j.Actor, c, j.NewMentions); err != nil {
			lg.Warn("mail_on_updated_failed", slog.String("err", err.Error()))
		}
	}
}

func (e *Engine) handleRemoved(ctx context.Context, j CommentRemoved) {
	const op = "notify/handleRemoved"

	c := j.Comment
	k, ok := kindOf(c.EntityType)
	if !ok || !k.countsComments() {
		return
	}

	if err := e.comments.IncreaseCommentCount(ctx, c.EntityID, -1); err != nil {
		log.From(ctx).Warn("comment_count_decrease_failed",
			slog.String("op", op),
			slog.String("comment_id", c.ID),
			slog.String("entity_id", c.EntityID),
			slog.String("err", err.Error()),
		)
	}
}

// notifyMentions оповещает каждого упомянутого параллельно; ошибки изолированы.
// Повторы в mentioned схлопываются по ID: на одно событие одно упоминание,
// даже без Redis-защиты от повторной доставки.
func (e *Engine) notifyMentions(ctx context.Context, c *models.Comment, eventID string, mentioned []models.User, actor models.User) {
	var g errgroup.Group
	g.SetLimit(e.parallel)

	seen := make(map[uuid.UUID]struct{}, len(mentioned))
	for _, u := range mentioned {
		if u.ID == actor.ID || u.ID == uuid.Nil {
			continue
		}
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}

		g.Go(func() error {
			if err := e.NotifyMentioned(ctx, c.EntityType, c.EntityID, eventID+":mention", u, actor); err != nil {
				log.From(ctx).Warn("notify_mentioned_failed",
					slog.String("comment_id", c.ID),
					slog.String("mentioned", u.ID.String()),
					slog.String("err", err.Error()),
				)
			}
			return nil
		})
	}

	_ = g.Wait()
}
