// mail — письма упомянутым пользователям.
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/pribylovaa/go-discussions/internal/config"
	"github.com/pribylovaa/go-discussions/internal/models"
	"github.com/pribylovaa/go-discussions/internal/notify"
	"github.com/pribylovaa/go-discussions/internal/storage"
	"github.com/pribylovaa/go-discussions/pkg/log"
	gomail "gopkg.in/mail.v2"
)

// Sender — отправка готовых писем; *gomail.Dialer удовлетворяет интерфейсу.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Notifier реализует notify.MailNotifier.
type Notifier struct {
	sender   Sender
	entities storage.EntityDirectory
	from     string
	siteURL  string
}

// New собирает Notifier поверх SMTP. Пустой Host отключает почту: возвращается nil.
func New(cfg config.MailConfig, entities storage.EntityDirectory) *Notifier {
	if cfg.Host == "" {
		return nil
	}

	return NewWithSender(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg, entities)
}

// NewWithSender — сборка с произвольным Sender.
func NewWithSender(s Sender, cfg config.MailConfig, entities storage.EntityDirectory) *Notifier {
	return &Notifier{
		sender:   s,
		entities: entities,
		from:     cfg.From,
		siteURL:  strings.TrimRight(cfg.SiteURL, "/"),
	}
}

// OnCommentCreated пишет всем упомянутым в новом комментарии.
func (n *Notifier) OnCommentCreated(ctx context.Context, entityID string, entityType models.EntityType, actor models.User, comment *models.Comment) error {
	return n.notify(ctx, entityID, entityType, actor, comment, comment.Mentions)
}

// OnCommentUpdated пишет только тем, кто упомянут впервые при редактировании.
func (n *Notifier) OnCommentUpdated(ctx context.Context, entityID string, entityType models.EntityType, actor models.User, comment *models.Comment, newMentions []models.User) error {
	return n.notify(ctx, entityID, entityType, actor, comment, newMentions)
}

func (n *Notifier) notify(ctx context.Context, entityID string, entityType models.EntityType, actor models.User, comment *models.Comment, to []models.User) error {
	const op = "delivery/mail/notify"

	if len(to) == 0 {
		return nil
	}

	entity, err := n.entities.Entity(ctx, entityID, entityType)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	lg := log.From(ctx).With("op", op, "entity_id", entityID)

	msgs := make([]*gomail.Message, 0, len(to))
	for _, u := range to {
		if u.Email == "" || u.ID == actor.ID {
			continue
		}
		msgs = append(msgs, n.message(entity, actor, comment, u))
	}

	if len(msgs) == 0 {
		return nil
	}

	if err := n.sender.DialAndSend(msgs...); err != nil {
		lg.Error("mail_send_failed", "recipients", len(msgs), "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	lg.Debug("mail_sent", "recipients", len(msgs))

	return nil
}

func (n *Notifier) message(e *models.EntityDescriptor, actor models.User, comment *models.Comment, to models.User) *gomail.Message {
	link := n.siteURL + notify.EntityURL(*e)

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", to.DisplayName())
	fmt.Fprintf(&body, "@%s mentioned you in \"%s\":\n\n", actor.DisplayName(), e.Title)
	if comment.Highlight != nil && comment.Highlight.Text != "" {
		fmt.Fprintf(&body, "> %s\n\n", comment.Highlight.Text)
	}
	fmt.Fprintf(&body, "%s\n\n", comment.Content)
	fmt.Fprintf(&body, "Open the discussion: %s\n", link)

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to.Email)
	m.SetHeader("Subject", fmt.Sprintf("You were mentioned by @%s", actor.DisplayName()))
	m.SetBody("text/plain", body.String())

	return m
}
