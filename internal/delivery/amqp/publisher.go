// amqp — доставка уведомлений через RabbitMQ: каждое уведомление публикуется
// в topic exchange, откуда его забирают push/inbox-потребители.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-discussions/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

// channel — часть *amqp.Channel, нужная публикатору.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// message — формат сообщения в брокере.
type message struct {
	EventID      string           `json:"event_id"`
	Recipient    string           `json:"recipient"`
	Type         string           `json:"type"`
	Notification notificationJSON `json:"notification"`
	Entity       entityJSON       `json:"entity"`
}

type notificationJSON struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

type entityJSON struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Slug     string `json:"slug,omitempty"`
	ThreadID string `json:"thread_id,omitempty"`
}

// Publisher реализует notify.Deliverer поверх RabbitMQ.
//
// Брокер закрывает канал при ошибке протокола; соединение при этом живо,
// поэтому канал открывается заново лениво, при следующей публикации.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	open     func() (channel, error)
	exchange string
}

// New подключается к брокеру и объявляет durable topic exchange.
func New(url, exchange string) (*Publisher, error) {
	const op = "delivery/amqp/New"

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%s: dial: %w", op, err)
	}

	p := &Publisher{conn: conn, exchange: exchange}
	p.open = func() (channel, error) { return openChannel(conn, exchange) }

	ch, err := p.open()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.ch = ch

	return p, nil
}

// openChannel открывает канал и (повторно) объявляет exchange;
// объявление идемпотентно.
func openChannel(conn *amqp.Connection, exchange string) (channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return ch, nil
}

// newWithChannel — сборка поверх готового канала (тесты).
func newWithChannel(ch channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange}
}

// routingKey — notification.<type>, например notification.mention.
func routingKey(p models.Payload) string {
	return "notification." + string(p.Type)
}

// Deliver публикует уведомление для одного получателя.
func (p *Publisher) Deliver(ctx context.Context, payload models.Payload, recipient uuid.UUID) error {
	const op = "delivery/amqp/Deliver"

	body, err := json.Marshal(message{
		EventID:   payload.EventID,
		Recipient: recipient.String(),
		Type:      string(payload.Type),
		Notification: notificationJSON{
			Title: payload.Notification.Title,
			Body:  payload.Notification.Body,
			Data:  payload.Notification.Data,
		},
		Entity: entityJSON{
			ID:       payload.Entity.ID,
			Type:     string(payload.Entity.Type),
			Title:    payload.Entity.Title,
			Slug:     payload.Entity.Slug,
			ThreadID: payload.Entity.ThreadID,
		},
	})
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    payload.EventID + ":" + recipient.String(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		if err := p.reopen(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey(payload), false, false, msg)
	if errors.Is(err, amqp.ErrClosed) && p.open != nil {
		// Канал закрыт брокером: одна попытка на свежем канале.
		if rerr := p.reopen(); rerr != nil {
			return fmt.Errorf("%s: publish: %w", op, errors.Join(err, rerr))
		}
		err = p.ch.PublishWithContext(ctx, p.exchange, routingKey(payload), false, false, msg)
	}
	if err != nil {
		return fmt.Errorf("%s: publish: %w", op, err)
	}

	return nil
}

// reopen заменяет текущий канал новым. Вызывается под p.mu.
// При неудаче канал остаётся nil, и следующая публикация попробует снова.
func (p *Publisher) reopen() error {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.open == nil {
		return amqp.ErrClosed
	}

	ch, err := p.open()
	if err != nil {
		return fmt.Errorf("reopen: %w", err)
	}
	p.ch = ch

	return nil
}

// Close закрывает канал и соединение.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.ch != nil {
		err = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}

	return err
}
