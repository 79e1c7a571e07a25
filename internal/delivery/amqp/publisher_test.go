package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-discussions/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	got    []published
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestDeliver_PublishesJSON(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{}
	p := newWithChannel(ch, "notifications")
	to := uuid.New()

	payload := models.Payload{
		EventID: "evt-1:mention",
		Notification: models.Notification{
			Title: "You were mentioned by @alice",
			Body:  "Go generics",
			Data:  map[string]string{"url": "/post/p1/go"},
		},
		Type:   models.PayloadMention,
		Entity: models.EntityDescriptor{ID: "p1", Type: models.EntityForumThread, Slug: "go", ThreadID: "t1"},
	}

	require.NoError(t, p.Deliver(context.Background(), payload, to))
	require.Len(t, ch.got, 1)

	got := ch.got[0]
	require.Equal(t, "notifications", got.exchange)
	require.Equal(t, "notification.mention", got.key)
	require.Equal(t, "application/json", got.msg.ContentType)
	require.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	require.Equal(t, "evt-1:mention:"+to.String(), got.msg.MessageId)

	var m message
	require.NoError(t, json.Unmarshal(got.msg.Body, &m))
	require.Equal(t, to.String(), m.Recipient)
	require.Equal(t, "mention", m.Type)
	require.Equal(t, "/post/p1/go", m.Notification.Data["url"])
	require.Equal(t, "t1", m.Entity.ThreadID)

	require.NoError(t, p.Close())
	require.True(t, ch.closed)
}

func TestDeliver_PublishError(t *testing.T) {
	t.Parallel()

	boom := errors.New("channel closed")
	p := newWithChannel(&fakeChannel{err: boom}, "x")

	err := p.Deliver(context.Background(), models.Payload{Type: models.PayloadComment}, uuid.New())
	require.ErrorIs(t, err, boom)
}

// Канал, закрытый брокером, заменяется новым; сообщение уходит в новый канал.
func TestDeliver_ReopensClosedChannel(t *testing.T) {
	t.Parallel()

	stale := &fakeChannel{err: amqp.ErrClosed}
	fresh := &fakeChannel{}
	opened := 0

	p := newWithChannel(stale, "notifications")
	p.open = func() (channel, error) {
		opened++
		return fresh, nil
	}

	require.NoError(t, p.Deliver(context.Background(), models.Payload{EventID: "e1", Type: models.PayloadComment}, uuid.New()))
	require.True(t, stale.closed)
	require.Len(t, fresh.got, 1)
	require.Equal(t, 1, opened)

	require.NoError(t, p.Deliver(context.Background(), models.Payload{EventID: "e2", Type: models.PayloadComment}, uuid.New()))
	require.Len(t, fresh.got, 2)
	require.Equal(t, 1, opened)
}

// Неудачное переоткрытие не ломает публикатор: следующая доставка пробует снова.
func TestDeliver_ReopenFailureRetriedLater(t *testing.T) {
	t.Parallel()

	down := errors.New("connection refused")
	fresh := &fakeChannel{}
	fail := true

	p := newWithChannel(&fakeChannel{err: amqp.ErrClosed}, "x")
	p.open = func() (channel, error) {
		if fail {
			return nil, down
		}
		return fresh, nil
	}

	err := p.Deliver(context.Background(), models.Payload{Type: models.PayloadComment}, uuid.New())
	require.ErrorIs(t, err, amqp.ErrClosed)
	require.ErrorIs(t, err, down)

	fail = false
	require.NoError(t, p.Deliver(context.Background(), models.Payload{Type: models.PayloadComment}, uuid.New()))
	require.Len(t, fresh.got, 1)
}

// Прочие ошибки публикации не приводят к переоткрытию канала.
func TestDeliver_OtherErrorKeepsChannel(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{err: errors.New("timeout")}
	p := newWithChannel(ch, "x")
	p.open = func() (channel, error) {
		t.Fatal("unexpected reopen")
		return nil, nil
	}

	require.Error(t, p.Deliver(context.Background(), models.Payload{Type: models.PayloadComment}, uuid.New()))
	require.False(t, ch.closed)
}
