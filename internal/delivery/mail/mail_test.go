package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-discussions/internal/config"
	"github.com/pribylovaa/go-discussions/internal/models"
	"github.com/pribylovaa/go-discussions/internal/storage"
	"github.com/pribylovaa/go-discussions/internal/storage/memory"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/mail.v2"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

var testCfg = config.MailConfig{From: "bot@example.com", SiteURL: "http://site/"}

func newFixture(t *testing.T) (*Notifier, *fakeSender, *memory.Store) {
	t.Helper()

	st := memory.New(config.OrderAsc)
	st.AddEntity(models.EntityDescriptor{ID: "p1", Type: models.EntityForumThread, Title: "Go", Slug: "go", ThreadID: "t1"})

	s := &fakeSender{}
	return NewWithSender(s, testCfg, st), s, st
}

func body(t *testing.T, m *gomail.Message) string {
	t.Helper()

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestNew_EmptyHostDisablesMail(t *testing.T) {
	t.Parallel()

	require.Nil(t, New(config.MailConfig{}, nil))
	require.NotNil(t, New(config.MailConfig{Host: "smtp.local", Port: 25}, nil))
}

func TestOnCommentCreated_MailsMentionedUsers(t *testing.T) {
	t.Parallel()

	n, s, _ := newFixture(t)

	actor := models.User{ID: uuid.New(), Username: "alice"}
	bob := models.User{ID: uuid.New(), Username: "bob", Email: "bob@example.com"}
	noMail := models.User{ID: uuid.New(), Username: "carol"}

	c := &models.Comment{Content: "hey @bob", Mentions: []models.User{bob, noMail, actor}}

	require.NoError(t, n.OnCommentCreated(context.Background(), "p1", models.EntityForumThread, actor, c))
	require.Len(t, s.sent, 1)

	m := s.sent[0]
	require.Equal(t, []string{"bob@example.com"}, m.GetHeader("To"))
	require.Equal(t, []string{"bot@example.com"}, m.GetHeader("From"))
	require.Equal(t, []string{"You were mentioned by @alice"}, m.GetHeader("Subject"))
	require.Contains(t, body(t, m), "http://site/post/p1/go")
}

func TestOnCommentUpdated_OnlyNewMentions(t *testing.T) {
	t.Parallel()

	n, s, _ := newFixture(t)

	actor := models.User{ID: uuid.New(), Username: "alice"}
	old := models.User{ID: uuid.New(), Username: "old", Email: "old@example.com"}
	fresh := models.User{ID: uuid.New(), Username: "fresh", Email: "fresh@example.com"}

	c := &models.Comment{Content: "edited", Mentions: []models.User{old, fresh}}

	require.NoError(t, n.OnCommentUpdated(context.Background(), "p1", models.EntityForumThread, actor, c, []models.User{fresh}))
	require.Len(t, s.sent, 1)
	require.Equal(t, []string{"fresh@example.com"}, s.sent[0].GetHeader("To"))
}

func TestNotify_NoRecipientsSkipsLookup(t *testing.T) {
	t.Parallel()

	s := &fakeSender{}
	// Справочник сущностей не нужен: без упомянутых до него не доходит.
	n := NewWithSender(s, testCfg, nil)

	require.NoError(t, n.OnCommentCreated(context.Background(), "p1", models.EntityForumThread, models.User{}, &models.Comment{}))
	require.Empty(t, s.sent)
}

func TestNotify_Errors(t *testing.T) {
	t.Parallel()

	mentioned := []models.User{{ID: uuid.New(), Email: "x@example.com"}}

	t.Run("unknown entity", func(t *testing.T) {
		n, _, _ := newFixture(t)
		err := n.OnCommentCreated(context.Background(), "nope", models.EntityTopic, models.User{}, &models.Comment{Mentions: mentioned})
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("smtp failure", func(t *testing.T) {
		n, s, _ := newFixture(t)
		boom := errors.New("smtp down")
		s.err = boom

		err := n.OnCommentCreated(context.Background(), "p1", models.EntityForumThread, models.User{}, &models.Comment{Mentions: mentioned})
		require.ErrorIs(t, err, boom)
	})
}
