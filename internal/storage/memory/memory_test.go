package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-discussions/internal/config"
	"github.com/pribylovaa/go-discussions/internal/models"
	"github.com/pribylovaa/go-discussions/internal/storage"
	"github.com/stretchr/testify/require"
)

func save(t *testing.T, s *Store, entityID, parentID, content string) *models.Comment {
	t.Helper()
	c, err := s.Save(context.Background(), &models.Comment{
		Content: content, AuthorID: uuid.New(), EntityID: entityID, EntityType: models.EntityForumThread, ParentID: parentID,
	})
	require.NoError(t, err)
	return c
}

func TestStore_TreeAndOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := New(config.OrderDesc)
	a := save(t, s, "e", "", "a")
	b := save(t, s, "e", "", "b")
	a1 := save(t, s, "e", a.ID, "a1")
	save(t, s, "e", a1.ID, "a1x")
	save(t, s, "other", "", "o")

	top, err := s.TopLevelForEntity(ctx, "e")
	require.NoError(t, err)
	require.Equal(t, []string{b.ID, a.ID}, []string{top[0].ID, top[1].ID})

	require.NoError(t, s.FillNested(ctx, top...))
	require.Empty(t, top[0].Replies)
	require.Len(t, top[1].Replies, 1)
	require.Equal(t, "a1x", top[1].Replies[0].Replies[0].Content)
}

func TestStore_SaveIsolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := New(config.OrderAsc)
	c := save(t, s, "e", "", "v1")

	c.Content = "changed locally"
	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "v1", got.Content)

	_, err = s.Save(ctx, &models.Comment{EntityID: "e", AuthorID: uuid.New()})
	require.ErrorIs(t, err, storage.ErrInvalidComment)

	_, err = s.Save(ctx, &models.Comment{ID: "missing", Content: "x", EntityID: "e", AuthorID: uuid.New()})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_EditDoesNotResurrect(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := New(config.OrderAsc)
	c := save(t, s, "e", "", "v1")

	stale, err := s.Get(ctx, c.ID)
	require.NoError(t, err)

	del, err := s.MarkDeleted(ctx, c.ID, time.Now())
	require.NoError(t, err)
	require.True(t, del.Deleted)

	stale.Content = "v2"
	_, err = s.Edit(ctx, stale)
	require.ErrorIs(t, err, storage.ErrCommentDeleted)
	_, err = s.Save(ctx, stale)
	require.ErrorIs(t, err, storage.ErrCommentDeleted)
	_, err = s.MarkDeleted(ctx, c.ID, time.Now())
	require.ErrorIs(t, err, storage.ErrCommentDeleted)

	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, got.Deleted)
	require.NotNil(t, got.DateDeleted)
	require.Equal(t, "v1", got.Content)

	_, err = s.MarkDeleted(ctx, "missing", time.Now())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_EditOnlyEditableFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := New(config.OrderAsc)
	c := save(t, s, "e", "", "v1")

	edit := *c
	edit.Content = "v2"
	edit.ParentID = "elsewhere"
	edit.AuthorID = uuid.New()
	out, err := s.Edit(ctx, &edit)
	require.NoError(t, err)
	require.Equal(t, "v2", out.Content)
	require.Empty(t, out.ParentID)
	require.Equal(t, c.AuthorID, out.AuthorID)
}

func TestStore_SubscribeIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := New(config.OrderAsc)
	u := uuid.New()
	sub := models.Subscription{EntityType: models.EntityTopic, EntityID: "t", UserID: u}

	require.NoError(t, s.Subscribe(ctx, sub))
	require.NoError(t, s.Subscribe(ctx, sub))

	require.Len(t, s.Subscriptions(), 1)
	ids, err := s.Subscribers(ctx, models.EntityTopic, "t")
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{u}, ids)
}

func TestStore_Counter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := New(config.OrderAsc)
	s.AddEntity(models.EntityDescriptor{ID: "th", Type: models.EntityForumThread})
	s.AddEntity(models.EntityDescriptor{ID: "tp", Type: models.EntityTopic})

	require.NoError(t, s.IncreaseCommentCount(ctx, "th", 2))
	require.NoError(t, s.IncreaseCommentCount(ctx, "th", -1))
	require.Equal(t, 1, s.CommentCount("th"))
	require.ErrorIs(t, s.IncreaseCommentCount(ctx, "tp", 1), storage.ErrNotFound)
}
