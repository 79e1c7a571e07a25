package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pribylovaa/go-discussions/internal/models"
	"github.com/pribylovaa/go-discussions/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// entityDoc — общие поля forum_threads и topic_pages, нужные уведомлениям.
// Остальные поля сущностей принадлежат их владельцам и здесь не читаются.
type entityDoc struct {
	ID       string `bson:"_id"`
	Title    string `bson:"title"`
	Slug     string `bson:"slug"`
	ThreadID string `bson:"thread_id,omitempty"`
}

// Entity возвращает дескриптор сущности из коллекции её вида.
func (m *Mongo) Entity(ctx context.Context, id string, typ models.EntityType) (*models.EntityDescriptor, error) {
	const op = "storage/mongo/Entity"

	var coll *mongodriver.Collection
	switch typ {
	case models.EntityForumThread:
		coll = m.forumThreads
	case models.EntityTopic:
		coll = m.topicPages
	default:
		return nil, fmt.Errorf("%s: unknown entity type %q: %w", op, typ, storage.ErrNotFound)
	}

	var doc entityDoc
	if err := coll.FindOne(ctx, bson.D{{Key: "_id", Value: strings.TrimSpace(id)}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.EntityDescriptor{
		ID:       doc.ID,
		Type:     typ,
		Title:    doc.Title,
		Slug:     doc.Slug,
		ThreadID: doc.ThreadID,
	}, nil
}
