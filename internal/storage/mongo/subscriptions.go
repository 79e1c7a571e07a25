package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-discussions/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type subscriptionDoc struct {
	EntityType string    `bson:"entity_type"`
	EntityID   string    `bson:"entity_id"`
	UserID     string    `bson:"user_id"`
	CreatedAt  time.Time `bson:"created_at"`
}

// Subscribe идемпотентно создаёт подписку: upsert по уникальному ключу
// (entity_type, entity_id, user_id), created_at пишется только при вставке.
func (m *Mongo) Subscribe(ctx context.Context, sub models.Subscription) error {
	const op = "storage/mongo/Subscribe"

	createdAt := sub.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	filter := bson.D{
		{Key: "entity_type", Value: string(sub.EntityType)},
		{Key: "entity_id", Value: sub.EntityID},
		{Key: "user_id", Value: sub.UserID.String()},
	}
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{{Key: "created_at", Value: toMS(createdAt)}}}}

	_, err := m.subscriptions.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Subscribers возвращает идентификаторы подписчиков сущности в порядке подписки.
func (m *Mongo) Subscribers(ctx context.Context, typ models.EntityType, entityID string) ([]uuid.UUID, error) {
	const op = "storage/mongo/Subscribers"

	filter := bson.D{
		{Key: "entity_type", Value: string(typ)},
		{Key: "entity_id", Value: entityID},
	}
	findOpts := options.Find().
		SetProjection(bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}}).
		SetSort(bson.D{{Key: "created_at", Value: 1}})

	cur, err := m.subscriptions.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var out []uuid.UUID
	for cur.Next(ctx) {
		var doc subscriptionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		id, err := uuid.Parse(doc.UserID)
		if err != nil {
			continue
		}
		out = append(out, id)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return out, nil
}
