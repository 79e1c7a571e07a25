package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-discussions/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type voteDoc struct {
	CommentID string    `bson:"comment_id"`
	UserID    string    `bson:"user_id"`
	Value     int       `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// SetVote выставляет голос пользователя за комментарий (upsert); VoteNone удаляет запись.
func (m *Mongo) SetVote(ctx context.Context, commentID string, userID uuid.UUID, v models.VoteValue) error {
	const op = "storage/mongo/SetVote"

	filter := bson.D{
		{Key: "comment_id", Value: strings.TrimSpace(commentID)},
		{Key: "user_id", Value: userID.String()},
	}

	if v == models.VoteNone {
		if _, err := m.votes.DeleteOne(ctx, filter); err != nil {
			return fmt.Errorf("%s: delete: %w", op, err)
		}

		return nil
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "value", Value: int(v)},
		{Key: "updated_at", Value: toMS(time.Now())},
	}}}

	if _, err := m.votes.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("%s: upsert: %w", op, err)
	}

	return nil
}

// VotesByUser возвращает голоса пользователя по набору комментариев одним запросом.
func (m *Mongo) VotesByUser(ctx context.Context, userID uuid.UUID, commentIDs []string) (map[string]models.VoteValue, error) {
	const op = "storage/mongo/VotesByUser"

	out := make(map[string]models.VoteValue)
	if len(commentIDs) == 0 {
		return out, nil
	}

	filter := bson.D{
		{Key: "user_id", Value: userID.String()},
		{Key: "comment_id", Value: bson.D{{Key: "$in", Value: commentIDs}}},
	}

	cur, err := m.votes.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc voteDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}
		out[doc.CommentID] = models.VoteValue(doc.Value)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return out, nil
}
