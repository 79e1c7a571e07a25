package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pribylovaa/go-discussions/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	commentsCollection      = "comments"
	subscriptionsCollection = "subscriptions"
	votesCollection         = "comment_votes"
	forumThreadsCollection  = "forum_threads"
	topicPagesCollection    = "topic_pages"
	defaultDBName           = "discussions"
)

// Mongo - тонкий адаптер для подключения и коллекций MongoDB.
// Реализует storage.CommentStore, storage.SubscriptionStore, storage.VoteStore
// и storage.EntityDirectory.
type Mongo struct {
	cfg           *config.Config
	client        *mongodriver.Client
	db            *mongodriver.Database
	comments      *mongodriver.Collection
	subscriptions *mongodriver.Collection
	votes         *mongodriver.Collection
	forumThreads  *mongodriver.Collection
	topicPages    *mongodriver.Collection
}

// New подключается к MongoDB, проверяет его, подготавливает коллекции и обеспечивает индексацию.
func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mongo: nil config")
	}

	if cfg.DB.URL == "" {
		return nil, fmt.Errorf("mongo: empty cfg.DB.URL")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.DB.URL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(databaseFromURI(cfg.DB.URL))

	m := &Mongo{
		cfg:           cfg,
		client:        cli,
		db:            db,
		comments:      db.Collection(commentsCollection),
		subscriptions: db.Collection(subscriptionsCollection),
		votes:         db.Collection(votesCollection),
		forumThreads:  db.Collection(forumThreadsCollection),
		topicPages:    db.Collection(topicPagesCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Ping проверяет доступность primary (для readiness-пробы).
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// ensureIndexes создает индексы, необходимые сервису.
// - Корневые комментарии сущности: entity_id + parent_id + created_at
// - Ответы: parent_id + created_at(asc) (выборка уровня через $in)
// - Подписки: уникальность (entity_type, entity_id, user_id) + выборка подписчиков
// - Голоса: уникальность (comment_id, user_id) + выборка голосов пользователя
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	sets := []struct {
		coll   *mongodriver.Collection
		models []mongodriver.IndexModel
	}{
		{m.comments, []mongodriver.IndexModel{
			{
				Keys:    bson.D{{Key: "entity_id", Value: 1}, {Key: "parent_id", Value: 1}, {Key: "created_at", Value: 1}},
				Options: options.Index().SetName("entity_parent_created"),
			},
			{
				Keys:    bson.D{{Key: "parent_id", Value: 1}, {Key: "created_at", Value: 1}},
				Options: options.Index().SetName("parent_created_asc"),
			},
		}},
		{m.subscriptions, []mongodriver.IndexModel{
			{
				Keys:    bson.D{{Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}, {Key: "user_id", Value: 1}},
				Options: options.Index().SetName("entity_user_unique").SetUnique(true),
			},
		}},
		{m.votes, []mongodriver.IndexModel{
			{
				Keys:    bson.D{{Key: "comment_id", Value: 1}, {Key: "user_id", Value: 1}},
				Options: options.Index().SetName("comment_user_unique").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "comment_id", Value: 1}},
				Options: options.Index().SetName("user_comment"),
			},
		}},
	}

	for _, s := range sets {
		if _, err := s.coll.Indexes().CreateMany(ctx, s.models); err != nil {
			return fmt.Errorf("mongo ensure indexes (%s): %w", s.coll.Name(), err)
		}
	}

	return nil
}

// databaseFromURI извлекает имя базы данных из URI-пути mongodb.
// Если оно отсутствует или не поддается расшифровке, возвращает разумное значение по умолчанию.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}
