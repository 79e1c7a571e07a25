package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-discussions/internal/config"
	"github.com/pribylovaa/go-discussions/internal/models"
	"github.com/pribylovaa/go-discussions/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// commentDoc — представление комментария в коллекции comments.
type commentDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Content        string             `bson:"content"`
	Highlight      *highlightDoc      `bson:"highlight,omitempty"`
	AuthorID       string             `bson:"author_id"`
	EntityID       string             `bson:"entity_id"`
	EntityType     string             `bson:"entity_type"`
	ParentID       string             `bson:"parent_id"`
	Mentions       []mentionDoc       `bson:"mentions"`
	Deleted        bool               `bson:"deleted"`
	DateDeleted    *time.Time         `bson:"date_deleted,omitempty"`
	DateLastEdited *time.Time         `bson:"date_last_edited,omitempty"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

type highlightDoc struct {
	Text  string `bson:"text"`
	Start int    `bson:"start"`
	End   int    `bson:"end"`
}

// mentionDoc — денормализованная копия пользователя на момент упоминания.
type mentionDoc struct {
	ID       string `bson:"id"`
	Username string `bson:"username"`
	Name     string `bson:"name,omitempty"`
	Email    string `bson:"email,omitempty"`
}

// toMS — MongoDB DateTime хранит миллисекунды.
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

func toMSPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	v := toMS(*t)
	return &v
}

func toDoc(c *models.Comment) commentDoc {
	d := commentDoc{
		Content:        c.Content,
		AuthorID:       c.AuthorID.String(),
		EntityID:       c.EntityID,
		EntityType:     string(c.EntityType),
		ParentID:       strings.TrimSpace(c.ParentID),
		Mentions:       make([]mentionDoc, 0, len(c.Mentions)),
		Deleted:        c.Deleted,
		DateDeleted:    toMSPtr(c.DateDeleted),
		DateLastEdited: toMSPtr(c.DateLastEdited),
		CreatedAt:      toMS(c.CreatedAt),
		UpdatedAt:      toMS(c.UpdatedAt),
	}

	if c.Highlight != nil {
		d.Highlight = &highlightDoc{Text: c.Highlight.Text, Start: c.Highlight.Start, End: c.Highlight.End}
	}

	for _, u := range c.Mentions {
		d.Mentions = append(d.Mentions, mentionDoc{ID: u.ID.String(), Username: u.Username, Name: u.Name, Email: u.Email})
	}

	return d
}

func fromDoc(d commentDoc) *models.Comment {
	c := &models.Comment{
		ID:         d.ID.Hex(),
		Content:    d.Content,
		EntityID:   d.EntityID,
		EntityType: models.EntityType(d.EntityType),
		ParentID:   d.ParentID,
		Deleted:    d.Deleted,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}

	// Битый author_id оставляем uuid.Nil: такой комментарий никто не сможет редактировать.
	if id, err := uuid.Parse(d.AuthorID); err == nil {
		c.AuthorID = id
	}

	if d.Highlight != nil {
		c.Highlight = &models.Highlight{Text: d.Highlight.Text, Start: d.Highlight.Start, End: d.Highlight.End}
	}

	if d.DateDeleted != nil {
		t := d.DateDeleted.UTC()
		c.DateDeleted = &t
	}

	if d.DateLastEdited != nil {
		t := d.DateLastEdited.UTC()
		c.DateLastEdited = &t
	}

	for _, m := range d.Mentions {
		id, err := uuid.Parse(m.ID)
		if err != nil {
			continue
		}
		c.Mentions = append(c.Mentions, models.User{ID: id, Username: m.Username, Name: m.Name, Email: m.Email})
	}

	return c
}

// sortDirection переводит tree.order в направление сортировки Mongo.
func sortDirection(cfg *config.Config) int {
	if cfg != nil && cfg.Tree.Order == config.OrderDesc {
		return -1
	}

	return 1
}

// Get возвращает комментарий по идентификатору.
// Некорректный формат id трактуется как «нет такой записи».
func (m *Mongo) Get(ctx context.Context, id string) (*models.Comment, error) {
	const op = "storage/mongo/Get"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var doc commentDoc
	if err := m.comments.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return fromDoc(doc), nil
}

// TopLevelForEntity возвращает корневые комментарии сущности.
// Сортировка: created_at, _id по tree.order.
func (m *Mongo) TopLevelForEntity(ctx context.Context, entityID string) ([]*models.Comment, error) {
	const op = "storage/mongo/TopLevelForEntity"

	dir := sortDirection(m.cfg)
	filter := bson.D{
		{Key: "entity_id", Value: strings.TrimSpace(entityID)},
		{Key: "parent_id", Value: ""},
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}})

	out, err := m.find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// FillNested достраивает поддеревья roots поуровнево: один запрос
// parent_id $in [...] на уровень. Узлы адресуются через плоскую карту по id,
// поэтому глубина ветки ограничена только числом запросов, но не стеком.
// Ответы внутри родителя всегда идут от старых к новым.
func (m *Mongo) FillNested(ctx context.Context, roots ...*models.Comment) error {
	const op = "storage/mongo/FillNested"

	byID := make(map[string]*models.Comment, len(roots))
	frontier := make([]string, 0, len(roots))
	for _, r := range roots {
		if r == nil || r.ID == "" {
			continue
		}
		if _, dup := byID[r.ID]; dup {
			continue
		}
		r.Replies = nil
		byID[r.ID] = r
		frontier = append(frontier, r.ID)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	for len(frontier) > 0 {
		children, err := m.find(ctx, bson.D{{Key: "parent_id", Value: bson.D{{Key: "$in", Value: frontier}}}}, findOpts)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		next := make([]string, 0, len(children))
		for _, ch := range children {
			// Уже встречавшийся узел означает испорченные данные; второй раз не вешаем.
			if _, seen := byID[ch.ID]; seen {
				continue
			}

			parent := byID[ch.ParentID]
			parent.Replies = append(parent.Replies, ch)
			byID[ch.ID] = ch
			next = append(next, ch.ID)
		}

		frontier = next
	}

	return nil
}

// Save вставляет новый комментарий; комментарий с ID передаётся в Edit.
func (m *Mongo) Save(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	const op = "storage/mongo/Save"

	if c == nil || strings.TrimSpace(c.EntityID) == "" || c.AuthorID == uuid.Nil || !c.HasBody() {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidComment)
	}

	if strings.TrimSpace(c.ID) != "" {
		return m.Edit(ctx, c)
	}

	out := *c
	out.Replies = nil
	out.UserVote = nil
	now := toMS(time.Now())
	out.CreatedAt = now
	out.UpdatedAt = now

	res, err := m.comments.InsertOne(ctx, toDoc(&out))
	if err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		// Mongo всегда возвращает ObjectID.
		return nil, fmt.Errorf("%s: inserted id type", op)
	}

	out.ID = oid.Hex()
	return &out, nil
}

// Edit применяет $set к редактируемым полям с фильтром deleted:false.
// Параллельное удаление, успевшее раньше, правкой не отменяется.
func (m *Mongo) Edit(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	const op = "storage/mongo/Edit"

	if c == nil || !c.HasBody() {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidComment)
	}

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.ID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	doc := toDoc(c)
	now := toMS(time.Now())

	set := bson.D{
		{Key: "content", Value: doc.Content},
		{Key: "mentions", Value: doc.Mentions},
		{Key: "updated_at", Value: now},
	}
	if doc.DateLastEdited != nil {
		set = append(set, bson.E{Key: "date_last_edited", Value: doc.DateLastEdited})
	}

	update := bson.D{}
	if doc.Highlight != nil {
		set = append(set, bson.E{Key: "highlight", Value: doc.Highlight})
	} else {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "highlight", Value: ""}}})
	}
	update = append(update, bson.E{Key: "$set", Value: set})

	out, err := m.updateLive(ctx, oid, update)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// MarkDeleted выставляет deleted/date_deleted; остальные поля документа не трогаются.
func (m *Mongo) MarkDeleted(ctx context.Context, id string, at time.Time) (*models.Comment, error) {
	const op = "storage/mongo/MarkDeleted"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	out, err := m.updateLive(ctx, oid, bson.D{{Key: "$set", Value: bson.D{
		{Key: "deleted", Value: true},
		{Key: "date_deleted", Value: toMS(at)},
		{Key: "updated_at", Value: toMS(time.Now())},
	}}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// updateLive применяет update к неудалённому документу и возвращает его новое состояние.
// Если совпадения нет, различает отсутствие документа и удалённый документ.
func (m *Mongo) updateLive(ctx context.Context, oid primitive.ObjectID, update bson.D) (*models.Comment, error) {
	filter := bson.D{{Key: "_id", Value: oid}, {Key: "deleted", Value: false}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc commentDoc
	err := m.comments.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return fromDoc(doc), nil
	}
	if !errors.Is(err, mongodriver.ErrNoDocuments) {
		return nil, err
	}

	n, err := m.comments.CountDocuments(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, storage.ErrNotFound
	}

	return nil, storage.ErrCommentDeleted
}

// IncreaseCommentCount изменяет comment_count форумной ветки атомарным $inc.
// Отсутствующая ветка — storage.ErrNotFound.
func (m *Mongo) IncreaseCommentCount(ctx context.Context, entityID string, delta int) error {
	const op = "storage/mongo/IncreaseCommentCount"

	res, err := m.forumThreads.UpdateByID(ctx, strings.TrimSpace(entityID), bson.D{
		{Key: "$inc", Value: bson.D{{Key: "comment_count", Value: delta}}},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// find выполняет запрос и декодирует все документы курсора.
func (m *Mongo) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]*models.Comment, error) {
	cur, err := m.comments.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	defer cur.Close(ctx)

	var items []*models.Comment
	for cur.Next(ctx) {
		var doc commentDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}

		items = append(items, fromDoc(doc))
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("cursor: %w", err)
	}

	return items, nil
}
