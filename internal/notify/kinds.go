package notify

import (
	"fmt"

	"github.com/pribylovaa/go-discussions/internal/models"
)

// kind — поведение рассылки для одного вида сущности.
// Новый вид сущности добавляется одной реализацией и строкой в kinds.
type kind interface {
	// url — путь к сущности на сайте.
	url(e models.EntityDescriptor) string
	// data — дополнительные поля уведомления, специфичные для вида.
	data(e models.EntityDescriptor) map[string]string
	// countsComments — ведёт ли сущность счётчик комментариев.
	countsComments() bool
}

type forumThreadKind struct{}

func (forumThreadKind) url(e models.EntityDescriptor) string {
	return fmt.Sprintf("/post/%s/%s", e.ID, e.Slug)
}

func (forumThreadKind) data(e models.EntityDescriptor) map[string]string {
	return map[string]string{"thread": e.ThreadID}
}

func (forumThreadKind) countsComments() bool { return true }

type topicKind struct{}

func (topicKind) url(e models.EntityDescriptor) string {
	return "/topic/" + e.Slug
}

func (topicKind) data(models.EntityDescriptor) map[string]string { return nil }

func (topicKind) countsComments() bool { return false }

var kinds = map[models.EntityType]kind{
	models.EntityForumThread: forumThreadKind{},
	models.EntityTopic:       topicKind{},
}

// kindOf возвращает поведение для вида сущности; ok=false — вид неизвестен и рассылки нет.
func kindOf(t models.EntityType) (kind, bool) {
	k, ok := kinds[t]
	return k, ok
}

// buildPayload собирает уведомление о комментарии или упоминании.
// mentioned заполняется только для упоминаний.
func buildPayload(k kind, e models.EntityDescriptor, typ models.PayloadType, eventID string, actor models.User, mentioned *models.User) models.Payload {
	title := "New comment from @" + actor.DisplayName()
	if typ == models.PayloadMention {
		title = "You were mentioned by @" + actor.DisplayName()
	}

	data := map[string]string{
		"user": actor.Username,
		"slug": e.Slug,
		"url":  k.url(e),
	}
	for key, v := range k.data(e) {
		data[key] = v
	}
	if mentioned != nil {
		data["mentioned"] = mentioned.ID.String()
	}

	return models.Payload{
		EventID: eventID,
		Notification: models.Notification{
			Title: title,
			Body:  e.Title,
			Data:  data,
		},
		Type:   typ,
		Entity: e,
	}
}

// EntityURL возвращает путь к сущности на сайте; для неизвестного вида — пустую строку.
func EntityURL(e models.EntityDescriptor) string {
	k, ok := kindOf(e.Type)
	if !ok {
		return ""
	}

	return k.url(e)
}
