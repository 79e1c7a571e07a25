package models

// PayloadType — вид уведомления.
type PayloadType string

const (
	PayloadComment PayloadType = "comment"
	PayloadMention PayloadType = "mention"
)

// Notification — видимая пользователю часть уведомления.
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// Payload — транзиентный объект уведомления, передаётся доставке по каждому получателю.
// EventID общий для всех получателей одного события и служит ключом дедупликации.
type Payload struct {
	EventID      string
	Notification Notification
	Type         PayloadType
	Entity       EntityDescriptor
}
