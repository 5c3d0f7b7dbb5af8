package event

import (
	"encoding/json"
	"fmt"
	"strings"

	"projectTracker/internal/models/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Kind string

const (
	ProjectCreated     Kind = "project:created"
	ProjectUpdated     Kind = "project:updated"
	ProjectDeleted     Kind = "project:deleted"
	ProjectMemberAdded Kind = "project:member-added"

	TaskCreated Kind = "task:created"
	TaskUpdated Kind = "task:updated"
	TaskDeleted Kind = "task:deleted"

	CommentCreated Kind = "comment:created"
	CommentUpdated Kind = "comment:updated"
	CommentDeleted Kind = "comment:deleted"

	UserTyping        Kind = "user:typing"
	UserStoppedTyping Kind = "user:stopped-typing"

	Error Kind = "error"
)

// от клиента
const (
	JoinProject  Kind = "join:project"
	LeaveProject Kind = "leave:project"
	TypingStart  Kind = "typing:start"
	TypingStop   Kind = "typing:stop"
)

const channelPrefix = "project:"

// Broadcast уходит всем соединениям независимо от Channel
type Event struct {
	Kind      Kind
	Channel   string
	Payload   any
	Broadcast bool
}

// payload всех *:deleted
type Deleted struct {
	ID primitive.ObjectID `json:"id"`
}

type Typing struct {
	User   user.Summary `json:"user"`
	TaskID string       `json:"taskId"`
}

func ChannelKey(projectID primitive.ObjectID) string {
	return channelPrefix + projectID.Hex()
}

func ParseChannelKey(key string) (primitive.ObjectID, error) {
	hex, ok := strings.CutPrefix(key, channelPrefix)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("неверный ключ канала %q", key)
	}
	return primitive.ObjectIDFromHex(hex)
}

func ForProject(kind Kind, projectID primitive.ObjectID, payload any) Event {
	return Event{
		Kind:    kind,
		Channel: ChannelKey(projectID),
		Payload: payload,
	}
}

func Removed(kind Kind, projectID, id primitive.ObjectID) Event {
	return ForProject(kind, projectID, Deleted{ID: id})
}

// кадр websocket в обе стороны
type Message struct {
	Event   Kind            `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func Encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, fmt.Errorf("кодирование события %s: %w", ev.Kind, err)
	}
	channel := ev.Channel
	if ev.Broadcast {
		channel = ""
	}
	return json.Marshal(Message{Event: ev.Kind, Channel: channel, Data: data})
}
