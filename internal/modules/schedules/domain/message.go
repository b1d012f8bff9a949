package domain

import (
	"strings"
	"time"
)

// Metadata holds string annotations attached to realtime messages.
type Metadata map[string]string

// Message is the envelope exchanged between Kafka events and websocket clients.
type Message struct {
	Topic      string    `json:"topic"`
	Entity     string    `json:"entity"`
	Action     string    `json:"action"`
	ResourceID string    `json:"resourceId,omitempty"`
	Metadata   Metadata  `json:"metadata,omitempty"`
	Data       any       `json:"data,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

const (
	SystemEntity    = "system"
	MerchantsEntity = "merchants"
	SchedulesEntity = "schedules"

	ActionConnected = "connected"
	ActionPong      = "pong"
	ActionError     = "error"
	ActionOpen      = "open"
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionLinked    = "linked"
	ActionUnlinked  = "unlinked"

	TopicSystemConnected = SystemEntity + "." + ActionConnected
	TopicSystemPong      = SystemEntity + "." + ActionPong
	TopicSystemError     = SystemEntity + "." + ActionError
)

// OpenStateTopic is the websocket topic carrying open/closed updates for one merchant.
func OpenStateTopic(merchantID string) string {
	id := strings.TrimSpace(merchantID)
	if id == "" {
		return ""
	}
	return MerchantsEntity + "." + id + "." + ActionOpen
}

// BuildOpenStateMessage wraps an evaluated state for broadcast.
func BuildOpenStateMessage(merchantID string, state OpenState) *Message {
	topic := OpenStateTopic(merchantID)
	if topic == "" {
		return nil
	}
	return &Message{
		Topic:      topic,
		Entity:     MerchantsEntity,
		Action:     ActionOpen,
		ResourceID: strings.TrimSpace(merchantID),
		Metadata:   Metadata{"merchantId": strings.TrimSpace(merchantID), "source": string(state.Source)},
		Data:       state,
		Timestamp:  state.EvaluatedAt.UTC(),
	}
}
