package port

import (
	"context"
	"time"

	"deliveryPanel/internal/modules/schedules/domain"
)

// ScheduleGateway is the backend's schedule surface. Implementations hold no state between calls
// and surface *RemoteError or *NetworkUnavailableError.
type ScheduleGateway interface {
	// FetchEntries returns the entries linked to a merchant; a backend 404 yields an empty list.
	FetchEntries(ctx context.Context, token, merchantID string) ([]domain.ScheduleEntry, error)
	// CreateEntry transmits the range as given; callers validate beforehand.
	CreateEntry(ctx context.Context, token string, rng domain.TimeRange, days []domain.DayOfWeek, active bool) (domain.ScheduleEntry, error)
	DeleteEntry(ctx context.Context, token, entryID string) error
	LinkEntry(ctx context.Context, token, merchantID, entryID string) error
	UnlinkEntry(ctx context.Context, token, merchantID, entryID string) error
	FetchIsOpen(ctx context.Context, token, merchantID string) (bool, error)
}

// EntryCache keeps the last backend-confirmed entries per merchant for the local open/closed fallback.
type EntryCache interface {
	Get(ctx context.Context, merchantID string) ([]domain.ScheduleEntry, bool)
	Set(ctx context.Context, merchantID string, entries []domain.ScheduleEntry)
	Invalidate(ctx context.Context, merchantID string)
}

// Broadcaster delivers messages to websocket clients.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg *domain.Message)
}

// TopicHandler handles messages consumed from one Kafka topic.
type TopicHandler interface {
	Topic() string
	Handle(ctx context.Context, msg *domain.Message) error
}

// Clock lets use cases evaluate against a controllable wall clock.
type Clock func() time.Time
