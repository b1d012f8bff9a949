package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"deliveryPanel/internal/modules/schedules/application/port"
	"deliveryPanel/internal/modules/schedules/domain"
)

// EventRouter fans broker messages out to every handler registered for their topic.
type EventRouter struct {
	mu     sync.RWMutex
	routes map[string][]port.TopicHandler
}

func NewEventRouter() *EventRouter {
	return &EventRouter{routes: make(map[string][]port.TopicHandler)}
}

// Add appends h to the handlers of h.Topic().
func (r *EventRouter) Add(h port.TopicHandler) {
	if h == nil || h.Topic() == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[h.Topic()] = append(r.routes[h.Topic()], h)
}

// Topics returns the routed topics, sorted.
func (r *EventRouter) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	topics := make([]string, 0, len(r.routes))
	for topic := range r.routes {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Route runs every handler of msg.Topic, even after one fails, and joins their errors.
// Messages on unrouted topics are ignored.
func (r *EventRouter) Route(ctx context.Context, msg *domain.Message) error {
	if msg == nil {
		return nil
	}
	r.mu.RLock()
	handlers := r.routes[msg.Topic]
	r.mu.RUnlock()

	var errs []error
	for i, h := range handlers {
		if err := h.Handle(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s handler %d: %w", msg.Topic, i, err))
		}
	}
	return errors.Join(errs...)
}
