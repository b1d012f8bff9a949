package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"deliveryPanel/internal/modules/schedules/domain"
	"deliveryPanel/internal/platform/metrics"
)

// Hub routes open-state messages to websocket clients. A session holds at most one client per
// merchant; attaching a second one closes the first.
type Hub struct {
	mu      sync.RWMutex
	byTopic map[string]map[*Client]struct{}
	byKey   map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		byTopic: make(map[string]map[*Client]struct{}),
		byKey:   make(map[string]*Client),
	}
}

// Attach registers c and subscribes it to topics. Blank topics are skipped.
func (h *Hub) Attach(c *Client, topics ...string) {
	h.mu.Lock()
	replaced := h.byKey[c.Key()]
	if replaced == c {
		replaced = nil
	}
	if replaced != nil {
		h.removeLocked(replaced)
	}
	h.byKey[c.Key()] = c
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		if h.byTopic[topic] == nil {
			h.byTopic[topic] = make(map[*Client]struct{})
		}
		h.byTopic[topic][c] = struct{}{}
		c.topics[topic] = struct{}{}
	}
	count := len(h.byKey)
	h.mu.Unlock()

	if replaced != nil {
		slog.Info("ws client replaced", slog.String("sessionId", replaced.id.SessionID), slog.String("merchantId", replaced.id.MerchantID))
		replaced.close()
	}
	metrics.SetWebsocketClients(count)
	slog.Info("ws client attached", slog.String("userId", c.id.UserID), slog.String("sessionId", c.id.SessionID), slog.String("merchantId", c.id.MerchantID), slog.Any("topics", topics))
}

// Leave drops one subscription; the client stays connected.
func (h *Hub) Leave(c *Client, topic string) {
	topic = strings.TrimSpace(topic)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, topic)
	slog.Debug("ws client left topic", slog.String("sessionId", c.id.SessionID), slog.String("topic", topic))
}

// Detach removes c from every topic and closes it.
func (h *Hub) Detach(c *Client) {
	if c == nil {
		return
	}
	h.mu.Lock()
	h.removeLocked(c)
	count := len(h.byKey)
	h.mu.Unlock()

	c.close()
	metrics.SetWebsocketClients(count)
}

// Shutdown closes every client; used when the server stops.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.byKey))
	for _, c := range h.byKey {
		clients = append(clients, c)
	}
	h.byKey = make(map[string]*Client)
	h.byTopic = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	metrics.SetWebsocketClients(0)
}

func (h *Hub) leaveLocked(c *Client, topic string) {
	if subs, ok := h.byTopic[topic]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.byTopic, topic)
		}
	}
	delete(c.topics, topic)
}

func (h *Hub) removeLocked(c *Client) {
	for topic := range c.topics {
		h.leaveLocked(c, topic)
	}
	if current, ok := h.byKey[c.Key()]; ok && current == c {
		delete(h.byKey, c.Key())
	}
}

// Broadcast delivers msg to the subscribers of msg.Topic. A "sessionId" metadata entry restricts
// delivery to that session. Clients whose buffer is full are detached.
func (h *Hub) Broadcast(_ context.Context, msg *domain.Message) {
	if msg == nil {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		slog.Error("ws broadcast marshal failed", slog.String("topic", msg.Topic), slog.Any("error", err))
		return
	}
	onlySession := strings.TrimSpace(msg.Metadata["sessionId"])

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.byTopic[msg.Topic]))
	for c := range h.byTopic[msg.Topic] {
		if onlySession == "" || c.id.SessionID == onlySession {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(payload) {
			slog.Warn("ws client too slow, detaching", slog.String("sessionId", c.id.SessionID), slog.String("merchantId", c.id.MerchantID))
			go h.Detach(c)
		}
	}
}

// Subscribers returns how many clients listen on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byTopic[topic])
}

// Len returns the number of attached clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byKey)
}
