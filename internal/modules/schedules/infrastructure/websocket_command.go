package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"deliveryPanel/internal/modules/schedules/domain"
)

// ErrUnknownCommand is reported back to a client that sends an action nobody handles.
var ErrUnknownCommand = errors.New("unknown command")

// Command is a client-to-server websocket frame, e.g. {"action":"refresh","requestId":"r1"}.
type Command struct {
	Action    string          `json:"action"`
	Topic     string          `json:"topic,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// CommandHandler serves one client command; a returned error is sent to that client only.
type CommandHandler func(ctx context.Context, client *Client, cmd Command) error

// CommandProcessor answers ping and unsubscribe inline and runs registered commands in their
// own goroutine bounded by timeout.
type CommandProcessor struct {
	hub     *Hub
	mu      sync.RWMutex
	async   map[string]CommandHandler
	timeout time.Duration
}

func newCommandProcessor(hub *Hub) *CommandProcessor {
	return &CommandProcessor{hub: hub, async: make(map[string]CommandHandler), timeout: 10 * time.Second}
}

func (p *CommandProcessor) register(action string, handler CommandHandler) {
	key := actionKey(action)
	if key == "" || handler == nil {
		return
	}
	p.mu.Lock()
	p.async[key] = handler
	p.mu.Unlock()
}

func (p *CommandProcessor) process(c *Client, cmd Command) {
	switch actionKey(cmd.Action) {
	case "":
		return
	case "ping":
		c.Send(reply(domain.TopicSystemPong, domain.ActionPong, cmd, nil))
		return
	case "unsubscribe":
		if topic := strings.TrimSpace(cmd.Topic); topic != "" {
			p.hub.Leave(c, topic)
		}
		return
	}

	p.mu.RLock()
	handler, ok := p.async[actionKey(cmd.Action)]
	p.mu.RUnlock()
	if !ok {
		slog.Debug("ws command rejected", slog.String("sessionId", c.id.SessionID), slog.String("action", cmd.Action))
		c.Send(reply(domain.TopicSystemError, domain.ActionError, cmd, ErrUnknownCommand))
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := handler(ctx, c, cmd); err != nil {
			slog.Warn("ws command failed", slog.String("sessionId", c.id.SessionID), slog.String("action", cmd.Action), slog.Any("error", err))
			c.Send(reply(domain.TopicSystemError, domain.ActionError, cmd, err))
		}
	}()
}

func reply(topic, action string, cmd Command, err error) *domain.Message {
	msg := &domain.Message{
		Topic:     topic,
		Entity:    domain.SystemEntity,
		Action:    action,
		Metadata:  domain.Metadata{"command": actionKey(cmd.Action)},
		Timestamp: time.Now().UTC(),
	}
	if cmd.RequestID != "" {
		msg.Metadata["requestId"] = cmd.RequestID
	}
	if err != nil {
		msg.Data = map[string]string{"error": err.Error()}
	}
	return msg
}

func actionKey(action string) string {
	return strings.ToLower(strings.TrimSpace(action))
}
