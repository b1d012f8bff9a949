package infrastructure

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"deliveryPanel/internal/modules/schedules/domain"
)

const (
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
	writeTimeout = 5 * time.Second
	maxReadBytes = 1 << 16
	defaultQueue = 16
)

// ClientIdentity names who is connected and which merchant they follow.
type ClientIdentity struct {
	UserID     string
	SessionID  string
	MerchantID string
}

// Client is one websocket connection following a merchant's open state.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	id       ClientIdentity
	commands *CommandProcessor

	// topics is guarded by hub.mu.
	topics map[string]struct{}

	outMu  sync.RWMutex
	out    chan []byte
	closed bool

	closeOnce sync.Once
	hookMu    sync.Mutex
	onClose   []func(*Client)
}

// NewClient wraps conn; queue bounds how many outbound messages may wait before the client is
// considered too slow. conn may be nil in tests.
func NewClient(hub *Hub, conn *websocket.Conn, id ClientIdentity, queue int) *Client {
	if queue <= 0 {
		queue = defaultQueue
	}
	c := &Client{
		hub:  hub,
		conn: conn,
		id: ClientIdentity{
			UserID:     strings.TrimSpace(id.UserID),
			SessionID:  strings.TrimSpace(id.SessionID),
			MerchantID: strings.TrimSpace(id.MerchantID),
		},
		topics: make(map[string]struct{}),
		out:    make(chan []byte, queue),
	}
	c.commands = newCommandProcessor(hub)
	return c
}

// Key is unique per session and merchant.
func (c *Client) Key() string {
	return c.id.SessionID + ":" + c.id.MerchantID
}

func (c *Client) Identity() ClientIdentity { return c.id }

func (c *Client) MerchantID() string { return c.id.MerchantID }

// OnCommand routes the named client command to handler, run asynchronously with a timeout.
func (c *Client) OnCommand(action string, handler CommandHandler) {
	c.commands.register(action, handler)
}

// OnClose registers fn to run once when the client closes.
func (c *Client) OnClose(fn func(*Client)) {
	if fn == nil {
		return
	}
	c.hookMu.Lock()
	c.onClose = append(c.onClose, fn)
	c.hookMu.Unlock()
}

// Send queues msg for this client only. It reports false when the client is too slow and has
// been scheduled for detachment.
func (c *Client) Send(msg *domain.Message) bool {
	if msg == nil {
		return true
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		slog.Error("ws message marshal failed", slog.String("topic", msg.Topic), slog.Any("error", err))
		return true
	}
	if c.enqueue(payload) {
		return true
	}
	slog.Warn("ws send queue full", slog.String("sessionId", c.id.SessionID), slog.String("merchantId", c.id.MerchantID))
	go c.hub.Detach(c)
	return false
}

// Run pumps the connection until it fails or the client is detached.
func (c *Client) Run() {
	go c.writeLoop()
	c.readLoop()
}

func (c *Client) enqueue(payload []byte) bool {
	c.outMu.RLock()
	defer c.outMu.RUnlock()
	if c.closed {
		return true
	}
	select {
	case c.out <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.outMu.Lock()
		c.closed = true
		close(c.out)
		c.outMu.Unlock()
		if c.conn != nil {
			_ = c.conn.Close()
		}

		c.hookMu.Lock()
		hooks := c.onClose
		c.onClose = nil
		c.hookMu.Unlock()
		for _, hook := range hooks {
			c.runHook(hook)
		}
	})
}

func (c *Client) runHook(hook func(*Client)) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("ws close hook panicked", slog.String("sessionId", c.id.SessionID), slog.Any("panic", r))
		}
	}()
	hook(c)
}

func (c *Client) writeLoop() {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case payload, ok := <-c.out:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				slog.Warn("ws write failed", slog.String("sessionId", c.id.SessionID), slog.Any("error", err))
				c.hub.Detach(c)
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				c.hub.Detach(c)
				return
			}
		}
	}
}

func (c *Client) readLoop() {
	defer c.hub.Detach(c)
	c.conn.SetReadLimit(maxReadBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("ws read ended", slog.String("sessionId", c.id.SessionID), slog.String("merchantId", c.id.MerchantID), slog.Any("error", err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		c.commands.process(c, cmd)
	}
}
