// Package feed streams a running session over websockets.
//
// Every connection gets the current view on connect, then every engine
// notification as it is published. Clients send commands as JSON text
// frames; each command is answered with a result frame carrying the same id.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roach88/upgrades/internal/catalog"
	"github.com/roach88/upgrades/internal/economy"
	"github.com/roach88/upgrades/internal/engine"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Message types sent to clients.
const (
	TypeView         = "view"
	TypeNotification = "notification"
	TypeResult       = "result"
)

// Message is one frame sent to a client. Exactly one payload is set,
// matching Type.
type Message struct {
	Type         string               `json:"type"`
	View         *economy.View        `json:"view,omitempty"`
	Notification *engine.Notification `json:"notification,omitempty"`
	Result       *Reply               `json:"result,omitempty"`
}

// Command is one frame received from a client.
type Command struct {
	ID      string  `json:"id,omitempty"`
	Type    string  `json:"type"`
	Kind    string  `json:"kind,omitempty"`
	Amount  float64 `json:"amount,omitempty"`
	Confirm bool    `json:"confirm,omitempty"`
}

// Reply answers a Command.
type Reply struct {
	ID    string `json:"id,omitempty"`
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// Intent maps a command onto an engine intent.
func (c Command) Intent() (engine.Intent, error) {
	switch c.Type {
	case "gather":
		return engine.Gather{Resource: catalog.ResourceKind(c.Kind), Amount: c.Amount}, nil
	case "buy_producer":
		return engine.BuyProducer{Producer: catalog.ProducerKind(c.Kind)}, nil
	case "buy_upgrade":
		return engine.BuyUpgrade{Upgrade: catalog.UpgradeKind(c.Kind)}, nil
	case "research":
		return engine.Research{Technology: catalog.TechnologyKind(c.Kind)}, nil
	case "reset":
		return engine.Reset{Confirmed: c.Confirm}, nil
	case "save":
		return engine.Save{}, nil
	case "snapshot":
		return engine.Snapshot{}, nil
	default:
		return nil, fmt.Errorf("unknown command type %q", c.Type)
	}
}

// Handler upgrades HTTP requests to feed connections.
type Handler struct {
	engine   *engine.Engine
	upgrader websocket.Upgrader
}

// NewHandler creates a handler serving e.
func NewHandler(e *engine.Engine) *Handler {
	return &Handler{
		engine: e,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("feed upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{conn: conn, engine: h.engine}
	slog.Info("feed client connected", "remote", r.RemoteAddr)
	c.serve(r.Context())
	slog.Info("feed client disconnected", "remote", r.RemoteAddr)
}

type client struct {
	conn   *websocket.Conn
	engine *engine.Engine
	mu     sync.Mutex // serializes data frames
}

func (c *client) serve(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	defer c.conn.Close()

	sub := c.engine.Subscribe()
	defer sub.Close()

	res, err := c.engine.Do(ctx, engine.Snapshot{})
	if err != nil {
		c.closeWith(websocket.CloseGoingAway, err.Error())
		return
	}
	if err := c.send(Message{Type: TypeView, View: &res.View}); err != nil {
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer cancel()
		c.pushNotifications(ctx, sub)
	}()
	go func() {
		defer wg.Done()
		c.ping(ctx)
	}()

	c.readCommands(ctx)
	cancel()
	wg.Wait()
}

func (c *client) readCommands(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("feed read failed", "error", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.reply(Reply{Code: "BAD_COMMAND", Error: err.Error()})
			continue
		}
		in, err := cmd.Intent()
		if err != nil {
			c.reply(Reply{ID: cmd.ID, Code: "BAD_COMMAND", Error: err.Error()})
			continue
		}

		_, err = c.engine.Do(ctx, in)
		if err != nil {
			c.reply(Reply{ID: cmd.ID, Code: engine.CodeOf(err), Error: err.Error()})
			if engine.IsStopped(err) || ctx.Err() != nil {
				return
			}
			continue
		}
		c.reply(Reply{ID: cmd.ID, OK: true})
	}
}

func (c *client) pushNotifications(ctx context.Context, sub *engine.Subscription) {
	for {
		n, err := sub.Next(ctx)
		if errors.Is(err, engine.ErrSubscriptionClosed) {
			c.closeWith(websocket.CloseGoingAway, "session ended")
			// Unblocks readCommands.
			c.conn.Close()
			return
		}
		if err != nil {
			return
		}
		if err := c.send(Message{Type: TypeNotification, Notification: &n}); err != nil {
			return
		}
	}
}

func (c *client) ping(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *client) reply(r Reply) {
	if err := c.send(Message{Type: TypeResult, Result: &r}); err != nil {
		slog.Debug("feed reply dropped", "id", r.ID, "error", err)
	}
}

func (c *client) send(m Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(m)
}

func (c *client) closeWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

