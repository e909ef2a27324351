// ABOUTME: WebSocket implementation of the channel gateway
// ABOUTME: JSON envelope framing, buffered write pump, sequential handler dispatch

package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// writeBuffer is the outbound queue depth before Emit starts failing.
	writeBuffer = 32
	writeWait   = 10 * time.Second
)

// ErrDisconnected is returned by Emit after the connection has gone down.
var ErrDisconnected = errors.New("channel disconnected")

// ErrSendBufferFull is returned by Emit when the write queue is saturated.
var ErrSendBufferFull = errors.New("channel send buffer full")

var _ Gateway = (*WSGateway)(nil)

// envelope is the wire frame: every message is a named event with a payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// WSGateway speaks the named-event protocol over a single websocket. One
// read pump dispatches inbound events to subscribers in arrival order; one
// write pump serializes outbound frames. There is no reconnect: when the
// socket dies the gateway stays Disconnected until a new one is dialed.
type WSGateway struct {
	conn   *websocket.Conn
	send   chan envelope
	state  atomic.Int32
	done   chan struct{}
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]map[string]Handler // event -> subID -> handler
}

// Dial connects to the channel endpoint and starts the pumps. The header may
// carry the bearer credential the backend expects at upgrade time.
func Dial(ctx context.Context, url string, header http.Header, logger *slog.Logger) (*WSGateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing channel: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dialing channel: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	g := &WSGateway{
		conn:     conn,
		send:     make(chan envelope, writeBuffer),
		done:     make(chan struct{}),
		logger:   logger.With("component", "channel"),
		handlers: make(map[string]map[string]Handler),
	}
	g.state.Store(int32(Connected))

	go g.readPump()
	go g.writePump()

	g.logger.Debug("channel connected", "url", url)
	return g, nil
}

// State returns the current connection state.
func (g *WSGateway) State() ConnState {
	return ConnState(g.state.Load())
}

// Emit queues an outbound event. A nil payload sends a bare event frame.
func (g *WSGateway) Emit(event string, payload any) error {
	if g.State() != Connected {
		return ErrDisconnected
	}

	env := envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding %s payload: %w", event, err)
		}
		env.Data = data
	}

	select {
	case g.send <- env:
		return nil
	case <-g.done:
		return ErrDisconnected
	default:
		return ErrSendBufferFull
	}
}

// Subscribe registers a handler for an inbound event name. The returned
// function removes the subscription; calling it more than once is harmless.
func (g *WSGateway) Subscribe(event string, h Handler) func() {
	subID := uuid.New().String()

	g.mu.Lock()
	if _, ok := g.handlers[event]; !ok {
		g.handlers[event] = make(map[string]Handler)
	}
	g.handlers[event][subID] = h
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if subs, ok := g.handlers[event]; ok {
			delete(subs, subID)
			if len(subs) == 0 {
				delete(g.handlers, event)
			}
		}
	}
}

// Close tears the connection down and stops both pumps.
func (g *WSGateway) Close() error {
	g.markDisconnected()
	return g.conn.Close()
}

func (g *WSGateway) markDisconnected() {
	if g.state.Swap(int32(Disconnected)) == int32(Connected) {
		close(g.done)
	}
}

// readPump decodes envelopes and dispatches them sequentially, preserving
// per-connection event order for subscribers.
func (g *WSGateway) readPump() {
	defer g.markDisconnected()

	for {
		var env envelope
		if err := g.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.logger.Warn("channel read failed", "error", err)
			} else {
				g.logger.Debug("channel closed", "error", err)
			}
			return
		}

		g.mu.RLock()
		targets := make([]Handler, 0, len(g.handlers[env.Event]))
		for _, h := range g.handlers[env.Event] {
			targets = append(targets, h)
		}
		g.mu.RUnlock()

		if len(targets) == 0 {
			g.logger.Debug("unhandled channel event", "event", env.Event)
			continue
		}
		for _, h := range targets {
			h(env.Data)
		}
	}
}

func (g *WSGateway) writePump() {
	for {
		select {
		case env := <-g.send:
			if err := g.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				g.logger.Warn("setting write deadline failed", "error", err)
				g.markDisconnected()
				return
			}
			if err := g.conn.WriteJSON(env); err != nil {
				g.logger.Warn("channel write failed", "event", env.Event, "error", err)
				g.markDisconnected()
				return
			}
		case <-g.done:
			g.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}
