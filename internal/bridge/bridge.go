// Package bridge is the websocket link to the executor running inside the
// game page. The page dials in, Go sends click and background commands and
// the page answers each one by id.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// DefaultTimeout bounds the wait for a command response.
	DefaultTimeout = 15 * time.Second
	pingInterval   = 15 * time.Second
)

var (
	ErrNotConnected = errors.New("game page not connected")
	ErrTimeout      = errors.New("timeout waiting for page response")
	// ErrRejected is a command the page answered with success=false.
	ErrRejected = errors.New("page rejected command")
)

// Message is sent from Go to the page.
type Message struct {
	ID     string         `json:"id,omitempty"`
	Type   string         `json:"type"`
	Action string         `json:"action,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// Response is anything the page sends: command responses, hello, pong and
// events.
type Response struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Action  string          `json:"action,omitempty"`
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// peer is one page connection. done is closed when it goes away.
type peer struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
}

func (p *peer) write(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

func (p *peer) close() {
	p.once.Do(func() {
		close(p.done)
		p.conn.Close()
	})
}

// Bridge accepts the page connection and sends commands over it. Only one
// page is served at a time; a new connection replaces the previous one.
type Bridge struct {
	timeout      time.Duration
	pingInterval time.Duration
	upgrader     websocket.Upgrader

	mu      sync.RWMutex
	peer    *peer
	hello   map[string]any
	onEvent func(Event)

	responses   map[string]chan *Response
	responsesMu sync.Mutex

	log *slog.Logger
}

func New(timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bridge{
		timeout:      timeout,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			// the executor runs on the game's origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		responses: make(map[string]chan *Response),
		log:       slog.With("component", "bridge"),
	}
}

// OnEvent registers the handler for tile events reported by the page.
func (b *Bridge) OnEvent(fn func(Event)) {
	b.mu.Lock()
	b.onEvent = fn
	b.mu.Unlock()
}

func (b *Bridge) Connected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.peer != nil
}

// Info returns what the page reported in its hello message.
func (b *Bridge) Info() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]any, len(b.hello))
	for k, v := range b.hello {
		out[k] = v
	}
	return out
}

// ServeHTTP upgrades the page connection and serves it until it closes.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	p := &peer{conn: conn, done: make(chan struct{})}

	b.mu.Lock()
	old := b.peer
	b.peer = p
	b.hello = nil
	b.mu.Unlock()
	if old != nil {
		b.log.Info("replacing page connection")
		old.close()
	}
	b.log.Info("game page connected", "remote", r.RemoteAddr)

	go b.keepAlive(p)
	b.listen(p)

	b.mu.Lock()
	if b.peer == p {
		b.peer = nil
	}
	b.mu.Unlock()
	p.close()
	b.log.Info("game page disconnected", "remote", r.RemoteAddr)
}

func (b *Bridge) keepAlive(p *peer) {
	ticker := time.NewTicker(b.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			if err := p.write(Message{ID: uuid.NewString(), Type: "ping"}); err != nil {
				b.log.Warn("ping failed", "error", err)
				return
			}
		}
	}
}

func (b *Bridge) listen(p *peer) {
	for {
		_, message, err := p.conn.ReadMessage()
		if err != nil {
			select {
			case <-p.done:
			default:
				b.log.Debug("websocket read ended", "error", err)
			}
			return
		}

		var resp Response
		if err := json.Unmarshal(message, &resp); err != nil {
			b.log.Warn("failed to parse page message", "error", err)
			continue
		}

		switch resp.Type {
		case "response":
			b.handleCommandResponse(&resp)
		case "hello":
			b.handleHello(&resp)
		case "event":
			b.handleEvent(&resp)
		case "pong":
			// heartbeat
		case "error":
			b.log.Warn("error from page", "message", resp.Message)
		default:
			b.log.Debug("ignoring page message", "type", resp.Type)
		}
	}
}

func (b *Bridge) handleHello(resp *Response) {
	var info map[string]any
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &info); err != nil {
			b.log.Warn("failed to parse hello", "error", err)
		}
	}
	b.mu.Lock()
	b.hello = info
	b.mu.Unlock()
	b.log.Info("page hello", "info", info)
}

func (b *Bridge) handleCommandResponse(resp *Response) {
	if resp.ID == "" {
		return
	}

	b.responsesMu.Lock()
	ch, ok := b.responses[resp.ID]
	if ok {
		delete(b.responses, resp.ID)
	}
	b.responsesMu.Unlock()

	if ok {
		ch <- resp
	}
}

func (b *Bridge) forget(id string) {
	b.responsesMu.Lock()
	delete(b.responses, id)
	b.responsesMu.Unlock()
}

// Send delivers a command to the page and waits for its response.
func (b *Bridge) Send(ctx context.Context, action string, params map[string]any) (*Response, error) {
	b.mu.RLock()
	p := b.peer
	b.mu.RUnlock()
	if p == nil {
		return nil, ErrNotConnected
	}

	id := uuid.NewString()
	ch := make(chan *Response, 1)
	b.responsesMu.Lock()
	b.responses[id] = ch
	b.responsesMu.Unlock()

	msg := Message{ID: id, Type: "command", Action: action, Params: params}
	if err := p.write(msg); err != nil {
		b.forget(id)
		return nil, fmt.Errorf("send %s: %w", action, err)
	}

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()
	select {
	case resp := <-ch:
		return resp, nil
	case <-p.done:
		b.forget(id)
		return nil, ErrNotConnected
	case <-ctx.Done():
		b.forget(id)
		return nil, ctx.Err()
	case <-timer.C:
		b.forget(id)
		return nil, fmt.Errorf("%s: %w", action, ErrTimeout)
	}
}
