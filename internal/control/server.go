// Package control serves the remote command websocket and the status
// endpoint. Remote agents drive automation, selections and statistics
// through it.
package control

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"molehill-mcp/internal/automation"
	"molehill-mcp/internal/selection"
	"molehill-mcp/internal/stats"
)

// ServiceName is reported by the status endpoint.
const ServiceName = "molehill-mcp"

// Page reports the state of the game page connection.
type Page interface {
	Connected() bool
	Info() map[string]any
}

// Request is a message from a remote agent.
type Request struct {
	ID     string          `json:"id,omitempty"`
	Type   string          `json:"type"`
	Action string          `json:"action,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response answers a Request with the same id.
type Response struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type Server struct {
	ctx        context.Context
	runner     *automation.Runner
	selections *selection.Store
	stats      *stats.Tracker
	page       Page
	upgrader   websocket.Upgrader
	log        *slog.Logger
}

// New returns a Server whose automation runs are bound to ctx, not to the
// connection that requested them.
func New(ctx context.Context, runner *automation.Runner, selections *selection.Store, tracker *stats.Tracker, page Page) *Server {
	return &Server{
		ctx:        ctx,
		runner:     runner,
		selections: selections,
		stats:      tracker,
		page:       page,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: slog.With("component", "control"),
	}
}

// Register mounts /control and the status endpoint on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/control", s.serveControl)
	mux.HandleFunc("/", s.serveStatus)
}

func (s *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":         "ok",
		"service":        ServiceName,
		"page_connected": s.page.Connected(),
	})
}

// client serializes writes to one agent connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (s *Server) serveControl(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	s.log.Info("remote agent connected", "remote", r.RemoteAddr)

	c := &client{conn: conn}
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			s.log.Info("remote agent disconnected", "remote", r.RemoteAddr, "error", err)
			return
		}

		var req Request
		if err := json.Unmarshal(msg, &req); err != nil {
			s.log.Warn("failed to parse message", "error", err)
			c.send(Response{Type: "response", Message: "invalid message: " + err.Error()})
			continue
		}

		if req.ID == "" {
			req.ID = uuid.NewString()
		}

		switch req.Type {
		case "command":
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.send(s.handleCommand(s.ctx, req))
			}()
		case "get_state":
			c.send(Response{ID: req.ID, Type: "state", Success: true, Data: s.state()})
		case "ping":
			c.send(Response{ID: req.ID, Type: "pong", Success: true})
		default:
			c.send(Response{ID: req.ID, Type: "response", Message: "unknown message type: " + req.Type})
		}
	}
}

func (s *Server) handleCommand(ctx context.Context, req Request) Response {
	resp := Response{ID: req.ID, Type: "response"}
	result, err := s.execute(ctx, req.Action, req.Params)
	if err != nil {
		s.log.Warn("command failed", "action", req.Action, "error", err)
		resp.Message = err.Error()
		if rep, ok := result.(automation.Report); ok {
			resp.Data = rep
		}
		return resp
	}
	resp.Success = true
	resp.Data = result
	if rep, ok := result.(automation.Report); ok {
		resp.Message = rep.Status
	}
	return resp
}

// State is the summary returned for get_state.
type State struct {
	PageConnected bool           `json:"page_connected"`
	Page          map[string]any `json:"page,omitempty"`
	Busy          bool           `json:"busy"`
	Selections    int            `json:"selections"`
	Stats         stats.View     `json:"stats"`
}

func (s *Server) state() State {
	return State{
		PageConnected: s.page.Connected(),
		Page:          s.page.Info(),
		Busy:          s.runner.Busy(),
		Selections:    s.selections.Len(),
		Stats:         s.stats.Formatted(),
	}
}
