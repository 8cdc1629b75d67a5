package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molehill-mcp/internal/automation"
	"molehill-mcp/internal/garden"
	"molehill-mcp/internal/selection"
	"molehill-mcp/internal/stats"
	"molehill-mcp/internal/storage"
)

// fakePage plays the in-page executor: it answers click and background
// commands from a table of known selectors.
type fakePage struct {
	conn *websocket.Conn

	mu          sync.Mutex
	backgrounds map[string]string
	clicked     []string
	silent      bool
}

func dialPage(t *testing.T, srv *httptest.Server) *fakePage {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &fakePage{conn: conn, backgrounds: make(map[string]string)}
}

func (p *fakePage) serve() {
	for {
		var msg Message
		if err := p.conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type != "command" {
			continue
		}
		p.mu.Lock()
		silent := p.silent
		selector, _ := msg.Params["selector"].(string)
		resp := map[string]any{"id": msg.ID, "type": "response"}
		bg, known := p.backgrounds[selector]
		switch {
		case !known:
			resp["success"] = false
			resp["message"] = "not found"
		case msg.Action == ActionClick:
			p.clicked = append(p.clicked, selector)
			resp["success"] = true
		case msg.Action == ActionBackground:
			resp["success"] = true
			resp["data"] = bg
		default:
			resp["success"] = false
			resp["message"] = "unknown action " + msg.Action
		}
		p.mu.Unlock()
		if silent {
			continue
		}
		if err := p.conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func (p *fakePage) send(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, p.conn.WriteJSON(v))
}

func newServer(t *testing.T, timeout time.Duration) (*Bridge, *httptest.Server) {
	t.Helper()
	b := New(timeout)
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return b, srv
}

func connect(t *testing.T, b *Bridge, srv *httptest.Server) *fakePage {
	t.Helper()
	page := dialPage(t, srv)
	require.Eventually(t, b.Connected, time.Second, 5*time.Millisecond)
	return page
}

func TestSendWithoutPage(t *testing.T) {
	b := New(0)
	_, err := b.Send(context.Background(), ActionClick, nil)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, b.ClickTile(context.Background(), garden.V(1, 1)), ErrNotConnected)
}

func TestGardenCommands(t *testing.T) {
	b, srv := newServer(t, time.Second)
	page := connect(t, b, srv)
	page.backgrounds["#gardenTile18"] = ""
	page.backgrounds["#gardenTile18 .plantImage"] = `url("pics/produkte/6_04.gif")`
	page.backgrounds["#ernten"] = ""
	go page.serve()

	ctx := context.Background()
	require.NoError(t, b.SelectTool(ctx, garden.ToolHarvest))
	require.NoError(t, b.ClickTile(ctx, garden.V(1, 2)))

	bg, err := b.TileBackground(ctx, garden.V(1, 2))
	require.NoError(t, err)
	assert.Equal(t, `url("pics/produkte/6_04.gif")`, bg)

	page.mu.Lock()
	assert.Equal(t, []string{"#ernten", "#gardenTile18"}, page.clicked)
	page.mu.Unlock()
}

func TestMissingElement(t *testing.T) {
	b, srv := newServer(t, time.Second)
	page := connect(t, b, srv)
	go page.serve()

	ctx := context.Background()
	assert.ErrorIs(t, b.SelectTool(ctx, garden.SeedTool(garden.Carrot)), automation.ErrNoElement)
	_, err := b.TileBackground(ctx, garden.V(17, 12))
	assert.ErrorIs(t, err, automation.ErrNoElement)
}

func TestTileWithoutPlantImage(t *testing.T) {
	b, srv := newServer(t, time.Second)
	page := connect(t, b, srv)
	page.backgrounds["#gardenTile1"] = `url("pics/garden/soil.gif")`
	page.backgrounds["#regal_6"] = ""
	go page.serve()

	ctx := context.Background()
	bg, err := b.TileBackground(ctx, garden.V(1, 1))
	require.NoError(t, err)
	assert.Empty(t, bg)

	// a bare tile is empty soil and gets planted
	blobs := storage.NewMemory()
	runner := automation.NewRunner(b, selection.NewStore(blobs), stats.NewTracker(blobs), automation.Options{})
	rep, err := runner.PlantRange(ctx, garden.V(1, 1), garden.V(1, 1), garden.Carrot)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Planted)
	assert.Zero(t, rep.Skipped)

	page.mu.Lock()
	assert.Equal(t, []string{"#regal_6", "#gardenTile1"}, page.clicked)
	page.mu.Unlock()
}

func TestRejectedCommand(t *testing.T) {
	b, srv := newServer(t, time.Second)
	page := connect(t, b, srv)
	page.backgrounds["#x"] = ""
	go page.serve()

	_, err := b.command(context.Background(), "scroll", "#x")
	assert.ErrorIs(t, err, ErrRejected)
	assert.NotErrorIs(t, err, automation.ErrNoElement)
}

func TestTimeout(t *testing.T) {
	b, srv := newServer(t, 50*time.Millisecond)
	page := connect(t, b, srv)
	page.backgrounds["#giessen"] = ""
	page.silent = true
	go page.serve()

	err := b.SelectTool(context.Background(), garden.ToolWater)
	assert.ErrorIs(t, err, ErrTimeout)

	b.responsesMu.Lock()
	assert.Empty(t, b.responses)
	b.responsesMu.Unlock()
}

func TestContextCancel(t *testing.T) {
	b, srv := newServer(t, time.Minute)
	page := connect(t, b, srv)
	page.backgrounds["#giessen"] = ""
	page.silent = true
	go page.serve()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.SelectTool(ctx, garden.ToolWater), context.DeadlineExceeded)
}

func TestDisconnectFailsPendingCommands(t *testing.T) {
	b, srv := newServer(t, time.Minute)
	page := connect(t, b, srv)

	errc := make(chan error, 1)
	go func() {
		errc <- b.SelectTool(context.Background(), garden.ToolWater)
	}()

	// wait for the command, then hang up
	var msg Message
	require.NoError(t, page.conn.ReadJSON(&msg))
	assert.Equal(t, "command", msg.Type)
	assert.Equal(t, ActionClick, msg.Action)
	assert.NotEmpty(t, msg.ID)
	page.conn.Close()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrNotConnected)
	case <-time.After(2 * time.Second):
		t.Fatal("pending command not released")
	}
	assert.Eventually(t, func() bool { return !b.Connected() }, time.Second, 5*time.Millisecond)
}

func TestNewConnectionReplacesOld(t *testing.T) {
	b, srv := newServer(t, time.Second)
	first := connect(t, b, srv)

	second := dialPage(t, srv)
	second.backgrounds["#giessen"] = ""
	go second.serve()

	// the first page is hung up on
	first.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := first.conn.ReadMessage()
	require.Error(t, err)
	var ne net.Error
	if errors.As(err, &ne) {
		assert.False(t, ne.Timeout(), "first page should be closed")
	}

	require.Eventually(t, b.Connected, time.Second, 5*time.Millisecond)
	assert.NoError(t, b.SelectTool(context.Background(), garden.ToolWater))
}

func TestHelloAndEvents(t *testing.T) {
	b, srv := newServer(t, time.Second)
	events := make(chan Event, 4)
	b.OnEvent(func(ev Event) { events <- ev })
	page := connect(t, b, srv)

	page.send(t, map[string]any{"type": "hello", "data": map[string]any{"url": "https://example.test/garden"}})
	page.send(t, map[string]any{"type": "event", "action": EventTileClick, "data": map[string]any{"index": 18}})
	page.send(t, map[string]any{"type": "event", "action": EventTileHover, "data": map[string]any{"index": 999}})
	page.send(t, map[string]any{"type": "event", "action": EventTileHover, "data": map[string]any{"index": 204}})

	select {
	case ev := <-events:
		assert.Equal(t, Event{Name: EventTileClick, Tile: garden.V(1, 2)}, ev)
	case <-time.After(time.Second):
		t.Fatal("no click event")
	}
	select {
	case ev := <-events:
		assert.Equal(t, Event{Name: EventTileHover, Tile: garden.V(17, 12)}, ev, "out of range tiles are dropped")
	case <-time.After(time.Second):
		t.Fatal("no hover event")
	}
	assert.Equal(t, map[string]any{"url": "https://example.test/garden"}, b.Info())
}

func TestMessageShape(t *testing.T) {
	data, err := json.Marshal(Message{ID: "1", Type: "command", Action: ActionBackground,
		Params: map[string]any{"selector": plantImageSelector(garden.V(2, 1))}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","type":"command","action":"background","params":{"selector":"#gardenTile2 .plantImage"}}`, string(data))
}

func TestExecutorHandler(t *testing.T) {
	srv := httptest.NewServer(ExecutorHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/executor.js")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "text/javascript; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), `var url = "ws://`+strings.TrimPrefix(srv.URL, "http://")+`/bridge";`)
	assert.NotContains(t, string(body), "{{BRIDGE_URL}}")
	assert.Contains(t, string(body), `resp.message = "bad selector: " + err.message;`)
}
