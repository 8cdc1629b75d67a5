package bridge

import (
	"encoding/json"

	"molehill-mcp/internal/garden"
)

// Page events.
const (
	EventTileClick = "tile_click"
	EventTileHover = "tile_hover"
)

// Event is a user interaction with a garden tile, reported by the page.
type Event struct {
	Name string
	Tile garden.Vector
}

type eventData struct {
	Index int `json:"index"`
}

func (b *Bridge) handleEvent(resp *Response) {
	var data eventData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		b.log.Warn("failed to parse page event", "event", resp.Action, "error", err)
		return
	}
	tile := garden.TileCoords(data.Index)
	if !garden.InBounds(tile) {
		b.log.Debug("event outside the garden", "event", resp.Action, "index", data.Index)
		return
	}

	b.mu.RLock()
	fn := b.onEvent
	b.mu.RUnlock()
	if fn != nil {
		fn(Event{Name: resp.Action, Tile: tile})
	}
}
