// Package automation sequences tool selections and tile clicks on the garden
// page: planting, watering and harvesting ranges of tiles and the combined
// run over all saved selections.
package automation

import (
	"context"
	"errors"

	"molehill-mcp/internal/garden"
	"molehill-mcp/internal/selection"
)

var (
	// ErrNoElement marks a page element that does not exist. Automation
	// treats it as nothing to do for that tile or tool.
	ErrNoElement = errors.New("page element not found")
	// ErrBusy is returned when a run is requested while another one is active.
	ErrBusy = errors.New("an automation run is already in progress")
)

// Garden is what automation needs from the game page.
type Garden interface {
	// SelectTool clicks a tool bar affordance (watering can, harvest hand,
	// seed shelf slot).
	SelectTool(ctx context.Context, tool garden.Tool) error
	// ClickTile clicks the tile at v with the selected tool.
	ClickTile(ctx context.Context, v garden.Vector) error
	// TileBackground returns the inline background style of the tile's plant
	// image, "" when nothing is rendered.
	TileBackground(ctx context.Context, v garden.Vector) (string, error)
}

// Recorder receives the statistics of performed actions.
type Recorder interface {
	RecordCheck()
	RecordHarvest(crop garden.SeedType, count int)
	RecordPlant(crop garden.SeedType, count int)
	RecordWater(count int)
	RecordRun(harvested, planted, watered int, failed bool)
}

// Selections lists the saved regions a full run works on.
type Selections interface {
	List() []selection.Selection
}
