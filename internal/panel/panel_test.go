package panel

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molehill-mcp/internal/automation"
	"molehill-mcp/internal/bridge"
	"molehill-mcp/internal/garden"
	"molehill-mcp/internal/selection"
	"molehill-mcp/internal/stats"
	"molehill-mcp/internal/storage"
)

type offline struct{}

func (offline) Connected() bool { return false }

func newPanel(t *testing.T) *Panel {
	t.Helper()
	blobs := storage.NewMemory()
	sels := selection.NewStore(blobs)
	tracker := stats.NewTracker(blobs)
	runner := automation.NewRunner(nil, sels, tracker, automation.Options{})
	return New(runner, sels, tracker, offline{})
}

func TestParseCorners(t *testing.T) {
	a, b, err := parseCorners([4]string{"3", " 4", "1 ", "2"})
	require.NoError(t, err)
	assert.Equal(t, garden.V(3, 4), a)
	assert.Equal(t, garden.V(1, 2), b)

	_, _, err = parseCorners([4]string{"3", "", "1", "2"})
	assert.EqualError(t, err, "Corner 1 y: enter a number")
}

func TestAddFormValues(t *testing.T) {
	p := newPanel(t)
	p.addForm.setCorners(garden.V(5, 6), garden.V(2, 1))
	p.addForm.seed.SetCurrentOption(3)

	a, b, seed, err := p.addForm.values()
	require.NoError(t, err)
	assert.Equal(t, garden.V(5, 6), a)
	assert.Equal(t, garden.V(2, 1), b)
	assert.Equal(t, garden.KnownSeeds()[3], seed)

	p.addForm.reset()
	_, _, _, err = p.addForm.values()
	assert.Error(t, err)
}

func TestSelectionLabel(t *testing.T) {
	sel := selection.Selection{Point1: garden.V(1, 1), Point2: garden.V(3, 2), SeedType: garden.Carrot}
	label := selectionLabel(0, sel)
	assert.True(t, strings.HasPrefix(label, "[#f39c12]"), label)
	assert.Contains(t, label, "1. Carrot: (1, 1) to (3, 2) (6 tiles)")
}

func TestCropColor(t *testing.T) {
	assert.Equal(t, tcell.NewHexColor(0x2ecc71), cropColor(garden.Lettuce))
	assert.Equal(t, "[#2ecc71]", colorTag(cropColor(garden.Lettuce)))
	// generated crops still get a usable colour
	assert.NotEqual(t, tcell.ColorDefault, cropColor(garden.SeedType(99)))
}

func TestStatsText(t *testing.T) {
	blobs := storage.NewMemory()
	tracker := stats.NewTracker(blobs)
	tracker.RecordHarvest(garden.Radish, 1500)
	tracker.RecordPlant(garden.Radish, 20)

	text := statsText(tracker.Formatted())
	assert.Contains(t, text, "Harvested                1,500")
	assert.Contains(t, text, "Last run                 Never")
	assert.Contains(t, text, "[#e74c3c]■[-] Radish")
	assert.NotContains(t, text, "No crops yet.")

	assert.Contains(t, statsText(stats.NewTracker(storage.NewMemory()).Formatted()), "No crops yet.")
}

func TestDefaultExportName(t *testing.T) {
	assert.Equal(t, "molehill-stats-2026-03-01.json",
		defaultExportName(time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)))
}

func TestTileEventsPickCorners(t *testing.T) {
	p := newPanel(t)

	// ignored until picking starts
	p.TileEvent(bridge.Event{Name: bridge.EventTileClick, Tile: garden.V(2, 2)})
	_, ok := p.picker.First()
	assert.False(t, ok)

	p.startPicking()
	p.TileEvent(bridge.Event{Name: bridge.EventTileClick, Tile: garden.V(4, 5)})
	p.TileEvent(bridge.Event{Name: bridge.EventTileHover, Tile: garden.V(2, 3)})
	r, ok := p.picker.Preview()
	require.True(t, ok)
	assert.Equal(t, garden.NewRect(garden.V(2, 3), garden.V(4, 5)), r)
	assert.True(t, p.picking)

	p.TileEvent(bridge.Event{Name: bridge.EventTileClick, Tile: garden.V(1, 1)})
	assert.False(t, p.picking)
	_, ok = p.picker.First()
	assert.False(t, ok, "picker is reset once both corners are known")
}

func TestPickStatus(t *testing.T) {
	var pk selection.Picker
	assert.Equal(t, "Click the first corner in the garden.", pickStatus(&pk))
	pk.Click(garden.V(1, 1))
	pk.Hover(garden.V(2, 2))
	assert.Equal(t, "Selecting (1, 1) to (2, 2) (4 tiles), click the opposite corner.", pickStatus(&pk))
	pk.Click(garden.V(3, 1))
	assert.Equal(t, "Picked (1, 1) to (3, 1) (3 tiles).", pickStatus(&pk))
}

func TestFillSelections(t *testing.T) {
	p := newPanel(t)
	p.fillSelections()
	assert.Equal(t, 1, p.selList.GetItemCount())
	main, _ := p.selList.GetItemText(0)
	assert.Equal(t, "No saved selections.", main)

	_, err := p.selections.Add(garden.V(1, 1), garden.V(2, 2), garden.Tomato)
	require.NoError(t, err)
	_, err = p.selections.Add(garden.V(5, 5), garden.V(6, 6), garden.Lettuce)
	require.NoError(t, err)
	p.switchTo(pageSelections)
	assert.Equal(t, 2, p.selList.GetItemCount())
	assert.Equal(t, pageSelections, p.currentPage())
}
