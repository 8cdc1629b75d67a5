package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"molehill-mcp/internal/automation"
	"molehill-mcp/internal/garden"
)

// Page commands understood by the executor.
const (
	ActionClick      = "click"
	ActionBackground = "background"
)

// notFound is the message the executor answers with when a selector
// matches nothing.
const notFound = "not found"

func tileSelector(v garden.Vector) string {
	return fmt.Sprintf("#gardenTile%d", garden.TileIndex(v))
}

func plantImageSelector(v garden.Vector) string {
	return tileSelector(v) + " .plantImage"
}

func toolSelector(tool garden.Tool) string {
	return "#" + string(tool)
}

func (b *Bridge) command(ctx context.Context, action, selector string) (*Response, error) {
	resp, err := b.Send(ctx, action, map[string]any{"selector": selector})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		if resp.Message == notFound {
			return nil, fmt.Errorf("%s: %w", selector, automation.ErrNoElement)
		}
		return nil, fmt.Errorf("%s %s: %w: %s", action, selector, ErrRejected, resp.Message)
	}
	return resp, nil
}

// SelectTool clicks the tool bar element of tool.
func (b *Bridge) SelectTool(ctx context.Context, tool garden.Tool) error {
	_, err := b.command(ctx, ActionClick, toolSelector(tool))
	return err
}

// ClickTile clicks the garden tile at v.
func (b *Bridge) ClickTile(ctx context.Context, v garden.Vector) error {
	_, err := b.command(ctx, ActionClick, tileSelector(v))
	return err
}

// TileBackground reads the inline background style of the plant image at v.
// A tile without a plant image reads as "".
func (b *Bridge) TileBackground(ctx context.Context, v garden.Vector) (string, error) {
	resp, err := b.command(ctx, ActionBackground, plantImageSelector(v))
	if errors.Is(err, automation.ErrNoElement) {
		if _, err := b.command(ctx, ActionBackground, tileSelector(v)); err != nil {
			return "", err
		}
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var bg string
	if len(resp.Data) > 0 && string(resp.Data) != "null" {
		if err := json.Unmarshal(resp.Data, &bg); err != nil {
			return "", fmt.Errorf("background of %s: %w", v, err)
		}
	}
	return bg, nil
}

var _ automation.Garden = (*Bridge)(nil)
