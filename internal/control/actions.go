package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"molehill-mcp/internal/garden"
	"molehill-mcp/internal/selection"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrInvalidParams = errors.New("invalid params")
)

type rangeParams struct {
	From     garden.Vector   `json:"from"`
	To       garden.Vector   `json:"to"`
	SeedType garden.SeedType `json:"seedType"`
}

func (p rangeParams) validate(needSeed bool) error {
	if !garden.InBounds(p.From) || !garden.InBounds(p.To) {
		return fmt.Errorf("%s to %s: %w", p.From, p.To, selection.ErrOutOfBounds)
	}
	if needSeed && p.SeedType <= 0 {
		return fmt.Errorf("%w: seedType is required", ErrInvalidParams)
	}
	return nil
}

type selectionParams struct {
	Point1   garden.Vector   `json:"point1"`
	Point2   garden.Vector   `json:"point2"`
	SeedType garden.SeedType `json:"seedType"`
}

type indexParams struct {
	Index *int `json:"index"`
}

func decode(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return fmt.Errorf("%w: missing params", ErrInvalidParams)
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func decodeRange(params json.RawMessage, needSeed bool) (rangeParams, error) {
	var p rangeParams
	if err := decode(params, &p); err != nil {
		return p, err
	}
	return p, p.validate(needSeed)
}

// execute runs one remote action and returns its result.
func (s *Server) execute(ctx context.Context, action string, params json.RawMessage) (any, error) {
	switch action {
	case "plant_range":
		p, err := decodeRange(params, true)
		if err != nil {
			return nil, err
		}
		return s.runner.PlantRange(ctx, p.From, p.To, p.SeedType)
	case "water_range":
		p, err := decodeRange(params, false)
		if err != nil {
			return nil, err
		}
		return s.runner.WaterRange(ctx, p.From, p.To)
	case "harvest_range":
		p, err := decodeRange(params, false)
		if err != nil {
			return nil, err
		}
		return s.runner.HarvestRange(ctx, p.From, p.To)
	case "plant_and_water_range":
		p, err := decodeRange(params, true)
		if err != nil {
			return nil, err
		}
		return s.runner.PlantAndWaterRange(ctx, p.From, p.To, p.SeedType)
	case "plant_all_selections":
		return s.runner.PlantAllSelections(ctx)
	case "check_and_harvest":
		return s.runner.CheckAndHarvest(ctx)
	case "list_selections":
		return s.selections.List(), nil
	case "add_selection":
		var p selectionParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		if p.SeedType <= 0 {
			return nil, fmt.Errorf("%w: seedType is required", ErrInvalidParams)
		}
		return s.selections.Add(p.Point1, p.Point2, p.SeedType)
	case "delete_selection":
		var p indexParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		if p.Index == nil {
			return nil, fmt.Errorf("%w: index is required", ErrInvalidParams)
		}
		if err := s.selections.Delete(*p.Index); err != nil {
			return nil, err
		}
		return s.selections.List(), nil
	case "clear_selections":
		if err := s.selections.Clear(); err != nil {
			return nil, err
		}
		return s.selections.List(), nil
	case "get_stats":
		return s.stats.Formatted(), nil
	case "reset_stats":
		s.stats.Reset()
		return s.stats.Formatted(), nil
	case "export_stats":
		data, err := s.stats.Export()
		if err != nil {
			return nil, err
		}
		return json.RawMessage(data), nil
	case "import_stats":
		if len(params) == 0 {
			return nil, fmt.Errorf("%w: missing backup", ErrInvalidParams)
		}
		if err := s.stats.Import(params); err != nil {
			return nil, err
		}
		return s.stats.Formatted(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}
