package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"molehill-mcp/internal/garden"
	"molehill-mcp/internal/selection"
)

// Options holds the pacing of a run.
type Options struct {
	// ClickDelay separates consecutive clicks so the page can process them.
	ClickDelay time.Duration
	// SettleDelay separates the passes of a run (plant, then water).
	SettleDelay time.Duration
}

// DefaultOptions returns the pacing the page copes with.
func DefaultOptions() Options {
	return Options{
		ClickDelay:  50 * time.Millisecond,
		SettleDelay: 5 * time.Second,
	}
}

// Report summarizes one operation.
type Report struct {
	Harvested int    `json:"harvested"`
	Planted   int    `json:"planted"`
	Watered   int    `json:"watered"`
	Skipped   int    `json:"skipped"`
	Status    string `json:"status"`
}

func (r Report) actions() int {
	return r.Harvested + r.Planted + r.Watered
}

// Runner performs automation on a Garden. Only one operation runs at a time.
type Runner struct {
	garden     Garden
	selections Selections
	stats      Recorder
	opts       Options

	mu  sync.Mutex
	log *slog.Logger
}

func NewRunner(g Garden, selections Selections, stats Recorder, opts Options) *Runner {
	return &Runner{
		garden:     g,
		selections: selections,
		stats:      stats,
		opts:       opts,
		log:        slog.With("component", "automation"),
	}
}

// Busy reports whether an operation is in progress.
func (r *Runner) Busy() bool {
	if r.mu.TryLock() {
		r.mu.Unlock()
		return false
	}
	return true
}

func (r *Runner) acquire() error {
	if !r.mu.TryLock() {
		return ErrBusy
	}
	return nil
}

// target is a tile to work on together with the crop it belongs to.
type target struct {
	pos  garden.Vector
	seed garden.SeedType
}

func rangeTargets(a, b garden.Vector, seed garden.SeedType) []target {
	var out []target
	for _, pos := range garden.NewRect(a, b).Positions() {
		out = append(out, target{pos: pos, seed: seed})
	}
	return out
}

func selectionTargets(sels []selection.Selection) []target {
	var out []target
	for _, s := range sels {
		for _, pos := range s.Rect().Positions() {
			out = append(out, target{pos: pos, seed: s.SeedType})
		}
	}
	return out
}

// scan reads the current state of every target and keeps those accepted by
// qualifies. Missing tiles are counted as skipped.
func (r *Runner) scan(ctx context.Context, targets []target, qualifies func(bg string) bool) (hits []target, skipped int, err error) {
	for _, t := range targets {
		bg, err := r.garden.TileBackground(ctx, t.pos)
		if errors.Is(err, ErrNoElement) {
			skipped++
			continue
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("read tile %s: %w", t.pos, err)
		}
		if qualifies(bg) {
			if t.seed == 0 {
				t.seed, _ = garden.CropFromBackground(bg)
			}
			hits = append(hits, t)
		}
	}
	return hits, skipped, nil
}

// apply selects tool once and clicks every target, pacing the clicks. It
// returns the targets actually clicked.
func (r *Runner) apply(ctx context.Context, tool garden.Tool, targets []target) (done []target, skipped int, err error) {
	if len(targets) == 0 {
		return nil, 0, nil
	}
	if err := r.garden.SelectTool(ctx, tool); err != nil {
		if errors.Is(err, ErrNoElement) {
			r.log.Warn("tool not available, skipping", "tool", tool, "tiles", len(targets))
			return nil, len(targets), nil
		}
		return nil, 0, fmt.Errorf("select %s: %w", tool, err)
	}
	if err := sleep(ctx, r.opts.ClickDelay); err != nil {
		return nil, 0, err
	}
	for _, t := range targets {
		err := r.garden.ClickTile(ctx, t.pos)
		switch {
		case errors.Is(err, ErrNoElement):
			skipped++
		case err != nil:
			return done, skipped, fmt.Errorf("click %s: %w", t.pos, err)
		default:
			done = append(done, t)
		}
		if err := sleep(ctx, r.opts.ClickDelay); err != nil {
			return done, skipped, err
		}
	}
	return done, skipped, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func bySeed(targets []target) map[garden.SeedType]int {
	counts := make(map[garden.SeedType]int)
	for _, t := range targets {
		counts[t.seed]++
	}
	return counts
}

func (r *Runner) harvest(ctx context.Context, targets []target, rep *Report) error {
	hits, skipped, err := r.scan(ctx, targets, garden.IsFullyGrown)
	rep.Skipped += skipped
	if err != nil {
		return err
	}
	done, skipped, err := r.apply(ctx, garden.ToolHarvest, hits)
	rep.Skipped += skipped
	rep.Harvested += len(done)
	for seed, n := range bySeed(done) {
		r.stats.RecordHarvest(seed, n)
	}
	return err
}

// plant works through targets grouped by seed, in order of first appearance,
// so each seed is picked from the shelf once.
func (r *Runner) plant(ctx context.Context, targets []target, rep *Report) error {
	var order []garden.SeedType
	groups := make(map[garden.SeedType][]target)
	for _, t := range targets {
		if _, ok := groups[t.seed]; !ok {
			order = append(order, t.seed)
		}
		groups[t.seed] = append(groups[t.seed], t)
	}
	for _, seed := range order {
		hits, skipped, err := r.scan(ctx, groups[seed], garden.IsEmpty)
		rep.Skipped += skipped
		if err != nil {
			return err
		}
		done, skipped, err := r.apply(ctx, garden.SeedTool(seed), hits)
		rep.Skipped += skipped
		rep.Planted += len(done)
		if len(done) > 0 {
			r.stats.RecordPlant(seed, len(done))
		}
		if err != nil {
			return err
		}
		r.log.Debug("planted", "crop", garden.CropName(seed), "tiles", len(done))
	}
	return nil
}

func (r *Runner) water(ctx context.Context, targets []target, rep *Report) error {
	hits, skipped, err := r.scan(ctx, targets, garden.CanWater)
	rep.Skipped += skipped
	if err != nil {
		return err
	}
	done, skipped, err := r.apply(ctx, garden.ToolWater, hits)
	rep.Skipped += skipped
	rep.Watered += len(done)
	if len(done) > 0 {
		r.stats.RecordWater(len(done))
	}
	return err
}

// PlantRange plants seed on every empty tile of the rectangle a-b.
func (r *Runner) PlantRange(ctx context.Context, a, b garden.Vector, seed garden.SeedType) (Report, error) {
	if err := r.acquire(); err != nil {
		return Report{}, err
	}
	defer r.mu.Unlock()

	r.log.Info("planting range", "crop", garden.CropName(seed), "from", a.String(), "to", b.String())
	var rep Report
	err := r.plant(ctx, rangeTargets(a, b, seed), &rep)
	return r.finish("plant", rep, err)
}

// WaterRange waters every waterable tile of the rectangle a-b.
func (r *Runner) WaterRange(ctx context.Context, a, b garden.Vector) (Report, error) {
	if err := r.acquire(); err != nil {
		return Report{}, err
	}
	defer r.mu.Unlock()

	r.log.Info("watering range", "from", a.String(), "to", b.String())
	var rep Report
	err := r.water(ctx, rangeTargets(a, b, 0), &rep)
	return r.finish("water", rep, err)
}

// HarvestRange harvests every fully grown tile of the rectangle a-b.
func (r *Runner) HarvestRange(ctx context.Context, a, b garden.Vector) (Report, error) {
	if err := r.acquire(); err != nil {
		return Report{}, err
	}
	defer r.mu.Unlock()

	r.log.Info("harvesting range", "from", a.String(), "to", b.String())
	var rep Report
	err := r.harvest(ctx, rangeTargets(a, b, 0), &rep)
	return r.finish("harvest", rep, err)
}

// PlantAndWaterRange plants the rectangle, lets the page settle and waters
// the same tiles.
func (r *Runner) PlantAndWaterRange(ctx context.Context, a, b garden.Vector, seed garden.SeedType) (Report, error) {
	if err := r.acquire(); err != nil {
		return Report{}, err
	}
	defer r.mu.Unlock()

	r.log.Info("planting and watering range", "crop", garden.CropName(seed), "from", a.String(), "to", b.String())
	targets := rangeTargets(a, b, seed)
	var rep Report
	err := r.plant(ctx, targets, &rep)
	if err == nil {
		err = sleep(ctx, r.opts.SettleDelay)
	}
	if err == nil {
		err = r.water(ctx, targets, &rep)
	}
	return r.finish("plant and water", rep, err)
}

// PlantAllSelections runs the full sequence over every saved selection:
// harvest what is grown, plant what is empty, water what can be watered.
// Every pass reads the tiles again. The run is recorded in the statistics.
func (r *Runner) PlantAllSelections(ctx context.Context) (Report, error) {
	if err := r.acquire(); err != nil {
		return Report{}, err
	}
	defer r.mu.Unlock()
	return r.plantAll(ctx)
}

func (r *Runner) plantAll(ctx context.Context) (Report, error) {
	sels := r.selections.List()
	if len(sels) == 0 {
		return Report{Status: "No saved selections to plant."}, nil
	}
	r.log.Info("automation run starting", "selections", len(sels))
	targets := selectionTargets(sels)

	var rep Report
	err := r.harvest(ctx, targets, &rep)
	if err == nil && rep.Harvested > 0 {
		err = sleep(ctx, r.opts.SettleDelay)
	}
	if err == nil {
		err = r.plant(ctx, targets, &rep)
	}
	if err == nil && rep.Planted > 0 {
		err = sleep(ctx, r.opts.SettleDelay)
	}
	if err == nil {
		err = r.water(ctx, targets, &rep)
	}

	r.stats.RecordRun(rep.Harvested, rep.Planted, rep.Watered, err != nil)
	return r.finish("automation run", rep, err)
}

// CheckAndHarvest counts one automation check and, when any saved selection
// holds a fully grown crop, runs the full sequence so the freed tiles are
// replanted and watered.
func (r *Runner) CheckAndHarvest(ctx context.Context) (Report, error) {
	if err := r.acquire(); err != nil {
		return Report{}, err
	}
	defer r.mu.Unlock()

	r.stats.RecordCheck()
	sels := r.selections.List()
	grown, _, err := r.scan(ctx, selectionTargets(sels), garden.IsFullyGrown)
	if err != nil {
		return r.finish("check", Report{}, err)
	}
	if len(grown) == 0 {
		r.log.Debug("nothing ready for harvest", "selections", len(sels))
		return Report{Status: "Nothing ready for harvest."}, nil
	}
	r.log.Info("crops ready for harvest", "tiles", len(grown))
	return r.plantAll(ctx)
}

// AutoHarvest calls CheckAndHarvest every interval until ctx is done.
func (r *Runner) AutoHarvest(ctx context.Context, interval time.Duration) {
	r.log.Info("auto-harvest enabled", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("auto-harvest stopped")
			return
		case <-ticker.C:
			rep, err := r.CheckAndHarvest(ctx)
			switch {
			case errors.Is(err, ErrBusy):
				r.log.Debug("auto-harvest check skipped, run in progress")
			case err != nil && ctx.Err() == nil:
				r.log.Error("auto-harvest check failed", "error", err)
			case rep.actions() > 0:
				r.log.Info("auto-harvest check done", "status", rep.Status)
			}
		}
	}
}

func (r *Runner) finish(op string, rep Report, err error) (Report, error) {
	if err != nil {
		rep.Status = fmt.Sprintf("Error during %s: %v", op, err)
		r.log.Error(op+" failed", "error", err,
			"harvested", rep.Harvested, "planted", rep.Planted, "watered", rep.Watered)
		return rep, err
	}
	rep.Status = fmt.Sprintf("Harvested %d, planted %d, watered %d tiles.", rep.Harvested, rep.Planted, rep.Watered)
	if rep.Skipped > 0 {
		rep.Status += fmt.Sprintf(" %d skipped.", rep.Skipped)
	}
	r.log.Info(op+" complete",
		"harvested", rep.Harvested, "planted", rep.Planted, "watered", rep.Watered, "skipped", rep.Skipped)
	return rep, nil
}
