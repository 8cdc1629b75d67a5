// Package stats accumulates usage counters of the automation and persists
// them after every change.
package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"sort"
	"sync"
	"time"

	"molehill-mcp/internal/garden"
	"molehill-mcp/internal/storage"
)

// ExportVersion is written into exported backups.
const ExportVersion = "1.0"

// DefaultTopCrops is the number of crops shown in the top crops view.
const DefaultTopCrops = 5

var ErrNoStats = errors.New("backup has no stats")

// CropCount holds the per-crop counters.
type CropCount struct {
	Harvested int `json:"harvested"`
	Planted   int `json:"planted"`
}

// Record is the persisted statistics blob. Durations are milliseconds.
type Record struct {
	TotalChecks          int                           `json:"totalChecks"`
	TotalHarvested       int                           `json:"totalHarvested"`
	TotalPlanted         int                           `json:"totalPlanted"`
	TotalWatered         int                           `json:"totalWatered"`
	TotalAutomationRuns  int                           `json:"totalAutomationRuns"`
	CropStats            map[garden.SeedType]CropCount `json:"cropStats"`
	LastAutomationTime   *int64                        `json:"lastAutomationTime"`
	AutomationErrors     int                           `json:"automationErrors"`
	Uptime               int64                         `json:"uptime"`
	AverageActionsPerRun float64                       `json:"averageActionsPerRun"`
	LongestSession       int64                         `json:"longestSession"`
	TotalSessions        int                           `json:"totalSessions"`
}

func emptyRecord() Record {
	return Record{CropStats: make(map[garden.SeedType]CropCount)}
}

func (r Record) clone() Record {
	out := r
	out.CropStats = maps.Clone(r.CropStats)
	if out.CropStats == nil {
		out.CropStats = make(map[garden.SeedType]CropCount)
	}
	if r.LastAutomationTime != nil {
		t := *r.LastAutomationTime
		out.LastAutomationTime = &t
	}
	return out
}

// Tracker keeps the lifetime record, persisted, and the record of the
// current session, kept in memory only.
type Tracker struct {
	mu      sync.Mutex
	blobs   storage.Blobs
	stats   Record
	session Record
	start   time.Time
	now     func() time.Time
	log     *slog.Logger
}

// NewTracker loads the lifetime record. Unreadable data resets it.
func NewTracker(blobs storage.Blobs) *Tracker {
	t := &Tracker{
		blobs:   blobs,
		session: emptyRecord(),
		now:     time.Now,
		log:     slog.With("component", "stats"),
	}
	t.stats = t.load()
	t.start = t.now()
	return t
}

func (t *Tracker) load() Record {
	data, ok, err := t.blobs.Get(storage.KeyStatistics)
	if err != nil {
		t.log.Error("failed to read statistics", "error", err)
		return emptyRecord()
	}
	if !ok {
		return emptyRecord()
	}
	rec := emptyRecord()
	if err := json.Unmarshal(data, &rec); err != nil {
		t.log.Warn("statistics corrupted, starting fresh", "error", err)
		return emptyRecord()
	}
	if rec.CropStats == nil {
		rec.CropStats = make(map[garden.SeedType]CropCount)
	}
	return rec
}

// save writes the lifetime record; caller must hold mu.
func (t *Tracker) save() {
	data, err := json.Marshal(t.stats)
	if err != nil {
		t.log.Error("failed to marshal statistics", "error", err)
		return
	}
	if err := t.blobs.Put(storage.KeyStatistics, data); err != nil {
		t.log.Error("failed to save statistics", "error", err)
	}
}

// RecordCheck counts one automation check.
func (t *Tracker) RecordCheck() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.TotalChecks++
	t.session.TotalChecks++
	t.save()
}

func (t *Tracker) RecordHarvest(crop garden.SeedType, count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.TotalHarvested += count
	t.session.TotalHarvested += count
	c := t.stats.CropStats[crop]
	c.Harvested += count
	t.stats.CropStats[crop] = c
	t.save()
}

func (t *Tracker) RecordPlant(crop garden.SeedType, count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.TotalPlanted += count
	t.session.TotalPlanted += count
	c := t.stats.CropStats[crop]
	c.Planted += count
	t.stats.CropStats[crop] = c
	t.save()
}

func (t *Tracker) RecordWater(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.TotalWatered += count
	t.session.TotalWatered += count
	t.save()
}

// RecordRun counts one finished automation run. The per-action totals are
// recorded separately; harvested, planted and watered are only logged.
func (t *Tracker) RecordRun(harvested, planted, watered int, failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.TotalAutomationRuns++
	t.session.TotalAutomationRuns++
	now := t.now().UnixMilli()
	t.stats.LastAutomationTime = &now
	if failed {
		t.stats.AutomationErrors++
		t.session.AutomationErrors++
	}
	total := t.stats.TotalHarvested + t.stats.TotalPlanted + t.stats.TotalWatered
	t.stats.AverageActionsPerRun = float64(total) / float64(t.stats.TotalAutomationRuns)
	t.save()

	t.log.Debug("automation run recorded",
		"harvested", harvested, "planted", planted, "watered", watered, "failed", failed)
}

// UpdateSessionTime refreshes the session uptime and the longest session.
func (t *Tracker) UpdateSessionTime() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updateSessionTime()
}

func (t *Tracker) updateSessionTime() {
	uptime := t.now().Sub(t.start).Milliseconds()
	t.session.Uptime = uptime
	if uptime > t.stats.LongestSession {
		t.stats.LongestSession = uptime
	}
	t.save()
}

// StartSession counts a new session and clears the session counters.
func (t *Tracker) StartSession() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.TotalSessions++
	t.session = emptyRecord()
	t.start = t.now()
	t.save()
}

// Reset wipes lifetime and session statistics.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = emptyRecord()
	t.session = emptyRecord()
	t.start = t.now()
	t.save()
	t.log.Info("statistics reset")
}

// Snapshot returns copies of the lifetime and session records.
func (t *Tracker) Snapshot() (lifetime, session Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats.clone(), t.session.clone()
}

// CropTotal is one line of the top crops view.
type CropTotal struct {
	CropType  garden.SeedType `json:"cropType"`
	Name      string          `json:"name"`
	Harvested int             `json:"harvested"`
	Planted   int             `json:"planted"`
	Total     int             `json:"total"`
}

// TopCrops orders crops by planted plus harvested, most active first, and
// keeps at most limit entries.
func (t *Tracker) TopCrops(limit int) []CropTotal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return topCrops(t.stats.CropStats, limit)
}

func topCrops(crops map[garden.SeedType]CropCount, limit int) []CropTotal {
	out := make([]CropTotal, 0, len(crops))
	for crop, c := range crops {
		out = append(out, CropTotal{
			CropType:  crop,
			Name:      garden.CropName(crop),
			Harvested: c.Harvested,
			Planted:   c.Planted,
			Total:     c.Harvested + c.Planted,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].CropType < out[j].CropType
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type backup struct {
	Stats      json.RawMessage `json:"stats"`
	ExportDate string          `json:"exportDate"`
	Version    string          `json:"version"`
}

// Export serializes the lifetime record as a dated backup.
func (t *Tracker) Export() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	raw, err := json.Marshal(t.stats)
	if err != nil {
		return nil, fmt.Errorf("marshal stats: %w", err)
	}
	return json.MarshalIndent(backup{
		Stats:      raw,
		ExportDate: t.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Version:    ExportVersion,
	}, "", "  ")
}

// Import replaces the lifetime record with the one in a backup. Fields the
// backup lacks start from zero.
func (t *Tracker) Import(data []byte) error {
	var b backup
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("parse backup: %w", err)
	}
	if len(b.Stats) == 0 || string(b.Stats) == "null" {
		return ErrNoStats
	}
	rec := emptyRecord()
	if err := json.Unmarshal(b.Stats, &rec); err != nil {
		return fmt.Errorf("parse stats: %w", err)
	}
	if rec.CropStats == nil {
		rec.CropStats = make(map[garden.SeedType]CropCount)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = rec
	t.save()
	t.log.Info("statistics imported", "version", b.Version, "exported", b.ExportDate)
	return nil
}

// ExportFile writes a backup to path.
func (t *Tracker) ExportFile(path string) error {
	data, err := t.Export()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// ImportFile reads a backup from path.
func (t *Tracker) ImportFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	return t.Import(data)
}
