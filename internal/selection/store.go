// Package selection manages the saved garden regions, each planted with one
// seed type.
package selection

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"molehill-mcp/internal/garden"
	"molehill-mcp/internal/storage"
)

var (
	ErrOverlap     = errors.New("selection overlaps an existing selection")
	ErrOutOfBounds = errors.New("selection leaves the garden")
	ErrNoSelection = errors.New("no such selection")
)

// Selection is a normalized rectangle of tiles and the seed planted in it.
type Selection struct {
	Point1   garden.Vector   `json:"point1"`
	Point2   garden.Vector   `json:"point2"`
	SeedType garden.SeedType `json:"seedType"`
}

func (s Selection) Rect() garden.Rect {
	return garden.Rect{Point1: s.Point1, Point2: s.Point2}
}

func (s Selection) String() string {
	return fmt.Sprintf("%s %s", garden.CropName(s.SeedType), s.Rect())
}

// Store holds the saved selections and rewrites the whole list on every
// change.
type Store struct {
	mu    sync.Mutex
	blobs storage.Blobs
	list  []Selection
	log   *slog.Logger
}

// NewStore loads the saved selections. Unreadable data is discarded.
func NewStore(blobs storage.Blobs) *Store {
	s := &Store{
		blobs: blobs,
		log:   slog.With("component", "selection"),
	}
	s.list = s.load()
	return s
}

func (s *Store) load() []Selection {
	data, ok, err := s.blobs.Get(storage.KeySelections)
	if err != nil {
		s.log.Error("failed to read saved selections", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var list []Selection
	if err := json.Unmarshal(data, &list); err != nil {
		s.log.Warn("saved selections corrupted, starting fresh", "error", err)
		return nil
	}
	for i := range list {
		r := list[i].Rect().Normalize()
		list[i].Point1, list[i].Point2 = r.Point1, r.Point2
	}
	return list
}

func (s *Store) save() error {
	list := s.list
	if list == nil {
		list = []Selection{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal selections: %w", err)
	}
	return s.blobs.Put(storage.KeySelections, data)
}

// List returns a copy of the saved selections in creation order.
func (s *Store) List() []Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Selection(nil), s.list...)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.list)
}

// Add saves the rectangle spanned by two arbitrary corners.
func (s *Store) Add(a, b garden.Vector, seed garden.SeedType) (Selection, error) {
	r := garden.NewRect(a, b)
	if !r.InBounds() {
		return Selection{}, fmt.Errorf("%s: %w", r, ErrOutOfBounds)
	}
	sel := Selection{Point1: r.Point1, Point2: r.Point2, SeedType: seed}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.list {
		if existing.Rect().Overlaps(r) {
			return Selection{}, fmt.Errorf("%s intersects %s: %w", r, existing.Rect(), ErrOverlap)
		}
	}
	s.list = append(s.list, sel)
	if err := s.save(); err != nil {
		s.list = s.list[:len(s.list)-1]
		return Selection{}, err
	}
	s.log.Info("selection saved", "area", r.String(), "crop", garden.CropName(seed))
	return sel, nil
}

// Delete removes the selection at index.
func (s *Store) Delete(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.list) {
		return fmt.Errorf("index %d: %w", index, ErrNoSelection)
	}
	prev := s.list
	next := make([]Selection, 0, len(prev)-1)
	next = append(next, prev[:index]...)
	next = append(next, prev[index+1:]...)
	s.list = next
	if err := s.save(); err != nil {
		s.list = prev
		return err
	}
	s.log.Info("selection deleted", "index", index)
	return nil
}

// Clear removes every saved selection.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.list
	s.list = nil
	if err := s.save(); err != nil {
		s.list = prev
		return err
	}
	s.log.Info("selections cleared", "count", len(prev))
	return nil
}
