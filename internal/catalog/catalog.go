// Package catalog serves the item catalog as an immutable snapshot.
//
// Readers take the current *Snapshot without locking. Writers build a new
// snapshot off to the side and publish it with a single atomic swap, so a
// reader never observes a half-updated catalog and a snapshot it holds
// never changes underneath it.
package catalog

import (
	"sort"
	"strings"
	"sync/atomic"

	"arzmania-cards/internal/domain"
)

type Catalog struct {
	current atomic.Pointer[Snapshot]
}

func New() *Catalog {
	c := &Catalog{}
	c.current.Store(newSnapshot(nil, 0))
	return c
}

// Snapshot returns the catalog as of now.
func (c *Catalog) Snapshot() *Snapshot {
	return c.current.Load()
}

// Publish replaces the catalog with a copy of items.
func (c *Catalog) Publish(items []domain.Item) *Snapshot {
	for {
		old := c.current.Load()
		next := newSnapshot(items, old.generation+1)
		if c.current.CompareAndSwap(old, next) {
			return next
		}
	}
}

type Snapshot struct {
	items      []domain.Item
	byID       map[string]int
	byName     map[string]int
	generation uint64
}

func newSnapshot(items []domain.Item, generation uint64) *Snapshot {
	s := &Snapshot{
		items:      make([]domain.Item, len(items)),
		byID:       make(map[string]int, len(items)),
		byName:     make(map[string]int, len(items)),
		generation: generation,
	}
	copy(s.items, items)
	sort.SliceStable(s.items, func(i, j int) bool {
		ri, rj := s.items[i].Rarity.Index(), s.items[j].Rarity.Index()
		if ri != rj {
			return ri < rj
		}
		return strings.ToLower(s.items[i].Name) < strings.ToLower(s.items[j].Name)
	})
	for i, item := range s.items {
		s.byID[item.ID] = i
		s.byName[nameKey(item.Name)] = i
	}
	return s
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Items returns the catalog ordered by rarity then name. The slice is
// shared by every reader of the snapshot and must not be modified.
func (s *Snapshot) Items() []domain.Item {
	return s.items
}

func (s *Snapshot) Len() int {
	return len(s.items)
}

// Generation increases by one on every publish.
func (s *Snapshot) Generation() uint64 {
	return s.generation
}

func (s *Snapshot) ByID(id string) (domain.Item, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Item{}, false
	}
	return s.items[i], true
}

// ByName looks an item up by name, ignoring case.
func (s *Snapshot) ByName(name string) (domain.Item, bool) {
	i, ok := s.byName[nameKey(name)]
	if !ok {
		return domain.Item{}, false
	}
	return s.items[i], true
}

// CountByRarity reports how many items each tier holds.
func (s *Snapshot) CountByRarity() map[domain.Rarity]int {
	counts := make(map[domain.Rarity]int, len(domain.Rarities))
	for _, item := range s.items {
		counts[item.Rarity]++
	}
	return counts
}
