package assignment

import (
	"slices"
	"sync"
)

// Selection is the set of order ids the operator has picked. It lives as long
// as the session's assignment view and is keyed by id only, so it survives
// switching zone or time-slot tabs.
type Selection struct {
	mu  sync.RWMutex
	ids map[uint]struct{}
}

func NewSelection() *Selection {
	return &Selection{ids: make(map[uint]struct{})}
}

// Toggle flips one id and reports whether it is now selected.
func (s *Selection) Toggle(id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Add selects ids, keeping whatever was already selected.
func (s *Selection) Add(ids ...uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// Remove deselects ids.
func (s *Selection) Remove(ids ...uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.ids, id)
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.ids)
}

func (s *Selection) Has(id uint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []uint {
	s.mu.RLock()
	out := make([]uint, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	s.mu.RUnlock()
	slices.Sort(out)
	return out
}
