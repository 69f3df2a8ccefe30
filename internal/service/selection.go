package service

import (
	"slices"
	"sync"
)

// Selection is the set of request ids picked for a bulk action.
type Selection struct {
	mu  sync.Mutex
	ids map[uint]struct{}
}

func NewSelection() *Selection {
	return &Selection{ids: make(map[uint]struct{})}
}

// Toggle adds id if absent and removes it otherwise. It reports whether id
// is selected afterwards.
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

func (s *Selection) Add(ids ...uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

func (s *Selection) Contains(id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.ids)
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Selections keeps one selection per member.
type Selections struct {
	mu       sync.Mutex
	byMember map[uint]*Selection
}

func NewSelections() *Selections {
	return &Selections{byMember: make(map[uint]*Selection)}
}

// For returns member's selection, creating it on first use.
func (s *Selections) For(member uint) *Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, ok := s.byMember[member]
	if !ok {
		sel = NewSelection()
		s.byMember[member] = sel
	}
	return sel
}
