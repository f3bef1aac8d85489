package agent

import "strings"

// Store resolves agent profiles for sessions and HTTP handlers.
type Store interface {
	List() []Profile
	FindByID(id string) (Profile, bool)
}

// StoreOption adjusts profiles as they are loaded.
type StoreOption func(*Profile)

// WithStructured forces structured result decoding on or off for every
// profile, overriding the seeded value.
func WithStructured(on bool) StoreOption {
	return func(p *Profile) { p.Structured = on }
}

// MemoryStore indexes profiles by agent id and keeps their load order for
// listing. A later profile with the same id replaces the earlier one.
type MemoryStore struct {
	order []string
	byID  map[string]Profile
}

// NewMemoryStore loads profiles, applying opts to each.
func NewMemoryStore(profiles []Profile, opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{byID: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		for _, opt := range opts {
			opt(&p)
		}
		if _, seen := s.byID[p.ID]; !seen {
			s.order = append(s.order, p.ID)
		}
		s.byID[p.ID] = p
	}
	return s
}

// List returns the profiles in load order.
func (s *MemoryStore) List() []Profile {
	out := make([]Profile, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// FindByID looks up a profile. A blank id means DefaultID.
func (s *MemoryStore) FindByID(id string) (Profile, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = DefaultID
	}
	p, ok := s.byID[id]
	return p, ok
}
