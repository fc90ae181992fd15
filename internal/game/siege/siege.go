package siege

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// State is the phase of a siege.
type State int32

const (
	StateInactive     State = 0
	StateRegistration State = 1
	StateRunning      State = 2
)

// Siege holds the registrations of one castle siege.
type Siege struct {
	castle *Castle
	state  atomic.Int32

	mu      sync.RWMutex
	entries map[int32]Registration
}

// NewSiege creates a siege in the registration phase.
func NewSiege(castle *Castle) *Siege {
	s := &Siege{
		castle:  castle,
		entries: make(map[int32]Registration, 16),
	}
	s.state.Store(int32(StateRegistration))
	return s
}

// Castle returns the besieged castle.
func (s *Siege) Castle() *Castle { return s.castle }

// State returns the current phase.
func (s *Siege) State() State { return State(s.state.Load()) }

// IsInProgress reports whether the siege is running.
func (s *Siege) IsInProgress() bool { return s.State() == StateRunning }

// IsRegistration reports whether clans may register.
func (s *Siege) IsRegistration() bool { return s.State() != StateRunning }

func (s *Siege) register(r Registration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[r.ClanID] = r
}

// Registration returns the clan's entry and whether it exists.
func (s *Siege) Registration(clanID int32) (Registration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.entries[clanID]
	return r, ok
}

// IsClanRegistered reports whether the clan holds any role.
func (s *Siege) IsClanRegistered(clanID int32) bool {
	_, ok := s.Registration(clanID)
	return ok
}

// RemoveClan drops the clan from every role. Reports whether it was present.
func (s *Siege) RemoveClan(clanID int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[clanID]; !ok {
		return false
	}
	delete(s.entries, clanID)
	return true
}

// Approve turns a pending defender into a defender.
func (s *Siege) Approve(clanID int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.entries[clanID]
	if !ok || !r.IsPending() {
		return false
	}
	r.Role = RoleDefender
	s.entries[clanID] = r
	return true
}

// Count returns the number of clans registered with role.
func (s *Siege) Count(role ClanRole) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.entries {
		if r.Role == role {
			n++
		}
	}
	return n
}

// Registrations returns a snapshot ordered by clan ID.
func (s *Siege) Registrations() []Registration {
	s.mu.RLock()
	out := make([]Registration, 0, len(s.entries))
	for _, r := range s.entries {
		out = append(out, r)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Registration) int { return cmp.Compare(a.ClanID, b.ClanID) })
	return out
}

// Start moves the siege to running. The owner joins as defender and
// pending defenders are approved.
func (s *Siege) Start() {
	s.mu.Lock()
	if owner := s.castle.OwnerClanID(); owner > 0 {
		if _, ok := s.entries[owner]; !ok {
			s.entries[owner] = Registration{ClanID: owner, Role: RoleOwner}
		}
	}
	for id, r := range s.entries {
		if r.IsPending() {
			r.Role = RoleDefender
			s.entries[id] = r
		}
	}
	n := len(s.entries)
	s.mu.Unlock()

	s.state.Store(int32(StateRunning))
	slog.Info("siege started", "castle", s.castle.Name(), "clans", n)
}

// End stops the siege and clears every registration.
func (s *Siege) End() {
	s.state.Store(int32(StateInactive))

	s.mu.Lock()
	s.entries = make(map[int32]Registration, 16)
	s.mu.Unlock()

	slog.Info("siege ended", "castle", s.castle.Name())
}
