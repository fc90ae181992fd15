package fort

import (
	"cmp"
	"errors"
	"log/slog"
	"slices"
	"sync"
)

// FortInfo names a fort known to the world.
type FortInfo struct {
	ID   int32
	Name string
}

// DefaultForts lists the frontier fortresses.
var DefaultForts = []FortInfo{
	{ID: 101, Name: "Shanty"},
	{ID: 102, Name: "Southern"},
	{ID: 103, Name: "Hive"},
	{ID: 104, Name: "Valley"},
	{ID: 105, Name: "Ivory"},
	{ID: 106, Name: "Narsell"},
	{ID: 107, Name: "Bayou"},
	{ID: 108, Name: "White Sands"},
	{ID: 109, Name: "Borderland"},
	{ID: 110, Name: "Swamp"},
}

var (
	ErrFortNotFound      = errors.New("fort not found")
	ErrSiegeInProgress   = errors.New("fort siege in progress")
	ErrAlreadyRegistered = errors.New("clan already registered for a fort siege")
	ErrOwnerCannotAttack = errors.New("fort owner cannot attack its fort")
	ErrAlreadyOwnsFort   = errors.New("clan already owns a fort")
)

// OwnerChange is called after a fort changes hands.
type OwnerChange func(fortID, oldOwner, newOwner int32, forced bool)

// Manager holds every fort.
type Manager struct {
	mu      sync.RWMutex
	forts   map[int32]*Fort
	onOwner OwnerChange
}

// NewManager creates a manager for the given forts.
// onOwner may be nil.
func NewManager(forts []FortInfo, onOwner OwnerChange) *Manager {
	m := &Manager{
		forts:   make(map[int32]*Fort, len(forts)),
		onOwner: onOwner,
	}
	for _, info := range forts {
		m.forts[info.ID] = NewFort(info.ID, info.Name)
	}
	slog.Info("fort manager initialized", "forts", len(m.forts))
	return m
}

// Fort returns a fort by ID, or nil.
func (m *Manager) Fort(id int32) *Fort {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.forts[id]
}

// Forts returns every fort ordered by ID.
func (m *Manager) Forts() []*Fort {
	m.mu.RLock()
	out := make([]*Fort, 0, len(m.forts))
	for _, f := range m.forts {
		out = append(out, f)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Fort) int { return cmp.Compare(a.ID(), b.ID()) })
	return out
}

// FortOf returns the fort owned by clanID, or nil.
func (m *Manager) FortOf(clanID int32) *Fort {
	if clanID == 0 {
		return nil
	}
	for _, f := range m.Forts() {
		if f.OwnerClanID() == clanID {
			return f
		}
	}
	return nil
}

// FortOwner returns the owner of fortID, 0 for unowned or unknown forts.
func (m *Manager) FortOwner(fortID int32) int32 {
	f := m.Fort(fortID)
	if f == nil {
		return 0
	}
	return f.OwnerClanID()
}

// RegisterAttacker registers a clan to attack a fort.
func (m *Manager) RegisterAttacker(fortID, clanID int32, clanName string) error {
	f := m.Fort(fortID)
	if f == nil {
		return ErrFortNotFound
	}
	if f.SiegeInProgress() {
		return ErrSiegeInProgress
	}
	if f.OwnerClanID() == clanID {
		return ErrOwnerCannotAttack
	}
	for _, other := range m.Forts() {
		if other.IsAttacker(clanID) {
			return ErrAlreadyRegistered
		}
	}

	f.addAttacker(clanID, clanName)
	slog.Info("fort attacker registered", "fort", f.Name(), "clan_id", clanID)
	return nil
}

// RemoveAttacker drops the clan from every fort siege.
func (m *Manager) RemoveAttacker(clanID int32) {
	for _, f := range m.Forts() {
		if f.removeAttacker(clanID) {
			slog.Info("clan removed from fort siege", "fort", f.Name(), "clan_id", clanID)
		}
	}
}

// StartSiege starts the siege of a fort.
func (m *Manager) StartSiege(fortID int32) error {
	f := m.Fort(fortID)
	if f == nil {
		return ErrFortNotFound
	}
	f.setSiege(true)
	return nil
}

// EndSiege ends the siege of a fort; winner takes the fort unless 0.
func (m *Manager) EndSiege(fortID, winner int32) error {
	f := m.Fort(fortID)
	if f == nil {
		return ErrFortNotFound
	}
	f.setSiege(false)
	if winner != 0 {
		return m.SetOwner(fortID, winner)
	}
	return nil
}

// SetOwner hands the fort to clanID. A clan holds at most one fort.
func (m *Manager) SetOwner(fortID, clanID int32) error {
	f := m.Fort(fortID)
	if f == nil {
		return ErrFortNotFound
	}
	if held := m.FortOf(clanID); held != nil && held.ID() != fortID {
		return ErrAlreadyOwnsFort
	}

	old := f.owner.Swap(clanID)
	slog.Info("fort owner changed", "fort", f.Name(), "old_owner", old, "new_owner", clanID)
	if m.onOwner != nil {
		m.onOwner(fortID, old, clanID, false)
	}
	return nil
}

// RemoveOwner clears the owner of fortID. forced marks a removal not caused
// by a siege, such as the owning clan being dissolved.
func (m *Manager) RemoveOwner(fortID int32, forced bool) {
	f := m.Fort(fortID)
	if f == nil {
		return
	}
	old := f.owner.Swap(0)
	if old == 0 {
		return
	}

	slog.Info("fort owner removed", "fort", f.Name(), "clan_id", old, "forced", forced)
	if m.onOwner != nil {
		m.onOwner(fortID, old, 0, forced)
	}
}
