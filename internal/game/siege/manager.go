package siege

import (
	"cmp"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// CastleInfo names a castle known to the world.
type CastleInfo struct {
	ID   int32
	Name string
}

// DefaultCastles are the nine castles of the world.
var DefaultCastles = []CastleInfo{
	{ID: 1, Name: "Gludio"},
	{ID: 2, Name: "Dion"},
	{ID: 3, Name: "Giran"},
	{ID: 4, Name: "Oren"},
	{ID: 5, Name: "Aden"},
	{ID: 6, Name: "Innadril"},
	{ID: 7, Name: "Goddard"},
	{ID: 8, Name: "Rune"},
	{ID: 9, Name: "Schuttgart"},
}

// DefaultClanMinLevel is the lowest clan level allowed to register.
const DefaultClanMinLevel = 4

var (
	ErrCastleNotFound        = errors.New("castle not found")
	ErrSiegeInProgress       = errors.New("siege in progress")
	ErrClanAlreadyRegistered = errors.New("clan already registered")
	ErrClanLevelTooLow       = errors.New("clan level too low for siege")
	ErrOwnerCannotAttack     = errors.New("castle owner cannot register as attacker")
	ErrNotPending            = errors.New("clan is not a pending defender")
)

// Manager holds every castle and its siege.
type Manager struct {
	mu       sync.RWMutex
	castles  map[int32]*Castle
	minLevel int32
}

// NewManager creates a manager for the given castles.
func NewManager(castles []CastleInfo, minLevel int32) *Manager {
	m := &Manager{
		castles:  make(map[int32]*Castle, len(castles)),
		minLevel: minLevel,
	}
	for _, info := range castles {
		m.castles[info.ID] = NewCastle(info.ID, info.Name)
	}
	slog.Info("siege manager initialized", "castles", len(m.castles))
	return m
}

// Castle returns a castle by ID, or nil.
func (m *Manager) Castle(id int32) *Castle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.castles[id]
}

// CastleByName returns a castle by name, case-insensitive, or nil.
func (m *Manager) CastleByName(name string) *Castle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.castles {
		if strings.EqualFold(c.Name(), name) {
			return c
		}
	}
	return nil
}

// Castles returns every castle ordered by ID.
func (m *Manager) Castles() []*Castle {
	m.mu.RLock()
	out := make([]*Castle, 0, len(m.castles))
	for _, c := range m.castles {
		out = append(out, c)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Castle) int { return cmp.Compare(a.ID(), b.ID()) })
	return out
}

// CastleOf returns the castle owned by clanID, or nil.
func (m *Manager) CastleOf(clanID int32) *Castle {
	if clanID == 0 {
		return nil
	}
	for _, c := range m.Castles() {
		if c.OwnerClanID() == clanID {
			return c
		}
	}
	return nil
}

func (m *Manager) openSiege(castleID, clanID, clanLevel int32) (*Castle, *Siege, error) {
	c := m.Castle(castleID)
	if c == nil {
		return nil, nil, ErrCastleNotFound
	}
	s := c.Siege()
	if s.IsInProgress() {
		return nil, nil, ErrSiegeInProgress
	}
	if clanLevel < m.minLevel {
		return nil, nil, ErrClanLevelTooLow
	}
	if _, registered := m.IsClanRegistered(clanID); registered {
		return nil, nil, ErrClanAlreadyRegistered
	}
	return c, s, nil
}

// RegisterAttacker registers a clan to attack a castle.
func (m *Manager) RegisterAttacker(castleID, clanID int32, clanName string, clanLevel int32) error {
	c, s, err := m.openSiege(castleID, clanID, clanLevel)
	if err != nil {
		return err
	}
	if c.OwnerClanID() == clanID {
		return ErrOwnerCannotAttack
	}

	s.register(Registration{ClanID: clanID, ClanName: clanName, Role: RoleAttacker})
	slog.Info("siege attacker registered", "castle", c.Name(), "clan_id", clanID)
	return nil
}

// RegisterDefender registers a clan to defend a castle. Defenders of an
// owned castle wait for approval.
func (m *Manager) RegisterDefender(castleID, clanID int32, clanName string, clanLevel int32) error {
	c, s, err := m.openSiege(castleID, clanID, clanLevel)
	if err != nil {
		return err
	}

	role := RoleDefender
	if c.HasOwner() {
		role = RoleDefenderPending
	}
	s.register(Registration{ClanID: clanID, ClanName: clanName, Role: role})
	slog.Info("siege defender registered", "castle", c.Name(), "clan_id", clanID, "pending", role == RoleDefenderPending)
	return nil
}

// ApproveDefender approves a pending defender.
func (m *Manager) ApproveDefender(castleID, clanID int32) error {
	c := m.Castle(castleID)
	if c == nil {
		return ErrCastleNotFound
	}
	if !c.Siege().Approve(clanID) {
		return ErrNotPending
	}
	return nil
}

// Unregister removes a clan from one castle's siege.
func (m *Manager) Unregister(castleID, clanID int32) error {
	c := m.Castle(castleID)
	if c == nil {
		return ErrCastleNotFound
	}
	s := c.Siege()
	if s.IsInProgress() {
		return ErrSiegeInProgress
	}
	s.RemoveClan(clanID)
	return nil
}

// IsClanRegistered returns the castle whose siege lists the clan.
func (m *Manager) IsClanRegistered(clanID int32) (castleID int32, registered bool) {
	for _, c := range m.Castles() {
		if c.Siege().IsClanRegistered(clanID) {
			return c.ID(), true
		}
	}
	return 0, false
}

// RemoveClanFromSieges drops the clan from every castle siege,
// running sieges included.
func (m *Manager) RemoveClanFromSieges(clanID int32) {
	for _, c := range m.Castles() {
		if c.Siege().RemoveClan(clanID) {
			slog.Info("clan removed from siege", "castle", c.Name(), "clan_id", clanID)
		}
	}
}
