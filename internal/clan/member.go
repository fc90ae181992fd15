package clan

import (
	"sync"

	"github.com/udisondev/l2pledge/internal/model"
)

// Member represents a clan member.
// Thread-safe: fields are protected by mu.
// When the member is online, Name and Level are read from the live Player.
// When offline, cached values are used.
type Member struct {
	mu sync.RWMutex

	playerID   int64 // Character (object) ID
	clanID     int32 // Owning clan; 0 once released
	name       string
	level      int32
	powerGrade int32 // Rank within clan (1=leader, 2-9=members)
	title      string

	// Privilege mask for this member (based on powerGrade).
	privileges Privilege

	// Live player while online. The member never keeps a player alive:
	// SetPlayer(nil) is called on logout.
	player *model.Player
}

// NewMember creates a clan member with initial values.
func NewMember(playerID int64, name string, level, powerGrade int32) *Member {
	return &Member{
		playerID:   playerID,
		name:       name,
		level:      level,
		powerGrade: powerGrade,
		privileges: DefaultRankPrivileges(powerGrade),
	}
}

// NewLeaderMember creates the founding member of a clan from an online player.
func NewLeaderMember(p *model.Player) *Member {
	m := NewMember(int64(p.ObjectID()), p.Name(), p.Level(), 1)
	m.player = p
	return m
}

func memberFromRow(row MemberRow) *Member {
	m := NewMember(row.CharacterID, row.Name, row.Level, row.PowerGrade)
	m.title = row.Title
	return m
}

// Row returns the persisted form of the member.
func (m *Member) Row() MemberRow {
	return MemberRow{
		CharacterID: m.playerID,
		ClanID:      m.ClanID(),
		Name:        m.Name(),
		Level:       m.Level(),
		PowerGrade:  m.PowerGrade(),
		Title:       m.Title(),
	}
}

// PlayerID returns the member's character object ID.
func (m *Member) PlayerID() int64 {
	return m.playerID // immutable, no lock needed
}

// ClanID returns the owning clan ID, 0 once the member was released.
func (m *Member) ClanID() int32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clanID
}

func (m *Member) setClanID(id int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clanID = id
}

// Name returns the member's character name.
func (m *Member) Name() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.player != nil {
		return m.player.Name()
	}
	return m.name
}

// Level returns the member's level.
func (m *Member) Level() int32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.player != nil {
		return m.player.Level()
	}
	return m.level
}

// SetLevel updates the cached level.
func (m *Member) SetLevel(level int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = level
}

// PowerGrade returns the member's rank (1=leader).
func (m *Member) PowerGrade() int32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.powerGrade
}

// SetPowerGrade sets the member's rank and updates default privileges.
func (m *Member) SetPowerGrade(grade int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.powerGrade = grade
	m.privileges = DefaultRankPrivileges(grade)
}

// Title returns the member's title.
func (m *Member) Title() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.title
}

// SetTitle sets the member's title.
func (m *Member) SetTitle(title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.title = title
}

// Player returns the live player, or nil when offline.
func (m *Member) Player() *model.Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.player
}

// SetPlayer attaches the live player on login, nil on logout.
// Cached name and level are refreshed from the departing player.
func (m *Member) SetPlayer(p *model.Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == nil && m.player != nil {
		m.name = m.player.Name()
		m.level = m.player.Level()
	}
	m.player = p
}

// Online returns whether the member is currently online.
func (m *Member) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.player != nil
}

// Privileges returns the member's privilege mask.
func (m *Member) Privileges() Privilege {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.privileges
}

// SetPrivileges sets the member's privilege mask.
func (m *Member) SetPrivileges(priv Privilege) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.privileges = priv
}

// HasPrivilege checks if the member has a specific privilege.
func (m *Member) HasPrivilege(priv Privilege) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.privileges.Has(priv)
}
