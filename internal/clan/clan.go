package clan

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/udisondev/l2pledge/internal/model"
)

// Clan level limits.
const (
	MaxClanLevel = 8
	MinClanLevel = 0
)

// Max members by clan level.
var maxMembersByLevel = [MaxClanLevel + 1]int32{
	10, // Level 0
	15, // Level 1
	20, // Level 2
	30, // Level 3
	40, // Level 4
	40, // Level 5
	40, // Level 6
	40, // Level 7
	40, // Level 8
}

// Common clan errors.
var (
	ErrClanFull      = errors.New("clan is full")
	ErrAlreadyInClan = errors.New("already in clan")
	ErrNotInClan     = errors.New("not in clan")
	ErrClanNotFound  = errors.New("clan not found")
)

// Clan represents a player clan.
// Thread-safe: all mutable fields protected by mu.
type Clan struct {
	mu sync.RWMutex

	id         int32
	name       string
	leaderID   int64 // Object ID of clan leader
	level      int32
	crestID    int32
	largeCrest int32
	allyID     int32
	allyCrest  int32
	allyName   string

	// Territory held as owner. 0 = none.
	castleID int32
	fortID   int32

	reputation atomic.Int32

	// Members indexed by playerID.
	members map[int64]*Member

	// Peer clan IDs we share a war record with.
	// The war itself lives in the Registry war table.
	warPeers map[int32]struct{}

	warehouse *Warehouse

	// Dissolution tracking.
	dissolutionTime int64 // Unix millis, 0 if not dissolving
}

// New creates a new clan.
func New(id int32, name string, leaderID int64) *Clan {
	return &Clan{
		id:        id,
		name:      name,
		leaderID:  leaderID,
		members:   make(map[int64]*Member, 10),
		warPeers:  make(map[int32]struct{}, 4),
		warehouse: NewWarehouse(),
	}
}

// fromRow hydrates a clan from its persisted row. Members are added separately.
func fromRow(row ClanRow) *Clan {
	c := New(row.ClanID, row.Name, row.LeaderID)
	c.level = row.Level
	c.crestID = row.CrestID
	c.largeCrest = row.LargeCrestID
	c.allyID = row.AllyID
	c.allyName = row.AllyName
	c.allyCrest = row.AllyCrestID
	c.castleID = row.CastleID
	c.fortID = row.FortID
	c.dissolutionTime = row.DissolutionTime
	c.reputation.Store(row.Reputation)
	return c
}

// Row returns the persisted form of the clan.
func (c *Clan) Row() ClanRow {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ClanRow{
		ClanID:          c.id,
		Name:            c.name,
		LeaderID:        c.leaderID,
		Level:           c.level,
		Reputation:      c.reputation.Load(),
		CrestID:         c.crestID,
		LargeCrestID:    c.largeCrest,
		AllyID:          c.allyID,
		AllyName:        c.allyName,
		AllyCrestID:     c.allyCrest,
		CastleID:        c.castleID,
		FortID:          c.fortID,
		DissolutionTime: c.dissolutionTime,
	}
}

// ID returns the clan ID.
func (c *Clan) ID() int32 { return c.id }

// Name returns the clan name.
func (c *Clan) Name() string { return c.name }

// LeaderID returns the object ID of the clan leader.
func (c *Clan) LeaderID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.leaderID
}

// SetLeaderID sets the clan leader.
func (c *Clan) SetLeaderID(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaderID = id
}

// Level returns the clan level (0-8).
func (c *Clan) Level() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.level
}

// SetLevel sets the clan level.
func (c *Clan) SetLevel(level int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level = level
}

// CrestID returns the clan crest ID.
func (c *Clan) CrestID() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.crestID
}

// SetCrestID sets the clan crest ID.
func (c *Clan) SetCrestID(id int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.crestID = id
}

// LargeCrestID returns the large crest ID.
func (c *Clan) LargeCrestID() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.largeCrest
}

// SetLargeCrestID sets the large crest ID.
func (c *Clan) SetLargeCrestID(id int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.largeCrest = id
}

// AllyID returns the alliance ID.
func (c *Clan) AllyID() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.allyID
}

// SetAlly sets the alliance linkage.
func (c *Clan) SetAlly(allyID int32, allyName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allyID = allyID
	c.allyName = allyName
}

// AllyCrestID returns the alliance crest ID.
func (c *Clan) AllyCrestID() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.allyCrest
}

// SetAllyCrestID sets the alliance crest ID.
func (c *Clan) SetAllyCrestID(id int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allyCrest = id
}

// AllyName returns the alliance name.
func (c *Clan) AllyName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.allyName
}

// ClearAlly clears all alliance fields.
func (c *Clan) ClearAlly() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allyID = 0
	c.allyName = ""
	c.allyCrest = 0
}

// IsAllyLeader returns true if this clan is the leader of its alliance (allyID == clanID).
func (c *Clan) IsAllyLeader() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.allyID != 0 && c.allyID == c.id
}

// CastleID returns the owned castle, 0 if none.
func (c *Clan) CastleID() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.castleID
}

// SetCastleID sets the owned castle.
func (c *Clan) SetCastleID(id int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.castleID = id
}

// FortID returns the owned fortress, 0 if none.
func (c *Clan) FortID() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fortID
}

// SetFortID sets the owned fortress.
func (c *Clan) SetFortID(id int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fortID = id
}

// Reputation returns the clan reputation score.
func (c *Clan) Reputation() int32 {
	return c.reputation.Load()
}

// SetReputation sets the clan reputation score.
func (c *Clan) SetReputation(rep int32) {
	c.reputation.Store(rep)
}

// AddReputation atomically adds to the reputation (can be negative).
func (c *Clan) AddReputation(delta int32) int32 {
	return c.reputation.Add(delta)
}

// Warehouse returns the clan vault.
func (c *Clan) Warehouse() *Warehouse {
	return c.warehouse
}

// MaxMembers returns the maximum number of members for the current level.
func (c *Clan) MaxMembers() int32 {
	c.mu.RLock()
	lvl := c.level
	c.mu.RUnlock()
	if lvl < 0 || lvl > MaxClanLevel {
		return maxMembersByLevel[0]
	}
	return maxMembersByLevel[lvl]
}

// MemberCount returns the current number of members.
func (c *Clan) MemberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.members)
}

// Member returns a clan member by player ID, or nil if not found.
func (c *Clan) Member(playerID int64) *Member {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.members[playerID]
}

// AddMember adds a member to the clan and sets its clan back-reference.
// Returns ErrClanFull if the clan has reached max members.
func (c *Clan) AddMember(m *Member) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lvl := c.level
	if lvl < 0 || lvl > MaxClanLevel {
		lvl = 0
	}
	if int32(len(c.members)) >= maxMembersByLevel[lvl] {
		return ErrClanFull
	}
	m.setClanID(c.id)
	c.members[m.PlayerID()] = m
	return nil
}

// RemoveMember removes a member from the clan by player ID.
// Returns the removed member, or nil if not found.
func (c *Clan) RemoveMember(playerID int64) *Member {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.members[playerID]
	if !ok {
		return nil
	}
	delete(c.members, playerID)
	m.setClanID(0)
	return m
}

// ForEachMember iterates over all members.
// The callback receives each member; return false to stop iteration.
func (c *Clan) ForEachMember(fn func(*Member) bool) {
	for _, m := range c.Members() {
		if !fn(m) {
			return
		}
	}
}

// Members returns a snapshot slice of all members ordered by player ID.
func (c *Clan) Members() []*Member {
	c.mu.RLock()
	result := make([]*Member, 0, len(c.members))
	for _, m := range c.members {
		result = append(result, m)
	}
	c.mu.RUnlock()

	slices.SortFunc(result, func(a, b *Member) int {
		switch {
		case a.PlayerID() < b.PlayerID():
			return -1
		case a.PlayerID() > b.PlayerID():
			return 1
		}
		return 0
	})
	return result
}

// OnlineMemberCount returns the number of online members.
func (c *Clan) OnlineMemberCount() int {
	count := 0
	for _, m := range c.Members() {
		if m.Online() {
			count++
		}
	}
	return count
}

// OnlinePlayers returns the live players of all online members.
func (c *Clan) OnlinePlayers() []*model.Player {
	var result []*model.Player
	for _, m := range c.Members() {
		if p := m.Player(); p != nil {
			result = append(result, p)
		}
	}
	return result
}

// BroadcastNotice sends a notice to every online member.
func (c *Clan) BroadcastNotice(n model.Notice) {
	for _, p := range c.OnlinePlayers() {
		p.SendNotice(n)
	}
}

// BroadcastMessage sends a system message to every online member.
func (c *Clan) BroadcastMessage(id model.MessageID, args ...string) {
	c.BroadcastNotice(model.SystemMessage(id, args...))
}

// MemberByName returns a member by character name (case-insensitive), or nil.
func (c *Clan) MemberByName(name string) *Member {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, m := range c.members {
		if strings.EqualFold(m.Name(), name) {
			return m
		}
	}
	return nil
}

// Leader returns the clan leader Member, or nil if not found.
func (c *Clan) Leader() *Member {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.members[c.leaderID]
}

// --- Clan Wars ---

// AddWarPeer records that a war with the peer clan exists.
func (c *Clan) AddWarPeer(peerID int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warPeers[peerID] = struct{}{}
}

// RemoveWarPeer forgets the war with the peer clan.
func (c *Clan) RemoveWarPeer(peerID int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.warPeers, peerID)
}

// HasWarPeer reports whether a war record with the peer clan exists.
func (c *Clan) HasWarPeer(peerID int32) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.warPeers[peerID]
	return ok
}

// WarPeers returns the sorted peer clan IDs.
func (c *Clan) WarPeers() []int32 {
	c.mu.RLock()
	result := make([]int32, 0, len(c.warPeers))
	for id := range c.warPeers {
		result = append(result, id)
	}
	c.mu.RUnlock()
	slices.Sort(result)
	return result
}

// --- Dissolution ---

// DissolutionTime returns the scheduled dissolution time (Unix millis), or 0 if not dissolving.
func (c *Clan) DissolutionTime() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dissolutionTime
}

// SetDissolutionTime sets the scheduled dissolution time.
func (c *Clan) SetDissolutionTime(t int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dissolutionTime = t
}

// IsDissolving returns true if the clan is scheduled for dissolution.
func (c *Clan) IsDissolving() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dissolutionTime > 0
}
