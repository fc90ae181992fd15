package model

import (
	"fmt"
	"sync"
)

// Level limits.
const (
	MinLevel = 1
	MaxLevel = 80
)

// Player is a connected character as seen by the social core.
// Thread-safe: mutable fields protected by playerMu.
type Player struct {
	objectID uint32
	name     string

	playerMu sync.RWMutex
	level    int32

	// Clan membership. 0 = not in a clan.
	clanID         int32
	clanPrivileges int32
	// Unix millis before which the player may not found a new clan.
	clanCreateExpiryTime int64

	// Current party membership. Nil if not in a party.
	party *Party

	outbox Outbox
}

// NewPlayer creates a player.
func NewPlayer(objectID uint32, name string, level int32) (*Player, error) {
	if len(name) < 2 {
		return nil, fmt.Errorf("name must be at least 2 characters, got %q", name)
	}
	if level < MinLevel || level > MaxLevel {
		return nil, fmt.Errorf("level must be between %d and %d, got %d", MinLevel, MaxLevel, level)
	}
	return &Player{
		objectID: objectID,
		name:     name,
		level:    level,
	}, nil
}

// ObjectID returns the immutable world object ID.
func (p *Player) ObjectID() uint32 { return p.objectID }

// Name returns the character name.
func (p *Player) Name() string { return p.name }

// Level returns the character level.
func (p *Player) Level() int32 {
	p.playerMu.RLock()
	defer p.playerMu.RUnlock()
	return p.level
}

// SetLevel sets the character level.
func (p *Player) SetLevel(level int32) {
	p.playerMu.Lock()
	defer p.playerMu.Unlock()
	p.level = level
}

// ClanID returns the player's clan ID (0 if not in a clan).
func (p *Player) ClanID() int32 {
	p.playerMu.RLock()
	defer p.playerMu.RUnlock()
	return p.clanID
}

// SetClanID sets the player's clan ID.
func (p *Player) SetClanID(id int32) {
	p.playerMu.Lock()
	defer p.playerMu.Unlock()
	p.clanID = id
}

// ClanPrivileges returns the raw clan privilege mask.
func (p *Player) ClanPrivileges() int32 {
	p.playerMu.RLock()
	defer p.playerMu.RUnlock()
	return p.clanPrivileges
}

// SetClanPrivileges sets the raw clan privilege mask.
func (p *Player) SetClanPrivileges(mask int32) {
	p.playerMu.Lock()
	defer p.playerMu.Unlock()
	p.clanPrivileges = mask
}

// ClanCreateExpiryTime returns the clan creation cooldown end (Unix millis).
func (p *Player) ClanCreateExpiryTime() int64 {
	p.playerMu.RLock()
	defer p.playerMu.RUnlock()
	return p.clanCreateExpiryTime
}

// SetClanCreateExpiryTime sets the clan creation cooldown end (Unix millis).
func (p *Player) SetClanCreateExpiryTime(t int64) {
	p.playerMu.Lock()
	defer p.playerMu.Unlock()
	p.clanCreateExpiryTime = t
}

// GetParty returns the player's party, or nil.
func (p *Player) GetParty() *Party {
	p.playerMu.RLock()
	defer p.playerMu.RUnlock()
	return p.party
}

// SetParty sets or clears the player's party membership.
func (p *Player) SetParty(party *Party) {
	p.playerMu.Lock()
	defer p.playerMu.Unlock()
	p.party = party
}

// IsInParty returns true if the player is in a party.
func (p *Player) IsInParty() bool {
	return p.GetParty() != nil
}

// SetOutbox attaches the connection outbox. Nil detaches it.
func (p *Player) SetOutbox(o Outbox) {
	p.playerMu.Lock()
	defer p.playerMu.Unlock()
	p.outbox = o
}

// SendNotice delivers a notice if the player is connected.
func (p *Player) SendNotice(n Notice) {
	p.playerMu.RLock()
	o := p.outbox
	p.playerMu.RUnlock()
	if o != nil {
		o.Deliver(p.objectID, n)
	}
}

// SendMessage is shorthand for SendNotice(SystemMessage(id, args...)).
func (p *Player) SendMessage(id MessageID, args ...string) {
	p.SendNotice(SystemMessage(id, args...))
}
