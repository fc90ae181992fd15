package model

import (
	"errors"
	"slices"
	"sync"
)

// MaxPartyMembers is the party size cap, leader included.
const MaxPartyMembers = 9

// LootRule selects how drops are shared inside a party.
type LootRule int32

const (
	LootRuleFinders LootRule = iota
	LootRuleRandom
	LootRuleRandomSpoil
	LootRuleOrder
	LootRuleOrderSpoil
)

var (
	ErrPartyFull      = errors.New("party is full")
	ErrAlreadyInParty = errors.New("player already in party")
)

// Party is a group of players. The leader is always members[0].
type Party struct {
	id int32

	mu       sync.RWMutex
	members  []*Player
	lootRule LootRule
	channel  *CommandChannel
}

// NewParty creates a party whose only member is leader.
func NewParty(id int32, leader *Player, rule LootRule) *Party {
	members := make([]*Player, 1, MaxPartyMembers)
	members[0] = leader
	return &Party{id: id, members: members, lootRule: rule}
}

func (p *Party) ID() int32 { return p.id }

// indexOf must be called with p.mu held.
func (p *Party) indexOf(objectID uint32) int {
	return slices.IndexFunc(p.members, func(m *Player) bool { return m.ObjectID() == objectID })
}

// Leader returns the party leader, or nil for an emptied party.
func (p *Party) Leader() *Player {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.members) == 0 {
		return nil
	}
	return p.members[0]
}

// SetLeader moves an existing member to the leader slot.
// It reports false when the player is not a member.
func (p *Party) SetLeader(player *Player) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.indexOf(player.ObjectID())
	if i < 0 {
		return false
	}
	p.members[0], p.members[i] = p.members[i], p.members[0]
	return true
}

func (p *Party) IsLeader(objectID uint32) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.members) > 0 && p.members[0].ObjectID() == objectID
}

func (p *Party) LootRule() LootRule {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lootRule
}

func (p *Party) SetLootRule(rule LootRule) {
	p.mu.Lock()
	p.lootRule = rule
	p.mu.Unlock()
}

// Level is the highest member level.
func (p *Party) Level() int32 {
	var lvl int32
	for _, m := range p.Members() {
		lvl = max(lvl, m.Level())
	}
	return lvl
}

// Members returns a copy of the member list, leader first.
func (p *Party) Members() []*Player {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.members)
}

func (p *Party) MemberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.members)
}

// GetMember returns the member with objectID, or nil.
func (p *Party) GetMember(objectID uint32) *Player {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if i := p.indexOf(objectID); i >= 0 {
		return p.members[i]
	}
	return nil
}

func (p *Party) IsMember(objectID uint32) bool {
	return p.GetMember(objectID) != nil
}

// ContainsPlayer reports whether player is a member. Nil is never a member.
func (p *Party) ContainsPlayer(player *Player) bool {
	return player != nil && p.IsMember(player.ObjectID())
}

// AddMember appends player to the party.
func (p *Party) AddMember(player *Player) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case len(p.members) >= MaxPartyMembers:
		return ErrPartyFull
	case p.indexOf(player.ObjectID()) >= 0:
		return ErrAlreadyInParty
	}
	p.members = append(p.members, player)
	return nil
}

// RemoveMember drops the member with objectID, keeping the order of the rest.
// When the leader leaves the next member takes over. The result reports
// whether fewer than two members remain; unknown ids report false.
func (p *Party) RemoveMember(objectID uint32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.indexOf(objectID)
	if i < 0 {
		return false
	}
	p.members = slices.Delete(p.members, i, i+1)
	return len(p.members) < 2
}

// ForEachMember calls fn for each member in order until fn returns false.
// It reports whether the iteration ran to completion.
func (p *Party) ForEachMember(fn func(*Player) bool) bool {
	for _, m := range p.Members() {
		if !fn(m) {
			return false
		}
	}
	return true
}

// CommandChannel returns the channel this party belongs to, or nil.
func (p *Party) CommandChannel() *CommandChannel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.channel
}

// SetCommandChannel sets or clears the channel back-reference.
func (p *Party) SetCommandChannel(cc *CommandChannel) {
	p.mu.Lock()
	p.channel = cc
	p.mu.Unlock()
}

// bindChannel points the party at cc unless it already belongs to
// another channel.
func (p *Party) bindChannel(cc *CommandChannel) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil && p.channel != cc {
		return false
	}
	p.channel = cc
	return true
}

func (p *Party) IsInCommandChannel() bool {
	return p.CommandChannel() != nil
}

func (p *Party) BroadcastNotice(n Notice) {
	for _, m := range p.Members() {
		m.SendNotice(n)
	}
}

func (p *Party) BroadcastMessage(id MessageID, args ...string) {
	p.BroadcastNotice(SystemMessage(id, args...))
}
