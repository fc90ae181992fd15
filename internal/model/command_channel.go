package model

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
)

// ChannelState is the lifecycle state of a command channel.
type ChannelState int32

const (
	ChannelForming   ChannelState = iota // single party, waiting for others
	ChannelActive                        // two or more parties
	ChannelDisbanded                     // terminal
)

// MinChannelParties is the party count below which a channel disbands.
const MinChannelParties = 2

// Command channel errors.
var (
	ErrNoParty          = errors.New("player is not in a party")
	ErrChannelDisbanded = errors.New("command channel is disbanded")
	ErrPartyInChannel   = errors.New("party already in this command channel")
	ErrPartyBound       = errors.New("party already in another command channel")
)

// RaidTarget is implemented by creatures that can be raid bosses.
type RaidTarget interface {
	IsRaid() bool
}

// CommandChannel groups several parties for raid-scale cooperation.
//
// The party list is copy-on-write: readers work on an immutable snapshot and
// never block writers; a traversal started before a removal may still see the
// removed party. Writers are serialised by mu. Notices are sent outside mu.
type CommandChannel struct {
	mu sync.Mutex

	parties   atomic.Pointer[[]*Party]
	leader    atomic.Pointer[Player]
	level     atomic.Int32
	disbanded atomic.Bool
}

// NewCommandChannel forms a channel around the leader's party.
func NewCommandChannel(leader *Player) (*CommandChannel, error) {
	if leader == nil {
		return nil, ErrNoParty
	}
	party := leader.GetParty()
	if party == nil {
		return nil, ErrNoParty
	}

	cc := &CommandChannel{}
	if !party.bindChannel(cc) {
		return nil, ErrPartyBound
	}
	cc.leader.Store(leader)
	initial := []*Party{party}
	cc.parties.Store(&initial)
	cc.level.Store(party.Level())

	party.BroadcastMessage(MsgCommandChannelFormed)
	party.BroadcastNotice(Notice{Kind: NoticeOpenChannel})
	return cc, nil
}

func (cc *CommandChannel) snapshot() []*Party {
	p := cc.parties.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Parties returns the current party snapshot. Callers must not modify it.
func (cc *CommandChannel) Parties() []*Party {
	return cc.snapshot()
}

// PartyCount returns the number of parties in the channel.
func (cc *CommandChannel) PartyCount() int {
	return len(cc.snapshot())
}

// State returns the lifecycle state.
func (cc *CommandChannel) State() ChannelState {
	if cc.disbanded.Load() {
		return ChannelDisbanded
	}
	if len(cc.snapshot()) >= MinChannelParties {
		return ChannelActive
	}
	return ChannelForming
}

// AddParty appends a party. A nil party is ignored; a party bound to
// another channel is rejected. Joining only ever raises the channel level.
func (cc *CommandChannel) AddParty(party *Party) error {
	if party == nil {
		return nil
	}

	cc.mu.Lock()
	if cc.disbanded.Load() {
		cc.mu.Unlock()
		return ErrChannelDisbanded
	}
	old := cc.snapshot()
	if slices.Contains(old, party) {
		cc.mu.Unlock()
		return ErrPartyInChannel
	}
	if !party.bindChannel(cc) {
		cc.mu.Unlock()
		return ErrPartyBound
	}
	next := make([]*Party, len(old), len(old)+1)
	copy(next, old)
	next = append(next, party)
	cc.parties.Store(&next)
	cc.level.Store(max(cc.level.Load(), party.Level()))
	cc.mu.Unlock()

	update := Notice{Kind: NoticeChannelPartyUpdate, PartyID: party.ID(), Mode: ChannelPartyJoined}
	for _, p := range old {
		p.BroadcastNotice(update)
	}
	party.BroadcastMessage(MsgJoinedCommandChannel)
	party.BroadcastNotice(Notice{Kind: NoticeOpenChannel})
	return nil
}

// RemoveParty detaches a party. A nil or unknown party is ignored.
// When fewer than MinChannelParties remain the whole channel disbands.
func (cc *CommandChannel) RemoveParty(party *Party) {
	if party == nil {
		return
	}

	cc.mu.Lock()
	old := cc.snapshot()
	idx := slices.Index(old, party)
	if idx < 0 {
		cc.mu.Unlock()
		return
	}
	next := make([]*Party, 0, len(old)-1)
	next = append(next, old[:idx]...)
	next = append(next, old[idx+1:]...)
	cc.parties.Store(&next)
	cc.level.Store(maxPartyLevel(next))
	if party.CommandChannel() == cc {
		party.SetCommandChannel(nil)
	}
	disband := len(next) < MinChannelParties
	if disband {
		cc.disbanded.Store(true)
	}
	cc.mu.Unlock()

	party.BroadcastNotice(Notice{Kind: NoticeCloseChannel})

	if disband {
		cc.broadcast(SystemMessage(MsgCommandChannelDisbanded))
		cc.DisbandChannel()
		return
	}
	cc.broadcast(Notice{Kind: NoticeChannelPartyUpdate, PartyID: party.ID(), Mode: ChannelPartyLeft})
}

// DisbandChannel removes every party, each getting the usual departure notice.
func (cc *CommandChannel) DisbandChannel() {
	cc.disbanded.Store(true)
	for _, p := range cc.snapshot() {
		cc.RemoveParty(p)
	}

	cc.mu.Lock()
	empty := []*Party{}
	cc.parties.Store(&empty)
	cc.level.Store(0)
	cc.mu.Unlock()
}

// Level returns the channel level (highest party level, or leader level if higher).
func (cc *CommandChannel) Level() int32 {
	return cc.level.Load()
}

// Leader returns the channel leader.
func (cc *CommandChannel) Leader() *Player {
	return cc.leader.Load()
}

// SetLeader changes the channel leader. The channel level is raised to the
// leader's level if that is higher; it is never lowered here.
func (cc *CommandChannel) SetLeader(leader *Player) {
	if leader == nil {
		return
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.leader.Store(leader)
	if l := leader.Level(); l > cc.level.Load() {
		cc.level.Store(l)
	}
}

// IsLeader reports whether the player leads the channel.
func (cc *CommandChannel) IsLeader(player *Player) bool {
	l := cc.leader.Load()
	return l != nil && player != nil && l.ObjectID() == player.ObjectID()
}

// MemberCount returns the total member count over all parties.
func (cc *CommandChannel) MemberCount() int {
	n := 0
	for _, p := range cc.snapshot() {
		n += p.MemberCount()
	}
	return n
}

// Members returns all members of all parties, in party order.
func (cc *CommandChannel) Members() []*Player {
	parties := cc.snapshot()
	result := make([]*Player, 0, len(parties)*MaxPartyMembers)
	for _, p := range parties {
		result = append(result, p.Members()...)
	}
	return result
}

// ContainsPlayer reports whether any party contains the player.
func (cc *CommandChannel) ContainsPlayer(player *Player) bool {
	for _, p := range cc.snapshot() {
		if p.ContainsPlayer(player) {
			return true
		}
	}
	return false
}

// ForEachMember visits every member without building a list.
// Returns false if fn stopped the traversal.
func (cc *CommandChannel) ForEachMember(fn func(*Player) bool) bool {
	for _, p := range cc.snapshot() {
		if !p.ForEachMember(fn) {
			return false
		}
	}
	return true
}

// PartyByLeader returns the party led by the given player, or nil.
func (cc *CommandChannel) PartyByLeader(objectID uint32) *Party {
	for _, p := range cc.snapshot() {
		if p.IsLeader(objectID) {
			return p
		}
	}
	return nil
}

// MeetRaidLootCondition reports whether the channel is large enough to take
// loot privilege on the target raid boss.
func (cc *CommandChannel) MeetRaidLootCondition(target RaidTarget, minMembers int) bool {
	if target == nil || !target.IsRaid() {
		return false
	}
	return cc.MemberCount() >= minMembers
}

// BroadcastNotice sends a notice to every member of every party.
func (cc *CommandChannel) BroadcastNotice(n Notice) {
	cc.broadcast(n)
}

func (cc *CommandChannel) broadcast(n Notice) {
	for _, p := range cc.snapshot() {
		p.BroadcastNotice(n)
	}
}

func maxPartyLevel(parties []*Party) int32 {
	var lvl int32
	for _, p := range parties {
		if l := p.Level(); l > lvl {
			lvl = l
		}
	}
	return lvl
}
