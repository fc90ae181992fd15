// Package party keeps the live parties and the command channels built from them.
package party

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/udisondev/l2pledge/internal/model"
)

var (
	ErrNotPartyLeader   = errors.New("player does not lead a party")
	ErrAlreadyInChannel = model.ErrPartyBound
	ErrNotChannelLeader = errors.New("player does not lead the command channel")
	ErrNotInChannel     = errors.New("party is not in a command channel")
	ErrPartyNotFound    = errors.New("party not found in command channel")
)

// Manager tracks active parties and command channels.
type Manager struct {
	mu       sync.RWMutex
	parties  map[int32]*model.Party
	channels map[*model.CommandChannel]struct{}
	nextID   atomic.Int32

	raidLootMin int
}

// DefaultRaidLootMinMembers is the channel size needed to hold raid loot rights.
const DefaultRaidLootMinMembers = 18

// NewManager creates a new party manager.
// raidLootMin <= 0 selects DefaultRaidLootMinMembers.
func NewManager(raidLootMin int) *Manager {
	if raidLootMin <= 0 {
		raidLootMin = DefaultRaidLootMinMembers
	}
	return &Manager{
		parties:     make(map[int32]*model.Party),
		channels:    make(map[*model.CommandChannel]struct{}),
		raidLootMin: raidLootMin,
	}
}

// CreateParty creates a party led by leader and attaches it to the leader.
func (m *Manager) CreateParty(leader *model.Player, lootRule model.LootRule) *model.Party {
	id := m.nextID.Add(1)
	party := model.NewParty(id, leader, lootRule)
	leader.SetParty(party)

	m.mu.Lock()
	m.parties[id] = party
	m.mu.Unlock()

	return party
}

// DisbandParty forgets a party, taking it out of its command channel first.
// Member notification is left to the caller.
func (m *Manager) DisbandParty(partyID int32) {
	m.mu.Lock()
	party := m.parties[partyID]
	delete(m.parties, partyID)
	m.mu.Unlock()

	if party == nil {
		return
	}
	if cc := party.CommandChannel(); cc != nil {
		cc.RemoveParty(party)
		m.forgetIfDisbanded(cc)
	}
}

// GetParty returns a party by ID, or nil if not found.
func (m *Manager) GetParty(partyID int32) *model.Party {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parties[partyID]
}

// PartyCount returns the number of active parties.
func (m *Manager) PartyCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.parties)
}

// ChannelCount returns the number of live command channels.
func (m *Manager) ChannelCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.channels)
}

func ledParty(p *model.Player) (*model.Party, error) {
	if p == nil {
		return nil, ErrNotPartyLeader
	}
	party := p.GetParty()
	if party == nil || !party.IsLeader(p.ObjectID()) {
		return nil, ErrNotPartyLeader
	}
	return party, nil
}

// CreateCommandChannel forms a channel around the party led by leader.
func (m *Manager) CreateCommandChannel(leader *model.Player) (*model.CommandChannel, error) {
	party, err := ledParty(leader)
	if err != nil {
		return nil, err
	}
	if party.IsInCommandChannel() {
		return nil, ErrAlreadyInChannel
	}

	cc, err := model.NewCommandChannel(leader)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.channels[cc] = struct{}{}
	m.mu.Unlock()
	return cc, nil
}

// JoinCommandChannel adds the party led by target to the channel led by inviter.
func (m *Manager) JoinCommandChannel(inviter, target *model.Player) error {
	if inviter == nil || inviter.GetParty() == nil {
		return ErrNotChannelLeader
	}
	cc := inviter.GetParty().CommandChannel()
	if cc == nil || !cc.IsLeader(inviter) {
		return ErrNotChannelLeader
	}

	party, err := ledParty(target)
	if err != nil {
		return err
	}
	if party.CommandChannel() == cc {
		return model.ErrPartyInChannel
	}
	return cc.AddParty(party)
}

// LeaveCommandChannel takes the party led by player out of its channel.
// A channel left with a single party disbands.
func (m *Manager) LeaveCommandChannel(player *model.Player) error {
	party, err := ledParty(player)
	if err != nil {
		return err
	}
	cc := party.CommandChannel()
	if cc == nil {
		return ErrNotInChannel
	}

	cc.RemoveParty(party)
	party.BroadcastMessage(model.MsgLeftCommandChannel)
	m.forgetIfDisbanded(cc)
	return nil
}

// ChannelPartyMembers lists the members of the party led by partyLeaderID,
// provided that party shares the requester's command channel.
func (m *Manager) ChannelPartyMembers(requester *model.Player, partyLeaderID uint32) ([]*model.Player, error) {
	if requester == nil || requester.GetParty() == nil {
		return nil, ErrNotInChannel
	}
	cc := requester.GetParty().CommandChannel()
	if cc == nil {
		return nil, ErrNotInChannel
	}
	party := cc.PartyByLeader(partyLeaderID)
	if party == nil {
		return nil, ErrPartyNotFound
	}
	return party.Members(), nil
}

// CanTakeRaidLoot reports whether the player's command channel is large
// enough to claim loot from the raid target.
func (m *Manager) CanTakeRaidLoot(player *model.Player, target model.RaidTarget) bool {
	if player == nil || player.GetParty() == nil {
		return false
	}
	cc := player.GetParty().CommandChannel()
	if cc == nil {
		return false
	}
	return cc.MeetRaidLootCondition(target, m.raidLootMin)
}

func (m *Manager) forgetIfDisbanded(cc *model.CommandChannel) {
	if cc.State() != model.ChannelDisbanded {
		return
	}
	m.mu.Lock()
	delete(m.channels, cc)
	m.mu.Unlock()
}
