package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type raidBoss struct{ raid bool }

func (r raidBoss) IsRaid() bool { return r.raid }

// newTestChannelParty creates a party whose leader has the given level and
// is attached to the player's party slot.
func newTestChannelParty(t *testing.T, id int32, leaderID uint32, level int32, out Outbox) *Party {
	t.Helper()
	leader := newTestLeveledPlayer(t, leaderID, "Leader", level)
	leader.SetOutbox(out)
	party := NewParty(id, leader, LootRuleFinders)
	leader.SetParty(party)
	return party
}

func TestNewCommandChannel(t *testing.T) {
	out := newRecordingOutbox()
	a := newTestChannelParty(t, 1, 10, 40, out)

	cc, err := NewCommandChannel(a.Leader())
	require.NoError(t, err)

	assert.Equal(t, int32(40), cc.Level())
	assert.Equal(t, a.Leader(), cc.Leader())
	assert.Equal(t, cc, a.CommandChannel())
	assert.Equal(t, ChannelForming, cc.State())
	assert.True(t, out.Has(10, NoticeSystemMessage, MsgCommandChannelFormed))
	assert.True(t, out.Has(10, NoticeOpenChannel, MsgNone))
}

func TestNewCommandChannel_NoParty(t *testing.T) {
	solo := newTestPartyPlayer(t, 1, "Solo")

	_, err := NewCommandChannel(solo)
	assert.ErrorIs(t, err, ErrNoParty)

	_, err = NewCommandChannel(nil)
	assert.ErrorIs(t, err, ErrNoParty)
}

func TestCommandChannel_AddParty_RaisesLevel(t *testing.T) {
	out := newRecordingOutbox()
	a := newTestChannelParty(t, 1, 10, 40, out)
	b := newTestChannelParty(t, 2, 20, 55, out)

	cc, err := NewCommandChannel(a.Leader())
	require.NoError(t, err)
	require.NoError(t, cc.AddParty(b))

	assert.Equal(t, int32(55), cc.Level())
	assert.Equal(t, ChannelActive, cc.State())
	assert.Equal(t, []*Party{a, b}, cc.Parties())
	assert.Equal(t, cc, b.CommandChannel())

	// Existing members learn about the newcomer; the newcomer gets the join message.
	var update *Notice
	for _, n := range out.For(10) {
		if n.Kind == NoticeChannelPartyUpdate {
			update = &n
		}
	}
	require.NotNil(t, update, "existing party should get a party update")
	assert.Equal(t, b.ID(), update.PartyID)
	assert.Equal(t, ChannelPartyJoined, update.Mode)
	assert.True(t, out.Has(20, NoticeSystemMessage, MsgJoinedCommandChannel))
}

func TestCommandChannel_AddParty_NilAndDuplicate(t *testing.T) {
	a := newTestChannelParty(t, 1, 10, 40, nil)
	cc, err := NewCommandChannel(a.Leader())
	require.NoError(t, err)

	assert.NoError(t, cc.AddParty(nil))
	assert.Equal(t, 1, cc.PartyCount())

	assert.ErrorIs(t, cc.AddParty(a), ErrPartyInChannel)
	assert.Equal(t, 1, cc.PartyCount())
}

func TestCommandChannel_RemoveParty_RecomputesLevel(t *testing.T) {
	a := newTestChannelParty(t, 1, 10, 40, nil)
	b := newTestChannelParty(t, 2, 20, 55, nil)
	c := newTestChannelParty(t, 3, 30, 48, nil)

	cc, err := NewCommandChannel(a.Leader())
	require.NoError(t, err)
	require.NoError(t, cc.AddParty(b))
	require.NoError(t, cc.AddParty(c))
	assert.Equal(t, int32(55), cc.Level())

	cc.RemoveParty(b)

	assert.Equal(t, int32(48), cc.Level(), "level must drop to the max of remaining parties")
	assert.Equal(t, ChannelActive, cc.State())
	assert.Nil(t, b.CommandChannel())
	assert.Equal(t, []*Party{a, c}, cc.Parties())
}

func TestCommandChannel_RemoveParty_DisbandsBelowMinimum(t *testing.T) {
	out := newRecordingOutbox()
	a := newTestChannelParty(t, 1, 10, 40, out)
	b := newTestChannelParty(t, 2, 20, 55, out)

	cc, err := NewCommandChannel(a.Leader())
	require.NoError(t, err)
	require.NoError(t, cc.AddParty(b))
	require.Equal(t, int32(55), cc.Level())

	cc.RemoveParty(a)

	assert.Equal(t, 0, cc.PartyCount())
	assert.Equal(t, int32(0), cc.Level())
	assert.Equal(t, ChannelDisbanded, cc.State())
	assert.Nil(t, a.CommandChannel())
	assert.Nil(t, b.CommandChannel(), "remaining party must be detached on disband")

	assert.True(t, out.Has(20, NoticeSystemMessage, MsgCommandChannelDisbanded))
	assert.True(t, out.Has(20, NoticeCloseChannel, MsgNone))
	assert.True(t, out.Has(10, NoticeCloseChannel, MsgNone))

	assert.ErrorIs(t, cc.AddParty(a), ErrChannelDisbanded)
}

func TestCommandChannel_RemoveParty_NilAndUnknown(t *testing.T) {
	a := newTestChannelParty(t, 1, 10, 40, nil)
	b := newTestChannelParty(t, 2, 20, 55, nil)
	stranger := newTestChannelParty(t, 3, 30, 70, nil)

	cc, err := NewCommandChannel(a.Leader())
	require.NoError(t, err)
	require.NoError(t, cc.AddParty(b))

	cc.RemoveParty(nil)
	cc.RemoveParty(stranger)

	assert.Equal(t, 2, cc.PartyCount())
	assert.Equal(t, int32(55), cc.Level())
}

func TestCommandChannel_DisbandChannel(t *testing.T) {
	out := newRecordingOutbox()
	parties := []*Party{
		newTestChannelParty(t, 1, 10, 40, out),
		newTestChannelParty(t, 2, 20, 50, out),
		newTestChannelParty(t, 3, 30, 60, out),
	}
	cc, err := NewCommandChannel(parties[0].Leader())
	require.NoError(t, err)
	require.NoError(t, cc.AddParty(parties[1]))
	require.NoError(t, cc.AddParty(parties[2]))

	cc.DisbandChannel()

	assert.Equal(t, 0, cc.PartyCount())
	assert.Equal(t, int32(0), cc.Level())
	assert.Equal(t, ChannelDisbanded, cc.State())
	for _, p := range parties {
		assert.Nil(t, p.CommandChannel())
		assert.True(t, out.Has(p.Leader().ObjectID(), NoticeCloseChannel, MsgNone),
			"party %d should be notified", p.ID())
	}
}

func TestCommandChannel_LevelInvariant(t *testing.T) {
	levels := []int32{40, 55, 23, 71, 66, 12}
	parties := make([]*Party, len(levels))
	for i, lvl := range levels {
		parties[i] = newTestChannelParty(t, int32(i+1), uint32(100+i), lvl, nil)
	}

	cc, err := NewCommandChannel(parties[0].Leader())
	require.NoError(t, err)
	for _, p := range parties[1:] {
		require.NoError(t, cc.AddParty(p))
		assert.Equal(t, maxPartyLevel(cc.Parties()), cc.Level())
	}

	for _, idx := range []int{3, 1, 5, 0} {
		cc.RemoveParty(parties[idx])
		assert.Equal(t, maxPartyLevel(cc.Parties()), cc.Level())
	}
	assert.Equal(t, []*Party{parties[2], parties[4]}, cc.Parties())
	assert.Equal(t, int32(66), cc.Level())
}

func TestCommandChannel_SetLeader(t *testing.T) {
	a := newTestChannelParty(t, 1, 10, 40, nil)
	cc, err := NewCommandChannel(a.Leader())
	require.NoError(t, err)

	low := newTestLeveledPlayer(t, 2, "Low", 20)
	cc.SetLeader(low)
	assert.Equal(t, low, cc.Leader())
	assert.True(t, cc.IsLeader(low))
	assert.Equal(t, int32(40), cc.Level(), "a lower leader never lowers the level")

	high := newTestLeveledPlayer(t, 3, "High", 77)
	cc.SetLeader(high)
	assert.Equal(t, int32(77), cc.Level())

	cc.SetLeader(nil)
	assert.Equal(t, high, cc.Leader())
}

func TestCommandChannel_AddParty_KeepsLeaderLevel(t *testing.T) {
	a := newTestChannelParty(t, 1, 10, 40, nil)
	b := newTestChannelParty(t, 2, 20, 55, nil)
	cc, err := NewCommandChannel(a.Leader())
	require.NoError(t, err)

	cc.SetLeader(newTestLeveledPlayer(t, 3, "Warlord", 70))
	require.Equal(t, int32(70), cc.Level())

	require.NoError(t, cc.AddParty(b))
	assert.Equal(t, int32(70), cc.Level(), "a join never lowers the level")

	c := newTestChannelParty(t, 4, 40, 75, nil)
	require.NoError(t, cc.AddParty(c))
	assert.Equal(t, int32(75), cc.Level())
}

func TestCommandChannel_PartyInAnotherChannel(t *testing.T) {
	a := newTestChannelParty(t, 1, 10, 40, nil)
	b := newTestChannelParty(t, 2, 20, 50, nil)
	c := newTestChannelParty(t, 3, 30, 60, nil)

	first, err := NewCommandChannel(a.Leader())
	require.NoError(t, err)
	second, err := NewCommandChannel(c.Leader())
	require.NoError(t, err)

	require.NoError(t, first.AddParty(b))
	assert.ErrorIs(t, second.AddParty(b), ErrPartyBound)
	assert.Same(t, first, b.CommandChannel())
	assert.False(t, second.ContainsPlayer(b.Leader()))
	assert.Equal(t, 1, second.PartyCount())

	_, err = NewCommandChannel(b.Leader())
	assert.ErrorIs(t, err, ErrPartyBound)
	assert.Same(t, first, b.CommandChannel())
}

func TestCommandChannel_ConcurrentJoinsBindOnce(t *testing.T) {
	contested := newTestChannelParty(t, 1, 10, 40, nil)
	channels := make([]*CommandChannel, 8)
	for i := range channels {
		p := newTestChannelParty(t, int32(i+2), uint32(100+i), 30, nil)
		cc, err := NewCommandChannel(p.Leader())
		require.NoError(t, err)
		channels[i] = cc
	}

	var wg sync.WaitGroup
	for _, cc := range channels {
		wg.Go(func() { _ = cc.AddParty(contested) })
	}
	wg.Wait()

	holders := 0
	for _, cc := range channels {
		if cc.ContainsPlayer(contested.Leader()) {
			holders++
			assert.Same(t, cc, contested.CommandChannel())
		}
	}
	assert.Equal(t, 1, holders)
}

func TestCommandChannel_MembershipQueries(t *testing.T) {
	a := newTestChannelParty(t, 1, 10, 40, nil)
	b := newTestChannelParty(t, 2, 20, 55, nil)
	extra := newTestPartyPlayer(t, 21, "Extra")
	require.NoError(t, b.AddMember(extra))
	outsider := newTestPartyPlayer(t, 99, "Outsider")

	cc, err := NewCommandChannel(a.Leader())
	require.NoError(t, err)
	require.NoError(t, cc.AddParty(b))

	assert.Equal(t, 3, cc.MemberCount())
	assert.Len(t, cc.Members(), 3)
	assert.True(t, cc.ContainsPlayer(extra))
	assert.False(t, cc.ContainsPlayer(outsider))
	assert.False(t, cc.ContainsPlayer(nil))
	assert.Equal(t, b, cc.PartyByLeader(20))
	assert.Nil(t, cc.PartyByLeader(21))
}

func TestCommandChannel_ForEachMember_ShortCircuits(t *testing.T) {
	a := newTestChannelParty(t, 1, 10, 40, nil)
	b := newTestChannelParty(t, 2, 20, 55, nil)
	c := newTestChannelParty(t, 3, 30, 60, nil)
	require.NoError(t, a.AddMember(newTestPartyPlayer(t, 11, "A2")))

	cc, err := NewCommandChannel(a.Leader())
	require.NoError(t, err)
	require.NoError(t, cc.AddParty(b))
	require.NoError(t, cc.AddParty(c))

	var visited []uint32
	completed := cc.ForEachMember(func(p *Player) bool {
		visited = append(visited, p.ObjectID())
		return p.ObjectID() != 20
	})

	assert.False(t, completed)
	assert.Equal(t, []uint32{10, 11, 20}, visited, "party c must not be visited")

	count := 0
	assert.True(t, cc.ForEachMember(func(*Player) bool { count++; return true }))
	assert.Equal(t, 4, count)
}

func TestCommandChannel_MeetRaidLootCondition(t *testing.T) {
	a := newTestChannelParty(t, 1, 10, 40, nil)
	b := newTestChannelParty(t, 2, 20, 55, nil)
	cc, err := NewCommandChannel(a.Leader())
	require.NoError(t, err)
	require.NoError(t, cc.AddParty(b))

	assert.True(t, cc.MeetRaidLootCondition(raidBoss{raid: true}, 2))
	assert.False(t, cc.MeetRaidLootCondition(raidBoss{raid: true}, 3))
	assert.False(t, cc.MeetRaidLootCondition(raidBoss{raid: false}, 1))
	assert.False(t, cc.MeetRaidLootCondition(nil, 1))
}

func TestCommandChannel_ConcurrentReadsDuringWrites(t *testing.T) {
	base := newTestChannelParty(t, 1, 10, 40, nil)
	anchor := newTestChannelParty(t, 2, 20, 41, nil)
	cc, err := NewCommandChannel(base.Leader())
	require.NoError(t, err)
	require.NoError(t, cc.AddParty(anchor))

	extra := make([]*Party, 20)
	for i := range extra {
		extra[i] = newTestChannelParty(t, int32(100+i), uint32(1000+i), int32(20+i), nil)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, p := range extra {
			_ = cc.AddParty(p)
		}
		for _, p := range extra {
			cc.RemoveParty(p)
		}
	}()
	go func() {
		defer wg.Done()
		for range 500 {
			_ = cc.MemberCount()
			_ = cc.Members()
			_ = cc.ContainsPlayer(base.Leader())
			cc.ForEachMember(func(*Player) bool { return true })
		}
	}()
	wg.Wait()

	assert.Equal(t, 2, cc.PartyCount())
	assert.Equal(t, int32(41), cc.Level())
}
