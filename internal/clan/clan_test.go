package clan

import (
	"slices"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	c := New(1, "TestClan", 100)

	if c.ID() != 1 {
		t.Errorf("ID() = %d, want 1", c.ID())
	}
	if c.Name() != "TestClan" {
		t.Errorf("Name() = %q, want %q", c.Name(), "TestClan")
	}
	if c.LeaderID() != 100 {
		t.Errorf("LeaderID() = %d, want 100", c.LeaderID())
	}
	if c.Level() != 0 {
		t.Errorf("Level() = %d, want 0", c.Level())
	}
	if c.MemberCount() != 0 {
		t.Errorf("MemberCount() = %d, want 0", c.MemberCount())
	}
	if c.Warehouse() == nil {
		t.Error("Warehouse() = nil, want empty warehouse")
	}
	if c.IsDissolving() {
		t.Error("new clan should not be dissolving")
	}
}

func TestClan_AddRemoveMember(t *testing.T) {
	c := New(7, "Members", 1)
	m := NewMember(1, "Leader", 40, 1)

	if err := c.AddMember(m); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if m.ClanID() != 7 {
		t.Errorf("member ClanID = %d, want 7", m.ClanID())
	}
	if c.Leader() != m {
		t.Error("Leader() should return the leader member")
	}
	if got := c.MemberByName("LEADER"); got != m {
		t.Errorf("MemberByName(LEADER) = %v, want leader", got)
	}

	removed := c.RemoveMember(1)
	if removed != m {
		t.Fatalf("RemoveMember returned %v, want member", removed)
	}
	if m.ClanID() != 0 {
		t.Errorf("removed member ClanID = %d, want 0", m.ClanID())
	}
	if c.RemoveMember(1) != nil {
		t.Error("second RemoveMember should return nil")
	}
}

func TestClan_MaxMembers(t *testing.T) {
	c := New(1, "Full", 1)

	for i := int64(1); i <= int64(c.MaxMembers()); i++ {
		if err := c.AddMember(NewMember(i, "m", 20, 5)); err != nil {
			t.Fatalf("AddMember(%d): %v", i, err)
		}
	}
	if err := c.AddMember(NewMember(999, "extra", 20, 5)); err != ErrClanFull {
		t.Errorf("AddMember over cap = %v, want ErrClanFull", err)
	}

	c.SetLevel(3)
	if c.MaxMembers() != 30 {
		t.Errorf("MaxMembers() at level 3 = %d, want 30", c.MaxMembers())
	}
}

func TestClan_MembersOrdered(t *testing.T) {
	c := New(1, "Order", 30)
	for _, id := range []int64{30, 10, 20} {
		c.AddMember(NewMember(id, "m", 20, 5)) //nolint:errcheck
	}

	var ids []int64
	c.ForEachMember(func(m *Member) bool {
		ids = append(ids, m.PlayerID())
		return true
	})
	if !slices.Equal(ids, []int64{10, 20, 30}) {
		t.Errorf("ForEachMember order = %v, want [10 20 30]", ids)
	}

	visited := 0
	c.ForEachMember(func(*Member) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Errorf("ForEachMember visited %d after stop, want 1", visited)
	}
}

func TestClan_Alliance(t *testing.T) {
	c := New(5, "Ally", 1)

	c.SetAlly(5, "Northern")
	c.SetAllyCrestID(77)
	if !c.IsAllyLeader() {
		t.Error("clan with allyID == id should be alliance leader")
	}

	c.SetAlly(9, "Northern")
	if c.IsAllyLeader() {
		t.Error("clan with foreign allyID should not be alliance leader")
	}

	c.ClearAlly()
	if c.AllyID() != 0 || c.AllyName() != "" || c.AllyCrestID() != 0 {
		t.Errorf("after ClearAlly = (%d, %q, %d), want zero values", c.AllyID(), c.AllyName(), c.AllyCrestID())
	}
	if c.IsAllyLeader() {
		t.Error("clan without alliance should not be alliance leader")
	}
}

func TestClan_WarPeers(t *testing.T) {
	c := New(1, "Peers", 1)

	c.AddWarPeer(30)
	c.AddWarPeer(10)
	c.AddWarPeer(30)

	if !slices.Equal(c.WarPeers(), []int32{10, 30}) {
		t.Errorf("WarPeers() = %v, want [10 30]", c.WarPeers())
	}
	if !c.HasWarPeer(10) {
		t.Error("HasWarPeer(10) = false, want true")
	}

	c.RemoveWarPeer(10)
	if c.HasWarPeer(10) {
		t.Error("HasWarPeer(10) after remove = true, want false")
	}
}

func TestClan_RowRoundTrip(t *testing.T) {
	row := ClanRow{
		ClanID: 3, Name: "Stored", LeaderID: 42, Level: 4, Reputation: 1500,
		CrestID: 11, LargeCrestID: 12, AllyID: 3, AllyName: "Pact", AllyCrestID: 13,
		CastleID: 2, FortID: 101, DissolutionTime: 1700000000000,
	}

	c := fromRow(row)
	if got := c.Row(); got != row {
		t.Errorf("fromRow(row).Row() = %+v, want %+v", got, row)
	}
}

func TestClan_ConcurrentAccess(t *testing.T) {
	c := New(1, "Busy", 1)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(base int64) {
			defer wg.Done()
			for j := range int64(5) {
				id := base*100 + j
				if err := c.AddMember(NewMember(id, "m", 20, 5)); err != nil && err != ErrClanFull {
					t.Errorf("AddMember: %v", err)
				}
				c.AddWarPeer(int32(id))
				_ = c.Members()
				_ = c.WarPeers()
				c.AddReputation(1)
			}
		}(int64(i))
	}
	wg.Wait()

	if c.MemberCount() != int(c.MaxMembers()) {
		t.Errorf("MemberCount() = %d, want cap %d", c.MemberCount(), c.MaxMembers())
	}
	if c.Reputation() != 40 {
		t.Errorf("Reputation() = %d, want 40", c.Reputation())
	}
}
