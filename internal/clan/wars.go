package clan

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
)

// DeclareWar records attackerID declaring war on attackedID.
// If the attacked clan had already declared on the attacker the war
// becomes mutual. The war row is stored either way.
func (r *Registry) DeclareWar(ctx context.Context, attackerID, attackedID int32) (*War, error) {
	if attackerID == attackedID {
		return nil, ErrSelfWar
	}
	attacker, attacked := r.Clan(attackerID), r.Clan(attackedID)
	if attacker == nil || attacked == nil {
		return nil, fmt.Errorf("declare war %d on %d: %w", attackerID, attackedID, ErrClanNotFound)
	}
	if ally := attacker.AllyID(); ally != 0 && ally == attacked.AllyID() {
		return nil, ErrSameAlliance
	}

	key := NewPairKey(attackerID, attackedID)
	r.warMu.Lock()
	w, ok := r.wars[key]
	if ok && !w.State().Terminal() {
		if w.AttackerID() == attackerID {
			r.warMu.Unlock()
			return nil, ErrAlreadyAtWar
		}
		if err := w.Accept(); err != nil {
			r.warMu.Unlock()
			return nil, err
		}
	} else {
		w = NewWar(attackerID, attackedID, r.now())
		r.wars[key] = w
	}
	r.warMu.Unlock()

	attacker.AddWarPeer(attackedID)
	attacked.AddWarPeer(attackerID)
	r.StoreClanWar(ctx, w)

	attacker.BroadcastNotice(statusNotice(attackerID))
	attacked.BroadcastNotice(statusNotice(attackedID))
	slog.Info("clan war declared",
		"attacker_id", attackerID,
		"attacked_id", attackedID,
		"state", w.State())
	return w, nil
}

// CancelWar withdraws a one-sided declaration made by attackerID.
func (r *Registry) CancelWar(ctx context.Context, attackerID, attackedID int32) error {
	w := r.War(attackerID, attackedID)
	if w == nil {
		return ErrNotAtWar
	}
	if w.AttackerID() != attackerID {
		return ErrNotParticipant
	}
	if err := w.Cancel(r.now()); err != nil {
		return err
	}
	r.StoreClanWar(ctx, w)
	return nil
}

// RecordKill counts a kill of a victimClanID member by a killerClanID member.
// Returns false if the two clans have no running war.
func (r *Registry) RecordKill(killerClanID, victimClanID int32) bool {
	w := r.War(killerClanID, victimClanID)
	if w == nil {
		return false
	}
	return w.AddKill(killerClanID)
}

// ResolveWar ends the war between a and b. winnerID 0 is a tie.
func (r *Registry) ResolveWar(ctx context.Context, a, b, winnerID int32) error {
	w := r.War(a, b)
	if w == nil {
		return ErrNotAtWar
	}
	if err := w.Resolve(winnerID, r.now()); err != nil {
		return err
	}
	r.StoreClanWar(ctx, w)

	for _, id := range []int32{a, b} {
		if c := r.Clan(id); c != nil {
			c.BroadcastNotice(statusNotice(id))
		}
	}
	slog.Info("clan war resolved", "clan1_id", a, "clan2_id", b, "winner_id", winnerID, "state", w.State())
	return nil
}

// War returns the war between two clans in either order, or nil.
func (r *Registry) War(a, b int32) *War {
	r.warMu.RLock()
	defer r.warMu.RUnlock()
	return r.wars[NewPairKey(a, b)]
}

// WarsOf returns every war the clan takes part in, ordered by opponent ID.
func (r *Registry) WarsOf(clanID int32) []*War {
	c := r.Clan(clanID)
	if c == nil {
		return nil
	}
	var result []*War
	for _, peer := range c.WarPeers() {
		if w := r.War(clanID, peer); w != nil {
			result = append(result, w)
		}
	}
	return result
}

// WarCount returns the number of wars in the war table.
func (r *Registry) WarCount() int {
	r.warMu.RLock()
	defer r.warMu.RUnlock()
	return len(r.wars)
}

func (r *Registry) allWars() []*War {
	r.warMu.RLock()
	result := make([]*War, 0, len(r.wars))
	for _, w := range r.wars {
		result = append(result, w)
	}
	r.warMu.RUnlock()

	slices.SortFunc(result, func(a, b *War) int {
		ka, kb := a.Key(), b.Key()
		if c := cmp.Compare(ka.Low, kb.Low); c != 0 {
			return c
		}
		return cmp.Compare(ka.High, kb.High)
	})
	return result
}

// StoreClanWar upserts the war row. Failures are logged, not returned.
func (r *Registry) StoreClanWar(ctx context.Context, w *War) {
	if err := r.store.UpsertWar(ctx, w.Row()); err != nil {
		slog.Error("storing clan war",
			"clan1_id", w.AttackerID(),
			"clan2_id", w.AttackedID(),
			"error", err)
	}
}

// restoreClanWars installs persisted wars. Rows naming a clan that no
// longer exists are skipped.
func (r *Registry) restoreClanWars(ctx context.Context) {
	rows, err := r.store.LoadWars(ctx)
	if err != nil {
		slog.Error("loading clan wars", "error", err)
		return
	}

	restored := 0
	for _, row := range rows {
		a, b := r.Clan(row.Clan1ID), r.Clan(row.Clan2ID)
		if a == nil || b == nil || row.Clan1ID == row.Clan2ID {
			slog.Warn("skipping dangling clan war", "clan1_id", row.Clan1ID, "clan2_id", row.Clan2ID)
			continue
		}

		w := warFromRow(row)
		r.warMu.Lock()
		r.wars[w.Key()] = w
		r.warMu.Unlock()
		a.AddWarPeer(b.ID())
		b.AddWarPeer(a.ID())
		restored++
	}
	slog.Debug("clan wars restored", "count", restored, "rows", len(rows))
}

// DeleteClanWars removes the war between two existing clans.
// Both clans must be indexed; otherwise ErrClanNotFound is returned
// and nothing changes.
func (r *Registry) DeleteClanWars(ctx context.Context, a, b int32) error {
	c1, c2 := r.Clan(a), r.Clan(b)
	if c1 == nil || c2 == nil {
		return fmt.Errorf("delete clan war %d/%d: %w", a, b, ErrClanNotFound)
	}

	r.warMu.Lock()
	key := NewPairKey(a, b)
	w := r.wars[key]
	delete(r.wars, key)
	r.warMu.Unlock()

	c1.RemoveWarPeer(b)
	c2.RemoveWarPeer(a)

	if w == nil {
		slog.Debug("no clan war to delete", "clan1_id", a, "clan2_id", b)
	} else {
		r.events.PublishAsync(finishedEvent(w))
		c1.BroadcastNotice(statusNotice(a))
		c2.BroadcastNotice(statusNotice(b))
	}

	if err := r.store.DeleteWar(ctx, a, b); err != nil {
		slog.Error("deleting clan war", "clan1_id", a, "clan2_id", b, "error", err)
	}
	return nil
}

// purgeWars drops every war of a clan being destroyed.
func (r *Registry) purgeWars(ctx context.Context, c *Clan) {
	for _, peerID := range c.WarPeers() {
		r.warMu.Lock()
		key := NewPairKey(c.ID(), peerID)
		w := r.wars[key]
		delete(r.wars, key)
		r.warMu.Unlock()

		c.RemoveWarPeer(peerID)
		if peer := r.Clan(peerID); peer != nil {
			peer.RemoveWarPeer(c.ID())
			peer.BroadcastNotice(statusNotice(peerID))
		}
		if w != nil {
			r.events.PublishAsync(finishedEvent(w))
		}

		if err := r.store.DeleteWar(ctx, c.ID(), peerID); err != nil {
			slog.Error("deleting clan war", "clan1_id", c.ID(), "clan2_id", peerID, "error", err)
		}
	}
}

func finishedEvent(w *War) ClanWarFinished {
	return ClanWarFinished{
		AttackerID: w.AttackerID(),
		AttackedID: w.AttackedID(),
		WinnerID:   w.WinnerID(),
		State:      w.State(),
	}
}
