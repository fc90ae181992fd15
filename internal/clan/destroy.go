package clan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/udisondev/l2pledge/internal/model"
)

// DestroyClan tears down a clan and every reference other subsystems hold
// to it. Unknown IDs are ignored. The steps are not atomic; a failing
// store call is logged and the teardown continues.
func (r *Registry) DestroyClan(ctx context.Context, clanID int32) {
	r.destroyMu.Lock()
	defer r.destroyMu.Unlock()

	c := r.Clan(clanID)
	if c == nil {
		return
	}

	c.BroadcastMessage(model.MsgClanDispersed)

	castleID := c.CastleID()
	fortID := c.FortID()
	if castleID == 0 && r.sieges != nil {
		r.sieges.RemoveClanFromSieges(clanID)
	}
	if fortID == 0 && r.forts != nil {
		r.forts.RemoveAttacker(clanID)
	}
	if r.halls != nil {
		r.halls.ReleaseClanHall(clanID)
	}

	leader := c.Leader()
	var actor *model.Player
	if leader != nil {
		actor = leader.Player()
	}
	c.Warehouse().WipeContents(WipeClanRemove, actor, "clan "+c.Name()+" destroyed")

	leaderID := c.LeaderID()
	cooldownUntil := r.now().Add(r.rules.CreateCooldown).UnixMilli()
	for _, m := range c.Members() {
		c.RemoveMember(m.PlayerID())
		p := m.Player()
		if p == nil {
			continue
		}
		p.SetClanID(0)
		p.SetClanPrivileges(PrivNone.Mask())
		if m.PlayerID() == leaderID {
			p.SetClanCreateExpiryTime(cooldownUntil)
		}
	}

	r.purgeWars(ctx, c)
	wasAllyLeader := c.IsAllyLeader()

	r.mu.Lock()
	delete(r.clans, clanID)
	delete(r.nameIndex, strings.ToLower(c.Name()))
	r.mu.Unlock()

	r.ids.Release(clanID)

	if err := r.store.DeleteClan(ctx, clanID); err != nil {
		slog.Error("deleting clan", "clan_id", clanID, "error", err)
	}

	if r.crests != nil {
		ids := []int32{c.CrestID(), c.LargeCrestID()}
		if wasAllyLeader {
			ids = append(ids, c.AllyCrestID())
		}
		r.crests.RemoveCrests(ids...)
	}

	if fortID != 0 && r.forts != nil && r.forts.FortOwner(fortID) == clanID {
		r.forts.RemoveOwner(fortID, true)
	}

	if r.dissolver != nil {
		r.dissolver.Cancel(clanID)
	}

	if wasAllyLeader {
		r.AllianceCheck(ctx)
	}

	r.events.PublishAsync(ClanDestroyed{ClanID: clanID, ClanName: c.Name(), Leader: leader})
	slog.Info("clan destroyed", "clan_id", clanID, "name", c.Name())
}

// ScheduleRemoveClan arms deferred destruction for the clan's dissolution time.
// When the job fires the clan is destroyed only if it still exists and
// is still dissolving.
func (r *Registry) ScheduleRemoveClan(clanID int32) {
	if r.dissolver == nil {
		slog.Warn("no dissolution scheduler, clan removal not armed", "clan_id", clanID)
		return
	}
	c := r.Clan(clanID)
	if c == nil {
		return
	}

	at := time.UnixMilli(c.DissolutionTime())
	if err := r.dissolver.Schedule(clanID, at, func() { r.dissolutionDue(clanID) }); err != nil {
		slog.Error("arming clan removal", "clan_id", clanID, "error", err)
	}
}

func (r *Registry) dissolutionDue(clanID int32) {
	c := r.Clan(clanID)
	if c == nil {
		slog.Debug("dissolution fired for removed clan", "clan_id", clanID)
		return
	}
	if c.DissolutionTime() == 0 {
		slog.Info("clan dissolution was cancelled", "clan_id", clanID)
		return
	}
	r.DestroyClan(context.Background(), clanID)
}

// StartDissolution marks the clan for destruction after Rules.DissolveDelay.
func (r *Registry) StartDissolution(ctx context.Context, clanID int32) (time.Time, error) {
	c := r.Clan(clanID)
	if c == nil {
		return time.Time{}, fmt.Errorf("start dissolution of clan %d: %w", clanID, ErrClanNotFound)
	}

	at := r.now().Add(r.rules.DissolveDelay)
	c.SetDissolutionTime(at.UnixMilli())
	if err := r.store.SaveClan(ctx, c.Row()); err != nil {
		slog.Error("saving clan dissolution time", "clan_id", clanID, "error", err)
	}
	r.ScheduleRemoveClan(clanID)
	return at, nil
}

// CancelDissolution clears the dissolution timer. A job already armed
// becomes a no-op when it fires; it is also dropped if still pending.
func (r *Registry) CancelDissolution(ctx context.Context, clanID int32) error {
	c := r.Clan(clanID)
	if c == nil {
		return fmt.Errorf("cancel dissolution of clan %d: %w", clanID, ErrClanNotFound)
	}

	c.SetDissolutionTime(0)
	if err := r.store.SaveClan(ctx, c.Row()); err != nil {
		slog.Error("clearing clan dissolution time", "clan_id", clanID, "error", err)
	}
	if r.dissolver != nil {
		r.dissolver.Cancel(clanID)
	}
	return nil
}
