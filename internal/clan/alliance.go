package clan

import (
	"context"
	"log/slog"
	"strings"
)

// AllyExists returns true if any clan carries the alliance name (case-insensitive).
func (r *Registry) AllyExists(allyName string) bool {
	found := false
	r.ForEach(func(c *Clan) bool {
		if c.AllyID() != 0 && strings.EqualFold(c.AllyName(), allyName) {
			found = true
			return false
		}
		return true
	})
	return found
}

// ClanAllies returns all clans belonging to the alliance, ordered by clan ID.
// Alliance ID 0 means "no alliance" and yields nothing.
func (r *Registry) ClanAllies(allyID int32) []*Clan {
	if allyID == 0 {
		return nil
	}
	var result []*Clan
	for _, c := range r.Clans() {
		if c.AllyID() == allyID {
			result = append(result, c)
		}
	}
	return result
}

// ClanAllyCount returns the number of clans in the given alliance.
func (r *Registry) ClanAllyCount(allyID int32) int {
	return len(r.ClanAllies(allyID))
}

// AllianceCheck clears alliance links that point at a clan no longer in the
// index. A clan pointing at itself is the alliance leader and is left alone.
// Returns the number of corrected clans.
func (r *Registry) AllianceCheck(ctx context.Context) int {
	fixed := 0
	for _, c := range r.Clans() {
		allyID := c.AllyID()
		if allyID == 0 || allyID == c.ID() || r.Clan(allyID) != nil {
			continue
		}

		c.ClearAlly()
		if err := r.store.SaveClan(ctx, c.Row()); err != nil {
			slog.Error("saving clan after alliance check", "clan_id", c.ID(), "error", err)
		}
		slog.Warn("removed dangling alliance", "clan_id", c.ID(), "ally_id", allyID)
		fixed++
	}
	return fixed
}
