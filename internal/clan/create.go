package clan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/udisondev/l2pledge/internal/model"
)

// Clan creation errors, checked in this order.
var (
	ErrNilPlayer       = errors.New("no requesting player")
	ErrLevelTooLow     = errors.New("player level too low to create a clan")
	ErrCreateCooldown  = errors.New("clan creation cooldown active")
	ErrClanNameInvalid = errors.New("invalid clan name")
	ErrClanNameLength  = errors.New("clan name length out of range")
	ErrClanNameTaken   = errors.New("clan name already taken")
)

// CreateClan founds a clan with player as its sole member and leader.
// A failed check returns one of the creation errors and changes nothing.
// A store failure after validation is logged and the clan is kept.
func (r *Registry) CreateClan(ctx context.Context, player *model.Player, name string) (*Clan, error) {
	if err := r.checkCreate(player, name); err != nil {
		if player != nil {
			slog.Debug("clan creation rejected", "player", player.Name(), "name", name, "error", err)
		}
		return nil, err
	}

	id, err := r.ids.Allocate()
	if err != nil {
		return nil, fmt.Errorf("allocating clan id: %w", err)
	}

	c := New(id, name, int64(player.ObjectID()))
	leader := NewLeaderMember(player)
	leader.setClanID(id)
	c.members[leader.playerID] = leader

	if err := r.store.SaveClan(ctx, c.Row()); err != nil {
		slog.Error("saving new clan", "clan_id", id, "name", name, "error", err)
	}
	if err := r.store.SaveMember(ctx, leader.Row()); err != nil {
		slog.Error("saving clan leader", "clan_id", id, "player_id", leader.PlayerID(), "error", err)
	}

	// The name may have been taken since checkCreate.
	if err := r.register(c); err != nil {
		if derr := r.store.DeleteClan(ctx, id); derr != nil {
			slog.Error("removing clan that lost name race", "clan_id", id, "error", derr)
		}
		r.ids.Release(id)
		return nil, ErrClanNameTaken
	}

	player.SetClanID(id)
	player.SetClanPrivileges(PrivAll.Mask())
	player.SendMessage(model.MsgClanCreated)

	r.events.PublishAsync(ClanCreated{ClanID: id, ClanName: name, LeaderID: c.LeaderID()})
	slog.Info("clan created", "clan_id", id, "name", name, "leader_id", c.LeaderID())
	return c, nil
}

func (r *Registry) checkCreate(player *model.Player, name string) error {
	switch {
	case player == nil:
		return ErrNilPlayer
	case player.ClanID() != 0:
		return ErrAlreadyInClan
	case player.Level() < r.rules.MinCreateLevel:
		return ErrLevelTooLow
	case r.now().UnixMilli() < player.ClanCreateExpiryTime():
		return ErrCreateCooldown
	}

	if !isAlphaNumeric(name) {
		return ErrClanNameInvalid
	}
	if len(name) < r.rules.MinNameLen || len(name) > r.rules.MaxNameLen {
		return ErrClanNameLength
	}
	if r.ClanByName(name) != nil {
		return ErrClanNameTaken
	}
	return nil
}

// FailureMessage maps a CreateClan error to the message shown to the player.
func FailureMessage(err error) model.MessageID {
	switch {
	case errors.Is(err, ErrAlreadyInClan):
		return model.MsgClanCreateFailed
	case errors.Is(err, ErrLevelTooLow):
		return model.MsgClanCreateCriteria
	case errors.Is(err, ErrCreateCooldown):
		return model.MsgClanCreateCooldown
	case errors.Is(err, ErrClanNameInvalid):
		return model.MsgClanNameInvalid
	case errors.Is(err, ErrClanNameLength):
		return model.MsgClanNameLength
	case errors.Is(err, ErrClanNameTaken):
		return model.MsgNameAlreadyExists
	}
	return model.MsgNone
}

// isAlphaNumeric reports whether name is non-empty and only A-Z, a-z, 0-9.
func isAlphaNumeric(name string) bool {
	if name == "" {
		return false
	}
	return !strings.ContainsFunc(name, func(r rune) bool {
		return !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
}
