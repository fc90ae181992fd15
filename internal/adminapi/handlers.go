package adminapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/udisondev/l2pledge/internal/clan"
)

type memberView struct {
	PlayerID   int64  `json:"player_id"`
	Name       string `json:"name"`
	Level      int32  `json:"level"`
	PowerGrade int32  `json:"power_grade"`
	Online     bool   `json:"online"`
}

type clanView struct {
	ID              int32        `json:"id"`
	Name            string       `json:"name"`
	Level           int32        `json:"level"`
	LeaderID        int64        `json:"leader_id"`
	Reputation      int32        `json:"reputation"`
	AllyID          int32        `json:"ally_id,omitempty"`
	AllyName        string       `json:"ally_name,omitempty"`
	CastleID        int32        `json:"castle_id,omitempty"`
	FortID          int32        `json:"fort_id,omitempty"`
	MemberCount     int          `json:"member_count"`
	DissolutionTime int64        `json:"dissolution_time,omitempty"`
	Members         []memberView `json:"members,omitempty"`
}

type warView struct {
	OpponentID int32  `json:"opponent_id"`
	Attacker   bool   `json:"attacker"`
	State      string `json:"state"`
	Kills      int32  `json:"kills"`
	Deaths     int32  `json:"deaths"`
	StartTime  int64  `json:"start_time"`
	EndTime    int64  `json:"end_time,omitempty"`
}

func newClanView(c *clan.Clan, withMembers bool) clanView {
	v := clanView{
		ID:              c.ID(),
		Name:            c.Name(),
		Level:           c.Level(),
		LeaderID:        c.LeaderID(),
		Reputation:      c.Reputation(),
		AllyID:          c.AllyID(),
		AllyName:        c.AllyName(),
		CastleID:        c.CastleID(),
		FortID:          c.FortID(),
		MemberCount:     c.MemberCount(),
		DissolutionTime: c.DissolutionTime(),
	}
	if withMembers {
		for _, m := range c.Members() {
			v.Members = append(v.Members, memberView{
				PlayerID:   m.PlayerID(),
				Name:       m.Name(),
				Level:      m.Level(),
				PowerGrade: m.PowerGrade(),
				Online:     m.Online(),
			})
		}
	}
	return v
}

func newWarView(w *clan.War, clanID int32) warView {
	opp := w.Opponent(clanID)
	return warView{
		OpponentID: opp,
		Attacker:   w.AttackerID() == clanID,
		State:      w.StateFor(clanID).String(),
		Kills:      w.KillsOf(clanID),
		Deaths:     w.KillsOf(opp),
		StartTime:  w.StartTime(),
		EndTime:    w.EndTime(),
	}
}

func clanViews(clans []*clan.Clan) []clanView {
	out := make([]clanView, 0, len(clans))
	for _, c := range clans {
		out = append(out, newClanView(c, false))
	}
	return out
}

func (s *Server) clanParam(c *fiber.Ctx) (*clan.Clan, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 32)
	if err != nil || id <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid clan id")
	}
	cl := s.reg.Clan(int32(id))
	if cl == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "clan not found")
	}
	return cl, nil
}

func (s *Server) listClans(c *fiber.Ctx) error {
	return c.JSON(clanViews(s.reg.Clans()))
}

func (s *Server) getClan(c *fiber.Ctx) error {
	cl, err := s.clanParam(c)
	if err != nil {
		return err
	}
	return c.JSON(newClanView(cl, true))
}

func (s *Server) clanAllies(c *fiber.Ctx) error {
	cl, err := s.clanParam(c)
	if err != nil {
		return err
	}
	return c.JSON(clanViews(s.reg.ClanAllies(cl.AllyID())))
}

func (s *Server) clanWars(c *fiber.Ctx) error {
	cl, err := s.clanParam(c)
	if err != nil {
		return err
	}
	wars := s.reg.WarsOf(cl.ID())
	out := make([]warView, 0, len(wars))
	for _, w := range wars {
		out = append(out, newWarView(w, cl.ID()))
	}
	return c.JSON(out)
}

func (s *Server) startDissolution(c *fiber.Ctx) error {
	cl, err := s.clanParam(c)
	if err != nil {
		return err
	}
	at, err := s.reg.StartDissolution(c.UserContext(), cl.ID())
	if err != nil {
		return dissolutionError(err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"clan_id":          cl.ID(),
		"dissolution_time": at.UnixMilli(),
		"dissolves_at":     at.UTC().Format(time.RFC3339),
	})
}

func (s *Server) cancelDissolution(c *fiber.Ctx) error {
	cl, err := s.clanParam(c)
	if err != nil {
		return err
	}
	if err := s.reg.CancelDissolution(c.UserContext(), cl.ID()); err != nil {
		return dissolutionError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) allianceCheck(c *fiber.Ctx) error {
	n := s.reg.AllianceCheck(c.UserContext())
	return c.JSON(fiber.Map{"corrected": n})
}

func (s *Server) partyStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"parties":          s.parties.PartyCount(),
		"command_channels": s.parties.ChannelCount(),
	})
}

func dissolutionError(err error) error {
	if errors.Is(err, clan.ErrClanNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "clan not found")
	}
	return err
}
