package clan

import "context"

// ClanRow is the DB transfer object for a clan.
type ClanRow struct {
	ClanID          int32
	Name            string
	LeaderID        int64
	Level           int32
	Reputation      int32
	CrestID         int32
	LargeCrestID    int32
	AllyID          int32
	AllyName        string
	AllyCrestID     int32
	CastleID        int32
	FortID          int32
	DissolutionTime int64
}

// MemberRow is the DB transfer object for a clan member.
type MemberRow struct {
	CharacterID int64
	ClanID      int32
	Name        string
	Level       int32
	PowerGrade  int32
	Title       string
}

// WarRow is the DB transfer object for a clan war.
// Clan1 is the attacker; State is stored from the attacker's view.
type WarRow struct {
	Clan1ID    int32
	Clan2ID    int32
	Clan1Kills int32
	Clan2Kills int32
	WinnerID   int32
	StartTime  int64
	EndTime    int64
	State      int32
}

// Store abstracts clan persistence.
// Declared in the consuming package per Go interface conventions.
type Store interface {
	LoadClans(ctx context.Context) ([]ClanRow, error)
	LoadMembers(ctx context.Context, clanID int32) ([]MemberRow, error)
	SaveClan(ctx context.Context, row ClanRow) error
	SaveMember(ctx context.Context, row MemberRow) error
	DeleteMember(ctx context.Context, characterID int64) error
	// DeleteClan removes the clan row together with its member rows.
	DeleteClan(ctx context.Context, clanID int32) error

	LoadWars(ctx context.Context) ([]WarRow, error)
	// UpsertWar replaces the row for the unordered pair (Clan1ID, Clan2ID).
	UpsertWar(ctx context.Context, row WarRow) error
	DeleteWar(ctx context.Context, clan1ID, clan2ID int32) error
}
