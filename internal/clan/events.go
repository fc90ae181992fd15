package clan

// Event names published on the bus.
const (
	EventClanCreated     = "clan.created"
	EventClanDestroyed   = "clan.destroyed"
	EventClanWarFinished = "clan.war_finished"
)

// ClanCreated is published after a new clan is indexed.
type ClanCreated struct {
	ClanID   int32
	ClanName string
	LeaderID int64
}

func (ClanCreated) Name() string { return EventClanCreated }

// ClanDestroyed is published after a clan is removed.
// Leader is nil when the clan had no leader member at the time.
type ClanDestroyed struct {
	ClanID   int32
	ClanName string
	Leader   *Member
}

func (ClanDestroyed) Name() string { return EventClanDestroyed }

// ClanWarFinished is published when a war record is removed.
type ClanWarFinished struct {
	AttackerID int32
	AttackedID int32
	WinnerID   int32
	State      WarState
}

func (ClanWarFinished) Name() string { return EventClanWarFinished }
