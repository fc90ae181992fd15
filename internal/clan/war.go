package clan

import (
	"errors"
	"sync"
	"time"
)

// WarState is the progress of a clan war, seen from the attacker's side.
type WarState int32

const (
	WarDeclaration      WarState = iota // one side declared
	WarBloodDeclaration                 // both sides declared
	WarCancel                           // attacker withdrew
	WarWin                              // attacker won
	WarLoss                             // attacker lost
	WarTie
)

var warStateNames = [...]string{
	WarDeclaration:      "declaration",
	WarBloodDeclaration: "blood_declaration",
	WarCancel:           "cancel",
	WarWin:              "win",
	WarLoss:             "loss",
	WarTie:              "tie",
}

func (s WarState) String() string {
	if s < 0 || int(s) >= len(warStateNames) {
		return "unknown"
	}
	return warStateNames[s]
}

// Terminal reports whether no further transitions are allowed.
func (s WarState) Terminal() bool {
	return s == WarCancel || s == WarWin || s == WarLoss || s == WarTie
}

// War errors.
var (
	ErrWarFinished    = errors.New("war already finished")
	ErrWarMutual      = errors.New("war is mutual")
	ErrNotParticipant = errors.New("clan does not take part in this war")
	ErrAlreadyAtWar   = errors.New("already at war with this clan")
	ErrNotAtWar       = errors.New("not at war with this clan")
	ErrSelfWar        = errors.New("cannot declare war on own clan")
	ErrSameAlliance   = errors.New("cannot declare war on an allied clan")
)

// PairKey identifies the war between two clans regardless of who declared.
type PairKey struct {
	Low, High int32
}

// NewPairKey builds the key for an unordered pair.
func NewPairKey(a, b int32) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Low: a, High: b}
}

// War is the single shared record of a war between two clans.
// Thread-safe: all mutable fields protected by mu.
type War struct {
	mu sync.Mutex

	attackerID int32
	attackedID int32

	attackerKills int32
	attackedKills int32
	winnerID      int32

	startTime int64 // Unix millis
	endTime   int64 // Unix millis, 0 while running
	state     WarState
}

// NewWar starts a declared war.
func NewWar(attackerID, attackedID int32, now time.Time) *War {
	return &War{
		attackerID: attackerID,
		attackedID: attackedID,
		startTime:  now.UnixMilli(),
		state:      WarDeclaration,
	}
}

func warFromRow(row WarRow) *War {
	return &War{
		attackerID:    row.Clan1ID,
		attackedID:    row.Clan2ID,
		attackerKills: row.Clan1Kills,
		attackedKills: row.Clan2Kills,
		winnerID:      row.WinnerID,
		startTime:     row.StartTime,
		endTime:       row.EndTime,
		state:         WarState(row.State),
	}
}

// Row returns the persisted form of the war.
func (w *War) Row() WarRow {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WarRow{
		Clan1ID:    w.attackerID,
		Clan2ID:    w.attackedID,
		Clan1Kills: w.attackerKills,
		Clan2Kills: w.attackedKills,
		WinnerID:   w.winnerID,
		StartTime:  w.startTime,
		EndTime:    w.endTime,
		State:      int32(w.state),
	}
}

// Key returns the pair key.
func (w *War) Key() PairKey { return NewPairKey(w.attackerID, w.attackedID) }

// AttackerID returns the declaring clan.
func (w *War) AttackerID() int32 { return w.attackerID }

// AttackedID returns the clan war was declared on.
func (w *War) AttackedID() int32 { return w.attackedID }

// Involves reports whether the clan is one of the two sides.
func (w *War) Involves(clanID int32) bool {
	return clanID != 0 && (clanID == w.attackerID || clanID == w.attackedID)
}

// Opponent returns the other side, or 0 if clanID is not a participant.
func (w *War) Opponent(clanID int32) int32 {
	switch clanID {
	case w.attackerID:
		return w.attackedID
	case w.attackedID:
		return w.attackerID
	}
	return 0
}

// State returns the state from the attacker's view.
func (w *War) State() WarState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// StateFor returns the state from the given side's view.
// Win and Loss swap for the attacked clan.
func (w *War) StateFor(clanID int32) WarState {
	w.mu.Lock()
	defer w.mu.Unlock()
	if clanID == w.attackedID {
		switch w.state {
		case WarWin:
			return WarLoss
		case WarLoss:
			return WarWin
		}
	}
	return w.state
}

// WinnerID returns the winning clan, 0 while undecided or on a tie.
func (w *War) WinnerID() int32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.winnerID
}

// StartTime returns the declaration time in Unix millis.
func (w *War) StartTime() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.startTime
}

// EndTime returns the resolution time in Unix millis, 0 while running.
func (w *War) EndTime() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.endTime
}

// KillsOf returns the kills scored by the given side.
func (w *War) KillsOf(clanID int32) int32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch clanID {
	case w.attackerID:
		return w.attackerKills
	case w.attackedID:
		return w.attackedKills
	}
	return 0
}

// Accept turns a declaration into a mutual war.
func (w *War) Accept() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case w.state.Terminal():
		return ErrWarFinished
	case w.state == WarBloodDeclaration:
		return ErrAlreadyAtWar
	}
	w.state = WarBloodDeclaration
	return nil
}

// AddKill counts a kill for the killer's side.
// Returns false if the war is over or the killer is not a participant.
func (w *War) AddKill(killerClanID int32) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Terminal() {
		return false
	}
	switch killerClanID {
	case w.attackerID:
		w.attackerKills++
	case w.attackedID:
		w.attackedKills++
	default:
		return false
	}
	return true
}

// Resolve ends the war. winnerID 0 is a tie.
func (w *War) Resolve(winnerID int32, now time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Terminal() {
		return ErrWarFinished
	}
	switch winnerID {
	case 0:
		w.state = WarTie
	case w.attackerID:
		w.state = WarWin
	case w.attackedID:
		w.state = WarLoss
	default:
		return ErrNotParticipant
	}
	w.winnerID = winnerID
	w.endTime = now.UnixMilli()
	return nil
}

// Cancel withdraws a one-sided declaration.
func (w *War) Cancel(now time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case w.state.Terminal():
		return ErrWarFinished
	case w.state == WarBloodDeclaration:
		return ErrWarMutual
	}
	w.state = WarCancel
	w.endTime = now.UnixMilli()
	return nil
}
