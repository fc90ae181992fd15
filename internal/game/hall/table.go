package hall

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// HallInfo describes a clan hall.
type HallInfo struct {
	ID       int32
	Name     string
	HallType HallType
	Location string
	Lease    int64
}

// DefaultHalls is the clan hall set loaded when none is configured.
var DefaultHalls = []HallInfo{
	{ID: 21, Name: "Fortress of Resistance", HallType: TypeSiegable, Location: "Dion"},
	{ID: 22, Name: "Moonstone Hall", HallType: TypeAuctionable, Location: "Gludio", Lease: 500_000},
	{ID: 23, Name: "Onyx Hall", HallType: TypeAuctionable, Location: "Gludio", Lease: 500_000},
	{ID: 24, Name: "Topaz Hall", HallType: TypeAuctionable, Location: "Gludio", Lease: 500_000},
	{ID: 25, Name: "Ruby Hall", HallType: TypeAuctionable, Location: "Gludio", Lease: 500_000},
	{ID: 31, Name: "The Atramental Barracks", HallType: TypeAuctionable, Location: "Dion", Lease: 200_000},
	{ID: 32, Name: "The Scarlet Barracks", HallType: TypeAuctionable, Location: "Dion", Lease: 200_000},
	{ID: 34, Name: "Devastated Castle", HallType: TypeSiegable, Location: "Aden"},
	{ID: 35, Name: "Bandit Stronghold", HallType: TypeSiegable, Location: "Oren"},
	{ID: 36, Name: "The Golden Chamber", HallType: TypeAuctionable, Location: "Aden", Lease: 1_000_000},
	{ID: 42, Name: "Luna Hall", HallType: TypeAuctionable, Location: "Giran", Lease: 1_000_000},
	{ID: 48, Name: "Northern Hall", HallType: TypeAuctionable, Location: "Rune", Lease: 1_000_000},
	{ID: 58, Name: "Partisan Hideaway", HallType: TypeAuctionable, Location: "Schuttgart", Lease: 500_000},
	{ID: 62, Name: "Rainbow Springs", HallType: TypeSiegable, Location: "Goddard"},
}

// Table holds every clan hall and the auctions of free ones.
type Table struct {
	now func() time.Time

	mu    sync.RWMutex
	halls map[int32]*ClanHall

	auctionMu sync.RWMutex
	auctions  map[int32]*Auction // hallID → Auction
}

// NewTable creates a table of halls. A nil clock means time.Now.
func NewTable(halls []HallInfo, now func() time.Time) *Table {
	if now == nil {
		now = time.Now
	}
	t := &Table{
		now:      now,
		halls:    make(map[int32]*ClanHall, len(halls)),
		auctions: make(map[int32]*Auction, 8),
	}
	for _, info := range halls {
		t.halls[info.ID] = NewClanHall(info)
	}
	slog.Info("clan hall table initialized", "halls", len(t.halls))
	return t
}

// Hall returns a hall by ID, or nil.
func (t *Table) Hall(id int32) *ClanHall {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.halls[id]
}

// Halls returns every hall ordered by ID.
func (t *Table) Halls() []*ClanHall {
	t.mu.RLock()
	out := make([]*ClanHall, 0, len(t.halls))
	for _, h := range t.halls {
		out = append(out, h)
	}
	t.mu.RUnlock()

	slices.SortFunc(out, func(a, b *ClanHall) int { return cmp.Compare(a.ID(), b.ID()) })
	return out
}

// HallByOwner returns the hall owned by clanID, or nil.
func (t *Table) HallByOwner(clanID int32) *ClanHall {
	if clanID == 0 {
		return nil
	}
	for _, h := range t.Halls() {
		if h.OwnerClanID() == clanID {
			return h
		}
	}
	return nil
}

// SetOwner gives a free hall to a clan that owns none.
func (t *Table) SetOwner(hallID, clanID int32) error {
	h := t.Hall(hallID)
	if h == nil {
		return ErrHallNotFound
	}
	if h.HasOwner() {
		return ErrHallAlreadyOwned
	}
	if t.HallByOwner(clanID) != nil {
		return ErrAlreadyOwnsHall
	}

	h.setOwner(clanID, t.now())
	slog.Info("clan hall assigned", "hall_id", hallID, "hall", h.Name(), "clan_id", clanID)
	return nil
}

// FreeHall releases a hall from its owner.
func (t *Table) FreeHall(hallID int32) error {
	h := t.Hall(hallID)
	if h == nil {
		return ErrHallNotFound
	}
	h.free()
	return nil
}

// StartAuction puts a free hall on sale.
func (t *Table) StartAuction(hallID int32, startingBid int64, d time.Duration) (*Auction, error) {
	h := t.Hall(hallID)
	if h == nil {
		return nil, ErrHallNotFound
	}
	if h.HasOwner() {
		return nil, ErrHallAlreadyOwned
	}

	a := NewAuction(hallID, startingBid, t.now().Add(d))
	t.auctionMu.Lock()
	t.auctions[hallID] = a
	t.auctionMu.Unlock()

	slog.Info("auction started", "hall_id", hallID, "starting_bid", startingBid)
	return a, nil
}

// Auction returns the auction of a hall, or nil.
func (t *Table) Auction(hallID int32) *Auction {
	t.auctionMu.RLock()
	defer t.auctionMu.RUnlock()
	return t.auctions[hallID]
}

func (t *Table) auctionList() []*Auction {
	t.auctionMu.RLock()
	defer t.auctionMu.RUnlock()
	out := make([]*Auction, 0, len(t.auctions))
	for _, a := range t.auctions {
		out = append(out, a)
	}
	return out
}

// PlaceBid bids on a hall. A clan bids on one auction at a time.
func (t *Table) PlaceBid(hallID, clanID int32, amount int64) (int64, error) {
	a := t.Auction(hallID)
	if a == nil {
		return 0, ErrAuctionNotFound
	}
	if t.HallByOwner(clanID) != nil {
		return 0, ErrAlreadyOwnsHall
	}
	for _, other := range t.auctionList() {
		if other != a && other.HasBid(clanID) {
			return 0, ErrClanAlreadyBidding
		}
	}
	return a.PlaceBid(clanID, amount, t.now())
}

// EndAuction closes a hall auction and hands the hall to the best bidder.
// Returns the winning clan, 0 without bids.
func (t *Table) EndAuction(hallID int32) (int32, error) {
	t.auctionMu.Lock()
	a, ok := t.auctions[hallID]
	delete(t.auctions, hallID)
	t.auctionMu.Unlock()
	if !ok {
		return 0, ErrAuctionNotFound
	}

	best, ok := a.Highest()
	if !ok {
		slog.Info("auction ended with no bids", "hall_id", hallID)
		return 0, nil
	}
	if err := t.SetOwner(hallID, best.ClanID); err != nil {
		return 0, err
	}
	return best.ClanID, nil
}

// ReleaseClanHall frees the hall owned by clanID and drops its open bids.
func (t *Table) ReleaseClanHall(clanID int32) {
	if h := t.HallByOwner(clanID); h != nil {
		h.free()
	}
	for _, a := range t.auctionList() {
		if a.dropBid(clanID) {
			slog.Info("auction bid dropped", "hall_id", a.HallID(), "clan_id", clanID)
		}
	}
}
