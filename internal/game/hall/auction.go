package hall

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrAuctionNotFound    = errors.New("auction not found")
	ErrBidTooLow          = errors.New("bid too low")
	ErrNoBid              = errors.New("no bid to cancel")
	ErrAuctionClosed      = errors.New("auction is closed")
	ErrHallAlreadyOwned   = errors.New("clan hall already owned")
	ErrHallNotFound       = errors.New("clan hall not found")
	ErrClanAlreadyBidding = errors.New("clan already bidding on another hall")
	ErrAlreadyOwnsHall    = errors.New("clan already owns a hall")
)

// CancelFeePercent is kept from a bid withdrawn by its clan.
const CancelFeePercent = 10

// Bid is a clan's standing offer.
type Bid struct {
	ClanID int32
	Amount int64
	At     time.Time
}

// Auction sells one free hall to the highest bidder.
type Auction struct {
	hallID      int32
	startingBid int64
	endDate     time.Time

	mu   sync.RWMutex
	bids map[int32]Bid
}

// NewAuction opens an auction for a hall.
func NewAuction(hallID int32, startingBid int64, endDate time.Time) *Auction {
	return &Auction{
		hallID:      hallID,
		startingBid: startingBid,
		endDate:     endDate,
		bids:        make(map[int32]Bid, 8),
	}
}

// HallID returns the hall on sale.
func (a *Auction) HallID() int32 { return a.hallID }

// StartingBid returns the minimum first bid.
func (a *Auction) StartingBid() int64 { return a.startingBid }

// EndDate returns the closing time.
func (a *Auction) EndDate() time.Time { return a.endDate }

// Highest returns the leading bid. ok is false without bids.
func (a *Auction) Highest() (Bid, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.highestLocked()
}

func (a *Auction) highestLocked() (Bid, bool) {
	var (
		best Bid
		ok   bool
	)
	for _, b := range a.bids {
		if !ok || b.Amount > best.Amount || (b.Amount == best.Amount && b.At.Before(best.At)) {
			best, ok = b, true
		}
	}
	return best, ok
}

// HasBid reports whether the clan bids.
func (a *Auction) HasBid(clanID int32) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.bids[clanID]
	return ok
}

// BidCount returns the number of bidding clans.
func (a *Auction) BidCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.bids)
}

// PlaceBid raises the clan's bid to amount and returns the extra amount owed.
func (a *Auction) PlaceBid(clanID int32, amount int64, now time.Time) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !now.Before(a.endDate) {
		return 0, ErrAuctionClosed
	}
	minBid := a.startingBid
	if best, ok := a.highestLocked(); ok {
		minBid = best.Amount + 1
	}
	if amount < minBid {
		return 0, ErrBidTooLow
	}

	owed := amount - a.bids[clanID].Amount
	a.bids[clanID] = Bid{ClanID: clanID, Amount: amount, At: now}

	slog.Info("auction bid placed", "hall_id", a.hallID, "clan_id", clanID, "bid", amount)
	return owed, nil
}

// CancelBid withdraws the clan's bid and returns the refund after the fee.
func (a *Auction) CancelBid(clanID int32) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.bids[clanID]
	if !ok {
		return 0, ErrNoBid
	}
	delete(a.bids, clanID)

	refund := b.Amount - b.Amount*CancelFeePercent/100
	slog.Info("auction bid canceled", "hall_id", a.hallID, "clan_id", clanID, "refund", refund)
	return refund, nil
}

// dropBid removes a bid without refund. Reports whether one existed.
func (a *Auction) dropBid(clanID int32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.bids[clanID]; !ok {
		return false
	}
	delete(a.bids, clanID)
	return true
}
