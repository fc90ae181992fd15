// Package hall tracks clan halls, their owners and the auctions selling them.
package hall

import (
	"log/slog"
	"sync"
	"time"
)

// HallType distinguishes auctioned halls from besieged ones.
type HallType int32

const (
	TypeAuctionable HallType = 0
	TypeSiegable    HallType = 1
)

// LeasePeriod is how long one lease payment lasts.
const LeasePeriod = 7 * 24 * time.Hour

// ClanHall is a hall a clan can own.
type ClanHall struct {
	id       int32
	name     string
	hallType HallType
	location string
	lease    int64

	mu          sync.RWMutex
	ownerClanID int32
	paidUntil   time.Time
	functions   map[FunctionType]Function
}

// NewClanHall creates an unowned hall.
func NewClanHall(info HallInfo) *ClanHall {
	return &ClanHall{
		id:        info.ID,
		name:      info.Name,
		hallType:  info.HallType,
		location:  info.Location,
		lease:     info.Lease,
		functions: make(map[FunctionType]Function, 6),
	}
}

// ID returns the hall ID.
func (h *ClanHall) ID() int32 { return h.id }

// Name returns the hall name.
func (h *ClanHall) Name() string { return h.name }

// Type returns the hall type.
func (h *ClanHall) Type() HallType { return h.hallType }

// Location returns the town the hall belongs to.
func (h *ClanHall) Location() string { return h.location }

// Lease returns the weekly lease.
func (h *ClanHall) Lease() int64 { return h.lease }

// OwnerClanID returns the owning clan, 0 when free.
func (h *ClanHall) OwnerClanID() int32 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ownerClanID
}

// HasOwner reports whether a clan owns the hall.
func (h *ClanHall) HasOwner() bool { return h.OwnerClanID() > 0 }

// PaidUntil returns the lease expiry.
func (h *ClanHall) PaidUntil() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.paidUntil
}

// SetFunction rents or replaces a facility.
func (h *ClanHall) SetFunction(f Function) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.functions[f.Type] = f
}

// Function returns the facility of type ft.
func (h *ClanHall) Function(ft FunctionType) (Function, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	f, ok := h.functions[ft]
	return f, ok
}

// FunctionCount returns the number of rented facilities.
func (h *ClanHall) FunctionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.functions)
}

func (h *ClanHall) setOwner(clanID int32, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ownerClanID = clanID
	h.paidUntil = now.Add(LeasePeriod)
	clear(h.functions)
}

// free clears the owner and every facility. Returns the previous owner.
func (h *ClanHall) free() int32 {
	h.mu.Lock()
	prev := h.ownerClanID
	h.ownerClanID = 0
	h.paidUntil = time.Time{}
	clear(h.functions)
	h.mu.Unlock()

	if prev > 0 {
		slog.Info("clan hall freed", "hall_id", h.id, "prev_owner", prev)
	}
	return prev
}
