package clan

import "github.com/udisondev/l2pledge/internal/event"

// IDAllocator hands out and takes back clan identifiers.
type IDAllocator interface {
	Allocate() (int32, error)
	Release(id int32)
	MarkUsed(id int32)
}

// Publisher delivers domain events asynchronously.
type Publisher interface {
	PublishAsync(e event.Event)
}

// SiegeRegistry removes a clan from castle siege registrations.
type SiegeRegistry interface {
	RemoveClanFromSieges(clanID int32)
}

// FortRegistry removes a clan from fortress sieges and ownership.
type FortRegistry interface {
	RemoveAttacker(clanID int32)
	FortOwner(fortID int32) int32
	RemoveOwner(fortID int32, forced bool)
}

// HallRegistry releases clan hall ownership.
type HallRegistry interface {
	ReleaseClanHall(clanID int32)
}

// CrestRemover drops crest images. Zero ids are ignored.
type CrestRemover interface {
	RemoveCrests(crestIDs ...int32)
}

type nopPublisher struct{}

func (nopPublisher) PublishAsync(event.Event) {}
