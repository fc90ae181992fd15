// Package siege tracks castles and the clans registered for their sieges.
package siege

import (
	"sync/atomic"
)

// Castle is a castle a clan can hold and besiege.
type Castle struct {
	id    int32
	name  string
	owner atomic.Int32 // 0 = no owner

	siege atomic.Pointer[Siege]
}

// NewCastle creates an unowned castle with an open registration siege.
func NewCastle(id int32, name string) *Castle {
	c := &Castle{id: id, name: name}
	c.siege.Store(NewSiege(c))
	return c
}

// ID returns the castle ID.
func (c *Castle) ID() int32 { return c.id }

// Name returns the castle name.
func (c *Castle) Name() string { return c.name }

// OwnerClanID returns the owning clan ID, 0 when unowned.
func (c *Castle) OwnerClanID() int32 { return c.owner.Load() }

// SetOwnerClanID sets the owning clan ID.
func (c *Castle) SetOwnerClanID(clanID int32) { c.owner.Store(clanID) }

// HasOwner reports whether a clan holds the castle.
func (c *Castle) HasOwner() bool { return c.owner.Load() > 0 }

// Siege returns the castle's current siege.
func (c *Castle) Siege() *Siege { return c.siege.Load() }
