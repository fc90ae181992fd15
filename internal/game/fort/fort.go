// Package fort tracks fortresses, their owners and fort siege attackers.
package fort

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"
)

// Fort is a fortress a clan can capture.
type Fort struct {
	id    int32
	name  string
	owner atomic.Int32

	mu        sync.RWMutex
	attackers map[int32]string // clanID → clan name
	siegeOn   bool
}

// NewFort creates an unowned fort.
func NewFort(id int32, name string) *Fort {
	return &Fort{
		id:        id,
		name:      name,
		attackers: make(map[int32]string, 8),
	}
}

// ID returns the fort ID.
func (f *Fort) ID() int32 { return f.id }

// Name returns the fort name.
func (f *Fort) Name() string { return f.name }

// OwnerClanID returns the owning clan, 0 when unowned.
func (f *Fort) OwnerClanID() int32 { return f.owner.Load() }

// SiegeInProgress reports whether a fort siege is running.
func (f *Fort) SiegeInProgress() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.siegeOn
}

// IsAttacker reports whether the clan is registered to attack.
func (f *Fort) IsAttacker(clanID int32) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.attackers[clanID]
	return ok
}

// Attackers returns the attacking clan IDs in ascending order.
func (f *Fort) Attackers() []int32 {
	f.mu.RLock()
	out := make([]int32, 0, len(f.attackers))
	for id := range f.attackers {
		out = append(out, id)
	}
	f.mu.RUnlock()

	slices.SortFunc(out, cmp.Compare[int32])
	return out
}

func (f *Fort) addAttacker(clanID int32, clanName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attackers[clanID] = clanName
}

func (f *Fort) removeAttacker(clanID int32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.attackers[clanID]; !ok {
		return false
	}
	delete(f.attackers, clanID)
	return true
}

func (f *Fort) setSiege(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.siegeOn = on
	if !on {
		clear(f.attackers)
	}
}
