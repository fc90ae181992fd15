package idfactory

import (
	"errors"
	"math/bits"
	"sync"
)

// ID range handed out by the factory.
//
//	0            : invalid (means "no clan")
//	FirstID..Max : allocatable
const (
	FirstID int32 = 0x10000000
	MaxID   int32 = 0x7FFFFFFF
)

// ErrExhausted is returned when every ID in the range is in use.
var ErrExhausted = errors.New("id range exhausted")

// Factory allocates and reclaims unique int32 IDs.
// Freed IDs are reused lowest-first, so the used set stays dense.
// Thread-safe: protected by mu.
type Factory struct {
	mu    sync.Mutex
	used  []uint64 // bitset, bit i = FirstID+i
	count int
	hint  int // lowest word that may contain a free bit
}

// New creates an empty factory.
func New() *Factory {
	return &Factory{used: make([]uint64, 0, 64)}
}

// Allocate returns the lowest free ID and marks it used.
func (f *Factory) Allocate() (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for w := f.hint; w < len(f.used); w++ {
		if f.used[w] == ^uint64(0) {
			continue
		}
		bit := bits.TrailingZeros64(^f.used[w])
		f.used[w] |= 1 << bit
		f.count++
		f.hint = w
		return FirstID + int32(w*64+bit), nil
	}

	idx := len(f.used) * 64
	if int64(idx) > int64(MaxID-FirstID) {
		return 0, ErrExhausted
	}
	f.used = append(f.used, 1)
	f.count++
	f.hint = len(f.used) - 1
	return FirstID + int32(idx), nil
}

// MarkUsed reserves an ID loaded from storage.
// IDs outside the managed range are ignored.
func (f *Factory) MarkUsed(id int32) {
	if id < FirstID {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	w, bit := f.pos(id)
	for len(f.used) <= w {
		f.used = append(f.used, 0)
	}
	if f.used[w]&(1<<bit) == 0 {
		f.used[w] |= 1 << bit
		f.count++
	}
}

// Release returns an ID to the pool. Releasing a free ID is a no-op.
func (f *Factory) Release(id int32) {
	if id < FirstID {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	w, bit := f.pos(id)
	if w >= len(f.used) || f.used[w]&(1<<bit) == 0 {
		return
	}
	f.used[w] &^= 1 << bit
	f.count--
	if w < f.hint {
		f.hint = w
	}
}

// InUse reports whether the ID is currently allocated.
func (f *Factory) InUse(id int32) bool {
	if id < FirstID {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	w, bit := f.pos(id)
	return w < len(f.used) && f.used[w]&(1<<bit) != 0
}

// Count returns the number of allocated IDs.
func (f *Factory) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func (f *Factory) pos(id int32) (int, uint) {
	off := int(id - FirstID)
	return off / 64, uint(off % 64)
}
