package clan

import (
	"cmp"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/udisondev/l2pledge/internal/model"
)

// MaxWarehouseSlots caps distinct stacks in a clan vault.
const MaxWarehouseSlots = 150

var (
	ErrWarehouseFull    = errors.New("clan warehouse is full")
	ErrItemNotFound     = errors.New("item not found in warehouse")
	ErrInsufficientItem = errors.New("insufficient item count")
	ErrInvalidCount     = errors.New("item count must be positive")
)

// WipeReason is recorded in the audit log when a vault is emptied.
type WipeReason string

const (
	WipeClanRemove WipeReason = "ClanRemove"
	WipeAdmin      WipeReason = "Admin"
)

// WarehouseItem is one stack in the vault.
type WarehouseItem struct {
	ObjectID     int64
	ItemID       int32
	Count        int64
	EnchantLevel int32
}

type stackKey struct {
	itemID  int32
	enchant int32
}

// Warehouse is the shared clan vault. Deposits of the same item and
// enchant level merge into the first stack.
type Warehouse struct {
	mu     sync.RWMutex
	items  map[int64]*WarehouseItem
	stacks map[stackKey]int64
}

func NewWarehouse() *Warehouse {
	return &Warehouse{
		items:  make(map[int64]*WarehouseItem),
		stacks: make(map[stackKey]int64),
	}
}

// AddItem deposits item and returns the object id of the stack holding it.
func (w *Warehouse) AddItem(item *WarehouseItem) (int64, error) {
	if item.Count <= 0 {
		return 0, ErrInvalidCount
	}
	key := stackKey{itemID: item.ItemID, enchant: item.EnchantLevel}

	w.mu.Lock()
	defer w.mu.Unlock()

	if id, ok := w.stacks[key]; ok {
		w.items[id].Count += item.Count
		return id, nil
	}
	if len(w.items) >= MaxWarehouseSlots {
		return 0, ErrWarehouseFull
	}
	stored := *item
	w.items[stored.ObjectID] = &stored
	w.stacks[key] = stored.ObjectID
	return stored.ObjectID, nil
}

// RemoveItem withdraws count units from a stack, dropping it when emptied.
func (w *Warehouse) RemoveItem(objectID, count int64) error {
	if count <= 0 {
		return ErrInvalidCount
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	item, ok := w.items[objectID]
	switch {
	case !ok:
		return ErrItemNotFound
	case item.Count < count:
		return ErrInsufficientItem
	}
	item.Count -= count
	if item.Count == 0 {
		delete(w.items, objectID)
		delete(w.stacks, stackKey{itemID: item.ItemID, enchant: item.EnchantLevel})
	}
	return nil
}

// Item returns a copy of the stack with objectID.
func (w *Warehouse) Item(objectID int64) (WarehouseItem, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	item, ok := w.items[objectID]
	if !ok {
		return WarehouseItem{}, false
	}
	return *item, true
}

// Items returns copies of every stack ordered by object id.
func (w *Warehouse) Items() []WarehouseItem {
	w.mu.RLock()
	out := make([]WarehouseItem, 0, len(w.items))
	for _, item := range w.items {
		out = append(out, *item)
	}
	w.mu.RUnlock()

	slices.SortFunc(out, func(a, b WarehouseItem) int { return cmp.Compare(a.ObjectID, b.ObjectID) })
	return out
}

// Count returns the number of occupied slots.
func (w *Warehouse) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.items)
}

// WipeContents destroys every stack and returns how many slots were freed.
// actor is nil when nobody online can be blamed for the wipe.
func (w *Warehouse) WipeContents(reason WipeReason, actor *model.Player, note string) int {
	w.mu.Lock()
	n := len(w.items)
	clear(w.items)
	clear(w.stacks)
	w.mu.Unlock()

	if n == 0 {
		return 0
	}
	actorName := "<none>"
	if actor != nil {
		actorName = actor.Name()
	}
	slog.Info("warehouse wiped", "reason", reason, "actor", actorName, "note", note, "slots", n)
	return n
}
