package crest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const storeTimeout = 5 * time.Second

// Table holds every loaded crest.
// Crests live in a sync.Map; ids come from an atomic counter and are never reused.
type Table struct {
	crests sync.Map     // map[int32]*Crest
	nextID atomic.Int32 // next id to hand out
	store  Store        // optional write-through persistence
}

// NewTable creates an empty crest table.
// A nil store keeps the table in memory only.
func NewTable(store Store) *Table {
	t := &Table{store: store}
	t.nextID.Store(1)
	return t
}

// Load reads every crest from the store and seeds the id counter.
func (t *Table) Load(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	rows, err := t.store.LoadCrests(ctx)
	if err != nil {
		return fmt.Errorf("loading crests: %w", err)
	}
	t.Init(rows)
	return nil
}

// Init installs crests from rows and seeds the id counter past the highest id.
func (t *Table) Init(rows []CrestRow) {
	var maxID int32
	for _, row := range rows {
		t.crests.Store(row.CrestID, &Crest{
			id:   row.CrestID,
			data: row.Data,
			typ:  CrestType(row.Type),
		})
		maxID = max(maxID, row.CrestID)
	}
	t.nextID.Store(maxID + 1)

	slog.Info("crest table initialized", "count", len(rows), "next_id", maxID+1)
}

// Crest returns a crest by ID, or nil if not found.
func (t *Table) Crest(id int32) *Crest {
	v, ok := t.crests.Load(id)
	if !ok {
		return nil
	}
	return v.(*Crest)
}

// Count returns the number of crests held.
func (t *Table) Count() int {
	n := 0
	t.crests.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// CreateCrest validates size, assigns an id and stores the crest.
// A store failure is logged; the crest stays in memory.
func (t *Table) CreateCrest(ctx context.Context, data []byte, typ CrestType) (*Crest, error) {
	if err := Validate(typ, data); err != nil {
		return nil, fmt.Errorf("create crest: %w", err)
	}

	id := t.nextID.Add(1) - 1
	c := &Crest{id: id, data: data, typ: typ}
	t.crests.Store(id, c)

	if t.store != nil {
		row := CrestRow{CrestID: id, Data: data, Type: int32(typ)}
		if err := t.store.SaveCrest(ctx, row); err != nil {
			slog.Error("persist crest", "crest_id", id, "error", err)
		}
	}
	return c, nil
}

// RemoveCrests drops crests from the table and deletes them from the store
// in one call. Zero and unknown ids are ignored.
func (t *Table) RemoveCrests(ids ...int32) {
	removed := make([]int32, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := t.crests.LoadAndDelete(id); ok {
			removed = append(removed, id)
		}
	}
	if len(removed) == 0 || t.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	n, err := t.store.DeleteCrests(ctx, removed)
	if err != nil {
		slog.Error("delete crests", "crest_ids", removed, "error", err)
		return
	}
	if n != int64(len(removed)) {
		slog.Warn("crest rows missing on delete", "crest_ids", removed, "deleted", n)
	}
}
