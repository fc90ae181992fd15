package clan

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/udisondev/l2pledge/internal/model"
)

// Rules are the tunable clan creation and dissolution constraints.
type Rules struct {
	MinCreateLevel int32
	CreateCooldown time.Duration
	DissolveDelay  time.Duration
	MinNameLen     int
	MaxNameLen     int
}

// DefaultRules returns the stock rules.
func DefaultRules() Rules {
	return Rules{
		MinCreateLevel: 10,
		CreateCooldown: 10 * 24 * time.Hour,
		DissolveDelay:  7 * 24 * time.Hour,
		MinNameLen:     2,
		MaxNameLen:     16,
	}
}

// Registry indexes all clans and owns the war table.
// Thread-safe: the clan index and the war table have separate locks;
// DestroyClan is serialised by destroyMu.
type Registry struct {
	store     Store
	ids       IDAllocator
	events    Publisher
	sieges    SiegeRegistry
	forts     FortRegistry
	halls     HallRegistry
	crests    CrestRemover
	dissolver *DissolutionScheduler
	rules     Rules
	now       func() time.Time

	mu sync.RWMutex
	// Clans by ID.
	clans map[int32]*Clan
	// Clan name -> ID index (lowercase for case-insensitive lookup).
	nameIndex map[string]int32

	destroyMu sync.Mutex

	warMu sync.RWMutex
	wars  map[PairKey]*War
}

// Option configures a Registry.
type Option func(*Registry)

// WithPublisher sets the event publisher.
func WithPublisher(p Publisher) Option {
	return func(r *Registry) { r.events = p }
}

// WithSieges sets the castle siege collaborator.
func WithSieges(s SiegeRegistry) Option {
	return func(r *Registry) { r.sieges = s }
}

// WithForts sets the fortress collaborator.
func WithForts(f FortRegistry) Option {
	return func(r *Registry) { r.forts = f }
}

// WithHalls sets the clan hall collaborator.
func WithHalls(h HallRegistry) Option {
	return func(r *Registry) { r.halls = h }
}

// WithCrests sets the crest collaborator.
func WithCrests(c CrestRemover) Option {
	return func(r *Registry) { r.crests = c }
}

// WithDissolutionScheduler sets the scheduler used for deferred destruction.
func WithDissolutionScheduler(d *DissolutionScheduler) Option {
	return func(r *Registry) { r.dissolver = d }
}

// WithRules overrides DefaultRules.
func WithRules(rules Rules) Option {
	return func(r *Registry) { r.rules = rules }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty registry. Call Load to hydrate it.
func NewRegistry(store Store, ids IDAllocator, opts ...Option) *Registry {
	r := &Registry{
		store:     store,
		ids:       ids,
		events:    nopPublisher{},
		rules:     DefaultRules(),
		now:       time.Now,
		clans:     make(map[int32]*Clan, 128),
		nameIndex: make(map[string]int32, 128),
		wars:      make(map[PairKey]*War, 32),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rules returns the active rules.
func (r *Registry) Rules() Rules { return r.rules }

// Load hydrates clans and members from the store, re-arms pending
// dissolutions, then runs the alliance check and restores wars.
func (r *Registry) Load(ctx context.Context) error {
	rows, err := r.store.LoadClans(ctx)
	if err != nil {
		return fmt.Errorf("loading clans: %w", err)
	}

	var dissolving []int32
	for _, row := range rows {
		c := fromRow(row)

		members, err := r.store.LoadMembers(ctx, row.ClanID)
		if err != nil {
			return fmt.Errorf("loading members of clan %d: %w", row.ClanID, err)
		}
		for _, mr := range members {
			m := memberFromRow(mr)
			m.setClanID(c.id)
			c.members[m.playerID] = m
		}
		if len(c.members) == 0 {
			r.dropEmptyClan(ctx, c)
			continue
		}

		if err := r.register(c); err != nil {
			slog.Warn("skipping clan", "clan_id", c.ID(), "error", err)
			continue
		}
		r.ids.MarkUsed(c.ID())

		if c.DissolutionTime() != 0 {
			dissolving = append(dissolving, c.ID())
		}
	}

	for _, id := range dissolving {
		r.ScheduleRemoveClan(id)
	}

	r.AllianceCheck(ctx)
	r.restoreClanWars(ctx)

	slog.Info("clans loaded", "clans", r.Count(), "wars", r.WarCount(), "dissolving", len(dissolving))
	return nil
}

// dropEmptyClan deletes a persisted clan that has no members left.
// If the delete fails the id stays reserved so the row is not overwritten.
func (r *Registry) dropEmptyClan(ctx context.Context, c *Clan) {
	slog.Warn("dropping clan without members", "clan_id", c.ID(), "name", c.Name())
	if err := r.store.DeleteClan(ctx, c.ID()); err != nil {
		slog.Error("deleting empty clan", "clan_id", c.ID(), "error", err)
		r.ids.MarkUsed(c.ID())
	}
}

// register adds a hydrated clan to the index.
func (r *Registry) register(c *Clan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lowerName := strings.ToLower(c.Name())
	if _, ok := r.nameIndex[lowerName]; ok {
		return fmt.Errorf("register clan %q: %w", c.Name(), ErrClanNameTaken)
	}
	if _, ok := r.clans[c.ID()]; ok {
		return fmt.Errorf("register clan %d: duplicate id", c.ID())
	}

	r.clans[c.ID()] = c
	r.nameIndex[lowerName] = c.ID()
	return nil
}

// Clan returns a clan by ID, or nil if not found.
func (r *Registry) Clan(id int32) *Clan {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clans[id]
}

// ClanByName returns a clan by name (case-insensitive), or nil if not found.
func (r *Registry) ClanByName(name string) *Clan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.nameIndex[strings.ToLower(name)]
	if !ok {
		return nil
	}
	return r.clans[id]
}

// Clans returns a snapshot of all clans ordered by ID.
func (r *Registry) Clans() []*Clan {
	r.mu.RLock()
	result := make([]*Clan, 0, len(r.clans))
	for _, c := range r.clans {
		result = append(result, c)
	}
	r.mu.RUnlock()

	slices.SortFunc(result, func(a, b *Clan) int { return cmp.Compare(a.ID(), b.ID()) })
	return result
}

// Count returns the number of registered clans.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clans)
}

// ForEach iterates over all clans in ID order.
// Return false from fn to stop iteration.
func (r *Registry) ForEach(fn func(*Clan) bool) {
	for _, c := range r.Clans() {
		if !fn(c) {
			return
		}
	}
}

// Shutdown persists every clan and every war once.
func (r *Registry) Shutdown(ctx context.Context) {
	clans := r.Clans()
	for _, c := range clans {
		if err := r.store.SaveClan(ctx, c.Row()); err != nil {
			slog.Error("saving clan on shutdown", "clan_id", c.ID(), "error", err)
		}
	}

	wars := r.allWars()
	for _, w := range wars {
		r.StoreClanWar(ctx, w)
	}
	slog.Info("clan registry flushed", "clans", len(clans), "wars", len(wars))
}

// statusNotice tells clients to refresh the clan's status panel.
func statusNotice(clanID int32) model.Notice {
	return model.Notice{Kind: model.NoticeClanStatus, ClanID: clanID}
}
