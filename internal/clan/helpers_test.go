package clan

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/l2pledge/internal/event"
	"github.com/udisondev/l2pledge/internal/idfactory"
	"github.com/udisondev/l2pledge/internal/model"
)

var errStoreDown = errors.New("store down")

// memStore is an in-memory Store. Setting failWrites makes every write fail.
type memStore struct {
	mu         sync.Mutex
	clans      map[int32]ClanRow
	members    map[int64]MemberRow
	wars       map[PairKey]WarRow
	failWrites bool
	failWars   bool
}

func newMemStore() *memStore {
	return &memStore{
		clans:   make(map[int32]ClanRow),
		members: make(map[int64]MemberRow),
		wars:    make(map[PairKey]WarRow),
	}
}

func (s *memStore) LoadClans(context.Context) ([]ClanRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := slices.Sorted(maps.Keys(s.clans))
	rows := make([]ClanRow, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, s.clans[k])
	}
	return rows, nil
}

func (s *memStore) LoadMembers(_ context.Context, clanID int32) ([]MemberRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []MemberRow
	for _, m := range s.members {
		if m.ClanID == clanID {
			rows = append(rows, m)
		}
	}
	return rows, nil
}

func (s *memStore) SaveClan(_ context.Context, row ClanRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errStoreDown
	}
	s.clans[row.ClanID] = row
	return nil
}

func (s *memStore) SaveMember(_ context.Context, row MemberRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errStoreDown
	}
	s.members[row.CharacterID] = row
	return nil
}

func (s *memStore) DeleteMember(_ context.Context, characterID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errStoreDown
	}
	delete(s.members, characterID)
	return nil
}

func (s *memStore) DeleteClan(_ context.Context, clanID int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errStoreDown
	}
	delete(s.clans, clanID)
	for id, m := range s.members {
		if m.ClanID == clanID {
			delete(s.members, id)
		}
	}
	return nil
}

func (s *memStore) LoadWars(context.Context) ([]WarRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWars {
		return nil, errStoreDown
	}
	rows := make([]WarRow, 0, len(s.wars))
	for _, w := range s.wars {
		rows = append(rows, w)
	}
	return rows, nil
}

func (s *memStore) UpsertWar(_ context.Context, row WarRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errStoreDown
	}
	s.wars[NewPairKey(row.Clan1ID, row.Clan2ID)] = row
	return nil
}

func (s *memStore) DeleteWar(_ context.Context, clan1ID, clan2ID int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errStoreDown
	}
	delete(s.wars, NewPairKey(clan1ID, clan2ID))
	return nil
}

func (s *memStore) clan(id int32) (ClanRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.clans[id]
	return row, ok
}

func (s *memStore) war(a, b int32) (WarRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.wars[NewPairKey(a, b)]
	return row, ok
}

func (s *memStore) setFailWrites(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = v
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) PublishAsync(e event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) named(name string) []event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []event.Event
	for _, e := range p.events {
		if e.Name() == name {
			out = append(out, e)
		}
	}
	return out
}

// recordingOutbox captures notices per player.
type recordingOutbox struct {
	mu      sync.Mutex
	notices map[uint32][]model.Notice
}

func newRecordingOutbox() *recordingOutbox {
	return &recordingOutbox{notices: make(map[uint32][]model.Notice)}
}

func (o *recordingOutbox) Deliver(objectID uint32, n model.Notice) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notices[objectID] = append(o.notices[objectID], n)
}

func (o *recordingOutbox) hasMessage(objectID uint32, id model.MessageID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, n := range o.notices[objectID] {
		if n.Kind == model.NoticeSystemMessage && n.Message == id {
			return true
		}
	}
	return false
}

func (o *recordingOutbox) hasStatus(objectID uint32, clanID int32) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, n := range o.notices[objectID] {
		if n.Kind == model.NoticeClanStatus && n.ClanID == clanID {
			return true
		}
	}
	return false
}

// callLog records collaborator calls in order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.calls)
}

type fakeSieges struct{ log *callLog }

func (f fakeSieges) RemoveClanFromSieges(int32) { f.log.add("sieges.remove") }

type fakeForts struct {
	log    *callLog
	owners map[int32]int32
}

func (f fakeForts) RemoveAttacker(int32)         { f.log.add("forts.remove_attacker") }
func (f fakeForts) FortOwner(fortID int32) int32 { return f.owners[fortID] }
func (f fakeForts) RemoveOwner(int32, bool)      { f.log.add("forts.remove_owner") }

type fakeHalls struct{ log *callLog }

func (f fakeHalls) ReleaseClanHall(int32) { f.log.add("halls.release") }

type fakeCrests struct {
	log     *callLog
	removed *[]int32
}

// RemoveCrests logs only calls that carry a real crest id.
func (f fakeCrests) RemoveCrests(ids ...int32) {
	before := len(*f.removed)
	for _, id := range ids {
		if id != 0 {
			*f.removed = append(*f.removed, id)
		}
	}
	if len(*f.removed) > before {
		f.log.add("crests.remove")
	}
}

// testEnv bundles a registry with its fakes.
type testEnv struct {
	reg    *Registry
	store  *memStore
	ids    *idfactory.Factory
	pub    *recordingPublisher
	outbox *recordingOutbox
	log    *callLog
	forts  fakeForts
	crests []int32
	now    time.Time
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	env := &testEnv{
		store:  newMemStore(),
		ids:    idfactory.New(),
		pub:    &recordingPublisher{},
		outbox: newRecordingOutbox(),
		log:    &callLog{},
		now:    time.UnixMilli(1_700_000_000_000),
	}
	env.forts = fakeForts{log: env.log, owners: make(map[int32]int32)}
	env.reg = env.newRegistry(opts...)
	return env
}

// newRegistry builds a registry over the env's store and fakes.
func (e *testEnv) newRegistry(opts ...Option) *Registry {
	base := []Option{
		WithPublisher(e.pub),
		WithSieges(fakeSieges{log: e.log}),
		WithForts(e.forts),
		WithHalls(fakeHalls{log: e.log}),
		WithCrests(fakeCrests{log: e.log, removed: &e.crests}),
		WithClock(func() time.Time { return e.now }),
	}
	return NewRegistry(e.store, e.ids, append(base, opts...)...)
}

func (e *testEnv) player(t *testing.T, objectID uint32, name string, level int32) *model.Player {
	t.Helper()
	p, err := model.NewPlayer(objectID, name, level)
	require.NoError(t, err)
	p.SetOutbox(e.outbox)
	return p
}

func (e *testEnv) createClan(t *testing.T, objectID uint32, clanName string) (*Clan, *model.Player) {
	t.Helper()
	p := e.player(t, objectID, "Leader"+clanName, 40)
	c, err := e.reg.CreateClan(context.Background(), p, clanName)
	require.NoError(t, err)
	return c, p
}
