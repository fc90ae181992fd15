package adminapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/l2pledge/internal/clan"
	"github.com/udisondev/l2pledge/internal/game/party"
	"github.com/udisondev/l2pledge/internal/idfactory"
	"github.com/udisondev/l2pledge/internal/model"
)

type memStore struct {
	mu    sync.Mutex
	clans map[int32]clan.ClanRow
}

func (s *memStore) LoadClans(context.Context) ([]clan.ClanRow, error) { return nil, nil }
func (s *memStore) LoadMembers(context.Context, int32) ([]clan.MemberRow, error) {
	return nil, nil
}

func (s *memStore) SaveClan(_ context.Context, row clan.ClanRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clans[row.ClanID] = row
	return nil
}

func (s *memStore) SaveMember(context.Context, clan.MemberRow) error { return nil }
func (s *memStore) DeleteMember(context.Context, int64) error        { return nil }
func (s *memStore) DeleteClan(context.Context, int32) error          { return nil }
func (s *memStore) LoadWars(context.Context) ([]clan.WarRow, error)  { return nil, nil }
func (s *memStore) UpsertWar(context.Context, clan.WarRow) error     { return nil }
func (s *memStore) DeleteWar(context.Context, int32, int32) error    { return nil }

type fixture struct {
	srv   *Server
	reg   *clan.Registry
	store *memStore
	a, b  *clan.Clan
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.UnixMilli(1_700_000_000_000)
	store := &memStore{clans: make(map[int32]clan.ClanRow)}
	reg := clan.NewRegistry(store, idfactory.New(), clan.WithClock(func() time.Time { return now }))

	create := func(id uint32, name string) *clan.Clan {
		p, err := model.NewPlayer(id, "Player"+name, 40)
		require.NoError(t, err)
		c, err := reg.CreateClan(context.Background(), p, name)
		require.NoError(t, err)
		return c
	}
	f := &fixture{reg: reg, store: store, a: create(1, "Wolves"), b: create(2, "Bears")}
	f.srv = New(reg)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, out any) int {
	t.Helper()
	resp, err := f.srv.App().Test(httptest.NewRequest(method, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, out), "body: %s", body)
	}
	return resp.StatusCode
}

func TestListClans(t *testing.T) {
	f := newFixture(t)

	var got []clanView
	code := f.do(t, http.MethodGet, "/api/clans", &got)

	assert.Equal(t, http.StatusOK, code)
	require.Len(t, got, 2)
	assert.Equal(t, "Wolves", got[0].Name)
	assert.Equal(t, 1, got[0].MemberCount)
	assert.Empty(t, got[0].Members)
}

func TestGetClan(t *testing.T) {
	f := newFixture(t)

	var got clanView
	code := f.do(t, http.MethodGet, "/api/clans/"+itoa(f.b.ID()), &got)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Bears", got.Name)
	require.Len(t, got.Members, 1)
	assert.Equal(t, "PlayerBears", got.Members[0].Name)
	assert.True(t, got.Members[0].Online)

	var errBody map[string]string
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/clans/42", &errBody))
	assert.Equal(t, "clan not found", errBody["error"])
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/clans/abc", nil))
}

func TestGetClan_IDOutOfRange(t *testing.T) {
	f := newFixture(t)

	wrapped := strconv.FormatInt(int64(f.b.ID())+1<<32, 10)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/clans/"+wrapped, nil))
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/clans/2147483648", nil))
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/clans/-5", nil))
}

func TestClanAllies(t *testing.T) {
	f := newFixture(t)
	f.a.SetAlly(f.a.ID(), "Pack")
	f.b.SetAlly(f.a.ID(), "Pack")

	var got []clanView
	code := f.do(t, http.MethodGet, "/api/clans/"+itoa(f.b.ID())+"/allies", &got)

	assert.Equal(t, http.StatusOK, code)
	require.Len(t, got, 2)
	assert.Equal(t, f.a.ID(), got[0].ID)
}

func TestClanWars(t *testing.T) {
	f := newFixture(t)
	_, err := f.reg.DeclareWar(context.Background(), f.a.ID(), f.b.ID())
	require.NoError(t, err)
	f.reg.RecordKill(f.b.ID(), f.a.ID())

	var got []warView
	code := f.do(t, http.MethodGet, "/api/clans/"+itoa(f.b.ID())+"/wars", &got)

	assert.Equal(t, http.StatusOK, code)
	require.Len(t, got, 1)
	assert.Equal(t, f.a.ID(), got[0].OpponentID)
	assert.False(t, got[0].Attacker)
	assert.Equal(t, clan.WarDeclaration.String(), got[0].State)
	assert.Equal(t, int32(1), got[0].Kills)
}

func TestDissolution(t *testing.T) {
	f := newFixture(t)
	path := "/api/clans/" + itoa(f.a.ID()) + "/dissolution"

	var started map[string]any
	assert.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, path, &started))
	assert.True(t, f.a.IsDissolving())
	assert.NotZero(t, f.store.clans[f.a.ID()].DissolutionTime)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, path, nil))
	assert.False(t, f.a.IsDissolving())

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/clans/42/dissolution", nil))
}

func TestAllianceCheck(t *testing.T) {
	f := newFixture(t)
	f.b.SetAlly(999, "Ghost")

	var got map[string]int
	code := f.do(t, http.MethodPost, "/api/alliances/check", &got)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, got["corrected"])
	assert.Zero(t, f.b.AllyID())
}

func TestPartyStats(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/parties", nil))

	mgr := party.NewManager(0)
	for id := range uint32(3) {
		p, err := model.NewPlayer(100+id, "Raider"+itoa(int32(id)), 50)
		require.NoError(t, err)
		mgr.CreateParty(p, model.LootRuleFinders)
		if id == 0 {
			_, err = mgr.CreateCommandChannel(p)
			require.NoError(t, err)
		}
	}
	f.srv = New(f.reg, WithParties(mgr))

	var got map[string]int
	code := f.do(t, http.MethodGet, "/api/parties", &got)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 3, got["parties"])
	assert.Equal(t, 1, got["command_channels"])
}

func itoa(id int32) string {
	return strconv.Itoa(int(id))
}
