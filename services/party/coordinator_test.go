package party

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"Turnato/models/game"
	redis_models "Turnato/models/redis"
	"Turnato/services/catalog"
	"Turnato/services/connectivity"
	"Turnato/services/session"
	"Turnato/services/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	parties map[string][]byte
	matches map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{parties: map[string][]byte{}, matches: map[string][]byte{}}
}

func (s *memoryStore) SaveParty(st *redis_models.PartyState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parties[st.Id] = data
	return nil
}

func (s *memoryStore) GetParty(id string) (*redis_models.PartyState, error) {
	s.mu.Lock()
	data, ok := s.parties[id]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var st redis_models.PartyState
	return &st, json.Unmarshal(data, &st)
}

func (s *memoryStore) DeleteParty(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.parties, id)
	return nil
}

func (s *memoryStore) SaveMatch(st *redis_models.MatchState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[st.Id] = data
	return nil
}

func (s *memoryStore) GetMatch(id string) (*redis_models.MatchState, error) {
	s.mu.Lock()
	data, ok := s.matches[id]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var st redis_models.MatchState
	return &st, json.Unmarshal(data, &st)
}

type recorder struct {
	mu       sync.Mutex
	parties  []Snapshot
	sessions []session.Snapshot
	archived []string
}

func (r *recorder) PartyStateChanged(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parties = append(r.parties, snap)
}

func (r *recorder) SessionStateChanged(snap session.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, snap)
}

func (r *recorder) SyncMatch(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archived = append(r.archived, "match:"+id)
	return nil
}

func (r *recorder) SyncParty(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archived = append(r.archived, "party:"+id)
	return nil
}

func newCoordinator(t *testing.T, store Store) (*Coordinator, *recorder) {
	cat := catalog.Default()
	rules, err := validator.FromCatalog(cat)
	require.NoError(t, err)
	rec := &recorder{}
	opts := Options{Publisher: rec, Archiver: rec}
	if store != nil {
		opts.Store = store
	}
	return NewCoordinator(cat, rules, nil, opts), rec
}

func partyWith(t *testing.T, c *Coordinator, members ...string) string {
	snap, err := c.CreateParty("friday", "")
	require.NoError(t, err)
	for _, id := range members {
		_, err := c.Join(snap.ID, id, "nick-"+id, "")
		require.NoError(t, err)
	}
	return snap.ID
}

func TestToggleDownSpawnsMatch(t *testing.T) {
	c, rec := newCoordinator(t, nil)
	pid := partyWith(t, c, "p1", "p2", "p3")

	m, err := c.ToggleDown(pid, "p1", "chess")
	require.NoError(t, err)
	assert.Nil(t, m)

	snap, err := c.Snapshot(pid)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, snap.DownVotes["chess"])

	m, err = c.ToggleDown(pid, "p3", "chess")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, []string{"p1", "p3"}, m.Players)
	assert.Equal(t, "chess", m.GameCode)

	snap, err = c.Snapshot(pid)
	require.NoError(t, err)
	assert.Empty(t, snap.DownVotes["chess"])
	require.Len(t, snap.Matches, 1)
	assert.Equal(t, m.ID, snap.Matches[0].ID)

	s := m.Session().Snapshot()
	assert.Equal(t, session.InProgress, s.State)
	assert.True(t, s.Connected)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.NotEmpty(t, rec.parties)
	assert.NotEmpty(t, rec.sessions)
}

func TestToggleDownTwiceWithdraws(t *testing.T) {
	c, _ := newCoordinator(t, nil)
	pid := partyWith(t, c, "p1", "p2")

	_, err := c.ToggleDown(pid, "p1", "tictactoe")
	require.NoError(t, err)
	_, err = c.ToggleDown(pid, "p1", "tictactoe")
	require.NoError(t, err)

	snap, err := c.Snapshot(pid)
	require.NoError(t, err)
	_, present := snap.DownVotes["tictactoe"]
	assert.False(t, present)
	assert.Empty(t, snap.Matches)
}

func TestConcurrentToggleSpawnsEachVoterOnce(t *testing.T) {
	c, _ := newCoordinator(t, nil)
	members := []string{"a", "b", "c", "d", "e", "f"}
	pid := partyWith(t, c, members...)

	var wg sync.WaitGroup
	for _, id := range members {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := c.ToggleDown(pid, id, "chess")
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	snap, err := c.Snapshot(pid)
	require.NoError(t, err)
	assert.Empty(t, snap.DownVotes["chess"])
	require.Len(t, snap.Matches, 3)

	seen := map[string]int{}
	for _, m := range snap.Matches {
		require.Len(t, m.Players, 2)
		for _, p := range m.Players {
			seen[p]++
		}
	}
	for _, id := range members {
		assert.Equal(t, 1, seen[id], id)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	c, _ := newCoordinator(t, nil)
	pid := partyWith(t, c, "p1")

	snap, err := c.Join(pid, "p1", "someone-else", "")
	require.NoError(t, err)
	require.Len(t, snap.Members, 1)
	assert.Equal(t, "nick-p1", snap.Members[0].Nickname)
	assert.True(t, snap.Members[0].Connected)
}

func TestPrivateParty(t *testing.T) {
	c, _ := newCoordinator(t, nil)
	snap, err := c.CreateParty("", "hunter2")
	require.NoError(t, err)
	assert.True(t, snap.Private)
	assert.Equal(t, "Party "+snap.ID, snap.Name)

	_, err = c.Join(snap.ID, "p1", "x", "nope")
	assert.ErrorIs(t, err, game.ErrWrongSecret)

	_, err = c.Join(snap.ID, "p1", "x", "hunter2")
	assert.NoError(t, err)
}

func TestLeaveMarksSeatAndDestroysEmptyParty(t *testing.T) {
	c, rec := newCoordinator(t, nil)
	pid := partyWith(t, c, "p1", "p2")

	m, err := c.ToggleDown(pid, "p1", "chess")
	require.NoError(t, err)
	require.Nil(t, m)
	m, err = c.ToggleDown(pid, "p2", "chess")
	require.NoError(t, err)
	require.NotNil(t, m)
	_, err = c.ToggleDown(pid, "p2", "tictactoe")
	require.NoError(t, err)

	require.NoError(t, c.Leave(pid, "p2"))

	snap, err := c.Snapshot(pid)
	require.NoError(t, err)
	require.Len(t, snap.Members, 1)
	assert.Empty(t, snap.DownVotes["tictactoe"])
	// nickname survives for match history
	assert.Equal(t, "nick-p2", snap.Nicknames["p2"])

	s := m.Session().Snapshot()
	assert.Equal(t, []string{"p2"}, s.Left)
	assert.False(t, s.Connected)
	err = m.Session().ApplyMove(context.Background(), "p1", game.Move{Turn: 0, Descriptor: "e4"})
	assert.ErrorIs(t, err, game.ErrDisconnected)

	// rejoining clears the left mark
	_, err = c.Join(pid, "p2", "", "")
	require.NoError(t, err)
	s = m.Session().Snapshot()
	assert.Empty(t, s.Left)
	assert.True(t, s.Connected)

	require.NoError(t, c.Leave(pid, "p1"))
	require.NoError(t, c.Leave(pid, "p2"))
	_, err = c.Snapshot(pid)
	assert.ErrorIs(t, err, game.ErrPartyNotFound)
	_, err = c.Match(m.ID)
	assert.ErrorIs(t, err, game.ErrMatchNotFound)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Contains(t, rec.archived, "party:"+pid)
}

func TestListMatchesOrderAndActiveFlag(t *testing.T) {
	c, _ := newCoordinator(t, nil)
	pid := partyWith(t, c, "p1", "p2", "p3")

	_, _ = c.ToggleDown(pid, "p1", "chess")
	first, err := c.ToggleDown(pid, "p2", "chess")
	require.NoError(t, err)
	require.NotNil(t, first)

	_, _ = c.ToggleDown(pid, "p3", "tictactoe")
	second, err := c.ToggleDown(pid, "p1", "tictactoe")
	require.NoError(t, err)
	require.NotNil(t, second)

	entries, err := c.ListMatches(pid, "p2")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.False(t, entries[0].Active)
	assert.Equal(t, first.ID, entries[1].ID)
	assert.True(t, entries[1].Active)

	// a move bumps the older match to the top
	require.NoError(t, first.Session().ApplyMove(context.Background(), "p1", game.Move{Turn: 0, Descriptor: "e4"}))
	entries, err = c.ListMatches(pid, "p2")
	require.NoError(t, err)
	assert.Equal(t, first.ID, entries[0].ID)
}

func TestFinishedMatchIsArchivedOnce(t *testing.T) {
	c, rec := newCoordinator(t, nil)
	pid := partyWith(t, c, "p1", "p2")
	_, _ = c.ToggleDown(pid, "p1", "chess")
	m, err := c.ToggleDown(pid, "p2", "chess")
	require.NoError(t, err)

	ctx := context.Background()
	s := m.Session()
	for i, mv := range []string{"f4", "e5", "g4", "Qh4"} {
		require.NoError(t, s.ApplyMove(ctx, m.Players[i%2], game.Move{Turn: i, Descriptor: mv}))
	}
	assert.Equal(t, "Finished", m.Status())

	// a later connectivity flip republishes but must not archive again
	require.NoError(t, c.Leave(pid, "p2"))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	n := 0
	for _, a := range rec.archived {
		if a == "match:"+m.ID {
			n++
		}
	}
	assert.Equal(t, 1, n)

	entries, err := c.ListMatches(pid, "p1")
	require.NoError(t, err)
	assert.False(t, entries[0].Active)
}

func TestLookupErrors(t *testing.T) {
	c, _ := newCoordinator(t, nil)
	pid := partyWith(t, c, "p1")

	_, err := c.Snapshot("missing")
	assert.ErrorIs(t, err, game.ErrPartyNotFound)
	assert.True(t, game.IsLookup(err))

	_, err = c.Join("missing", "p1", "", "")
	assert.ErrorIs(t, err, game.ErrPartyNotFound)

	_, err = c.ToggleDown(pid, "p1", "go-fish")
	assert.ErrorIs(t, err, game.ErrUnknownGame)

	_, err = c.ToggleDown(pid, "stranger", "chess")
	assert.ErrorIs(t, err, game.ErrNotMember)

	_, err = c.Match("nope")
	assert.ErrorIs(t, err, game.ErrMatchNotFound)

	_, err = c.ListMatches("missing", "p1")
	assert.ErrorIs(t, err, game.ErrPartyNotFound)
}

func TestRehydrateFromStore(t *testing.T) {
	store := newMemoryStore()
	c1, _ := newCoordinator(t, store)
	pid := partyWith(t, c1, "p1", "p2", "p3")
	_, _ = c1.ToggleDown(pid, "p1", "chess")
	m, err := c1.ToggleDown(pid, "p2", "chess")
	require.NoError(t, err)
	require.NoError(t, m.Session().ApplyMove(context.Background(), "p1", game.Move{Turn: 0, Descriptor: "f4"}))
	_, _ = c1.ToggleDown(pid, "p3", "tictactoe")

	c2, _ := newCoordinator(t, store)
	snap, err := c2.Snapshot(pid)
	require.NoError(t, err)
	assert.Equal(t, "friday", snap.Name)
	assert.Len(t, snap.Members, 3)
	assert.Equal(t, []string{"p3"}, snap.DownVotes["tictactoe"])
	require.Len(t, snap.Matches, 1)

	restored, err := c2.Match(m.ID)
	require.NoError(t, err)
	rs := restored.Session().Snapshot()
	assert.Equal(t, 1, rs.Ctx.Turn)
	assert.Equal(t, 1, rs.Ctx.CurrentPlayer)
	assert.True(t, m.Session().Snapshot().G.Equal(rs.G))

	// nobody is connected in the new process until they come back
	assert.False(t, rs.Connected)
	_, err = c2.ConnectMatch(m.ID, "p1")
	require.NoError(t, err)
	_, err = c2.ConnectMatch(m.ID, "p2")
	require.NoError(t, err)
	require.NoError(t, restored.Session().ApplyMove(context.Background(), "p2", game.Move{Turn: 1, Descriptor: "e5"}))
}

func TestFailedSpawnLeavesVotesUntouched(t *testing.T) {
	cat, err := catalog.Parse([]byte(`
games:
  - code: go
    name: Go
    minPlayers: 2
    maxPlayers: 2
`))
	require.NoError(t, err)
	rules, err := validator.FromCatalog(cat)
	require.NoError(t, err)
	c := NewCoordinator(cat, rules, nil, Options{})
	pid := partyWith(t, c, "p1", "p2", "p3")

	_, err = c.ToggleDown(pid, "p1", "go")
	require.NoError(t, err)
	for _, id := range []string{"p2", "p3"} {
		_, err = c.ToggleDown(pid, id, "go")
		assert.ErrorIs(t, err, game.ErrValidatorUnavailable)
	}

	snap, err := c.Snapshot(pid)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, snap.DownVotes["go"])
	assert.Empty(t, snap.Matches)

	// withdrawing still works afterwards
	_, err = c.ToggleDown(pid, "p1", "go")
	require.NoError(t, err)
	snap, err = c.Snapshot(pid)
	require.NoError(t, err)
	assert.Empty(t, snap.DownVotes)
}

func TestSpawnPublishesInitialSnapshotFirst(t *testing.T) {
	store := newMemoryStore()
	c, rec := newCoordinator(t, store)
	pid := partyWith(t, c, "p1", "p2")
	_, _ = c.ToggleDown(pid, "p1", "chess")
	m, err := c.ToggleDown(pid, "p2", "chess")
	require.NoError(t, err)
	require.NoError(t, m.Session().ApplyMove(context.Background(), "p1", game.Move{Turn: 0, Descriptor: "e4"}))

	rec.mu.Lock()
	var turns []int
	for _, s := range rec.sessions {
		if s.MatchID == m.ID {
			turns = append(turns, s.Ctx.Turn)
		}
	}
	rec.mu.Unlock()
	require.NotEmpty(t, turns)
	assert.Equal(t, 0, turns[0])
	assert.Equal(t, 1, turns[len(turns)-1])

	st, err := store.GetMatch(m.ID)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, pid, st.PartyId)
}

func TestDuplicateRestoreKeepsLiveSessionSubscribed(t *testing.T) {
	store := newMemoryStore()
	c1, _ := newCoordinator(t, store)
	pid := partyWith(t, c1, "p1", "p2")
	_, _ = c1.ToggleDown(pid, "p1", "chess")
	m, err := c1.ToggleDown(pid, "p2", "chess")
	require.NoError(t, err)

	c2, rec := newCoordinator(t, store)
	st, err := store.GetParty(pid)
	require.NoError(t, err)
	first, err := c2.restore(st)
	require.NoError(t, err)
	second, err := c2.restore(st)
	require.NoError(t, err)
	assert.Same(t, first, second)

	count := func() int {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		n := 0
		for _, s := range rec.sessions {
			if s.MatchID == m.ID {
				n++
			}
		}
		return n
	}
	before := count()
	c2.Monitor().OnConnect(connectivity.Session(m.ID), "p1")
	assert.Equal(t, before+1, count())

	live, err := c2.Match(m.ID)
	require.NoError(t, err)
	assert.Contains(t, live.Session().Snapshot().Disconnected, "p2")
	assert.NotContains(t, live.Session().Snapshot().Disconnected, "p1")
}

func TestClosedPartyIsNotRehydrated(t *testing.T) {
	store := newMemoryStore()
	c, _ := newCoordinator(t, store)
	pid := partyWith(t, c, "p1", "p2")
	stale, err := store.GetParty(pid)
	require.NoError(t, err)
	require.NotNil(t, stale)

	require.NoError(t, c.Close(pid))

	// a reader that loaded the snapshot before the delete landed
	_, err = c.restore(stale)
	assert.ErrorIs(t, err, game.ErrPartyNotFound)
	require.NoError(t, store.SaveParty(stale))
	_, err = c.Snapshot(pid)
	assert.ErrorIs(t, err, game.ErrPartyNotFound)
	_, err = c.Join(pid, "p3", "nick-p3", "")
	assert.ErrorIs(t, err, game.ErrPartyNotFound)
}

func TestDisband(t *testing.T) {
	c, rec := newCoordinator(t, nil)
	pid := partyWith(t, c, "p1", "p2")
	_, _ = c.ToggleDown(pid, "p1", "chess")
	m, err := c.ToggleDown(pid, "p2", "chess")
	require.NoError(t, err)

	assert.ErrorIs(t, c.Disband(pid, "stranger"), game.ErrNotMember)
	require.NoError(t, c.Disband(pid, "p1"))

	_, err = c.Snapshot(pid)
	assert.ErrorIs(t, err, game.ErrPartyNotFound)
	_, err = c.Match(m.ID)
	assert.ErrorIs(t, err, game.ErrMatchNotFound)
	assert.False(t, c.Monitor().IsConnected(connectivity.Session(m.ID), "p1"))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Contains(t, rec.archived, "party:"+pid)
}
