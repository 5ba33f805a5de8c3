package handlers

import (
	"sync"
	"testing"

	game_constants "Turnato/constants/game"
	"Turnato/services/catalog"
	"Turnato/services/party"
	"Turnato/services/session"
	socketio_types "Turnato/services/socket_io/types"
	"Turnato/services/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zishang520/socket.io/v2/socket"
)

type emitted struct {
	event string
	args  []any
}

type fakeClient struct {
	id    socket.SocketId
	mu    sync.Mutex
	out   []emitted
	rooms map[socket.Room]bool
}

func newClient(id string) *fakeClient {
	return &fakeClient{id: socket.SocketId(id), rooms: map[socket.Room]bool{}}
}

func (f *fakeClient) Id() socket.SocketId { return f.id }

func (f *fakeClient) Emit(ev string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, emitted{ev, args})
	return nil
}

func (f *fakeClient) Join(rooms ...socket.Room) {
	for _, r := range rooms {
		f.rooms[r] = true
	}
}

func (f *fakeClient) Leave(room socket.Room) { delete(f.rooms, room) }

func (f *fakeClient) last(event string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.out) - 1; i >= 0; i-- {
		if f.out[i].event == event {
			return f.out[i].args[0], true
		}
	}
	return nil, false
}

func (f *fakeClient) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.out {
		if e.event == event {
			n++
		}
	}
	return n
}

func newCoordinator(t *testing.T) *party.Coordinator {
	cat := catalog.Default()
	rules, err := validator.FromCatalog(cat)
	require.NoError(t, err)
	return party.NewCoordinator(cat, rules, nil, party.Options{})
}

func TestPartyFlow(t *testing.T) {
	coord := newCoordinator(t)
	snap, err := coord.CreateParty("friday", "")
	require.NoError(t, err)

	ana, bo := newClient("s1"), newClient("s2")
	pa := socketio_types.Participant{ID: "p1", Nickname: "ana"}
	pb := socketio_types.Participant{ID: "p2", Nickname: "bo"}

	HandleJoinParty(coord, ana, pa)(snap.ID)
	HandleJoinParty(coord, bo, pb)(snap.ID)
	assert.True(t, ana.rooms[socketio_types.PartyRoom(snap.ID)])

	got, ok := bo.last(game_constants.EventPartyStateChanged)
	require.True(t, ok)
	assert.Len(t, got.(party.Snapshot).Members, 2)

	HandleToggleDown(coord, ana, pa)(snap.ID, "chess")
	HandleToggleDown(coord, bo, pb)(snap.ID, "chess")
	assert.Zero(t, bo.count(game_constants.EventError))

	entries, err := coord.ListMatches(snap.ID, "p1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	matchID := entries[0].ID
	assert.True(t, bo.rooms[socketio_types.MatchRoom(matchID)])

	HandleJoinMatch(coord, ana, pa)(matchID)
	v, ok := ana.last(game_constants.EventSessionView)
	require.True(t, ok)
	view := v.(session.View)
	assert.Equal(t, 0, view.Seat)
	assert.True(t, view.Active)

	// click f2 then f4
	HandleSquareActivated(coord, ana, pa)(matchID, "f2")
	v, _ = ana.last(game_constants.EventSessionView)
	assert.Equal(t, "f2", v.(session.View).Overlay.Selected)
	HandleSquareActivated(coord, ana, pa)(matchID, "f4")
	v, _ = ana.last(game_constants.EventSessionView)
	assert.Equal(t, 1, v.(session.View).Ctx.Turn)

	// black answers through a computed move, with a float turn as JSON decoding yields
	HandleSendMove(coord, bo, pb)(matchID, "e5", float64(1))
	m, err := coord.Match(matchID)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Session().Snapshot().Ctx.Turn)

	// a stale replay is dropped without an error event
	HandleSendMove(coord, bo, pb)(matchID, "e5", float64(1))
	assert.Zero(t, bo.count(game_constants.EventError))
	assert.Equal(t, 2, m.Session().Snapshot().Ctx.Turn)

	HandleDismissSharing(coord, ana, pa)(matchID)
	v, _ = ana.last(game_constants.EventSessionView)
	assert.True(t, v.(session.View).Overlay.SharingDismissed)

	HandleRequestPartySnapshot(coord, bo, pb)(snap.ID)
	got, _ = bo.last(game_constants.EventPartyStateChanged)
	assert.Len(t, got.(party.Snapshot).Matches, 1)

	HandleLeaveParty(coord, bo, pb)(snap.ID)
	assert.False(t, bo.rooms[socketio_types.PartyRoom(snap.ID)])
	assert.Equal(t, []string{"p2"}, m.Session().Snapshot().Left)
}

func TestSpectatorView(t *testing.T) {
	coord := newCoordinator(t)
	snap, err := coord.CreateParty("", "")
	require.NoError(t, err)
	for _, id := range []string{"p1", "p2", "p3"} {
		_, err := coord.Join(snap.ID, id, id, "")
		require.NoError(t, err)
	}
	_, err = coord.ToggleDown(snap.ID, "p1", "tictactoe")
	require.NoError(t, err)
	m, err := coord.ToggleDown(snap.ID, "p2", "tictactoe")
	require.NoError(t, err)

	watcher := newClient("s3")
	HandleJoinMatch(coord, watcher, socketio_types.Participant{ID: "p3"})(m.ID)
	v, ok := watcher.last(game_constants.EventSessionView)
	require.True(t, ok)
	assert.Equal(t, -1, v.(session.View).Seat)
	assert.False(t, v.(session.View).Active)

	// spectator clicks never move anything
	HandleSquareActivated(coord, watcher, socketio_types.Participant{ID: "p3"})(m.ID, "b2")
	assert.Equal(t, 0, m.Session().Snapshot().Ctx.Turn)
	assert.Zero(t, watcher.count(game_constants.EventError))
}

func TestErrorsReachTheClient(t *testing.T) {
	coord := newCoordinator(t)
	c := newClient("s1")
	p := socketio_types.Participant{ID: "p1"}

	HandleJoinParty(coord, c, p)()
	assert.Equal(t, 1, c.count(game_constants.EventError))

	HandleJoinParty(coord, c, p)("missing")
	assert.Equal(t, 2, c.count(game_constants.EventError))
	assert.Empty(t, c.rooms)

	HandleJoinMatch(coord, c, p)("nope")
	assert.Equal(t, 3, c.count(game_constants.EventError))

	HandleSendMove(coord, c, p)("nope", "e4", 1.5)
	assert.Equal(t, 4, c.count(game_constants.EventError))
}

func TestDisconnectingWaitsForLastSocket(t *testing.T) {
	coord := newCoordinator(t)
	snap, err := coord.CreateParty("", "")
	require.NoError(t, err)
	_, err = coord.Join(snap.ID, "p1", "ana", "")
	require.NoError(t, err)

	sio := socketio_types.NewSocketServer()
	p := socketio_types.Participant{ID: "p1"}
	tab1, tab2 := newClient("s1"), newClient("s2")
	sio.AddConnection(p.ID, tab1)
	sio.AddConnection(p.ID, tab2)

	HandleDisconnecting(coord, tab1, p, sio)()
	got, err := coord.Snapshot(snap.ID)
	require.NoError(t, err)
	assert.True(t, got.Members[0].Connected)

	HandleDisconnecting(coord, tab2, p, sio)()
	got, err = coord.Snapshot(snap.ID)
	require.NoError(t, err)
	assert.False(t, got.Members[0].Connected)
}

func TestIntArg(t *testing.T) {
	n, ok := intArg([]interface{}{float64(3)}, 0)
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	_, ok = intArg([]interface{}{2.5}, 0)
	assert.False(t, ok)
	_, ok = intArg([]interface{}{"3"}, 0)
	assert.False(t, ok)
	_, ok = intArg(nil, 0)
	assert.False(t, ok)
}
