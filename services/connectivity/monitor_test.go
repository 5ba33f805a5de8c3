package connectivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOnConnectIsIdempotent(t *testing.T) {
	m := NewMonitor()
	var events []Event
	m.Subscribe(Party("p"), func(e Event) { events = append(events, e) })

	assert.False(t, m.IsConnected(Party("p"), "alice"))
	assert.True(t, m.OnConnect(Party("p"), "alice"))
	assert.False(t, m.OnConnect(Party("p"), "alice"))
	assert.True(t, m.IsConnected(Party("p"), "alice"))

	assert.True(t, m.OnDisconnect(Party("p"), "alice"))
	assert.False(t, m.OnDisconnect(Party("p"), "alice"))
	assert.False(t, m.IsConnected(Party("p"), "alice"))

	assert.Equal(t, []Event{
		{Scope: Party("p"), ParticipantID: "alice", Connected: true},
		{Scope: Party("p"), ParticipantID: "alice", Connected: false},
	}, events)
}

func TestFirstDisconnectIsRecorded(t *testing.T) {
	m := NewMonitor()
	calls := 0
	m.Subscribe(Session("s"), func(Event) { calls++ })

	assert.True(t, m.OnDisconnect(Session("s"), "bob"))
	assert.False(t, m.OnDisconnect(Session("s"), "bob"))
	assert.Equal(t, 1, calls)
}

func TestScopesAreIndependent(t *testing.T) {
	m := NewMonitor()
	m.OnConnect(Party("p"), "alice")
	m.OnConnect(Session("s"), "alice")
	m.OnConnect(Session("s"), "bob")

	assert.True(t, m.AllConnected(Session("s"), []string{"alice", "bob"}))
	assert.False(t, m.AllConnected(Session("s"), []string{"alice", "carol"}))
	assert.False(t, m.IsConnected(Party("p"), "bob"))

	m.DisconnectEverywhere("alice")
	assert.False(t, m.IsConnected(Party("p"), "alice"))
	assert.False(t, m.IsConnected(Session("s"), "alice"))
	assert.True(t, m.IsConnected(Session("s"), "bob"))
	assert.Empty(t, m.Scopes("alice"))

	m.Forget(Session("s"))
	assert.False(t, m.IsConnected(Session("s"), "bob"))
}

func TestUnsubscribeRemovesOnlyThatListener(t *testing.T) {
	m := NewMonitor()
	first, second := 0, 0
	stopFirst := m.Subscribe(Session("s"), func(Event) { first++ })
	m.Subscribe(Session("s"), func(Event) { second++ })

	stopFirst()
	stopFirst()
	m.OnConnect(Session("s"), "alice")

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}
