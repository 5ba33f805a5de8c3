package connectivity

import (
	"log"
	"sync"
)

type Kind string

const (
	PartyScope   Kind = "party"
	SessionScope Kind = "session"
)

// Scope is the aggregate a liveness flag belongs to.
type Scope struct {
	Kind Kind
	ID   string
}

func Party(id string) Scope   { return Scope{Kind: PartyScope, ID: id} }
func Session(id string) Scope { return Scope{Kind: SessionScope, ID: id} }

// Event is emitted only when a flag actually flips.
type Event struct {
	Scope         Scope
	ParticipantID string
	Connected     bool
}

type Listener func(Event)

// Monitor tracks per-participant liveness per party and per session. It never touches
// membership: disconnecting only flips the flag that gates input.
type Monitor struct {
	mu        sync.RWMutex
	flags     map[Scope]map[string]bool
	listeners map[Scope][]subscription
	nextID    uint64
}

type subscription struct {
	id uint64
	l  Listener
}

func NewMonitor() *Monitor {
	return &Monitor{
		flags:     make(map[Scope]map[string]bool),
		listeners: make(map[Scope][]subscription),
	}
}

// Subscribe registers l for flips inside scope. The returned func removes only this
// subscription and is safe to call more than once.
func (m *Monitor) Subscribe(scope Scope, l Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.listeners[scope] = append(m.listeners[scope], subscription{id: id, l: l})
	return func() { m.unsubscribe(scope, id) }
}

func (m *Monitor) unsubscribe(scope Scope, id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := m.listeners[scope]
	for i, sub := range subs {
		if sub.id == id {
			subs = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(m.listeners, scope)
		return
	}
	m.listeners[scope] = subs
}

// OnConnect marks the participant connected. Repeating it is a no-op and returns false.
func (m *Monitor) OnConnect(scope Scope, participantID string) bool {
	return m.set(scope, participantID, true)
}

// OnDisconnect marks the participant disconnected. Repeating it is a no-op and returns false.
func (m *Monitor) OnDisconnect(scope Scope, participantID string) bool {
	return m.set(scope, participantID, false)
}

func (m *Monitor) set(scope Scope, participantID string, connected bool) bool {
	m.mu.Lock()
	flags, ok := m.flags[scope]
	if !ok {
		flags = make(map[string]bool)
		m.flags[scope] = flags
	}
	prev, known := flags[participantID]
	if known && prev == connected {
		m.mu.Unlock()
		return false
	}
	flags[participantID] = connected
	subs := append([]subscription(nil), m.listeners[scope]...)
	m.mu.Unlock()

	log.Printf("[CONNECTIVITY] %s %s/%s connected=%v", participantID, scope.Kind, scope.ID, connected)
	ev := Event{Scope: scope, ParticipantID: participantID, Connected: connected}
	for _, sub := range subs {
		sub.l(ev)
	}
	return true
}

// IsConnected reports the last known flag. Participants never seen are disconnected.
func (m *Monitor) IsConnected(scope Scope, participantID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags[scope][participantID]
}

// AllConnected reports whether every listed participant is connected in scope.
func (m *Monitor) AllConnected(scope Scope, participantIDs []string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	flags := m.flags[scope]
	for _, id := range participantIDs {
		if !flags[id] {
			return false
		}
	}
	return true
}

// Scopes lists the scopes in which the participant is currently connected.
func (m *Monitor) Scopes(participantID string) []Scope {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Scope
	for scope, flags := range m.flags {
		if flags[participantID] {
			out = append(out, scope)
		}
	}
	return out
}

// DisconnectEverywhere flips every scope the participant is connected in, e.g. when
// their transport connection drops.
func (m *Monitor) DisconnectEverywhere(participantID string) {
	for _, scope := range m.Scopes(participantID) {
		m.OnDisconnect(scope, participantID)
	}
}

// Forget drops all state for a scope once its aggregate is gone.
func (m *Monitor) Forget(scope Scope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flags, scope)
	delete(m.listeners, scope)
}
