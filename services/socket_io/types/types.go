package socketio_types

import (
	"sync"

	game_constants "Turnato/constants/game"
	"Turnato/services/party"
	"Turnato/services/session"

	"github.com/zishang520/socket.io/v2/socket"
)

// Client is the part of *socket.Socket the event handlers use.
type Client interface {
	Id() socket.SocketId
	Emit(ev string, args ...any) error
	Join(rooms ...socket.Room)
	Leave(room socket.Room)
}

// Participant is the identity carried by the handshake token.
type Participant struct {
	ID       string
	Nickname string
}

// SocketServer is a struct that contains the socket.io server and the open sockets of
// every participant. A participant may have several (one per tab).
type SocketServer struct {
	Sio_server *socket.Server
	// participant id -> socket id -> socket
	UserConnections map[string]map[socket.SocketId]Client
	mutex           sync.RWMutex
}

func NewSocketServer() *SocketServer {
	return &SocketServer{
		UserConnections: make(map[string]map[socket.SocketId]Client),
	}
}

func (s *SocketServer) AddConnection(participantID string, client Client) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.UserConnections[participantID] == nil {
		s.UserConnections[participantID] = make(map[socket.SocketId]Client)
	}
	s.UserConnections[participantID][client.Id()] = client
}

// RemoveConnection drops one socket and reports how many the participant still has.
func (s *SocketServer) RemoveConnection(participantID string, id socket.SocketId) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	conns := s.UserConnections[participantID]
	delete(conns, id)
	if len(conns) == 0 {
		delete(s.UserConnections, participantID)
	}
	return len(conns)
}

func (s *SocketServer) GetConnections(participantID string) []Client {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make([]Client, 0, len(s.UserConnections[participantID]))
	for _, c := range s.UserConnections[participantID] {
		out = append(out, c)
	}
	return out
}

func PartyRoom(partyID string) socket.Room {
	return socket.Room(game_constants.PartyRoomPrefix + partyID)
}

func MatchRoom(matchID string) socket.Room {
	return socket.Room(game_constants.MatchRoomPrefix + matchID)
}

// PartyStateChanged broadcasts to everyone in the party room.
func (s *SocketServer) PartyStateChanged(snap party.Snapshot) {
	if s.Sio_server == nil {
		return
	}
	s.Sio_server.To(PartyRoom(snap.ID)).Emit(game_constants.EventPartyStateChanged, snap)
}

// SessionStateChanged broadcasts to players and spectators in the match room.
func (s *SocketServer) SessionStateChanged(snap session.Snapshot) {
	if s.Sio_server == nil {
		return
	}
	s.Sio_server.To(MatchRoom(snap.MatchID)).Emit(game_constants.EventSessionStateChanged, snap)
}
