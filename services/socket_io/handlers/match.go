package handlers

import (
	"context"

	game_constants "Turnato/constants/game"
	"Turnato/models/game"
	"Turnato/services/party"
	socketio_types "Turnato/services/socket_io/types"
)

func emitView(client socketio_types.Client, m *party.Match, participantID string) {
	client.Emit(game_constants.EventSessionView, m.Session().ViewFor(participantID))
}

// HandleJoinMatch subscribes the socket to a match, as a player if seated and as a
// spectator otherwise. Args: matchId.
func HandleJoinMatch(coord *party.Coordinator, client socketio_types.Client,
	p socketio_types.Participant) func(args ...interface{}) {
	return func(args ...interface{}) {
		matchID, ok := stringArg(args, 0)
		if !ok {
			missingArgs(client, "JOIN-MATCH", p.ID, "a match id")
			return
		}
		client.Join(socketio_types.MatchRoom(matchID))
		m, err := coord.ConnectMatch(matchID, p.ID)
		if err != nil {
			client.Leave(socketio_types.MatchRoom(matchID))
			emitError(client, "JOIN-MATCH", p.ID, err)
			return
		}
		emitView(client, m, p.ID)
	}
}

// HandleSquareActivated runs a board click through move intent capture. The clicking
// socket gets its updated view back; an emitted move is broadcast by the session.
// Args: matchId, square.
func HandleSquareActivated(coord *party.Coordinator, client socketio_types.Client,
	p socketio_types.Participant) func(args ...interface{}) {
	return func(args ...interface{}) {
		matchID, ok1 := stringArg(args, 0)
		square, ok2 := stringArg(args, 1)
		if !ok1 || !ok2 {
			missingArgs(client, "SQUARE", p.ID, "a match id and a square")
			return
		}
		m, err := coord.Match(matchID)
		if err != nil {
			emitError(client, "SQUARE", p.ID, err)
			return
		}
		if _, err := m.Session().ActivateSquare(context.Background(), p.ID, square); err != nil {
			emitError(client, "SQUARE", p.ID, err)
		}
		emitView(client, m, p.ID)
	}
}

// HandleSendMove applies a move computed by the client. Args: matchId, move, turn.
func HandleSendMove(coord *party.Coordinator, client socketio_types.Client,
	p socketio_types.Participant) func(args ...interface{}) {
	return func(args ...interface{}) {
		matchID, ok1 := stringArg(args, 0)
		descriptor, ok2 := stringArg(args, 1)
		turn, ok3 := intArg(args, 2)
		if !ok1 || !ok2 || !ok3 {
			missingArgs(client, "MOVE", p.ID, "a match id, a move and a turn")
			return
		}
		m, err := coord.Match(matchID)
		if err != nil {
			emitError(client, "MOVE", p.ID, err)
			return
		}
		err = m.Session().ApplyMove(context.Background(), p.ID, game.Move{Turn: turn, Descriptor: descriptor})
		if err != nil {
			emitError(client, "MOVE", p.ID, err)
		}
	}
}

// HandleDismissSharing hides the share banner for this participant. Args: matchId.
func HandleDismissSharing(coord *party.Coordinator, client socketio_types.Client,
	p socketio_types.Participant) func(args ...interface{}) {
	return func(args ...interface{}) {
		matchID, ok := stringArg(args, 0)
		if !ok {
			missingArgs(client, "SHARING", p.ID, "a match id")
			return
		}
		m, err := coord.Match(matchID)
		if err != nil {
			emitError(client, "SHARING", p.ID, err)
			return
		}
		m.Session().DismissSharing(p.ID)
		emitView(client, m, p.ID)
	}
}

// HandleRequestSessionSnapshot resends this participant's view. Args: matchId.
func HandleRequestSessionSnapshot(coord *party.Coordinator, client socketio_types.Client,
	p socketio_types.Participant) func(args ...interface{}) {
	return func(args ...interface{}) {
		matchID, ok := stringArg(args, 0)
		if !ok {
			missingArgs(client, "SESSION-SNAPSHOT", p.ID, "a match id")
			return
		}
		m, err := coord.Match(matchID)
		if err != nil {
			emitError(client, "SESSION-SNAPSHOT", p.ID, err)
			return
		}
		emitView(client, m, p.ID)
	}
}
