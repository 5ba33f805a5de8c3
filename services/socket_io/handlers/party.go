package handlers

import (
	"log"

	game_constants "Turnato/constants/game"
	"Turnato/services/party"
	socketio_types "Turnato/services/socket_io/types"
)

// HandleJoinParty joins the party (idempotently) and subscribes the socket to the party
// room. Args: partyId[, secret].
func HandleJoinParty(coord *party.Coordinator, client socketio_types.Client,
	p socketio_types.Participant) func(args ...interface{}) {
	return func(args ...interface{}) {
		partyID, ok := stringArg(args, 0)
		if !ok {
			missingArgs(client, "JOIN", p.ID, "a party id")
			return
		}
		secret, _ := stringArg(args, 1)

		// subscribe first so the joiner sees the broadcast of their own join
		client.Join(socketio_types.PartyRoom(partyID))
		snap, err := coord.Join(partyID, p.ID, p.Nickname, secret)
		if err != nil {
			client.Leave(socketio_types.PartyRoom(partyID))
			emitError(client, "JOIN", p.ID, err)
			return
		}
		log.Printf("[JOIN-SUCCESS] Participant %s in party %s", p.ID, partyID)
		client.Emit(game_constants.EventPartyStateChanged, snap)
	}
}

// HandleLeaveParty leaves the party. Args: partyId.
func HandleLeaveParty(coord *party.Coordinator, client socketio_types.Client,
	p socketio_types.Participant) func(args ...interface{}) {
	return func(args ...interface{}) {
		partyID, ok := stringArg(args, 0)
		if !ok {
			missingArgs(client, "LEAVE", p.ID, "a party id")
			return
		}
		if err := coord.Leave(partyID, p.ID); err != nil {
			emitError(client, "LEAVE", p.ID, err)
			return
		}
		client.Leave(socketio_types.PartyRoom(partyID))
	}
}

// HandleToggleDown flips the participant's down-vote. Args: partyId, gameCode.
func HandleToggleDown(coord *party.Coordinator, client socketio_types.Client,
	p socketio_types.Participant) func(args ...interface{}) {
	return func(args ...interface{}) {
		partyID, ok1 := stringArg(args, 0)
		gameCode, ok2 := stringArg(args, 1)
		if !ok1 || !ok2 {
			missingArgs(client, "DOWN", p.ID, "a party id and a game code")
			return
		}
		m, err := coord.ToggleDown(partyID, p.ID, gameCode)
		if err != nil {
			emitError(client, "DOWN", p.ID, err)
			return
		}
		if m != nil {
			// the spawning socket follows the match right away; others join on the party update
			client.Join(socketio_types.MatchRoom(m.ID))
		}
	}
}

// HandleRequestPartySnapshot sends the full party state to this socket only.
func HandleRequestPartySnapshot(coord *party.Coordinator, client socketio_types.Client,
	p socketio_types.Participant) func(args ...interface{}) {
	return func(args ...interface{}) {
		partyID, ok := stringArg(args, 0)
		if !ok {
			missingArgs(client, "PARTY-SNAPSHOT", p.ID, "a party id")
			return
		}
		snap, err := coord.Snapshot(partyID)
		if err != nil {
			emitError(client, "PARTY-SNAPSHOT", p.ID, err)
			return
		}
		client.Emit(game_constants.EventPartyStateChanged, snap)
	}
}
