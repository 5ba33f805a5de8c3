package handlers

import (
	"log"

	"Turnato/services/party"
	socketio_types "Turnato/services/socket_io/types"
)

// HandleDisconnecting drops the socket; once the participant has no sockets left they
// are flipped to disconnected in every party and match.
func HandleDisconnecting(coord *party.Coordinator, client socketio_types.Client,
	p socketio_types.Participant, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		log.Printf("[DISCONNECT] Socket %s of participant %s closing", client.Id(), p.ID)
		if remaining := sio.RemoveConnection(p.ID, client.Id()); remaining > 0 {
			log.Printf("[DISCONNECT] Participant %s still has %d sockets", p.ID, remaining)
			return
		}
		coord.Disconnect(p.ID)
		log.Printf("[DISCONNECT-DONE] Participant %s disconnected", p.ID)
	}
}
