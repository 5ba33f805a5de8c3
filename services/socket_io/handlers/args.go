package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"math"

	game_constants "Turnato/constants/game"
	"Turnato/models/game"
	socketio_types "Turnato/services/socket_io/types"

	"github.com/gin-gonic/gin"
)

func stringArg(args []interface{}, i int) (string, bool) {
	if i >= len(args) {
		return "", false
	}
	s, ok := args[i].(string)
	return s, ok && s != ""
}

// intArg accepts the numeric shapes a JSON decoder may hand us.
func intArg(args []interface{}, i int) (int, bool) {
	if i >= len(args) {
		return 0, false
	}
	switch v := args[i].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

func missingArgs(client socketio_types.Client, event, participantID string, want string) {
	log.Printf("[%s-ERROR] Missing arguments from participant %s, want %s", event, participantID, want)
	client.Emit(game_constants.EventError, gin.H{"error": fmt.Sprintf("%s needs %s", event, want)})
}

// emitError reports lookup failures and faults to the client. Per-move rejections are
// dropped: the client's own state will reconcile from the next broadcast.
func emitError(client socketio_types.Client, event, participantID string, err error) {
	if game.IsDropped(err) {
		log.Printf("[%s] Dropped for participant %s: %v", event, participantID, err)
		return
	}
	log.Printf("[%s-ERROR] Participant %s: %v", event, participantID, err)
	client.Emit(game_constants.EventError, gin.H{"error": err.Error()})
}
