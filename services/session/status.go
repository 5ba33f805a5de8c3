package session

import (
	"Turnato/models/game"
	"Turnato/services/catalog"
)

const (
	StatusConnectionLost = "Connection lost"
	StatusDraw           = "Draw!"
	StatusCheck          = "CHECK"
)

// DeriveStatus picks the single status line for a session. Priority is
// connection lost, then a terminal result, then check, then whose turn it is.
func DeriveStatus(info catalog.Game, c game.Ctx, connected bool) string {
	switch {
	case !connected:
		return StatusConnectionLost
	case c.Winner != nil:
		return info.Side(*c.Winner) + " won!"
	case c.Draw:
		return StatusDraw
	case c.Check:
		return StatusCheck
	default:
		return info.Side(c.CurrentPlayer) + "'s turn"
	}
}
