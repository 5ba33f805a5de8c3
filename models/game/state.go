package game

import (
	"bytes"
	"encoding/json"
)

// State is the opaque game payload G, tagged with the game code that knows how to read it.
// Only the rules bound to Code interpret Data.
type State struct {
	Code string          `json:"code"`
	Data json.RawMessage `json:"data"`
}

// Equal reports whether both payloads carry the same bytes for the same game.
func (s State) Equal(o State) bool {
	return s.Code == o.Code && bytes.Equal(s.Data, o.Data)
}

// Ctx is the turn control block that travels with G.
type Ctx struct {
	NumPlayers         int  `json:"numPlayers"`
	Turn               int  `json:"turn"`
	CurrentPlayer      int  `json:"currentPlayer"` // seat index
	CurrentPlayerMoves int  `json:"currentPlayerMoves"`
	Winner             *int `json:"winner,omitempty"` // seat index
	Draw               bool `json:"draw,omitempty"`
	Check              bool `json:"check,omitempty"`
}

// Over reports whether the control block carries a terminal result.
func (c Ctx) Over() bool {
	return c.Winner != nil || c.Draw
}

// Equal compares two control blocks field by field.
func (c Ctx) Equal(o Ctx) bool {
	if (c.Winner == nil) != (o.Winner == nil) {
		return false
	}
	if c.Winner != nil && *c.Winner != *o.Winner {
		return false
	}
	return c.NumPlayers == o.NumPlayers &&
		c.Turn == o.Turn &&
		c.CurrentPlayer == o.CurrentPlayer &&
		c.CurrentPlayerMoves == o.CurrentPlayerMoves &&
		c.Draw == o.Draw &&
		c.Check == o.Check
}

// Move is a move descriptor together with the turn it was computed against.
type Move struct {
	Turn       int    `json:"turn"`
	Descriptor string `json:"move"`
}

// Outcome is what a validator hands back for an accepted move: the next G plus the
// ctx delta it implies.
type Outcome struct {
	State State
	// Winner is the winning seat, if the move ended the game.
	Winner *int
	Draw   bool
	Check  bool
	// Continue keeps the turn with the current player.
	Continue bool
	// Next overrides round-robin order when set.
	Next *int
}

// Seat returns a pointer to i, handy for Winner and Next.
func Seat(i int) *int {
	return &i
}
