package redis

import "Turnato/models/game"

// MatchState is the live match record, including the authoritative G/ctx.
// Key format: "match:{id}"
type MatchState struct {
	Id         string     `json:"id"`
	PartyId    string     `json:"party_id"`
	GameCode   string     `json:"game_code"`
	Players    []string   `json:"players"` // seat order
	Left       []string   `json:"left,omitempty"`
	Status     string     `json:"status"`
	G          game.State `json:"G"`
	Ctx        game.Ctx   `json:"ctx"`
	CreatedAt  int64      `json:"created_at"`
	LastActive int64      `json:"last_active"` // Unix nanoseconds
}
