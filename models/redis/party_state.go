package redis

// PartyState is the live party record kept in Redis so a party can be rebuilt after a
// restart or recovered by a client that missed events.
// Key format: "party:{id}"
type PartyState struct {
	Id         string              `json:"id"`
	Name       string              `json:"name"`
	SecretHash []byte              `json:"secret_hash,omitempty"`
	Members    []string            `json:"members"`   // seat order
	Nicknames  map[string]string   `json:"nicknames"` // kept after leave, for match history
	DownVotes  map[string][]string `json:"down_votes"`
	MatchIds   []string            `json:"match_ids"`
	CreatedAt  int64               `json:"created_at"` // Unix timestamp
}
