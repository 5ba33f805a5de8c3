package party

import (
	"sort"
	"sync"
	"time"

	game_constants "Turnato/constants/game"
	redis_models "Turnato/models/redis"
	"Turnato/services/session"
)

// Party is one lobby. Its mutex guards membership, down-votes and the match list;
// a match's own status fields sit behind the match mutex.
type Party struct {
	mu         sync.RWMutex
	id         string
	name       string
	secretHash []byte
	members    []string
	nicknames  map[string]string
	downVotes  map[string][]string
	matches    []*Match
	createdAt  time.Time
	closed     bool
}

// Match is a formed game instance inside a party.
type Match struct {
	ID       string
	PartyID  string
	GameCode string
	GameName string
	Players  []string

	session   *session.Session
	createdAt time.Time

	mu         sync.RWMutex
	status     string
	lastActive time.Time
	seq        uint64
	archived   bool
}

func (m *Match) Session() *session.Session { return m.session }

func (m *Match) Status() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Match) seated(participantID string) bool {
	return indexOf(m.Players, participantID) >= 0
}

// touch records a session change; it reports whether the match just finished and has
// not been archived yet.
func (m *Match) touch(status string, at time.Time, seq uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	m.lastActive = at
	m.seq = seq
	if status == game_constants.MatchFinished && !m.archived {
		m.archived = true
		return true
	}
	return false
}

func (m *Match) info() MatchInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MatchInfo{
		ID:         m.ID,
		GameCode:   m.GameCode,
		GameName:   m.GameName,
		Players:    append([]string(nil), m.Players...),
		Status:     m.status,
		LastActive: m.lastActive,
		seq:        m.seq,
	}
}

// Member is a party member as shown in the lobby.
type Member struct {
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	Connected bool   `json:"connected"`
}

type MatchInfo struct {
	ID         string    `json:"id"`
	GameCode   string    `json:"game_code"`
	GameName   string    `json:"game_name"`
	Players    []string  `json:"players"`
	Status     string    `json:"status"`
	LastActive time.Time `json:"last_active"`
	seq        uint64
}

// MatchEntry is a match listed for one participant. Active marks matches the
// participant is seated in and that are not finished; the rest are spectate-able.
type MatchEntry struct {
	MatchInfo
	Active bool `json:"active"`
}

// Snapshot is the outbound partyStateChanged payload.
type Snapshot struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Members   []Member            `json:"members"`
	Nicknames map[string]string   `json:"nicknames"`
	DownVotes map[string][]string `json:"down_votes"`
	Matches   []MatchInfo         `json:"matches"`
	Private   bool                `json:"private"`
}

func (p *Party) isMember(participantID string) bool {
	return indexOf(p.members, participantID) >= 0
}

// snapshotLocked needs at least the read lock.
func (p *Party) snapshotLocked(connected func(string) bool) Snapshot {
	snap := Snapshot{
		ID:        p.id,
		Name:      p.name,
		Nicknames: make(map[string]string, len(p.nicknames)),
		DownVotes: make(map[string][]string, len(p.downVotes)),
		Private:   len(p.secretHash) > 0,
	}
	for _, id := range p.members {
		snap.Members = append(snap.Members, Member{ID: id, Nickname: p.nicknames[id], Connected: connected(id)})
	}
	for id, nick := range p.nicknames {
		snap.Nicknames[id] = nick
	}
	for code, votes := range p.downVotes {
		if len(votes) > 0 {
			snap.DownVotes[code] = append([]string(nil), votes...)
		}
	}
	for _, m := range p.matches {
		snap.Matches = append(snap.Matches, m.info())
	}
	sortByActivity(snap.Matches)
	return snap
}

func (p *Party) stateLocked() *redis_models.PartyState {
	st := &redis_models.PartyState{
		Id:         p.id,
		Name:       p.name,
		SecretHash: p.secretHash,
		Members:    append([]string(nil), p.members...),
		Nicknames:  make(map[string]string, len(p.nicknames)),
		DownVotes:  make(map[string][]string, len(p.downVotes)),
		CreatedAt:  p.createdAt.Unix(),
	}
	for id, nick := range p.nicknames {
		st.Nicknames[id] = nick
	}
	for code, votes := range p.downVotes {
		if len(votes) > 0 {
			st.DownVotes[code] = append([]string(nil), votes...)
		}
	}
	for _, m := range p.matches {
		st.MatchIds = append(st.MatchIds, m.ID)
	}
	return st
}

func (p *Party) removeVotes(participantID string) {
	for code, votes := range p.downVotes {
		if i := indexOf(votes, participantID); i >= 0 {
			p.downVotes[code] = append(votes[:i:i], votes[i+1:]...)
		}
		if len(p.downVotes[code]) == 0 {
			delete(p.downVotes, code)
		}
	}
}

func sortByActivity(matches []MatchInfo) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].seq > matches[j].seq
	})
}

func indexOf(ids []string, id string) int {
	for i, x := range ids {
		if x == id {
			return i
		}
	}
	return -1
}
