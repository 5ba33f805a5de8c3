package party

import (
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	game_constants "Turnato/constants/game"
	"Turnato/models/game"
	redis_models "Turnato/models/redis"
	"Turnato/services/catalog"
	"Turnato/services/connectivity"
	"Turnato/services/session"
	"Turnato/services/validator"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Store keeps live party and match state outside the process. Get* return (nil, nil)
// when the key does not exist.
type Store interface {
	SaveParty(state *redis_models.PartyState) error
	GetParty(partyId string) (*redis_models.PartyState, error)
	DeleteParty(partyId string) error
	SaveMatch(state *redis_models.MatchState) error
	GetMatch(matchId string) (*redis_models.MatchState, error)
}

// Archiver copies finished matches and closed parties to durable storage.
type Archiver interface {
	SyncMatch(matchId string) error
	SyncParty(partyId string) error
}

// Publisher delivers the outbound event families to subscribers.
type Publisher interface {
	PartyStateChanged(snap Snapshot)
	SessionStateChanged(snap session.Snapshot)
}

type Options struct {
	Store     Store
	Archiver  Archiver
	Publisher Publisher
	// ValidatorTimeout bounds each validator call in spawned sessions.
	ValidatorTimeout time.Duration
}

// Coordinator is the Party/Lobby Coordinator. Each party is a single-writer aggregate
// behind its own lock; the coordinator lock only guards the indexes.
//
// Session methods are never called while a party lock is held: session listeners take
// match and party locks, so calling back into a session from under a party lock could
// deadlock.
type Coordinator struct {
	catalog *catalog.Catalog
	rules   *validator.Registry
	monitor *connectivity.Monitor
	opts    Options
	seq     atomic.Uint64

	mu      sync.RWMutex
	parties map[string]*Party
	matches map[string]*Match
	// closed remembers recently closed party ids so a stale store snapshot cannot
	// bring them back.
	closed map[string]time.Time
}

func NewCoordinator(cat *catalog.Catalog, rules *validator.Registry, monitor *connectivity.Monitor, opts Options) *Coordinator {
	if monitor == nil {
		monitor = connectivity.NewMonitor()
	}
	if rules == nil {
		rules = validator.NewRegistry()
	}
	if opts.ValidatorTimeout <= 0 {
		opts.ValidatorTimeout = game_constants.DefaultValidatorTimeout
	}
	return &Coordinator{
		catalog: cat,
		rules:   rules,
		monitor: monitor,
		opts:    opts,
		parties: make(map[string]*Party),
		matches: make(map[string]*Match),
		closed:  make(map[string]time.Time),
	}
}

func (c *Coordinator) Catalog() *catalog.Catalog      { return c.catalog }
func (c *Coordinator) Monitor() *connectivity.Monitor { return c.monitor }

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generatePartyID(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}

// CreateParty opens an empty party. A non-empty secret makes it private: joining then
// requires the secret.
func (c *Coordinator) CreateParty(name, secret string) (Snapshot, error) {
	p := &Party{
		name:      name,
		nicknames: make(map[string]string),
		downVotes: make(map[string][]string),
		createdAt: time.Now(),
	}
	if secret != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			return Snapshot{}, fmt.Errorf("error hashing party secret: %v", err)
		}
		p.secretHash = hash
	}

	c.mu.Lock()
	for {
		id := generatePartyID(game_constants.PartyIDLength)
		if _, taken := c.parties[id]; taken {
			continue
		}
		if _, taken := c.closed[id]; taken {
			continue
		}
		if c.opts.Store != nil {
			if existing, err := c.opts.Store.GetParty(id); err == nil && existing != nil {
				continue
			}
		}
		p.id = id
		break
	}
	if p.name == "" {
		p.name = "Party " + p.id
	}
	c.parties[p.id] = p
	c.mu.Unlock()

	c.watchParty(p.id)
	log.Printf("[PARTY-CREATE] Party %s (%s) created", p.id, p.name)
	return c.commit(p), nil
}

func (c *Coordinator) watchParty(partyID string) {
	c.monitor.Subscribe(connectivity.Party(partyID), func(connectivity.Event) {
		if p, err := c.party(partyID); err == nil {
			c.commit(p)
		}
	})
}

// Join adds the participant to the party, or only refreshes their connectivity if they
// are already a member. The nickname is fixed by the first join.
func (c *Coordinator) Join(partyID, participantID, nickname, secret string) (Snapshot, error) {
	p, err := c.party(partyID)
	if err != nil {
		return Snapshot{}, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return Snapshot{}, game.ErrPartyClosed
	}
	if !p.isMember(participantID) {
		if len(p.secretHash) > 0 && bcrypt.CompareHashAndPassword(p.secretHash, []byte(secret)) != nil {
			p.mu.Unlock()
			return Snapshot{}, game.ErrWrongSecret
		}
		p.members = append(p.members, participantID)
		if _, known := p.nicknames[participantID]; !known {
			p.nicknames[participantID] = nickname
		}
		log.Printf("[JOIN] Participant %s (%s) joined party %s", participantID, p.nicknames[participantID], partyID)
	}
	rejoined := p.seatedSessions(participantID)
	p.mu.Unlock()

	for _, s := range rejoined {
		s.ClearLeft(participantID)
		c.monitor.OnConnect(connectivity.Session(s.ID()), participantID)
	}
	if !c.monitor.OnConnect(connectivity.Party(partyID), participantID) {
		return c.commit(p), nil
	}
	// the connectivity listener already committed
	return c.Snapshot(partyID)
}

// Leave removes membership and down-votes, and tells every match the participant is
// seated in. The matches themselves keep running.
func (c *Coordinator) Leave(partyID, participantID string) error {
	p, err := c.party(partyID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	i := indexOf(p.members, participantID)
	if i < 0 {
		p.mu.Unlock()
		return nil
	}
	p.members = append(p.members[:i:i], p.members[i+1:]...)
	p.removeVotes(participantID)
	seated := p.seatedSessions(participantID)
	empty := len(p.members) == 0
	p.mu.Unlock()

	log.Printf("[LEAVE] Participant %s left party %s", participantID, partyID)
	for _, s := range seated {
		s.MarkLeft(participantID)
		c.monitor.OnDisconnect(connectivity.Session(s.ID()), participantID)
	}
	c.monitor.OnDisconnect(connectivity.Party(partyID), participantID)

	if empty {
		return c.Close(partyID)
	}
	c.commit(p)
	return nil
}

// seatedSessions needs at least the read lock.
func (p *Party) seatedSessions(participantID string) []*session.Session {
	var out []*session.Session
	for _, m := range p.matches {
		if m.seated(participantID) {
			out = append(out, m.session)
		}
	}
	return out
}

// ToggleDown flips the participant's vote for a game. When the vote set reaches the
// game's required player count it is drained and a match is spawned from exactly those
// voters, in vote order, all under the party's write lock.
func (c *Coordinator) ToggleDown(partyID, participantID, gameCode string) (*Match, error) {
	info, ok := c.catalog.Get(gameCode)
	if !ok {
		return nil, fmt.Errorf("%w: %s", game.ErrUnknownGame, gameCode)
	}
	p, err := c.party(partyID)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, game.ErrPartyClosed
	}
	if !p.isMember(participantID) {
		p.mu.Unlock()
		return nil, game.ErrNotMember
	}

	// the stored set only changes once the outcome is known
	current := p.downVotes[gameCode]
	var votes []string
	if i := indexOf(current, participantID); i >= 0 {
		votes = append(append(votes, current[:i]...), current[i+1:]...)
	} else {
		votes = append(append(votes, current...), participantID)
	}

	var spawned *Match
	if len(votes) >= info.RequiredPlayers() {
		players := append([]string(nil), votes[:info.RequiredPlayers()]...)
		m, err := c.newMatch(p.id, info, players)
		if err != nil {
			p.mu.Unlock()
			log.Printf("[DOWN-ERROR] Could not spawn %s in party %s: %v", gameCode, partyID, err)
			return nil, err
		}
		votes = votes[info.RequiredPlayers():]
		p.matches = append(p.matches, m)
		spawned = m
	}
	if len(votes) == 0 {
		delete(p.downVotes, gameCode)
	} else {
		p.downVotes[gameCode] = votes
	}
	p.mu.Unlock()

	if spawned == nil {
		log.Printf("[DOWN] Participant %s toggled %s in party %s", participantID, gameCode, partyID)
		c.commit(p)
		return nil, nil
	}

	log.Printf("[DOWN-SPAWN] Match %s of %s spawned in party %s with %v", spawned.ID, gameCode, partyID, spawned.Players)
	c.mu.Lock()
	c.matches[spawned.ID] = spawned
	c.mu.Unlock()
	c.attach(spawned)
	for _, pid := range spawned.Players {
		if c.monitor.IsConnected(connectivity.Party(partyID), pid) {
			c.monitor.OnConnect(connectivity.Session(spawned.ID), pid)
		}
	}
	// goes through the listener, which also commits the party
	spawned.session.Publish()
	return spawned, nil
}

func (c *Coordinator) newMatch(partyID string, info catalog.Game, players []string) (*Match, error) {
	rules, _ := c.rules.Get(info.Code)
	if rules == nil {
		return nil, fmt.Errorf("%w: no rules for %s", game.ErrValidatorUnavailable, info.Code)
	}
	id := uuid.NewString()
	s, err := session.New(id, info, rules, players, c.sessionConfig())
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Match{
		ID:         id,
		PartyID:    partyID,
		GameCode:   info.Code,
		GameName:   info.Name,
		Players:    players,
		session:    s,
		createdAt:  now,
		status:     game_constants.MatchActive,
		lastActive: now,
		seq:        c.seq.Add(1),
	}, nil
}

func (c *Coordinator) sessionConfig() session.Config {
	return session.Config{Monitor: c.monitor, Timeout: c.opts.ValidatorTimeout}
}

func (c *Coordinator) attach(m *Match) {
	m.session.OnChange(func(snap session.Snapshot) {
		c.onSessionChange(m, snap)
		if p, err := c.party(m.PartyID); err == nil {
			c.commit(p)
		}
	})
}

func matchStatus(s session.State) string {
	switch s {
	case session.Finished:
		return game_constants.MatchFinished
	case session.WaitingForOpponent:
		return game_constants.MatchPending
	default:
		return game_constants.MatchActive
	}
}

// onSessionChange records activity, persists the match and forwards the snapshot.
func (c *Coordinator) onSessionChange(m *Match, snap session.Snapshot) {
	now := time.Now()
	finished := m.touch(matchStatus(snap.State), now, c.seq.Add(1))

	if c.opts.Store != nil {
		st := &redis_models.MatchState{
			Id:         m.ID,
			PartyId:    m.PartyID,
			GameCode:   m.GameCode,
			Players:    m.Players,
			Left:       snap.Left,
			Status:     matchStatus(snap.State),
			G:          snap.G,
			Ctx:        snap.Ctx,
			CreatedAt:  m.createdAt.Unix(),
			LastActive: now.UnixNano(),
		}
		if err := c.opts.Store.SaveMatch(st); err != nil {
			log.Printf("[MATCH-ERROR] Error saving match %s: %v", m.ID, err)
		}
	}
	if finished && c.opts.Archiver != nil {
		if err := c.opts.Archiver.SyncMatch(m.ID); err != nil {
			log.Printf("[MATCH-ERROR] Error archiving match %s: %v", m.ID, err)
		}
	}
	if c.opts.Publisher != nil {
		c.opts.Publisher.SessionStateChanged(snap)
	}
}

// commit persists the party and publishes its snapshot.
func (c *Coordinator) commit(p *Party) Snapshot {
	p.mu.RLock()
	snap := p.snapshotLocked(c.connectedIn(p.id))
	state := p.stateLocked()
	closed := p.closed
	p.mu.RUnlock()

	if closed {
		return snap
	}
	if c.opts.Store != nil {
		if err := c.opts.Store.SaveParty(state); err != nil {
			log.Printf("[PARTY-ERROR] Error saving party %s: %v", p.id, err)
		}
	}
	if c.opts.Publisher != nil {
		c.opts.Publisher.PartyStateChanged(snap)
	}
	return snap
}

func (c *Coordinator) connectedIn(partyID string) func(string) bool {
	return func(id string) bool {
		return c.monitor.IsConnected(connectivity.Party(partyID), id)
	}
}

// Close tears the party down: it is archived, dropped from memory and from the store.
func (c *Coordinator) Close(partyID string) error {
	p, err := c.party(partyID)
	if err != nil {
		return err
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	matches := append([]*Match(nil), p.matches...)
	p.mu.Unlock()

	if c.opts.Archiver != nil {
		if err := c.opts.Archiver.SyncParty(partyID); err != nil {
			log.Printf("[PARTY-ERROR] Error archiving party %s: %v", partyID, err)
		}
	}

	c.mu.Lock()
	now := time.Now()
	for id, at := range c.closed {
		if now.Sub(at) > game_constants.DefaultSnapshotTTL {
			delete(c.closed, id)
		}
	}
	c.closed[partyID] = now
	delete(c.parties, partyID)
	for _, m := range matches {
		delete(c.matches, m.ID)
	}
	c.mu.Unlock()

	for _, m := range matches {
		m.session.Close()
		c.monitor.Forget(connectivity.Session(m.ID))
	}
	c.monitor.Forget(connectivity.Party(partyID))
	if c.opts.Store != nil {
		if err := c.opts.Store.DeleteParty(partyID); err != nil {
			log.Printf("[PARTY-ERROR] Error deleting party %s: %v", partyID, err)
		}
	}
	log.Printf("[PARTY-CLOSE] Party %s closed", partyID)
	return nil
}

// Disband closes the party on behalf of one of its members.
func (c *Coordinator) Disband(partyID, participantID string) error {
	p, err := c.party(partyID)
	if err != nil {
		return err
	}
	p.mu.RLock()
	member := p.isMember(participantID)
	p.mu.RUnlock()
	if !member {
		return game.ErrNotMember
	}
	log.Printf("[PARTY-DISBAND] Participant %s disbands party %s", participantID, partyID)
	return c.Close(partyID)
}

// Snapshot returns the current party state, for clients recovering from a dropped event.
func (c *Coordinator) Snapshot(partyID string) (Snapshot, error) {
	p, err := c.party(partyID)
	if err != nil {
		return Snapshot{}, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked(c.connectedIn(partyID)), nil
}

// ListMatches lists every match of the party, most recently active first, marking the
// ones that are active for the participant.
func (c *Coordinator) ListMatches(partyID, participantID string) ([]MatchEntry, error) {
	p, err := c.party(partyID)
	if err != nil {
		return nil, err
	}
	p.mu.RLock()
	infos := make([]MatchInfo, 0, len(p.matches))
	for _, m := range p.matches {
		infos = append(infos, m.info())
	}
	p.mu.RUnlock()

	sortByActivity(infos)
	entries := make([]MatchEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, MatchEntry{
			MatchInfo: info,
			Active:    indexOf(info.Players, participantID) >= 0 && info.Status != game_constants.MatchFinished,
		})
	}
	return entries, nil
}

// Match looks up a match in any live party.
func (c *Coordinator) Match(matchID string) (*Match, error) {
	c.mu.RLock()
	m, ok := c.matches[matchID]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}
	if c.opts.Store != nil {
		st, err := c.opts.Store.GetMatch(matchID)
		if err != nil {
			return nil, err
		}
		if st != nil {
			if _, err := c.party(st.PartyId); err == nil {
				c.mu.RLock()
				m, ok = c.matches[matchID]
				c.mu.RUnlock()
				if ok {
					return m, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", game.ErrMatchNotFound, matchID)
}

// party returns the live party, rebuilding it from the store if needed.
func (c *Coordinator) party(partyID string) (*Party, error) {
	c.mu.RLock()
	p, ok := c.parties[partyID]
	_, closed := c.closed[partyID]
	c.mu.RUnlock()
	if ok {
		return p, nil
	}
	if closed || c.opts.Store == nil {
		return nil, fmt.Errorf("%w: %s", game.ErrPartyNotFound, partyID)
	}
	st, err := c.opts.Store.GetParty(partyID)
	if err != nil {
		return nil, fmt.Errorf("error loading party %s: %w", partyID, err)
	}
	if st == nil {
		return nil, fmt.Errorf("%w: %s", game.ErrPartyNotFound, partyID)
	}
	return c.restore(st)
}

func (c *Coordinator) restore(st *redis_models.PartyState) (*Party, error) {
	p := &Party{
		id:         st.Id,
		name:       st.Name,
		secretHash: st.SecretHash,
		members:    append([]string(nil), st.Members...),
		nicknames:  make(map[string]string, len(st.Nicknames)),
		downVotes:  make(map[string][]string, len(st.DownVotes)),
		createdAt:  time.Unix(st.CreatedAt, 0),
	}
	for id, nick := range st.Nicknames {
		p.nicknames[id] = nick
	}
	for code, votes := range st.DownVotes {
		p.downVotes[code] = append([]string(nil), votes...)
	}

	var restored []*Match
	for _, id := range st.MatchIds {
		ms, err := c.opts.Store.GetMatch(id)
		if err != nil {
			return nil, fmt.Errorf("error loading match %s: %w", id, err)
		}
		if ms == nil {
			log.Printf("[PARTY-RESTORE] Match %s of party %s is gone, skipping", id, st.Id)
			continue
		}
		info, ok := c.catalog.Get(ms.GameCode)
		if !ok {
			log.Printf("[PARTY-RESTORE] Match %s uses unknown game %s, skipping", id, ms.GameCode)
			continue
		}
		rules, _ := c.rules.Get(ms.GameCode)
		s := session.Restore(session.Snapshot{
			MatchID:  ms.Id,
			GameCode: ms.GameCode,
			Seats:    ms.Players,
			Left:     ms.Left,
			G:        ms.G,
			Ctx:      ms.Ctx,
		}, info, rules, c.sessionConfig())
		restored = append(restored, &Match{
			ID:         ms.Id,
			PartyID:    ms.PartyId,
			GameCode:   ms.GameCode,
			GameName:   info.Name,
			Players:    ms.Players,
			session:    s,
			createdAt:  time.Unix(ms.CreatedAt, 0),
			status:     ms.Status,
			lastActive: time.Unix(0, ms.LastActive),
			archived:   ms.Status == game_constants.MatchFinished,
		})
	}
	sort.SliceStable(restored, func(i, j int) bool {
		return restored[i].lastActive.Before(restored[j].lastActive)
	})
	for _, m := range restored {
		m.seq = c.seq.Add(1)
	}
	p.matches = restored

	c.mu.Lock()
	if _, closed := c.closed[p.id]; closed {
		c.mu.Unlock()
		for _, m := range restored {
			m.session.Close()
		}
		return nil, fmt.Errorf("%w: %s", game.ErrPartyNotFound, p.id)
	}
	if existing, ok := c.parties[p.id]; ok {
		c.mu.Unlock()
		// only this copy's subscriptions go; the live sessions keep theirs
		for _, m := range restored {
			m.session.Close()
		}
		return existing, nil
	}
	c.parties[p.id] = p
	for _, m := range restored {
		c.matches[m.ID] = m
	}
	c.mu.Unlock()

	for _, m := range restored {
		c.attach(m)
	}
	c.watchParty(p.id)
	log.Printf("[PARTY-RESTORE] Party %s rebuilt with %d members and %d matches", p.id, len(p.members), len(restored))
	return p, nil
}

// ConnectMatch marks a seated participant's transport as attached to the match. Callers
// that are not seated become spectators and flip nothing.
func (c *Coordinator) ConnectMatch(matchID, participantID string) (*Match, error) {
	m, err := c.Match(matchID)
	if err != nil {
		return nil, err
	}
	if m.seated(participantID) {
		c.monitor.OnConnect(connectivity.Session(matchID), participantID)
	}
	return m, nil
}

// Disconnect flips the participant to disconnected in every party and match.
func (c *Coordinator) Disconnect(participantID string) {
	log.Printf("[DISCONNECT] Participant %s dropped its connection", participantID)
	c.monitor.DisconnectEverywhere(participantID)
}
