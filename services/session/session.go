package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	game_constants "Turnato/constants/game"
	"Turnato/models/game"
	"Turnato/services/catalog"
	"Turnato/services/connectivity"
	"Turnato/services/validator"
)

type State string

const (
	WaitingForOpponent State = "WaitingForOpponent"
	InProgress         State = "InProgress"
	Finished           State = "Finished"
)

// Snapshot is a consistent copy of a session, suitable for broadcasting and for
// recovering after a dropped event.
type Snapshot struct {
	MatchID      string     `json:"match_id"`
	GameCode     string     `json:"game_code"`
	Seats        []string   `json:"seats"`
	Left         []string   `json:"left,omitempty"`
	G            game.State `json:"G"`
	Ctx          game.Ctx   `json:"ctx"`
	State        State      `json:"state"`
	Connected    bool       `json:"connected"`
	Disconnected []string   `json:"disconnected,omitempty"`
	Status       string     `json:"status"`
}

// View is a snapshot as seen by one participant. Spectators have Seat -1.
type View struct {
	Snapshot
	ParticipantID string  `json:"participant_id"`
	Seat          int     `json:"seat"`
	Active        bool    `json:"active"`
	Overlay       Overlay `json:"overlay"`
}

type Listener func(Snapshot)

type Config struct {
	Monitor *connectivity.Monitor
	// Timeout bounds a single validator call.
	Timeout time.Duration
}

// Session is the runtime state of one active match. All mutations of (G, ctx) go
// through ApplyMove under the write lock; readers get whole snapshots.
type Session struct {
	id      string
	info    catalog.Game
	rules   validator.Rules
	seats   []string
	monitor *connectivity.Monitor
	timeout time.Duration

	mu   sync.RWMutex
	g    game.State
	ctx  game.Ctx
	left map[string]bool

	// pubMu keeps broadcasts in the order the state changed.
	pubMu sync.Mutex

	overlayMu sync.Mutex
	overlays  map[string]*Overlay

	listenerMu sync.RWMutex
	listeners  []Listener

	unsubscribe func()
}

// New starts a fresh session seated in the given order. rules may be nil, in which
// case every move fails with ErrValidatorUnavailable.
func New(id string, info catalog.Game, rules validator.Rules, seats []string, cfg Config) (*Session, error) {
	g := game.State{Code: info.Code}
	if rules != nil {
		data, err := rules.Setup(len(seats))
		if err != nil {
			return nil, fmt.Errorf("error setting up %s: %w", info.Code, err)
		}
		g.Data = data
	}
	c := game.Ctx{NumPlayers: len(seats)}
	return build(id, info, rules, seats, g, c, nil, cfg), nil
}

// Restore rebuilds a session from a stored snapshot.
func Restore(snap Snapshot, info catalog.Game, rules validator.Rules, cfg Config) *Session {
	return build(snap.MatchID, info, rules, snap.Seats, snap.G, snap.Ctx, snap.Left, cfg)
}

func build(id string, info catalog.Game, rules validator.Rules, seats []string,
	g game.State, c game.Ctx, left []string, cfg Config) *Session {
	if cfg.Monitor == nil {
		cfg.Monitor = connectivity.NewMonitor()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = game_constants.DefaultValidatorTimeout
	}
	s := &Session{
		id:       id,
		info:     info,
		rules:    rules,
		seats:    append([]string(nil), seats...),
		monitor:  cfg.Monitor,
		timeout:  cfg.Timeout,
		g:        g,
		ctx:      c,
		left:     make(map[string]bool),
		overlays: make(map[string]*Overlay),
	}
	for _, p := range left {
		s.left[p] = true
	}
	s.unsubscribe = s.monitor.Subscribe(connectivity.Session(id), s.onConnectivity)
	return s
}

func (s *Session) ID() string         { return s.id }
func (s *Session) Game() catalog.Game { return s.info }

func (s *Session) Seats() []string {
	return append([]string(nil), s.seats...)
}

// OnChange registers a listener for every authoritative change.
func (s *Session) OnChange(l Listener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Session) seatOf(participantID string) int {
	for i, p := range s.seats {
		if p == participantID {
			return i
		}
	}
	return -1
}

func (s *Session) stateLocked() State {
	switch {
	case s.ctx.Over():
		return Finished
	case len(s.seats) < s.info.MinPlayers:
		return WaitingForOpponent
	default:
		return InProgress
	}
}

func (s *Session) connectedLocked() bool {
	return s.monitor.AllConnected(connectivity.Session(s.id), s.seats)
}

func (s *Session) isActiveLocked(participantID string) bool {
	seat := s.seatOf(participantID)
	return seat >= 0 && seat == s.ctx.CurrentPlayer && s.stateLocked() == InProgress
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		MatchID:  s.id,
		GameCode: s.info.Code,
		Seats:    append([]string(nil), s.seats...),
		G:        s.g,
		Ctx:      s.ctx,
		State:    s.stateLocked(),
	}
	for _, p := range s.seats {
		if s.left[p] {
			snap.Left = append(snap.Left, p)
		}
		if !s.monitor.IsConnected(connectivity.Session(s.id), p) {
			snap.Disconnected = append(snap.Disconnected, p)
		}
	}
	snap.Connected = len(snap.Disconnected) == 0
	snap.Status = DeriveStatus(s.info, s.ctx, snap.Connected)
	return snap
}

// Snapshot returns a consistent copy of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// IsActive reports whether the participant is the one expected to move now.
func (s *Session) IsActive(participantID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isActiveLocked(participantID)
}

// IsConnected gates input: the whole session freezes while any seat is disconnected.
func (s *Session) IsConnected(participantID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.seatOf(participantID) >= 0 && !s.monitor.IsConnected(connectivity.Session(s.id), participantID) {
		return false
	}
	return s.connectedLocked()
}

// ApplyMove runs a move through the validator and, on acceptance, replaces (G, ctx) as
// a unit. The move must have been computed against the current turn.
func (s *Session) ApplyMove(ctx context.Context, participantID string, mv game.Move) error {
	s.mu.Lock()
	seat := s.seatOf(participantID)
	var err error
	switch {
	case seat < 0:
		err = game.ErrNotSeated
	case s.stateLocked() == Finished:
		err = game.ErrFinished
	case s.stateLocked() != InProgress || seat != s.ctx.CurrentPlayer:
		err = game.ErrNotActive
	case !s.connectedLocked():
		err = game.ErrDisconnected
	case mv.Turn != s.ctx.Turn:
		err = fmt.Errorf("%w: move for turn %d, session at %d", game.ErrStaleTurn, mv.Turn, s.ctx.Turn)
	}
	if err != nil {
		s.mu.Unlock()
		log.Printf("[MOVE-DROPPED] match %s participant %s move %q: %v", s.id, participantID, mv.Descriptor, err)
		return err
	}

	out, err := s.validate(ctx, seat, mv.Descriptor)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, game.ErrInvalidMove) {
			log.Printf("[MOVE-DROPPED] match %s participant %s: %v", s.id, participantID, err)
		} else {
			log.Printf("[MOVE-ERROR] match %s participant %s: %v", s.id, participantID, err)
		}
		return err
	}

	s.g = out.State
	s.ctx = s.advance(out)
	snap := s.snapshotLocked()
	s.reconcileOverlays(snap)
	s.pubMu.Lock()
	s.mu.Unlock()
	defer s.pubMu.Unlock()

	log.Printf("[MOVE-SUCCESS] match %s participant %s played %q, turn %d", s.id, participantID, mv.Descriptor, snap.Ctx.Turn)
	s.publish(snap)
	return nil
}

type validation struct {
	out game.Outcome
	err error
}

// validate calls the rules with a deadline. Anything other than a clean verdict is a
// validator fault and leaves (G, ctx) untouched.
func (s *Session) validate(ctx context.Context, seat int, descriptor string) (game.Outcome, error) {
	if s.rules == nil {
		return game.Outcome{}, fmt.Errorf("%w: no rules for %s", game.ErrValidatorUnavailable, s.info.Code)
	}
	vctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	g, c := s.g, s.ctx
	done := make(chan validation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- validation{err: fmt.Errorf("validator panic: %v", r)}
			}
		}()
		out, err := s.rules.Validate(vctx, g, c, seat, descriptor)
		done <- validation{out: out, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, game.ErrInvalidMove) {
				return game.Outcome{}, r.err
			}
			return game.Outcome{}, fmt.Errorf("%w: %v", game.ErrValidatorUnavailable, r.err)
		}
		if r.out.State.Code == "" {
			r.out.State.Code = g.Code
		}
		return r.out, nil
	case <-vctx.Done():
		return game.Outcome{}, fmt.Errorf("%w: %v", game.ErrValidatorUnavailable, vctx.Err())
	}
}

func (s *Session) advance(out game.Outcome) game.Ctx {
	next := s.ctx
	next.Winner = out.Winner
	next.Draw = out.Draw && out.Winner == nil
	next.Check = out.Check && !next.Over()
	if out.Continue && !next.Over() {
		next.CurrentPlayerMoves++
		return next
	}
	n := len(s.seats)
	following := (s.ctx.CurrentPlayer + 1) % n
	if s.info.TurnOrder == catalog.ByValidator && out.Next != nil && *out.Next >= 0 && *out.Next < n {
		following = *out.Next
	}
	next.Turn++
	next.CurrentPlayer = following
	next.CurrentPlayerMoves = 0
	return next
}

// ActivateSquare feeds a raw square activation through Move Intent Capture and applies
// the resulting move, if any. It reports whether a move was emitted.
func (s *Session) ActivateSquare(ctx context.Context, participantID, square string) (bool, error) {
	s.mu.RLock()
	in := Input{
		G:         s.g,
		Ctx:       s.ctx,
		Seat:      s.seatOf(participantID),
		Active:    s.isActiveLocked(participantID),
		Connected: s.connectedLocked(),
	}
	s.mu.RUnlock()

	s.overlayMu.Lock()
	o := s.overlayLocked(participantID, in.Seat >= 0)
	o.Reconcile(in.G, in.Ctx)
	mv, emitted := Capture(s.rules, in, o, square)
	s.overlayMu.Unlock()

	if !emitted {
		return false, nil
	}
	return true, s.ApplyMove(ctx, participantID, mv)
}

// Overlay returns a copy of the participant's overlay.
func (s *Session) Overlay(participantID string) Overlay {
	s.mu.RLock()
	seated := s.seatOf(participantID) >= 0
	s.mu.RUnlock()
	s.overlayMu.Lock()
	defer s.overlayMu.Unlock()
	return *s.overlayLocked(participantID, seated)
}

// DismissSharing hides the share banner for the participant. Dismissing always keeps
// an overlay, spectators included.
func (s *Session) DismissSharing(participantID string) {
	s.overlayMu.Lock()
	defer s.overlayMu.Unlock()
	s.overlayLocked(participantID, true).DismissSharing()
}

// overlayLocked returns the stored overlay, creating it only when keep is set. Other
// callers get a throwaway zero overlay so read-only viewers do not grow the map.
func (s *Session) overlayLocked(participantID string, keep bool) *Overlay {
	o, ok := s.overlays[participantID]
	if !ok {
		o = &Overlay{}
		if keep {
			s.overlays[participantID] = o
		}
	}
	return o
}

func (s *Session) reconcileOverlays(snap Snapshot) {
	s.overlayMu.Lock()
	defer s.overlayMu.Unlock()
	for pid, o := range s.overlays {
		o.Reconcile(snap.G, snap.Ctx)
		o.OpponentConnected = othersConnected(snap, pid)
	}
}

func othersConnected(snap Snapshot, participantID string) bool {
	for _, p := range snap.Disconnected {
		if p != participantID {
			return false
		}
	}
	return true
}

// ViewFor builds what one participant (or spectator) is shown.
func (s *Session) ViewFor(participantID string) View {
	s.mu.RLock()
	snap := s.snapshotLocked()
	active := s.isActiveLocked(participantID)
	seat := s.seatOf(participantID)
	s.mu.RUnlock()

	s.overlayMu.Lock()
	o := s.overlayLocked(participantID, seat >= 0)
	o.Reconcile(snap.G, snap.Ctx)
	o.OpponentConnected = othersConnected(snap, participantID)
	overlay := *o
	s.overlayMu.Unlock()

	return View{
		Snapshot:      snap,
		ParticipantID: participantID,
		Seat:          seat,
		Active:        active,
		Overlay:       overlay,
	}
}

// MarkLeft records that a seated participant left the party. The match keeps going;
// what a departure means for the game is left to the rules.
func (s *Session) MarkLeft(participantID string) {
	s.setLeft(participantID, true)
}

// ClearLeft undoes MarkLeft when the participant rejoins.
func (s *Session) ClearLeft(participantID string) {
	s.setLeft(participantID, false)
}

func (s *Session) setLeft(participantID string, left bool) {
	s.mu.Lock()
	if s.seatOf(participantID) < 0 || s.left[participantID] == left {
		s.mu.Unlock()
		return
	}
	if left {
		s.left[participantID] = true
	} else {
		delete(s.left, participantID)
	}
	snap := s.snapshotLocked()
	s.pubMu.Lock()
	s.mu.Unlock()
	defer s.pubMu.Unlock()
	s.publish(snap)
}

func (s *Session) onConnectivity(ev connectivity.Event) {
	s.mu.RLock()
	if s.seatOf(ev.ParticipantID) < 0 {
		s.mu.RUnlock()
		return
	}
	snap := s.snapshotLocked()
	s.reconcileOverlays(snap)
	s.pubMu.Lock()
	s.mu.RUnlock()
	defer s.pubMu.Unlock()
	s.publish(snap)
}

// Publish sends the current snapshot to every listener, ordered with the broadcasts of
// moves and connectivity flips.
func (s *Session) Publish() {
	s.mu.RLock()
	snap := s.snapshotLocked()
	s.pubMu.Lock()
	s.mu.RUnlock()
	defer s.pubMu.Unlock()
	s.publish(snap)
}

func (s *Session) publish(snap Snapshot) {
	s.listenerMu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.listenerMu.RUnlock()
	for _, l := range listeners {
		l(snap)
	}
}

// Close detaches this session from connectivity updates. Flags of the match scope are
// left alone; another session for the same match may still be live.
func (s *Session) Close() {
	s.unsubscribe()
}
