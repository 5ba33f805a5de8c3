package game_constants

import "time"

// Validator and snapshot defaults, overridable through config.
const DefaultValidatorTimeout = 2 * time.Second
const DefaultSnapshotTTL = 24 * time.Hour

// Length of generated party ids (shared as invite links).
const PartyIDLength = 6

// Match status as stored and shown in the lobby
const (
	MatchPending  = "Pending"
	MatchActive   = "Active"
	MatchFinished = "Finished"
)

// Socket.io rooms
const (
	PartyRoomPrefix = "party:"
	MatchRoomPrefix = "match:"
)

// Inbound socket.io events
const (
	EventJoinParty       = "join_party"
	EventLeaveParty      = "leave_party"
	EventToggleDown      = "toggle_down"
	EventJoinMatch       = "join_match"
	EventSquareActivated = "square_activated"
	EventSendMove        = "send_move"
	EventDismissSharing  = "dismiss_sharing"
	EventRequestParty    = "request_party_snapshot"
	EventRequestSession  = "request_session_snapshot"
	EventDisconnecting   = "disconnecting"
)

// Outbound socket.io events
const (
	EventPartyStateChanged   = "party_state_changed"
	EventSessionStateChanged = "session_state_changed"
	EventSessionView         = "session_view" // one participant's view, with their overlay
	EventError               = "error"
)
