package game

import "errors"

var (
	// Per-move rejections. These are dropped silently at the boundary.
	ErrInvalidMove  = errors.New("invalid move")
	ErrStaleTurn    = errors.New("move computed against a stale turn")
	ErrNotSeated    = errors.New("participant is not seated in this match")
	ErrNotActive    = errors.New("participant is not the current mover")
	ErrDisconnected = errors.New("session is frozen while a seat is disconnected")
	ErrFinished     = errors.New("match is finished")

	// Lookup failures, surfaced to the caller.
	ErrPartyNotFound = errors.New("party not found")
	ErrMatchNotFound = errors.New("match not found")
	ErrNotMember     = errors.New("participant is not a party member")
	ErrUnknownGame   = errors.New("unknown game code")
	ErrPartyClosed   = errors.New("party is closed")
	ErrWrongSecret   = errors.New("wrong party secret")

	// ErrValidatorUnavailable is fatal to the in-flight operation only.
	ErrValidatorUnavailable = errors.New("move validator unavailable")
)

// IsDropped reports whether err is a per-move rejection that must not surface to
// participants as an error.
func IsDropped(err error) bool {
	return errors.Is(err, ErrInvalidMove) ||
		errors.Is(err, ErrStaleTurn) ||
		errors.Is(err, ErrNotSeated) ||
		errors.Is(err, ErrNotActive) ||
		errors.Is(err, ErrDisconnected) ||
		errors.Is(err, ErrFinished)
}

// IsLookup reports whether err is a party or match lookup failure.
func IsLookup(err error) bool {
	return errors.Is(err, ErrPartyNotFound) || errors.Is(err, ErrMatchNotFound)
}
