package session

import (
	"Turnato/models/game"
	"Turnato/services/validator"
)

// Input is everything Move Intent Capture may look at: the authoritative state as the
// participant last saw it, plus the gating flags.
type Input struct {
	G         game.State
	Ctx       game.Ctx
	Seat      int
	Active    bool
	Connected bool
}

// Capture turns one square activation into either a selection change or a move.
// It never touches authoritative state; the returned move still has to go through
// ApplyMove. The selection is cleared optimistically whenever a move is emitted.
func Capture(rules validator.Rules, in Input, o *Overlay, square string) (game.Move, bool) {
	if !in.Active || !in.Connected || rules == nil {
		return game.Move{}, false
	}

	if o.Selected == "" {
		if rules.Owns(in.G, in.Ctx, in.Seat, square) {
			o.Selected = square
			return game.Move{}, false
		}
		if placer, ok := rules.(validator.Placer); ok {
			if d, ok := placer.Place(in.G, in.Ctx, in.Seat, square); ok {
				return game.Move{Turn: in.Ctx.Turn, Descriptor: d}, true
			}
		}
		return game.Move{}, false
	}

	if o.Selected == square {
		o.Selected = ""
		return game.Move{}, false
	}

	if d, ok := rules.Destination(in.G, in.Ctx, in.Seat, o.Selected, square); ok {
		o.Selected = ""
		return game.Move{Turn: in.Ctx.Turn, Descriptor: d}, true
	}

	// Picking another own piece switches the selection; anything else abandons it.
	if rules.Owns(in.G, in.Ctx, in.Seat, square) {
		o.Selected = square
	} else {
		o.Selected = ""
	}
	return game.Move{}, false
}
