package session

import "Turnato/models/game"

// Overlay is the per-participant, non-authoritative display state. It can always be
// rebuilt from the authoritative snapshot, so it is never persisted.
type Overlay struct {
	Selected          string `json:"selected"`
	SharingDismissed  bool   `json:"sharing_dismissed"`
	OpponentConnected bool   `json:"opponent_connected"`

	seen    bool
	lastG   game.State
	lastCtx game.Ctx
}

// Reconcile applies a new authoritative (G, ctx). The selection survives only when
// nothing changed; any accepted move (a new current player, turn or payload) drops it.
func (o *Overlay) Reconcile(g game.State, c game.Ctx) {
	if o.seen && (c.CurrentPlayer != o.lastCtx.CurrentPlayer || !c.Equal(o.lastCtx) || !g.Equal(o.lastG)) {
		o.Selected = ""
	}
	o.seen = true
	o.lastG = g
	o.lastCtx = c
}

func (o *Overlay) DismissSharing() {
	o.SharingDismissed = true
}
