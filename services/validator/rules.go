package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"

	"Turnato/models/game"
	"Turnato/services/catalog"
)

// Rules is the per-game Move Validator plus the read-only board queries that Move Intent
// Capture delegates to. Implementations must be deterministic given their inputs.
type Rules interface {
	// Setup returns the initial payload for a match with n seats.
	Setup(n int) (json.RawMessage, error)
	// Validate returns the next state, or an error wrapping game.ErrInvalidMove.
	Validate(ctx context.Context, g game.State, c game.Ctx, seat int, descriptor string) (game.Outcome, error)
	// Owns reports whether square holds a piece the seat may pick up right now.
	Owns(g game.State, c game.Ctx, seat int, square string) bool
	// Destination builds the move descriptor for from->to when it is legal.
	Destination(g game.State, c game.Ctx, seat int, from, to string) (string, bool)
}

// Placer is implemented by games where a move is a single square activation.
type Placer interface {
	Place(g game.State, c game.Ctx, seat int, square string) (string, bool)
}

// Registry maps game codes to their rules.
type Registry struct {
	rules map[string]Rules
}

func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rules)}
}

// FromCatalog binds every catalog entry to its rules implementation.
func FromCatalog(c *catalog.Catalog) (*Registry, error) {
	r := NewRegistry()
	for _, g := range c.All() {
		switch g.Rules {
		case "chess":
			r.Register(g.Code, Chess{})
		case "lua":
			src, err := readScript(g.Script)
			if err != nil {
				return nil, fmt.Errorf("game %s: %w", g.Code, err)
			}
			s, err := NewScripted(g.Code, src)
			if err != nil {
				return nil, fmt.Errorf("game %s: %w", g.Code, err)
			}
			r.Register(g.Code, s)
		case "":
			// Listed but not playable here. Sessions report ErrValidatorUnavailable.
		default:
			return nil, fmt.Errorf("game %s: unknown rules %q", g.Code, g.Rules)
		}
	}
	return r, nil
}

func (r *Registry) Register(code string, rules Rules) {
	r.rules[code] = rules
}

func (r *Registry) Get(code string) (Rules, bool) {
	rules, ok := r.rules[code]
	return rules, ok
}

func readScript(name string) ([]byte, error) {
	if src, err := fs.ReadFile(scripts, "scripts/"+name); err == nil {
		return src, nil
	}
	src, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("error reading rules script %s: %w", name, err)
	}
	return src, nil
}
