package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed games.yaml
var defaultCatalog []byte

const (
	RoundRobin = "round-robin"
	// ByValidator lets the validator pick the next player through Outcome.Next.
	ByValidator = "validator"
)

// Game is one catalog entry. The core treats it as read-only configuration.
type Game struct {
	Code        string   `yaml:"code" json:"code"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	MinPlayers  int      `yaml:"minPlayers" json:"minPlayers"`
	MaxPlayers  int      `yaml:"maxPlayers" json:"maxPlayers"`
	TurnOrder   string   `yaml:"turnOrder" json:"turnOrder"`
	Sides       []string `yaml:"sides" json:"sides"`
	Rules       string   `yaml:"rules" json:"-"`
	Script      string   `yaml:"script" json:"-"`
}

// RequiredPlayers is the down-vote count at which a match is spawned.
func (g Game) RequiredPlayers() int {
	return g.MaxPlayers
}

// Side returns the display name of a seat, falling back to "Player N".
func (g Game) Side(seat int) string {
	if seat >= 0 && seat < len(g.Sides) {
		return g.Sides[seat]
	}
	return fmt.Sprintf("Player %d", seat+1)
}

type Catalog struct {
	games map[string]Game
}

type file struct {
	Games []Game `yaml:"games"`
}

// Parse reads a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("error parsing game catalog: %w", err)
	}
	c := &Catalog{games: make(map[string]Game, len(f.Games))}
	for _, g := range f.Games {
		if g.Code == "" {
			return nil, fmt.Errorf("game catalog entry without code")
		}
		if g.MinPlayers < 1 || g.MaxPlayers < g.MinPlayers {
			return nil, fmt.Errorf("game %s: invalid player counts %d..%d", g.Code, g.MinPlayers, g.MaxPlayers)
		}
		if g.TurnOrder == "" {
			g.TurnOrder = RoundRobin
		}
		if g.TurnOrder != RoundRobin && g.TurnOrder != ByValidator {
			return nil, fmt.Errorf("game %s: unknown turn order %q", g.Code, g.TurnOrder)
		}
		if _, dup := c.games[g.Code]; dup {
			return nil, fmt.Errorf("game %s listed twice", g.Code)
		}
		c.games[g.Code] = g
	}
	return c, nil
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads the catalog at path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading game catalog: %w", err)
	}
	return Parse(data)
}

func (c *Catalog) Get(code string) (Game, bool) {
	g, ok := c.games[code]
	return g, ok
}

// All lists the games ordered by code.
func (c *Catalog) All() []Game {
	out := make([]Game, 0, len(c.games))
	for _, g := range c.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
