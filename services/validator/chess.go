package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"Turnato/models/game"

	"github.com/notnil/chess"
)

// Chess validates standard chess. Seat 0 plays white.
//
// The payload keeps the UCI move list as the source of truth and a PGN-style move text
// for display; every call replays the list on a fresh game.
type Chess struct{}

type chessState struct {
	PGN string   `json:"pgn"`
	UCI []string `json:"uci"`
}

func (Chess) Setup(n int) (json.RawMessage, error) {
	if n != 2 {
		return nil, fmt.Errorf("chess needs 2 players, got %d", n)
	}
	return json.Marshal(chessState{PGN: "", UCI: []string{}})
}

func (c Chess) Validate(ctx context.Context, g game.State, _ game.Ctx, seat int, descriptor string) (game.Outcome, error) {
	cg, st, err := replay(g)
	if err != nil {
		return game.Outcome{}, err
	}
	if cg.Outcome() != chess.NoOutcome {
		return game.Outcome{}, fmt.Errorf("%w: game already decided", game.ErrInvalidMove)
	}
	if colorOf(seat) != cg.Position().Turn() {
		return game.Outcome{}, fmt.Errorf("%w: not %s to move", game.ErrInvalidMove, colorOf(seat).Name())
	}
	if err := ctx.Err(); err != nil {
		return game.Outcome{}, err
	}

	m, err := decodeMove(cg.Position(), strings.TrimSpace(descriptor))
	if err != nil {
		return game.Outcome{}, fmt.Errorf("%w: %v", game.ErrInvalidMove, err)
	}
	uci := chess.UCINotation{}.Encode(cg.Position(), m)
	if err := cg.Move(m); err != nil {
		return game.Outcome{}, fmt.Errorf("%w: %v", game.ErrInvalidMove, err)
	}
	st.UCI = append(st.UCI, uci)
	st.PGN = moveText(st.UCI)

	data, err := json.Marshal(st)
	if err != nil {
		return game.Outcome{}, fmt.Errorf("error marshaling chess state: %v", err)
	}
	out := game.Outcome{State: game.State{Code: g.Code, Data: data}}
	switch cg.Outcome() {
	case chess.WhiteWon:
		out.Winner = game.Seat(0)
	case chess.BlackWon:
		out.Winner = game.Seat(1)
	case chess.Draw:
		out.Draw = true
	default:
		moves := cg.Moves()
		out.Check = len(moves) > 0 && moves[len(moves)-1].HasTag(chess.Check)
	}
	return out, nil
}

func (Chess) Owns(g game.State, _ game.Ctx, seat int, square string) bool {
	cg, _, err := replay(g)
	if err != nil || cg.Outcome() != chess.NoOutcome {
		return false
	}
	pos := cg.Position()
	if pos.Turn() != colorOf(seat) {
		return false
	}
	for sq, p := range pos.Board().SquareMap() {
		if sq.String() == square {
			return p.Color() == colorOf(seat)
		}
	}
	return false
}

func (Chess) Destination(g game.State, _ game.Ctx, seat int, from, to string) (string, bool) {
	cg, _, err := replay(g)
	if err != nil || cg.Position().Turn() != colorOf(seat) {
		return "", false
	}
	pos := cg.Position()
	var found *chess.Move
	for _, m := range cg.ValidMoves() {
		if m.S1().String() != from || m.S2().String() != to {
			continue
		}
		// Bare promotions default to a queen.
		if found == nil || m.Promo() == chess.Queen {
			found = m
		}
	}
	if found == nil {
		return "", false
	}
	return chess.AlgebraicNotation{}.Encode(pos, found), true
}

func colorOf(seat int) chess.Color {
	if seat == 0 {
		return chess.White
	}
	return chess.Black
}

func decodeMove(pos *chess.Position, s string) (*chess.Move, error) {
	if m, err := (chess.AlgebraicNotation{}).Decode(pos, s); err == nil {
		return m, nil
	}
	return chess.UCINotation{}.Decode(pos, strings.ToLower(s))
}

// replay rebuilds the game from its UCI list.
func replay(g game.State) (*chess.Game, chessState, error) {
	var st chessState
	if len(g.Data) > 0 {
		if err := json.Unmarshal(g.Data, &st); err != nil {
			return nil, st, fmt.Errorf("error unmarshaling chess state: %v", err)
		}
	}
	cg := chess.NewGame()
	for _, uci := range st.UCI {
		m, err := chess.UCINotation{}.Decode(cg.Position(), uci)
		if err == nil {
			err = cg.Move(m)
		}
		if err != nil {
			return nil, st, fmt.Errorf("corrupt chess state at %s: %v", uci, err)
		}
	}
	return cg, st, nil
}

// moveText renders "1.f4 e5 2.g4 Qh4#" from a UCI list.
func moveText(ucis []string) string {
	tmp := chess.NewGame()
	var sb strings.Builder
	for i, uci := range ucis {
		m, err := chess.UCINotation{}.Decode(tmp.Position(), uci)
		if err != nil {
			break
		}
		san := chess.AlgebraicNotation{}.Encode(tmp.Position(), m)
		if i > 0 {
			sb.WriteByte(' ')
		}
		if i%2 == 0 {
			fmt.Fprintf(&sb, "%d.", i/2+1)
		}
		sb.WriteString(san)
		if err := tmp.Move(m); err != nil {
			break
		}
	}
	return sb.String()
}
