package validator

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"Turnato/models/game"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

//go:embed scripts/*.lua
var scripts embed.FS

// Scripted runs game rules written in Lua. A script defines setup(players) and
// validate(g, seat, move); owns, destination and place are optional.
//
// validate returns nil to reject, or a table {state=..., winner=seat, draw=bool,
// check=bool, continue=bool, next=seat}. Seats are zero-based on both sides.
type Scripted struct {
	name  string
	proto *lua.FunctionProto
}

func NewScripted(name string, src []byte) (*Scripted, error) {
	chunk, err := parse.Parse(bytes.NewReader(src), name)
	if err != nil {
		return nil, fmt.Errorf("error parsing rules script: %w", err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("error compiling rules script: %w", err)
	}
	return &Scripted{name: name, proto: proto}, nil
}

// load returns a fresh interpreter with the script evaluated. LStates are not safe for
// concurrent use, so every call gets its own.
func (s *Scripted) load(ctx context.Context) (*lua.LState, error) {
	L := lua.NewState()
	L.SetContext(ctx)
	L.Push(L.NewFunctionFromProto(s.proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		L.Close()
		return nil, fmt.Errorf("error loading rules script %s: %w", s.name, err)
	}
	return L, nil
}

func (s *Scripted) call(L *lua.LState, fn string, args ...lua.LValue) (lua.LValue, bool, error) {
	f := L.GetGlobal(fn)
	if f.Type() != lua.LTFunction {
		return lua.LNil, false, nil
	}
	if err := L.CallByParam(lua.P{Fn: f, NRet: 1, Protect: true}, args...); err != nil {
		return lua.LNil, true, fmt.Errorf("rules script %s: %s failed: %w", s.name, fn, err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, true, nil
}

func (s *Scripted) Setup(n int) (json.RawMessage, error) {
	L, err := s.load(context.Background())
	if err != nil {
		return nil, err
	}
	defer L.Close()
	ret, ok, err := s.call(L, "setup", lua.LNumber(n))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("rules script %s defines no setup", s.name)
	}
	return json.Marshal(fromLua(ret))
}

func (s *Scripted) Validate(ctx context.Context, g game.State, _ game.Ctx, seat int, descriptor string) (game.Outcome, error) {
	L, err := s.load(ctx)
	if err != nil {
		return game.Outcome{}, err
	}
	defer L.Close()

	gv, err := decodeState(L, g)
	if err != nil {
		return game.Outcome{}, err
	}
	ret, ok, err := s.call(L, "validate", gv, lua.LNumber(seat), lua.LString(descriptor))
	if err != nil {
		return game.Outcome{}, err
	}
	if !ok {
		return game.Outcome{}, fmt.Errorf("rules script %s defines no validate", s.name)
	}
	res, isTable := ret.(*lua.LTable)
	if !isTable {
		return game.Outcome{}, fmt.Errorf("%w: %s", game.ErrInvalidMove, descriptor)
	}

	data, err := json.Marshal(fromLua(res.RawGetString("state")))
	if err != nil {
		return game.Outcome{}, fmt.Errorf("error marshaling script state: %v", err)
	}
	out := game.Outcome{
		State:    game.State{Code: g.Code, Data: data},
		Draw:     lua.LVAsBool(res.RawGetString("draw")),
		Check:    lua.LVAsBool(res.RawGetString("check")),
		Continue: lua.LVAsBool(res.RawGetString("continue")),
	}
	if w, ok := res.RawGetString("winner").(lua.LNumber); ok {
		out.Winner = game.Seat(int(w))
	}
	if n, ok := res.RawGetString("next").(lua.LNumber); ok {
		out.Next = game.Seat(int(n))
	}
	return out, nil
}

func (s *Scripted) Owns(g game.State, _ game.Ctx, seat int, square string) bool {
	ret, err := s.query(g, "owns", lua.LNumber(seat), lua.LString(square))
	return err == nil && lua.LVAsBool(ret)
}

func (s *Scripted) Destination(g game.State, _ game.Ctx, seat int, from, to string) (string, bool) {
	ret, err := s.query(g, "destination", lua.LNumber(seat), lua.LString(from), lua.LString(to))
	if err != nil {
		return "", false
	}
	str, ok := ret.(lua.LString)
	return string(str), ok
}

func (s *Scripted) Place(g game.State, _ game.Ctx, seat int, square string) (string, bool) {
	ret, err := s.query(g, "place", lua.LNumber(seat), lua.LString(square))
	if err != nil {
		return "", false
	}
	str, ok := ret.(lua.LString)
	return string(str), ok
}

// query calls an optional read-only hook with g prepended to args.
func (s *Scripted) query(g game.State, fn string, args ...lua.LValue) (lua.LValue, error) {
	L, err := s.load(context.Background())
	if err != nil {
		return lua.LNil, err
	}
	defer L.Close()
	gv, err := decodeState(L, g)
	if err != nil {
		return lua.LNil, err
	}
	ret, _, err := s.call(L, fn, append([]lua.LValue{gv}, args...)...)
	return ret, err
}

func decodeState(L *lua.LState, g game.State) (lua.LValue, error) {
	var v interface{}
	if len(g.Data) > 0 {
		if err := json.Unmarshal(g.Data, &v); err != nil {
			return lua.LNil, fmt.Errorf("error unmarshaling %s state: %v", g.Code, err)
		}
	}
	return toLua(L, v), nil
}

func toLua(L *lua.LState, v interface{}) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case float64:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	case []interface{}:
		t := L.NewTable()
		for _, e := range x {
			t.Append(toLua(L, e))
		}
		return t
	case map[string]interface{}:
		t := L.NewTable()
		for k, e := range x {
			t.RawSetString(k, toLua(L, e))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(x))
	}
}

// fromLua converts tables with keys 1..n into arrays and everything else into objects.
func fromLua(v lua.LValue) interface{} {
	switch x := v.(type) {
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		return float64(x)
	case lua.LString:
		return string(x)
	case *lua.LTable:
		n := x.MaxN()
		count := 0
		x.ForEach(func(lua.LValue, lua.LValue) { count++ })
		if n > 0 && n == count {
			arr := make([]interface{}, 0, n)
			for i := 1; i <= n; i++ {
				arr = append(arr, fromLua(x.RawGetInt(i)))
			}
			return arr
		}
		obj := make(map[string]interface{}, count)
		x.ForEach(func(k, e lua.LValue) {
			obj[k.String()] = fromLua(e)
		})
		return obj
	default:
		return nil
	}
}
