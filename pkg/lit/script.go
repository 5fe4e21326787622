// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package lit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/lassandro/golit/pkg/check"
	"github.com/lassandro/golit/pkg/harness"
	"github.com/lassandro/golit/pkg/machine"
	"github.com/lassandro/golit/pkg/value"
)

const entryPoint = "run_test"

var ErrNoEntryPoint = errors.New("script does not define " + entryPoint)

// Script is a test program written in Lua. It defines a global run_test
// function, the entry point the harness calls.
type Script struct {
	Name       string
	Source     string
	Directives Directives

	lines   []string
	asserts map[int][]string
}

func ParseScript(name, src string) (*Script, error) {
	d, err := ParseDirectives(src)

	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return &Script{
		Name:       name,
		Source:     src,
		Directives: d,
		lines:      strings.Split(src, "\n"),
		asserts:    lex(src).asserts(),
	}, nil
}

func LoadScript(path string) (*Script, error) {
	src, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	src = bytes.TrimPrefix(src, []byte("\xEF\xBB\xBF"))
	return ParseScript(filepath.Base(path), string(src))
}

// Line returns source line n, counting from one.
func (s *Script) Line(n int) string {
	if n < 1 || n > len(s.lines) {
		return ""
	}

	return s.lines[n-1]
}

// Program is a script loaded into a Lua state and bound to a machine. The
// script's top level runs at load time, the way static initialisers run
// before main; run_test runs on the target.
type Program struct {
	script *Script
	mc     *machine.Machine
	L      *lua.LState
	boot   *lua.LFunction
	kinds  map[string]value.Kind
	hits   map[int]int
	t      *harness.T
}

func (s *Script) Load(mc *machine.Machine) (*Program, error) {
	prog := &Program{
		script: s,
		mc:     mc,
		L:      lua.NewState(),
		kinds:  make(map[string]value.Kind),
		hits:   make(map[int]int),
	}

	prog.register()

	chunk, err := prog.L.Load(strings.NewReader(s.Source), s.Name)

	if err != nil {
		prog.Close()
		return nil, err
	}

	prog.L.Push(chunk)

	if err := prog.L.PCall(0, 0, nil); err != nil {
		prog.Close()
		return nil, err
	}

	if prog.L.GetGlobal(entryPoint).Type() != lua.LTFunction {
		prog.Close()
		return nil, fmt.Errorf("%s: %w", s.Name, ErrNoEntryPoint)
	}

	// Calling through a Lua chunk gives run_test a caller, so debug info
	// can name it.
	prog.boot, err = prog.L.Load(strings.NewReader(entryPoint+"()"), "=boot")

	if err != nil {
		prog.Close()
		return nil, err
	}

	return prog, nil
}

func (prog *Program) Close() {
	prog.L.Close()
}

// Run boots the program on its machine.
func (prog *Program) Run(ctx context.Context, opts harness.Options) machine.Status {
	if ctx == nil {
		ctx = context.Background()
	}

	prog.L.SetContext(ctx)

	return harness.Run(ctx, prog.mc, opts, func(t *harness.T) {
		prog.t = t
		prog.L.Push(prog.boot)
		prog.L.Call(0, 0)
	})
}

func (prog *Program) register() {
	L := prog.L

	functions := map[string]lua.LGFunction{
		"print":   prog.luaPrint,
		"println": prog.luaPrintln,
		"call":    prog.luaCall,
		"eval":    prog.luaEval,
		"assert":  prog.luaAssert,
		"fail":    prog.luaFail,
		"receive": prog.luaReceive,
		"define":  prog.luaDefine,
		"store":   prog.luaStore,
		"load":    prog.luaLoad,
	}

	for name, fn := range functions {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	for _, kind := range []value.Kind{
		value.KindI8, value.KindI16, value.KindI32, value.KindI64,
		value.KindU8, value.KindU16, value.KindU32, value.KindU64,
		value.KindChar, value.KindF32, value.KindF64,
	} {
		kind := kind
		L.SetGlobal(kind.String(), L.NewFunction(func(L *lua.LState) int {
			L.Push(prog.wrap(toKind(kind, L.CheckAny(1))))
			return 1
		}))
	}
}

// target returns the running harness, raising a Lua error when called from
// the script's top level.
func (prog *Program) target(L *lua.LState) *harness.T {
	if prog.t == nil {
		L.RaiseError("%s only available inside %s", L.Where(1), entryPoint)
	}

	return prog.t
}

func (prog *Program) wrap(v value.Value) *lua.LUserData {
	ud := prog.L.NewUserData()
	ud.Value = v
	return ud
}

func (prog *Program) args(L *lua.LState, from int) []value.Value {
	top := L.GetTop()
	vs := make([]value.Value, 0, top)

	for i := from; i <= top; i++ {
		vs = append(vs, toValue(L.Get(i)))
	}

	return vs
}

func (prog *Program) luaPrint(L *lua.LState) int {
	prog.target(L).Print(prog.args(L, 1)...)
	return 0
}

func (prog *Program) luaPrintln(L *lua.LState) int {
	prog.target(L).Println(prog.args(L, 1)...)
	return 0
}

// call(name, fn, ...) prints "name(args) = result".
func (prog *Program) luaCall(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)

	prog.target(L).PrintCall(name, func(args ...value.Value) value.Value {
		params := make([]lua.LValue, len(args))
		for i, arg := range args {
			params[i] = toLua(arg)
		}

		L.CallByParam(lua.P{Fn: fn, NRet: 1}, params...)

		result := L.Get(-1)
		L.Pop(1)
		return toValue(result)
	}, prog.args(L, 3)...)

	return 0
}

// eval(expr) prints "expr = value", expr being evaluated where eval is
// called: the caller's locals and upvalues first, then its environment.
func (prog *Program) luaEval(L *lua.LState) int {
	expr := L.CheckString(1)
	fn, err := L.LoadString("return " + expr)

	if err != nil {
		L.RaiseError("eval: %v", err)
	}

	if dbg, _, ok := luaFrame(L); ok {
		L.SetFEnv(fn, scope(L, dbg))
	}

	L.CallByParam(lua.P{Fn: fn, NRet: 1})

	result := L.Get(-1)
	L.Pop(1)

	prog.target(L).Eval(expr, toValue(result))
	return 0
}

// assert(cond, message) takes its site and expression text from the caller.
func (prog *Program) luaAssert(L *lua.LState) int {
	t := prog.target(L)
	cond := lua.LVAsBool(L.Get(1))
	message := L.OptString(2, "")

	site, direct := prog.caller(L)
	expr := "?"

	if direct {
		expr = prog.assertion(site.Line)
	}

	if !cond {
		t.AssertAt(site, false, expr, message)
	}

	return 0
}

// assertion returns the condition text of the assert running on line n.
// Asserts sharing a line are told apart by counting their calls.
func (prog *Program) assertion(n int) string {
	exprs := prog.script.asserts[n]

	if len(exprs) == 0 {
		return "?"
	}

	i := prog.hits[n] % len(exprs)
	prog.hits[n]++

	return exprs[i]
}

func (prog *Program) luaFail(L *lua.LState) int {
	prog.target(L).Error(prog.args(L, 1)...)
	return 0
}

func (prog *Program) luaReceive(L *lua.LState) int {
	L.Push(lua.LNumber(prog.target(L).Receive()))
	return 1
}

// define(name, kind, initial[, size]) places a global in target memory.
func (prog *Program) luaDefine(L *lua.LState) int {
	name := L.CheckString(1)
	kind, ok := value.ParseKind(L.CheckString(2))

	if !ok || kind == value.KindBool {
		L.ArgError(2, "unknown kind")
	}

	initial := toKind(kind, L.Get(3))
	size := kind.Size()

	if kind == value.KindText {
		size = L.OptInt(4, len(initial.Text())+1)
	}

	sym, err := prog.mc.Alloc(name, uint16(size))

	if err != nil {
		L.RaiseError("define: %v", err)
	}

	prog.kinds[name] = kind
	prog.write(L, sym, initial)
	return 0
}

func (prog *Program) symbol(L *lua.LState) (machine.Symbol, value.Kind) {
	name := L.CheckString(1)
	sym, err := prog.mc.Symbol(name)

	if err != nil {
		L.RaiseError("%v", err)
	}

	return sym, prog.kinds[name]
}

func (prog *Program) luaStore(L *lua.LState) int {
	sym, kind := prog.symbol(L)
	prog.write(L, sym, toKind(kind, L.CheckAny(2)))
	return 0
}

func (prog *Program) luaLoad(L *lua.LState) int {
	sym, kind := prog.symbol(L)
	data := make([]byte, sym.Size)

	for i := range data {
		if prog.mc.Running() {
			data[i] = prog.mc.Load(sym.Addr + uint16(i))
		} else {
			data[i] = prog.mc.State.Memory[sym.Addr+uint16(i)]
		}
	}

	L.Push(toLua(value.FromBytes(kind, data)))
	return 1
}

func (prog *Program) write(L *lua.LState, sym machine.Symbol, v value.Value) {
	data := v.Bytes()

	if len(data) > int(sym.Size) {
		data = data[:sym.Size]
		if v.Kind() == value.KindText {
			data[len(data)-1] = 0
		}
	}

	if prog.mc.Running() {
		prog.mc.StoreBlock(sym.Addr, data)
		return
	}

	if err := prog.mc.Poke(sym.Addr, data); err != nil {
		L.RaiseError("%v", err)
	}
}

// luaFrame finds the innermost Lua function on the stack above the running
// Go function, and its level.
func luaFrame(L *lua.LState) (*lua.Debug, int, bool) {
	for level := 1; level <= lua.CallStackSize; level++ {
		dbg, ok := L.GetStack(level)

		if !ok {
			return nil, 0, false
		}

		if _, err := L.GetInfo("Sl", dbg, lua.LNil); err != nil {
			return nil, 0, false
		}

		if dbg.What != "G" && dbg.CurrentLine > 0 {
			return dbg, level, true
		}
	}

	return nil, 0, false
}

// caller is the site of the Lua function calling the current Go function,
// and whether it called directly rather than through pcall or similar.
func (prog *Program) caller(L *lua.LState) (check.Site, bool) {
	site := check.Site{File: prog.script.Name, Func: "?"}
	dbg, level, ok := luaFrame(L)

	if !ok {
		return site, false
	}

	if _, err := L.GetInfo("n", dbg, lua.LNil); err == nil && dbg.Name != "" {
		site.Func = dbg.Name
	}

	if dbg.Source != "" {
		site.File = dbg.Source
	}

	site.Line = dbg.CurrentLine
	return site, level == 1
}

// scope builds an environment holding the locals and upvalues visible in
// the frame dbg, falling back to the frame's own environment.
func scope(L *lua.LState, dbg *lua.Debug) *lua.LTable {
	env := L.NewTable()
	meta := L.NewTable()
	fn, _ := L.GetInfo("f", dbg, lua.LNil)

	if f, ok := fn.(*lua.LFunction); ok {
		meta.RawSetString("__index", f.Env)

		for i := 1; ; i++ {
			name, v := L.GetUpvalue(f, i)

			if name == "" {
				break
			}

			env.RawSetString(name, v)
		}
	} else {
		meta.RawSetString("__index", L.G.Global)
	}

	for i := 1; ; i++ {
		name, v := L.GetLocal(dbg, i)

		if name == "" {
			break
		}

		if !strings.HasPrefix(name, "(") {
			env.RawSetString(name, v)
		}
	}

	L.SetMetatable(env, meta)
	return env
}

// toValue maps a Lua value onto the closest kind: integral numbers are i64,
// other numbers f64.
func toValue(lv lua.LValue) value.Value {
	switch v := lv.(type) {
	case *lua.LUserData:
		if wrapped, ok := v.Value.(value.Value); ok {
			return wrapped
		}

	case lua.LBool:
		return value.Bool(bool(v))

	case lua.LNumber:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
			return value.I64(int64(f))
		}

		return value.F64(f)

	case lua.LString:
		return value.Text(string(v))
	}

	return value.Text(lv.String())
}

// toKind converts lv to a value of kind k.
func toKind(k value.Kind, lv lua.LValue) value.Value {
	if lv == lua.LNil {
		if k == value.KindText {
			return value.Text("")
		}

		return value.Of(k, 0)
	}

	v := toValue(lv)

	switch {
	case k == value.KindText:
		if v.Kind() == value.KindText {
			return v
		}

		var enc value.Encoder
		return value.Text(string(enc.Encode(v)))

	case k == value.KindChar && v.Kind() == value.KindText:
		if len(v.Text()) == 0 {
			return value.Char(0)
		}

		return value.Char(v.Text()[0])

	case k == value.KindF32:
		return value.F32(float32(v.Float()))

	case k == value.KindF64:
		return value.F64(v.Float())

	case k.Unsigned() && v.Kind().Unsigned():
		return value.Of(k, int64(v.Uint()))
	}

	return value.Of(k, v.Int())
}

func toLua(v value.Value) lua.LValue {
	switch {
	case v.Kind() == value.KindText:
		return lua.LString(v.Text())
	case v.Kind() == value.KindBool:
		return lua.LBool(v.Bool())
	case v.Kind() == value.KindChar:
		return lua.LString(string([]byte{byte(v.Uint())}))
	case v.Kind().Signed():
		return lua.LNumber(float64(v.Int()))
	}

	return lua.LNumber(v.Float())
}
