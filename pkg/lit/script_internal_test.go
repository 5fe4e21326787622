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
	"reflect"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/lassandro/golit/pkg/value"
)

func TestAsserts(t *testing.T) {
	tests := []struct {
		src  string
		want map[int][]string
	}{
		{`  assert(x == 1, "x must be one")`, map[int][]string{1: {"x == 1"}}},
		{`assert(ok)`, map[int][]string{1: {"ok"}}},
		{`assert(add(a, b) == 5, "sum")`, map[int][]string{1: {"add(a, b) == 5"}}},
		{`assert(s == "a,b)", "quoted")`, map[int][]string{1: {`s == "a,b)"`}}},
		{`assert(t[1] ~= ({1, 2})[1])`, map[int][]string{1: {"t[1] ~= ({1, 2})[1]"}}},
		{`if ready then assert(n > 0) end`, map[int][]string{1: {"n > 0"}}},
		{`assert(s == 'it\'s', "escaped")`, map[int][]string{1: {`s == 'it\'s'`}}},
		{
			`assert(a == 1, "a") assert(b == 2, "b")`,
			map[int][]string{1: {"a == 1", "b == 2"}},
		},
		{
			"x = 1\nassert(b ==\n    2, \"b\")",
			map[int][]string{2: {"b == 2"}},
		},
		{`assert(ok) -- assert(hidden)`, map[int][]string{1: {"ok"}}},
		{`t.assert(x) obj:assert(y)`, map[int][]string{}},
		{`local function assert(c) end`, map[int][]string{}},
		{`println("no assertion here")`, map[int][]string{}},
	}

	for _, test := range tests {
		have := lex(test.src).asserts()

		if !reflect.DeepEqual(have, test.want) {
			t.Errorf("asserts(%q)\nwant:%q\nhave:%q", test.src, test.want, have)
		}
	}
}

func TestComment(t *testing.T) {
	src := `println("x -- CHECK: never") -- real
s = [[
-- inside
]]
--[[ block ]]
plain()`

	tests := []struct {
		line int
		want string
		ok   bool
	}{
		{1, " real", true},
		{2, "", false},
		{3, "", false},
		{4, "", false},
		{5, "[[ block ]]", true},
		{6, "", false},
	}

	s := lex(src)

	for _, test := range tests {
		have, ok := s.comment(test.line)

		if have != test.want || ok != test.ok {
			t.Errorf(
				"comment(%d)\nwant:%q %v\nhave:%q %v",
				test.line,
				test.want,
				test.ok,
				have,
				ok,
			)
		}
	}
}

func TestToKind(t *testing.T) {
	tests := []struct {
		kind value.Kind
		in   lua.LValue
		want value.Value
	}{
		{value.KindU8, lua.LNumber(300), value.U8(44)},
		{value.KindI8, lua.LNumber(200), value.I8(-56)},
		{value.KindU16, lua.LNil, value.U16(0)},
		{value.KindChar, lua.LString("xyz"), value.Char('x')},
		{value.KindChar, lua.LNumber(65), value.Char('A')},
		{value.KindF32, lua.LNumber(0.5), value.F32(0.5)},
		{value.KindF64, lua.LNumber(2), value.F64(2)},
		{value.KindText, lua.LNumber(12), value.Text("12")},
		{value.KindText, lua.LNil, value.Text("")},
		{value.KindI32, lua.LTrue, value.I32(1)},
	}

	for _, test := range tests {
		if have := toKind(test.kind, test.in); have != test.want {
			t.Errorf("toKind(%s, %v)\nwant:%v\nhave:%v", test.kind, test.in, test.want, have)
		}
	}
}

func TestToValue(t *testing.T) {
	tests := []struct {
		in   lua.LValue
		want value.Value
	}{
		{lua.LNumber(-3), value.I64(-3)},
		{lua.LNumber(1.25), value.F64(1.25)},
		{lua.LTrue, value.Bool(true)},
		{lua.LString("s"), value.Text("s")},
		{lua.LNil, value.Text("nil")},
	}

	for _, test := range tests {
		if have := toValue(test.in); have != test.want {
			t.Errorf("toValue(%v)\nwant:%v\nhave:%v", test.in, test.want, have)
		}
	}
}
