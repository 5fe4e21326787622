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

package value_test

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/lassandro/golit/pkg/value"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		in   value.Value
		want string
	}{
		{"i8 min", value.I8(math.MinInt8), "-128"},
		{"i16", value.I16(-1234), "-1234"},
		{"i32", value.I32(2147483647), "2147483647"},
		{"i64 min", value.I64(math.MinInt64), "-9223372036854775808"},
		{"u8 max", value.U8(255), "255"},
		{"u16", value.U16(65535), "65535"},
		{"u32", value.U32(4294967295), "4294967295"},
		{"u64 max", value.U64(math.MaxUint64), "18446744073709551615"},
		{"zero", value.I32(0), "0"},
		{"true", value.Bool(true), "true"},
		{"false", value.Bool(false), "false"},
		{"char", value.Char('A'), "A"},
		{"f32", value.F32(1.5), "1.500000"},
		{"f32 negative", value.F32(-0.25), "-0.250000"},
		{"f64 narrowed", value.F64(16777217), "16777216.000000"},
		{"f64 rounded", value.F64(3.14159265), "3.141593"},
		{"f32 inf", value.F32(float32(math.Inf(1))), "+Inf"},
		{"f64 nan", value.F64(math.NaN()), "NaN"},
		{"text", value.Text("hello"), "hello"},
		{"text stops at nul", value.Text("ab\x00cd"), "ab"},
		{"text empty", value.Text(""), ""},
	}

	var enc value.Encoder

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if have := string(enc.Encode(test.in)); have != test.want {
				t.Errorf("Encode mismatch\nwant:%q\nhave:%q", test.want, have)
			}
		})
	}
}

func TestEncodeIntegers(t *testing.T) {
	signed := []struct {
		kind     value.Kind
		min, max int64
	}{
		{value.KindI8, math.MinInt8, math.MaxInt8},
		{value.KindI16, math.MinInt16, math.MaxInt16},
		{value.KindI32, math.MinInt32, math.MaxInt32},
		{value.KindI64, math.MinInt64, math.MaxInt64},
	}

	unsigned := []struct {
		kind value.Kind
		max  uint64
		of   func(uint64) value.Value
	}{
		{value.KindU8, math.MaxUint8, func(n uint64) value.Value { return value.U8(uint8(n)) }},
		{value.KindU16, math.MaxUint16, func(n uint64) value.Value { return value.U16(uint16(n)) }},
		{value.KindU32, math.MaxUint32, func(n uint64) value.Value { return value.U32(uint32(n)) }},
		{value.KindU64, math.MaxUint64, value.U64},
	}

	var enc value.Encoder

	for _, test := range signed {
		for _, n := range []int64{test.min, test.min + 1, -1, 0, 1, test.max - 1, test.max} {
			have := string(enc.Encode(value.Of(test.kind, n)))
			parsed, err := strconv.ParseInt(have, 10, test.kind.Size()*8)

			if err != nil || parsed != n {
				t.Errorf("%s round trip\nwant:%d\nhave:%q (%v)", test.kind, n, have, err)
			}
		}
	}

	for _, test := range unsigned {
		for _, n := range []uint64{0, 1, test.max - 1, test.max} {
			have := string(enc.Encode(test.of(n)))
			parsed, err := strconv.ParseUint(have, 10, test.kind.Size()*8)

			if err != nil || parsed != n {
				t.Errorf("%s round trip\nwant:%d\nhave:%q (%v)", test.kind, n, have, err)
			}
		}
	}
}

func TestEncodeOverflow(t *testing.T) {
	var enc value.Encoder

	if have := enc.Encode(value.Text(strings.Repeat("x", value.BufferSize))); len(have) != value.BufferSize {
		t.Errorf("Full buffer\nwant:%d bytes\nhave:%d bytes", value.BufferSize, len(have))
	}

	defer func() {
		r := recover()
		err, ok := r.(error)

		if !ok || !errors.Is(err, value.ErrOverflow) {
			t.Errorf("Overflow\nwant:%v\nhave:%v", value.ErrOverflow, r)
		}
	}()

	enc.Encode(value.Text(strings.Repeat("x", value.BufferSize+1)))
}

type recorder []byte

func (r *recorder) Send(b byte) {
	*r = append(*r, b)
}

func TestEmit(t *testing.T) {
	var enc value.Encoder
	var out recorder

	enc.Emit(&out, value.I16(-42))
	enc.Emit(&out, value.Char(' '))
	enc.Emit(&out, value.U8(7))

	if have := string(out); have != "-42 7" {
		t.Errorf("Emit mismatch\nwant:%q\nhave:%q", "-42 7", have)
	}
}

func TestBytes(t *testing.T) {
	tests := []struct {
		name string
		in   value.Value
		want []byte
	}{
		{"i16", value.I16(-2), []byte{0xFE, 0xFF}},
		{"u32", value.U32(0xDEADBEEF), []byte{0xEF, 0xBE, 0xAD, 0xDE}},
		{"bool", value.Bool(true), []byte{0x01}},
		{"text", value.Text("hi"), []byte{'h', 'i', 0x00}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			have := test.in.Bytes()

			if string(have) != string(test.want) {
				t.Errorf("Bytes mismatch\nwant:% x\nhave:% x", test.want, have)
			}

			back := value.FromBytes(test.in.Kind(), have)

			if back != test.in {
				t.Errorf("FromBytes mismatch\nwant:%v\nhave:%v", test.in, back)
			}
		})
	}
}

func TestOf(t *testing.T) {
	tests := []struct {
		name string
		kind value.Kind
		in   int64
		want string
	}{
		{"u8 wraps", value.KindU8, 256 + 5, "5"},
		{"i8 wraps", value.KindI8, 255, "-1"},
		{"u16 of negative", value.KindU16, -1, "65535"},
		{"bool", value.KindBool, 2, "true"},
		{"char", value.KindChar, 'z', "z"},
		{"f32", value.KindF32, 3, "3.000000"},
	}

	var enc value.Encoder

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if have := string(enc.Encode(value.Of(test.kind, test.in))); have != test.want {
				t.Errorf("Of mismatch\nwant:%q\nhave:%q", test.want, have)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"i8", "u64", "char", "f32", "text", "bool"} {
		kind, ok := value.ParseKind(name)

		if !ok || kind.String() != name {
			t.Errorf("ParseKind(%q)\nwant:%s\nhave:%s (%v)", name, name, kind, ok)
		}
	}

	if _, ok := value.ParseKind("invalid"); ok {
		t.Error("ParseKind accepted the invalid kind")
	}

	if _, ok := value.ParseKind("int"); ok {
		t.Error("ParseKind accepted an unknown name")
	}
}
