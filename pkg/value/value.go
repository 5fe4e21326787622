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

// Package value holds the closed set of primitive kinds the harness can
// render, and the encoder that turns them into text.
package value

import (
	"math"
)

type Kind uint8

const (
	KindInvalid Kind = iota
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindBool
	KindChar
	KindF32
	KindF64
	KindText
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindI8:      "i8",
	KindI16:     "i16",
	KindI32:     "i32",
	KindI64:     "i64",
	KindU8:      "u8",
	KindU16:     "u16",
	KindU32:     "u32",
	KindU64:     "u64",
	KindBool:    "bool",
	KindChar:    "char",
	KindF32:     "f32",
	KindF64:     "f64",
	KindText:    "text",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "invalid"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s && Kind(k) != KindInvalid {
			return Kind(k), true
		}
	}

	return KindInvalid, false
}

// Size is the width of k in target memory; zero for text.
func (k Kind) Size() int {
	switch k {
	case KindI8, KindU8, KindBool, KindChar:
		return 1
	case KindI16, KindU16:
		return 2
	case KindI32, KindU32, KindF32:
		return 4
	case KindI64, KindU64, KindF64:
		return 8
	}

	return 0
}

func (k Kind) Signed() bool {
	return k >= KindI8 && k <= KindI64
}

func (k Kind) Unsigned() bool {
	return k >= KindU8 && k <= KindU64
}

func (k Kind) Float() bool {
	return k == KindF32 || k == KindF64
}

// Value is one primitive of a known kind. Integers are stored sign- or
// zero-extended in bits, floats as their IEEE bit pattern.
type Value struct {
	kind Kind
	bits uint64
	text string
}

func I8(v int8) Value   { return Value{kind: KindI8, bits: uint64(int64(v))} }
func I16(v int16) Value { return Value{kind: KindI16, bits: uint64(int64(v))} }
func I32(v int32) Value { return Value{kind: KindI32, bits: uint64(int64(v))} }
func I64(v int64) Value { return Value{kind: KindI64, bits: uint64(v)} }

func U8(v uint8) Value   { return Value{kind: KindU8, bits: uint64(v)} }
func U16(v uint16) Value { return Value{kind: KindU16, bits: uint64(v)} }
func U32(v uint32) Value { return Value{kind: KindU32, bits: uint64(v)} }
func U64(v uint64) Value { return Value{kind: KindU64, bits: v} }

func Bool(v bool) Value {
	if v {
		return Value{kind: KindBool, bits: 1}
	}

	return Value{kind: KindBool}
}

func Char(c byte) Value   { return Value{kind: KindChar, bits: uint64(c)} }
func F32(v float32) Value { return Value{kind: KindF32, bits: uint64(math.Float32bits(v))} }
func F64(v float64) Value { return Value{kind: KindF64, bits: math.Float64bits(v)} }
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Of converts an integer of any width to a value of kind k, truncating as a
// C cast would. Floats, booleans and chars are accepted too.
func Of(k Kind, n int64) Value {
	switch k {
	case KindI8:
		return I8(int8(n))
	case KindI16:
		return I16(int16(n))
	case KindI32:
		return I32(int32(n))
	case KindI64:
		return I64(n)
	case KindU8:
		return U8(uint8(n))
	case KindU16:
		return U16(uint16(n))
	case KindU32:
		return U32(uint32(n))
	case KindU64:
		return U64(uint64(n))
	case KindBool:
		return Bool(n != 0)
	case KindChar:
		return Char(byte(n))
	case KindF32:
		return F32(float32(n))
	case KindF64:
		return F64(float64(n))
	}

	return Value{}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) Int() int64 {
	switch {
	case v.kind.Float():
		return int64(v.Float())
	case v.kind == KindText:
		return 0
	}

	return int64(v.bits)
}

func (v Value) Uint() uint64 {
	if v.kind.Float() {
		return uint64(v.Float())
	}

	return v.bits
}

func (v Value) Float() float64 {
	switch v.kind {
	case KindF32:
		return float64(math.Float32frombits(uint32(v.bits)))
	case KindF64:
		return math.Float64frombits(v.bits)
	}

	if v.kind.Signed() {
		return float64(int64(v.bits))
	}

	return float64(v.bits)
}

func (v Value) Bool() bool {
	return v.bits != 0 || v.text != ""
}

func (v Value) Text() string {
	return v.text
}

// Bytes is the little-endian image of v as it would sit in target memory.
// Text is NUL terminated.
func (v Value) Bytes() []byte {
	if v.kind == KindText {
		return append([]byte(v.text), 0)
	}

	size := v.kind.Size()
	result := make([]byte, size)

	for i := 0; i < size; i++ {
		result[i] = byte(v.bits >> (8 * i))
	}

	return result
}

// FromBytes reads a value of kind k from its little-endian image. Text stops
// at the first NUL.
func FromBytes(k Kind, data []byte) Value {
	if k == KindText {
		for i, b := range data {
			if b == 0 {
				return Text(string(data[:i]))
			}
		}

		return Text(string(data))
	}

	var bits uint64

	for i := 0; i < k.Size() && i < len(data); i++ {
		bits |= uint64(data[i]) << (8 * i)
	}

	switch k {
	case KindI8:
		return I8(int8(bits))
	case KindI16:
		return I16(int16(bits))
	case KindI32:
		return I32(int32(bits))
	case KindF32:
		return Value{kind: k, bits: bits & 0xFFFFFFFF}
	}

	return Value{kind: k, bits: bits}
}
