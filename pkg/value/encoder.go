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

package value

import (
	"errors"
	"math"
	"strconv"
)

const (
	BufferSize = 256

	// Decimal places for floating point output.
	FloatPrecision = 6
)

var ErrOverflow = errors.New("value: rendering exceeds encoder buffer")

// Sender is the byte sink an Encoder emits to.
type Sender interface {
	Send(b byte)
}

// Encoder renders one value at a time into a fixed buffer. The slice returned
// by Encode is only valid until the next call.
type Encoder struct {
	buf [BufferSize]byte
}

func (e *Encoder) Encode(v Value) []byte {
	out := e.buf[:0]

	switch {
	case v.kind.Signed():
		out = strconv.AppendInt(out, int64(v.bits), 10)

	case v.kind.Unsigned():
		out = strconv.AppendUint(out, v.bits, 10)

	case v.kind == KindBool:
		if v.bits != 0 {
			out = append(out, "true"...)
		} else {
			out = append(out, "false"...)
		}

	case v.kind == KindChar:
		out = append(out, byte(v.bits))

	case v.kind.Float():
		// Doubles are narrowed; the target has no double-precision math.
		f := float32(v.Float())
		if math.IsInf(float64(f), 0) || math.IsNaN(float64(f)) {
			out = strconv.AppendFloat(out, float64(f), 'f', -1, 32)
		} else {
			out = strconv.AppendFloat(out, float64(f), 'f', FloatPrecision, 32)
		}

	case v.kind == KindText:
		n := len(v.text)
		for i := 0; i < n; i++ {
			if v.text[i] == 0 {
				n = i
				break
			}
		}

		if n > BufferSize {
			panic(ErrOverflow)
		}

		out = append(out, v.text[:n]...)

	default:
		panic("value: encode of invalid kind")
	}

	if cap(out) != BufferSize {
		// append moved to the heap, the buffer was too small.
		panic(ErrOverflow)
	}

	return out
}

// Emit encodes v and sends it byte by byte.
func (e *Encoder) Emit(tx Sender, v Value) {
	for _, b := range e.Encode(v) {
		tx.Send(b)
	}
}
