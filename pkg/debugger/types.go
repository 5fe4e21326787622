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

package debugger

import (
	"io"
	"sync/atomic"

	"github.com/lassandro/golit/pkg/machine"
	"github.com/lassandro/golit/pkg/value"
)

type WatchpointType uint

const (
	ReadWatch WatchpointType = iota + 1
	WriteWatch
	ReadWriteWatch
)

// Watchpoint stops the target when it touches Addr.
type Watchpoint struct {
	Addr uint16
	Type WatchpointType
}

// DataType says how the bytes under a Watch are read.
type DataType struct {
	Kind           value.Kind
	NullTerminated bool
}

// IORegister is one of the three registers of a GPIO port.
type IORegister uint8

const (
	IOPort IORegister = iota + 1
	IOPin
	IODDR
)

// Watch is a value the simulator reports without stopping the target. It
// names either a symbol, a raw data space address or a GPIO register.
type Watch struct {
	Symbol string
	Addr   uint16
	Type   DataType

	// GPIO watches read register IO of port Port, or only bit Bit of it
	// when Bit is not negative.
	IO   IORegister
	Port byte
	Bit  int8
}

type Debugger struct {
	// Set from outside the target, e.g. on SIGINT, to stop at the next bus
	// access.
	Break atomic.Bool

	Watchpoints []Watchpoint

	Before   []Watch
	OnChange []Watch
	After    []Watch

	// Destination of watch reports; it should share the display stream so
	// reports interleave with program output.
	Out io.Writer

	HandleBreak func(*Debugger, *machine.Machine)
	HandleRead  func(uint16, *Debugger, *machine.Machine)
	HandleWrite func(uint16, *Debugger, *machine.Machine)

	prior map[int]string
}
