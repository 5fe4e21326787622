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

package machine

import (
	"bufio"
	"context"
	"sync"
)

// Status is the run state of a target. Every status other than
// StatusRunning is terminal.
type Status uint8

const (
	StatusRunning Status = iota
	StatusHalted
	StatusAborted
	StatusFaulted
	StatusCrashed
	StatusExpired
	StatusReturned
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusHalted:
		return "halted"
	case StatusAborted:
		return "aborted"
	case StatusFaulted:
		return "faulted"
	case StatusCrashed:
		return "crashed"
	case StatusExpired:
		return "expired"
	case StatusReturned:
		return "returned"
	}

	return "unknown"
}

// DeviceHandler connects the USART to the host. Display receives every byte
// the target transmits; Keyboard supplies bytes the target receives.
type DeviceHandler struct {
	Keyboard *bufio.Reader
	Display  *bufio.Writer

	rx     chan byte
	rxErr  error
	rxOnce sync.Once
}

type Symbol struct {
	Name string
	Addr uint16
	Size uint16
}

type MachineState struct {
	Memory [MEMSPACE_END]byte

	Status Status
	Reason string
	Fault  uint16
	Cycles uint64

	// Receive side of UDR0, held apart from Memory because the same address
	// is the transmit register.
	RxData    byte
	RxPending bool
}

type MachineDebugger interface {
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
	Sleep(mc *Machine)
}

type Machine struct {
	Devices  *DeviceHandler
	State    MachineState
	Debugger MachineDebugger

	// Upper bound on bus accesses before the run is expired; zero means no
	// limit.
	MaxCycles uint64

	symbols []Symbol
	brk     uint16
	ctx     context.Context
	running bool
}
