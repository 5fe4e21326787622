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

// Package power parks the target once the program is done.
package power

import (
	"github.com/lassandro/golit/pkg/machine"
)

type CPU interface {
	Load(addr uint16) byte
	Store(addr uint16, value byte)
	DisableInterrupts()
	Sleep()
}

// SleepIndefinitely disables interrupts, enables sleep mode and sleeps in a
// loop. With interrupts off there is no wake source, so the first sleep is
// the last instruction the target executes; this is the signal the simulator
// takes as a clean finish.
func SleepIndefinitely(cpu CPU) {
	cpu.DisableInterrupts()

	smcr := cpu.Load(machine.REG_SMCR)
	cpu.Store(machine.REG_SMCR, smcr|machine.SMCR_SE)

	for {
		cpu.Sleep()
	}
}
