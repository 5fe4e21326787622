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

// Package harness boots a program under test: it brings up the transport,
// runs the program's entry point and halts the target when it returns.
package harness

import (
	"context"

	"github.com/lassandro/golit/pkg/check"
	"github.com/lassandro/golit/pkg/diag"
	"github.com/lassandro/golit/pkg/machine"
	"github.com/lassandro/golit/pkg/power"
	"github.com/lassandro/golit/pkg/uart"
)

// Target is the register and CPU surface the harness drives.
type Target interface {
	Load(addr uint16) byte
	Store(addr uint16, value byte)
	EnableInterrupts()
	DisableInterrupts()
	Sleep()
	Abort(reason string)
}

type Options struct {
	Mode check.Mode
}

// T is handed to the program under test.
type T struct {
	*diag.Printer
	*check.Checker

	tx *uart.Transport
}

// Receive blocks for one byte from the host.
func (t *T) Receive() byte {
	return t.tx.Receive()
}

// Main is the target's main: it never returns.
func Main(target Target, opts Options, entry func(t *T)) {
	tx := uart.New(target)
	tx.Init()

	// The transport polls, but the program may rely on interrupt-driven
	// hardware.
	target.EnableInterrupts()

	p := diag.NewPrinter(tx)
	c := check.New(p, target)
	c.Mode = opts.Mode

	entry(&T{Printer: p, Checker: c, tx: tx})

	power.SleepIndefinitely(target)
}

// Run boots entry on mc and returns the state the target ended in.
func Run(ctx context.Context, mc *machine.Machine, opts Options, entry func(t *T)) machine.Status {
	return mc.Run(ctx, func() {
		Main(mc, opts, entry)
	})
}
