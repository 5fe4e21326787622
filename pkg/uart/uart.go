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

// Package uart drives the target's USART0 by polling, the only channel from
// the program under test to the simulator.
package uart

import (
	"github.com/lassandro/golit/pkg/machine"
)

const (
	ClockRate = 16000000
	BaudRate  = 9600

	BaudPrescale = ClockRate/(BaudRate*16) - 1
)

// Bus is the register interface of the target's data space.
type Bus interface {
	Load(addr uint16) byte
	Store(addr uint16, value byte)
}

// Transport owns the serial peripheral. Init must be called once before the
// first Send or Receive; nothing checks that it was.
type Transport struct {
	bus Bus
}

func New(bus Bus) *Transport {
	return &Transport{bus: bus}
}

func (tx *Transport) Init() {
	tx.bus.Store(machine.REG_UBRR0L, byte(BaudPrescale))
	tx.bus.Store(machine.REG_UBRR0H, byte(BaudPrescale>>8))

	ctrl := tx.bus.Load(machine.REG_UCSR0B)
	tx.bus.Store(machine.REG_UCSR0B, ctrl|machine.UCSR0B_RXEN0|machine.UCSR0B_TXEN0)

	// 8 data bits, no parity, 1 stop bit.
	tx.bus.Store(machine.REG_UCSR0C, machine.UCSR0C_UCSZ00|machine.UCSR0C_UCSZ01)
}

// Send blocks until the transmit buffer is empty, then writes b.
func (tx *Transport) Send(b byte) {
	for tx.bus.Load(machine.REG_UCSR0A)&machine.UCSR0A_UDRE0 == 0 {
	}

	tx.bus.Store(machine.REG_UDR0, b)
}

// SendString sends s up to, not including, its first NUL.
func (tx *Transport) SendString(s string) {
	for i := 0; i < len(s) && s[i] != 0; i++ {
		tx.Send(s[i])
	}
}

// Receive blocks until a byte has arrived and returns it.
func (tx *Transport) Receive() byte {
	for tx.bus.Load(machine.REG_UCSR0A)&machine.UCSR0A_RXC0 == 0 {
	}

	return tx.bus.Load(machine.REG_UDR0)
}
