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

// Data space layout of an ATmega328.
const (
	MEMSPACE_REGISTERS uint16 = 0x0000
	MEMSPACE_IO               = 0x0020
	MEMSPACE_EXT_IO           = 0x0060
	MEMSPACE_SRAM             = 0x0100
	MEMSPACE_END              = 0x0900
)

// Memory-mapped I/O registers, as data space addresses.
const (
	REG_SMCR   uint16 = 0x53
	REG_SREG          = 0x5F
	REG_UCSR0A        = 0xC0
	REG_UCSR0B        = 0xC1
	REG_UCSR0C        = 0xC2
	REG_UBRR0L        = 0xC4
	REG_UBRR0H        = 0xC5
	REG_UDR0          = 0xC6
)

// GPIO ports, as data space addresses. Each port has its input pins, data
// direction and output registers in that order.
const (
	REG_PINB  uint16 = 0x23
	REG_DDRB         = 0x24
	REG_PORTB        = 0x25
	REG_PINC         = 0x26
	REG_DDRC         = 0x27
	REG_PORTC        = 0x28
	REG_PIND         = 0x29
	REG_DDRD         = 0x2A
	REG_PORTD        = 0x2B
)

// SREG
const (
	SREG_I uint8 = 1 << 7
)

// SMCR
const (
	SMCR_SE uint8 = 1 << 0
)

// UCSR0A
const (
	UCSR0A_RXC0  uint8 = 1 << 7
	UCSR0A_TXC0  uint8 = 1 << 6
	UCSR0A_UDRE0 uint8 = 1 << 5
)

// UCSR0B
const (
	UCSR0B_RXEN0 uint8 = 1 << 4
	UCSR0B_TXEN0 uint8 = 1 << 3
)

// UCSR0C
const (
	UCSR0C_UCSZ01 uint8 = 1 << 2
	UCSR0C_UCSZ00 uint8 = 1 << 1
)

// How often a running target polls its context for cancellation, in bus
// accesses.
const contextPollInterval = 1 << 10
