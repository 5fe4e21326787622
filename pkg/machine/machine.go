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
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
)

var (
	ErrNoSymbol     = errors.New("no such symbol")
	ErrSymbolExists = errors.New("symbol already defined")
	ErrOutOfMemory  = errors.New("out of data memory")
	ErrOutOfRange   = errors.New("address outside data memory")
)

func New(devices *DeviceHandler) *Machine {
	mc := &Machine{Devices: devices}
	mc.Reset()
	return mc
}

func (mc *MachineState) Reset() {
	for i, _ := range mc.Memory {
		mc.Memory[i] = 0x00
	}

	mc.Status = StatusRunning
	mc.Reason = ""
	mc.Fault = 0
	mc.Cycles = 0
	mc.RxData = 0
	mc.RxPending = false

	// The transmit buffer is empty out of reset.
	mc.Memory[REG_UCSR0A] = UCSR0A_UDRE0
	mc.Memory[REG_UCSR0C] = UCSR0C_UCSZ01 | UCSR0C_UCSZ00
}

// receive returns the next keyboard byte if one has arrived. The keyboard is
// drained on its own goroutine so a silent host never stalls the bus.
func (d *DeviceHandler) receive() (byte, bool, error) {
	d.rxOnce.Do(func() {
		d.rx = make(chan byte, 64)

		go func() {
			defer close(d.rx)

			for {
				key, err := d.Keyboard.ReadByte()

				if err != nil {
					if err != io.EOF {
						d.rxErr = err
					}
					return
				}

				d.rx <- key
			}
		}()
	})

	select {
	case key, ok := <-d.rx:
		if !ok {
			return 0, false, d.rxErr
		}
		return key, true, nil
	default:
		runtime.Gosched()
		return 0, false, nil
	}
}

func (mc *Machine) Reset() {
	mc.State.Reset()
	mc.symbols = nil
	mc.brk = MEMSPACE_SRAM
}

// Alloc reserves size bytes of SRAM under name, the way the linker places a
// global variable.
func (mc *Machine) Alloc(name string, size uint16) (Symbol, error) {
	if _, err := mc.Symbol(name); err == nil {
		return Symbol{}, fmt.Errorf("%w: %s", ErrSymbolExists, name)
	}

	if mc.brk == 0 {
		mc.brk = MEMSPACE_SRAM
	}

	if size == 0 || uint32(mc.brk)+uint32(size) > MEMSPACE_END {
		return Symbol{}, fmt.Errorf("%w: %s needs %d bytes", ErrOutOfMemory, name, size)
	}

	sym := Symbol{Name: name, Addr: mc.brk, Size: size}
	mc.symbols = append(mc.symbols, sym)
	mc.brk += size

	return sym, nil
}

func (mc *Machine) Symbol(name string) (Symbol, error) {
	for _, sym := range mc.symbols {
		if sym.Name == name {
			return sym, nil
		}
	}

	return Symbol{}, fmt.Errorf("%w: %s", ErrNoSymbol, name)
}

// Symbols returns the defined symbols in allocation order.
func (mc *Machine) Symbols() []Symbol {
	result := make([]Symbol, len(mc.symbols))
	copy(result, mc.symbols)
	return result
}

// Poke writes directly into the data space from the host, bypassing devices
// and the debugger. It is how initial values are flashed before a run.
func (mc *Machine) Poke(addr uint16, data []byte) error {
	if uint32(addr)+uint32(len(data)) > MEMSPACE_END {
		return fmt.Errorf("%w: %#04x+%d", ErrOutOfRange, addr, len(data))
	}

	copy(mc.State.Memory[addr:], data)
	return nil
}

// IOPort returns the PINx register of GPIO port letter; DDRx and PORTx
// follow it.
func IOPort(letter byte) (uint16, bool) {
	switch letter {
	case 'B', 'b':
		return REG_PINB, true
	case 'C', 'c':
		return REG_PINC, true
	case 'D', 'd':
		return REG_PIND, true
	}

	return 0, false
}

// Running reports whether the target program is currently executing.
func (mc *Machine) Running() bool {
	return mc.running
}

func (mc *Machine) park(status Status, reason string) {
	if !mc.running {
		panic("machine: terminal state reached outside Run")
	}

	mc.State.Status = status
	mc.State.Reason = reason

	// The target never resumes; the goroutine owned by Run is retired with
	// its defers intact.
	runtime.Goexit()
}

func (mc *Machine) tick() {
	if !mc.running {
		return
	}

	mc.State.Cycles++

	if mc.MaxCycles > 0 && mc.State.Cycles > mc.MaxCycles {
		mc.park(StatusExpired, "cycle budget exhausted")
	}

	if mc.ctx != nil && mc.State.Cycles%contextPollInterval == 0 {
		if err := mc.ctx.Err(); err != nil {
			mc.park(StatusExpired, err.Error())
		}
	}
}

func (mc *Machine) fault(addr uint16) {
	mc.State.Fault = addr
	mc.park(StatusFaulted, fmt.Sprintf("illegal access at %#04x", addr))
}

func (mc *Machine) Load(addr uint16) byte {
	mc.tick()

	if addr >= MEMSPACE_END {
		mc.fault(addr)
	}

	var result byte

	switch addr {
	case REG_UCSR0A:
		if !mc.State.RxPending &&
			mc.State.Memory[REG_UCSR0B]&UCSR0B_RXEN0 != 0 &&
			mc.Devices != nil && mc.Devices.Keyboard != nil {
			key, ok, err := mc.Devices.receive()

			if err != nil {
				panic(err)
			}

			if ok {
				mc.State.RxData = key
				mc.State.RxPending = true
			}
		}

		result = mc.State.Memory[REG_UCSR0A] &^ (UCSR0A_RXC0 | UCSR0A_UDRE0)

		if mc.State.RxPending {
			result |= UCSR0A_RXC0
		}

		// Without a display the transmitter discards bytes and is always
		// ready.
		if mc.Devices == nil || mc.Devices.Display == nil ||
			mc.Devices.Display.Available() > 0 {
			result |= UCSR0A_UDRE0
		}

	case REG_UDR0:
		result = mc.State.RxData
		mc.State.RxPending = false

	default:
		result = mc.State.Memory[addr]
	}

	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return result
}

func (mc *Machine) Store(addr uint16, value byte) {
	mc.tick()
	mc.store(addr, value)

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

// StoreBlock stores a multi-byte value. Every byte lands before the debugger
// is told about any of them.
func (mc *Machine) StoreBlock(addr uint16, data []byte) {
	for i, value := range data {
		mc.tick()
		mc.store(addr+uint16(i), value)
	}

	if mc.Debugger != nil {
		for i := range data {
			mc.Debugger.Write(addr+uint16(i), mc)
		}
	}
}

func (mc *Machine) store(addr uint16, value byte) {
	if addr >= MEMSPACE_END {
		mc.fault(addr)
	}

	if addr == REG_UDR0 {
		if mc.State.Memory[REG_UCSR0B]&UCSR0B_TXEN0 == 0 {
			// Transmitter disabled, the byte goes nowhere.
			return
		}

		if mc.Devices != nil && mc.Devices.Display != nil {
			err := mc.Devices.Display.WriteByte(value)

			if err != nil {
				panic(err)
			}

			err = mc.Devices.Display.Flush()

			if err != nil {
				panic(err)
			}
		}

		mc.State.Memory[REG_UCSR0A] |= UCSR0A_TXC0
		return
	}

	mc.State.Memory[addr] = value
}

func (mc *Machine) EnableInterrupts() {
	mc.tick()
	mc.State.Memory[REG_SREG] |= SREG_I
}

func (mc *Machine) DisableInterrupts() {
	mc.tick()
	mc.State.Memory[REG_SREG] &^= SREG_I
}

func (mc *Machine) InterruptsEnabled() bool {
	return mc.State.Memory[REG_SREG]&SREG_I != 0
}

// Sleep executes the sleep instruction. With sleep enabled and interrupts
// disabled nothing can wake the core, which the simulator treats as the end
// of the program.
func (mc *Machine) Sleep() {
	mc.tick()

	if mc.Debugger != nil {
		mc.Debugger.Sleep(mc)
	}

	if mc.State.Memory[REG_SMCR]&SMCR_SE == 0 {
		return
	}

	if mc.InterruptsEnabled() {
		// No interrupt sources are modelled, so this is an immediate wake.
		return
	}

	mc.park(StatusHalted, "")
}

// Abort stops the target with a failure.
func (mc *Machine) Abort(reason string) {
	mc.park(StatusAborted, reason)
}

// Run executes entry as the target program and blocks until it reaches a
// terminal state.
func (mc *Machine) Run(ctx context.Context, entry func()) Status {
	if ctx == nil {
		ctx = context.Background()
	}

	mc.ctx = ctx
	mc.running = true
	mc.State.Status = StatusRunning

	done := make(chan struct{})

	go func() {
		defer close(done)

		defer func() {
			if r := recover(); r != nil {
				mc.State.Status = StatusCrashed
				mc.State.Reason = fmt.Sprint(r)
			}
		}()

		entry()

		mc.State.Status = StatusReturned
	}()

	<-done

	mc.running = false
	mc.ctx = nil

	return mc.State.Status
}
