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
	"fmt"
	"io"
	"os"

	"github.com/lassandro/golit/pkg/machine"
)

func (dbg *Debugger) breakIfRequested(mc *machine.Machine) {
	if dbg.Break.Load() && dbg.HandleBreak != nil {
		dbg.HandleBreak(dbg, mc)
	}
}

func (dbg *Debugger) Sleep(mc *machine.Machine) {
	dbg.breakIfRequested(mc)
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	dbg.breakIfRequested(mc)

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr && dbg.HandleRead != nil {
			dbg.HandleRead(addr, dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	dbg.breakIfRequested(mc)
	dbg.reportChanges(addr, mc)

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr && dbg.HandleWrite != nil {
			dbg.HandleWrite(addr, dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) PrintMem(mc *machine.MachineState, addr, count uint16) {
	dbg.FprintMem(os.Stdout, mc, addr, count)
}

// FprintMem writes count bytes from addr, eight to a row, stopping at the
// end of data memory.
func (dbg *Debugger) FprintMem(w io.Writer, mc *machine.MachineState, addr, count uint16) {
	end := uint32(addr) + uint32(count)

	if end > machine.MEMSPACE_END {
		end = machine.MEMSPACE_END
	}

	for i := uint32(addr); i < end; i++ {
		if i == uint32(addr) {
			fmt.Fprintf(w, "\033[1m[%#04x]\033[0m ", i)
		} else if (i-uint32(addr))%8 == 0 {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "\033[1m[%#04x]\033[0m ", i)
		}

		result := mc.Memory[i]

		if result == 0 {
			fmt.Fprintf(w, "\033[1;30m%#02x\033[0m ", result)
		} else {
			fmt.Fprintf(w, "%#02x ", result)
		}
	}

	fmt.Fprintln(w)
}

func (dbg *Debugger) PrintRegisters(mc *machine.MachineState) {
	registers := []struct {
		name string
		addr uint16
	}{
		{"SREG", machine.REG_SREG},
		{"SMCR", machine.REG_SMCR},
		{"UCSR0A", machine.REG_UCSR0A},
		{"UCSR0B", machine.REG_UCSR0B},
		{"UCSR0C", machine.REG_UCSR0C},
		{"UBRR0L", machine.REG_UBRR0L},
		{"UBRR0H", machine.REG_UBRR0H},
	}

	for i, reg := range registers {
		fmt.Printf("\033[1m%s:\033[0m %08b\t", reg.name, mc.Memory[reg.addr])
		if i%4 == 3 {
			fmt.Println()
		}
	}

	fmt.Println()
	fmt.Printf("\033[1mCycles:\033[0m %d\n", mc.Cycles)
}

func (dbg *Debugger) PrintSymbols(mc *machine.Machine) {
	symbols := mc.Symbols()

	if len(symbols) == 0 {
		fmt.Println("No symbols defined")
		return
	}

	for _, sym := range symbols {
		fmt.Printf("\033[1m[%#04x]\033[0m %s (%d)\n", sym.Addr, sym.Name, sym.Size)
	}
}
