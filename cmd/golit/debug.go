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

package main

import (
	"bufio"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/lassandro/golit/pkg/debugger"
	"github.com/lassandro/golit/pkg/encoding"
	"github.com/lassandro/golit/pkg/machine"
)

var lastcmd []string

var active atomic.Pointer[debugger.Debugger]

func attachDebugger(dbg *debugger.Debugger) {
	dbg.HandleBreak = handleBreak
	dbg.HandleRead = handleRead
	dbg.HandleWrite = handleWrite
	dbg.Break.Store(true)

	active.Store(dbg)
}

func breakActive() {
	if dbg := active.Load(); dbg != nil {
		dbg.Break.Store(true)
	}
}

// Resolves a symbol name, a hex address or a base-10 address.
func resolveAddr(mc *machine.Machine, s string) (uint16, error) {
	if sym, err := mc.Symbol(s); err == nil {
		return sym.Addr, nil
	}

	return encoding.DecodeAddr(s)
}

func debugWatch(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "watch [add|list|rm|clear]"

	if len(args) == 0 {
		log.Println(usage)
		return
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x####|symbol] [read|write|readwrite]"

		if len(args) != 2 {
			log.Println(usage)
			return
		}

		addr, err := resolveAddr(mc, args[0])

		if err != nil {
			log.Println(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "rwrite", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			log.Println(usage)
			return
		}

		for _, watchpoint := range dbg.Watchpoints {
			if watchpoint.Addr == addr && watchpoint.Type == wtype {
				return
			}
		}

		dbg.Watchpoints = append(
			dbg.Watchpoints,
			debugger.Watchpoint{Addr: addr, Type: wtype},
		)

		fmt.Printf("Watchpoint added [%#04x] (%s)\n", addr, watchTypeName(wtype))

	case "l", "ls", "list":
		var fmtstring string
		{
			digits := math.Floor(math.Log10(float64(len(dbg.Watchpoints) + 1)))
			fmtstring = fmt.Sprintf("#%%0%dd: %%#x %%s\n", int64(digits)+1)
		}

		for i, watchpoint := range dbg.Watchpoints {
			fmt.Printf(fmtstring, i, watchpoint.Addr, watchTypeName(watchpoint.Type))
		}

	case "r", "rm", "remove":
		const usage = "watch rm [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Watchpoints)) {
			log.Println("Invalid watchpoint number")
			return
		}

		dbg.Watchpoints = append(dbg.Watchpoints[:i], dbg.Watchpoints[i+1:]...)
		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = nil
		fmt.Println("Watchpoints reset")

	default:
		log.Printf("watch: '%s' is not a valid command\n", cmd)
	}
}

func watchTypeName(wtype debugger.WatchpointType) string {
	switch wtype {
	case debugger.ReadWatch:
		return "read"
	case debugger.WriteWatch:
		return "write"
	default:
		return "readwrite"
	}
}

func debugPrint(mc *machine.Machine, args []string) {
	const usage = "print [symbol|0x####]=[type]|io=[port]..."

	if len(args) == 0 {
		log.Println(usage)
		return
	}

	for _, arg := range args {
		ws, err := debugger.ParseWatches(arg)

		if err != nil {
			log.Println(err)
			continue
		}

		for _, w := range ws {
			v, err := w.Value(mc)

			if err != nil {
				log.Println(err)
				continue
			}

			fmt.Printf("\033[1m%s:\033[0m %s\n", w.Location(), v)
		}
	}
}

func debugReg(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "register [SREG|SMCR|UCSR0A|UCSR0B|UCSR0C|UBRR0L|UBRR0H] [0x##]"

	if len(args) == 0 {
		dbg.PrintRegisters(&mc.State)
		return
	}

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	var addr uint16

	switch strings.ToUpper(args[0]) {
	case "SREG":
		addr = machine.REG_SREG
	case "SMCR":
		addr = machine.REG_SMCR
	case "UCSR0A":
		addr = machine.REG_UCSR0A
	case "UCSR0B":
		addr = machine.REG_UCSR0B
	case "UCSR0C":
		addr = machine.REG_UCSR0C
	case "UBRR0L":
		addr = machine.REG_UBRR0L
	case "UBRR0H":
		addr = machine.REG_UBRR0H
	default:
		log.Println("Invalid register")
		return
	}

	value, err := encoding.DecodeAddr(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	if value > 0xFF {
		log.Println("Register value out of range")
		return
	}

	mc.State.Memory[addr] = byte(value)
	fmt.Printf("\033[1m%s:\033[0m %08b\n", strings.ToUpper(args[0]), value)
}

func debugMemory(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "memory [0x####|symbol] [#]"

	if len(args) == 0 || len(args) > 2 {
		log.Println(usage)
		return
	}

	var size uint16 = 1

	addr, err := resolveAddr(mc, args[0])

	if err != nil {
		log.Println(err)
		return
	}

	if sym, err := mc.Symbol(args[0]); err == nil {
		size = sym.Size
	}

	if len(args) > 1 {
		value, err := strconv.ParseUint(args[1], 10, 16)

		if err != nil {
			log.Println(err)
			return
		}

		size = uint16(value)
	}

	dbg.PrintMem(&mc.State, addr, size)
}

func debugSet(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "set [0x####|symbol] [0x##]"

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	addr, err := resolveAddr(mc, args[0])

	if err != nil {
		log.Println(err)
		return
	}

	value, err := encoding.DecodeAddr(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	if value > 0xFF {
		log.Println("Value out of range")
		return
	}

	if err := mc.Poke(addr, []byte{byte(value)}); err != nil {
		log.Println(err)
		return
	}

	dbg.PrintMem(&mc.State, addr, 1)
}

func debugREPL(dbg *debugger.Debugger, mc *machine.Machine) {
	if termRaw {
		exitRawTerm()
		defer enterRawTerm()
	}

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		if !scanner.Scan() {
			fmt.Println()
			mc.Abort("debugger input closed")
		}

		args := strings.Fields(scanner.Text())

		if len(args) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = make([]string, len(args))
			copy(lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, mc, args)

		case "p", "print":
			debugPrint(mc, args)

		case "r", "reg", "register", "registers":
			debugReg(dbg, mc, args)

		case "s", "sym", "symbols":
			dbg.PrintSymbols(mc)

		case "m", "mem", "memory":
			debugMemory(dbg, mc, args)

		case "set":
			debugSet(dbg, mc, args)

		case "c", "continue":
			dbg.Break.Store(false)
			return

		case "n", "next":
			dbg.Break.Store(true)
			return

		case "q", "quit", "exit":
			mc.Abort("quit from debugger")

		case "clear":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Printf("Program stopped (cycle %d)\n", mc.State.Cycles)
	debugREPL(dbg, mc)
}

func handleRead(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped on read")
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(dbg, mc)
}

func handleWrite(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped on write")
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(dbg, mc)
}
