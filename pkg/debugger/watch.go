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
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lassandro/golit/pkg/encoding"
	"github.com/lassandro/golit/pkg/machine"
	"github.com/lassandro/golit/pkg/value"
)

var ErrBadWatch = errors.New("invalid watch")

// Longest string a null terminated watch at a raw address will read.
const maxWatchText = 256

var ioPrefixes = []struct {
	prefix string
	reg    IORegister
}{
	{"io-port=", IOPort},
	{"io-pin=", IOPin},
	{"io-ddr=", IODDR},
}

// ParseWatches reads a watch the way ParseWatch does, and also accepts
// io=PORT, which watches all three registers of a GPIO port.
func ParseWatches(s string) ([]Watch, error) {
	if rest, ok := strings.CutPrefix(s, "io="); ok {
		var ws []Watch

		for _, io := range ioPrefixes {
			w, err := parseIO(s, rest, io.reg)

			if err != nil {
				return nil, err
			}

			ws = append(ws, w)
		}

		return ws, nil
	}

	w, err := ParseWatch(s)

	if err != nil {
		return nil, err
	}

	return []Watch{w}, nil
}

// ParseWatch reads a watch in the form LOCATION=TYPE, where LOCATION is a
// symbol name or a hex address and TYPE is one of char, u8-u64, i8-i64 or
// null_terminated=char. A raw address may also be given in base 10 as
// datamem=ADDRESS=TYPE, and a GPIO register as io-port=PORT, io-pin=PORT or
// io-ddr=PORT, PORT being a letter and an optional bit, like D3.
func ParseWatch(s string) (Watch, error) {
	var w Watch

	for _, io := range ioPrefixes {
		if rest, ok := strings.CutPrefix(s, io.prefix); ok {
			return parseIO(s, rest, io.reg)
		}
	}

	if rest, ok := strings.CutPrefix(s, "datamem="); ok {
		loc, typ, ok := strings.Cut(rest, "=")

		if !ok {
			return Watch{}, fmt.Errorf("%w: %q: want datamem=ADDRESS=TYPE", ErrBadWatch, s)
		}

		addr, err := encoding.DecodeAddr(loc)

		if err != nil {
			return Watch{}, fmt.Errorf("%w: %q: %v", ErrBadWatch, s, err)
		}

		w.Addr = addr

		if err := w.parseType(s, typ); err != nil {
			return Watch{}, err
		}

		return w, nil
	}

	loc, typ, ok := strings.Cut(s, "=")

	if !ok || loc == "" || typ == "" {
		return Watch{}, fmt.Errorf("%w: %q: want LOCATION=TYPE", ErrBadWatch, s)
	}

	if addr, err := encoding.DecodeHex(loc); err == nil {
		w.Addr = addr
	} else {
		w.Symbol = loc
	}

	if err := w.parseType(s, typ); err != nil {
		return Watch{}, err
	}

	return w, nil
}

func parseIO(s, port string, reg IORegister) (Watch, error) {
	if len(port) == 0 || len(port) > 2 {
		return Watch{}, fmt.Errorf("%w: %q: want a port letter and an optional bit", ErrBadWatch, s)
	}

	if _, ok := machine.IOPort(port[0]); !ok {
		return Watch{}, fmt.Errorf("%w: %q: no port %c", ErrBadWatch, s, port[0])
	}

	w := Watch{IO: reg, Port: port[0] &^ 0x20, Bit: -1}

	if len(port) == 2 {
		if port[1] < '0' || port[1] > '7' {
			return Watch{}, fmt.Errorf("%w: %q: port bit is not 0-7", ErrBadWatch, s)
		}

		w.Bit = int8(port[1] - '0')
	}

	return w, nil
}

func (w *Watch) parseType(s, typ string) error {
	if inner, ok := strings.CutPrefix(typ, "null_terminated="); ok {
		if inner != "char" {
			return fmt.Errorf("%w: %q: only char can be null terminated", ErrBadWatch, s)
		}

		w.Type = DataType{Kind: value.KindChar, NullTerminated: true}
		return nil
	}

	kind, ok := value.ParseKind(typ)

	if !ok || kind.Size() == 0 || kind == value.KindBool || kind.Float() {
		return fmt.Errorf("%w: %q: unknown type %q", ErrBadWatch, s, typ)
	}

	w.Type = DataType{Kind: kind}
	return nil
}

func (r IORegister) String() string {
	switch r {
	case IOPort:
		return "PORT"
	case IOPin:
		return "PIN"
	case IODDR:
		return "DDR"
	}

	return "?"
}

// port names the GPIO register and bit, like PORTD3.
func (w Watch) port() string {
	if w.Bit < 0 {
		return fmt.Sprintf("%s%c", w.IO, w.Port)
	}

	return fmt.Sprintf("%s%c%d", w.IO, w.Port, w.Bit)
}

func (w Watch) String() string {
	if w.IO != 0 {
		return "io-" + strings.ToLower(w.IO.String()) + "=" + w.port()[len(w.IO.String()):]
	}

	var typ string

	if w.Type.NullTerminated {
		typ = "null_terminated=" + w.Type.Kind.String()
	} else {
		typ = w.Type.Kind.String()
	}

	if w.Symbol != "" {
		return w.Symbol + "=" + typ
	}

	return fmt.Sprintf("%#04x=%s", w.Addr, typ)
}

// Location is how a watch is named in reports.
func (w Watch) Location() string {
	if w.IO != 0 {
		return "IO " + w.port()
	}

	if w.Symbol != "" {
		return w.Symbol
	}

	return fmt.Sprintf("%#04x (data)", w.Addr)
}

// span resolves the bytes a watch covers.
func (w Watch) span(mc *machine.Machine) (uint16, int, error) {
	if w.IO != 0 {
		pin, ok := machine.IOPort(w.Port)

		if !ok {
			return 0, 0, fmt.Errorf("%w: %s", ErrBadWatch, w.Location())
		}

		switch w.IO {
		case IODDR:
			return pin + 1, 1, nil
		case IOPort:
			return pin + 2, 1, nil
		}

		return pin, 1, nil
	}

	addr := w.Addr
	size := -1

	if w.Symbol != "" {
		sym, err := mc.Symbol(w.Symbol)

		if err != nil {
			return 0, 0, err
		}

		addr = sym.Addr
		size = int(sym.Size)
	}

	if w.Type.NullTerminated {
		if size < 0 {
			size = maxWatchText
		}
	} else {
		size = w.Type.Kind.Size()
	}

	if int(addr)+size > machine.MEMSPACE_END {
		size = machine.MEMSPACE_END - int(addr)
	}

	if size <= 0 {
		return 0, 0, fmt.Errorf("%w: %s", machine.ErrOutOfRange, w.Location())
	}

	return addr, size, nil
}

// Value renders the current value under w.
func (w Watch) Value(mc *machine.Machine) (string, error) {
	addr, size, err := w.span(mc)

	if err != nil {
		return "", err
	}

	data := mc.State.Memory[addr : int(addr)+size]

	if w.IO != 0 {
		return levels(data[0], w.Bit), nil
	}

	if w.Type.NullTerminated {
		return strconv.Quote(value.FromBytes(value.KindText, data).Text()), nil
	}

	var enc value.Encoder
	return string(enc.Encode(value.FromBytes(w.Type.Kind, data))), nil
}

// levels renders a GPIO register as pin levels, or a single pin's level.
func levels(reg byte, bit int8) string {
	if bit >= 0 {
		if reg&(1<<bit) != 0 {
			return "HIGH"
		}
		return "LOW"
	}

	var sb strings.Builder

	for i := 0; i < 8; i++ {
		if reg&(1<<i) != 0 {
			fmt.Fprintf(&sb, "%d: HIGH, ", i)
		} else {
			fmt.Fprintf(&sb, "%d:  LOW, ", i)
		}
	}

	return sb.String()
}

func (dbg *Debugger) report(label string, w Watch, v string) {
	if dbg.Out == nil {
		return
	}

	fmt.Fprintf(dbg.Out, "%s(%s) = %s\n", label, w.Location(), v)
}

// Dump reports every watch in watches under label. Watches that cannot be
// read are skipped and their errors joined.
func (dbg *Debugger) Dump(label string, watches []Watch, mc *machine.Machine) error {
	var errs []error

	for _, w := range watches {
		v, err := w.Value(mc)

		if err != nil {
			errs = append(errs, fmt.Errorf("could not get %s: %w", w, err))
			continue
		}

		dbg.report(label, w, v)
	}

	return errors.Join(errs...)
}

// DumpBefore reports the Before watches and records the starting values of
// the OnChange watches.
func (dbg *Debugger) DumpBefore(mc *machine.Machine) error {
	err := dbg.Dump("before_execution", dbg.Before, mc)
	dbg.prime(mc)
	return err
}

func (dbg *Debugger) DumpAfter(mc *machine.Machine) error {
	return dbg.Dump("after_execution", dbg.After, mc)
}

func (dbg *Debugger) prime(mc *machine.Machine) {
	dbg.prior = make(map[int]string, len(dbg.OnChange))

	for i, w := range dbg.OnChange {
		if v, err := w.Value(mc); err == nil {
			dbg.prior[i] = v
		}
	}
}

func (dbg *Debugger) reportChanges(addr uint16, mc *machine.Machine) {
	for i, w := range dbg.OnChange {
		start, size, err := w.span(mc)

		if err != nil || addr < start || int(addr) >= int(start)+size {
			continue
		}

		v, err := w.Value(mc)

		if err != nil {
			continue
		}

		if prior, ok := dbg.prior[i]; ok && prior == v {
			continue
		}

		if dbg.prior == nil {
			dbg.prior = make(map[int]string)
		}

		dbg.prior[i] = v
		dbg.report("changed", w, v)
	}
}
