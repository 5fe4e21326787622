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

// Package check implements assertions for programs under test. A failed
// assertion prints one diagnostic line and stops the target for good.
package check

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/lassandro/golit/pkg/diag"
	"github.com/lassandro/golit/pkg/value"
)

type Mode uint8

const (
	// ModeAbort stops the target through its abort primitive.
	ModeAbort Mode = iota

	// ModeFaultLoop reads increasing addresses from zero until the
	// simulator's fault detector trips, for targets with no abort primitive.
	ModeFaultLoop
)

// Target is what a Checker needs from the program's environment.
type Target interface {
	Load(addr uint16) byte
	Abort(reason string)
}

// Site is a source location of an assertion.
type Site struct {
	File string
	Func string
	Line int
}

// Caller returns the site of the function skip frames above its caller.
func Caller(skip int) Site {
	pc, file, line, ok := runtime.Caller(skip + 1)

	if !ok {
		return Site{File: "?", Func: "?"}
	}

	name := "?"
	if fn := runtime.FuncForPC(pc); fn != nil {
		name = fn.Name()

		if i := strings.LastIndexByte(name, '/'); i >= 0 {
			name = name[i+1:]
		}

		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
	}

	return Site{File: filepath.Base(file), Func: name, Line: line}
}

func (s Site) String() string {
	return s.File + ":" + s.Func + "():" + strconv.Itoa(s.Line)
}

// Failure describes a failed assertion.
type Failure struct {
	Site    Site
	Expr    string
	Message string
}

func (f *Failure) Error() string {
	return "assertion failed [" + f.Site.String() + "] " + f.Expr +
		" (" + f.Message + ") is not true"
}

type Checker struct {
	Mode Mode

	p      *diag.Printer
	target Target
}

func New(p *diag.Printer, target Target) *Checker {
	return &Checker{p: p, target: target}
}

// Assert does nothing when cond holds. Otherwise it reports expr and message
// against the caller's source location and never returns.
func (c *Checker) Assert(cond bool, expr, message string) {
	if cond {
		return
	}

	c.fail(&Failure{Site: Caller(1), Expr: expr, Message: message})
}

// AssertAt is Assert with an explicitly supplied site.
func (c *Checker) AssertAt(site Site, cond bool, expr, message string) {
	if cond {
		return
	}

	c.fail(&Failure{Site: site, Expr: expr, Message: message})
}

func (c *Checker) fail(f *Failure) {
	c.stop(f.Error(),
		value.Text("assertion failed ["),
		value.Text(f.Site.File),
		value.Text(":"),
		value.Text(f.Site.Func),
		value.Text("():"),
		value.I32(int32(f.Site.Line)),
		value.Text("] "),
		value.Text(f.Expr),
		value.Text(" ("),
		value.Text(f.Message),
		value.Text(") is not true"),
	)
}

// Error prints "error: " and vs as one line, then stops the target. It never
// returns.
func (c *Checker) Error(vs ...value.Value) {
	var reason strings.Builder
	var enc value.Encoder

	for _, v := range vs {
		reason.Write(enc.Encode(v))
	}

	c.stop(reason.String(), vs...)
}

func (c *Checker) stop(reason string, vs ...value.Value) {
	c.p.Print(value.Text("error: "))
	c.p.Println(vs...)

	if c.Mode == ModeFaultLoop {
		FaultLoop(c.target)
	}

	c.target.Abort(reason)
	panic("check: target abort returned")
}

// FaultLoop dereferences every address from zero upwards, forever.
func FaultLoop(target Target) {
	for addr := uint16(0); ; addr++ {
		target.Load(addr)
	}
}
