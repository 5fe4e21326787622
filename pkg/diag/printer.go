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

// Package diag prints sequences of values on one line through the target's
// transport.
package diag

import (
	"github.com/lassandro/golit/pkg/value"
)

type Printer struct {
	tx  value.Sender
	enc value.Encoder
}

func NewPrinter(tx value.Sender) *Printer {
	return &Printer{tx: tx}
}

// Print sends each value in order with nothing between them.
func (p *Printer) Print(vs ...value.Value) {
	for _, v := range vs {
		p.enc.Emit(p.tx, v)
	}
}

// Println is Print followed by a single line feed.
func (p *Printer) Println(vs ...value.Value) {
	p.Print(vs...)
	p.tx.Send('\n')
}

// PrintCall calls fn with args and prints "name(args) = result".
func (p *Printer) PrintCall(name string, fn func(args ...value.Value) value.Value, args ...value.Value) {
	p.Print(value.Text(name), value.Text("("))
	p.Print(args...)

	result := fn(args...)
	p.Println(value.Text(") = "), result)
}

// Eval prints "expr = v", expr being the source text that produced v.
func (p *Printer) Eval(expr string, v value.Value) {
	p.Print(value.Text(expr), value.Text(" = "))
	p.Println(v)
}
