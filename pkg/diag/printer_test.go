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

package diag_test

import (
	"testing"

	"github.com/lassandro/golit/pkg/diag"
	"github.com/lassandro/golit/pkg/value"
)

type recorder []byte

func (r *recorder) Send(b byte) {
	*r = append(*r, b)
}

func add(args ...value.Value) value.Value {
	return value.I32(int32(args[0].Int() + args[1].Int()))
}

func TestPrinter(t *testing.T) {
	tests := []struct {
		name  string
		print func(p *diag.Printer)
		want  string
	}{
		{
			name: "Print",
			print: func(p *diag.Printer) {
				p.Print(value.Text("x="), value.I8(-3), value.Char(','), value.Bool(true))
			},
			want: "x=-3,true",
		},
		{
			name: "Print Nothing",
			print: func(p *diag.Printer) {
				p.Print()
			},
			want: "",
		},
		{
			name: "Println",
			print: func(p *diag.Printer) {
				p.Println(value.Text("Hello "), value.U16(42), value.Text("!"))
			},
			want: "Hello 42!\n",
		},
		{
			name: "Println Empty",
			print: func(p *diag.Printer) {
				p.Println()
			},
			want: "\n",
		},
		{
			name: "PrintCall",
			print: func(p *diag.Printer) {
				p.PrintCall("add", add, value.I32(2), value.I32(3))
			},
			want: "add(23) = 5\n",
		},
		{
			name: "Eval",
			print: func(p *diag.Printer) {
				p.Eval("1.5 * 2", value.F32(3))
			},
			want: "1.5 * 2 = 3.000000\n",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var out recorder

			test.print(diag.NewPrinter(&out))

			if have := string(out); have != test.want {
				t.Errorf("Output mismatch\nwant:%q\nhave:%q", test.want, have)
			}
		})
	}
}
