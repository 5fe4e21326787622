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

package harness_test

import (
	"bufio"
	"bytes"
	"context"
	"testing"

	"github.com/lassandro/golit/pkg/harness"
	"github.com/lassandro/golit/pkg/machine"
	"github.com/lassandro/golit/pkg/value"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		keyboard string
		entry    func(h *harness.T)
		status   machine.Status
		output   string
	}{
		{
			name:   "Empty",
			entry:  func(h *harness.T) {},
			status: machine.StatusHalted,
		},
		{
			name: "Hello",
			entry: func(h *harness.T) {
				h.Println(value.Text("Hello, "), value.Text("world"))
			},
			status: machine.StatusHalted,
			output: "Hello, world\n",
		},
		{
			name:     "Echo",
			keyboard: "xyz",
			entry: func(h *harness.T) {
				for i := 0; i < 3; i++ {
					h.Print(value.Char(h.Receive()))
				}
			},
			status: machine.StatusHalted,
			output: "xyz",
		},
		{
			name: "Failed Assertion",
			entry: func(h *harness.T) {
				h.Print(value.Text("before "))
				h.Error(value.Text("stop"))
				h.Print(value.Text("after"))
			},
			status: machine.StatusAborted,
			output: "before error: stop\n",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var display bytes.Buffer

			devices := &machine.DeviceHandler{Display: bufio.NewWriter(&display)}

			if test.keyboard != "" {
				devices.Keyboard = bufio.NewReader(bytes.NewReader([]byte(test.keyboard)))
			}

			mc := machine.New(devices)
			status := harness.Run(context.Background(), mc, harness.Options{}, test.entry)

			if status != test.status {
				t.Errorf("Status mismatch\nwant:%s\nhave:%s (%s)", test.status, status, mc.State.Reason)
			}

			if have := display.String(); have != test.output {
				t.Errorf("Output mismatch\nwant:%q\nhave:%q", test.output, have)
			}
		})
	}
}

func TestBoot(t *testing.T) {
	mc := machine.New(&machine.DeviceHandler{Display: bufio.NewWriter(&bytes.Buffer{})})

	var interrupts bool
	var ctrl byte

	harness.Run(context.Background(), mc, harness.Options{}, func(h *harness.T) {
		interrupts = mc.InterruptsEnabled()
		ctrl = mc.State.Memory[machine.REG_UCSR0B]
	})

	if !interrupts {
		t.Error("Interrupts disabled during entry")
	}

	if want := machine.UCSR0B_RXEN0 | machine.UCSR0B_TXEN0; ctrl != want {
		t.Errorf("UCSR0B mismatch\nwant:%08b\nhave:%08b", want, ctrl)
	}

	if mc.InterruptsEnabled() {
		t.Error("Interrupts enabled after halt")
	}
}
