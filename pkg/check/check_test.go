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

package check_test

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/lassandro/golit/pkg/check"
	"github.com/lassandro/golit/pkg/harness"
	"github.com/lassandro/golit/pkg/machine"
	"github.com/lassandro/golit/pkg/value"
)

func run(mode check.Mode, entry func(h *harness.T)) (*machine.Machine, string) {
	var display bytes.Buffer

	mc := machine.New(&machine.DeviceHandler{Display: bufio.NewWriter(&display)})
	harness.Run(context.Background(), mc, harness.Options{Mode: mode}, entry)

	return mc, display.String()
}

func TestAssert(t *testing.T) {
	var site check.Site

	mc, output := run(check.ModeAbort, func(h *harness.T) {
		h.Assert(true, "1 == 1", "never printed")
		site = check.Caller(0)
		h.Assert(false, "x == 1", "x must be one")
		h.Println(value.Text("unreachable"))
	})

	want := fmt.Sprintf(
		"error: assertion failed [check_test.go:TestAssert.func1():%d] x == 1 (x must be one) is not true\n",
		site.Line+1,
	)

	if output != want {
		t.Errorf("Output mismatch\nwant:%q\nhave:%q", want, output)
	}

	if mc.State.Status != machine.StatusAborted {
		t.Errorf("Status mismatch\nwant:%s\nhave:%s", machine.StatusAborted, mc.State.Status)
	}

	if have := "error: " + mc.State.Reason + "\n"; have != want {
		t.Errorf("Reason mismatch\nwant:%q\nhave:%q", want, have)
	}
}

func TestAssertPasses(t *testing.T) {
	mc, output := run(check.ModeAbort, func(h *harness.T) {
		h.Assert(1+1 == 2, "1 + 1 == 2", "arithmetic")
	})

	if output != "" {
		t.Errorf("Output mismatch\nwant:%q\nhave:%q", "", output)
	}

	if mc.State.Status != machine.StatusHalted {
		t.Errorf("Status mismatch\nwant:%s\nhave:%s", machine.StatusHalted, mc.State.Status)
	}
}

func TestAssertAt(t *testing.T) {
	_, output := run(check.ModeAbort, func(h *harness.T) {
		h.AssertAt(check.Site{File: "add.lua", Func: "run_test", Line: 7}, false, "a < b", "")
	})

	want := "error: assertion failed [add.lua:run_test():7] a < b () is not true\n"

	if output != want {
		t.Errorf("Output mismatch\nwant:%q\nhave:%q", want, output)
	}
}

func TestAssertAtUnknownLine(t *testing.T) {
	_, output := run(check.ModeAbort, func(h *harness.T) {
		h.AssertAt(check.Site{File: "p.lua", Func: "?", Line: -1}, false, "?", "m")
	})

	want := "error: assertion failed [p.lua:?():-1] ? (m) is not true\n"

	if output != want {
		t.Errorf("Output mismatch\nwant:%q\nhave:%q", want, output)
	}
}

func TestFaultLoop(t *testing.T) {
	mc, output := run(check.ModeFaultLoop, func(h *harness.T) {
		h.AssertAt(check.Site{File: "f.c", Func: "main", Line: 3}, false, "ok", "boom")
	})

	want := "error: assertion failed [f.c:main():3] ok (boom) is not true\n"

	if output != want {
		t.Errorf("Output mismatch\nwant:%q\nhave:%q", want, output)
	}

	if mc.State.Status != machine.StatusFaulted {
		t.Errorf("Status mismatch\nwant:%s\nhave:%s", machine.StatusFaulted, mc.State.Status)
	}

	if mc.State.Fault != machine.MEMSPACE_END {
		t.Errorf("Fault address\nwant:%#04x\nhave:%#04x", machine.MEMSPACE_END, mc.State.Fault)
	}
}

func TestError(t *testing.T) {
	mc, output := run(check.ModeAbort, func(h *harness.T) {
		h.Error(value.Text("bad value "), value.I16(-7))
	})

	if want := "error: bad value -7\n"; output != want {
		t.Errorf("Output mismatch\nwant:%q\nhave:%q", want, output)
	}

	if want := "bad value -7"; mc.State.Reason != want {
		t.Errorf("Reason mismatch\nwant:%q\nhave:%q", want, mc.State.Reason)
	}
}

func TestSite(t *testing.T) {
	site := check.Caller(0)

	if site.File != "check_test.go" || site.Func != "TestSite" {
		t.Errorf("Caller mismatch\nwant:check_test.go TestSite\nhave:%s %s", site.File, site.Func)
	}

	failure := check.Failure{
		Site:    check.Site{File: "x.c", Func: "f", Line: 12},
		Expr:    "p != NULL",
		Message: "p",
	}

	if want := "assertion failed [x.c:f():12] p != NULL (p) is not true"; failure.Error() != want {
		t.Errorf("Failure mismatch\nwant:%q\nhave:%q", want, failure.Error())
	}
}
