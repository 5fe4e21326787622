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
	"bytes"
	"errors"
	"testing"

	"github.com/lassandro/golit/pkg/debugger"
	"github.com/lassandro/golit/pkg/lit"
	"github.com/lassandro/golit/pkg/machine"
)

func TestWatchList(t *testing.T) {
	var wl watchList

	for _, s := range []string{"count=u16", "0x0200=null_terminated=char", "io=D2"} {
		if err := wl.Set(s); err != nil {
			t.Fatal(err)
		}
	}

	if err := wl.Set("count"); err == nil {
		t.Error("Set accepted a watch with no type")
	}

	want := "count=u16,0x0200=null_terminated=char,io-port=D2,io-pin=D2,io-ddr=D2"

	if wl.String() != want {
		t.Errorf("String mismatch\nwant:%s\nhave:%s", want, wl.String())
	}
}

func TestWatches(t *testing.T) {
	defer func() {
		beforevar, aftervar, changevar, bothvar, watchvar = nil, nil, nil, nil, nil
	}()

	for _, set := range []struct {
		wl *watchList
		s  string
	}{
		{&beforevar, "b=u8"},
		{&aftervar, "a=u8"},
		{&changevar, "c=u8"},
		{&bothvar, "ba=u8"},
		{&watchvar, "w=u8"},
	} {
		if err := set.wl.Set(set.s); err != nil {
			t.Fatal(err)
		}
	}

	before, change, after := watches()

	for _, test := range []struct {
		name string
		have []debugger.Watch
		want string
	}{
		{"before", before, "b=u8,ba=u8,w=u8"},
		{"change", change, "c=u8,w=u8"},
		{"after", after, "a=u8,ba=u8,w=u8"},
	} {
		wl := watchList(test.have)

		if have := wl.String(); have != test.want {
			t.Errorf("%s watches\nwant:%s\nhave:%s", test.name, test.want, have)
		}
	}
}

func TestReport(t *testing.T) {
	results := []*lit.Result{
		{Name: "a.lua", Verdict: lit.Pass, Status: machine.StatusHalted, Output: "a\n"},
		{
			Name:    "b.lua",
			Verdict: lit.Fail,
			Status:  machine.StatusAborted,
			Reason:  "stop",
			Output:  "one\nerror: stop\n",
		},
		nil,
		{Name: "c.lua", Verdict: lit.Error, Err: errors.New("no run_test")},
		{Name: "d.lua", Verdict: lit.XFail, Status: machine.StatusFaulted},
	}

	var out bytes.Buffer

	if !report(&out, results, false) {
		t.Error("Failures not reported")
	}

	want := "PASS: a.lua\n" +
		"FAIL: b.lua (aborted: stop)\n" +
		"  one\n" +
		"  error: stop\n" +
		"ERROR: c.lua (no run_test)\n" +
		"XFAIL: d.lua (faulted)\n"

	if have := out.String(); have != want {
		t.Errorf("Report mismatch\nwant:%q\nhave:%q", want, have)
	}

	out.Reset()

	if report(&out, results[:1], true) {
		t.Error("Passing run reported as failed")
	}
}
