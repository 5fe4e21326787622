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

package lit

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lassandro/golit/pkg/debugger"
	"github.com/lassandro/golit/pkg/harness"
	"github.com/lassandro/golit/pkg/machine"
)

type Verdict uint8

const (
	Pass Verdict = iota
	Fail
	XFail
	XPass
	Unsupported
	Error
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case XFail:
		return "XFAIL"
	case XPass:
		return "XPASS"
	case Unsupported:
		return "UNSUPPORTED"
	case Error:
		return "ERROR"
	}

	return "UNKNOWN"
}

// Failed reports whether v should fail the whole run.
func (v Verdict) Failed() bool {
	return v == Fail || v == XPass || v == Error
}

type Options struct {
	Harness harness.Options

	// Bus access budget per test; zero means no limit.
	MaxCycles uint64
	// Wall clock budget per test; zero means no limit.
	Timeout time.Duration

	// Bytes the program can receive. Keyboard is a live source for a single
	// test; Input is replayed from the start for every test.
	Keyboard io.Reader
	Input    []byte
	// Receives a live copy of the stream.
	Echo io.Writer

	Before   []debugger.Watch
	OnChange []debugger.Watch
	After    []debugger.Watch

	// Called with each test's debugger before the run, to install
	// watchpoints and handlers.
	Debug func(*debugger.Debugger)
}

type Result struct {
	Name    string
	Verdict Verdict
	Status  machine.Status
	Reason  string
	Output  string
	Cycles  uint64
	Err     error

	// Watches that could not be read.
	Warnings error
}

// Run executes a script on a fresh machine and judges the outcome.
func Run(ctx context.Context, s *Script, opts Options) *Result {
	result := &Result{Name: s.Name}

	if !s.Directives.Supported() {
		result.Verdict = Unsupported
		result.Reason = fmt.Sprintf("requires harness %s, have %s", s.Directives.Requires, Version)
		return result
	}

	var stream bytes.Buffer
	var out io.Writer = &stream

	if opts.Echo != nil {
		out = io.MultiWriter(&stream, opts.Echo)
	}

	devices := machine.DeviceHandler{Display: bufio.NewWriter(out)}

	switch {
	case opts.Keyboard != nil:
		devices.Keyboard = bufio.NewReader(opts.Keyboard)
	case opts.Input != nil:
		devices.Keyboard = bufio.NewReader(bytes.NewReader(opts.Input))
	}

	mc := machine.New(&devices)
	mc.MaxCycles = opts.MaxCycles

	dbg := &debugger.Debugger{
		Out:      out,
		Before:   append(append([]debugger.Watch{}, opts.Before...), s.Directives.Watches...),
		OnChange: append(append([]debugger.Watch{}, opts.OnChange...), s.Directives.Watches...),
		After:    append(append([]debugger.Watch{}, opts.After...), s.Directives.Watches...),
	}

	if opts.Debug != nil {
		opts.Debug(dbg)
	}

	mc.Debugger = dbg

	prog, err := s.Load(mc)

	if err != nil {
		result.Verdict = Error
		result.Err = err
		return result
	}

	defer prog.Close()

	warnings := []error{dbg.DumpBefore(mc)}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	result.Status = prog.Run(ctx, opts.Harness)
	result.Reason = mc.State.Reason
	result.Cycles = mc.State.Cycles

	if result.Status == machine.StatusCrashed && ctx.Err() != nil {
		// The Lua VM noticed the deadline before the bus did.
		result.Status = machine.StatusExpired
		result.Reason = ctx.Err().Error()
	}

	warnings = append(warnings, dbg.DumpAfter(mc))
	result.Warnings = errors.Join(warnings...)
	result.Output = stream.String()

	ok := result.Status == machine.StatusHalted

	if ok {
		if err := s.Directives.Match(result.Output); err != nil {
			ok = false
			result.Err = err
		}
	}

	switch {
	case s.Directives.XFail && ok:
		result.Verdict = XPass
	case s.Directives.XFail:
		result.Verdict = XFail
	case ok:
		result.Verdict = Pass
	default:
		result.Verdict = Fail
	}

	return result
}

// Runner runs many scripts, each on its own machine.
type Runner struct {
	Options

	// Scripts run at once; zero means one per CPU.
	Jobs int

	// Progress lines, if set.
	Log *log.Logger
}

// RunAll runs the scripts at paths and returns their results in the same
// order. The error is only set when ctx ends the run early.
func (r *Runner) RunAll(ctx context.Context, paths []string) ([]*Result, error) {
	results := make([]*Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)

	jobs := r.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	g.SetLimit(jobs)

	for i, path := range paths {
		i, path := i, path

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			s, err := LoadScript(path)

			if err != nil {
				results[i] = &Result{Name: path, Verdict: Error, Err: err}
			} else {
				results[i] = Run(ctx, s, r.Options)
			}

			if r.Log != nil {
				r.Log.Printf("%s: %s", results[i].Verdict, path)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	return results, nil
}
