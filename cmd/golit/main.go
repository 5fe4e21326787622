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
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/lassandro/golit/pkg/check"
	"github.com/lassandro/golit/pkg/debugger"
	"github.com/lassandro/golit/pkg/lit"
)

// watchList collects repeated watch flags.
type watchList []debugger.Watch

func (wl *watchList) String() string {
	parts := make([]string, len(*wl))
	for i, w := range *wl {
		parts[i] = w.String()
	}

	return strings.Join(parts, ",")
}

func (wl *watchList) Set(s string) error {
	ws, err := debugger.ParseWatches(s)

	if err != nil {
		return err
	}

	*wl = append(*wl, ws...)
	return nil
}

var helpvar bool
var debugvar bool
var verbosevar bool
var followvar bool
var faultloopvar bool
var jobsvar int
var cyclesvar uint64
var timeoutvar time.Duration
var inputvar string

var watchvar watchList
var beforevar watchList
var aftervar watchList
var bothvar watchList
var changevar watchList

const usage = "golit [flags] script.lua..."

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Runs a single script under the debug CLI")
	flag.BoolVar(&verbosevar, "v", false, "Logs each verdict as it happens")
	flag.BoolVar(&followvar, "follow", false, "Runs scripts again whenever they change")
	flag.BoolVar(&faultloopvar, "fault-loop", false, "Fails assertions through the illegal access loop instead of abort")
	flag.IntVar(&jobsvar, "j", 0, "Scripts to run at once (default one per CPU)")
	flag.Uint64Var(&cyclesvar, "cycles", 0, "Bus access budget per script (0 is unlimited)")
	flag.DurationVar(&timeoutvar, "timeout", 0, "Wall clock budget per script (0 is unlimited)")
	flag.StringVar(&inputvar, "input", "", "File whose bytes the script can receive")
	flag.Var(&watchvar, "w", "Watches a value before, during and after execution (NAME=TYPE)")
	flag.Var(&watchvar, "watch", "Alias of -w")
	flag.Var(&beforevar, "print-before", "Prints a value before execution (NAME=TYPE)")
	flag.Var(&aftervar, "print-after", "Prints a value after execution (NAME=TYPE)")
	flag.Var(&bothvar, "print-before-after", "Prints a value before and after execution (NAME=TYPE)")
	flag.Var(&changevar, "print-on-change", "Prints a value whenever it changes (NAME=TYPE)")
}

// watches gathers the watch flags into the lists reported before, during
// and after a run.
func watches() (before, change, after []debugger.Watch) {
	before = append(append(append(before, beforevar...), bothvar...), watchvar...)
	change = append(append(change, changevar...), watchvar...)
	after = append(append(append(after, aftervar...), bothvar...), watchvar...)
	return before, change, after
}

func report(w io.Writer, results []*lit.Result, echoed bool) bool {
	failed := false

	for _, result := range results {
		if result == nil {
			continue
		}

		line := fmt.Sprintf("%s: %s", result.Verdict, result.Name)

		switch {
		case result.Err != nil:
			line += fmt.Sprintf(" (%v)", result.Err)
		case result.Verdict != lit.Pass && result.Reason != "":
			line += fmt.Sprintf(" (%s: %s)", result.Status, result.Reason)
		case result.Verdict != lit.Pass && result.Verdict != lit.Unsupported:
			line += fmt.Sprintf(" (%s)", result.Status)
		}

		fmt.Fprintln(w, line)

		if result.Verdict.Failed() && !echoed && result.Output != "" {
			for _, out := range strings.Split(strings.TrimRight(result.Output, "\n"), "\n") {
				fmt.Fprintf(w, "  %s\n", out)
			}
		}

		if result.Warnings != nil {
			log.Println(result.Warnings)
		}

		failed = failed || result.Verdict.Failed()
	}

	return failed
}

func golit() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	if len(args) == 0 {
		log.Println(usage)
		return 1
	}

	if debugvar && len(args) != 1 {
		log.Println("-debug takes exactly one script")
		return 1
	}

	var runner lit.Runner
	runner.Jobs = jobsvar
	runner.MaxCycles = cyclesvar
	runner.Timeout = timeoutvar
	runner.Before, runner.OnChange, runner.After = watches()

	if faultloopvar {
		runner.Harness.Mode = check.ModeFaultLoop
	}

	if verbosevar {
		runner.Log = log.Default()
	}

	interactive := len(args) == 1

	if interactive {
		runner.Echo = os.Stdout
	}

	if inputvar != "" {
		input, err := os.ReadFile(inputvar)

		if err != nil {
			log.Println(err)
			return 1
		}

		runner.Input = input
	} else if interactive && term.IsTerminal(int(os.Stdin.Fd())) {
		enterRawTerm()
		defer exitRawTerm()

		runner.Keyboard = os.Stdin
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)

	if debugvar {
		runner.Debug = attachDebugger

		go func() {
			for range c {
				fmt.Println()
				breakActive()
			}
		}()
	} else {
		go func() {
			<-c
			cancel()
		}()
	}

	if followvar {
		return follow(ctx, &runner, args, interactive)
	}

	results, err := runner.RunAll(ctx, args)

	if err != nil {
		log.Println(err)
	}

	if report(os.Stdout, results, interactive) || err != nil {
		return 1
	}

	return 0
}

func main() {
	flag.Parse()
	os.Exit(golit())
}
