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
	"errors"
	"fmt"
	"strings"

	semver "github.com/Masterminds/semver/v3"

	"github.com/lassandro/golit/pkg/debugger"
)

// Version of the harness, matched against REQUIRES directives.
const Version = "0.3.0"

var ErrCheckFailed = errors.New("check failed")

// Check is one CHECK or CHECK-NOT directive.
type Check struct {
	Text string
	Not  bool
	Line int
}

// Directives are the lit-style comments embedded in a test script.
type Directives struct {
	Checks   []Check
	Watches  []debugger.Watch
	XFail    bool
	Requires *semver.Constraints
}

// ParseDirectives scans text for directive comments:
//
//	-- CHECK: text
//	-- CHECK-NOT: text
//	-- WATCH: NAME=u8
//	-- REQUIRES: >= 0.2, < 1
//	-- XFAIL
func ParseDirectives(text string) (Directives, error) {
	var d Directives

	src := lex(text)

	for lineno := 1; lineno <= len(src.lines); lineno++ {
		// Directives may trail code on the same line, but never sit inside
		// a string.
		comment, ok := src.comment(lineno)

		if !ok {
			continue
		}

		line := strings.TrimSpace(comment)

		switch {
		case strings.HasPrefix(line, "CHECK-NOT:"):
			d.Checks = append(d.Checks, Check{
				Text: strings.TrimSpace(strings.TrimPrefix(line, "CHECK-NOT:")),
				Not:  true,
				Line: lineno,
			})

		case strings.HasPrefix(line, "CHECK:"):
			d.Checks = append(d.Checks, Check{
				Text: strings.TrimSpace(strings.TrimPrefix(line, "CHECK:")),
				Line: lineno,
			})

		case strings.HasPrefix(line, "WATCH:"):
			ws, err := debugger.ParseWatches(strings.TrimSpace(strings.TrimPrefix(line, "WATCH:")))

			if err != nil {
				return d, fmt.Errorf("line %d: %w", lineno, err)
			}

			d.Watches = append(d.Watches, ws...)

		case strings.HasPrefix(line, "REQUIRES:"):
			c, err := semver.NewConstraint(strings.TrimSpace(strings.TrimPrefix(line, "REQUIRES:")))

			if err != nil {
				return d, fmt.Errorf("line %d: %w", lineno, err)
			}

			d.Requires = c

		case line == "XFAIL":
			d.XFail = true
		}
	}

	return d, nil
}

// Supported reports whether this harness satisfies the REQUIRES constraint.
func (d Directives) Supported() bool {
	if d.Requires == nil {
		return true
	}

	return d.Requires.Check(semver.MustParse(Version))
}

// Match checks the CHECK directives against output. CHECK texts must appear
// in order; a CHECK-NOT text must not appear between the matches of its
// neighbouring CHECKs.
func (d Directives) Match(output string) error {
	pos := 0
	var nots []Check

	for _, check := range d.Checks {
		if check.Not {
			nots = append(nots, check)
			continue
		}

		i := strings.Index(output[pos:], check.Text)

		if i < 0 {
			return fmt.Errorf("%w: line %d: CHECK: %q not found", ErrCheckFailed, check.Line, check.Text)
		}

		if err := matchNots(nots, output[pos:pos+i]); err != nil {
			return err
		}

		nots = nots[:0]
		pos += i + len(check.Text)
	}

	return matchNots(nots, output[pos:])
}

func matchNots(nots []Check, region string) error {
	for _, check := range nots {
		if strings.Contains(region, check.Text) {
			return fmt.Errorf("%w: line %d: CHECK-NOT: %q found", ErrCheckFailed, check.Line, check.Text)
		}
	}

	return nil
}
