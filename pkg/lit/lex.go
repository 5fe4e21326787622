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
	"sort"
	"strings"

	"github.com/yuin/gopher-lua/ast"
	"github.com/yuin/gopher-lua/parse"
)

// token is a lexeme of a script with its byte span in the source.
type token struct {
	typ   int
	str   string
	line  int
	start int
	end   int
}

type source struct {
	text   string
	lines  []int
	tokens []token

	// Offset where lexing stopped, len(text) when the whole source lexed.
	stop int
}

func lex(text string) *source {
	src := &source{text: text, lines: []int{0}}

	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			src.lines = append(src.lines, i+1)
		}
	}

	sc := parse.NewScanner(strings.NewReader(text), "")
	lx := &parse.Lexer{PrevTokenType: parse.TNil}

	for {
		tok, err := sc.Scan(lx)

		if err != nil {
			if n := len(src.tokens); n > 0 {
				src.stop = src.tokens[n-1].end
			}
			return src
		}

		if tok.Type == parse.EOF {
			break
		}

		lx.PrevTokenType = tok.Type

		src.tokens = append(src.tokens, token{
			typ:   tok.Type,
			str:   tok.Str,
			line:  tok.Pos.Line,
			start: src.offset(tok.Pos),
			end:   src.offset(sc.Pos) + 1,
		})
	}

	src.stop = len(text)
	return src
}

// offset converts a scanner position, whose column is that of the last byte
// read, to a byte offset.
func (src *source) offset(pos ast.Position) int {
	if pos.Line < 1 || pos.Line > len(src.lines) {
		return len(src.text)
	}

	off := src.lines[pos.Line-1] + pos.Column - 1

	if off < 0 {
		return 0
	}

	if off > len(src.text) {
		return len(src.text)
	}

	return off
}

// inToken reports whether the byte at off belongs to a token, a string
// literal for instance. Past the point lexing stopped nothing does.
func (src *source) inToken(off int) bool {
	if off >= src.stop {
		return false
	}

	i := sort.Search(len(src.tokens), func(i int) bool {
		return src.tokens[i].end > off
	})

	return i < len(src.tokens) && src.tokens[i].start <= off
}

// comment returns the text after the "--" opening a comment on line n, and
// whether the line has one.
func (src *source) comment(n int) (string, bool) {
	if n < 1 || n > len(src.lines) {
		return "", false
	}

	begin := src.lines[n-1]
	end := len(src.text)

	if n < len(src.lines) {
		end = src.lines[n] - 1
	}

	line := src.text[begin:end]

	for from := 0; ; {
		i := strings.Index(line[from:], "--")

		if i < 0 {
			return "", false
		}

		if !src.inToken(begin + from + i) {
			return line[from+i+2:], true
		}

		from += i + 2
	}
}

// asserts lists the condition text of every direct assert call, keyed by
// the line the call starts on, in source order.
func (src *source) asserts() map[int][]string {
	result := make(map[int][]string)
	toks := src.tokens

	for i := 0; i+1 < len(toks); i++ {
		if toks[i].typ != parse.TIdent || toks[i].str != "assert" || toks[i+1].typ != '(' {
			continue
		}

		if i > 0 {
			switch toks[i-1].typ {
			case '.', ':', parse.TFunction:
				continue
			}
		}

		result[toks[i].line] = append(result[toks[i].line], src.firstArg(i+2))
	}

	return result
}

// firstArg returns the source text of the argument starting at token i, up
// to the first comma or closing parenthesis at the same depth.
func (src *source) firstArg(i int) string {
	toks := src.tokens
	depth := 0

	for j := i; j < len(toks); j++ {
		switch toks[j].typ {
		case '(', '{', '[':
			depth++

		case ')', '}', ']':
			if depth > 0 {
				depth--
				continue
			}
			fallthrough

		case ',':
			if depth > 0 {
				continue
			}

			if j == i {
				return "?"
			}

			return joinLines(src.text[toks[i].start:toks[j].start])
		}
	}

	return "?"
}

func joinLines(s string) string {
	parts := strings.Split(s, "\n")

	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}
