package cscan

import (
	"fmt"
	"strings"
)

// tokenKind classifies scanner tokens.
type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokPunct
)

// token is one lexical token with its source position.
type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

// lexer turns header source into tokens, stripping comments and
// preprocessor directives as it goes. #include targets are recorded in
// source order; every other directive is dropped whole, including
// backslash-continued lines.
type lexer struct {
	name     string
	src      []byte
	pos      int
	line     int
	col      int
	includes []string
}

func newLexer(name string, src []byte) *lexer {
	return &lexer{name: name, src: src, line: 1, col: 1}
}

func (l *lexer) errorf(line, col int, format string, args ...any) error {
	return &ScanError{
		File:    l.name,
		Line:    line,
		Col:     col,
		Message: fmt.Sprintf(format, args...),
	}
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

// atLineStart reports whether only whitespace precedes the current
// position on its line. Preprocessor directives are only recognized there.
func (l *lexer) atLineStart() bool {
	for i := l.pos - 1; i >= 0; i-- {
		switch l.src[i] {
		case '\n':
			return true
		case ' ', '\t', '\r':
			continue
		default:
			return false
		}
	}
	return true
}

// skipDirective consumes a preprocessor line, honoring backslash
// continuations. If the directive is an #include, its target is recorded.
func (l *lexer) skipDirective() {
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.peek()
		if c == '\n' {
			// Continuation if the line ends with a backslash.
			trimmed := strings.TrimRight(sb.String(), " \t\r")
			if strings.HasSuffix(trimmed, "\\") {
				sb.WriteByte(l.advance())
				continue
			}
			break
		}
		sb.WriteByte(l.advance())
	}

	directive := strings.TrimSpace(sb.String())
	if target, ok := parseIncludeTarget(directive); ok {
		l.includes = append(l.includes, target)
	}
}

// parseIncludeTarget extracts the include path from a directive body such
// as `#include <SDL_vulkan.h>` or `#include "SDL_vulkan.h"`.
func parseIncludeTarget(directive string) (string, bool) {
	rest, ok := strings.CutPrefix(directive, "#")
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	rest, ok = strings.CutPrefix(rest, "include")
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	if len(rest) < 2 {
		return "", false
	}
	switch rest[0] {
	case '<':
		if end := strings.IndexByte(rest, '>'); end > 0 {
			return rest[1:end], true
		}
	case '"':
		if end := strings.IndexByte(rest[1:], '"'); end >= 0 {
			return rest[1 : 1+end], true
		}
	}
	return "", false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// tokenize produces the full token stream for the source.
func (l *lexer) tokenize() ([]token, error) {
	var toks []token
	for l.pos < len(l.src) {
		c := l.peek()
		line, col := l.line, l.col

		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()

		case c == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}

		case c == '/' && l.peekAt(1) == '*':
			l.advance()
			l.advance()
			closed := false
			for l.pos < len(l.src) {
				if l.peek() == '*' && l.peekAt(1) == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return nil, l.errorf(line, col, "unterminated block comment")
			}

		case c == '#':
			if !l.atLineStart() {
				return nil, l.errorf(line, col, "unexpected %q", "#")
			}
			l.skipDirective()

		case c == '"':
			l.advance()
			var sb strings.Builder
			closed := false
			for l.pos < len(l.src) {
				ch := l.advance()
				if ch == '\\' && l.pos < len(l.src) {
					sb.WriteByte(l.advance())
					continue
				}
				if ch == '"' {
					closed = true
					break
				}
				sb.WriteByte(ch)
			}
			if !closed {
				return nil, l.errorf(line, col, "unterminated string literal")
			}
			toks = append(toks, token{kind: tokString, text: sb.String(), line: line, col: col})

		case isIdentStart(c):
			var sb strings.Builder
			for l.pos < len(l.src) && isIdentPart(l.peek()) {
				sb.WriteByte(l.advance())
			}
			toks = append(toks, token{kind: tokIdent, text: sb.String(), line: line, col: col})

		case isDigit(c):
			var sb strings.Builder
			for l.pos < len(l.src) && (isIdentPart(l.peek()) || l.peek() == '.') {
				sb.WriteByte(l.advance())
			}
			toks = append(toks, token{kind: tokNumber, text: sb.String(), line: line, col: col})

		case strings.IndexByte("(){}[]*,;=+-<>|&!~^%?:.", c) >= 0:
			l.advance()
			toks = append(toks, token{kind: tokPunct, text: string(c), line: line, col: col})

		default:
			return nil, l.errorf(line, col, "unexpected character %q", string(c))
		}
	}
	return toks, nil
}
