// Package exprlang is the sandboxed boolean expression language used by
// constraint condition_code. It supports boolean, arithmetic and
// comparison operators, "in" membership, len(), list literals and dotted
// field access on the declared roots (state, param, user). There are no
// imports, no attribute escape and no mutation; anything else is a parse
// error.
package exprlang

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenNumber
	tokenString
	tokenOperator
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
	tokenComma
	tokenDot
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type lexer struct {
	input  string
	pos    int
	tokens []token
}

// tokenize splits the expression into tokens. Keyword operators (and,
// or, not, in) are emitted as operator tokens.
func tokenize(input string) ([]token, error) {
	l := &lexer{input: input}
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '(':
			l.emit(tokenLParen, "(")
		case c == ')':
			l.emit(tokenRParen, ")")
		case c == '[':
			l.emit(tokenLBracket, "[")
		case c == ']':
			l.emit(tokenRBracket, "]")
		case c == ',':
			l.emit(tokenComma, ",")
		case c == '.':
			l.emit(tokenDot, ".")
		case c == '\'' || c == '"':
			if err := l.lexString(c); err != nil {
				return nil, err
			}
		case c >= '0' && c <= '9':
			l.lexNumber()
		case isIdentStart(rune(c)):
			l.lexIdent()
		default:
			if err := l.lexOperator(); err != nil {
				return nil, err
			}
		}
	}
	l.tokens = append(l.tokens, token{kind: tokenEOF, pos: l.pos})
	return l.tokens, nil
}

func (l *lexer) emit(kind tokenKind, text string) {
	l.tokens = append(l.tokens, token{kind: kind, text: text, pos: l.pos})
	l.pos += len(text)
}

func (l *lexer) lexString(quote byte) error {
	start := l.pos
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == '\\' && l.pos+1 < len(l.input) {
			l.pos++
			b.WriteByte(l.input[l.pos])
			l.pos++
			continue
		}
		if c == quote {
			l.pos++
			l.tokens = append(l.tokens, token{kind: tokenString, text: b.String(), pos: start})
			return nil
		}
		b.WriteByte(c)
		l.pos++
	}
	return fmt.Errorf("unterminated string at position %d", start)
}

func (l *lexer) lexNumber() {
	start := l.pos
	for l.pos < len(l.input) && (l.input[l.pos] >= '0' && l.input[l.pos] <= '9' || l.input[l.pos] == '.') {
		l.pos++
	}
	l.tokens = append(l.tokens, token{kind: tokenNumber, text: l.input[start:l.pos], pos: start})
}

func (l *lexer) lexIdent() {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(rune(l.input[l.pos])) {
		l.pos++
	}
	word := l.input[start:l.pos]
	switch word {
	case "and", "or", "not", "in":
		l.tokens = append(l.tokens, token{kind: tokenOperator, text: word, pos: start})
	default:
		l.tokens = append(l.tokens, token{kind: tokenIdent, text: word, pos: start})
	}
}

var twoCharOps = []string{"==", "!=", "<=", ">=", "&&", "||"}

func (l *lexer) lexOperator() error {
	if l.pos+1 < len(l.input) {
		two := l.input[l.pos : l.pos+2]
		for _, op := range twoCharOps {
			if two == op {
				l.emit(tokenOperator, op)
				return nil
			}
		}
	}
	switch c := l.input[l.pos]; c {
	case '<', '>', '+', '-', '*', '/', '%', '!':
		l.emit(tokenOperator, string(c))
		return nil
	default:
		return fmt.Errorf("unexpected character %q at position %d", string(c), l.pos)
	}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
