package parse

import (
	"fmt"
	"strconv"

	"tlog.app/go/errors"
)

type (
	kind int

	token struct {
		kind kind
		text string
		line int
	}

	SyntaxError struct {
		Line int
		Msg  string
	}
)

const (
	eof kind = iota
	ident
	intLit
	floatLit
	charLit
	stringLit
	punct
)

var kindNames = [...]string{
	eof:       "end of file",
	ident:     "identifier",
	intLit:    "int",
	floatLit:  "float",
	charLit:   "char",
	stringLit: "string",
	punct:     "punctuation",
}

// two character punctuation
var punct2 = map[string]bool{
	"==": true, "!=": true, "<=": true, ">=": true, "&&": true, "||": true,
}

func tokenize(b []byte) (toks []token, err error) {
	line := 1

	for i := 0; ; {
		i, line = skipSpaces(b, i, line)

		if i == len(b) {
			toks = append(toks, token{kind: eof, line: line})
			return toks, nil
		}

		st := i
		c := b[i]

		switch {
		case c == '/' && i+1 < len(b) && b[i+1] == '/':
			i = skipLine(b, i)
			continue
		case isLetter(c):
			i = skipIdent(b, i+1)
			toks = append(toks, token{kind: ident, text: string(b[st:i]), line: line})
		case isDigit(c):
			k := intLit
			i = skipDigits(b, i)

			if i+1 < len(b) && b[i] == '.' && isDigit(b[i+1]) {
				k = floatLit
				i = skipDigits(b, i+1)
			}

			toks = append(toks, token{kind: k, text: string(b[st:i]), line: line})
		case c == '\'' || c == '"':
			i, err = skipQuoted(b, i)
			if err != nil {
				return nil, SyntaxError{Line: line, Msg: err.Error()}
			}

			k := stringLit
			if c == '\'' {
				k = charLit
			}

			text, err := strconv.Unquote(string(b[st:i]))
			if err != nil {
				return nil, SyntaxError{Line: line, Msg: fmt.Sprintf("bad literal %s", b[st:i])}
			}

			toks = append(toks, token{kind: k, text: text, line: line})
		default:
			if i+1 < len(b) && punct2[string(b[i:i+2])] {
				i += 2
			} else {
				switch c {
				case '(', ')', '{', '}', '[', ']', ';', ',', '.', '=', '<', '>', '+', '-', '*', '/', '!':
					i++
				default:
					return nil, SyntaxError{Line: line, Msg: fmt.Sprintf("unsupported character %q", c)}
				}
			}

			toks = append(toks, token{kind: punct, text: string(b[st:i]), line: line})
		}
	}
}

func skipSpaces(b []byte, i, line int) (int, int) {
	for i < len(b) {
		switch b[i] {
		case '\n':
			line++
		case ' ', '\t', '\r':
		default:
			return i, line
		}

		i++
	}

	return i, line
}

func skipIdent(b []byte, i int) int {
	for i < len(b) && (isLetter(b[i]) || isDigit(b[i])) {
		i++
	}

	return i
}

func skipDigits(b []byte, i int) int {
	for i < len(b) && isDigit(b[i]) {
		i++
	}

	return i
}

func skipLine(b []byte, i int) int {
	for i < len(b) && b[i] != '\n' {
		i++
	}

	return i
}

func skipQuoted(b []byte, i int) (int, error) {
	q := b[i]

	for i++; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
		case '\n':
			return i, errors.New("unterminated literal")
		case q:
			return i + 1, nil
		}
	}

	return i, errors.New("unterminated literal")
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (k kind) String() string {
	return kindNames[k]
}

func (t token) String() string {
	if t.kind == eof || t.kind == punct || t.kind == ident {
		if t.text == "" {
			return t.kind.String()
		}

		return strconv.Quote(t.text)
	}

	return fmt.Sprintf("%v %q", t.kind, t.text)
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d: %s", e.Line, e.Msg)
}
