package editlang

import (
	"fmt"
	"strconv"
	"unicode"

	"github.com/latticeforge/kernel/pkg/errors"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokInt
	tokFloat
	tokString
	tokIdent
	tokPunct
)

type token struct {
	kind tokKind
	text string
	line int
}

// tokenize splits src into a flat token stream. Newlines are insignificant:
// statements are delimited by the grammar itself ("name = type { ... }",
// "delete name", "output name"), matching the original UI's tolerance for
// a script spread across, or compressed onto, arbitrary lines.
func tokenize(src string) ([]token, error) {
	var toks []token
	r := []rune(src)
	i := 0
	line := 1
	for i < len(r) {
		c := r[i]
		switch {
		case c == '\n':
			line++
			i++
		case unicode.IsSpace(c):
			i++
		case c == '#':
			for i < len(r) && r[i] != '\n' {
				i++
			}
		case unicode.IsDigit(c):
			j := i
			isFloat := false
			for j < len(r) && (unicode.IsDigit(r[j]) || r[j] == '.') {
				if r[j] == '.' {
					isFloat = true
				}
				j++
			}
			text := string(r[i:j])
			if isFloat {
				toks = append(toks, token{tokFloat, text, line})
			} else {
				toks = append(toks, token{tokInt, text, line})
			}
			i = j
		case c == '-' && i+1 < len(r) && unicode.IsDigit(r[i+1]):
			j := i + 1
			isFloat := false
			for j < len(r) && (unicode.IsDigit(r[j]) || r[j] == '.') {
				if r[j] == '.' {
					isFloat = true
				}
				j++
			}
			text := string(r[i:j])
			if isFloat {
				toks = append(toks, token{tokFloat, text, line})
			} else {
				toks = append(toks, token{tokInt, text, line})
			}
			i = j
		case unicode.IsLetter(c) || c == '_':
			j := i
			for j < len(r) && (unicode.IsLetter(r[j]) || unicode.IsDigit(r[j]) || r[j] == '_') {
				j++
			}
			toks = append(toks, token{tokIdent, string(r[i:j]), line})
			i = j
		case c == '"':
			j := i + 1
			for j < len(r) && r[j] != '"' {
				j++
			}
			if j >= len(r) {
				return nil, errors.New(errors.CodeEditLangParseError, fmt.Sprintf("unterminated string literal at line %d", line))
			}
			toks = append(toks, token{tokString, string(r[i+1 : j]), line})
			i = j + 1
		default:
			switch c {
			case '=', '{', '}', ':', ',', '[', ']', '@':
				toks = append(toks, token{tokPunct, string(c), line})
				i++
			default:
				return nil, errors.New(errors.CodeEditLangParseError, fmt.Sprintf("unexpected character %q at line %d", c, line))
			}
		}
	}
	return toks, nil
}

func parseIntLiteral(t token) (int64, error) {
	v, err := strconv.ParseInt(t.text, 10, 64)
	if err != nil {
		return 0, errors.New(errors.CodeEditLangParseError, fmt.Sprintf("invalid integer literal %q at line %d", t.text, t.line))
	}
	return v, nil
}

func parseFloatLiteral(t token) (float64, error) {
	v, err := strconv.ParseFloat(t.text, 64)
	if err != nil {
		return 0, errors.New(errors.CodeEditLangParseError, fmt.Sprintf("invalid float literal %q at line %d", t.text, t.line))
	}
	return v, nil
}
