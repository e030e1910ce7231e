package editlang

import (
	"fmt"

	"github.com/latticeforge/kernel/pkg/errors"
)

// Parse compiles script text into the ordered list of Statements Apply
// walks in its two passes. A parse failure is fatal (spec.md §4.7 "parse
// failure -> fatal error"); per-statement semantic problems (unknown
// parameter, literal-onto-wire-only-parameter) are reported later by
// Apply as warnings instead.
func Parse(script string) ([]Statement, error) {
	toks, err := tokenize(script)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	var stmts []Statement
	for p.peek().kind != tokEOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	if p.pos >= len(p.toks) {
		return token{kind: tokEOF}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) expectPunct(s string) error {
	t := p.peek()
	if t.kind != tokPunct || t.text != s {
		return errors.New(errors.CodeEditLangParseError, fmt.Sprintf("expected %q, got %q at line %d", s, t.text, t.line))
	}
	p.pos++
	return nil
}

func (p *parser) expectIdent() (token, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return token{}, errors.New(errors.CodeEditLangParseError, fmt.Sprintf("expected identifier, got %q at line %d", t.text, t.line))
	}
	p.pos++
	return t, nil
}

func (p *parser) parseStatement() (Statement, error) {
	head, err := p.expectIdent()
	if err != nil {
		return Statement{}, err
	}

	switch head.text {
	case "delete":
		name, err := p.expectIdent()
		if err != nil {
			return Statement{}, err
		}
		return Statement{Kind: StmtDelete, Line: head.line, Name: name.text}, nil
	case "output":
		name, err := p.expectIdent()
		if err != nil {
			return Statement{}, err
		}
		return Statement{Kind: StmtOutput, Line: head.line, Name: name.text}, nil
	}

	// "name = type { prop: value, ... }" or "name = type" (no properties).
	if err := p.expectPunct("="); err != nil {
		return Statement{}, err
	}
	typeName, err := p.expectIdent()
	if err != nil {
		return Statement{}, err
	}
	stmt := Statement{Kind: StmtDef, Line: head.line, Name: head.text, TypeName: typeName.text}

	if p.peek().kind == tokPunct && p.peek().text == "{" {
		p.next()
		for !(p.peek().kind == tokPunct && p.peek().text == "}") {
			prop, err := p.parseProp()
			if err != nil {
				return Statement{}, err
			}
			if prop.Name == "visible" {
				stmt.Visible = prop.Value.Kind == ValBool && prop.Value.Bool
			}
			stmt.Props = append(stmt.Props, prop)
			if p.peek().kind == tokPunct && p.peek().text == "," {
				p.next()
				continue
			}
			break
		}
		if err := p.expectPunct("}"); err != nil {
			return Statement{}, err
		}
	}
	return stmt, nil
}

func (p *parser) parseProp() (Prop, error) {
	name, err := p.expectIdent()
	if err != nil {
		return Prop{}, err
	}
	if err := p.expectPunct(":"); err != nil {
		return Prop{}, err
	}
	val, err := p.parseValue()
	if err != nil {
		return Prop{}, err
	}
	return Prop{Name: name.text, Value: val}, nil
}

func (p *parser) parseValue() (Value, error) {
	t := p.peek()
	switch {
	case t.kind == tokPunct && t.text == "@":
		p.next()
		name, err := p.expectIdent()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValFuncRef, Ref: name.text}, nil
	case t.kind == tokPunct && t.text == "[":
		p.next()
		var arr []Value
		for !(p.peek().kind == tokPunct && p.peek().text == "]") {
			v, err := p.parseValue()
			if err != nil {
				return Value{}, err
			}
			arr = append(arr, v)
			if p.peek().kind == tokPunct && p.peek().text == "," {
				p.next()
				continue
			}
			break
		}
		if err := p.expectPunct("]"); err != nil {
			return Value{}, err
		}
		return Value{Kind: ValArray, Array: arr}, nil
	case t.kind == tokInt:
		p.next()
		v, err := parseIntLiteral(t)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValInt, Int: v}, nil
	case t.kind == tokFloat:
		p.next()
		v, err := parseFloatLiteral(t)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValFloat, Float: v}, nil
	case t.kind == tokString:
		p.next()
		return Value{Kind: ValString, Str: t.text}, nil
	case t.kind == tokIdent:
		p.next()
		switch t.text {
		case "true":
			return Value{Kind: ValBool, Bool: true}, nil
		case "false":
			return Value{Kind: ValBool, Bool: false}, nil
		}
		return Value{Kind: ValNodeRef, Ref: t.text}, nil
	}
	return Value{}, errors.New(errors.CodeEditLangParseError, fmt.Sprintf("unexpected token %q at line %d", t.text, t.line))
}
