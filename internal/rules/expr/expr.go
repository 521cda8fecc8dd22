// Package expr interprets the small requirement language used by effect
// entries. The grammar is closed on purpose: comparisons, integer literals,
// variable lookups, and boolean combinators. No host-language code ever runs.
package expr

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/vttforge/areatrigger/internal/errors"
)

// Eval evaluates an expression like "target.hp < target.max_hp && source.level >= 3"
// against the given variable bindings. A bare value is truthy when non-zero.
func Eval(expression string, vars map[string]int) (bool, error) {
	tokens, err := tokenize(expression)
	if err != nil {
		return false, err
	}
	if len(tokens) == 0 {
		return false, errors.Configuration("empty requirement expression")
	}

	p := &parser{tokens: tokens, vars: vars}
	value, err := p.parseOr()
	if err != nil {
		return false, err
	}
	if p.pos != len(p.tokens) {
		return false, errors.Configurationf("unexpected token %q in expression %q", p.tokens[p.pos], expression)
	}
	return value != 0, nil
}

// EvalAll evaluates every expression and reports whether all are satisfied.
// An empty list is satisfied.
func EvalAll(expressions []string, vars map[string]int) (bool, error) {
	for _, e := range expressions {
		ok, err := Eval(e, vars)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

type parser struct {
	tokens []string
	pos    int
	vars   map[string]int
}

func (p *parser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *parser) next() string {
	tok := p.peek()
	p.pos++
	return tok
}

func (p *parser) parseOr() (int, error) {
	left, err := p.parseAnd()
	if err != nil {
		return 0, err
	}
	for p.peek() == "||" || p.peek() == "or" {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return 0, err
		}
		if left != 0 || right != 0 {
			left = 1
		} else {
			left = 0
		}
	}
	return left, nil
}

func (p *parser) parseAnd() (int, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for p.peek() == "&&" || p.peek() == "and" {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if left != 0 && right != 0 {
			left = 1
		} else {
			left = 0
		}
	}
	return left, nil
}

func (p *parser) parseUnary() (int, error) {
	if p.peek() == "!" || p.peek() == "not" {
		p.next()
		value, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if value == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (int, error) {
	left, err := p.parseOperand()
	if err != nil {
		return 0, err
	}

	op := p.peek()
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		p.next()
	default:
		return left, nil
	}

	right, err := p.parseOperand()
	if err != nil {
		return 0, err
	}

	var result bool
	switch op {
	case "==":
		result = left == right
	case "!=":
		result = left != right
	case "<":
		result = left < right
	case "<=":
		result = left <= right
	case ">":
		result = left > right
	case ">=":
		result = left >= right
	}
	if result {
		return 1, nil
	}
	return 0, nil
}

func (p *parser) parseOperand() (int, error) {
	tok := p.next()
	switch {
	case tok == "":
		return 0, errors.Configuration("unexpected end of expression")
	case tok == "(":
		value, err := p.parseOr()
		if err != nil {
			return 0, err
		}
		if p.next() != ")" {
			return 0, errors.Configuration("missing closing parenthesis")
		}
		return value, nil
	case tok == "-":
		value, err := p.parseOperand()
		if err != nil {
			return 0, err
		}
		return -value, nil
	case isDigit(rune(tok[0])):
		n, err := strconv.Atoi(tok)
		if err != nil {
			return 0, errors.Configurationf("bad number %q", tok)
		}
		return n, nil
	default:
		if v, ok := p.vars[tok]; ok {
			return v, nil
		}
		return 0, errors.Configurationf("unresolved variable %q", tok)
	}
}

func tokenize(expression string) ([]string, error) {
	var tokens []string
	runes := []rune(expression)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(' || r == ')' || r == '-':
			tokens = append(tokens, string(r))
			i++
		case r == '&' || r == '|':
			if i+1 >= len(runes) || runes[i+1] != r {
				return nil, errors.Configurationf("bad operator at %q", string(runes[i:]))
			}
			tokens = append(tokens, string(r)+string(r))
			i += 2
		case r == '!' || r == '=' || r == '<' || r == '>':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, string(r)+"=")
				i += 2
			} else if r == '=' {
				return nil, errors.Configuration("single '=' is not an operator; use '=='")
			} else {
				tokens = append(tokens, string(r))
				i++
			}
		case isDigit(r):
			start := i
			for i < len(runes) && isDigit(runes[i]) {
				i++
			}
			tokens = append(tokens, string(runes[start:i]))
		case unicode.IsLetter(r) || r == '_' || r == '@':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_' || runes[i] == '.' || runes[i] == '@') {
				i++
			}
			tokens = append(tokens, strings.TrimPrefix(string(runes[start:i]), "@"))
		default:
			return nil, errors.Configurationf("unexpected character %q", string(r))
		}
	}
	return tokens, nil
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
