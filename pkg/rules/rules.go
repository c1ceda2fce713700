// Package rules implements the restricted trigger language used by
// early-warning patterns.
//
// A trigger is a boolean combination of numeric comparisons against node
// identifiers, for example:
//
//	n09 < 5.0 AND n18 > 30
//	(n01 < 5000 OR n02 < 2) AND n12 >= 0.7
//
// The language is deliberately closed: identifiers, numeric literals, the
// comparison operators < <= > >= = == !=, AND, OR, and parentheses. Nothing
// is interpreted or substituted into an evaluator at runtime; triggers parse
// into a small AST and evaluate against a plain id->value map. A node id
// that can contain arbitrary text can therefore never become executable
// code.
//
// Failure semantics follow the rest of the system: a malformed trigger is a
// parse error, and Evaluate treats any error as "not triggered". A
// comparison against an identifier missing from the value map is false.
package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrParse is wrapped by all trigger parse failures.
var ErrParse = errors.New("trigger parse error")

// Expr is a parsed trigger expression.
type Expr interface {
	// Eval reports whether the expression holds for the given node values.
	Eval(values map[string]float64) bool
	// String renders the expression in canonical form.
	String() string
}

// Parse compiles a trigger expression into an Expr.
//
// Example:
//
//	expr, err := rules.Parse("n09 < 5.0 AND n18 > 30")
//	if err != nil {
//		return err
//	}
//	fired := expr.Eval(map[string]float64{"n09": 4.2, "n18": 45})
func Parse(input string) (Expr, error) {
	toks, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("%w: unexpected %q", ErrParse, p.peek().text)
	}
	return expr, nil
}

// Evaluate parses and evaluates a trigger in one call. Any parse failure
// evaluates as false ("not triggered").
func Evaluate(input string, values map[string]float64) bool {
	expr, err := Parse(input)
	if err != nil {
		return false
	}
	return expr.Eval(values)
}

// --- AST ---

type binaryExpr struct {
	op          string // "AND" or "OR"
	left, right Expr
}

func (b *binaryExpr) Eval(values map[string]float64) bool {
	if b.op == "AND" {
		return b.left.Eval(values) && b.right.Eval(values)
	}
	return b.left.Eval(values) || b.right.Eval(values)
}

func (b *binaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.left, b.op, b.right)
}

type comparison struct {
	ident string
	op    string
	value float64
}

func (c *comparison) Eval(values map[string]float64) bool {
	v, ok := values[c.ident]
	if !ok {
		return false
	}
	switch c.op {
	case "<":
		return v < c.value
	case "<=":
		return v <= c.value
	case ">":
		return v > c.value
	case ">=":
		return v >= c.value
	case "=", "==":
		return v == c.value
	case "!=":
		return v != c.value
	default:
		return false
	}
}

func (c *comparison) String() string {
	return fmt.Sprintf("%s %s %g", c.ident, c.op, c.value)
}

// --- Tokenizer ---

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokOp
	tokAnd
	tokOr
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		ch := rune(input[i])
		switch {
		case unicode.IsSpace(ch):
			i++
		case ch == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case ch == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case ch == '<' || ch == '>' || ch == '=' || ch == '!':
			j := i + 1
			if j < len(input) && input[j] == '=' {
				j++
			}
			op := input[i:j]
			if op == "!" {
				return nil, fmt.Errorf("%w: bare '!' at position %d", ErrParse, i)
			}
			toks = append(toks, token{tokOp, op})
			i = j
		case unicode.IsDigit(ch) || ch == '-' || ch == '.':
			j := i + 1
			for j < len(input) && (unicode.IsDigit(rune(input[j])) || input[j] == '.' || input[j] == 'e' || input[j] == 'E' || input[j] == '+' || input[j] == '-') {
				// Only allow +/- immediately after an exponent marker.
				if (input[j] == '+' || input[j] == '-') && !(input[j-1] == 'e' || input[j-1] == 'E') {
					break
				}
				j++
			}
			toks = append(toks, token{tokNumber, input[i:j]})
			i = j
		case unicode.IsLetter(ch) || ch == '_':
			j := i + 1
			for j < len(input) && (unicode.IsLetter(rune(input[j])) || unicode.IsDigit(rune(input[j])) || input[j] == '_') {
				j++
			}
			word := input[i:j]
			switch strings.ToUpper(word) {
			case "AND":
				toks = append(toks, token{tokAnd, "AND"})
			case "OR":
				toks = append(toks, token{tokOr, "OR"})
			default:
				toks = append(toks, token{tokIdent, word})
			}
			i = j
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at position %d", ErrParse, ch, i)
		}
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrParse)
	}
	return toks, nil
}

// --- Parser (recursive descent, OR lowest precedence) ---

type parser struct {
	toks []token
	pos  int
}

func (p *parser) done() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() token {
	if p.done() {
		return token{}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for !p.done() && p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: "OR", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for !p.done() && p.peek().kind == tokAnd {
		p.next()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: "AND", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	if p.done() {
		return nil, fmt.Errorf("%w: unexpected end of expression", ErrParse)
	}
	if p.peek().kind == tokLParen {
		p.next()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.done() || p.peek().kind != tokRParen {
			return nil, fmt.Errorf("%w: missing closing parenthesis", ErrParse)
		}
		p.next()
		return expr, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Expr, error) {
	id := p.next()
	if id.kind != tokIdent {
		return nil, fmt.Errorf("%w: expected identifier, got %q", ErrParse, id.text)
	}
	op := p.next()
	if op.kind != tokOp {
		return nil, fmt.Errorf("%w: expected comparison operator after %q", ErrParse, id.text)
	}
	num := p.next()
	if num.kind != tokNumber {
		return nil, fmt.Errorf("%w: expected number after %q %s", ErrParse, id.text, op.text)
	}
	v, err := strconv.ParseFloat(num.text, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad number %q", ErrParse, num.text)
	}
	return &comparison{ident: id.text, op: op.text, value: v}, nil
}
