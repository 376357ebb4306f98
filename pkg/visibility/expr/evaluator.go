package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-dealform/pkg/visibility"
)

// Evaluator is a small, dependency-free visibility evaluator over form
// values.
//
// Supported forms:
// - truthy checks: `deal_fx_rate` (non-blank value)
// - comparisons: `interest_type == "floating"`, `deal_ccy != functional`
// - composition: `a == "x" && !b`, `a || b`, parentheses
//
// All values are strings; comparisons trim whitespace and are exact.
type Evaluator struct{}

func New() *Evaluator { return &Evaluator{} }

var _ visibility.Evaluator = (*Evaluator)(nil)

func (e *Evaluator) Eval(_ string, rule string, ctx visibility.Context) (bool, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return true, nil
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return false, err
	}
	node, err := parse(tokens)
	if err != nil {
		return false, err
	}
	return node.eval(ctx), nil
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenEq
	tokenNeq
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(input); {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			i++
		case ch == '!':
			if i+1 < len(input) && input[i+1] == '=' {
				tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
				i += 2
				continue
			}
			tokens = append(tokens, token{kind: tokenNot, raw: "!"})
			i++
		case ch == '=' || ch == '&' || ch == '|':
			if i+1 >= len(input) || input[i+1] != ch {
				return nil, fmt.Errorf("visibility/expr: unexpected %q; use %q", string(ch), string([]byte{ch, ch}))
			}
			kind := map[byte]tokenKind{'=': tokenEq, '&': tokenAnd, '|': tokenOr}[ch]
			tokens = append(tokens, token{kind: kind, raw: input[i : i+2]})
			i += 2
		case ch == '"' || ch == '\'':
			end := strings.IndexByte(input[i+1:], ch)
			if end < 0 {
				return nil, errors.New("visibility/expr: unterminated string literal")
			}
			tokens = append(tokens, token{kind: tokenString, raw: input[i+1 : i+1+end]})
			i += end + 2
		default:
			start := i
			for i < len(input) && !strings.ContainsRune(" \t\n\r()!=&|\"'", rune(input[i])) {
				i++
			}
			tokens = append(tokens, token{kind: tokenIdentifier, raw: input[start:i]})
		}
	}
	return tokens, nil
}

type node interface {
	eval(ctx visibility.Context) bool
}

type orNode struct{ left, right node }

func (n orNode) eval(ctx visibility.Context) bool { return n.left.eval(ctx) || n.right.eval(ctx) }

type andNode struct{ left, right node }

func (n andNode) eval(ctx visibility.Context) bool { return n.left.eval(ctx) && n.right.eval(ctx) }

type notNode struct{ inner node }

func (n notNode) eval(ctx visibility.Context) bool { return !n.inner.eval(ctx) }

// compareNode compares a field against a literal, or against another field
// when isField is set.
type compareNode struct {
	field   string
	negate  bool
	operand string
	isField bool
}

func (n compareNode) eval(ctx visibility.Context) bool {
	left := strings.TrimSpace(ctx.Values[n.field])
	right := n.operand
	if n.isField {
		right = strings.TrimSpace(ctx.Values[n.operand])
	}
	return (left == right) != n.negate
}

type truthyNode struct{ field string }

func (n truthyNode) eval(ctx visibility.Context) bool {
	value := strings.TrimSpace(ctx.Values[n.field])
	if value == "" {
		return false
	}
	if parsed, err := strconv.ParseBool(value); err == nil {
		return parsed
	}
	return true
}

type parser struct {
	tokens []token
	pos    int
}

func parse(tokens []token) (node, error) {
	p := &parser{tokens: tokens}
	n, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("visibility/expr: unexpected token %q", p.tokens[p.pos].raw)
	}
	return n, nil
}

func (p *parser) or() (node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.match(tokenOr) {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) and() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.match(tokenAnd) {
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) unary() (node, error) {
	if p.match(tokenNot) {
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	if p.match(tokenLParen) {
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if !p.match(tokenRParen) {
			return nil, errors.New("visibility/expr: missing closing ')'")
		}
		return inner, nil
	}

	if p.pos >= len(p.tokens) {
		return nil, errors.New("visibility/expr: empty expression")
	}
	ident := p.tokens[p.pos]
	if ident.kind != tokenIdentifier {
		return nil, fmt.Errorf("visibility/expr: expected field name, got %q", ident.raw)
	}
	p.pos++

	negate := false
	switch {
	case p.match(tokenEq):
	case p.match(tokenNeq):
		negate = true
	default:
		return truthyNode{field: ident.raw}, nil
	}

	if p.pos >= len(p.tokens) {
		return nil, errors.New("visibility/expr: missing operand")
	}
	operand := p.tokens[p.pos]
	p.pos++
	switch operand.kind {
	case tokenString:
		return compareNode{field: ident.raw, negate: negate, operand: operand.raw}, nil
	case tokenIdentifier:
		return compareNode{field: ident.raw, negate: negate, operand: operand.raw, isField: true}, nil
	default:
		return nil, fmt.Errorf("visibility/expr: expected operand, got %q", operand.raw)
	}
}

func (p *parser) match(kind tokenKind) bool {
	if p.pos >= len(p.tokens) || p.tokens[p.pos].kind != kind {
		return false
	}
	p.pos++
	return true
}
