package exprlang

import "fmt"

// ============================================================================
// AST
// ============================================================================

type node interface{}

type literalNode struct {
	value any // float64, string, bool or nil
}

type fieldNode struct {
	root string   // state, param or user
	path []string // remaining dotted segments
}

type listNode struct {
	elements []node
}

type unaryNode struct {
	op      string // "not", "!", "-"
	operand node
}

type binaryNode struct {
	op    string
	left  node
	right node
}

type callNode struct {
	name string
	args []node
}

// ============================================================================
// Pratt Parser
// ============================================================================

// binding powers, lowest first
const (
	bpNone = iota
	bpOr
	bpAnd
	bpCompare
	bpAdditive
	bpMultiplicative
	bpUnary
)

func bindingPower(op string) int {
	switch op {
	case "or", "||":
		return bpOr
	case "and", "&&":
		return bpAnd
	case "==", "!=", "<", "<=", ">", ">=", "in":
		return bpCompare
	case "+", "-":
		return bpAdditive
	case "*", "/", "%":
		return bpMultiplicative
	default:
		return bpNone
	}
}

type parser struct {
	tokens []token
	pos    int
}

// Parse compiles an expression into a reusable Expr. The same compiled
// expression may be evaluated concurrently against different
// environments.
func Parse(input string) (*Expr, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.parseExpr(bpNone)
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenEOF {
		return nil, fmt.Errorf("unexpected token %q at position %d", p.peek().text, p.peek().pos)
	}
	return &Expr{source: input, root: root}, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, fmt.Errorf("expected %s at position %d, got %q", what, t.pos, t.text)
	}
	return t, nil
}

func (p *parser) parseExpr(minBP int) (node, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		if t.kind != tokenOperator {
			break
		}

		op := t.text
		// "not in" is the only two-word operator
		if op == "not" {
			if p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].kind == tokenOperator && p.tokens[p.pos+1].text == "in" {
				if bpCompare <= minBP {
					break
				}
				p.next() // not
				p.next() // in
				right, err := p.parseExpr(bpCompare)
				if err != nil {
					return nil, err
				}
				left = unaryNode{op: "not", operand: binaryNode{op: "in", left: left, right: right}}
				continue
			}
			break
		}

		bp := bindingPower(op)
		if bp == bpNone || bp <= minBP {
			break
		}
		p.next()

		right, err := p.parseExpr(bp)
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: normalizeOp(op), left: left, right: right}
	}
	return left, nil
}

func normalizeOp(op string) string {
	switch op {
	case "||":
		return "or"
	case "&&":
		return "and"
	default:
		return op
	}
}

func (p *parser) parsePrefix() (node, error) {
	t := p.next()
	switch t.kind {
	case tokenNumber:
		return parseNumberLiteral(t)

	case tokenString:
		return literalNode{value: t.text}, nil

	case tokenIdent:
		return p.parseIdent(t)

	case tokenOperator:
		switch t.text {
		case "not", "!":
			operand, err := p.parseExpr(bpUnary)
			if err != nil {
				return nil, err
			}
			return unaryNode{op: "not", operand: operand}, nil
		case "-":
			operand, err := p.parseExpr(bpUnary)
			if err != nil {
				return nil, err
			}
			return unaryNode{op: "-", operand: operand}, nil
		}
		return nil, fmt.Errorf("unexpected operator %q at position %d", t.text, t.pos)

	case tokenLParen:
		inner, err := p.parseExpr(bpNone)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen, ")"); err != nil {
			return nil, err
		}
		return inner, nil

	case tokenLBracket:
		return p.parseList()

	default:
		return nil, fmt.Errorf("unexpected token %q at position %d", t.text, t.pos)
	}
}

func parseNumberLiteral(t token) (node, error) {
	var f float64
	if _, err := fmt.Sscanf(t.text, "%g", &f); err != nil {
		return nil, fmt.Errorf("invalid number %q at position %d", t.text, t.pos)
	}
	return literalNode{value: f}, nil
}

func (p *parser) parseIdent(t token) (node, error) {
	switch t.text {
	case "true", "True":
		return literalNode{value: true}, nil
	case "false", "False":
		return literalNode{value: false}, nil
	case "null", "None", "nil":
		return literalNode{value: nil}, nil
	}

	// function call
	if p.peek().kind == tokenLParen {
		p.next()
		var args []node
		if p.peek().kind != tokenRParen {
			for {
				arg, err := p.parseExpr(bpNone)
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.peek().kind != tokenComma {
					break
				}
				p.next()
			}
		}
		if _, err := p.expect(tokenRParen, ")"); err != nil {
			return nil, err
		}
		return callNode{name: t.text, args: args}, nil
	}

	// dotted field access
	var path []string
	for p.peek().kind == tokenDot {
		p.next()
		seg, err := p.expect(tokenIdent, "field name")
		if err != nil {
			return nil, err
		}
		path = append(path, seg.text)
	}
	return fieldNode{root: t.text, path: path}, nil
}

func (p *parser) parseList() (node, error) {
	var elements []node
	if p.peek().kind != tokenRBracket {
		for {
			el, err := p.parseExpr(bpNone)
			if err != nil {
				return nil, err
			}
			elements = append(elements, el)
			if p.peek().kind != tokenComma {
				break
			}
			p.next()
		}
	}
	if _, err := p.expect(tokenRBracket, "]"); err != nil {
		return nil, err
	}
	return listNode{elements: elements}, nil
}
