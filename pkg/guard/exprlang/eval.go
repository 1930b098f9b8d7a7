package exprlang

import (
	"fmt"
	"reflect"
	"strings"
)

// Env is the evaluation environment: the three declared roots of a
// constraint expression. Nil maps read as empty.
type Env struct {
	State map[string]any
	Param map[string]any
	User  map[string]any
}

// Expr is a compiled expression.
type Expr struct {
	source string
	root   node
}

// Source returns the original expression text.
func (e *Expr) Source() string {
	return e.source
}

// EvalBool evaluates the expression and requires a boolean result.
func (e *Expr) EvalBool(env Env) (bool, error) {
	v, err := e.Eval(env)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q did not evaluate to a boolean", e.source)
	}
	return b, nil
}

// Eval evaluates the expression against the environment.
func (e *Expr) Eval(env Env) (any, error) {
	return eval(e.root, env)
}

// EvalBool compiles and evaluates input in one call.
func EvalBool(input string, env Env) (bool, error) {
	expr, err := Parse(input)
	if err != nil {
		return false, err
	}
	return expr.EvalBool(env)
}

func eval(n node, env Env) (any, error) {
	switch n := n.(type) {
	case literalNode:
		return n.value, nil

	case fieldNode:
		return evalField(n, env)

	case listNode:
		out := make([]any, 0, len(n.elements))
		for _, el := range n.elements {
			v, err := eval(el, env)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case unaryNode:
		return evalUnary(n, env)

	case binaryNode:
		return evalBinary(n, env)

	case callNode:
		return evalCall(n, env)

	default:
		return nil, fmt.Errorf("unknown expression node %T", n)
	}
}

func evalField(n fieldNode, env Env) (any, error) {
	var current any
	switch n.root {
	case "state":
		current = mapOrEmpty(env.State)
	case "param":
		current = mapOrEmpty(env.Param)
	case "user":
		current = mapOrEmpty(env.User)
	default:
		return nil, fmt.Errorf("undeclared symbol %q (only state, param and user are visible)", n.root)
	}

	for _, seg := range n.path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot access field %q on non-object value", seg)
		}
		current = m[seg] // missing fields read as null
	}
	return current, nil
}

func mapOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func evalUnary(n unaryNode, env Env) (any, error) {
	v, err := eval(n.operand, env)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "not":
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("not requires a boolean operand")
		}
		return !b, nil
	case "-":
		f, ok := toNumber(v)
		if !ok {
			return nil, fmt.Errorf("unary - requires a numeric operand")
		}
		return -f, nil
	default:
		return nil, fmt.Errorf("unknown unary operator %q", n.op)
	}
}

func evalBinary(n binaryNode, env Env) (any, error) {
	// short-circuit boolean operators
	if n.op == "and" || n.op == "or" {
		left, err := eval(n.left, env)
		if err != nil {
			return nil, err
		}
		lb, ok := left.(bool)
		if !ok {
			return nil, fmt.Errorf("%s requires boolean operands", n.op)
		}
		if n.op == "and" && !lb {
			return false, nil
		}
		if n.op == "or" && lb {
			return true, nil
		}
		right, err := eval(n.right, env)
		if err != nil {
			return nil, err
		}
		rb, ok := right.(bool)
		if !ok {
			return nil, fmt.Errorf("%s requires boolean operands", n.op)
		}
		return rb, nil
	}

	left, err := eval(n.left, env)
	if err != nil {
		return nil, err
	}
	right, err := eval(n.right, env)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "==":
		return looseEqual(left, right), nil
	case "!=":
		return !looseEqual(left, right), nil
	case "<", "<=", ">", ">=":
		return compare(n.op, left, right)
	case "in":
		return evalIn(left, right)
	case "+":
		if ls, ok := left.(string); ok {
			rs, ok := right.(string)
			if !ok {
				return nil, fmt.Errorf("+ cannot mix string and non-string operands")
			}
			return ls + rs, nil
		}
		return arith(n.op, left, right)
	case "-", "*", "/", "%":
		return arith(n.op, left, right)
	default:
		return nil, fmt.Errorf("unknown operator %q", n.op)
	}
}

func evalCall(n callNode, env Env) (any, error) {
	switch n.name {
	case "len":
		if len(n.args) != 1 {
			return nil, fmt.Errorf("len takes exactly one argument")
		}
		v, err := eval(n.args[0], env)
		if err != nil {
			return nil, err
		}
		switch v := v.(type) {
		case string:
			return float64(len([]rune(v))), nil
		case []any:
			return float64(len(v)), nil
		case map[string]any:
			return float64(len(v)), nil
		case nil:
			return float64(0), nil
		default:
			return nil, fmt.Errorf("len is not defined for %T", v)
		}
	default:
		return nil, fmt.Errorf("unknown function %q (only len is available)", n.name)
	}
}

func evalIn(needle, haystack any) (any, error) {
	switch h := haystack.(type) {
	case []any:
		for _, el := range h {
			if looseEqual(needle, el) {
				return true, nil
			}
		}
		return false, nil
	case string:
		s, ok := needle.(string)
		if !ok {
			return nil, fmt.Errorf("in on a string requires a string needle")
		}
		return strings.Contains(h, s), nil
	default:
		return nil, fmt.Errorf("in requires a list or string on the right side")
	}
}

// looseEqual compares values with numeric coercion, matching the way
// JSON-decoded parameters mix int and float64.
func looseEqual(a, b any) bool {
	if af, ok := toNumber(a); ok {
		if bf, ok := toNumber(b); ok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func compare(op string, a, b any) (any, error) {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return nil, fmt.Errorf("%s cannot compare string and non-string", op)
		}
		switch op {
		case "<":
			return as < bs, nil
		case "<=":
			return as <= bs, nil
		case ">":
			return as > bs, nil
		default:
			return as >= bs, nil
		}
	}

	af, aok := toNumber(a)
	bf, bok := toNumber(b)
	if !aok || !bok {
		return nil, fmt.Errorf("%s requires two numbers or two strings", op)
	}
	switch op {
	case "<":
		return af < bf, nil
	case "<=":
		return af <= bf, nil
	case ">":
		return af > bf, nil
	default:
		return af >= bf, nil
	}
}

func arith(op string, a, b any) (any, error) {
	af, aok := toNumber(a)
	bf, bok := toNumber(b)
	if !aok || !bok {
		return nil, fmt.Errorf("%s requires numeric operands", op)
	}
	switch op {
	case "+":
		return af + bf, nil
	case "-":
		return af - bf, nil
	case "*":
		return af * bf, nil
	case "/":
		if bf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return af / bf, nil
	case "%":
		if bf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return float64(int64(af) % int64(bf)), nil
	default:
		return nil, fmt.Errorf("unknown arithmetic operator %q", op)
	}
}

func toNumber(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
