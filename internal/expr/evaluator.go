package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Context binds the values an expression program sees while evaluating
// one row: positional parameters ($1..$N, the row's fields), named
// variables (line, file, fields, user -v bindings), per spec.md §4.2.
type Context struct {
	Row   []string
	Named map[string]string
}

// Get resolves a variable reference: digits-only names are positional
// parameters (1-based; out of range yields ""), everything else looks
// up Named (also "" if unset).
func (c *Context) Get(name string) string {
	if isAllDigits(name) {
		n, _ := strconv.Atoi(name)
		if n >= 1 && n <= len(c.Row) {
			return c.Row[n-1]
		}
		return ""
	}
	return c.Named[name]
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsNumber reports whether s parses as a decimal number under the
// spec's strict test (used to decide numeric vs string comparison).
func IsNumber(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func toNum(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func numStr(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Truthy implements spec.md §4.2's truthiness rule.
func Truthy(s string) bool {
	if IsNumber(s) {
		return toNum(s) != 0
	}
	return s != ""
}

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// EvalError reports a semantic failure (divide by zero, bad arity, ...)
// for the row currently being evaluated, per spec.md §7.
type EvalError struct {
	Msg string
}

func (e *EvalError) Error() string { return e.Msg }

// Eval runs p against ctx using the global function Registry, returning
// the top-of-stack value of the program's last statement.
func Eval(p *Program, ctx *Context) (string, error) {
	return EvalWith(p, ctx, DefaultRegistry)
}

// EvalWith is Eval parameterised over an explicit registry (used by
// tests that need a deterministic random()/today()/now()).
func EvalWith(p *Program, ctx *Context, reg *Registry) (string, error) {
	var stack []string
	push := func(v string) { stack = append(stack, v) }
	pop := func() (string, error) {
		if len(stack) == 0 {
			return "", &EvalError{"stack underflow"}
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}

	var result string

	for _, tok := range p.RPN {
		switch tok.Kind {
		case KindNum, KindStr:
			push(tok.Val)

		case KindFunc:
			argc := tok.Prec
			if len(stack) < argc {
				return "", &EvalError{fmt.Sprintf("%s: too few arguments", tok.Val)}
			}
			args := append([]string(nil), stack[len(stack)-argc:]...)
			stack = stack[:len(stack)-argc]
			v, err := reg.Call(tok.Val, args, ctx)
			if err != nil {
				return "", err
			}
			push(v)

		case KindOp:
			switch tok.Val {
			case ";":
				if len(stack) > 0 {
					result, _ = pop()
					stack = nil
				}

			case "readvar":
				name, err := pop()
				if err != nil {
					return "", err
				}
				push(ctx.Get(name))

			case "u-":
				a, err := pop()
				if err != nil {
					return "", err
				}
				push(numStr(-toNum(a)))

			default:
				b, err := pop()
				if err != nil {
					return "", err
				}
				a, err := pop()
				if err != nil {
					return "", err
				}
				v, err := applyBinary(tok.Val, a, b)
				if err != nil {
					return "", err
				}
				push(v)
			}
		}
	}

	return result, nil
}

func applyBinary(op, a, b string) (string, error) {
	switch op {
	case "+", "-", "*":
		x, y := toNum(a), toNum(b)
		switch op {
		case "+":
			return numStr(x + y), nil
		case "-":
			return numStr(x - y), nil
		case "*":
			return numStr(x * y), nil
		}
	case "/":
		y := toNum(b)
		if y == 0 {
			return "", &EvalError{"division by zero"}
		}
		return numStr(toNum(a) / y), nil
	case "%":
		x, y := int64(toNum(a)), int64(toNum(b))
		if x < 0 || y < 0 {
			return "", &EvalError{"%% requires non-negative operands"}
		}
		if y == 0 {
			return "", &EvalError{"division by zero"}
		}
		return strconv.FormatInt(x%y, 10), nil
	case ".":
		return a + b, nil
	case "&&":
		return boolStr(Truthy(a) && Truthy(b)), nil
	case "||":
		return boolStr(Truthy(a) || Truthy(b)), nil
	case "==", "<>", "!=", "<", ">", "<=", ">=":
		return boolStr(compare(op, a, b)), nil
	}
	return "", &EvalError{fmt.Sprintf("unknown operator %q", op)}
}

func compare(op, a, b string) bool {
	var c int
	if IsNumber(a) && IsNumber(b) {
		x, y := toNum(a), toNum(b)
		switch {
		case x < y:
			c = -1
		case x > y:
			c = 1
		default:
			c = 0
		}
	} else {
		c = strings.Compare(a, b)
	}
	switch op {
	case "==":
		return c == 0
	case "<>", "!=":
		return c != 0
	case "<":
		return c < 0
	case ">":
		return c > 0
	case "<=":
		return c <= 0
	case ">=":
		return c >= 0
	}
	return false
}
