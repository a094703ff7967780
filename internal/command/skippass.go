package command

import (
	"strconv"

	"github.com/nwidger/csvfix/internal/expr"
)

// Action is the verdict of the skip/pass filter primitive for one row,
// per spec.md §4.4: skip > pass > transform, in that order.
type Action int

const (
	ActionTransform Action = iota
	ActionSkip
	ActionPass
)

// Filter compiles and evaluates a command's -skip/-pass expressions.
type Filter struct {
	skip *expr.Program
	pass *expr.Program
}

// NewFilter compiles skipExpr/passExpr (either may be empty).
func NewFilter(skipExpr, passExpr string) (*Filter, error) {
	f := &Filter{}
	if skipExpr != "" {
		p, errMsg := expr.Compile(skipExpr)
		if errMsg != "" {
			return nil, &CompileError{Expr: skipExpr, Msg: errMsg}
		}
		f.skip = p
	}
	if passExpr != "" {
		p, errMsg := expr.Compile(passExpr)
		if errMsg != "" {
			return nil, &CompileError{Expr: passExpr, Msg: errMsg}
		}
		f.pass = p
	}
	return f, nil
}

// CompileError reports an expression that failed to compile, per
// spec.md §7 ("Parse (expression)": fails at compile time, before
// reading input).
type CompileError struct {
	Expr string
	Msg  string
}

func (e *CompileError) Error() string { return e.Expr + ": " + e.Msg }

// Decide evaluates skip then pass against ctx, returning which action
// the row should receive.
func (f *Filter) Decide(ctx *expr.Context) (Action, error) {
	if f.skip != nil {
		v, err := expr.Eval(f.skip, ctx)
		if err != nil {
			return ActionTransform, err
		}
		if expr.Truthy(v) {
			return ActionSkip, nil
		}
	}
	if f.pass != nil {
		v, err := expr.Eval(f.pass, ctx)
		if err != nil {
			return ActionTransform, err
		}
		if expr.Truthy(v) {
			return ActionPass, nil
		}
	}
	return ActionTransform, nil
}

// RowContext builds the expression Context spec.md §3 describes: row
// fields as positional parameters plus the named variables line, file,
// fields, and any user -v bindings.
func RowContext(row []string, file string, line int, named map[string]string) *expr.Context {
	vars := make(map[string]string, len(named)+3)
	for k, v := range named {
		vars[k] = v
	}
	vars["file"] = file
	vars["line"] = strconv.Itoa(line)
	vars["fields"] = strconv.Itoa(len(row))
	return &expr.Context{Row: row, Named: vars}
}
