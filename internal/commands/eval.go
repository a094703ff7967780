package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nwidger/csvfix/internal/command"
	"github.com/nwidger/csvfix/internal/expr"
)

// evalAction is one parsed -e/-r/-if occurrence, in argv order.
type evalAction struct {
	kind  byte // 'e', 'r', or 'i'
	field int  // 1-based, only for 'r'
	src   string
}

// actionList is a pflag.Value bound three times (to -e, -r, -if) onto
// the same backing slice, so the compiled step list preserves the
// original interleaving order the spec's "-if guards the following two
// -e/-r" rule depends on — something a plain StringArray per flag name
// can't do, since pflag.Args()/Visit don't expose cross-flag order
// either. Grounded on the same "flags are actions in argv order" idea
// csvgrep/main.go's sequential flag application uses
// (_examples/collosi-cursive/csvgrep/main.go), generalized to a shared
// ordered sink.
type actionList struct {
	kind byte
	list *[]evalAction
}

func (a *actionList) String() string { return "" }
func (a *actionList) Type() string   { return "evalAction" }
func (a *actionList) Set(s string) error {
	act := evalAction{kind: a.kind, src: s}
	if a.kind == 'r' {
		field, rest, ok := strings.Cut(s, ",")
		if !ok {
			return &command.CompileError{Expr: s, Msg: "-r requires field,expr"}
		}
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return &command.CompileError{Expr: s, Msg: "-r field must be numeric"}
		}
		act.field = n
		act.src = rest
	}
	*a.list = append(*a.list, act)
	return nil
}

// evalStep is one compiled, row-applicable action: either a plain -e/-r,
// or an -if guard paired with the next two actions (true-arm, false-arm).
type evalStep struct {
	replace bool
	field   int
	prog    *expr.Program

	cond      *expr.Program
	trueStep  *evalStep
	falseStep *evalStep
}

func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("eval", "append or replace fields by evaluating expressions")
		fs := cmd.Flags()
		var actions []evalAction
		fs.Var(&actionList{kind: 'e', list: &actions}, "e", "append field = expression result (repeatable)")
		fs.Var(&actionList{kind: 'r', list: &actions}, "r", "replace field,expr (repeatable)")
		fs.Var(&actionList{kind: 'i', list: &actions}, "if", "guard the next two -e/-r as (true-arm,false-arm)")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			steps, err := compileEvalSteps(actions)
			if err != nil {
				return err
			}
			return command.RunStreaming(g, args, func(row []string, ctx *expr.Context) ([][]string, error) {
				out := append([]string(nil), row...)
				for _, st := range steps {
					if err := runEvalStep(st, &out, ctx); err != nil {
						return nil, err
					}
				}
				return [][]string{out}, nil
			})
		}
		return cmd
	})
}

func compileEvalSteps(actions []evalAction) ([]*evalStep, error) {
	compile := func(a evalAction) (*evalStep, error) {
		p, errMsg := expr.Compile(a.src)
		if errMsg != "" {
			return nil, &command.CompileError{Expr: a.src, Msg: errMsg}
		}
		return &evalStep{replace: a.kind == 'r', field: a.field, prog: p}, nil
	}

	var steps []*evalStep
	for i := 0; i < len(actions); i++ {
		a := actions[i]
		if a.kind != 'i' {
			st, err := compile(a)
			if err != nil {
				return nil, err
			}
			steps = append(steps, st)
			continue
		}
		if i+2 >= len(actions) {
			return nil, &command.CompileError{Expr: a.src, Msg: "-if requires two following -e/-r actions"}
		}
		if actions[i+1].kind == 'i' || actions[i+2].kind == 'i' {
			return nil, &command.CompileError{Expr: a.src, Msg: "two consecutive -if is a configuration error"}
		}
		cond, errMsg := expr.Compile(a.src)
		if errMsg != "" {
			return nil, &command.CompileError{Expr: a.src, Msg: errMsg}
		}
		trueStep, err := compile(actions[i+1])
		if err != nil {
			return nil, err
		}
		falseStep, err := compile(actions[i+2])
		if err != nil {
			return nil, err
		}
		steps = append(steps, &evalStep{cond: cond, trueStep: trueStep, falseStep: falseStep})
		i += 2
	}
	return steps, nil
}

func runEvalStep(st *evalStep, out *[]string, ctx *expr.Context) error {
	if st.cond != nil {
		v, err := expr.Eval(st.cond, ctx)
		if err != nil {
			return err
		}
		if expr.Truthy(v) {
			return runEvalStep(st.trueStep, out, ctx)
		}
		return runEvalStep(st.falseStep, out, ctx)
	}
	v, err := expr.Eval(st.prog, ctx)
	if err != nil {
		return err
	}
	if st.replace {
		for len(*out) < st.field {
			*out = append(*out, "")
		}
		(*out)[st.field-1] = v
	} else {
		*out = append(*out, v)
	}
	return nil
}

var _ pflag.Value = (*actionList)(nil)
