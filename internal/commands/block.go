package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/nwidger/csvfix/internal/command"
	"github.com/nwidger/csvfix/internal/expr"
)

// block implements the outside/inside state machine of spec.md §4.5.12.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("block", "select or mark rows inside a begin/end-expression block")
		fs := cmd.Flags()
		beExpr := flagString(fs, "be", "", "block-entry expression")
		eeExpr := flagString(fs, "ee", "", "block-exit expression")
		keepInside := flagBool(fs, "k", false, "emit only rows inside the block")
		keepOutside := flagBool(fs, "r", false, "emit only rows outside the block")
		markSpec := flagString(fs, "m", "", "mark,[outmark] prepended to every row")
		boundaryOutside := flagBool(fs, "x", false, "treat boundary rows as outside")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			be, errMsg := expr.Compile(*beExpr)
			if errMsg != "" {
				return &command.CompileError{Expr: *beExpr, Msg: errMsg}
			}
			ee, errMsg := expr.Compile(*eeExpr)
			if errMsg != "" {
				return &command.CompileError{Expr: *eeExpr, Msg: errMsg}
			}

			mark, outMark := "", ""
			marking := markSpec != nil && *markSpec != ""
			if marking {
				m, o, ok := strings.Cut(*markSpec, ",")
				mark = m
				if ok {
					outMark = o
				}
			}

			inside := false
			return command.RunStreaming(g, args, func(row []string, ctx *expr.Context) ([][]string, error) {
				boundary := false
				exiting := false

				if !inside {
					v, err := expr.Eval(be, ctx)
					if err != nil {
						return nil, err
					}
					if expr.Truthy(v) {
						inside = true
						boundary = true
					}
				} else {
					v, err := expr.Eval(ee, ctx)
					if err != nil {
						return nil, err
					}
					if expr.Truthy(v) {
						boundary = true
						exiting = true
					}
				}

				effectiveInside := inside
				if boundary && boundaryOutside != nil && *boundaryOutside {
					effectiveInside = false
				}

				// the exit-expression row always closes the block for the
				// next row, whether or not -x classifies this row as outside
				if exiting {
					inside = false
				}

				if marking {
					tag := outMark
					if effectiveInside {
						tag = mark
					}
					return [][]string{append([]string{tag}, row...)}, nil
				}

				keep := effectiveInside
				if keepOutside != nil && *keepOutside {
					keep = !effectiveInside
				} else if keepInside == nil || !*keepInside {
					keep = true // neither -k nor -r: pass everything through unmarked
				}

				if !keep {
					return nil, nil
				}
				return [][]string{row}, nil
			})
		}
		return cmd
	})
}
