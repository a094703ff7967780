package commands

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nwidger/csvfix/internal/command"
	"github.com/nwidger/csvfix/internal/expr"
	"github.com/nwidger/csvfix/internal/fields"
)

// flatten coalesces consecutive rows sharing a key into one accumulated
// row, per spec.md §4.5.4. Streams rather than buffers: input must
// already be grouped by key, matching the spec's "no in-memory sort"
// note. Grounded on internal/command.RunStreaming's row-at-a-time loop,
// generalized with an explicit flush-on-key-change accumulator — the
// shape csvsort/main.go's buffered whole-file sort doesn't need, but
// which the teacher's common.CSVProcessor read loop
// (_examples/collosi-cursive/common/processor.go) already demonstrates
// for "read until done, track state across rows".
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("flatten", "coalesce consecutive same-key rows into one row")
		fs := cmd.Flags()
		keySpec := flagString(fs, "k", "", "key field list")
		masterExpr := flagString(fs, "m", "", "master-row expression (master/detail mode instead of -k)")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			var keys fields.List
			var master *expr.Program
			if masterExpr != nil && *masterExpr != "" {
				p, errMsg := expr.Compile(*masterExpr)
				if errMsg != "" {
					return &command.CompileError{Expr: *masterExpr, Msg: errMsg}
				}
				master = p
			} else {
				k, err := fields.Parse(*keySpec)
				if err != nil {
					return err
				}
				keys = k
			}

			im, em, err := g.OpenIO(args)
			if err != nil {
				return err
			}
			defer im.Close()
			filter, err := command.NewFilter(g.Skip, g.Pass)
			if err != nil {
				return err
			}
			named := g.NamedVars()

			var acc []string
			var lastKey string
			haveAcc := false

			flush := func() error {
				if !haveAcc {
					return nil
				}
				haveAcc = false
				return em.WriteRow(acc)
			}

			for {
				row, err := im.Read()
				if err == io.EOF {
					break
				}
				if err != nil {
					return err
				}
				file, line := im.Pos()
				ctx := command.RowContext(row, file, line, named)
				action, err := filter.Decide(ctx)
				if err != nil {
					return err
				}
				if action == command.ActionSkip {
					continue
				}
				if action == command.ActionPass {
					if err := flush(); err != nil {
						return err
					}
					if err := em.WriteRow(row); err != nil {
						return err
					}
					continue
				}

				if master != nil {
					v, err := expr.Eval(master, ctx)
					if err != nil {
						return err
					}
					if expr.Truthy(v) {
						if err := flush(); err != nil {
							return err
						}
						acc = append([]string(nil), row...)
						haveAcc = true
					} else if haveAcc {
						acc = append(acc, row...)
					} else {
						if err := em.WriteRow(row); err != nil {
							return err
						}
					}
					continue
				}

				key := strings.Join(fields.Project(row, keys), "\x00")
				if !haveAcc {
					acc = append([]string(nil), row...)
					lastKey = key
					haveAcc = true
					continue
				}
				if key == lastKey {
					detail := fields.Exclude(row, keys)
					acc = append(acc, detail...)
					continue
				}
				if err := flush(); err != nil {
					return err
				}
				acc = append([]string(nil), row...)
				lastKey = key
				haveAcc = true
			}
			if err := flush(); err != nil {
				return err
			}
			return em.Flush()
		}
		return cmd
	})
}

// unflatten inverts flatten: a fixed number of leading key fields plus N
// detail fields per output row, re-chunked from one wide accumulated row.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("unflatten", "split a flattened row back into fixed-size detail chunks")
		fs := cmd.Flags()
		keyCount := flagInt(fs, "k", 1, "number of leading key fields")
		chunkSize := flagInt(fs, "n", 1, "number of detail fields per output row")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			kc, n := 1, 1
			if keyCount != nil {
				kc = *keyCount
			}
			if chunkSize != nil && *chunkSize > 0 {
				n = *chunkSize
			}
			return command.RunStreaming(g, args, func(row []string, _ *expr.Context) ([][]string, error) {
				if len(row) < kc {
					return [][]string{row}, nil
				}
				key := row[:kc]
				details := row[kc:]
				if len(details) == 0 {
					return [][]string{append([]string(nil), key...)}, nil
				}
				var out [][]string
				for i := 0; i < len(details); i += n {
					end := i + n
					if end > len(details) {
						end = len(details)
					}
					chunk := append([]string(nil), key...)
					chunk = append(chunk, details[i:end]...)
					out = append(out, chunk)
				}
				return out, nil
			})
		}
		return cmd
	})
}
