package commands

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/nwidger/csvfix/internal/command"
	"github.com/nwidger/csvfix/internal/fields"
)

// pivot builds a simple sum/avg/count pivot table over three named
// columns (column-key, row-key, fact), per spec.md §4.5.14. Grounded on
// original_source csved_pivot.cpp's ColRow/SumCount accumulation map;
// uses github.com/shopspring/decimal (SPEC_FULL.md §B) for the running
// sum instead of float64 to avoid accumulation error across a large
// buffered input.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("pivot", "build a sum/avg/count pivot table over two key columns")
		fs := cmd.Flags()
		colField := flagInt(fs, "c", 0, "1-based column-key field")
		rowField := flagInt(fs, "r", 0, "1-based row-key field")
		factField := flagInt(fs, "f", 0, "1-based fact field")
		action := flagString(fs, "a", "sum", "action: sum, avg, count")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			if *colField < 1 || *rowField < 1 || *factField < 1 {
				return &command.CompileError{Expr: "pivot", Msg: "-c, -r and -f are all required and 1-based"}
			}
			if *colField == *rowField {
				return &command.CompileError{Expr: "pivot", Msg: "-c and -r cannot name the same field"}
			}
			colIdx, rowIdx, factIdx := *colField-1, *rowField-1, *factField-1
			wantAvg := *action == "avg"
			wantCount := *action == "count"
			if !wantAvg && !wantCount && *action != "sum" {
				return &command.CompileError{Expr: *action, Msg: "action must be one of sum, avg, count"}
			}

			rows, im, err := command.ReadAll(g, args)
			if err != nil {
				return err
			}
			defer im.Close()

			type cell struct {
				sum   decimal.Decimal
				count int
			}
			cells := map[[2]string]*cell{}
			colSeen := map[string]bool{}
			rowSeen := map[string]bool{}
			var cols, rowKeys []string

			for _, row := range rows {
				c := fields.At(row, colIdx)
				r := fields.At(row, rowIdx)
				fact := fields.At(row, factIdx)
				if !colSeen[c] {
					colSeen[c] = true
					cols = append(cols, c)
				}
				if !rowSeen[r] {
					rowSeen[r] = true
					rowKeys = append(rowKeys, r)
				}
				key := [2]string{c, r}
				cl := cells[key]
				if cl == nil {
					cl = &cell{}
					cells[key] = cl
				}
				cl.count++
				if !wantCount {
					d, err := decimal.NewFromString(fact)
					if err != nil {
						return &command.CompileError{Expr: fact, Msg: "non-numeric fact value"}
					}
					cl.sum = cl.sum.Add(d)
				}
			}
			sort.Strings(cols)
			sort.Strings(rowKeys)

			em, err := g.OpenOutput()
			if err != nil {
				return err
			}
			header := append([]string{""}, cols...)
			if err := em.WriteRow(header); err != nil {
				return err
			}
			for _, r := range rowKeys {
				out := []string{r}
				for _, c := range cols {
					cl := cells[[2]string{c, r}]
					switch {
					case cl == nil:
						out = append(out, "0")
					case wantCount:
						out = append(out, strconv.Itoa(cl.count))
					case wantAvg:
						out = append(out, cl.sum.Div(decimal.NewFromInt(int64(cl.count))).String())
					default:
						out = append(out, cl.sum.String())
					}
				}
				if err := em.WriteRow(out); err != nil {
					return err
				}
			}
			return em.Flush()
		}
		return cmd
	})
}
