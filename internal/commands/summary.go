package commands

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/nwidger/csvfix/internal/command"
	"github.com/nwidger/csvfix/internal/expr"
	"github.com/nwidger/csvfix/internal/fields"
)

// summary implements the -avg/-sum/-min/-max/-med/-mod/-frq/-siz action
// set of spec.md §4.5.8, exactly one of which must be chosen —
// `CountNonGeneric` (internal/command) is the helper named by
// spec.md §4.4 for enforcing that, grounded on csved_summary.cpp
// (original_source)'s single-action dispatch.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("summary", "compute a summary statistic over listed fields")
		fs := cmd.Flags()
		fieldSpec := flagString(fs, "f", "", "field list to summarise")
		avg := flagBool(fs, "avg", false, "average")
		sum := flagBool(fs, "sum", false, "sum")
		min := flagBool(fs, "min", false, "rows tied for the field-list minimum")
		max := flagBool(fs, "max", false, "rows tied for the field-list maximum")
		med := flagBool(fs, "med", false, "per-field median")
		mod := flagBool(fs, "mod", false, "rows tied for the highest key frequency")
		frq := flagBool(fs, "frq", false, "prepend each row's key frequency")
		siz := flagBool(fs, "siz", false, "stream field_index: min_len, max_len")

		cmd.RunE = func(c *cobra.Command, args []string) error {
			chosen := command.CountNonGeneric(fs, "avg", "sum", "min", "max", "med", "mod", "frq", "siz")
			if chosen != 1 {
				return &command.CompileError{Expr: "summary", Msg: "exactly one action flag is required"}
			}
			on, err := fields.Parse(*fieldSpec)
			if err != nil {
				return err
			}
			idx := on.Indices()

			if siz != nil && *siz {
				return runSummarySiz(g, args, idx)
			}

			rows, im, err := command.ReadAll(g, args)
			if err != nil {
				return err
			}
			defer im.Close()

			em, err := g.OpenOutput()
			if err != nil {
				return err
			}

			switch {
			case avg != nil && *avg:
				err = summaryAvgSum(em, rows, idx, true)
			case sum != nil && *sum:
				err = summaryAvgSum(em, rows, idx, false)
			case min != nil && *min:
				err = summaryExtremum(em, rows, idx, true)
			case max != nil && *max:
				err = summaryExtremum(em, rows, idx, false)
			case med != nil && *med:
				err = summaryMedian(em, rows, idx)
			case frq != nil && *frq:
				err = summaryFrequency(em, rows, idx, false)
			case mod != nil && *mod:
				err = summaryFrequency(em, rows, idx, true)
			}
			if err != nil {
				return err
			}
			return em.Flush()
		}
		return cmd
	})
}

func runSummarySiz(g *command.Global, args []string, idx []int) error {
	mins := map[int]int{}
	maxs := map[int]int{}
	err := command.RunStreaming(g, args, func(row []string, _ *expr.Context) ([][]string, error) {
		targets := idx
		if len(targets) == 0 {
			targets = make([]int, len(row))
			for i := range row {
				targets[i] = i
			}
		}
		for _, i := range targets {
			l := len(fields.At(row, i))
			if cur, ok := mins[i]; !ok || l < cur {
				mins[i] = l
			}
			if cur, ok := maxs[i]; !ok || l > cur {
				maxs[i] = l
			}
		}
		return nil, nil
	})
	if err != nil {
		return err
	}
	em, err := g.OpenOutput()
	if err != nil {
		return err
	}
	keys := make([]int, 0, len(mins))
	for i := range mins {
		keys = append(keys, i)
	}
	sort.Ints(keys)
	for _, i := range keys {
		if err := em.WriteRaw(strconv.Itoa(i+1) + ": " + strconv.Itoa(mins[i]) + ", " + strconv.Itoa(maxs[i]) + "\n"); err != nil {
			return err
		}
	}
	return em.Flush()
}

func summaryAvgSum(em summaryEmitter, rows [][]string, idx []int, average bool) error {
	sums := map[int]decimal.Decimal{}
	counts := map[int]int{}
	targets := idx
	if len(targets) == 0 && len(rows) > 0 {
		targets = make([]int, len(rows[0]))
		for i := range rows[0] {
			targets[i] = i
		}
	}
	for _, row := range rows {
		for _, i := range targets {
			v := fields.At(row, i)
			if expr.IsNumber(v) {
				d, err := decimal.NewFromString(strings.TrimSpace(v))
				if err != nil {
					continue
				}
				sums[i] = sums[i].Add(d)
				counts[i]++
			}
		}
	}
	var out []string
	for _, i := range targets {
		v := sums[i]
		if average && counts[i] > 0 {
			v = v.DivRound(decimal.NewFromInt(int64(counts[i])), 6)
		}
		out = append(out, v.String())
	}
	return em.WriteRow(out)
}

func summaryExtremum(em summaryEmitter, rows [][]string, idx []int, wantMin bool) error {
	if len(rows) == 0 {
		return nil
	}
	spec := keyFieldsFromIndices(idx)
	best := rows[0]
	for _, row := range rows[1:] {
		c := keyCompare(spec, row, best)
		if (wantMin && c < 0) || (!wantMin && c > 0) {
			best = row
		}
	}
	for _, row := range rows {
		if keyCompare(spec, row, best) == 0 {
			if err := em.WriteRow(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func summaryMedian(em summaryEmitter, rows [][]string, idx []int) error {
	targets := idx
	if len(targets) == 0 && len(rows) > 0 {
		targets = make([]int, len(rows[0]))
		for i := range rows[0] {
			targets[i] = i
		}
	}
	var out []string
	for _, i := range targets {
		var vals []decimal.Decimal
		for _, row := range rows {
			v := fields.At(row, i)
			if expr.IsNumber(v) {
				d, err := decimal.NewFromString(strings.TrimSpace(v))
				if err != nil {
					continue
				}
				vals = append(vals, d)
			}
		}
		sort.Slice(vals, func(a, b int) bool { return vals[a].Cmp(vals[b]) < 0 })
		med := decimal.Zero
		if n := len(vals); n > 0 {
			if n%2 == 1 {
				med = vals[n/2]
			} else {
				med = vals[n/2-1].Add(vals[n/2]).DivRound(decimal.NewFromInt(2), 6)
			}
		}
		out = append(out, med.String())
	}
	return em.WriteRow(out)
}

func summaryFrequency(em summaryEmitter, rows [][]string, idx []int, modeOnly bool) error {
	keyOf := func(row []string) string {
		targets := idx
		if len(targets) == 0 {
			targets = make([]int, len(row))
			for i := range row {
				targets[i] = i
			}
		}
		parts := make([]string, len(targets))
		for i, t := range targets {
			parts[i] = fields.At(row, t)
		}
		return strings.Join(parts, "\x00")
	}
	counts := map[string]int{}
	for _, row := range rows {
		counts[keyOf(row)]++
	}
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	for _, row := range rows {
		c := counts[keyOf(row)]
		if modeOnly && c != maxCount {
			continue
		}
		out := append([]string{strconv.Itoa(c)}, row...)
		if err := em.WriteRow(out); err != nil {
			return err
		}
	}
	return nil
}

func keyFieldsFromIndices(idx []int) []keyField {
	out := make([]keyField, len(idx))
	for i, ix := range idx {
		out[i] = keyField{index: ix}
	}
	return out
}

type keyField struct{ index int }

func keyCompare(spec []keyField, a, b []string) int {
	for _, f := range spec {
		x, y := fields.At(a, f.index), fields.At(b, f.index)
		var c int
		if expr.IsNumber(x) && expr.IsNumber(y) {
			xf, _ := strconv.ParseFloat(strings.TrimSpace(x), 64)
			yf, _ := strconv.ParseFloat(strings.TrimSpace(y), 64)
			switch {
			case xf < yf:
				c = -1
			case xf > yf:
				c = 1
			}
		} else {
			c = strings.Compare(x, y)
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// summaryEmitter is the subset of csvio.Emitter the summary helpers need.
type summaryEmitter interface {
	WriteRow(row []string) error
}
