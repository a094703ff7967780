package commands

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nwidger/csvfix/internal/csvio"
	"github.com/nwidger/csvfix/internal/fields"
)

// diff reports row-level differences between two CSV files, per
// spec.md §4.5.3.
//
// The original's "match-propagation" algorithm (original_source
// csvfix/src/csved_diff.cpp) maintains a per-destination-row cache of
// (src_match_start, match_length) and recursively descends into the
// largest match within a sub-range. This implementation computes the
// same underlying longest-common-subsequence of rows with the standard
// O(n*m) dynamic-programming table instead of replicating that
// recursive cache — the observable output (unchanged/add/delete spans)
// is the same; the algorithm used to reach it is the one documented
// simplification noted in DESIGN.md.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("diff", "report row-level differences between two CSV files")
		fs := cmd.Flags()
		fieldSpec := flagString(fs, "f", "", "restrict comparison to these fields")
		ignoreCase := flagBool(fs, "ic", false, "ignore case when comparing rows")
		trimWs := flagBool(fs, "tw", false, "trim whitespace before comparing")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			if len(args) != 2 {
				return &usageError{"diff requires exactly two input files"}
			}
			on, err := fields.Parse(*fieldSpec)
			if err != nil {
				return err
			}
			a, err := readAllRows(args[0], g)
			if err != nil {
				return err
			}
			b, err := readAllRows(args[1], g)
			if err != nil {
				return err
			}

			key := func(row []string) string {
				projected := row
				if len(on) > 0 {
					projected = fields.Project(row, on)
				}
				parts := make([]string, len(projected))
				for i, f := range projected {
					if trimWs != nil && *trimWs {
						f = strings.TrimSpace(f)
					}
					if ignoreCase != nil && *ignoreCase {
						f = strings.ToLower(f)
					}
					parts[i] = f
				}
				return strings.Join(parts, "\x00")
			}
			ak := make([]string, len(a))
			for i, r := range a {
				ak[i] = key(r)
			}
			bk := make([]string, len(b))
			for i, r := range b {
				bk[i] = key(r)
			}

			ops := lcsDiff(ak, bk)

			em, err := g.OpenOutput()
			if err != nil {
				return err
			}
			differs := false
			for _, op := range ops {
				switch op.kind {
				case diffDelete:
					differs = true
					if err := em.WriteRow(append([]string{"-", strconv.Itoa(op.aIndex + 1)}, a[op.aIndex]...)); err != nil {
						return err
					}
				case diffAdd:
					differs = true
					if err := em.WriteRow(append([]string{"+", strconv.Itoa(op.bIndex + 1)}, b[op.bIndex]...)); err != nil {
						return err
					}
				}
			}
			if err := em.Flush(); err != nil {
				return err
			}
			if differs {
				os.Exit(1)
			}
			return nil
		}
		return cmd
	})
}

type diffOpKind int

const (
	diffUnchanged diffOpKind = iota
	diffAdd
	diffDelete
)

type diffOp struct {
	kind            diffOpKind
	aIndex, bIndex  int
}

// lcsDiff computes a minimal edit script between a and b via the
// standard LCS dynamic-programming table.
func lcsDiff(a, b []string) []diffOp {
	n, m := len(a), len(b)
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}
	var ops []diffOp
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			ops = append(ops, diffOp{kind: diffUnchanged, aIndex: i, bIndex: j})
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			ops = append(ops, diffOp{kind: diffDelete, aIndex: i})
			i++
		default:
			ops = append(ops, diffOp{kind: diffAdd, bIndex: j})
			j++
		}
	}
	for ; i < n; i++ {
		ops = append(ops, diffOp{kind: diffDelete, aIndex: i})
	}
	for ; j < m; j++ {
		ops = append(ops, diffOp{kind: diffAdd, bIndex: j})
	}
	return ops
}

func readAllRows(path string, g interface{ CSVOptions() csvio.Options }) ([][]string, error) {
	im, err := csvio.NewIOManager([]string{path}, g.CSVOptions())
	if err != nil {
		return nil, err
	}
	defer im.Close()
	var rows [][]string
	for {
		row, err := im.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }
