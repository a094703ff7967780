package commands

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/nwidger/csvfix/internal/command"
	"github.com/nwidger/csvfix/internal/csvio"
	"github.com/nwidger/csvfix/internal/expr"
	"github.com/nwidger/csvfix/internal/fields"
)

// The commands in this file round out SPEC_FULL.md §C's "supplemented
// features" list: functionality original_source/csvfix has that the
// distilled spec.md dropped, but that a complete csvfix reimplementation
// should still carry. Each is grounded on the matching original_source
// csved_*.h/.cpp file named in its doc comment.

// exclude drops the fields named by -f (or -rf, counted from the end of
// the record) from output, optionally gated by -if, per original_source
// csved_exclude.cpp.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("exclude", "exclude fields from output")
		fs := cmd.Flags()
		fieldSpec := flagString(fs, "f", "", "fields to exclude")
		revSpec := flagString(fs, "rf", "", "fields to exclude, counted from the end of the record")
		ifExpr := flagString(fs, "if", "", "only exclude when this expression is truthy")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			if *fieldSpec != "" && *revSpec != "" {
				return &command.CompileError{Expr: "exclude", Msg: "-f and -rf cannot both be given"}
			}
			reverse := *revSpec != ""
			spec := *fieldSpec
			if reverse {
				spec = *revSpec
			}
			if spec == "" {
				return &command.CompileError{Expr: "exclude", Msg: "-f or -rf is required"}
			}
			fl, err := fields.Parse(spec)
			if err != nil {
				return err
			}
			var cond *expr.Program
			if *ifExpr != "" {
				p, errMsg := expr.Compile(*ifExpr)
				if errMsg != "" {
					return &command.CompileError{Expr: *ifExpr, Msg: errMsg}
				}
				cond = p
			}

			return command.RunStreaming(g, args, func(row []string, ctx *expr.Context) ([][]string, error) {
				if cond != nil {
					v, err := expr.Eval(cond, ctx)
					if err != nil {
						return nil, err
					}
					if !expr.Truthy(v) {
						return [][]string{row}, nil
					}
				}
				work := row
				if reverse {
					work = reversed(row)
				}
				out := fields.Exclude(work, fl)
				if reverse {
					out = reversed(out)
				}
				return [][]string{out}, nil
			})
		}
		return cmd
	})
}

func reversed(row []string) []string {
	out := make([]string, len(row))
	for i, f := range row {
		out[len(row)-1-i] = f
	}
	return out
}

// mapValue rewrites field values found in a "from" list to the
// corresponding "to" list entry (by position, or the last "to" entry if
// "to" is shorter than "from"; an empty "to" list maps to ""), per
// original_source csved_map.cpp. This is a value rewrite, not a column
// rename/reindex, despite the generic name csvfix gives it.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("map", "map input field values to new values on output")
		fs := cmd.Flags()
		fieldSpec := flagString(fs, "f", "", "fields to map (default all)")
		fromSpec := flagString(fs, "fv", "", "comma-separated values to map from (required)")
		toSpec := flagString(fs, "tv", "", "comma-separated values to map to (may be empty)")
		ignoreCase := flagBool(fs, "ic", false, "ignore case when matching")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			if *fromSpec == "" {
				return &command.CompileError{Expr: "map", Msg: "-fv is required"}
			}
			on, err := fields.Parse(*fieldSpec)
			if err != nil {
				return err
			}
			from := strings.Split(*fromSpec, ",")
			var to []string
			if *toSpec != "" {
				to = strings.Split(*toSpec, ",")
			}
			if len(to) > len(from) {
				return &command.CompileError{Expr: "map", Msg: "-tv list cannot be longer than -fv list"}
			}
			ic := ignoreCase != nil && *ignoreCase

			expand := func(val string, out []string) (string, error) {
				if !strings.HasPrefix(val, "$") {
					return val, nil
				}
				rest := val[1:]
				if strings.HasPrefix(rest, "$") {
					return rest, nil
				}
				n, err := strconv.Atoi(rest)
				if err != nil || n < 1 {
					return "", &command.CompileError{Expr: val, Msg: "invalid field specifier in -tv"}
				}
				return fields.At(out, n-1), nil
			}

			mapValue := func(val string, out []string) (string, error) {
				for i, f := range from {
					match := f == val
					if ic {
						match = strings.EqualFold(f, val)
					}
					if !match {
						continue
					}
					switch {
					case len(to) == 0:
						return "", nil
					case len(to) == len(from):
						return expand(to[i], out)
					default:
						return expand(to[len(to)-1], out)
					}
				}
				return val, nil
			}

			return command.RunStreaming(g, args, func(row []string, _ *expr.Context) ([][]string, error) {
				out := append([]string(nil), row...)
				targets := on.Indices()
				if len(targets) == 0 {
					targets = make([]int, len(out))
					for i := range out {
						targets[i] = i
					}
				}
				for _, i := range targets {
					if i >= len(out) {
						continue
					}
					v, err := mapValue(out[i], out)
					if err != nil {
						return nil, err
					}
					out[i] = v
				}
				return [][]string{out}, nil
			})
		}
		return cmd
	})
}

// merge combines several fields (default: all of them) into a single
// field, joined by -s, placed at -p (default: the first merged field's
// position, which is the first position when no fields were named), optionally
// retaining the merged-away fields via -k, per original_source
// csved_merge.cpp's DoMerge/BuildNewRow.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("merge", "merge several fields into a single field")
		fs := cmd.Flags()
		fieldSpec := flagString(fs, "f", "", "fields to merge (default all)")
		sep := flagString(fs, "s", " ", "separator to join merged fields with")
		posSpec := flagString(fs, "p", "", "1-based position to place the merged field at (default: first merged field's position)")
		keep := flagBool(fs, "k", false, "retain the original merged fields in output")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			fl, err := fields.Parse(*fieldSpec)
			if err != nil {
				return err
			}
			cols := fl.Indices()
			pos := 0
			if len(cols) > 0 {
				pos = cols[0]
			}
			if *posSpec != "" {
				n, err := strconv.Atoi(strings.TrimSpace(*posSpec))
				if err != nil || n < 1 {
					return &command.CompileError{Expr: *posSpec, Msg: "-p must be a positive integer"}
				}
				pos = n - 1
			}
			joinWith := *sep
			k := keep != nil && *keep
			colSet := map[int]bool{}
			for _, c := range cols {
				colSet[c] = true
			}

			return command.RunStreaming(g, args, func(row []string, _ *expr.Context) ([][]string, error) {
				var parts []string
				if len(cols) != 0 {
					for _, c := range cols {
						parts = append(parts, fields.At(row, c))
					}
				} else {
					parts = append(parts, row...)
				}
				merged := strings.Join(parts, joinWith)

				var out []string
				for i, f := range row {
					if pos == i {
						out = append(out, merged)
					}
					if k || (len(cols) != 0 && !colSet[i]) {
						out = append(out, f)
					}
				}
				if pos >= len(row) {
					out = append(out, merged)
				}
				return [][]string{out}, nil
			})
		}
		return cmd
	})
}

// squash collapses every row sharing the same key-field values (-k) into
// a single output row, accumulating the value fields named by -f either
// as a running decimal sum (-n) or as the set of distinct values seen,
// per original_source csved_squash.h's SquashValues/map<key,values>
// shape (the retrieved pack has no csved_squash.cpp body, so the
// accumulation strategy itself is this implementation's own design,
// recorded as an Open Question resolution in DESIGN.md).
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("squash", "squash rows sharing key field values into one row")
		fs := cmd.Flags()
		keySpec := flagString(fs, "k", "", "key fields (required)")
		valSpec := flagString(fs, "f", "", "value fields to accumulate (default: all non-key fields)")
		numeric := flagBool(fs, "n", false, "accumulate value fields as a decimal sum instead of a distinct-value list")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			if *keySpec == "" {
				return &command.CompileError{Expr: "squash", Msg: "-k is required"}
			}
			keys, err := fields.Parse(*keySpec)
			if err != nil {
				return err
			}
			vals, err := fields.Parse(*valSpec)
			if err != nil {
				return err
			}
			numericMode := numeric != nil && *numeric

			rows, im, err := command.ReadAll(g, args)
			if err != nil {
				return err
			}
			defer im.Close()

			keyIdx := keys.Indices()
			valIdx := vals.Indices()

			type accum struct {
				key    []string
				sum    decimal.Decimal
				seen   map[string]bool
				values []string
			}
			order := map[string]int{}
			var groups []*accum

			for _, row := range rows {
				var keyParts []string
				for _, i := range keyIdx {
					keyParts = append(keyParts, fields.At(row, i))
				}
				k := strings.Join(keyParts, "\x1f")
				gi, ok := order[k]
				if !ok {
					gi = len(groups)
					order[k] = gi
					groups = append(groups, &accum{key: keyParts, seen: map[string]bool{}})
				}
				grp := groups[gi]
				targets := valIdx
				if len(targets) == 0 {
					targets = nil
					for i := range row {
						if !containsInt(keyIdx, i) {
							targets = append(targets, i)
						}
					}
				}
				for _, i := range targets {
					v := fields.At(row, i)
					if numericMode {
						d, err := decimal.NewFromString(strings.TrimSpace(v))
						if err != nil {
							return &command.CompileError{Expr: v, Msg: "non-numeric value in squash -n mode"}
						}
						grp.sum = grp.sum.Add(d)
					} else if !grp.seen[v] {
						grp.seen[v] = true
						grp.values = append(grp.values, v)
					}
				}
			}

			em, err := g.OpenOutput()
			if err != nil {
				return err
			}
			for _, a := range groups {
				out := append([]string(nil), a.key...)
				if numericMode {
					out = append(out, a.sum.String())
				} else {
					out = append(out, strings.Join(a.values, "|"))
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

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// unique removes duplicate rows (keyed on -f, or the whole row by
// default); -d inverts the output to show only rows that had at least
// one duplicate, per original_source csved_unique.h's
// map<key,RowInfo{first,count}> shape.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("unique", "remove duplicate rows")
		fs := cmd.Flags()
		keySpec := flagString(fs, "f", "", "key fields (default: whole row)")
		showDupes := flagBool(fs, "d", false, "show duplicate rows instead of unique ones")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			keys, err := fields.Parse(*keySpec)
			if err != nil {
				return err
			}
			keyIdx := keys.Indices()
			makeKey := func(row []string) string {
				if len(keyIdx) == 0 {
					return strings.Join(row, "\x1f")
				}
				var parts []string
				for _, i := range keyIdx {
					parts = append(parts, fields.At(row, i))
				}
				return strings.Join(parts, "\x1f")
			}

			rows, im, err := command.ReadAll(g, args)
			if err != nil {
				return err
			}
			defer im.Close()

			counts := map[string]int{}
			for _, row := range rows {
				counts[makeKey(row)]++
			}

			em, err := g.OpenOutput()
			if err != nil {
				return err
			}
			dupes := showDupes != nil && *showDupes
			seen := map[string]bool{}
			for _, row := range rows {
				k := makeKey(row)
				if dupes {
					if counts[k] > 1 {
						if err := em.WriteRow(row); err != nil {
							return err
						}
					}
					continue
				}
				if seen[k] {
					continue
				}
				seen[k] = true
				if err := em.WriteRow(row); err != nil {
					return err
				}
			}
			return em.Flush()
		}
		return cmd
	})
}

// number canonicalizes fields written with a non-Go thousands/decimal
// separator convention (EN: "1,234.00", EU: "1.234,00") to a plain
// "1234.00" form, per original_source csved_number.cpp's ConvertField.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("number", "convert formatted numeric fields to plain numeric")
		fs := cmd.Flags()
		fieldSpec := flagString(fs, "f", "", "fields to convert (default all)")
		format := flagString(fs, "fmt", "EN", "input format: EN (1,234.00) or EU (1.234,00)")
		errStr := flagString(fs, "es", "", "replace unconvertible fields with this string")
		errExit := flagBool(fs, "ec", false, "unconvertible field is a fatal error")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			if *format != "EN" && *format != "EU" {
				return &command.CompileError{Expr: *format, Msg: "-fmt must be EN or EU"}
			}
			if errExit != nil && *errExit && *errStr != "" {
				return &command.CompileError{Expr: "number", Msg: "-ec and -es cannot both be given"}
			}
			on, err := fields.Parse(*fieldSpec)
			if err != nil {
				return err
			}
			ts, dp := byte(','), byte('.')
			if *format == "EU" {
				ts, dp = '.', ','
			}
			exitOnErr := errExit != nil && *errExit
			hasErrStr := *errStr != ""

			convert := func(field string) (string, error) {
				var b strings.Builder
				havedp := false
				for i := 0; i < len(field); i++ {
					c := field[i]
					switch {
					case c == dp:
						havedp = true
						b.WriteByte('.')
					case c == ts && !havedp:
						continue
					default:
						b.WriteByte(c)
					}
				}
				s := b.String()
				if !expr.IsNumber(s) {
					if exitOnErr {
						return "", &command.CompileError{Expr: field, Msg: "invalid number"}
					}
					if hasErrStr {
						return *errStr, nil
					}
					return field, nil
				}
				return s, nil
			}

			return command.RunStreaming(g, args, func(row []string, _ *expr.Context) ([][]string, error) {
				out := append([]string(nil), row...)
				targets := on.Indices()
				if len(targets) == 0 {
					targets = make([]int, len(out))
					for i := range out {
						targets[i] = i
					}
				}
				for _, i := range targets {
					if i >= len(out) {
						continue
					}
					v, err := convert(out[i])
					if err != nil {
						return nil, err
					}
					out[i] = v
				}
				return [][]string{out}, nil
			})
		}
		return cmd
	})
}

// splitInsert splices split-out fields into row at the original field's
// index, appending the original field afterwards when keep is set, per
// original_source csved_split.h's SplitBase::Insert.
func splitInsert(row []string, field int, split []string, keep bool) []string {
	var out []string
	for i, f := range row {
		if i == field {
			out = append(out, split...)
			if keep {
				out = append(out, f)
			}
			continue
		}
		out = append(out, f)
	}
	if field >= len(row) {
		out = append(out, split...)
	}
	return out
}

// split_fixed splits one field into several at fixed start:len positions
// (1-based start, comma-separated pairs), per original_source
// csved_split.cpp's SplitFixed.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("split_fixed", "split a field into several at fixed positions")
		fs := cmd.Flags()
		fieldSpec := flagInt(fs, "f", 0, "1-based field to split (required)")
		posSpec := flagString(fs, "p", "", "comma-separated start:len position pairs (required)")
		keep := flagBool(fs, "k", false, "retain the original field after the split fields")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			if *fieldSpec < 1 {
				return &command.CompileError{Expr: "split_fixed", Msg: "-f is required and 1-based"}
			}
			if *posSpec == "" {
				return &command.CompileError{Expr: "split_fixed", Msg: "-p is required"}
			}
			type posPair struct{ start, length int }
			var positions []posPair
			for _, p := range strings.Split(*posSpec, ",") {
				start, length, ok := strings.Cut(p, ":")
				if !ok {
					return &command.CompileError{Expr: p, Msg: "position must be start:len"}
				}
				s, err := strconv.Atoi(strings.TrimSpace(start))
				if err != nil || s < 1 {
					return &command.CompileError{Expr: p, Msg: "invalid start position"}
				}
				l, err := strconv.Atoi(strings.TrimSpace(length))
				if err != nil || l < 1 {
					return &command.CompileError{Expr: p, Msg: "invalid length"}
				}
				positions = append(positions, posPair{start: s - 1, length: l})
			}
			field := *fieldSpec - 1
			k := keep != nil && *keep

			return command.RunStreaming(g, args, func(row []string, _ *expr.Context) ([][]string, error) {
				target := fields.At(row, field)
				var split []string
				for _, p := range positions {
					if p.start > len(target) {
						split = append(split, "")
						continue
					}
					end := p.start + p.length
					if end > len(target) {
						end = len(target)
					}
					split = append(split, target[p.start:end])
				}
				return [][]string{splitInsert(row, field, split, k)}, nil
			})
		}
		return cmd
	})
}

// split_char splits one field either at a literal character/string (-c,
// default a single space) or at the first alpha->numeric (-tan) or
// numeric->alpha (-tna) character-class transition, per original_source
// csved_split.cpp's SplitChar.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("split_char", "split a field at a character or an alpha/numeric transition")
		fs := cmd.Flags()
		fieldSpec := flagInt(fs, "f", 0, "1-based field to split (required)")
		charSpec := flagString(fs, "c", " ", "character(s) to split on")
		tranA2N := flagBool(fs, "tan", false, "split at the first alpha-to-numeric transition")
		tranN2A := flagBool(fs, "tna", false, "split at the first numeric-to-alpha transition")
		keep := flagBool(fs, "k", false, "retain the original field after the split fields")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			if *fieldSpec < 1 {
				return &command.CompileError{Expr: "split_char", Msg: "-f is required and 1-based"}
			}
			a2n := tranA2N != nil && *tranA2N
			n2a := tranN2A != nil && *tranN2A
			if a2n && n2a {
				return &command.CompileError{Expr: "split_char", Msg: "-tan and -tna cannot both be given"}
			}
			field := *fieldSpec - 1
			k := keep != nil && *keep

			isAlpha := func(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
			isDigit := func(b byte) bool { return b >= '0' && b <= '9' }

			return command.RunStreaming(g, args, func(row []string, _ *expr.Context) ([][]string, error) {
				target := fields.At(row, field)
				var split []string
				switch {
				case a2n || n2a:
					var last byte
					found := false
					for i := 0; i < len(target); i++ {
						c := target[i]
						if (a2n && isDigit(c) && isAlpha(last)) || (n2a && isAlpha(c) && isDigit(last)) {
							split = []string{target[:i], target[i:]}
							found = true
							break
						}
						last = c
					}
					if !found {
						return [][]string{row}, nil
					}
				default:
					sep := *charSpec
					if sep == "" {
						return nil, &command.CompileError{Expr: "split_char", Msg: "-c cannot be empty"}
					}
					split = strings.Split(target, sep)
				}
				return [][]string{splitInsert(row, field, split, k)}, nil
			})
		}
		return cmd
	})
}

// evalvars is a diagnostic command that lists the named variables
// (line, file, fields and any -v bindings) the expression engine binds
// for each row, per original_source csved_evalvars.h's AddVars.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("evalvars", "list the named expression variables bound for each row (output is not CSV)")
		cmd.RunE = func(_ *cobra.Command, args []string) error {
			em, err := g.OpenOutput()
			if err != nil {
				return err
			}
			err = command.RunStreaming(g, args, func(row []string, ctx *expr.Context) ([][]string, error) {
				names := make([]string, 0, len(ctx.Named))
				for n := range ctx.Named {
					names = append(names, n)
				}
				sort.Strings(names)
				var lines []string
				for _, n := range names {
					lines = append(lines, n+"="+ctx.Named[n])
				}
				return nil, em.WriteRaw(strings.Join(lines, ",") + "\n")
			})
			if err != nil {
				return err
			}
			return em.Flush()
		}
		return cmd
	})
}

// inter interleaves fields from exactly two CSV sources, selected by -f
// field specs of the form L<n>/R<n> (1-based), or concatenates both rows
// if -f is omitted, per original_source csved_inter.cpp.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("inter", "interleave fields from two CSV sources")
		fs := cmd.Flags()
		fieldSpec := flagString(fs, "f", "", "comma-separated L<n>/R<n> field specs")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			type fieldSrc struct {
				left  bool
				index int
			}
			var specs []fieldSrc
			if *fieldSpec != "" {
				for _, p := range strings.Split(*fieldSpec, ",") {
					p = strings.TrimSpace(p)
					if len(p) < 2 {
						return &command.CompileError{Expr: p, Msg: "invalid field spec"}
					}
					src := strings.ToUpper(p[:1])
					if src != "L" && src != "R" {
						return &command.CompileError{Expr: p, Msg: "field spec must start with L or R"}
					}
					n, err := strconv.Atoi(p[1:])
					if err != nil || n < 1 {
						return &command.CompileError{Expr: p, Msg: "field index must be a positive integer"}
					}
					specs = append(specs, fieldSrc{left: src == "L", index: n - 1})
				}
			}

			im, err := csvio.NewIOManager(args, g.CSVOptions())
			if err != nil {
				return err
			}
			defer im.Close()
			if im.StreamCount() != 2 {
				return &command.CompileError{Expr: "inter", Msg: "inter requires exactly two input streams"}
			}
			em, err := g.OpenOutput()
			if err != nil {
				return err
			}

			p0 := im.CreateStreamParser(0)
			p1 := im.CreateStreamParser(1)
			for {
				row0, err := p0.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					return err
				}
				row1, rerr := p1.Next()
				if rerr != nil && rerr != io.EOF {
					return rerr
				}
				if rerr == io.EOF {
					row1 = nil
				}
				var out []string
				if len(specs) == 0 {
					out = append(append([]string(nil), row0...), row1...)
				} else {
					for _, s := range specs {
						if s.left {
							out = append(out, fields.At(row0, s.index))
						} else {
							out = append(out, fields.At(row1, s.index))
						}
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
