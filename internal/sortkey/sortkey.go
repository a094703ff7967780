// Package sortkey implements the multi-key row comparator of spec.md
// §4.5.1 (sort) and §4.5.2 (fmerge): a field-spec list with a per-field
// direction and comparator, ties falling through to the next field.
//
// Grounded on csvsort/main.go's cmp/createSortFunc
// (_examples/collosi-cursive/csvsort/main.go), which already does
// "byte-wise lexical, with a numeric-flag opt-in, chained over a
// FieldRange list" — this generalizes it with the spec's A/D (direction)
// and S/N/I (string/numeric/case-insensitive) flags and exposes a
// three-way Compare instead of a bool Less, so it also serves fmerge's
// "pick the minimal row". summary's min/max use their own comparator.
package sortkey

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nwidger/csvfix/internal/fields"
)

// Field describes one sort key: a 0-based column index, ascending vs
// descending, and a comparator mode.
type Field struct {
	Index      int
	Descending bool
	Numeric    bool
	CaseFold   bool
}

// Parse parses a comma-separated "idx[:flags]" list, flags drawn from
// {A,D,S,N,I}, per spec.md §4.5.1.
func Parse(spec string) ([]Field, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	var out []Field
	for _, part := range strings.Split(spec, ",") {
		idxStr, flagStr, _ := strings.Cut(part, ":")
		n, err := strconv.Atoi(strings.TrimSpace(idxStr))
		if err != nil {
			return nil, err
		}
		f := Field{Index: n - 1}
		for _, c := range strings.ToUpper(flagStr) {
			switch c {
			case 'A':
				f.Descending = false
			case 'D':
				f.Descending = true
			case 'N':
				f.Numeric = true
			case 'I':
				f.CaseFold = true
			case 'S':
				// explicit string mode, the default
			}
		}
		out = append(out, f)
	}
	return out, nil
}

// FromFieldList adapts a fields.List (as used by projection-style flags)
// into a Field set, all ascending/lexical except where f.Flag requests
// numeric ('n'/'N') comparison. No command calls it.
func FromFieldList(l fields.List) []Field {
	var out []Field
	for _, s := range l {
		for i := s.Start; i <= s.End; i++ {
			out = append(out, Field{Index: i, Numeric: s.Flag == 'n' || s.Flag == 'N'})
		}
	}
	return out
}

// Compare returns <0, 0, >0 comparing rows a and b under spec, the
// first non-zero per-field comparison deciding the result.
func Compare(spec []Field, a, b []string) int {
	for _, f := range spec {
		c := compareField(f, fields.At(a, f.Index), fields.At(b, f.Index))
		if c != 0 {
			if f.Descending {
				c = -c
			}
			return c
		}
	}
	return 0
}

func compareField(f Field, x, y string) int {
	if f.Numeric {
		dx, errx := decimal.NewFromString(strings.TrimSpace(x))
		dy, erry := decimal.NewFromString(strings.TrimSpace(y))
		switch {
		case errx == nil && erry == nil:
			return dx.Cmp(dy)
		case errx != nil && erry != nil:
			return strings.Compare(x, y)
		case errx != nil:
			return 1
		default:
			return -1
		}
	}
	if f.CaseFold {
		x, y = strings.ToLower(x), strings.ToLower(y)
	}
	return strings.Compare(x, y)
}

// Less adapts Compare to sort.Interface's boolean contract.
func Less(spec []Field, a, b []string) bool {
	return Compare(spec, a, b) < 0
}
