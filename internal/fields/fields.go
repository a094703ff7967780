// Package fields implements the "field list" data model of spec.md §3:
// ordered 0-based indices (and, for sort/merge/summary, a per-field
// direction/comparator flag) parsed from CLI strings like "1,3,5" or
// "4,5n". Generalized from the teacher's common.FieldRange
// (_examples/collosi-cursive/common/range.go), which parsed only
// "start[-end][flag]" ranges for csvcut/csvsort; this adds individual
// index lists (not just ranges) since most csvfix commands take a flat
// comma-list rather than a range syntax.
package fields

import (
	"fmt"
	"strconv"
	"strings"
)

// Spec is one parsed field-list entry: a 0-based index range [Start,End]
// (End == Start for a single field) with an optional trailing flag byte
// (e.g. 'N' numeric, 'D' descending — interpreted by the caller).
type Spec struct {
	Start int
	End   int
	Flag  byte
}

// List is an ordered sequence of Specs.
type List []Spec

// Indices expands List to a flat slice of 0-based indices, ignoring flags.
func (l List) Indices() []int {
	var out []int
	for _, s := range l {
		for i := s.Start; i <= s.End; i++ {
			out = append(out, i)
		}
	}
	return out
}

// Parse parses a comma-separated field-list string using 1-based indices
// on input, returning 0-based Specs. An empty string yields an empty List
// ("all fields", per spec.md §3) with no error.
func Parse(s string) (List, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make(List, 0, len(parts))
	for _, p := range parts {
		sp, err := parseOne(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, nil
}

func parseOne(tok string) (Spec, error) {
	var flag byte
	if n := len(tok); n > 0 {
		last := tok[n-1]
		if (last >= 'a' && last <= 'z') || (last >= 'A' && last <= 'Z') {
			flag = last
			tok = tok[:n-1]
		}
	}
	rangeParts := strings.SplitN(tok, "-", 2)
	start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
	if err != nil {
		return Spec{}, fmt.Errorf("invalid field index %q", rangeParts[0])
	}
	if start < 1 {
		return Spec{}, fmt.Errorf("field indices are 1-based, got %d", start)
	}
	if len(rangeParts) == 1 {
		return Spec{Start: start - 1, End: start - 1, Flag: flag}, nil
	}
	end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
	if err != nil {
		return Spec{}, fmt.Errorf("invalid field index %q", rangeParts[1])
	}
	return Spec{Start: start - 1, End: end - 1, Flag: flag}, nil
}

// At returns row[i], or "" if i is out of range (the "missing field is
// empty" rule of spec.md §3).
func At(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Project returns a new row containing only the fields named by l, in
// l's order, expanding ranges. A nil/empty l means "all fields".
func Project(row []string, l List) []string {
	if len(l) == 0 {
		return row
	}
	out := make([]string, 0, len(l))
	for _, s := range l {
		for i := s.Start; i <= s.End; i++ {
			out = append(out, At(row, i))
		}
	}
	return out
}

// Exclude returns row with the fields named by l removed, preserving the
// order of the remaining fields.
func Exclude(row []string, l List) []string {
	if len(l) == 0 {
		return nil
	}
	drop := make(map[int]bool)
	for _, s := range l {
		for i := s.Start; i <= s.End; i++ {
			drop[i] = true
		}
	}
	out := make([]string, 0, len(row))
	for i, f := range row {
		if !drop[i] {
			out = append(out, f)
		}
	}
	return out
}
