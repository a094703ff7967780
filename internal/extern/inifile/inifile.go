// Package inifile backs the INI-file-loading external collaborator
// named in spec.md §1/§9 (a_inifile.cpp in original_source) with a real
// body, since a concrete pack library exists for it:
// bitbucket.org/creachadair/ini (_examples/other_examples/manifests/creachadair-ini).
//
// csvfix's own commands never needed INI files for CSV transformation,
// but legacy column-map files (section per table, "index = name, width"
// key/value pairs) are a natural companion to read_fixed/sql_insert's
// "-f idx:name" flag syntax, and are the one out-of-scope-by-default
// collaborator SPEC_FULL.md §B gives a real implementation.
package inifile

import (
	"io"
	"os"
	"strconv"
	"strings"

	"bitbucket.org/creachadair/ini"
)

// Column is one mapped column: its 1-based source index, output name,
// and (for fixed-width layouts) field width.
type Column struct {
	Index int
	Name  string
	Width int
}

// Layout is one [section]'s worth of column mappings, keyed by section
// name (e.g. a table name for sql_insert, or a format name for
// read_fixed).
type Layout map[string][]Column

// Load parses r as an INI file of the form:
//
//	[customers]
//	1 = id, 8
//	2 = name, 40
//
// where each key is a 1-based column index and its value is
// "name[, width]".
func Load(r io.Reader) (Layout, error) {
	out := make(Layout)
	var section string
	err := ini.Parse(r, ini.Handler{
		Section: func(_ ini.Location, name string) error {
			section = name
			return nil
		},
		KeyValue: func(loc ini.Location, key string, values []string) error {
			idx, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil {
				return &ini.SyntaxError{Line: loc.Line, Desc: "column index must be numeric", Key: key}
			}
			col := Column{Index: idx}
			if len(values) > 0 {
				col.Name = strings.TrimSpace(values[0])
			}
			if len(values) > 1 {
				w, _ := strconv.Atoi(strings.TrimSpace(values[1]))
				col.Width = w
			}
			out[section] = append(out[section], col)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadFile opens and parses path.
func LoadFile(path string) (Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
