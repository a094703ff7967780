package commands

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nwidger/csvfix/internal/command"
	"github.com/nwidger/csvfix/internal/expr"
	"github.com/nwidger/csvfix/internal/extern/inifile"
)

// fixedSpecsFromIni builds contiguous start:length specs from a legacy
// INI column-map section (internal/extern/inifile), ordered by the
// section's 1-based column index and laid out back-to-back by width.
func fixedSpecsFromIni(path, section string) ([]fwSpec, error) {
	layout, err := inifile.LoadFile(path)
	if err != nil {
		return nil, err
	}
	cols, ok := layout[section]
	if !ok {
		return nil, &command.CompileError{Expr: section, Msg: "no such section in -iniformat file"}
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Index < cols[j].Index })
	specs := make([]fwSpec, len(cols))
	start := 1
	for i, c := range cols {
		specs[i] = fwSpec{start: start, length: c.Width}
		start += c.Width
	}
	return specs, nil
}

// fwSpec is one (1-based start, length) fixed-width field descriptor.
type fwSpec struct {
	start, length int
}

func parseFixedSpecs(s string) ([]fwSpec, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []fwSpec
	for _, part := range strings.Split(s, ",") {
		startStr, lenStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, &command.CompileError{Expr: part, Msg: "expected start:length"}
		}
		start, err := strconv.Atoi(strings.TrimSpace(startStr))
		if err != nil {
			return nil, &command.CompileError{Expr: part, Msg: "start must be numeric"}
		}
		length, err := strconv.Atoi(strings.TrimSpace(lenStr))
		if err != nil {
			return nil, &command.CompileError{Expr: part, Msg: "length must be numeric"}
		}
		out = append(out, fwSpec{start: start, length: length})
	}
	return out, nil
}

// read_fixed/write_fixed implement spec.md §4.5.9's fixed-width format.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("read_fixed", "parse fixed-width records into fields")
		fs := cmd.Flags()
		fieldSpec := flagString(fs, "f", "", "field spec start:length,...")
		rtrim := flagBool(fs, "rt", false, "right-trim each extracted field")
		iniFormat := flagString(fs, "iniformat", "", "load the field spec from a legacy INI column-map file instead of -f")
		iniSection := flagString(fs, "inisection", "", "section name to read from -iniformat (required with -iniformat)")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			var specs []fwSpec
			var err error
			if iniFormat != nil && *iniFormat != "" {
				if iniSection == nil || *iniSection == "" {
					return &command.CompileError{Expr: "read_fixed", Msg: "-inisection is required with -iniformat"}
				}
				specs, err = fixedSpecsFromIni(*iniFormat, *iniSection)
			} else {
				specs, err = parseFixedSpecs(*fieldSpec)
			}
			if err != nil {
				return err
			}
			return command.RunFixedWidthLines(g, args, func(line string) ([]string, error) {
				row := make([]string, len(specs))
				for i, sp := range specs {
					row[i] = sliceFixed(line, sp)
					if rtrim != nil && *rtrim {
						row[i] = strings.TrimRight(row[i], " ")
					}
				}
				return row, nil
			})
		}
		return cmd
	})

	register(func() *cobra.Command {
		cmd, g := newCommand("write_fixed", "render fields as fixed-width records")
		fs := cmd.Flags()
		fieldSpec := flagString(fs, "f", "", "field spec idx:width,...")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			cols, err := parseColSpecs(*fieldSpec) // idx:width reuses the idx:token parser
			if err != nil {
				return err
			}
			widths := make(map[int]int, len(cols))
			order := make([]int, 0, len(cols))
			for _, c := range cols {
				w, _ := strconv.Atoi(c.name)
				widths[c.index] = w
				order = append(order, c.index)
			}
			return command.RunStreaming(g, args, func(row []string, _ *expr.Context) ([][]string, error) {
				var sb strings.Builder
				for _, idx := range order {
					v := ""
					if idx >= 0 && idx < len(row) {
						v = row[idx]
					}
					w := widths[idx]
					if len(v) >= w {
						sb.WriteString(v[:w])
					} else {
						sb.WriteString(v)
						sb.WriteString(strings.Repeat(" ", w-len(v)))
					}
				}
				return [][]string{{sb.String()}}, nil
			})
		}
		return cmd
	})
}

func sliceFixed(line string, sp fwSpec) string {
	start := sp.start - 1
	if start < 0 {
		start = 0
	}
	if start >= len(line) {
		return ""
	}
	end := start + sp.length
	if end > len(line) {
		end = len(line)
	}
	return line[start:end]
}
