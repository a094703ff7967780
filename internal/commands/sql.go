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

// colSpecsFromIni builds idx:name column specs from a legacy INI
// column-map section, ordered by the section's 1-based column index.
func colSpecsFromIni(path, section string) ([]colSpec, error) {
	layout, err := inifile.LoadFile(path)
	if err != nil {
		return nil, err
	}
	cols, ok := layout[section]
	if !ok {
		return nil, &command.CompileError{Expr: section, Msg: "no such section in -iniformat file"}
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Index < cols[j].Index })
	out := make([]colSpec, len(cols))
	for i, c := range cols {
		out[i] = colSpec{index: c.Index - 1, name: c.Name}
	}
	return out, nil
}

// colSpec is one idx:col_name pair from a -f/-w flag.
type colSpec struct {
	index int // 0-based
	name  string
}

func parseColSpecs(s string) ([]colSpec, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []colSpec
	for _, part := range strings.Split(s, ",") {
		idxStr, name, ok := strings.Cut(part, ":")
		if !ok {
			return nil, &command.CompileError{Expr: part, Msg: "expected idx:col_name"}
		}
		n, err := strconv.Atoi(strings.TrimSpace(idxStr))
		if err != nil {
			return nil, &command.CompileError{Expr: part, Msg: "column index must be numeric"}
		}
		out = append(out, colSpec{index: n - 1, name: strings.TrimSpace(name)})
	}
	return out, nil
}

// sqlQuoter renders one field value as a SQL literal, per spec.md §4.5.7.
type sqlQuoter struct {
	noQuote   map[string]bool // column names listed in -nq
	emptyNull bool            // -en
	quoteNull bool            // -qn
}

func (q *sqlQuoter) literal(col, val string) string {
	if q.emptyNull && val == "" {
		return "NULL"
	}
	if val == "NULL" && q.quoteNull {
		return "'NULL'"
	}
	if val == "NULL" && !q.quoteNull {
		return "NULL"
	}
	if q.noQuote[col] {
		return val
	}
	return "'" + strings.ReplaceAll(val, "'", "''") + "'"
}

func fieldOrFatal(row []string, idx int, col string) (string, error) {
	if idx < 0 || idx >= len(row) {
		return "", &command.CompileError{Expr: col, Msg: "required field missing from input"}
	}
	return row[idx], nil
}

func init() {
	register(func() *cobra.Command { return newSQLCommand("sql_insert") })
	register(func() *cobra.Command { return newSQLCommand("sql_update") })
	register(func() *cobra.Command { return newSQLCommand("sql_delete") })
}

func newSQLCommand(name string) *cobra.Command {
	cmd, g := newCommand(name, "generate "+strings.TrimPrefix(name, "sql_")+" statements from rows")
	fs := cmd.Flags()
	table := flagString(fs, "t", "", "table name")
	fSpec := flagString(fs, "f", "", "column spec idx:name,... (insert cols / update set-cols)")
	wSpec := flagString(fs, "w", "", "where-clause column spec idx:name,...")
	sep := flagString(fs, "ssep", "\n;\n", "statement separator")
	noQuote := flagStringArray(fs, "nq", "column names whose values are emitted unquoted")
	emptyNull := flagBool(fs, "en", false, "empty CSV fields become NULL")
	quoteNull := flagBool(fs, "qn", false, "the literal string NULL is itself quoted")
	iniFormat := flagString(fs, "iniformat", "", "load the -f column spec from a legacy INI column-map file instead")
	iniSection := flagString(fs, "inisection", "", "section name to read from -iniformat (required with -iniformat)")

	cmd.RunE = func(_ *cobra.Command, args []string) error {
		var setCols []colSpec
		var err error
		if iniFormat != nil && *iniFormat != "" {
			if iniSection == nil || *iniSection == "" {
				return &command.CompileError{Expr: name, Msg: "-inisection is required with -iniformat"}
			}
			setCols, err = colSpecsFromIni(*iniFormat, *iniSection)
		} else {
			setCols, err = parseColSpecs(*fSpec)
		}
		if err != nil {
			return err
		}
		whereCols, err := parseColSpecs(*wSpec)
		if err != nil {
			return err
		}
		if name != "sql_delete" && len(setCols) == 0 {
			return &command.CompileError{Expr: name, Msg: "-f is required"}
		}
		if name != "sql_insert" && len(whereCols) == 0 {
			return &command.CompileError{Expr: name, Msg: "-w is required"}
		}
		nq := make(map[string]bool)
		if noQuote != nil {
			for _, c := range *noQuote {
				nq[c] = true
			}
		}
		q := &sqlQuoter{noQuote: nq, emptyNull: *emptyNull, quoteNull: *quoteNull}
		statementSep := "\n;\n"
		if sep != nil && *sep != "" {
			statementSep = *sep
		}

		var stmts []string
		err = command.RunStreaming(g, args, func(row []string, _ *expr.Context) ([][]string, error) {
			var stmt string
			switch name {
			case "sql_insert":
				var cols, vals []string
				for _, c := range setCols {
					v, err := fieldOrFatal(row, c.index, c.name)
					if err != nil {
						return nil, err
					}
					cols = append(cols, c.name)
					vals = append(vals, q.literal(c.name, v))
				}
				stmt = "INSERT INTO " + *table + " ( " + strings.Join(cols, ", ") + " ) VALUES( " + strings.Join(vals, ", ") + ")"
			case "sql_update":
				var sets []string
				for _, c := range setCols {
					v, err := fieldOrFatal(row, c.index, c.name)
					if err != nil {
						return nil, err
					}
					sets = append(sets, c.name+" = "+q.literal(c.name, v))
				}
				var wheres []string
				for _, c := range whereCols {
					v, err := fieldOrFatal(row, c.index, c.name)
					if err != nil {
						return nil, err
					}
					wheres = append(wheres, c.name+" = "+q.literal(c.name, v))
				}
				stmt = "UPDATE " + *table + " SET " + strings.Join(sets, ", ") + " WHERE " + strings.Join(wheres, " AND ")
			case "sql_delete":
				var wheres []string
				for _, c := range whereCols {
					v, err := fieldOrFatal(row, c.index, c.name)
					if err != nil {
						return nil, err
					}
					wheres = append(wheres, c.name+" = "+q.literal(c.name, v))
				}
				stmt = "DELETE FROM " + *table + " WHERE " + strings.Join(wheres, " AND ")
			}
			stmts = append(stmts, stmt)
			return nil, nil
		})
		if err != nil {
			return err
		}

		em, err := g.OpenOutput()
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			if err := em.WriteRaw(stmt); err != nil {
				return err
			}
			if err := em.WriteRaw(statementSep); err != nil {
				return err
			}
		}
		return em.Flush()
	}
	return cmd
}
