package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/nwidger/csvfix/internal/command"
	"github.com/nwidger/csvfix/internal/expr"
	"github.com/nwidger/csvfix/internal/fields"
)

// The commands in this file are the "trivial projections" spec.md §4.5
// says are omitted from detailed per-command treatment but names as
// part of a populated registry (SPEC_FULL.md §C): echo, head, tail,
// seq, trim, money, template, timestamp, file_info, escape and printf.
// Each is grounded on the matching original_source csved_*.h/.cpp header
// (no further spec.md prose exists for these, so field/flag names follow
// the original's member variables).

// echo: the simplest possible command, reproduced here (as the original
// comment notes) mostly as a template — still exercises skip/pass and
// global CSV options identically to every other command.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("echo", "pass rows through unchanged")
		cmd.RunE = func(_ *cobra.Command, args []string) error {
			return command.RunStreaming(g, args, func(row []string, _ *expr.Context) ([][]string, error) {
				return [][]string{row}, nil
			})
		}
		return cmd
	})
}

// head emits the first N rows, per original_source csved_headtail.h.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("head", "emit the first N rows")
		fs := cmd.Flags()
		n := flagInt(fs, "n", 10, "number of rows to emit")
		cmd.RunE = func(_ *cobra.Command, args []string) error {
			count := 0
			limit := 10
			if n != nil {
				limit = *n
			}
			return command.RunStreaming(g, args, func(row []string, _ *expr.Context) ([][]string, error) {
				if count >= limit {
					return nil, nil
				}
				count++
				return [][]string{row}, nil
			})
		}
		return cmd
	})
}

// tail emits the last N rows, after original_source csved_headtail.h; it
// buffers the whole input and keeps the last N rows of it.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("tail", "emit the last N rows")
		fs := cmd.Flags()
		n := flagInt(fs, "n", 10, "number of rows to emit")
		cmd.RunE = func(_ *cobra.Command, args []string) error {
			limit := 10
			if n != nil {
				limit = *n
			}
			if limit < 1 {
				limit = 1
			}
			rows, im, err := command.ReadAll(g, args)
			if err != nil {
				return err
			}
			defer im.Close()
			if len(rows) > limit {
				rows = rows[len(rows)-limit:]
			}
			em, err := g.OpenOutput()
			if err != nil {
				return err
			}
			for _, r := range rows {
				if err := em.WriteRow(r); err != nil {
					return err
				}
			}
			return em.Flush()
		}
		return cmd
	})
}

// seq prepends (or inserts at -c) a 1-based sequence number field,
// per original_source csved_seq.h.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("seq", "add a sequence number field")
		fs := cmd.Flags()
		col := flagInt(fs, "c", 1, "1-based field position to insert the sequence number at")
		start := flagInt(fs, "s", 1, "starting sequence number")
		inc := flagInt(fs, "i", 1, "increment")
		width := flagInt(fs, "w", 0, "zero-pad the number to this width")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			pos := 1
			if col != nil && *col > 0 {
				pos = *col
			}
			n := 1
			if start != nil {
				n = *start
			}
			step := 1
			if inc != nil {
				step = *inc
			}
			pad := 0
			if width != nil {
				pad = *width
			}
			return command.RunStreaming(g, args, func(row []string, _ *expr.Context) ([][]string, error) {
				num := strconv.Itoa(n)
				if pad > 0 && len(num) < pad {
					num = strings.Repeat("0", pad-len(num)) + num
				}
				n += step
				idx := pos - 1
				if idx > len(row) {
					idx = len(row)
				}
				out := make([]string, 0, len(row)+1)
				out = append(out, row[:idx]...)
				out = append(out, num)
				out = append(out, row[idx:]...)
				return [][]string{out}, nil
			})
		}
		return cmd
	})
}

// trim trims leading/trailing whitespace, and optionally truncates to a
// fixed width, per original_source csved_trim.h.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("trim", "trim leading/trailing whitespace from fields")
		fs := cmd.Flags()
		fieldSpec := flagString(fs, "f", "", "restrict trimming to these fields")
		leadOnly := flagBool(fs, "l", false, "trim leading whitespace only")
		trailOnly := flagBool(fs, "t", false, "trim trailing whitespace only")
		widthSpec := flagString(fs, "w", "", "comma-separated max widths per targeted field, truncating")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			on, err := fields.Parse(*fieldSpec)
			if err != nil {
				return err
			}
			var widths []int
			if *widthSpec != "" {
				for _, p := range strings.Split(*widthSpec, ",") {
					w, err := strconv.Atoi(strings.TrimSpace(p))
					if err != nil {
						return &command.CompileError{Expr: p, Msg: "width must be an integer"}
					}
					widths = append(widths, w)
				}
			}
			lead, trail := true, true
			if leadOnly != nil && *leadOnly {
				trail = false
			}
			if trailOnly != nil && *trailOnly {
				lead = false
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
				for n, i := range targets {
					if i < 0 || i >= len(out) {
						continue
					}
					v := out[i]
					switch {
					case lead && trail:
						v = strings.TrimSpace(v)
					case lead:
						v = strings.TrimLeft(v, " \t")
					case trail:
						v = strings.TrimRight(v, " \t")
					}
					if n < len(widths) && widths[n] >= 0 && len(v) > widths[n] {
						v = v[:widths[n]]
					}
					out[i] = v
				}
				return [][]string{out}, nil
			})
		}
		return cmd
	})
}

// money formats numeric fields as money strings using exact decimal
// arithmetic, per original_source csved_money.h and SPEC_FULL.md §B
// (the domain stack explicitly names this command as a
// github.com/shopspring/decimal consumer to avoid float summation
// error).
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("money", "format numeric fields as money values")
		fs := cmd.Flags()
		fieldSpec := flagString(fs, "f", "", "fields to format")
		symbol := flagString(fs, "s", "", "currency symbol to prepend")
		decimals := flagInt(fs, "d", 2, "decimal places")
		thouSep := flagString(fs, "t", ",", "thousands separator")
		replace := flagBool(fs, "r", true, "replace the field in place (false appends a new field)")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			on, err := fields.Parse(*fieldSpec)
			if err != nil {
				return err
			}
			dp := 2
			if decimals != nil {
				dp = *decimals
			}
			sep := ","
			if thouSep != nil {
				sep = *thouSep
			}
			sym := ""
			if symbol != nil {
				sym = *symbol
			}
			inPlace := replace == nil || *replace

			format := func(v string) (string, error) {
				d, err := decimal.NewFromString(strings.TrimSpace(v))
				if err != nil {
					return "", &command.CompileError{Expr: v, Msg: "non-numeric money value"}
				}
				s := d.StringFixed(int32(dp))
				neg := strings.HasPrefix(s, "-")
				if neg {
					s = s[1:]
				}
				intPart, fracPart, _ := strings.Cut(s, ".")
				intPart = groupThousands(intPart, sep)
				out := sym + intPart
				if fracPart != "" {
					out += "." + fracPart
				}
				if neg {
					out = "-" + out
				}
				return out, nil
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
				var appended []string
				for _, i := range targets {
					v := fields.At(out, i)
					formatted, err := format(v)
					if err != nil {
						return nil, err
					}
					if inPlace {
						if i < len(out) {
							out[i] = formatted
						}
					} else {
						appended = append(appended, formatted)
					}
				}
				out = append(out, appended...)
				return [][]string{out}, nil
			})
		}
		return cmd
	})
}

func groupThousands(intPart, sep string) string {
	if sep == "" || len(intPart) <= 3 {
		return intPart
	}
	var parts []string
	for len(intPart) > 3 {
		parts = append([]string{intPart[len(intPart)-3:]}, parts...)
		intPart = intPart[:len(intPart)-3]
	}
	parts = append([]string{intPart}, parts...)
	return strings.Join(parts, sep)
}

// template renders a per-row text artefact (not CSV) by substituting
// $1.."$N" field references into a literal template string, per
// original_source csved_template.h's ReplaceColumns.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("template", "render each row through a $N-substitution template (output is not CSV)")
		fs := cmd.Flags()
		tplate := flagString(fs, "t", "", "template string with $1.. field references")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			if *tplate == "" {
				return &command.CompileError{Expr: "template", Msg: "-t is required"}
			}
			em, err := g.OpenOutput()
			if err != nil {
				return err
			}
			err = command.RunStreaming(g, args, func(row []string, ctx *expr.Context) ([][]string, error) {
				return nil, em.WriteRaw(renderTemplate(*tplate, row) + "\n")
			})
			if err != nil {
				return err
			}
			return em.Flush()
		}
		return cmd
	})
}

func renderTemplate(tplate string, row []string) string {
	var b strings.Builder
	for i := 0; i < len(tplate); i++ {
		if tplate[i] == '$' && i+1 < len(tplate) && tplate[i+1] >= '1' && tplate[i+1] <= '9' {
			j := i + 1
			for j < len(tplate) && tplate[j] >= '0' && tplate[j] <= '9' {
				j++
			}
			n, _ := strconv.Atoi(tplate[i+1 : j])
			b.WriteString(fields.At(row, n-1))
			i = j - 1
			continue
		}
		b.WriteByte(tplate[i])
	}
	return b.String()
}

// timestamp appends a date/time field to every row, per original_source
// csved_timestamp.h.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("timestamp", "append a date/time field to every row")
		fs := cmd.Flags()
		dateOnly := flagBool(fs, "d", false, "append the date only")
		timeOnly := flagBool(fs, "t", false, "append the time only")
		numeric := flagBool(fs, "n", false, "append the Unix timestamp instead")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			return command.RunStreaming(g, args, func(row []string, _ *expr.Context) ([][]string, error) {
				now := time.Now()
				var stamp string
				switch {
				case numeric != nil && *numeric:
					stamp = strconv.FormatInt(now.Unix(), 10)
				case dateOnly != nil && *dateOnly:
					stamp = now.Format("2006-01-02")
				case timeOnly != nil && *timeOnly:
					stamp = now.Format("15:04:05")
				default:
					stamp = now.Format("2006-01-02 15:04:05")
				}
				out := append(append([]string(nil), row...), stamp)
				return [][]string{out}, nil
			})
		}
		return cmd
	})
}

// file_info prepends the originating (file, line) of each row, per
// original_source csved_fileinfo.h.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("file_info", "prepend the originating file name and/or line number")
		fs := cmd.Flags()
		basename := flagBool(fs, "b", false, "use the basename rather than the full path")
		twoCols := flagBool(fs, "2", false, "emit file and line as two separate fields")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			im, em, err := g.OpenIO(args)
			if err != nil {
				return err
			}
			defer im.Close()
			filter, err := command.NewFilter(g.Skip, g.Pass)
			if err != nil {
				return err
			}
			for {
				row, rerr := im.Read()
				if rerr == io.EOF {
					break
				}
				if rerr != nil {
					return rerr
				}
				file, line := im.Pos()
				if basename != nil && *basename {
					if i := strings.LastIndexAny(file, "/\\"); i >= 0 {
						file = file[i+1:]
					}
				}
				ctx := command.RowContext(row, file, line, nil)
				action, err := filter.Decide(ctx)
				if err != nil {
					return err
				}
				if action == command.ActionSkip {
					continue
				}
				if action == command.ActionPass {
					if err := em.WriteRow(row); err != nil {
						return err
					}
					continue
				}
				var out []string
				if twoCols != nil && *twoCols {
					out = append([]string{file, strconv.Itoa(line)}, row...)
				} else {
					out = append([]string{fmt.Sprintf("%s:%d", file, line)}, row...)
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

// escape forces smart-quote-style CSV or SQL escaping onto listed
// fields regardless of the global -smq setting, writing raw bypassing
// the emitter's conditional quoting per spec.md §4.3 ("WriteRow must
// honour the smart-quote setting unless the caller requests raw
// emission (escape needs this)"), grounded on original_source
// csved_escape.h.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("escape", "force CSV or SQL-style quoting on listed fields")
		fs := cmd.Flags()
		fieldSpec := flagString(fs, "f", "", "fields to escape (default all)")
		sqlMode := flagBool(fs, "sql", false, "use SQL single-quote escaping instead of CSV double-quote escaping")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			on, err := fields.Parse(*fieldSpec)
			if err != nil {
				return err
			}
			sep := command.DecodeSep(g.Sep)
			em, err := g.OpenOutput()
			if err != nil {
				return err
			}
			sql := sqlMode != nil && *sqlMode
			err = command.RunStreaming(g, args, func(row []string, _ *expr.Context) ([][]string, error) {
				targets := on.Indices()
				if len(targets) == 0 {
					targets = make([]int, len(row))
					for i := range row {
						targets[i] = i
					}
				}
				escaped := map[int]bool{}
				for _, i := range targets {
					escaped[i] = true
				}
				parts := make([]string, len(row))
				for i, f := range row {
					if escaped[i] {
						if sql {
							parts[i] = "'" + strings.ReplaceAll(f, "'", "''") + "'"
						} else {
							parts[i] = "\"" + strings.ReplaceAll(f, "\"", "\"\"") + "\""
						}
					} else {
						parts[i] = f
					}
				}
				return nil, em.WriteRaw(strings.Join(parts, string(sep)) + "\n")
			})
			if err != nil {
				return err
			}
			return em.Flush()
		}
		return cmd
	})
}

// printf formats each row through a literal/placeholder format string
// (the delimiters are %1.."%N" for fields), per original_source
// csved_printf.h.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("printf", "format each row through a %N-placeholder format string (output is not CSV)")
		fs := cmd.Flags()
		format := flagString(fs, "f", "", "format string, %1.. for fields, \\n/\\t escapes")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			if *format == "" {
				return &command.CompileError{Expr: "printf", Msg: "-f is required"}
			}
			decoded := strings.NewReplacer(`\n`, "\n", `\t`, "\t").Replace(*format)
			em, err := g.OpenOutput()
			if err != nil {
				return err
			}
			err = command.RunStreaming(g, args, func(row []string, _ *expr.Context) ([][]string, error) {
				return nil, em.WriteRaw(renderPrintf(decoded, row))
			})
			if err != nil {
				return err
			}
			return em.Flush()
		}
		return cmd
	})
}

func renderPrintf(format string, row []string) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] == '%' && i+1 < len(format) && format[i+1] >= '1' && format[i+1] <= '9' {
			j := i + 1
			for j < len(format) && format[j] >= '0' && format[j] <= '9' {
				j++
			}
			n, _ := strconv.Atoi(format[i+1 : j])
			b.WriteString(fields.At(row, n-1))
			i = j - 1
			continue
		}
		b.WriteByte(format[i])
	}
	return b.String()
}
