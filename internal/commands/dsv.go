package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/nwidger/csvfix/internal/command"
	"github.com/nwidger/csvfix/internal/expr"
)

// dsvSeparator decodes the `\t` escape the spec's Open Question (b)
// singles out as a distinct per-command decision from -sep/-rsep.
func dsvSeparator(s string) string {
	switch s {
	case "\\t":
		return "\t"
	case "":
		return "|"
	default:
		return s
	}
}

// read_dsv/write_dsv implement spec.md §4.5.9's delimiter-separated
// format, with backslash escaping of the separator and itself, and an
// optional "-csv" mode that honours quotes the way the main CSV parser
// does.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("read_dsv", "parse delimiter-separated records into fields")
		fs := cmd.Flags()
		sepFlag := flagString(fs, "s", "|", "separator (\\t accepted)")
		collapse := flagBool(fs, "c", false, "collapse consecutive separators")
		csvMode := flagBool(fs, "csv", false, "treat fields as CSV: honour \"quoted\" fields instead of backslash-escaping")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			sep := dsvSeparator(*sepFlag)
			return command.RunFixedWidthLines(g, args, func(line string) ([]string, error) {
				var fields []string
				if csvMode != nil && *csvMode {
					fields = splitCSVQuoted(line, sep)
				} else {
					fields = splitEscaped(line, sep)
				}
				if collapse != nil && *collapse {
					var out []string
					for _, f := range fields {
						if f == "" && len(out) > 0 {
							continue
						}
						out = append(out, f)
					}
					fields = out
				}
				return fields, nil
			})
		}
		return cmd
	})

	register(func() *cobra.Command {
		cmd, g := newCommand("write_dsv", "render fields as delimiter-separated records")
		fs := cmd.Flags()
		sepFlag := flagString(fs, "s", "|", "separator (\\t accepted)")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			sep := dsvSeparator(*sepFlag)
			return command.RunStreaming(g, args, func(row []string, _ *expr.Context) ([][]string, error) {
				var parts []string
				for _, f := range row {
					parts = append(parts, escapeForDSV(f, sep))
				}
				return [][]string{{strings.Join(parts, sep)}}, nil
			})
		}
		return cmd
	})
}

// splitEscaped splits on sep, treating a backslash as escaping the
// separator or itself (spec.md §4.5.9's "Escaping rule").
func splitEscaped(line, sep string) []string {
	var out []string
	var cur strings.Builder
	runes := []rune(line)
	sepRunes := []rune(sep)

	matchesAt := func(pos int, want []rune) bool {
		if pos+len(want) > len(runes) {
			return false
		}
		for k, r := range want {
			if runes[pos+k] != r {
				return false
			}
		}
		return true
	}

	i := 0
	for i < len(runes) {
		if runes[i] == '\\' {
			if matchesAt(i+1, sepRunes) {
				cur.WriteString(sep)
				i += 1 + len(sepRunes)
				continue
			}
			if matchesAt(i+1, []rune{'\\'}) {
				cur.WriteByte('\\')
				i += 2
				continue
			}
		}
		if matchesAt(i, sepRunes) {
			out = append(out, cur.String())
			cur.Reset()
			i += len(sepRunes)
			continue
		}
		cur.WriteRune(runes[i])
		i++
	}
	out = append(out, cur.String())
	return out
}

func escapeForDSV(s, sep string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	return strings.ReplaceAll(s, sep, "\\"+sep)
}

// splitCSVQuoted splits on sep the way the main CSV parser would: a
// field opening with `"` runs, with doubled quotes as a literal quote,
// until its closing quote, and the separator inside it is literal.
// Used by read_dsv's -csv mode instead of splitEscaped's backslash rule.
func splitCSVQuoted(line, sep string) []string {
	runes := []rune(line)
	sepRunes := []rune(sep)
	n := len(runes)
	var out []string

	atSep := func(pos int) bool {
		if pos+len(sepRunes) > n {
			return false
		}
		for k, r := range sepRunes {
			if runes[pos+k] != r {
				return false
			}
		}
		return true
	}

	i := 0
	for {
		var field strings.Builder
		if i < n && runes[i] == '"' {
			i++
			for i < n {
				if runes[i] == '"' {
					if i+1 < n && runes[i+1] == '"' {
						field.WriteRune('"')
						i += 2
						continue
					}
					i++
					break
				}
				field.WriteRune(runes[i])
				i++
			}
			for i < n && !atSep(i) {
				i++
			}
		} else {
			for i < n && !atSep(i) {
				field.WriteRune(runes[i])
				i++
			}
		}
		out = append(out, field.String())
		if i >= n {
			break
		}
		i += len(sepRunes)
	}
	return out
}
