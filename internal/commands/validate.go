package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/spf13/cobra"

	"github.com/nwidger/csvfix/internal/command"
	"github.com/nwidger/csvfix/internal/expr"
	"github.com/nwidger/csvfix/internal/fields"
)

// validateResult is one rule failure: field_index 0 means "whole row",
// per spec.md §3.
type validateResult struct {
	field int
	msg   string
}

// validateRule is one parsed line of a rules file (spec.md §6): a
// field list (nil means '*', all fields) plus rule-specific params.
type validateRule interface {
	Apply(row []string) []validateResult
}

// ruleFactory maps a rule name to its constructor, per spec.md §4.5.13
// ("rule-file parser + per-row rule runner"). Grounded on
// original_source csved_valid.cpp's RuleFactory::CreateRule dispatch;
// the original's exact built-in rule catalogue isn't present in the
// retrieved source, so this is a representative set covering the
// not_empty/range/length/pattern/format checks any CSV validator needs —
// noted as an Open Question resolution in DESIGN.md.
var ruleFactory = map[string]func(params []string) (validateRule, error){
	"not_empty": func(params []string) (validateRule, error) {
		return ruleFunc(func(v string) (bool, string) {
			return v != "", "field must not be empty"
		}), nil
	},
	"is_numeric": func(params []string) (validateRule, error) {
		return ruleFunc(func(v string) (bool, string) {
			return expr.IsNumber(strings.TrimSpace(v)), "field must be numeric"
		}), nil
	},
	"is_integer": func(params []string) (validateRule, error) {
		return ruleFunc(func(v string) (bool, string) {
			_, err := strconv.Atoi(strings.TrimSpace(v))
			return err == nil, "field must be an integer"
		}), nil
	},
	"is_date": func(params []string) (validateRule, error) {
		return ruleFunc(func(v string) (bool, string) {
			return expr.IsISODate(strings.TrimSpace(v)), "field must be an ISO date (YYYY-MM-DD)"
		}), nil
	},
	"range": func(params []string) (validateRule, error) {
		if len(params) != 2 {
			return nil, fmt.Errorf("range rule needs low and high parameters")
		}
		lo, hi := params[0], params[1]
		return ruleFunc(func(v string) (bool, string) {
			if expr.IsNumber(v) && expr.IsNumber(lo) && expr.IsNumber(hi) {
				vn, _ := strconv.ParseFloat(v, 64)
				ln, _ := strconv.ParseFloat(lo, 64)
				hn, _ := strconv.ParseFloat(hi, 64)
				return vn >= ln && vn <= hn, fmt.Sprintf("value must be between %s and %s", lo, hi)
			}
			return v >= lo && v <= hi, fmt.Sprintf("value must be between %q and %q", lo, hi)
		}), nil
	},
	"length": func(params []string) (validateRule, error) {
		if len(params) != 2 {
			return nil, fmt.Errorf("length rule needs min and max parameters")
		}
		lo, err := strconv.Atoi(params[0])
		if err != nil {
			return nil, err
		}
		hi, err := strconv.Atoi(params[1])
		if err != nil {
			return nil, err
		}
		return ruleFunc(func(v string) (bool, string) {
			return len(v) >= lo && len(v) <= hi, fmt.Sprintf("length must be between %d and %d", lo, hi)
		}), nil
	},
	"regex": func(params []string) (validateRule, error) {
		if len(params) != 1 {
			return nil, fmt.Errorf("regex rule needs exactly one pattern parameter")
		}
		re, err := regexp2.Compile(params[0], 0)
		if err != nil {
			return nil, err
		}
		return ruleFunc(func(v string) (bool, string) {
			ok, _ := re.MatchString(v)
			return ok, "field must match " + params[0]
		}), nil
	},
	"in_list": func(params []string) (validateRule, error) {
		set := make(map[string]bool, len(params))
		for _, p := range params {
			set[p] = true
		}
		return ruleFunc(func(v string) (bool, string) {
			return set[v], "field must be one of the listed values"
		}), nil
	},
	"unique": func(params []string) (validateRule, error) {
		seen := make(map[string]bool)
		return ruleFunc(func(v string) (bool, string) {
			if seen[v] {
				return false, "value must be unique"
			}
			seen[v] = true
			return true, ""
		}), nil
	},
}

// perFieldRule applies a per-value test to each field in a field list
// (every field when the list is empty); a failure names the field by its
// 1-based index.
type perFieldRule struct {
	flist fields.List
	all   bool
	test  func(v string) (bool, string)
}

// ruleFunc builds a perFieldRule wrapper; flist/all are filled in by
// newValidateRule once the rule's field list is known.
func ruleFunc(test func(v string) (bool, string)) *perFieldRule {
	return &perFieldRule{test: test}
}

func (r *perFieldRule) Apply(row []string) []validateResult {
	var out []validateResult
	if r.all {
		indices := r.flist.Indices()
		if len(indices) == 0 {
			for i := range row {
				indices = append(indices, i)
			}
		}
		for _, i := range indices {
			v := fields.At(row, i)
			if ok, msg := r.test(v); !ok {
				out = append(out, validateResult{field: i + 1, msg: msg})
			}
		}
	}
	return out
}

// parseRuleLine parses one non-comment, non-blank line of a rules file:
// `<rule-name> <field-list|'*'> <params...>`, per spec.md §6.
func parseRuleLine(line string) (string, fields.List, []string, error) {
	pos := 0
	name := readToken(line, &pos)
	skipSpaces(line, &pos)
	flistTok := readToken(line, &pos)
	var flist fields.List
	if flistTok != "*" {
		fl, err := fields.Parse(flistTok)
		if err != nil {
			return "", nil, nil, err
		}
		flist = fl
	}
	params, err := readParams(line, pos)
	if err != nil {
		return "", nil, nil, err
	}
	return name, flist, params, nil
}

func skipSpaces(line string, pos *int) {
	for *pos < len(line) && (line[*pos] == ' ' || line[*pos] == '\t') {
		*pos++
	}
}

func readToken(line string, pos *int) string {
	skipSpaces(line, pos)
	start := *pos
	for *pos < len(line) && line[*pos] != ' ' && line[*pos] != '\t' {
		*pos++
	}
	return line[start:*pos]
}

// readParams reads the whitespace-terminated or quote-delimited
// parameter list that follows a rule's name and field list, per
// spec.md §6 ("a parameter enclosed in matching single or double quotes
// is taken literally; otherwise whitespace-terminated").
func readParams(line string, pos int) ([]string, error) {
	var params []string
	for {
		skipSpaces(line, &pos)
		if pos >= len(line) {
			break
		}
		c := line[pos]
		if c == '\'' || c == '"' {
			start := pos
			quote := c
			pos++
			var b strings.Builder
			closed := false
			for pos < len(line) {
				if line[pos] == quote {
					closed = true
					pos++
					break
				}
				b.WriteByte(line[pos])
				pos++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated quoted value: %s", line[start:])
			}
			params = append(params, b.String())
		} else {
			start := pos
			for pos < len(line) && line[pos] != ' ' && line[pos] != '\t' {
				pos++
			}
			params = append(params, line[start:pos])
		}
	}
	return params, nil
}

// newValidateRule builds a rule from one parsed rules-file line.
func newValidateRule(name string, flist fields.List, params []string) (validateRule, error) {
	ctor, ok := ruleFactory[name]
	if !ok {
		return nil, fmt.Errorf("unknown rule: %s", name)
	}
	r, err := ctor(params)
	if err != nil {
		return nil, err
	}
	if pf, ok := r.(*perFieldRule); ok {
		pf.flist = flist
		pf.all = true
	}
	return r, nil
}

func loadValidateRules(path string) ([]validateRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open validation file %s for input: %w", path, err)
	}
	defer f.Close()

	var rules []validateRule
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		name, flist, params, err := parseRuleLine(line)
		if err != nil {
			return nil, err
		}
		rule, err := newValidateRule(name, flist, params)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}

// validate runs a rules file against every row, per spec.md §4.5.13.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("validate", "validate CSV input against a rules file (output is not CSV)")
		fs := cmd.Flags()
		rulesFile := flagString(fs, "vf", "", "validation rules file (required)")
		outMode := flagString(fs, "om", "report", "output mode: report, pass, fail")
		errCode := flagBool(fs, "ec", false, "exit 2 if any row failed validation")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			if *rulesFile == "" {
				return &command.CompileError{Expr: "validate", Msg: "-vf is required"}
			}
			if *outMode != "report" && *outMode != "pass" && *outMode != "fail" {
				return &command.CompileError{Expr: *outMode, Msg: "-om must be one of report, pass, fail"}
			}
			rules, err := loadValidateRules(*rulesFile)
			if err != nil {
				return err
			}

			im, em, err := g.OpenIO(args)
			if err != nil {
				return err
			}
			defer im.Close()
			filter, err := command.NewFilter(g.Skip, g.Pass)
			if err != nil {
				return err
			}

			total := 0
			for {
				row, err := im.Read()
				if err == io.EOF {
					break
				}
				if err != nil {
					return err
				}
				file, line := im.Pos()
				ctx := command.RowContext(row, file, line, nil)
				action, err := filter.Decide(ctx)
				if err != nil {
					return err
				}
				if action == command.ActionSkip {
					continue
				}

				var failures []validateResult
				for _, r := range rules {
					failures = append(failures, r.Apply(row)...)
				}
				switch *outMode {
				case "report":
					if len(failures) > 0 {
						total += len(failures)
						if err := em.WriteRaw(fmt.Sprintf("%s (%d): %s\n", file, line, strings.Join(row, ","))); err != nil {
							return err
						}
						for _, f := range failures {
							if f.field > 0 {
								if err := em.WriteRaw(fmt.Sprintf("    field: %d - %s\n", f.field, f.msg)); err != nil {
									return err
								}
							} else {
								if err := em.WriteRaw(fmt.Sprintf("    %s\n", f.msg)); err != nil {
									return err
								}
							}
						}
					}
				case "pass":
					if len(failures) == 0 {
						if err := em.WriteRow(row); err != nil {
							return err
						}
					} else {
						total += len(failures)
					}
				case "fail":
					if len(failures) > 0 {
						total += len(failures)
						if err := em.WriteRow(row); err != nil {
							return err
						}
					}
				}
			}
			if err := em.Flush(); err != nil {
				return err
			}
			if total > 0 && errCode != nil && *errCode {
				os.Exit(2)
			}
			return nil
		}
		return cmd
	})
}
