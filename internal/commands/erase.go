package commands

import (
	"github.com/dlclark/regexp2"
	"github.com/spf13/cobra"

	"github.com/nwidger/csvfix/internal/command"
	"github.com/nwidger/csvfix/internal/expr"
	"github.com/nwidger/csvfix/internal/fields"
)

// erase deletes fields matching (-r) or not matching (-n) any of a list
// of regexes, per spec.md §4.5.11.
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("erase", "delete fields matching (or not matching) a regex set")
		fs := cmd.Flags()
		fieldSpec := flagString(fs, "f", "", "restrict erasure to these fields")
		matchPats := flagStringArray(fs, "r", "erase fields matching any of these regexes")
		nonMatchPats := flagStringArray(fs, "n", "erase fields matching none of these regexes")
		keepEmpty := flagBool(fs, "k", false, "keep rows that become empty")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			on, err := fields.Parse(*fieldSpec)
			if err != nil {
				return err
			}
			var matchRe, nonMatchRe []*regexp2.Regexp
			if matchPats != nil {
				for _, p := range *matchPats {
					re, err := regexp2.Compile(p, 0)
					if err != nil {
						return err
					}
					matchRe = append(matchRe, re)
				}
			}
			if nonMatchPats != nil {
				for _, p := range *nonMatchPats {
					re, err := regexp2.Compile(p, 0)
					if err != nil {
						return err
					}
					nonMatchRe = append(nonMatchRe, re)
				}
			}

			eraseField := func(v string) (bool, error) {
				for _, re := range matchRe {
					ok, err := re.MatchString(v)
					if err != nil {
						return false, err
					}
					if ok {
						return true, nil
					}
				}
				if len(nonMatchRe) > 0 {
					anyMatch := false
					for _, re := range nonMatchRe {
						ok, err := re.MatchString(v)
						if err != nil {
							return false, err
						}
						if ok {
							anyMatch = true
							break
						}
					}
					if !anyMatch {
						return true, nil
					}
				}
				return false, nil
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
				drop := map[int]bool{}
				for _, i := range targets {
					if i < 0 || i >= len(out) {
						continue
					}
					erased, err := eraseField(out[i])
					if err != nil {
						return nil, err
					}
					if erased {
						drop[i] = true
					}
				}
				kept := make([]string, 0, len(out))
				for i, f := range out {
					if !drop[i] {
						kept = append(kept, f)
					}
				}
				if len(kept) == 0 && (keepEmpty == nil || !*keepEmpty) {
					return nil, nil
				}
				return [][]string{kept}, nil
			})
		}
		return cmd
	})
}
