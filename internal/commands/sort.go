package commands

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/nwidger/csvfix/internal/command"
	"github.com/nwidger/csvfix/internal/sortkey"
)

// sort buffers all rows then sorts them by a multi-key field-spec list,
// per spec.md §4.5.1. Grounded on csvsort/main.go's createSortFunc
// (_examples/collosi-cursive/csvsort/main.go) for the "chain comparisons
// across a field list, first non-zero wins" shape, generalized to the
// spec's A/D/S/N/I flags (internal/sortkey).
func init() {
	register(func() *cobra.Command {
		cmd, g := newCommand("sort", "sort rows by one or more fields")
		fs := cmd.Flags()
		fieldSpec := flagString(fs, "f", "", "field-spec list idx[:flags],... (flags: A D S N I)")
		holdHeader := flagBool(fs, "rh", false, "hold the first row aside as an unsorted header")

		cmd.RunE = func(_ *cobra.Command, args []string) error {
			keys, err := sortkey.Parse(*fieldSpec)
			if err != nil {
				return err
			}
			rows, im, err := command.ReadAll(g, args)
			if err != nil {
				return err
			}
			defer im.Close()

			var header []string
			if *holdHeader && len(rows) > 0 {
				header, rows = rows[0], rows[1:]
			}

			sort.SliceStable(rows, func(i, j int) bool {
				return sortkey.Less(keys, rows[i], rows[j])
			})

			em, err := g.OpenOutput()
			if err != nil {
				return err
			}
			if header != nil {
				if err := em.WriteRow(header); err != nil {
					return err
				}
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
