package command

import "github.com/spf13/pflag"

// CountNonGeneric counts how many of the listed action flag names were
// actually supplied on fs, per spec.md §4.4 ("a CountNonGeneric helper
// exists so commands like summary can insist that exactly one action
// flag was chosen among its action set").
func CountNonGeneric(fs *pflag.FlagSet, names ...string) int {
	n := 0
	for _, name := range names {
		if f := fs.Lookup(name); f != nil && f.Changed {
			n++
		}
	}
	return n
}
