// Package commands implements the transformation kernel of spec.md §4.5:
// one cobra.Command per CSVfix sub-command, registered onto a root
// command that is itself the "registry" of spec.md §2/§4.4
// (SPEC_FULL.md §A explains why cobra plays that role here).
package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nwidger/csvfix/internal/command"
)

// ctor builds one sub-command, binding the universal global flags that
// every command recognises (spec.md §6) onto its own FlagSet, then
// layering its command-specific flags on top.
type ctor func() *cobra.Command

var registrations []ctor

func register(c ctor) {
	registrations = append(registrations, c)
}

// NewRoot builds the csvfix root command with every registered
// sub-command attached.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "csvfix",
		Short:         "read, transform and write CSV-shaped tabular data",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	for _, c := range registrations {
		root.AddCommand(c())
	}
	return root
}

// newCommand builds a bare cobra.Command with the universal global
// flags bound, returning both the command and the Global the flags
// populate once Cobra parses argv.
func newCommand(use, short string) (*cobra.Command, *command.Global) {
	cmd := &cobra.Command{Use: use, Short: short}
	g := command.BindGlobal(cmd.Flags())
	return cmd, g
}

// flagString/flagBool/flagInt are small helpers so each command file
// can declare its own flags tersely.
func flagString(fs *pflag.FlagSet, name, def, usage string) *string {
	return fs.String(name, def, usage)
}

func flagBool(fs *pflag.FlagSet, name string, def bool, usage string) *bool {
	return fs.Bool(name, def, usage)
}

func flagInt(fs *pflag.FlagSet, name string, def int, usage string) *int {
	return fs.Int(name, def, usage)
}

func flagStringArray(fs *pflag.FlagSet, name, usage string) *[]string {
	return fs.StringArray(name, nil, usage)
}

// NormalizeArgs rewrites single-dash long-form flags — csvfix's native
// convention, inherited from original_source (-ifn, -fv, -sep, and so
// on) and used throughout every command's flag declarations — into the
// double-dash form pflag requires for anything longer than one letter.
// pflag otherwise reads a lone dash followed by multiple characters as
// a cluster of single-letter shorthand flags, which none of these
// commands register. Bare "-" (stdin) and already-double-dashed flags
// pass through unchanged. Values following a flag (e.g. the "1:2,3:4"
// after -p) are separate argv tokens and pass through unchanged unless
// they themselves begin with a single dash, as a negative number such as
// "-5" does: every such token is rewritten like a flag.
func NormalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if len(a) > 1 && a[0] == '-' && a[1] != '-' {
			out = append(out, "-"+a)
			continue
		}
		out = append(out, a)
	}
	return out
}
