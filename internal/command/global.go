// Package command implements the shared command-framework pieces of
// spec.md §4.4: the universal global flags (§6), the skip/pass filter
// primitive, and CountNonGeneric. The registry itself (§2/§4.4, "map
// command name -> constructor; dispatch argv[1]") is github.com/spf13/cobra
// (SPEC_FULL.md §A); this package supplies the glue every command needs
// around that registry.
package command

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/nwidger/csvfix/internal/config"
	"github.com/nwidger/csvfix/internal/csvio"
	"github.com/nwidger/csvfix/internal/expr"
)

// Global holds the universal flags every command recognises unless its
// help manifest says otherwise (spec.md §6).
type Global struct {
	Sep              string
	SmartQuote       bool
	IgnoreBlankLines bool
	IgnoreFirstLine  bool
	RecordSep        string
	Output           string
	Vars             []string
	Skip             string
	Pass             string
	Seed             int64
	Profile          string

	fs             *pflag.FlagSet
	profileApplied bool
}

// BindGlobal registers the universal flags onto fs.
func BindGlobal(fs *pflag.FlagSet) *Global {
	g := &Global{fs: fs}
	fs.StringVar(&g.Sep, "sep", ",", "field separator")
	fs.BoolVar(&g.SmartQuote, "smq", false, "smart-quote output fields")
	fs.BoolVar(&g.IgnoreBlankLines, "ibl", false, "ignore blank input lines")
	fs.BoolVar(&g.IgnoreFirstLine, "ifn", false, "ignore the first input record (field-name header)")
	fs.StringVar(&g.RecordSep, "rsep", "\\n", "output record separator")
	fs.StringVar(&g.Output, "o", "", "output file (default stdout)")
	fs.StringArrayVar(&g.Vars, "v", nil, "bind a named variable: name=value (repeatable)")
	fs.StringVar(&g.Skip, "skip", "", "drop rows for which this expression is truthy")
	fs.StringVar(&g.Pass, "pass", "", "pass rows for which this expression is truthy, unchanged")
	fs.Int64Var(&g.Seed, "rseed", 0, "seed the random() expression function (0 = process default)")
	fs.StringVar(&g.Profile, "profile", "", "load default flags from a named profile (see config)")
	return g
}

// applyProfile overlays the named -profile's defaults onto any global
// flag the user didn't explicitly set on argv, per SPEC_FULL.md §A. It
// is idempotent and a no-op when -profile wasn't given; every call site
// that reads Global's flag values (CSVOptions, OpenOutput, NamedVars)
// goes through this first so the profile applies regardless of which
// entry point (RunStreaming, ReadAll, a command's own direct IOManager
// use) a command drives its I/O through. The same first call also hands
// a non-zero -rseed to the expression engine's random().
func (g *Global) applyProfile() {
	if g.profileApplied {
		return
	}
	g.profileApplied = true
	if g.Seed != 0 {
		expr.DefaultRegistry.SetSeed(g.Seed)
	}
	if g.Profile == "" {
		return
	}
	f, err := config.Load(config.DefaultPath())
	if err != nil {
		return
	}
	p, ok := f.Lookup(g.Profile)
	if !ok {
		return
	}
	if (g.fs == nil || !g.fs.Changed("sep")) && p.Sep != "" {
		g.Sep = p.Sep
	}
	if (g.fs == nil || !g.fs.Changed("smq")) && p.SmartQuote {
		g.SmartQuote = p.SmartQuote
	}
	if (g.fs == nil || !g.fs.Changed("skip")) && p.Skip != "" {
		g.Skip = p.Skip
	}
	if (g.fs == nil || !g.fs.Changed("pass")) && p.Pass != "" {
		g.Pass = p.Pass
	}
	for k, v := range p.Vars {
		g.Vars = append(g.Vars, k+"="+v)
	}
}

// DecodeSep resolves the \t/\n escapes spec.md §6/§9 names, returning
// the literal separator byte.
func DecodeSep(s string) byte {
	switch s {
	case "\\t":
		return '\t'
	case "\\n":
		return '\n'
	case "":
		return ','
	default:
		return s[0]
	}
}

// DecodeRecordSep resolves the output record terminator, honouring the
// same escapes as DecodeSep.
func DecodeRecordSep(s string) string {
	switch s {
	case "\\n":
		return "\n"
	case "\\t":
		return "\t"
	case "":
		return "\n"
	default:
		return s
	}
}

// CSVOptions adapts Global into csvio.Options for input parsing.
func (g *Global) CSVOptions() csvio.Options {
	g.applyProfile()
	return csvio.Options{
		Sep:              DecodeSep(g.Sep),
		IgnoreBlankLines: g.IgnoreBlankLines,
		IgnoreFirstLine:  g.IgnoreFirstLine,
	}
}

// NamedVars parses the repeated -v name=value bindings into a map.
func (g *Global) NamedVars() map[string]string {
	g.applyProfile()
	out := make(map[string]string, len(g.Vars))
	for _, v := range g.Vars {
		name, val, ok := strings.Cut(v, "=")
		if !ok {
			continue
		}
		out[name] = val
	}
	return out
}

// OpenIO opens the command's inputs (files, or stdin if empty) and its
// output stream (Global.Output, or stdout), per spec.md §4.3/§6.
func (g *Global) OpenIO(files []string) (*csvio.IOManager, *csvio.Emitter, error) {
	im, err := csvio.NewIOManager(files, g.CSVOptions())
	if err != nil {
		return nil, nil, err
	}
	em, err := g.OpenOutput()
	if err != nil {
		im.Close()
		return nil, nil, err
	}
	return im, em, nil
}

// OpenOutput opens just the output stream, for buffering commands that
// drive ReadAll rather than OpenIO for their input side.
func (g *Global) OpenOutput() (*csvio.Emitter, error) {
	g.applyProfile()
	w, err := csvio.OpenOutput(g.Output)
	if err != nil {
		return nil, err
	}
	return csvio.NewEmitter(w, DecodeSep(g.Sep), g.SmartQuote, DecodeRecordSep(g.RecordSep)), nil
}
