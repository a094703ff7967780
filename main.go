// Command csvfix reads CSV-shaped tabular data from one or more input
// streams, transforms it through a single user-selected operation, and
// writes the result to a single output stream, per spec.md §1.
//
// Generalized from the teacher's one-binary-per-command layout
// (_examples/collosi-cursive: csvcut, csvgrep, csvsort each a separate
// main package sharing common.CSVProcessor) into a single binary whose
// sub-commands are registered with github.com/spf13/cobra
// (SPEC_FULL.md §A) — the registry spec.md §2/§4.4 describes.
package main

import (
	"os"

	"github.com/nwidger/csvfix/internal/commands"
	"github.com/nwidger/csvfix/internal/logging"
)

func main() {
	root := commands.NewRoot()
	root.SetArgs(commands.NormalizeArgs(os.Args[1:]))
	if err := root.Execute(); err != nil {
		logging.Log.Error(err)
		os.Exit(3)
	}
}
