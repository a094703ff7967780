// Package logging centralises the error reporting the teacher did with
// bare fmt.Fprintf(os.Stderr, ...) calls (_examples/collosi-cursive/main.go),
// generalized to the structured (file, line, context) shape spec.md §7's
// error-kind table calls for, using github.com/sirupsen/logrus
// (SPEC_FULL.md §A).
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. main logs the error a command returns
// through it and exits with status 3; Fatal logs with structured fields
// and exits with the code its caller passes. Both match the teacher's
// "print then exit" control flow.
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// Kind tags which row of spec.md §7's error-kind table an error belongs
// to, so callers can attach it as a structured field rather than baking
// it into the message string.
type Kind string

const (
	KindUsage      Kind = "usage"
	KindParseInput Kind = "parse-input"
	KindParseExpr  Kind = "parse-expr"
	KindSemantic   Kind = "semantic"
	KindIO         Kind = "io"
	KindValidation Kind = "validation"
)

// Fatal logs err at the given severity kind, with optional file/line
// context, and terminates the process with the given exit code — all
// non-validation errors in spec.md §7 behave this way.
func Fatal(kind Kind, code int, file string, line int, err error) {
	entry := Log.WithField("kind", string(kind))
	if file != "" {
		entry = entry.WithField("file", file)
	}
	if line > 0 {
		entry = entry.WithField("line", line)
	}
	entry.Error(err)
	os.Exit(code)
}
