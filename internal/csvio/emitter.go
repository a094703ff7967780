package csvio

import (
	"bufio"
	"io"
	"strings"
)

// Emitter writes CSV records to an output stream, per spec.md §4.1.
type Emitter struct {
	w      *bufio.Writer
	sep    byte
	smartQ bool
	rsep   string
}

// NewEmitter creates an Emitter. rsep is the output record terminator
// (default "\n"); sep is the field separator.
func NewEmitter(w io.Writer, sep byte, smartQuote bool, rsep string) *Emitter {
	if sep == 0 {
		sep = ','
	}
	if rsep == "" {
		rsep = "\n"
	}
	return &Emitter{w: bufio.NewWriter(w), sep: sep, smartQ: smartQuote, rsep: rsep}
}

// WriteRow writes one CSV record, honouring the smart-quote setting.
func (e *Emitter) WriteRow(row []string) error {
	for i, f := range row {
		if i > 0 {
			if err := e.w.WriteByte(e.sep); err != nil {
				return err
			}
		}
		if err := e.writeField(f); err != nil {
			return err
		}
	}
	_, err := e.w.WriteString(e.rsep)
	return err
}

// WriteRaw writes text verbatim, bypassing CSV field formatting; used by
// commands that emit non-CSV artefacts (the sql_* statements, summary -siz,
// template, printf, escape, evalvars, validate's report).
func (e *Emitter) WriteRaw(s string) error {
	_, err := e.w.WriteString(s)
	return err
}

func (e *Emitter) writeField(f string) error {
	if e.smartQ && e.needsQuote(f) {
		var b strings.Builder
		b.WriteByte('"')
		for i := 0; i < len(f); i++ {
			if f[i] == '"' {
				b.WriteByte('"')
			}
			b.WriteByte(f[i])
		}
		b.WriteByte('"')
		_, err := e.w.WriteString(b.String())
		return err
	}
	_, err := e.w.WriteString(f)
	return err
}

func (e *Emitter) needsQuote(f string) bool {
	return strings.IndexByte(f, e.sep) >= 0 ||
		strings.IndexByte(f, '"') >= 0 ||
		strings.IndexByte(f, '\r') >= 0 ||
		strings.IndexByte(f, '\n') >= 0
}

// Flush flushes buffered output; must be called on command completion.
func (e *Emitter) Flush() error {
	return e.w.Flush()
}
