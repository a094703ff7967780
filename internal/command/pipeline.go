package command

import (
	"bufio"
	"io"
	"os"

	"github.com/nwidger/csvfix/internal/csvio"
	"github.com/nwidger/csvfix/internal/expr"
)

// TransformFunc maps one input row (plus its bound expression context)
// to zero or more output rows. Returning a nil slice with a nil error
// drops the row.
type TransformFunc func(row []string, ctx *expr.Context) ([][]string, error)

// RunStreaming implements the common row-by-row pipeline contract of
// spec.md §2/§4.4: read row -> skip/pass -> transform -> write row,
// for the (majority of) commands that don't need to buffer their whole
// input. Buffering commands (sort, summary, pivot, ...) use ReadAll
// instead; flatten, diff, fmerge and inter drive csvio directly.
func RunStreaming(g *Global, files []string, transform TransformFunc) error {
	im, em, err := g.OpenIO(files)
	if err != nil {
		return err
	}
	defer im.Close()

	filter, err := NewFilter(g.Skip, g.Pass)
	if err != nil {
		return err
	}
	named := g.NamedVars()

	for {
		row, err := im.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		file, line := im.Pos()
		ctx := RowContext(row, file, line, named)

		action, err := filter.Decide(ctx)
		if err != nil {
			return err
		}
		switch action {
		case ActionSkip:
			continue
		case ActionPass:
			if err := em.WriteRow(row); err != nil {
				return err
			}
			continue
		}

		outRows, err := transform(row, ctx)
		if err != nil {
			return err
		}
		for _, out := range outRows {
			if out == nil {
				continue
			}
			if err := em.WriteRow(out); err != nil {
				return err
			}
		}
	}
	return em.Flush()
}

// RunFixedWidthLines drives a raw-line pipeline for read_fixed/read_dsv
// style commands whose input is not CSV-quoted: each physical line of
// each file (or stdin) is handed to transform, and the resulting row is
// written through the command's normal CSV emitter.
func RunFixedWidthLines(g *Global, files []string, transform func(line string) ([]string, error)) error {
	if len(files) == 0 {
		files = []string{"-"}
	}
	em, err := g.OpenOutput()
	if err != nil {
		return err
	}
	for _, f := range files {
		var r io.Reader
		if f == "-" || f == "" {
			r = os.Stdin
		} else {
			fh, err := os.Open(f)
			if err != nil {
				return err
			}
			defer fh.Close()
			r = fh
		}
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			row, err := transform(sc.Text())
			if err != nil {
				return err
			}
			if row == nil {
				continue
			}
			if err := em.WriteRow(row); err != nil {
				return err
			}
		}
		if err := sc.Err(); err != nil {
			return err
		}
	}
	return em.Flush()
}

// ReadAll buffers every row from files, dropping the rows -skip selects,
// for commands that must see the whole input before producing output
// (sort, summary, pivot, unique, squash, tail, atable). Rows selected by
// -pass are buffered like any other row: they are not written out
// unchanged, and the caller's transformation sees them.
func ReadAll(g *Global, files []string) ([][]string, *csvio.IOManager, error) {
	im, err := csvio.NewIOManager(files, g.CSVOptions())
	if err != nil {
		return nil, nil, err
	}

	filter, err := NewFilter(g.Skip, g.Pass)
	if err != nil {
		im.Close()
		return nil, nil, err
	}
	named := g.NamedVars()

	var rows [][]string
	for {
		row, err := im.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			im.Close()
			return nil, nil, err
		}
		file, line := im.Pos()
		ctx := RowContext(row, file, line, named)
		action, err := filter.Decide(ctx)
		if err != nil {
			im.Close()
			return nil, nil, err
		}
		if action == ActionSkip {
			continue
		}
		rows = append(rows, row)
	}
	return rows, im, nil
}
