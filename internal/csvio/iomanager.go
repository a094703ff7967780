package csvio

import (
	"io"
	"os"
)

// source pairs a name with its opened reader, closed once exhausted.
type source struct {
	name string
	rc   io.ReadCloser
	p    *Parser
}

// IOManager multiplexes N input sources, per spec.md §4.3. NewIOManager
// does not set Out: commands open their output stream separately. It
// supports sequential concatenation (Read) for the common single-pass
// commands, and independent per-source parsers (CreateStreamParser) for
// commands that pull from inputs in parallel (fmerge, inter). diff does
// not use CreateStreamParser: it opens one IOManager per file and reads
// each one whole.
type IOManager struct {
	opts    Options
	sources []source
	cur     int

	lastFile string
	lastLine int

	Out *Emitter
}

// NewIOManager opens each of files (or stdin if files is empty, or any
// entry is "-") and binds opts to every parser.
func NewIOManager(files []string, opts Options) (*IOManager, error) {
	im := &IOManager{opts: opts}
	if len(files) == 0 {
		files = []string{"-"}
	}
	for _, f := range files {
		var rc io.ReadCloser
		name := f
		if f == "-" || f == "" {
			rc = io.NopCloser(os.Stdin)
			name = "-"
		} else {
			fh, err := os.Open(f)
			if err != nil {
				return nil, err
			}
			rc = fh
		}
		im.sources = append(im.sources, source{name: name, rc: rc, p: NewParser(name, rc, opts)})
	}
	return im, nil
}

// Read returns the next row across all sources in order, advancing to
// the next source on EOF. Returns io.EOF once every source is exhausted.
func (im *IOManager) Read() ([]string, error) {
	for im.cur < len(im.sources) {
		s := &im.sources[im.cur]
		row, err := s.p.Next()
		if err == io.EOF {
			s.rc.Close()
			im.cur++
			continue
		}
		if err != nil {
			return nil, err
		}
		im.lastFile = s.p.File()
		im.lastLine = s.p.Line()
		return row, nil
	}
	return nil, io.EOF
}

// Pos returns the (file, line) of the most recently read row.
func (im *IOManager) Pos() (string, int) {
	return im.lastFile, im.lastLine
}

// StreamCount returns the number of independent input sources.
func (im *IOManager) StreamCount() int {
	return len(im.sources)
}

// CreateStreamParser hands back the parser bound to source i, for
// parallel-access commands. The caller drives it directly; Read must not
// be used on an IOManager once its streams are consumed this way.
func (im *IOManager) CreateStreamParser(i int) *Parser {
	return im.sources[i].p
}

// Close releases any not-yet-exhausted sources.
func (im *IOManager) Close() {
	for _, s := range im.sources {
		s.rc.Close()
	}
}

// OpenOutput opens path for writing, or returns os.Stdout for "" or "-".
func OpenOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
