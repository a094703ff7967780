// Package extern defines the narrow interfaces spec.md §9 calls for
// around the "pointer-graph PIMPL" external collaborators §1 puts out of
// scope: ODBC database access, Windows DLL invocation, the XML
// tree-builder behind read_xml/write_xml, base64/hex codecs, the
// shared-string intern table, and timestamp formatting/help-text
// plumbing. None of these get full bodies here (Non-goals) — only the
// seams a real implementation would plug into, grounded on
// original_source/csvfix's csved_odbc.h, csved_toxml.h/csved_xml.h,
// alib/inc/a_shstr.h and a_enc.h.
package extern

import "io"

// Rows is the minimal surface odbc-backed commands (out of scope) would
// need: a forward cursor over result rows, mirroring database/sql.Rows
// closely enough to adapt either a real ODBC driver or a test double.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	Close() error
}

// DLLInvoker models the Windows `call` command's collaborator: invoke a
// named function in a named library with string arguments, returning a
// string result. Out of scope per spec.md §1.
type DLLInvoker interface {
	Invoke(library, function string, args []string) (string, error)
}

// Element is one node of the XML tree read_xml/write_xml build, kept
// minimal (tag, attributes, text, children) since the real tree-builder
// is out of scope.
type Element struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*Element
}

// XMLParser parses r into an Element tree. Out of scope per spec.md §1;
// the signature is what csved_xml.cpp's ALib::XMLTree boundary would
// look like in Go.
type XMLParser func(r io.Reader) (*Element, error)

// Interner is the shared-string store a_shstr.h backs: intern(s) returns
// a canonical, potentially-shared representative of s. Out of scope,
// since Go's runtime already interns identical string literals and the
// CSV engine's rows are already plain strings; a real implementation
// would only matter for an allocator-constrained embedding.
type Interner interface {
	Intern(s string) string
}

// Codec models the base64/hex codec a_enc.h provides, out of scope per
// spec.md §1.
type Codec interface {
	Encode(data []byte) string
	Decode(s string) ([]byte, error)
}

// TimestampFormatter models the timestamp command's formatting
// collaborator, out of scope per spec.md §1.
type TimestampFormatter interface {
	Format(layout string, value string) (string, error)
}

// HelpProvider models the help-text plumbing (per-command long help,
// `csvfix help <cmd>`), out of scope per spec.md §1; cobra's own help
// system (SPEC_FULL.md §A) fills this role in practice.
type HelpProvider interface {
	Help(command string) (string, error)
}
