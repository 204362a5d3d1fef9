// Package diag implements the error taxonomy of §7: a small set of error
// kinds shared by the lexer, parser and compiler, each rendered as a single
// line "<source>:<line>:<col> (<phase>): <message>".
package diag

import (
	"fmt"
	"strings"

	"github.com/mna/vela/lang/token"
	"golang.org/x/exp/slices"
)

// Kind identifies which phase raised a diagnostic.
type Kind int

const (
	Lex Kind = iota
	Syntax
	Semantic
	File
	Runtime
)

func (k Kind) String() string {
	switch k {
	case Lex:
		return "Lex"
	case Syntax:
		return "Syntax"
	case Semantic:
		return "Semantic"
	case File:
		return "File"
	case Runtime:
		return "Runtime"
	default:
		return "Unknown"
	}
}

// Error is a single diagnostic: a kind, a source position and a message.
type Error struct {
	Kind Kind
	Pos  token.Position
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Pos, e.Kind, e.Msg)
}

// List accumulates diagnostics across a compilation. It implements the
// "sticky boolean flag" propagation policy of §7: once any error has been
// added, callers can check HasErrors() without needing to track their own
// flag.
type List struct {
	errs []*Error
}

// Add records a new diagnostic of the given kind at pos.
func (l *List) Add(kind Kind, pos token.Position, format string, args ...interface{}) {
	l.errs = append(l.errs, &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any diagnostic has been recorded.
func (l *List) HasErrors() bool { return len(l.errs) > 0 }

// Errors returns the accumulated diagnostics in insertion order.
func (l *List) Errors() []*Error { return l.errs }

// Sorted returns the accumulated diagnostics ordered by source position
// (filename, then line, then column), breaking ties by insertion order.
// The compiler's semantic checks do not all run in source order (e.g. a
// class's fields and methods are checked in declaration order within the
// class, but classes themselves may be revisited across passes), so
// insertion order alone does not guarantee a stable, source-order report;
// sorting here is what the CLI and tests actually want to see.
func (l *List) Sorted() []*Error {
	out := append([]*Error(nil), l.errs...)
	slices.SortStableFunc(out, func(a, b *Error) int {
		if a.Pos.Filename != b.Pos.Filename {
			return strings.Compare(a.Pos.Filename, b.Pos.Filename)
		}
		if a.Pos.Line != b.Pos.Line {
			return a.Pos.Line - b.Pos.Line
		}
		return a.Pos.Col - b.Pos.Col
	})
	return out
}

// String renders every diagnostic, one per line, in the canonical §7
// format, ordered by source position.
func (l *List) String() string {
	var sb strings.Builder
	for _, e := range l.Sorted() {
		sb.WriteString(e.Error())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Err returns a non-nil error wrapping the list if it has any diagnostics.
func (l *List) Err() error {
	if !l.HasErrors() {
		return nil
	}
	return fmt.Errorf("%s", l.String())
}
