// Package diag collects diagnostics produced while a source file moves
// through the lexer, parser, IR generator, and interpreter. No stage
// aborts on a diagnostic; each keeps going on a best-effort basis and
// the sink accumulates an ordered record of everything that went wrong.
package diag

import "fmt"

// Stage identifies which pipeline stage produced a Diagnostic.
type Stage string

const (
	Lexer       Stage = "lexer"
	Parser      Stage = "parser"
	IRGenerator Stage = "ir"
	Interpreter Stage = "interp"
)

// Diagnostic is a single reported problem, tied to the byte offset in
// the source where it was detected.
type Diagnostic struct {
	Stage    Stage
	Message  string
	Position int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s@%d: %s", d.Stage, d.Position, d.Message)
}

// Sink is an ordered, append-only collector of diagnostics. A single
// Sink is handed to each stage in turn; it is never reset mid-pipeline.
type Sink struct {
	items []Diagnostic
}

// New returns an empty Sink.
func New() *Sink {
	return &Sink{}
}

// Report appends a diagnostic from the given stage at the given byte
// position.
func (s *Sink) Report(stage Stage, position int, format string, args ...any) {
	s.items = append(s.items, Diagnostic{
		Stage:    stage,
		Message:  fmt.Sprintf(format, args...),
		Position: position,
	})
}

// All returns every diagnostic reported so far, in report order.
func (s *Sink) All() []Diagnostic {
	return s.items
}

// HasErrors reports whether any diagnostic has been recorded.
func (s *Sink) HasErrors() bool {
	return len(s.items) > 0
}

// Len returns the number of diagnostics recorded.
func (s *Sink) Len() int {
	return len(s.items)
}
