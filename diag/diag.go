// Package diag collects compile diagnostics. Checks append and carry on, so a
// single pass reports as many errors as it can find.
package diag

import (
	"fmt"
	"strings"
)

// Category groups diagnostics by the kind of rule that was broken.
type Category int

const (
	Declaration Category = iota // duplicate names, unknown types, Main/Sys shape, static budget
	Resolution                  // unresolved variables and calls
	Type                        // operand, assignment, return and condition mismatches
	Structural                  // missing return, value returned from void or constructor
)

func (c Category) String() string {
	switch c {
	case Declaration:
		return "declaration"
	case Resolution:
		return "resolution"
	case Type:
		return "type"
	case Structural:
		return "structural"
	default:
		return "unknown"
	}
}

// Diagnostic is one reported problem. Scope is "Class", "Class.member" or
// empty for program-wide problems.
type Diagnostic struct {
	Category Category
	Scope    string
	Message  string
}

func (d Diagnostic) String() string {
	if d.Scope == "" {
		return d.Message
	}
	return d.Scope + ": " + d.Message
}

// Bag accumulates diagnostics in the order they were reported.
type Bag struct {
	diagnostics []Diagnostic
}

func NewBag() *Bag {
	return &Bag{}
}

func (b *Bag) Add(d Diagnostic) {
	b.diagnostics = append(b.diagnostics, d)
}

// Errorf reports a formatted diagnostic.
func (b *Bag) Errorf(category Category, scope string, format string, args ...any) {
	b.Add(Diagnostic{Category: category, Scope: scope, Message: fmt.Sprintf(format, args...)})
}

func (b *Bag) HasErrors() bool {
	return len(b.diagnostics) > 0
}

func (b *Bag) Len() int {
	return len(b.diagnostics)
}

// Diagnostics returns a copy of the collected diagnostics.
func (b *Bag) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), b.diagnostics...)
}

// String concatenates all diagnostics, one per line.
func (b *Bag) String() string {
	var sb strings.Builder
	for _, d := range b.diagnostics {
		sb.WriteString(d.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Err returns nil for an empty bag and an *Error otherwise.
func (b *Bag) Err() error {
	if !b.HasErrors() {
		return nil
	}
	return &Error{diagnostics: b.Diagnostics()}
}

// Error is returned by a failed compile. Its message is the full diagnostic
// text; callers wanting structure use errors.As and Diagnostics.
type Error struct {
	diagnostics []Diagnostic
}

func (e *Error) Error() string {
	lines := make([]string, len(e.diagnostics))
	for i, d := range e.diagnostics {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

func (e *Error) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), e.diagnostics...)
}
