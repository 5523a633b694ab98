package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/strager/jackc/ast"
	"github.com/strager/jackc/sexy"
)

// CaseResult is the outcome of compiling the input of a markdown test case.
type CaseResult struct {
	Code  string
	Err   error
	Table *SymbolTable // nil if the symbol table could not be built
}

// RunCase compiles the input of tc.
func RunCase(tc sexy.TestCase) CaseResult {
	classes, err := ast.Decode(tc.Input)
	if err != nil {
		return CaseResult{Err: fmt.Errorf("decode class trees: %w", err)}
	}

	opts := Options{OSLibrary: tc.InputType == sexy.InputTypeJackASTWithOS}
	table, err := BuildSymbolTable(classes, opts)
	if err != nil {
		return CaseResult{Err: err}
	}
	code, err := Generate(table)
	if err != nil {
		return CaseResult{Err: err, Table: table}
	}
	return CaseResult{Code: code.String(), Table: table}
}

// Check reports how r fails assertion a, or nil if it holds.
func (r CaseResult) Check(a sexy.Assertion) error {
	switch a.Type {
	case sexy.AssertionTypeVM:
		if r.Err != nil {
			return fmt.Errorf("expected code, got error:\n%v", r.Err)
		}
		want, got := lines(a.Content), lines(r.Code)
		if strings.Join(want, "\n") != strings.Join(got, "\n") {
			return fmt.Errorf("code mismatch\nwant:\n%s\ngot:\n%s", strings.Join(want, "\n"), strings.Join(got, "\n"))
		}
		return nil

	case sexy.AssertionTypeVMContains:
		if r.Err != nil {
			return fmt.Errorf("expected code, got error:\n%v", r.Err)
		}
		got := lines(r.Code)
		i := 0
		for _, want := range lines(a.Content) {
			for i < len(got) && got[i] != want {
				i++
			}
			if i == len(got) {
				return fmt.Errorf("code does not contain %q in order\ngot:\n%s", want, strings.Join(got, "\n"))
			}
			i++
		}
		return nil

	case sexy.AssertionTypeCompileError:
		if r.Err == nil {
			return errors.New("expected a compile error, got code")
		}
		want, got := lines(a.Content), lines(r.Err.Error())
		if strings.Join(want, "\n") != strings.Join(got, "\n") {
			return fmt.Errorf("diagnostics mismatch\nwant:\n%s\ngot:\n%s", strings.Join(want, "\n"), strings.Join(got, "\n"))
		}
		return nil

	case sexy.AssertionTypeStatements:
		return r.checkStatements(a.ParsedSexy)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// checkStatements matches a pattern of the form (Class subroutine STMT...)
// against the statements built for that subroutine.
func (r CaseResult) checkStatements(pattern *sexy.Node) error {
	if r.Table == nil {
		return fmt.Errorf("no symbol table: %v", r.Err)
	}
	if pattern == nil || pattern.Type != sexy.NodeList || len(pattern.Items) < 2 {
		return errors.New("statements pattern must start with a class and subroutine name")
	}
	qualified := pattern.Items[0].Text + "." + pattern.Items[1].Text
	f := r.Table.Subroutine(qualified)
	if f == nil {
		return fmt.Errorf("subroutine %s does not exist", qualified)
	}

	actual, err := sexy.Parse("(" + f.Class + " " + f.Name + " " + ToSExpr(f.Body) + ")")
	if err != nil {
		return fmt.Errorf("render statements of %s: %w", qualified, err)
	}
	return sexy.Match(pattern, actual)
}

// lines splits text into trimmed, non-empty lines.
func lines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
