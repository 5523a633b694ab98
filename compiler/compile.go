package compiler

import (
	"fmt"

	"github.com/strager/jackc/ast"
)

// Compile turns a whole program into VM text. If anything is wrong with the
// program the result is a *diag.Error and no code. Code generation is skipped
// when the symbol table already has problems.
func Compile(classes []*ast.Node, opts Options) (string, error) {
	table, err := BuildSymbolTable(classes, opts)
	if err != nil {
		return "", err
	}
	code, err := Generate(table)
	if err != nil {
		return "", err
	}
	return code.String(), nil
}

// CompileSource decodes class trees written in the S-expression interchange
// format and compiles them.
func CompileSource(src string, opts Options) (string, error) {
	classes, err := ast.Decode(src)
	if err != nil {
		return "", fmt.Errorf("decode class trees: %w", err)
	}
	return Compile(classes, opts)
}
