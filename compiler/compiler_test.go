package compiler

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/nalgeon/be"
	"github.com/strager/jackc/ast"
	"github.com/strager/jackc/diag"
)

const mainOnly = `(class Main (subroutine function void main (params) (body (statements (return)))))`

// loopProgram uses every label-producing statement.
const loopProgram = `
(class Counter
  (classVar field int n)
  (subroutine constructor Counter new (params) (body (statements (let n (expr (int 0))) (return (expr (keyword this))))))
  (subroutine method void step (params (param boolean up))
    (body (statements
      (if (expr (name up))
        (statements (let n (expr (name n) (suffix + (int 1)))))
        (statements (let n (expr (name n) (suffix - (int 1))))))
      (return)))))
(class Main
  (subroutine function void main (params)
    (body (var Counter c) (var int i)
      (statements
        (let c (expr (name Counter (member new))))
        (while (expr (name i) (suffix < (int 3)))
          (statements
            (do (name c (member step (expr (keyword true)))))
            (let i (expr (name i) (suffix + (int 1))))))
        (return)))))
`

func mustDecode(t *testing.T, src string) []*ast.Node {
	t.Helper()
	classes, err := ast.Decode(src)
	be.Err(t, err, nil)
	return classes
}

func diagnosticsOf(t *testing.T, err error) []diag.Diagnostic {
	t.Helper()
	var diagErr *diag.Error
	be.True(t, errors.As(err, &diagErr))
	return diagErr.Diagnostics()
}

func TestCompileMainOnly(t *testing.T) {
	code, err := CompileSource(mainOnly, Options{})
	be.Err(t, err, nil)
	be.Equal(t, code, "function Main.main 0\npush constant 0\nreturn\n")
}

func TestCompileIsIdempotent(t *testing.T) {
	classes := mustDecode(t, loopProgram)

	first, err := Compile(classes, Options{})
	be.Err(t, err, nil)
	second, err := Compile(classes, Options{})
	be.Err(t, err, nil)

	be.True(t, first != "")
	be.Equal(t, first, second)
	be.True(t, strings.Contains(first, "label WHILE_LABEL0\n"))
	be.True(t, strings.Contains(first, "if-goto ELSE_LABEL0\n"))
	be.True(t, !strings.Contains(first, "LABEL1"))
}

func TestConcurrentCompilesDoNotShareLabels(t *testing.T) {
	classes := mustDecode(t, loopProgram)
	want, err := Compile(classes, Options{})
	be.Err(t, err, nil)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = Compile(classes, Options{})
		}()
	}
	wg.Wait()

	for _, got := range results {
		be.Equal(t, got, want)
	}
}

func TestMissingMainMainIsOneDiagnostic(t *testing.T) {
	tests := []string{
		`(class Other (subroutine function void main (params) (body (statements))))`,
		`(class Main (subroutine function void start (params) (body (statements))))`,
		`(class Main (subroutine constructor Main main (params) (body (statements))))`,
		`(class Main (subroutine function void main (params (param int x)) (body (statements))))`,
		`(class Main (subroutine function boolean main (params) (body (statements (return (expr (keyword true)))))))`,
	}

	for _, src := range tests {
		code, err := CompileSource(src, Options{})
		be.Equal(t, code, "")
		diags := diagnosticsOf(t, err)
		be.Equal(t, len(diags), 1)
		be.True(t, strings.Contains(diags[0].String(), "Main.main"))
		be.Equal(t, diags[0].Category, diag.Declaration)
	}
}

func TestFieldAndMethodWithSameName(t *testing.T) {
	src := `
(class Main
  (classVar field int size)
  (subroutine method int size (params) (body (statements (return (expr (int 0))))))
  (subroutine function void main (params) (body (statements))))`

	_, err := CompileSource(src, Options{})
	diags := diagnosticsOf(t, err)
	be.Equal(t, len(diags), 1)
	be.Equal(t, diags[0].String(), "Main: Member size already exists")
}

func staticsProgram(count int) string {
	var sb strings.Builder
	sb.WriteString("(class Store (classVar static int")
	for i := range count {
		fmt.Fprintf(&sb, " s%d", i)
	}
	sb.WriteString("))\n")
	sb.WriteString(mainOnly)
	return sb.String()
}

func TestStaticLimit(t *testing.T) {
	code, err := CompileSource(staticsProgram(MaxStatics), Options{})
	be.Err(t, err, nil)
	be.True(t, code != "")

	code, err = CompileSource(staticsProgram(MaxStatics+1), Options{})
	be.Equal(t, code, "")
	diags := diagnosticsOf(t, err)
	be.Equal(t, len(diags), 1)
	be.True(t, strings.Contains(diags[0].Message, "exceed 240"))
}

func TestStaticLimitSpansClasses(t *testing.T) {
	var sb strings.Builder
	for c := range 3 {
		fmt.Fprintf(&sb, "(class C%d (classVar static int", c)
		for i := range 81 {
			fmt.Fprintf(&sb, " v%d", i)
		}
		sb.WriteString("))\n")
	}
	sb.WriteString(mainOnly)

	_, err := CompileSource(sb.String(), Options{})
	be.Err(t, err, "Static variable count 243 must not exceed 240")
}

func TestIfAdvancesCounterByOne(t *testing.T) {
	classes := mustDecode(t, `
(class Main
  (subroutine function void main (params)
    (body (statements (if (expr (keyword true)) (statements) (statements))))))`)
	table, err := BuildSymbolTable(classes, Options{})
	be.Err(t, err, nil)

	g := NewGenerator(table)
	g.ifCount = 7
	code := g.Subroutine(table.Subroutine("Main.main"))

	be.Equal(t, g.ifCount, 8)
	be.Equal(t, g.whileCount, 0)
	text := code.String()
	be.True(t, strings.Contains(text, "if-goto ELSE_LABEL7\n"))
	be.True(t, strings.Contains(text, "goto IF_LABEL7\n"))
	be.True(t, strings.Contains(text, "label ELSE_LABEL7\n"))
	be.True(t, strings.Contains(text, "label IF_LABEL7\n"))
}

func TestConstructorIgnoresWrittenReturnExpression(t *testing.T) {
	src := `
(class Main
  (classVar field int x)
  (subroutine constructor Main new (params)
    (body (statements (let x (expr (int 9))) (return (expr (keyword this))))))
  (subroutine function void main (params) (body (statements))))`

	code, err := CompileSource(src, Options{})
	be.Err(t, err, nil)
	lines := strings.Split(strings.TrimSpace(code), "\n")
	be.Equal(t, lines[:8], []string{
		"function Main.new 0",
		"push constant 1",
		"call Memory.alloc 1",
		"pop pointer 0",
		"push constant 9",
		"pop this 0",
		"push pointer 0",
		"return",
	})
}

func TestImplicitReturns(t *testing.T) {
	src := `
(class Main
  (subroutine constructor Main new (params) (body (statements)))
  (subroutine function void main (params) (body (statements (do (name Main (member new)))))))`

	code, err := CompileSource(src, Options{})
	be.Err(t, err, nil)
	be.Equal(t, code, strings.Join([]string{
		"function Main.new 0",
		"push constant 0",
		"call Memory.alloc 1",
		"pop pointer 0",
		"push pointer 0",
		"return",
		"function Main.main 0",
		"call Main.new 0",
		"pop temp 0",
		"push constant 0",
		"return",
		"",
	}, "\n"))
}

func TestSymbolErrorsSuppressCodegen(t *testing.T) {
	src := `
(class Main
  (classVar field Nope n)
  (subroutine function int f (params) (body (statements)))
  (subroutine function void main (params) (body (statements))))`

	_, err := CompileSource(src, Options{})
	diags := diagnosticsOf(t, err)
	be.Equal(t, len(diags), 1)
	be.Equal(t, diags[0].String(), "Main: Type Nope does not exist")
}

func TestCodegenDiagnosticCategories(t *testing.T) {
	src := `
(class Main
  (subroutine function void main (params)
    (body (var int x)
      (statements
        (let x (expr (keyword false)))
        (let y (expr (int 1)))
        (return (expr (int 1))))))
  (subroutine function int f (params) (body (statements))))`

	_, err := CompileSource(src, Options{})
	diags := diagnosticsOf(t, err)
	be.Equal(t, len(diags), 4)
	be.Equal(t, diags[0].Category, diag.Type)
	be.Equal(t, diags[1].Category, diag.Resolution)
	be.Equal(t, diags[2].Category, diag.Structural)
	be.Equal(t, diags[3].Category, diag.Structural)
	be.Equal(t, diags[3].Scope, "Main.f")
}

func TestOSLibraryOption(t *testing.T) {
	src := `
(class Main
  (subroutine function void main (params)
    (body (statements (do (name Output (member printInt (expr (int 42)))))))))`

	_, err := CompileSource(src, Options{})
	be.Err(t, err, "Main.main: Subroutine Output.printInt does not exist")

	code, err := CompileSource(src, Options{OSLibrary: true})
	be.Err(t, err, nil)
	be.True(t, strings.Contains(code, "push constant 42\ncall Output.printInt 1\npop temp 0\n"))
	be.True(t, !strings.Contains(code, "function Output."))
}

func TestOSLibraryClassesCannotBeRedefined(t *testing.T) {
	src := `(class Math (subroutine function int abs (params (param int x)) (body (statements (return (expr (name x)))))))` + mainOnly

	_, err := CompileSource(src, Options{})
	be.Err(t, err, nil)

	_, err = CompileSource(src, Options{OSLibrary: true})
	be.Err(t, err, "Class Math already exists")
}

func TestCompileSourceDecodeError(t *testing.T) {
	_, err := CompileSource(`(class Main (bogus))`, Options{})
	be.Err(t, err, "decode class trees")

	var diagErr *diag.Error
	be.True(t, !errors.As(err, &diagErr))
}
