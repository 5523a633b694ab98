package sexy

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestParseSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "hello"},
		{"test_var", "test_var"},
		{"func-name", "func-name"},
		{"+", "+"},
		{"-", "-"},
		{"~", "~"},
		{"<", "<"},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeSymbol)
		be.Equal(t, result.Text, test.expected)
		be.Equal(t, result.String(), test.expected)
	}
}

func TestParseString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		output   string
	}{
		{`"hello"`, "hello", `"hello"`},
		{`"hello world"`, "hello world", `"hello world"`},
		{`""`, "", `""`},
		{`"test\"quote"`, `test"quote`, `"test\"quote"`},
		{`"test\\backslash"`, `test\backslash`, `"test\\backslash"`},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeString)
		be.Equal(t, result.Text, test.expected)
		be.Equal(t, result.String(), test.output)
	}
}

func TestParseInteger(t *testing.T) {
	tests := []string{"0", "42", "32767", "-7"}

	for _, test := range tests {
		result, err := Parse(test)
		be.Err(t, err, nil)
		be.Equal(t, result.Type, NodeInteger)
		be.Equal(t, result.Text, test)
	}
}

func TestParseList(t *testing.T) {
	result, err := Parse(`(suffix + (int 1) (suffix * (name x)))`)
	be.Err(t, err, nil)

	be.Equal(t, result.Type, NodeList)
	be.Equal(t, result.Head(), "suffix")
	be.Equal(t, len(result.Items), 4)
	be.Equal(t, result.Items[1].Text, "+")
	be.Equal(t, result.Items[2].Items[1].Type, NodeInteger)
	be.Equal(t, result.String(), `(suffix + (int 1) (suffix * (name x)))`)
}

func TestParseLineNumbers(t *testing.T) {
	result, err := Parse("(class Main\n  (classVar field int x)\n\n  (classVar static int y))")
	be.Err(t, err, nil)

	be.Equal(t, result.Line, 1)
	be.Equal(t, result.Items[2].Line, 2)
	be.Equal(t, result.Items[3].Line, 4)
	be.Equal(t, result.Items[3].Items[3].Line, 4)
}

func TestParseAll(t *testing.T) {
	nodes, err := ParseAll("(class A) ; first\n(class B)\n")
	be.Err(t, err, nil)
	be.Equal(t, len(nodes), 2)
	be.Equal(t, nodes[0].String(), "(class A)")
	be.Equal(t, nodes[1].String(), "(class B)")
	be.Equal(t, nodes[1].Line, 2)

	nodes, err = ParseAll("  ; only a comment\n")
	be.Err(t, err, nil)
	be.Equal(t, len(nodes), 0)
}

func TestParseComments(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"; comment\nhello", "hello"},
		{"hello ; trailing comment", "hello"},
		{"(test ; inline comment\n world)", "(test world)"},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)
		be.Equal(t, result.String(), test.expected)
	}
}

func TestRoundTripParsing(t *testing.T) {
	tests := []string{
		"hello",
		`"world"`,
		"42",
		"...",
		"()",
		"(test)",
		"(1 2 3)",
		`(let x (expr (string "a\"b")))`,
	}

	for _, test := range tests {
		t.Run(test, func(t *testing.T) {
			result1, err := Parse(test)
			be.Err(t, err, nil)

			output := result1.String()
			result2, err := Parse(output)
			be.Err(t, err, nil)
			be.Equal(t, result2.String(), output)
		})
	}
}

func TestSyntaxErrorHandling(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single dot", ".", "line 1: unexpected character '.'"},
		{"unknown character", "@", "line 1: unexpected character '@'"},
		{"dot within list", "(1 2\n . 4)", "line 2: unexpected character '.'"},
		{"unterminated string", `"abc`, "line 1: unterminated string"},
		{"invalid escape", `"a\q"`, `line 1: invalid escape sequence: \q`},
		{"unclosed list", "(hello", "line 1: expected ')' but got EOF"},
		{"stray paren", ")", "line 1: unexpected token: ')'"},
		{"two data", "a b", "expected exactly one datum but got 2"},
		{"no data", "", "expected exactly one datum but got 0"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result, err := Parse(test.input)
			be.True(t, err != nil)
			be.Equal(t, err.Error(), test.expected)
			be.True(t, result == nil)
		})
	}
}

func TestNodeHelpers(t *testing.T) {
	be.True(t, NewSymbol("x").IsAtom())
	be.True(t, NewString("x").IsAtom())
	be.True(t, NewInteger("1").IsAtom())
	be.True(t, NewEllipsis().IsAtom())

	list := NewList(NewSymbol("name"), NewSymbol("x"))
	be.True(t, !list.IsAtom())
	be.Equal(t, list.Head(), "name")
	be.Equal(t, NewList(NewInteger("1")).Head(), "")
	be.Equal(t, NewSymbol("x").Head(), "")
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		actual  string
		err     string
	}{
		{"exact", "(let x (int 5))", "(let x (int 5))", ""},
		{"wildcard item", "(let x ...)", "(let x (binary + (int 1) (int 2)))", ""},
		{"wildcard middle", "(call ... f)", "(call Main f)", ""},
		{"symbol mismatch", "(let x (int 5))", "(let y (int 5))", "at root[1]: expected x, got y"},
		{"type mismatch", "(int 5)", `(int "5")`, `at root[1]: expected integer 5, got string "5"`},
		{"too few", "(a b c)", "(a b)", "at root: expected 3 items, got 2 in (a b)"},
		{"too many", "(a b)", "(a b c)", "at root: expected 2 items, got 3 in (a b c)"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pattern, err := Parse(test.pattern)
			be.Err(t, err, nil)
			actual, err := Parse(test.actual)
			be.Err(t, err, nil)

			err = Match(pattern, actual)
			if test.err == "" {
				be.Err(t, err, nil)
			} else {
				be.Err(t, err, test.err)
			}
		})
	}
}
