package ast

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"
)

const pointClass = `(class Point
  (classVar field int x y)
  (subroutine method int getX (params)
    (body (var int tmp) (statements (let tmp (expr (name x))) (return (expr (name tmp)))))))`

func TestDecode(t *testing.T) {
	classes, err := Decode(pointClass + "\n(class Main)")
	be.Err(t, err, nil)
	be.Equal(t, len(classes), 2)

	point := classes[0]
	be.Equal(t, point.Tag, TagClass)
	be.Equal(t, point.Lexeme(), "Point")
	be.Equal(t, *point.Token, Token{Kind: Identifier, Lexeme: "Point", Line: 1})

	classVar := point.Child(TagClassVar)
	be.Equal(t, classVar.Token.Kind, Keyword)
	be.Equal(t, classVar.Lexeme(), "field")
	be.Equal(t, len(classVar.Children), 3)
	be.Equal(t, classVar.Children[0].Tag, TagLeaf)
	be.Equal(t, classVar.Children[0].Token.Kind, Keyword)
	be.Equal(t, classVar.Children[2].Lexeme(), "y")
	be.Equal(t, classVar.Children[2].Token.Line, 2)

	sub := point.Child(TagSubroutine)
	be.Equal(t, sub.Lexeme(), "method")
	be.Equal(t, sub.Children[1].Lexeme(), "getX")
	body := sub.Child(TagBody)
	be.Equal(t, len(body.ChildrenWithTag(TagVar)), 1)
	be.Equal(t, len(body.Child(TagStatements).Children), 2)

	be.Equal(t, classes[1].Lexeme(), "Main")
	be.True(t, classes[1].Child(TagSubroutine) == nil)
	be.Equal(t, len(classes[1].ChildrenWithTag(TagSubroutine)), 0)
}

func TestTokenKinds(t *testing.T) {
	classes, err := Decode(`(class Main
  (subroutine function void main (params)
    (body (statements
      (do (name Output (member printString (expr (string "hi")))))
      (return (expr (int 7) (suffix & (unary ~ (keyword true)))))))))`)
	be.Err(t, err, nil)

	stmts := classes[0].Child(TagSubroutine).Child(TagBody).Child(TagStatements).Children
	arg := stmts[0].Children[0].Children[0].Children[0].Children[0]
	be.Equal(t, arg.Tag, TagString)
	be.Equal(t, *arg.Token, Token{Kind: StringConstant, Lexeme: "hi", Line: 4})

	expr := stmts[1].Children[0]
	be.Equal(t, expr.Children[0].Token.Kind, IntegerConstant)
	suffix := expr.Children[1]
	be.Equal(t, suffix.Token.Kind, Symbol)
	be.Equal(t, suffix.Children[0].Token.Kind, Symbol)
	be.Equal(t, suffix.Children[0].Children[0].Token.Kind, Keyword)
}

func TestToSExprRoundTrip(t *testing.T) {
	src := `(class Main (subroutine function void main (params (param String s)) (body (var Array a) (statements (let a (index (expr (int 0))) (expr (string "q\"uote"))) (return)))))`
	classes, err := Decode(src)
	be.Err(t, err, nil)
	be.Equal(t, ToSExpr(classes[0]), src)

	again, err := Decode(ToSExpr(classes[0]))
	be.Err(t, err, nil)
	be.Equal(t, ToSExpr(again[0]), src)
}

func TestNodeHelpersOnNil(t *testing.T) {
	var n *Node
	be.Equal(t, n.Lexeme(), "")
	be.Equal(t, (&Node{Tag: TagParams}).Lexeme(), "")
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		src string
		err string
	}{
		{`(class Main`, "expected ')'"},
		{`Main`, "line 1: expected a list, got Main"},
		{`(klass Main)`, `line 1: unknown node tag "klass"`},
		{`(class Main (classVar field int ...))`, "unexpected ellipsis in class tree"},
		{`(params)`, "malformed params: expected a class at top level"},
		{`(class class)`, "malformed class: expected identifier token"},
		{`(class Main (classVar global int x))`, `expected static or field, got "global"`},
		{`(class Main (classVar field void x))`, `"void" is not a type`},
		{`(class Main (classVar field int))`, "expected a type and at least one name"},
		{`(class Main (subroutine function void main (params) (body (statements))) (classVar field int x))`, "class variables must precede subroutines"},
		{`(class Main (subroutine procedure void main (params) (body (statements))))`, `expected constructor, function or method, got "procedure"`},
		{`(class Main (subroutine function void main (body (statements))))`, "expected return type, name, params and body"},
		{`(class Main (subroutine function void main (params (param int)) (body (statements))))`, "expected (param TYPE NAME)"},
		{`(class Main (subroutine function void main (params) (body)))`, "expected a body ending in statements"},
		{`(class Main (subroutine function void main (params) (body (var int) (statements))))`, "expected (var TYPE NAME+)"},
		{`(class Main (subroutine function void main (params) (body (statements (let x)))))`, "expected NAME [index] EXPR"},
		{`(class Main (subroutine function void main (params) (body (statements (do (int 1))))))`, "expected a call term"},
		{`(class Main (subroutine function void main (params) (body (statements (do (name f))))))`, "expected a subroutine call"},
		{`(class Main (subroutine function void main (params) (body (statements (return (int 1))))))`, "expected (expr TERM [SUFFIX])"},
		{`(class Main (subroutine function void main (params) (body (statements (return (expr (int 1) (suffix ~ (int 2))))))))`, `unknown operator "~"`},
		{`(class Main (subroutine function void main (params) (body (statements (return (expr (int 32768)))))))`, "integer constant 32768 out of range"},
		{`(class Main (subroutine function void main (params) (body (statements (return (expr (keyword void)))))))`, "expected true, false, null or this"},
		{`(class Main (subroutine function void main (params) (body (statements (return (expr (unary + (int 1))))))))`, `unknown unary operator "+"`},
		{`(class Main (subroutine function void main (params) (body (statements (while (expr (keyword true)))))))`, "expected condition and body"},
		{`(class Main (subroutine function void main (params) (body (statements (if (expr (keyword true)))))))`, "expected condition, then and optional else"},
	}

	for _, test := range tests {
		_, err := Decode(test.src)
		be.Err(t, err, test.err)
	}
}

func TestShapeErrorType(t *testing.T) {
	_, err := Decode(`(class Main (classVar field int 3x))`)
	var shapeErr *ShapeError
	be.True(t, errors.As(err, &shapeErr))
	be.Equal(t, shapeErr.Tag, TagClassVar)
	be.Equal(t, shapeErr.Line, 1)
}
