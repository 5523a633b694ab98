package ast

import (
	"fmt"
	"strconv"
)

// ShapeError reports a tree that does not follow the class grammar.
type ShapeError struct {
	Tag     Tag
	Line    int
	Message string
}

func (e *ShapeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: malformed %s: %s", e.Line, e.Tag, e.Message)
	}
	return fmt.Sprintf("malformed %s: %s", e.Tag, e.Message)
}

func shapeErr(n *Node, format string, args ...any) error {
	line := 0
	if n.Token != nil {
		line = n.Token.Line
	}
	return &ShapeError{Tag: n.Tag, Line: line, Message: fmt.Sprintf(format, args...)}
}

// CheckClass verifies that a class tree has the shape the backend expects.
func CheckClass(n *Node) error {
	if n.Tag != TagClass {
		return shapeErr(n, "expected a class at top level")
	}
	if err := wantToken(n, Identifier); err != nil {
		return err
	}
	seenSubroutine := false
	for _, c := range n.Children {
		switch c.Tag {
		case TagClassVar:
			if seenSubroutine {
				return shapeErr(c, "class variables must precede subroutines")
			}
			if err := checkClassVar(c); err != nil {
				return err
			}
		case TagSubroutine:
			seenSubroutine = true
			if err := checkSubroutine(c); err != nil {
				return err
			}
		default:
			return shapeErr(n, "unexpected %s", c.Tag)
		}
	}
	return nil
}

func checkClassVar(n *Node) error {
	if n.Lexeme() != "static" && n.Lexeme() != "field" {
		return shapeErr(n, "expected static or field, got %q", n.Lexeme())
	}
	if len(n.Children) < 2 {
		return shapeErr(n, "expected a type and at least one name")
	}
	if err := checkType(n.Children[0], false); err != nil {
		return err
	}
	return checkNames(n, n.Children[1:])
}

func checkSubroutine(n *Node) error {
	switch n.Lexeme() {
	case "constructor", "function", "method":
	default:
		return shapeErr(n, "expected constructor, function or method, got %q", n.Lexeme())
	}
	if len(n.Children) != 4 {
		return shapeErr(n, "expected return type, name, params and body")
	}
	if err := checkType(n.Children[0], true); err != nil {
		return err
	}
	if err := checkNames(n, n.Children[1:2]); err != nil {
		return err
	}

	params, body := n.Children[2], n.Children[3]
	if params.Tag != TagParams {
		return shapeErr(n, "expected params, got %s", params.Tag)
	}
	for _, p := range params.Children {
		if p.Tag != TagParam || p.Token == nil || len(p.Children) != 1 {
			return shapeErr(params, "expected (param TYPE NAME)")
		}
		if err := checkTypeToken(p, p.Token, false); err != nil {
			return err
		}
		if err := checkNames(p, p.Children); err != nil {
			return err
		}
	}

	if body.Tag != TagBody || len(body.Children) == 0 {
		return shapeErr(n, "expected a body ending in statements")
	}
	last := len(body.Children) - 1
	for _, v := range body.Children[:last] {
		if v.Tag != TagVar || v.Token == nil || len(v.Children) == 0 {
			return shapeErr(body, "expected (var TYPE NAME+)")
		}
		if err := checkTypeToken(v, v.Token, false); err != nil {
			return err
		}
		if err := checkNames(v, v.Children); err != nil {
			return err
		}
	}
	return checkStatements(body.Children[last])
}

func checkStatements(n *Node) error {
	if n.Tag != TagStatements {
		return shapeErr(n, "expected statements")
	}
	for _, s := range n.Children {
		if err := checkStatement(s); err != nil {
			return err
		}
	}
	return nil
}

func checkStatement(n *Node) error {
	switch n.Tag {
	case TagLet:
		if err := wantToken(n, Identifier); err != nil {
			return err
		}
		switch len(n.Children) {
		case 1:
			return checkExpr(n.Children[0])
		case 2:
			if n.Children[0].Tag != TagIndex {
				return shapeErr(n, "expected index before value")
			}
			if err := checkIndex(n.Children[0]); err != nil {
				return err
			}
			return checkExpr(n.Children[1])
		}
		return shapeErr(n, "expected NAME [index] EXPR")
	case TagIf:
		if len(n.Children) < 2 || len(n.Children) > 3 {
			return shapeErr(n, "expected condition, then and optional else")
		}
		if err := checkExpr(n.Children[0]); err != nil {
			return err
		}
		for _, block := range n.Children[1:] {
			if err := checkStatements(block); err != nil {
				return err
			}
		}
		return nil
	case TagWhile:
		if len(n.Children) != 2 {
			return shapeErr(n, "expected condition and body")
		}
		if err := checkExpr(n.Children[0]); err != nil {
			return err
		}
		return checkStatements(n.Children[1])
	case TagDo:
		if len(n.Children) != 1 || n.Children[0].Tag != TagName {
			return shapeErr(n, "expected a call term")
		}
		call := n.Children[0]
		if len(call.Children) != 1 || (call.Children[0].Tag != TagCall && call.Children[0].Tag != TagMember) {
			return shapeErr(n, "expected a subroutine call")
		}
		return checkTerm(call)
	case TagReturn:
		switch len(n.Children) {
		case 0:
			return nil
		case 1:
			return checkExpr(n.Children[0])
		}
		return shapeErr(n, "expected at most one expression")
	}
	return shapeErr(n, "not a statement")
}

func checkExpr(n *Node) error {
	if n.Tag != TagExpr || len(n.Children) < 1 || len(n.Children) > 2 {
		return shapeErr(n, "expected (expr TERM [SUFFIX])")
	}
	if err := checkTerm(n.Children[0]); err != nil {
		return err
	}
	if len(n.Children) == 2 {
		return checkSuffix(n.Children[1])
	}
	return nil
}

func checkSuffix(n *Node) error {
	if n.Tag != TagSuffix || len(n.Children) < 1 || len(n.Children) > 2 {
		return shapeErr(n, "expected (suffix OP TERM [SUFFIX])")
	}
	switch n.Lexeme() {
	case "+", "-", "*", "/", "&", "|", "<", ">", "=":
	default:
		return shapeErr(n, "unknown operator %q", n.Lexeme())
	}
	if err := checkTerm(n.Children[0]); err != nil {
		return err
	}
	if len(n.Children) == 2 {
		return checkSuffix(n.Children[1])
	}
	return nil
}

func checkIndex(n *Node) error {
	if len(n.Children) != 1 {
		return shapeErr(n, "expected one expression")
	}
	return checkExpr(n.Children[0])
}

func checkArgs(n *Node) error {
	for _, arg := range n.Children {
		if err := checkExpr(arg); err != nil {
			return err
		}
	}
	return nil
}

func checkTerm(n *Node) error {
	switch n.Tag {
	case TagInt:
		if err := wantToken(n, IntegerConstant); err != nil {
			return err
		}
		v, err := strconv.Atoi(n.Lexeme())
		if err != nil || v < 0 || v > 32767 {
			return shapeErr(n, "integer constant %s out of range", n.Lexeme())
		}
		return nil
	case TagString:
		return wantToken(n, StringConstant)
	case TagKeyword:
		switch n.Lexeme() {
		case "true", "false", "null", "this":
			return nil
		}
		return shapeErr(n, "expected true, false, null or this")
	case TagParen:
		if len(n.Children) != 1 {
			return shapeErr(n, "expected one expression")
		}
		return checkExpr(n.Children[0])
	case TagUnary:
		switch n.Lexeme() {
		case "-", "~", "!":
		default:
			return shapeErr(n, "unknown unary operator %q", n.Lexeme())
		}
		if len(n.Children) != 1 {
			return shapeErr(n, "expected one operand")
		}
		return checkTerm(n.Children[0])
	case TagName:
		if err := wantToken(n, Identifier); err != nil {
			return err
		}
		if len(n.Children) == 0 {
			return nil
		}
		if len(n.Children) > 1 {
			return shapeErr(n, "expected at most one suffix")
		}
		switch suffix := n.Children[0]; suffix.Tag {
		case TagIndex:
			return checkIndex(suffix)
		case TagCall:
			return checkArgs(suffix)
		case TagMember:
			if err := wantToken(suffix, Identifier); err != nil {
				return err
			}
			return checkArgs(suffix)
		}
		return shapeErr(n, "unexpected suffix %s", n.Children[0].Tag)
	}
	return shapeErr(n, "not a term")
}

func checkType(n *Node, allowVoid bool) error {
	if n.Tag != TagLeaf {
		return shapeErr(n, "expected a type name")
	}
	return checkTypeToken(n, n.Token, allowVoid)
}

func checkTypeToken(n *Node, t *Token, allowVoid bool) error {
	if t.Kind == Identifier {
		return nil
	}
	switch t.Lexeme {
	case "int", "char", "boolean":
		return nil
	case "void":
		if allowVoid {
			return nil
		}
	}
	return shapeErr(n, "%q is not a type", t.Lexeme)
}

func checkNames(parent *Node, names []*Node) error {
	for _, name := range names {
		if name.Tag != TagLeaf || name.Token.Kind != Identifier {
			return shapeErr(parent, "expected an identifier")
		}
	}
	return nil
}

func wantToken(n *Node, kind TokenKind) error {
	if n.Token == nil || n.Token.Kind != kind {
		return shapeErr(n, "expected %s token", kind)
	}
	return nil
}
