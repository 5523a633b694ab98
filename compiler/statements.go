package compiler

import (
	"fmt"
	"strings"

	"github.com/strager/jackc/ast"
	"github.com/strager/jackc/sexy"
)

// Statement is one of *Let, *Return, *Do, *If or *While.
type Statement interface {
	// Owner is the qualified name of the enclosing subroutine.
	Owner() string
	statement()
}

// Expression is one of *Literal, *VariableRef, *SubroutineCall, *UnaryOp or
// *BinaryOp.
type Expression interface {
	expression()
}

type owned struct {
	owner string
}

func (o owned) Owner() string { return o.owner }

type Let struct {
	owned
	Target string
	Index  Expression // nil unless the target is indexed
	Value  Expression
}

type Return struct {
	owned
	Value Expression // nil for a bare return
}

type Do struct {
	owned
	Call *SubroutineCall
}

type If struct {
	owned
	Condition Expression
	Then      []Statement
	Else      []Statement
}

type While struct {
	owned
	Condition Expression
	Body      []Statement
}

func (*Let) statement()    {}
func (*Return) statement() {}
func (*Do) statement()     {}
func (*If) statement()     {}
func (*While) statement()  {}

type LiteralKind int

const (
	IntLiteral LiteralKind = iota
	StringLiteral
	TrueLiteral
	FalseLiteral
	NullLiteral
	ThisLiteral
)

// Literal is a constant or the keyword this. Text holds the digits of an
// integer or the contents of a string.
type Literal struct {
	Kind LiteralKind
	Text string
}

type VariableRef struct {
	Name  string
	Index Expression // nil unless indexed
}

// SubroutineCall is f(args) when Prefix is empty and Prefix.f(args)
// otherwise. Whether Prefix names a variable or a class is decided during
// code generation.
type SubroutineCall struct {
	Prefix string
	Name   string
	Args   []Expression
}

type UnaryOp struct {
	Op      string // "-", "~" or "!"
	Operand Expression
}

type BinaryOp struct {
	Op          string
	Left, Right Expression
}

func (*Literal) expression()        {}
func (*VariableRef) expression()    {}
func (*SubroutineCall) expression() {}
func (*UnaryOp) expression()        {}
func (*BinaryOp) expression()       {}

// BuildStatements converts a (statements ...) node of the subroutine named
// owner. The tree must already have passed ast.CheckClass.
func BuildStatements(n *ast.Node, owner string) []Statement {
	stmts := make([]Statement, 0, len(n.Children))
	for _, c := range n.Children {
		stmts = append(stmts, buildStatement(c, owner))
	}
	return stmts
}

func buildStatement(n *ast.Node, owner string) Statement {
	o := owned{owner: owner}
	switch n.Tag {
	case ast.TagLet:
		let := &Let{owned: o, Target: n.Lexeme()}
		if len(n.Children) == 2 {
			let.Index = buildExpression(n.Children[0].Children[0])
		}
		let.Value = buildExpression(n.Children[len(n.Children)-1])
		return let
	case ast.TagReturn:
		ret := &Return{owned: o}
		if len(n.Children) == 1 {
			ret.Value = buildExpression(n.Children[0])
		}
		return ret
	case ast.TagDo:
		return &Do{owned: o, Call: buildTerm(n.Children[0]).(*SubroutineCall)}
	case ast.TagIf:
		s := &If{
			owned:     o,
			Condition: buildExpression(n.Children[0]),
			Then:      BuildStatements(n.Children[1], owner),
		}
		if len(n.Children) == 3 {
			s.Else = BuildStatements(n.Children[2], owner)
		}
		return s
	case ast.TagWhile:
		return &While{
			owned:     o,
			Condition: buildExpression(n.Children[0]),
			Body:      BuildStatements(n.Children[1], owner),
		}
	default:
		panic(fmt.Sprintf("unexpected statement node %s", n.Tag))
	}
}

// buildExpression folds the right-recursive operator chain into left-nested
// binary operations. Operators have no precedence and apply in the order
// written.
func buildExpression(n *ast.Node) Expression {
	result := buildTerm(n.Children[0])
	if len(n.Children) < 2 {
		return result
	}
	for suffix := n.Children[1]; suffix != nil; {
		result = &BinaryOp{Op: suffix.Lexeme(), Left: result, Right: buildTerm(suffix.Children[0])}
		if len(suffix.Children) == 2 {
			suffix = suffix.Children[1]
		} else {
			suffix = nil
		}
	}
	return result
}

func buildArgs(n *ast.Node) []Expression {
	args := make([]Expression, 0, len(n.Children))
	for _, c := range n.Children {
		args = append(args, buildExpression(c))
	}
	return args
}

func buildTerm(n *ast.Node) Expression {
	switch n.Tag {
	case ast.TagInt:
		return &Literal{Kind: IntLiteral, Text: n.Lexeme()}
	case ast.TagString:
		return &Literal{Kind: StringLiteral, Text: n.Lexeme()}
	case ast.TagKeyword:
		switch n.Lexeme() {
		case "true":
			return &Literal{Kind: TrueLiteral}
		case "false":
			return &Literal{Kind: FalseLiteral}
		case "null":
			return &Literal{Kind: NullLiteral}
		default:
			return &Literal{Kind: ThisLiteral}
		}
	case ast.TagParen:
		return buildExpression(n.Children[0])
	case ast.TagUnary:
		return &UnaryOp{Op: n.Lexeme(), Operand: buildTerm(n.Children[0])}
	case ast.TagName:
		if len(n.Children) == 0 {
			return &VariableRef{Name: n.Lexeme()}
		}
		switch suffix := n.Children[0]; suffix.Tag {
		case ast.TagIndex:
			return &VariableRef{Name: n.Lexeme(), Index: buildExpression(suffix.Children[0])}
		case ast.TagCall:
			return &SubroutineCall{Name: n.Lexeme(), Args: buildArgs(suffix)}
		case ast.TagMember:
			return &SubroutineCall{Prefix: n.Lexeme(), Name: suffix.Lexeme(), Args: buildArgs(suffix)}
		}
	}
	panic(fmt.Sprintf("unexpected term node %s", n.Tag))
}

// ToSExpr renders built statements, one per line, for debugging and tests.
func ToSExpr(stmts []Statement) string {
	var sb strings.Builder
	for _, s := range stmts {
		writeStatement(&sb, s)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func writeBlock(sb *strings.Builder, head string, stmts []Statement) {
	sb.WriteString("(" + head)
	for _, s := range stmts {
		sb.WriteByte(' ')
		writeStatement(sb, s)
	}
	sb.WriteString(")")
}

func writeStatement(sb *strings.Builder, s Statement) {
	switch s := s.(type) {
	case *Let:
		sb.WriteString("(let " + s.Target)
		if s.Index != nil {
			sb.WriteString(" (index ")
			writeExpression(sb, s.Index)
			sb.WriteString(")")
		}
		sb.WriteByte(' ')
		writeExpression(sb, s.Value)
		sb.WriteString(")")
	case *Return:
		sb.WriteString("(return")
		if s.Value != nil {
			sb.WriteByte(' ')
			writeExpression(sb, s.Value)
		}
		sb.WriteString(")")
	case *Do:
		sb.WriteString("(do ")
		writeExpression(sb, s.Call)
		sb.WriteString(")")
	case *If:
		sb.WriteString("(if ")
		writeExpression(sb, s.Condition)
		sb.WriteByte(' ')
		writeBlock(sb, "then", s.Then)
		sb.WriteByte(' ')
		writeBlock(sb, "else", s.Else)
		sb.WriteString(")")
	case *While:
		sb.WriteString("(while ")
		writeExpression(sb, s.Condition)
		sb.WriteByte(' ')
		writeBlock(sb, "body", s.Body)
		sb.WriteString(")")
	default:
		panic(fmt.Sprintf("unknown statement %T", s))
	}
}

func writeExpression(sb *strings.Builder, e Expression) {
	switch e := e.(type) {
	case *Literal:
		switch e.Kind {
		case IntLiteral:
			sb.WriteString("(int " + e.Text + ")")
		case StringLiteral:
			sb.WriteString("(string " + sexy.NewString(e.Text).String() + ")")
		case TrueLiteral:
			sb.WriteString("(keyword true)")
		case FalseLiteral:
			sb.WriteString("(keyword false)")
		case NullLiteral:
			sb.WriteString("(keyword null)")
		case ThisLiteral:
			sb.WriteString("(keyword this)")
		}
	case *VariableRef:
		sb.WriteString("(var " + e.Name)
		if e.Index != nil {
			sb.WriteString(" (index ")
			writeExpression(sb, e.Index)
			sb.WriteString(")")
		}
		sb.WriteString(")")
	case *SubroutineCall:
		sb.WriteString("(call ")
		if e.Prefix != "" {
			sb.WriteString(e.Prefix + " ")
		}
		sb.WriteString(e.Name)
		for _, arg := range e.Args {
			sb.WriteByte(' ')
			writeExpression(sb, arg)
		}
		sb.WriteString(")")
	case *UnaryOp:
		sb.WriteString("(unary " + e.Op + " ")
		writeExpression(sb, e.Operand)
		sb.WriteString(")")
	case *BinaryOp:
		sb.WriteString("(binary " + e.Op + " ")
		writeExpression(sb, e.Left)
		sb.WriteByte(' ')
		writeExpression(sb, e.Right)
		sb.WriteString(")")
	default:
		panic(fmt.Sprintf("unknown expression %T", e))
	}
}
