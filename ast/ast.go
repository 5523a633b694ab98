// Package ast holds the class trees handed over by the front end and reads
// them from the S-expression interchange format.
//
// Each list in the interchange format is one node: the leading symbol is the
// node's tag, an atom directly after the tag is the node's token, later atoms
// become leaf nodes and nested lists become child nodes.
package ast

import (
	"fmt"
	"strings"

	"github.com/strager/jackc/sexy"
)

// Tag is the grammar category of a Node.
type Tag string

const (
	TagClass      Tag = "class"
	TagClassVar   Tag = "classVar"
	TagSubroutine Tag = "subroutine"
	TagParams     Tag = "params"
	TagParam      Tag = "param"
	TagBody       Tag = "body"
	TagVar        Tag = "var"
	TagStatements Tag = "statements"
	TagLet        Tag = "let"
	TagIndex      Tag = "index"
	TagIf         Tag = "if"
	TagWhile      Tag = "while"
	TagDo         Tag = "do"
	TagReturn     Tag = "return"
	TagExpr       Tag = "expr"
	TagSuffix     Tag = "suffix"
	TagInt        Tag = "int"
	TagString     Tag = "string"
	TagKeyword    Tag = "keyword"
	TagParen      Tag = "paren"
	TagUnary      Tag = "unary"
	TagName       Tag = "name"
	TagCall       Tag = "call"
	TagMember     Tag = "member"

	// A bare token, such as a type or variable name inside a declaration.
	TagLeaf Tag = "leaf"
)

var knownTags = map[Tag]bool{
	TagClass: true, TagClassVar: true, TagSubroutine: true, TagParams: true,
	TagParam: true, TagBody: true, TagVar: true, TagStatements: true,
	TagLet: true, TagIndex: true, TagIf: true, TagWhile: true, TagDo: true,
	TagReturn: true, TagExpr: true, TagSuffix: true, TagInt: true,
	TagString: true, TagKeyword: true, TagParen: true, TagUnary: true,
	TagName: true, TagCall: true, TagMember: true,
}

// TokenKind is the lexical class of a Token.
type TokenKind string

const (
	Keyword         TokenKind = "keyword"
	Identifier      TokenKind = "identifier"
	IntegerConstant TokenKind = "integerConstant"
	StringConstant  TokenKind = "stringConstant"
	Symbol          TokenKind = "symbol"
)

var keywords = map[string]bool{
	"class": true, "constructor": true, "function": true, "method": true,
	"field": true, "static": true, "var": true, "int": true, "char": true,
	"boolean": true, "void": true, "true": true, "false": true, "null": true,
	"this": true, "let": true, "do": true, "if": true, "else": true,
	"while": true, "return": true,
}

// Token is the source token a node was built from.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
}

func (t *Token) String() string {
	return fmt.Sprintf("%q (line %d)", t.Lexeme, t.Line)
}

// Node is one node of a class tree.
type Node struct {
	Tag      Tag
	Token    *Token // nil when the node has no token of its own
	Children []*Node
}

// Lexeme returns the node's token text, or "" for token-less nodes.
func (n *Node) Lexeme() string {
	if n == nil || n.Token == nil {
		return ""
	}
	return n.Token.Lexeme
}

// Child returns the first child with the given tag, or nil.
func (n *Node) Child(tag Tag) *Node {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// ChildrenWithTag returns the children with the given tag, in order.
func (n *Node) ChildrenWithTag(tag Tag) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// Decode reads every class tree in src. Each tree is shape-checked; a
// malformed tree is a front-end bug and is reported as an error.
func Decode(src string) ([]*Node, error) {
	data, err := sexy.ParseAll(src)
	if err != nil {
		return nil, err
	}

	classes := make([]*Node, 0, len(data))
	for _, datum := range data {
		node, err := FromSexpr(datum)
		if err != nil {
			return nil, err
		}
		if err := CheckClass(node); err != nil {
			return nil, err
		}
		classes = append(classes, node)
	}
	return classes, nil
}

// FromSexpr converts one S-expression list into a Node tree without checking
// grammar shape.
func FromSexpr(datum *sexy.Node) (*Node, error) {
	if datum.Type != sexy.NodeList {
		return nil, fmt.Errorf("line %d: expected a list, got %s", datum.Line, datum)
	}
	tag := Tag(datum.Head())
	if !knownTags[tag] {
		return nil, fmt.Errorf("line %d: unknown node tag %q", datum.Line, datum.Head())
	}

	node := &Node{Tag: tag}
	for i, item := range datum.Items[1:] {
		if item.Type == sexy.NodeList {
			child, err := FromSexpr(item)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
			continue
		}

		tok, err := tokenFromAtom(item)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			node.Token = tok
		} else {
			node.Children = append(node.Children, &Node{Tag: TagLeaf, Token: tok})
		}
	}
	return node, nil
}

func tokenFromAtom(atom *sexy.Node) (*Token, error) {
	tok := &Token{Lexeme: atom.Text, Line: atom.Line}
	switch atom.Type {
	case sexy.NodeString:
		tok.Kind = StringConstant
	case sexy.NodeInteger:
		tok.Kind = IntegerConstant
	case sexy.NodeSymbol:
		switch {
		case keywords[atom.Text]:
			tok.Kind = Keyword
		case strings.Trim(atom.Text, "+-*/&|<>=~!") == "":
			tok.Kind = Symbol
		default:
			tok.Kind = Identifier
		}
	default:
		return nil, fmt.Errorf("line %d: unexpected %s in class tree", atom.Line, atom.Type)
	}
	return tok, nil
}

// ToSExpr renders a Node tree back into the interchange format.
func ToSExpr(n *Node) string {
	var sb strings.Builder
	writeSExpr(&sb, n)
	return sb.String()
}

func writeSExpr(sb *strings.Builder, n *Node) {
	if n.Tag == TagLeaf {
		writeToken(sb, n.Token)
		return
	}
	sb.WriteString("(")
	sb.WriteString(string(n.Tag))
	if n.Token != nil {
		sb.WriteString(" ")
		writeToken(sb, n.Token)
	}
	for _, c := range n.Children {
		sb.WriteString(" ")
		writeSExpr(sb, c)
	}
	sb.WriteString(")")
}

func writeToken(sb *strings.Builder, t *Token) {
	if t.Kind == StringConstant {
		sb.WriteString(sexy.NewString(t.Lexeme).String())
		return
	}
	sb.WriteString(t.Lexeme)
}
