package compiler

import (
	"github.com/strager/jackc/ast"
	"github.com/strager/jackc/diag"
	"github.com/strager/jackc/logger"
)

// Options configures a compile.
type Options struct {
	// OSLibrary declares the standard OS classes (Math, String, Array,
	// Output, Screen, Keyboard, Memory, Sys) so programs can call them.
	OSLibrary bool
}

type classDecl struct {
	node *ast.Node
	typ  *Type
}

type tableBuilder struct {
	table *SymbolTable
	bag   *diag.Bag
}

// BuildSymbolTable registers every class and its members. On any problem it
// returns a *diag.Error listing all of them instead of a table.
func BuildSymbolTable(classes []*ast.Node, opts Options) (*SymbolTable, error) {
	b := &tableBuilder{table: newSymbolTable(), bag: diag.NewBag()}
	logger.LogPhase("symbols", "classes", len(classes), "os", opts.OSLibrary)

	var decls []classDecl
	if opts.OSLibrary {
		decls = append(decls, b.registerClasses(osLibraryClasses(), true)...)
	}
	decls = append(decls, b.registerClasses(classes, false)...)

	for _, d := range decls {
		b.buildClass(d.typ, d.node)
	}

	b.checkProgram()

	logger.LogPhaseComplete("symbols", b.bag.Len())
	if err := b.bag.Err(); err != nil {
		return nil, err
	}
	return b.table, nil
}

// registerClasses creates an empty Type per class so that members may refer
// to classes declared later.
func (b *tableBuilder) registerClasses(classes []*ast.Node, external bool) []classDecl {
	var decls []classDecl
	for _, n := range classes {
		name := n.Lexeme()
		if b.table.exists(name) {
			b.bag.Errorf(diag.Declaration, "", "Class %s already exists", name)
			continue
		}
		t := b.table.addClass(name, external)
		decls = append(decls, classDecl{node: n, typ: t})
		logger.Debug("Registered class", "class", name, "external", external)
	}
	return decls
}

func (b *tableBuilder) buildClass(t *Type, n *ast.Node) {
	subroutineNames := map[string]bool{}
	for _, sub := range n.ChildrenWithTag(ast.TagSubroutine) {
		subroutineNames[sub.Children[1].Lexeme()] = true
	}

	fieldIndex := 0
	for _, c := range n.Children {
		switch c.Tag {
		case ast.TagClassVar:
			b.buildClassVar(t, c, &fieldIndex)
		case ast.TagSubroutine:
			b.buildSubroutine(t, c, subroutineNames)
		}
	}
}

func (b *tableBuilder) buildClassVar(t *Type, n *ast.Node, fieldIndex *int) {
	typeName := n.Children[0].Lexeme()
	if !b.table.exists(typeName) {
		b.bag.Errorf(diag.Declaration, t.Name, "Type %s does not exist", typeName)
		return
	}

	for _, leaf := range n.Children[1:] {
		name := leaf.Lexeme()
		if _, ok := t.Member(name); ok {
			b.bag.Errorf(diag.Declaration, t.Name, "Member %s already exists", name)
			continue
		}
		if b.table.exists(name) {
			b.bag.Errorf(diag.Declaration, t.Name, "Member %s already exists as a class", name)
			continue
		}

		if n.Lexeme() == "field" {
			t.addVariable(name, typeName, FieldVar, *fieldIndex)
			*fieldIndex++
		} else {
			t.addVariable(name, typeName, StaticVar, b.table.statics)
			b.table.statics++
		}
	}
}

func subroutineKind(keyword string) SubroutineKind {
	switch keyword {
	case "constructor":
		return Constructor
	case "method":
		return Method
	default:
		return Function
	}
}

func (b *tableBuilder) buildSubroutine(t *Type, n *ast.Node, subroutineNames map[string]bool) {
	returnType := n.Children[0].Lexeme()
	name := n.Children[1].Lexeme()
	params, body := n.Children[2], n.Children[3]
	kind := subroutineKind(n.Lexeme())

	if _, ok := t.Member(name); ok {
		b.bag.Errorf(diag.Declaration, t.Name, "Member %s already exists", name)
		return
	}
	if b.table.exists(name) {
		b.bag.Errorf(diag.Declaration, t.Name, "Subroutine %s already exists as a class", name)
		return
	}

	f := newFunctionEntry(t.Name, name, kind, "")
	scope := f.QualifiedName()
	if returnType != VoidType {
		if !b.table.exists(returnType) {
			b.bag.Errorf(diag.Declaration, scope, "Return Type %s does not exist", returnType)
			return
		}
		f.ReturnType = returnType
	}
	if kind == Constructor && f.ReturnType != t.Name {
		b.bag.Errorf(diag.Declaration, scope, "Constructor must return %s", t.Name)
		return
	}

	if kind == Method {
		f.addParam("this", t.Name)
	}

	isMember := func(name string) bool {
		_, ok := t.Member(name)
		return ok || subroutineNames[name]
	}

	// declare reports whether a parameter or local may be added.
	declare := func(typeName, name string) bool {
		switch {
		case !b.table.exists(typeName):
			b.bag.Errorf(diag.Declaration, scope, "Type %s does not exist", typeName)
		case b.table.exists(name):
			b.bag.Errorf(diag.Declaration, scope, "Member %s already exists as a class", name)
		case isMember(name):
			b.bag.Errorf(diag.Declaration, scope, "Member %s already exists in enclosing class", name)
		case f.declares(name):
			b.bag.Errorf(diag.Declaration, scope, "Member %s already exists in subroutine", name)
		default:
			return true
		}
		return false
	}

	for _, p := range params.Children {
		typeName, paramName := p.Lexeme(), p.Children[0].Lexeme()
		if declare(typeName, paramName) {
			f.addParam(paramName, typeName)
		}
	}

	statements := body.Children[len(body.Children)-1]
	for _, v := range body.Children[:len(body.Children)-1] {
		typeName := v.Lexeme()
		if !b.table.exists(typeName) {
			b.bag.Errorf(diag.Declaration, scope, "Type %s does not exist", typeName)
			continue
		}
		for _, leaf := range v.Children {
			if declare(typeName, leaf.Lexeme()) {
				f.addLocal(leaf.Lexeme(), typeName)
			}
		}
	}

	f.Body = BuildStatements(statements, scope)
	t.addSubroutine(f)
	logger.Debug("Registered subroutine", "subroutine", scope, "kind", kind, "params", f.Arity(), "locals", len(f.Locals))
}

// checkProgram enforces the rules that span classes.
func (b *tableBuilder) checkProgram() {
	switch main := b.table.Class("Main"); {
	case main == nil:
		b.bag.Errorf(diag.Declaration, "", "Main.main class does not exist")
	case main.Subroutine("main") == nil || main.Subroutine("main").Kind != Function:
		b.bag.Errorf(diag.Declaration, "", "Main.main class does not have a main function")
	case main.Subroutine("main").Arity() != 0:
		b.bag.Errorf(diag.Declaration, "", "Main.main function should not have parameters")
	case main.Subroutine("main").ReturnType != "":
		b.bag.Errorf(diag.Declaration, "", "Main.main function should have a void return type")
	}

	if sys := b.table.Class("Sys"); sys != nil {
		if _, ok := sys.Member("init"); ok {
			b.bag.Errorf(diag.Declaration, "", "Sys class should not have an init function")
		}
	}

	if b.table.statics > MaxStatics {
		b.bag.Errorf(diag.Declaration, "", "Static variable count %d must not exceed %d", b.table.statics, MaxStatics)
	}
}
