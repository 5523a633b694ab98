package compiler

import (
	"fmt"
	"strconv"

	"github.com/strager/jackc/diag"
	"github.com/strager/jackc/logger"
	"github.com/strager/jackc/vm"
)

// Generator type checks and emits code for a finished SymbolTable. Label
// counters belong to the Generator, so independent compiles never share them.
type Generator struct {
	table *SymbolTable
	bag   *diag.Bag

	ifCount    int
	whileCount int
}

func NewGenerator(table *SymbolTable) *Generator {
	return &Generator{table: table, bag: diag.NewBag()}
}

// Diagnostics returns the problems found so far.
func (g *Generator) Diagnostics() *diag.Bag {
	return g.bag
}

// Generate emits the whole program, or returns a *diag.Error if any
// subroutine failed to check.
func Generate(table *SymbolTable) (vm.Code, error) {
	g := NewGenerator(table)
	code := g.Program()
	if err := g.bag.Err(); err != nil {
		return nil, err
	}
	return code, nil
}

// Program emits every user class: constructors first, then functions, then
// methods, each group in declaration order.
func (g *Generator) Program() vm.Code {
	logger.LogPhase("codegen")
	var code vm.Code
	for _, t := range g.table.Classes() {
		if t.External {
			continue
		}
		for _, group := range [][]*FunctionEntry{t.Constructors, t.Functions, t.Methods} {
			for _, f := range group {
				code = code.Append(g.Subroutine(f))
			}
		}
	}
	logger.LogPhaseComplete("codegen", g.bag.Len())
	return code
}

// scope is the subroutine being emitted.
type scope struct {
	class *Type
	fn    *FunctionEntry
}

func (s *scope) name() string {
	return s.fn.QualifiedName()
}

// Subroutine emits one subroutine with its prologue.
func (g *Generator) Subroutine(f *FunctionEntry) vm.Code {
	s := &scope{class: g.table.Class(f.Class), fn: f}

	code := vm.FunctionOf(f.QualifiedName(), len(f.Locals))
	switch f.Kind {
	case Method:
		code = code.Append(vm.PushOf(vm.Argument, 0), vm.PopOf(vm.Pointer, 0))
	case Constructor:
		code = code.Append(
			vm.PushOf(vm.Constant, len(s.class.Fields)),
			vm.CallOf("Memory.alloc", 1),
			vm.PopOf(vm.Pointer, 0),
		)
	}

	for _, stmt := range f.Body {
		code = code.Append(g.statement(s, stmt))
	}

	if !endsInReturn(f.Body) {
		switch {
		case f.Kind == Constructor:
			code = code.Append(vm.PushOf(vm.Pointer, 0), vm.ReturnOf())
		case f.ReturnType == "":
			code = code.Append(vm.PushOf(vm.Constant, 0), vm.ReturnOf())
		default:
			g.bag.Errorf(diag.Structural, s.name(), "Missing return statement")
		}
	}

	logger.LogCodeGen(f.QualifiedName(), len(code))
	return code
}

func endsInReturn(body []Statement) bool {
	if len(body) == 0 {
		return false
	}
	_, ok := body[len(body)-1].(*Return)
	return ok
}

func (g *Generator) statements(s *scope, stmts []Statement) vm.Code {
	var code vm.Code
	for _, stmt := range stmts {
		code = code.Append(g.statement(s, stmt))
	}
	return code
}

func (g *Generator) statement(s *scope, stmt Statement) vm.Code {
	switch stmt := stmt.(type) {
	case *Let:
		return g.let(s, stmt)
	case *Return:
		return g.ret(s, stmt)
	case *Do:
		code, _ := g.call(s, stmt.Call)
		return code.Append(vm.PopOf(vm.Temp, 0))
	case *If:
		return g.ifStatement(s, stmt)
	case *While:
		return g.while(s, stmt)
	default:
		panic(fmt.Sprintf("unknown statement %T", stmt))
	}
}

func (g *Generator) let(s *scope, stmt *Let) vm.Code {
	code, valueType := g.expression(s, stmt.Value)

	target := g.resolve(s, stmt.Target)
	if target == nil {
		return code
	}

	if !g.table.assignable(target.Type, valueType) {
		g.bag.Errorf(diag.Type, s.name(), "Cannot assign %s to %s %s", valueType, target.Type, target.Name)
	}

	if stmt.Index == nil {
		return code.Append(vm.PopOf(target.Kind.Segment(), target.Index))
	}

	// The value stays on the stack while the element address is computed.
	return code.Append(
		g.address(s, target, stmt.Index),
		vm.PopOf(vm.That, 0),
	)
}

// address evaluates base+index of an array element into pointer 1, so the
// element is reachable as that 0.
func (g *Generator) address(s *scope, v *VariableEntry, index Expression) vm.Code {
	code, indexType := g.expression(s, index)
	if indexType != IntType {
		g.bag.Errorf(diag.Type, s.name(), "Index of %s must be int, got %s", v.Name, indexType)
	}
	if !g.table.isClassType(v.Type) {
		g.bag.Errorf(diag.Type, s.name(), "Variable %s of type %s cannot be indexed", v.Name, v.Type)
	}
	return code.Append(
		vm.PushOf(v.Kind.Segment(), v.Index),
		vm.Arithmetic(vm.Add),
		vm.PopOf(vm.Pointer, 1),
	)
}

func (g *Generator) ret(s *scope, stmt *Return) vm.Code {
	f := s.fn
	switch {
	case f.Kind == Constructor:
		if stmt.Value != nil {
			if lit, ok := stmt.Value.(*Literal); !ok || lit.Kind != ThisLiteral {
				g.bag.Errorf(diag.Structural, s.name(), "Constructor must return this")
			}
		}
		return vm.PushOf(vm.Pointer, 0).Append(vm.ReturnOf())
	case f.ReturnType == "":
		if stmt.Value != nil {
			g.bag.Errorf(diag.Structural, s.name(), "Void subroutine cannot return a value")
		}
		return vm.PushOf(vm.Constant, 0).Append(vm.ReturnOf())
	}

	if stmt.Value == nil {
		g.bag.Errorf(diag.Structural, s.name(), "Missing return value of type %s", f.ReturnType)
		return vm.PushOf(vm.Constant, 0).Append(vm.ReturnOf())
	}
	code, valueType := g.expression(s, stmt.Value)
	if !g.table.assignable(f.ReturnType, valueType) {
		g.bag.Errorf(diag.Type, s.name(), "Return type must be %s, got %s", f.ReturnType, valueType)
	}
	return code.Append(vm.ReturnOf())
}

func (g *Generator) condition(s *scope, kind string, e Expression) vm.Code {
	code, t := g.expression(s, e)
	if t != BooleanType {
		g.bag.Errorf(diag.Type, s.name(), "Condition of %s must be boolean, got %s", kind, t)
	}
	return code
}

func (g *Generator) ifStatement(s *scope, stmt *If) vm.Code {
	n := g.ifCount
	g.ifCount++

	code := g.condition(s, "if", stmt.Condition)
	code = code.Append(
		vm.Arithmetic(vm.Not),
		vm.IfGotoOf(vm.ElseLabel(n)),
		g.statements(s, stmt.Then),
		vm.GotoOf(vm.IfLabel(n)),
		vm.LabelOf(vm.ElseLabel(n)),
		g.statements(s, stmt.Else),
		vm.LabelOf(vm.IfLabel(n)),
	)
	return code
}

func (g *Generator) while(s *scope, stmt *While) vm.Code {
	n := g.whileCount
	g.whileCount++

	code := vm.LabelOf(vm.WhileLabel(n))
	code = code.Append(
		g.condition(s, "while", stmt.Condition),
		vm.Arithmetic(vm.Not),
		vm.IfGotoOf(vm.WhileEndLabel(n)),
		g.statements(s, stmt.Body),
		vm.GotoOf(vm.WhileLabel(n)),
		vm.LabelOf(vm.WhileEndLabel(n)),
	)
	return code
}

// resolve finds a variable by name: statics, then fields when the subroutine
// has an object, then parameters, then locals.
func (g *Generator) resolve(s *scope, name string) *VariableEntry {
	if v := g.lookup(s, name); v != nil {
		return v
	}
	if s.class.Field(name) != nil {
		g.bag.Errorf(diag.Resolution, s.name(), "Field %s cannot be used in a function", name)
		return nil
	}
	g.bag.Errorf(diag.Resolution, s.name(), "Variable %s does not exist", name)
	return nil
}

// lookup is resolve without diagnostics.
func (g *Generator) lookup(s *scope, name string) *VariableEntry {
	if v := s.class.Static(name); v != nil {
		return v
	}
	if s.fn.HasThis() {
		if v := s.class.Field(name); v != nil {
			return v
		}
	}
	if v := s.fn.Variable(name); v != nil && v.Kind == ParamVar {
		return v
	}
	if v := s.fn.Variable(name); v != nil && v.Kind == LocalVar {
		return v
	}
	return nil
}

// expression emits e and returns its type. A failed check reports once and
// yields NullType; the code is still emitted so the stack stays balanced.
func (g *Generator) expression(s *scope, e Expression) (vm.Code, string) {
	switch e := e.(type) {
	case *Literal:
		return g.literal(s, e)
	case *VariableRef:
		v := g.resolve(s, e.Name)
		if v == nil {
			if e.Index != nil {
				code, _ := g.expression(s, e.Index)
				return code, NullType
			}
			return nil, NullType
		}
		if e.Index == nil {
			return vm.PushOf(v.Kind.Segment(), v.Index), v.Type
		}
		return g.address(s, v, e.Index).Append(vm.PushOf(vm.That, 0)), v.Type
	case *SubroutineCall:
		return g.call(s, e)
	case *UnaryOp:
		code, t := g.expression(s, e.Operand)
		if t == NullType {
			g.bag.Errorf(diag.Type, s.name(), "Operand of %s has unknown type", e.Op)
		}
		if e.Op == "-" {
			return code.Append(vm.Arithmetic(vm.Neg)), t
		}
		return code.Append(vm.Arithmetic(vm.Not)), t
	case *BinaryOp:
		return g.binary(s, e)
	default:
		panic(fmt.Sprintf("unknown expression %T", e))
	}
}

func (g *Generator) literal(s *scope, e *Literal) (vm.Code, string) {
	switch e.Kind {
	case IntLiteral:
		n, _ := strconv.Atoi(e.Text)
		return vm.PushOf(vm.Constant, n), IntType
	case StringLiteral:
		return vm.StringConstant(e.Text), StringType
	case TrueLiteral:
		return vm.PushOf(vm.Constant, 1), BooleanType
	case FalseLiteral:
		return vm.PushOf(vm.Constant, 0), BooleanType
	case NullLiteral:
		return vm.PushOf(vm.Constant, 0), NullType
	case ThisLiteral:
		if !s.fn.HasThis() {
			g.bag.Errorf(diag.Resolution, s.name(), "Cannot use this in a function")
			return vm.PushOf(vm.Pointer, 0), NullType
		}
		return vm.PushOf(vm.Pointer, 0), s.class.Name
	default:
		panic(fmt.Sprintf("unknown literal kind %d", e.Kind))
	}
}

var binaryOps = map[string]vm.Code{
	"+": vm.Arithmetic(vm.Add),
	"-": vm.Arithmetic(vm.Sub),
	"*": vm.CallOf("Math.multiply", 2),
	"/": vm.CallOf("Math.divide", 2),
	"<": vm.Arithmetic(vm.Lt),
	">": vm.Arithmetic(vm.Gt),
	"&": vm.Arithmetic(vm.And),
	"|": vm.Arithmetic(vm.Or),
	"=": vm.Arithmetic(vm.Eq),
}

func (g *Generator) binary(s *scope, e *BinaryOp) (vm.Code, string) {
	left, lt := g.expression(s, e.Left)
	right, rt := g.expression(s, e.Right)
	op, ok := binaryOps[e.Op]
	if !ok {
		panic(fmt.Sprintf("unknown binary operator %q", e.Op))
	}
	code := left.Append(right, op)

	var operand, result string
	switch e.Op {
	case "+", "-", "*", "/":
		operand, result = IntType, IntType
	case "<", ">":
		operand, result = IntType, BooleanType
	case "&", "|":
		operand, result = BooleanType, BooleanType
	case "=":
		// Any pair of equal types compares; references compare by identity.
		if lt == rt && lt != NullType && lt != VoidType || lt == NullType && g.table.isClassType(rt) || rt == NullType && g.table.isClassType(lt) {
			return code, BooleanType
		}
		g.bag.Errorf(diag.Type, s.name(), "Operands of = must have the same type, got %s and %s", lt, rt)
		return code, NullType
	}

	if lt != operand || rt != operand {
		g.bag.Errorf(diag.Type, s.name(), "Operands of %s must be %s, got %s and %s", e.Op, operand, lt, rt)
		return code, NullType
	}
	return code, result
}

// call emits a subroutine call and returns the callee's return type.
func (g *Generator) call(s *scope, e *SubroutineCall) (vm.Code, string) {
	var receiver vm.Code
	var callee *FunctionEntry

	switch {
	case e.Prefix == "":
		callee = s.class.Subroutine(e.Name)
		if callee == nil {
			g.bag.Errorf(diag.Resolution, s.name(), "Subroutine %s does not exist in %s", e.Name, s.class.Name)
			break
		}
		if callee.Kind == Method {
			if !s.fn.HasThis() {
				g.bag.Errorf(diag.Resolution, s.name(), "Method %s cannot be called from a function", e.Name)
			}
			receiver = vm.PushOf(vm.Pointer, 0)
		}
	case g.lookup(s, e.Prefix) != nil:
		v := g.lookup(s, e.Prefix)
		class := g.table.Class(v.Type)
		if class == nil {
			g.bag.Errorf(diag.Resolution, s.name(), "Variable %s of type %s has no methods", v.Name, v.Type)
			break
		}
		callee = class.Subroutine(e.Name)
		if callee == nil || callee.Kind != Method {
			g.bag.Errorf(diag.Resolution, s.name(), "Method %s.%s does not exist", class.Name, e.Name)
			callee = nil
			break
		}
		receiver = vm.PushOf(v.Kind.Segment(), v.Index)
	case g.table.Class(e.Prefix) != nil:
		callee = g.table.Class(e.Prefix).Subroutine(e.Name)
		if callee == nil || callee.Kind == Method {
			g.bag.Errorf(diag.Resolution, s.name(), "Function %s.%s does not exist", e.Prefix, e.Name)
			callee = nil
		}
	default:
		g.bag.Errorf(diag.Resolution, s.name(), "Subroutine %s.%s does not exist", e.Prefix, e.Name)
	}

	code := receiver
	argTypes := make([]string, len(e.Args))
	for i, arg := range e.Args {
		argCode, t := g.expression(s, arg)
		code = code.Append(argCode)
		argTypes[i] = t
	}
	nArgs := len(e.Args)
	if receiver != nil {
		nArgs++
	}

	if callee == nil {
		return code, NullType
	}

	g.checkArgs(s, callee, argTypes)
	code = code.Append(vm.CallOf(callee.QualifiedName(), nArgs))

	if callee.ReturnType == "" {
		return code, VoidType
	}
	return code, callee.ReturnType
}

func (g *Generator) checkArgs(s *scope, callee *FunctionEntry, argTypes []string) {
	params := callee.DeclaredParams()
	if len(params) != len(argTypes) {
		g.bag.Errorf(diag.Type, s.name(), "%s expects %d arguments, got %d", callee.QualifiedName(), len(params), len(argTypes))
		return
	}
	for i, p := range params {
		if !g.table.passable(p.Type, argTypes[i]) {
			g.bag.Errorf(diag.Type, s.name(), "Argument %s of %s must be %s, got %s", p.Name, callee.QualifiedName(), p.Type, argTypes[i])
		}
	}
}
