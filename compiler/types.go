// Package compiler turns a program's class trees into stack-machine bytecode.
//
// Compilation runs in two passes. BuildSymbolTable registers every class,
// lays out storage for every variable and builds the statement tree of every
// subroutine. Generate then walks those trees once, type checking and emitting
// code in the same traversal. Both passes report problems to a diag.Bag and
// keep going; a non-empty bag fails the compile.
package compiler

import (
	"fmt"
	"strings"

	"github.com/strager/jackc/vm"
)

// Names of the built-in types. NullType doubles as the placeholder type of an
// expression that failed to check.
const (
	IntType     = "int"
	CharType    = "char"
	BooleanType = "boolean"
	NullType    = "null"
	StringType  = "String"
	ArrayType   = "Array"

	// VoidType is the result type of calling a subroutine with no return type.
	VoidType = "void"
)

var primitiveTypes = []string{IntType, CharType, BooleanType, NullType}

// MaxStatics is the number of static slots the VM offers a whole program.
const MaxStatics = 240

type VarKind int

const (
	FieldVar VarKind = iota
	StaticVar
	ParamVar
	LocalVar
)

func (k VarKind) String() string {
	switch k {
	case FieldVar:
		return "field"
	case StaticVar:
		return "static"
	case ParamVar:
		return "param"
	case LocalVar:
		return "local"
	default:
		return "unknown"
	}
}

// Segment is where variables of this kind live at run time.
func (k VarKind) Segment() vm.Segment {
	switch k {
	case FieldVar:
		return vm.This
	case StaticVar:
		return vm.Static
	case ParamVar:
		return vm.Argument
	case LocalVar:
		return vm.Local
	default:
		panic(fmt.Sprintf("unknown variable kind %d", k))
	}
}

type SubroutineKind int

const (
	Constructor SubroutineKind = iota
	Function
	Method
)

func (k SubroutineKind) String() string {
	switch k {
	case Constructor:
		return "constructor"
	case Function:
		return "function"
	case Method:
		return "method"
	default:
		return "unknown"
	}
}

// VariableEntry is a declared variable and its storage slot. Type is the name
// of the variable's type; look it up through the SymbolTable.
type VariableEntry struct {
	Name  string
	Kind  VarKind
	Type  string
	Index int
}

// FunctionEntry is a constructor, function or method.
type FunctionEntry struct {
	Name  string
	Kind  SubroutineKind
	Class string

	// ReturnType is "" for void subroutines.
	ReturnType string

	// Params holds the declared parameters in slot order. A method's first
	// parameter is the implicit "this".
	Params []*VariableEntry
	Locals []*VariableEntry
	Body   []Statement

	names map[string]*VariableEntry
}

func newFunctionEntry(class, name string, kind SubroutineKind, returnType string) *FunctionEntry {
	return &FunctionEntry{
		Name:       name,
		Kind:       kind,
		Class:      class,
		ReturnType: returnType,
		names:      map[string]*VariableEntry{},
	}
}

// QualifiedName is the VM-level name, e.g. "Main.main".
func (f *FunctionEntry) QualifiedName() string {
	return f.Class + "." + f.Name
}

// HasThis reports whether the subroutine runs with a bound object.
func (f *FunctionEntry) HasThis() bool {
	return f.Kind != Function
}

// Arity is the number of arguments a caller writes, excluding the implicit
// receiver of a method.
func (f *FunctionEntry) Arity() int {
	if f.Kind == Method {
		return len(f.Params) - 1
	}
	return len(f.Params)
}

// DeclaredParams excludes the implicit receiver of a method.
func (f *FunctionEntry) DeclaredParams() []*VariableEntry {
	if f.Kind == Method {
		return f.Params[1:]
	}
	return f.Params
}

// Variable finds a parameter or local by name.
func (f *FunctionEntry) Variable(name string) *VariableEntry {
	return f.names[name]
}

func (f *FunctionEntry) declares(name string) bool {
	_, ok := f.names[name]
	return ok
}

func (f *FunctionEntry) addParam(name, typeName string) *VariableEntry {
	v := &VariableEntry{Name: name, Kind: ParamVar, Type: typeName, Index: len(f.Params)}
	f.Params = append(f.Params, v)
	f.names[name] = v
	return v
}

func (f *FunctionEntry) addLocal(name, typeName string) *VariableEntry {
	v := &VariableEntry{Name: name, Kind: LocalVar, Type: typeName, Index: len(f.Locals)}
	f.Locals = append(f.Locals, v)
	f.names[name] = v
	return v
}

// MemberKind says what a class member name was declared as.
type MemberKind string

const (
	FieldMember       MemberKind = "field"
	StaticMember      MemberKind = "static"
	ConstructorMember MemberKind = "constructor"
	FunctionMember    MemberKind = "function"
	MethodMember      MemberKind = "method"
)

// Type is a primitive type or a class.
type Type struct {
	Name      string
	Primitive bool

	// External classes are declarations only: callable, never emitted.
	External bool

	Fields       []*VariableEntry
	Statics      []*VariableEntry
	Constructors []*FunctionEntry
	Functions    []*FunctionEntry
	Methods      []*FunctionEntry

	members   map[string]MemberKind
	variables map[string]*VariableEntry
	functions map[string]*FunctionEntry
	order     []string
}

func newType(name string, primitive bool) *Type {
	return &Type{
		Name:      name,
		Primitive: primitive,
		members:   map[string]MemberKind{},
		variables: map[string]*VariableEntry{},
		functions: map[string]*FunctionEntry{},
	}
}

// Member returns what name was declared as in this class.
func (t *Type) Member(name string) (MemberKind, bool) {
	kind, ok := t.members[name]
	return kind, ok
}

// Field returns the field named name, or nil.
func (t *Type) Field(name string) *VariableEntry {
	if v := t.variables[name]; v != nil && v.Kind == FieldVar {
		return v
	}
	return nil
}

// Static returns the static variable named name, or nil.
func (t *Type) Static(name string) *VariableEntry {
	if v := t.variables[name]; v != nil && v.Kind == StaticVar {
		return v
	}
	return nil
}

// Subroutine returns the constructor, function or method named name, or nil.
func (t *Type) Subroutine(name string) *FunctionEntry {
	return t.functions[name]
}

func (t *Type) addVariable(name, typeName string, kind VarKind, index int) *VariableEntry {
	v := &VariableEntry{Name: name, Kind: kind, Type: typeName, Index: index}
	if kind == FieldVar {
		t.Fields = append(t.Fields, v)
		t.members[name] = FieldMember
	} else {
		t.Statics = append(t.Statics, v)
		t.members[name] = StaticMember
	}
	t.variables[name] = v
	t.order = append(t.order, name)
	return v
}

func (t *Type) addSubroutine(f *FunctionEntry) {
	switch f.Kind {
	case Constructor:
		t.Constructors = append(t.Constructors, f)
		t.members[f.Name] = ConstructorMember
	case Function:
		t.Functions = append(t.Functions, f)
		t.members[f.Name] = FunctionMember
	case Method:
		t.Methods = append(t.Methods, f)
		t.members[f.Name] = MethodMember
	}
	t.functions[f.Name] = f
	t.order = append(t.order, f.Name)
}

// SymbolTable owns every Type of a program. Everything else refers to types
// and subroutines by name and resolves them here.
type SymbolTable struct {
	types   map[string]*Type
	classes []*Type
	statics int
}

func newSymbolTable() *SymbolTable {
	st := &SymbolTable{types: map[string]*Type{}}
	for _, name := range primitiveTypes {
		st.types[name] = newType(name, true)
	}
	return st
}

// Type looks up a primitive type or class by name.
func (st *SymbolTable) Type(name string) *Type {
	return st.types[name]
}

// Class looks up a class by name. Primitive types are not classes.
func (st *SymbolTable) Class(name string) *Type {
	if t := st.types[name]; t != nil && !t.Primitive {
		return t
	}
	return nil
}

// Classes returns every class, external ones included, in registration order.
func (st *SymbolTable) Classes() []*Type {
	return st.classes
}

// Subroutine resolves a qualified name such as "Main.main".
func (st *SymbolTable) Subroutine(qualified string) *FunctionEntry {
	class, name, ok := strings.Cut(qualified, ".")
	if !ok {
		return nil
	}
	t := st.Class(class)
	if t == nil {
		return nil
	}
	return t.Subroutine(name)
}

// StaticCount is the number of static slots used by the whole program.
func (st *SymbolTable) StaticCount() int {
	return st.statics
}

func (st *SymbolTable) exists(name string) bool {
	_, ok := st.types[name]
	return ok
}

func (st *SymbolTable) addClass(name string, external bool) *Type {
	t := newType(name, false)
	t.External = external
	st.types[name] = t
	st.classes = append(st.classes, t)
	return t
}

// isClassType reports whether values of the named type are object references.
func (st *SymbolTable) isClassType(name string) bool {
	return st.Class(name) != nil
}

// assignable reports whether a value of type from may be stored in a variable
// of type to.
func (st *SymbolTable) assignable(to, from string) bool {
	if to == from {
		return to != NullType
	}
	return from == NullType && st.isClassType(to)
}

// passable is assignable, widened so any object may be passed as an Array.
func (st *SymbolTable) passable(to, from string) bool {
	if to == ArrayType && st.isClassType(from) {
		return st.isClassType(to)
	}
	return st.assignable(to, from)
}

// Dump lists the user classes with their members and slots.
func (st *SymbolTable) Dump() string {
	var sb strings.Builder
	for _, t := range st.classes {
		if t.External {
			continue
		}
		fmt.Fprintf(&sb, "class %s\n", t.Name)
		for _, name := range t.order {
			if v := t.variables[name]; v != nil {
				fmt.Fprintf(&sb, "  %s %s %s %d\n", v.Kind, v.Type, v.Name, v.Index)
				continue
			}
			f := t.functions[name]
			returnType := f.ReturnType
			if returnType == "" {
				returnType = VoidType
			}
			fmt.Fprintf(&sb, "  %s %s %s\n", f.Kind, returnType, f.Name)
			for _, v := range f.Params {
				fmt.Fprintf(&sb, "    %s %s %s %d\n", v.Kind, v.Type, v.Name, v.Index)
			}
			for _, v := range f.Locals {
				fmt.Fprintf(&sb, "    %s %s %s %d\n", v.Kind, v.Type, v.Name, v.Index)
			}
		}
	}
	return sb.String()
}
