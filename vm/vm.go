// Package vm models the stack-machine bytecode consumed by the VM translator.
package vm

import (
	"fmt"
	"strconv"
	"strings"
)

type Segment string

const (
	Constant Segment = "constant"
	Argument Segment = "argument"
	Local    Segment = "local"
	Static   Segment = "static"
	This     Segment = "this"
	That     Segment = "that"
	Pointer  Segment = "pointer"
	Temp     Segment = "temp"
)

type Op string

const (
	Push     Op = "push"
	Pop      Op = "pop"
	Add      Op = "add"
	Sub      Op = "sub"
	Neg      Op = "neg"
	Eq       Op = "eq"
	Gt       Op = "gt"
	Lt       Op = "lt"
	And      Op = "and"
	Or       Op = "or"
	Not      Op = "not"
	Label    Op = "label"
	Goto     Op = "goto"
	IfGoto   Op = "if-goto"
	Function Op = "function"
	Call     Op = "call"
	Return   Op = "return"
)

// Instruction is one bytecode line. Segment and Index are used by push/pop;
// Name by labels, jumps, function and call; Count by function and call.
type Instruction struct {
	Op      Op
	Segment Segment
	Index   int
	Name    string
	Count   int
}

func (i Instruction) String() string {
	switch i.Op {
	case Push, Pop:
		return fmt.Sprintf("%s %s %d", i.Op, i.Segment, i.Index)
	case Label, Goto, IfGoto:
		return string(i.Op) + " " + i.Name
	case Function, Call:
		return string(i.Op) + " " + i.Name + " " + strconv.Itoa(i.Count)
	default:
		return string(i.Op)
	}
}

// Code is an ordered run of instructions. Emitters build Code values and
// concatenate them with Append.
type Code []Instruction

func (c Code) Append(more ...Code) Code {
	for _, m := range more {
		c = append(c, m...)
	}
	return c
}

// String renders the code as newline-terminated bytecode text.
func (c Code) String() string {
	var sb strings.Builder
	for _, i := range c {
		sb.WriteString(i.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Lines renders each instruction on its own.
func (c Code) Lines() []string {
	lines := make([]string, len(c))
	for n, i := range c {
		lines[n] = i.String()
	}
	return lines
}

func PushOf(segment Segment, index int) Code {
	return Code{{Op: Push, Segment: segment, Index: index}}
}

func PopOf(segment Segment, index int) Code {
	return Code{{Op: Pop, Segment: segment, Index: index}}
}

func Arithmetic(op Op) Code {
	return Code{{Op: op}}
}

func LabelOf(name string) Code {
	return Code{{Op: Label, Name: name}}
}

func GotoOf(name string) Code {
	return Code{{Op: Goto, Name: name}}
}

func IfGotoOf(name string) Code {
	return Code{{Op: IfGoto, Name: name}}
}

func FunctionOf(name string, nLocals int) Code {
	return Code{{Op: Function, Name: name, Count: nLocals}}
}

func CallOf(name string, nArgs int) Code {
	return Code{{Op: Call, Name: name, Count: nArgs}}
}

func ReturnOf() Code {
	return Code{{Op: Return}}
}

// StringConstant builds a String object holding s and leaves it on the stack.
// String.appendChar returns its receiver, so the chain needs no temporaries.
func StringConstant(s string) Code {
	code := PushOf(Constant, len(s)).Append(CallOf("String.new", 1))
	for _, c := range []byte(s) {
		code = code.Append(PushOf(Constant, int(c)), CallOf("String.appendChar", 2))
	}
	return code
}

// Labels generated for control flow. The prefixes are reserved: hand-written
// VM code must not define labels with these names.
func IfLabel(n int) string       { return "IF_LABEL" + strconv.Itoa(n) }
func ElseLabel(n int) string     { return "ELSE_LABEL" + strconv.Itoa(n) }
func WhileLabel(n int) string    { return "WHILE_LABEL" + strconv.Itoa(n) }
func WhileEndLabel(n int) string { return "WHILE_END_LABEL" + strconv.Itoa(n) }
