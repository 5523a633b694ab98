package vm

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestInstructionString(t *testing.T) {
	tests := []struct {
		code     Code
		expected string
	}{
		{PushOf(Constant, 7), "push constant 7"},
		{PopOf(Local, 2), "pop local 2"},
		{PushOf(Pointer, 0), "push pointer 0"},
		{Arithmetic(Add), "add"},
		{Arithmetic(Not), "not"},
		{LabelOf("WHILE_LABEL0"), "label WHILE_LABEL0"},
		{GotoOf("IF_LABEL1"), "goto IF_LABEL1"},
		{IfGotoOf("ELSE_LABEL1"), "if-goto ELSE_LABEL1"},
		{FunctionOf("Main.main", 3), "function Main.main 3"},
		{CallOf("Math.multiply", 2), "call Math.multiply 2"},
		{ReturnOf(), "return"},
	}

	for _, test := range tests {
		be.Equal(t, len(test.code), 1)
		be.Equal(t, test.code[0].String(), test.expected)
	}
}

func TestCodeAppendAndString(t *testing.T) {
	code := PushOf(Constant, 1).Append(PushOf(Constant, 2), Arithmetic(Add), nil)

	be.Equal(t, len(code), 3)
	be.Equal(t, code.String(), "push constant 1\npush constant 2\nadd\n")
	be.Equal(t, code.Lines(), []string{"push constant 1", "push constant 2", "add"})
	be.Equal(t, Code(nil).String(), "")
}

func TestStringConstant(t *testing.T) {
	be.Equal(t, StringConstant("Hi").Lines(), []string{
		"push constant 2",
		"call String.new 1",
		"push constant 72",
		"call String.appendChar 2",
		"push constant 105",
		"call String.appendChar 2",
	})

	be.Equal(t, StringConstant("").Lines(), []string{
		"push constant 0",
		"call String.new 1",
	})
}

func TestLabels(t *testing.T) {
	be.Equal(t, IfLabel(0), "IF_LABEL0")
	be.Equal(t, ElseLabel(3), "ELSE_LABEL3")
	be.Equal(t, WhileLabel(12), "WHILE_LABEL12")
	be.Equal(t, WhileEndLabel(12), "WHILE_END_LABEL12")
}
