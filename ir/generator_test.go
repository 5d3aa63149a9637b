package ir_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashmaji946/meg/diag"
	"github.com/akashmaji946/meg/ir"
	"github.com/akashmaji946/meg/lexer"
	"github.com/akashmaji946/meg/parser"
)

func lowerSource(t *testing.T, src string) (*ir.Environment, int, *diag.Sink) {
	t.Helper()
	sink := diag.New()
	toks := lexer.New(src, sink).ConsumeTokens()
	root := parser.Parse(toks, sink)
	gen := ir.NewGenerator(sink)
	env, topID := gen.Generate(root)
	return env, topID, sink
}

func kinds(instructions []ir.Instruction) []ir.InstructionKind {
	out := make([]ir.InstructionKind, len(instructions))
	for i, ins := range instructions {
		out[i] = ins.Kind
	}
	return out
}

// scenario 3: `x: = 1 + 2 * 3` lowers to the arithmetic chain
// ConstInt 1; ConstInt 2; ConstInt 3; Multiply; Add, wrapped in the
// placeholder-typed declaration preamble/epilogue. No `main` is
// declared here, so no Push("main")/Call trailer is appended.
func TestGenerate_DeclarationWithArithmetic(t *testing.T) {
	env, topID, sink := lowerSource(t, "x: = 1 + 2 * 3")
	require.False(t, sink.HasErrors())

	top := env.Functions[topID]
	require.Len(t, top.Blocks, 2)
	body := top.Blocks[1].Instructions

	want := []ir.InstructionKind{
		ir.ConstBool, ir.Allocate, // Unknown type placeholder, bound to x
		ir.ConstInt, ir.ConstInt, ir.ConstInt, ir.Multiply, ir.Add,
		ir.Pop, // x := computed value
	}
	if diff := cmp.Diff(want, kinds(body)); diff != "" {
		t.Errorf("instruction kinds mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, int64(1), body[2].IntVal.Int64())
	assert.Equal(t, int64(2), body[3].IntVal.Int64())
	assert.Equal(t, int64(3), body[4].IntVal.Int64())
	assert.Equal(t, "x", body[1].Name)
	assert.Equal(t, "x", body[7].Name)
}

// scenario 4: `main: = fn() i32 { 3 - 1 }` registers a second function
// whose body is ConstInt 3; ConstInt 1; Subtract; Return.
func TestGenerate_FunctionDeclaration(t *testing.T) {
	env, topID, sink := lowerSource(t, "main: = fn() i32 { 3 - 1 }")
	require.False(t, sink.HasErrors())

	require.Len(t, env.Functions, 2)
	var fnID int
	for id := range env.Functions {
		if id != topID {
			fnID = id
		}
	}
	fn := env.Functions[fnID]
	require.Len(t, fn.Blocks, 2)
	body := fn.Blocks[1].Instructions

	want := []ir.InstructionKind{ir.ConstInt, ir.ConstInt, ir.Subtract, ir.Return}
	if diff := cmp.Diff(want, kinds(body)); diff != "" {
		t.Errorf("instruction kinds mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int64(3), body[0].IntVal.Int64())
	assert.Equal(t, int64(1), body[1].IntVal.Int64())

	// declaring `main` earns the top level a Push("main"); Call trailer.
	top := env.Functions[topID]
	topBody := top.Blocks[1].Instructions
	trailer := topBody[len(topBody)-2:]
	wantTrailer := []ir.InstructionKind{ir.Push, ir.Call}
	if diff := cmp.Diff(wantTrailer, kinds(trailer)); diff != "" {
		t.Errorf("top-level trailer mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "main", trailer[0].Name)
}

// scenario 5: the if-expression opens exactly three extra blocks
// (then, else, end) linked by BranchIf/Jump.
func TestGenerate_IfExpressionBlockShape(t *testing.T) {
	env, topID, sink := lowerSource(t, "if 1 == 1 { 10 } else { 20 }")
	require.False(t, sink.HasErrors())

	top := env.Functions[topID]
	// entry + body + then + else + end == 5 blocks total.
	require.Len(t, top.Blocks, 5)

	body := top.Blocks[1].Instructions
	want := []ir.InstructionKind{ir.ConstInt, ir.ConstInt, ir.Test, ir.BranchIf}
	if diff := cmp.Diff(want, kinds(body)); diff != "" {
		t.Errorf("body instruction kinds mismatch (-want +got):\n%s", diff)
	}

	thenBlock := top.Blocks[2].Instructions
	if diff := cmp.Diff([]ir.InstructionKind{ir.ConstInt, ir.Jump}, kinds(thenBlock)); diff != "" {
		t.Errorf("then block mismatch (-want +got):\n%s", diff)
	}
	elseBlock := top.Blocks[3].Instructions
	if diff := cmp.Diff([]ir.InstructionKind{ir.ConstInt, ir.Jump}, kinds(elseBlock)); diff != "" {
		t.Errorf("else block mismatch (-want +got):\n%s", diff)
	}
}
