package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashmaji946/meg/ast"
	"github.com/akashmaji946/meg/diag"
	"github.com/akashmaji946/meg/lexer"
)

func parse(t *testing.T, src string) (*ast.Block, *diag.Sink) {
	t.Helper()
	sink := diag.New()
	toks := lexer.New(src, sink).ConsumeTokens()
	block := Parse(toks, sink)
	return block, sink
}

func TestParse_DeclarationWithInferredType(t *testing.T) {
	block, sink := parse(t, "x: = 1 + 2 * 3")
	require.False(t, sink.HasErrors())
	require.Len(t, block.Nodes, 1)

	decl, ok := block.Nodes[0].(*ast.Declaration)
	require.True(t, ok)
	assert.Equal(t, "x", decl.Name)
	assert.True(t, decl.Constant())

	typLit, ok := decl.Typ.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.Unknown, typLit.Typ)

	body, ok := decl.Body.(*ast.InfixOp)
	require.True(t, ok)
	assert.Equal(t, "+", body.Op)

	left, ok := body.Left.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "1", left.Value)

	right, ok := body.Right.(*ast.InfixOp)
	require.True(t, ok)
	assert.Equal(t, "*", right.Op)
}

func TestParse_DeclarationWithoutInitializer(t *testing.T) {
	block, sink := parse(t, "x: i32")
	require.False(t, sink.HasErrors())
	decl := block.Nodes[0].(*ast.Declaration)
	body, ok := decl.Body.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.Undefined, body.Typ)
}

func TestParse_Assignment(t *testing.T) {
	block, sink := parse(t, "x = 5")
	require.False(t, sink.HasErrors())
	asn, ok := block.Nodes[0].(*ast.Assignment)
	require.True(t, ok)
	assert.Equal(t, "x", asn.Name)
	assert.False(t, asn.Constant())
}

func TestParse_IfElif(t *testing.T) {
	block, sink := parse(t, "if a b elif c d")
	require.False(t, sink.HasErrors())
	ifExpr, ok := block.Nodes[0].(*ast.IfExpression)
	require.True(t, ok)
	nested, ok := ifExpr.Else.(*ast.IfExpression)
	require.True(t, ok)
	_, ok = nested.Else.(*ast.Literal)
	require.True(t, ok)
}

func TestParse_LoopDesugarsToWhileTrue(t *testing.T) {
	loopBlock, _ := parse(t, "loop x")
	whileBlock, _ := parse(t, "while true x")

	loopWhile, ok := loopBlock.Nodes[0].(*ast.WhileExpression)
	require.True(t, ok)
	whileWhile, ok := whileBlock.Nodes[0].(*ast.WhileExpression)
	require.True(t, ok)

	loopCond := loopWhile.Condition.(*ast.Literal)
	whileCond := whileWhile.Condition.(*ast.VariableRef)
	assert.Equal(t, ast.Bool, loopCond.Typ)
	assert.Equal(t, "true", loopCond.Value)
	assert.Equal(t, "true", whileCond.Name)
}

func TestParse_FunctionExpression(t *testing.T) {
	block, sink := parse(t, "main: = fn() i32 { 3 - 1 }")
	require.False(t, sink.HasErrors())
	decl := block.Nodes[0].(*ast.Declaration)
	fn, ok := decl.Body.(*ast.FunctionExpression)
	require.True(t, ok)
	assert.Empty(t, fn.ArgNames)
	require.Len(t, fn.RetTypes, 1)
}

func TestParse_EqualityComparison(t *testing.T) {
	block, sink := parse(t, "if 1 == 1 { 10 } else { 20 }")
	require.False(t, sink.HasErrors())
	ifExpr := block.Nodes[0].(*ast.IfExpression)
	cond, ok := ifExpr.Condition.(*ast.InfixOp)
	require.True(t, ok)
	assert.Equal(t, "==", cond.Op)
}

func TestParse_IndexAndCall(t *testing.T) {
	block, sink := parse(t, "f(x)[0]")
	require.False(t, sink.HasErrors())
	idx, ok := block.Nodes[0].(*ast.IndexOp)
	require.True(t, ok)
	call, ok := idx.Object.(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "f", call.Name)
}

func TestParse_UnterminatedExpressionReportsDiagnostic(t *testing.T) {
	_, sink := parse(t, "x: = 1 +")
	require.True(t, sink.HasErrors())
}
