package ir

import (
	"math/big"
	"strconv"

	"github.com/akashmaji946/meg/ast"
	"github.com/akashmaji946/meg/diag"
)

// Generator lowers an ast.Node tree into a function table. Two
// monotonic counters (block and function ids) are shared across every
// function produced in one generation, matching the reference
// generator's single pair of counters.
type Generator struct {
	sink *diag.Sink
	env  *Environment

	nextBlockID int
	nextFuncID  int
}

// NewGenerator returns a Generator with a fresh Environment (global
// scope already seeded with true/false).
func NewGenerator(sink *diag.Sink) *Generator {
	return &Generator{sink: sink, env: NewEnvironment()}
}

func (g *Generator) allocBlockID() int {
	id := g.nextBlockID
	g.nextBlockID++
	return id
}

func (g *Generator) allocFuncID() int {
	id := g.nextFuncID
	g.nextFuncID++
	return id
}

// builder tracks the function currently being lowered into and the
// block instructions are appended to.
type builder struct {
	fn  *Function
	cur *BasicBlock
}

func (b *builder) emit(ins Instruction) {
	b.cur.Instructions = append(b.cur.Instructions, ins)
}

func (b *builder) openBlock(blk *BasicBlock) {
	b.fn.Blocks = append(b.fn.Blocks, blk)
	b.cur = blk
}

// newBuilder allocates a function with an empty entry block and an
// empty body block (the body block is where lowering starts); the
// entry block falls through to it per the Advance rule.
func (g *Generator) newBuilder(args, retvals int) *builder {
	fn := &Function{ID: g.allocFuncID(), Args: args, Retvals: retvals}
	entry := &BasicBlock{ID: g.allocBlockID()}
	body := &BasicBlock{ID: g.allocBlockID()}
	fn.Blocks = []*BasicBlock{entry, body}
	return &builder{fn: fn, cur: body}
}

// Generate lowers root into a synthetic top-level function (id 0). If
// the top level declares a binding named "main", a trailing
// `Push("main"); Call` is appended so running function 0 also invokes
// it; a program that never declares `main` just leaves whatever its
// own top-level expressions left on the operand stack (the reference
// generator appends the trailer unconditionally, which would fail any
// top-level expression that isn't wrapped in a `main` function — this
// lowering only emits it when there is something for it to call).
func (g *Generator) Generate(root *ast.Block) (*Environment, int) {
	if root == nil {
		// the parser already reported why it produced no tree
		root = &ast.Block{}
	}
	top := g.newBuilder(0, 0)
	g.lowerBlock(top, root)
	if declaresMain(root) {
		top.emit(Instruction{Kind: Push, Name: "main"})
		top.emit(Instruction{Kind: Call})
	}
	g.env.Register(top.fn)
	return g.env, top.fn.ID
}

// declaresMain reports whether the top level binds a name "main",
// which Allocate/Pop only does at interpretation time, so this has to
// be decided from the syntax tree rather than the (still-empty at
// generation time) global scope.
func declaresMain(root *ast.Block) bool {
	for _, n := range root.Nodes {
		if decl, ok := n.(*ast.Declaration); ok && decl.Name == "main" {
			return true
		}
	}
	return false
}

func (g *Generator) lowerBlock(b *builder, blk *ast.Block) {
	for _, n := range blk.Nodes {
		g.lower(b, n)
	}
}

func (g *Generator) lower(b *builder, n ast.Node) {
	switch node := n.(type) {
	case *ast.Block:
		g.lowerBlock(b, node)
	case *ast.Literal:
		g.lowerLiteral(b, node)
	case *ast.VariableRef:
		b.emit(Instruction{Kind: Push, Name: node.Name, Position: node.Pos(), Constant: node.Constant()})
	case *ast.Call:
		g.lowerCall(b, node)
	case *ast.PrefixOp:
		g.lowerPrefixOp(b, node)
	case *ast.InfixOp:
		g.lowerInfixOp(b, node)
	case *ast.PostfixOp:
		g.lowerPostfixOp(b, node)
	case *ast.IndexOp:
		g.lowerIndexOp(b, node)
	case *ast.Declaration:
		g.lowerDeclaration(b, node)
	case *ast.Assignment:
		g.lower(b, node.Value)
		b.emit(Instruction{Kind: Pop, Name: node.Name, Position: node.Pos(), Constant: node.Constant()})
	case *ast.IfExpression:
		g.lowerIf(b, node)
	case *ast.WhileExpression:
		g.lowerWhile(b, node)
	case *ast.FunctionExpression:
		g.lowerFunctionExpression(b, node)
	default:
		g.sink.Report(diag.IRGenerator, n.Pos(), "unsupported syntax node %T", n)
	}
}

func (g *Generator) lowerLiteral(b *builder, lit *ast.Literal) {
	pos := lit.Pos()
	switch lit.Typ {
	case ast.Bool:
		b.emit(Instruction{Kind: ConstBool, BoolVal: lit.Value == "true", Position: pos, Constant: true})
	case ast.IntLiteral:
		i, ok := new(big.Int).SetString(lit.Value, 10)
		if !ok {
			g.sink.Report(diag.IRGenerator, pos, "malformed integer literal %q", lit.Value)
			i = big.NewInt(0)
		}
		b.emit(Instruction{Kind: ConstInt, IntVal: i, Position: pos, Constant: true})
	case ast.FloatLiteral:
		f, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			g.sink.Report(diag.IRGenerator, pos, "malformed float literal %q", lit.Value)
		}
		b.emit(Instruction{Kind: ConstFloat, FloatVal: f, Position: pos, Constant: true})
	case ast.StrLiteral:
		b.emit(Instruction{Kind: ConstString, StrVal: lit.Value, Position: pos, Constant: true})
	case ast.Unknown, ast.Undefined:
		// Declaration's omitted type/initializer lower to a placeholder
		// value so the Allocate/Pop that follows always has something
		// to pop; the reference generator never gives these a real
		// lowering (see DESIGN.md).
		b.emit(Instruction{Kind: ConstBool, BoolVal: false, Position: pos, Constant: true})
	default:
		g.sink.Report(diag.IRGenerator, pos, "unsupported literal type %v", lit.Typ)
	}
}

func (g *Generator) lowerCall(b *builder, call *ast.Call) {
	for _, arg := range call.Args {
		g.lower(b, arg)
	}
	b.emit(Instruction{Kind: Push, Name: call.Name, Position: call.Pos(), Constant: call.Constant()})
	b.emit(Instruction{Kind: Call, Position: call.Pos(), Constant: call.Constant()})
}

func (g *Generator) lowerPrefixOp(b *builder, node *ast.PrefixOp) {
	g.lower(b, node.Right)
	switch node.Op {
	case "-":
		b.emit(Instruction{Kind: Negate, Position: node.Pos(), Constant: node.Constant()})
	default:
		g.sink.Report(diag.IRGenerator, node.Pos(), "unsupported prefix operator %q", node.Op)
	}
}

func (g *Generator) lowerInfixOp(b *builder, node *ast.InfixOp) {
	g.lower(b, node.Left)
	g.lower(b, node.Right)
	pos := node.Pos()
	constant := node.Constant()
	switch node.Op {
	case "+":
		b.emit(Instruction{Kind: Add, Position: pos, Constant: constant})
	case "-":
		b.emit(Instruction{Kind: Subtract, Position: pos, Constant: constant})
	case "*":
		b.emit(Instruction{Kind: Multiply, Position: pos, Constant: constant})
	case "/":
		b.emit(Instruction{Kind: ExactDivide, Position: pos, Constant: constant})
	case "//":
		b.emit(Instruction{Kind: FloorDivide, Position: pos, Constant: constant})
	case "==":
		b.emit(Instruction{Kind: Test, Compare: EQ, Position: pos, Constant: constant})
	case "!=":
		b.emit(Instruction{Kind: Test, Compare: NE, Position: pos, Constant: constant})
	case "<":
		b.emit(Instruction{Kind: Test, Compare: LT, Position: pos, Constant: constant})
	case ">":
		b.emit(Instruction{Kind: Test, Compare: GT, Position: pos, Constant: constant})
	case "<=":
		b.emit(Instruction{Kind: Test, Compare: LE, Position: pos, Constant: constant})
	case ">=":
		b.emit(Instruction{Kind: Test, Compare: GE, Position: pos, Constant: constant})
	default:
		g.sink.Report(diag.IRGenerator, pos, "unsupported infix operator %q", node.Op)
	}
}

// lowerPostfixOp handles the one postfix operator the grammar reserves
// binding power for (`..`), which has no defined runtime lowering yet
// (the `..` range operator is an open question in the design: its
// semantics were never settled). Anything else is likewise reported,
// rather than panicking, since the reference generator leaves this
// case entirely unimplemented.
func (g *Generator) lowerPostfixOp(b *builder, node *ast.PostfixOp) {
	g.lower(b, node.Left)
	g.sink.Report(diag.IRGenerator, node.Pos(), "postfix operator %q has no lowering", node.Op)
}

func (g *Generator) lowerIndexOp(b *builder, node *ast.IndexOp) {
	g.lower(b, node.Object)
	g.lower(b, node.Index)
	b.emit(Instruction{Kind: Index, Position: node.Pos(), Constant: node.Constant()})
}

func (g *Generator) lowerDeclaration(b *builder, node *ast.Declaration) {
	g.lower(b, node.Typ)
	b.emit(Instruction{Kind: Allocate, Name: node.Name, Position: node.Pos(), Constant: node.Constant()})
	g.lower(b, node.Body)
	b.emit(Instruction{Kind: Pop, Name: node.Name, Position: node.Pos(), Constant: node.Constant()})
}

func (g *Generator) lowerIf(b *builder, node *ast.IfExpression) {
	g.lower(b, node.Condition)

	thenID := g.allocBlockID()
	elseID := g.allocBlockID()
	endID := g.allocBlockID()

	b.emit(Instruction{Kind: BranchIf, ThenBlock: thenID, ElseBlock: elseID, Position: node.Pos(), Constant: node.Constant()})

	b.openBlock(&BasicBlock{ID: thenID})
	g.lower(b, node.Then)
	b.emit(Instruction{Kind: Jump, JumpBlock: endID, Position: node.Pos()})

	b.openBlock(&BasicBlock{ID: elseID})
	g.lower(b, node.Else)
	b.emit(Instruction{Kind: Jump, JumpBlock: endID, Position: node.Pos()})

	b.openBlock(&BasicBlock{ID: endID})
}

// lowerWhile builds a three-block loop: the condition block is
// re-entered by a Jump at the end of the body, matching how
// lowerIf sets up its then/else arms. The reference generator leaves
// this case as an empty stub; this lowering is this implementation's
// own design, modeled on the if-expression construction above.
func (g *Generator) lowerWhile(b *builder, node *ast.WhileExpression) {
	condID := g.allocBlockID()
	bodyID := g.allocBlockID()
	endID := g.allocBlockID()

	b.emit(Instruction{Kind: Jump, JumpBlock: condID, Position: node.Pos()})

	b.openBlock(&BasicBlock{ID: condID})
	g.lower(b, node.Condition)
	b.emit(Instruction{Kind: BranchIf, ThenBlock: bodyID, ElseBlock: endID, Position: node.Pos(), Constant: node.Constant()})

	b.openBlock(&BasicBlock{ID: bodyID})
	g.lower(b, node.Body)
	b.emit(Instruction{Kind: Jump, JumpBlock: condID, Position: node.Pos()})

	b.openBlock(&BasicBlock{ID: endID})
}

// lowerFunctionExpression binds each parameter from the operand stack
// the caller leaves there (lowerCall pushes arguments in
// declaration order, so the last-declared parameter sits on top);
// parameters are therefore bound in reverse so each name gets its own
// argument. Allocate alone pops one value per name (interp.exec's
// Allocate case), so a single Allocate per parameter is enough — no
// paired Pop. The reference generator never emits this binding at all
// (function bodies see an empty scope, arg_names is unused) — CTFE of
// any function taking parameters depends on it, so this lowering is
// this implementation's own addition.
func (g *Generator) lowerFunctionExpression(b *builder, node *ast.FunctionExpression) {
	fb := g.newBuilder(len(node.ArgNames), len(node.RetTypes))
	for i := len(node.ArgNames) - 1; i >= 0; i-- {
		name := node.ArgNames[i]
		pos := node.ArgTypes[i].Pos()
		fb.emit(Instruction{Kind: Allocate, Name: name, Position: pos})
	}
	g.lower(fb, node.Body)
	fb.emit(Instruction{Kind: Return, Position: node.Pos(), Constant: node.Constant()})
	g.env.Register(fb.fn)

	b.emit(Instruction{Kind: GetFunction, FuncID: fb.fn.ID, Position: node.Pos(), Constant: node.Constant()})
}
