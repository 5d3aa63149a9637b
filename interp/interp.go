// Package interp evaluates Meg IR as compile-time constant expressions.
// It is a straight stack machine: no type checking pass precedes it, so
// every operator implementation re-validates its operands and reports
// through the diagnostics sink rather than panicking on malformed IR.
package interp

import (
	"math"
	"math/big"

	"github.com/akashmaji946/meg/diag"
	"github.com/akashmaji946/meg/ir"
)

// location pins execution to one instruction: a function id plus a
// block POSITION (already resolved via Function.IndexOf, never a raw
// block id) and an instruction offset within that block.
type location struct {
	funcID   int
	blockIdx int
	instrIdx int
}

// Budget caps how many instructions Run will execute before giving up,
// guarding against runaway constant-folding (e.g. an infinite while
// loop written at the top level). Zero means unlimited.
type Budget int

// Interpreter runs one function to completion against a shared
// Environment (the function table and global scope built by the IR
// generator).
type Interpreter struct {
	env   *ir.Environment
	sink  *diag.Sink
	stack []ir.Value

	callStack []location
	current   location
	finished  bool

	budget Budget
	steps  int
}

// New returns an Interpreter positioned at funcID's body block (its
// first block after the always-empty entry block), ready to Run.
func New(env *ir.Environment, funcID int, sink *diag.Sink, budget Budget) *Interpreter {
	i := &Interpreter{
		env:    env,
		sink:   sink,
		budget: budget,
	}
	i.current = location{funcID: funcID, blockIdx: 1, instrIdx: 0}
	i.normalize()
	return i
}

func (i *Interpreter) function() *ir.Function {
	return i.env.Functions[i.current.funcID]
}

func (i *Interpreter) position() int {
	blk := i.function().Blocks[i.current.blockIdx]
	if i.current.instrIdx < len(blk.Instructions) {
		return blk.Instructions[i.current.instrIdx].Position
	}
	return 0
}

// normalize walks current past any exhausted or empty blocks (the
// synthetic entry block the generator gives every function is always
// empty) until it sits on a real instruction, or marks the run
// finished once it walks off the end of the function.
func (i *Interpreter) normalize() {
	for {
		fn := i.function()
		if i.current.blockIdx >= len(fn.Blocks) {
			i.finished = true
			return
		}
		if i.current.instrIdx < len(fn.Blocks[i.current.blockIdx].Instructions) {
			return
		}
		i.current.blockIdx++
		i.current.instrIdx = 0
	}
}

func (i *Interpreter) advance() {
	i.current.instrIdx++
	i.normalize()
}

func (i *Interpreter) jumpTo(blockID int) {
	idx, ok := i.function().IndexOf(blockID)
	if !ok {
		i.fail("jump to unknown block %d", blockID)
		return
	}
	i.current.blockIdx = idx
	i.current.instrIdx = 0
	i.normalize()
}

func (i *Interpreter) fail(format string, args ...any) {
	i.sink.Report(diag.Interpreter, i.position(), format, args...)
	i.finished = true
}

func (i *Interpreter) push(v ir.Value) { i.stack = append(i.stack, v) }

func (i *Interpreter) pop() ir.Value {
	if len(i.stack) == 0 {
		i.fail("operand stack underflow")
		return ir.Value{}
	}
	v := i.stack[len(i.stack)-1]
	i.stack = i.stack[:len(i.stack)-1]
	return v
}

// Stack exposes the current operand stack, mainly so a REPL can show
// the value(s) left behind once Run finishes.
func (i *Interpreter) Stack() []ir.Value { return i.stack }

// Run executes instructions until the function (and any it calls)
// returns, the operand stack underflows, an operator sees operands of
// the wrong kind, or the instruction budget is exhausted. It never
// panics: every failure mode reports a diag.Interpreter diagnostic and
// stops the run in place.
func (i *Interpreter) Run() {
	for !i.finished {
		if i.budget != 0 && i.steps >= int(i.budget) {
			i.fail("exceeded instruction budget of %d", i.budget)
			return
		}
		i.steps++
		ins := i.function().Blocks[i.current.blockIdx].Instructions[i.current.instrIdx]
		i.exec(ins)
	}
}

func (i *Interpreter) exec(ins ir.Instruction) {
	switch ins.Kind {
	case ir.ConstBool:
		i.push(ir.Bool(ins.BoolVal))
		i.advance()
	case ir.ConstInt:
		i.push(ir.Int(ins.IntVal))
		i.advance()
	case ir.ConstFloat:
		i.push(ir.Float(ins.FloatVal))
		i.advance()
	case ir.ConstString:
		i.push(ir.String(ins.StrVal))
		i.advance()
	case ir.Allocate:
		i.env.Current().Set(ins.Name, i.pop())
		i.advance()
	case ir.Push:
		v, ok := i.env.Lookup(ins.Name)
		if !ok {
			i.fail("undeclared identifier %q", ins.Name)
			return
		}
		i.push(v)
		i.advance()
	case ir.Pop:
		if !i.env.Assign(ins.Name, i.pop()) {
			i.fail("assignment to undeclared identifier %q", ins.Name)
			return
		}
		i.advance()
	case ir.Add:
		i.arith(ins, func(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) }, func(a, b float64) float64 { return a + b })
	case ir.Subtract:
		i.arith(ins, func(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) }, func(a, b float64) float64 { return a - b })
	case ir.Multiply:
		i.arith(ins, func(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) }, func(a, b float64) float64 { return a * b })
	case ir.ExactDivide:
		i.exactDivide(ins)
	case ir.FloorDivide:
		i.floorDivide(ins)
	case ir.Negate:
		i.negate(ins)
	case ir.Test:
		i.test(ins)
	case ir.Index:
		i.index(ins)
	case ir.Call:
		i.call()
	case ir.Return:
		i.ret()
	case ir.BranchIf:
		i.branchIf(ins)
	case ir.Jump:
		i.jumpTo(ins.JumpBlock)
	case ir.GetFunction:
		i.push(ir.FunctionValue(ir.FunctionRef{ID: ins.FuncID}))
		i.advance()
	default:
		i.fail("unhandled instruction %v", ins.Kind)
	}
}

// arith pops the right operand then the left (lowerInfixOp pushes left
// before right, so right ends up on top), applies the matching
// operator, and pushes the result. Integer and Float are the only
// operand kinds arithmetic accepts.
func (i *Interpreter) arith(ins ir.Instruction, intOp func(a, b *big.Int) *big.Int, floatOp func(a, b float64) float64) {
	right := i.pop()
	left := i.pop()
	switch {
	case left.Kind == ir.VInteger && right.Kind == ir.VInteger:
		i.push(ir.Int(intOp(left.Int, right.Int)))
	case left.Kind == ir.VFloat && right.Kind == ir.VFloat:
		i.push(ir.Float(floatOp(left.Float, right.Float)))
	default:
		i.fail("arithmetic on incompatible operand kinds %v, %v", left.Kind, right.Kind)
		return
	}
	i.advance()
}

func (i *Interpreter) exactDivide(ins ir.Instruction) {
	right := i.pop()
	left := i.pop()
	var l, r float64
	switch {
	case left.Kind == ir.VInteger && right.Kind == ir.VInteger:
		l, _ = new(big.Float).SetInt(left.Int).Float64()
		r, _ = new(big.Float).SetInt(right.Int).Float64()
	case left.Kind == ir.VFloat && right.Kind == ir.VFloat:
		l, r = left.Float, right.Float
	default:
		i.fail("division on incompatible operand kinds %v, %v", left.Kind, right.Kind)
		return
	}
	if r == 0 {
		i.fail("division by zero")
		return
	}
	i.push(ir.Float(l / r))
	i.advance()
}

// floorDivide implements true mathematical floor division (rounding
// toward negative infinity), not truncation toward zero.
func (i *Interpreter) floorDivide(ins ir.Instruction) {
	right := i.pop()
	left := i.pop()
	switch {
	case left.Kind == ir.VInteger && right.Kind == ir.VInteger:
		if right.Int.Sign() == 0 {
			i.fail("division by zero")
			return
		}
		q, r := new(big.Int).QuoRem(left.Int, right.Int, new(big.Int))
		if r.Sign() != 0 && (r.Sign() < 0) != (right.Int.Sign() < 0) {
			q.Sub(q, big.NewInt(1))
		}
		i.push(ir.Int(q))
	case left.Kind == ir.VFloat && right.Kind == ir.VFloat:
		if right.Float == 0 {
			i.fail("division by zero")
			return
		}
		i.push(ir.Float(math.Floor(left.Float / right.Float)))
	default:
		i.fail("division on incompatible operand kinds %v, %v", left.Kind, right.Kind)
		return
	}
	i.advance()
}

func (i *Interpreter) negate(ins ir.Instruction) {
	v := i.pop()
	switch v.Kind {
	case ir.VInteger:
		i.push(ir.Int(new(big.Int).Neg(v.Int)))
	case ir.VFloat:
		i.push(ir.Float(-v.Float))
	default:
		i.fail("negation on incompatible operand kind %v", v.Kind)
		return
	}
	i.advance()
}

// test implements all six comparators across every value kind that
// supports ordering or equality. The reference interpreter only ever
// implements EQ and leaves the rest unreachable!()); the remaining
// five are this implementation's own addition, required by the
// required comparison scenarios.
func (i *Interpreter) test(ins ir.Instruction) {
	right := i.pop()
	left := i.pop()
	if left.Kind != right.Kind {
		i.fail("comparison on incompatible operand kinds %v, %v", left.Kind, right.Kind)
		return
	}

	var result bool
	switch left.Kind {
	case ir.VInteger:
		c := left.Int.Cmp(right.Int)
		result = compareOrdering(ins.Compare, c)
	case ir.VFloat:
		result = compareFloats(ins.Compare, left.Float, right.Float)
	case ir.VBool:
		// false orders before true.
		c := 0
		if !left.Bool && right.Bool {
			c = -1
		} else if left.Bool && !right.Bool {
			c = 1
		}
		result = compareOrdering(ins.Compare, c)
	case ir.VString:
		switch ins.Compare {
		case ir.EQ, ir.NE:
			result = compareEquality(ins.Compare, left.Str == right.Str)
		default:
			c := 0
			if left.Str < right.Str {
				c = -1
			} else if left.Str > right.Str {
				c = 1
			}
			result = compareOrdering(ins.Compare, c)
		}
	default:
		i.fail("comparison on unsupported operand kind %v", left.Kind)
		return
	}
	i.push(ir.Bool(result))
	i.advance()
}

func compareEquality(cmp ir.CompareType, eq bool) bool {
	switch cmp {
	case ir.EQ:
		return eq
	case ir.NE:
		return !eq
	default:
		return false
	}
}

func compareOrdering(cmp ir.CompareType, c int) bool {
	switch cmp {
	case ir.EQ:
		return c == 0
	case ir.NE:
		return c != 0
	case ir.LT:
		return c < 0
	case ir.GT:
		return c > 0
	case ir.LE:
		return c <= 0
	case ir.GE:
		return c >= 0
	default:
		return false
	}
}

func compareFloats(cmp ir.CompareType, a, b float64) bool {
	switch cmp {
	case ir.EQ:
		return a == b
	case ir.NE:
		return a != b
	case ir.LT:
		return a < b
	case ir.GT:
		return a > b
	case ir.LE:
		return a <= b
	case ir.GE:
		return a >= b
	default:
		return false
	}
}

// index backs the IndexOp syntax the reference interpreter leaves
// unimplemented: String[Integer] yields the single byte at that
// offset as a one-character string.
func (i *Interpreter) index(ins ir.Instruction) {
	idxVal := i.pop()
	objVal := i.pop()
	if objVal.Kind != ir.VString || idxVal.Kind != ir.VInteger {
		i.fail("index on incompatible operand kinds %v[%v]", objVal.Kind, idxVal.Kind)
		return
	}
	idx := idxVal.Int.Int64()
	if idx < 0 || idx >= int64(len(objVal.Str)) {
		i.fail("index %d out of range for string of length %d", idx, len(objVal.Str))
		return
	}
	i.push(ir.String(string(objVal.Str[idx])))
	i.advance()
}

// call pushes the return location, enters the callee's entry block,
// and pushes a fresh lexical scope for its parameters. The reference
// interpreter instead jumps to blocks.last() (the callee's exit
// block) — a bug that would skip the callee's body entirely; callees
// are entered at their entry block here, which normalize then
// transparently advances past (it is always empty) into the body.
func (i *Interpreter) call() {
	fnVal := i.pop()
	if fnVal.Kind != ir.VFunction {
		i.fail("call target is not a function (%v)", fnVal.Kind)
		return
	}
	fn, ok := i.env.Functions[fnVal.Func.ID]
	if !ok {
		i.fail("call to unregistered function #%d", fnVal.Func.ID)
		return
	}

	i.callStack = append(i.callStack, i.current)
	i.env.PushScope()

	i.current = location{funcID: fn.ID, blockIdx: 0, instrIdx: 0}
	i.normalize()
}

// ret pops the call stack and resumes just past the call site. The
// reference interpreter restores the saved location without advancing
// past it, which leaves the Call instruction to execute again — this
// corrects that by advancing once control returns to the caller.
func (i *Interpreter) ret() {
	i.env.PopScope()
	if len(i.callStack) == 0 {
		i.finished = true
		return
	}
	i.current = i.callStack[len(i.callStack)-1]
	i.callStack = i.callStack[:len(i.callStack)-1]
	i.advance()
}

func (i *Interpreter) branchIf(ins ir.Instruction) {
	cond := i.pop()
	if cond.Kind != ir.VBool {
		i.fail("branch condition is not a bool (%v)", cond.Kind)
		return
	}
	if cond.Bool {
		i.jumpTo(ins.ThenBlock)
	} else {
		i.jumpTo(ins.ElseBlock)
	}
}

// Finished reports whether Run has stopped, either by completing the
// function or by hitting an unrecoverable diagnostic.
func (i *Interpreter) Finished() bool { return i.finished }
