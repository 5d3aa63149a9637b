// Package ir defines Meg's intermediate representation: a typed value
// domain, a stack-oriented instruction set, basic blocks, a function
// table, and the lexical environment the interpreter executes against.
// It also implements the lowering pass from ast.Node to this IR.
package ir

import (
	"fmt"
	"math/big"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	VBool ValueKind = iota
	VInteger
	VFloat
	VString
	VFunction
)

func (k ValueKind) String() string {
	switch k {
	case VBool:
		return "Bool"
	case VInteger:
		return "Integer"
	case VFloat:
		return "Float"
	case VString:
		return "String"
	case VFunction:
		return "Function"
	default:
		return "ValueKind(?)"
	}
}

// FunctionRef is an id-based handle to a Function in the owning
// Environment's function table. Values hold this instead of a deep
// copy of the function body, so pushing a function value on the
// operand stack is cheap and GetFunction/Call never clone code.
type FunctionRef struct {
	ID int
}

// Value is Meg's runtime value domain: Bool | Integer (arbitrary
// precision, standing in for the source language's 128-bit integers —
// no third-party fixed-width big-integer type is available in the
// example pack, so this is the one deliberate standard-library
// fallback in the whole interpreter) | Float | String | Function.
//
// Only the field matching Kind is meaningful; the others are zero.
type Value struct {
	Kind ValueKind

	Bool  bool
	Int   *big.Int
	Float float64
	Str   string
	Func  FunctionRef
}

func Bool(b bool) Value              { return Value{Kind: VBool, Bool: b} }
func Int(i *big.Int) Value           { return Value{Kind: VInteger, Int: i} }
func IntFromInt64(i int64) Value     { return Value{Kind: VInteger, Int: big.NewInt(i)} }
func Float(f float64) Value          { return Value{Kind: VFloat, Float: f} }
func String(s string) Value          { return Value{Kind: VString, Str: s} }
func FunctionValue(ref FunctionRef) Value { return Value{Kind: VFunction, Func: ref} }

func (v Value) String() string {
	switch v.Kind {
	case VBool:
		return fmt.Sprintf("%t", v.Bool)
	case VInteger:
		return v.Int.String()
	case VFloat:
		return fmt.Sprintf("%g", v.Float)
	case VString:
		return v.Str
	case VFunction:
		return fmt.Sprintf("fn#%d", v.Func.ID)
	default:
		return "<invalid value>"
	}
}
