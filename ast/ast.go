// Package ast defines the syntax tree produced by the parser. Every
// node variant is a concrete struct implementing Node; dispatch is by
// type switch, never by a visitor or virtual call, since the variant
// set is closed.
package ast

// LiteralType tags the nominal type of a Literal node.
type LiteralType int

const (
	IntLiteral LiteralType = iota
	FloatLiteral
	StrLiteral
	Bool
	Undefined
	Unknown
)

func (t LiteralType) String() string {
	switch t {
	case IntLiteral:
		return "IntLiteral"
	case FloatLiteral:
		return "FloatLiteral"
	case StrLiteral:
		return "StrLiteral"
	case Bool:
		return "Bool"
	case Undefined:
		return "Undefined"
	case Unknown:
		return "Unknown"
	default:
		return "LiteralType(?)"
	}
}

// Node is implemented by every syntax tree variant. Pos is the byte
// offset of the node's first token; Constant reports the compile-time-known
// flag propagated per the parser's composition rules.
type Node interface {
	Pos() int
	Constant() bool
	node()
}

// Base carries the two fields every node variant shares.
type Base struct {
	Position   int
	IsConstant bool
}

func (b Base) Pos() int       { return b.Position }
func (b Base) Constant() bool { return b.IsConstant }
func (Base) node()            {}

// Block groups a sequence of statements/expressions; it is the root
// node of a parse and the body of `{ ... }` forms.
type Block struct {
	Base
	Nodes []Node
}

// Literal is a constant value spelled directly in source: an integer,
// float, string, boolean, or one of the two sentinel forms (Unknown
// stands in for an omitted type annotation, Undefined for an omitted
// initializer).
type Literal struct {
	Base
	Typ   LiteralType
	Value string
}

// VariableRef reads the current value bound to Name.
type VariableRef struct {
	Base
	Name string
}

// Call invokes the function bound to Name with Args evaluated
// left-to-right.
type Call struct {
	Base
	Name string
	Args []Node
}

// PrefixOp applies a unary operator to Right (e.g. `-x`, `!x`).
type PrefixOp struct {
	Base
	Op    string
	Right Node
}

// InfixOp applies a binary operator to Left and Right.
type InfixOp struct {
	Base
	Op          string
	Left, Right Node
}

// PostfixOp applies a unary operator after Left (e.g. `x..`).
type PostfixOp struct {
	Base
	Op   string
	Left Node
}

// IndexOp indexes Object by Index (e.g. `x[0]`).
type IndexOp struct {
	Base
	Object Node
	Index  Node
}

// Declaration introduces Name into the current scope. Typ and Body may
// be the sentinel literals Unknown/Undefined when omitted in source.
type Declaration struct {
	Base
	Name string
	Typ  Node
	Body Node
}

// Assignment overwrites the existing binding of Name with Value.
type Assignment struct {
	Base
	Name  string
	Value Node
}

// IfExpression evaluates Condition, then either Then or Else. Else may
// be the sentinel Literal(Undefined) when no else/elif clause is
// present in source.
type IfExpression struct {
	Base
	Condition Node
	Then      Node
	Else      Node
}

// WhileExpression re-evaluates Condition before each execution of
// Body, stopping the first time Condition is false.
type WhileExpression struct {
	Base
	Condition Node
	Body      Node
}

// FunctionExpression is a first-class function value literal: a
// parameter list (names with type expressions), a return type
// expression list, and a body.
type FunctionExpression struct {
	Base
	ArgNames []string
	ArgTypes []Node
	RetTypes []Node
	Body     Node
}

// NewBase returns the shared Base fields for a node; callers embed it
// in a variant struct and fill in the variant-specific fields.
func NewBase(position int, constant bool) Base {
	return Base{Position: position, IsConstant: constant}
}
