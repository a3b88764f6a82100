// Package ast defines the abstract syntax tree shared by the aggregation
// isolator and the pattern planner. The variant sets for expressions,
// clauses and patterns are closed: consumers dispatch with exhaustive type
// switches so a new variant forces review of every consumer.
package ast

// Pos is a character offset into the original query text. It is used only
// to derive deterministic synthetic names; rendered expression text never
// includes it.
type Pos int

// Expression is a node in an expression tree. Expression trees are
// immutable; rewrites build new trees.
type Expression interface {
	// String returns the rendered source form. Rendering is position
	// independent, so two structurally equal expressions render identically.
	String() string
	// Pos returns the source offset of the expression.
	Pos() Pos
	// Children returns the direct sub-expressions in declaration order.
	Children() []Expression

	exprNode()
}

// Equal reports structural equality of two expressions. Equality is defined
// over rendered text, which is position independent by construction.
func Equal(a, b Expression) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

// IsAggregate reports whether an expression is itself an aggregate: a count
// of all rows, or an invocation resolved to an aggregating function.
func IsAggregate(e Expression) bool {
	switch expr := e.(type) {
	case *CountStar:
		return true
	case *FunctionInvocation:
		return expr.Aggregating
	default:
		return false
	}
}

// ContainsAggregate reports whether an expression is an aggregate or has an
// aggregate anywhere beneath it.
func ContainsAggregate(e Expression) bool {
	if IsAggregate(e) {
		return true
	}
	for _, child := range e.Children() {
		if ContainsAggregate(child) {
			return true
		}
	}
	return false
}
