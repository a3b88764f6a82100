package ast

import (
	"fmt"
	"strings"
)

// Identifier references a bound variable by name.
type Identifier struct {
	Name     string
	Position Pos
}

func (i *Identifier) String() string         { return i.Name }
func (i *Identifier) Pos() Pos               { return i.Position }
func (i *Identifier) Children() []Expression { return nil }
func (i *Identifier) exprNode()              {}

// NewIdentifier creates an identifier at the given offset.
func NewIdentifier(name string, pos Pos) *Identifier {
	return &Identifier{Name: name, Position: pos}
}

// FunctionInvocation is a call to a named function. Aggregating carries the
// resolved function capability: true when the function summarizes groups of
// rows (count, sum, ...) rather than computing per row.
type FunctionInvocation struct {
	Name        string
	Args        []Expression
	Aggregating bool
	Position    Pos
}

func (f *FunctionInvocation) String() string {
	args := make([]string, len(f.Args))
	for i, arg := range f.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(args, ", "))
}

func (f *FunctionInvocation) Pos() Pos               { return f.Position }
func (f *FunctionInvocation) Children() []Expression { return f.Args }
func (f *FunctionInvocation) exprNode()              {}

// CountStar is the count-of-all-rows literal. It is always an aggregate.
type CountStar struct {
	Position Pos
}

func (c *CountStar) String() string         { return "count(*)" }
func (c *CountStar) Pos() Pos               { return c.Position }
func (c *CountStar) Children() []Expression { return nil }
func (c *CountStar) exprNode()              {}

// Literal is a constant value.
type Literal struct {
	Value    interface{}
	Position Pos
}

func (l *Literal) String() string {
	switch v := l.Value.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("'%s'", strings.ReplaceAll(v, "'", "\\'"))
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (l *Literal) Pos() Pos               { return l.Position }
func (l *Literal) Children() []Expression { return nil }
func (l *Literal) exprNode()              {}

// Property accesses a keyed property of a base expression.
type Property struct {
	Subject  Expression
	Key      string
	Position Pos
}

func (p *Property) String() string         { return fmt.Sprintf("%s.%s", p.Subject.String(), p.Key) }
func (p *Property) Pos() Pos               { return p.Position }
func (p *Property) Children() []Expression { return []Expression{p.Subject} }
func (p *Property) exprNode()              {}

// ComparisonOp is the operator of a Comparison.
type ComparisonOp int

const (
	OpEquals ComparisonOp = iota
	OpNotEquals
)

func (op ComparisonOp) String() string {
	switch op {
	case OpEquals:
		return "="
	case OpNotEquals:
		return "<>"
	default:
		return fmt.Sprintf("Unknown(%d)", int(op))
	}
}

// Comparison is a binary predicate over two expressions.
type Comparison struct {
	Op       ComparisonOp
	Left     Expression
	Right    Expression
	Position Pos
}

func (c *Comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.Left.String(), c.Op.String(), c.Right.String())
}

func (c *Comparison) Pos() Pos               { return c.Position }
func (c *Comparison) Children() []Expression { return []Expression{c.Left, c.Right} }
func (c *Comparison) exprNode()              {}

// NewEquals builds an equality predicate.
func NewEquals(left, right Expression, pos Pos) *Comparison {
	return &Comparison{Op: OpEquals, Left: left, Right: right, Position: pos}
}

// NewNotEquals builds an inequality predicate.
func NewNotEquals(left, right Expression, pos Pos) *Comparison {
	return &Comparison{Op: OpNotEquals, Left: left, Right: right, Position: pos}
}

// Opaque is an expression kind the compiler does not inspect beyond its
// child list. Text renders the node itself with %s placeholders for its
// children, in order.
type Opaque struct {
	Text     string
	Sub      []Expression
	Position Pos
}

func (o *Opaque) String() string {
	args := make([]interface{}, len(o.Sub))
	for i, sub := range o.Sub {
		args[i] = sub.String()
	}
	return fmt.Sprintf(o.Text, args...)
}

func (o *Opaque) Pos() Pos               { return o.Position }
func (o *Opaque) Children() []Expression { return o.Sub }
func (o *Opaque) exprNode()              {}
