package ast

import (
	"fmt"
	"strings"
)

// ReturnItem is one projected item of a WITH or RETURN clause. An explicit
// item carries a user-chosen alias; an implicit item is named after its
// rendered source text. Item order within a clause is projection order.
type ReturnItem struct {
	Expr     Expression
	Alias    string
	Explicit bool
}

// Aliased builds a return item with a user-chosen binding name.
func Aliased(expr Expression, name string) ReturnItem {
	return ReturnItem{Expr: expr, Alias: name, Explicit: true}
}

// Unaliased builds a return item named after its source text.
func Unaliased(expr Expression) ReturnItem {
	return ReturnItem{Expr: expr}
}

// Name returns the binding name the item projects under.
func (r ReturnItem) Name() string {
	if r.Explicit {
		return r.Alias
	}
	return r.Expr.String()
}

func (r ReturnItem) String() string {
	if r.Explicit {
		return fmt.Sprintf("%s AS %s", r.Expr.String(), r.Alias)
	}
	return r.Expr.String()
}

// Clause is one step of a query. Clause order is execution order.
type Clause interface {
	String() string
	clauseNode()
}

// HorizonClause is a clause that projects a new set of bindings: WITH or
// RETURN. The aggregation isolator operates on horizon clauses only.
type HorizonClause interface {
	Clause
	// ProjectionItems returns the clause's items in projection order.
	ProjectionItems() []ReturnItem
	// ReplaceItems builds a clause of the same kind with new items,
	// preserving every other clause property.
	ReplaceItems(items []ReturnItem) HorizonClause
	// IsDistinct reports whether the clause deduplicates its rows.
	IsDistinct() bool
}

func renderItems(items []ReturnItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}
	return strings.Join(parts, ", ")
}

// WithClause projects intermediate bindings.
type WithClause struct {
	Distinct bool
	Items    []ReturnItem
}

func (w *WithClause) String() string {
	if w.Distinct {
		return "WITH DISTINCT " + renderItems(w.Items)
	}
	return "WITH " + renderItems(w.Items)
}

func (w *WithClause) ProjectionItems() []ReturnItem { return w.Items }
func (w *WithClause) IsDistinct() bool              { return w.Distinct }
func (w *WithClause) clauseNode()                   {}

func (w *WithClause) ReplaceItems(items []ReturnItem) HorizonClause {
	return &WithClause{Distinct: w.Distinct, Items: items}
}

// ReturnClause projects the query's final bindings.
type ReturnClause struct {
	Distinct bool
	Items    []ReturnItem
}

func (r *ReturnClause) String() string {
	if r.Distinct {
		return "RETURN DISTINCT " + renderItems(r.Items)
	}
	return "RETURN " + renderItems(r.Items)
}

func (r *ReturnClause) ProjectionItems() []ReturnItem { return r.Items }
func (r *ReturnClause) IsDistinct() bool              { return r.Distinct }
func (r *ReturnClause) clauseNode()                   {}

func (r *ReturnClause) ReplaceItems(items []ReturnItem) HorizonClause {
	return &ReturnClause{Distinct: r.Distinct, Items: items}
}

// MatchClause introduces graph pattern bindings, optionally filtered.
type MatchClause struct {
	Pattern []PatternRelationship
	Where   Expression
}

func (m *MatchClause) String() string {
	parts := make([]string, len(m.Pattern))
	for i, rel := range m.Pattern {
		parts[i] = rel.String()
	}
	s := "MATCH " + strings.Join(parts, ", ")
	if m.Where != nil {
		s += " WHERE " + m.Where.String()
	}
	return s
}

func (m *MatchClause) clauseNode() {}

// OpaqueClause is a clause kind the isolator and planner pass through
// unexamined.
type OpaqueClause struct {
	Text string
}

func (o *OpaqueClause) String() string { return o.Text }
func (o *OpaqueClause) clauseNode()    {}

// Query is an ordered clause sequence.
type Query struct {
	Clauses []Clause
}

func (q *Query) String() string {
	parts := make([]string, len(q.Clauses))
	for i, clause := range q.Clauses {
		parts[i] = clause.String()
	}
	return strings.Join(parts, " ")
}
