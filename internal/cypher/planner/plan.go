// Package planner compiles graph relationship patterns into logical
// operator trees, choosing traversal direction and join order from
// cardinality estimates supplied by a cost oracle.
package planner

import (
	"sort"

	"github.com/dshills/QuantaGraph/internal/cypher/ast"
)

// Plan represents a node in a logical operator tree. Every node exclusively
// owns its children; trees are never shared between plans.
type Plan interface {
	// Children returns the child plans.
	Children() []Plan
	// Variables returns the set of variables bound by this node and its
	// children.
	Variables() VarSet
	// String returns a one-line representation for debugging.
	String() string
}

// LogicalPlan represents a logical plan node.
type LogicalPlan interface {
	Plan
	logicalNode()
}

// VarSet is a set of bound variable names.
type VarSet map[string]struct{}

// NewVarSet creates a set holding the given names.
func NewVarSet(names ...string) VarSet {
	s := make(VarSet, len(names))
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

// Add inserts a name into the set.
func (s VarSet) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether the set holds the name.
func (s VarSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// ContainsAll reports whether every name of other is in the set.
func (s VarSet) ContainsAll(other VarSet) bool {
	for name := range other {
		if !s.Has(name) {
			return false
		}
	}
	return true
}

// Disjoint reports whether the two sets share no name.
func (s VarSet) Disjoint(other VarSet) bool {
	for name := range other {
		if s.Has(name) {
			return false
		}
	}
	return true
}

// Union returns a new set holding both sets' names.
func (s VarSet) Union(other VarSet) VarSet {
	out := make(VarSet, len(s)+len(other))
	for name := range s {
		out[name] = struct{}{}
	}
	for name := range other {
		out[name] = struct{}{}
	}
	return out
}

// Sorted returns the names in lexical order.
func (s VarSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// basePlan provides common functionality for plan nodes.
type basePlan struct {
	children []Plan
	vars     VarSet
}

func (p *basePlan) Children() []Plan {
	return p.children
}

func (p *basePlan) Variables() VarSet {
	return p.vars
}

// dependencies returns the variables an expression references: identifiers
// plus the bases of property accesses. Literals and count(*) reference
// nothing.
func dependencies(e ast.Expression) VarSet {
	deps := NewVarSet()
	collectDependencies(e, deps)
	return deps
}

func collectDependencies(e ast.Expression, deps VarSet) {
	if id, ok := e.(*ast.Identifier); ok {
		deps.Add(id.Name)
		return
	}
	for _, child := range e.Children() {
		collectDependencies(child, deps)
	}
}
