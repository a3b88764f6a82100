package planner

import (
	"fmt"
	"strings"

	"github.com/dshills/QuantaGraph/internal/cypher/ast"
)

// AllNodesScan produces every node in the graph, bound to Node.
type AllNodesScan struct {
	basePlan
	Node string
}

func (s *AllNodesScan) logicalNode() {}

func (s *AllNodesScan) String() string {
	return fmt.Sprintf("AllNodesScan(%s)", s.Node)
}

// NewAllNodesScan creates a new all-nodes scan leaf.
func NewAllNodesScan(node string) *AllNodesScan {
	return &AllNodesScan{
		basePlan: basePlan{vars: NewVarSet(node)},
		Node:     node,
	}
}

// NodeIndexSeek produces the nodes a property index returns for the lookup
// predicate that was consumed to build it.
type NodeIndexSeek struct {
	basePlan
	Node      string
	Property  string
	Predicate ast.Expression
}

func (s *NodeIndexSeek) logicalNode() {}

func (s *NodeIndexSeek) String() string {
	return fmt.Sprintf("NodeIndexSeek(%s.%s)", s.Node, s.Property)
}

// NewNodeIndexSeek creates a new index seek leaf.
func NewNodeIndexSeek(node, property string, predicate ast.Expression) *NodeIndexSeek {
	return &NodeIndexSeek{
		basePlan:  basePlan{vars: NewVarSet(node)},
		Node:      node,
		Property:  property,
		Predicate: predicate,
	}
}

// Expand traverses relationships from an already-bound node, binding the
// opposite endpoint and the relationship variable. Direction is the
// traversal direction seen from From.
type Expand struct {
	basePlan
	From        string
	To          string
	RelVariable string
	Direction   ast.Direction
	Types       []string
	Length      ast.Length
}

func (e *Expand) logicalNode() {}

func (e *Expand) String() string {
	rel := ast.PatternRelationship{
		StartNode: e.From,
		EndNode:   e.To,
		Variable:  e.RelVariable,
		Direction: e.Direction,
		Types:     e.Types,
		Length:    e.Length,
	}
	return fmt.Sprintf("Expand(%s)", rel)
}

// NewExpand creates an expand node over source. From must already be bound
// by source; To and the relationship variable become bound.
func NewExpand(source LogicalPlan, from string, direction ast.Direction, types []string, to, relVariable string, length ast.Length) *Expand {
	vars := source.Variables().Union(NewVarSet(to, relVariable))
	return &Expand{
		basePlan:    basePlan{children: []Plan{source}, vars: vars},
		From:        from,
		To:          to,
		RelVariable: relVariable,
		Direction:   direction,
		Types:       types,
		Length:      length,
	}
}

// Selection filters its source by an ordered predicate sequence. A hidden
// selection carries synthetic disambiguation predicates that must never
// surface in projected results.
type Selection struct {
	basePlan
	Predicates []ast.Expression
	Hidden     bool
}

func (s *Selection) logicalNode() {}

func (s *Selection) String() string {
	preds := make([]string, len(s.Predicates))
	for i, pred := range s.Predicates {
		preds[i] = pred.String()
	}
	if s.Hidden {
		return fmt.Sprintf("Selection(hidden, %s)", strings.Join(preds, " AND "))
	}
	return fmt.Sprintf("Selection(%s)", strings.Join(preds, " AND "))
}

// NewSelection creates a selection over source.
func NewSelection(predicates []ast.Expression, source LogicalPlan, hidden bool) *Selection {
	return &Selection{
		basePlan:   basePlan{children: []Plan{source}, vars: source.Variables()},
		Predicates: predicates,
		Hidden:     hidden,
	}
}

// CartesianProduct combines two plans binding disjoint variable sets.
type CartesianProduct struct {
	basePlan
}

func (c *CartesianProduct) logicalNode() {}

func (c *CartesianProduct) String() string {
	return "CartesianProduct"
}

// NewCartesianProduct composes two independent plans. The caller must
// ensure the branches bind disjoint variable sets.
func NewCartesianProduct(left, right LogicalPlan) *CartesianProduct {
	return &CartesianProduct{
		basePlan: basePlan{
			children: []Plan{left, right},
			vars:     left.Variables().Union(right.Variables()),
		},
	}
}

// ProjectionItem maps an output name to its expression.
type ProjectionItem struct {
	Name string
	Expr ast.Expression
}

func (p ProjectionItem) String() string {
	return fmt.Sprintf("%s AS %s", p.Expr.String(), p.Name)
}

// Projection is the root of every produced plan, mapping each requested
// output name to its resolved expression in declaration order.
type Projection struct {
	basePlan
	Items []ProjectionItem
}

func (p *Projection) logicalNode() {}

func (p *Projection) String() string {
	items := make([]string, len(p.Items))
	for i, item := range p.Items {
		items[i] = item.String()
	}
	return fmt.Sprintf("Projection(%s)", strings.Join(items, ", "))
}

// NewProjection creates the projection root over source.
func NewProjection(source LogicalPlan, items []ProjectionItem) *Projection {
	vars := NewVarSet()
	for _, item := range items {
		vars.Add(item.Name)
	}
	return &Projection{
		basePlan: basePlan{children: []Plan{source}, vars: source.Variables().Union(vars)},
		Items:    items,
	}
}

// explainPlan generates a string representation of a plan for debugging.
func explainPlan(plan Plan, indent string) string {
	result := indent + plan.String() + "\n"

	for _, child := range plan.Children() {
		result += explainPlan(child, indent+"  ")
	}

	return result
}

// ExplainPlan returns an indented string representation of the plan tree.
func ExplainPlan(plan Plan) string {
	return explainPlan(plan, "")
}
