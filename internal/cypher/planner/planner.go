package planner

import (
	"fmt"

	"github.com/dshills/QuantaGraph/internal/cypher/ast"
	"github.com/dshills/QuantaGraph/internal/errors"
	"github.com/dshills/QuantaGraph/internal/feature"
	"github.com/dshills/QuantaGraph/internal/log"
)

// PatternPlanner compiles graph patterns into logical operator trees. It is
// stateless; each Plan call runs in its own job, so one planner may serve
// concurrent compilations as long as its oracle supports concurrent reads.
type PatternPlanner struct {
	oracle CostOracle
	logger log.Logger
}

// NewPatternPlanner creates a planner over the given cost oracle.
func NewPatternPlanner(oracle CostOracle) *PatternPlanner {
	return &PatternPlanner{
		oracle: oracle,
		logger: log.Default(),
	}
}

// Plan compiles the pattern relationships of one clause, plus the residual
// predicates scoped to it, into a logical plan projecting the requested
// items. Relationships are grouped into connected components; independent
// components compose via cartesian products in declaration order.
func (p *PatternPlanner) Plan(rels []ast.PatternRelationship, predicates []ast.Expression, items []ProjectionItem) (LogicalPlan, error) {
	job := &planJob{oracle: p.oracle}
	plan, err := job.plan(rels, predicates, items)
	if err != nil {
		return nil, err
	}

	if feature.IsEnabled(feature.PlanLogging) {
		p.logger.Debug("pattern planned",
			log.Int("relationships", len(rels)),
			log.Int("predicates", len(predicates)),
			log.Float64("estimated_rows", p.oracle.EstimateCardinality(plan)),
		)
	}
	return plan, nil
}

// pendingPredicate tracks a residual predicate until a plan point binds all
// of its dependencies.
type pendingPredicate struct {
	expr     ast.Expression
	deps     VarSet
	attached bool
}

// planJob holds the per-compilation state: pending predicates, outstanding
// relationship-uniqueness checks, and the fresh-name sequence.
type planJob struct {
	oracle     CostOracle
	pending    []*pendingPredicate
	uniqueness []*pendingPredicate
	freshSeq   int
}

func (j *planJob) plan(rels []ast.PatternRelationship, predicates []ast.Expression, items []ProjectionItem) (LogicalPlan, error) {
	if len(rels) == 0 {
		return nil, errors.UnplannablePatternError("(empty pattern)")
	}
	for _, rel := range rels {
		if rel.StartNode == "" || rel.EndNode == "" || rel.Variable == "" {
			return nil, errors.UnplannablePatternError(rel.String()).
				WithDetail("every pattern endpoint and relationship must carry a variable name")
		}
	}

	j.pending = make([]*pendingPredicate, len(predicates))
	for i, pred := range predicates {
		j.pending[i] = &pendingPredicate{expr: pred, deps: dependencies(pred)}
	}
	j.uniqueness = uniquenessPredicates(rels)

	var combined LogicalPlan
	for _, component := range partitionComponents(rels) {
		componentPlan, err := j.planComponent(component)
		if err != nil {
			return nil, err
		}

		if combined == nil {
			combined = componentPlan
		} else {
			if !combined.Variables().Disjoint(componentPlan.Variables()) {
				return nil, errors.InternalConsistencyError(
					"pattern components share variables: %v", componentPlan.Variables().Sorted())
			}
			combined = NewCartesianProduct(combined, componentPlan)
		}
		combined = j.attachReady(combined)
	}

	for _, pending := range j.pending {
		if !pending.attached {
			missing := firstMissing(pending.deps, combined.Variables())
			return nil, errors.UnresolvedReferenceError(missing).
				WithDetailf("predicate %s references a variable no pattern binds", pending.expr)
		}
	}

	for _, item := range items {
		deps := dependencies(item.Expr)
		if !combined.Variables().ContainsAll(deps) {
			missing := firstMissing(deps, combined.Variables())
			return nil, errors.UnresolvedReferenceError(missing).
				WithDetailf("projection %s references a variable no pattern binds", item)
		}
	}

	return NewProjection(combined, items), nil
}

// planComponent plans one connected component: anchor the first
// relationship on its cheaper endpoint, then expand the remaining
// relationships outward from the bound variables.
func (j *planJob) planComponent(component []ast.PatternRelationship) (LogicalPlan, error) {
	first := component[0]
	anchorNode, anchorPlan := j.chooseAnchor(first)

	plan := j.attachReady(anchorPlan)
	plan = j.expandStep(plan, anchorNode, first)
	plan = j.attachReady(plan)

	remaining := make([]ast.PatternRelationship, len(component)-1)
	copy(remaining, component[1:])

	for len(remaining) > 0 {
		idx := -1
		for i, rel := range remaining {
			if plan.Variables().Has(rel.StartNode) || plan.Variables().Has(rel.EndNode) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, errors.InternalConsistencyError(
				"component relationship %s shares no variable with the plan so far", remaining[0])
		}

		rel := remaining[idx]
		remaining = append(remaining[:idx], remaining[idx+1:]...)

		from := rel.StartNode
		if !plan.Variables().Has(from) {
			from = rel.EndNode
		}

		plan = j.expandStep(plan, from, rel)
		plan = j.attachReady(plan)
	}

	return plan, nil
}

// chooseAnchor enumerates candidate starting plans for both endpoints of
// the first relationship and anchors on the side with the lower estimated
// cardinality. Ties anchor the earlier-declared endpoint. The winning
// candidate's consumed index predicate, if any, is marked attached.
func (j *planJob) chooseAnchor(rel ast.PatternRelationship) (string, LogicalPlan) {
	startPlan, startConsumed, startCard := j.bestCandidate(rel.StartNode)
	if rel.StartNode == rel.EndNode || !feature.IsEnabled(feature.CostBasedAnchoring) {
		j.markConsumed(startConsumed)
		return rel.StartNode, startPlan
	}

	endPlan, endConsumed, endCard := j.bestCandidate(rel.EndNode)
	if endCard < startCard {
		j.markConsumed(endConsumed)
		return rel.EndNode, endPlan
	}
	j.markConsumed(startConsumed)
	return rel.StartNode, startPlan
}

// bestCandidate returns the cheaper of an all-nodes scan and, when the
// oracle resolves one, an index seek wrapped in a selection carrying the
// consumed predicate.
func (j *planJob) bestCandidate(node string) (LogicalPlan, ast.Expression, float64) {
	var best LogicalPlan = NewAllNodesScan(node)
	var consumed ast.Expression
	bestCard := j.oracle.EstimateCardinality(best)

	if !feature.IsEnabled(feature.IndexSeekSelection) {
		return best, nil, bestCard
	}

	if opp, ok := j.oracle.ResolveIndexOpportunity(node, j.unattachedPredicates()); ok {
		candidate := NewSelection([]ast.Expression{opp.Predicate}, opp.Plan, false)
		if card := j.oracle.EstimateCardinality(candidate); card < bestCard {
			best = candidate
			bestCard = card
			consumed = opp.Predicate
		}
	}

	return best, consumed, bestCard
}

// expandStep builds the Expand for one relationship from an already-bound
// endpoint. A target endpoint that is already bound (self-loop, or a
// pattern closing a cycle) is bound under a fresh disambiguation name and
// reconciled through a hidden equality selection.
func (j *planJob) expandStep(plan LogicalPlan, from string, rel ast.PatternRelationship) LogicalPlan {
	direction := rel.Direction
	if from == rel.EndNode && from != rel.StartNode {
		direction = direction.Reversed()
	}
	to := rel.Otherwise(from)

	if plan.Variables().Has(to) {
		fresh := j.freshName(to)
		expand := NewExpand(plan, from, direction, rel.Types, fresh, rel.Variable, rel.Length)
		equals := ast.NewEquals(ast.NewIdentifier(to, 0), ast.NewIdentifier(fresh, 0), 0)
		return NewSelection([]ast.Expression{equals}, expand, true)
	}

	return NewExpand(plan, from, direction, rel.Types, to, rel.Variable, rel.Length)
}

// attachReady wraps the plan in a selection carrying every outstanding
// predicate whose dependencies the plan now binds: relationship-uniqueness
// predicates first, then residual user predicates, in declaration order.
func (j *planJob) attachReady(plan LogicalPlan) LogicalPlan {
	bound := plan.Variables()

	var ready []ast.Expression
	for _, pred := range j.uniqueness {
		if !pred.attached && bound.ContainsAll(pred.deps) {
			pred.attached = true
			ready = append(ready, pred.expr)
		}
	}
	for _, pred := range j.pending {
		if !pred.attached && bound.ContainsAll(pred.deps) {
			pred.attached = true
			ready = append(ready, pred.expr)
		}
	}

	if len(ready) == 0 {
		return plan
	}
	return NewSelection(ready, plan, false)
}

func (j *planJob) unattachedPredicates() []ast.Expression {
	var preds []ast.Expression
	for _, pending := range j.pending {
		if !pending.attached {
			preds = append(preds, pending.expr)
		}
	}
	return preds
}

func (j *planJob) markConsumed(pred ast.Expression) {
	if pred == nil {
		return
	}
	key := pred.String()
	for _, pending := range j.pending {
		if !pending.attached && pending.expr.String() == key {
			pending.attached = true
			return
		}
	}
}

// freshName derives a disambiguation name for a revisited variable. The $
// separator cannot appear in user variable names, so fresh names never
// collide with user bindings.
func (j *planJob) freshName(name string) string {
	j.freshSeq++
	return fmt.Sprintf("%s$%d", name, j.freshSeq)
}

// uniquenessPredicates builds the no-repeat-relationship checks: one
// NotEquals per pair of single-length relationships whose type sets could
// bind the same underlying relationship. Variable-length relationships
// enforce uniqueness internally during expansion and are skipped here.
func uniquenessPredicates(rels []ast.PatternRelationship) []*pendingPredicate {
	var preds []*pendingPredicate
	for i := 0; i < len(rels); i++ {
		if rels[i].Length.Variable {
			continue
		}
		for k := i + 1; k < len(rels); k++ {
			if rels[k].Length.Variable || !typesOverlap(rels[i].Types, rels[k].Types) {
				continue
			}
			expr := ast.NewNotEquals(
				ast.NewIdentifier(rels[i].Variable, 0),
				ast.NewIdentifier(rels[k].Variable, 0),
				0,
			)
			preds = append(preds, &pendingPredicate{
				expr: expr,
				deps: NewVarSet(rels[i].Variable, rels[k].Variable),
			})
		}
	}
	return preds
}

// typesOverlap reports whether two relationship type sets can match the
// same relationship. An empty set matches any type.
func typesOverlap(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	for _, ta := range a {
		for _, tb := range b {
			if ta == tb {
				return true
			}
		}
	}
	return false
}

// partitionComponents groups relationships into connected components over
// shared variables, each component ordered and keyed by declaration order.
func partitionComponents(rels []ast.PatternRelationship) [][]ast.PatternRelationship {
	parent := make([]int, len(rels))
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, k int) {
		ri, rk := find(i), find(k)
		if ri != rk {
			parent[rk] = ri
		}
	}

	for i := 0; i < len(rels); i++ {
		for k := i + 1; k < len(rels); k++ {
			if sharesVariable(rels[i], rels[k]) {
				union(i, k)
			}
		}
	}

	groups := make(map[int][]ast.PatternRelationship)
	var order []int
	for i, rel := range rels {
		root := find(i)
		if _, seen := groups[root]; !seen {
			order = append(order, root)
		}
		groups[root] = append(groups[root], rel)
	}

	components := make([][]ast.PatternRelationship, len(order))
	for i, root := range order {
		components[i] = groups[root]
	}
	return components
}

func sharesVariable(a, b ast.PatternRelationship) bool {
	names := NewVarSet(a.StartNode, a.EndNode, a.Variable)
	return names.Has(b.StartNode) || names.Has(b.EndNode) || names.Has(b.Variable)
}

// firstMissing returns the lexically first dependency not bound by the plan.
func firstMissing(deps, bound VarSet) string {
	for _, name := range deps.Sorted() {
		if !bound.Has(name) {
			return name
		}
	}
	return ""
}
