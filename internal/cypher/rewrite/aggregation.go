// Package rewrite contains AST-to-AST normalization passes run before
// planning. Passes never mutate their input; they return freshly built
// trees.
package rewrite

import (
	"fmt"

	"github.com/dshills/QuantaGraph/internal/cypher/ast"
	"github.com/dshills/QuantaGraph/internal/errors"
)

// DefaultMaxIterations bounds the isolation fixed point. Each expansion step
// strictly decreases the maximum depth of any mixed expression, so the bound
// is only reachable for malformed (cyclic) expression trees.
const DefaultMaxIterations = 100

// Synthetic binding names carry a leading space, which no user-chosen
// variable name can, so hoisted bindings never collide with user bindings.
const isolatedNamePrefix = "  isolated"

// AggregationIsolator rewrites WITH and RETURN clauses so that no single
// projected expression mixes aggregate and non-aggregate sub-expressions.
// Mixed expressions are split into their pure parts, the parts are hoisted
// into a synthetic WITH clause, and the original expression is rebuilt over
// references to the hoisted bindings.
type AggregationIsolator struct {
	maxIterations int
}

// NewAggregationIsolator creates an isolator with the default iteration bound.
func NewAggregationIsolator() *AggregationIsolator {
	return &AggregationIsolator{maxIterations: DefaultMaxIterations}
}

// NewAggregationIsolatorWithLimit creates an isolator with a custom
// iteration bound.
func NewAggregationIsolatorWithLimit(maxIterations int) *AggregationIsolator {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &AggregationIsolator{maxIterations: maxIterations}
}

// Rewrite returns a query in which every WITH/RETURN expression is either a
// pure aggregate or contains no aggregate at all. Clauses that already
// satisfy the property pass through untouched, so the pass is idempotent.
func (iso *AggregationIsolator) Rewrite(query *ast.Query) (*ast.Query, error) {
	clauses := make([]ast.Clause, 0, len(query.Clauses))

	for _, clause := range query.Clauses {
		horizon, ok := clause.(ast.HorizonClause)
		if !ok {
			clauses = append(clauses, clause)
			continue
		}

		// Nested aggregates cannot be split into pure parts; isolating
		// around one would re-trigger on its own output forever.
		for _, item := range horizon.ProjectionItems() {
			if nested := findNestedAggregate(item.Expr); nested != nil {
				return nil, errors.New(errors.InvalidAggregation, "aggregate functions cannot be nested").
					WithDetailf("%s contains an aggregate inside the aggregate %s", item.Expr, nested).
					WithClause(horizon.String())
			}
		}

		if !needsIsolation(horizon) {
			clauses = append(clauses, clause)
			continue
		}

		intermediate, rewritten, err := iso.isolate(horizon)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, intermediate, rewritten)
	}

	return &ast.Query{Clauses: clauses}, nil
}

// isMixed reports whether an expression is not itself an aggregate but has
// an aggregate strictly inside it.
func isMixed(e ast.Expression) bool {
	if ast.IsAggregate(e) {
		return false
	}
	for _, child := range e.Children() {
		if ast.ContainsAggregate(child) {
			return true
		}
	}
	return false
}

// hasMixed reports whether any expression in the tree is mixed.
func hasMixed(e ast.Expression) bool {
	if isMixed(e) {
		return true
	}
	for _, child := range e.Children() {
		if hasMixed(child) {
			return true
		}
	}
	return false
}

// findNestedAggregate returns an aggregate expression with another
// aggregate strictly inside it, or nil.
func findNestedAggregate(e ast.Expression) ast.Expression {
	if ast.IsAggregate(e) {
		for _, child := range e.Children() {
			if ast.ContainsAggregate(child) {
				return e
			}
		}
	}
	for _, child := range e.Children() {
		if nested := findNestedAggregate(child); nested != nil {
			return nested
		}
	}
	return nil
}

func needsIsolation(clause ast.HorizonClause) bool {
	for _, item := range clause.ProjectionItems() {
		if hasMixed(item.Expr) {
			return true
		}
	}
	return false
}

// binding pairs a hoisted expression with the name it is projected under.
type binding struct {
	expr ast.Expression
	name string
}

func (iso *AggregationIsolator) isolate(clause ast.HorizonClause) (ast.Clause, ast.Clause, error) {
	items := clause.ProjectionItems()

	working := make([]ast.Expression, 0, len(items))
	for _, item := range items {
		working = append(working, item.Expr)
	}

	surviving, err := iso.expandToFixpoint(working, clause)
	if err != nil {
		return nil, nil, err
	}

	bindings := make([]binding, 0, len(surviving))
	replacements := make(map[string]string, len(surviving))
	for _, expr := range surviving {
		name := bindingName(expr)
		bindings = append(bindings, binding{expr: expr, name: name})
		replacements[expr.String()] = name
	}

	intermediateItems := make([]ast.ReturnItem, len(bindings))
	for i, b := range bindings {
		intermediateItems[i] = ast.Aliased(b.expr, b.name)
	}
	intermediate := &ast.WithClause{Items: intermediateItems}

	rewrittenItems := make([]ast.ReturnItem, len(items))
	for i, item := range items {
		rewrittenItems[i] = iso.rewriteItem(item, replacements)
	}

	return intermediate, clause.ReplaceItems(rewrittenItems), nil
}

// expandToFixpoint replaces every mixed expression in the working set by its
// direct children until no mixed member remains. Duplicates are collapsed,
// keeping first-occurrence order so projection order stays deterministic.
func (iso *AggregationIsolator) expandToFixpoint(working []ast.Expression, clause ast.HorizonClause) ([]ast.Expression, error) {
	for i := 0; ; i++ {
		if i >= iso.maxIterations {
			return nil, errors.InternalConsistencyError(
				"aggregation isolation did not converge after %d iterations", iso.maxIterations).
				WithClause(clause.String())
		}

		expanded := false
		next := make([]ast.Expression, 0, len(working))
		for _, expr := range working {
			if isMixed(expr) {
				next = append(next, expr.Children()...)
				expanded = true
			} else {
				next = append(next, expr)
			}
		}
		working = next

		if !expanded {
			break
		}
	}

	seen := make(map[string]bool, len(working))
	unique := make([]ast.Expression, 0, len(working))
	for _, expr := range working {
		key := expr.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, expr)
	}
	return unique, nil
}

// bindingName picks the name a hoisted expression is projected under.
// Identifiers keep their own name so existing bindings survive unrenamed;
// anything else gets a synthetic name derived from its source offset.
func bindingName(expr ast.Expression) string {
	if id, ok := expr.(*ast.Identifier); ok {
		return id.Name
	}
	return fmt.Sprintf("%s%d", isolatedNamePrefix, expr.Pos())
}

// rewriteItem rebuilds one projected item over the hoisted bindings. An
// implicit item projecting a bare identifier is the grouping key, already
// correctly named, and stays untouched; any other implicit item becomes
// explicit under its original source text so external naming is preserved.
func (iso *AggregationIsolator) rewriteItem(item ast.ReturnItem, replacements map[string]string) ast.ReturnItem {
	if !item.Explicit {
		if _, isIdentifier := item.Expr.(*ast.Identifier); isIdentifier {
			return item
		}
		return ast.Aliased(iso.replace(item.Expr, replacements), item.Expr.String())
	}
	return ast.Aliased(iso.replace(item.Expr, replacements), item.Alias)
}

// replace substitutes hoisted sub-trees with identifier references. Hoisted
// expressions are disjoint sub-trees of the original expression, so a match
// replaces the whole sub-tree and recursion only continues where no match
// was found.
func (iso *AggregationIsolator) replace(e ast.Expression, replacements map[string]string) ast.Expression {
	if name, ok := replacements[e.String()]; ok {
		return ast.NewIdentifier(name, e.Pos())
	}

	switch expr := e.(type) {
	case *ast.Identifier, *ast.CountStar, *ast.Literal:
		return e

	case *ast.FunctionInvocation:
		args := make([]ast.Expression, len(expr.Args))
		for i, arg := range expr.Args {
			args[i] = iso.replace(arg, replacements)
		}
		return &ast.FunctionInvocation{
			Name:        expr.Name,
			Args:        args,
			Aggregating: expr.Aggregating,
			Position:    expr.Position,
		}

	case *ast.Property:
		return &ast.Property{
			Subject:  iso.replace(expr.Subject, replacements),
			Key:      expr.Key,
			Position: expr.Position,
		}

	case *ast.Comparison:
		return &ast.Comparison{
			Op:       expr.Op,
			Left:     iso.replace(expr.Left, replacements),
			Right:    iso.replace(expr.Right, replacements),
			Position: expr.Position,
		}

	case *ast.Opaque:
		sub := make([]ast.Expression, len(expr.Sub))
		for i, s := range expr.Sub {
			sub[i] = iso.replace(s, replacements)
		}
		return &ast.Opaque{Text: expr.Text, Sub: sub, Position: expr.Position}

	default:
		return e
	}
}
