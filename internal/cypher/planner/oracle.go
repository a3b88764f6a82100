package planner

import (
	"github.com/dshills/QuantaGraph/internal/cypher/ast"
)

// CostOracle is the narrow capability interface the planner plans against.
// Implementations must be deterministic for a fixed statistics snapshot so
// planning is reproducible, and safe for concurrent read-only use.
type CostOracle interface {
	// EstimateCardinality returns the estimated number of rows the
	// candidate plan produces. Estimates are non-negative.
	EstimateCardinality(plan LogicalPlan) float64

	// ResolveIndexOpportunity inspects the in-scope predicates for one the
	// oracle can satisfy with an index lookup on the given node. It returns
	// the consumed predicate together with the index candidate plan, or
	// false when no opportunity exists.
	ResolveIndexOpportunity(node string, predicates []ast.Expression) (*IndexOpportunity, bool)
}

// IndexOpportunity pairs an index candidate plan with the predicate it
// consumed. The consumed predicate is satisfied by the seek and must not be
// re-applied as a residual filter.
type IndexOpportunity struct {
	Predicate ast.Expression
	Plan      LogicalPlan
}
