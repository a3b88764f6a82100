package planner

import (
	"math"

	"github.com/dshills/QuantaGraph/internal/catalog"
	"github.com/dshills/QuantaGraph/internal/cypher/ast"
)

// CostParams defines fallback values used when the statistics snapshot is
// missing or empty.
type CostParams struct {
	// DefaultNodeCount stands in for an absent node count.
	DefaultNodeCount int64
	// PredicateSelectivity is the fraction of rows a residual predicate is
	// assumed to keep when no statistics apply.
	PredicateSelectivity float64
}

// DefaultCostParams returns standard cost parameters.
func DefaultCostParams() *CostParams {
	return &CostParams{
		DefaultNodeCount:     1000,
		PredicateSelectivity: 0.1,
	}
}

// CostEstimator is the statistics-backed CostOracle implementation. It
// reads a catalog snapshot and produces deterministic cardinality estimates
// for candidate plans.
type CostEstimator struct {
	params  *CostParams
	catalog catalog.Catalog
}

// NewCostEstimator creates a new cost estimator over the given catalog.
func NewCostEstimator(cat catalog.Catalog) *CostEstimator {
	return &CostEstimator{
		params:  DefaultCostParams(),
		catalog: cat,
	}
}

// NewCostEstimatorWithParams creates a cost estimator with custom fallback
// parameters.
func NewCostEstimatorWithParams(cat catalog.Catalog, params *CostParams) *CostEstimator {
	if params == nil {
		params = DefaultCostParams()
	}
	return &CostEstimator{
		params:  params,
		catalog: cat,
	}
}

// EstimateCardinality returns the estimated row count of a candidate plan.
func (ce *CostEstimator) EstimateCardinality(plan LogicalPlan) float64 {
	stats := ce.graphStats()

	switch p := plan.(type) {
	case *AllNodesScan:
		return ce.nodeCount(stats)

	case *NodeIndexSeek:
		return ce.nodeCount(stats) * ce.indexSelectivity(p.Property)

	case *Expand:
		input := ce.EstimateCardinality(p.Children()[0].(LogicalPlan))
		return input * ce.expandDegree(stats, p)

	case *Selection:
		input := ce.EstimateCardinality(p.Children()[0].(LogicalPlan))
		selectivity := math.Pow(ce.params.PredicateSelectivity, float64(len(p.Predicates)))
		return input * selectivity

	case *CartesianProduct:
		left := ce.EstimateCardinality(p.Children()[0].(LogicalPlan))
		right := ce.EstimateCardinality(p.Children()[1].(LogicalPlan))
		return left * right

	case *Projection:
		return ce.EstimateCardinality(p.Children()[0].(LogicalPlan))

	default:
		return ce.nodeCount(stats)
	}
}

// ResolveIndexOpportunity looks for an equality predicate comparing a
// property of the given node against a literal, backed by an index on that
// property. The first matching predicate in declaration order wins, keeping
// resolution deterministic.
func (ce *CostEstimator) ResolveIndexOpportunity(node string, predicates []ast.Expression) (*IndexOpportunity, bool) {
	for _, pred := range predicates {
		cmp, ok := pred.(*ast.Comparison)
		if !ok || cmp.Op != ast.OpEquals {
			continue
		}

		property, ok := indexableProperty(node, cmp)
		if !ok {
			continue
		}

		if _, err := ce.catalog.GetIndex(property); err != nil {
			continue
		}

		return &IndexOpportunity{
			Predicate: pred,
			Plan:      NewNodeIndexSeek(node, property, pred),
		}, true
	}
	return nil, false
}

// indexableProperty returns the property key when one side of the equality
// accesses a property of node and the other side is a literal.
func indexableProperty(node string, cmp *ast.Comparison) (string, bool) {
	if key, ok := nodeProperty(node, cmp.Left); ok {
		if _, isLiteral := cmp.Right.(*ast.Literal); isLiteral {
			return key, true
		}
	}
	if key, ok := nodeProperty(node, cmp.Right); ok {
		if _, isLiteral := cmp.Left.(*ast.Literal); isLiteral {
			return key, true
		}
	}
	return "", false
}

func nodeProperty(node string, e ast.Expression) (string, bool) {
	prop, ok := e.(*ast.Property)
	if !ok {
		return "", false
	}
	id, ok := prop.Subject.(*ast.Identifier)
	if !ok || id.Name != node {
		return "", false
	}
	return prop.Key, true
}

func (ce *CostEstimator) graphStats() *catalog.GraphStats {
	stats, err := ce.catalog.GetGraphStats()
	if err != nil || stats == nil {
		return &catalog.GraphStats{
			NodeCount:          ce.params.DefaultNodeCount,
			RelationshipCounts: map[string]int64{},
		}
	}
	return stats
}

func (ce *CostEstimator) nodeCount(stats *catalog.GraphStats) float64 {
	if stats.NodeCount <= 0 {
		return float64(ce.params.DefaultNodeCount)
	}
	return float64(stats.NodeCount)
}

func (ce *CostEstimator) indexSelectivity(property string) float64 {
	index, err := ce.catalog.GetIndex(property)
	if err != nil {
		return ce.params.PredicateSelectivity
	}
	return index.Selectivity
}

// expandDegree estimates the average number of rows each input row fans out
// to through the expand: matching relationships divided by node count, with
// undirected traversal doubled and variable-length chains summed over their
// admissible lengths.
func (ce *CostEstimator) expandDegree(stats *catalog.GraphStats, e *Expand) float64 {
	nodes := ce.nodeCount(stats)

	matching := float64(stats.RelationshipCount(e.Types))
	degree := matching / nodes
	if e.Direction == ast.Both {
		degree *= 2
	}

	if !e.Length.Variable {
		return degree
	}

	min := e.Length.Min
	if min < 1 {
		min = 1
	}
	max := e.Length.Max
	if max < min {
		max = min
	}

	total := 0.0
	for k := min; k <= max; k++ {
		total += math.Pow(degree, float64(k))
	}
	return total
}
