package planner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/QuantaGraph/internal/catalog"
	"github.com/dshills/QuantaGraph/internal/cypher/ast"
)

func testCatalog(t *testing.T) *catalog.MemoryCatalog {
	t.Helper()
	cat := catalog.NewMemoryCatalog()
	require.NoError(t, cat.SetGraphStats(&catalog.GraphStats{
		NodeCount: 10000,
		RelationshipCounts: map[string]int64{
			"KNOWS": 50000,
			"LIKES": 20000,
		},
	}))
	_, err := cat.CreateIndex(&catalog.IndexSchema{Property: "name", Selectivity: 0.001})
	require.NoError(t, err)
	return cat
}

func TestEstimateScanCardinality(t *testing.T) {
	ce := NewCostEstimator(testCatalog(t))

	require.Equal(t, 10000.0, ce.EstimateCardinality(NewAllNodesScan("n")))
	require.InDelta(t, 10.0, ce.EstimateCardinality(NewNodeIndexSeek("n", "name", nil)), 1e-9)
}

func TestEstimateExpandCardinality(t *testing.T) {
	ce := NewCostEstimator(testCatalog(t))
	scan := NewAllNodesScan("a")

	tests := []struct {
		name      string
		direction ast.Direction
		types     []string
		length    ast.Length
		expected  float64
	}{
		{"typed outgoing", ast.Outgoing, []string{"KNOWS"}, ast.Length{}, 10000 * 5.0},
		{"typed union", ast.Outgoing, []string{"KNOWS", "LIKES"}, ast.Length{}, 10000 * 7.0},
		{"untyped outgoing", ast.Outgoing, nil, ast.Length{}, 10000 * 7.0},
		{"undirected doubles degree", ast.Both, []string{"KNOWS"}, ast.Length{}, 10000 * 10.0},
		{"variable length sums hops", ast.Outgoing, []string{"KNOWS"}, ast.Length{Variable: true, Min: 1, Max: 3}, 10000 * (5 + 25 + 125.0)},
		{"variable length min floor", ast.Outgoing, []string{"KNOWS"}, ast.Length{Variable: true, Min: 0, Max: 2}, 10000 * (5 + 25.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expand := NewExpand(scan, "a", tt.direction, tt.types, "b", "r", tt.length)
			require.InDelta(t, tt.expected, ce.EstimateCardinality(expand), 1e-6)
		})
	}
}

func TestEstimateComposedCardinality(t *testing.T) {
	ce := NewCostEstimator(testCatalog(t))
	left := NewAllNodesScan("a")
	right := NewAllNodesScan("b")

	selection := NewSelection([]ast.Expression{
		propEquals("a", "age", int64(30)),
		propEquals("a", "city", "oslo"),
	}, left, false)
	require.InDelta(t, 10000*0.01, ce.EstimateCardinality(selection), 1e-6)

	product := NewCartesianProduct(left, right)
	require.Equal(t, 10000.0*10000.0, ce.EstimateCardinality(product))

	projection := NewProjection(left, []ProjectionItem{item("a")})
	require.Equal(t, 10000.0, ce.EstimateCardinality(projection))
}

func TestEstimateFallbackDefaults(t *testing.T) {
	ce := NewCostEstimator(catalog.NewMemoryCatalog())

	require.Equal(t, 1000.0, ce.EstimateCardinality(NewAllNodesScan("n")))
	require.InDelta(t, 1000*0.1, ce.EstimateCardinality(NewNodeIndexSeek("n", "name", nil)), 1e-9)

	params := &CostParams{DefaultNodeCount: 42, PredicateSelectivity: 0.5}
	custom := NewCostEstimatorWithParams(catalog.NewMemoryCatalog(), params)
	require.Equal(t, 42.0, custom.EstimateCardinality(NewAllNodesScan("n")))
}

func TestResolveIndexOpportunity(t *testing.T) {
	cat := testCatalog(t)
	ce := NewCostEstimator(cat)

	t.Run("property equals literal", func(t *testing.T) {
		pred := propEquals("n", "name", "bob")
		opp, ok := ce.ResolveIndexOpportunity("n", []ast.Expression{pred})
		require.True(t, ok)
		require.Same(t, pred, opp.Predicate.(*ast.Comparison))
		seek, isSeek := opp.Plan.(*NodeIndexSeek)
		require.True(t, isSeek)
		require.Equal(t, "n", seek.Node)
		require.Equal(t, "name", seek.Property)
	})

	t.Run("literal on the left", func(t *testing.T) {
		pred := ast.NewEquals(
			&ast.Literal{Value: "bob"},
			&ast.Property{Subject: ast.NewIdentifier("n", 0), Key: "name"},
			0,
		)
		_, ok := ce.ResolveIndexOpportunity("n", []ast.Expression{pred})
		require.True(t, ok)
	})

	t.Run("first matching predicate wins", func(t *testing.T) {
		_, err := cat.CreateIndex(&catalog.IndexSchema{Property: "email", Selectivity: 0.001})
		require.NoError(t, err)
		first := propEquals("n", "name", "bob")
		second := propEquals("n", "email", "b@x")
		opp, ok := ce.ResolveIndexOpportunity("n", []ast.Expression{first, second})
		require.True(t, ok)
		require.Equal(t, "name", opp.Plan.(*NodeIndexSeek).Property)
	})

	t.Run("no opportunity", func(t *testing.T) {
		tests := []struct {
			name string
			pred ast.Expression
		}{
			{"other node", propEquals("m", "name", "bob")},
			{"no index on property", propEquals("n", "age", int64(3))},
			{"inequality", ast.NewNotEquals(
				&ast.Property{Subject: ast.NewIdentifier("n", 0), Key: "name"},
				&ast.Literal{Value: "bob"}, 0)},
			{"property vs property", ast.NewEquals(
				&ast.Property{Subject: ast.NewIdentifier("n", 0), Key: "name"},
				&ast.Property{Subject: ast.NewIdentifier("n", 0), Key: "alias"}, 0)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, ok := ce.ResolveIndexOpportunity("n", []ast.Expression{tt.pred})
				require.False(t, ok)
			})
		}
	})
}

func TestEstimateDeterminism(t *testing.T) {
	ce := NewCostEstimator(testCatalog(t))
	expand := NewExpand(NewAllNodesScan("a"), "a", ast.Outgoing, []string{"KNOWS"}, "b", "r", ast.Length{})
	plan := NewSelection([]ast.Expression{propEquals("b", "age", int64(1))}, expand, false)

	first := ce.EstimateCardinality(plan)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, ce.EstimateCardinality(plan))
	}
}
