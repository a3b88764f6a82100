package planner

import (
	"testing"

	"github.com/dshills/QuantaGraph/internal/cypher/ast"
	"github.com/dshills/QuantaGraph/internal/errors"
	"github.com/dshills/QuantaGraph/internal/feature"
	"github.com/dshills/QuantaGraph/internal/testutil"
)

// stubOracle is a deterministic CostOracle for tests: scan cardinality per
// node name, seek cardinality per indexed property, and index opportunities
// for the configured node properties.
type stubOracle struct {
	scanCards map[string]float64 // AllNodesScan cardinality by node
	seekCards map[string]float64 // NodeIndexSeek cardinality by property
	indexed   map[string]bool    // property -> has index
}

func uniformOracle() *stubOracle {
	return &stubOracle{}
}

func (o *stubOracle) EstimateCardinality(plan LogicalPlan) float64 {
	switch p := plan.(type) {
	case *AllNodesScan:
		if card, ok := o.scanCards[p.Node]; ok {
			return card
		}
		return 100
	case *NodeIndexSeek:
		if card, ok := o.seekCards[p.Property]; ok {
			return card
		}
		return 1
	case *Expand:
		return o.EstimateCardinality(p.Children()[0].(LogicalPlan)) * 2
	case *Selection:
		return o.EstimateCardinality(p.Children()[0].(LogicalPlan)) * 0.5
	case *CartesianProduct:
		return o.EstimateCardinality(p.Children()[0].(LogicalPlan)) *
			o.EstimateCardinality(p.Children()[1].(LogicalPlan))
	case *Projection:
		return o.EstimateCardinality(p.Children()[0].(LogicalPlan))
	default:
		return 100
	}
}

func (o *stubOracle) ResolveIndexOpportunity(node string, predicates []ast.Expression) (*IndexOpportunity, bool) {
	for _, pred := range predicates {
		cmp, ok := pred.(*ast.Comparison)
		if !ok || cmp.Op != ast.OpEquals {
			continue
		}
		property, ok := indexableProperty(node, cmp)
		if !ok || !o.indexed[property] {
			continue
		}
		return &IndexOpportunity{
			Predicate: pred,
			Plan:      NewNodeIndexSeek(node, property, pred),
		}, true
	}
	return nil, false
}

func rel(start, end, variable string, direction ast.Direction, types ...string) ast.PatternRelationship {
	return ast.PatternRelationship{
		StartNode: start,
		EndNode:   end,
		Variable:  variable,
		Direction: direction,
		Types:     types,
	}
}

func ident(name string) *ast.Identifier {
	return ast.NewIdentifier(name, 0)
}

func propEquals(node, key string, value interface{}) *ast.Comparison {
	return ast.NewEquals(
		&ast.Property{Subject: ident(node), Key: key},
		&ast.Literal{Value: value},
		0,
	)
}

func item(name string) ProjectionItem {
	return ProjectionItem{Name: name, Expr: ident(name)}
}

func planOrFail(t *testing.T, oracle CostOracle, rels []ast.PatternRelationship, predicates []ast.Expression, items []ProjectionItem) LogicalPlan {
	t.Helper()
	plan, err := NewPatternPlanner(oracle).Plan(rels, predicates, items)
	testutil.AssertNoError(t, err)
	return plan
}

func TestPlanSingleRelationship(t *testing.T) {
	plan := planOrFail(t, uniformOracle(),
		[]ast.PatternRelationship{rel("a", "b", "r", ast.Outgoing)},
		nil,
		[]ProjectionItem{item("r")},
	)

	expected := "Projection(r AS r)\n" +
		"  Expand((a)-[r]->(b))\n" +
		"    AllNodesScan(a)\n"
	testutil.AssertEqual(t, expected, ExplainPlan(plan))
}

func TestPlanAnchorsCheaperSide(t *testing.T) {
	oracle := uniformOracle()
	oracle.scanCards = map[string]float64{"a": 1000, "b": 10}

	plan := planOrFail(t, oracle,
		[]ast.PatternRelationship{rel("a", "b", "r", ast.Outgoing)},
		nil,
		[]ProjectionItem{item("r")},
	)

	// Anchoring on b traverses the relationship in reverse.
	expected := "Projection(r AS r)\n" +
		"  Expand((b)<-[r]-(a))\n" +
		"    AllNodesScan(b)\n"
	testutil.AssertEqual(t, expected, ExplainPlan(plan))
}

func TestPlanTieAnchorsEarlierEndpoint(t *testing.T) {
	oracle := uniformOracle()
	oracle.scanCards = map[string]float64{"a": 50, "b": 50}

	plan := planOrFail(t, oracle,
		[]ast.PatternRelationship{rel("a", "b", "r", ast.Incoming)},
		nil,
		[]ProjectionItem{item("r")},
	)

	expected := "Projection(r AS r)\n" +
		"  Expand((a)<-[r]-(b))\n" +
		"    AllNodesScan(a)\n"
	testutil.AssertEqual(t, expected, ExplainPlan(plan))
}

func TestPlanSelfLoopDisambiguation(t *testing.T) {
	plan := planOrFail(t, uniformOracle(),
		[]ast.PatternRelationship{rel("a", "a", "r", ast.Outgoing, "KNOWS")},
		nil,
		[]ProjectionItem{item("r")},
	)

	projection, ok := plan.(*Projection)
	if !ok {
		t.Fatalf("expected *Projection root, got %T", plan)
	}

	selection, ok := projection.Children()[0].(*Selection)
	if !ok {
		t.Fatalf("expected hidden *Selection under projection, got %T", projection.Children()[0])
	}
	if !selection.Hidden {
		t.Error("disambiguation selection must be hidden from output")
	}
	if len(selection.Predicates) != 1 || selection.Predicates[0].String() != "a = a$1" {
		t.Errorf("expected [a = a$1], got %v", selection.Predicates)
	}

	expand, ok := selection.Children()[0].(*Expand)
	if !ok {
		t.Fatalf("expected *Expand under selection, got %T", selection.Children()[0])
	}
	if expand.From != "a" || expand.To != "a$1" {
		t.Errorf("expected expand a -> a$1, got %s -> %s", expand.From, expand.To)
	}

	if _, ok := expand.Children()[0].(*AllNodesScan); !ok {
		t.Fatalf("expected *AllNodesScan leaf, got %T", expand.Children()[0])
	}
}

func TestPlanCycleClosing(t *testing.T) {
	plan := planOrFail(t, uniformOracle(),
		[]ast.PatternRelationship{
			rel("a", "b", "r1", ast.Outgoing, "KNOWS"),
			rel("b", "a", "r2", ast.Outgoing, "KNOWS"),
		},
		nil,
		[]ProjectionItem{item("r1"), item("r2")},
	)

	expected := "Projection(r1 AS r1, r2 AS r2)\n" +
		"  Selection(r1 <> r2)\n" +
		"    Selection(hidden, a = a$1)\n" +
		"      Expand((b)-[r2:KNOWS]->(a$1))\n" +
		"        Expand((a)-[r1:KNOWS]->(b))\n" +
		"          AllNodesScan(a)\n"
	testutil.AssertEqual(t, expected, ExplainPlan(plan))
}

func TestPlanDisjointComponents(t *testing.T) {
	// Non-overlapping relationship types cannot bind the same
	// relationship, so the product carries no uniqueness check.
	plan := planOrFail(t, uniformOracle(),
		[]ast.PatternRelationship{
			rel("a", "b", "r1", ast.Outgoing, "KNOWS"),
			rel("c", "d", "r2", ast.Outgoing, "LIKES"),
		},
		nil,
		[]ProjectionItem{item("r1"), item("r2")},
	)

	expected := "Projection(r1 AS r1, r2 AS r2)\n" +
		"  CartesianProduct\n" +
		"    Expand((a)-[r1:KNOWS]->(b))\n" +
		"      AllNodesScan(a)\n" +
		"    Expand((c)-[r2:LIKES]->(d))\n" +
		"      AllNodesScan(c)\n"
	testutil.AssertEqual(t, expected, ExplainPlan(plan))
}

func TestPlanDisjointComponentsRelationshipUniqueness(t *testing.T) {
	// Untyped relationships can bind the same underlying relationship, so
	// the product is wrapped in an inequality selection.
	plan := planOrFail(t, uniformOracle(),
		[]ast.PatternRelationship{
			rel("a", "b", "r1", ast.Outgoing),
			rel("c", "d", "r2", ast.Outgoing),
		},
		nil,
		[]ProjectionItem{item("r1"), item("r2")},
	)

	expected := "Projection(r1 AS r1, r2 AS r2)\n" +
		"  Selection(r1 <> r2)\n" +
		"    CartesianProduct\n" +
		"      Expand((a)-[r1]->(b))\n" +
		"        AllNodesScan(a)\n" +
		"      Expand((c)-[r2]->(d))\n" +
		"        AllNodesScan(c)\n"
	testutil.AssertEqual(t, expected, ExplainPlan(plan))
}

func TestPlanIndexSeekAnchor(t *testing.T) {
	oracle := uniformOracle()
	oracle.indexed = map[string]bool{"name": true}
	oracle.seekCards = map[string]float64{"name": 1}

	predicate := propEquals("b", "name", "bob")
	plan := planOrFail(t, oracle,
		[]ast.PatternRelationship{rel("a", "b", "r", ast.Outgoing, "KNOWS")},
		[]ast.Expression{predicate},
		[]ProjectionItem{item("a")},
	)

	expected := "Projection(a AS a)\n" +
		"  Expand((b)<-[r:KNOWS]-(a))\n" +
		"    Selection(b.name = 'bob')\n" +
		"      NodeIndexSeek(b.name)\n"
	testutil.AssertEqual(t, expected, ExplainPlan(plan))
}

func TestPlanResidualPredicateAttachment(t *testing.T) {
	// Without an index, the predicate is attached above the scan that
	// first binds its variable.
	predicate := propEquals("a", "age", int64(30))
	plan := planOrFail(t, uniformOracle(),
		[]ast.PatternRelationship{rel("a", "b", "r", ast.Outgoing, "KNOWS")},
		[]ast.Expression{predicate},
		[]ProjectionItem{item("b")},
	)

	expected := "Projection(b AS b)\n" +
		"  Expand((a)-[r:KNOWS]->(b))\n" +
		"    Selection(a.age = 30)\n" +
		"      AllNodesScan(a)\n"
	testutil.AssertEqual(t, expected, ExplainPlan(plan))
}

func TestPlanCrossComponentPredicate(t *testing.T) {
	predicate := ast.NewEquals(
		&ast.Property{Subject: ident("a"), Key: "city"},
		&ast.Property{Subject: ident("c"), Key: "city"},
		0,
	)
	plan := planOrFail(t, uniformOracle(),
		[]ast.PatternRelationship{
			rel("a", "b", "r1", ast.Outgoing, "KNOWS"),
			rel("c", "d", "r2", ast.Outgoing, "LIKES"),
		},
		[]ast.Expression{predicate},
		[]ProjectionItem{item("b"), item("d")},
	)

	expected := "Projection(b AS b, d AS d)\n" +
		"  Selection(a.city = c.city)\n" +
		"    CartesianProduct\n" +
		"      Expand((a)-[r1:KNOWS]->(b))\n" +
		"        AllNodesScan(a)\n" +
		"      Expand((c)-[r2:LIKES]->(d))\n" +
		"        AllNodesScan(c)\n"
	testutil.AssertEqual(t, expected, ExplainPlan(plan))
}

func TestPlanUnresolvedPredicateReference(t *testing.T) {
	predicate := propEquals("z", "age", int64(30))
	_, err := NewPatternPlanner(uniformOracle()).Plan(
		[]ast.PatternRelationship{rel("a", "b", "r", ast.Outgoing)},
		[]ast.Expression{predicate},
		[]ProjectionItem{item("a")},
	)
	testutil.AssertErrorCode(t, err, errors.UnresolvedReference)
}

func TestPlanUnresolvedProjectionReference(t *testing.T) {
	_, err := NewPatternPlanner(uniformOracle()).Plan(
		[]ast.PatternRelationship{rel("a", "b", "r", ast.Outgoing)},
		nil,
		[]ProjectionItem{item("missing")},
	)
	testutil.AssertErrorCode(t, err, errors.UnresolvedReference)
}

func TestPlanUnplannablePatterns(t *testing.T) {
	tests := []struct {
		name string
		rels []ast.PatternRelationship
	}{
		{"empty pattern", nil},
		{"unnamed endpoint", []ast.PatternRelationship{rel("a", "", "r", ast.Outgoing)}},
		{"unnamed relationship", []ast.PatternRelationship{rel("a", "b", "", ast.Outgoing)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPatternPlanner(uniformOracle()).Plan(tt.rels, nil, nil)
			testutil.AssertErrorCode(t, err, errors.UnplannablePattern)
		})
	}
}

func TestPlanDeterminism(t *testing.T) {
	build := func() LogicalPlan {
		return planOrFail(t, uniformOracle(),
			[]ast.PatternRelationship{
				rel("a", "b", "r1", ast.Outgoing),
				rel("b", "c", "r2", ast.Outgoing),
			},
			[]ast.Expression{propEquals("c", "age", int64(7))},
			[]ProjectionItem{item("a"), item("c")},
		)
	}

	first := ExplainPlan(build())
	second := ExplainPlan(build())
	testutil.AssertEqual(t, first, second)
}

func TestPlanFeatureFlags(t *testing.T) {
	oracle := uniformOracle()
	oracle.scanCards = map[string]float64{"a": 1000, "b": 10}
	oracle.indexed = map[string]bool{"name": true}

	rels := []ast.PatternRelationship{rel("a", "b", "r", ast.Outgoing)}

	t.Run("cost based anchoring disabled", func(t *testing.T) {
		feature.Disable(feature.CostBasedAnchoring)
		defer feature.Reset()

		plan := planOrFail(t, oracle, rels, nil, []ProjectionItem{item("r")})
		expected := "Projection(r AS r)\n" +
			"  Expand((a)-[r]->(b))\n" +
			"    AllNodesScan(a)\n"
		testutil.AssertEqual(t, expected, ExplainPlan(plan))
	})

	t.Run("index seek selection disabled", func(t *testing.T) {
		feature.Disable(feature.IndexSeekSelection)
		defer feature.Reset()

		predicate := propEquals("b", "name", "bob")
		plan := planOrFail(t, oracle, rels, []ast.Expression{predicate}, []ProjectionItem{item("a")})
		expected := "Projection(a AS a)\n" +
			"  Expand((b)<-[r]-(a))\n" +
			"    Selection(b.name = 'bob')\n" +
			"      AllNodesScan(b)\n"
		testutil.AssertEqual(t, expected, ExplainPlan(plan))
	})
}

func TestPlanVariableBinding(t *testing.T) {
	plan := planOrFail(t, uniformOracle(),
		[]ast.PatternRelationship{
			rel("a", "b", "r1", ast.Outgoing, "KNOWS"),
			rel("b", "c", "r2", ast.Outgoing, "LIKES"),
		},
		nil,
		[]ProjectionItem{item("a"), item("c")},
	)

	vars := plan.Variables()
	for _, name := range []string{"a", "b", "c", "r1", "r2"} {
		if !vars.Has(name) {
			t.Errorf("expected plan to bind %q, bound: %v", name, vars.Sorted())
		}
	}
}
