// Package scenario loads declarative planner scenarios from YAML. A
// scenario stands in for the parsing front end: it describes graph
// statistics, a MATCH pattern with residual predicates, and the projected
// items, already in resolved form.
package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/QuantaGraph/internal/catalog"
	"github.com/dshills/QuantaGraph/internal/cypher/ast"
	"github.com/dshills/QuantaGraph/internal/errors"
)

// Scenario is one decoded planner scenario.
type Scenario struct {
	Pattern    []ast.PatternRelationship
	Predicates []ast.Expression
	Items      []ast.ReturnItem
	Distinct   bool

	stats *statsSpec
}

type scenarioFile struct {
	Statistics *statsSpec `yaml:"statistics"`
	Match      matchSpec  `yaml:"match"`
	Return     returnSpec `yaml:"return"`
}

type statsSpec struct {
	NodeCount     int64            `yaml:"node_count"`
	Relationships map[string]int64 `yaml:"relationships"`
	Indexes       []indexSpec      `yaml:"indexes"`
}

type indexSpec struct {
	Name        string  `yaml:"name"`
	Property    string  `yaml:"property"`
	Selectivity float64 `yaml:"selectivity"`
}

type matchSpec struct {
	Pattern []relSpec  `yaml:"pattern"`
	Where   []exprSpec `yaml:"where"`
}

type relSpec struct {
	Start     string   `yaml:"start"`
	End       string   `yaml:"end"`
	Rel       string   `yaml:"rel"`
	Direction string   `yaml:"direction"`
	Types     []string `yaml:"types"`
	MinHops   *int     `yaml:"min_hops"`
	MaxHops   *int     `yaml:"max_hops"`
}

type returnSpec struct {
	Distinct bool       `yaml:"distinct"`
	Items    []itemSpec `yaml:"items"`
}

type itemSpec struct {
	Name string   `yaml:"name"`
	Expr exprSpec `yaml:"expr"`
}

// exprSpec is the declarative expression grammar: exactly one variant field
// must be set per node.
type exprSpec struct {
	Variable  string       `yaml:"variable,omitempty"`
	Literal   *literalSpec `yaml:"literal,omitempty"`
	Property  *propSpec    `yaml:"property,omitempty"`
	CountStar bool         `yaml:"count_star,omitempty"`
	Call      *callSpec    `yaml:"call,omitempty"`
	Compare   *compareSpec `yaml:"compare,omitempty"`
}

// literalSpec captures an arbitrary scalar without losing a null value's
// presence.
type literalSpec struct {
	value interface{}
}

func (l *literalSpec) UnmarshalYAML(node *yaml.Node) error {
	return node.Decode(&l.value)
}

type propSpec struct {
	Of  string `yaml:"of"`
	Key string `yaml:"key"`
}

type callSpec struct {
	Name      string     `yaml:"name"`
	Aggregate bool       `yaml:"aggregate"`
	Args      []exprSpec `yaml:"args"`
}

type compareSpec struct {
	Op    string   `yaml:"op"`
	Left  exprSpec `yaml:"left"`
	Right exprSpec `yaml:"right"`
}

// Load reads and decodes a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario from YAML bytes.
func Parse(data []byte) (*Scenario, error) {
	var file scenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.New(errors.SyntaxError, "malformed scenario YAML").WithDetail(err.Error())
	}

	dec := &decoder{}
	scenario := &Scenario{
		stats:    file.Statistics,
		Distinct: file.Return.Distinct,
	}

	if len(file.Match.Pattern) == 0 {
		return nil, errors.InvalidScenarioError("scenario declares no pattern")
	}
	for _, spec := range file.Match.Pattern {
		rel, err := dec.relationship(spec)
		if err != nil {
			return nil, err
		}
		scenario.Pattern = append(scenario.Pattern, rel)
	}

	for _, spec := range file.Match.Where {
		pred, err := dec.expression(spec)
		if err != nil {
			return nil, err
		}
		scenario.Predicates = append(scenario.Predicates, pred)
	}

	if len(file.Return.Items) == 0 {
		return nil, errors.InvalidScenarioError("scenario declares no return items")
	}
	for _, spec := range file.Return.Items {
		expr, err := dec.expression(spec.Expr)
		if err != nil {
			return nil, err
		}
		if spec.Name != "" {
			scenario.Items = append(scenario.Items, ast.Aliased(expr, spec.Name))
		} else {
			scenario.Items = append(scenario.Items, ast.Unaliased(expr))
		}
	}

	return scenario, nil
}

// Catalog builds a catalog seeded from the scenario's inline statistics. A
// scenario without statistics yields an empty catalog, leaving the cost
// estimator on its fallback defaults.
func (s *Scenario) Catalog() (*catalog.MemoryCatalog, error) {
	cat := catalog.NewMemoryCatalog()
	if s.stats == nil {
		return cat, nil
	}

	stats := &catalog.GraphStats{
		NodeCount:          s.stats.NodeCount,
		RelationshipCounts: s.stats.Relationships,
	}
	if stats.RelationshipCounts == nil {
		stats.RelationshipCounts = make(map[string]int64)
	}
	if err := cat.SetGraphStats(stats); err != nil {
		return nil, err
	}

	for _, def := range s.stats.Indexes {
		if _, err := cat.CreateIndex(&catalog.IndexSchema{
			Name:        def.Name,
			Property:    def.Property,
			Selectivity: def.Selectivity,
		}); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// Query assembles the scenario as a clause sequence: MATCH with the WHERE
// conjunction, then RETURN.
func (s *Scenario) Query() *ast.Query {
	match := &ast.MatchClause{Pattern: s.Pattern, Where: conjunction(s.Predicates)}
	ret := &ast.ReturnClause{Distinct: s.Distinct, Items: s.Items}
	return &ast.Query{Clauses: []ast.Clause{match, ret}}
}

// conjunction joins predicates under an opaque AND node. The planner still
// receives the predicates individually; the joined form only renders the
// query text.
func conjunction(predicates []ast.Expression) ast.Expression {
	switch len(predicates) {
	case 0:
		return nil
	case 1:
		return predicates[0]
	default:
		holes := make([]string, len(predicates))
		for i := range holes {
			holes[i] = "%s"
		}
		return &ast.Opaque{Text: strings.Join(holes, " AND "), Sub: predicates}
	}
}

// decoder assigns sequential source positions while decoding, keeping
// synthetic binding names deterministic per scenario.
type decoder struct {
	nextPos ast.Pos
}

func (d *decoder) pos() ast.Pos {
	d.nextPos++
	return d.nextPos
}

func (d *decoder) relationship(spec relSpec) (ast.PatternRelationship, error) {
	var zero ast.PatternRelationship
	if spec.Start == "" || spec.End == "" || spec.Rel == "" {
		return zero, errors.InvalidScenarioError("pattern relationship needs start, end, and rel names").
			WithDetailf("got start=%q end=%q rel=%q", spec.Start, spec.End, spec.Rel)
	}

	direction := ast.Outgoing
	switch spec.Direction {
	case "", "out":
	case "in":
		direction = ast.Incoming
	case "both":
		direction = ast.Both
	default:
		return zero, errors.InvalidScenarioError("unknown direction %q", spec.Direction).
			WithHint("use out, in, or both")
	}

	length := ast.SimpleLength()
	if spec.MinHops != nil || spec.MaxHops != nil {
		min, max := 1, 1
		if spec.MinHops != nil {
			min = *spec.MinHops
		}
		if spec.MaxHops != nil {
			max = *spec.MaxHops
		}
		if max < min {
			return zero, errors.InvalidScenarioError("relationship length %d..%d is inverted", min, max)
		}
		length = ast.VarLength(min, max)
	}

	return ast.PatternRelationship{
		StartNode: spec.Start,
		EndNode:   spec.End,
		Variable:  spec.Rel,
		Direction: direction,
		Types:     spec.Types,
		Length:    length,
	}, nil
}

func (d *decoder) expression(spec exprSpec) (ast.Expression, error) {
	if err := oneVariant(spec); err != nil {
		return nil, err
	}

	switch {
	case spec.Variable != "":
		return ast.NewIdentifier(spec.Variable, d.pos()), nil

	case spec.Literal != nil:
		return &ast.Literal{Value: spec.Literal.value, Position: d.pos()}, nil

	case spec.Property != nil:
		if spec.Property.Of == "" || spec.Property.Key == "" {
			return nil, errors.InvalidScenarioError("property access needs of and key")
		}
		pos := d.pos()
		return &ast.Property{
			Subject:  ast.NewIdentifier(spec.Property.Of, d.pos()),
			Key:      spec.Property.Key,
			Position: pos,
		}, nil

	case spec.CountStar:
		return &ast.CountStar{Position: d.pos()}, nil

	case spec.Call != nil:
		if spec.Call.Name == "" {
			return nil, errors.InvalidScenarioError("call needs a function name")
		}
		pos := d.pos()
		args := make([]ast.Expression, len(spec.Call.Args))
		for i, argSpec := range spec.Call.Args {
			arg, err := d.expression(argSpec)
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		return &ast.FunctionInvocation{
			Name:        spec.Call.Name,
			Args:        args,
			Aggregating: spec.Call.Aggregate,
			Position:    pos,
		}, nil

	case spec.Compare != nil:
		pos := d.pos()
		left, err := d.expression(spec.Compare.Left)
		if err != nil {
			return nil, err
		}
		right, err := d.expression(spec.Compare.Right)
		if err != nil {
			return nil, err
		}
		switch spec.Compare.Op {
		case "=", "":
			return ast.NewEquals(left, right, pos), nil
		case "<>":
			return ast.NewNotEquals(left, right, pos), nil
		default:
			return nil, errors.InvalidScenarioError("unknown comparison operator %q", spec.Compare.Op).
				WithHint("use = or <>")
		}

	default:
		return nil, errors.InvalidScenarioError("empty expression").
			WithHint("set one of variable, literal, property, count_star, call, compare")
	}
}

// oneVariant rejects expression nodes that set more than one variant field.
func oneVariant(spec exprSpec) error {
	set := 0
	for _, present := range []bool{
		spec.Variable != "",
		spec.Literal != nil,
		spec.Property != nil,
		spec.CountStar,
		spec.Call != nil,
		spec.Compare != nil,
	} {
		if present {
			set++
		}
	}
	if set > 1 {
		return errors.InvalidScenarioError("expression sets %d variants, want exactly one", set)
	}
	return nil
}
