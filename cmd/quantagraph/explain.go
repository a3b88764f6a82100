package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/dshills/QuantaGraph/internal/catalog"
	"github.com/dshills/QuantaGraph/internal/config"
	"github.com/dshills/QuantaGraph/internal/cypher/ast"
	"github.com/dshills/QuantaGraph/internal/cypher/planner"
	"github.com/dshills/QuantaGraph/internal/cypher/rewrite"
	"github.com/dshills/QuantaGraph/internal/log"
	"github.com/dshills/QuantaGraph/internal/scenario"
	"github.com/dshills/QuantaGraph/internal/util/timeutil"
)

func runExplain(cmd *cobra.Command, args []string) error {
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		color.NoColor = true
	}

	cfg := config.DefaultConfig()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	log.Configure(cfg.Log)

	scn, err := scenario.Load(args[0])
	if err != nil {
		return err
	}

	cat, err := buildCatalog(cmd, cfg, scn)
	if err != nil {
		return err
	}

	if stats, statsErr := cat.GetGraphStats(); statsErr == nil && !timeutil.IsEpoch(stats.CollectedAt) {
		fmt.Printf("%s %d nodes, %d relationships (collected %s)\n",
			color.GreenString("Statistics:"),
			stats.NodeCount, stats.TotalRelationships(),
			timeutil.FormatTimestamp(stats.CollectedAt))
	}

	query := scn.Query()
	fmt.Printf("%s %s\n", color.GreenString("Query:"), query)

	isolator := rewrite.NewAggregationIsolatorWithLimit(cfg.Planner.MaxIsolationIterations)
	normalized, err := isolator.Rewrite(query)
	if err != nil {
		return err
	}
	if normalized.String() != query.String() {
		fmt.Printf("%s %s\n", color.GreenString("Normalized:"), normalized)
	}

	estimator := planner.NewCostEstimatorWithParams(cat, &planner.CostParams{
		DefaultNodeCount:     cfg.Planner.DefaultNodeCount,
		PredicateSelectivity: cfg.Planner.DefaultSelectivity,
	})

	plan, err := planner.NewPatternPlanner(estimator).Plan(
		scn.Pattern, scn.Predicates, projectionItems(normalized))
	if err != nil {
		return err
	}

	fmt.Println()
	printPlan(plan, "")
	fmt.Println()
	fmt.Print(cardinalityTable(plan, estimator))
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	scn, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	cat, err := scn.Catalog()
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if err := catalog.SaveSnapshot(out, cat); err != nil {
		return err
	}
	fmt.Printf("Wrote statistics snapshot to %s\n", out)
	return nil
}

// buildCatalog picks the statistics source: the --stats flag wins, then the
// configured snapshot file, then the scenario's inline statistics.
func buildCatalog(cmd *cobra.Command, cfg *config.Config, scn *scenario.Scenario) (catalog.Catalog, error) {
	if path, _ := cmd.Flags().GetString("stats"); path != "" {
		return catalog.LoadSnapshot(path)
	}
	if cfg.StatsFile != "" {
		return catalog.LoadSnapshot(cfg.StatsFile)
	}
	return scn.Catalog()
}

// projectionItems derives the planner's output items from the normalized
// query's first projection horizon. After isolation that is the
// intermediate WITH, whose items are the pattern-bound pure parts; later
// horizons reference its synthetic bindings, which no pattern binds.
func projectionItems(query *ast.Query) []planner.ProjectionItem {
	for _, clause := range query.Clauses {
		horizon, ok := clause.(ast.HorizonClause)
		if !ok {
			continue
		}
		clauseItems := horizon.ProjectionItems()
		items := make([]planner.ProjectionItem, len(clauseItems))
		for k, item := range clauseItems {
			items[k] = planner.ProjectionItem{Name: item.Name(), Expr: item.Expr}
		}
		return items
	}
	return nil
}

// printPlan renders the operator tree with per-operator coloring.
func printPlan(plan planner.Plan, indent string) {
	fmt.Println(indent + colorizeOperator(plan))
	for _, child := range plan.Children() {
		printPlan(child, indent+"  ")
	}
}

func colorizeOperator(plan planner.Plan) string {
	text := plan.String()
	name, detail := splitOperator(text)

	switch plan.(type) {
	case *planner.AllNodesScan, *planner.NodeIndexSeek:
		return color.CyanString(name) + detail
	case *planner.Expand:
		return color.BlueString(name) + detail
	case *planner.Selection:
		return color.YellowString(name) + detail
	case *planner.CartesianProduct:
		return color.MagentaString(name) + detail
	case *planner.Projection:
		return color.GreenString(name) + detail
	default:
		return text
	}
}

func splitOperator(text string) (string, string) {
	if i := strings.IndexByte(text, '('); i >= 0 {
		return text[:i], text[i:]
	}
	return text, ""
}

// cardinalityTable formats a per-operator cardinality estimate table.
func cardinalityTable(plan planner.LogicalPlan, oracle planner.CostOracle) string {
	tableString := &strings.Builder{}

	alignment := []tw.Align{tw.AlignNone, tw.AlignNone}
	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"Operator", "Estimated Rows"})

	appendCardinalityRows(table, plan, oracle, "")
	table.Render()
	return tableString.String()
}

func appendCardinalityRows(table *tablewriter.Table, plan planner.Plan, oracle planner.CostOracle, indent string) {
	logical, ok := plan.(planner.LogicalPlan)
	if !ok {
		return
	}
	table.Append([]string{
		indent + plan.String(),
		fmt.Sprintf("%.1f", oracle.EstimateCardinality(logical)),
	})
	for _, child := range plan.Children() {
		appendCardinalityRows(table, child, oracle, indent+"  ")
	}
}
