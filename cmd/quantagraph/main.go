// Package main provides the QuantaGraph CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "quantagraph",
		Short: "QuantaGraph - Cypher pattern compiler toolkit",
		Long: `QuantaGraph is the semantic-normalization and logical-planning core of a
Cypher-style graph query compiler.

The explain command compiles a declarative scenario (graph statistics, a
MATCH pattern, residual predicates, projected items) and prints the
aggregation-normalized query plus the cost-based logical plan.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("QuantaGraph v%s (%s)\n", version, commit)
		},
	})

	explainCmd := &cobra.Command{
		Use:   "explain [scenario.yaml]",
		Short: "Compile a scenario and print its logical plan",
		Args:  cobra.ExactArgs(1),
		RunE:  runExplain,
	}
	explainCmd.Flags().String("config", "", "Configuration file")
	explainCmd.Flags().String("stats", "", "Statistics snapshot overriding the scenario's inline statistics")
	explainCmd.Flags().Bool("no-color", false, "Disable colored output")
	rootCmd.AddCommand(explainCmd)

	statsCmd := &cobra.Command{
		Use:   "stats [scenario.yaml]",
		Short: "Extract a scenario's statistics into a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE:  runStats,
	}
	statsCmd.Flags().String("out", "stats.yaml", "Snapshot output path")
	rootCmd.AddCommand(statsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
