package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goreport/internal/monitor"
)

var lineageExcludeElementary bool

var lineageCmd = &cobra.Command{
	Use:   "lineage",
	Short: "Show the dependency order of models, sources and exposures",
	Long: `Lineage reads models, sources and exposures from the monitoring schema
and prints them in dependency order (upstream first), followed by the
dependency edges. This is the lineage embedded in the report.

Example:
  goreport lineage --config goreport.yaml`,
	RunE: runLineage,
}

func init() {
	lineageCmd.Flags().BoolVar(&lineageExcludeElementary, "exclude-elementary-models", false,
		"Exclude the monitoring package's own models")

	rootCmd.AddCommand(lineageCmd)
}

func runLineage(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	lineage, err := s.store.Lineage(s.ctx, lineageExcludeElementary)
	if err != nil {
		return fmt.Errorf("failed to build lineage: %w", err)
	}

	printLineage(lineage)
	return nil
}

func printLineage(lineage monitor.Lineage) {
	printHeader("Lineage")

	fmt.Fprintln(outputWriter)
	printSection("Nodes (upstream first)")
	for i, node := range lineage.Nodes {
		fmt.Fprintf(outputWriter, "  [%d] %s\n", i+1, node)
	}

	fmt.Fprintln(outputWriter)
	printSection("Dependencies")
	if len(lineage.Edges) == 0 {
		fmt.Fprintln(outputWriter, "  (none)")
	}
	for _, edge := range lineage.Edges {
		fmt.Fprintf(outputWriter, "  %s -> %s\n", edge[0], edge[1])
	}
}
