/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/DocWing/internal/knowledge"
	"github.com/josephgoksu/DocWing/internal/telemetry"
	"github.com/josephgoksu/DocWing/internal/ui"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Show pages related to a page",
	Long: `Build the page similarity graph.

Without --seed, a sample of cached pages is listed with no edges. With
--seed, the seed page's title and headings are searched to find related
pages, and each of those is probed again for second-hop links.

Values above the configured graph.limits are capped.

Examples:
  docwing graph
  docwing graph --seed 12345 --max-nodes 20
  docwing graph --seed 12345 --threshold 0.4 --json`,
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("seed", "", "page id to expand around")
	graphCmd.Flags().Int("max-seeds", 0, "synthetic queries derived from the seed page")
	graphCmd.Flags().Int("top-k", 0, "search results per probe")
	graphCmd.Flags().Float64("threshold", 0, "minimum similarity for an edge (0-1)")
	graphCmd.Flags().Int("max-nodes", 0, "maximum pages in the graph")
}

func runGraph(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	seed, _ := cmd.Flags().GetString("seed")
	maxSeeds, _ := cmd.Flags().GetInt("max-seeds")
	topK, _ := cmd.Flags().GetInt("top-k")
	maxNodes, _ := cmd.Flags().GetInt("max-nodes")
	var threshold *float64
	if cmd.Flags().Changed("threshold") {
		t, _ := cmd.Flags().GetFloat64("threshold")
		threshold = &t
	}

	start := time.Now()
	opts := a.Config.Graph.Options(seed, maxSeeds, topK, maxNodes, threshold)
	g, err := a.Graphs.Build(cmd.Context(), opts)
	if err != nil {
		if errors.Is(err, knowledge.ErrPageNotFound) {
			PrintError("Page "+seed+" is not in the page cache. Run 'docwing pages' to list known pages.", err)
		} else {
			PrintError("Could not build the graph. Run with --verbose for details.", err)
		}
		return err
	}
	telemetry.GraphBuilt(a.Telemetry, "cli", seed != "", g, time.Since(start))

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), g)
	}
	ui.NewRenderer(cmd.OutOrStdout()).Graph(g)
	return nil
}
