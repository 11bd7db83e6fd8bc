package cmd

import (
	"github.com/spf13/cobra"

	"github.com/josephgoksu/DocWing/internal/config"
	"github.com/josephgoksu/DocWing/internal/mcp"
	"github.com/josephgoksu/DocWing/internal/pagecache"
	"github.com/josephgoksu/DocWing/internal/ui"
)

var pagesCmd = &cobra.Command{
	Use:   "pages [filter]",
	Short: "List cached pages",
	Long: `List the pages in the page cache, optionally filtered by title or space key.

The page ids shown here are valid --seed values for 'docwing graph'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPages,
}

func init() {
	rootCmd.AddCommand(pagesCmd)
}

// runPages reads the cache directly; it needs no model or index.
func runPages(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	catalog := pagecache.NewOs(cfg.Cache.Path)

	var filter string
	if len(args) == 1 {
		filter = args[0]
	}
	pages := mcp.FilterPages(catalog.Pages(), filter)

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), pages)
	}
	ui.NewRenderer(cmd.OutOrStdout()).Pages(pages)
	return nil
}
