/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/josephgoksu/DocWing/internal/app"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Load chunk files into the vector index",
	Long: `Embed documentation chunks and upsert them into the configured vector store.

Input is JSON Lines, one chunk per line:
  {"id":"c1","pageId":"p1","title":"Deploy Guide","heading":"Steps","content":"...","sourceUrl":"https://..."}

The page cache is rewritten from the indexed chunks afterwards.

Examples:
  docwing index --file chunks.jsonl
  cat chunks.jsonl | docwing index --file -`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringP("file", "f", "", "JSON Lines chunk file, or - for stdin (required)")
	indexCmd.Flags().Int("batch", app.DefaultIndexBatchSize, "chunks per embedding request")
	_ = indexCmd.MarkFlagRequired("file")
}

func runIndex(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	batch, _ := cmd.Flags().GetInt("batch")

	var in io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			PrintError(fmt.Sprintf("Cannot open %s.", path), err)
			return err
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	chunks, err := app.LoadChunks(in)
	if err != nil {
		PrintError("Chunk file is invalid. Run with --verbose for details.", err)
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := cmd.OutOrStdout()
	indexer := &app.IndexApp{
		Embedder:  a.Embedder,
		Index:     a.Index,
		Fs:        afero.NewOsFs(),
		CachePath: a.Config.Cache.Path,
		BatchSize: batch,
	}
	if !isJSON() {
		indexer.Progress = func(done, total int) {
			fmt.Fprintf(out, "\rIndexed %d/%d chunks", done, total)
		}
	}

	result, err := indexer.Run(cmd.Context(), chunks)
	if err != nil {
		fmt.Fprintln(out)
		PrintError("Indexing failed. Run with --verbose for details.", err)
		return err
	}

	if isJSON() {
		return printJSON(out, result)
	}
	fmt.Fprintf(out, "\nDone: %d chunks across %d pages. Page cache: %s\n", result.Chunks, result.Pages, a.Config.Cache.Path)
	return nil
}
