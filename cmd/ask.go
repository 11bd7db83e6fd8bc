/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/DocWing/internal/knowledge"
	"github.com/josephgoksu/DocWing/internal/llm"
	"github.com/josephgoksu/DocWing/internal/logger"
	"github.com/josephgoksu/DocWing/internal/telemetry"
	"github.com/josephgoksu/DocWing/internal/ui"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the documentation",
	Long: `Answer a question from the indexed documentation.

The answer streams to stdout as it is generated, followed by the numbered
references it cites. With --json the full response is printed once complete.

Examples:
  docwing ask "how do we roll back a release?"
  docwing ask "what is the on-call rotation?" --provider anthropic
  docwing ask "where are the deploy keys?" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().String("provider", "", "LLM provider for this question (openai, anthropic, gemini, ollama)")
	askCmd.Flags().Bool("trace", false, "print the retrieval trace after the answer")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	logger.SetLastInput(question)

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	provider, _ := cmd.Flags().GetString("provider")
	showTrace, _ := cmd.Flags().GetBool("trace")
	req := knowledge.AnswerRequest{Question: question, Provider: llm.Provider(provider)}
	out := cmd.OutOrStdout()
	start := time.Now()

	if isJSON() {
		resp, err := a.Engine.Answer(cmd.Context(), req)
		if err != nil {
			return askError(err)
		}
		telemetry.AnswerServed(a.Telemetry, "cli", false, len(resp.References), resp.RetrievalTrace, time.Since(start))
		return printJSON(out, resp)
	}

	result, err := a.Engine.Stream(cmd.Context(), req)
	if err != nil {
		return askError(err)
	}

	wrote := false
	for delta := range result.Stream.Deltas() {
		wrote = true
		_, _ = io.WriteString(out, delta)
	}
	if err := result.Stream.Err(); err != nil {
		fmt.Fprintln(out)
		return askError(err)
	}
	if !wrote {
		_, _ = io.WriteString(out, a.Engine.InsufficientInformation())
	}
	fmt.Fprintln(out)

	r := ui.NewRenderer(out)
	fallback := result.RetrievalTrace != nil && result.RetrievalTrace.FallbackApplied
	r.References(result.References, fallback)
	if showTrace {
		fmt.Fprintln(out)
		_ = printJSON(out, result.RetrievalTrace)
	}

	telemetry.AnswerServed(a.Telemetry, "cli", true, len(result.References), result.RetrievalTrace, time.Since(start))
	return nil
}

func askError(err error) error {
	switch {
	case errors.Is(err, knowledge.ErrEmptyQuestion):
		PrintError("Please provide a question.", err)
	case errors.Is(err, llm.ErrUnsupportedProvider):
		PrintError("Unknown provider. Use one of: openai, anthropic, gemini, ollama.", err)
	default:
		PrintError("Could not answer the question. Run with --verbose for details.", err)
	}
	return err
}
