// internal/cli/query.go
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/jgrady/notekb/internal/rag"
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
)

var (
	queryTopK     int
	queryMaxChars int

	queryTitle = color.New(color.FgCyan).SprintFunc()
	queryScore = color.New(color.FgGreen).SprintFunc()
)

// queryCmd runs one retrieval round-trip against the configured knowledge
// base and prints the ranked rows plus the formatted context block.
var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Retrieve knowledge-base context for a note",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return fmt.Errorf("query is required")
		}

		cfg := GetConfig()
		ctx := context.Background()

		idx, err := rag.BuildIndex(ctx, cfg)
		if err != nil {
			return err
		}
		if idx == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Retrieval is disabled (set ragEnabled or RAG_ENABLED).")
			return nil
		}

		topK := queryTopK
		if !cmd.Flags().Changed("topK") {
			topK = cfg.RetrievalTopK()
		}
		maxChars := queryMaxChars
		if !cmd.Flags().Changed("maxChars") {
			maxChars = cfg.ContextBudget()
		}

		results, err := rag.Retrieve(ctx, idx, query, topK)
		if err != nil {
			return err
		}
		if DebugEnabled() {
			pp.Println(results)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Backend: %s  rows=%d  dim=%d\n\n", idx.Kind(), idx.Len(), idx.Dim())
		for i, r := range results {
			fmt.Fprintf(out, "%d. %s  score=%s\n", i+1, queryTitle(r.Entry.Title), queryScore(fmt.Sprintf("%.6f", r.Score)))
		}
		for _, c := range results.Citations() {
			fmt.Fprintf(out, "   %s\n", c)
		}

		contextBlock := rag.FormatContext(results, maxChars)
		if contextBlock == "" {
			fmt.Fprintln(out, "\nNo context fits the character budget.")
			return nil
		}
		fmt.Fprintf(out, "\n%s\n", contextBlock)
		return nil
	},
}

func init() {
	queryCmd.Flags().IntVar(&queryTopK, "topK", 0, "ranked rows to retrieve (default from config)")
	queryCmd.Flags().IntVar(&queryMaxChars, "maxChars", 0, "context character budget (default from config)")
	rootCmd.AddCommand(queryCmd)
}
