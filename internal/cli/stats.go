// internal/cli/stats.go
package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/jgrady/notekb/internal/rag"
	"github.com/spf13/cobra"
)

// statsCmd builds the configured index and reports its shape.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Build the retrieval index and report its shape",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		idx, err := rag.BuildIndex(context.Background(), cfg)
		if err != nil {
			return err
		}
		if idx == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Retrieval is disabled (set ragEnabled or RAG_ENABLED).")
			return nil
		}

		nodeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, nodeStyle.Render("Index:"))
		fmt.Fprintf(out, "  >>> backend: %s\n", idx.Kind())
		fmt.Fprintf(out, "  >>> rows: %d\n", idx.Len())
		switch idx.Kind() {
		case rag.BackendLexical:
			fmt.Fprintf(out, "  >>> vocabulary: %d terms\n", idx.Dim())
		case rag.BackendDense:
			fmt.Fprintf(out, "  >>> dimensions: %d\n", idx.Dim())
			fmt.Fprintf(out, "  >>> model: %s\n", cfg.EmbedModelID)
			fmt.Fprintf(out, "  >>> device: %s\n", cfg.Device())
			fmt.Fprintf(out, "  >>> normalize: %v\n", cfg.Normalize())
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, nodeStyle.Render("Knowledge base:"))
		fmt.Fprintf(out, "  >>> path: %s\n", cfg.RagKBPath)
		fmt.Fprintf(out, "  >>> title column: %s\n", cfg.TitleColumn())
		fmt.Fprintf(out, "  >>> text column: %s\n", cfg.TextColumn())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
