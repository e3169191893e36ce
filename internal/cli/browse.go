// internal/cli/browse.go
package cli

import (
	"context"

	"github.com/jgrady/notekb/internal/tui"
	"github.com/spf13/cobra"
)

// browseCmd launches the interactive knowledge-base browser.
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the knowledge base interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.Run(context.Background(), GetConfig())
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
