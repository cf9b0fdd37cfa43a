package commands

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

// listCmd prints published content of the selected type
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List published content",
	Long: `List published content of the selected type, newest first.

Examples:
  blogctl list                 # List published blog posts
  blogctl list --type journal  # List published journals`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(ctx context.Context) error {
	itemType, err := parseContentType()
	if err != nil {
		return err
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	items, err := e.repository.GetAllPublished(ctx, itemType)
	if err != nil {
		return eris.Wrap(err, "listing published content")
	}

	if len(items) == 0 {
		fmt.Printf("No published %ss found\n", itemType)
		return nil
	}

	for _, item := range items {
		fmt.Printf("ID: %d, Title: %s\n", item.ID, item.Title)
	}
	return nil
}
