package commands

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/papa-aryan/ascii-web/internal/content"
)

var allDrafts bool

// draftsCmd prints drafts of the selected type
var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "List drafts",
	Long: `List drafts, most recently edited first. Requires admin credentials.

Examples:
  blogctl drafts                 # List blog drafts
  blogctl drafts --type journal  # List journal drafts
  blogctl drafts --all           # List drafts of every type`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDrafts(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(draftsCmd)
	draftsCmd.Flags().BoolVar(&allDrafts, "all", false, "List drafts of every type")
}

func runDrafts(ctx context.Context) error {
	itemType := content.Type("")
	if !allDrafts {
		parsed, err := parseContentType()
		if err != nil {
			return err
		}
		itemType = parsed
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	token, err := e.adminToken(ctx)
	if err != nil {
		return err
	}

	drafts, err := e.repository.GetDrafts(ctx, token, itemType)
	if err != nil {
		return eris.Wrap(err, "listing drafts")
	}

	if len(drafts) == 0 {
		fmt.Println("No drafts found")
		return nil
	}

	for _, draft := range drafts {
		fmt.Printf("ID: %d, Type: %s, Title: %s\n", draft.ID, draft.Type, draft.Title)
	}
	return nil
}
