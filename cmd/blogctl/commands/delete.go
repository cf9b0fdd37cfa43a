package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

// deleteCmd removes a published item by ID
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a published item",
	Long: `Delete a published item of the selected type by its numeric ID.

Deleting an ID that does not exist is reported but is not an error, so repeated
cleanup runs stay idempotent.

Examples:
  blogctl delete 12                 # Delete published blog post 12
  blogctl delete 7 --type journal   # Delete published journal 7`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDelete(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(ctx context.Context, rawID string) error {
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil || id == 0 {
		return eris.Errorf("invalid ID %q: must be a positive integer", rawID)
	}

	itemType, err := parseContentType()
	if err != nil {
		return err
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	existing, err := e.repository.GetByID(ctx, uint(id), itemType)
	if err != nil {
		return eris.Wrap(err, "looking up item")
	}
	if existing == nil {
		fmt.Printf("No published %s with ID %d found, nothing to delete\n", itemType, id)
		return nil
	}

	token, err := e.adminToken(ctx)
	if err != nil {
		return err
	}

	if err := e.repository.DeletePublished(ctx, token, uint(id), itemType); err != nil {
		return eris.Wrap(err, "deleting item")
	}

	fmt.Printf("Deleted %s %d (%s)\n", itemType, id, existing.Title)
	return nil
}
