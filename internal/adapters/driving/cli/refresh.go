package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gsignin/internal/core/domain"
	"github.com/custodia-labs/gsignin/internal/core/ports/driving"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Print fresh tokens for the signed-in user",
	Long: `Returns the signed-in user's tokens as JSON, refreshing the access token
first if it has expired or is about to.`,
	Args: cobra.NoArgs,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	session, err := requireSession()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if err := restoreSession(ctx, session); err != nil {
		return fmt.Errorf("restoring session: %w", err)
	}
	tokens, err := session.Refresh(ctx).Wait(ctx)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	return writeJSON(cmd, tokens)
}

// restoreSession loads the cached session into a process that has not
// signed in yet. Having nothing to restore is not an error.
func restoreSession(ctx context.Context, session driving.SessionService) error {
	if session.Status().SignedIn {
		return nil
	}
	_, err := session.Restore(ctx).Wait(ctx)
	if err != nil && domain.ErrorCodeOf(err) != domain.CodeHasNoAuthInKeychain {
		return err
	}
	return nil
}
