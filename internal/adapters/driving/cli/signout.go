package cli

import (
	"github.com/spf13/cobra"
)

var signOutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Sign out and clear the cached session",
	Args:  cobra.NoArgs,
	RunE:  runSignOut,
}

func init() {
	rootCmd.AddCommand(signOutCmd)
}

// runSignOut waits for the clear to run, since the process exits right after.
func runSignOut(cmd *cobra.Command, _ []string) error {
	session, err := requireSession()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	select {
	case <-session.SignOut(ctx):
	case <-ctx.Done():
		return ctx.Err()
	}
	cmd.Println("Signed out.")
	return nil
}
