package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gsignin/internal/logger"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sign-in state and effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	session, err := requireSession()
	if err != nil {
		return err
	}
	if err := restoreSession(cmd.Context(), session); err != nil {
		logger.Debug("status: %v", err)
	}
	status := session.Status()
	if statusJSON {
		return writeJSON(cmd, status)
	}

	cmd.Printf("State:      %s\n", status.State)
	cmd.Printf("Signed in:  %t\n", status.SignedIn)
	if status.Config == nil {
		cmd.Println("Client ID:  (not configured)")
		return nil
	}
	cmd.Printf("Client ID:  %s\n", status.Config.ClientID)
	if status.Config.HasServerClientID() {
		cmd.Printf("Server ID:  %s\n", status.Config.ServerClientID)
	}
	cmd.Printf("Scopes:     %s\n", orNone(status.Config.RequestedScopes))
	cmd.Printf("Additional: %s\n", orNone(status.AdditionalScopes))
	cmd.Printf("Force code: %t\n", status.Config.ForceAuthCode)
	return nil
}

func orNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}
