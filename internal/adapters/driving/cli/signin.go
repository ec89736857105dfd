package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/gsignin/internal/adapters/driving/tui/wait"
	"github.com/custodia-labs/gsignin/internal/core/domain"
)

var (
	signInClientID       string
	signInIOSClientID    string
	signInServerClientID string
	signInScopes         []string
	signInForce          bool
)

// interactiveTerminal reports whether the wait view can be shown.
var interactiveTerminal = func() bool {
	return term.IsTerminal(int(os.Stderr.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

var signInCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in with Google",
	Long: `Restores the previous session, or signs in interactively in the browser.

Any of the configuration flags replaces the static configuration for this
run, following the initialize rules: a client id rebuilds the client pair,
and scopes and --force reset to their defaults when omitted. Scopes beyond
email, profile and openid are requested in a second consent step.

The session is printed as JSON.`,
	Example: `  gsignin signin
  gsignin signin --client-id 123.apps.googleusercontent.com --scopes https://www.googleapis.com/auth/drive.readonly
  gsignin signin --force --server-client-id backend.apps.googleusercontent.com`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationCallback: ""},
	RunE:        runSignIn,
}

func init() {
	addInitializeFlags(signInCmd)
	rootCmd.AddCommand(signInCmd)
}

// addInitializeFlags registers the flags read by initializeOptions.
func addInitializeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&signInClientID, "client-id", "", "OAuth client id")
	cmd.Flags().StringVar(&signInIOSClientID, "ios-client-id", "", "OAuth client id, wins over --client-id")
	cmd.Flags().StringVar(&signInServerClientID, "server-client-id", "",
		"backend client a server auth code is issued for")
	cmd.Flags().StringSliceVar(&signInScopes, "scopes", nil, "requested scopes (comma separated)")
	cmd.Flags().BoolVar(&signInForce, "force", false, "skip silent restore and always issue a new auth code")
}

func runSignIn(cmd *cobra.Command, _ []string) error {
	session, err := requireSession()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if opts, ok := initializeOptions(cmd); ok {
		if err := session.Initialize(ctx, opts); err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
	}

	result, err := awaitCall(ctx, session.SignIn(ctx), "Signing in with Google")
	if domain.IsCanceled(err) {
		return fmt.Errorf("sign-in canceled: %w", err)
	}
	if err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}
	return writeJSON(cmd, result)
}

// initializeOptions builds an initialize call from the flags that were set.
// Returns false when no configuration flag was given.
func initializeOptions(cmd *cobra.Command) (domain.InitializeOptions, bool) {
	var opts domain.InitializeOptions
	flags := cmd.Flags()
	set := false
	if flags.Changed("client-id") {
		opts.ClientID = &signInClientID
		set = true
	}
	if flags.Changed("ios-client-id") {
		opts.IOSClientID = &signInIOSClientID
		set = true
	}
	if flags.Changed("server-client-id") {
		opts.ServerClientID = &signInServerClientID
		set = true
	}
	if flags.Changed("scopes") {
		opts.Scopes = signInScopes
		set = true
	}
	if flags.Changed("force") {
		opts.ForceCodeForRefreshToken = &signInForce
		set = true
	}
	return opts, set
}

// awaitCall waits for call, showing the wait view on a terminal.
func awaitCall[T any](ctx context.Context, call *domain.Call[T], title string) (T, error) {
	if interactiveTerminal() {
		return wait.Run(ctx, call, title, os.Stdin, os.Stderr)
	}
	return call.Wait(ctx)
}

// writeJSON prints v to stdout; cmd.Print* would go to stderr.
func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
