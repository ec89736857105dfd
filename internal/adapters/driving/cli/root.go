// Package cli provides the gsignin command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gsignin/internal/core/ports/driven"
	"github.com/custodia-labs/gsignin/internal/core/ports/driving"
	"github.com/custodia-labs/gsignin/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// annotationCallback marks commands that need the loopback callback server.
const annotationCallback = "gsignin/callback"

// Options are the global flags handed to the bootstrap function.
type Options struct {
	// ConfigDir overrides the ~/.gsignin directory.
	ConfigDir string
	// Callback is true when the command needs the loopback callback server.
	Callback bool
	// CallbackPort is the loopback port; 0 picks a free one.
	CallbackPort int
	// Watch enables hot reload of the static configuration.
	Watch bool
}

// Runtime is what the commands need from the composition root.
type Runtime struct {
	Session driving.SessionService
	Config  driven.ConfigStore
	// Close stops background work started by the bootstrap. May be nil.
	Close func() error
}

// BootstrapFunc wires the application for one command invocation. ctx lives
// as long as the command runs.
type BootstrapFunc func(ctx context.Context, opts Options) (*Runtime, error)

var (
	verbose      bool
	configDir    string
	callbackPort int

	bootstrap BootstrapFunc
	active    *Runtime

	sessionService driving.SessionService
	configStore    driven.ConfigStore
)

var rootCmd = &cobra.Command{
	Use:   "gsignin",
	Short: "Native Google sign-in bridge",
	Long: `gsignin signs a user in with Google using the installed-app OAuth flow.

It restores the previous session silently when it can, otherwise it opens the
consent page in your browser and waits for the redirect on a loopback port.
Tokens are printed as JSON so other programs can consume them. The same
operations are available to AI hosts through "gsignin mcp serve".`,
	SilenceUsage:      true,
	PersistentPreRunE: setupRuntime,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.gsignin)")
	rootCmd.PersistentFlags().IntVar(&callbackPort, "callback-port", 0,
		"loopback port for the OAuth redirect (0 = any free port)")
	cobra.OnFinalize(teardownRuntime)
}

// SetBootstrap registers the function that wires services before a command runs.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices injects services directly, bypassing the bootstrap.
func SetServices(session driving.SessionService, config driven.ConfigStore) {
	sessionService = session
	configStore = config
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setupRuntime(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil || cmd == versionCmd {
		return nil
	}

	opts := Options{
		ConfigDir:    configDir,
		CallbackPort: callbackPort,
	}
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[annotationCallback]; ok {
			opts.Callback = true
			break
		}
	}
	opts.Watch = opts.Callback && cmd == mcpServeCmd

	rt, err := bootstrap(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("starting gsignin: %w", err)
	}
	active = rt
	SetServices(rt.Session, rt.Config)
	return nil
}

// teardownRuntime runs after every command, including failed ones.
func teardownRuntime() {
	if active == nil {
		return
	}
	if active.Close != nil {
		if err := active.Close(); err != nil {
			logger.Warn("shutting down: %v", err)
		}
	}
	active = nil
}

func requireSession() (driving.SessionService, error) {
	if sessionService == nil {
		return nil, errors.New("session service not configured")
	}
	return sessionService, nil
}
