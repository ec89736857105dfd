package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/gsignin/internal/adapters/driven/config"
	"github.com/custodia-labs/gsignin/internal/adapters/driven/config/env"
	"github.com/custodia-labs/gsignin/internal/adapters/driven/config/file"
	"github.com/custodia-labs/gsignin/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/gsignin/internal/adapters/driving/cli"
	"github.com/custodia-labs/gsignin/internal/adapters/driving/oauth"
	"github.com/custodia-labs/gsignin/internal/connectors/google"
	"github.com/custodia-labs/gsignin/internal/core/domain"
	"github.com/custodia-labs/gsignin/internal/core/services"
	"github.com/custodia-labs/gsignin/internal/logger"
)

// Loopback ports tried when --callback-port is not given.
const (
	callbackPortStart = 18080
	callbackPortEnd   = 18099
)

// drainTimeout bounds how long shutdown waits for provider work, such as a
// token request on a slow network. Consent waits end on Close.
const drainTimeout = 3 * time.Second

// bootstrap wires the application for one command invocation.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Runtime, error) {
	baseDir := opts.ConfigDir
	if baseDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}

	logger.Section("Configuration")
	configStore, err := file.NewConfigStore(baseDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	envSource, err := env.NewSource(filepath.Join(baseDir, ".env"))
	if err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	static := config.NewChain(envSource, configStore)

	descriptorPath := static.GetString(domain.ConfigKeyDescriptor)
	if descriptorPath == "" {
		descriptorPath = filepath.Join(baseDir, file.DescriptorFileName)
	}
	descriptor, err := file.NewDescriptorReader(descriptorPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("config=%s descriptor=%s", configStore.Path(), descriptor.Path())

	logger.Section("Session cache")
	store, err := sqlite.NewStore(filepath.Join(baseDir, "data"))
	if err != nil {
		return nil, fmt.Errorf("opening session cache: %w", err)
	}
	logger.Debug("session cache at %s", store.Path())

	provider := google.NewProvider(store.SessionCache(), google.Options{
		ClientSecret: clientSecret(static, descriptor),
	})

	dispatcher := services.NewDispatcher()
	resolver := services.NewConfigResolver(static, descriptor, nil)
	presenter := oauth.NewBrowserPresenter(os.Stderr)
	controller := services.NewSessionController(resolver, provider, presenter, dispatcher)
	if err := controller.Load(); err != nil && !errors.Is(err, domain.ErrNoClientID) {
		controller.Close()
		_ = store.Close()
		return nil, fmt.Errorf("resolving config: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)

	if opts.Callback {
		callback, err := startCallback(opts.CallbackPort, baseDir)
		if err != nil {
			cancel()
			controller.Close()
			_ = store.Close()
			return nil, err
		}
		provider.SetRedirectURL(callback.RedirectURI())

		bridge := services.NewRedirectBridge(provider)
		group.Go(func() error {
			return callback.Serve(groupCtx)
		})
		group.Go(func() error {
			bridge.Observe(groupCtx, callback.Notifications())
			return nil
		})
	}

	if opts.Watch {
		changes, err := configStore.Watch(groupCtx)
		if err != nil {
			logger.Warn("config hot reload disabled: %v", err)
		} else {
			group.Go(func() error {
				for range changes {
					if reloaded, err := controller.ReloadStatic(); err != nil {
						logger.Warn("reloading config: %v", err)
					} else if reloaded {
						logger.Info("config reloaded")
					}
				}
				return nil
			})
		}
	}

	return &cli.Runtime{
		Session: controller,
		Config:  configStore,
		Close: func() error {
			cancel()
			groupErr := group.Wait()

			drained := make(chan struct{})
			go func() {
				controller.Close()
				close(drained)
			}()
			select {
			case <-drained:
			case <-time.After(drainTimeout):
				// The session cache stays open for the abandoned work.
				logger.Warn("provider work still running at exit")
				return groupErr
			}
			return errors.Join(groupErr, store.Close())
		},
	}, nil
}

// startCallback starts the loopback redirect listener so its URL is known
// before any sign-in is dispatched.
func startCallback(port int, baseDir string) (*oauth.CallbackServer, error) {
	if port == 0 {
		p, err := oauth.FindAvailablePort(callbackPortStart, callbackPortEnd)
		if err != nil {
			return nil, err
		}
		port = p
	}

	pages, err := file.NewPageStore(filepath.Join(baseDir, "pages"))
	if err != nil {
		return nil, err
	}

	callback := oauth.NewCallbackServer(port, pages)
	if err := callback.Start(); err != nil {
		return nil, err
	}
	return callback, nil
}

// clientSecret prefers the configured secret over the descriptor's.
func clientSecret(static *config.Chain, descriptor *file.DescriptorReader) string {
	if secret := static.GetString(domain.ConfigKeyClientSecret); secret != "" {
		return secret
	}
	secret, err := descriptor.ClientSecret()
	if err != nil {
		return ""
	}
	return secret
}
