package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gsignin/internal/core/domain"
)

// configKeys lists the keys "config set" accepts.
var configKeys = []string{
	domain.ConfigKeyClientID,
	domain.ConfigKeyIOSClientID,
	domain.ConfigKeyServerClientID,
	domain.ConfigKeyScopes,
	domain.ConfigKeyForceAuthCode,
	domain.ConfigKeyClientSecret,
	domain.ConfigKeyDescriptor,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the static configuration",
	Long: `View and edit ~/.gsignin/config.toml.

Environment variables (GSIGNIN_CLIENT_ID, GSIGNIN_SCOPES, ...) take precedence
over the file. The descriptor file is consulted for a client id only when
neither iosClientId nor clientId is set.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configuration file values",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Keys: ` + strings.Join(configKeys, ", ") + `

scopes takes a comma separated list; forceCodeForRefreshToken takes true or false.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configStore == nil {
			return errConfigNotAvailable
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), configStore.Path())
		return err
	},
}

var errConfigNotAvailable = errors.New("config store not configured")

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errConfigNotAvailable
	}

	keys := configStore.Keys()
	if len(keys) == 0 {
		cmd.Println("No configuration values set.")
		return nil
	}
	for _, key := range keys {
		value, _ := configStore.Get(key)
		if key == domain.ConfigKeyClientSecret {
			value = "****"
		}
		cmd.Printf("%s = %v\n", key, value)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errConfigNotAvailable
	}

	value, err := parseConfigValue(args[0], args[1])
	if err != nil {
		return err
	}
	if err := configStore.Set(args[0], value); err != nil {
		return fmt.Errorf("saving %s: %w", args[0], err)
	}
	cmd.Printf("%s updated.\n", args[0])
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errConfigNotAvailable
	}
	if err := configStore.Unset(args[0]); err != nil {
		return fmt.Errorf("removing %s: %w", args[0], err)
	}
	cmd.Printf("%s removed.\n", args[0])
	return nil
}

// parseConfigValue converts a command line value to the type stored for key.
func parseConfigValue(key, raw string) (any, error) {
	switch key {
	case domain.ConfigKeyScopes:
		scopes := []string{}
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				scopes = append(scopes, s)
			}
		}
		return scopes, nil
	case domain.ConfigKeyForceAuthCode:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false: %w", key, domain.ErrInvalidInput)
		}
		return b, nil
	case domain.ConfigKeyClientID, domain.ConfigKeyIOSClientID, domain.ConfigKeyServerClientID,
		domain.ConfigKeyClientSecret, domain.ConfigKeyDescriptor:
		return raw, nil
	default:
		return nil, fmt.Errorf("unknown key %q: %w", key, domain.ErrInvalidInput)
	}
}
