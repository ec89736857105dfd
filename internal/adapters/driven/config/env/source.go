// Package env provides a configuration source backed by GSIGNIN_* environment
// variables, optionally seeded from a .env file.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/custodia-labs/gsignin/internal/core/domain"
	"github.com/custodia-labs/gsignin/internal/core/ports/driven"
)

// Prefix is prepended to every variable name.
const Prefix = "GSIGNIN_"

// Ensure Source implements the interface.
var _ driven.ConfigSource = (*Source)(nil)

// Variables is the set of recognised environment variables.
type Variables struct {
	ClientID       string   `env:"CLIENT_ID"`
	IOSClientID    string   `env:"IOS_CLIENT_ID"`
	ServerClientID string   `env:"SERVER_CLIENT_ID"`
	Scopes         []string `env:"SCOPES" envSeparator:","`
	ForceAuthCode  *bool    `env:"FORCE_CODE_FOR_REFRESH_TOKEN"`
	ClientSecret   string   `env:"CLIENT_SECRET"`
	Descriptor     string   `env:"DESCRIPTOR"`
}

// Source exposes environment variables under the static config keys.
// Empty variables are treated as unset.
type Source struct {
	values map[string]any
	vars   Variables
}

// NewSource parses the process environment. When dotenvPath names an
// existing file its entries are used for variables the process does not
// set; a missing file is not an error.
func NewSource(dotenvPath string) (*Source, error) {
	environ := env.ToMap(os.Environ())
	if dotenvPath != "" {
		fileVars, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			for k, v := range fileVars {
				if _, ok := environ[k]; !ok {
					environ[k] = v
				}
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("reading %s: %w", dotenvPath, err)
		}
	}
	return NewSourceFromMap(environ)
}

// NewSourceFromMap parses variables from environ instead of the process
// environment.
func NewSourceFromMap(environ map[string]string) (*Source, error) {
	var vars Variables
	if err := env.ParseWithOptions(&vars, env.Options{
		Prefix:      Prefix,
		Environment: environ,
	}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	values := make(map[string]any)
	setString := func(key, v string) {
		if v != "" {
			values[key] = v
		}
	}
	setString(domain.ConfigKeyClientID, vars.ClientID)
	setString(domain.ConfigKeyIOSClientID, vars.IOSClientID)
	setString(domain.ConfigKeyServerClientID, vars.ServerClientID)
	setString(domain.ConfigKeyClientSecret, vars.ClientSecret)
	setString(domain.ConfigKeyDescriptor, vars.Descriptor)
	if vars.Scopes != nil {
		values[domain.ConfigKeyScopes] = slices.DeleteFunc(slices.Clone(vars.Scopes), func(s string) bool {
			return s == ""
		})
	}
	if vars.ForceAuthCode != nil {
		values[domain.ConfigKeyForceAuthCode] = *vars.ForceAuthCode
	}

	return &Source{values: values, vars: vars}, nil
}

// Variables returns the parsed variables.
func (s *Source) Variables() Variables {
	v := s.vars
	v.Scopes = slices.Clone(v.Scopes)
	return v
}

// Get retrieves a configuration value by key.
func (s *Source) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// GetString retrieves a string configuration value.
func (s *Source) GetString(key string) string {
	v, _ := s.values[key].(string)
	return v
}

// GetBool retrieves a boolean configuration value.
func (s *Source) GetBool(key string) bool {
	v, _ := s.values[key].(bool)
	return v
}

// GetStringSlice retrieves a string slice configuration value.
func (s *Source) GetStringSlice(key string) []string {
	v, ok := s.values[key].([]string)
	if !ok {
		return nil
	}
	return slices.Clone(v)
}
