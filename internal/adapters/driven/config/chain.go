// Package config layers static configuration sources.
package config

import (
	"github.com/custodia-labs/gsignin/internal/core/ports/driven"
)

// Ensure Chain implements the interface.
var _ driven.ConfigSource = (*Chain)(nil)

// Chain is a ConfigSource over several sources. The first source that holds
// a key answers for it, even if its value has the wrong type.
type Chain struct {
	sources []driven.ConfigSource
}

// NewChain creates a chain; earlier sources take precedence. Nil sources are skipped.
func NewChain(sources ...driven.ConfigSource) *Chain {
	c := &Chain{}
	for _, s := range sources {
		if s != nil {
			c.sources = append(c.sources, s)
		}
	}
	return c
}

// Get retrieves a configuration value from the first source holding key.
func (c *Chain) Get(key string) (any, bool) {
	if s := c.owner(key); s != nil {
		return s.Get(key)
	}
	return nil, false
}

// GetString retrieves a string configuration value.
func (c *Chain) GetString(key string) string {
	if s := c.owner(key); s != nil {
		return s.GetString(key)
	}
	return ""
}

// GetBool retrieves a boolean configuration value.
func (c *Chain) GetBool(key string) bool {
	if s := c.owner(key); s != nil {
		return s.GetBool(key)
	}
	return false
}

// GetStringSlice retrieves a string slice configuration value.
func (c *Chain) GetStringSlice(key string) []string {
	if s := c.owner(key); s != nil {
		return s.GetStringSlice(key)
	}
	return nil
}

func (c *Chain) owner(key string) driven.ConfigSource {
	for _, s := range c.sources {
		if _, ok := s.Get(key); ok {
			return s
		}
	}
	return nil
}
