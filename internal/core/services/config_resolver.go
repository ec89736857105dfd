package services

import (
	"errors"
	"slices"

	"github.com/custodia-labs/gsignin/internal/core/domain"
	"github.com/custodia-labs/gsignin/internal/core/ports/driven"
	"github.com/custodia-labs/gsignin/internal/logger"
)

// ConfigResolver builds the effective configuration from static sources and
// runtime overrides.
type ConfigResolver struct {
	source         driven.ConfigSource
	descriptor     driven.DescriptorReader
	defaultGranted []string
}

// NewConfigResolver creates a resolver. descriptor may be nil.
// If defaultGranted is nil, domain.DefaultGrantedScopes is used.
func NewConfigResolver(
	source driven.ConfigSource,
	descriptor driven.DescriptorReader,
	defaultGranted []string,
) *ConfigResolver {
	if defaultGranted == nil {
		defaultGranted = domain.DefaultGrantedScopes
	}
	return &ConfigResolver{
		source:         source,
		descriptor:     descriptor,
		defaultGranted: slices.Clone(defaultGranted),
	}
}

// ResolveStatic resolves the configuration available at load time.
// The client id is taken from the first of: iosClientId, clientId, the
// descriptor's CLIENT_ID. Returns domain.ErrNoClientID if none resolves.
func (r *ConfigResolver) ResolveStatic() (domain.EffectiveConfig, error) {
	clientID, ok := r.staticClientID()
	if !ok {
		return domain.EffectiveConfig{}, domain.ErrNoClientID
	}

	cfg := domain.EffectiveConfig{
		ClientID:        clientID,
		RequestedScopes: []string{},
	}
	if r.source != nil {
		cfg.ServerClientID = r.source.GetString(domain.ConfigKeyServerClientID)
		if scopes := r.source.GetStringSlice(domain.ConfigKeyScopes); scopes != nil {
			cfg.RequestedScopes = scopes
		}
		cfg.ForceAuthCode = r.source.GetBool(domain.ConfigKeyForceAuthCode)
	}
	return cfg, nil
}

func (r *ConfigResolver) staticClientID() (string, bool) {
	if r.source != nil {
		if id := r.source.GetString(domain.ConfigKeyIOSClientID); id != "" {
			return id, true
		}
		if id := r.source.GetString(domain.ConfigKeyClientID); id != "" {
			return id, true
		}
	}
	if r.descriptor != nil {
		id, err := r.descriptor.ClientID()
		switch {
		case err == nil && id != "":
			return id, true
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			logger.Warn("reading provider descriptor: %v", err)
		}
	}
	return "", false
}

// ApplyOverride applies an initialize call on top of prev.
//
// When the call supplies a client id, the client pair (client id and server
// client id) is rebuilt from the call alone; iosClientId wins over clientId.
// Without a client id the previous pair is kept. Scopes and
// forceCodeForRefreshToken are always taken from the call and default to
// empty and false. The result has an empty ClientID if no client id has
// ever been known.
func (r *ConfigResolver) ApplyOverride(
	prev *domain.EffectiveConfig,
	opts domain.InitializeOptions,
) domain.EffectiveConfig {
	var cfg domain.EffectiveConfig
	if prev != nil {
		cfg.ClientID = prev.ClientID
		cfg.ServerClientID = prev.ServerClientID
	}

	serverClientID := ""
	if opts.ServerClientID != nil {
		serverClientID = *opts.ServerClientID
	}
	if opts.ClientID != nil {
		cfg.ClientID = *opts.ClientID
		cfg.ServerClientID = serverClientID
	}
	// will override clientId if passed
	if opts.IOSClientID != nil {
		cfg.ClientID = *opts.IOSClientID
		cfg.ServerClientID = serverClientID
	}

	cfg.RequestedScopes = []string{}
	if opts.Scopes != nil {
		cfg.RequestedScopes = slices.Clone(opts.Scopes)
	}
	if opts.ForceCodeForRefreshToken != nil {
		cfg.ForceAuthCode = *opts.ForceCodeForRefreshToken
	}
	return cfg
}

// AdditionalScopes returns scopes minus the default-granted set, keeping
// order and any duplicates of non-default scopes.
func (r *ConfigResolver) AdditionalScopes(scopes []string) []string {
	additional := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		if !slices.Contains(r.defaultGranted, scope) {
			additional = append(additional, scope)
		}
	}
	return additional
}

// DefaultGrantedScopes returns the scopes every sign-in is granted.
func (r *ConfigResolver) DefaultGrantedScopes() []string {
	return slices.Clone(r.defaultGranted)
}
