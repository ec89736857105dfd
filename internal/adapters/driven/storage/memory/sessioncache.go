package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/gsignin/internal/core/domain"
	"github.com/custodia-labs/gsignin/internal/core/ports/driven"
)

// Ensure SessionCache implements the interface.
var _ driven.SessionCache = (*SessionCache)(nil)

// SessionCache is an in-memory implementation of driven.SessionCache.
type SessionCache struct {
	mu      sync.RWMutex
	session *domain.StoredSession
}

// NewSessionCache creates an empty in-memory session cache.
func NewSessionCache() *SessionCache {
	return &SessionCache{}
}

// Load returns a copy of the cached session.
func (c *SessionCache) Load(_ context.Context) (*domain.StoredSession, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil, domain.ErrNotFound
	}
	return copySession(*c.session), nil
}

// Save replaces the cached session.
func (c *SessionCache) Save(_ context.Context, session domain.StoredSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = copySession(session)
	return nil
}

// Clear removes the cached session.
func (c *SessionCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	return nil
}

func copySession(s domain.StoredSession) *domain.StoredSession {
	s.GrantedScopes = slices.Clone(s.GrantedScopes)
	if s.Profile != nil {
		p := *s.Profile
		s.Profile = &p
	}
	return &s
}
