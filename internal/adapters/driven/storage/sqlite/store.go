package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/gsignin/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/gsignin/internal/core/domain"
	"github.com/custodia-labs/gsignin/internal/core/ports/driven"
)

// Ensure SessionCache implements the interface.
var _ driven.SessionCache = (*SessionCache)(nil)

// Store is a SQLite database holding the provider's session cache.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.gsignin/data/session.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".gsignin", "data")
	}

	// Tokens live here, keep the directory private.
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "session.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SessionCache returns a driven.SessionCache backed by this store.
func (s *Store) SessionCache() *SessionCache {
	return &SessionCache{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_sessions.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Session Cache ====================

// SessionCache implements driven.SessionCache on a single-row table.
type SessionCache struct {
	store *Store
}

// Load returns the cached session. Returns domain.ErrNotFound if there is none.
func (c *SessionCache) Load(ctx context.Context) (*domain.StoredSession, error) {
	row := c.store.db.QueryRowContext(ctx, `
		SELECT client_id, user_id, access_token, refresh_token, id_token, token_type,
			scope, expiry, granted_scopes, profile, updated_at
		FROM sessions WHERE slot = 1
	`)

	var (
		session     domain.StoredSession
		expiry      sql.NullTime
		scopesJSON  string
		profileJSON sql.NullString
	)
	err := row.Scan(
		&session.ClientID, &session.UserID,
		&session.Token.AccessToken, &session.Token.RefreshToken, &session.Token.IDToken,
		&session.Token.TokenType, &session.Token.Scope, &expiry,
		&scopesJSON, &profileJSON, &session.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	if expiry.Valid {
		session.Token.Expiry = expiry.Time
	}
	if err := json.Unmarshal([]byte(scopesJSON), &session.GrantedScopes); err != nil {
		return nil, fmt.Errorf("unmarshalling granted scopes: %w", err)
	}
	if profileJSON.Valid && profileJSON.String != "" {
		var profile domain.Profile
		if err := json.Unmarshal([]byte(profileJSON.String), &profile); err != nil {
			return nil, fmt.Errorf("unmarshalling profile: %w", err)
		}
		session.Profile = &profile
	}

	return &session, nil
}

// Save replaces the cached session.
func (c *SessionCache) Save(ctx context.Context, session domain.StoredSession) error {
	if session.ClientID == "" || session.Token.AccessToken == "" {
		return domain.ErrInvalidInput
	}

	scopes := session.GrantedScopes
	if scopes == nil {
		scopes = []string{}
	}
	scopesJSON, err := json.Marshal(scopes)
	if err != nil {
		return fmt.Errorf("marshalling granted scopes: %w", err)
	}

	var profile sql.NullString
	if session.Profile != nil {
		b, err := json.Marshal(session.Profile)
		if err != nil {
			return fmt.Errorf("marshalling profile: %w", err)
		}
		profile = sql.NullString{String: string(b), Valid: true}
	}

	var expiry sql.NullTime
	if !session.Token.Expiry.IsZero() {
		expiry = sql.NullTime{Time: session.Token.Expiry.UTC(), Valid: true}
	}

	updatedAt := session.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO sessions
			(slot, client_id, user_id, access_token, refresh_token, id_token, token_type,
			 scope, expiry, granted_scopes, profile, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			client_id = excluded.client_id,
			user_id = excluded.user_id,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			id_token = excluded.id_token,
			token_type = excluded.token_type,
			scope = excluded.scope,
			expiry = excluded.expiry,
			granted_scopes = excluded.granted_scopes,
			profile = excluded.profile,
			updated_at = excluded.updated_at
	`, session.ClientID, session.UserID,
		session.Token.AccessToken, session.Token.RefreshToken, session.Token.IDToken,
		session.Token.TokenType, session.Token.Scope, expiry,
		string(scopesJSON), profile, updatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Clear removes the cached session.
func (c *SessionCache) Clear(ctx context.Context) error {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM sessions"); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
