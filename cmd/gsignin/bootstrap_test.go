package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gsignin/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/gsignin/internal/adapters/driving/cli"
	"github.com/custodia-labs/gsignin/internal/core/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, "GSIGNIN_") {
			t.Setenv(name, "")
		}
	}
}

func TestBootstrap_Unconfigured(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	rt, err := bootstrap(context.Background(), cli.Options{ConfigDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	assert.Equal(t, domain.StateUnconfigured, rt.Session.Status().State)
	assert.Equal(t, filepath.Join(dir, "config.toml"), rt.Config.Path())
	assert.FileExists(t, filepath.Join(dir, "data", "session.db"))
}

func TestBootstrap_ConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	toml := "clientId = \"file-client\"\nscopes = [\"email\", \"https://www.googleapis.com/auth/drive\"]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0600))

	rt, err := bootstrap(context.Background(), cli.Options{ConfigDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	status := rt.Session.Status()
	assert.Equal(t, domain.StateIdle, status.State)
	require.NotNil(t, status.Config)
	assert.Equal(t, "file-client", status.Config.ClientID)
	assert.Equal(t, []string{"https://www.googleapis.com/auth/drive"}, status.AdditionalScopes)
}

func TestBootstrap_EnvWinsOverFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("clientId = \"file-client\"\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GSIGNIN_CLIENT_ID=dotenv-client\n"), 0600))

	rt, err := bootstrap(context.Background(), cli.Options{ConfigDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	status := rt.Session.Status()
	require.NotNil(t, status.Config)
	assert.Equal(t, "dotenv-client", status.Config.ClientID)
}

func TestBootstrap_DescriptorFallback(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	descriptor := `{"CLIENT_ID": "descriptor-client"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "GoogleService-Info.json"), []byte(descriptor), 0600))

	rt, err := bootstrap(context.Background(), cli.Options{ConfigDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	status := rt.Session.Status()
	require.NotNil(t, status.Config)
	assert.Equal(t, "descriptor-client", status.Config.ClientID)
}

func TestBootstrap_CallbackAndWatch(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	rt, err := bootstrap(context.Background(), cli.Options{ConfigDir: dir, Callback: true, Watch: true})
	require.NoError(t, err)

	assert.NoError(t, rt.Close())
}

func TestBootstrap_RestoreThenRefresh(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("clientId = \"file-client\"\n"), 0600))

	// A previous process signed in and exited.
	seed, err := sqlite.NewStore(filepath.Join(dir, "data"))
	require.NoError(t, err)
	require.NoError(t, seed.SessionCache().Save(context.Background(), domain.StoredSession{
		ClientID:      "file-client",
		UserID:        "1234567890",
		GrantedScopes: []string{"openid", "email", "profile"},
		Profile:       &domain.Profile{Email: "ada@example.com"},
		Token: domain.OAuthToken{
			AccessToken:  "cached-access",
			RefreshToken: "cached-refresh",
			Expiry:       time.Now().Add(time.Hour),
		},
	}))
	require.NoError(t, seed.Close())

	rt, err := bootstrap(context.Background(), cli.Options{ConfigDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := rt.Session.Restore(ctx).Wait(ctx)
	require.NoError(t, err)
	require.NotNil(t, result.Email)
	assert.Equal(t, "ada@example.com", *result.Email)

	tokens, err := rt.Session.Refresh(ctx).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cached-access", tokens.AccessToken)
	assert.Equal(t, domain.StateSignedIn, rt.Session.Status().State)
}
