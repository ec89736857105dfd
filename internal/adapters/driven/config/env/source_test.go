package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gsignin/internal/core/domain"
)

func TestNewSourceFromMap(t *testing.T) {
	src, err := NewSourceFromMap(map[string]string{
		"GSIGNIN_CLIENT_ID":                    "web.apps.googleusercontent.com",
		"GSIGNIN_IOS_CLIENT_ID":                "ios.apps.googleusercontent.com",
		"GSIGNIN_SERVER_CLIENT_ID":             "server.apps.googleusercontent.com",
		"GSIGNIN_SCOPES":                       "email,https://www.googleapis.com/auth/drive.readonly",
		"GSIGNIN_FORCE_CODE_FOR_REFRESH_TOKEN": "true",
		"GSIGNIN_CLIENT_SECRET":                "shh",
		"UNRELATED":                            "x",
	})
	require.NoError(t, err)

	assert.Equal(t, "web.apps.googleusercontent.com", src.GetString(domain.ConfigKeyClientID))
	assert.Equal(t, "ios.apps.googleusercontent.com", src.GetString(domain.ConfigKeyIOSClientID))
	assert.Equal(t, "server.apps.googleusercontent.com", src.GetString(domain.ConfigKeyServerClientID))
	assert.Equal(t, []string{"email", "https://www.googleapis.com/auth/drive.readonly"},
		src.GetStringSlice(domain.ConfigKeyScopes))
	assert.True(t, src.GetBool(domain.ConfigKeyForceAuthCode))
	assert.Equal(t, "shh", src.GetString(domain.ConfigKeyClientSecret))
	assert.Equal(t, "shh", src.Variables().ClientSecret)
}

func TestNewSourceFromMap_Unset(t *testing.T) {
	src, err := NewSourceFromMap(map[string]string{})
	require.NoError(t, err)

	for _, key := range []string{
		domain.ConfigKeyClientID,
		domain.ConfigKeyIOSClientID,
		domain.ConfigKeyServerClientID,
		domain.ConfigKeyScopes,
		domain.ConfigKeyForceAuthCode,
	} {
		_, ok := src.Get(key)
		assert.False(t, ok, key)
	}
	assert.Nil(t, src.GetStringSlice(domain.ConfigKeyScopes))
	assert.False(t, src.GetBool(domain.ConfigKeyForceAuthCode))
}

func TestNewSourceFromMap_EmptyIsUnset(t *testing.T) {
	src, err := NewSourceFromMap(map[string]string{"GSIGNIN_CLIENT_ID": ""})
	require.NoError(t, err)

	_, ok := src.Get(domain.ConfigKeyClientID)
	assert.False(t, ok)
}

func TestNewSourceFromMap_ExplicitFalse(t *testing.T) {
	src, err := NewSourceFromMap(map[string]string{"GSIGNIN_FORCE_CODE_FOR_REFRESH_TOKEN": "false"})
	require.NoError(t, err)

	v, ok := src.Get(domain.ConfigKeyForceAuthCode)
	assert.True(t, ok)
	assert.Equal(t, false, v)
}

func TestNewSourceFromMap_InvalidBool(t *testing.T) {
	_, err := NewSourceFromMap(map[string]string{"GSIGNIN_FORCE_CODE_FOR_REFRESH_TOKEN": "maybe"})

	assert.Error(t, err)
}

func TestSource_GetStringSlice_ReturnsCopy(t *testing.T) {
	src, err := NewSourceFromMap(map[string]string{"GSIGNIN_SCOPES": "a,b"})
	require.NoError(t, err)

	scopes := src.GetStringSlice(domain.ConfigKeyScopes)
	scopes[0] = "mutated"

	assert.Equal(t, []string{"a", "b"}, src.GetStringSlice(domain.ConfigKeyScopes))
}

func TestNewSource_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"GSIGNIN_CLIENT_ID=from-file\nGSIGNIN_SERVER_CLIENT_ID=server-from-file\n"), 0600))
	t.Setenv("GSIGNIN_CLIENT_ID", "from-process")

	src, err := NewSource(path)
	require.NoError(t, err)

	assert.Equal(t, "from-process", src.GetString(domain.ConfigKeyClientID))
	assert.Equal(t, "server-from-file", src.GetString(domain.ConfigKeyServerClientID))
}

func TestNewSource_MissingDotEnv(t *testing.T) {
	t.Setenv("GSIGNIN_CLIENT_ID", "from-process")

	src, err := NewSource(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "from-process", src.GetString(domain.ConfigKeyClientID))
}
