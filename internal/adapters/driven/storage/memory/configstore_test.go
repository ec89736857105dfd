package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gsignin/internal/core/domain"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.values)
	assert.Equal(t, ":memory:", store.Path())
}

func TestNewConfigStore_Seeded(t *testing.T) {
	seed := map[string]any{domain.ConfigKeyIOSClientID: "abc"}
	store := NewConfigStore(seed)

	assert.Equal(t, "abc", store.GetString(domain.ConfigKeyIOSClientID))

	// Seed map is copied, not aliased.
	seed[domain.ConfigKeyIOSClientID] = "changed"
	assert.Equal(t, "abc", store.GetString(domain.ConfigKeyIOSClientID))
}

func TestConfigStore_Set_Update(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set(domain.ConfigKeyClientID, "original"))
	require.NoError(t, store.Set(domain.ConfigKeyClientID, "updated"))

	val, ok := store.Get(domain.ConfigKeyClientID)
	assert.True(t, ok)
	assert.Equal(t, "updated", val)
}

func TestConfigStore_Unset(t *testing.T) {
	store := NewConfigStore(map[string]any{domain.ConfigKeyClientID: "abc"})

	assert.NoError(t, store.Unset(domain.ConfigKeyClientID))
	assert.NoError(t, store.Unset("missing"))

	_, ok := store.Get(domain.ConfigKeyClientID)
	assert.False(t, ok)
}

func TestConfigStore_Keys(t *testing.T) {
	store := NewConfigStore(map[string]any{"b": 1, "a": 2})

	assert.Equal(t, []string{"a", "b"}, store.Keys())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"string":   "value",
		"bool":     true,
		"strings":  []string{"email", "custom.scope"},
		"anyslice": []any{"a", 1, "b"},
		"number":   42,
	})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("string"), "value"},
		{"string wrong type", store.GetString("number"), ""},
		{"string missing", store.GetString("missing"), ""},
		{"bool", store.GetBool("bool"), true},
		{"bool wrong type", store.GetBool("string"), false},
		{"string slice", store.GetStringSlice("strings"), []string{"email", "custom.scope"}},
		{"any slice keeps strings only", store.GetStringSlice("anyslice"), []string{"a", "b"}},
		{"slice wrong type", store.GetStringSlice("string"), []string(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_SaveLoadNoop(t *testing.T) {
	store := NewConfigStore()
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set(domain.ConfigKeyScopes, []string{"s"})
		}()
		go func() {
			defer wg.Done()
			_ = store.GetStringSlice(domain.ConfigKeyScopes)
		}()
	}
	wg.Wait()
}
