package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_DetachBinding(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
	keys := km.Detach.Keys()
	assert.Contains(t, keys, "q")
	assert.Contains(t, keys, "esc")
	assert.Contains(t, keys, "ctrl+c")
	assert.Equal(t, "stop waiting", km.Detach.Help().Desc)
}

func TestHelp(t *testing.T) {
	km := DefaultKeyMap()

	assert.Len(t, km.ShortHelp(), 1)
	require.Len(t, km.FullHelp(), 1)
	assert.Len(t, km.FullHelp()[0], 1)
}
