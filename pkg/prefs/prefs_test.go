package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, st Store) {
	t.Helper()

	_, ok, err := st.Get("userName")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Set("userName", "alice"))
	v, ok, err := st.Get("userName")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alice", v)

	require.NoError(t, st.Set("userName", ""))
	v, ok, err = st.Get("userName")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestPebbleStore(t *testing.T) {
	st, err := NewPebbleStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	exerciseStore(t, st)
}

func TestPebbleStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	st, err := NewPebbleStore(dir)
	require.NoError(t, err)
	require.NoError(t, st.Set("userName", "bob"))
	require.NoError(t, st.Close())

	reopened, err := NewPebbleStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	v, ok, err := reopened.Get("userName")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bob", v)
}
