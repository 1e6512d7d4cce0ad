package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lanternkv/lantern/internal/keyspace"
	"github.com/lanternkv/lantern/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRDBSaveLoadRoundTrip(t *testing.T) {
	log := logger.New("debug", "console")
	file := filepath.Join(t.TempDir(), "dump.my_rdb")
	rdb := NewRDB(file, log)

	ks, err := keyspace.New(1)
	require.NoError(t, err)
	ks.Set("k", "v")
	ks.RPush("l", "a", "b")
	ks.HSet("h", "f", "v")

	require.NoError(t, rdb.Save(ks))

	restored, err := keyspace.New(1)
	require.NoError(t, err)
	require.NoError(t, rdb.Load(restored))

	v, ok := restored.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	assert.EqualValues(t, 2, restored.LLen("l"))
	assert.EqualValues(t, 1, restored.HLen("h"))
}

func TestRDBLoadMissingFileIsNotAnError(t *testing.T) {
	log := logger.New("debug", "console")
	file := filepath.Join(t.TempDir(), "does-not-exist.my_rdb")
	rdb := NewRDB(file, log)

	ks, err := keyspace.New(1)
	require.NoError(t, err)

	assert.NoError(t, rdb.Load(ks))
	assert.Empty(t, ks.Keys())
}

func TestRDBLoadRejectsBadHeader(t *testing.T) {
	log := logger.New("debug", "console")
	dir := t.TempDir()
	file := filepath.Join(dir, "dump.my_rdb")

	require.NoError(t, os.WriteFile(file, []byte("NOTALANTERNFILE"), 0o644))

	rdb := NewRDB(file, log)
	ks, err := keyspace.New(1)
	require.NoError(t, err)

	assert.NoError(t, rdb.Load(ks))
	assert.Empty(t, ks.Keys())
}
