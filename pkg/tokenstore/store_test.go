package tokenstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfhq/shelf/model"
)

func TestStores(t *testing.T) {
	cases := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{"Memory", func(t *testing.T) Store { return NewMemory() }},
		{"File", func(t *testing.T) Store { return NewFile(filepath.Join(t.TempDir(), "credentials.yaml")) }},
		{"SQLite", func(t *testing.T) Store {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "credentials.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		}},
		{"Cached", func(t *testing.T) Store {
			return NewCached(NewFile(filepath.Join(t.TempDir(), "credentials.yaml")), time.Minute)
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := c.open(t)

			_, ok := s.Get()
			assert.False(t, ok)
			assert.False(t, s.Has())

			require.NoError(t, s.Save("first"))
			require.NoError(t, s.Save("second"))
			token, ok := s.Get()
			assert.True(t, ok)
			assert.Equal(t, "second", token)
			assert.True(t, s.Has())

			require.NoError(t, s.Remove())
			assert.False(t, s.Has())
			require.NoError(t, s.Remove())

			require.NoError(t, s.Save("third"))
			require.NoError(t, s.Save(""))
			assert.False(t, s.Has())
		})
	}
}

func TestFileSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.yaml")

	require.NoError(t, NewFile(path).Save("persisted"))

	token, ok := NewFile(path).Get()
	assert.True(t, ok)
	assert.Equal(t, "persisted", token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileKeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme: dark\n"), 0600))

	f := NewFile(path)
	require.NoError(t, f.Save("abc"))
	require.NoError(t, f.Remove())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "theme: dark")
	assert.NotContains(t, string(data), Key)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Save("persisted"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	token, ok := s.Get()
	assert.True(t, ok)
	assert.Equal(t, "persisted", token)
}

type failingStore struct {
	Memory
}

func (f *failingStore) Remove() error {
	return assert.AnError
}

func TestCachedRemoveClearsOnBackendFailure(t *testing.T) {
	backend := &failingStore{}
	require.NoError(t, backend.Save("stale"))

	c := NewCached(backend, time.Minute)
	assert.True(t, c.Has())

	assert.ErrorIs(t, c.Remove(), assert.AnError)
	assert.False(t, c.Has())
}

func TestCachedServesFromMemory(t *testing.T) {
	backend := NewMemory()
	c := NewCached(backend, time.Minute)

	require.NoError(t, c.Save("abc"))
	require.NoError(t, backend.Remove())

	token, ok := c.Get()
	assert.True(t, ok)
	assert.Equal(t, "abc", token)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(&model.Config{TokenStore: model.TokenStoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(&model.Config{TokenStore: model.TokenStoreFile, TokenPath: filepath.Join(dir, "c.yaml")})
	require.NoError(t, err)
	require.IsType(t, &Cached{}, s)
	assert.IsType(t, &File{}, s.(*Cached).Backend())

	s, err = Open(&model.Config{TokenStore: model.TokenStoreSQLite, TokenPath: filepath.Join(dir, "c.db")})
	require.NoError(t, err)
	require.IsType(t, &Cached{}, s)
	assert.IsType(t, &SQLite{}, s.(*Cached).Backend())
	require.NoError(t, s.(*Cached).Backend().(*SQLite).Close())

	_, err = Open(&model.Config{TokenStore: "redis"})
	assert.Error(t, err)
}
