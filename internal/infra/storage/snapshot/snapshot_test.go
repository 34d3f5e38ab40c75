package snapshot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, found, err := s.Load(ctx, "bookings")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Save(ctx, "bookings", []byte(`[{"id":"b1"}]`)))
	require.NoError(t, s.Save(ctx, "bookings", []byte(`[{"id":"b2"}]`)))

	data, found, err := s.Load(ctx, "bookings")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `[{"id":"b2"}]`, string(data))
	require.NoError(t, s.Close())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "reva.db"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), Options{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = Open(context.Background(), Options{Driver: "tape"})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	s, err = Open(context.Background(), Options{Driver: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "users.json", objectKey("", "users"))
	assert.Equal(t, "reva/state/users.json", objectKey("/reva/state/", "users"))
}
