package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := Open(InMemoryConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_PersistentRequiresPath(t *testing.T) {
	_, err := Open(Config{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store path is required")
}

func TestOpen_PersistentCreatesDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/store"
	s, err := Open(DefaultConfig(dir), nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestSession_SaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, "s1", []byte(`{"id":"s1"}`)))

	got, err := s.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"s1"}`), got)
}

func TestLoadSession_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LoadSession(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ids, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, s.SaveSession(ctx, "s1", []byte("{}")))
	require.NoError(t, s.SaveSession(ctx, "s2", []byte("{}")))

	ids, err = s.ListSessions(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2"}, ids)
}

func TestArtifact_RoundTripAndOverwrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutArtifact(ctx, "s1", "app/models/watchlist.py", []byte("v1")))

	got, err := s.GetArtifact(ctx, "s1", "app/models/watchlist.py")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, s.PutArtifact(ctx, "s1", "app/models/watchlist.py", []byte("v2")))
	got, err = s.GetArtifact(ctx, "s1", "app/models/watchlist.py")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestGetArtifact_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetArtifact(context.Background(), "s1", "app/pages/missing.py")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestArtifacts_IsolatedPerSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutArtifact(ctx, "s1", "app/pages/home.py", []byte("one")))
	require.NoError(t, s.PutArtifact(ctx, "s2", "app/pages/home.py", []byte("two")))

	got, err := s.GetArtifact(ctx, "s1", "app/pages/home.py")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)

	paths, err := s.ListArtifacts(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, []string{"app/pages/home.py"}, paths)
}

func TestDeleteSession_RemovesRecordAndArtifacts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, "s1", []byte("{}")))
	require.NoError(t, s.PutArtifact(ctx, "s1", "app/pages/home.py", []byte("x")))
	require.NoError(t, s.SaveSession(ctx, "s2", []byte("{}")))

	require.NoError(t, s.DeleteSession(ctx, "s1"))

	_, err := s.LoadSession(ctx, "s1")
	require.ErrorIs(t, err, ErrNotFound)
	paths, err := s.ListArtifacts(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, paths)

	// Other sessions untouched.
	_, err = s.LoadSession(ctx, "s2")
	require.NoError(t, err)
}
