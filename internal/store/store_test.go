package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sub", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	u, err := s.CreateUser(ctx, "test@example.com", "hash")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)

	got, err := s.UserByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	got, err = s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	_, err = s.CreateUser(ctx, "test@example.com", "other")
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = s.UserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UserByID(ctx, u.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	a, err := s.CreateUser(ctx, "a@example.com", "x")
	require.NoError(t, err)
	b, err := s.CreateUser(ctx, "b@example.com", "y")
	require.NoError(t, err)

	h, err := s.History(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, h)

	before := time.Now().UTC()
	for _, e := range [][2]string{{"2+2", "4"}, {"3+3", "6"}, {"7/2", "3.5"}} {
		_, err := s.AddExpression(ctx, a.ID, e[0], e[1])
		require.NoError(t, err)
	}
	_, err = s.AddExpression(ctx, b.ID, "1+1", "2")
	require.NoError(t, err)

	h, err = s.History(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.Equal(t, "2+2", h[0].Expression)
	assert.Equal(t, "4", h[0].Result)
	assert.Equal(t, "3+3", h[1].Expression)
	assert.Equal(t, "7/2", h[2].Expression)
	assert.Equal(t, "3.5", h[2].Result)
	for i, e := range h {
		assert.Equal(t, a.ID, e.UserID)
		assert.WithinDuration(t, before, e.CreatedAt, time.Minute)
		if i > 0 {
			assert.Greater(t, e.ID, h[i-1].ID)
		}
	}

	h, err = s.History(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, "1+1", h[0].Expression)
}

func TestAddExpressionUnknownUser(t *testing.T) {
	s := openTest(t)
	_, err := s.AddExpression(context.Background(), 42, "1+1", "2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	u, err := s.CreateUser(ctx, "keep@example.com", "h")
	require.NoError(t, err)
	_, err = s.AddExpression(ctx, u.ID, "3+3", "6")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(ctx))
	h, err := s.History(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, "6", h[0].Result)
}
