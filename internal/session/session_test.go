package session

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestStoreWithoutRedisIsNoop(t *testing.T) {
    s := New(nil, "mgmt", time.Hour)
    require.NoError(t, s.RevokeAll(context.Background(), 1, time.Now()))
    at, err := s.RevokedSince(context.Background(), 1)
    require.NoError(t, err)
    assert.True(t, at.IsZero())
}

func TestValid(t *testing.T) {
    rev := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
    assert.True(t, Valid(rev, time.Time{}))
    assert.False(t, Valid(rev, rev))
    assert.False(t, Valid(rev.Add(-time.Minute), rev))
    assert.True(t, Valid(rev.Add(time.Second), rev))
}

func TestKey(t *testing.T) {
    assert.Equal(t, "mgmt:revoked:42", New(nil, "mgmt", time.Hour).key(42))
}
