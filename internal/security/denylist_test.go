package security

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDenylist(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	d := NewMemoryDenylist()
	d.now = func() time.Time { return now }

	require.NoError(t, d.Revoke(ctx, "jti-1", now.Add(time.Hour)))
	require.NoError(t, d.Revoke(ctx, "jti-stale", now.Add(-time.Second)))

	revoked, err := d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = d.IsRevoked(ctx, "jti-stale")
	assert.False(t, revoked)

	revoked, _ = d.IsRevoked(ctx, "jti-unknown")
	assert.False(t, revoked)

	now = now.Add(2 * time.Hour)
	revoked, _ = d.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked, "entries lapse with the token")

	require.NoError(t, d.Revoke(ctx, "jti-2", now.Add(time.Minute)))
	assert.Len(t, d.revoked, 1, "expired entries are swept on write")
}

func TestRedisDenylist(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	d := NewRedisDenylist(client)

	require.NoError(t, d.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	revoked, err := d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists(denylistPrefix+"jti-1"))

	require.NoError(t, d.Revoke(ctx, "jti-old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(denylistPrefix+"jti-old"))

	mr.FastForward(2 * time.Minute)
	revoked, err = d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisDenylist_BackendError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, err := NewRedisDenylist(client).IsRevoked(context.Background(), "jti")
	assert.Error(t, err)
}
