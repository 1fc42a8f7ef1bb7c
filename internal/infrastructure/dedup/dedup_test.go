package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis_FirstSeen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	d := NewRedis(client, time.Hour)
	ctx := context.Background()

	first, err := d.FirstSeen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.FirstSeen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, again)

	other, err := d.FirstSeen(ctx, "evt-2")
	require.NoError(t, err)
	assert.True(t, other)

	assert.True(t, mr.Exists(keyPrefix+"evt-1"))
	mr.FastForward(2 * time.Hour)
	expired, err := d.FirstSeen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, expired)
}

func TestRedis_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, err := NewRedis(client, time.Hour).FirstSeen(context.Background(), "evt-1")
	assert.Error(t, err)
}

func TestLocal_FirstSeen(t *testing.T) {
	d, err := NewLocal(1000, time.Hour)
	require.NoError(t, err)
	defer d.Close()
	ctx := context.Background()

	first, err := d.FirstSeen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.FirstSeen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, again)
}
