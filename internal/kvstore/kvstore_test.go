package kvstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "posts")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "posts", `[{"id":1}]`))
	v, err := s.Get(ctx, "posts")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, v)

	require.NoError(t, s.Set(ctx, "posts", `[]`))
	v, err = s.Get(ctx, "posts")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v, "second write should overwrite")

	require.NoError(t, s.Delete(ctx, "posts"))
	_, err = s.Get(ctx, "posts")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client)
	ctx := context.Background()

	_, err := s.Get(ctx, "user_profile")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "user_profile", `{"nickname":"n"}`))
	v, err := s.Get(ctx, "user_profile")
	require.NoError(t, err)
	assert.Equal(t, `{"nickname":"n"}`, v)

	require.NoError(t, s.Delete(ctx, "user_profile"))
	_, err = s.Get(ctx, "user_profile")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ValuesHaveNoTTL(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "image_mapping", "{}"))
	assert.Negative(t, int64(client.TTL(ctx, "image_mapping").Val()),
		"store entries must be durable, not cached")
}
