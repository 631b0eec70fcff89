package persist

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Lines []string `json:"lines"`
	Count int      `json:"count"`
}

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()
	key := Key("storefront", "abc", "cart-storage")

	err := SaveState(ctx, store, key, 1, sample{Lines: []string{"a", "b"}, Count: 2})
	require.NoError(t, err)
	assert.True(t, mr.Exists("storefront:abc:cart-storage"))
	assert.Equal(t, time.Hour, mr.TTL(key))

	var got sample
	require.NoError(t, LoadState(ctx, store, key, 1, &got))
	assert.Equal(t, []string{"a", "b"}, got.Lines)
	assert.Equal(t, 2, got.Count)

	require.NoError(t, store.Delete(ctx, key))
	assert.False(t, mr.Exists(key))
}

func TestRedisStore_Missing(t *testing.T) {
	store, _ := setupTestRedis(t)

	var got sample
	err := LoadState(context.Background(), store, "nope", 1, &got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecode_Incompatible(t *testing.T) {
	var got sample

	data, err := Encode(1, sample{Count: 1})
	require.NoError(t, err)
	assert.ErrorIs(t, Decode(data, 2, &got), ErrIncompatible)

	assert.ErrorIs(t, Decode([]byte(`{"items":[1,2]}`), 1, &got), ErrIncompatible)
	assert.ErrorIs(t, Decode([]byte(`not json`), 1, &got), ErrIncompatible)
	assert.ErrorIs(t, Decode([]byte(`{"version":1,"state":{"count":"x"}}`), 1, &got), ErrIncompatible)
}

func TestMemoryStore_CopiesData(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("hello")
	require.NoError(t, store.Save(ctx, "k", data))
	data[0] = 'j'

	got, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}
