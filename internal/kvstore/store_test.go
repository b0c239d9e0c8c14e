package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/internal/apperr"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, time.Second), mr
}

func TestStore_HashAndMiss(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.HSet(ctx, "users:1", map[string]interface{}{"username": "ann", "postsCount": "0"}))
	n, err := s.HIncrBy(ctx, "users:1", "postsCount", 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	v, ok, err := s.HGet(ctx, "users:1", "username")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ann", v)

	_, ok, err = s.HGet(ctx, "users:1", "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	m, err := s.HGetAll(ctx, "users:404")
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestStore_ListAndSortedSet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.ZAdd(ctx, "post", float64(i), id))
	}
	ids, err := s.ZRevRange(ctx, "post", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, ids)

	rank, ok, err := s.ZRevRank(ctx, "post", "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 2, rank)

	_, ok, err = s.ZRevRank(ctx, "post", "zzz")
	require.NoError(t, err)
	assert.False(t, ok)

	l, err := s.RPush(ctx, "comments:p", "x", "y")
	require.NoError(t, err)
	assert.EqualValues(t, 2, l)
	_, ok, err = s.LIndex(ctx, "comments:p", 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_UnavailableIsWrapped(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	_, err := s.HGetAll(context.Background(), "users:1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrCacheUnavailable)
}

func TestStore_TxPipelined(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	err := s.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, "posts:1", "post", "hello")
		p.ZAdd(ctx, "post", redis.Z{Score: 1, Member: "1"})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", mr.HGet("posts:1", "post"))
	members, _ := mr.ZMembers("post")
	assert.Equal(t, []string{"1"}, members)
}
