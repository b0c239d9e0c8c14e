package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReconciler_RemovesDanglingMembers(t *testing.T) {
	store, mr := newTestStore(t)
	users, posts := NewUserCache(store), NewPostCache(store)
	ctx := context.Background()

	u := fakeUser(0)
	require.NoError(t, users.Save(ctx, u))
	kept, lost := fakePost(u, 0), fakePost(u, 1)
	lost.ImgID = "img"
	require.NoError(t, posts.Save(ctx, kept))
	require.NoError(t, posts.Save(ctx, lost))

	// 模拟崩溃：hash 丢了，索引还在
	mr.Del(postKey(lost.ID))

	r := NewReconciler(store, 0, zap.NewNop())
	removed, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	for _, key := range []string{postIndexKey, userPostsKey(u.ID)} {
		members, err := mr.ZMembers(key)
		require.NoError(t, err)
		assert.Equal(t, []string{kept.ID}, members, key)
	}
	assert.False(t, mr.Exists(postImagesKey))

	removed, err = r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
