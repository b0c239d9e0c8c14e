package cache

import (
	"context"

	"github.com/d60-Lab/socialgraph/internal/kvstore"
	"github.com/d60-Lab/socialgraph/internal/model"
)

// FollowerCache 维护 followers:<id> / following:<id> 两个列表，
// 以及用户 hash 上的两个冗余计数
type FollowerCache struct {
	store *kvstore.Store
}

func NewFollowerCache(store *kvstore.Store) *FollowerCache { return &FollowerCache{store: store} }

// Follow 新增 followerID -> followeeID；边已存在时 created 为 false
func (c *FollowerCache) Follow(ctx context.Context, followerID, followeeID string) (created bool, err error) {
	return c.flip(ctx, followerID, followeeID, true)
}

// Unfollow 删除边；没有可删的边时 removed 为 false
func (c *FollowerCache) Unfollow(ctx context.Context, followerID, followeeID string) (removed bool, err error) {
	return c.flip(ctx, followerID, followeeID, false)
}

func (c *FollowerCache) flip(ctx context.Context, followerID, followeeID string, follow bool) (bool, error) {
	mode := "0"
	if follow {
		mode = "1"
	}
	keys := []string{followersKey(followeeID), followingKey(followerID), userKey(followeeID), userKey(followerID)}
	v, err := c.store.Run(ctx, followEdge, keys, followerID, followeeID, mode,
		model.CounterFollowers.Field, model.CounterFollowing.Field)
	if err != nil {
		return false, err
	}
	n, _ := v.(int64)
	return n == 1, nil
}

// Followers 关注 userID 的人，最近的在前
func (c *FollowerCache) Followers(ctx context.Context, userID string) ([]string, error) {
	return c.store.LRange(ctx, followersKey(userID), 0, -1)
}

// Following userID 关注的人，最近的在前
func (c *FollowerCache) Following(ctx context.Context, userID string) ([]string, error) {
	return c.store.LRange(ctx, followingKey(userID), 0, -1)
}

func (c *FollowerCache) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	ids, err := c.Following(ctx, followerID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == followeeID {
			return true, nil
		}
	}
	return false, nil
}
