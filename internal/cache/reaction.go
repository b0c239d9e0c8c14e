package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/socialgraph/internal/kvstore"
	"github.com/d60-Lab/socialgraph/internal/model"
)

// ReactionCache reactions:<postId> 中每个 (post, user) 一条，
// reactionIndex:<postId> 记录用户 id 到已存条目的映射
type ReactionCache struct {
	store *kvstore.Store
}

func NewReactionCache(store *kvstore.Store) *ReactionCache { return &ReactionCache{store: store} }

// Replace 删除用户在该帖子上的旧表情，写入 r，
// 并按净差调整帖子的分类型计数。返回替换前的类型，
// 没有时为空
func (c *ReactionCache) Replace(ctx context.Context, r *model.Reaction) (model.ReactionType, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	raw := string(b)
	return c.mutate(ctx, r.PostID, r.UserID, func(p redis.Pipeliner, lk, ik, pk string, prev *model.Reaction, prevRaw string, postExists bool) {
		if prev != nil {
			p.LRem(ctx, lk, 1, prevRaw)
		}
		p.LPush(ctx, lk, raw)
		p.HSet(ctx, ik, r.UserID, raw)
		if !postExists {
			return
		}
		if prev != nil && prev.Type != r.Type {
			p.HIncrBy(ctx, pk, prev.Type.Field(), -1)
		}
		if prev == nil || prev.Type != r.Type {
			p.HIncrBy(ctx, pk, r.Type.Field(), 1)
		}
	})
}

// Remove 删除用户的表情（若有），返回其类型
func (c *ReactionCache) Remove(ctx context.Context, postID, userID string) (model.ReactionType, error) {
	return c.mutate(ctx, postID, userID, func(p redis.Pipeliner, lk, ik, pk string, prev *model.Reaction, prevRaw string, postExists bool) {
		if prev == nil {
			return
		}
		p.LRem(ctx, lk, 1, prevRaw)
		p.HDel(ctx, ik, userID)
		if postExists {
			p.HIncrBy(ctx, pk, prev.Type.Field(), -1)
		}
	})
}

type reactionMutation func(p redis.Pipeliner, listKey, indexKey, postKey string, prev *model.Reaction, prevRaw string, postExists bool)

func (c *ReactionCache) mutate(ctx context.Context, postID, userID string, fn reactionMutation) (model.ReactionType, error) {
	lk, ik, pk := reactionsKey(postID), reactionIndexKey(postID), postKey(postID)
	var prevType model.ReactionType
	err := c.store.Watch(ctx, 5, func(tx *redis.Tx) error {
		prevType = ""
		prevRaw, err := tx.HGet(ctx, ik, userID).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		var prev *model.Reaction
		if prevRaw != "" {
			prev = new(model.Reaction)
			if err := json.Unmarshal([]byte(prevRaw), prev); err != nil {
				return err
			}
			prevType = prev.Type
		}
		n, err := tx.Exists(ctx, pk).Result()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			fn(p, lk, ik, pk, prev, prevRaw, n == 1)
			return nil
		})
		return err
	}, ik, pk)
	return prevType, err
}

// List 返回帖子的表情，最新在前
func (c *ReactionCache) List(ctx context.Context, postID string) ([]*model.Reaction, error) {
	raws, err := c.store.LRange(ctx, reactionsKey(postID), 0, -1)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Reaction, 0, len(raws))
	for _, raw := range raws {
		var r model.Reaction
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, nil
}

// GetByUser 用户在该帖子上没有表情时返回 nil, nil
func (c *ReactionCache) GetByUser(ctx context.Context, postID, userID string) (*model.Reaction, error) {
	raw, ok, err := c.store.HGet(ctx, reactionIndexKey(postID), userID)
	if err != nil || !ok {
		return nil, err
	}
	var r model.Reaction
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, err
	}
	return &r, nil
}
