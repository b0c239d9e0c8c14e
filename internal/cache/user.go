package cache

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/socialgraph/internal/kvstore"
	"github.com/d60-Lab/socialgraph/internal/model"
)

var userCodec = newCodec(
	str("_id", func(u *model.User) *string { return &u.ID }),
	str("uId", func(u *model.User) *string { return &u.UID }),
	str("username", func(u *model.User) *string { return &u.Username }),
	str("email", func(u *model.User) *string { return &u.Email }),
	str("avatarColor", func(u *model.User) *string { return &u.AvatarColor }),
	str("profilePicture", func(u *model.User) *string { return &u.ProfilePicture }),
	integer(model.CounterPosts.Field, func(u *model.User) *int { return &u.PostsCount }),
	integer(model.CounterFollowers.Field, func(u *model.User) *int { return &u.FollowersCount }),
	integer(model.CounterFollowing.Field, func(u *model.User) *int { return &u.FollowingCount }),
	jsonField("blocked", func(u *model.User) any { return &u.Blocked }),
	jsonField("blockedBy", func(u *model.User) any { return &u.BlockedBy }),
	jsonField("notifications", func(u *model.User) any { return &u.Notifications }),
	jsonField("social", func(u *model.User) any { return &u.Social }),
	str("work", func(u *model.User) *string { return &u.Work }),
	str("school", func(u *model.User) *string { return &u.School }),
	str("location", func(u *model.User) *string { return &u.Location }),
	str("quote", func(u *model.User) *string { return &u.Quote }),
	str("bgImageId", func(u *model.User) *string { return &u.BgImageID }),
	str("bgImageVersion", func(u *model.User) *string { return &u.BgImageVersion }),
	timestamp("createdAt", func(u *model.User) *time.Time { return &u.CreatedAt }),
)

// UserCache 用户存为 hash，另有按创建时间排序的索引
type UserCache struct {
	store *kvstore.Store
}

func NewUserCache(store *kvstore.Store) *UserCache { return &UserCache{store: store} }

// Save 在一个 MULTI 里写 hash 和索引。重复保存
// 只是覆盖同样的字段
func (c *UserCache) Save(ctx context.Context, u *model.User) error {
	fields, err := userCodec.encode(u)
	if err != nil {
		return err
	}
	return c.store.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, userIndexKey, redis.Z{Score: score(u.CreatedAt), Member: u.ID})
		p.HSet(ctx, userKey(u.ID), fields)
		return nil
	})
}

// Get 未命中返回 nil, nil
func (c *UserCache) Get(ctx context.Context, id string) (*model.User, error) {
	m, err := c.store.HGetAll(ctx, userKey(id))
	if err != nil {
		return nil, err
	}
	return userCodec.decode(m)
}

// UpdateField 设置单个字段并返回最新用户；用户未缓存时
// 返回 nil, nil
func (c *UserCache) UpdateField(ctx context.Context, id, name string, value any) (*model.User, error) {
	return c.UpdateFields(ctx, id, map[string]any{name: value})
}

func (c *UserCache) UpdateFields(ctx context.Context, id string, values map[string]any) (*model.User, error) {
	fields := make(map[string]interface{}, len(values))
	for name, v := range values {
		s, err := userCodec.encodeValue(name, v)
		if err != nil {
			return nil, err
		}
		fields[name] = s
	}
	key := userKey(id)
	var missing bool
	err := c.store.Watch(ctx, 3, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			missing = true
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, fields)
			return nil
		})
		return err
	}, key)
	if err != nil || missing {
		return nil, err
	}
	return c.Get(ctx, id)
}

// GetRange 索引分页，最新在前，跳过 excludeID 的方式与
// 数据库查询一致（WHERE id <> ? ORDER BY created_at DESC）
func (c *UserCache) GetRange(ctx context.Context, offset, limit int, excludeID string) ([]*model.User, error) {
	if limit <= 0 {
		return nil, nil
	}
	start, stop := int64(offset), int64(offset+limit-1)
	if excludeID != "" {
		rank, ok, err := c.store.ZRevRank(ctx, userIndexKey, excludeID)
		if err != nil {
			return nil, err
		}
		if ok {
			switch {
			case rank < start:
				start, stop = start+1, stop+1
			case rank <= stop:
				stop++
			}
		}
	}
	ids, err := c.store.ZRevRange(ctx, userIndexKey, start, stop)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != excludeID {
			out = append(out, id)
		}
	}
	return c.getMany(ctx, out)
}

// Total 缓存用户数，excludeID 在索引中时减去
func (c *UserCache) Total(ctx context.Context, excludeID string) (int, error) {
	n, err := c.store.ZCard(ctx, userIndexKey)
	if err != nil {
		return 0, err
	}
	if excludeID != "" {
		if _, ok, err := c.store.ZRevRank(ctx, userIndexKey, excludeID); err != nil {
			return 0, err
		} else if ok {
			n--
		}
	}
	return int(n), nil
}

// RandomSuggestions 最多挑 n 个 userID 还没关注的缓存用户
func (c *UserCache) RandomSuggestions(ctx context.Context, userID string, n int) ([]*model.User, error) {
	following, err := c.store.LRange(ctx, followingKey(userID), 0, -1)
	if err != nil {
		return nil, err
	}
	all, err := c.store.ZRevRange(ctx, userIndexKey, 0, -1)
	if err != nil {
		return nil, err
	}
	skip := make(map[string]struct{}, len(following)+1)
	skip[userID] = struct{}{}
	for _, id := range following {
		skip[id] = struct{}{}
	}
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	picked := make([]string, 0, n)
	for _, id := range all {
		if len(picked) == n {
			break
		}
		if _, ok := skip[id]; !ok {
			picked = append(picked, id)
		}
	}
	return c.getMany(ctx, picked)
}

// IncrCount 用户已缓存时给计数字段加 delta
func (c *UserCache) IncrCount(ctx context.Context, id string, counter model.Counter, delta int) error {
	_, err := c.store.Run(ctx, incrIfExists, []string{userKey(id)}, counter.Field, delta)
	return err
}

// SetBlocked 在两边的 hash 上记录（或清除）userID 拉黑 targetID：
// targetID 进入 userID.blocked，userID 进入 targetID.blockedBy
func (c *UserCache) SetBlocked(ctx context.Context, userID, targetID string, block bool) error {
	uk, tk := userKey(userID), userKey(targetID)
	return c.store.Watch(ctx, 5, func(tx *redis.Tx) error {
		blocked, okU, err := readIDList(ctx, tx, uk, string(model.BlockPropBlocked))
		if err != nil {
			return err
		}
		blockedBy, okT, err := readIDList(ctx, tx, tk, string(model.BlockPropBlockedBy))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			if okU {
				b, _ := json.Marshal(toggleID(blocked, targetID, block))
				p.HSet(ctx, uk, string(model.BlockPropBlocked), string(b))
			}
			if okT {
				b, _ := json.Marshal(toggleID(blockedBy, userID, block))
				p.HSet(ctx, tk, string(model.BlockPropBlockedBy), string(b))
			}
			return nil
		})
		return err
	}, uk, tk)
}

// GetMany 按 ids 顺序加载用户，未缓存的 id 跳过
func (c *UserCache) GetMany(ctx context.Context, ids []string) ([]*model.User, error) {
	return c.getMany(ctx, ids)
}

func (c *UserCache) getMany(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	if err := c.store.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, userKey(id))
		}
		return nil
	}); err != nil {
		return nil, err
	}
	out := make([]*model.User, 0, len(ids))
	for _, cmd := range cmds {
		u, err := userCodec.decode(cmd.Val())
		if err != nil {
			return nil, err
		}
		if u != nil {
			out = append(out, u)
		}
	}
	return out, nil
}

// readIDList 读取 JSON 字符串列表字段；hash 不存在时 ok=false
func readIDList(ctx context.Context, tx *redis.Tx, key, field string) ([]string, bool, error) {
	n, err := tx.Exists(ctx, key).Result()
	if err != nil || n == 0 {
		return nil, false, err
	}
	raw, err := tx.HGet(ctx, key, field).Result()
	if err == redis.Nil {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	var ids []string
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			return nil, false, err
		}
	}
	return ids, true, nil
}

func toggleID(ids []string, id string, add bool) []string {
	out := make([]string, 0, len(ids)+1)
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	if add {
		out = append(out, id)
	}
	return out
}
