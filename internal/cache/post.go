package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/socialgraph/internal/kvstore"
	"github.com/d60-Lab/socialgraph/internal/model"
)

var postCodec = newCodec(
	str("_id", func(p *model.Post) *string { return &p.ID }),
	str("userId", func(p *model.Post) *string { return &p.UserID }),
	str("username", func(p *model.Post) *string { return &p.Username }),
	str("email", func(p *model.Post) *string { return &p.Email }),
	str("avatarColor", func(p *model.Post) *string { return &p.AvatarColor }),
	str("profilePicture", func(p *model.Post) *string { return &p.ProfilePicture }),
	str("post", func(p *model.Post) *string { return &p.Body }),
	str("bgColor", func(p *model.Post) *string { return &p.BgColor }),
	str("privacy", func(p *model.Post) *string { return (*string)(&p.Privacy) }),
	str("feelings", func(p *model.Post) *string { return &p.Feelings }),
	str("gifUrl", func(p *model.Post) *string { return &p.GifURL }),
	str("imgId", func(p *model.Post) *string { return &p.ImgID }),
	str("imgVersion", func(p *model.Post) *string { return &p.ImgVersion }),
	str("videoId", func(p *model.Post) *string { return &p.VideoID }),
	str("videoVersion", func(p *model.Post) *string { return &p.VideoVersion }),
	integer(model.CounterComments.Field, func(p *model.Post) *int { return &p.CommentsCount }),
	integer(model.ReactionLike.Field(), func(p *model.Post) *int { return &p.Reactions.Like }),
	integer(model.ReactionLove.Field(), func(p *model.Post) *int { return &p.Reactions.Love }),
	integer(model.ReactionHappy.Field(), func(p *model.Post) *int { return &p.Reactions.Happy }),
	integer(model.ReactionWow.Field(), func(p *model.Post) *int { return &p.Reactions.Wow }),
	integer(model.ReactionSad.Field(), func(p *model.Post) *int { return &p.Reactions.Sad }),
	integer(model.ReactionAngry.Field(), func(p *model.Post) *int { return &p.Reactions.Angry }),
	timestamp("createdAt", func(p *model.Post) *time.Time { return &p.CreatedAt }),
)

// contentFields 作者更新时唯一允许覆盖的字段
var contentFields = []string{"post", "bgColor", "privacy", "feelings", "gifUrl", "imgId", "imgVersion", "videoId", "videoVersion"}

// PostCache 让 posts:<id> hash 与全站 feed、用户 feed、
// 带图子集保持一致
type PostCache struct {
	store *kvstore.Store
}

func NewPostCache(store *kvstore.Store) *PostCache { return &PostCache{store: store} }

// Save 在一个 MULTI 里写 hash 和所有索引。作者的
// postsCount 只在帖子 id 首次写入时变化
func (c *PostCache) Save(ctx context.Context, p *model.Post) error {
	fields, err := postCodec.encode(p)
	if err != nil {
		return err
	}
	pk, uk := postKey(p.ID), userKey(p.UserID)
	return c.store.Watch(ctx, 5, func(tx *redis.Tx) error {
		existed, err := tx.Exists(ctx, pk).Result()
		if err != nil {
			return err
		}
		author, err := tx.Exists(ctx, uk).Result()
		if err != nil {
			return err
		}
		z := redis.Z{Score: score(p.CreatedAt), Member: p.ID}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, pk, fields)
			pipe.ZAdd(ctx, postIndexKey, z)
			pipe.ZAdd(ctx, userPostsKey(p.UserID), z)
			if p.HasImage() {
				pipe.ZAdd(ctx, postImagesKey, z)
			} else {
				pipe.ZRem(ctx, postImagesKey, p.ID)
			}
			if existed == 0 && author == 1 {
				pipe.HIncrBy(ctx, uk, model.CounterPosts.Field, 1)
			}
			return nil
		})
		return err
	}, pk, uk)
}

// Get 未命中返回 nil, nil
func (c *PostCache) Get(ctx context.Context, id string) (*model.Post, error) {
	m, err := c.store.HGetAll(ctx, postKey(id))
	if err != nil {
		return nil, err
	}
	return postCodec.decode(m)
}

// GetRange 全站 feed 分页，最新在前
func (c *PostCache) GetRange(ctx context.Context, offset, limit int) ([]*model.Post, error) {
	return c.rangeOf(ctx, postIndexKey, offset, limit)
}

func (c *PostCache) GetImageRange(ctx context.Context, offset, limit int) ([]*model.Post, error) {
	return c.rangeOf(ctx, postImagesKey, offset, limit)
}

func (c *PostCache) GetUserPosts(ctx context.Context, userID string, offset, limit int) ([]*model.Post, error) {
	return c.rangeOf(ctx, userPostsKey(userID), offset, limit)
}

func (c *PostCache) Total(ctx context.Context) (int, error) { return c.card(ctx, postIndexKey) }

func (c *PostCache) TotalImages(ctx context.Context) (int, error) { return c.card(ctx, postImagesKey) }

func (c *PostCache) TotalForUser(ctx context.Context, userID string) (int, error) {
	return c.card(ctx, userPostsKey(userID))
}

// Update 只覆盖内容字段，计数不动，并按需把帖子移入或移出
// 带图子集。未缓存时返回 nil, nil
func (c *PostCache) Update(ctx context.Context, id string, u model.PostUpdate) (*model.Post, error) {
	pk := postKey(id)
	var missing bool
	err := c.store.Watch(ctx, 5, func(tx *redis.Tx) error {
		m, err := tx.HGetAll(ctx, pk).Result()
		if err != nil {
			return err
		}
		cur, err := postCodec.decode(m)
		if err != nil {
			return err
		}
		if cur == nil {
			missing = true
			return nil
		}
		u.Apply(cur)
		all, err := postCodec.encode(cur)
		if err != nil {
			return err
		}
		fields := make(map[string]interface{}, len(contentFields))
		for _, name := range contentFields {
			fields[name] = all[name]
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, pk, fields)
			if cur.HasImage() {
				pipe.ZAdd(ctx, postImagesKey, redis.Z{Score: score(cur.CreatedAt), Member: id})
			} else {
				pipe.ZRem(ctx, postImagesKey, id)
			}
			return nil
		})
		return err
	}, pk)
	if err != nil || missing {
		return nil, err
	}
	return c.Get(ctx, id)
}

// Delete 在一个 MULTI 里删除 hash、评论、表情和所有索引。
// 只有 hash 仍存在时 postsCount 才变化
func (c *PostCache) Delete(ctx context.Context, id, userID string) error {
	pk, uk := postKey(id), userKey(userID)
	return c.store.Watch(ctx, 5, func(tx *redis.Tx) error {
		existed, err := tx.Exists(ctx, pk).Result()
		if err != nil {
			return err
		}
		author, err := tx.Exists(ctx, uk).Result()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, pk, commentsKey(id), commentIndexKey(id), reactionsKey(id), reactionIndexKey(id))
			pipe.ZRem(ctx, postIndexKey, id)
			pipe.ZRem(ctx, userPostsKey(userID), id)
			pipe.ZRem(ctx, postImagesKey, id)
			if existed == 1 && author == 1 {
				pipe.HIncrBy(ctx, uk, model.CounterPosts.Field, -1)
			}
			return nil
		})
		return err
	}, pk, uk)
}

func (c *PostCache) rangeOf(ctx context.Context, key string, offset, limit int) ([]*model.Post, error) {
	if limit <= 0 {
		return []*model.Post{}, nil
	}
	ids, err := c.store.ZRevRange(ctx, key, int64(offset), int64(offset+limit-1))
	if err != nil {
		return nil, err
	}
	return c.getMany(ctx, ids)
}

func (c *PostCache) getMany(ctx context.Context, ids []string) ([]*model.Post, error) {
	out := make([]*model.Post, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	if err := c.store.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, postKey(id))
		}
		return nil
	}); err != nil {
		return nil, err
	}
	for _, cmd := range cmds {
		p, err := postCodec.decode(cmd.Val())
		if err != nil {
			return nil, err
		}
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *PostCache) card(ctx context.Context, key string) (int, error) {
	n, err := c.store.ZCard(ctx, key)
	return int(n), err
}
