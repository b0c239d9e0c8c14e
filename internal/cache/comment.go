package cache

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/d60-Lab/socialgraph/internal/kvstore"
	"github.com/d60-Lab/socialgraph/internal/model"
)

// CommentCache 每个帖子一个只追加的列表，按评论 id 建索引
type CommentCache struct {
	store *kvstore.Store
}

func NewCommentCache(store *kvstore.Store) *CommentCache { return &CommentCache{store: store} }

// Append 同一评论只写一次，并给帖子的 commentsCount +1。
// 相同评论 id 重试不产生变化。added 表示这次调用是否真正追加了
func (c *CommentCache) Append(ctx context.Context, cm *model.Comment) (added bool, err error) {
	b, err := json.Marshal(cm)
	if err != nil {
		return false, err
	}
	keys := []string{commentsKey(cm.PostID), commentIndexKey(cm.PostID), postKey(cm.PostID)}
	v, err := c.store.Run(ctx, appendIndexed, keys, cm.ID, string(b), model.CounterComments.Field)
	if err != nil {
		return false, err
	}
	n, _ := v.(int64)
	return n == 1, nil
}

// List 按写入顺序返回帖子的评论
func (c *CommentCache) List(ctx context.Context, postID string) ([]*model.Comment, error) {
	raws, err := c.store.LRange(ctx, commentsKey(postID), 0, -1)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Comment, 0, len(raws))
	for _, raw := range raws {
		var cm model.Comment
		if err := json.Unmarshal([]byte(raw), &cm); err != nil {
			return nil, err
		}
		out = append(out, &cm)
	}
	return out, nil
}

// Names 按评论顺序列出评论者用户名
func (c *CommentCache) Names(ctx context.Context, postID string) (*model.CommentNames, error) {
	list, err := c.List(ctx, postID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(list))
	for _, cm := range list {
		names = append(names, cm.Username)
	}
	return &model.CommentNames{Count: len(list), Names: names}, nil
}

// Get 未缓存时返回 nil, nil
func (c *CommentCache) Get(ctx context.Context, postID, commentID string) (*model.Comment, error) {
	pos, ok, err := c.store.HGet(ctx, commentIndexKey(postID), commentID)
	if err != nil || !ok {
		return nil, err
	}
	i, err := strconv.ParseInt(pos, 10, 64)
	if err != nil {
		return nil, err
	}
	raw, ok, err := c.store.LIndex(ctx, commentsKey(postID), i)
	if err != nil || !ok {
		return nil, err
	}
	var cm model.Comment
	if err := json.Unmarshal([]byte(raw), &cm); err != nil {
		return nil, err
	}
	if cm.ID != commentID {
		return nil, nil
	}
	return &cm, nil
}
