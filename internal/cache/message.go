package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/kvstore"
	"github.com/d60-Lab/socialgraph/internal/model"
)

// MessageCache 会话存为 messages:<conversationId> 列表。
// messageIndex:<conversationId> 记录消息 id 到列表下标的映射；
// 消息只追加、修改用 LSET，所以下标不变
type MessageCache struct {
	store *kvstore.Store
}

func NewMessageCache(store *kvstore.Store) *MessageCache { return &MessageCache{store: store} }

// AddChatList 在双方的会话列表里关联 conversationID，
// 已有的关联保持不变
func (c *MessageCache) AddChatList(ctx context.Context, senderID, receiverID, conversationID string) error {
	if err := c.addEntry(ctx, senderID, receiverID, conversationID); err != nil {
		return err
	}
	return c.addEntry(ctx, receiverID, senderID, conversationID)
}

func (c *MessageCache) addEntry(ctx context.Context, actorID, otherID, conversationID string) error {
	b, err := json.Marshal(model.ChatListEntry{ReceiverID: otherID, ConversationID: conversationID})
	if err != nil {
		return err
	}
	_, err = c.store.Run(ctx, addChatEntry, []string{chatIndexKey(actorID), chatListKey(actorID)}, otherID, conversationID, string(b))
	return err
}

// ConversationID 返回两人之间缓存中的会话 id
func (c *MessageCache) ConversationID(ctx context.Context, senderID, receiverID string) (string, bool, error) {
	return c.store.HGet(ctx, chatIndexKey(senderID), receiverID)
}

// ChatList 按打开顺序返回 actorID 的会话
func (c *MessageCache) ChatList(ctx context.Context, actorID string) ([]model.ChatListEntry, error) {
	raws, err := c.store.LRange(ctx, chatListKey(actorID), 0, -1)
	if err != nil {
		return nil, err
	}
	out := make([]model.ChatListEntry, 0, len(raws))
	for _, raw := range raws {
		var e model.ChatListEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// AddMessage 同一消息只追加一次，重试的 id 被忽略
func (c *MessageCache) AddMessage(ctx context.Context, msg *model.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	keys := []string{messagesKey(msg.ConversationID), messageIndexKey(msg.ConversationID)}
	_, err = c.store.Run(ctx, appendIndexed, keys, msg.ID, string(b))
	return err
}

// ConversationList 返回 actorID 每个会话的最后一条消息
func (c *MessageCache) ConversationList(ctx context.Context, actorID string) ([]*model.Message, error) {
	entries, err := c.ChatList(ctx, actorID)
	if err != nil || len(entries) == 0 {
		return []*model.Message{}, err
	}
	cmds := make([]*redis.StringCmd, len(entries))
	if err := c.store.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, e := range entries {
			cmds[i] = p.LIndex(ctx, messagesKey(e.ConversationID), -1)
		}
		return nil
	}); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	out := make([]*model.Message, 0, len(entries))
	for _, cmd := range cmds {
		raw, err := cmd.Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.CacheUnavailable, "lindex", err)
		}
		m, err := decodeMessage(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Messages 按发送顺序返回两人之间的消息
func (c *MessageCache) Messages(ctx context.Context, senderID, receiverID string) ([]*model.Message, error) {
	convID, ok, err := c.ConversationID(ctx, senderID, receiverID)
	if err != nil || !ok {
		return []*model.Message{}, err
	}
	return c.ConversationMessages(ctx, convID)
}

func (c *MessageCache) ConversationMessages(ctx context.Context, conversationID string) ([]*model.Message, error) {
	raws, err := c.store.LRange(ctx, messagesKey(conversationID), 0, -1)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Message, 0, len(raws))
	for _, raw := range raws {
		m, err := decodeMessage(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// MarkDeleted 设置软删除标记；消息未缓存时返回 nil, nil
func (c *MessageCache) MarkDeleted(ctx context.Context, senderID, receiverID, messageID string, dt model.DeleteType) (*model.Message, error) {
	convID, ok, err := c.ConversationID(ctx, senderID, receiverID)
	if err != nil || !ok {
		return nil, err
	}
	return c.updateMessage(ctx, convID, messageID, func(m *model.Message) { dt.Apply(m) })
}

// MarkRead 把会话里所有未读消息标为已读，
// 返回最后一条消息
func (c *MessageCache) MarkRead(ctx context.Context, senderID, receiverID string) (*model.Message, error) {
	convID, ok, err := c.ConversationID(ctx, senderID, receiverID)
	if err != nil || !ok {
		return nil, err
	}
	key := messagesKey(convID)
	var last *model.Message
	err = c.store.Watch(ctx, 5, func(tx *redis.Tx) error {
		last = nil
		raws, err := tx.LRange(ctx, key, 0, -1).Result()
		if err != nil {
			return err
		}
		type edit struct {
			pos int64
			raw string
		}
		var edits []edit
		for i, raw := range raws {
			m, err := decodeMessage(raw)
			if err != nil {
				return err
			}
			if !m.IsRead {
				m.IsRead = true
				b, err := json.Marshal(m)
				if err != nil {
					return err
				}
				edits = append(edits, edit{int64(i), string(b)})
			}
			last = m
		}
		if len(edits) == 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			for _, e := range edits {
				p.LSet(ctx, key, e.pos, e.raw)
			}
			return nil
		})
		return err
	}, key)
	return last, err
}

// UpdateReaction 增加或移除 senderName 对消息的表情；
// 每个发送者最多保留一个
func (c *MessageCache) UpdateReaction(ctx context.Context, conversationID, messageID, senderName string, t model.ReactionType, add bool) (*model.Message, error) {
	return c.updateMessage(ctx, conversationID, messageID, func(m *model.Message) {
		m.SetReaction(senderName, t, add)
	})
}

// updateMessage 通过 id 索引定位消息并原地改写
func (c *MessageCache) updateMessage(ctx context.Context, conversationID, messageID string, fn func(*model.Message)) (*model.Message, error) {
	pos, ok, err := c.store.HGet(ctx, messageIndexKey(conversationID), messageID)
	if err != nil || !ok {
		return nil, err
	}
	i, err := strconv.ParseInt(pos, 10, 64)
	if err != nil {
		return nil, err
	}
	key := messagesKey(conversationID)
	var out *model.Message
	err = c.store.Watch(ctx, 5, func(tx *redis.Tx) error {
		out = nil
		raw, err := tx.LIndex(ctx, key, i).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		m, err := decodeMessage(raw)
		if err != nil {
			return err
		}
		if m.ID != messageID {
			return nil
		}
		fn(m)
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.LSet(ctx, key, i, string(b))
			return nil
		})
		if err == nil {
			out = m
		}
		return err
	}, key)
	return out, err
}

// ChatUsers 列出当前正在聊天的所有用户对
func (c *MessageCache) ChatUsers(ctx context.Context) ([]model.ChatUsers, error) {
	raws, err := c.store.LRange(ctx, chatUsersKey, 0, -1)
	if err != nil {
		return nil, err
	}
	out := make([]model.ChatUsers, 0, len(raws))
	for _, raw := range raws {
		var cu model.ChatUsers
		if err := json.Unmarshal([]byte(raw), &cu); err != nil {
			return nil, err
		}
		out = append(out, cu)
	}
	return out, nil
}

// AddChatUsers 记录一对正在聊天的用户，返回全部用户对
func (c *MessageCache) AddChatUsers(ctx context.Context, pair model.ChatUsers) ([]model.ChatUsers, error) {
	return c.editChatUsers(ctx, pair, true)
}

// RemoveChatUsers 删除该用户对（顺序无关），返回剩下的
func (c *MessageCache) RemoveChatUsers(ctx context.Context, pair model.ChatUsers) ([]model.ChatUsers, error) {
	return c.editChatUsers(ctx, pair, false)
}

func (c *MessageCache) editChatUsers(ctx context.Context, pair model.ChatUsers, add bool) ([]model.ChatUsers, error) {
	var out []model.ChatUsers
	err := c.store.Watch(ctx, 5, func(tx *redis.Tx) error {
		out = out[:0]
		raws, err := tx.LRange(ctx, chatUsersKey, 0, -1).Result()
		if err != nil {
			return err
		}
		var drop []string
		found := false
		for _, raw := range raws {
			var cu model.ChatUsers
			if err := json.Unmarshal([]byte(raw), &cu); err != nil {
				return err
			}
			if cu.Same(pair) {
				if !add {
					drop = append(drop, raw)
					continue
				}
				found = true
			}
			out = append(out, cu)
		}
		var push string
		if add && !found {
			b, err := json.Marshal(pair)
			if err != nil {
				return err
			}
			push = string(b)
			out = append(out, pair)
		}
		if push == "" && len(drop) == 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			for _, raw := range drop {
				p.LRem(ctx, chatUsersKey, 1, raw)
			}
			if push != "" {
				p.RPush(ctx, chatUsersKey, push)
			}
			return nil
		})
		return err
	}, chatUsersKey)
	return out, err
}

func decodeMessage(raw string) (*model.Message, error) {
	var m model.Message
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return &m, nil
}
