// Package realtime 把业务事件推送给在线连接。
// 事件经 Bus 广播（多进程时走 Redis pub/sub），每个进程的 Hub 再投递给本地连接。
package realtime

import (
	"context"
	"encoding/json"
)

// 命名空间
const (
	NamespacePost         = "post"
	NamespaceChat         = "chat"
	NamespaceFollower     = "follower"
	NamespaceImage        = "image"
	NamespaceNotification = "notification"
	NamespaceUser         = "user"
)

// 事件名
const (
	EventAddPost    = "add post"
	EventUpdatePost = "update post"
	EventDeletePost = "delete post"
	EventReaction   = "reaction"
	EventComment    = "comment"

	EventMessageReceived = "message received"
	EventChatList        = "chat list"
	EventMessageRead     = "message read"
	EventMessageReaction = "message reaction"
	EventChatUsers       = "chat users"

	EventAddFollower    = "add follower"
	EventRemoveFollower = "remove follower"

	EventUpdateUser  = "update user"
	EventDeleteImage = "delete image"

	EventInsertNotification = "insert notification"
	EventUpdateNotification = "update notification"
	EventDeleteNotification = "delete notification"

	EventUsersOnline     = "users online"
	EventBlockedUserID   = "blocked user id"
	EventUnblockedUserID = "unblocked user id"
)

// Event Target 为空时广播给所有连接，否则只投递给该用户
type Event struct {
	Namespace string          `json:"namespace"`
	Name      string          `json:"name"`
	Payload   json.RawMessage `json:"payload"`
	Target    string          `json:"target,omitempty"`
}

// Bus 事件总线。Subscribe 返回的 channel 在 ctx 结束后关闭。
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context) (<-chan Event, error)
}
