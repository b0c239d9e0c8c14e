// Package jobs 定义各队列任务的负载格式，服务端写入、worker 读取。
package jobs

import "github.com/d60-Lab/socialgraph/internal/model"

// AddUser model.User 的密码不参与 JSON，哈希单独携带
type AddUser struct {
	User         *model.User `json:"user"`
	PasswordHash string      `json:"passwordHash"`
}

type UpdateUserInfo struct {
	UserID string         `json:"userId"`
	Info   model.UserInfo `json:"info"`
}

type UpdateSocialLinks struct {
	UserID string            `json:"userId"`
	Links  model.SocialLinks `json:"links"`
}

type UpdateNotificationSettings struct {
	UserID   string                     `json:"userId"`
	Settings model.NotificationSettings `json:"settings"`
}

type UpdatePassword struct {
	UserID       string `json:"userId"`
	PasswordHash string `json:"passwordHash"`
}

type AddPost struct {
	Post *model.Post `json:"post"`
}

type UpdatePost struct {
	PostID string           `json:"postId"`
	Update model.PostUpdate `json:"update"`
}

type DeletePost struct {
	PostID string `json:"postId"`
	UserID string `json:"userId"`
}

type AddComment struct {
	Comment *model.Comment `json:"comment"`
}

// AddReaction Previous 是缓存侧替换前的类型，仅用于通知判断
type AddReaction struct {
	Reaction *model.Reaction   `json:"reaction"`
	Previous model.ReactionType `json:"previousReaction,omitempty"`
}

type RemoveReaction struct {
	PostID   string             `json:"postId"`
	UserID   string             `json:"userId"`
	Previous model.ReactionType `json:"previousReaction"`
}

// Follow FollowerID 关注 FolloweeID；ID 标识这次关注动作，用于通知去重
type Follow struct {
	ID         string `json:"id"`
	FollowerID string `json:"followerId"`
	FolloweeID string `json:"followeeId"`
}

type Block struct {
	UserID   string `json:"userId"`
	TargetID string `json:"targetId"`
}

type AddChatMessage struct {
	Message *model.Message `json:"message"`
}

type MarkMessageDeleted struct {
	MessageID string           `json:"messageId"`
	Type      model.DeleteType `json:"type"`
}

type MarkMessagesRead struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

type UpdateMessageReaction struct {
	MessageID  string             `json:"messageId"`
	SenderName string             `json:"senderName"`
	Type       model.ReactionType `json:"type"`
	Add        bool               `json:"add"`
}

type ProfileImage struct {
	Image *model.Image `json:"image"`
	URL   string       `json:"url"`
}

type Image struct {
	Image *model.Image `json:"image"`
}

type RemoveImage struct {
	ImageID string `json:"imageId"`
}

type Notification struct {
	NotificationID string `json:"notificationId"`
}
