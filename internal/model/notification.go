package model

import "time"

type NotificationType string

const (
	NotificationComment  NotificationType = "comments"
	NotificationReaction NotificationType = "reactions"
	NotificationFollow   NotificationType = "follows"
	NotificationMessage  NotificationType = "messages"
)

// Notification 直接持久化，不经过缓存
type Notification struct {
	ID               string           `gorm:"primaryKey;type:varchar(24)" json:"_id"`
	UserTo           string           `gorm:"type:varchar(24);index:idx_notification_user;not null" json:"userTo"`
	UserFrom         string           `gorm:"type:varchar(24);not null" json:"userFrom"`
	Message          string           `gorm:"type:text" json:"message"`
	NotificationType NotificationType `gorm:"type:varchar(16)" json:"notificationType"`
	EntityID         string           `gorm:"type:varchar(24)" json:"entityId"`
	CreatedItemID    string           `gorm:"type:varchar(24);uniqueIndex:ux_notification_item" json:"createdItemId"`
	Comment          string           `gorm:"type:text" json:"comment"`
	Reaction         string           `gorm:"type:varchar(16)" json:"reaction"`
	Post             string           `gorm:"type:text" json:"post"`
	ImgID            string           `gorm:"type:varchar(128)" json:"imgId"`
	ImgVersion       string           `gorm:"type:varchar(32)" json:"imgVersion"`
	GifURL           string           `gorm:"type:varchar(512)" json:"gifUrl"`
	Read             bool             `gorm:"index:idx_notification_user" json:"read"`
	CreatedAt        time.Time        `gorm:"index:idx_notification_user" json:"createdAt"`
}

func (Notification) TableName() string { return "notifications" }

// Enabled 收件人是否接收该类通知
func (s NotificationSettings) Enabled(t NotificationType) bool {
	switch t {
	case NotificationComment:
		return s.Comments
	case NotificationReaction:
		return s.Reactions
	case NotificationFollow:
		return s.Follows
	case NotificationMessage:
		return s.Messages
	}
	return false
}
