package model

import "time"

// NotificationSettings 用户通知偏好
type NotificationSettings struct {
	Messages  bool `json:"messages"`
	Reactions bool `json:"reactions"`
	Comments  bool `json:"comments"`
	Follows   bool `json:"follows"`
}

// DefaultNotificationSettings 新用户默认全部开启
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{Messages: true, Reactions: true, Comments: true, Follows: true}
}

type SocialLinks struct {
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	Twitter   string `json:"twitter"`
	Youtube   string `json:"youtube"`
}

// User 用户资料及冗余计数
type User struct {
	ID             string               `gorm:"primaryKey;type:varchar(24)" json:"_id"`
	UID            string               `gorm:"type:varchar(32);index" json:"uId"`
	Username       string               `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Email          string               `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password       string               `gorm:"type:varchar(255)" json:"-"`
	AvatarColor    string               `gorm:"type:varchar(16)" json:"avatarColor"`
	ProfilePicture string               `gorm:"type:varchar(512)" json:"profilePicture"`
	PostsCount     int                  `json:"postsCount"`
	FollowersCount int                  `json:"followersCount"`
	FollowingCount int                  `json:"followingCount"`
	Blocked        []string             `gorm:"serializer:json" json:"blocked"`
	BlockedBy      []string             `gorm:"serializer:json" json:"blockedBy"`
	Notifications  NotificationSettings `gorm:"serializer:json" json:"notifications"`
	Social         SocialLinks          `gorm:"serializer:json" json:"social"`
	Work           string               `json:"work"`
	School         string               `json:"school"`
	Location       string               `json:"location"`
	Quote          string               `json:"quote"`
	BgImageID      string               `json:"bgImageId"`
	BgImageVersion string               `json:"bgImageVersion"`
	CreatedAt      time.Time            `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time            `json:"-"`
}

func (User) TableName() string { return "users" }

// UserInfo 可编辑的基础资料
type UserInfo struct {
	Work     string `json:"work" validate:"max=100"`
	School   string `json:"school" validate:"max=100"`
	Location string `json:"location" validate:"max=100"`
	Quote    string `json:"quote" validate:"max=200"`
}

// BlockProp 拉黑关系落在哪一侧
type BlockProp string

const (
	BlockPropBlocked   BlockProp = "blocked"
	BlockPropBlockedBy BlockProp = "blockedBy"
)

func (p BlockProp) Column() string {
	if p == BlockPropBlockedBy {
		return "blocked_by"
	}
	return "blocked"
}
