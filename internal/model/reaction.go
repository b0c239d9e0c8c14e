package model

import "time"

type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionHappy ReactionType = "happy"
	ReactionWow   ReactionType = "wow"
	ReactionSad   ReactionType = "sad"
	ReactionAngry ReactionType = "angry"
)

// ReactionTypes 固定顺序
var ReactionTypes = []ReactionType{ReactionLike, ReactionLove, ReactionHappy, ReactionWow, ReactionSad, ReactionAngry}

func (t ReactionType) Valid() bool {
	for _, rt := range ReactionTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// Field 帖子 hash 中的计数字段名
func (t ReactionType) Field() string { return "reactions." + string(t) }

// Column 帖子表中的计数列名
func (t ReactionType) Column() string { return "reactions_" + string(t) }

// Reactions 每种表情的计数（固定形状）
type Reactions struct {
	Like  int `json:"like"`
	Love  int `json:"love"`
	Happy int `json:"happy"`
	Wow   int `json:"wow"`
	Sad   int `json:"sad"`
	Angry int `json:"angry"`
}

func (r *Reactions) ptr(t ReactionType) *int {
	switch t {
	case ReactionLike:
		return &r.Like
	case ReactionLove:
		return &r.Love
	case ReactionHappy:
		return &r.Happy
	case ReactionWow:
		return &r.Wow
	case ReactionSad:
		return &r.Sad
	case ReactionAngry:
		return &r.Angry
	}
	return nil
}

func (r Reactions) Get(t ReactionType) int {
	if p := r.ptr(t); p != nil {
		return *p
	}
	return 0
}

// Add 按类型累加；未知类型忽略
func (r *Reactions) Add(t ReactionType, delta int) {
	if p := r.ptr(t); p != nil {
		*p += delta
	}
}

// Set 按类型赋值；未知类型忽略
func (r *Reactions) Set(t ReactionType, v int) {
	if p := r.ptr(t); p != nil {
		*p = v
	}
}

// Reaction 某用户对某帖子的唯一表情，(post_id, user_id) 唯一
type Reaction struct {
	ID             string       `gorm:"primaryKey;type:varchar(24)" json:"_id"`
	PostID         string       `gorm:"type:varchar(24);not null;uniqueIndex:ux_reaction_post_user" json:"postId"`
	UserID         string       `gorm:"type:varchar(24);not null;uniqueIndex:ux_reaction_post_user" json:"userId"`
	Username       string       `gorm:"type:varchar(64)" json:"username"`
	AvatarColor    string       `gorm:"type:varchar(16)" json:"avatarColor"`
	ProfilePicture string       `gorm:"type:varchar(512)" json:"profilePicture"`
	Type           ReactionType `gorm:"type:varchar(16);not null" json:"type"`
	UserTo         string       `gorm:"type:varchar(24)" json:"userTo"`
	CreatedAt      time.Time    `json:"createdAt"`
}

func (Reaction) TableName() string { return "reactions" }
