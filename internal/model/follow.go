package model

import (
	"time"
)

// Follower 关注关系（FollowerID 关注 FolloweeID）
type Follower struct {
	ID         string `gorm:"primaryKey;type:varchar(24)" json:"_id"`
	FollowerID string `gorm:"type:varchar(24);index:idx_follow_follower;index:idx_follow_pair,unique;not null" json:"followerId"`
	FolloweeID string `gorm:"type:varchar(24);not null;index:idx_follow_followee;index:idx_follow_pair,unique" json:"followeeId"`
	// 复合唯一键，避免重复关注
	// idx_follow_pair = (follower_id, followee_id)
	CreatedAt time.Time `json:"createdAt"`
}

func (Follower) TableName() string { return "followers" }
