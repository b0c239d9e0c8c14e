package model

import "time"

// Comment 评论，只追加
type Comment struct {
	ID             string    `gorm:"primaryKey;type:varchar(24)" json:"_id"`
	PostID         string    `gorm:"type:varchar(24);index:idx_comment_post;not null" json:"postId"`
	UserID         string    `gorm:"type:varchar(24);not null" json:"userId"`
	Username       string    `gorm:"type:varchar(64)" json:"username"`
	AvatarColor    string    `gorm:"type:varchar(16)" json:"avatarColor"`
	ProfilePicture string    `gorm:"type:varchar(512)" json:"profilePicture"`
	Body           string    `gorm:"type:text" json:"comment"`
	UserTo         string    `gorm:"type:varchar(24)" json:"userTo"`
	CreatedAt      time.Time `gorm:"index:idx_comment_post" json:"createdAt"`
}

func (Comment) TableName() string { return "comments" }

// CommentNames 评论人名列表（去重前的原始顺序）
type CommentNames struct {
	Count int      `json:"count"`
	Names []string `json:"names"`
}
