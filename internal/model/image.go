package model

import "time"

// Image 用户上传的图片记录（头像、背景、帖子图片）
type Image struct {
	ID             string    `gorm:"primaryKey;type:varchar(24)" json:"_id"`
	UserID         string    `gorm:"type:varchar(24);index:idx_image_user;not null" json:"userId"`
	ImgID          string    `gorm:"type:varchar(128)" json:"imgId"`
	ImgVersion     string    `gorm:"type:varchar(32)" json:"imgVersion"`
	BgImageID      string    `gorm:"type:varchar(128)" json:"bgImageId"`
	BgImageVersion string    `gorm:"type:varchar(32)" json:"bgImageVersion"`
	CreatedAt      time.Time `gorm:"index:idx_image_user" json:"createdAt"`
}

func (Image) TableName() string { return "images" }
