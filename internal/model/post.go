package model

import "time"

// Privacy 帖子可见范围
type Privacy string

const (
	PrivacyPublic    Privacy = "Public"
	PrivacyFollowers Privacy = "Followers"
	PrivacyPrivate   Privacy = "Private"
)

// Post 帖子；Reactions 以 reactions_ 前缀平铺成列
type Post struct {
	ID             string    `gorm:"primaryKey;type:varchar(24)" json:"_id"`
	UserID         string    `gorm:"type:varchar(24);index:idx_post_user;not null" json:"userId"`
	Username       string    `gorm:"type:varchar(64)" json:"username"`
	Email          string    `gorm:"type:varchar(255)" json:"email"`
	AvatarColor    string    `gorm:"type:varchar(16)" json:"avatarColor"`
	ProfilePicture string    `gorm:"type:varchar(512)" json:"profilePicture"`
	Body           string    `gorm:"type:text" json:"post"`
	BgColor        string    `gorm:"type:varchar(16)" json:"bgColor"`
	Privacy        Privacy   `gorm:"type:varchar(16)" json:"privacy"`
	Feelings       string    `gorm:"type:varchar(32)" json:"feelings"`
	GifURL         string    `gorm:"type:varchar(512)" json:"gifUrl"`
	ImgID          string    `gorm:"type:varchar(128)" json:"imgId"`
	ImgVersion     string    `gorm:"type:varchar(32)" json:"imgVersion"`
	VideoID        string    `gorm:"type:varchar(128)" json:"videoId"`
	VideoVersion   string    `gorm:"type:varchar(32)" json:"videoVersion"`
	CommentsCount  int       `json:"commentsCount"`
	Reactions      Reactions `gorm:"embedded;embeddedPrefix:reactions_" json:"reactions"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time `json:"-"`
}

func (Post) TableName() string { return "posts" }

// HasImage 是否进入“带图”索引
func (p *Post) HasImage() bool { return p.ImgID != "" }

// PostUpdate 作者可修改的内容字段
type PostUpdate struct {
	Body         string  `json:"post" validate:"max=5000"`
	BgColor      string  `json:"bgColor" validate:"max=16"`
	Privacy      Privacy `json:"privacy" validate:"omitempty,oneof=Public Followers Private"`
	Feelings     string  `json:"feelings" validate:"max=32"`
	GifURL       string  `json:"gifUrl" validate:"omitempty,url"`
	ImgID        string  `json:"imgId"`
	ImgVersion   string  `json:"imgVersion"`
	VideoID      string  `json:"videoId"`
	VideoVersion string  `json:"videoVersion"`
}

// Apply 覆盖内容字段，不触碰计数
func (u PostUpdate) Apply(p *Post) {
	p.Body = u.Body
	p.BgColor = u.BgColor
	p.Privacy = u.Privacy
	p.Feelings = u.Feelings
	p.GifURL = u.GifURL
	p.ImgID = u.ImgID
	p.ImgVersion = u.ImgVersion
	p.VideoID = u.VideoID
	p.VideoVersion = u.VideoVersion
}
