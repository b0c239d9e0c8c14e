package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewID 生成 24 位十六进制 ID（按时间递增）
func NewID() string { return primitive.NewObjectID().Hex() }

// ValidID 校验 24 位十六进制 ID
func ValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

// All 返回需要迁移的全部持久化模型
func All() []interface{} {
	return []interface{}{
		&User{}, &Post{}, &Comment{}, &Reaction{}, &Follower{},
		&Conversation{}, &Message{}, &Notification{}, &Image{},
	}
}

// 分页大小，缓存与数据库两侧共用
const (
	PostsPageSize = 10
	UsersPageSize = 12
)

// Page 偏移分页
type Page struct {
	Offset int
	Limit  int
}

// PageOf 按页码计算 offset/limit，page 从 1 开始
func PageOf(page, size int) Page {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = PostsPageSize
	}
	return Page{Offset: (page - 1) * size, Limit: size}
}

// Counter 冗余计数字段：缓存 hash 字段名与数据库列名成对定义
type Counter struct {
	Field  string
	Column string
}

var (
	CounterPosts     = Counter{Field: "postsCount", Column: "posts_count"}
	CounterFollowers = Counter{Field: "followersCount", Column: "followers_count"}
	CounterFollowing = Counter{Field: "followingCount", Column: "following_count"}
	CounterComments  = Counter{Field: "commentsCount", Column: "comments_count"}
)
