package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/model"
)

// newestFirst 与缓存 ZREVRANGE 的顺序保持一致（分数相同按 id 倒序）
const newestFirst = "created_at DESC, id DESC"

// insertOnce 幂等插入：主键 / 唯一键冲突时不报错，返回是否真正插入
func insertOnce(tx *gorm.DB, v interface{}) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(v)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// incr 对冗余计数列做增量更新；减量时不会低于 0
func incr(tx *gorm.DB, m interface{}, id, column string, delta int) error {
	q := tx.Model(m).Where("id = ?", id)
	if delta < 0 {
		q = q.Where(column+" >= ?", -delta)
	}
	return q.UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.NotFound, what+" not found")
	}
	return err
}

func paged(db *gorm.DB, p model.Page) *gorm.DB {
	return db.Order(newestFirst).Offset(p.Offset).Limit(p.Limit)
}

// Repositories 按实体分组的仓储集合
type Repositories struct {
	Users         UserRepository
	Posts         PostRepository
	Comments      CommentRepository
	Reactions     ReactionRepository
	Followers     FollowerRepository
	Chats         ChatRepository
	Notifications NotificationRepository
	Images        ImageRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:         NewUserRepository(db),
		Posts:         NewPostRepository(db),
		Comments:      NewCommentRepository(db),
		Reactions:     NewReactionRepository(db),
		Followers:     NewFollowerRepository(db),
		Chats:         NewChatRepository(db),
		Notifications: NewNotificationRepository(db),
		Images:        NewImageRepository(db),
	}
}
