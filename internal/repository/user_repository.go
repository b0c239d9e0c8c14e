package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/socialgraph/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) (bool, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	List(ctx context.Context, page model.Page, excludeID string) ([]*model.User, error)
	Count(ctx context.Context, excludeID string) (int64, error)
	Suggestions(ctx context.Context, userID string, limit int) ([]*model.User, error)
	UpdateInfo(ctx context.Context, id string, info model.UserInfo) error
	UpdateSocialLinks(ctx context.Context, id string, links model.SocialLinks) error
	UpdateNotificationSettings(ctx context.Context, id string, s model.NotificationSettings) error
	UpdatePassword(ctx context.Context, id, hash string) error
	SetBlocked(ctx context.Context, userID, targetID string, block bool) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, u *model.User) (bool, error) {
	return insertOnce(r.db.WithContext(ctx), u)
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *userRepository) List(ctx context.Context, page model.Page, excludeID string) ([]*model.User, error) {
	var res []*model.User
	q := r.db.WithContext(ctx)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	err := paged(q, page).Find(&res).Error
	return res, err
}

func (r *userRepository) Count(ctx context.Context, excludeID string) (int64, error) {
	var cnt int64
	q := r.db.WithContext(ctx).Model(&model.User{})
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&cnt).Error
	return cnt, err
}

// Suggestions 随机推荐未关注的用户
func (r *userRepository) Suggestions(ctx context.Context, userID string, limit int) ([]*model.User, error) {
	var res []*model.User
	followed := r.db.Model(&model.Follower{}).Select("followee_id").Where("follower_id = ?", userID)
	err := r.db.WithContext(ctx).
		Where("id <> ? AND id NOT IN (?)", userID, followed).
		Order("RANDOM()").
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *userRepository) UpdateInfo(ctx context.Context, id string, info model.UserInfo) error {
	return r.updates(ctx, id, map[string]interface{}{
		"work": info.Work, "school": info.School, "location": info.Location, "quote": info.Quote,
	})
}

func (r *userRepository) UpdateSocialLinks(ctx context.Context, id string, links model.SocialLinks) error {
	return r.db.WithContext(ctx).Model(&model.User{ID: id}).Select("Social").Updates(&model.User{Social: links}).Error
}

func (r *userRepository) UpdateNotificationSettings(ctx context.Context, id string, s model.NotificationSettings) error {
	return r.db.WithContext(ctx).Model(&model.User{ID: id}).Select("Notifications").Updates(&model.User{Notifications: s}).Error
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.updates(ctx, id, map[string]interface{}{"password": hash})
}

// SetBlocked 同一事务内维护双方的 blocked / blocked_by
func (r *userRepository) SetBlocked(ctx context.Context, userID, targetID string, block bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := toggleBlock(tx, userID, model.BlockPropBlocked, targetID, block); err != nil {
			return err
		}
		return toggleBlock(tx, targetID, model.BlockPropBlockedBy, userID, block)
	})
}

func toggleBlock(tx *gorm.DB, id string, prop model.BlockProp, other string, add bool) error {
	var u model.User
	if err := tx.Where("id = ?", id).First(&u).Error; err != nil {
		return notFound(err, "user")
	}
	list := &u.Blocked
	if prop == model.BlockPropBlockedBy {
		list = &u.BlockedBy
	}
	next := make([]string, 0, len(*list)+1)
	for _, v := range *list {
		if v != other {
			next = append(next, v)
		}
	}
	if add {
		next = append(next, other)
	}
	*list = next
	return tx.Model(&u).Select(prop.Column()).Updates(&u).Error
}

func (r *userRepository) updates(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "user")
	}
	return nil
}
