package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/socialgraph/internal/model"
)

type FollowerRepository interface {
	Create(ctx context.Context, followerID, followeeID string) (bool, error)
	Delete(ctx context.Context, followerID, followeeID string) (bool, error)
	Exists(ctx context.Context, followerID, followeeID string) (bool, error)
	// ListFollowings followerID 关注的人
	ListFollowings(ctx context.Context, followerID string, offset, limit int) ([]*model.User, error)
	// ListFollowers 关注 followeeID 的人
	ListFollowers(ctx context.Context, followeeID string, offset, limit int) ([]*model.User, error)
}

type followerRepository struct {
	db *gorm.DB
}

func NewFollowerRepository(db *gorm.DB) FollowerRepository { return &followerRepository{db: db} }

// Create 幂等：重复关注不报错，也不会重复计数
func (r *followerRepository) Create(ctx context.Context, followerID, followeeID string) (bool, error) {
	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f := &model.Follower{ID: model.NewID(), FollowerID: followerID, FolloweeID: followeeID}
		ok, err := insertOnce(tx, f)
		if err != nil || !ok {
			return err
		}
		created = true
		return edgeCounters(tx, followerID, followeeID, 1)
	})
	return created, err
}

func (r *followerRepository) Delete(ctx context.Context, followerID, followeeID string) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).Delete(&model.Follower{})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		deleted = true
		return edgeCounters(tx, followerID, followeeID, -1)
	})
	return deleted, err
}

func edgeCounters(tx *gorm.DB, followerID, followeeID string, delta int) error {
	if err := incr(tx, &model.User{}, followeeID, model.CounterFollowers.Column, delta); err != nil {
		return err
	}
	return incr(tx, &model.User{}, followerID, model.CounterFollowing.Column, delta)
}

func (r *followerRepository) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Follower{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *followerRepository) ListFollowings(ctx context.Context, followerID string, offset, limit int) ([]*model.User, error) {
	return r.listUsers(ctx, "followers.followee_id", "followers.follower_id = ?", followerID, offset, limit)
}

func (r *followerRepository) ListFollowers(ctx context.Context, followeeID string, offset, limit int) ([]*model.User, error) {
	return r.listUsers(ctx, "followers.follower_id", "followers.followee_id = ?", followeeID, offset, limit)
}

// listUsers 最近关注的在前
func (r *followerRepository) listUsers(ctx context.Context, joinCol, cond, id string, offset, limit int) ([]*model.User, error) {
	var res []*model.User
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Select("users.*").
		Joins("JOIN followers ON users.id = "+joinCol).
		Where(cond, id).
		Order("followers.created_at DESC, followers.id DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}
