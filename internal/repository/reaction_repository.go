package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/socialgraph/internal/model"
)

type ReactionRepository interface {
	// Upsert 写入或替换用户对帖子的表情，返回替换前的类型（无则为空）
	Upsert(ctx context.Context, r *model.Reaction) (model.ReactionType, error)
	Remove(ctx context.Context, postID, userID string) (model.ReactionType, error)
	ListByPost(ctx context.Context, postID string) ([]*model.Reaction, error)
	FindByUser(ctx context.Context, postID, userID string) (*model.Reaction, error)
}

type reactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) ReactionRepository { return &reactionRepository{db: db} }

// Upsert 计数增量由行的实际状态决定，重复投递不会重复计数
func (r *reactionRepository) Upsert(ctx context.Context, reaction *model.Reaction) (model.ReactionType, error) {
	var previous model.ReactionType
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur model.Reaction
		err := tx.Where("post_id = ? AND user_id = ?", reaction.PostID, reaction.UserID).First(&cur).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			ok, err := insertOnce(tx, reaction)
			if err != nil || !ok {
				return err
			}
			return incr(tx, &model.Post{}, reaction.PostID, reaction.Type.Column(), 1)
		case err != nil:
			return err
		}
		previous = cur.Type
		if cur.Type == reaction.Type {
			return nil
		}
		if err := tx.Model(&cur).Updates(map[string]interface{}{
			"type":            reaction.Type,
			"username":        reaction.Username,
			"avatar_color":    reaction.AvatarColor,
			"profile_picture": reaction.ProfilePicture,
		}).Error; err != nil {
			return err
		}
		// Updates 会把 cur.Type 改成新类型，这里必须用 previous
		if err := incr(tx, &model.Post{}, reaction.PostID, previous.Column(), -1); err != nil {
			return err
		}
		return incr(tx, &model.Post{}, reaction.PostID, reaction.Type.Column(), 1)
	})
	return previous, err
}

// Remove 删除表情；行存在时对应计数 -1
func (r *reactionRepository) Remove(ctx context.Context, postID, userID string) (model.ReactionType, error) {
	var removed model.ReactionType
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur model.Reaction
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		res := tx.Delete(&cur)
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		removed = cur.Type
		return incr(tx, &model.Post{}, postID, cur.Type.Column(), -1)
	})
	return removed, err
}

func (r *reactionRepository) ListByPost(ctx context.Context, postID string) ([]*model.Reaction, error) {
	var res []*model.Reaction
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("created_at ASC, id ASC").Find(&res).Error
	return res, err
}

func (r *reactionRepository) FindByUser(ctx context.Context, postID, userID string) (*model.Reaction, error) {
	var res model.Reaction
	if err := r.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).First(&res).Error; err != nil {
		return nil, notFound(err, "reaction")
	}
	return &res, nil
}
