package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/socialgraph/internal/model"
)

type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) (bool, error)
	FindByID(ctx context.Context, id string) (*model.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*model.Comment, error)
	Names(ctx context.Context, postID string) (*model.CommentNames, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository { return &commentRepository{db: db} }

// Create 幂等插入评论；只有新行才给帖子 comments_count +1
func (r *commentRepository) Create(ctx context.Context, c *model.Comment) (bool, error) {
	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := insertOnce(tx, c)
		if err != nil || !ok {
			return err
		}
		created = true
		return incr(tx, &model.Post{}, c.PostID, model.CounterComments.Column, 1)
	})
	return created, err
}

func (r *commentRepository) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, notFound(err, "comment")
	}
	return &c, nil
}

// ListByPost 按时间正序，与缓存列表顺序一致
func (r *commentRepository) ListByPost(ctx context.Context, postID string) ([]*model.Comment, error) {
	var res []*model.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&res).Error
	return res, err
}

func (r *commentRepository) Names(ctx context.Context, postID string) (*model.CommentNames, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Pluck("username", &names).Error
	if err != nil {
		return nil, err
	}
	return &model.CommentNames{Count: len(names), Names: names}, nil
}
