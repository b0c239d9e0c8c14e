package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/socialgraph/internal/model"
)

// PostFilter 列表筛选条件
type PostFilter struct {
	UserID     string
	WithImages bool
}

func (f PostFilter) apply(q *gorm.DB) *gorm.DB {
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.WithImages {
		q = q.Where("img_id <> ''")
	}
	return q
}

type PostRepository interface {
	Create(ctx context.Context, p *model.Post) (bool, error)
	FindByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, f PostFilter, page model.Page) ([]*model.Post, error)
	Count(ctx context.Context, f PostFilter) (int64, error)
	Update(ctx context.Context, id string, u model.PostUpdate) error
	Delete(ctx context.Context, id, userID string) (bool, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

// Create 插入帖子；首次插入时作者 posts_count +1（同一事务）
func (r *postRepository) Create(ctx context.Context, p *model.Post) (bool, error) {
	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := insertOnce(tx, p)
		if err != nil || !ok {
			return err
		}
		created = true
		return incr(tx, &model.User{}, p.UserID, model.CounterPosts.Column, 1)
	})
	return created, err
}

func (r *postRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, "post")
	}
	return &p, nil
}

func (r *postRepository) List(ctx context.Context, f PostFilter, page model.Page) ([]*model.Post, error) {
	var res []*model.Post
	err := paged(f.apply(r.db.WithContext(ctx)), page).Find(&res).Error
	return res, err
}

func (r *postRepository) Count(ctx context.Context, f PostFilter) (int64, error) {
	var cnt int64
	err := f.apply(r.db.WithContext(ctx).Model(&model.Post{})).Count(&cnt).Error
	return cnt, err
}

// Update 覆盖内容字段，计数列不动
func (r *postRepository) Update(ctx context.Context, id string, u model.PostUpdate) error {
	res := r.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Updates(map[string]interface{}{
		"body":          u.Body,
		"bg_color":      u.BgColor,
		"privacy":       u.Privacy,
		"feelings":      u.Feelings,
		"gif_url":       u.GifURL,
		"img_id":        u.ImgID,
		"img_version":   u.ImgVersion,
		"video_id":      u.VideoID,
		"video_version": u.VideoVersion,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "post")
	}
	return nil
}

// Delete 删除帖子及其评论、表情；真正删除时作者 posts_count -1
func (r *postRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Post{})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		deleted = true
		if err := tx.Where("post_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&model.Reaction{}).Error; err != nil {
			return err
		}
		return incr(tx, &model.User{}, userID, model.CounterPosts.Column, -1)
	})
	return deleted, err
}
