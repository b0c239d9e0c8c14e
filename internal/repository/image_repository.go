package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/socialgraph/internal/model"
)

type ImageRepository interface {
	Add(ctx context.Context, img *model.Image) (bool, error)
	// SetProfileImage 更新头像并记录图片
	SetProfileImage(ctx context.Context, img *model.Image, url string) error
	// SetBackgroundImage img.ID 为空时只更新用户（清除背景图）
	SetBackgroundImage(ctx context.Context, img *model.Image) error
	Remove(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]*model.Image, error)
}

type imageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) ImageRepository { return &imageRepository{db: db} }

func (r *imageRepository) Add(ctx context.Context, img *model.Image) (bool, error) {
	return insertOnce(r.db.WithContext(ctx), img)
}

func (r *imageRepository) SetProfileImage(ctx context.Context, img *model.Image, url string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).Where("id = ?", img.UserID).Update("profile_picture", url).Error; err != nil {
			return err
		}
		_, err := insertOnce(tx, img)
		return err
	})
}

func (r *imageRepository) SetBackgroundImage(ctx context.Context, img *model.Image) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.User{}).Where("id = ?", img.UserID).Updates(map[string]interface{}{
			"bg_image_id":      img.BgImageID,
			"bg_image_version": img.BgImageVersion,
		}).Error
		if err != nil || img.ID == "" {
			return err
		}
		_, err = insertOnce(tx, img)
		return err
	})
}

func (r *imageRepository) Remove(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Image{}).Error
}

func (r *imageRepository) ListByUser(ctx context.Context, userID string) ([]*model.Image, error) {
	var res []*model.Image
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order(newestFirst).Find(&res).Error
	return res, err
}
