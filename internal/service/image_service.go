package service

import (
	"context"
	"time"

	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/queue"
	"github.com/d60-Lab/socialgraph/internal/realtime"
	"github.com/d60-Lab/socialgraph/internal/repository"
)

// UploadedImage 已上传到外部存储的图片
type UploadedImage struct {
	ImgID      string `json:"imgId" validate:"required,max=128"`
	ImgVersion string `json:"imgVersion" validate:"required,max=32"`
	URL        string `json:"url" validate:"omitempty,url"`
}

// ImageService 图片不进缓存，只更新用户缓存里的引用字段
type ImageService interface {
	SetProfileImage(ctx context.Context, actorID string, in UploadedImage) (*model.User, error)
	SetBackgroundImage(ctx context.Context, actorID string, in UploadedImage) (*model.User, error)
	DeleteImage(ctx context.Context, actorID, imageID string) error
	DeleteBackgroundImage(ctx context.Context, actorID string) (*model.User, error)
	List(ctx context.Context, userID string) ([]*model.Image, error)
}

type imageService struct {
	profile profileReader
	repo    repository.ImageRepository
	deps    Deps
}

func NewImageService(d Deps) ImageService {
	return &imageService{
		profile: profileReader{cache: d.Caches.Users, repo: d.Repos.Users},
		repo:    d.Repos.Images,
		deps:    d,
	}
}

func (s *imageService) SetProfileImage(ctx context.Context, actorID string, in UploadedImage) (*model.User, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	url := in.URL
	if url == "" {
		url = in.ImgID
	}
	if err := validateID("user id", actorID); err != nil {
		return nil, err
	}
	u, err := s.profile.update(ctx, actorID, map[string]any{"profilePicture": url})
	if err != nil {
		return nil, err
	}
	u.ProfilePicture = url
	s.deps.Emit.Image.Emit(ctx, realtime.EventUpdateUser, u)
	s.deps.Queues.Image.Add(ctx, queue.JobAddProfileImage, jobs.ProfileImage{
		Image: &model.Image{
			ID:         model.NewID(),
			UserID:     actorID,
			ImgID:      in.ImgID,
			ImgVersion: in.ImgVersion,
			CreatedAt:  time.Now().UTC(),
		},
		URL: url,
	})
	return u, nil
}

func (s *imageService) SetBackgroundImage(ctx context.Context, actorID string, in UploadedImage) (*model.User, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	u, err := s.setBackground(ctx, actorID, in.ImgID, in.ImgVersion)
	if err != nil {
		return nil, err
	}
	s.deps.Queues.Image.Add(ctx, queue.JobUpdateBGImage, jobs.Image{Image: &model.Image{
		ID:             model.NewID(),
		UserID:         actorID,
		BgImageID:      in.ImgID,
		BgImageVersion: in.ImgVersion,
		CreatedAt:      time.Now().UTC(),
	}})
	return u, nil
}

// DeleteBackgroundImage 只清空用户上的背景字段，不写图片记录
func (s *imageService) DeleteBackgroundImage(ctx context.Context, actorID string) (*model.User, error) {
	u, err := s.setBackground(ctx, actorID, "", "")
	if err != nil {
		return nil, err
	}
	s.deps.Queues.Image.Add(ctx, queue.JobUpdateBGImage, jobs.Image{Image: &model.Image{UserID: actorID}})
	return u, nil
}

func (s *imageService) setBackground(ctx context.Context, actorID, id, version string) (*model.User, error) {
	if err := validateID("user id", actorID); err != nil {
		return nil, err
	}
	u, err := s.profile.update(ctx, actorID, map[string]any{"bgImageId": id, "bgImageVersion": version})
	if err != nil {
		return nil, err
	}
	u.BgImageID, u.BgImageVersion = id, version
	s.deps.Emit.Image.Emit(ctx, realtime.EventUpdateUser, u)
	return u, nil
}

func (s *imageService) DeleteImage(ctx context.Context, actorID, imageID string) error {
	if err := validateID("image id", imageID); err != nil {
		return err
	}
	s.deps.Emit.Image.Emit(ctx, realtime.EventDeleteImage, imageID, actorID)
	s.deps.Queues.Image.Add(ctx, queue.JobRemoveImage, jobs.RemoveImage{ImageID: imageID})
	return nil
}

func (s *imageService) List(ctx context.Context, userID string) ([]*model.Image, error) {
	if err := validateID("user id", userID); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, userID)
}
