package service

import (
	"context"

	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/queue"
	"github.com/d60-Lab/socialgraph/internal/realtime"
	"github.com/d60-Lab/socialgraph/internal/repository"
)

// NotificationService 通知没有缓存层，读直接走数据库
type NotificationService interface {
	List(ctx context.Context, userID string) ([]*model.Notification, error)
	MarkRead(ctx context.Context, actorID, notificationID string) error
	Delete(ctx context.Context, actorID, notificationID string) error
}

type notificationService struct {
	repo repository.NotificationRepository
	deps Deps
}

func NewNotificationService(d Deps) NotificationService {
	return &notificationService{repo: d.Repos.Notifications, deps: d}
}

func (s *notificationService) List(ctx context.Context, userID string) ([]*model.Notification, error) {
	if err := validateID("user id", userID); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, actorID, notificationID string) error {
	if err := validateID("notification id", notificationID); err != nil {
		return err
	}
	s.deps.Emit.Notification.Emit(ctx, realtime.EventUpdateNotification, notificationID, actorID)
	s.deps.Queues.Notification.Add(ctx, queue.JobUpdateNotification, jobs.Notification{NotificationID: notificationID})
	return nil
}

func (s *notificationService) Delete(ctx context.Context, actorID, notificationID string) error {
	if err := validateID("notification id", notificationID); err != nil {
		return err
	}
	s.deps.Emit.Notification.Emit(ctx, realtime.EventDeleteNotification, notificationID, actorID)
	s.deps.Queues.Notification.Add(ctx, queue.JobDeleteNotification, jobs.Notification{NotificationID: notificationID})
	return nil
}
