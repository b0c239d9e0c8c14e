package worker

import (
	"context"

	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/queue"
)

func (w *Workers) updateNotification(ctx context.Context, job *queue.Job) error {
	var p jobs.Notification
	if err := job.Decode(&p); err != nil {
		return err
	}
	return w.repos.Notifications.MarkRead(ctx, p.NotificationID)
}

func (w *Workers) deleteNotification(ctx context.Context, job *queue.Job) error {
	var p jobs.Notification
	if err := job.Decode(&p); err != nil {
		return err
	}
	return w.repos.Notifications.Delete(ctx, p.NotificationID)
}
