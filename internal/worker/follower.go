package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/queue"
)

func (w *Workers) addFollower(ctx context.Context, job *queue.Job) error {
	var p jobs.Follow
	if err := job.Decode(&p); err != nil {
		return err
	}
	created, err := w.repos.Followers.Create(ctx, p.FollowerID, p.FolloweeID)
	if err != nil || !created {
		return err
	}

	follower, err := w.recipient(ctx, p.FollowerID)
	if err != nil {
		w.log.Warn("load follower for notification", zap.String("follower", p.FollowerID), zap.Error(err))
		return nil
	}
	itemID := p.ID
	if itemID == "" {
		itemID = model.NewID()
	}
	w.notify(ctx, notice{
		kind:     model.NotificationFollow,
		userTo:   p.FolloweeID,
		userFrom: p.FollowerID,
		entityID: p.FollowerID,
		itemID:   itemID,
		message:  fmt.Sprintf("%s is now following you.", follower.Username),
		header:   "Follower Notification",
		emailJob: queue.JobFollowersEmail,
	})
	return nil
}

func (w *Workers) removeFollower(ctx context.Context, job *queue.Job) error {
	var p jobs.Follow
	if err := job.Decode(&p); err != nil {
		return err
	}
	_, err := w.repos.Followers.Delete(ctx, p.FollowerID, p.FolloweeID)
	return err
}
