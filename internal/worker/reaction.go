package worker

import (
	"context"
	"fmt"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/queue"
)

// addReaction 计数迁移由数据库中的现有行决定；类型未变（重投）时不通知
func (w *Workers) addReaction(ctx context.Context, job *queue.Job) error {
	var p jobs.AddReaction
	if err := job.Decode(&p); err != nil {
		return err
	}
	r := p.Reaction
	if r == nil || !r.Type.Valid() {
		return apperr.New(apperr.Validation, "invalid reaction")
	}
	prev, err := w.repos.Reactions.Upsert(ctx, r)
	if err != nil || prev == r.Type {
		return err
	}

	n := notice{
		kind:     model.NotificationReaction,
		userTo:   r.UserTo,
		userFrom: r.UserID,
		entityID: r.PostID,
		itemID:   r.ID,
		message:  fmt.Sprintf("%s reacted to your post.", r.Username),
		header:   "Post Reaction Notification",
		emailJob: queue.JobReactionsEmail,
		reaction: string(r.Type),
	}
	if post, err := w.repos.Posts.FindByID(ctx, r.PostID); err == nil {
		n.post, n.imgID, n.imgVersion, n.gifURL = post.Body, post.ImgID, post.ImgVersion, post.GifURL
	}
	w.notify(ctx, n)
	return nil
}

func (w *Workers) removeReaction(ctx context.Context, job *queue.Job) error {
	var p jobs.RemoveReaction
	if err := job.Decode(&p); err != nil {
		return err
	}
	_, err := w.repos.Reactions.Remove(ctx, p.PostID, p.UserID)
	return err
}
