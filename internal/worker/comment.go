package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/queue"
)

func (w *Workers) addComment(ctx context.Context, job *queue.Job) error {
	var p jobs.AddComment
	if err := job.Decode(&p); err != nil {
		return err
	}
	c := p.Comment
	if c == nil {
		return apperr.New(apperr.Validation, "missing comment")
	}
	created, err := w.repos.Comments.Create(ctx, c)
	if err != nil || !created {
		return err
	}

	n := notice{
		kind:     model.NotificationComment,
		userTo:   c.UserTo,
		userFrom: c.UserID,
		entityID: c.PostID,
		itemID:   c.ID,
		message:  fmt.Sprintf("%s commented on your post.", c.Username),
		header:   "Comment Notification",
		emailJob: queue.JobCommentsEmail,
		comment:  c.Body,
	}
	if post, err := w.repos.Posts.FindByID(ctx, c.PostID); err == nil {
		n.post, n.imgID, n.imgVersion, n.gifURL = post.Body, post.ImgID, post.ImgVersion, post.GifURL
	} else {
		w.log.Debug("load commented post", zap.String("post", c.PostID), zap.Error(err))
	}
	w.notify(ctx, n)
	return nil
}
