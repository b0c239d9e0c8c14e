package worker

import (
	"context"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/queue"
)

func (w *Workers) addPost(ctx context.Context, job *queue.Job) error {
	var p jobs.AddPost
	if err := job.Decode(&p); err != nil {
		return err
	}
	if p.Post == nil {
		return apperr.New(apperr.Validation, "missing post")
	}
	_, err := w.repos.Posts.Create(ctx, p.Post)
	return err
}

func (w *Workers) updatePost(ctx context.Context, job *queue.Job) error {
	var p jobs.UpdatePost
	if err := job.Decode(&p); err != nil {
		return err
	}
	return w.repos.Posts.Update(ctx, p.PostID, p.Update)
}

// deletePost 重复投递时第二次为空操作
func (w *Workers) deletePost(ctx context.Context, job *queue.Job) error {
	var p jobs.DeletePost
	if err := job.Decode(&p); err != nil {
		return err
	}
	_, err := w.repos.Posts.Delete(ctx, p.PostID, p.UserID)
	return err
}
