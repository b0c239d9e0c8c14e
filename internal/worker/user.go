package worker

import (
	"context"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/queue"
)

func (w *Workers) addUser(ctx context.Context, job *queue.Job) error {
	var p jobs.AddUser
	if err := job.Decode(&p); err != nil {
		return err
	}
	if p.User == nil {
		return apperr.New(apperr.Validation, "missing user")
	}
	u := *p.User
	u.Password = p.PasswordHash
	_, err := w.repos.Users.Create(ctx, &u)
	return err
}

func (w *Workers) updateUserInfo(ctx context.Context, job *queue.Job) error {
	var p jobs.UpdateUserInfo
	if err := job.Decode(&p); err != nil {
		return err
	}
	return w.repos.Users.UpdateInfo(ctx, p.UserID, p.Info)
}

func (w *Workers) updateSocialLinks(ctx context.Context, job *queue.Job) error {
	var p jobs.UpdateSocialLinks
	if err := job.Decode(&p); err != nil {
		return err
	}
	return w.repos.Users.UpdateSocialLinks(ctx, p.UserID, p.Links)
}

func (w *Workers) updateNotificationSettings(ctx context.Context, job *queue.Job) error {
	var p jobs.UpdateNotificationSettings
	if err := job.Decode(&p); err != nil {
		return err
	}
	return w.repos.Users.UpdateNotificationSettings(ctx, p.UserID, p.Settings)
}

func (w *Workers) updatePassword(ctx context.Context, job *queue.Job) error {
	var p jobs.UpdatePassword
	if err := job.Decode(&p); err != nil {
		return err
	}
	return w.repos.Users.UpdatePassword(ctx, p.UserID, p.PasswordHash)
}

func (w *Workers) addBlockedUser(ctx context.Context, job *queue.Job) error {
	var p jobs.Block
	if err := job.Decode(&p); err != nil {
		return err
	}
	return w.repos.Users.SetBlocked(ctx, p.UserID, p.TargetID, true)
}

func (w *Workers) removeBlockedUser(ctx context.Context, job *queue.Job) error {
	var p jobs.Block
	if err := job.Decode(&p); err != nil {
		return err
	}
	return w.repos.Users.SetBlocked(ctx, p.UserID, p.TargetID, false)
}
