package worker

import (
	"context"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/queue"
)

func (w *Workers) addProfileImage(ctx context.Context, job *queue.Job) error {
	var p jobs.ProfileImage
	if err := job.Decode(&p); err != nil {
		return err
	}
	if p.Image == nil {
		return apperr.New(apperr.Validation, "missing image")
	}
	return w.repos.Images.SetProfileImage(ctx, p.Image, p.URL)
}

func (w *Workers) updateBGImage(ctx context.Context, job *queue.Job) error {
	var p jobs.Image
	if err := job.Decode(&p); err != nil {
		return err
	}
	if p.Image == nil {
		return apperr.New(apperr.Validation, "missing image")
	}
	return w.repos.Images.SetBackgroundImage(ctx, p.Image)
}

func (w *Workers) addImage(ctx context.Context, job *queue.Job) error {
	var p jobs.Image
	if err := job.Decode(&p); err != nil {
		return err
	}
	if p.Image == nil {
		return apperr.New(apperr.Validation, "missing image")
	}
	_, err := w.repos.Images.Add(ctx, p.Image)
	return err
}

func (w *Workers) removeImage(ctx context.Context, job *queue.Job) error {
	var p jobs.RemoveImage
	if err := job.Decode(&p); err != nil {
		return err
	}
	return w.repos.Images.Remove(ctx, p.ImageID)
}
