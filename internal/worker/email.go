package worker

import (
	"context"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/mailer"
	"github.com/d60-Lab/socialgraph/internal/queue"
)

// sendEmail 所有邮件任务共用；负载已是渲染好的 HTML
func (w *Workers) sendEmail(ctx context.Context, job *queue.Job) error {
	var msg mailer.Message
	if err := job.Decode(&msg); err != nil {
		return err
	}
	if msg.To == "" {
		return apperr.New(apperr.Validation, "missing receiver email")
	}
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}
	return w.mailer.Send(ctx, msg)
}
