package worker

import (
	"context"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/queue"
)

func (w *Workers) addChatMessage(ctx context.Context, job *queue.Job) error {
	var p jobs.AddChatMessage
	if err := job.Decode(&p); err != nil {
		return err
	}
	if p.Message == nil {
		return apperr.New(apperr.Validation, "missing message")
	}
	_, err := w.repos.Chats.AddMessage(ctx, p.Message)
	return err
}

func (w *Workers) markMessageAsDeleted(ctx context.Context, job *queue.Job) error {
	var p jobs.MarkMessageDeleted
	if err := job.Decode(&p); err != nil {
		return err
	}
	if !p.Type.Valid() {
		return apperr.New(apperr.Validation, "invalid delete type")
	}
	return w.repos.Chats.MarkDeleted(ctx, p.MessageID, p.Type)
}

func (w *Workers) markMessagesAsRead(ctx context.Context, job *queue.Job) error {
	var p jobs.MarkMessagesRead
	if err := job.Decode(&p); err != nil {
		return err
	}
	_, err := w.repos.Chats.MarkRead(ctx, p.SenderID, p.ReceiverID)
	return err
}

func (w *Workers) updateMessageReaction(ctx context.Context, job *queue.Job) error {
	var p jobs.UpdateMessageReaction
	if err := job.Decode(&p); err != nil {
		return err
	}
	return w.repos.Chats.UpdateReaction(ctx, p.MessageID, p.SenderName, p.Type, p.Add)
}
