package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/queue"
	"github.com/d60-Lab/socialgraph/internal/realtime"
)

func TestNotificationService(t *testing.T) {
	e := newEnv(t)
	svc := NewNotificationService(e.deps)
	ctx := context.Background()
	to := model.NewID()
	n := &model.Notification{ID: model.NewID(), UserTo: to, UserFrom: model.NewID(), Message: "hello", CreatedItemID: model.NewID()}
	_, err := e.deps.Repos.Notifications.Create(ctx, n)
	require.NoError(t, err)

	list, err := svc.List(ctx, to)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hello", list[0].Message)

	require.NoError(t, svc.MarkRead(ctx, to, n.ID))
	ev := e.next(t, realtime.EventUpdateNotification)
	assert.Equal(t, to, ev.Target)
	reads := e.broker.named(queue.JobUpdateNotification)
	require.Len(t, reads, 1)
	assert.Equal(t, n.ID, decode[jobs.Notification](t, reads[0].Payload).NotificationID)

	require.NoError(t, svc.Delete(ctx, to, n.ID))
	e.next(t, realtime.EventDeleteNotification)
	assert.Len(t, e.broker.named(queue.JobDeleteNotification), 1)

	assert.Equal(t, apperr.Validation, apperr.KindOf(svc.MarkRead(ctx, to, "nope")))
}
