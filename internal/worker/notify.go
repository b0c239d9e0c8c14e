package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/mailer"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/realtime"
)

// notice 一次评论 / 表情 / 关注带来的通知
type notice struct {
	kind     model.NotificationType
	userTo   string
	userFrom string
	entityID string
	itemID   string
	message  string
	header   string
	emailJob string

	comment    string
	reaction   string
	post       string
	imgID      string
	imgVersion string
	gifURL     string
}

// notify 读取收件人偏好 -> 写通知 -> 推送 -> 排队发信。失败只记日志。
func (w *Workers) notify(ctx context.Context, n notice) {
	if n.userTo == "" || n.userTo == n.userFrom {
		return
	}
	log := w.log.With(zap.String("type", string(n.kind)), zap.String("userTo", n.userTo))
	recipient, err := w.recipient(ctx, n.userTo)
	if err != nil {
		log.Warn("load notification recipient", zap.Error(err))
		return
	}
	if !recipient.Notifications.Enabled(n.kind) {
		return
	}

	row := &model.Notification{
		ID:               model.NewID(),
		UserTo:           n.userTo,
		UserFrom:         n.userFrom,
		Message:          n.message,
		NotificationType: n.kind,
		EntityID:         n.entityID,
		CreatedItemID:    n.itemID,
		Comment:          n.comment,
		Reaction:         n.reaction,
		Post:             n.post,
		ImgID:            n.imgID,
		ImgVersion:       n.imgVersion,
		GifURL:           n.gifURL,
		CreatedAt:        time.Now().UTC(),
	}
	created, err := w.repos.Notifications.Create(ctx, row)
	if err != nil {
		log.Warn("insert notification", zap.Error(err))
		return
	}
	if !created {
		return
	}

	list, err := w.repos.Notifications.ListByUser(ctx, n.userTo)
	if err != nil {
		log.Warn("list notifications", zap.Error(err))
	} else {
		w.emit.Notification.Emit(ctx, realtime.EventInsertNotification, list, n.userTo)
	}

	html, err := mailer.NotificationTemplate{
		Username: recipient.Username,
		Message:  n.message,
		Header:   n.header,
		AppLink:  w.clientURL,
	}.Render()
	if err != nil {
		log.Warn("render notification email", zap.Error(err))
		return
	}
	w.queues.Email.Add(ctx, n.emailJob, mailer.Message{To: recipient.Email, Subject: n.header, HTML: html})
}

// recipient 先查缓存，未命中再查库
func (w *Workers) recipient(ctx context.Context, id string) (*model.User, error) {
	if w.users != nil {
		u, err := w.users.Get(ctx, id)
		if err != nil {
			w.log.Debug("user cache read failed", zap.String("user", id), zap.Error(err))
		} else if u != nil {
			return u, nil
		}
	}
	return w.repos.Users.FindByID(ctx, id)
}
