// Package worker 消费各队列任务，把缓存侧已经生效的变更写入数据库。
// 所有写入按实体 id 或唯一键幂等，计数只在行真正变化时调整，重试安全。
package worker

import (
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/socialgraph/internal/cache"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/mailer"
	"github.com/d60-Lab/socialgraph/internal/queue"
	"github.com/d60-Lab/socialgraph/internal/realtime"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

// Workers 持有所有任务处理函数的依赖
type Workers struct {
	repos     repository.Repositories
	users     *cache.UserCache
	emit      *realtime.Emitters
	queues    *jobs.Queues
	mailer    mailer.Mailer
	limiter   *rate.Limiter
	clientURL string
	log       *zap.Logger
}

type Options struct {
	Mailer mailer.Mailer
	// RatePerSec 邮件发送速率，<=0 不限速
	RatePerSec float64
	ClientURL  string
}

func New(repos repository.Repositories, users *cache.UserCache, emit *realtime.Emitters, queues *jobs.Queues, opts Options, log *zap.Logger) *Workers {
	if log == nil {
		log = logger.Named("worker")
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	m := opts.Mailer
	if m == nil {
		m = mailer.NewLogMailer(log)
	}
	return &Workers{
		repos:     repos,
		users:     users,
		emit:      emit,
		queues:    queues,
		mailer:    m,
		limiter:   rate.NewLimiter(limit, 1),
		clientURL: opts.ClientURL,
		log:       log,
	}
}

// Register 给每个任务名绑定处理函数，每个任务名最多 concurrency 个并发
func (w *Workers) Register(concurrency int) {
	q := w.queues
	bind := func(qu *queue.Queue, handlers map[string]queue.Handler) {
		for name, h := range handlers {
			qu.Process(name, concurrency, h)
		}
	}
	bind(q.User, map[string]queue.Handler{
		queue.JobAddUser:                    w.addUser,
		queue.JobUpdateUserInfo:             w.updateUserInfo,
		queue.JobUpdateSocialLinks:          w.updateSocialLinks,
		queue.JobUpdateNotificationSettings: w.updateNotificationSettings,
		queue.JobUpdatePassword:             w.updatePassword,
	})
	bind(q.Post, map[string]queue.Handler{
		queue.JobAddPost:    w.addPost,
		queue.JobUpdatePost: w.updatePost,
		queue.JobDeletePost: w.deletePost,
	})
	bind(q.Comment, map[string]queue.Handler{
		queue.JobAddComment: w.addComment,
	})
	bind(q.Reaction, map[string]queue.Handler{
		queue.JobAddReaction:    w.addReaction,
		queue.JobRemoveReaction: w.removeReaction,
	})
	bind(q.Follower, map[string]queue.Handler{
		queue.JobAddFollower:    w.addFollower,
		queue.JobRemoveFollower: w.removeFollower,
	})
	bind(q.BlockedUser, map[string]queue.Handler{
		queue.JobAddBlockedUser:    w.addBlockedUser,
		queue.JobRemoveBlockedUser: w.removeBlockedUser,
	})
	bind(q.Chat, map[string]queue.Handler{
		queue.JobAddChatMessage:        w.addChatMessage,
		queue.JobMarkMessageAsDeleted:  w.markMessageAsDeleted,
		queue.JobMarkMessagesAsRead:    w.markMessagesAsRead,
		queue.JobUpdateMessageReaction: w.updateMessageReaction,
	})
	bind(q.Image, map[string]queue.Handler{
		queue.JobAddProfileImage: w.addProfileImage,
		queue.JobUpdateBGImage:   w.updateBGImage,
		queue.JobAddImage:        w.addImage,
		queue.JobRemoveImage:     w.removeImage,
	})
	bind(q.Notification, map[string]queue.Handler{
		queue.JobUpdateNotification: w.updateNotification,
		queue.JobDeleteNotification: w.deleteNotification,
	})
	bind(q.Email, map[string]queue.Handler{
		queue.JobForgotPasswordEmail: w.sendEmail,
		queue.JobResetPasswordEmail:  w.sendEmail,
		queue.JobCommentsEmail:       w.sendEmail,
		queue.JobFollowersEmail:      w.sendEmail,
		queue.JobReactionsEmail:      w.sendEmail,
		queue.JobDirectMessageEmail:  w.sendEmail,
	})
}
