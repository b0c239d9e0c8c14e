package queue

import (
	"context"
	"encoding/json"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/pkg/logger"
)

// Queue 实体领域用来添加和处理任务的句柄
type Queue struct {
	name   string
	broker Broker
	log    *zap.Logger
}

func New(name string, broker Broker, log *zap.Logger) *Queue {
	if log == nil {
		log = logger.Named("queue." + name)
	}
	return &Queue{name: name, broker: broker, log: log}
}

func (q *Queue) Name() string { return q.name }

// Add 以 payload 入队 job。发后不管：缓存已经写过，
// 失败只记日志并吞掉
func (q *Queue) Add(ctx context.Context, job string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		q.log.Error("marshal job payload", zap.String("job", job), zap.Error(err))
		return
	}
	if err := q.broker.Enqueue(ctx, q.name, job, b); err != nil {
		q.log.Warn("enqueue failed", zap.String("job", job), zap.Error(err))
	}
}

// Process 为 job 注册 h，最多 concurrency 个并行执行
func (q *Queue) Process(job string, concurrency int, h Handler) {
	q.broker.Handle(q.name, job, concurrency, h)
}

// SentryOnDead 配置了客户端时把进入死信的任务上报 Sentry
func SentryOnDead(job *Job, err error) {
	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("queue", job.Queue)
		scope.SetTag("job", job.Name)
		scope.SetExtra("job_id", job.ID)
		scope.SetExtra("attempts", job.Attempts)
		hub.CaptureException(err)
	})
}
