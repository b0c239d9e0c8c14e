// Package queue 把请求延迟与持久化写入解耦：按领域分队列的具名任务，
// 每个 job 名限制并发，固定间隔重试，
// 达到次数上限后进入死信
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/d60-Lab/socialgraph/internal/apperr"
)

// Job 一个工作单元，直到 handler 成功或
// 达到重试上限为止
type Job struct {
	ID          string          `json:"id"`
	Queue       string          `json:"queue"`
	Name        string          `json:"name"`
	Payload     json.RawMessage `json:"payload"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"maxAttempts"`
	EnqueuedAt  time.Time       `json:"enqueuedAt"`
	LastError   string          `json:"lastError,omitempty"`
}

// Decode 把负载反序列化到 v
func (j *Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return apperr.Wrap(apperr.Validation, "decode "+j.Name+" payload", err)
	}
	return nil
}

// Handler 处理任务；返回非 nil 错误会安排重试
type Handler func(ctx context.Context, job *Job) error

// Broker 每个 Queue 背后的传输层
type Broker interface {
	Enqueue(ctx context.Context, queue, name string, payload []byte) error
	// Handle 把 h 绑定到 queue/name，最多 concurrency 个并发调用。
	// 在 Start 之前调用
	Handle(queue, name string, concurrency int, h Handler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// Dead 列出重试耗尽后进入死信的任务
	Dead(ctx context.Context, queue, name string, limit int) ([]*Job, error)
}

// Options broker 实现共用的选项
type Options struct {
	MaxAttempts  int
	Backoff      time.Duration
	PollInterval time.Duration
	BufferSize   int
	JobTimeout   time.Duration
	Lease        time.Duration // RedisBroker 领取任务的租期，过期未确认则重新投递
	Metrics      *Metrics
	// OnDead 每个进入死信的任务调用一次
	OnDead func(job *Job, err error)
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.Backoff <= 0 {
		o.Backoff = 5 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 100 * time.Millisecond
	}
	if o.BufferSize <= 0 {
		o.BufferSize = 10000
	}
	if o.JobTimeout <= 0 {
		o.JobTimeout = 30 * time.Second
	}
	if o.Lease <= 0 {
		o.Lease = 2 * o.JobTimeout
	}
	return o
}

func newJob(queue, name string, payload []byte, maxAttempts int) *Job {
	return &Job{
		ID:          uuid.NewString(),
		Queue:       queue,
		Name:        name,
		Payload:     payload,
		MaxAttempts: maxAttempts,
		EnqueuedAt:  time.Now().UTC(),
	}
}

var tracer trace.Tracer = otel.Tracer("github.com/d60-Lab/socialgraph/internal/queue")

// execute 在 span 中执行一次 h，panic 转成错误，
// 坏任务不会拖垮 worker
func execute(ctx context.Context, opts Options, job *Job, h Handler) (err error) {
	ctx, cancel := context.WithTimeout(ctx, opts.JobTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "queue."+job.Queue+"/"+job.Name, trace.WithAttributes(
		attribute.String("job.id", job.ID),
		attribute.Int("job.attempt", job.Attempts+1),
	))
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
		if err != nil {
			err = apperr.Wrap(apperr.WorkerExecution, job.Queue+"/"+job.Name, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		opts.Metrics.observe(job, time.Since(start), err)
	}()
	return h(ctx, job)
}

// key 标识一次 handler 注册
type key struct{ queue, name string }

func (k key) String() string { return k.queue + ":" + k.name }
