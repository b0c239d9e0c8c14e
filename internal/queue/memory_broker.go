package queue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

// MemoryBroker 进程内异步执行器：每个 job 名一个带缓冲 channel，
// 与 RedisBroker 相同的重试 / 死信语义，但不持久化。用于测试与单进程开发。
type MemoryBroker struct {
	opts Options
	log  *zap.Logger

	mu       sync.Mutex
	chans    map[key]chan *Job
	handlers map[key]registration
	dead     map[key][]*Job
	pending  map[key]int   // 已入队但未结束（含等待重试）的任务
	live     map[key]bool  // 已有 worker 在跑的 job 名
	changed  chan struct{} // pending 每次减少时关闭并换新
	stopCh   chan struct{}
	workers  sync.WaitGroup
	started  bool
}

func NewMemoryBroker(opts Options, log *zap.Logger) *MemoryBroker {
	if log == nil {
		log = logger.Named("queue.memory")
	}
	return &MemoryBroker{
		opts:     opts.withDefaults(),
		log:      log,
		chans:    map[key]chan *Job{},
		handlers: map[key]registration{},
		dead:     map[key][]*Job{},
		pending:  map[key]int{},
		live:     map[key]bool{},
		changed:  make(chan struct{}),
		stopCh:   make(chan struct{}),
	}
}

func (b *MemoryBroker) channel(k key) chan *Job {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.chans[k]
	if !ok {
		ch = make(chan *Job, b.opts.BufferSize)
		b.chans[k] = ch
	}
	return ch
}

// Enqueue 从不阻塞：缓冲满时返回 QueueEnqueue 错误
func (b *MemoryBroker) Enqueue(_ context.Context, queue, name string, payload []byte) error {
	k := key{queue, name}
	job := newJob(queue, name, append([]byte(nil), payload...), b.opts.MaxAttempts)
	b.mu.Lock()
	b.pending[k]++
	b.mu.Unlock()
	select {
	case b.channel(k) <- job:
		b.opts.Metrics.incEnqueued(queue, name)
		return nil
	default:
		b.finish(k)
		return apperr.New(apperr.QueueEnqueue, "queue full: "+k.String())
	}
}

func (b *MemoryBroker) finish(k key) {
	b.mu.Lock()
	b.pending[k]--
	close(b.changed)
	b.changed = make(chan struct{})
	b.mu.Unlock()
}

func (b *MemoryBroker) Handle(queue, name string, concurrency int, h Handler) {
	if concurrency <= 0 {
		concurrency = 1
	}
	k := key{queue, name}
	reg := registration{concurrency: concurrency, handler: h}
	b.mu.Lock()
	b.handlers[k] = reg
	spawn := b.started && !b.live[k]
	if spawn {
		b.live[k] = true
	}
	b.mu.Unlock()
	// 启动后才注册的 handler 直接起 worker
	if spawn {
		b.spawn(k, reg)
	}
}

// spawn 调用方已在锁内把 k 标记为 live
func (b *MemoryBroker) spawn(k key, reg registration) {
	ch := b.channel(k)
	for i := 0; i < reg.concurrency; i++ {
		b.workers.Add(1)
		go b.loop(k, ch, reg.handler)
	}
}

func (b *MemoryBroker) Start(context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return nil
	}
	b.started = true
	regs := make(map[key]registration, len(b.handlers))
	for k, r := range b.handlers {
		regs[k] = r
		b.live[k] = true
	}
	b.mu.Unlock()

	for k, reg := range regs {
		b.spawn(k, reg)
	}
	return nil
}

func (b *MemoryBroker) loop(k key, ch chan *Job, h Handler) {
	defer b.workers.Done()
	for {
		select {
		case job := <-ch:
			b.run(k, job, h)
		case <-b.stopCh:
			return
		}
	}
}

func (b *MemoryBroker) run(k key, job *Job, h Handler) {
	err := execute(context.Background(), b.opts, job, h)
	if err == nil {
		b.finish(k)
		return
	}
	job.Attempts++
	job.LastError = err.Error()
	if job.Attempts >= job.MaxAttempts {
		b.park(k, job, err)
		return
	}
	b.log.Warn("job failed, retry scheduled", zap.String("job", k.String()), zap.String("id", job.ID), zap.Int("attempt", job.Attempts), zap.Error(err))
	time.AfterFunc(b.opts.Backoff, func() {
		select {
		case b.channel(k) <- job:
		default:
			b.park(k, job, apperr.New(apperr.QueueEnqueue, "queue full on retry"))
		}
	})
}

func (b *MemoryBroker) park(k key, job *Job, err error) {
	b.mu.Lock()
	b.dead[k] = append(b.dead[k], job)
	b.mu.Unlock()
	b.opts.Metrics.incDead(job)
	b.log.Error("job moved to failed list", zap.String("job", k.String()), zap.String("id", job.ID), zap.Int("attempts", job.Attempts), zap.Error(err))
	if b.opts.OnDead != nil {
		b.opts.OnDead(job, err)
	}
	b.finish(k)
}

// Drain 等待所有有 worker 的任务完成或进入死信。
// 没有注册 handler 的 job 名不会被执行，不计入等待。
func (b *MemoryBroker) Drain(ctx context.Context) error {
	for {
		b.mu.Lock()
		n := 0
		for k, c := range b.pending {
			if b.live[k] {
				n += c
			}
		}
		changed := b.changed
		b.mu.Unlock()
		if n == 0 {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop 等待队列自然排空（受 ctx 限制）后停止 worker
func (b *MemoryBroker) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return nil
	}
	b.started = false
	b.mu.Unlock()

	err := b.Drain(ctx)
	close(b.stopCh)
	b.workers.Wait()
	return err
}

func (b *MemoryBroker) Dead(_ context.Context, queue, name string, limit int) ([]*Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.dead[key{queue, name}]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return append([]*Job(nil), list...), nil
}

// QueueLen 返回某个 job 当前缓冲长度（采样值）
func (b *MemoryBroker) QueueLen(queue, name string) int { return len(b.channel(key{queue, name})) }
