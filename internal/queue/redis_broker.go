package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

// promoteDue 把到期的延迟任务移回 wait
var promoteDue = redis.NewScript(`
local items = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
for _, v in ipairs(items) do
  redis.call('ZREM', KEYS[1], v)
  redis.call('LPUSH', KEYS[2], v)
end
return #items
`)

// claimJob 从 wait 取一个任务放进 active，并在 lease 中记下租期截止时间
var claimJob = redis.NewScript(`
local v = redis.call('RPOP', KEYS[1])
if not v then return false end
redis.call('LPUSH', KEYS[2], v)
redis.call('ZADD', KEYS[3], ARGV[1], v)
return v
`)

// reapExpired 把租期已过（或没有租期）的 active 任务放回 wait 队头。
// 其它进程仍持有有效租期的任务不动。
var reapExpired = redis.NewScript(`
local now = tonumber(ARGV[1])
local items = redis.call('LRANGE', KEYS[1], 0, -1)
local n = 0
for _, v in ipairs(items) do
  local s = redis.call('ZSCORE', KEYS[2], v)
  if (not s) or tonumber(s) <= now then
    if redis.call('LREM', KEYS[1], 1, v) > 0 then
      redis.call('ZREM', KEYS[2], v)
      redis.call('RPUSH', KEYS[3], v)
      n = n + 1
    end
  end
end
return n
`)

// RedisBroker 持久化 broker。每个 handler 对应
// queue:<q>:<job>:wait (list)、:active (list)、:lease (zset，分数为租期截止毫秒)、
// :delayed (zset，分数为可执行时间毫秒) 和 :failed (list)。
type RedisBroker struct {
	client redis.UniversalClient
	opts   Options
	log    *zap.Logger

	mu       sync.Mutex
	handlers map[key]registration
	started  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

type registration struct {
	concurrency int
	handler     Handler
}

func NewRedisBroker(client redis.UniversalClient, opts Options, log *zap.Logger) *RedisBroker {
	if log == nil {
		log = logger.Named("queue.redis")
	}
	return &RedisBroker{client: client, opts: opts.withDefaults(), log: log, handlers: map[key]registration{}}
}

func waitKey(k key) string    { return "queue:" + k.String() + ":wait" }
func activeKey(k key) string  { return "queue:" + k.String() + ":active" }
func delayedKey(k key) string { return "queue:" + k.String() + ":delayed" }
func failedKey(k key) string  { return "queue:" + k.String() + ":failed" }
func leaseKey(k key) string   { return "queue:" + k.String() + ":lease" }

func (b *RedisBroker) Enqueue(ctx context.Context, queue, name string, payload []byte) error {
	raw, err := json.Marshal(newJob(queue, name, payload, b.opts.MaxAttempts))
	if err != nil {
		return apperr.Wrap(apperr.QueueEnqueue, "marshal job", err)
	}
	if err := b.client.LPush(ctx, waitKey(key{queue, name}), raw).Err(); err != nil {
		return apperr.Wrap(apperr.QueueEnqueue, queue+"/"+name, err)
	}
	b.opts.Metrics.incEnqueued(queue, name)
	return nil
}

func (b *RedisBroker) Handle(queue, name string, concurrency int, h Handler) {
	if concurrency <= 0 {
		concurrency = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[key{queue, name}] = registration{concurrency: concurrency, handler: h}
}

// Start 先回收租期已过的 active 任务（上个进程崩溃留下的），再启动 worker 和延迟任务搬运
func (b *RedisBroker) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}
	for k := range b.handlers {
		if _, err := b.reap(ctx, k); err != nil {
			return err
		}
	}
	runCtx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	for k, reg := range b.handlers {
		for i := 0; i < reg.concurrency; i++ {
			b.wg.Add(1)
			go b.work(runCtx, k, reg.handler)
		}
	}
	keys := make([]key, 0, len(b.handlers))
	for k := range b.handlers {
		keys = append(keys, k)
	}
	b.wg.Add(1)
	go b.promote(runCtx, keys)
	b.started = true
	b.log.Info("redis broker started", zap.Int("handlers", len(b.handlers)))
	return nil
}

// Stop 通知所有 worker 退出，等待执行中的任务或 ctx 超时
func (b *RedisBroker) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return nil
	}
	b.started = false
	b.cancel()
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *RedisBroker) Dead(ctx context.Context, queue, name string, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 100
	}
	raws, err := b.client.LRange(ctx, failedKey(key{queue, name}), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, apperr.Wrap(apperr.CacheUnavailable, "lrange failed", err)
	}
	out := make([]*Job, 0, len(raws))
	for _, raw := range raws {
		var j Job
		if err := json.Unmarshal([]byte(raw), &j); err != nil {
			return nil, err
		}
		out = append(out, &j)
	}
	return out, nil
}

// reap 回收 k 下租期已过的任务，返回回收条数
func (b *RedisBroker) reap(ctx context.Context, k key) (int, error) {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	n, err := reapExpired.Run(ctx, b.client, []string{activeKey(k), leaseKey(k), waitKey(k)}, now).Int()
	if err != nil {
		return 0, apperr.Wrap(apperr.CacheUnavailable, "reap "+k.String(), err)
	}
	if n > 0 {
		b.log.Warn("requeued jobs with expired lease", zap.String("job", k.String()), zap.Int("count", n))
	}
	return n, nil
}

func (b *RedisBroker) work(ctx context.Context, k key, h Handler) {
	defer b.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		deadline := strconv.FormatInt(time.Now().Add(b.opts.Lease).UnixMilli(), 10)
		raw, err := claimJob.Run(ctx, b.client, []string{waitKey(k), activeKey(k), leaseKey(k)}, deadline).Text()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				b.log.Warn("dequeue failed", zap.String("job", k.String()), zap.Error(err))
			}
			if !sleepCtx(ctx, b.opts.PollInterval) {
				return
			}
			continue
		}
		b.process(k, raw, h)
	}
}

// process 用独立的 context 执行，关闭时不会打断写到一半的 handler
func (b *RedisBroker) process(k key, raw string, h Handler) {
	ctx := context.Background()
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		b.log.Error("drop undecodable job", zap.String("job", k.String()), zap.Error(err))
		b.ack(ctx, k, raw)
		return
	}
	err := execute(ctx, b.opts, &job, h)
	if err == nil {
		b.ack(ctx, k, raw)
		return
	}

	job.Attempts++
	job.LastError = err.Error()
	next, _ := json.Marshal(&job)
	dead := job.Attempts >= job.MaxAttempts
	_, perr := b.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LRem(ctx, activeKey(k), 1, raw)
		p.ZRem(ctx, leaseKey(k), raw)
		if dead {
			p.LPush(ctx, failedKey(k), next)
		} else {
			ready := time.Now().Add(b.opts.Backoff).UnixMilli()
			p.ZAdd(ctx, delayedKey(k), redis.Z{Score: float64(ready), Member: next})
		}
		return nil
	})
	if perr != nil {
		b.log.Error("reschedule failed", zap.String("job", k.String()), zap.String("id", job.ID), zap.Error(perr))
		return
	}
	if dead {
		b.opts.Metrics.incDead(&job)
		b.log.Error("job moved to failed list",
			zap.String("job", k.String()), zap.String("id", job.ID), zap.Int("attempts", job.Attempts), zap.Error(err))
		if b.opts.OnDead != nil {
			b.opts.OnDead(&job, err)
		}
		return
	}
	b.log.Warn("job failed, retry scheduled",
		zap.String("job", k.String()), zap.String("id", job.ID), zap.Int("attempt", job.Attempts), zap.Error(err))
}

// ack 从 active 和 lease 中一起删除
func (b *RedisBroker) ack(ctx context.Context, k key, raw string) {
	_, err := b.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LRem(ctx, activeKey(k), 1, raw)
		p.ZRem(ctx, leaseKey(k), raw)
		return nil
	})
	if err != nil {
		b.log.Warn("ack failed", zap.String("job", k.String()), zap.Error(err))
	}
}

// promote 搬运到期的延迟任务，并回收租期已过的 active 任务
func (b *RedisBroker) promote(ctx context.Context, keys []key) {
	defer b.wg.Done()
	for {
		now := strconv.FormatInt(time.Now().UnixMilli(), 10)
		for _, k := range keys {
			if err := promoteDue.Run(ctx, b.client, []string{delayedKey(k), waitKey(k)}, now, 100).Err(); err != nil && ctx.Err() == nil {
				b.log.Warn("promote delayed failed", zap.String("job", k.String()), zap.Error(err))
			}
			if _, err := b.reap(ctx, k); err != nil && ctx.Err() == nil {
				b.log.Warn("reap failed", zap.String("job", k.String()), zap.Error(err))
			}
		}
		if !sleepCtx(ctx, b.opts.PollInterval) {
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
