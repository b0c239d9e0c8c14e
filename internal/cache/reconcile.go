package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/kvstore"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

// Reconciler 修复 hash 写入与索引写入之间崩溃留下的索引漂移：
// 删除 hash 已不存在的有序集合成员
type Reconciler struct {
	store     *kvstore.Store
	batchSize int64
	interval  time.Duration
	log       *zap.Logger
}

func NewReconciler(store *kvstore.Store, interval time.Duration, log *zap.Logger) *Reconciler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if log == nil {
		log = logger.Named("cache.reconcile")
	}
	return &Reconciler{store: store, batchSize: 500, interval: interval, log: log}
}

// Start 启动后台清理循环，返回停止函数
func (r *Reconciler) Start() func(context.Context) error {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if _, err := r.RunOnce(context.Background()); err != nil {
					r.log.Warn("reconcile sweep failed", zap.Error(err))
				}
			}
		}
	}()
	return func(ctx context.Context) error {
		close(stop)
		select {
		case <-done:
		case <-ctx.Done():
		}
		return nil
	}
}

// RunOnce 清理用户索引、全站 feed 和每个用户的 feed
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	total := 0
	n, err := r.SweepIndex(ctx, userIndexKey, userKey)
	if err != nil {
		return total, err
	}
	total += n
	for _, key := range []string{postIndexKey, postImagesKey} {
		n, err := r.SweepIndex(ctx, key, postKey)
		if err != nil {
			return total, err
		}
		total += n
	}
	feeds, err := r.scanKeys(ctx, userPostsKey("*"))
	if err != nil {
		return total, err
	}
	for _, key := range feeds {
		n, err := r.SweepIndex(ctx, key, postKey)
		if err != nil {
			return total, err
		}
		total += n
	}
	if total > 0 {
		r.log.Info("reconcile removed dangling index members", zap.Int("removed", total))
	}
	return total, nil
}

// SweepIndex 删除 indexKey 中 hashKey(member) 不存在的成员
func (r *Reconciler) SweepIndex(ctx context.Context, indexKey string, hashKey func(string) string) (int, error) {
	removed := 0
	var start int64
	for {
		ids, err := r.store.ZRevRange(ctx, indexKey, start, start+r.batchSize-1)
		if err != nil {
			return removed, err
		}
		if len(ids) == 0 {
			return removed, nil
		}
		var dangling []interface{}
		for _, id := range ids {
			ok, err := r.store.Exists(ctx, hashKey(id))
			if err != nil {
				return removed, err
			}
			if !ok {
				dangling = append(dangling, id)
			}
		}
		if len(dangling) > 0 {
			if err := r.store.ZRem(ctx, indexKey, dangling...); err != nil {
				return removed, err
			}
			removed += len(dangling)
		}
		if int64(len(ids)) < r.batchSize {
			return removed, nil
		}
		start += r.batchSize - int64(len(dangling))
	}
}

func (r *Reconciler) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var (
		out    []string
		cursor uint64
	)
	client := r.store.Client()
	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return nil, apperr.Wrap(apperr.CacheUnavailable, "scan "+pattern, err)
		}
		out = append(out, keys...)
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}
