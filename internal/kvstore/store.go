// Package kvstore 所有实体缓存依赖的薄 key-value 适配层。
// 除普通未命中外，所有失败都以 apperr.CacheUnavailable 返回
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/socialgraph/internal/apperr"
)

const defaultTimeout = 2 * time.Second

// ErrTxFailed 乐观事务冲突，调用方可重试
var ErrTxFailed = redis.TxFailedErr

// Store 包装共享的 go-redis 客户端，每次调用带超时
type Store struct {
	client  redis.UniversalClient
	timeout time.Duration
}

func New(client redis.UniversalClient, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Store{client: client, timeout: timeout}
}

// NewFromAddr 创建单节点客户端
func NewFromAddr(addr, password string, db int, timeout time.Duration) *Store {
	return New(redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}), timeout)
}

// Client 暴露底层连接，给需要 pub/sub 的组件用
func (s *Store) Client() redis.UniversalClient { return s.client }

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return wrap("ping", "", s.client.Ping(ctx).Err())
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.TxFailedErr) {
		return ErrTxFailed
	}
	return apperr.Wrap(apperr.CacheUnavailable, fmt.Sprintf("%s %s", op, key), err)
}

// ---- hash ----

func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	m, err := s.client.HGetAll(ctx, key).Result()
	return m, wrap("hgetall", key, err)
}

// HGet 返回 ok=false 表示字段不存在
func (s *Store) HGet(ctx context.Context, key, field string) (string, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	v, err := s.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	return v, err == nil, wrap("hget", key, err)
}

func (s *Store) HSet(ctx context.Context, key string, fields map[string]interface{}) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return wrap("hset", key, s.client.HSet(ctx, key, fields).Err())
}

func (s *Store) HSetNX(ctx context.Context, key, field string, value interface{}) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ok, err := s.client.HSetNX(ctx, key, field, value).Result()
	return ok, wrap("hsetnx", key, err)
}

func (s *Store) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	v, err := s.client.HIncrBy(ctx, key, field, delta).Result()
	return v, wrap("hincrby", key, err)
}

func (s *Store) HDel(ctx context.Context, key string, fields ...string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return wrap("hdel", key, s.client.HDel(ctx, key, fields...).Err())
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	n, err := s.client.Exists(ctx, key).Result()
	return n > 0, wrap("exists", key, err)
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return wrap("del", fmt.Sprint(keys), s.client.Del(ctx, keys...).Err())
}

// ---- 有序集合 ----

func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return wrap("zadd", key, s.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err())
}

func (s *Store) ZRem(ctx context.Context, key string, members ...interface{}) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return wrap("zrem", key, s.client.ZRem(ctx, key, members...).Err())
}

// ZRevRange 按分数从高到低，start/stop 为闭区间下标
func (s *Store) ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	v, err := s.client.ZRevRange(ctx, key, start, stop).Result()
	return v, wrap("zrevrange", key, err)
}

func (s *Store) ZRangeByScore(ctx context.Context, key string, min, max string, limit int64) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	v, err := s.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{Min: min, Max: max, Count: limit}).Result()
	return v, wrap("zrangebyscore", key, err)
}

func (s *Store) ZCard(ctx context.Context, key string) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	v, err := s.client.ZCard(ctx, key).Result()
	return v, wrap("zcard", key, err)
}

// ZRevRank 返回 ok=false 表示成员不存在
func (s *Store) ZRevRank(ctx context.Context, key, member string) (int64, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	v, err := s.client.ZRevRank(ctx, key, member).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	return v, err == nil, wrap("zrevrank", key, err)
}

// ---- 列表 ----

func (s *Store) LPush(ctx context.Context, key string, values ...interface{}) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return wrap("lpush", key, s.client.LPush(ctx, key, values...).Err())
}

// RPush 返回推入后的长度
func (s *Store) RPush(ctx context.Context, key string, values ...interface{}) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	n, err := s.client.RPush(ctx, key, values...).Result()
	return n, wrap("rpush", key, err)
}

func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	v, err := s.client.LRange(ctx, key, start, stop).Result()
	return v, wrap("lrange", key, err)
}

// LIndex 返回 ok=false 表示下标越界
func (s *Store) LIndex(ctx context.Context, key string, index int64) (string, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	v, err := s.client.LIndex(ctx, key, index).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	return v, err == nil, wrap("lindex", key, err)
}

func (s *Store) LSet(ctx context.Context, key string, index int64, value interface{}) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return wrap("lset", key, s.client.LSet(ctx, key, index, value).Err())
}

func (s *Store) LLen(ctx context.Context, key string) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	v, err := s.client.LLen(ctx, key).Result()
	return v, wrap("llen", key, err)
}

func (s *Store) LRem(ctx context.Context, key string, count int64, value interface{}) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	v, err := s.client.LRem(ctx, key, count, value).Result()
	return v, wrap("lrem", key, err)
}

// ---- 批量 ----

// Pipelined 批量发送互不依赖的命令
func (s *Store) Pipelined(ctx context.Context, fn func(redis.Pipeliner) error) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.client.Pipelined(ctx, fn)
	return wrap("pipeline", "", err)
}

// TxPipelined 以 MULTI/EXEC 发送，命令之间不会穿插其它客户端的写
func (s *Store) TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.client.TxPipelined(ctx, fn)
	return wrap("multi", "", err)
}

// Watch 乐观事务，冲突时重试 retries 次
func (s *Store) Watch(ctx context.Context, retries int, fn func(*redis.Tx) error, keys ...string) error {
	if retries < 1 {
		retries = 1
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var err error
	for i := 0; i < retries; i++ {
		err = s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	var ae *apperr.AppError
	if errors.As(err, &ae) {
		return err
	}
	return wrap("watch", fmt.Sprint(keys), err)
}

// Run 执行 Lua 脚本（EVALSHA，未加载时回退 EVAL）
func (s *Store) Run(ctx context.Context, script *redis.Script, keys []string, args ...interface{}) (interface{}, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	v, err := script.Run(ctx, s.client, keys, args...).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return v, wrap("eval", fmt.Sprint(keys), err)
}
