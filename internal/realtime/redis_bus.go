package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

// DefaultChannel 所有进程共享的 pub/sub 频道
const DefaultChannel = "realtime:events"

// RedisBus 基于 Redis pub/sub，跨进程广播
type RedisBus struct {
	client  redis.UniversalClient
	channel string
	log     *zap.Logger
}

func NewRedisBus(client redis.UniversalClient, channel string, log *zap.Logger) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = logger.Named("realtime.bus")
	}
	return &RedisBus{client: client, channel: channel, log: log}
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "marshal event", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return apperr.Wrap(apperr.CacheUnavailable, "publish event", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	ps := b.client.Subscribe(ctx, b.channel)
	// 等待订阅确认，之后发布的消息不会丢
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, apperr.Wrap(apperr.CacheUnavailable, "subscribe "+b.channel, err)
	}
	out := make(chan Event, localBusBuffer)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.log.Warn("drop malformed event", zap.Error(err))
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
