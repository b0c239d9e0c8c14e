package realtime

import (
	"context"
	"sync"
)

const localBusBuffer = 1024

// LocalBus 进程内总线，订阅者缓冲满时丢弃
type LocalBus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: map[chan Event]struct{}{}}
}

func (b *LocalBus) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, localBusBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}
