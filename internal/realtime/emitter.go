package realtime

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/pkg/logger"
)

// Emitter 绑定一个命名空间；发送失败只记录日志
type Emitter struct {
	namespace string
	bus       Bus
	log       *zap.Logger
}

func NewEmitter(namespace string, bus Bus, log *zap.Logger) *Emitter {
	if log == nil {
		log = logger.Named("realtime.emit")
	}
	return &Emitter{namespace: namespace, bus: bus, log: log.With(zap.String("namespace", namespace))}
}

func (e *Emitter) Namespace() string { return e.namespace }

// Emit 不给 target 时广播；给出时每个 target 各投递一次
func (e *Emitter) Emit(ctx context.Context, name string, payload interface{}, target ...string) {
	data, err := json.Marshal(payload)
	if err != nil {
		e.log.Error("marshal event payload", zap.String("event", name), zap.Error(err))
		return
	}
	if len(target) == 0 {
		e.publish(ctx, Event{Namespace: e.namespace, Name: name, Payload: data})
		return
	}
	for _, t := range target {
		e.publish(ctx, Event{Namespace: e.namespace, Name: name, Payload: data, Target: t})
	}
}

func (e *Emitter) publish(ctx context.Context, ev Event) {
	if err := e.bus.Publish(ctx, ev); err != nil {
		e.log.Warn("publish event failed", zap.String("event", ev.Name), zap.String("target", ev.Target), zap.Error(err))
	}
}

// Emitters 各命名空间的 emitter
type Emitters struct {
	Post         *Emitter
	Chat         *Emitter
	Follower     *Emitter
	Image        *Emitter
	Notification *Emitter
	User         *Emitter
}

func NewEmitters(bus Bus, log *zap.Logger) *Emitters {
	return &Emitters{
		Post:         NewEmitter(NamespacePost, bus, log),
		Chat:         NewEmitter(NamespaceChat, bus, log),
		Follower:     NewEmitter(NamespaceFollower, bus, log),
		Image:        NewEmitter(NamespaceImage, bus, log),
		Notification: NewEmitter(NamespaceNotification, bus, log),
		User:         NewEmitter(NamespaceUser, bus, log),
	}
}
