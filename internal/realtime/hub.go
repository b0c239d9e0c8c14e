package realtime

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/pkg/logger"
)

const defaultConnBuffer = 64

// Conn 一个在线连接；事件从 Events() 读取，Hub 关闭或断开后 channel 关闭
type Conn struct {
	ID      string
	ActorID string
	send    chan Event
	once    sync.Once
}

func (c *Conn) Events() <-chan Event { return c.send }

func (c *Conn) close() { c.once.Do(func() { close(c.send) }) }

// Hub 本进程的连接注册表。actor -> 连接是后写覆盖的映射。
type Hub struct {
	bus     Bus
	buffer  int
	metrics *Metrics
	log     *zap.Logger

	mu     sync.RWMutex
	conns  map[string]*Conn
	actors map[string]string
	closed bool
}

type HubOptions struct {
	Buffer  int
	Metrics *Metrics
}

func NewHub(bus Bus, opts HubOptions, log *zap.Logger) *Hub {
	if opts.Buffer <= 0 {
		opts.Buffer = defaultConnBuffer
	}
	if log == nil {
		log = logger.Named("realtime.hub")
	}
	return &Hub{
		bus:     bus,
		buffer:  opts.Buffer,
		metrics: opts.Metrics,
		log:     log,
		conns:   map[string]*Conn{},
		actors:  map[string]string{},
	}
}

// Connect 注册连接并广播在线列表
func (h *Hub) Connect(ctx context.Context, actorID string) *Conn {
	c := &Conn{ID: uuid.New().String(), ActorID: actorID, send: make(chan Event, h.buffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.close()
		return c
	}
	h.conns[c.ID] = c
	h.actors[actorID] = c.ID
	n := len(h.conns)
	h.mu.Unlock()

	h.metrics.setConnections(n)
	h.log.Debug("connected", zap.String("actor", actorID), zap.String("conn", c.ID))
	h.broadcastOnline(ctx)
	return c
}

// Disconnect 只有当 actor 仍映射到这个连接时才下线该 actor
func (h *Hub) Disconnect(ctx context.Context, c *Conn) {
	h.mu.Lock()
	if _, ok := h.conns[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, c.ID)
	if h.actors[c.ActorID] == c.ID {
		delete(h.actors, c.ActorID)
	}
	n := len(h.conns)
	h.mu.Unlock()

	c.close()
	h.metrics.setConnections(n)
	h.log.Debug("disconnected", zap.String("actor", c.ActorID), zap.String("conn", c.ID))
	h.broadcastOnline(ctx)
}

// Online 当前在线的用户 id，已排序
func (h *Hub) Online() []string {
	h.mu.RLock()
	res := make([]string, 0, len(h.actors))
	for id := range h.actors {
		res = append(res, id)
	}
	h.mu.RUnlock()
	sort.Strings(res)
	return res
}

func (h *Hub) broadcastOnline(ctx context.Context) {
	data, err := json.Marshal(h.Online())
	if err != nil {
		return
	}
	ev := Event{Namespace: NamespaceUser, Name: EventUsersOnline, Payload: data}
	if err := h.bus.Publish(ctx, ev); err != nil {
		h.log.Warn("publish users online failed", zap.Error(err))
	}
}

// Start 同步完成订阅，随后在后台投递直到 ctx 结束
func (h *Hub) Start(ctx context.Context) error {
	events, err := h.bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	go func() {
		for ev := range events {
			h.deliver(ev)
		}
	}()
	return nil
}

// Run 阻塞版本的 Start
func (h *Hub) Run(ctx context.Context) error {
	if err := h.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// deliver 非阻塞写入：连接缓冲满时丢弃（至多一次）
func (h *Hub) deliver(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.conns {
		if ev.Target != "" && c.ActorID != ev.Target {
			continue
		}
		select {
		case c.send <- ev:
			h.metrics.incDelivered()
		default:
			h.metrics.incDropped()
			h.log.Warn("connection buffer full, drop event",
				zap.String("conn", c.ID), zap.String("namespace", ev.Namespace), zap.String("event", ev.Name))
		}
	}
}

// Close 关闭所有连接，之后的 Connect 得到已关闭的连接
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, c := range h.conns {
		c.close()
		delete(h.conns, id)
	}
	h.actors = map[string]string{}
	h.metrics.setConnections(0)
}
