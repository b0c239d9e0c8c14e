package handler

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/api/middleware"
	"github.com/d60-Lab/socialgraph/pkg/response"
)

const keepAlive = 25 * time.Second

// Stream 以 SSE 推送当前用户可见的事件
// @Summary 实时事件流
// @Tags 实时
// @Produce text/event-stream
// @Param Authorization header string true "Bearer <jwt>"
// @Success 200 {string} string "event stream"
// @Failure 401 {object} response.Response
// @Router /api/v1/realtime/stream [get]
func (h *Handler) Stream(c *gin.Context) {
	actorID := middleware.ActorID(c)
	ctx := c.Request.Context()
	conn := h.hub.Connect(ctx, actorID)
	// 请求结束后 ctx 已取消，下线广播用独立 ctx
	defer h.hub.Disconnect(context.WithoutCancel(ctx), conn)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	c.SSEvent("connected", gin.H{"connectionId": conn.ID})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-conn.Events():
			if !ok {
				return false
			}
			c.SSEvent(ev.Namespace+":"+ev.Name, ev.Payload)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
	h.log.Debug("stream closed", zap.String("actor", actorID), zap.String("conn", conn.ID))
}

// Online 当前进程的在线用户
// @Summary 在线用户
// @Tags 实时
// @Produce json
// @Success 200 {object} response.Response{data=[]string}
// @Router /api/v1/realtime/online [get]
func (h *Handler) Online(c *gin.Context) {
	response.Success(c, gin.H{"users": h.hub.Online()})
}

// Health 存活检查
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}
