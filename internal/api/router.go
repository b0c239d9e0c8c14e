// Package api 只暴露实时层需要的连接入口：SSE 事件流、在线列表、聊天页进出、健康检查和指标。
package api

import (
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/api/handler"
	"github.com/d60-Lab/socialgraph/internal/api/middleware"
	"github.com/d60-Lab/socialgraph/internal/realtime"
	"github.com/d60-Lab/socialgraph/internal/service"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

type Options struct {
	Mode        string
	ServiceName string
	JWTSecret   string
	Gatherer    prometheus.Gatherer
	// Chats 可选；为空时不注册聊天页路由
	Chats       service.ChatService
}

func NewRouter(hub *realtime.Hub, opts Options, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = logger.Named("api")
	}
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	r := gin.New()
	r.Use(gin.Recovery(), accessLog(log))
	if opts.ServiceName != "" {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}

	h := handler.New(hub, opts.Chats, log)
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1/realtime", middleware.Auth(opts.JWTSecret))
	{
		// 流式响应不能压缩
		v1.GET("/stream", h.Stream)
		v1.GET("/online", gzip.Gzip(gzip.DefaultCompression), h.Online)
		if opts.Chats != nil {
			v1.POST("/chat/join", h.JoinChat)
			v1.POST("/chat/leave", h.LeaveChat)
		}
	}
	return r
}

func accessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
