package handler

import (
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/realtime"
	"github.com/d60-Lab/socialgraph/internal/service"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

// Handler 实时连接层的 HTTP 入口
type Handler struct {
	hub   *realtime.Hub
	chats service.ChatService
	log   *zap.Logger
}

func New(hub *realtime.Hub, chats service.ChatService, log *zap.Logger) *Handler {
	if log == nil {
		log = logger.Named("api")
	}
	return &Handler{hub: hub, chats: chats, log: log}
}
