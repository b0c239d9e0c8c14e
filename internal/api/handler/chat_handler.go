package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/socialgraph/internal/api/middleware"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/pkg/response"
)

type chatRoomRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// JoinChat 当前用户打开与 userId 的聊天页，之后双方的新消息直接记为已读
// @Summary 进入聊天页
// @Tags 实时
// @Accept json
// @Produce json
// @Param request body chatRoomRequest true "对方用户"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/realtime/chat/join [post]
func (h *Handler) JoinChat(c *gin.Context) {
	h.chatRoom(c, true)
}

// LeaveChat 离开聊天页
// @Summary 离开聊天页
// @Tags 实时
// @Accept json
// @Produce json
// @Param request body chatRoomRequest true "对方用户"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/realtime/chat/leave [post]
func (h *Handler) LeaveChat(c *gin.Context) {
	h.chatRoom(c, false)
}

func (h *Handler) chatRoom(c *gin.Context, join bool) {
	var req chatRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	pair := model.ChatUsers{UserOne: middleware.ActorID(c), UserTwo: req.UserID}
	var (
		list []model.ChatUsers
		err  error
	)
	if join {
		list, err = h.chats.AddChatUsers(c.Request.Context(), pair)
	} else {
		list, err = h.chats.RemoveChatUsers(c.Request.Context(), pair)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"chatUsers": list})
}
