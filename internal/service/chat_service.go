package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/cache"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/mailer"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/queue"
	"github.com/d60-Lab/socialgraph/internal/realtime"
	"github.com/d60-Lab/socialgraph/internal/repository"
)

type NewMessage struct {
	ReceiverID    string `json:"receiverId" validate:"required,len=24,hexadecimal"`
	Body          string `json:"body" validate:"max=2000"`
	GifURL        string `json:"gifUrl" validate:"omitempty,url"`
	SelectedImage string `json:"selectedImage"`
}

type MessageReactionInput struct {
	ConversationID string             `json:"conversationId" validate:"required,len=24,hexadecimal"`
	MessageID      string             `json:"messageId" validate:"required,len=24,hexadecimal"`
	Type           model.ReactionType `json:"reaction"`
	Add            bool               `json:"add"`
}

type ChatService interface {
	Send(ctx context.Context, senderID string, in NewMessage) (*model.Message, error)
	ConversationList(ctx context.Context, actorID string) ([]*model.Message, error)
	Messages(ctx context.Context, actorID, receiverID string) ([]*model.Message, error)
	MarkDeleted(ctx context.Context, actorID, receiverID, messageID string, t model.DeleteType) (*model.Message, error)
	MarkRead(ctx context.Context, actorID, receiverID string) (*model.Message, error)
	React(ctx context.Context, actorID string, in MessageReactionInput) (*model.Message, error)
	AddChatUsers(ctx context.Context, pair model.ChatUsers) ([]model.ChatUsers, error)
	RemoveChatUsers(ctx context.Context, pair model.ChatUsers) ([]model.ChatUsers, error)
}

type chatService struct {
	cache   *cache.MessageCache
	repo    repository.ChatRepository
	profile profileReader
	deps    Deps
	log     *zap.Logger
}

func NewChatService(d Deps) ChatService {
	return &chatService{
		cache:   d.Caches.Messages,
		repo:    d.Repos.Chats,
		profile: profileReader{cache: d.Caches.Users, repo: d.Repos.Users},
		deps:    d,
		log:     d.logger("service.chat"),
	}
}

// Send 两人都在聊天页时消息直接记为已读；未读且对方开启了私信提醒时发邮件
func (s *chatService) Send(ctx context.Context, senderID string, in NewMessage) (*model.Message, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Body == "" && in.GifURL == "" && in.SelectedImage == "" {
		return nil, apperr.New(apperr.Validation, "message is empty")
	}
	if senderID == in.ReceiverID {
		return nil, apperr.New(apperr.Validation, "cannot message self")
	}
	sender, err := s.profile.get(ctx, senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.profile.get(ctx, in.ReceiverID)
	if err != nil {
		return nil, err
	}
	convID, err := s.conversationID(ctx, senderID, in.ReceiverID)
	if err != nil {
		return nil, err
	}
	read, err := s.bothInChat(ctx, senderID, in.ReceiverID)
	if err != nil {
		return nil, err
	}

	m := &model.Message{
		ID:                     model.NewID(),
		ConversationID:         convID,
		SenderID:               sender.ID,
		SenderUsername:         sender.Username,
		SenderAvatarColor:      sender.AvatarColor,
		SenderProfilePicture:   sender.ProfilePicture,
		ReceiverID:             receiver.ID,
		ReceiverUsername:       receiver.Username,
		ReceiverAvatarColor:    receiver.AvatarColor,
		ReceiverProfilePicture: receiver.ProfilePicture,
		Body:                   in.Body,
		GifURL:                 in.GifURL,
		SelectedImage:          in.SelectedImage,
		IsRead:                 read,
		Reaction:               []model.MessageReaction{},
		CreatedAt:              time.Now().UTC(),
	}
	if err := s.cache.AddChatList(ctx, senderID, in.ReceiverID, convID); err != nil {
		return nil, err
	}
	if err := s.cache.AddMessage(ctx, m); err != nil {
		return nil, err
	}
	s.deps.Emit.Chat.Emit(ctx, realtime.EventMessageReceived, m, sender.ID, receiver.ID)
	s.deps.Emit.Chat.Emit(ctx, realtime.EventChatList, m, sender.ID, receiver.ID)
	s.deps.Queues.Chat.Add(ctx, queue.JobAddChatMessage, jobs.AddChatMessage{Message: m})

	if !m.IsRead && receiver.Notifications.Messages {
		s.messageEmail(ctx, sender, receiver)
	}
	return m, nil
}

// conversationID 缓存、数据库都没有时分配新的
func (s *chatService) conversationID(ctx context.Context, senderID, receiverID string) (string, error) {
	id, ok, err := s.cache.ConversationID(ctx, senderID, receiverID)
	if err != nil {
		return "", err
	}
	if ok {
		return id, nil
	}
	conv, err := s.repo.FindConversation(ctx, senderID, receiverID)
	switch {
	case err == nil:
		return conv.ID, nil
	case errors.Is(err, apperr.ErrNotFound):
		return model.NewID(), nil
	default:
		return "", err
	}
}

func (s *chatService) bothInChat(ctx context.Context, senderID, receiverID string) (bool, error) {
	pairs, err := s.cache.ChatUsers(ctx)
	if err != nil {
		return false, err
	}
	want := model.ChatUsers{UserOne: senderID, UserTwo: receiverID}
	for _, p := range pairs {
		if p.Same(want) {
			return true, nil
		}
	}
	return false, nil
}

func (s *chatService) messageEmail(ctx context.Context, sender, receiver *model.User) {
	html, err := mailer.NotificationTemplate{
		Username: receiver.Username,
		Message:  fmt.Sprintf("You've received messages from %s", sender.Username),
		Header:   "Message Notification",
		AppLink:  s.deps.ClientURL,
	}.Render()
	if err != nil {
		s.log.Warn("render message email", zap.String("receiver", receiver.ID), zap.Error(err))
		return
	}
	s.deps.Queues.Email.Add(ctx, queue.JobDirectMessageEmail, mailer.Message{
		To:      receiver.Email,
		Subject: fmt.Sprintf("You've received messages from %s", sender.Username),
		HTML:    html,
	})
}

func (s *chatService) ConversationList(ctx context.Context, actorID string) ([]*model.Message, error) {
	if err := validateID("user id", actorID); err != nil {
		return nil, err
	}
	list, err := s.cache.ConversationList(ctx, actorID)
	if err != nil || len(list) > 0 {
		return list, err
	}
	return s.repo.ConversationList(ctx, actorID)
}

func (s *chatService) Messages(ctx context.Context, actorID, receiverID string) ([]*model.Message, error) {
	if err := validateID("receiver id", receiverID); err != nil {
		return nil, err
	}
	list, err := s.cache.Messages(ctx, actorID, receiverID)
	if err != nil || len(list) > 0 {
		return list, err
	}
	return s.repo.Messages(ctx, actorID, receiverID)
}

func (s *chatService) MarkDeleted(ctx context.Context, actorID, receiverID, messageID string, t model.DeleteType) (*model.Message, error) {
	if err := validateID("message id", messageID); err != nil {
		return nil, err
	}
	if !t.Valid() {
		return nil, apperr.New(apperr.Validation, "invalid delete type")
	}
	m, err := s.cache.MarkDeleted(ctx, actorID, receiverID, messageID, t)
	if err != nil {
		return nil, err
	}
	if m != nil {
		s.deps.Emit.Chat.Emit(ctx, realtime.EventMessageRead, m, actorID, receiverID)
		s.deps.Emit.Chat.Emit(ctx, realtime.EventChatList, m, actorID, receiverID)
	}
	s.deps.Queues.Chat.Add(ctx, queue.JobMarkMessageAsDeleted, jobs.MarkMessageDeleted{MessageID: messageID, Type: t})
	return m, nil
}

// MarkRead actorID 读了 receiverID 发来的消息
func (s *chatService) MarkRead(ctx context.Context, actorID, receiverID string) (*model.Message, error) {
	if err := validateID("receiver id", receiverID); err != nil {
		return nil, err
	}
	m, err := s.cache.MarkRead(ctx, actorID, receiverID)
	if err != nil {
		return nil, err
	}
	if m != nil {
		s.deps.Emit.Chat.Emit(ctx, realtime.EventMessageRead, m, actorID, receiverID)
		s.deps.Emit.Chat.Emit(ctx, realtime.EventChatList, m, actorID, receiverID)
	}
	s.deps.Queues.Chat.Add(ctx, queue.JobMarkMessagesAsRead, jobs.MarkMessagesRead{SenderID: receiverID, ReceiverID: actorID})
	return m, nil
}

func (s *chatService) React(ctx context.Context, actorID string, in MessageReactionInput) (*model.Message, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Add && !in.Type.Valid() {
		return nil, apperr.New(apperr.Validation, "invalid reaction type")
	}
	actor, err := s.profile.get(ctx, actorID)
	if err != nil {
		return nil, err
	}
	m, err := s.cache.UpdateReaction(ctx, in.ConversationID, in.MessageID, actor.Username, in.Type, in.Add)
	if err != nil {
		return nil, err
	}
	if m != nil {
		s.deps.Emit.Chat.Emit(ctx, realtime.EventMessageReaction, m, m.SenderID, m.ReceiverID)
	}
	s.deps.Queues.Chat.Add(ctx, queue.JobUpdateMessageReaction, jobs.UpdateMessageReaction{
		MessageID: in.MessageID, SenderName: actor.Username, Type: in.Type, Add: in.Add,
	})
	return m, nil
}

func (s *chatService) AddChatUsers(ctx context.Context, pair model.ChatUsers) ([]model.ChatUsers, error) {
	return s.editChatUsers(ctx, pair, true)
}

func (s *chatService) RemoveChatUsers(ctx context.Context, pair model.ChatUsers) ([]model.ChatUsers, error) {
	return s.editChatUsers(ctx, pair, false)
}

func (s *chatService) editChatUsers(ctx context.Context, pair model.ChatUsers, add bool) ([]model.ChatUsers, error) {
	if pair.UserOne == "" || pair.UserTwo == "" {
		return nil, apperr.New(apperr.Validation, "chat users require two ids")
	}
	var (
		list []model.ChatUsers
		err  error
	)
	if add {
		list, err = s.cache.AddChatUsers(ctx, pair)
	} else {
		list, err = s.cache.RemoveChatUsers(ctx, pair)
	}
	if err != nil {
		return nil, err
	}
	s.deps.Emit.Chat.Emit(ctx, realtime.EventChatUsers, list)
	return list, nil
}
