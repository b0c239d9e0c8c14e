package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/socialgraph/internal/model"
)

type ChatRepository interface {
	// FindConversation 不区分方向
	FindConversation(ctx context.Context, userA, userB string) (*model.Conversation, error)
	AddMessage(ctx context.Context, m *model.Message) (bool, error)
	ConversationList(ctx context.Context, userID string) ([]*model.Message, error)
	Messages(ctx context.Context, userA, userB string) ([]*model.Message, error)
	MarkDeleted(ctx context.Context, messageID string, t model.DeleteType) error
	MarkRead(ctx context.Context, senderID, receiverID string) (int64, error)
	UpdateReaction(ctx context.Context, messageID, senderName string, t model.ReactionType, add bool) error
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository { return &chatRepository{db: db} }

func (r *chatRepository) FindConversation(ctx context.Context, userA, userB string) (*model.Conversation, error) {
	var c model.Conversation
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userA, userB, userB, userA).
		First(&c).Error
	if err != nil {
		return nil, notFound(err, "conversation")
	}
	return &c, nil
}

// AddMessage 会话不存在时按消息上的 ConversationID 创建
func (r *chatRepository) AddMessage(ctx context.Context, m *model.Message) (bool, error) {
	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv := &model.Conversation{ID: m.ConversationID, SenderID: m.SenderID, ReceiverID: m.ReceiverID}
		if _, err := insertOnce(tx, conv); err != nil {
			return err
		}
		ok, err := insertOnce(tx, m)
		created = ok
		return err
	})
	return created, err
}

// ConversationList 每个会话的最后一条消息，最新会话在前
func (r *chatRepository) ConversationList(ctx context.Context, userID string) ([]*model.Message, error) {
	last := r.db.Model(&model.Message{}).
		Select("conversation_id, MAX(created_at) AS last_at").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Group("conversation_id")
	var res []*model.Message
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Select("messages.*").
		Joins("JOIN (?) AS t ON messages.conversation_id = t.conversation_id AND messages.created_at = t.last_at", last).
		Order("messages.created_at DESC").
		Find(&res).Error
	return res, err
}

func (r *chatRepository) Messages(ctx context.Context, userA, userB string) ([]*model.Message, error) {
	var res []*model.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userA, userB, userB, userA).
		Order("created_at ASC, id ASC").
		Find(&res).Error
	return res, err
}

func (r *chatRepository) MarkDeleted(ctx context.Context, messageID string, t model.DeleteType) error {
	var m model.Message
	t.Apply(&m)
	res := r.db.WithContext(ctx).Model(&model.Message{}).Where("id = ?", messageID).Updates(map[string]interface{}{
		"delete_for_me":       m.DeleteForMe,
		"delete_for_everyone": m.DeleteForEveryone,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "message")
	}
	return nil
}

// MarkRead 会话双方的未读消息全部置为已读
func (r *chatRepository) MarkRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND is_read = ?",
			senderID, receiverID, receiverID, senderID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *chatRepository) UpdateReaction(ctx context.Context, messageID, senderName string, t model.ReactionType, add bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.Message
		if err := tx.Where("id = ?", messageID).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(err, "message")
			}
			return err
		}
		m.SetReaction(senderName, t, add)
		return tx.Model(&m).Select("Reaction").Updates(&m).Error
	})
}
