package model

import "time"

// Conversation 两人会话
type Conversation struct {
	ID         string    `gorm:"primaryKey;type:varchar(24)" json:"_id"`
	SenderID   string    `gorm:"type:varchar(24);index:idx_conv_pair;not null" json:"senderId"`
	ReceiverID string    `gorm:"type:varchar(24);index:idx_conv_pair;not null" json:"receiverId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (Conversation) TableName() string { return "conversations" }

// MessageReaction 每个发送者最多一条
type MessageReaction struct {
	SenderName string       `json:"senderName"`
	Type       ReactionType `json:"type"`
}

// Message 会话内消息
type Message struct {
	ID                     string            `gorm:"primaryKey;type:varchar(24)" json:"_id"`
	ConversationID         string            `gorm:"type:varchar(24);index:idx_message_conv;not null" json:"conversationId"`
	SenderID               string            `gorm:"type:varchar(24);not null" json:"senderId"`
	SenderUsername         string            `gorm:"type:varchar(64)" json:"senderUsername"`
	SenderAvatarColor      string            `gorm:"type:varchar(16)" json:"senderAvatarColor"`
	SenderProfilePicture   string            `gorm:"type:varchar(512)" json:"senderProfilePicture"`
	ReceiverID             string            `gorm:"type:varchar(24);not null" json:"receiverId"`
	ReceiverUsername       string            `gorm:"type:varchar(64)" json:"receiverUsername"`
	ReceiverAvatarColor    string            `gorm:"type:varchar(16)" json:"receiverAvatarColor"`
	ReceiverProfilePicture string            `gorm:"type:varchar(512)" json:"receiverProfilePicture"`
	Body                   string            `gorm:"type:text" json:"body"`
	GifURL                 string            `gorm:"type:varchar(512)" json:"gifUrl"`
	SelectedImage          string            `gorm:"type:varchar(512)" json:"selectedImage"`
	IsRead                 bool              `json:"isRead"`
	DeleteForMe            bool              `json:"deleteForMe"`
	DeleteForEveryone      bool              `json:"deleteForEveryone"`
	Reaction               []MessageReaction `gorm:"serializer:json" json:"reaction"`
	CreatedAt              time.Time         `gorm:"index:idx_message_conv" json:"createdAt"`
}

func (Message) TableName() string { return "messages" }

// SetReaction 先删后加，保证每个发送者至多一条
func (m *Message) SetReaction(senderName string, t ReactionType, add bool) {
	out := m.Reaction[:0]
	for _, r := range m.Reaction {
		if r.SenderName != senderName {
			out = append(out, r)
		}
	}
	if add {
		out = append(out, MessageReaction{SenderName: senderName, Type: t})
	}
	m.Reaction = out
}

// DeleteType 软删除方式
type DeleteType string

const (
	DeleteForMe       DeleteType = "deleteForMe"
	DeleteForEveryone DeleteType = "deleteForEveryone"
)

func (d DeleteType) Valid() bool { return d == DeleteForMe || d == DeleteForEveryone }

// Apply 设置对应的软删除标记
func (d DeleteType) Apply(m *Message) {
	switch d {
	case DeleteForMe:
		m.DeleteForMe = true
	case DeleteForEveryone:
		m.DeleteForMe = true
		m.DeleteForEveryone = true
	}
}

// ChatListEntry 会话列表项
type ChatListEntry struct {
	ReceiverID     string `json:"receiverId"`
	ConversationID string `json:"conversationId"`
}

// ChatUsers 正在聊天的两人
type ChatUsers struct {
	UserOne string `json:"userOne"`
	UserTwo string `json:"userTwo"`
}

// Same 忽略顺序比较
func (c ChatUsers) Same(o ChatUsers) bool {
	return (c.UserOne == o.UserOne && c.UserTwo == o.UserTwo) ||
		(c.UserOne == o.UserTwo && c.UserTwo == o.UserOne)
}
