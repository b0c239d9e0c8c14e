package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/mailer"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/queue"
	"github.com/d60-Lab/socialgraph/internal/realtime"
)

func TestChatService_SendUnreadSendsEmail(t *testing.T) {
	e := newEnv(t)
	svc := NewChatService(e.deps)
	ctx := context.Background()
	alice, bob := e.cachedUser(t), e.cachedUser(t)

	m, err := svc.Send(ctx, alice.ID, NewMessage{ReceiverID: bob.ID, Body: "hi"})
	require.NoError(t, err)
	assert.False(t, m.IsRead)
	assert.Equal(t, bob.Username, m.ReceiverUsername)

	ev := e.next(t, realtime.EventMessageReceived)
	assert.Equal(t, realtime.NamespaceChat, ev.Namespace)
	assert.Equal(t, alice.ID, ev.Target)
	ev = e.next(t, realtime.EventMessageReceived)
	assert.Equal(t, bob.ID, ev.Target)

	added := e.broker.named(queue.JobAddChatMessage)
	require.Len(t, added, 1)
	assert.Equal(t, m.ConversationID, decode[jobs.AddChatMessage](t, added[0].Payload).Message.ConversationID)

	emails := e.broker.named(queue.JobDirectMessageEmail)
	require.Len(t, emails, 1)
	assert.Equal(t, bob.Email, decode[mailer.Message](t, emails[0].Payload).To)

	// 第二条复用同一会话
	m2, err := svc.Send(ctx, bob.ID, NewMessage{ReceiverID: alice.ID, Body: "hey"})
	require.NoError(t, err)
	assert.Equal(t, m.ConversationID, m2.ConversationID)

	list, err := svc.Messages(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "hi", list[0].Body)

	convs, err := svc.ConversationList(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, m2.ID, convs[0].ID)
}

func TestChatService_SendWhileBothInChatIsRead(t *testing.T) {
	e := newEnv(t)
	svc := NewChatService(e.deps)
	ctx := context.Background()
	alice, bob := e.cachedUser(t), e.cachedUser(t)

	pairs, err := svc.AddChatUsers(ctx, model.ChatUsers{UserOne: bob.ID, UserTwo: alice.ID})
	require.NoError(t, err)
	assert.Len(t, pairs, 1)
	e.next(t, realtime.EventChatUsers)

	m, err := svc.Send(ctx, alice.ID, NewMessage{ReceiverID: bob.ID, Body: "hi"})
	require.NoError(t, err)
	assert.True(t, m.IsRead)
	assert.Empty(t, e.broker.named(queue.JobDirectMessageEmail))

	pairs, err = svc.RemoveChatUsers(ctx, model.ChatUsers{UserOne: alice.ID, UserTwo: bob.ID})
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestChatService_SendRejects(t *testing.T) {
	e := newEnv(t)
	svc := NewChatService(e.deps)
	alice := e.cachedUser(t)

	_, err := svc.Send(context.Background(), alice.ID, NewMessage{ReceiverID: alice.ID, Body: "me"})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	_, err = svc.Send(context.Background(), alice.ID, NewMessage{ReceiverID: model.NewID()})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestChatService_ReadDeleteReact(t *testing.T) {
	e := newEnv(t)
	svc := NewChatService(e.deps)
	ctx := context.Background()
	alice, bob := e.cachedUser(t), e.cachedUser(t)
	m, err := svc.Send(ctx, alice.ID, NewMessage{ReceiverID: bob.ID, Body: "hi"})
	require.NoError(t, err)

	read, err := svc.MarkRead(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, read)
	assert.True(t, read.IsRead)
	e.next(t, realtime.EventMessageRead)
	assert.True(t, decode[model.Message](t, e.next(t, realtime.EventChatList).Payload).IsRead)
	marks := e.broker.named(queue.JobMarkMessagesAsRead)
	require.Len(t, marks, 1)
	assert.Equal(t, jobs.MarkMessagesRead{SenderID: alice.ID, ReceiverID: bob.ID}, decode[jobs.MarkMessagesRead](t, marks[0].Payload))

	reacted, err := svc.React(ctx, bob.ID, MessageReactionInput{ConversationID: m.ConversationID, MessageID: m.ID, Type: model.ReactionLove, Add: true})
	require.NoError(t, err)
	require.Len(t, reacted.Reaction, 1)
	assert.Equal(t, bob.Username, reacted.Reaction[0].SenderName)
	e.next(t, realtime.EventMessageReaction)

	deleted, err := svc.MarkDeleted(ctx, alice.ID, bob.ID, m.ID, model.DeleteForEveryone)
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.True(t, deleted.DeleteForEveryone)
	preview := decode[model.Message](t, e.next(t, realtime.EventChatList).Payload)
	assert.Equal(t, m.ID, preview.ID)
	assert.True(t, preview.DeleteForEveryone)
	assert.Len(t, e.broker.named(queue.JobMarkMessageAsDeleted), 1)

	_, err = svc.MarkDeleted(ctx, alice.ID, bob.ID, m.ID, "deleteForAll")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestChatService_MessagesFallBackToDatabase(t *testing.T) {
	e := newEnv(t)
	svc := NewChatService(e.deps)
	ctx := context.Background()
	alice, bob := e.storedUser(t), e.storedUser(t)
	_, err := e.deps.Repos.Chats.AddMessage(ctx, &model.Message{
		ID: model.NewID(), ConversationID: model.NewID(), SenderID: alice.ID, ReceiverID: bob.ID, Body: "stored",
	})
	require.NoError(t, err)

	list, err := svc.Messages(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "stored", list[0].Body)

	convs, err := svc.ConversationList(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}
