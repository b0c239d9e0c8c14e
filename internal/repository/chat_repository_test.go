package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/internal/model"
)

func newMessage(conv string, from, to *model.User, i int) *model.Message {
	return &model.Message{
		ID:               model.NewID(),
		ConversationID:   conv,
		SenderID:         from.ID,
		SenderUsername:   from.Username,
		ReceiverID:       to.ID,
		ReceiverUsername: to.Username,
		Body:             "msg",
		Reaction:         []model.MessageReaction{},
		CreatedAt:        fixtureClock.Add(time.Duration(i) * time.Second),
	}
}

func TestChatRepository_Flow(t *testing.T) {
	db := openTestDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()
	a, b, c := seedUser(t, db, 0), seedUser(t, db, 1), seedUser(t, db, 2)
	convAB, convAC := model.NewID(), model.NewID()

	m1 := newMessage(convAB, a, b, 0)
	for _, m := range []*model.Message{m1, newMessage(convAB, b, a, 1), newMessage(convAC, a, c, 2), newMessage(convAB, a, b, 3)} {
		ok, err := repo.AddMessage(ctx, m)
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := repo.AddMessage(ctx, m1)
	require.NoError(t, err)
	assert.False(t, ok)

	conv, err := repo.FindConversation(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, convAB, conv.ID)

	msgs, err := repo.Messages(ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, m1.ID, msgs[0].ID)

	list, err := repo.ConversationList(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, convAB, list[0].ConversationID)
	assert.Equal(t, msgs[2].ID, list[0].ID)

	n, err := repo.MarkRead(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	n, err = repo.MarkRead(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, repo.MarkDeleted(ctx, m1.ID, model.DeleteForEveryone))
	require.NoError(t, repo.UpdateReaction(ctx, m1.ID, b.Username, model.ReactionHappy, true))
	require.NoError(t, repo.UpdateReaction(ctx, m1.ID, b.Username, model.ReactionSad, true))

	var got model.Message
	reload(t, db, &got, m1.ID)
	assert.True(t, got.DeleteForMe)
	assert.True(t, got.DeleteForEveryone)
	assert.True(t, got.IsRead)
	assert.Equal(t, []model.MessageReaction{{SenderName: b.Username, Type: model.ReactionSad}}, got.Reaction)
}
