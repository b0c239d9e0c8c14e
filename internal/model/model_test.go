package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 24)
	assert.True(t, ValidID(a))
	assert.NotEqual(t, a, b)
	assert.False(t, ValidID("not-an-id"))
}

func TestPageOf(t *testing.T) {
	assert.Equal(t, Page{Offset: 0, Limit: 10}, PageOf(1, 10))
	assert.Equal(t, Page{Offset: 24, Limit: 12}, PageOf(3, UsersPageSize))
	assert.Equal(t, Page{Offset: 0, Limit: 10}, PageOf(0, 0))
}

func TestReactions_AddGet(t *testing.T) {
	var r Reactions
	r.Add(ReactionLike, 1)
	r.Add(ReactionLove, 2)
	r.Add(ReactionLike, -1)
	r.Add("meh", 5)

	assert.Equal(t, 0, r.Get(ReactionLike))
	assert.Equal(t, 2, r.Get(ReactionLove))
	assert.Equal(t, "reactions.love", ReactionLove.Field())
	assert.Equal(t, "reactions_love", ReactionLove.Column())
	assert.False(t, ReactionType("meh").Valid())
}

func TestMessage_SetReaction(t *testing.T) {
	m := &Message{}
	m.SetReaction("alice", ReactionLike, true)
	m.SetReaction("bob", ReactionSad, true)
	m.SetReaction("alice", ReactionLove, true)

	assert.Equal(t, []MessageReaction{{"bob", ReactionSad}, {"alice", ReactionLove}}, m.Reaction)

	m.SetReaction("bob", "", false)
	assert.Equal(t, []MessageReaction{{"alice", ReactionLove}}, m.Reaction)
}

func TestDeleteType_Apply(t *testing.T) {
	m := &Message{}
	DeleteForMe.Apply(m)
	assert.True(t, m.DeleteForMe)
	assert.False(t, m.DeleteForEveryone)

	DeleteForEveryone.Apply(m)
	assert.True(t, m.DeleteForEveryone)
}

func TestChatUsers_Same(t *testing.T) {
	assert.True(t, ChatUsers{"a", "b"}.Same(ChatUsers{"b", "a"}))
	assert.False(t, ChatUsers{"a", "b"}.Same(ChatUsers{"a", "c"}))
}
