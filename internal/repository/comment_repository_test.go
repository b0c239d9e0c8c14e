package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/internal/model"
)

func TestCommentRepository_RedeliveryWritesOnce(t *testing.T) {
	db := openTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()
	u := seedUser(t, db, 0)
	p := seedPost(t, db, u, 0)
	c := &model.Comment{ID: model.NewID(), PostID: p.ID, UserID: u.ID, Username: u.Username, Body: "first", CreatedAt: fixtureClock}

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, c)
		require.NoError(t, err)
	}

	var got model.Post
	reload(t, db, &got, p.ID)
	assert.Equal(t, 1, got.CommentsCount)

	list, err := repo.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCommentRepository_ListAndNames(t *testing.T) {
	db := openTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()
	a, b := seedUser(t, db, 0), seedUser(t, db, 1)
	p := seedPost(t, db, a, 0)
	for i, u := range []*model.User{a, b, a} {
		_, err := repo.Create(ctx, &model.Comment{
			ID: model.NewID(), PostID: p.ID, UserID: u.ID, Username: u.Username,
			Body: "c", CreatedAt: fixtureClock.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	names, err := repo.Names(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, names.Count)
	assert.Equal(t, []string{a.Username, b.Username, a.Username}, names.Names)

	list, err := repo.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, b.ID, list[1].UserID)

	got, err := repo.FindByID(ctx, list[1].ID)
	require.NoError(t, err)
	assert.Equal(t, list[1].ID, got.ID)
}
