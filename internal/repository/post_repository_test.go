package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/model"
)

func TestPostRepository_CreateCountsOnce(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostRepository(db)
	u := seedUser(t, db, 0)
	p := seedPost(t, db, u, 0)

	ok, err := repo.Create(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, ok)

	var got model.User
	reload(t, db, &got, u.ID)
	assert.Equal(t, 1, got.PostsCount)
}

func TestPostRepository_ListFilters(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	a, b := seedUser(t, db, 0), seedUser(t, db, 1)
	var posts []*model.Post
	for i := 0; i < 4; i++ {
		owner := a
		if i%2 == 1 {
			owner = b
		}
		posts = append(posts, seedPost(t, db, owner, i))
	}
	require.NoError(t, repo.Update(ctx, posts[1].ID, model.PostUpdate{Body: "pic", ImgID: "img1", ImgVersion: "1"}))

	all, err := repo.List(ctx, PostFilter{}, model.PageOf(1, model.PostsPageSize))
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, posts[3].ID, all[0].ID)

	byB, err := repo.List(ctx, PostFilter{UserID: b.ID}, model.PageOf(1, model.PostsPageSize))
	require.NoError(t, err)
	assert.Len(t, byB, 2)

	images, err := repo.List(ctx, PostFilter{WithImages: true}, model.PageOf(1, model.PostsPageSize))
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "pic", images[0].Body)

	n, err := repo.Count(ctx, PostFilter{UserID: a.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestPostRepository_UpdateMissing(t *testing.T) {
	repo := NewPostRepository(openTestDB(t))
	err := repo.Update(context.Background(), model.NewID(), model.PostUpdate{Body: "x"})
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestPostRepository_DeleteCascadesAndDecrements(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	u := seedUser(t, db, 0)
	p := seedPost(t, db, u, 0)
	_, err := NewCommentRepository(db).Create(ctx, &model.Comment{ID: model.NewID(), PostID: p.ID, UserID: u.ID, Body: "c"})
	require.NoError(t, err)
	_, err = NewReactionRepository(db).Upsert(ctx, &model.Reaction{ID: model.NewID(), PostID: p.ID, UserID: u.ID, Type: model.ReactionLike})
	require.NoError(t, err)

	ok, err := repo.Delete(ctx, p.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Delete(ctx, p.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	var got model.User
	reload(t, db, &got, u.ID)
	assert.Equal(t, 0, got.PostsCount)

	var comments, reactions int64
	db.Model(&model.Comment{}).Where("post_id = ?", p.ID).Count(&comments)
	db.Model(&model.Reaction{}).Where("post_id = ?", p.ID).Count(&reactions)
	assert.Zero(t, comments)
	assert.Zero(t, reactions)
}
