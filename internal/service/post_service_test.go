package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/queue"
	"github.com/d60-Lab/socialgraph/internal/realtime"
)

func TestPostService_CreateWritesThrough(t *testing.T) {
	e := newEnv(t)
	svc := NewPostService(e.deps)
	ctx := context.Background()
	author := e.cachedUser(t)

	p, err := svc.Create(ctx, author.ID, model.PostUpdate{Body: "hello", ImgID: "img1", ImgVersion: "v1"})
	require.NoError(t, err)
	assert.Equal(t, model.PrivacyPublic, p.Privacy)
	assert.Equal(t, author.Username, p.Username)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Body)

	for _, list := range []func(context.Context, int) (*PostsPage, error){svc.List, svc.ListWithImages} {
		page, err := list(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
		require.Len(t, page.Posts, 1)
		assert.Equal(t, p.ID, page.Posts[0].ID)
	}

	ev := e.next(t, realtime.EventAddPost)
	assert.Equal(t, realtime.NamespacePost, ev.Namespace)
	assert.Equal(t, p.ID, decode[model.Post](t, ev.Payload).ID)

	added := e.broker.named(queue.JobAddPost)
	require.Len(t, added, 1)
	assert.Equal(t, p.ID, decode[jobs.AddPost](t, added[0].Payload).Post.ID)
	images := e.broker.named(queue.JobAddImage)
	require.Len(t, images, 1)
	assert.Equal(t, "img1", decode[jobs.Image](t, images[0].Payload).Image.ImgID)

	u, err := e.deps.Caches.Users.Get(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.PostsCount)
}

func TestPostService_UpdateAndDeleteRequireAuthor(t *testing.T) {
	e := newEnv(t)
	svc := NewPostService(e.deps)
	ctx := context.Background()
	author, other := e.cachedUser(t), e.cachedUser(t)

	p, err := svc.Create(ctx, author.ID, model.PostUpdate{Body: "first", Privacy: model.PrivacyPrivate})
	require.NoError(t, err)

	_, err = svc.Update(ctx, other.ID, p.ID, model.PostUpdate{Body: "hijack"})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	assert.Equal(t, apperr.Validation, apperr.KindOf(svc.Delete(ctx, other.ID, p.ID)))

	updated, err := svc.Update(ctx, author.ID, p.ID, model.PostUpdate{Body: "second"})
	require.NoError(t, err)
	assert.Equal(t, "second", updated.Body)
	assert.Equal(t, model.PrivacyPrivate, updated.Privacy)
	assert.Len(t, e.broker.named(queue.JobUpdatePost), 1)

	require.NoError(t, svc.Delete(ctx, author.ID, p.ID))
	e.next(t, realtime.EventDeletePost)
	cached, err := e.deps.Caches.Posts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)
	deletes := e.broker.named(queue.JobDeletePost)
	require.Len(t, deletes, 1)
	assert.Equal(t, jobs.DeletePost{PostID: p.ID, UserID: author.ID}, decode[jobs.DeletePost](t, deletes[0].Payload))
}

func TestPostService_ListFallsBackToDatabase(t *testing.T) {
	e := newEnv(t)
	svc := NewPostService(e.deps)
	author := e.storedUser(t)
	for i := 0; i < 12; i++ {
		require.NoError(t, e.db.Create(&model.Post{ID: model.NewID(), UserID: author.ID, Body: "db"}).Error)
	}

	page, err := svc.ByUser(context.Background(), author.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 12, page.Total)
	assert.Len(t, page.Posts, 2)
}

func TestPostService_GetMissing(t *testing.T) {
	e := newEnv(t)
	svc := NewPostService(e.deps)

	_, err := svc.Get(context.Background(), "not-an-id")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	_, err = svc.Get(context.Background(), model.NewID())
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
