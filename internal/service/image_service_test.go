package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/queue"
	"github.com/d60-Lab/socialgraph/internal/realtime"
)

func TestImageService_ProfileImage(t *testing.T) {
	e := newEnv(t)
	svc := NewImageService(e.deps)
	ctx := context.Background()
	u := e.cachedUser(t)

	url := "https://cdn.example.com/v1/avatar.png"
	got, err := svc.SetProfileImage(ctx, u.ID, UploadedImage{ImgID: "avatar", ImgVersion: "1", URL: url})
	require.NoError(t, err)
	assert.Equal(t, url, got.ProfilePicture)

	cached, err := e.deps.Caches.Users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, url, cached.ProfilePicture)

	ev := e.next(t, realtime.EventUpdateUser)
	assert.Equal(t, realtime.NamespaceImage, ev.Namespace)
	jobsAdded := e.broker.named(queue.JobAddProfileImage)
	require.Len(t, jobsAdded, 1)
	p := decode[jobs.ProfileImage](t, jobsAdded[0].Payload)
	assert.Equal(t, url, p.URL)
	assert.Equal(t, "avatar", p.Image.ImgID)
}

func TestImageService_BackgroundImage(t *testing.T) {
	e := newEnv(t)
	svc := NewImageService(e.deps)
	ctx := context.Background()
	u := e.cachedUser(t)

	got, err := svc.SetBackgroundImage(ctx, u.ID, UploadedImage{ImgID: "bg", ImgVersion: "7"})
	require.NoError(t, err)
	assert.Equal(t, "bg", got.BgImageID)
	assert.Equal(t, "7", got.BgImageVersion)

	got, err = svc.DeleteBackgroundImage(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.BgImageID)

	updates := e.broker.named(queue.JobUpdateBGImage)
	require.Len(t, updates, 2)
	assert.Equal(t, "bg", decode[jobs.Image](t, updates[0].Payload).Image.BgImageID)
	cleared := decode[jobs.Image](t, updates[1].Payload).Image
	assert.Empty(t, cleared.ID)
	assert.Equal(t, u.ID, cleared.UserID)
}

func TestImageService_DeleteAndList(t *testing.T) {
	e := newEnv(t)
	svc := NewImageService(e.deps)
	ctx := context.Background()
	u := e.storedUser(t)
	img := &model.Image{ID: model.NewID(), UserID: u.ID, ImgID: "x", ImgVersion: "1"}
	_, err := e.deps.Repos.Images.Add(ctx, img)
	require.NoError(t, err)

	list, err := svc.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.DeleteImage(ctx, u.ID, img.ID))
	ev := e.next(t, realtime.EventDeleteImage)
	assert.Equal(t, u.ID, ev.Target)
	removes := e.broker.named(queue.JobRemoveImage)
	require.Len(t, removes, 1)
	assert.Equal(t, img.ID, decode[jobs.RemoveImage](t, removes[0].Payload).ImageID)
}
