package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/model"
)

func TestUserRepository_CreateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	u := seedUser(t, db, 0)

	ok, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := repo.Count(context.Background(), "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestUserRepository_FindByIDNotFound(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	_, err := repo.FindByID(context.Background(), model.NewID())
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestUserRepository_ListNewestFirstExcluding(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	var users []*model.User
	for i := 0; i < 5; i++ {
		users = append(users, seedUser(t, db, i))
	}

	got, err := repo.List(context.Background(), model.Page{Offset: 0, Limit: 3}, users[4].ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, users[3].ID, got[0].ID)
	assert.Equal(t, users[1].ID, got[2].ID)

	n, err := repo.Count(context.Background(), users[4].ID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestUserRepository_Updates(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	u := seedUser(t, db, 0)
	ctx := context.Background()

	require.NoError(t, repo.UpdateInfo(ctx, u.ID, model.UserInfo{Work: "acme", Quote: "hi"}))
	require.NoError(t, repo.UpdateSocialLinks(ctx, u.ID, model.SocialLinks{Twitter: "https://x.com/u"}))
	settings := model.DefaultNotificationSettings()
	settings.Follows = false
	require.NoError(t, repo.UpdateNotificationSettings(ctx, u.ID, settings))
	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "hash"))

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Work)
	assert.Equal(t, "https://x.com/u", got.Social.Twitter)
	assert.False(t, got.Notifications.Follows)
	assert.True(t, got.Notifications.Comments)
	assert.Equal(t, "hash", got.Password)

	err = repo.UpdatePassword(ctx, model.NewID(), "hash")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestUserRepository_SetBlocked(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	a, b := seedUser(t, db, 0), seedUser(t, db, 1)
	ctx := context.Background()

	require.NoError(t, repo.SetBlocked(ctx, a.ID, b.ID, true))
	require.NoError(t, repo.SetBlocked(ctx, a.ID, b.ID, true))

	ga, _ := repo.FindByID(ctx, a.ID)
	gb, _ := repo.FindByID(ctx, b.ID)
	assert.Equal(t, []string{b.ID}, ga.Blocked)
	assert.Equal(t, []string{a.ID}, gb.BlockedBy)

	require.NoError(t, repo.SetBlocked(ctx, a.ID, b.ID, false))
	ga, _ = repo.FindByID(ctx, a.ID)
	gb, _ = repo.FindByID(ctx, b.ID)
	assert.Empty(t, ga.Blocked)
	assert.Empty(t, gb.BlockedBy)
}

func TestUserRepository_SuggestionsSkipFollowed(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	me := seedUser(t, db, 0)
	followed := seedUser(t, db, 1)
	other := seedUser(t, db, 2)
	_, err := NewFollowerRepository(db).Create(context.Background(), me.ID, followed.ID)
	require.NoError(t, err)

	got, err := repo.Suggestions(context.Background(), me.ID, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, other.ID, got[0].ID)
}
