package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/internal/model"
)

func TestFollowerRepository_CountsMoveOnTransition(t *testing.T) {
	db := openTestDB(t)
	repo := NewFollowerRepository(db)
	ctx := context.Background()
	a, b := seedUser(t, db, 0), seedUser(t, db, 1)

	ok, err := repo.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	var ga, gb model.User
	reload(t, db, &ga, a.ID)
	reload(t, db, &gb, b.ID)
	assert.Equal(t, 1, ga.FollowingCount)
	assert.Equal(t, 1, gb.FollowersCount)

	exists, err := repo.Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	for i := 0; i < 2; i++ {
		_, err = repo.Delete(ctx, a.ID, b.ID)
		require.NoError(t, err)
	}
	reload(t, db, &ga, a.ID)
	reload(t, db, &gb, b.ID)
	assert.Equal(t, 0, ga.FollowingCount)
	assert.Equal(t, 0, gb.FollowersCount)
}

func TestFollowerRepository_ListBothDirections(t *testing.T) {
	db := openTestDB(t)
	repo := NewFollowerRepository(db)
	ctx := context.Background()
	star := seedUser(t, db, 0)
	var fans []*model.User
	for i := 1; i <= 3; i++ {
		fan := seedUser(t, db, i)
		fans = append(fans, fan)
		_, err := repo.Create(ctx, fan.ID, star.ID)
		require.NoError(t, err)
	}

	followers, err := repo.ListFollowers(ctx, star.ID, 0, 10)
	require.NoError(t, err)
	assert.Len(t, followers, 3)

	following, err := repo.ListFollowings(ctx, fans[0].ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, star.ID, following[0].ID)
	assert.Equal(t, 3, following[0].FollowersCount)
}
