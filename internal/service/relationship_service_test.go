package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/queue"
	"github.com/d60-Lab/socialgraph/internal/realtime"
)

func TestRelationshipService_FollowSelf(t *testing.T) {
	e := newEnv(t)
	svc := NewRelationshipService(e.deps)
	u := e.cachedUser(t)

	err := svc.Follow(context.Background(), u.ID, u.ID)
	assert.True(t, errors.Is(err, ErrFollowSelf))
}

func TestRelationshipService_FollowIsIdempotent(t *testing.T) {
	e := newEnv(t)
	svc := NewRelationshipService(e.deps)
	ctx := context.Background()
	a, b := e.cachedUser(t), e.cachedUser(t)

	require.NoError(t, svc.Follow(ctx, a.ID, b.ID))
	require.NoError(t, svc.Follow(ctx, a.ID, b.ID))

	// 落库任务幂等，重复关注也入队
	follows := e.broker.named(queue.JobAddFollower)
	require.Len(t, follows, 2)
	job := decode[jobs.Follow](t, follows[0].Payload)
	assert.Equal(t, a.ID, job.FollowerID)
	assert.Equal(t, b.ID, job.FolloweeID)
	assert.True(t, model.ValidID(job.ID))

	ev := decode[FollowEvent](t, e.next(t, realtime.EventAddFollower).Payload)
	assert.Equal(t, a.Username, ev.User.Username)
	e.none(t, realtime.EventAddFollower)

	followers, err := svc.Followers(ctx, b.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, a.ID, followers[0].ID)
	assert.Equal(t, 1, followers[0].FollowingCount)

	following, err := svc.Following(ctx, a.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, 1, following[0].FollowersCount)

	require.NoError(t, svc.Unfollow(ctx, a.ID, b.ID))
	require.NoError(t, svc.Unfollow(ctx, a.ID, b.ID))
	assert.Len(t, e.broker.named(queue.JobRemoveFollower), 2)
	e.next(t, realtime.EventRemoveFollower)
	e.none(t, realtime.EventRemoveFollower)
}

func TestRelationshipService_UnfollowEdgeOnlyInDatabase(t *testing.T) {
	e := newEnv(t)
	svc := NewRelationshipService(e.deps)
	ctx := context.Background()
	a, b := e.storedUser(t), e.storedUser(t)
	_, err := e.deps.Repos.Followers.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)

	following, err := svc.Following(ctx, a.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, following, 1)

	require.NoError(t, svc.Unfollow(ctx, a.ID, b.ID))
	removes := e.broker.named(queue.JobRemoveFollower)
	require.Len(t, removes, 1)
	job := decode[jobs.Follow](t, removes[0].Payload)
	assert.Equal(t, a.ID, job.FollowerID)
	assert.Equal(t, b.ID, job.FolloweeID)
	e.none(t, realtime.EventRemoveFollower)
}

func TestRelationshipService_ConcurrentFollowCounts(t *testing.T) {
	e := newEnv(t)
	svc := NewRelationshipService(e.deps)
	ctx := context.Background()
	target := e.cachedUser(t)

	fans := make([]*model.User, 8)
	for i := range fans {
		fans[i] = e.cachedUser(t)
	}
	var wg sync.WaitGroup
	for _, f := range fans {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_ = svc.Follow(ctx, id, target.ID)
			_ = svc.Unfollow(ctx, id, target.ID)
			_ = svc.Follow(ctx, id, target.ID)
		}(f.ID)
	}
	wg.Wait()

	u, err := e.deps.Caches.Users.Get(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, len(fans), u.FollowersCount)

	page, err := svc.Followers(ctx, target.ID, 2, 5)
	require.NoError(t, err)
	assert.Len(t, page, 3)
}

func TestRelationshipService_FollowersFallBackToDatabase(t *testing.T) {
	e := newEnv(t)
	svc := NewRelationshipService(e.deps)
	ctx := context.Background()
	a, b := e.storedUser(t), e.storedUser(t)
	_, err := e.deps.Repos.Followers.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)

	followers, err := svc.Followers(ctx, b.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, a.ID, followers[0].ID)
}

func TestRelationshipService_Block(t *testing.T) {
	e := newEnv(t)
	svc := NewRelationshipService(e.deps)
	ctx := context.Background()
	a, b := e.cachedUser(t), e.cachedUser(t)

	require.NoError(t, svc.Block(ctx, a.ID, b.ID))
	ua, err := e.deps.Caches.Users.Get(ctx, a.ID)
	require.NoError(t, err)
	ub, err := e.deps.Caches.Users.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ua.Blocked)
	assert.Equal(t, []string{a.ID}, ub.BlockedBy)

	ev := e.next(t, realtime.EventBlockedUserID)
	assert.Equal(t, realtime.NamespaceUser, ev.Namespace)
	assert.Equal(t, BlockEvent{BlockedUser: b.ID, BlockedBy: a.ID}, decode[BlockEvent](t, ev.Payload))
	assert.Len(t, e.broker.named(queue.JobAddBlockedUser), 1)

	require.NoError(t, svc.Unblock(ctx, a.ID, b.ID))
	e.next(t, realtime.EventUnblockedUserID)
	ua, err = e.deps.Caches.Users.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, ua.Blocked)
	assert.Len(t, e.broker.named(queue.JobRemoveBlockedUser), 1)
}
