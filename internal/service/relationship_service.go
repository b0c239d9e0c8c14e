package service

import (
	"context"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/cache"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/queue"
	"github.com/d60-Lab/socialgraph/internal/realtime"
	"github.com/d60-Lab/socialgraph/internal/repository"
)

var (
	ErrFollowSelf = apperr.New(apperr.Validation, "cannot follow self")
	ErrBlockSelf  = apperr.New(apperr.Validation, "cannot block self")
)

// FollowEvent follower 命名空间的事件负载；User 为关注者资料
type FollowEvent struct {
	FollowerID string      `json:"followerId"`
	FolloweeID string      `json:"followeeId"`
	User       *model.User `json:"user,omitempty"`
}

// BlockEvent user 命名空间 blocked/unblocked 事件负载
type BlockEvent struct {
	BlockedUser string `json:"blockedUser"`
	BlockedBy   string `json:"blockedBy"`
}

// RelationshipService 关系链服务
type RelationshipService interface {
	Follow(ctx context.Context, fromUserID, toUserID string) error
	Unfollow(ctx context.Context, fromUserID, toUserID string) error
	Following(ctx context.Context, userID string, page, pageSize int) ([]*model.User, error)
	Followers(ctx context.Context, userID string, page, pageSize int) ([]*model.User, error)
	Block(ctx context.Context, userID, targetID string) error
	Unblock(ctx context.Context, userID, targetID string) error
}

type relationshipService struct {
	cache   *cache.FollowerCache
	users   *cache.UserCache
	repo    repository.FollowerRepository
	profile profileReader
	deps    Deps
}

func NewRelationshipService(d Deps) RelationshipService {
	return &relationshipService{
		cache:   d.Caches.Followers,
		users:   d.Caches.Users,
		repo:    d.Repos.Followers,
		profile: profileReader{cache: d.Caches.Users, repo: d.Repos.Users},
		deps:    d,
	}
}

// Follow 只有缓存里的边新建时才推送；落库任务总是入队，库里可能缺这条边
func (s *relationshipService) Follow(ctx context.Context, fromUserID, toUserID string) error {
	if err := s.pair(fromUserID, toUserID); err != nil {
		return err
	}
	if fromUserID == toUserID {
		return ErrFollowSelf
	}
	follower, err := s.profile.get(ctx, fromUserID)
	if err != nil {
		return err
	}
	if _, err := s.profile.get(ctx, toUserID); err != nil {
		return err
	}
	created, err := s.cache.Follow(ctx, fromUserID, toUserID)
	if err != nil {
		return err
	}
	if created {
		s.deps.Emit.Follower.Emit(ctx, realtime.EventAddFollower, FollowEvent{
			FollowerID: fromUserID, FolloweeID: toUserID, User: follower,
		})
	}
	s.deps.Queues.Follower.Add(ctx, queue.JobAddFollower, jobs.Follow{
		ID: model.NewID(), FollowerID: fromUserID, FolloweeID: toUserID,
	})
	return nil
}

func (s *relationshipService) Unfollow(ctx context.Context, fromUserID, toUserID string) error {
	if err := s.pair(fromUserID, toUserID); err != nil {
		return err
	}
	removed, err := s.cache.Unfollow(ctx, fromUserID, toUserID)
	if err != nil {
		return err
	}
	// 缓存里没有这条边时库里仍可能有（缓存被清空过），照样入队
	if removed {
		s.deps.Emit.Follower.Emit(ctx, realtime.EventRemoveFollower, FollowEvent{
			FollowerID: fromUserID, FolloweeID: toUserID,
		})
	}
	s.deps.Queues.Follower.Add(ctx, queue.JobRemoveFollower, jobs.Follow{
		FollowerID: fromUserID, FolloweeID: toUserID,
	})
	return nil
}

func (s *relationshipService) Following(ctx context.Context, userID string, page, pageSize int) ([]*model.User, error) {
	return s.list(ctx, userID, page, pageSize, s.cache.Following, s.repo.ListFollowings)
}

func (s *relationshipService) Followers(ctx context.Context, userID string, page, pageSize int) ([]*model.User, error) {
	return s.list(ctx, userID, page, pageSize, s.cache.Followers, s.repo.ListFollowers)
}

type idLister func(ctx context.Context, userID string) ([]string, error)
type userLister func(ctx context.Context, userID string, offset, limit int) ([]*model.User, error)

// list 缓存里有边就从缓存取 id 再批量取用户，否则回落数据库
func (s *relationshipService) list(ctx context.Context, userID string, page, pageSize int, ids idLister, fallback userLister) ([]*model.User, error) {
	if err := validateID("user id", userID); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	all, err := ids(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return fallback(ctx, userID, offset, pageSize)
	}
	if offset >= len(all) {
		return []*model.User{}, nil
	}
	end := offset + pageSize
	if end > len(all) {
		end = len(all)
	}
	return s.users.GetMany(ctx, all[offset:end])
}

func (s *relationshipService) Block(ctx context.Context, userID, targetID string) error {
	return s.setBlocked(ctx, userID, targetID, true)
}

func (s *relationshipService) Unblock(ctx context.Context, userID, targetID string) error {
	return s.setBlocked(ctx, userID, targetID, false)
}

func (s *relationshipService) setBlocked(ctx context.Context, userID, targetID string, block bool) error {
	if err := s.pair(userID, targetID); err != nil {
		return err
	}
	if userID == targetID {
		return ErrBlockSelf
	}
	if err := s.users.SetBlocked(ctx, userID, targetID, block); err != nil {
		return err
	}
	ev, job := realtime.EventBlockedUserID, queue.JobAddBlockedUser
	if !block {
		ev, job = realtime.EventUnblockedUserID, queue.JobRemoveBlockedUser
	}
	s.deps.Emit.User.Emit(ctx, ev, BlockEvent{BlockedUser: targetID, BlockedBy: userID})
	s.deps.Queues.BlockedUser.Add(ctx, job, jobs.Block{UserID: userID, TargetID: targetID})
	return nil
}

func (s *relationshipService) pair(a, b string) error {
	if err := validateID("user id", a); err != nil {
		return err
	}
	return validateID("user id", b)
}
