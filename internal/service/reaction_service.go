package service

import (
	"context"
	"time"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/cache"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/queue"
	"github.com/d60-Lab/socialgraph/internal/realtime"
	"github.com/d60-Lab/socialgraph/internal/repository"
)

type NewReaction struct {
	PostID string             `json:"postId" validate:"required,len=24,hexadecimal"`
	Type   model.ReactionType `json:"type" validate:"required"`
}

// ReactionEvent post 命名空间 reaction 事件的负载
type ReactionEvent struct {
	Reaction *model.Reaction   `json:"reaction,omitempty"`
	PostID   string             `json:"postId"`
	UserID   string             `json:"userId"`
	Previous model.ReactionType `json:"previousReaction,omitempty"`
	Removed  bool               `json:"removed"`
}

type ReactionService interface {
	Add(ctx context.Context, actorID string, in NewReaction) (*model.Reaction, error)
	Remove(ctx context.Context, actorID, postID string) error
	List(ctx context.Context, postID string) ([]*model.Reaction, error)
	ByUser(ctx context.Context, postID, userID string) (*model.Reaction, error)
}

type reactionService struct {
	cache   *cache.ReactionCache
	repo    repository.ReactionRepository
	posts   postReader
	profile profileReader
	deps    Deps
}

func NewReactionService(d Deps) ReactionService {
	return &reactionService{
		cache:   d.Caches.Reactions,
		repo:    d.Repos.Reactions,
		posts:   postReader{cache: d.Caches.Posts, repo: d.Repos.Posts},
		profile: profileReader{cache: d.Caches.Users, repo: d.Repos.Users},
		deps:    d,
	}
}

// Add 替换语义：同一用户在同一帖子上只保留一条，旧类型随任务一起下发
func (s *reactionService) Add(ctx context.Context, actorID string, in NewReaction) (*model.Reaction, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, apperr.New(apperr.Validation, "invalid reaction type")
	}
	post, err := s.posts.get(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	author, err := s.profile.get(ctx, actorID)
	if err != nil {
		return nil, err
	}
	r := &model.Reaction{
		ID:             model.NewID(),
		PostID:         post.ID,
		UserID:         author.ID,
		Username:       author.Username,
		AvatarColor:    author.AvatarColor,
		ProfilePicture: author.ProfilePicture,
		Type:           in.Type,
		UserTo:         post.UserID,
		CreatedAt:      time.Now().UTC(),
	}
	prev, err := s.cache.Replace(ctx, r)
	if err != nil {
		return nil, err
	}
	s.deps.Emit.Post.Emit(ctx, realtime.EventReaction, ReactionEvent{
		Reaction: r, PostID: r.PostID, UserID: r.UserID, Previous: prev,
	})
	s.deps.Queues.Reaction.Add(ctx, queue.JobAddReaction, jobs.AddReaction{Reaction: r, Previous: prev})
	return r, nil
}

// Remove 用户没有表情时为空操作
func (s *reactionService) Remove(ctx context.Context, actorID, postID string) error {
	if err := validateID("post id", postID); err != nil {
		return err
	}
	prev, err := s.cache.Remove(ctx, postID, actorID)
	if err != nil {
		return err
	}
	s.deps.Emit.Post.Emit(ctx, realtime.EventReaction, ReactionEvent{
		PostID: postID, UserID: actorID, Previous: prev, Removed: true,
	})
	s.deps.Queues.Reaction.Add(ctx, queue.JobRemoveReaction, jobs.RemoveReaction{
		PostID: postID, UserID: actorID, Previous: prev,
	})
	return nil
}

func (s *reactionService) List(ctx context.Context, postID string) ([]*model.Reaction, error) {
	if err := validateID("post id", postID); err != nil {
		return nil, err
	}
	list, err := s.cache.List(ctx, postID)
	if err != nil || len(list) > 0 {
		return list, err
	}
	return s.repo.ListByPost(ctx, postID)
}

func (s *reactionService) ByUser(ctx context.Context, postID, userID string) (*model.Reaction, error) {
	if err := validateID("post id", postID); err != nil {
		return nil, err
	}
	r, err := s.cache.GetByUser(ctx, postID, userID)
	if err != nil || r != nil {
		return r, err
	}
	return s.repo.FindByUser(ctx, postID, userID)
}
