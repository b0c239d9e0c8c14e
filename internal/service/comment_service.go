package service

import (
	"context"
	"time"

	"github.com/d60-Lab/socialgraph/internal/cache"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/queue"
	"github.com/d60-Lab/socialgraph/internal/realtime"
	"github.com/d60-Lab/socialgraph/internal/repository"
)

type NewComment struct {
	PostID  string `json:"postId" validate:"required,len=24,hexadecimal"`
	Comment string `json:"comment" validate:"required,max=1000"`
}

type CommentService interface {
	Add(ctx context.Context, actorID string, in NewComment) (*model.Comment, error)
	List(ctx context.Context, postID string) ([]*model.Comment, error)
	Names(ctx context.Context, postID string) (*model.CommentNames, error)
	Get(ctx context.Context, postID, commentID string) (*model.Comment, error)
}

type commentService struct {
	cache   *cache.CommentCache
	repo    repository.CommentRepository
	posts   postReader
	profile profileReader
	deps    Deps
}

func NewCommentService(d Deps) CommentService {
	return &commentService{
		cache:   d.Caches.Comments,
		repo:    d.Repos.Comments,
		posts:   postReader{cache: d.Caches.Posts, repo: d.Repos.Posts},
		profile: profileReader{cache: d.Caches.Users, repo: d.Repos.Users},
		deps:    d,
	}
}

// Add 缓存追加并给帖子 commentsCount +1，随后异步落库
func (s *commentService) Add(ctx context.Context, actorID string, in NewComment) (*model.Comment, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	post, err := s.posts.get(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	author, err := s.profile.get(ctx, actorID)
	if err != nil {
		return nil, err
	}
	c := &model.Comment{
		ID:             model.NewID(),
		PostID:         post.ID,
		UserID:         author.ID,
		Username:       author.Username,
		AvatarColor:    author.AvatarColor,
		ProfilePicture: author.ProfilePicture,
		Body:           in.Comment,
		UserTo:         post.UserID,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.cache.Append(ctx, c); err != nil {
		return nil, err
	}
	s.deps.Emit.Post.Emit(ctx, realtime.EventComment, c)
	s.deps.Queues.Comment.Add(ctx, queue.JobAddComment, jobs.AddComment{Comment: c})
	return c, nil
}

func (s *commentService) List(ctx context.Context, postID string) ([]*model.Comment, error) {
	if err := validateID("post id", postID); err != nil {
		return nil, err
	}
	list, err := s.cache.List(ctx, postID)
	if err != nil || len(list) > 0 {
		return list, err
	}
	return s.repo.ListByPost(ctx, postID)
}

func (s *commentService) Names(ctx context.Context, postID string) (*model.CommentNames, error) {
	if err := validateID("post id", postID); err != nil {
		return nil, err
	}
	names, err := s.cache.Names(ctx, postID)
	if err != nil || names.Count > 0 {
		return names, err
	}
	return s.repo.Names(ctx, postID)
}

func (s *commentService) Get(ctx context.Context, postID, commentID string) (*model.Comment, error) {
	if err := validateID("comment id", commentID); err != nil {
		return nil, err
	}
	c, err := s.cache.Get(ctx, postID, commentID)
	if err != nil || c != nil {
		return c, err
	}
	return s.repo.FindByID(ctx, commentID)
}
