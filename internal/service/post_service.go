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

// PostsPage 一页帖子及总数
type PostsPage struct {
	Posts []*model.Post `json:"posts"`
	Total int           `json:"totalPosts"`
}

type PostService interface {
	Create(ctx context.Context, actorID string, in model.PostUpdate) (*model.Post, error)
	Update(ctx context.Context, actorID, postID string, in model.PostUpdate) (*model.Post, error)
	Delete(ctx context.Context, actorID, postID string) error
	Get(ctx context.Context, postID string) (*model.Post, error)
	List(ctx context.Context, page int) (*PostsPage, error)
	ListWithImages(ctx context.Context, page int) (*PostsPage, error)
	ByUser(ctx context.Context, userID string, page int) (*PostsPage, error)
}

type postService struct {
	cache   *cache.PostCache
	repo    repository.PostRepository
	posts   postReader
	profile profileReader
	deps    Deps
}

func NewPostService(d Deps) PostService {
	return &postService{
		cache:   d.Caches.Posts,
		repo:    d.Repos.Posts,
		posts:   postReader{cache: d.Caches.Posts, repo: d.Repos.Posts},
		profile: profileReader{cache: d.Caches.Users, repo: d.Repos.Users},
		deps:    d,
	}
}

func (s *postService) Create(ctx context.Context, actorID string, in model.PostUpdate) (*model.Post, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	author, err := s.profile.get(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if in.Privacy == "" {
		in.Privacy = model.PrivacyPublic
	}
	p := &model.Post{
		ID:             model.NewID(),
		UserID:         author.ID,
		Username:       author.Username,
		Email:          author.Email,
		AvatarColor:    author.AvatarColor,
		ProfilePicture: author.ProfilePicture,
		CreatedAt:      time.Now().UTC(),
	}
	in.Apply(p)

	if err := s.cache.Save(ctx, p); err != nil {
		return nil, err
	}
	s.deps.Emit.Post.Emit(ctx, realtime.EventAddPost, p)
	s.deps.Queues.Post.Add(ctx, queue.JobAddPost, jobs.AddPost{Post: p})
	if p.HasImage() {
		s.deps.Queues.Image.Add(ctx, queue.JobAddImage, jobs.Image{Image: &model.Image{
			ID:         model.NewID(),
			UserID:     author.ID,
			ImgID:      p.ImgID,
			ImgVersion: p.ImgVersion,
			CreatedAt:  p.CreatedAt,
		}})
	}
	return p, nil
}

func (s *postService) Update(ctx context.Context, actorID, postID string, in model.PostUpdate) (*model.Post, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	cur, err := s.owned(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}
	if in.Privacy == "" {
		in.Privacy = cur.Privacy
	}
	updated, err := s.cache.Update(ctx, postID, in)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		in.Apply(cur)
		updated = cur
	}
	s.deps.Emit.Post.Emit(ctx, realtime.EventUpdatePost, updated)
	s.deps.Queues.Post.Add(ctx, queue.JobUpdatePost, jobs.UpdatePost{PostID: postID, Update: in})
	return updated, nil
}

func (s *postService) Delete(ctx context.Context, actorID, postID string) error {
	if _, err := s.owned(ctx, actorID, postID); err != nil {
		return err
	}
	s.deps.Emit.Post.Emit(ctx, realtime.EventDeletePost, postID)
	if err := s.cache.Delete(ctx, postID, actorID); err != nil {
		return err
	}
	s.deps.Queues.Post.Add(ctx, queue.JobDeletePost, jobs.DeletePost{PostID: postID, UserID: actorID})
	return nil
}

// owned 只有作者可以修改或删除
func (s *postService) owned(ctx context.Context, actorID, postID string) (*model.Post, error) {
	if err := validateID("post id", postID); err != nil {
		return nil, err
	}
	p, err := s.posts.get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.UserID != actorID {
		return nil, apperr.New(apperr.Validation, "not the author of this post")
	}
	return p, nil
}

func (s *postService) Get(ctx context.Context, postID string) (*model.Post, error) {
	if err := validateID("post id", postID); err != nil {
		return nil, err
	}
	return s.posts.get(ctx, postID)
}

func (s *postService) List(ctx context.Context, page int) (*PostsPage, error) {
	p := model.PageOf(page, model.PostsPageSize)
	return s.page(ctx, repository.PostFilter{},
		func() ([]*model.Post, error) { return s.cache.GetRange(ctx, p.Offset, p.Limit) },
		func() (int, error) { return s.cache.Total(ctx) }, p)
}

func (s *postService) ListWithImages(ctx context.Context, page int) (*PostsPage, error) {
	p := model.PageOf(page, model.PostsPageSize)
	return s.page(ctx, repository.PostFilter{WithImages: true},
		func() ([]*model.Post, error) { return s.cache.GetImageRange(ctx, p.Offset, p.Limit) },
		func() (int, error) { return s.cache.TotalImages(ctx) }, p)
}

func (s *postService) ByUser(ctx context.Context, userID string, page int) (*PostsPage, error) {
	if err := validateID("user id", userID); err != nil {
		return nil, err
	}
	p := model.PageOf(page, model.PostsPageSize)
	return s.page(ctx, repository.PostFilter{UserID: userID},
		func() ([]*model.Post, error) { return s.cache.GetUserPosts(ctx, userID, p.Offset, p.Limit) },
		func() (int, error) { return s.cache.TotalForUser(ctx, userID) }, p)
}

// page 缓存命中直接返回；否则用同样的 offset/limit 查库
func (s *postService) page(ctx context.Context, f repository.PostFilter, fromCache func() ([]*model.Post, error), cacheTotal func() (int, error), p model.Page) (*PostsPage, error) {
	posts, err := fromCache()
	if err != nil {
		return nil, err
	}
	if len(posts) > 0 {
		total, err := cacheTotal()
		if err != nil {
			return nil, err
		}
		return &PostsPage{Posts: posts, Total: total}, nil
	}
	posts, err = s.repo.List(ctx, f, p)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	return &PostsPage{Posts: posts, Total: int(n)}, nil
}
