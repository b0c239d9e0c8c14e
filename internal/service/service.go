package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/cache"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/realtime"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

// Caches 各实体缓存
type Caches struct {
	Users     *cache.UserCache
	Posts     *cache.PostCache
	Comments  *cache.CommentCache
	Reactions *cache.ReactionCache
	Followers *cache.FollowerCache
	Messages  *cache.MessageCache
}

// Deps 组合根注入的依赖。写路径：校验 -> 缓存 -> 推送 -> 入队；读路径：缓存 -> 数据库。
type Deps struct {
	Caches    Caches
	Repos     repository.Repositories
	Queues    *jobs.Queues
	Emit      *realtime.Emitters
	ClientURL string
	Log       *zap.Logger
}

func (d Deps) logger(name string) *zap.Logger {
	if d.Log == nil {
		return logger.Named(name)
	}
	return d.Log.Named(name)
}

var validate = validator.New()

func validateStruct(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.Wrap(apperr.Validation, verrs[0].Field()+" is invalid", err)
		}
		return apperr.Wrap(apperr.Validation, "invalid input", err)
	}
	return nil
}

func validateID(name, id string) error {
	if !model.ValidID(id) {
		return apperr.New(apperr.Validation, "invalid "+name)
	}
	return nil
}

// profileReader 缓存优先的用户读取，多个服务共用
type profileReader struct {
	cache *cache.UserCache
	repo  repository.UserRepository
}

func (r profileReader) get(ctx context.Context, id string) (*model.User, error) {
	u, err := r.cache.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}
	return r.repo.FindByID(ctx, id)
}

// postReader 同上，读取帖子
type postReader struct {
	cache *cache.PostCache
	repo  repository.PostRepository
}

func (r postReader) get(ctx context.Context, id string) (*model.Post, error) {
	p, err := r.cache.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	return r.repo.FindByID(ctx, id)
}

// update 写缓存；用户不在缓存时确认其存在于数据库
func (r profileReader) update(ctx context.Context, id string, fields map[string]any) (*model.User, error) {
	u, err := r.cache.UpdateFields(ctx, id, fields)
	if err != nil || u != nil {
		return u, err
	}
	return r.repo.FindByID(ctx, id)
}

// Services 全部领域服务
type Services struct {
	Users         UserService
	Posts         PostService
	Comments      CommentService
	Reactions     ReactionService
	Relationships RelationshipService
	Chats         ChatService
	Images        ImageService
	Notifications NotificationService
}

// NewAll 组装全部服务；缺少依赖时报错
func NewAll(d Deps) (*Services, error) {
	c := d.Caches
	if c.Users == nil || c.Posts == nil || c.Comments == nil || c.Reactions == nil || c.Followers == nil || c.Messages == nil {
		return nil, errors.New("service: every cache must be set")
	}
	if d.Queues == nil || d.Emit == nil {
		return nil, errors.New("service: queues and emitters must be set")
	}
	return &Services{
		Users:         NewUserService(d),
		Posts:         NewPostService(d),
		Comments:      NewCommentService(d),
		Reactions:     NewReactionService(d),
		Relationships: NewRelationshipService(d),
		Chats:         NewChatService(d),
		Images:        NewImageService(d),
		Notifications: NewNotificationService(d),
	}, nil
}
