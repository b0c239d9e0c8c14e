package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/cache"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/mailer"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/queue"
	"github.com/d60-Lab/socialgraph/internal/repository"
)

const suggestionCount = 5

type NewUser struct {
	Username    string `json:"username" validate:"required,min=4,max=8,alphanum"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=4,max=16"`
	AvatarColor string `json:"avatarColor" validate:"required"`
}

type ChangePassword struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=4,max=16"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// UsersPage 一页用户及总数
type UsersPage struct {
	Users []*model.User `json:"users"`
	Total int           `json:"totalUsers"`
}

type UserService interface {
	Register(ctx context.Context, in NewUser) (*model.User, error)
	Profile(ctx context.Context, userID string) (*model.User, error)
	List(ctx context.Context, actorID string, page int) (*UsersPage, error)
	Suggestions(ctx context.Context, actorID string) ([]*model.User, error)
	UpdateInfo(ctx context.Context, userID string, info model.UserInfo) (*model.User, error)
	UpdateSocialLinks(ctx context.Context, userID string, links model.SocialLinks) (*model.User, error)
	UpdateNotificationSettings(ctx context.Context, userID string, s model.NotificationSettings) (*model.User, error)
	ChangePassword(ctx context.Context, userID string, in ChangePassword) error
}

type userService struct {
	cache   *cache.UserCache
	repo    repository.UserRepository
	profile profileReader
	deps    Deps
	log     *zap.Logger
}

func NewUserService(d Deps) UserService {
	return &userService{
		cache:   d.Caches.Users,
		repo:    d.Repos.Users,
		profile: profileReader{cache: d.Caches.Users, repo: d.Repos.Users},
		deps:    d,
		log:     d.logger("service.user"),
	}
}

func (s *userService) Register(ctx context.Context, in NewUser) (*model.User, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, in.Username, strings.ToLower(in.Email))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.New(apperr.Conflict, "invalid credentials")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "hash password", err)
	}
	u := &model.User{
		ID:            model.NewID(),
		UID:           randomDigits(12),
		Username:      strings.ToLower(in.Username),
		Email:         strings.ToLower(in.Email),
		AvatarColor:   in.AvatarColor,
		Blocked:       []string{},
		BlockedBy:     []string{},
		Notifications: model.DefaultNotificationSettings(),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.cache.Save(ctx, u); err != nil {
		return nil, err
	}
	s.deps.Queues.User.Add(ctx, queue.JobAddUser, jobs.AddUser{User: u, PasswordHash: string(hash)})
	return u, nil
}

func (s *userService) Profile(ctx context.Context, userID string) (*model.User, error) {
	if err := validateID("user id", userID); err != nil {
		return nil, err
	}
	return s.profile.get(ctx, userID)
}

// List 排除请求者本人；缓存为空时回落到数据库，两边分页算法一致
func (s *userService) List(ctx context.Context, actorID string, page int) (*UsersPage, error) {
	p := model.PageOf(page, model.UsersPageSize)
	users, err := s.cache.GetRange(ctx, p.Offset, p.Limit, actorID)
	if err != nil {
		return nil, err
	}
	total, err := s.cache.Total(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if len(users) > 0 {
		return &UsersPage{Users: users, Total: total}, nil
	}
	users, err = s.repo.List(ctx, p, actorID)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.Count(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return &UsersPage{Users: users, Total: int(n)}, nil
}

func (s *userService) Suggestions(ctx context.Context, actorID string) ([]*model.User, error) {
	users, err := s.cache.RandomSuggestions(ctx, actorID, suggestionCount)
	if err != nil {
		return nil, err
	}
	if len(users) > 0 {
		return users, nil
	}
	return s.repo.Suggestions(ctx, actorID, suggestionCount)
}

func (s *userService) UpdateInfo(ctx context.Context, userID string, info model.UserInfo) (*model.User, error) {
	if err := validateStruct(info); err != nil {
		return nil, err
	}
	u, err := s.update(ctx, userID, map[string]any{
		"work": info.Work, "school": info.School, "location": info.Location, "quote": info.Quote,
	})
	if err != nil {
		return nil, err
	}
	s.deps.Queues.User.Add(ctx, queue.JobUpdateUserInfo, jobs.UpdateUserInfo{UserID: userID, Info: info})
	return u, nil
}

func (s *userService) UpdateSocialLinks(ctx context.Context, userID string, links model.SocialLinks) (*model.User, error) {
	u, err := s.update(ctx, userID, map[string]any{"social": links})
	if err != nil {
		return nil, err
	}
	s.deps.Queues.User.Add(ctx, queue.JobUpdateSocialLinks, jobs.UpdateSocialLinks{UserID: userID, Links: links})
	return u, nil
}

func (s *userService) UpdateNotificationSettings(ctx context.Context, userID string, settings model.NotificationSettings) (*model.User, error) {
	u, err := s.update(ctx, userID, map[string]any{"notifications": settings})
	if err != nil {
		return nil, err
	}
	s.deps.Queues.User.Add(ctx, queue.JobUpdateNotificationSettings, jobs.UpdateNotificationSettings{UserID: userID, Settings: settings})
	return u, nil
}

func (s *userService) update(ctx context.Context, userID string, fields map[string]any) (*model.User, error) {
	if err := validateID("user id", userID); err != nil {
		return nil, err
	}
	return s.profile.update(ctx, userID, fields)
}

// ChangePassword 密码只存在数据库中，校验旧密码后异步更新并发确认邮件
func (s *userService) ChangePassword(ctx context.Context, userID string, in ChangePassword) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.CurrentPassword)) != nil {
		return apperr.New(apperr.Validation, "invalid credentials")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "hash password", err)
	}
	s.deps.Queues.User.Add(ctx, queue.JobUpdatePassword, jobs.UpdatePassword{UserID: userID, PasswordHash: string(hash)})

	html, err := mailer.ResetPasswordTemplate{
		Username: u.Username,
		Email:    u.Email,
		Date:     time.Now().UTC().Format("02/01/2006 15:04"),
	}.Render()
	if err != nil {
		s.log.Warn("render password reset email", zap.Error(err))
		return nil
	}
	s.deps.Queues.Email.Add(ctx, queue.JobResetPasswordEmail, mailer.Message{
		To:      u.Email,
		Subject: "Password Reset Confirmation",
		HTML:    html,
	})
	return nil
}

func randomDigits(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d", rand.Intn(10))
	}
	return b.String()
}
