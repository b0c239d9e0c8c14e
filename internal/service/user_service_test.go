package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/socialgraph/internal/apperr"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/mailer"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/queue"
)

func TestUserService_Register(t *testing.T) {
	e := newEnv(t)
	svc := NewUserService(e.deps)
	ctx := context.Background()

	u, err := svc.Register(ctx, NewUser{Username: "Alice1", Email: "Alice@Example.com", Password: "secret", AvatarColor: "#ff0000"})
	require.NoError(t, err)
	assert.Equal(t, "alice1", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.True(t, model.ValidID(u.ID))

	got, err := svc.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, got.Username)

	added := e.broker.named(queue.JobAddUser)
	require.Len(t, added, 1)
	job := decode[jobs.AddUser](t, added[0].Payload)
	assert.Equal(t, u.ID, job.User.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(job.PasswordHash), []byte("secret")))
}

func TestUserService_RegisterRejects(t *testing.T) {
	e := newEnv(t)
	svc := NewUserService(e.deps)
	ctx := context.Background()
	existing := e.storedUser(t)

	cases := []struct {
		name string
		in   NewUser
		kind apperr.Kind
	}{
		{"short username", NewUser{Username: "ab", Email: "a@b.co", Password: "pass", AvatarColor: "red"}, apperr.Validation},
		{"bad email", NewUser{Username: "abcd", Email: "nope", Password: "pass", AvatarColor: "red"}, apperr.Validation},
		{"duplicate", NewUser{Username: existing.Username, Email: "new@b.co", Password: "pass", AvatarColor: "red"}, apperr.Conflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.in)
			require.Error(t, err)
			assert.Equal(t, tc.kind, apperr.KindOf(err))
		})
	}
	assert.Empty(t, e.broker.named(queue.JobAddUser))
}

func TestUserService_ProfileFallsBackToDatabase(t *testing.T) {
	e := newEnv(t)
	svc := NewUserService(e.deps)
	u := e.storedUser(t)

	got, err := svc.Profile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	_, err = svc.Profile(context.Background(), model.NewID())
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestUserService_ListExcludesActor(t *testing.T) {
	e := newEnv(t)
	svc := NewUserService(e.deps)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, e.cachedUser(t).ID)
	}
	page, err := svc.List(ctx, ids[0], 1)
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	require.Len(t, page.Users, 4)
	for _, u := range page.Users {
		assert.NotEqual(t, ids[0], u.ID)
	}
}

func TestUserService_ListFallsBackToDatabase(t *testing.T) {
	e := newEnv(t)
	svc := NewUserService(e.deps)
	actor := e.storedUser(t)
	e.storedUser(t)
	e.storedUser(t)

	page, err := svc.List(context.Background(), actor.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Users, 2)
}

func TestUserService_UpdateInfo(t *testing.T) {
	e := newEnv(t)
	svc := NewUserService(e.deps)
	u := e.cachedUser(t)

	got, err := svc.UpdateInfo(context.Background(), u.ID, model.UserInfo{Work: "Acme", Quote: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Work)
	assert.Equal(t, "hi", got.Quote)

	updates := e.broker.named(queue.JobUpdateUserInfo)
	require.Len(t, updates, 1)
	assert.Equal(t, "Acme", decode[jobs.UpdateUserInfo](t, updates[0].Payload).Info.Work)
}

func TestUserService_UpdateNotificationSettings(t *testing.T) {
	e := newEnv(t)
	svc := NewUserService(e.deps)
	u := e.cachedUser(t)

	settings := model.DefaultNotificationSettings()
	settings.Comments = false
	got, err := svc.UpdateNotificationSettings(context.Background(), u.ID, settings)
	require.NoError(t, err)
	assert.False(t, got.Notifications.Comments)
	assert.True(t, got.Notifications.Follows)
	assert.Len(t, e.broker.named(queue.JobUpdateNotificationSettings), 1)
}

func TestUserService_ChangePassword(t *testing.T) {
	e := newEnv(t)
	svc := NewUserService(e.deps)
	ctx := context.Background()

	u := fakeUser()
	hash, err := bcrypt.GenerateFromPassword([]byte("oldpass"), bcrypt.MinCost)
	require.NoError(t, err)
	u.Password = string(hash)
	require.NoError(t, e.db.Create(u).Error)

	err = svc.ChangePassword(ctx, u.ID, ChangePassword{CurrentPassword: "wrong", NewPassword: "newpass", ConfirmPassword: "newpass"})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	err = svc.ChangePassword(ctx, u.ID, ChangePassword{CurrentPassword: "oldpass", NewPassword: "newpass", ConfirmPassword: "other"})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	assert.Empty(t, e.broker.named(queue.JobUpdatePassword))

	require.NoError(t, svc.ChangePassword(ctx, u.ID, ChangePassword{CurrentPassword: "oldpass", NewPassword: "newpass", ConfirmPassword: "newpass"}))
	updates := e.broker.named(queue.JobUpdatePassword)
	require.Len(t, updates, 1)
	p := decode[jobs.UpdatePassword](t, updates[0].Payload)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte("newpass")))

	emails := e.broker.named(queue.JobResetPasswordEmail)
	require.Len(t, emails, 1)
	msg := decode[mailer.Message](t, emails[0].Payload)
	assert.Equal(t, u.Email, msg.To)
	assert.Contains(t, msg.HTML, u.Username)
}
