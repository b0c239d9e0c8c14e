package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/socialgraph/internal/kvstore"
	"github.com/d60-Lab/socialgraph/internal/model"
)

func newTestStore(t *testing.T) (*kvstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return kvstore.New(client, time.Second), mr
}

var fixtureClock = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fakeUser(i int) *model.User {
	return &model.User{
		ID:            model.NewID(),
		UID:           gofakeit.DigitN(12),
		Username:      gofakeit.Username(),
		Email:         gofakeit.Email(),
		AvatarColor:   gofakeit.HexColor(),
		Notifications: model.DefaultNotificationSettings(),
		Social:        model.SocialLinks{Twitter: gofakeit.URL()},
		Blocked:       []string{},
		BlockedBy:     []string{},
		Quote:         gofakeit.Sentence(6),
		CreatedAt:     fixtureClock.Add(time.Duration(i) * time.Minute),
	}
}

func fakePost(u *model.User, i int) *model.Post {
	return &model.Post{
		ID:          model.NewID(),
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		AvatarColor: u.AvatarColor,
		Body:        gofakeit.Sentence(10),
		BgColor:     gofakeit.HexColor(),
		Privacy:     model.PrivacyPublic,
		CreatedAt:   fixtureClock.Add(time.Duration(i) * time.Second),
	}
}
