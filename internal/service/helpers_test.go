package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/socialgraph/internal/cache"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/kvstore"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/queue"
	"github.com/d60-Lab/socialgraph/internal/realtime"
	"github.com/d60-Lab/socialgraph/internal/repository"
)

type enqueued struct {
	Queue   string
	Name    string
	Payload []byte
}

// recordingBroker 只记录入队，不执行
type recordingBroker struct {
	mu   sync.Mutex
	jobs []enqueued
}

func (b *recordingBroker) Enqueue(_ context.Context, q, name string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobs = append(b.jobs, enqueued{Queue: q, Name: name, Payload: payload})
	return nil
}

func (b *recordingBroker) Handle(string, string, int, queue.Handler) {}
func (b *recordingBroker) Start(context.Context) error                 { return nil }
func (b *recordingBroker) Stop(context.Context) error                  { return nil }
func (b *recordingBroker) Dead(context.Context, string, string, int) ([]*queue.Job, error) {
	return nil, nil
}

func (b *recordingBroker) named(name string) []enqueued {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []enqueued
	for _, j := range b.jobs {
		if j.Name == name {
			out = append(out, j)
		}
	}
	return out
}

type env struct {
	deps   Deps
	db     *gorm.DB
	mr     *miniredis.Miniredis
	broker *recordingBroker
	events <-chan realtime.Event
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.All()...))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := kvstore.New(client, time.Second)

	bus := realtime.NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	events, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	broker := &recordingBroker{}
	deps := Deps{
		Caches: Caches{
			Users:     cache.NewUserCache(store),
			Posts:     cache.NewPostCache(store),
			Comments:  cache.NewCommentCache(store),
			Reactions: cache.NewReactionCache(store),
			Followers: cache.NewFollowerCache(store),
			Messages:  cache.NewMessageCache(store),
		},
		Repos:     repository.NewRepositories(db),
		Queues:    jobs.NewQueues(broker, zap.NewNop()),
		Emit:      realtime.NewEmitters(bus, zap.NewNop()),
		ClientURL: "https://app.example.com",
		Log:       zap.NewNop(),
	}
	return &env{deps: deps, db: db, mr: mr, broker: broker, events: events}
}

func fakeUser() *model.User {
	return &model.User{
		ID:            model.NewID(),
		Username:      gofakeit.LetterN(6),
		Email:         gofakeit.Email(),
		AvatarColor:   gofakeit.HexColor(),
		Blocked:       []string{},
		BlockedBy:     []string{},
		Notifications: model.DefaultNotificationSettings(),
		CreatedAt:     time.Now().UTC(),
	}
}

// cachedUser 只写缓存，模拟刚注册尚未落库的用户
func (e *env) cachedUser(t *testing.T) *model.User {
	t.Helper()
	u := fakeUser()
	require.NoError(t, e.deps.Caches.Users.Save(context.Background(), u))
	return u
}

// storedUser 只写数据库，模拟缓存已丢失的用户
func (e *env) storedUser(t *testing.T) *model.User {
	t.Helper()
	u := fakeUser()
	require.NoError(t, e.db.Create(u).Error)
	return u
}

// next 取下一个名为 name 的事件，跳过其他事件
func (e *env) next(t *testing.T, name string) realtime.Event {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case ev := <-e.events:
			if ev.Name == name {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %q event", name)
			return realtime.Event{}
		}
	}
}

// none 断言当前没有积压的 name 事件
func (e *env) none(t *testing.T, name string) {
	t.Helper()
	for {
		select {
		case ev := <-e.events:
			if ev.Name == name {
				t.Fatalf("unexpected %q event", name)
			}
		case <-time.After(50 * time.Millisecond):
			return
		}
	}
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}
