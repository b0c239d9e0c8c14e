package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/config"
	"github.com/d60-Lab/socialgraph/internal/cache"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/kvstore"
	"github.com/d60-Lab/socialgraph/internal/mailer"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/queue"
	"github.com/d60-Lab/socialgraph/internal/realtime"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/internal/service"
	"github.com/d60-Lab/socialgraph/internal/worker"
	"github.com/d60-Lab/socialgraph/pkg/database"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// followbench: N 个用户并发关注同一个用户，走 缓存 -> 推送 -> 入队 的写路径，
// 统计请求延迟、异步落库耗时和两种读路径的延迟。
func main() {
	cfg := must(config.Load())
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	if err := logger.Init("warn", false); err != nil {
		panic(err)
	}
	log := logger.L()
	db := must(database.InitDB(cfg))
	store := kvstore.NewFromAddr(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Cache.OpTimeout)
	defer store.Close()

	n := envInt("N", 10000)
	conc := envInt("CONC", 8)
	page := envInt("PAGE", 50)

	broker := queue.NewMemoryBroker(queue.Options{MaxAttempts: cfg.Queue.Attempts, Backoff: cfg.Queue.Backoff, BufferSize: n + 1}, log)
	queues := jobs.NewQueues(broker, log)
	bus := realtime.NewLocalBus()
	emit := realtime.NewEmitters(bus, log)
	repos := repository.NewRepositories(db)
	caches := service.Caches{
		Users:     cache.NewUserCache(store),
		Posts:     cache.NewPostCache(store),
		Comments:  cache.NewCommentCache(store),
		Reactions: cache.NewReactionCache(store),
		Followers: cache.NewFollowerCache(store),
		Messages:  cache.NewMessageCache(store),
	}
	worker.New(repos, caches.Users, emit, queues, worker.Options{Mailer: mailer.NewLogMailer(zap.NewNop())}, log).Register(conc)
	ctx := context.Background()
	if err := broker.Start(ctx); err != nil {
		panic(err)
	}
	rel := service.NewRelationshipService(service.Deps{Caches: caches, Repos: repos, Queues: queues, Emit: emit, Log: log})

	// 种子数据：users[0] 是被关注者
	users := make([]*model.User, n+1)
	for i := range users {
		users[i] = &model.User{
			ID:            model.NewID(),
			Username:      gofakeit.Username() + strconv.Itoa(i),
			Email:         strconv.Itoa(i) + gofakeit.Email(),
			AvatarColor:   gofakeit.HexColor(),
			Blocked:       []string{},
			BlockedBy:     []string{},
			Notifications: model.NotificationSettings{},
			CreatedAt:     time.Now().UTC(),
		}
	}
	for start := 0; start < len(users); start += 1000 {
		end := start + 1000
		if end > len(users) {
			end = len(users)
		}
		must(0, db.Create(users[start:end]).Error)
		for _, u := range users[start:end] {
			must(0, caches.Users.Save(ctx, u))
		}
	}
	celeb := users[0]

	lat := make([]time.Duration, 0, n)
	var mu sync.Mutex
	feed := make(chan int, n)
	for i := 1; i <= n; i++ {
		feed <- i
	}
	close(feed)

	t0 := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < conc; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range feed {
				st := time.Now()
				if err := rel.Follow(ctx, users[i].ID, celeb.ID); err != nil {
					log.Warn("follow", zap.Error(err))
				}
				d := time.Since(st)
				mu.Lock()
				lat = append(lat, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	writeDur := time.Since(t0)

	t1 := time.Now()
	drainCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	if err := broker.Drain(drainCtx); err != nil {
		log.Warn("drain", zap.Error(err))
	}
	landDur := time.Since(t1)

	q0 := time.Now()
	_, _ = rel.Followers(ctx, celeb.ID, 1, page)
	cacheRead := time.Since(q0)
	q1 := time.Now()
	_, _ = repos.Followers.ListFollowers(ctx, celeb.ID, 0, page)
	dbRead := time.Since(q1)

	cached := must(caches.Users.Get(ctx, celeb.ID))
	stored := must(repos.Users.FindByID(ctx, celeb.ID))
	_ = broker.Stop(ctx)

	pct := func(vs []time.Duration, p float64) time.Duration {
		if len(vs) == 0 {
			return 0
		}
		xs := append([]time.Duration(nil), vs...)
		sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
		k := int(math.Ceil(p*float64(len(xs)))) - 1
		if k < 0 {
			k = 0
		}
		if k >= len(xs) {
			k = len(xs) - 1
		}
		return xs[k]
	}

	fmt.Printf("N=%d, CONC=%d, PAGE=%d\n", n, conc, page)
	fmt.Printf("Follow (cache+emit+enqueue) total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		writeDur, writeDur/time.Duration(n), pct(lat, 0.50), pct(lat, 0.95), pct(lat, 0.99))
	fmt.Printf("Persistence drain: %v\n", landDur)
	fmt.Printf("Followers(%d) from cache: %v, from database: %v\n", page, cacheRead, dbRead)
	fmt.Printf("followersCount cache=%d database=%d\n", cached.FollowersCount, stored.FollowersCount)
}
