package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/config"
	"github.com/d60-Lab/socialgraph/internal/api"
	"github.com/d60-Lab/socialgraph/internal/cache"
	"github.com/d60-Lab/socialgraph/internal/jobs"
	"github.com/d60-Lab/socialgraph/internal/kvstore"
	"github.com/d60-Lab/socialgraph/internal/mailer"
	"github.com/d60-Lab/socialgraph/internal/queue"
	"github.com/d60-Lab/socialgraph/internal/realtime"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/internal/service"
	"github.com/d60-Lab/socialgraph/internal/worker"
	"github.com/d60-Lab/socialgraph/pkg/database"
	"github.com/d60-Lab/socialgraph/pkg/logger"
	"github.com/d60-Lab/socialgraph/pkg/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Otel)
	if err != nil {
		return err
	}
	flushSentry, err := tracing.InitSentry(cfg.Sentry)
	if err != nil {
		return err
	}
	defer flushSentry()

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	store := kvstore.New(client, cfg.Cache.OpTimeout)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	broker := newBroker(cfg, client, queue.Options{
		MaxAttempts:  cfg.Queue.Attempts,
		Backoff:      cfg.Queue.Backoff,
		PollInterval: cfg.Queue.PollInterval,
		BufferSize:   cfg.Queue.BufferSize,
		Metrics:      queue.NewMetrics(reg),
		OnDead:       queue.SentryOnDead,
	}, log)
	queues := jobs.NewQueues(broker, log)

	var bus realtime.Bus = realtime.NewLocalBus()
	if cfg.Realtime.Bus == "redis" {
		bus = realtime.NewRedisBus(client, realtime.DefaultChannel, log.Named("realtime.bus"))
	}
	emit := realtime.NewEmitters(bus, log.Named("realtime.emit"))
	hub := realtime.NewHub(bus, realtime.HubOptions{Buffer: cfg.Realtime.Buffer, Metrics: realtime.NewMetrics(reg)}, log.Named("realtime.hub"))

	repos := repository.NewRepositories(db)
	caches := service.Caches{
		Users:     cache.NewUserCache(store),
		Posts:     cache.NewPostCache(store),
		Comments:  cache.NewCommentCache(store),
		Reactions: cache.NewReactionCache(store),
		Followers: cache.NewFollowerCache(store),
		Messages:  cache.NewMessageCache(store),
	}

	workers := worker.New(repos, caches.Users, emit, queues, worker.Options{
		Mailer:     mailer.New(cfg.SMTP, log.Named("mailer")),
		RatePerSec: cfg.Email.RatePerSec,
		ClientURL:  cfg.Email.ClientURL,
	}, log.Named("worker"))
	workers.Register(cfg.Queue.Concurrency)

	services, err := service.NewAll(service.Deps{
		Caches:    caches,
		Repos:     repos,
		Queues:    queues,
		Emit:      emit,
		ClientURL: cfg.Email.ClientURL,
		Log:       log,
	})
	if err != nil {
		return err
	}

	if err := broker.Start(ctx); err != nil {
		return fmt.Errorf("start broker: %w", err)
	}
	if err := hub.Start(ctx); err != nil {
		return fmt.Errorf("start hub: %w", err)
	}
	stopReconcile := cache.NewReconciler(store, cfg.Cache.ReconcileInterval, log.Named("cache.reconcile")).Start()

	router := api.NewRouter(hub, api.Options{
		Mode:        cfg.Server.Mode,
		ServiceName: otelServiceName(cfg.Otel),
		JWTSecret:   cfg.JWT.Secret,
		Gatherer:    reg,
		Chats:       services.Chats,
	}, log.Named("api"))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	go func() {
		log.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	hub.Close()
	_ = stopReconcile(shCtx)
	if err := broker.Stop(shCtx); err != nil {
		log.Warn("broker stop", zap.Error(err))
	}
	return shutdownTracing(shCtx)
}

func newBroker(cfg *config.Config, client redis.UniversalClient, opts queue.Options, log *zap.Logger) queue.Broker {
	if cfg.Queue.Backend == "memory" {
		return queue.NewMemoryBroker(opts, log.Named("queue.memory"))
	}
	return queue.NewRedisBroker(client, opts, log.Named("queue.redis"))
}

// otelServiceName 未配置 exporter 时不挂 otelgin
func otelServiceName(cfg config.OtelConfig) string {
	if cfg.Endpoint == "" {
		return ""
	}
	return cfg.ServiceName
}
