package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Email    EmailConfig    `mapstructure:"email"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Otel     OtelConfig     `mapstructure:"otel"`
	JWT      JWTConfig      `mapstructure:"jwt"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres | sqlite
	DSN    string `mapstructure:"dsn"`
}

type CacheConfig struct {
	OpTimeout         time.Duration `mapstructure:"op_timeout"`
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
}

// QueueConfig 任务队列参数
type QueueConfig struct {
	// Backend: redis（持久化）或 memory（单进程）
	Backend      string        `mapstructure:"backend"`
	Attempts     int           `mapstructure:"attempts"`
	Backoff      time.Duration `mapstructure:"backoff"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Concurrency  int           `mapstructure:"concurrency"`
	BufferSize   int           `mapstructure:"buffer_size"`
}

type RealtimeConfig struct {
	// Bus: redis 跨进程广播, local 单进程
	Bus    string `mapstructure:"bus"`
	Buffer int    `mapstructure:"buffer"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type EmailConfig struct {
	RatePerSec float64 `mapstructure:"rate_per_sec"`
	ClientURL  string  `mapstructure:"client_url"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type OtelConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// Load 读取 config.yaml（可选）+ SOCIAL_ 前缀环境变量
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("SOCIAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("cache.op_timeout", 2*time.Second)
	v.SetDefault("cache.reconcile_interval", 10*time.Minute)
	v.SetDefault("queue.backend", "redis")
	v.SetDefault("queue.attempts", 3)
	v.SetDefault("queue.backoff", 5*time.Second)
	v.SetDefault("queue.poll_interval", 100*time.Millisecond)
	v.SetDefault("queue.concurrency", 5)
	v.SetDefault("queue.buffer_size", 10000)
	v.SetDefault("realtime.bus", "redis")
	v.SetDefault("realtime.buffer", 64)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("email.rate_per_sec", 5)
	v.SetDefault("email.client_url", "http://localhost:3000")
	v.SetDefault("otel.service_name", "socialgraph")
}

// Validate 校验必须项
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("config: database.dsn is required for postgres")
		}
	case "sqlite":
		if c.Database.DSN == "" {
			c.Database.DSN = "file::memory:?cache=shared"
		}
	default:
		return fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver)
	}
	if c.Queue.Attempts <= 0 {
		return errors.New("config: queue.attempts must be positive")
	}
	if c.Queue.Concurrency <= 0 {
		c.Queue.Concurrency = 5
	}
	switch c.Queue.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("config: unsupported queue.backend %q", c.Queue.Backend)
	}
	return nil
}
