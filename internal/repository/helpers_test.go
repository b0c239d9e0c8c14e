package repository

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/socialgraph/internal/model"
)

func openTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		tb.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	// :memory: 每个连接一份库
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(model.All()...); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

var fixtureClock = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, db *gorm.DB, i int) *model.User {
	t.Helper()
	u := &model.User{
		ID:            model.NewID(),
		Username:      gofakeit.Username() + gofakeit.DigitN(4),
		Email:         gofakeit.Email(),
		Password:      "x",
		AvatarColor:   gofakeit.HexColor(),
		Notifications: model.DefaultNotificationSettings(),
		Blocked:       []string{},
		BlockedBy:     []string{},
		CreatedAt:     fixtureClock.Add(time.Duration(i) * time.Minute),
	}
	ok, err := NewUserRepository(db).Create(context.Background(), u)
	require.NoError(t, err)
	require.True(t, ok)
	return u
}

func seedPost(t *testing.T, db *gorm.DB, u *model.User, i int) *model.Post {
	t.Helper()
	p := &model.Post{
		ID:        model.NewID(),
		UserID:    u.ID,
		Username:  u.Username,
		Body:      gofakeit.Sentence(8),
		Privacy:   model.PrivacyPublic,
		CreatedAt: fixtureClock.Add(time.Duration(i) * time.Second),
	}
	ok, err := NewPostRepository(db).Create(context.Background(), p)
	require.NoError(t, err)
	require.True(t, ok)
	return p
}

func reload(t *testing.T, db *gorm.DB, v interface{}, id string) {
	t.Helper()
	require.NoError(t, db.Where("id = ?", id).First(v).Error)
}
