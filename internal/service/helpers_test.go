package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yassin-houari/bubbletech-pointage/internal/core/auth"
	"github.com/yassin-houari/bubbletech-pointage/internal/core/database"
	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
	"github.com/yassin-houari/bubbletech-pointage/pkg/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          "file:" + name + "?mode=memory&cache=shared",
		LogLevel:     "silent",
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, db *gorm.DB, role domain.Role, email, code string) *domain.User {
	t.Helper()
	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	u := &domain.User{
		LastName: "Test", FirstName: email, Email: email, PasswordHash: hash,
		Role: role, SecretCode: code, Active: true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func identity(u *domain.User) auth.Identity { return auth.IdentityOf(u) }

// testClock 手动推进的时钟
type testClock struct{ t time.Time }

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 3, 11, 8, 30, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *testClock) Clock() Clock            { return c.Now }

func nopLogger() *zap.Logger { return zap.NewNop() }
