// Package repotest opens migrated in-memory stores for tests.
package repotest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/anonto42/nano-midea/feedengine/internal/repositories"
	"github.com/anonto42/nano-midea/feedengine/pkg/config"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewDB opens a private in-memory SQLite database with every relation
// migrated and foreign keys enforced.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, true)
}

// NewScratchDB is NewDB without foreign key enforcement, for tests that
// exercise one relation with made-up ids.
func NewScratchDB(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, false)
}

func open(t testing.TB, foreignKeys bool) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	if foreignKeys {
		dsn += "&_pragma=foreign_keys(1)"
	}
	db, err := gorm.Open(sqlite.Open(dsn), config.GormConfig(0))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// One connection serialises writers the way row locks would.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := repositories.AutoMigrate(db, true); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// NewStore returns a Store over a fresh database.
func NewStore(t testing.TB) *repositories.Store {
	t.Helper()
	return repositories.NewStore(NewDB(t), nil)
}

// NewScratchStore returns a Store over a fresh database without foreign key
// enforcement.
func NewScratchStore(t testing.TB) *repositories.Store {
	t.Helper()
	return repositories.NewStore(NewScratchDB(t), nil)
}

// Base is a fixed instant tests build timelines from.
var Base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// At returns Base shifted by the given number of minutes.
func At(minutes int) time.Time {
	return Base.Add(time.Duration(minutes) * time.Minute)
}

// SeedAccount inserts an account with the given handle.
func SeedAccount(t testing.TB, s *repositories.Store, handle string) *models.Account {
	t.Helper()
	a := &models.Account{Handle: handle, DisplayName: handle, CreatedAt: Base}
	if err := s.Accounts.Create(context.Background(), a); err != nil {
		t.Fatalf("seed account %s: %v", handle, err)
	}
	return a
}

// SeedPost inserts a post by author at the given time.
func SeedPost(t testing.TB, s *repositories.Store, authorID, body string, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{AuthorID: authorID, Body: body, CreatedAt: at}
	if err := s.Posts.Create(context.Background(), p); err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return p
}
