// Package testutil builds throwaway databases for package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	"github.com/sangkips/tableside-api/internal/domain/event"
	"github.com/sangkips/tableside-api/internal/infrastructure/database"
	infraRepo "github.com/sangkips/tableside-api/internal/infrastructure/repository"
	"github.com/sangkips/tableside-api/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory sqlite database with every model migrated.
// A single connection keeps the in-memory database alive and serializes writers.
// Timestamps are written in UTC so range filters compare like for like.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

// SeedRestaurant creates a restaurant charging taxRate percent tax and returns
// a context scoped to it
func SeedRestaurant(t testing.TB, db *gorm.DB, taxRate string) (*entity.Restaurant, context.Context) {
	t.Helper()

	restaurant := &entity.Restaurant{
		Name:     "Test Kitchen " + uuid.NewString()[:8],
		Currency: "KES",
		TaxRate:  decimal.RequireFromString(taxRate),
	}
	restaurant.Slug = utils.Slugify(restaurant.Name)
	require.NoError(t, db.Create(restaurant).Error)

	return restaurant, infraRepo.WithRestaurant(context.Background(), restaurant.ID)
}

// RecordingSink keeps every notified topic for assertions
type RecordingSink struct {
	mu     sync.Mutex
	topics []string
}

func (s *RecordingSink) Notify(topic string, _ event.Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics = append(s.topics, topic)
}

// Topics returns a copy of the recorded topics in delivery order
func (s *RecordingSink) Topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.topics))
	copy(out, s.topics)
	return out
}

// Count returns how many times topic was delivered
func (s *RecordingSink) Count(topic string) int {
	n := 0
	for _, t := range s.Topics() {
		if t == topic {
			n++
		}
	}
	return n
}
